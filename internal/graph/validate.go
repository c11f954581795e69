package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/pinpatch/internal/dag"
	"github.com/specialistvlad/pinpatch/internal/node"
)

// Validate checks structural integrity: unique ids and stable ids, links
// pointing at existing pins, a single entry node and no cycles through
// data links into pure nodes (nodes without exec pins).
func (g *Graph) Validate() error {
	var errs []string

	ids := make(map[string]bool)
	stable := make(map[string]string)
	for _, n := range g.Nodes {
		if ids[n.ID] {
			errs = append(errs, fmt.Sprintf("duplicate node id %s", n.ID))
		}
		ids[n.ID] = true
		if n.StableID != "" {
			if other, ok := stable[n.StableID]; ok {
				errs = append(errs, fmt.Sprintf("stable id %q carried by both %s and %s", n.StableID, other, n.ID))
			}
			stable[n.StableID] = n.ID
		}
	}

	if entries := g.NodesOfKind(node.KindEntry); len(entries) != 1 {
		errs = append(errs, fmt.Sprintf("expected exactly one entry node, found %d", len(entries)))
	}

	flow := dag.New()
	for _, n := range g.Nodes {
		flow.AddNode(n.ID)
	}
	for _, l := range g.Links {
		_, fromPin, to, _, err := g.endpoints(l)
		if err != nil {
			errs = append(errs, fmt.Sprintf("dangling link %s: %v", l, err))
			continue
		}
		if fromPin.Category.IsExec() || hasExec(to) {
			continue
		}
		if err := flow.AddEdge(l.FromNode, l.ToNode); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := flow.DetectCycles(); err != nil {
		errs = append(errs, "data flow "+err.Error())
	}

	if len(errs) > 0 {
		return errors.New("graph validation failed:\n- " + strings.Join(errs, "\n- "))
	}
	return nil
}

func hasExec(n *node.Node) bool {
	for _, p := range n.Pins {
		if p.Category.IsExec() {
			return true
		}
	}
	return false
}
