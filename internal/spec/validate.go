package spec

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is wrapped by structural validation failures.
var ErrInvalid = errors.New("spec invalid")

// Validate checks the structural invariants of a spec. Links may only
// reference declared nodes or sentinels.
func (s *GraphSpec) Validate() error {
	var errs []string

	if strings.TrimSpace(s.Target.AssetPath) == "" {
		errs = append(errs, "target.asset_path is required")
	}
	if strings.TrimSpace(s.Target.Name) == "" {
		errs = append(errs, "target.name is required")
	}
	if !s.RepairMode.Valid() {
		errs = append(errs, fmt.Sprintf("repair_mode %q must be one of none, soft, aggressive", s.RepairMode))
	}
	if s.AutoFixMaxSteps < 0 {
		errs = append(errs, "auto_fix_max_steps cannot be negative")
	}

	ids := make(map[string]bool, len(s.Nodes))
	stable := make(map[string]string)
	for i, n := range s.Nodes {
		if n.ID == "" {
			errs = append(errs, fmt.Sprintf("nodes[%d]: id is required", i))
			continue
		}
		if ids[n.ID] {
			errs = append(errs, fmt.Sprintf("nodes[%d]: duplicate id %q", i, n.ID))
		}
		ids[n.ID] = true
		if n.NodeKind == "" && n.SpawnerKey == "" && n.Function == "" && !IsSentinel(n.ID) {
			errs = append(errs, fmt.Sprintf("node %q: one of node_kind, spawner_key or function is required", n.ID))
		}
		if n.NodeID != "" {
			if other, ok := stable[n.NodeID]; ok && n.CreateOrUpdate {
				errs = append(errs, fmt.Sprintf("node %q: node_id %q already claimed by %q", n.ID, n.NodeID, other))
			}
			stable[n.NodeID] = n.ID
		}
	}

	for i, l := range s.Links {
		for _, ref := range []string{l.FromNodeID, l.ToNodeID} {
			if !ids[ref] && !IsSentinel(ref) {
				errs = append(errs, fmt.Sprintf("links[%d] %s: unknown node %q", i, l, ref))
			}
		}
		if l.FromPin == "" || l.ToPin == "" {
			errs = append(errs, fmt.Sprintf("links[%d] %s: both pins are required", i, l))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n- %s", ErrInvalid, strings.Join(errs, "\n- "))
	}
	return nil
}
