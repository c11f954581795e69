package materialize

import (
	"github.com/specialistvlad/pinpatch/internal/graph"
	"github.com/specialistvlad/pinpatch/internal/node"
	"github.com/specialistvlad/pinpatch/internal/report"
	"github.com/specialistvlad/pinpatch/internal/spawner"
	"github.com/specialistvlad/pinpatch/internal/spec"
)

// Decision records what happened to one spec node.
type Decision int

const (
	Reused Decision = iota
	Updated
	Repaired
	Created
	Skipped
	Failed
)

func (d Decision) String() string {
	switch d {
	case Reused:
		return "reused"
	case Updated:
		return "updated"
	case Repaired:
		return "repaired"
	case Created:
		return "created"
	case Skipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Repair tolerances, in canvas units on each axis.
const (
	SoftTolerance       = 32
	AggressiveTolerance = 96
)

// State is the per-apply node map plus the collaborators needed to fill it.
type State struct {
	Graph      *graph.Graph
	Spawners   *spawner.Resolver
	RepairMode spec.RepairMode
	Result     *report.ApplyResult

	// Nodes maps spec ids (and sentinels) to graph nodes.
	Nodes map[string]*node.Node

	// claimed holds graph ids bound to a spec node during this apply.
	claimed map[string]bool
}

// NewState creates an empty node map over g.
func NewState(g *graph.Graph, spawners *spawner.Resolver, mode spec.RepairMode, result *report.ApplyResult) *State {
	return &State{
		Graph:      g,
		Spawners:   spawners,
		RepairMode: mode,
		Result:     result,
		Nodes:      make(map[string]*node.Node),
		claimed:    make(map[string]bool),
	}
}

func (s *State) bind(specID string, n *node.Node) *node.Node {
	s.Nodes[specID] = n
	s.claimed[n.ID] = true
	return n
}
