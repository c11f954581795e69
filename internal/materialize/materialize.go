package materialize

import (
	"context"
	"fmt"
	"math"

	"github.com/specialistvlad/pinpatch/internal/ctxlog"
	"github.com/specialistvlad/pinpatch/internal/node"
	"github.com/specialistvlad/pinpatch/internal/report"
	"github.com/specialistvlad/pinpatch/internal/spawner"
	"github.com/specialistvlad/pinpatch/internal/spec"
)

// Materialize binds one spec node and records the outcome in the result.
// The returned node is nil when the spec node was skipped without a graph
// counterpart or failed.
func (s *State) Materialize(ctx context.Context, sn spec.GraphNode) (*node.Node, Decision) {
	logger := ctxlog.FromContext(ctx)

	if n, ok := s.Nodes[sn.ID]; ok {
		s.touchUp(n, sn)
		return n, Reused
	}
	if spec.IsSentinel(sn.ID) {
		n, ok := s.Sentinel(ctx, sn.ID, &sn.Position)
		if !ok {
			return nil, Failed
		}
		s.touchUp(n, sn)
		return n, Reused
	}

	if sn.NodeID != "" {
		existing := s.Graph.FindByStableID(sn.NodeID)
		if existing != nil && s.claimed[existing.ID] {
			s.Result.Warn("", "node %s: node_id %q is already bound by another spec node", sn.ID, sn.NodeID)
			s.Result.Skipped(sn.NodeID)
			return nil, Skipped
		}
		if existing != nil {
			switch {
			case sn.CreateOrUpdate && sn.AllowUpdate:
				s.touchUp(existing, sn)
				s.Result.Updated(sn.NodeID)
				logger.Debug("Updated node", "spec_id", sn.ID, "node", existing.String())
				return s.bind(sn.ID, existing), Updated
			case sn.CreateOrUpdate:
				s.Result.Skipped(sn.NodeID)
				logger.Debug("Skipped node, updates not allowed", "spec_id", sn.ID, "node", existing.String())
				return s.bind(sn.ID, existing), Skipped
			default:
				s.Result.Warn("", "node %s: create_or_update is false and node_id %q already exists; a duplicate untagged node was created", sn.ID, sn.NodeID)
				s.Result.Skipped(sn.NodeID)
				factory, ok := s.resolve(sn)
				if !ok {
					return nil, Failed
				}
				n, ok := s.spawn(ctx, sn, factory, false)
				if !ok {
					return nil, Failed
				}
				s.Result.Created(sn.ID)
				return n, Created
			}
		}
	}

	repairable := sn.NodeID != "" && s.RepairMode != spec.RepairNone && sn.CreateOrUpdate && sn.AllowUpdate
	if !repairable && !sn.AllowCreate {
		return s.skip(ctx, sn)
	}

	factory, ok := s.resolve(sn)
	if !ok {
		return nil, Failed
	}
	if repairable {
		if n, ok := s.repair(ctx, sn, factory); ok {
			return n, Repaired
		}
		if !sn.AllowCreate {
			return s.skip(ctx, sn)
		}
	}

	n, ok := s.spawn(ctx, sn, factory, true)
	if !ok {
		return nil, Failed
	}
	if sn.NodeID != "" {
		s.Result.Created(sn.NodeID)
	} else {
		s.Result.Created(sn.ID)
	}
	return n, Created
}

func (s *State) skip(ctx context.Context, sn spec.GraphNode) (*node.Node, Decision) {
	id := sn.ID
	if sn.NodeID != "" {
		id = sn.NodeID
	}
	s.Result.Skipped(id)
	ctxlog.FromContext(ctx).Debug("Skipped node, creation not allowed", "spec_id", sn.ID)
	return nil, Skipped
}

// resolve finds the factory for a spec node, recording a fatal error when
// nothing matches.
func (s *State) resolve(sn spec.GraphNode) (spawner.Factory, bool) {
	key := spawnKey(sn)
	hint, _ := node.ParseKind(sn.NodeKind)
	factory, err := s.Spawners.Resolve(key, hint)
	if err != nil {
		s.Result.Fail(report.CodeSpawnerUnresolved, "node %s: %v", sn.ID, err)
		return nil, false
	}
	return factory, true
}

func (s *State) spawn(ctx context.Context, sn spec.GraphNode, factory spawner.Factory, tag bool) (*node.Node, bool) {
	n, err := factory.Spawn(s.Graph, node.Position{X: sn.Position.X, Y: sn.Position.Y}, sn.ExtraData)
	if err != nil {
		s.Result.Warn(report.CodeNodeSpawnFailed, "node %s: %v", sn.ID, err)
		return nil, false
	}
	s.Graph.AddNode(n)
	if tag {
		n.StableID = sn.NodeID
	}
	s.touchUp(n, sn)
	ctxlog.FromContext(ctx).Debug("Spawned node", "spec_id", sn.ID, "node", n.String())
	return s.bind(sn.ID, n), true
}

// repair looks for an untagged node that matches the spec node's kind (and,
// in aggressive mode, identity) close to the requested position.
func (s *State) repair(ctx context.Context, sn spec.GraphNode, factory spawner.Factory) (*node.Node, bool) {
	tolerance := float64(SoftTolerance)
	if s.RepairMode == spec.RepairAggressive {
		tolerance = AggressiveTolerance
	}

	var best *node.Node
	bestDist := math.Inf(1)
	for _, n := range s.Graph.Nodes {
		if n.StableID != "" || s.claimed[n.ID] || n.Kind.IsSentinel() || n.Kind != factory.Kind() {
			continue
		}
		if s.RepairMode == spec.RepairAggressive && n.Identity() != factory.Identity() {
			continue
		}
		dx, dy := math.Abs(n.Pos.X-sn.Position.X), math.Abs(n.Pos.Y-sn.Position.Y)
		if dx > tolerance || dy > tolerance {
			continue
		}
		if d := dx*dx + dy*dy; d < bestDist {
			best, bestDist = n, d
		}
	}
	if best == nil {
		return nil, false
	}

	before := best.String()
	best.StableID = sn.NodeID
	s.touchUp(best, sn)
	s.Result.RepairSteps = append(s.Result.RepairSteps, report.Step{
		StepIndex:       len(s.Result.RepairSteps),
		Code:            report.RepairNodeID,
		Description:     fmt.Sprintf("tagged untagged node %s as %q (%s mode, distance %.1f)", best.ID, sn.NodeID, s.RepairMode, math.Sqrt(bestDist)),
		AffectedNodeIDs: []string{sn.NodeID},
		Before:          before,
		After:           best.String(),
	})
	s.Result.Updated(sn.NodeID)
	ctxlog.FromContext(ctx).Debug("Repaired node id", "spec_id", sn.ID, "node", best.String())
	return s.bind(sn.ID, best), true
}

// spawnKey picks the key handed to the spawner resolver: the spawner key
// when preferred, else the function, else a generic kind, else whatever
// identifier is left.
func spawnKey(sn spec.GraphNode) string {
	if sn.PreferSpawnerKey && sn.SpawnerKey != "" {
		return sn.SpawnerKey
	}
	if sn.Function != "" {
		return sn.Function
	}
	if k, ok := node.ParseKind(sn.NodeKind); ok {
		if _, ok := spawner.ForKind(k); ok {
			return sn.NodeKind
		}
	}
	if sn.SpawnerKey != "" {
		return sn.SpawnerKey
	}
	return sn.NodeKind
}
