package materialize

import (
	"context"

	"github.com/specialistvlad/pinpatch/internal/ctxlog"
	"github.com/specialistvlad/pinpatch/internal/node"
	"github.com/specialistvlad/pinpatch/internal/report"
	"github.com/specialistvlad/pinpatch/internal/spec"
)

// resultOffset places created result nodes to the right of the entry.
const resultOffset = 400

// Sentinel resolves Entry, Result and ResultN. Missing result nodes are
// created and reported under their sentinel id. pos, when given, positions
// a newly created result node.
func (s *State) Sentinel(ctx context.Context, id string, pos *spec.Position) (*node.Node, bool) {
	if n, ok := s.Nodes[id]; ok {
		return n, true
	}

	if id == spec.SentinelEntry {
		entry := s.Graph.Entry()
		if entry == nil {
			s.Result.Warn(report.CodeGraphInvalid, "graph %s has no entry node", s.Graph.Key())
			return nil, false
		}
		return s.bind(id, entry), true
	}

	var found *node.Node
	if id == spec.SentinelResult {
		found = plainResult(s.Graph.NodesOfKind(node.KindResult))
	} else if n := s.Graph.FindByStableID(id); n != nil && n.Kind == node.KindResult {
		found = n
	}
	if found != nil {
		return s.bind(id, found), true
	}

	at := node.Position{X: resultOffset}
	if entry := s.Graph.Entry(); entry != nil {
		at = node.Position{X: entry.Pos.X + resultOffset, Y: entry.Pos.Y}
	}
	if pos != nil && (pos.X != 0 || pos.Y != 0) {
		at = node.Position{X: pos.X, Y: pos.Y}
	}
	result := s.Graph.NewResultNode(at)
	if id != spec.SentinelResult {
		result.StableID = id
	}
	s.Graph.AddNode(result)
	s.Result.Created(id)
	ctxlog.FromContext(ctx).Debug("Created result node", "sentinel", id, "node", result.String())
	return s.bind(id, result), true
}

// plainResult picks the first untagged result node, falling back to the
// first one when every result node carries a ResultN tag.
func plainResult(results []*node.Node) *node.Node {
	for _, n := range results {
		if n.StableID == "" {
			return n
		}
	}
	if len(results) > 0 {
		return results[0]
	}
	return nil
}
