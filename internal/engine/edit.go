package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/pinpatch/internal/ctxlog"
	"github.com/specialistvlad/pinpatch/internal/graph"
	"github.com/specialistvlad/pinpatch/internal/materialize"
	"github.com/specialistvlad/pinpatch/internal/node"
	"github.com/specialistvlad/pinpatch/internal/pins"
	"github.com/specialistvlad/pinpatch/internal/report"
	"github.com/specialistvlad/pinpatch/internal/spec"
)

// DeleteNode removes a node, found by stable id or graph id, together with
// its links. The entry node cannot be deleted.
func (e *Engine) DeleteNode(ctx context.Context, path, container, nodeID string) *report.EditResult {
	return e.editCall(ctx, OpDeleteNode, func(res *report.EditResult) {
		bp, g, ok := e.loadContainer(ctx, path, container, res)
		if !ok {
			return
		}
		n := g.Lookup(nodeID)
		if n == nil {
			res.Fail(report.CodeNodeNotFound, "node %q not found in %s", nodeID, g.Key())
			return
		}
		if n.Kind == node.KindEntry {
			res.Fail(report.CodeEditRejected, "node %q is the entry node of %s", nodeID, g.Key())
			return
		}
		res.NodeID = nodeID

		dropped, err := g.RemoveNode(n.ID)
		if err != nil {
			res.Fail(report.CodeNodeNotFound, "%v", err)
			return
		}
		if !e.save(ctx, bp, res) {
			return
		}
		ctxlog.FromContext(ctx).Info("Node deleted.", "asset_path", path, "graph", g.Key(), "node", n.String(), "links_removed", len(dropped))
	})
}

// DeleteLink removes one link. Node references resolve like DeleteNode; pin
// names resolve exactly, case-insensitively as a fallback.
func (e *Engine) DeleteLink(ctx context.Context, path, container, fromNodeID, fromPin, toNodeID, toPin string) *report.EditResult {
	return e.editCall(ctx, OpDeleteLink, func(res *report.EditResult) {
		bp, g, ok := e.loadContainer(ctx, path, container, res)
		if !ok {
			return
		}
		ref := report.LinkRef{FromNodeID: fromNodeID, FromPin: fromPin, ToNodeID: toNodeID, ToPin: toPin}

		from, to := g.Lookup(fromNodeID), g.Lookup(toNodeID)
		if from == nil {
			res.Fail(report.CodeNodeNotFound, "node %q not found in %s", fromNodeID, g.Key())
		}
		if to == nil {
			res.Fail(report.CodeNodeNotFound, "node %q not found in %s", toNodeID, g.Key())
		}
		if from == nil || to == nil {
			return
		}

		fp, errFrom := pins.Find(from, fromPin, node.Output)
		tp, errTo := pins.Find(to, toPin, node.Input)
		if err := errors.Join(errFrom, errTo); err != nil {
			res.Fail(report.CodeLinkNotFound, "link %s: %v", ref, err)
			return
		}
		if !g.Disconnect(graph.Link{FromNode: from.ID, FromPin: fp.Pin.Name, ToNode: to.ID, ToPin: tp.Pin.Name}) {
			res.Fail(report.CodeLinkNotFound, "link %s does not exist", ref)
			return
		}
		if !e.save(ctx, bp, res) {
			return
		}
		ctxlog.FromContext(ctx).Info("Link deleted.", "asset_path", path, "graph", g.Key(), "link", ref.String())
	})
}

// ReplaceNode swaps a node for a freshly spawned one built from newNode,
// keeping its stable id and position (unless newNode gives a position).
// Former links are reattached through pinRemap, old pin name to new; pins
// absent from the remap keep their name. Links that no longer fit are
// reported in DroppedLinks.
func (e *Engine) ReplaceNode(ctx context.Context, path, container, existingNodeID string, newNode spec.GraphNode, pinRemap map[string]string) *report.EditResult {
	return e.editCall(ctx, OpReplaceNode, func(res *report.EditResult) {
		logger := ctxlog.FromContext(ctx)

		bp, g, ok := e.loadContainer(ctx, path, container, res)
		if !ok {
			return
		}
		old := g.Lookup(existingNodeID)
		if old == nil {
			res.Fail(report.CodeNodeNotFound, "node %q not found in %s", existingNodeID, g.Key())
			return
		}
		if old.Kind == node.KindEntry {
			res.Fail(report.CodeEditRejected, "node %q is the entry node of %s", existingNodeID, g.Key())
			return
		}

		stableID := old.StableID
		if stableID == "" && newNode.NodeID != "" {
			stableID = newNode.NodeID
			if other := g.FindByStableID(stableID); other != nil && other.ID != old.ID {
				res.Fail(report.CodeEditRejected, "node_id %q already belongs to %s in %s", stableID, other.ID, g.Key())
				return
			}
		}
		sn := newNode
		if sn.ID == "" || spec.IsSentinel(sn.ID) {
			sn.ID = "replacement"
		}
		sn.NodeID = stableID
		sn.CreateOrUpdate, sn.AllowCreate, sn.AllowUpdate = true, true, true
		if sn.Position == (spec.Position{}) {
			sn.Position = spec.Position{X: old.Pos.X, Y: old.Pos.Y}
		}

		links := g.LinksOfNode(old.ID)
		if _, err := g.RemoveNode(old.ID); err != nil {
			res.Fail(report.CodeNodeNotFound, "%v", err)
			return
		}

		// The materializer applies the same spawn and touch-up rules as apply.
		spawned := report.NewApplyResult()
		n, _ := materialize.NewState(g, e.registry.Spawners, spec.RepairNone, spawned).Materialize(ctx, sn)
		absorb(res, spawned)
		if n == nil {
			if len(res.Errors) == 0 {
				res.Fail(report.CodeNodeSpawnFailed, "node %q could not be replaced", existingNodeID)
			}
			return
		}
		res.NodeID = refOf(n)

		for _, l := range links {
			e.relink(g, old.ID, n, l, pinRemap, res)
		}

		if err := g.Validate(); err != nil {
			res.Warn(report.CodeGraphInvalid, "%v", err)
		}
		if !e.save(ctx, bp, res) {
			return
		}
		logger.Info("Node replaced.",
			"asset_path", path,
			"graph", g.Key(),
			"old", old.String(),
			"new", n.String(),
			"relinked", len(res.Relinked),
			"dropped", len(res.DroppedLinks),
		)
	})
}

// relink reattaches one former link of oldID to n.
func (e *Engine) relink(g *graph.Graph, oldID string, n *node.Node, l graph.Link, pinRemap map[string]string, res *report.EditResult) {
	moved := l
	var err error
	if l.FromNode == oldID {
		moved.FromNode = n.ID
		moved.FromPin, err = remapPin(n, l.FromPin, pinRemap, node.Output)
	}
	if err == nil && l.ToNode == oldID {
		moved.ToNode = n.ID
		moved.ToPin, err = remapPin(n, l.ToPin, pinRemap, node.Input)
	}

	if err == nil {
		err = g.Connect(moved)
	}
	if err != nil {
		code := report.CodeLinkSchemaRejected
		switch {
		case errors.Is(err, pins.ErrAmbiguous):
			code = report.CodePinAmbiguous
		case errors.Is(err, pins.ErrNotFound):
			code = report.CodePinNotFound
		}
		dropped := report.FailedLink{LinkRef: linkRef(g, l, oldID, n), Code: code, Reason: err.Error()}
		res.DroppedLinks = append(res.DroppedLinks, dropped)
		res.Warn(code, "link %s dropped: %v", dropped.LinkRef, err)
		return
	}
	res.Relinked = append(res.Relinked, linkRef(g, moved, "", nil))
}

func remapPin(n *node.Node, name string, pinRemap map[string]string, dir node.Direction) (string, error) {
	if mapped, ok := pinRemap[name]; ok {
		name = mapped
	}
	m, err := pins.Find(n, name, dir)
	if err != nil {
		return "", err
	}
	if m.Pin.Direction != dir {
		return "", fmt.Errorf("%w: %q on %s is an %s", pins.ErrNotFound, name, n.ID, m.Pin.Direction)
	}
	return m.Pin.Name, nil
}

// linkRef names a graph link by caller-facing references. Endpoints equal
// to removedID are named after replacement instead.
func linkRef(g *graph.Graph, l graph.Link, removedID string, replacement *node.Node) report.LinkRef {
	name := func(id string) string {
		if id == removedID && replacement != nil {
			return refOf(replacement)
		}
		if n := g.Node(id); n != nil {
			return refOf(n)
		}
		return id
	}
	return report.LinkRef{FromNodeID: name(l.FromNode), FromPin: l.FromPin, ToNodeID: name(l.ToNode), ToPin: l.ToPin}
}

// refOf prefers the stable id.
func refOf(n *node.Node) string {
	if n.StableID != "" {
		return n.StableID
	}
	return n.ID
}

// absorb copies the materializer's findings into an edit result.
func absorb(res *report.EditResult, from *report.ApplyResult) {
	res.Warnings = append(res.Warnings, from.Warnings...)
	res.Errors = append(res.Errors, from.Errors...)
	for _, c := range from.ErrorCodes {
		res.AddCode(c)
	}
}
