package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/pinpatch/internal/autofix"
	"github.com/specialistvlad/pinpatch/internal/blueprint"
	"github.com/specialistvlad/pinpatch/internal/canon"
	"github.com/specialistvlad/pinpatch/internal/ctxlog"
	"github.com/specialistvlad/pinpatch/internal/graph"
	"github.com/specialistvlad/pinpatch/internal/materialize"
	"github.com/specialistvlad/pinpatch/internal/node"
	"github.com/specialistvlad/pinpatch/internal/pintype"
	"github.com/specialistvlad/pinpatch/internal/report"
	"github.com/specialistvlad/pinpatch/internal/spec"
)

// Apply parses a raw or canonical spec (JSON, or YAML) and applies it.
func (e *Engine) Apply(ctx context.Context, raw []byte) *report.ApplyResult {
	return e.applyCall(ctx, func(res *report.ApplyResult) {
		s, err := spec.ParseAny(raw)
		if err != nil {
			res.Fail(report.CodeSpecParseFailed, "%v", err)
			return
		}
		e.apply(ctx, s, res)
	})
}

// ApplySpec applies an already decoded spec. The spec is canonicalized
// first and is not modified.
func (e *Engine) ApplySpec(ctx context.Context, s *spec.GraphSpec) *report.ApplyResult {
	return e.applyCall(ctx, func(res *report.ApplyResult) {
		if s == nil {
			res.Fail(report.CodeSpecInvalid, "nil spec")
			return
		}
		e.apply(ctx, s, res)
	})
}

func (e *Engine) apply(ctx context.Context, raw *spec.GraphSpec, res *report.ApplyResult) {
	logger := ctxlog.FromContext(ctx)

	tables, err := e.registry.Migrations(ctx)
	if err != nil {
		res.Fail(report.CodeInternalError, "migration tables: %v", err)
		return
	}
	c, err := canon.Canonicalize(raw, tables, canon.Options{})
	if err != nil {
		res.Fail(report.CodeInternalError, "%v", err)
		return
	}
	res.SpecMigrated = c.Migrated
	res.MigrationNotes = append(res.MigrationNotes, c.MigrationNotes...)
	res.DiffNotes = append(res.DiffNotes, c.DiffNotes...)
	res.CanonicalHash = c.Hash

	s := c.Spec
	if err := s.Validate(); err != nil {
		res.Fail(report.CodeSpecInvalid, "%v", err)
		return
	}

	bp, g, ok := e.loadTarget(ctx, s.Target, res)
	if !ok {
		return
	}
	logger.Debug("Target loaded.", "asset_path", bp.Path, "graph", g.Key(), "nodes", len(g.Nodes), "links", len(g.Links))

	nodes := materialize.NewState(g, e.registry.Spawners, s.RepairMode, res)
	for _, sn := range s.Nodes {
		_, decision := nodes.Materialize(ctx, sn)
		e.opts.Metrics.Node(decision.String())
	}

	fixes := autofix.NewState(s.AutoFix, s.AutoFixInsertConversions, s.AutoFixMaxSteps)
	connector := autofix.NewConnector(g, e.registry.Spawners, fixes, autofix.Options{AllowRawFallback: e.opts.AllowRawFallback})
	for _, l := range s.Links {
		e.connect(ctx, nodes, connector, l, res)
	}
	res.AutoFixSteps = append(res.AutoFixSteps, fixes.Steps...)
	for _, step := range res.AutoFixSteps {
		e.opts.Metrics.Step(step.Code)
	}
	for _, step := range res.RepairSteps {
		e.opts.Metrics.Step(step.Code)
	}

	if err := g.Validate(); err != nil {
		res.Warn(report.CodeGraphInvalid, "%v", err)
	}
	saved := e.save(ctx, bp, res)

	logger.Info("Apply finished.",
		"asset_path", bp.Path,
		"graph", g.Key(),
		"created", len(res.CreatedNodeIDs),
		"updated", len(res.UpdatedNodeIDs),
		"skipped", len(res.SkippedNodeIDs),
		"connected_links", res.ConnectedLinks,
		"failed_links", len(res.FailedLinks),
		"auto_fix_steps", len(res.AutoFixSteps),
		"saved", saved,
		"errors", len(res.Errors),
	)
}

// loadTarget returns the target graph, creating the blueprint and the
// function when the target allows it.
func (e *Engine) loadTarget(ctx context.Context, t spec.GraphTarget, res *report.ApplyResult) (*blueprint.Blueprint, *graph.Graph, bool) {
	logger := ctxlog.FromContext(ctx)

	bp, err := e.store.Load(ctx, t.AssetPath)
	switch {
	case errors.Is(err, blueprint.ErrNotFound):
		if !t.CreateIfMissing {
			res.Fail(report.CodeTargetNotFound, "blueprint %s not found", t.AssetPath)
			return nil, nil, false
		}
		bp = blueprint.New(t.AssetPath)
		logger.Debug("Creating blueprint.", "asset_path", t.AssetPath)
	case err != nil:
		res.Fail(report.CodeTargetLoadFailed, "%v", err)
		return nil, nil, false
	}

	if g := bp.Graph(t.TargetType, t.Name); g != nil {
		return bp, g, true
	}
	if !t.CreateIfMissing {
		res.Fail(report.CodeTargetNotFound, "%s %q not found in %s", t.TargetType, t.Name, t.AssetPath)
		return nil, nil, false
	}

	g, err := newTargetGraph(t)
	if err != nil {
		res.Fail(report.CodeTargetLoadFailed, "cannot create %s %q: %v", t.TargetType, t.Name, err)
		return nil, nil, false
	}
	bp.Put(g)
	logger.Debug("Created target graph.", "graph", g.Key(), "inputs", len(g.Inputs), "outputs", len(g.Outputs))
	return bp, g, true
}

func newTargetGraph(t spec.GraphTarget) (*graph.Graph, error) {
	params := func(in []spec.Param) ([]graph.Param, error) {
		out := make([]graph.Param, 0, len(in))
		for _, p := range in {
			c, err := pintype.Parse(p.Type)
			if err != nil {
				return nil, fmt.Errorf("param %q: %w", p.Name, err)
			}
			out = append(out, graph.Param{Name: p.Name, Category: c})
		}
		return out, nil
	}
	inputs, err := params(t.Inputs)
	if err != nil {
		return nil, err
	}
	outputs, err := params(t.Outputs)
	if err != nil {
		return nil, err
	}
	return graph.NewFunction(t.TargetType, t.Name, inputs, outputs), nil
}

// connect processes one spec link. Links whose endpoints never entered the
// node map are reported and skipped.
func (e *Engine) connect(ctx context.Context, nodes *materialize.State, connector *autofix.Connector, l spec.GraphLink, res *report.ApplyResult) {
	ref := report.LinkRef{FromNodeID: l.FromNodeID, FromPin: l.FromPin, ToNodeID: l.ToNodeID, ToPin: l.ToPin}

	from, to := endpoint(ctx, nodes, l.FromNodeID), endpoint(ctx, nodes, l.ToNodeID)
	if from == nil || to == nil {
		missing := l.FromNodeID
		if from != nil {
			missing = l.ToNodeID
		}
		res.FailLink(report.FailedLink{LinkRef: ref, Code: report.CodeLinkNodeMissing, Reason: fmt.Sprintf("node %s was not materialized", missing)})
		e.opts.Metrics.Link("failed")
		return
	}

	out := connector.Connect(ctx, autofix.Request{Link: l, From: from, To: to})
	for _, w := range out.Warnings {
		res.Warn("", "%s", w)
	}
	for _, conv := range out.Converters {
		res.Created(conv.StableID)
	}
	if !out.Connected {
		res.FailLink(report.FailedLink{LinkRef: ref, Code: out.Code, Reason: out.Reason})
		e.opts.Metrics.Link("failed")
		return
	}
	res.ConnectedLinks++
	if out.Raw {
		e.opts.Metrics.Link("raw")
	} else {
		e.opts.Metrics.Link("connected")
	}
}

// endpoint maps a link reference to its node: a materialized spec node or
// a sentinel resolved (and possibly created) on first use.
func endpoint(ctx context.Context, nodes *materialize.State, id string) *node.Node {
	if n, ok := nodes.Nodes[id]; ok {
		return n
	}
	if spec.IsSentinel(id) {
		n, _ := nodes.Sentinel(ctx, id, nil)
		return n
	}
	return nil
}
