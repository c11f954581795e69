package engine

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"time"

	"github.com/specialistvlad/pinpatch/internal/blueprint"
	"github.com/specialistvlad/pinpatch/internal/canon"
	"github.com/specialistvlad/pinpatch/internal/ctxlog"
	"github.com/specialistvlad/pinpatch/internal/graph"
	"github.com/specialistvlad/pinpatch/internal/metrics"
	"github.com/specialistvlad/pinpatch/internal/registry"
	"github.com/specialistvlad/pinpatch/internal/report"
)

// Operation names used in logs and metrics.
const (
	OpApply       = "apply"
	OpDeleteNode  = "delete_node"
	OpDeleteLink  = "delete_link"
	OpReplaceNode = "replace_node"
)

// Options are process-level engine settings.
type Options struct {
	// AllowRawFallback lets links that failed every fix connect without
	// schema validation, with a warning.
	AllowRawFallback bool
	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// Engine applies specs and edits to blueprints in a store. All graph
// mutation happens while holding mu; the graph types have no locking of
// their own.
type Engine struct {
	mu       sync.Mutex
	registry *registry.Registry
	store    blueprint.Store
	opts     Options
}

// New creates an engine. The registry is shared and read-mostly; the store
// is only touched under the engine lock.
func New(reg *registry.Registry, store blueprint.Store, opts Options) *Engine {
	return &Engine{registry: reg, store: store, opts: opts}
}

// Registry returns the engine's registry.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Canonicalize normalizes a raw JSON spec without touching any graph.
func (e *Engine) Canonicalize(ctx context.Context, raw, optsJSON []byte) (*canon.Result, error) {
	tables, err := e.registry.Migrations(ctx)
	if err != nil {
		return nil, err
	}
	return canon.CanonicalizeJSON(raw, optsJSON, tables)
}

// failer is implemented by both report types.
type failer interface {
	Fail(code report.Code, format string, args ...any)
}

func (e *Engine) applyCall(ctx context.Context, fn func(*report.ApplyResult)) (res *report.ApplyResult) {
	start := time.Now()
	res = report.NewApplyResult()

	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("Engine call panicked.", "operation", OpApply, "panic", r, "stack", string(debug.Stack()))
			res.Fail(report.CodeInternalError, "%s: internal error: %v", OpApply, r)
		}
		res.Finalize()
		e.observe(OpApply, start, res.Success, res.ErrorCodes)
	}()

	fn(res)
	return res
}

func (e *Engine) editCall(ctx context.Context, op string, fn func(*report.EditResult)) (res *report.EditResult) {
	start := time.Now()
	res = report.NewEditResult()

	e.mu.Lock()
	defer e.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("Engine call panicked.", "operation", op, "panic", r, "stack", string(debug.Stack()))
			res.Fail(report.CodeInternalError, "%s: internal error: %v", op, r)
		}
		res.Finalize()
		e.observe(op, start, res.Success, res.ErrorCodes)
	}()

	fn(res)
	return res
}

func (e *Engine) observe(op string, start time.Time, success bool, codes []report.Code) {
	m := e.opts.Metrics
	m.ObserveCall(op, success, time.Since(start))
	for _, c := range codes {
		m.ErrorCode(string(c))
	}
}

// loadContainer fetches a blueprint and one of its graphs for an edit.
func (e *Engine) loadContainer(ctx context.Context, path, container string, res failer) (*blueprint.Blueprint, *graph.Graph, bool) {
	bp, err := e.store.Load(ctx, path)
	if errors.Is(err, blueprint.ErrNotFound) {
		res.Fail(report.CodeTargetNotFound, "blueprint %s not found", path)
		return nil, nil, false
	}
	if err != nil {
		res.Fail(report.CodeTargetLoadFailed, "%v", err)
		return nil, nil, false
	}
	g, ok := bp.FindGraph(container)
	if !ok {
		res.Fail(report.CodeTargetNotFound, "graph %q not found in %s", container, path)
		return nil, nil, false
	}
	return bp, g, true
}

func (e *Engine) save(ctx context.Context, bp *blueprint.Blueprint, res failer) bool {
	if err := e.store.Save(ctx, bp); err != nil {
		res.Fail(report.CodeSaveFailed, "%v", err)
		return false
	}
	return true
}
