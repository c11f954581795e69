package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/goccy/go-yaml"
	"github.com/specialistvlad/pinpatch/internal/canon"
	"github.com/specialistvlad/pinpatch/internal/dispatch"
	"github.com/specialistvlad/pinpatch/internal/report"
	"github.com/specialistvlad/pinpatch/internal/spec"
)

// CanonicalizeRequest carries a raw spec (JSON or YAML) and optional
// canonicalization options as JSON.
type CanonicalizeRequest struct {
	Spec    json.RawMessage `json:"spec"`
	Options json.RawMessage `json:"options,omitempty"`
}

// DeleteNodeRequest names a node inside a function graph.
type DeleteNodeRequest struct {
	AssetPath string `json:"asset_path"`
	Container string `json:"container"`
	NodeID    string `json:"node_id"`
}

// DeleteLinkRequest names a link by both endpoints.
type DeleteLinkRequest struct {
	AssetPath  string `json:"asset_path"`
	Container  string `json:"container"`
	FromNodeID string `json:"from_node_id"`
	FromPin    string `json:"from_pin"`
	ToNodeID   string `json:"to_node_id"`
	ToPin      string `json:"to_pin"`
}

// ReplaceNodeRequest swaps a node for a freshly materialized one.
type ReplaceNodeRequest struct {
	AssetPath      string            `json:"asset_path"`
	Container      string            `json:"container"`
	ExistingNodeID string            `json:"existing_node_id"`
	NewNode        spec.GraphNode    `json:"new_node"`
	PinRemap       map[string]string `json:"pin_remap,omitempty"`
}

// Every operation below runs on the dispatch queue. A dispatch error means
// the caller stopped waiting; the work itself may still complete.

// Canonicalize normalizes a spec without touching any graph.
func (a *App) Canonicalize(ctx context.Context, req CanonicalizeRequest) (*canon.Result, error) {
	raw, err := ToJSON(req.Spec)
	if err != nil {
		return nil, err
	}
	type out struct {
		res *canon.Result
		err error
	}
	o, err := dispatch.Do(ctx, a.queue, func(ctx context.Context) out {
		res, err := a.engine.Canonicalize(ctx, raw, req.Options)
		return out{res, err}
	})
	if err != nil {
		return nil, err
	}
	return o.res, o.err
}

// Apply runs one apply call. Parse failures are reported in the result.
func (a *App) Apply(ctx context.Context, raw []byte) (*report.ApplyResult, error) {
	return dispatch.Do(ctx, a.queue, func(ctx context.Context) *report.ApplyResult {
		return a.engine.Apply(ctx, raw)
	})
}

// DeleteNode removes a node and its links.
func (a *App) DeleteNode(ctx context.Context, req DeleteNodeRequest) (*report.EditResult, error) {
	return dispatch.Do(ctx, a.queue, func(ctx context.Context) *report.EditResult {
		return a.engine.DeleteNode(ctx, req.AssetPath, req.Container, req.NodeID)
	})
}

// DeleteLink breaks one link.
func (a *App) DeleteLink(ctx context.Context, req DeleteLinkRequest) (*report.EditResult, error) {
	return dispatch.Do(ctx, a.queue, func(ctx context.Context) *report.EditResult {
		return a.engine.DeleteLink(ctx, req.AssetPath, req.Container, req.FromNodeID, req.FromPin, req.ToNodeID, req.ToPin)
	})
}

// ReplaceNode swaps a node and relinks what it can.
func (a *App) ReplaceNode(ctx context.Context, req ReplaceNodeRequest) (*report.EditResult, error) {
	return dispatch.Do(ctx, a.queue, func(ctx context.Context) *report.EditResult {
		return a.engine.ReplaceNode(ctx, req.AssetPath, req.Container, req.ExistingNodeID, req.NewNode, req.PinRemap)
	})
}

// ToJSON returns data unchanged when it is a JSON object and converts it
// from YAML otherwise.
func ToJSON(data []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return trimmed, nil
	}
	js, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", spec.ErrParse, err)
	}
	return js, nil
}
