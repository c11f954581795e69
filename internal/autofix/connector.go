package autofix

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/pinpatch/internal/ctxlog"
	"github.com/specialistvlad/pinpatch/internal/graph"
	"github.com/specialistvlad/pinpatch/internal/node"
	"github.com/specialistvlad/pinpatch/internal/pins"
	"github.com/specialistvlad/pinpatch/internal/pintype"
	"github.com/specialistvlad/pinpatch/internal/report"
	"github.com/specialistvlad/pinpatch/internal/spawner"
	"github.com/specialistvlad/pinpatch/internal/spec"
)

// ConverterPrefix starts the stable id of every inserted conversion node.
const ConverterPrefix = "autofix:conv:"

// Options are process-level connector settings.
type Options struct {
	// AllowRawFallback connects without schema validation when every fix
	// failed, instead of failing the link.
	AllowRawFallback bool
}

// Request is one spec link with its endpoint nodes already materialized.
type Request struct {
	Link spec.GraphLink
	From *node.Node
	To   *node.Node
}

// Outcome describes what happened to one link.
type Outcome struct {
	Connected bool
	// Raw is set when the link was connected without schema validation.
	Raw bool
	// Link is the graph link that was made, after any swap.
	Link graph.Link
	// Code and Reason explain a failure.
	Code   report.Code
	Reason string
	// Warnings are recoverable observations, such as heuristic pin matches.
	Warnings []string
	// Converters are conversion nodes created for this link.
	Converters []*node.Node
}

// Connector wires links into one graph.
type Connector struct {
	graph    *graph.Graph
	spawners *spawner.Resolver
	state    *State
	opts     Options
}

// NewConnector creates a connector drawing fixes from state.
func NewConnector(g *graph.Graph, spawners *spawner.Resolver, state *State, opts Options) *Connector {
	return &Connector{graph: g, spawners: spawners, state: state, opts: opts}
}

// Connect resolves both pins of req and connects them, fixing what it may.
// Fixes are logged only when the link ends up connected.
func (c *Connector) Connect(ctx context.Context, req Request) (out Outcome) {
	logger := ctxlog.FromContext(ctx)
	l := req.Link
	var pending []report.Step

	fromPin, ok := c.resolvePin(req.From, l.FromNodeID, l.FromPin, node.Output, l.AllowHeuristicPinMatch, &pending, &out)
	if !ok {
		return out
	}
	toPin, ok := c.resolvePin(req.To, l.ToNodeID, l.ToPin, node.Input, l.AllowHeuristicPinMatch, &pending, &out)
	if !ok {
		return out
	}

	if l.BreakExistingFrom {
		c.graph.BreakPinLinks(req.From.ID, fromPin.Name)
	}
	if l.BreakExistingTo {
		c.graph.BreakPinLinks(req.To.ID, toPin.Name)
	}

	link := graph.Link{FromNode: req.From.ID, FromPin: fromPin.Name, ToNode: req.To.ID, ToPin: toPin.Name}
	out.Link = link

	if c.graph.HasLink(link) || c.convertedAlready(link) {
		return c.connected(out, pending)
	}

	if !l.UseSchema {
		if err := c.graph.ConnectRaw(link); err != nil {
			return fail(out, report.CodeLinkSchemaRejected, err.Error())
		}
		out.Raw = true
		return c.connected(out, pending)
	}

	err := c.graph.Connect(link)
	if err == nil {
		return c.connected(out, pending)
	}

	rej, ok := graph.AsReject(err)
	if !ok {
		return fail(out, report.CodeLinkSchemaRejected, err.Error())
	}

	original, originalErr := link, err
	swappedLink := false
	if rej.Reason == graph.ReasonReversed && c.state.fits(len(pending)) {
		swapped := graph.Link{FromNode: link.ToNode, FromPin: link.ToPin, ToNode: link.FromNode, ToPin: link.FromPin}
		swap := report.Step{
			Code:            report.FixSwapConnection,
			Description:     fmt.Sprintf("swapped reversed link %s -> %s", l.FromNodeID, l.ToNodeID),
			AffectedNodeIDs: []string{l.FromNodeID, l.ToNodeID},
			AffectedPins:    []string{link.FromPin, link.ToPin},
			Before:          link.String(),
			After:           swapped.String(),
		}

		var swapErr error
		if !c.graph.HasLink(swapped) && !c.convertedAlready(swapped) {
			swapErr = c.graph.Connect(swapped)
		}
		if swapErr == nil {
			out.Link = swapped
			return c.connected(out, append(pending, swap))
		}

		// A swapped link that only differs in type may still connect
		// through a conversion.
		if swapRej, isRej := graph.AsReject(swapErr); isRej && swapRej.Reason == graph.ReasonType {
			pending = append(pending, swap)
			link, rej, err = swapped, swapRej, swapErr
			out.Link = link
			swappedLink = true
		} else {
			logger.Debug("Swap did not help", "link", link.String(), "error", swapErr)
		}
	}

	if rej.Reason == graph.ReasonType && c.state.InsertConversions && c.state.fits(len(pending)) {
		if conv, ok := pintype.FindConversion(rej.FromCategory, rej.ToCategory); ok {
			converter, created, convErr := c.insertConversion(ctx, link, conv)
			if convErr == nil {
				pending = append(pending, report.Step{
					Code:            report.FixInsertConversion,
					Description:     fmt.Sprintf("inserted %s between %s and %s", conv.Function, l.FromNodeID, l.ToNodeID),
					AffectedNodeIDs: []string{l.FromNodeID, converter.StableID, l.ToNodeID},
					AffectedPins:    []string{link.FromPin, link.ToPin},
					Before:          link.String(),
					After:           fmt.Sprintf("%s.%s -> %s -> %s.%s", link.FromNode, link.FromPin, converter.ID, link.ToNode, link.ToPin),
				})
				if created {
					out.Converters = append(out.Converters, converter)
				}
				return c.connected(out, pending)
			}
			logger.Debug("Conversion insert failed", "link", link.String(), "error", convErr)
			err = convErr
		}
	}

	if swappedLink {
		pending = pending[:len(pending)-1]
		link, err = original, originalErr
		out.Link = link
	}

	if c.opts.AllowRawFallback {
		if rawErr := c.graph.ConnectRaw(link); rawErr == nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("link %s: schema validation bypassed after: %v", l, err))
			out.Raw = true
			return c.connected(out, pending)
		}
	}
	return fail(out, report.CodeLinkSchemaRejected, err.Error())
}

// connected marks out connected and logs the fixes that got it there.
func (c *Connector) connected(out Outcome, steps []report.Step) Outcome {
	for _, step := range steps {
		c.state.record(step)
	}
	out.Connected = true
	return out
}

// resolvePin finds the named pin. Exact and case-folded matches are always
// tried; alias and substring heuristics run when the link opted in, or as a
// budgeted FIX_PIN_ALIAS when it did not. The fix is appended to pending.
// Alias and substring matches warn; a case-folded match warns only when the
// link asked for heuristics.
func (c *Connector) resolvePin(n *node.Node, ref, name string, prefer node.Direction, allowHeuristic bool, pending *[]report.Step, out *Outcome) (*node.Pin, bool) {
	m, err := pins.Find(n, name, prefer)
	switch {
	case err == nil:
	case errors.Is(err, pins.ErrAmbiguous):
		*out = fail(*out, report.CodePinAmbiguous, err.Error())
		return nil, false
	case allowHeuristic:
		m, err = pins.FindHeuristic(n, name, prefer)
	case c.state.fits(len(*pending)):
		m, err = pins.FindHeuristic(n, name, prefer)
		if err == nil {
			*pending = append(*pending, report.Step{
				Code:            report.FixPinAlias,
				Description:     fmt.Sprintf("resolved pin %q on %s as %q (%s)", name, ref, m.Pin.Name, m.Method),
				AffectedNodeIDs: []string{ref},
				AffectedPins:    []string{m.Pin.Name},
				Before:          name,
				After:           m.Pin.Name,
			})
		}
	}
	if err != nil {
		code := report.CodePinNotFound
		if errors.Is(err, pins.ErrAmbiguous) {
			code = report.CodePinAmbiguous
		}
		*out = fail(*out, code, err.Error())
		return nil, false
	}
	if m.Method >= pins.MethodAlias || (allowHeuristic && m.Heuristic()) {
		out.Warnings = append(out.Warnings, fmt.Sprintf("heuristic pin match: %q on %s resolved to %q (%s)", name, ref, m.Pin.Name, m.Method))
	}
	return m.Pin, true
}

// ConverterID is the stable id of the conversion node between two graph
// nodes. Reusing it keeps repeated applies from stacking converters.
func ConverterID(fromNode, toNode string, conv pintype.Conversion) string {
	return ConverterPrefix + fromNode + ":" + toNode + ":" + conv.Label
}

// insertConversion wires from -> converter -> to, reusing an existing
// converter node when one is tagged for this pair.
func (c *Connector) insertConversion(ctx context.Context, link graph.Link, conv pintype.Conversion) (*node.Node, bool, error) {
	from, to := c.graph.Node(link.FromNode), c.graph.Node(link.ToNode)
	stableID := ConverterID(link.FromNode, link.ToNode, conv)

	converter := c.graph.FindByStableID(stableID)
	created := false
	if converter == nil {
		factory, err := c.spawners.Resolve(conv.Function, node.KindCall)
		if err != nil {
			return nil, false, err
		}
		mid := node.Position{X: (from.Pos.X + to.Pos.X) / 2, Y: (from.Pos.Y + to.Pos.Y) / 2}
		n, err := factory.Spawn(c.graph, mid, nil)
		if err != nil {
			return nil, false, err
		}
		n.StableID = stableID
		converter = c.graph.AddNode(n)
		created = true
		ctxlog.FromContext(ctx).Debug("Spawned conversion node", "id", converter.ID, "function", conv.Function)
	}

	in, out := converter.FirstDataPin(node.Input), converter.FirstDataPin(node.Output)
	if in == nil || out == nil {
		return c.abandon(converter, created, fmt.Errorf("conversion %s has no data pins", conv.Function))
	}
	if err := c.graph.Connect(graph.Link{FromNode: link.FromNode, FromPin: link.FromPin, ToNode: converter.ID, ToPin: in.Name}); err != nil {
		return c.abandon(converter, created, err)
	}
	if err := c.graph.Connect(graph.Link{FromNode: converter.ID, FromPin: out.Name, ToNode: link.ToNode, ToPin: link.ToPin}); err != nil {
		return c.abandon(converter, created, err)
	}
	return converter, created, nil
}

func (c *Connector) abandon(converter *node.Node, created bool, err error) (*node.Node, bool, error) {
	if created {
		_, _ = c.graph.RemoveNode(converter.ID)
	}
	return nil, false, err
}

// convertedAlready reports whether link is already satisfied through its
// conversion node.
func (c *Connector) convertedAlready(link graph.Link) bool {
	from, to := c.graph.Node(link.FromNode), c.graph.Node(link.ToNode)
	if from == nil || to == nil {
		return false
	}
	fromPin, toPin := from.Pin(link.FromPin), to.Pin(link.ToPin)
	if fromPin == nil || toPin == nil {
		return false
	}
	conv, ok := pintype.FindConversion(fromPin.Category, toPin.Category)
	if !ok {
		return false
	}
	converter := c.graph.FindByStableID(ConverterID(link.FromNode, link.ToNode, conv))
	if converter == nil {
		return false
	}
	in, out := converter.FirstDataPin(node.Input), converter.FirstDataPin(node.Output)
	if in == nil || out == nil {
		return false
	}
	return c.graph.HasLink(graph.Link{FromNode: link.FromNode, FromPin: link.FromPin, ToNode: converter.ID, ToPin: in.Name}) &&
		c.graph.HasLink(graph.Link{FromNode: converter.ID, FromPin: out.Name, ToNode: link.ToNode, ToPin: link.ToPin})
}

func fail(out Outcome, code report.Code, reason string) Outcome {
	out.Code = code
	out.Reason = reason
	return out
}
