package graph

import (
	"fmt"

	"github.com/specialistvlad/pinpatch/internal/node"
	"github.com/specialistvlad/pinpatch/internal/pintype"
)

func (g *Graph) endpoints(l Link) (*node.Node, *node.Pin, *node.Node, *node.Pin, error) {
	from := g.Node(l.FromNode)
	if from == nil {
		return nil, nil, nil, nil, fmt.Errorf("%w: %s", ErrNodeNotFound, l.FromNode)
	}
	to := g.Node(l.ToNode)
	if to == nil {
		return nil, nil, nil, nil, fmt.Errorf("%w: %s", ErrNodeNotFound, l.ToNode)
	}
	fromPin := from.Pin(l.FromPin)
	if fromPin == nil {
		return nil, nil, nil, nil, fmt.Errorf("%w: %s.%s", ErrPinNotFound, l.FromNode, l.FromPin)
	}
	toPin := to.Pin(l.ToPin)
	if toPin == nil {
		return nil, nil, nil, nil, fmt.Errorf("%w: %s.%s", ErrPinNotFound, l.ToNode, l.ToPin)
	}
	return from, fromPin, to, toPin, nil
}

// CanConnect applies the schema rules to a prospective link without
// mutating the graph.
func (g *Graph) CanConnect(l Link) error {
	from, fromPin, to, toPin, err := g.endpoints(l)
	if err != nil {
		return err
	}

	reject := func(reason RejectReason, format string, args ...any) error {
		return &RejectError{
			Reason:       reason,
			FromCategory: fromPin.Category,
			ToCategory:   toPin.Category,
			Detail:       fmt.Sprintf(format, args...),
		}
	}

	if from.ID == to.ID {
		return reject(ReasonSameNode, "cannot link %s to itself", from.ID)
	}
	if fromPin.Direction == node.Input && toPin.Direction == node.Output {
		return reject(ReasonReversed, "%s is an input and %s is an output", l.FromPin, l.ToPin)
	}
	if fromPin.Direction != node.Output || toPin.Direction != node.Input {
		return reject(ReasonDirection, "%s (%s) cannot feed %s (%s)", l.FromPin, fromPin.Direction, l.ToPin, toPin.Direction)
	}
	if fromPin.Category.IsExec() != toPin.Category.IsExec() {
		return reject(ReasonExecMismatch, "cannot link %s pin %s to %s pin %s", fromPin.Category, l.FromPin, toPin.Category, l.ToPin)
	}
	if !pintype.Compatible(fromPin.Category, toPin.Category) {
		return reject(ReasonType, "%s is %s but %s expects %s", l.FromPin, fromPin.Category, l.ToPin, toPin.Category)
	}
	return nil
}

// Connect adds a schema-validated link. Data inputs and exec outputs hold a
// single link, so connecting to one replaces whatever was there.
func (g *Graph) Connect(l Link) error {
	if err := g.CanConnect(l); err != nil {
		return err
	}
	if g.HasLink(l) {
		return nil
	}

	_, fromPin, _, toPin, _ := g.endpoints(l)
	if !toPin.Category.IsExec() {
		g.BreakPinLinks(l.ToNode, l.ToPin)
	}
	if fromPin.Category.IsExec() {
		g.BreakPinLinks(l.FromNode, l.FromPin)
	}
	g.Links = append(g.Links, l)
	return nil
}

// ConnectRaw adds a link without schema validation. Both pins must exist.
func (g *Graph) ConnectRaw(l Link) error {
	if _, _, _, _, err := g.endpoints(l); err != nil {
		return err
	}
	if !g.HasLink(l) {
		g.Links = append(g.Links, l)
	}
	return nil
}
