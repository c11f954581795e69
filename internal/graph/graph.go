package graph

import (
	"fmt"
	"strconv"

	"github.com/specialistvlad/pinpatch/internal/node"
	"github.com/specialistvlad/pinpatch/internal/pintype"
)

// Param is one entry of a function signature.
type Param struct {
	Name     string           `msgpack:"name" json:"name"`
	Category pintype.Category `msgpack:"category" json:"category"`
}

// Link connects an output pin to an input pin.
type Link struct {
	FromNode string `msgpack:"from_node" json:"from_node"`
	FromPin  string `msgpack:"from_pin" json:"from_pin"`
	ToNode   string `msgpack:"to_node" json:"to_node"`
	ToPin    string `msgpack:"to_pin" json:"to_pin"`
}

func (l Link) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", l.FromNode, l.FromPin, l.ToNode, l.ToPin)
}

// Graph is the body of one callable.
type Graph struct {
	Type    string       `msgpack:"type" json:"type"`
	Name    string       `msgpack:"name" json:"name"`
	Inputs  []Param      `msgpack:"inputs" json:"inputs"`
	Outputs []Param      `msgpack:"outputs" json:"outputs"`
	Nodes   []*node.Node `msgpack:"nodes" json:"nodes"`
	Links   []Link       `msgpack:"links" json:"links"`
	NextSeq int          `msgpack:"next_seq" json:"next_seq"`
}

// New creates an empty graph with no entry node.
func New(graphType, name string) *Graph {
	return &Graph{Type: graphType, Name: name, NextSeq: 1}
}

// NewFunction creates a function graph with its entry and result nodes wired
// to the given signature.
func NewFunction(graphType, name string, inputs, outputs []Param) *Graph {
	g := New(graphType, name)
	g.Inputs = append([]Param(nil), inputs...)
	g.Outputs = append([]Param(nil), outputs...)

	entry := &node.Node{Kind: node.KindEntry, Title: name}
	entry.Pins = append(entry.Pins, &node.Pin{Name: "then", Direction: node.Output, Category: pintype.Exec})
	for _, p := range g.Inputs {
		entry.Pins = append(entry.Pins, &node.Pin{Name: p.Name, Direction: node.Output, Category: p.Category})
	}
	g.AddNode(entry)
	g.AddNode(g.NewResultNode(node.Position{X: 400}))
	return g
}

// NewResultNode builds (without adding) a result node matching the signature.
func (g *Graph) NewResultNode(pos node.Position) *node.Node {
	result := &node.Node{Kind: node.KindResult, Title: "Return", Pos: pos}
	result.Pins = append(result.Pins, &node.Pin{Name: "execute", Direction: node.Input, Category: pintype.Exec})
	for _, p := range g.Outputs {
		result.Pins = append(result.Pins, &node.Pin{Name: p.Name, Direction: node.Input, Category: p.Category})
	}
	return result
}

// Key identifies the graph inside its container.
func (g *Graph) Key() string {
	return g.Type + "." + g.Name
}

// AddNode assigns the next id to n and appends it.
func (g *Graph) AddNode(n *node.Node) *node.Node {
	if g.NextSeq <= 0 {
		g.NextSeq = 1
	}
	n.ID = "N" + strconv.Itoa(g.NextSeq)
	g.NextSeq++
	g.Nodes = append(g.Nodes, n)
	return n
}

// Node returns the node with the given graph id.
func (g *Graph) Node(id string) *node.Node {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// FindByStableID returns the node tagged with the stable id.
func (g *Graph) FindByStableID(stableID string) *node.Node {
	if stableID == "" {
		return nil
	}
	for _, n := range g.Nodes {
		if n.StableID == stableID {
			return n
		}
	}
	return nil
}

// Lookup resolves a caller-facing reference: a stable id first, then a graph id.
func (g *Graph) Lookup(ref string) *node.Node {
	if n := g.FindByStableID(ref); n != nil {
		return n
	}
	return g.Node(ref)
}

// NodesOfKind returns nodes of the given kind in graph order.
func (g *Graph) NodesOfKind(k node.Kind) []*node.Node {
	var out []*node.Node
	for _, n := range g.Nodes {
		if n.Kind == k {
			out = append(out, n)
		}
	}
	return out
}

// Entry returns the function entry node, or nil.
func (g *Graph) Entry() *node.Node {
	if nodes := g.NodesOfKind(node.KindEntry); len(nodes) > 0 {
		return nodes[0]
	}
	return nil
}

// RemoveNode deletes a node and returns the links that touched it.
func (g *Graph) RemoveNode(id string) ([]Link, error) {
	idx := -1
	for i, n := range g.Nodes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	g.Nodes = append(g.Nodes[:idx], g.Nodes[idx+1:]...)

	var dropped []Link
	kept := g.Links[:0]
	for _, l := range g.Links {
		if l.FromNode == id || l.ToNode == id {
			dropped = append(dropped, l)
			continue
		}
		kept = append(kept, l)
	}
	g.Links = kept
	return dropped, nil
}

// LinksOf returns the links attached to a pin.
func (g *Graph) LinksOf(nodeID, pin string) []Link {
	var out []Link
	for _, l := range g.Links {
		if (l.FromNode == nodeID && l.FromPin == pin) || (l.ToNode == nodeID && l.ToPin == pin) {
			out = append(out, l)
		}
	}
	return out
}

// LinksOfNode returns every link touching a node.
func (g *Graph) LinksOfNode(nodeID string) []Link {
	var out []Link
	for _, l := range g.Links {
		if l.FromNode == nodeID || l.ToNode == nodeID {
			out = append(out, l)
		}
	}
	return out
}

// HasLink reports whether the exact link exists.
func (g *Graph) HasLink(l Link) bool {
	for _, existing := range g.Links {
		if existing == l {
			return true
		}
	}
	return false
}

// Disconnect removes the exact link and reports whether it existed.
func (g *Graph) Disconnect(l Link) bool {
	for i, existing := range g.Links {
		if existing == l {
			g.Links = append(g.Links[:i], g.Links[i+1:]...)
			return true
		}
	}
	return false
}

// BreakPinLinks removes every link attached to a pin and returns them.
func (g *Graph) BreakPinLinks(nodeID, pin string) []Link {
	var broken []Link
	kept := g.Links[:0]
	for _, l := range g.Links {
		if (l.FromNode == nodeID && l.FromPin == pin) || (l.ToNode == nodeID && l.ToPin == pin) {
			broken = append(broken, l)
			continue
		}
		kept = append(kept, l)
	}
	g.Links = kept
	return broken
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	cp := *g
	cp.Inputs = append([]Param(nil), g.Inputs...)
	cp.Outputs = append([]Param(nil), g.Outputs...)
	cp.Links = append([]Link(nil), g.Links...)
	cp.Nodes = make([]*node.Node, len(g.Nodes))
	for i, n := range g.Nodes {
		cp.Nodes[i] = n.Clone()
	}
	return &cp
}
