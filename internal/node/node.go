package node

import (
	"sort"
	"strings"

	"github.com/specialistvlad/pinpatch/internal/pintype"
)

// Direction tells whether a pin receives or produces a value.
type Direction int

const (
	// AnyDirection is only meaningful as a lookup preference.
	AnyDirection Direction = iota
	Input
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	default:
		return "any"
	}
}

// Pin is a typed connection point on a node.
type Pin struct {
	Name      string           `msgpack:"name" json:"name"`
	Direction Direction        `msgpack:"direction" json:"direction"`
	Category  pintype.Category `msgpack:"category" json:"category"`
	Default   string           `msgpack:"default,omitempty" json:"default,omitempty"`
}

// Position is a node's location on the graph canvas.
type Position struct {
	X float64 `msgpack:"x" json:"x"`
	Y float64 `msgpack:"y" json:"y"`
}

// Node is a single vertex of a function body graph.
type Node struct {
	// ID is assigned by the owning graph and never reused within it.
	ID   string `msgpack:"id" json:"id"`
	Kind Kind   `msgpack:"kind" json:"kind"`

	// StableID is the caller-assigned identity that survives across applies.
	// Empty means the node is untagged and eligible for repair matching.
	StableID string `msgpack:"stable_id,omitempty" json:"stable_id,omitempty"`

	// Function is the catalog identifier for call nodes.
	Function string `msgpack:"function,omitempty" json:"function,omitempty"`
	// Variable is the "owner:name" identifier for variable nodes.
	Variable string `msgpack:"variable,omitempty" json:"variable,omitempty"`

	Title string            `msgpack:"title,omitempty" json:"title,omitempty"`
	Pos   Position          `msgpack:"pos" json:"pos"`
	Pins  []*Pin            `msgpack:"pins" json:"pins"`
	Extra map[string]string `msgpack:"extra,omitempty" json:"extra,omitempty"`
}

// Identity is what a spawner would have been asked for to build this node:
// the function id, the variable id, or the bare kind.
func (n *Node) Identity() string {
	switch {
	case n.Function != "":
		return n.Function
	case n.Variable != "":
		return n.Variable
	default:
		return string(n.Kind)
	}
}

// Pin returns the pin with exactly this name, or nil.
func (n *Node) Pin(name string) *Pin {
	for _, p := range n.Pins {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// PinsOf returns the pins with the given direction, in declaration order.
func (n *Node) PinsOf(dir Direction) []*Pin {
	var out []*Pin
	for _, p := range n.Pins {
		if dir == AnyDirection || p.Direction == dir {
			out = append(out, p)
		}
	}
	return out
}

// FirstDataPin returns the first non-exec pin with the given direction.
func (n *Node) FirstDataPin(dir Direction) *Pin {
	for _, p := range n.Pins {
		if p.Direction == dir && !p.Category.IsExec() {
			return p
		}
	}
	return nil
}

// SetExtra stores a free-form key on the node.
func (n *Node) SetExtra(key, value string) {
	if n.Extra == nil {
		n.Extra = make(map[string]string)
	}
	n.Extra[key] = value
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	cp := *n
	cp.Pins = make([]*Pin, len(n.Pins))
	for i, p := range n.Pins {
		pc := *p
		cp.Pins[i] = &pc
	}
	if n.Extra != nil {
		cp.Extra = make(map[string]string, len(n.Extra))
		for k, v := range n.Extra {
			cp.Extra[k] = v
		}
	}
	return &cp
}

// PinNames returns the names of all pins, sorted, for diagnostics.
func (n *Node) PinNames() []string {
	names := make([]string, 0, len(n.Pins))
	for _, p := range n.Pins {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// String renders a short human-readable reference used in report messages.
func (n *Node) String() string {
	var sb strings.Builder
	sb.WriteString(n.ID)
	sb.WriteString(" (")
	sb.WriteString(n.Identity())
	if n.StableID != "" {
		sb.WriteString(", ")
		sb.WriteString(n.StableID)
	}
	sb.WriteString(")")
	return sb.String()
}
