// Package pins maps requested pin names to actual pins on a node. Exact
// lookups fold case as a last resort; heuristic lookups additionally consult
// a fixed alias table and substring containment, and refuse to guess when
// more than one pin fits.
package pins

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/pinpatch/internal/node"
)

var (
	// ErrNotFound is returned when no pin matches.
	ErrNotFound = errors.New("pin not found")
	// ErrAmbiguous is returned when several pins match equally well.
	ErrAmbiguous = errors.New("ambiguous pin match")
)

// Method records how a pin was matched.
type Method int

const (
	MethodExact Method = iota
	MethodCaseInsensitive
	MethodAlias
	MethodSubstring
)

func (m Method) String() string {
	switch m {
	case MethodCaseInsensitive:
		return "case-insensitive"
	case MethodAlias:
		return "alias"
	case MethodSubstring:
		return "substring"
	default:
		return "exact"
	}
}

// Match is a resolved pin and how it was found.
type Match struct {
	Pin    *node.Pin
	Method Method
}

// Heuristic reports whether the match differs from a plain exact lookup.
func (m Match) Heuristic() bool { return m.Method != MethodExact }

// aliasGroups are bidirectional synonym sets for common structural pins.
var aliasGroups = [][]string{
	{"execute", "exec", "in"},
	{"then", "out", "completed"},
	{"returnvalue", "return", "result", "ret"},
	{"self", "target"},
	{"string", "str", "text"},
	{"name", "label"},
}

// Find resolves name exactly: case-sensitive first, then case-insensitive.
// A case-insensitive lookup matching several pins is ambiguous unless
// prefer narrows it to one.
func Find(n *node.Node, name string, prefer node.Direction) (Match, error) {
	if p := n.Pin(name); p != nil {
		return Match{Pin: p, Method: MethodExact}, nil
	}
	var folded []*node.Pin
	for _, p := range n.Pins {
		if strings.EqualFold(p.Name, name) {
			folded = append(folded, p)
		}
	}
	if len(folded) > 0 {
		p, err := pick(n, name, folded, prefer)
		if err != nil {
			return Match{}, err
		}
		return Match{Pin: p, Method: MethodCaseInsensitive}, nil
	}
	return Match{}, fmt.Errorf("%w: %q on node %s (pins: %s)", ErrNotFound, name, n, strings.Join(n.PinNames(), ", "))
}

// FindHeuristic extends Find with the alias table and then substring
// containment in either direction.
func FindHeuristic(n *node.Node, name string, prefer node.Direction) (Match, error) {
	m, err := Find(n, name, prefer)
	if err == nil || errors.Is(err, ErrAmbiguous) {
		return m, err
	}

	want := strings.ToLower(name)

	if group := aliasGroupOf(want); group != nil {
		var candidates []*node.Pin
		for _, p := range n.Pins {
			if inGroup(group, strings.ToLower(p.Name)) {
				candidates = append(candidates, p)
			}
		}
		if len(candidates) > 0 {
			p, err := pick(n, name, candidates, prefer)
			if err != nil {
				return Match{}, err
			}
			return Match{Pin: p, Method: MethodAlias}, nil
		}
	}

	if want != "" {
		var candidates []*node.Pin
		for _, p := range n.Pins {
			have := strings.ToLower(p.Name)
			if have != "" && (strings.Contains(have, want) || strings.Contains(want, have)) {
				candidates = append(candidates, p)
			}
		}
		if len(candidates) > 0 {
			p, err := pick(n, name, candidates, prefer)
			if err != nil {
				return Match{}, err
			}
			return Match{Pin: p, Method: MethodSubstring}, nil
		}
	}

	return Match{}, fmt.Errorf("%w: %q on node %s (pins: %s)", ErrNotFound, name, n, strings.Join(n.PinNames(), ", "))
}

// pick narrows candidates to one: a single candidate wins outright,
// otherwise exactly one candidate with the preferred direction must exist.
func pick(n *node.Node, name string, candidates []*node.Pin, prefer node.Direction) (*node.Pin, error) {
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	var preferred []*node.Pin
	if prefer != node.AnyDirection {
		for _, p := range candidates {
			if p.Direction == prefer {
				preferred = append(preferred, p)
			}
		}
	}
	if len(preferred) == 1 {
		return preferred[0], nil
	}
	names := make([]string, len(candidates))
	for i, p := range candidates {
		names[i] = p.Name
	}
	return nil, fmt.Errorf("%w: %q on node %s could be any of %s", ErrAmbiguous, name, n, strings.Join(names, ", "))
}

func aliasGroupOf(name string) []string {
	for _, group := range aliasGroups {
		if inGroup(group, name) {
			return group
		}
	}
	return nil
}

func inGroup(group []string, name string) bool {
	for _, g := range group {
		if g == name {
			return true
		}
	}
	return false
}
