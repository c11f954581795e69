package migration

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/pinpatch/internal/node"
	"github.com/specialistvlad/pinpatch/internal/nodeid"
	"github.com/specialistvlad/pinpatch/internal/spec"
)

// Apply rewrites obsolete names in s in place and returns one note per
// rewrite. A spec already using canonical names yields no notes.
func (t *Tables) Apply(s *spec.GraphSpec) []string {
	var notes []string

	for i := range s.Nodes {
		n := &s.Nodes[i]

		if to, ok := t.lookupKind(n.NodeKind); ok && to != n.NodeKind {
			notes = append(notes, fmt.Sprintf("node %s: node_kind %q -> %q", n.ID, n.NodeKind, to))
			n.NodeKind = to
		}

		old := n.ResolvedFunction()
		if to, ok := t.Functions[old]; ok && old != "" && to != old {
			if n.Function != "" {
				n.Function = to
			}
			if n.SpawnerKey == old {
				n.SpawnerKey = to
			}
			notes = append(notes, fmt.Sprintf("node %s: function %q -> %q", n.ID, old, to))
		}
	}

	rules := t.sortedPins()
	for i := range s.Links {
		l := &s.Links[i]
		if to, ok := t.rewritePin(rules, s, l.FromNodeID, l.FromPin); ok {
			notes = append(notes, fmt.Sprintf("link %s: from_pin %q -> %q", l, l.FromPin, to))
			l.FromPin = to
		}
		if to, ok := t.rewritePin(rules, s, l.ToNodeID, l.ToPin); ok {
			notes = append(notes, fmt.Sprintf("link %s: to_pin %q -> %q", l, l.ToPin, to))
			l.ToPin = to
		}
	}

	return notes
}

// lookupKind tries the exact name, then its last path segment.
func (t *Tables) lookupKind(kind string) (string, bool) {
	if kind == "" {
		return "", false
	}
	if to, ok := t.NodeKinds[kind]; ok {
		return to, true
	}
	to, ok := t.NodeKinds[nodeid.LastPathSegment(kind)]
	return to, ok
}

// sortedPins orders rules most specific first; among equals the later
// (overriding) entry comes first.
func (t *Tables) sortedPins() []PinAlias {
	order := make([]int, len(t.Pins))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := t.Pins[order[a]], t.Pins[order[b]]
		if ra.specificity() != rb.specificity() {
			return ra.specificity() > rb.specificity()
		}
		return order[a] > order[b]
	})
	out := make([]PinAlias, len(order))
	for i, o := range order {
		out[i] = t.Pins[o]
	}
	return out
}

// rewritePin returns the canonical name for pin on the node with spec id
// owner. The most specific applicable rule that mentions pin decides; a pin
// that rule treats as canonical is left alone.
func (t *Tables) rewritePin(rules []PinAlias, s *spec.GraphSpec, owner, pin string) (string, bool) {
	kind, function := ownerScope(s, owner)

	for _, r := range rules {
		if !r.applies(kind, function) {
			continue
		}
		if r.Canonical == pin {
			return "", false
		}
		if r.hasAlias(pin) {
			return r.Canonical, true
		}
	}
	return "", false
}

// ownerScope returns the node kind and function identifier used to scope pin
// aliases for the node a link endpoint refers to.
func ownerScope(s *spec.GraphSpec, id string) (string, string) {
	if n, ok := s.NodeByID(id); ok {
		kind := n.NodeKind
		if k, ok := node.ParseKind(kind); ok {
			kind = string(k)
		}
		return kind, n.ResolvedFunction()
	}
	switch {
	case id == spec.SentinelEntry:
		return string(node.KindEntry), ""
	case spec.IsSentinel(id):
		return string(node.KindResult), ""
	}
	return "", ""
}
