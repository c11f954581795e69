package node

import "strings"

// Kind is the discriminator identifying what a node does. The set is closed:
// adding a kind means extending this list and the spawner factory table.
type Kind string

const (
	KindEntry       Kind = "entry"
	KindResult      Kind = "result"
	KindCall        Kind = "call"
	KindVariableGet Kind = "variable_get"
	KindVariableSet Kind = "variable_set"
	KindCast        Kind = "cast"
	KindSelect      Kind = "select"
	KindReroute     Kind = "reroute"
)

var kinds = []Kind{
	KindEntry, KindResult, KindCall, KindVariableGet,
	KindVariableSet, KindCast, KindSelect, KindReroute,
}

// kindSpellings maps folded spellings (lowercase, no separators) to kinds.
var kindSpellings = map[string]Kind{
	"entry":          KindEntry,
	"functionentry":  KindEntry,
	"result":         KindResult,
	"return":         KindResult,
	"functionresult": KindResult,
	"call":           KindCall,
	"callfunction":   KindCall,
	"function":       KindCall,
	"variableget":    KindVariableGet,
	"get":            KindVariableGet,
	"variableset":    KindVariableSet,
	"set":            KindVariableSet,
	"cast":           KindCast,
	"dynamiccast":    KindCast,
	"select":         KindSelect,
	"reroute":        KindReroute,
	"knot":           KindReroute,
}

// Kinds returns every node kind.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// ParseKind folds case and separators and returns the matching kind.
func ParseKind(s string) (Kind, bool) {
	folded := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	k, ok := kindSpellings[folded]
	return k, ok
}

// IsSentinel reports whether nodes of this kind are owned by the function
// itself (entry and result stitching) rather than placed by a spec.
func (k Kind) IsSentinel() bool {
	return k == KindEntry || k == KindResult
}
