package canon

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/pinpatch/internal/migration"
	"github.com/specialistvlad/pinpatch/internal/spec"
)

const (
	// CurrentVersion is the spec_version produced by Canonicalize.
	CurrentVersion = 2
	// SchemaName is the canonical spec_schema value.
	SchemaName = "pinpatch.graph"
	// DefaultTargetType is used when target.target_type is empty.
	DefaultTargetType = "FUNCTION"
)

// schemaAliases are spellings of SchemaName accepted from older clients.
var schemaAliases = map[string]bool{
	"":                  true,
	"graph":             true,
	"graphspec":         true,
	"graph_spec":        true,
	"pinpatch.graph.v1": true,
	"pinpatch.graph/v1": true,
}

// Options tune canonicalization.
type Options struct {
	SkipSort bool `json:"skip_sort"`
}

// Result is the canonical spec plus everything that was changed on the way.
type Result struct {
	Spec           *spec.GraphSpec `json:"canonical_spec"`
	DiffNotes      []string        `json:"diff_notes"`
	MigrationNotes []string        `json:"migration_notes"`
	Migrated       bool            `json:"spec_migrated"`
	Hash           string          `json:"canonical_hash"`
}

// Canonicalize normalizes a copy of s. The input is not modified. A nil
// tables value skips alias migration.
func Canonicalize(s *spec.GraphSpec, tables *migration.Tables, opts Options) (*Result, error) {
	if s == nil {
		return nil, fmt.Errorf("canonicalize: nil spec")
	}
	out := s.Clone()
	res := &Result{
		Spec:           out,
		DiffNotes:      []string{},
		MigrationNotes: []string{},
	}

	normalizeVersion(out, res)
	normalizeSchema(out, res)
	normalizeTargetType(out, res)

	if tables != nil {
		res.MigrationNotes = append(res.MigrationNotes, tables.Apply(out)...)
	}

	assignSyntheticIDs(out, res)

	if !opts.SkipSort {
		sortSpec(out)
	}

	res.Migrated = len(res.MigrationNotes) > 0

	hash, err := Hash(out)
	if err != nil {
		return nil, err
	}
	res.Hash = hash
	return res, nil
}

// CanonicalizeJSON is Canonicalize over the JSON boundary. Empty optsJSON
// means default options.
func CanonicalizeJSON(raw, optsJSON []byte, tables *migration.Tables) (*Result, error) {
	s, err := spec.Parse(raw)
	if err != nil {
		return nil, err
	}
	var opts Options
	if len(bytes.TrimSpace(optsJSON)) > 0 {
		if err := json.Unmarshal(optsJSON, &opts); err != nil {
			return nil, fmt.Errorf("%w: options: %v", spec.ErrParse, err)
		}
	}
	return Canonicalize(s, tables, opts)
}

// Hash returns the hex sha256 of the compact JSON encoding of s.
func Hash(s *spec.GraphSpec) (string, error) {
	data, err := spec.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode canonical spec: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// normalizeVersion never downgrades. An absent or older version is bumped
// and counts as a migration.
func normalizeVersion(s *spec.GraphSpec, res *Result) {
	switch {
	case s.SpecVersion <= 0:
		res.MigrationNotes = append(res.MigrationNotes, fmt.Sprintf("spec_version unset -> %d", CurrentVersion))
		s.SpecVersion = CurrentVersion
	case s.SpecVersion < CurrentVersion:
		res.MigrationNotes = append(res.MigrationNotes, fmt.Sprintf("spec_version %d -> %d", s.SpecVersion, CurrentVersion))
		s.SpecVersion = CurrentVersion
	case s.SpecVersion > CurrentVersion:
		res.DiffNotes = append(res.DiffNotes, fmt.Sprintf("spec_version %d is newer than %d; left unchanged", s.SpecVersion, CurrentVersion))
	}
}

func normalizeSchema(s *spec.GraphSpec, res *Result) {
	if s.SpecSchema == SchemaName {
		return
	}
	name := strings.ToLower(strings.TrimSpace(s.SpecSchema))
	if name != SchemaName && !schemaAliases[name] {
		res.DiffNotes = append(res.DiffNotes, fmt.Sprintf("unknown spec_schema %q replaced with %q", s.SpecSchema, SchemaName))
	} else {
		res.DiffNotes = append(res.DiffNotes, fmt.Sprintf("spec_schema %q -> %q", s.SpecSchema, SchemaName))
	}
	s.SpecSchema = SchemaName
}

func normalizeTargetType(s *spec.GraphSpec, res *Result) {
	tt := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s.Target.TargetType), " ", ""))
	if tt == "" {
		tt = DefaultTargetType
	}
	if tt != s.Target.TargetType {
		res.DiffNotes = append(res.DiffNotes, fmt.Sprintf("target_type %q -> %q", s.Target.TargetType, tt))
		s.Target.TargetType = tt
	}
}

// assignSyntheticIDs gives creatable nodes without a node_id a durable one.
// Indices are counted per base in content order so that permutations of the
// same spec receive the same ids.
func assignSyntheticIDs(s *spec.GraphSpec, res *Result) {
	used := make(map[string]bool)
	groups := make(map[string][]int)
	var bases []string

	for i, n := range s.Nodes {
		if n.NodeID != "" {
			used[n.NodeID] = true
			continue
		}
		if !n.AllowCreate || spec.IsSentinel(n.ID) {
			continue
		}
		key := n.SpawnerKey
		if key == "" {
			key = n.Function
		}
		if key == "" {
			key = n.NodeKind
		}
		base := Sanitize(key)
		if _, ok := groups[base]; !ok {
			bases = append(bases, base)
		}
		groups[base] = append(groups[base], i)
	}
	sort.Strings(bases)

	for _, base := range bases {
		members := groups[base]
		sort.SliceStable(members, func(a, b int) bool {
			return bytes.Compare(encode(s.Nodes[members[a]]), encode(s.Nodes[members[b]])) < 0
		})
		next := 0
		for _, i := range members {
			id := fmt.Sprintf("%s_%d", base, next)
			for used[id] {
				next++
				id = fmt.Sprintf("%s_%d", base, next)
			}
			used[id] = true
			next++
			s.Nodes[i].NodeID = id
			res.DiffNotes = append(res.DiffNotes, fmt.Sprintf("node %s: assigned node_id %q", s.Nodes[i].ID, id))
		}
	}
}

// Sanitize reduces a spawner key or kind name to [A-Za-z0-9_]. Runs of
// other characters collapse to one underscore.
func Sanitize(key string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.TrimSpace(key) {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !ok {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte('_')
			pending = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "node"
	}
	return b.String()
}

func sortSpec(s *spec.GraphSpec) {
	sort.SliceStable(s.Nodes, func(i, j int) bool {
		a, b := &s.Nodes[i], &s.Nodes[j]
		if (a.NodeID != "") != (b.NodeID != "") {
			return a.NodeID != ""
		}
		if a.NodeID != b.NodeID {
			return a.NodeID < b.NodeID
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.NodeKind != b.NodeKind {
			return a.NodeKind < b.NodeKind
		}
		if a.Position.Y != b.Position.Y {
			return a.Position.Y < b.Position.Y
		}
		if a.Position.X != b.Position.X {
			return a.Position.X < b.Position.X
		}
		return bytes.Compare(encode(*a), encode(*b)) < 0
	})
	sort.SliceStable(s.Links, func(i, j int) bool {
		a, b := &s.Links[i], &s.Links[j]
		if a.FromNodeID != b.FromNodeID {
			return a.FromNodeID < b.FromNodeID
		}
		if a.FromPin != b.FromPin {
			return a.FromPin < b.FromPin
		}
		if a.ToNodeID != b.ToNodeID {
			return a.ToNodeID < b.ToNodeID
		}
		if a.ToPin != b.ToPin {
			return a.ToPin < b.ToPin
		}
		return bytes.Compare(encode(*a), encode(*b)) < 0
	})
}

// encode is the tie-breaker key. Both node and link types marshal without
// error, so a failure yields nil and compares as smallest.
func encode(v any) []byte {
	data, _ := json.Marshal(v)
	return data
}
