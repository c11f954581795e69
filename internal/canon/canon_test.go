package canon

import (
	"testing"

	"github.com/specialistvlad/pinpatch/internal/migration"
	"github.com/specialistvlad/pinpatch/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSpec() *spec.GraphSpec {
	s := spec.New()
	s.SpecVersion = CurrentVersion
	s.SpecSchema = SchemaName
	s.Target = spec.GraphTarget{AssetPath: "/Game/BP_Player", TargetType: "FUNCTION", Name: "Heal"}

	add := spec.NewGraphNode("Add", "call")
	add.Function = "Math.AddInt"
	add.NodeID = "add"
	add.Position = spec.Position{X: 200, Y: 10}

	get := spec.NewGraphNode("Get", "variable_get")
	get.SpawnerKey = "BP_Player:Health"
	get.NodeID = "health"

	knot := spec.NewGraphNode("Knot", "reroute")
	knot.Position = spec.Position{X: 50, Y: 50}

	s.Nodes = []spec.GraphNode{add, get, knot}
	s.Links = []spec.GraphLink{
		spec.NewGraphLink("Entry", "then", "Add", "execute"),
		spec.NewGraphLink("Get", "Health", "Knot", "input"),
		spec.NewGraphLink("Add", "then", "Result", "execute"),
	}
	return s
}

func TestCanonicalize_CanonicalInputIsStable(t *testing.T) {
	// --- Arrange ---
	s := sampleSpec()
	s.Nodes[2].NodeID = "knot"

	// --- Act ---
	res, err := Canonicalize(s, migration.Defaults(), Options{})

	// --- Assert ---
	require.NoError(t, err)
	assert.False(t, res.Migrated)
	assert.Empty(t, res.MigrationNotes)
	assert.Empty(t, res.DiffNotes)
	assert.Len(t, res.Hash, 64)

	again, err := Canonicalize(res.Spec, migration.Defaults(), Options{})
	require.NoError(t, err)
	assert.Equal(t, res.Hash, again.Hash)
	assert.Empty(t, again.DiffNotes)
}

func TestCanonicalize_DoesNotMutateInput(t *testing.T) {
	s := sampleSpec()
	s.SpecVersion = 0
	s.Target.TargetType = " function "
	before := s.Clone()

	_, err := Canonicalize(s, migration.Defaults(), Options{})
	require.NoError(t, err)
	assert.Equal(t, before.SpecVersion, s.SpecVersion)
	assert.Equal(t, before.Target, s.Target)
	assert.Equal(t, before.Nodes, s.Nodes)
}

func TestCanonicalize_Version(t *testing.T) {
	testCases := []struct {
		name         string
		version      int
		wantVersion  int
		wantMigrated bool
	}{
		{name: "absent version is migrated", version: 0, wantVersion: CurrentVersion, wantMigrated: true},
		{name: "negative version is migrated", version: -3, wantVersion: CurrentVersion, wantMigrated: true},
		{name: "older version is migrated", version: 1, wantVersion: CurrentVersion, wantMigrated: true},
		{name: "current version untouched", version: CurrentVersion, wantVersion: CurrentVersion},
		{name: "newer version never downgraded", version: CurrentVersion + 1, wantVersion: CurrentVersion + 1},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := sampleSpec()
			s.SpecVersion = tc.version

			res, err := Canonicalize(s, nil, Options{})
			require.NoError(t, err)
			assert.Equal(t, tc.wantVersion, res.Spec.SpecVersion)
			assert.Equal(t, tc.wantMigrated, res.Migrated)
			assert.Equal(t, tc.wantMigrated, len(res.MigrationNotes) > 0)
			if tc.version != CurrentVersion {
				assert.NotEmpty(t, append(res.DiffNotes, res.MigrationNotes...))
			}
		})
	}
}

func TestCanonicalize_SchemaAndTargetType(t *testing.T) {
	testCases := []struct {
		schema, targetType string
		wantType           string
	}{
		{schema: "", targetType: "", wantType: "FUNCTION"},
		{schema: "graph_spec", targetType: " function ", wantType: "FUNCTION"},
		{schema: "something-else", targetType: "Event Graph", wantType: "EVENTGRAPH"},
		{schema: SchemaName, targetType: "macro", wantType: "MACRO"},
	}
	for _, tc := range testCases {
		t.Run(tc.schema+"/"+tc.targetType, func(t *testing.T) {
			s := sampleSpec()
			s.SpecSchema = tc.schema
			s.Target.TargetType = tc.targetType

			res, err := Canonicalize(s, nil, Options{})
			require.NoError(t, err)
			assert.Equal(t, SchemaName, res.Spec.SpecSchema)
			assert.Equal(t, tc.wantType, res.Spec.Target.TargetType)
			assert.NotEmpty(t, res.DiffNotes)
		})
	}
}

func TestCanonicalize_Migrations(t *testing.T) {
	s := sampleSpec()
	s.Nodes[0].NodeKind = "K2Node_CallFunction"
	s.Links[0].ToPin = "exec"

	res, err := Canonicalize(s, migration.Defaults(), Options{})
	require.NoError(t, err)
	assert.True(t, res.Migrated)
	assert.Len(t, res.MigrationNotes, 2)

	add, ok := res.Spec.NodeByID("Add")
	require.True(t, ok)
	assert.Equal(t, "call", add.NodeKind)
	for _, l := range res.Spec.Links {
		if l.ToNodeID == "Add" {
			assert.Equal(t, "execute", l.ToPin)
		}
	}
}

func TestCanonicalize_SyntheticIDs(t *testing.T) {
	// --- Arrange ---
	s := sampleSpec()
	first := spec.NewGraphNode("First", "adder")
	second := spec.NewGraphNode("Second", "adder")
	second.Position = spec.Position{X: 10}
	taken := spec.NewGraphNode("Taken", "call")
	taken.NodeID = "adder_0"
	locked := spec.NewGraphNode("Locked", "adder")
	locked.AllowCreate = false
	s.Nodes = append(s.Nodes, second, locked, first, taken)

	// --- Act ---
	res, err := Canonicalize(s, nil, Options{})
	require.NoError(t, err)

	// --- Assert ---
	ids := map[string]string{}
	for _, n := range res.Spec.Nodes {
		ids[n.ID] = n.NodeID
	}
	assert.Equal(t, "adder_1", ids["First"])
	assert.Equal(t, "adder_2", ids["Second"])
	assert.Equal(t, "adder_0", ids["Taken"])
	assert.Equal(t, "", ids["Locked"])
	assert.Equal(t, "reroute_0", ids["Knot"])

	last := res.Spec.Nodes[len(res.Spec.Nodes)-1]
	assert.Equal(t, "Locked", last.ID, "nodes without node_id sort last")
}

func TestCanonicalize_PermutationsAreByteEqual(t *testing.T) {
	base := sampleSpec()
	extra := spec.NewGraphNode("Other", "reroute")
	extra.Position = spec.Position{X: 50, Y: 50}
	base.Nodes = append(base.Nodes, extra)
	base.Links = append(base.Links, spec.NewGraphLink("Knot", "output", "Other", "input"))

	permuted := base.Clone()
	for i, j := 0, len(permuted.Nodes)-1; i < j; i, j = i+1, j-1 {
		permuted.Nodes[i], permuted.Nodes[j] = permuted.Nodes[j], permuted.Nodes[i]
	}
	permuted.Links[0], permuted.Links[2] = permuted.Links[2], permuted.Links[0]
	permuted.Links[1], permuted.Links[3] = permuted.Links[3], permuted.Links[1]

	a, err := Canonicalize(base, migration.Defaults(), Options{})
	require.NoError(t, err)
	b, err := Canonicalize(permuted, migration.Defaults(), Options{})
	require.NoError(t, err)

	encA, err := spec.Marshal(a.Spec)
	require.NoError(t, err)
	encB, err := spec.Marshal(b.Spec)
	require.NoError(t, err)
	assert.Equal(t, string(encA), string(encB))
	assert.Equal(t, a.Hash, b.Hash)
}

func TestCanonicalize_SkipSort(t *testing.T) {
	s := sampleSpec()
	res, err := Canonicalize(s, nil, Options{SkipSort: true})
	require.NoError(t, err)
	assert.Equal(t, "Add", res.Spec.Nodes[0].ID)
	assert.Equal(t, "Knot", res.Spec.Nodes[2].ID)
	assert.Equal(t, "Entry", res.Spec.Links[0].FromNodeID)
}

func TestCanonicalizeJSON(t *testing.T) {
	raw := []byte(`{
		"target": {"asset_path": "/Game/BP", "name": "F"},
		"nodes": [
			{"id": "B", "node_kind": "reroute", "node_id": "b"},
			{"id": "A", "node_kind": "K2Node_Knot", "node_id": "a"}
		]
	}`)

	res, err := CanonicalizeJSON(raw, []byte(`{"skip_sort": false}`), migration.Defaults())
	require.NoError(t, err)
	assert.Equal(t, "A", res.Spec.Nodes[0].ID)
	assert.Equal(t, "reroute", res.Spec.Nodes[0].NodeKind)
	assert.True(t, res.Migrated)

	_, err = CanonicalizeJSON(raw, []byte(`{"skip_sort": "yes"}`), nil)
	assert.ErrorIs(t, err, spec.ErrParse)

	_, err = CanonicalizeJSON([]byte(`{"nodes": 4}`), nil, nil)
	assert.ErrorIs(t, err, spec.ErrParse)
}

func TestSanitize(t *testing.T) {
	testCases := map[string]string{
		"adder":                   "adder",
		"Math.AddInt":             "Math_AddInt",
		"BP_Player:Health":        "BP_Player_Health",
		"/Script/Engine.Actor":    "Script_Engine_Actor",
		"  spaced  name ":         "spaced_name",
		"...":                     "node",
		"":                        "node",
		"K2Node_CallFunction!!!x": "K2Node_CallFunction_x",
	}
	for in, want := range testCases {
		assert.Equal(t, want, Sanitize(in), in)
	}
}
