package migration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/pinpatch/internal/spec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func specWith(nodes []spec.GraphNode, links []spec.GraphLink) *spec.GraphSpec {
	s := spec.New()
	s.Target = spec.GraphTarget{AssetPath: "/Game/BP", Name: "F"}
	s.Nodes = nodes
	s.Links = links
	return s
}

func TestApply_NodeKinds(t *testing.T) {
	a := spec.NewGraphNode("A", "K2Node_Knot")
	b := spec.NewGraphNode("B", "/Script/BlueprintGraph.K2Node_VariableGet")
	c := spec.NewGraphNode("C", "reroute")
	s := specWith([]spec.GraphNode{a, b, c}, nil)

	notes := Defaults().Apply(s)

	assert.Equal(t, "reroute", s.Nodes[0].NodeKind)
	assert.Equal(t, "variable_get", s.Nodes[1].NodeKind, "last path segment is consulted")
	assert.Equal(t, "reroute", s.Nodes[2].NodeKind)
	assert.Len(t, notes, 2)
}

func TestApply_Functions(t *testing.T) {
	explicit := spec.NewGraphNode("A", "call")
	explicit.Function = "KismetMathLibrary.Conv_BoolToInt"
	explicit.SpawnerKey = "KismetMathLibrary.Conv_BoolToInt"

	keyOnly := spec.NewGraphNode("B", "call")
	keyOnly.SpawnerKey = "KismetMathLibrary.Conv_IntToFloat"

	different := spec.NewGraphNode("C", "call")
	different.Function = "KismetMathLibrary.Conv_BoolToInt"
	different.SpawnerKey = "Custom.Key"

	s := specWith([]spec.GraphNode{explicit, keyOnly, different}, nil)
	notes := Defaults().Apply(s)

	assert.Equal(t, "Conv.BoolToInt", s.Nodes[0].Function)
	assert.Equal(t, "Conv.BoolToInt", s.Nodes[0].SpawnerKey)
	assert.Equal(t, "", s.Nodes[1].Function, "an absent function field stays absent")
	assert.Equal(t, "Conv.IntToFloat", s.Nodes[1].SpawnerKey)
	assert.Equal(t, "Conv.BoolToInt", s.Nodes[2].Function)
	assert.Equal(t, "Custom.Key", s.Nodes[2].SpawnerKey, "unrelated spawner keys are left alone")
	assert.Len(t, notes, 3)
}

func TestApply_Pins(t *testing.T) {
	call := spec.NewGraphNode("A", "call")
	call.Function = "Math.AddInt"
	sel := spec.NewGraphNode("S", "select")

	s := specWith([]spec.GraphNode{call, sel}, []spec.GraphLink{
		spec.NewGraphLink("Entry", "execOut", "A", "exec"),
		spec.NewGraphLink("A", "Return Value", "S", "option_true"),
		spec.NewGraphLink("S", "ReturnValue", "Result", "Value"),
	})

	notes := Defaults().Apply(s)

	assert.Equal(t, "then", s.Links[0].FromPin)
	assert.Equal(t, "execute", s.Links[0].ToPin)
	assert.Equal(t, "ReturnValue", s.Links[1].FromPin)
	assert.Equal(t, "return_value", s.Links[2].FromPin, "select scoping wins over the wildcard tables")
	assert.Len(t, notes, 4)
}

func TestApply_CanonicalNamesAreUntouched(t *testing.T) {
	call := spec.NewGraphNode("A", "call")
	call.Function = "Math.AddInt"
	s := specWith([]spec.GraphNode{call, spec.NewGraphNode("R", "reroute")}, []spec.GraphLink{
		spec.NewGraphLink("Entry", "then", "A", "execute"),
		spec.NewGraphLink("A", "ReturnValue", "R", "input"),
	})
	before := s.Clone()

	notes := Defaults().Apply(s)

	assert.Empty(t, notes)
	assert.Equal(t, before.Nodes, s.Nodes)
	assert.Equal(t, before.Links, s.Links)
}

func TestApply_AliasThatIsCanonicalElsewhere(t *testing.T) {
	// "ReturnValue" is an alias on select nodes but canonical on call nodes.
	tables := NewTables()
	tables.Pins = []PinAlias{
		{Canonical: "return_value", NodeKind: "select", Aliases: []string{"ReturnValue"}},
		{Canonical: "ReturnValue", NodeKind: "call", Aliases: []string{"Result"}},
	}
	s := specWith([]spec.GraphNode{spec.NewGraphNode("A", "call")}, []spec.GraphLink{
		spec.NewGraphLink("A", "ReturnValue", "Result", "x"),
	})
	assert.Empty(t, tables.Apply(s))
	assert.Equal(t, "ReturnValue", s.Links[0].FromPin)
}

const migrationFile = `
node_kind_alias "LegacyAdder" { to = "call" }

function_alias "Legacy.Add" { to = "Math.AddInt" }

pin_alias "Sum" {
  function = "Math.AddInt"
  aliases  = ["Total", "ReturnValue"]
}
`

func TestParseFile(t *testing.T) {
	f, diags := hclparse.NewParser().ParseHCL([]byte(migrationFile), "m.hcl")
	require.False(t, diags.HasErrors(), diags.Error())

	tables, diags := ParseFile(f)
	require.False(t, diags.HasErrors(), diags.Error())
	assert.Equal(t, "call", tables.NodeKinds["LegacyAdder"])
	assert.Equal(t, "Math.AddInt", tables.Functions["Legacy.Add"])
	require.Len(t, tables.Pins, 1)
	assert.Equal(t, PinAlias{Canonical: "Sum", Function: "Math.AddInt", Aliases: []string{"Total", "ReturnValue"}}, tables.Pins[0])
}

func TestParseFile_SelfAlias(t *testing.T) {
	f, diags := hclparse.NewParser().ParseHCL([]byte(`pin_alias "x" { aliases = ["x"] }`), "m.hcl")
	require.False(t, diags.HasErrors())
	_, diags = ParseFile(f)
	assert.True(t, diags.HasErrors())
}

func TestLoader_LoadsOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.hcl")
	require.NoError(t, os.WriteFile(path, []byte(migrationFile), 0o600))

	loader := NewLoader(dir)
	first, err := loader.Tables(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "call", first.NodeKinds["LegacyAdder"])
	assert.Equal(t, "reroute", first.NodeKinds["K2Node_Knot"], "defaults are kept")

	// File changes are not picked up by a loaded process.
	require.NoError(t, os.Remove(path))
	second, err := loader.Tables(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)

	// A function-scoped entry beats the broader call-scoped default.
	n := spec.NewGraphNode("A", "LegacyAdder")
	n.Function = "Legacy.Add"
	s := specWith([]spec.GraphNode{n}, []spec.GraphLink{spec.NewGraphLink("A", "ReturnValue", "Result", "x")})
	notes := second.Apply(s)
	assert.Equal(t, "call", s.Nodes[0].NodeKind)
	assert.Equal(t, "Math.AddInt", s.Nodes[0].Function)
	assert.Equal(t, "Sum", s.Links[0].FromPin)
	assert.Len(t, notes, 3)
}

func TestLoadPath_Missing(t *testing.T) {
	tables, err := LoadPath(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().NodeKinds, tables.NodeKinds)
}
