package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/pinpatch/internal/catalog"
	"github.com/specialistvlad/pinpatch/internal/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoad_BuiltinsOnly(t *testing.T) {
	reg, err := Load(context.Background(), Options{})
	require.NoError(t, err)

	_, ok := reg.Catalog.Function("Conv.BoolToInt")
	assert.True(t, ok)

	f, err := reg.Spawners.Resolve("Conv.BoolToInt", node.KindCall)
	require.NoError(t, err)
	assert.Equal(t, "Conv.BoolToInt", f.Identity())
}

func TestLoad_FromPaths(t *testing.T) {
	// --- Arrange ---
	catalogDir := t.TempDir()
	writeFile(t, catalogDir, "math.hcl", `
function "adder" {
  input "A" { type = int }
  input "B" { type = int }
  output "ReturnValue" { type = int }
}
`)
	migrationsDir := t.TempDir()
	writeFile(t, migrationsDir, "legacy.hcl", `function_alias "Legacy.Adder" { to = "adder" }`)

	// --- Act ---
	reg, err := Load(context.Background(), Options{CatalogPath: catalogDir, MigrationsPath: migrationsDir})

	// --- Assert ---
	require.NoError(t, err)
	_, ok := reg.Catalog.Function("adder")
	assert.True(t, ok)

	tables, err := reg.Migrations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "adder", tables.Functions["Legacy.Adder"])
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name       string
		catalog    string
		migrations string
		wantErr    string
	}{
		{
			name:    "broken catalog",
			catalog: `function "x" {`,
			wantErr: "failed to load catalog",
		},
		{
			name:       "broken migrations",
			migrations: `pin_alias "x" { aliases = ["x"] }`,
			wantErr:    "failed to load migrations",
		},
		{
			name:       "unknown node kind target",
			migrations: `node_kind_alias "Old" { to = "Nope.Nothing" }`,
			wantErr:    "registry validation failed:\n- node_kind_alias 'Old'",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts := Options{}
			if tc.catalog != "" {
				opts.CatalogPath = t.TempDir()
				writeFile(t, opts.CatalogPath, "c.hcl", tc.catalog)
			}
			if tc.migrations != "" {
				opts.MigrationsPath = t.TempDir()
				writeFile(t, opts.MigrationsPath, "m.hcl", tc.migrations)
			}

			_, err := Load(context.Background(), opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidate_MissingConversions(t *testing.T) {
	reg := New(&catalog.Catalog{}, "")

	err := reg.Validate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conversion 'bool_to_int': function 'Conv.BoolToInt' is not in the catalog")
	assert.Contains(t, err.Error(), "conversion 'text_to_string'")
}
