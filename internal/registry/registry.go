package registry

import (
	"context"

	"github.com/specialistvlad/pinpatch/internal/catalog"
	"github.com/specialistvlad/pinpatch/internal/migration"
	"github.com/specialistvlad/pinpatch/internal/spawner"
)

// Options point the registry at its on-disk definitions. Empty paths mean
// built-ins only.
type Options struct {
	CatalogPath    string
	MigrationsPath string
}

// Registry holds the catalog, the spawner cache and the migration tables for
// a single application instance.
type Registry struct {
	Catalog    *catalog.Catalog
	Spawners   *spawner.Resolver
	migrations *migration.Loader
}

// New creates a registry around an already populated catalog.
func New(c *catalog.Catalog, migrationsPath string) *Registry {
	if c == nil {
		c = catalog.New()
	}
	return &Registry{
		Catalog:    c,
		Spawners:   spawner.NewResolver(c),
		migrations: migration.NewLoader(migrationsPath),
	}
}

// Migrations returns the migration tables, loading them on first use.
func (r *Registry) Migrations(ctx context.Context) (*migration.Tables, error) {
	return r.migrations.Tables(ctx)
}
