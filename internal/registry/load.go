package registry

import (
	"context"
	"fmt"

	"github.com/specialistvlad/pinpatch/internal/catalog"
	"github.com/specialistvlad/pinpatch/internal/ctxlog"
)

// Load builds a registry from the configured paths, loads the migration
// tables eagerly so that file errors surface at startup, and validates the
// result.
func Load(ctx context.Context, opts Options) (*Registry, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Registry loading definitions...", "catalog_path", opts.CatalogPath, "migrations_path", opts.MigrationsPath)

	c := catalog.New()
	if opts.CatalogPath != "" {
		if err := c.LoadPath(ctx, opts.CatalogPath); err != nil {
			return nil, fmt.Errorf("failed to load catalog from %s: %w", opts.CatalogPath, err)
		}
	} else {
		logger.Debug("No catalog path configured, using built-in functions only")
	}

	reg := New(c, opts.MigrationsPath)
	if _, err := reg.Migrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to load migrations from %s: %w", opts.MigrationsPath, err)
	}

	if err := reg.Validate(ctx); err != nil {
		return nil, err
	}

	logger.Info("Registry loaded successfully.",
		"functions_loaded", len(c.Functions()),
		"variables_loaded", len(c.Variables()),
	)
	return reg, nil
}
