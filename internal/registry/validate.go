package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/pinpatch/internal/ctxlog"
	"github.com/specialistvlad/pinpatch/internal/node"
	"github.com/specialistvlad/pinpatch/internal/pintype"
)

// Validate performs a strict parity check between the conversion table the
// auto-fixer relies on, the catalog and the migration tables.
func (r *Registry) Validate(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, conv := range pintype.Conversions() {
		fn, ok := r.Catalog.Function(conv.Function)
		if !ok {
			errs = append(errs, fmt.Sprintf("conversion '%s': function '%s' is not in the catalog", conv.Label, conv.Function))
			continue
		}
		if !fn.Pure {
			errs = append(errs, fmt.Sprintf("conversion '%s': function '%s' must be pure", conv.Label, conv.Function))
		}
		if len(fn.Inputs) != 1 || len(fn.Outputs) != 1 {
			errs = append(errs, fmt.Sprintf("conversion '%s': function '%s' must have exactly one input and one output", conv.Label, conv.Function))
			continue
		}
		if fn.Inputs[0].Category != conv.From || fn.Outputs[0].Category != conv.To {
			errs = append(errs, fmt.Sprintf("conversion '%s': type mismatch. Table requires %s -> %s but function '%s' provides %s -> %s",
				conv.Label, conv.From, conv.To, conv.Function, fn.Inputs[0].Category, fn.Outputs[0].Category))
		}
	}

	for _, fn := range r.Catalog.Functions() {
		for _, p := range fn.Inputs {
			if p.Category == pintype.Wildcard {
				logger.Warn("Catalog function has input with 'type = any', which disables static type checking. Consider using a specific type like 'string', 'int', or 'bool'.", "function", fn.ID, "input", p.Name)
			}
		}
	}

	tables, err := r.Migrations(ctx)
	if err != nil {
		errs = append(errs, fmt.Sprintf("migrations: %v", err))
	} else {
		for from, to := range tables.NodeKinds {
			if _, ok := node.ParseKind(to); !ok {
				if _, ok := r.Catalog.Function(to); !ok {
					errs = append(errs, fmt.Sprintf("node_kind_alias '%s': target '%s' is neither a node kind nor a catalog function", from, to))
				}
			}
		}
		for from, to := range tables.Functions {
			if _, ok := r.Catalog.Function(to); !ok {
				logger.Warn("Function alias points at a function missing from the catalog", "from", from, "to", to)
			}
		}
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}
