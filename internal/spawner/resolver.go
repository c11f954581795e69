package spawner

import (
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/pinpatch/internal/catalog"
	"github.com/specialistvlad/pinpatch/internal/node"
	"github.com/specialistvlad/pinpatch/internal/nodeid"
)

// ErrUnresolved is returned when no factory matches a key.
var ErrUnresolved = errors.New("spawner key could not be resolved")

// Resolver maps spawner keys to factories. The hint is the node kind the
// caller expects; it disambiguates variable get from set and is part of the
// cache key.
type Resolver struct {
	catalog *catalog.Catalog

	mu    sync.Mutex
	cache map[string]Factory
}

// NewResolver creates a resolver over the given catalog.
func NewResolver(c *catalog.Catalog) *Resolver {
	return &Resolver{catalog: c, cache: make(map[string]Factory)}
}

// Resolve returns a factory for key. Shapes are tried by priority: an exact
// callable id, then an owner:member catalog scan, then a bare kind path.
func (r *Resolver) Resolve(key string, hint node.Kind) (Factory, error) {
	cacheKey := string(hint) + "|" + key

	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.cache[cacheKey]; ok {
		return f, nil
	}
	f, err := r.resolve(key, hint)
	if err != nil {
		return nil, err
	}
	r.cache[cacheKey] = f
	return f, nil
}

func (r *Resolver) resolve(raw string, hint node.Kind) (Factory, error) {
	if fn, ok := r.catalog.Function(raw); ok {
		return &callFactory{fn: fn}, nil
	}

	key, err := nodeid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresolved, err)
	}

	if key.Shape == nodeid.ShapeMember {
		return r.resolveMember(key, hint)
	}

	if k, ok := node.ParseKind(key.LastSegment()); ok {
		if f, ok := ForKind(k); ok {
			return f, nil
		}
		return nil, fmt.Errorf("%w: %q names the %s kind, which needs a function or variable", ErrUnresolved, raw, k)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnresolved, raw)
}

func (r *Resolver) resolveMember(key *nodeid.Key, hint node.Kind) (Factory, error) {
	fns, vars := r.catalog.FindMember(key.Owner, key.Member)

	switch hint {
	case node.KindVariableGet, node.KindVariableSet:
		if len(vars) == 1 {
			return &variableFactory{v: vars[0], set: hint == node.KindVariableSet}, nil
		}
	case node.KindCall:
		if len(fns) == 1 {
			return &callFactory{fn: fns[0]}, nil
		}
	default:
		if len(fns) == 1 && len(vars) == 0 {
			return &callFactory{fn: fns[0]}, nil
		}
		if len(vars) == 1 && len(fns) == 0 {
			return &variableFactory{v: vars[0]}, nil
		}
	}

	if len(fns)+len(vars) > 1 {
		return nil, fmt.Errorf("%w: %q matches %d catalog entries", ErrUnresolved, key.Raw, len(fns)+len(vars))
	}
	return nil, fmt.Errorf("%w: no catalog entry for %q", ErrUnresolved, key.Raw)
}

// Clear empties the factory cache.
func (r *Resolver) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]Factory)
}

// Len returns the number of cached factories.
func (r *Resolver) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cache)
}
