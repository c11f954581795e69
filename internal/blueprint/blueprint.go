package blueprint

import (
	"context"
	"errors"
	"sort"

	"github.com/specialistvlad/pinpatch/internal/graph"
)

// ErrNotFound is returned when no blueprint exists at the asset path.
var ErrNotFound = errors.New("blueprint not found")

// Blueprint is a container of function graphs.
type Blueprint struct {
	Path   string
	Graphs map[string]*graph.Graph
}

// New creates an empty blueprint.
func New(path string) *Blueprint {
	return &Blueprint{Path: path, Graphs: make(map[string]*graph.Graph)}
}

// Graph returns the graph with the given type and name.
func (b *Blueprint) Graph(graphType, name string) *graph.Graph {
	return b.Graphs[graphType+"."+name]
}

// FindGraph resolves a caller-facing container name: a full "TYPE.name" key
// first, then a unique graph name of any type.
func (b *Blueprint) FindGraph(ref string) (*graph.Graph, bool) {
	if g, ok := b.Graphs[ref]; ok {
		return g, true
	}
	var found *graph.Graph
	for _, key := range b.Keys() {
		if g := b.Graphs[key]; g.Name == ref {
			if found != nil {
				return nil, false
			}
			found = g
		}
	}
	return found, found != nil
}

// Put adds or replaces a graph.
func (b *Blueprint) Put(g *graph.Graph) {
	if b.Graphs == nil {
		b.Graphs = make(map[string]*graph.Graph)
	}
	b.Graphs[g.Key()] = g
}

// Keys returns the graph keys in sorted order.
func (b *Blueprint) Keys() []string {
	keys := make([]string, 0, len(b.Graphs))
	for k := range b.Graphs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Store loads and saves blueprints.
type Store interface {
	// Load returns ErrNotFound when the blueprint does not exist.
	Load(ctx context.Context, path string) (*Blueprint, error)
	Save(ctx context.Context, bp *Blueprint) error
	// List returns the asset paths of all stored blueprints.
	List(ctx context.Context) ([]string, error)
}
