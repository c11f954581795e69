package blueprint

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/specialistvlad/pinpatch/internal/ctxlog"
	"github.com/specialistvlad/pinpatch/internal/graph"
	"github.com/specialistvlad/pinpatch/internal/kv"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultPrefix is the first key segment of every record.
const DefaultPrefix = "pinpatch"

const (
	headerSegment = "bp"
	graphSegment  = "g"
	recordVersion = 1
)

// header is the per-blueprint record listing its graphs.
type header struct {
	Version int      `msgpack:"v"`
	Path    string   `msgpack:"path"`
	Graphs  []string `msgpack:"graphs"`
}

// KVStore keeps blueprints in a kv.Store as msgpack records:
// {prefix}/bp/{path} for the header and {prefix}/g/{path}/{TYPE.name} for
// each graph.
type KVStore struct {
	store  kv.Store
	prefix string
}

// NewKVStore wraps a kv store. An empty prefix means DefaultPrefix.
func NewKVStore(store kv.Store, prefix string) *KVStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &KVStore{store: store, prefix: prefix}
}

func (s *KVStore) headerKey(path string) kv.Key {
	return kv.Key{s.prefix, headerSegment, path}
}

func (s *KVStore) graphKey(path, graphKey string) kv.Key {
	return kv.Key{s.prefix, graphSegment, path, graphKey}
}

// Load reads the header and every graph it lists.
func (s *KVStore) Load(ctx context.Context, path string) (*Blueprint, error) {
	raw, err := s.store.Get(ctx, s.headerKey(path))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blueprint %s: %w", path, err)
	}

	var h header
	if err := msgpack.Unmarshal(raw, &h); err != nil {
		return nil, fmt.Errorf("failed to decode blueprint %s: %w", path, err)
	}

	bp := New(path)
	for _, key := range h.Graphs {
		raw, err := s.store.Get(ctx, s.graphKey(path, key))
		if err != nil {
			return nil, fmt.Errorf("failed to read graph %s of %s: %w", key, path, err)
		}
		var g graph.Graph
		if err := msgpack.Unmarshal(raw, &g); err != nil {
			return nil, fmt.Errorf("failed to decode graph %s of %s: %w", key, path, err)
		}
		bp.Put(&g)
	}

	ctxlog.FromContext(ctx).Debug("Loaded blueprint", "path", path, "graphs", len(bp.Graphs))
	return bp, nil
}

// Save writes the header and all graphs in one batch.
func (s *KVStore) Save(ctx context.Context, bp *Blueprint) error {
	keys := bp.Keys()
	h, err := msgpack.Marshal(&header{Version: recordVersion, Path: bp.Path, Graphs: keys})
	if err != nil {
		return fmt.Errorf("failed to encode blueprint %s: %w", bp.Path, err)
	}

	entries := []kv.Entry{{Key: s.headerKey(bp.Path), Value: h}}
	for _, key := range keys {
		data, err := msgpack.Marshal(bp.Graphs[key])
		if err != nil {
			return fmt.Errorf("failed to encode graph %s of %s: %w", key, bp.Path, err)
		}
		entries = append(entries, kv.Entry{Key: s.graphKey(bp.Path, key), Value: data})
	}

	if err := s.store.BatchSet(ctx, entries); err != nil {
		return fmt.Errorf("failed to save blueprint %s: %w", bp.Path, err)
	}
	ctxlog.FromContext(ctx).Debug("Saved blueprint", "path", bp.Path, "graphs", len(keys))
	return nil
}

// List returns every stored asset path, sorted.
func (s *KVStore) List(ctx context.Context) ([]string, error) {
	var paths []string
	for entry, err := range s.store.List(ctx, kv.Key{s.prefix, headerSegment}) {
		if err != nil {
			return nil, fmt.Errorf("failed to list blueprints: %w", err)
		}
		paths = append(paths, entry.Key[len(entry.Key)-1])
	}
	sort.Strings(paths)
	return paths, nil
}
