// Package kv is the byte-level store underneath the blueprint store. Keys are
// hierarchical paths (["pinpatch", "bp", "/Game/BP_Player"]) joined with a
// separator byte; values are opaque.
//
// Two implementations are provided: Memory, for tests and the default CLI
// mode, and Badger, which persists to disk with BadgerDB.
package kv

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
)

var (
	// ErrNotFound is returned when a key does not exist in the store.
	ErrNotFound = errors.New("kv: not found")
	// ErrInvalidKey is returned when a key segment contains the separator.
	ErrInvalidKey = errors.New("kv: invalid key")
)

// Key is a hierarchical path of string segments.
type Key []string

// String joins the segments with ':' for display.
func (k Key) String() string {
	return strings.Join(k, ":")
}

// Entry is a key-value pair returned by List and accepted by BatchSet.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path-based keys.
type Store interface {
	// Get returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, key Key, value []byte) error
	// Delete is a no-op for absent keys.
	Delete(ctx context.Context, key Key) error
	// List yields every entry under prefix in lexicographic key order.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]
	// BatchSet stores all entries atomically.
	BatchSet(ctx context.Context, entries []Entry) error
	Close() error
}

// DefaultSeparator joins key segments when no other separator is configured.
const DefaultSeparator byte = 0x1f

// Options configures key encoding.
type Options struct {
	Separator byte
}

func (o *Options) sep() byte {
	if o != nil && o.Separator != 0 {
		return o.Separator
	}
	return DefaultSeparator
}

func (o *Options) encode(k Key) ([]byte, error) {
	s := o.sep()
	var b strings.Builder
	for i, seg := range k {
		if strings.IndexByte(seg, s) >= 0 {
			return nil, fmt.Errorf("%w: segment %q contains the separator", ErrInvalidKey, seg)
		}
		if i > 0 {
			b.WriteByte(s)
		}
		b.WriteString(seg)
	}
	return []byte(b.String()), nil
}

// prefix encodes k and appends the separator so that "a:b" never matches
// "a:bc". An empty key matches everything.
func (o *Options) prefix(k Key) ([]byte, error) {
	p, err := o.encode(k)
	if err != nil || len(p) == 0 {
		return nil, err
	}
	return append(p, o.sep()), nil
}

func (o *Options) decode(b []byte) Key {
	return Key(strings.Split(string(b), string([]byte{o.sep()})))
}
