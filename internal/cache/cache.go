package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"docs-translator/internal/textutil"
)

// Key identifies one translated segment for a language pair.
type Key struct {
	Source string
	Target string
	Text   string
}

// Hash is the storage key: a digest of the language pair and the segment.
func (k Key) Hash() string {
	return textutil.Hash(k.Source + "\x00" + k.Target + "\x00" + k.Text)
}

// Cache is a translation memory consulted before the endpoint is called.
type Cache interface {
	Get(ctx context.Context, key Key) (string, bool)
	Set(ctx context.Context, key Key, translated string) error
}

// Memory is a bounded in-process translation memory.
type Memory struct {
	entries *lru.Cache[string, string]
}

// NewMemory creates an LRU cache holding at most size segments.
func NewMemory(size int) (*Memory, error) {
	if size < 1 {
		size = 1
	}
	entries, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Memory{entries: entries}, nil
}

func (m *Memory) Get(_ context.Context, key Key) (string, bool) {
	return m.entries.Get(key.Hash())
}

func (m *Memory) Set(_ context.Context, key Key, translated string) error {
	m.entries.Add(key.Hash(), translated)
	return nil
}

// Len returns the number of cached segments.
func (m *Memory) Len() int {
	return m.entries.Len()
}

// Open builds the cache selected by kind: "off" (or empty) returns a nil
// Cache, "memory" an LRU, "postgres" a Store connected to dsn. The returned
// close function is never nil.
func Open(ctx context.Context, kind string, size int, dsn string) (Cache, func(), error) {
	noop := func() {}
	switch kind {
	case "", "off":
		return nil, noop, nil
	case "memory":
		m, err := NewMemory(size)
		if err != nil {
			return nil, noop, err
		}
		return m, noop, nil
	case "postgres":
		if dsn == "" {
			return nil, noop, fmt.Errorf("open cache: DATABASE_URL is required for the postgres cache")
		}
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, noop, fmt.Errorf("connect database: %w", err)
		}
		store, err := NewStore(ctx, pool, size)
		if err != nil {
			pool.Close()
			return nil, noop, err
		}
		return store, pool.Close, nil
	}
	return nil, noop, fmt.Errorf("open cache: unknown kind %q", kind)
}
