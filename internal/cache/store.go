package cache

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS translation_cache (
	hash        TEXT PRIMARY KEY,
	source_lang TEXT NOT NULL,
	target_lang TEXT NOT NULL,
	source      TEXT NOT NULL,
	translated  TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const (
	getQuery = `SELECT translated FROM translation_cache WHERE hash = $1`

	upsertQuery = `
INSERT INTO translation_cache (hash, source_lang, target_lang, source, translated)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (hash) DO UPDATE SET translated = EXCLUDED.translated, updated_at = now()`

	preloadQuery = `
SELECT hash, translated FROM translation_cache
WHERE source_lang = $1 AND target_lang = $2
ORDER BY updated_at DESC
LIMIT $3`
)

// Store provides in-memory + PostgreSQL-backed caching for translations.
type Store struct {
	pool   *pgxpool.Pool
	memory *lru.Cache[string, string]
	size   int
}

// NewStore creates the cache table if needed and returns a Store whose
// in-memory layer holds at most size segments.
func NewStore(ctx context.Context, pool *pgxpool.Pool, size int) (*Store, error) {
	if size < 1 {
		size = 1
	}
	memory, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("create cache table: %w", err)
	}
	return &Store{pool: pool, memory: memory, size: size}, nil
}

// Get retrieves a cached translation. Returns empty string and false if not found.
func (s *Store) Get(ctx context.Context, key Key) (string, bool) {
	hash := key.Hash()

	if v, ok := s.memory.Get(hash); ok {
		return v, true
	}

	var translated string
	err := s.pool.QueryRow(ctx, getQuery, hash).Scan(&translated)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Debug().Err(err).Msg("Cache lookup failed")
		}
		return "", false
	}

	s.memory.Add(hash, translated)
	return translated, true
}

// Set stores a translation in both in-memory and PostgreSQL cache.
func (s *Store) Set(ctx context.Context, key Key, translated string) error {
	hash := key.Hash()
	s.memory.Add(hash, translated)

	_, err := s.pool.Exec(ctx, upsertQuery, hash, key.Source, key.Target, key.Text, translated)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Preload loads the most recent translations for a language pair into memory.
func (s *Store) Preload(ctx context.Context, source, target string) error {
	rows, err := s.pool.Query(ctx, preloadQuery, source, target, s.size)
	if err != nil {
		return fmt.Errorf("preload cache: %w", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var hash, translated string
		if err := rows.Scan(&hash, &translated); err != nil {
			return fmt.Errorf("scan cache row: %w", err)
		}
		s.memory.Add(hash, translated)
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("preload cache: %w", err)
	}

	log.Info().Int("count", count).Str("source", source).Str("target", target).Msg("Preloaded translation cache")
	return nil
}
