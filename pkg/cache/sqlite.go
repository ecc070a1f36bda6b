package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a SQLite file holding cached lookup results, shared by several
// scoped caches. It persists resolutions across runs; DBpedia answers for a
// given toponym or entity URI are stable enough that reuse is safe.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS lookups (
	scope      TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (scope, key)
);`

// OpenStore opens (creating if needed) the cache database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SQLite is a persistent cache scoped to one class of lookups (e.g. entity
// search vs. geocoding) within a shared Store. An in-memory layer fronts the
// database so repeated hits within a run never touch SQLite, and the
// singleflight discipline of Memory carries over.
type SQLite[V any] struct {
	store *Store
	scope string
	mem   *Memory[V]
}

var _ Cache[string] = &SQLite[string]{}

func NewSQLite[V any](store *Store, scope string) *SQLite[V] {
	return &SQLite[V]{
		store: store,
		scope: scope,
		mem:   NewMemory[V](),
	}
}

func (s *SQLite[V]) GetOrCompute(ctx context.Context, key string, compute ComputeFunc[V]) (V, error) {
	return s.mem.GetOrCompute(ctx, key, func(ctx context.Context) (V, error) {
		var zero V

		var raw []byte
		err := s.store.db.QueryRowContext(
			ctx,
			`SELECT value FROM lookups WHERE scope = ? AND key = ?`,
			s.scope, key,
		).Scan(&raw)
		switch {
		case err == nil:
			var value V
			if err := json.Unmarshal(raw, &value); err == nil {
				return value, nil
			}
			// Corrupt row: recompute and overwrite below.
			log.Warnf("cache: discarding unreadable entry %s/%s", s.scope, key)
		case !errors.Is(err, sql.ErrNoRows):
			return zero, fmt.Errorf("cache read failed: %w", err)
		}

		value, err := compute(ctx)
		if err != nil {
			return zero, err
		}

		raw, err = json.Marshal(value)
		if err != nil {
			return zero, fmt.Errorf("cache encode failed: %w", err)
		}
		if _, err := s.store.db.ExecContext(
			ctx,
			`INSERT OR REPLACE INTO lookups (scope, key, value) VALUES (?, ?, ?)`,
			s.scope, key, raw,
		); err != nil {
			return zero, fmt.Errorf("cache write failed: %w", err)
		}

		return value, nil
	})
}
