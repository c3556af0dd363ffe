// Package store persists content rows in PostgreSQL through pgx and caches
// screen rows in memory.
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/eduadmin/internal/content"
	"github.com/JonMunkholm/eduadmin/internal/dataview"
)

//go:embed schema.sql
var schemaSQL string

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// TxDB is a DBTX that can open transactions, such as *pgxpool.Pool.
type TxDB interface {
	DBTX
	Begin(context.Context) (pgx.Tx, error)
}

// Store implements content.Repository on PostgreSQL.
type Store struct {
	db TxDB
}

var _ content.Repository = (*Store)(nil)

// New returns a store using db.
func New(db TxDB) *Store {
	return &Store{db: db}
}

// Migrate creates the content tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	if err := s.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Fetch loads every row of the screen within scope.
func (s *Store) Fetch(ctx context.Context, sc content.Screen, scope content.Scope) ([]dataview.Record, error) {
	query, args := selectQuery(sc, scope)
	return s.collect(ctx, query, args...)
}

// Get loads one row by key.
func (s *Store) Get(ctx context.Context, sc content.Screen, scope content.Scope, key string) (dataview.Record, error) {
	query, args := getQuery(sc, scope, key)
	rows, err := s.collect(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s %s: %w", sc.Key, key, content.ErrNotFound)
	}
	return rows[0], nil
}

// Insert writes a new row and returns it as the screen displays it.
func (s *Store) Insert(ctx context.Context, sc content.Screen, scope content.Scope, fields map[string]any) (dataview.Record, error) {
	query, args := insertQuery(sc, scope, fields)

	var key string
	if err := s.db.QueryRow(ctx, query, args...).Scan(&key); err != nil {
		return nil, fmt.Errorf("insert %s: %w", sc.Key, err)
	}
	return s.Get(ctx, sc, scope, key)
}

// Update changes fields of one row within scope and returns the updated
// row. A key outside the scope is not found and nothing is written.
func (s *Store) Update(ctx context.Context, sc content.Screen, scope content.Scope, key string, fields map[string]any) (dataview.Record, error) {
	query, args := updateQuery(sc, scope, key, fields)

	var got string
	if err := s.db.QueryRow(ctx, query, args...).Scan(&got); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s %s: %w", sc.Key, key, content.ErrNotFound)
		}
		return nil, fmt.Errorf("update %s: %w", sc.Key, err)
	}
	return s.Get(ctx, sc, scope, got)
}

// UpdateMany applies the same fields to every key in one transaction. If
// any key is outside the scope the transaction is rolled back.
func (s *Store) UpdateMany(ctx context.Context, sc content.Screen, scope content.Scope, keys []string, fields map[string]any) (int64, error) {
	keys = distinct(keys)
	if len(keys) == 0 {
		return 0, nil
	}
	query, args := updateManyQuery(sc, scope, keys, fields)

	var n int64
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update %s: %w", sc.Key, err)
		}
		if tag.RowsAffected() != int64(len(keys)) {
			return fmt.Errorf("%s: %d of %d keys: %w", sc.Key, tag.RowsAffected(), len(keys), content.ErrNotFound)
		}
		n = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Delete removes rows by key within scope and returns how many were
// deleted. Keys outside the scope are left alone.
func (s *Store) Delete(ctx context.Context, sc content.Screen, scope content.Scope, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	query, args := deleteQuery(sc, scope, keys)
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", sc.Key, err)
	}
	return tag.RowsAffected(), nil
}

func distinct(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := keys[:0:0]
	for _, k := range keys {
		if k != "" && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// Count returns the number of rows of the screen within scope.
func (s *Store) Count(ctx context.Context, sc content.Screen, scope content.Scope) (int, error) {
	query, args := countQuery(sc, scope)
	var n int64
	if err := s.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", sc.Key, err)
	}
	return int(n), nil
}

// Invalidate is a no-op; Store keeps no cache.
func (s *Store) Invalidate(content.Screen, content.Scope) {}

func (s *Store) collect(ctx context.Context, query string, args ...any) ([]dataview.Record, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	out := make([]dataview.Record, len(maps))
	for i, m := range maps {
		out[i] = dataview.Record(m)
	}
	return out, nil
}
