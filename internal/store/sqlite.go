package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// SQLiteStore keeps one owner's entries in the kv_entries table.
type SQLiteStore struct {
	db    *sql.DB
	owner string
}

func NewSQLiteStore(db *sql.DB, owner string) *SQLiteStore {
	return &SQLiteStore{db: db, owner: owner}
}

func SQLiteFactory(db *sql.DB) Factory {
	return func(owner string) Store {
		return NewSQLiteStore(db, owner)
	}
}

func (s *SQLiteStore) Get(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]interface{}, 0, len(keys)+1)
	args = append(args, s.owner)
	for _, key := range keys {
		args = append(args, key)
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT key, value FROM kv_entries WHERE owner = ? AND key IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Put(ctx context.Context, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for key, value := range entries {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO kv_entries (owner, key, value, updated_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(owner, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			s.owner,
			key,
			value,
			now,
		); err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit entries: %w", err)
	}
	return nil
}
