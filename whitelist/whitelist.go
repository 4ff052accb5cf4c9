// Package whitelist persists the set of chat users allowed to talk to the
// relay. It is the transport layer's allow/deny check; the relay core never
// consults it.
package whitelist

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vkotelnikov/mistrelay/dbopen"
)

// Schema is the whitelist table definition, applied by Init.
const Schema = `
CREATE TABLE IF NOT EXISTS whitelist (
    user_id  TEXT PRIMARY KEY,
    added_at INTEGER NOT NULL
);`

// Store is an SQLite-backed allow list keyed by chat user ID.
type Store struct {
	db *sql.DB
}

// New creates a Store on an open database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Init applies the whitelist schema.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("whitelist: init schema: %w", err)
	}
	return nil
}

// Allowed reports whether userID is on the list.
func (s *Store) Allowed(ctx context.Context, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM whitelist WHERE user_id = ?", userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("whitelist: lookup %s: %w", userID, err)
	}
	return true, nil
}

// Add puts userID on the list. Adding an already-listed user is a no-op.
// Writes run through RunTx so they retry past readers holding the lock.
func (s *Store) Add(ctx context.Context, userID string) error {
	err := dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO whitelist (user_id, added_at) VALUES (?, ?)",
			userID, time.Now().Unix())
		return err
	})
	if err != nil {
		return fmt.Errorf("whitelist: add %s: %w", userID, err)
	}
	return nil
}

// Remove takes userID off the list. Removing an unlisted user is a no-op.
func (s *Store) Remove(ctx context.Context, userID string) error {
	err := dbopen.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"DELETE FROM whitelist WHERE user_id = ?", userID)
		return err
	})
	if err != nil {
		return fmt.Errorf("whitelist: remove %s: %w", userID, err)
	}
	return nil
}

// List returns all listed user IDs in insertion order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM whitelist ORDER BY added_at, user_id")
	if err != nil {
		return nil, fmt.Errorf("whitelist: list: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("whitelist: scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
