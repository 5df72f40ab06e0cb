package sqlite

import (
	"context"
	"database/sql"
	"time"
)

// TokenKey is the well-known key the session token lives under.
const TokenKey = "session_token"

// TokenStore keeps client-local state in a key/value table. Writes are
// last-write-wins.
type TokenStore struct {
	db  *sql.DB
	key string
}

func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db, key: TokenKey}
}

// LoadToken returns "" when nothing is stored.
func (s *TokenStore) LoadToken(ctx context.Context) (string, error) {
	query := `SELECT value FROM client_state WHERE key = ?`
	row := s.db.QueryRowContext(ctx, query, s.key)

	var token string
	err := row.Scan(&token)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *TokenStore) SaveToken(ctx context.Context, token string) error {
	query := `
		INSERT INTO client_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, s.key, token, time.Now().UTC().Format(time.RFC3339))
	return err
}

func (s *TokenStore) ClearToken(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM client_state WHERE key = ?`, s.key)
	return err
}

func (s *TokenStore) InitTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS client_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT
		);
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}
