package tokens

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/upl/internal/models"
)

// SQLiteStore persists the credential in the tokens table created by the shared migrations.
type SQLiteStore struct {
	db    *sql.DB
	owned bool
}

// NewSQLiteStore wraps an open, migrated database. Close leaves db open.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Set writes all three keys inside one transaction so readers never see a partial credential.
func (s *SQLiteStore) Set(cred models.Credential) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	vals := values(cred)
	for _, field := range Fields {
		v := vals[field]
		if v == nil {
			if _, err := tx.Exec(`DELETE FROM tokens WHERE key = ?`, string(field)); err != nil {
				return fmt.Errorf("failed to delete %s: %w", field, err)
			}
			continue
		}

		query := `
			INSERT INTO tokens (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`
		if _, err := tx.Exec(query, string(field), *v, now); err != nil {
			return fmt.Errorf("failed to write %s: %w", field, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tokens: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(field Field) (string, bool, error) {
	if err := validField(field); err != nil {
		return "", false, err
	}

	var value string
	err := s.db.QueryRow(`SELECT value FROM tokens WHERE key = ?`, string(field)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", field, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM tokens`); err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	return nil
}

// Close closes the database only when the store opened it itself.
func (s *SQLiteStore) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}
