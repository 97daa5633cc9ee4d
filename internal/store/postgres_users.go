// internal/store/postgres_users.go
package store

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "github.com/DeividBruno15/eventoplus-sub000/internal/common/errors"
)

// PostgresContactStore resolves notification recipients from the users
// table. It satisfies notify.ContactLookup.
type PostgresContactStore struct {
	db *sql.DB
}

func NewPostgresContactStore(db *sql.DB) *PostgresContactStore {
	return &PostgresContactStore{db: db}
}

func (s *PostgresContactStore) Contact(ctx context.Context, userID string) (string, string, error) {
	query := `SELECT COALESCE(email, ''), COALESCE(phone, '') FROM users WHERE id = $1`

	var email, phone string
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&email, &phone)
	if err == sql.ErrNoRows {
		return "", "", fmt.Errorf("%w: user %s", apperrors.ErrNotFound, userID)
	}
	if err != nil {
		return "", "", fmt.Errorf("contact lookup: %w", err)
	}
	return email, phone, nil
}
