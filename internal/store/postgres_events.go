// internal/store/postgres_events.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "github.com/DeividBruno15/eventoplus-sub000/internal/common/errors"
	"github.com/DeividBruno15/eventoplus-sub000/internal/models"
)

// PostgresEventStore reads and mutates events. Service requests live in a
// JSONB column and are always written as a whole list.
type PostgresEventStore struct {
	db *sql.DB
}

func NewPostgresEventStore(db *sql.DB) *PostgresEventStore {
	return &PostgresEventStore{db: db}
}

func (s *PostgresEventStore) Get(ctx context.Context, id string) (*models.Event, error) {
	var ev models.Event
	var reqsJSON []byte
	query := `SELECT id, contractor_id, title, status, service_requests, created_at
		FROM events WHERE id = $1`
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&ev.ID, &ev.ContractorID, &ev.Title, &ev.Status, &reqsJSON, &ev.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: eventId %s", apperrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if len(reqsJSON) > 0 {
		if err := json.Unmarshal(reqsJSON, &ev.ServiceRequests); err != nil {
			return nil, fmt.Errorf("unmarshal service requests: %w", err)
		}
	}
	return &ev, nil
}

func (s *PostgresEventStore) UpdateStatus(ctx context.Context, id string, status models.EventStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE events SET status = $1 WHERE id = $2`, string(status), id)
	if err != nil {
		return fmt.Errorf("%w: event status update failed: %v", apperrors.ErrRemoteWriteFailed, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: eventId %s", apperrors.ErrNotFound, id)
	}
	return nil
}

func (s *PostgresEventStore) UpdateServiceRequests(ctx context.Context, id string, reqs []models.ServiceRequest) error {
	reqsJSON, err := json.Marshal(reqs)
	if err != nil {
		return fmt.Errorf("marshal service requests: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE events SET service_requests = $1 WHERE id = $2`, reqsJSON, id)
	if err != nil {
		return fmt.Errorf("%w: service requests update failed: %v", apperrors.ErrRemoteWriteFailed, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: eventId %s", apperrors.ErrNotFound, id)
	}
	return nil
}
