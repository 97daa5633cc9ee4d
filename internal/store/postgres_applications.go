// internal/store/postgres_applications.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/DeividBruno15/eventoplus-sub000/internal/common/errors"
	"github.com/DeividBruno15/eventoplus-sub000/internal/models"

	"github.com/google/uuid"
)

// PostgresApplicationStore implements ApplicationStore and
// PrivilegedDeleter on top of raw SQL.
type PostgresApplicationStore struct {
	db *sql.DB
}

func NewPostgresApplicationStore(db *sql.DB) *PostgresApplicationStore {
	return &PostgresApplicationStore{db: db}
}

func (s *PostgresApplicationStore) Get(ctx context.Context, id string) (*models.Application, error) {
	var app models.Application
	var category sql.NullString
	query := `SELECT id, event_id, provider_id, message, service_category, status, created_at
		FROM applications WHERE id = $1`
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&app.ID, &app.EventID, &app.ProviderID, &app.Message, &category, &app.Status, &app.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: applicationId %s", apperrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get application: %w", err)
	}
	app.ServiceCategory = category.String
	return &app, nil
}

func (s *PostgresApplicationStore) List(ctx context.Context, filter ApplicationFilter) ([]models.Application, error) {
	query := `SELECT id, event_id, provider_id, message, service_category, status, created_at
		FROM applications`
	var conds []string
	var args []interface{}
	add := func(column string, value interface{}) {
		args = append(args, value)
		conds = append(conds, column+" = $"+strconv.Itoa(len(args)))
	}
	if filter.EventID != "" {
		add("event_id", filter.EventID)
	}
	if filter.ProviderID != "" {
		add("provider_id", filter.ProviderID)
	}
	if filter.Category != "" {
		add("service_category", filter.Category)
	}
	if filter.Status != "" {
		add("status", string(filter.Status))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var apps []models.Application
	for rows.Next() {
		var app models.Application
		var category sql.NullString
		if err := rows.Scan(&app.ID, &app.EventID, &app.ProviderID, &app.Message, &category, &app.Status, &app.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		app.ServiceCategory = category.String
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

func (s *PostgresApplicationStore) Insert(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	if app.CreatedAt == "" {
		app.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	var category interface{}
	if app.ServiceCategory != "" {
		category = app.ServiceCategory
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO applications (id, event_id, provider_id, message, service_category, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		app.ID, app.EventID, app.ProviderID, app.Message, category, string(app.Status), app.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert failed: %v", apperrors.ErrRemoteWriteFailed, err)
	}
	return nil
}

func (s *PostgresApplicationStore) Update(ctx context.Context, id string, patch ApplicationPatch) error {
	var sets []string
	var args []interface{}
	if patch.Status != nil {
		args = append(args, string(*patch.Status))
		sets = append(sets, "status = $"+strconv.Itoa(len(args)))
	}
	if patch.Message != nil {
		args = append(args, *patch.Message)
		sets = append(sets, "message = $"+strconv.Itoa(len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	query := "UPDATE applications SET " + strings.Join(sets, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: update failed: %v", apperrors.ErrRemoteWriteFailed, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: applicationId %s", apperrors.ErrNotFound, id)
	}
	return nil
}

func (s *PostgresApplicationStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete failed: %v", apperrors.ErrRemoteWriteFailed, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: applicationId %s", apperrors.ErrNotFound, id)
	}
	return nil
}

// ForceDelete runs the privileged remove function, which bypasses row-level
// ownership checks. Used only as the fallback after Delete fails.
func (s *PostgresApplicationStore) ForceDelete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `SELECT remove_application($1)`, id); err != nil {
		return fmt.Errorf("%w: force delete failed: %v", apperrors.ErrRemoteWriteFailed, err)
	}
	return nil
}
