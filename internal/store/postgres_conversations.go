// internal/store/postgres_conversations.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/DeividBruno15/eventoplus-sub000/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresConversationStore backs conversations with two tables:
// conversations(id, created_at) and
// conversation_participants(conversation_id, user_id).
type PostgresConversationStore struct {
	db *sql.DB
}

func NewPostgresConversationStore(db *sql.DB) *PostgresConversationStore {
	return &PostgresConversationStore{db: db}
}

func (s *PostgresConversationStore) ListByParticipant(ctx context.Context, userID string) ([]models.Conversation, error) {
	query := `SELECT c.id, c.created_at, array_agg(p.user_id)
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id
		WHERE c.id IN (
			SELECT conversation_id FROM conversation_participants WHERE user_id = $1
		)
		GROUP BY c.id, c.created_at`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var convs []models.Conversation
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(&conv.ID, &conv.CreatedAt, pq.Array(&conv.Participants)); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

// FindByParticipants returns the conversation both users are members of,
// or nil when none exists. Nil-with-no-error is the "not found" signal so
// approval can fall through to creation.
func (s *PostgresConversationStore) FindByParticipants(ctx context.Context, a, b string) (*models.Conversation, error) {
	convs, err := s.ListByParticipant(ctx, a)
	if err != nil {
		return nil, err
	}
	for i := range convs {
		if convs[i].HasParticipant(b) {
			return &convs[i], nil
		}
	}
	return nil, nil
}

func (s *PostgresConversationStore) Create(ctx context.Context) (*models.Conversation, error) {
	conv := &models.Conversation{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, created_at) VALUES ($1, $2)`,
		conv.ID, conv.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conv, nil
}

func (s *PostgresConversationStore) AddParticipants(ctx context.Context, conversationID string, userIDs []string) error {
	for _, userID := range userIDs {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO conversation_participants (conversation_id, user_id) VALUES ($1, $2)`,
			conversationID, userID,
		)
		if err != nil {
			return fmt.Errorf("add participant %s: %w", userID, err)
		}
	}
	return nil
}
