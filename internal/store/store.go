// internal/store/store.go
package store

import (
	"context"

	"github.com/DeividBruno15/eventoplus-sub000/internal/models"
)

// ApplicationFilter narrows List results. Zero-value fields are ignored.
type ApplicationFilter struct {
	EventID    string
	ProviderID string
	Category   string
	Status     models.ApplicationStatus
}

// ApplicationPatch is a partial update; nil fields are left untouched.
type ApplicationPatch struct {
	Status  *models.ApplicationStatus
	Message *string
}

// ApplicationStore is the remote source of truth for applications. Writes
// are per-record; there is no multi-record transaction across calls.
type ApplicationStore interface {
	Get(ctx context.Context, id string) (*models.Application, error)
	List(ctx context.Context, filter ApplicationFilter) ([]models.Application, error)
	Insert(ctx context.Context, app *models.Application) error
	Update(ctx context.Context, id string, patch ApplicationPatch) error
	Delete(ctx context.Context, id string) error
}

// PrivilegedDeleter is the fallback delete path, tried at most once when
// the primary Delete fails.
type PrivilegedDeleter interface {
	ForceDelete(ctx context.Context, id string) error
}

// EventStore reads and mutates the event owning an application.
type EventStore interface {
	Get(ctx context.Context, id string) (*models.Event, error)
	UpdateStatus(ctx context.Context, id string, status models.EventStatus) error
	// UpdateServiceRequests replaces the whole category list; the
	// fill-count increment is a read-modify-write of this list.
	UpdateServiceRequests(ctx context.Context, id string, reqs []models.ServiceRequest) error
}

// ConversationStore manages contractor/provider conversations.
type ConversationStore interface {
	ListByParticipant(ctx context.Context, userID string) ([]models.Conversation, error)
	FindByParticipants(ctx context.Context, a, b string) (*models.Conversation, error)
	Create(ctx context.Context) (*models.Conversation, error)
	AddParticipants(ctx context.Context, conversationID string, userIDs []string) error
}

// AuditStore appends immutable audit entries for hard deletes.
type AuditStore interface {
	Append(ctx context.Context, entry *models.RejectionAudit) error
}
