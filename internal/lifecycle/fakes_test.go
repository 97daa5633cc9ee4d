// internal/lifecycle/fakes_test.go
package lifecycle

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/DeividBruno15/eventoplus-sub000/internal/common/errors"
	"github.com/DeividBruno15/eventoplus-sub000/internal/models"
	"github.com/DeividBruno15/eventoplus-sub000/internal/store"

	"github.com/google/uuid"
)

// ==========================
// In-memory store fakes
// ==========================

type fakeApplicationStore struct {
	mu   sync.Mutex
	apps map[string]*models.Application

	getErr    error
	listErr   error
	insertErr error
	updateErr map[string]error
	deleteErr error
	forceErr  error
}

func newFakeApplicationStore(apps ...*models.Application) *fakeApplicationStore {
	s := &fakeApplicationStore{
		apps:      make(map[string]*models.Application),
		updateErr: make(map[string]error),
	}
	for _, a := range apps {
		cp := *a
		s.apps[a.ID] = &cp
	}
	return s
}

func (s *fakeApplicationStore) Get(ctx context.Context, id string) (*models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	app, ok := s.apps[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNotFound, id)
	}
	cp := *app
	return &cp, nil
}

func (s *fakeApplicationStore) List(ctx context.Context, filter store.ApplicationFilter) ([]models.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Application
	for _, app := range s.apps {
		if filter.EventID != "" && app.EventID != filter.EventID {
			continue
		}
		if filter.ProviderID != "" && app.ProviderID != filter.ProviderID {
			continue
		}
		if filter.Category != "" && app.ServiceCategory != filter.Category {
			continue
		}
		if filter.Status != "" && app.Status != filter.Status {
			continue
		}
		out = append(out, *app)
	}
	return out, nil
}

func (s *fakeApplicationStore) Insert(ctx context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	cp := *app
	s.apps[app.ID] = &cp
	return nil
}

func (s *fakeApplicationStore) Update(ctx context.Context, id string, patch store.ApplicationPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.updateErr[id]; err != nil {
		return err
	}
	app, ok := s.apps[id]
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrNotFound, id)
	}
	if patch.Status != nil {
		app.Status = *patch.Status
	}
	if patch.Message != nil {
		app.Message = *patch.Message
	}
	return nil
}

func (s *fakeApplicationStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.apps[id]; !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrNotFound, id)
	}
	delete(s.apps, id)
	return nil
}

func (s *fakeApplicationStore) ForceDelete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forceErr != nil {
		return s.forceErr
	}
	delete(s.apps, id)
	return nil
}

func (s *fakeApplicationStore) status(id string) models.ApplicationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if app, ok := s.apps[id]; ok {
		return app.Status
	}
	return ""
}

func (s *fakeApplicationStore) exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.apps[id]
	return ok
}

type fakeEventStore struct {
	mu     sync.Mutex
	events map[string]*models.Event

	statusErr error
	reqErr    error
}

func newFakeEventStore(events ...*models.Event) *fakeEventStore {
	s := &fakeEventStore{events: make(map[string]*models.Event)}
	for _, e := range events {
		cp := *e
		s.events[e.ID] = &cp
	}
	return s
}

func (s *fakeEventStore) Get(ctx context.Context, id string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrNotFound, id)
	}
	cp := *event
	cp.ServiceRequests = append([]models.ServiceRequest(nil), event.ServiceRequests...)
	return &cp, nil
}

func (s *fakeEventStore) UpdateStatus(ctx context.Context, id string, status models.EventStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statusErr != nil {
		return s.statusErr
	}
	event, ok := s.events[id]
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrNotFound, id)
	}
	event.Status = status
	return nil
}

func (s *fakeEventStore) UpdateServiceRequests(ctx context.Context, id string, reqs []models.ServiceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reqErr != nil {
		return s.reqErr
	}
	event, ok := s.events[id]
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrNotFound, id)
	}
	event.ServiceRequests = append([]models.ServiceRequest(nil), reqs...)
	return nil
}

type fakeConversationStore struct {
	mu           sync.Mutex
	participants map[string][]string // conversation id -> user ids

	listErr   error
	createErr error
}

func newFakeConversationStore() *fakeConversationStore {
	return &fakeConversationStore{participants: make(map[string][]string)}
}

func (s *fakeConversationStore) seed(userIDs ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New().String()
	s.participants[id] = userIDs
	return id
}

func (s *fakeConversationStore) ListByParticipant(ctx context.Context, userID string) ([]models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Conversation
	for id, users := range s.participants {
		for _, u := range users {
			if u == userID {
				out = append(out, models.Conversation{ID: id, Participants: users})
				break
			}
		}
	}
	return out, nil
}

func (s *fakeConversationStore) FindByParticipants(ctx context.Context, a, b string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, users := range s.participants {
		var hasA, hasB bool
		for _, u := range users {
			hasA = hasA || u == a
			hasB = hasB || u == b
		}
		if hasA && hasB {
			return &models.Conversation{ID: id, Participants: users}, nil
		}
	}
	return nil, nil
}

func (s *fakeConversationStore) Create(ctx context.Context) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return nil, s.createErr
	}
	id := uuid.New().String()
	s.participants[id] = nil
	return &models.Conversation{ID: id}, nil
}

func (s *fakeConversationStore) AddParticipants(ctx context.Context, conversationID string, userIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[conversationID] = append(s.participants[conversationID], userIDs...)
	return nil
}

func (s *fakeConversationStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.participants)
}

type fakeAuditStore struct {
	mu        sync.Mutex
	entries   []*models.RejectionAudit
	appendErr error
}

func (s *fakeAuditStore) Append(ctx context.Context, entry *models.RejectionAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *fakeAuditStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

type fakeDispatcher struct {
	mu   sync.Mutex
	sent []models.Notification
	fail bool
}

func (d *fakeDispatcher) Send(ctx context.Context, n models.Notification) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return false
	}
	d.sent = append(d.sent, n)
	return true
}

func (d *fakeDispatcher) kinds() []models.NotificationKind {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]models.NotificationKind, 0, len(d.sent))
	for _, n := range d.sent {
		out = append(out, n.Kind)
	}
	return out
}

// ==========================
// Model helpers
// ==========================

func makeApplication(id, eventID, providerID, category string, status models.ApplicationStatus) *models.Application {
	return &models.Application{
		ID:              id,
		EventID:         eventID,
		ProviderID:      providerID,
		Message:         "I would love to work this event",
		ServiceCategory: category,
		Status:          status,
		CreatedAt:       "2026-08-01T10:00:00Z",
	}
}

func makeEvent(id, contractorID string, reqs ...models.ServiceRequest) *models.Event {
	return &models.Event{
		ID:              id,
		ContractorID:    contractorID,
		Title:           "Summer Festival",
		Status:          models.EventPublished,
		ServiceRequests: reqs,
		CreatedAt:       "2026-07-15T09:00:00Z",
	}
}
