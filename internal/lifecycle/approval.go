// internal/lifecycle/approval.go
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/DeividBruno15/eventoplus-sub000/internal/common/errors"
	"github.com/DeividBruno15/eventoplus-sub000/internal/common/logger"
	"github.com/DeividBruno15/eventoplus-sub000/internal/common/metrics"
	"github.com/DeividBruno15/eventoplus-sub000/internal/models"
	"github.com/DeividBruno15/eventoplus-sub000/internal/notify"
	"github.com/DeividBruno15/eventoplus-sub000/internal/store"
)

// ApprovalResult reports the outcome of one approval. When PartialFailure
// is set the application is accepted but one or more side effects did not
// land; the caller must re-verify via the StatusVerifier rather than
// assume a rollback happened.
type ApprovalResult struct {
	ConversationID   string
	AlreadyConnected bool
	PartialFailure   bool
	Steps            apperrors.StepErrors
}

// ApprovalOrchestrator drives the multi-step transaction of accepting one
// application. Each remote write is its own transaction; there is no
// cross-record atomicity and no rollback once the accept write lands.
type ApprovalOrchestrator struct {
	apps     store.ApplicationStore
	events   store.EventStore
	convs    store.ConversationStore
	notifier notify.Dispatcher
	logger   logger.Logger
}

func NewApprovalOrchestrator(apps store.ApplicationStore, events store.EventStore, convs store.ConversationStore, notifier notify.Dispatcher, log logger.Logger) *ApprovalOrchestrator {
	return &ApprovalOrchestrator{
		apps:     apps,
		events:   events,
		convs:    convs,
		notifier: notifier,
		logger:   log.WithFields(map[string]interface{}{"component": "approval"}),
	}
}

func (o *ApprovalOrchestrator) Approve(ctx context.Context, applicationID, providerID string, event *models.Event) (*ApprovalResult, error) {
	started := time.Now()
	log := o.logger.WithFields(map[string]interface{}{
		"applicationId": applicationID,
		"providerId":    providerID,
		"eventId":       event.ID,
	})

	app, err := o.apps.Get(ctx, applicationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			metrics.LifecycleOpsFailed.WithLabelValues("approve", string(apperrors.ErrCodeNotFound)).Inc()
			return nil, apperrors.NewNotFoundError(applicationID)
		}
		metrics.LifecycleOpsFailed.WithLabelValues("approve", string(apperrors.ErrCodeRemoteWriteFailed)).Inc()
		return nil, apperrors.NewRemoteWriteFailedError("get application", err)
	}

	// Double-submission guard: an already-accepted application with an
	// existing conversation means a retried click, not a new approval.
	if app.Status == models.StatusAccepted {
		conv, err := o.convs.FindByParticipants(ctx, event.ContractorID, providerID)
		if err == nil && conv != nil {
			log.Info("already accepted, reusing conversation", map[string]interface{}{
				"conversationId": conv.ID,
			})
			metrics.LifecycleOpsCompleted.WithLabelValues("approve").Inc()
			return &ApprovalResult{ConversationID: conv.ID, AlreadyConnected: true}, nil
		}
	}
	if app.Status == models.StatusRejected {
		metrics.LifecycleOpsFailed.WithLabelValues("approve", string(apperrors.ErrCodeAlreadyTerminal)).Inc()
		return nil, apperrors.NewAlreadyTerminalError(applicationID, string(app.Status))
	}

	accepted := models.StatusAccepted
	if err := o.apps.Update(ctx, applicationID, store.ApplicationPatch{Status: &accepted}); err != nil {
		log.Error("accept write failed", map[string]interface{}{"error": err.Error()})
		metrics.LifecycleOpsFailed.WithLabelValues("approve", string(apperrors.ErrCodeRemoteWriteFailed)).Inc()
		return nil, apperrors.NewRemoteWriteFailedError("accept application", err)
	}
	log.Info("application accepted", nil)

	result := &ApprovalResult{}

	o.rejectSiblings(ctx, app, event, &result.Steps, log)

	if event.Status != models.EventPublished {
		if err := o.events.UpdateStatus(ctx, event.ID, models.EventPublished); err != nil {
			log.Error("event publish failed", map[string]interface{}{"error": err.Error()})
			result.Steps.Record("publish-event", err)
		} else {
			event.Status = models.EventPublished
			result.Steps.Record("publish-event", nil)
		}
	}

	conversationID, convErr := o.ensureConversation(ctx, event.ContractorID, providerID, log)
	result.ConversationID = conversationID
	result.Steps.Record("ensure-conversation", convErr)

	o.incrementFilled(ctx, app, event, &result.Steps, log)

	sent := o.notifier.Send(ctx, models.Notification{
		RecipientID: providerID,
		Kind:        models.NotifyApplicationApproved,
		Title:       "Application approved",
		Content:     fmt.Sprintf("Your application for %q was approved.", event.Title),
		Link:        "/events/" + event.ID,
		Channel:     "email",
	})
	if !sent {
		log.Warn("approval notification not delivered", nil)
	}

	for _, r := range result.Steps.Results {
		if !r.OK {
			result.PartialFailure = true
			break
		}
	}
	metrics.LifecycleOpDuration.WithLabelValues("approve").Observe(time.Since(started).Seconds())
	if result.PartialFailure {
		log.Warn("approval completed with partial failure", map[string]interface{}{
			"steps": result.Steps.Error(),
		})
		metrics.LifecycleOpsFailed.WithLabelValues("approve", string(apperrors.ErrCodeRemoteWriteFailed)).Inc()
		return result, apperrors.NewRemoteWriteFailedError("approval side effects", &result.Steps)
	}

	metrics.LifecycleOpsCompleted.WithLabelValues("approve").Inc()
	return result, nil
}

// rejectSiblings enforces exclusivity: every other pending application for
// the event in the same category (or every other application when the
// accepted one has no category) is bulk-rejected. Best effort — a partial
// failure is recorded and logged but never rolls back the accept.
func (o *ApprovalOrchestrator) rejectSiblings(ctx context.Context, app *models.Application, event *models.Event, steps *apperrors.StepErrors, log logger.Logger) {
	filter := store.ApplicationFilter{EventID: event.ID}
	if app.ServiceCategory != "" {
		filter.Category = app.ServiceCategory
	}
	siblings, err := o.apps.List(ctx, filter)
	if err != nil {
		log.Error("sibling listing failed", map[string]interface{}{"error": err.Error()})
		steps.Record("reject-siblings", err)
		return
	}

	rejected := models.StatusRejected
	var failed int
	for _, sibling := range siblings {
		if sibling.ID == app.ID || sibling.Status != models.StatusPending {
			continue
		}
		if err := o.apps.Update(ctx, sibling.ID, store.ApplicationPatch{Status: &rejected}); err != nil {
			failed++
			log.Error("sibling reject failed", map[string]interface{}{
				"siblingId": sibling.ID,
				"error":     err.Error(),
			})
		}
	}
	if failed > 0 {
		steps.Record("reject-siblings", fmt.Errorf("%d sibling updates failed", failed))
		return
	}
	steps.Record("reject-siblings", nil)
}

// ensureConversation reuses the conversation both parties already share,
// creating one only when the two participant lookups intersect on nothing.
// The lookup-then-create pair is not atomic; concurrent approvals of the
// same provider can race it into a duplicate, which is tolerated.
func (o *ApprovalOrchestrator) ensureConversation(ctx context.Context, contractorID, providerID string, log logger.Logger) (string, error) {
	contractorConvs, err := o.convs.ListByParticipant(ctx, contractorID)
	if err != nil {
		return "", fmt.Errorf("list contractor conversations: %w", err)
	}
	providerConvs, err := o.convs.ListByParticipant(ctx, providerID)
	if err != nil {
		return "", fmt.Errorf("list provider conversations: %w", err)
	}

	providerSet := make(map[string]struct{}, len(providerConvs))
	for _, c := range providerConvs {
		providerSet[c.ID] = struct{}{}
	}
	for _, c := range contractorConvs {
		if _, ok := providerSet[c.ID]; ok {
			log.Info("conversation reused", map[string]interface{}{"conversationId": c.ID})
			return c.ID, nil
		}
	}

	conv, err := o.convs.Create(ctx)
	if err != nil {
		return "", fmt.Errorf("create conversation: %w", err)
	}
	if err := o.convs.AddParticipants(ctx, conv.ID, []string{contractorID, providerID}); err != nil {
		return conv.ID, fmt.Errorf("add participants: %w", err)
	}
	log.Info("conversation created", map[string]interface{}{"conversationId": conv.ID})
	return conv.ID, nil
}

// incrementFilled bumps the matching service request's filled count via a
// read-modify-write of the whole category list.
func (o *ApprovalOrchestrator) incrementFilled(ctx context.Context, app *models.Application, event *models.Event, steps *apperrors.StepErrors, log logger.Logger) {
	if app.ServiceCategory == "" {
		return
	}
	req := event.RequestFor(app.ServiceCategory)
	if req == nil {
		log.Warn("no service request for category", map[string]interface{}{
			"category": app.ServiceCategory,
		})
		return
	}
	if req.FilledCount >= req.Count {
		log.Warn("service request already filled", map[string]interface{}{
			"category": app.ServiceCategory,
			"count":    req.Count,
		})
		return
	}
	req.FilledCount++
	if err := o.events.UpdateServiceRequests(ctx, event.ID, event.ServiceRequests); err != nil {
		req.FilledCount--
		log.Error("fill count update failed", map[string]interface{}{"error": err.Error()})
		steps.Record("increment-fill-count", err)
		return
	}
	steps.Record("increment-fill-count", nil)
}
