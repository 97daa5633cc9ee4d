// internal/lifecycle/submission.go
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

	"github.com/google/uuid"
)

// SubmissionOrchestrator creates pending applications and handles the
// provider withdrawing one.
type SubmissionOrchestrator struct {
	apps     store.ApplicationStore
	deleter  store.PrivilegedDeleter
	events   store.EventStore
	audit    store.AuditStore
	notifier notify.Dispatcher
	logger   logger.Logger
}

func NewSubmissionOrchestrator(apps store.ApplicationStore, deleter store.PrivilegedDeleter, events store.EventStore, audit store.AuditStore, notifier notify.Dispatcher, log logger.Logger) *SubmissionOrchestrator {
	return &SubmissionOrchestrator{
		apps:     apps,
		deleter:  deleter,
		events:   events,
		audit:    audit,
		notifier: notifier,
		logger:   log.WithFields(map[string]interface{}{"component": "submission"}),
	}
}

// Submit validates the payload, guards against a duplicate pending
// application for the same provider/event/category, and inserts the new
// application as pending. The contractor is notified best effort.
func (o *SubmissionOrchestrator) Submit(ctx context.Context, input SubmitInput) (*models.Application, error) {
	started := time.Now()
	log := o.logger.WithFields(map[string]interface{}{
		"eventId":    input.EventID,
		"providerId": input.ProviderID,
	})

	if err := ValidateSubmit(input); err != nil {
		metrics.LifecycleOpsFailed.WithLabelValues("submit", string(apperrors.ErrCodeValidationFailed)).Inc()
		return nil, err
	}

	event, err := o.events.Get(ctx, input.EventID)
	if err != nil {
		metrics.LifecycleOpsFailed.WithLabelValues("submit", string(apperrors.ErrCodeNotFound)).Inc()
		return nil, apperrors.NewValidationFailedError(fmt.Sprintf("event %s not found", input.EventID))
	}
	if event.Status == models.EventClosed {
		metrics.LifecycleOpsFailed.WithLabelValues("submit", string(apperrors.ErrCodeValidationFailed)).Inc()
		return nil, apperrors.NewValidationFailedError("event is closed to applications")
	}

	existing, err := o.apps.List(ctx, store.ApplicationFilter{
		EventID:    input.EventID,
		ProviderID: input.ProviderID,
		Category:   input.ServiceCategory,
		Status:     models.StatusPending,
	})
	if err != nil {
		metrics.LifecycleOpsFailed.WithLabelValues("submit", string(apperrors.ErrCodeRemoteWriteFailed)).Inc()
		return nil, apperrors.NewRemoteWriteFailedError("duplicate check", err)
	}
	if len(existing) > 0 {
		metrics.LifecycleOpsFailed.WithLabelValues("submit", string(apperrors.ErrCodeDuplicate)).Inc()
		return nil, apperrors.NewDuplicateError(input.ProviderID, input.EventID)
	}

	app := &models.Application{
		ID:              uuid.New().String(),
		EventID:         input.EventID,
		ProviderID:      input.ProviderID,
		Message:         input.Message,
		ServiceCategory: input.ServiceCategory,
		Status:          models.StatusPending,
		CreatedAt:       time.Now().UTC().Format(time.RFC3339),
	}
	if err := o.apps.Insert(ctx, app); err != nil {
		log.Error("application insert failed", map[string]interface{}{"error": err.Error()})
		metrics.LifecycleOpsFailed.WithLabelValues("submit", string(apperrors.ErrCodeRemoteWriteFailed)).Inc()
		return nil, apperrors.NewRemoteWriteFailedError("insert application", err)
	}
	log.Info("application submitted", map[string]interface{}{"applicationId": app.ID})

	sent := o.notifier.Send(ctx, models.Notification{
		RecipientID: event.ContractorID,
		Kind:        models.NotifyApplicationSubmitted,
		Title:       "New application",
		Content:     fmt.Sprintf("A provider applied to %q.", event.Title),
		Link:        "/events/" + event.ID + "/applications",
		Channel:     "email",
	})
	if !sent {
		log.Warn("submission notification not delivered", nil)
	}

	metrics.LifecycleOpDuration.WithLabelValues("submit").Observe(time.Since(started).Seconds())
	metrics.LifecycleOpsCompleted.WithLabelValues("submit").Inc()
	return app, nil
}

// Cancel lets the owning provider withdraw a still-pending application.
// Like rejection it is an audited hard delete, but it never touches the
// rejection ledger: a withdrawn application disappearing from the remote
// list is the desired outcome, not something to paper over.
func (o *SubmissionOrchestrator) Cancel(ctx context.Context, applicationID, providerID string) (*RejectionResult, error) {
	started := time.Now()
	log := o.logger.WithFields(map[string]interface{}{
		"applicationId": applicationID,
		"providerId":    providerID,
	})

	app, err := o.apps.Get(ctx, applicationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			metrics.LifecycleOpsFailed.WithLabelValues("cancel", string(apperrors.ErrCodeNotFound)).Inc()
			return nil, apperrors.NewNotFoundError(applicationID)
		}
		metrics.LifecycleOpsFailed.WithLabelValues("cancel", string(apperrors.ErrCodeRemoteWriteFailed)).Inc()
		return nil, apperrors.NewRemoteWriteFailedError("get application", err)
	}
	if app.ProviderID != providerID {
		metrics.LifecycleOpsFailed.WithLabelValues("cancel", string(apperrors.ErrCodeValidationFailed)).Inc()
		return nil, apperrors.NewValidationFailedError("only the owning provider may cancel an application")
	}
	if app.Status.Terminal() {
		metrics.LifecycleOpsFailed.WithLabelValues("cancel", string(apperrors.ErrCodeAlreadyTerminal)).Inc()
		return nil, apperrors.NewAlreadyTerminalError(applicationID, string(app.Status))
	}

	entry := &models.RejectionAudit{
		ID:            uuid.New().String(),
		ApplicationID: applicationID,
		EventID:       app.EventID,
		ActorID:       providerID,
		Action:        "cancelled",
		Snapshot:      app,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	if err := o.audit.Append(ctx, entry); err != nil {
		log.Error("audit write failed, cancel aborted", map[string]interface{}{"error": err.Error()})
		metrics.LifecycleOpsFailed.WithLabelValues("cancel", string(apperrors.ErrCodeAuditWriteFailed)).Inc()
		return nil, apperrors.NewAuditWriteFailedError(err)
	}

	result := &RejectionResult{}
	derr := o.apps.Delete(ctx, applicationID)
	result.Steps.Record("delete", derr)
	if derr == nil || errors.Is(derr, apperrors.ErrNotFound) {
		result.Deleted = true
	} else {
		ferr := o.deleter.ForceDelete(ctx, applicationID)
		result.Steps.Record("force-delete", ferr)
		result.Deleted = ferr == nil
	}

	if result.Deleted {
		log.Info("application cancelled", nil)
		sent := o.notifier.Send(ctx, models.Notification{
			RecipientID: providerID,
			Kind:        models.NotifyApplicationCancelled,
			Title:       "Application withdrawn",
			Content:     "Your application was withdrawn.",
			Link:        "/events/" + app.EventID,
			Channel:     "email",
		})
		if !sent {
			log.Warn("cancel notification not delivered", nil)
		}
	}

	metrics.LifecycleOpDuration.WithLabelValues("cancel").Observe(time.Since(started).Seconds())
	if !result.Deleted {
		metrics.LifecycleOpsFailed.WithLabelValues("cancel", string(apperrors.ErrCodeRemoteWriteFailed)).Inc()
		return result, apperrors.NewRemoteWriteFailedError("delete application", &result.Steps)
	}
	metrics.LifecycleOpsCompleted.WithLabelValues("cancel").Inc()
	return result, nil
}
