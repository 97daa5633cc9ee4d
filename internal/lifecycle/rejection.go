// internal/lifecycle/rejection.go
package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/DeividBruno15/eventoplus-sub000/internal/common/errors"
	"github.com/DeividBruno15/eventoplus-sub000/internal/common/logger"
	"github.com/DeividBruno15/eventoplus-sub000/internal/common/metrics"
	"github.com/DeividBruno15/eventoplus-sub000/internal/models"
	"github.com/DeividBruno15/eventoplus-sub000/internal/notify"
	"github.com/DeividBruno15/eventoplus-sub000/internal/store"

	"github.com/google/uuid"
)

// RejectionResult reports what the delete chain managed to do. Deleted is
// false only when every strategy failed; the ledger entry exists either
// way, so the application stays hidden.
type RejectionResult struct {
	Deleted bool
	Steps   apperrors.StepErrors
}

// RejectionOrchestrator removes an application: ledger first, audit
// second, hard delete last. Order is the whole point — once the ledger
// write lands the application can never resurface in a rendered list, no
// matter what the remote store does.
type RejectionOrchestrator struct {
	apps     store.ApplicationStore
	deleter  store.PrivilegedDeleter
	audit    store.AuditStore
	ledger   RejectionLedger
	notifier notify.Dispatcher
	logger   logger.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewRejectionOrchestrator(apps store.ApplicationStore, deleter store.PrivilegedDeleter, audit store.AuditStore, ledger RejectionLedger, notifier notify.Dispatcher, log logger.Logger) *RejectionOrchestrator {
	return &RejectionOrchestrator{
		apps:     apps,
		deleter:  deleter,
		audit:    audit,
		ledger:   ledger,
		notifier: notifier,
		logger:   log.WithFields(map[string]interface{}{"component": "rejection"}),
		inFlight: make(map[string]bool),
	}
}

// Reject runs the full rejection sequence for one application. A second
// call while the first is still running returns OPERATION_IN_PROGRESS.
func (o *RejectionOrchestrator) Reject(ctx context.Context, eventID, applicationID, providerID, reason string) (*RejectionResult, error) {
	if !o.acquire(applicationID) {
		metrics.LifecycleOpsFailed.WithLabelValues("reject", string(apperrors.ErrCodeOperationInProgress)).Inc()
		return nil, apperrors.NewOperationInProgressError(applicationID)
	}
	defer o.release(applicationID)

	started := time.Now()
	log := o.logger.WithFields(map[string]interface{}{
		"applicationId": applicationID,
		"eventId":       eventID,
		"providerId":    providerID,
	})

	// Ledger first, synchronously. If this fails the whole rejection is
	// aborted: proceeding would delete the record while leaving nothing to
	// hide it behind on the next render.
	if err := o.ledger.Add(ctx, eventID, applicationID); err != nil {
		metrics.LifecycleOpsFailed.WithLabelValues("reject", string(apperrors.ErrCodeRemoteWriteFailed)).Inc()
		return nil, apperrors.NewRemoteWriteFailedError("ledger add", err)
	}
	log.Info("rejection recorded in ledger", nil)

	// Snapshot is best effort; the application may already be gone.
	var snapshot *models.Application
	if app, err := o.apps.Get(ctx, applicationID); err == nil {
		snapshot = app
	}

	entry := &models.RejectionAudit{
		ID:            uuid.New().String(),
		ApplicationID: applicationID,
		EventID:       eventID,
		ActorID:       providerID,
		Action:        "rejected",
		Reason:        reason,
		Snapshot:      snapshot,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	if err := o.audit.Append(ctx, entry); err != nil {
		log.Error("audit write failed, delete aborted", map[string]interface{}{"error": err.Error()})
		metrics.LifecycleOpsFailed.WithLabelValues("reject", string(apperrors.ErrCodeAuditWriteFailed)).Inc()
		return nil, apperrors.NewAuditWriteFailedError(err)
	}

	result := &RejectionResult{}
	o.deleteChain(ctx, applicationID, result, log)

	sent := o.notifier.Send(ctx, models.Notification{
		RecipientID: providerID,
		Kind:        models.NotifyApplicationRejected,
		Title:       "Application rejected",
		Content:     "Your application was not selected for this event.",
		Link:        "/events/" + eventID,
		Channel:     "email",
	})
	if !sent {
		log.Warn("rejection notification not delivered", nil)
	}

	metrics.LifecycleOpDuration.WithLabelValues("reject").Observe(time.Since(started).Seconds())
	if !result.Deleted {
		log.Error("all delete strategies failed", map[string]interface{}{
			"steps": result.Steps.Error(),
		})
		metrics.LifecycleOpsFailed.WithLabelValues("reject", string(apperrors.ErrCodeRemoteWriteFailed)).Inc()
		return result, apperrors.NewRemoteWriteFailedError("delete application", &result.Steps)
	}

	metrics.LifecycleOpsCompleted.WithLabelValues("reject").Inc()
	return result, nil
}

// deleteChain tries the primary delete, then at most one privileged
// fallback. An already-missing record counts as deleted.
func (o *RejectionOrchestrator) deleteChain(ctx context.Context, applicationID string, result *RejectionResult, log logger.Logger) {
	err := o.apps.Delete(ctx, applicationID)
	result.Steps.Record("delete", err)
	if err == nil || errors.Is(err, apperrors.ErrNotFound) {
		result.Deleted = true
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Info("application already absent", nil)
		}
		return
	}
	log.Warn("primary delete failed, trying privileged path", map[string]interface{}{
		"error": err.Error(),
	})

	err = o.deleter.ForceDelete(ctx, applicationID)
	result.Steps.Record("force-delete", err)
	if err == nil {
		result.Deleted = true
		return
	}
	log.Error("privileged delete failed", map[string]interface{}{"error": err.Error()})
}

func (o *RejectionOrchestrator) acquire(applicationID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight[applicationID] {
		return false
	}
	o.inFlight[applicationID] = true
	return true
}

func (o *RejectionOrchestrator) release(applicationID string) {
	o.mu.Lock()
	delete(o.inFlight, applicationID)
	o.mu.Unlock()
}
