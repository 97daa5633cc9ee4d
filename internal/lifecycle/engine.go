// internal/lifecycle/engine.go
package lifecycle

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/DeividBruno15/eventoplus-sub000/internal/common/errors"
	"github.com/DeividBruno15/eventoplus-sub000/internal/common/logger"
	"github.com/DeividBruno15/eventoplus-sub000/internal/common/observability"
	"github.com/DeividBruno15/eventoplus-sub000/internal/models"
	"github.com/DeividBruno15/eventoplus-sub000/internal/store"
)

// Engine is the facade over the lifecycle orchestrators. It owns the
// optimistic overlay: every mutation flows Begin -> remote work ->
// Confirm, or Begin -> Fail -> Verify -> ApplyVerified, so the status a
// caller renders is never left guessing after a failure.
type Engine struct {
	apps       store.ApplicationStore
	events     store.EventStore
	approval   *ApprovalOrchestrator
	rejection  *RejectionOrchestrator
	submission *SubmissionOrchestrator
	reconciler *ListReconciler
	overlay    *Overlay
	verifier   *StatusVerifier
	obs        *observability.Observability
	logger     logger.Logger
}

func NewEngine(
	apps store.ApplicationStore,
	events store.EventStore,
	approval *ApprovalOrchestrator,
	rejection *RejectionOrchestrator,
	submission *SubmissionOrchestrator,
	reconciler *ListReconciler,
	verifier *StatusVerifier,
	obs *observability.Observability,
	log logger.Logger,
) *Engine {
	return &Engine{
		apps:       apps,
		events:     events,
		approval:   approval,
		rejection:  rejection,
		submission: submission,
		reconciler: reconciler,
		overlay:    NewOverlay(),
		verifier:   verifier,
		obs:        obs,
		logger:     log.WithFields(map[string]interface{}{"component": "engine"}),
	}
}

func (e *Engine) Overlay() *Overlay { return e.overlay }

// Approve accepts an application with an optimistic status flip. On any
// orchestration error the shown status is re-verified against the store
// instead of being blindly rolled back, because a partial failure may have
// landed the accept write.
func (e *Engine) Approve(ctx context.Context, applicationID, providerID, eventID string) (*ApprovalResult, error) {
	ctx, span := e.obs.StartSpan(ctx, "engine.approve")
	defer span.End()
	started := time.Now()

	event, err := e.events.Get(ctx, eventID)
	if err != nil {
		e.obs.RecordOperation(ctx, "approve", "error")
		return nil, apperrors.NewRemoteWriteFailedError("load event", err)
	}

	prior := e.currentStatus(ctx, applicationID)
	e.overlay.Begin(applicationID, prior, models.StatusAccepted)

	result, err := e.approval.Approve(ctx, applicationID, providerID, event)
	e.obs.RecordDuration(ctx, "approve", time.Since(started))
	if err != nil {
		// ALREADY_TERMINAL means nothing changed remotely; everything else
		// needs a verification round-trip.
		if errors.Is(err, apperrors.ErrAlreadyTerminal) {
			e.overlay.Fail(applicationID)
			e.overlay.ApplyVerified(applicationID, prior)
		} else {
			e.overlay.Fail(applicationID)
			verified := e.verifier.Verify(ctx, applicationID, prior)
			e.overlay.ApplyVerified(applicationID, verified)
		}
		e.obs.RecordOperation(ctx, "approve", "error")
		return result, err
	}

	e.overlay.Confirm(applicationID)
	e.obs.RecordOperation(ctx, "approve", "success")
	return result, nil
}

// Reject removes an application. The optimistic flip happens before the
// orchestration; on failure the verifier decides what the caller should
// show, and a missing record still verifies to rejected.
func (e *Engine) Reject(ctx context.Context, eventID, applicationID, providerID, reason string) (*RejectionResult, error) {
	ctx, span := e.obs.StartSpan(ctx, "engine.reject")
	defer span.End()
	started := time.Now()

	prior := e.currentStatus(ctx, applicationID)
	e.overlay.Begin(applicationID, prior, models.StatusRejected)

	result, err := e.rejection.Reject(ctx, eventID, applicationID, providerID, reason)
	e.obs.RecordDuration(ctx, "reject", time.Since(started))
	if err != nil {
		e.overlay.Fail(applicationID)
		if !errors.Is(err, apperrors.ErrOperationInProgress) {
			verified := e.verifier.Verify(ctx, applicationID, prior)
			e.overlay.ApplyVerified(applicationID, verified)
		}
		e.obs.RecordOperation(ctx, "reject", "error")
		return result, err
	}

	e.overlay.Confirm(applicationID)
	e.obs.RecordOperation(ctx, "reject", "success")
	return result, nil
}

// Submit creates a pending application. No overlay entry is needed: there
// is no prior status to fall back to before the record exists.
func (e *Engine) Submit(ctx context.Context, input SubmitInput) (*models.Application, error) {
	ctx, span := e.obs.StartSpan(ctx, "engine.submit")
	defer span.End()
	started := time.Now()

	app, err := e.submission.Submit(ctx, input)
	e.obs.RecordDuration(ctx, "submit", time.Since(started))
	if err != nil {
		e.obs.RecordOperation(ctx, "submit", "error")
		return nil, err
	}
	e.obs.RecordOperation(ctx, "submit", "success")
	return app, nil
}

// Cancel withdraws the caller's own pending application.
func (e *Engine) Cancel(ctx context.Context, applicationID, providerID string) (*RejectionResult, error) {
	ctx, span := e.obs.StartSpan(ctx, "engine.cancel")
	defer span.End()
	started := time.Now()

	prior := e.currentStatus(ctx, applicationID)
	e.overlay.Begin(applicationID, prior, models.StatusRejected)

	result, err := e.submission.Cancel(ctx, applicationID, providerID)
	e.obs.RecordDuration(ctx, "cancel", time.Since(started))
	if err != nil {
		e.overlay.Fail(applicationID)
		verified := e.verifier.Verify(ctx, applicationID, prior)
		e.overlay.ApplyVerified(applicationID, verified)
		e.obs.RecordOperation(ctx, "cancel", "error")
		return result, err
	}

	e.overlay.Confirm(applicationID)
	e.obs.RecordOperation(ctx, "cancel", "success")
	return result, nil
}

// Render lists an event's applications as the caller should display them:
// remote list, ledger filter, status sort, then the optimistic overlay
// applied on top.
func (e *Engine) Render(ctx context.Context, eventID string) ([]models.Application, error) {
	remote, err := e.apps.List(ctx, store.ApplicationFilter{EventID: eventID})
	if err != nil {
		return nil, apperrors.NewRemoteWriteFailedError("list applications", err)
	}
	display := e.reconciler.Render(ctx, eventID, remote)

	for i := range display {
		if s, ok := e.overlay.Get(display[i].ID); ok {
			display[i].Status = s.Status
		}
	}
	return display, nil
}

// Reverify re-reads the remote status of one application on user demand.
// Allowed only while the overlay entry is pendingSync or syncFailed.
func (e *Engine) Reverify(ctx context.Context, applicationID string) (models.ApplicationStatus, error) {
	if !e.overlay.NeedsVerification(applicationID) {
		s, ok := e.overlay.Get(applicationID)
		if !ok {
			return "", apperrors.NewNotFoundError(applicationID)
		}
		return s.Status, nil
	}
	fallback, _ := e.overlay.Prior(applicationID)
	verified := e.verifier.Verify(ctx, applicationID, fallback)
	e.overlay.ApplyVerified(applicationID, verified)
	return verified, nil
}

// currentStatus reads the status to remember as the rollback point.
// Unreachable or missing reads default to pending, the only status an
// application can act from.
func (e *Engine) currentStatus(ctx context.Context, applicationID string) models.ApplicationStatus {
	app, err := e.apps.Get(ctx, applicationID)
	if err != nil {
		return models.StatusPending
	}
	return app.Status
}
