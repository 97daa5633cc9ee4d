// internal/lifecycle/overlay.go
package lifecycle

import (
	"context"
	"errors"
	"sync"

	apperrors "github.com/DeividBruno15/eventoplus-sub000/internal/common/errors"
	"github.com/DeividBruno15/eventoplus-sub000/internal/common/logger"
	"github.com/DeividBruno15/eventoplus-sub000/internal/models"
	"github.com/DeividBruno15/eventoplus-sub000/internal/store"
)

// SyncState tracks how far a locally shown status has been confirmed.
type SyncState string

const (
	SyncConfirmed SyncState = "synced"
	SyncPending   SyncState = "pendingSync"
	SyncFailed    SyncState = "syncFailed"
)

// OverlayStatus is the per-application local view: the status the user
// sees and whether the remote store has confirmed it.
type OverlayStatus struct {
	Status models.ApplicationStatus
	Sync   SyncState
}

// OverlayEvent is the closed input set of the overlay reducer.
type OverlayEvent struct {
	Kind     OverlayEventKind
	Target   models.ApplicationStatus // ActionStarted
	Verified models.ApplicationStatus // VerifiedStatus
}

type OverlayEventKind int

const (
	ActionStarted OverlayEventKind = iota
	ActionSucceeded
	ActionFailed
	VerifiedStatus
)

// Reduce is the pure transition function over {action, serverResponse}
// events. It has no I/O and no knowledge of rendering.
func Reduce(cur OverlayStatus, ev OverlayEvent) OverlayStatus {
	switch ev.Kind {
	case ActionStarted:
		return OverlayStatus{Status: ev.Target, Sync: SyncPending}
	case ActionSucceeded:
		return OverlayStatus{Status: cur.Status, Sync: SyncConfirmed}
	case ActionFailed:
		return OverlayStatus{Status: cur.Status, Sync: SyncFailed}
	case VerifiedStatus:
		return OverlayStatus{Status: ev.Verified, Sync: SyncConfirmed}
	}
	return cur
}

type overlayEntry struct {
	current OverlayStatus
	prior   models.ApplicationStatus
}

// Overlay holds the optimistic per-application statuses shown to the user.
// It remembers the pre-action status so verification can fall back to it.
type Overlay struct {
	mu      sync.Mutex
	entries map[string]overlayEntry
}

func NewOverlay() *Overlay {
	return &Overlay{entries: make(map[string]overlayEntry)}
}

// Begin flips the shown status to target immediately, before any remote
// call resolves.
func (o *Overlay) Begin(applicationID string, current, target models.ApplicationStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	e := overlayEntry{prior: current}
	e.current = Reduce(OverlayStatus{Status: current, Sync: SyncConfirmed}, OverlayEvent{Kind: ActionStarted, Target: target})
	o.entries[applicationID] = e
}

func (o *Overlay) Confirm(applicationID string) {
	o.apply(applicationID, OverlayEvent{Kind: ActionSucceeded})
}

func (o *Overlay) Fail(applicationID string) {
	o.apply(applicationID, OverlayEvent{Kind: ActionFailed})
}

func (o *Overlay) ApplyVerified(applicationID string, status models.ApplicationStatus) {
	o.apply(applicationID, OverlayEvent{Kind: VerifiedStatus, Verified: status})
}

func (o *Overlay) apply(applicationID string, ev OverlayEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.entries[applicationID]
	if !ok {
		return
	}
	e.current = Reduce(e.current, ev)
	o.entries[applicationID] = e
}

// Get returns the overlay status and whether one exists.
func (o *Overlay) Get(applicationID string) (OverlayStatus, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.entries[applicationID]
	return e.current, ok
}

// Prior returns the pre-action status recorded at Begin.
func (o *Overlay) Prior(applicationID string) (models.ApplicationStatus, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	e, ok := o.entries[applicationID]
	return e.prior, ok
}

// NeedsVerification reports whether the user may manually re-verify:
// allowed whenever the entry is pendingSync or syncFailed.
func (o *Overlay) NeedsVerification(applicationID string) bool {
	s, ok := o.Get(applicationID)
	return ok && s.Sync != SyncConfirmed
}

// StatusVerifier reads the current remote status of one application. A
// record missing from the store counts as rejected, because rejection is a
// hard delete. When the store itself is unreachable the caller-supplied
// fallback is reported instead of guessing.
type StatusVerifier struct {
	apps   store.ApplicationStore
	logger logger.Logger
}

func NewStatusVerifier(apps store.ApplicationStore, log logger.Logger) *StatusVerifier {
	return &StatusVerifier{
		apps:   apps,
		logger: log.WithFields(map[string]interface{}{"component": "status-verifier"}),
	}
}

func (v *StatusVerifier) Verify(ctx context.Context, applicationID string, fallback models.ApplicationStatus) models.ApplicationStatus {
	app, err := v.apps.Get(ctx, applicationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return models.StatusRejected
		}
		v.logger.Warn("status verification unreachable, keeping prior status", map[string]interface{}{
			"applicationId": applicationID,
			"fallback":      string(fallback),
			"error":         err.Error(),
		})
		return fallback
	}
	return app.Status
}
