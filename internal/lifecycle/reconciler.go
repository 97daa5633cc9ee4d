// internal/lifecycle/reconciler.go
package lifecycle

import (
	"context"
	"sort"

	"github.com/DeividBruno15/eventoplus-sub000/internal/common/metrics"
	"github.com/DeividBruno15/eventoplus-sub000/internal/models"
)

// statusRank fixes the display order: pending before accepted before
// rejected. Ties keep the remote list's original order.
var statusRank = map[models.ApplicationStatus]int{
	models.StatusPending:  0,
	models.StatusAccepted: 1,
	models.StatusRejected: 2,
}

// ListReconciler produces the displayed application list: the remote list
// filtered through the rejection ledger, then sorted. Every render path —
// user navigation, periodic refresh, push invalidation — must go through
// Render.
type ListReconciler struct {
	ledger RejectionLedger
}

func NewListReconciler(ledger RejectionLedger) *ListReconciler {
	return &ListReconciler{ledger: ledger}
}

func (r *ListReconciler) Render(ctx context.Context, eventID string, remote []models.Application) []models.Application {
	display := r.ledger.Filter(ctx, eventID, remote)
	if hidden := len(remote) - len(display); hidden > 0 {
		metrics.LedgerHiddenApplications.WithLabelValues(eventID).Add(float64(hidden))
	}

	sort.SliceStable(display, func(i, j int) bool {
		return statusRank[display[i].Status] < statusRank[display[j].Status]
	})
	return display
}
