// internal/lifecycle/refresh.go
package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/DeividBruno15/eventoplus-sub000/internal/common/logger"
	"github.com/DeividBruno15/eventoplus-sub000/internal/models"
	"github.com/DeividBruno15/eventoplus-sub000/internal/store"

	"github.com/redis/go-redis/v9"
)

// RefreshFunc receives the freshly reconciled list for one watched event.
type RefreshFunc func(eventID string, apps []models.Application)

// Refresher keeps watched event lists current from two triggers: a
// periodic ticker and push invalidations over a redis channel carrying the
// event id as payload. Both paths re-list from the store and re-render
// through the reconciler, so the ledger filter is never bypassed.
type Refresher struct {
	apps       store.ApplicationStore
	reconciler *ListReconciler
	rdb        *redis.Client
	channel    string
	interval   time.Duration
	onRefresh  RefreshFunc
	logger     logger.Logger

	mu      sync.Mutex
	watched map[string]bool
}

func NewRefresher(apps store.ApplicationStore, reconciler *ListReconciler, rdb *redis.Client, channel string, interval time.Duration, onRefresh RefreshFunc, log logger.Logger) *Refresher {
	return &Refresher{
		apps:       apps,
		reconciler: reconciler,
		rdb:        rdb,
		channel:    channel,
		interval:   interval,
		onRefresh:  onRefresh,
		logger:     log.WithFields(map[string]interface{}{"component": "refresher"}),
		watched:    make(map[string]bool),
	}
}

// Watch registers an event for periodic and push-driven refreshes and
// performs one immediate refresh.
func (r *Refresher) Watch(ctx context.Context, eventID string) {
	r.mu.Lock()
	r.watched[eventID] = true
	r.mu.Unlock()
	r.refresh(ctx, eventID)
}

func (r *Refresher) Unwatch(eventID string) {
	r.mu.Lock()
	delete(r.watched, eventID)
	r.mu.Unlock()
}

// Run blocks until ctx is cancelled, driving both refresh triggers. The
// pub/sub subscription reconnects internally; a lost connection degrades
// to ticker-only refreshes rather than failing.
func (r *Refresher) Run(ctx context.Context) {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("refresher started", map[string]interface{}{
		"channel":  r.channel,
		"interval": r.interval.String(),
	})

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped", nil)
			return
		case <-ticker.C:
			for _, eventID := range r.watchedIDs() {
				r.refresh(ctx, eventID)
			}
		case msg, ok := <-msgs:
			if !ok {
				r.logger.Warn("invalidation channel closed, ticker-only from here", nil)
				msgs = nil
				continue
			}
			eventID := msg.Payload
			if r.isWatched(eventID) {
				r.logger.Info("push invalidation received", map[string]interface{}{
					"eventId": eventID,
				})
				r.refresh(ctx, eventID)
			}
		}
	}
}

// Invalidate publishes a push invalidation for eventID so every process
// watching it re-renders. Best effort.
func (r *Refresher) Invalidate(ctx context.Context, eventID string) {
	if err := r.rdb.Publish(ctx, r.channel, eventID).Err(); err != nil {
		r.logger.Warn("invalidation publish failed", map[string]interface{}{
			"eventId": eventID,
			"error":   err.Error(),
		})
	}
}

func (r *Refresher) refresh(ctx context.Context, eventID string) {
	remote, err := r.apps.List(ctx, store.ApplicationFilter{EventID: eventID})
	if err != nil {
		r.logger.Warn("refresh list failed, keeping last rendered state", map[string]interface{}{
			"eventId": eventID,
			"error":   err.Error(),
		})
		return
	}
	display := r.reconciler.Render(ctx, eventID, remote)
	if r.onRefresh != nil {
		r.onRefresh(eventID, display)
	}
}

func (r *Refresher) watchedIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.watched))
	for id := range r.watched {
		ids = append(ids, id)
	}
	return ids
}

func (r *Refresher) isWatched(eventID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.watched[eventID]
}
