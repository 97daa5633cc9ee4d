// internal/lifecycle/ledger.go
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/DeividBruno15/eventoplus-sub000/internal/common/logger"
	"github.com/DeividBruno15/eventoplus-sub000/internal/models"

	"github.com/redis/go-redis/v9"
)

// legacyKeyPrefix is the old per-event key scheme. Entries found under it
// are folded into the consolidated hash on first access per event.
const legacyKeyPrefix = "rejected_apps:"

// RejectionLedger is the durable local record of rejected application ids.
// It is consulted on every list render so a rejected application never
// resurfaces, even when the remote delete is delayed or fails silently.
// Entries are append-only; nothing removes them automatically.
type RejectionLedger interface {
	Add(ctx context.Context, eventID, applicationID string) error
	Contains(ctx context.Context, eventID, applicationID string) bool
	AllFor(ctx context.Context, eventID string) map[string]struct{}
	Filter(ctx context.Context, eventID string, apps []models.Application) []models.Application
}

// RedisLedger keeps the consolidated ledger in one hash: field per event
// id, value a JSON array of application ids. A write-through in-memory
// mirror keeps the hide guarantee intact for the rest of the session even
// if redis becomes unreachable after the Add.
type RedisLedger struct {
	rdb    *redis.Client
	key    string
	logger logger.Logger

	mu       sync.Mutex
	mirror   map[string]map[string]struct{}
	migrated map[string]bool
}

func NewRedisLedger(rdb *redis.Client, namespace string, log logger.Logger) *RedisLedger {
	return &RedisLedger{
		rdb:      rdb,
		key:      namespace,
		logger:   log.WithFields(map[string]interface{}{"component": "rejection-ledger"}),
		mirror:   make(map[string]map[string]struct{}),
		migrated: make(map[string]bool),
	}
}

// Add records applicationID as rejected for eventID. Idempotent: adding an
// id twice is a no-op. The in-memory mirror is updated before the redis
// write so the entry hides the application immediately regardless of what
// the network does afterwards.
func (l *RedisLedger) Add(ctx context.Context, eventID, applicationID string) error {
	l.mu.Lock()
	if l.mirror[eventID] == nil {
		l.mirror[eventID] = make(map[string]struct{})
	}
	l.mirror[eventID][applicationID] = struct{}{}
	l.mu.Unlock()

	ids := l.load(ctx, eventID)
	if _, ok := ids[applicationID]; ok {
		return nil
	}
	ids[applicationID] = struct{}{}

	if err := l.persist(ctx, eventID, ids); err != nil {
		l.logger.Error("ledger write failed", map[string]interface{}{
			"eventId":       eventID,
			"applicationId": applicationID,
			"error":         err.Error(),
		})
		return fmt.Errorf("ledger add: %w", err)
	}
	return nil
}

func (l *RedisLedger) Contains(ctx context.Context, eventID, applicationID string) bool {
	_, ok := l.AllFor(ctx, eventID)[applicationID]
	return ok
}

// AllFor returns the union of the persisted ids and the session mirror.
func (l *RedisLedger) AllFor(ctx context.Context, eventID string) map[string]struct{} {
	ids := l.load(ctx, eventID)

	l.mu.Lock()
	for id := range l.mirror[eventID] {
		ids[id] = struct{}{}
	}
	l.mu.Unlock()

	return ids
}

// Filter removes every application whose id is in the ledger for eventID.
func (l *RedisLedger) Filter(ctx context.Context, eventID string, apps []models.Application) []models.Application {
	rejected := l.AllFor(ctx, eventID)
	if len(rejected) == 0 {
		return apps
	}

	out := make([]models.Application, 0, len(apps))
	for _, app := range apps {
		if _, hidden := rejected[app.ID]; hidden {
			continue
		}
		out = append(out, app)
	}
	return out
}

// load reads the consolidated entry for eventID, performing the lazy
// legacy-key migration first. Read or parse failures degrade to an empty
// set; the ledger must never block rendering.
func (l *RedisLedger) load(ctx context.Context, eventID string) map[string]struct{} {
	l.migrateLegacy(ctx, eventID)

	ids := make(map[string]struct{})
	raw, err := l.rdb.HGet(ctx, l.key, eventID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			l.logger.Warn("ledger read failed, treating as empty", map[string]interface{}{
				"eventId": eventID,
				"error":   err.Error(),
			})
		}
		return ids
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		l.logger.Warn("ledger entry corrupt, treating as empty", map[string]interface{}{
			"eventId": eventID,
			"error":   err.Error(),
		})
		return ids
	}
	for _, id := range list {
		ids[id] = struct{}{}
	}
	return ids
}

func (l *RedisLedger) persist(ctx context.Context, eventID string, ids map[string]struct{}) error {
	list := make([]string, 0, len(ids))
	for id := range ids {
		list = append(list, id)
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return l.rdb.HSet(ctx, l.key, eventID, string(data)).Err()
}

// migrateLegacy folds a legacy per-event key into the consolidated hash.
// The result is the union of both schemes; the legacy key is deleted only
// after the consolidated write succeeds. The per-event done flag is
// latched only on a definitive outcome (migrated, no legacy key, or a
// corrupt entry) — a transient redis failure leaves it unset so the next
// access retries instead of silently dropping the legacy entries.
func (l *RedisLedger) migrateLegacy(ctx context.Context, eventID string) {
	l.mu.Lock()
	done := l.migrated[eventID]
	l.mu.Unlock()
	if done {
		return
	}

	legacyKey := legacyKeyPrefix + eventID
	raw, err := l.rdb.Get(ctx, legacyKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			l.setMigrated(eventID)
			return
		}
		l.logger.Warn("legacy ledger read failed, will retry", map[string]interface{}{
			"eventId": eventID,
			"error":   err.Error(),
		})
		return
	}

	var legacy []string
	if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
		l.logger.Warn("legacy ledger entry corrupt, skipping migration", map[string]interface{}{
			"eventId": eventID,
			"error":   err.Error(),
		})
		l.setMigrated(eventID)
		return
	}

	ids := make(map[string]struct{})
	current, err := l.rdb.HGet(ctx, l.key, eventID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		// Without the consolidated entry the union cannot be computed;
		// writing only the legacy ids would drop entries.
		l.logger.Warn("consolidated ledger read failed, migration deferred", map[string]interface{}{
			"eventId": eventID,
			"error":   err.Error(),
		})
		return
	}
	if err == nil {
		var list []string
		if err := json.Unmarshal([]byte(current), &list); err == nil {
			for _, id := range list {
				ids[id] = struct{}{}
			}
		}
	}
	before := len(ids)
	for _, id := range legacy {
		ids[id] = struct{}{}
	}

	if err := l.persist(ctx, eventID, ids); err != nil {
		l.logger.Warn("legacy ledger migration write failed, will retry", map[string]interface{}{
			"eventId": eventID,
			"error":   err.Error(),
		})
		return
	}
	if err := l.rdb.Del(ctx, legacyKey).Err(); err != nil {
		// The union is persisted; a lingering legacy key only re-migrates
		// the same ids next session.
		l.logger.Warn("legacy ledger key delete failed", map[string]interface{}{
			"eventId": eventID,
			"error":   err.Error(),
		})
	}
	l.setMigrated(eventID)

	l.logger.Info("legacy ledger migrated", map[string]interface{}{
		"eventId":  eventID,
		"migrated": len(ids) - before,
		"total":    len(ids),
	})
}

func (l *RedisLedger) setMigrated(eventID string) {
	l.mu.Lock()
	l.migrated[eventID] = true
	l.mu.Unlock()
}
