// internal/notify/log_dispatcher.go
package notify

import (
	"context"

	"github.com/DeividBruno15/eventoplus-sub000/internal/common/logger"
	"github.com/DeividBruno15/eventoplus-sub000/internal/common/metrics"
	"github.com/DeividBruno15/eventoplus-sub000/internal/models"
)

// LogDispatcher logs notifications instead of delivering them. Used in
// environments without AWS credentials.
type LogDispatcher struct {
	logger logger.Logger
}

func NewLogDispatcher(log logger.Logger) *LogDispatcher {
	return &LogDispatcher{
		logger: log.WithFields(map[string]interface{}{"component": "notify-log"}),
	}
}

func (d *LogDispatcher) Send(ctx context.Context, n models.Notification) bool {
	d.logger.Info("notification (log only)", map[string]interface{}{
		"recipientId": n.RecipientID,
		"kind":        string(n.Kind),
		"title":       n.Title,
	})
	metrics.NotificationsSent.WithLabelValues(string(n.Kind), "sent").Inc()
	return true
}
