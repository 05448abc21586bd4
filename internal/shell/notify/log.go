package notify

import (
	"log/slog"

	corenotify "github.com/artpar/rollout/internal/core/notify"
	"github.com/artpar/rollout/internal/core/timeline"
)

// =============================================================================
// Log Handler
// =============================================================================

// LogHandler returns a handler that writes rendered notifications to the
// structured log. Useful as a durable audit channel alongside external
// delivery.
func LogHandler(logger *slog.Logger) corenotify.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(message string, item timeline.Item, t *timeline.Timeline) bool {
		attrs := []any{"message", message}
		if item != nil {
			attrs = append(attrs, "item_id", item.Base().ID)
		}
		if t != nil {
			attrs = append(attrs, "timeline_id", t.ID)
		}
		logger.Info("notification", attrs...)
		return true
	}
}
