package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/artpar/rollout/internal/core/timeline"
)

// =============================================================================
// Handler Contract
// =============================================================================

// Handler delivers a rendered notification over one channel. It returns
// true on successful delivery. Handlers own their own timeout and
// cancellation policy; the dispatcher only aggregates outcomes.
type Handler func(message string, item timeline.Item, t *timeline.Timeline) bool

// Channel names with first-party handlers or common external adapters.
const (
	ChannelConsole = "console"
	ChannelEmail   = "email"
	ChannelSlack   = "slack"
	ChannelSMS     = "sms"
	ChannelWebhook = "webhook"
)

// =============================================================================
// Dispatcher
// =============================================================================

// Dispatcher routes rendered notifications to the handlers registered for
// a channel. One channel may have multiple handlers; all are invoked and
// the send succeeds if any handler reports success.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *slog.Logger
	now      func() time.Time
}

// NewDispatcher creates a dispatcher with the console handler registered
// as the only default. All other channels must be supplied by the host.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		handlers: make(map[string][]Handler),
		logger:   logger,
		now:      time.Now,
	}
	d.RegisterHandler(ChannelConsole, ConsoleHandler(nil))
	return d
}

// RegisterHandler adds a handler for a channel.
func (d *Dispatcher) RegisterHandler(channel string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[channel] = append(d.handlers[channel], h)
}

// SendNotification renders the config's template against the item and
// timeline and invokes every handler registered for the config's channel.
// It returns true if any handler succeeded.
//
// A config condition returning false makes the send a no-op. A handler
// panic is logged and counted as a failed channel; it never aborts the
// other handlers or the triggering state transition.
func (d *Dispatcher) SendNotification(cfg timeline.NotificationConfig, item timeline.Item, t *timeline.Timeline) bool {
	if cfg.Condition != nil && !cfg.Condition(item, t) {
		return false
	}

	message := RenderTemplate(cfg.Template, item, t, d.now())

	d.mu.RLock()
	handlers := d.handlers[cfg.Channel]
	d.mu.RUnlock()

	if len(handlers) == 0 {
		d.logger.Warn("no handlers registered for channel",
			"channel", cfg.Channel,
			"trigger", cfg.Trigger,
		)
		return false
	}

	delivered := false
	for _, h := range handlers {
		if d.invoke(h, cfg.Channel, message, item, t) {
			delivered = true
		}
	}
	return delivered
}

// Dispatch fires every config on the timeline subscribed to the trigger.
// It returns the number of configs that delivered successfully.
func (d *Dispatcher) Dispatch(trigger timeline.Trigger, item timeline.Item, t *timeline.Timeline) int {
	sent := 0
	for _, cfg := range t.NotificationsFor(trigger) {
		if d.SendNotification(cfg, item, t) {
			sent++
		}
	}
	return sent
}

func (d *Dispatcher) invoke(h Handler, channel, message string, item timeline.Item, t *timeline.Timeline) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("notification handler panicked",
				"channel", channel,
				"panic", r,
			)
			ok = false
		}
	}()
	return h(message, item, t)
}
