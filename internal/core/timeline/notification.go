package timeline

// =============================================================================
// Notification Triggers
// =============================================================================

// Trigger names an event that notification configs can subscribe to.
// Triggers are caller-driven: the host invokes the dispatcher at the right
// lifecycle point, the engine never watches for transitions itself.
type Trigger string

const (
	TriggerStageStarted      Trigger = "stage_started"
	TriggerStageCompleted    Trigger = "stage_completed"
	TriggerStageFailed       Trigger = "stage_failed"
	TriggerMilestoneReached  Trigger = "milestone_reached"
	TriggerMilestoneMissed   Trigger = "milestone_missed"
	TriggerMilestoneDelayed  Trigger = "milestone_delayed"
	TriggerTimelineCompleted Trigger = "timeline_completed"
)

// =============================================================================
// Notification Config
// =============================================================================

// Condition gates a notification. When it returns false the notification
// is skipped. Conditions are host-supplied code and are not persisted;
// hosts re-attach them after loading a timeline from a repository.
type Condition func(item Item, t *Timeline) bool

// NotificationConfig describes one notification subscription on a timeline.
// Template variables are resolved against the triggering item and the
// timeline at dispatch time.
type NotificationConfig struct {
	Trigger       Trigger           `json:"trigger"`
	Channel       string            `json:"channel"`
	Template      string            `json:"template"`
	Recipients    []string          `json:"recipients,omitempty"`
	Condition     Condition         `json:"-"`
	ChannelConfig map[string]string `json:"channel_config,omitempty"`
}

// NotificationsFor returns the configs subscribed to the given trigger.
func (t *Timeline) NotificationsFor(trigger Trigger) []NotificationConfig {
	var configs []NotificationConfig
	for _, c := range t.Notifications {
		if c.Trigger == trigger {
			configs = append(configs, c)
		}
	}
	return configs
}

// AddNotification registers a notification config on the timeline.
func (t *Timeline) AddNotification(cfg NotificationConfig) {
	t.Notifications = append(t.Notifications, cfg)
	t.touch()
}
