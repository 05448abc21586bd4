package timeline

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Milestone
// =============================================================================

// Milestone is a zero-duration checkpoint on the timeline. It is reached
// (completed), missed (failed), or delayed (replanned to a later date).
type Milestone struct {
	TimelineItem
}

// NewMilestone creates a new pending milestone targeting the given date.
func NewMilestone(name string, priority Priority, target *time.Time) *Milestone {
	now := time.Now().UTC()
	return &Milestone{
		TimelineItem: TimelineItem{
			ID:             "ms_" + uuid.New().String()[:8],
			Name:           name,
			Status:         StatusPending,
			Priority:       priority,
			PlannedEndDate: target,
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}
}

// DurationDays is always zero for milestones.
func (m *Milestone) DurationDays() int { return 0 }

// Reach marks the milestone as reached.
func (m *Milestone) Reach(now time.Time) error {
	// Milestones have no in-progress phase; pass through it so the
	// shared state machine holds.
	if m.Status == StatusPending {
		if err := m.Start(now); err != nil {
			return err
		}
	}
	return m.Complete(now)
}

// Miss marks the milestone as missed.
func (m *Milestone) Miss(now time.Time) error {
	if m.Status == StatusPending {
		if err := m.Start(now); err != nil {
			return err
		}
	}
	return m.Fail(now)
}

// Delay replans the milestone to a new target date. The status is left
// untouched; a delayed milestone is still expected to be reached.
func (m *Milestone) Delay(newTarget time.Time, now time.Time) error {
	if m.Status.IsTerminal() {
		return ErrInvalidTransition
	}
	target := newTarget.UTC()
	m.PlannedEndDate = &target
	m.UpdatedAt = now.UTC()
	return nil
}

// Reached reports whether the milestone was reached.
func (m *Milestone) Reached() bool {
	return m.Status == StatusCompleted
}
