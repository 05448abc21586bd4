package timeline

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Timeline Status
// =============================================================================

// TimelineStatus represents the lifecycle state of a whole timeline.
type TimelineStatus string

const (
	TimelineDraft     TimelineStatus = "draft"
	TimelineActive    TimelineStatus = "active"
	TimelineCompleted TimelineStatus = "completed"
	TimelineArchived  TimelineStatus = "archived"
)

// =============================================================================
// Timeline
// =============================================================================

// Timeline is the aggregate root for a rollout plan. It owns stages,
// milestones and notification configs. It owns no dependency-graph state;
// the graph is recomputed on demand from the items' Dependencies fields.
type Timeline struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description,omitempty"`
	Status        TimelineStatus       `json:"status"`
	Version       int                  `json:"version"`
	Stages        []*Stage             `json:"stages"`
	Milestones    []*Milestone         `json:"milestones"`
	Notifications []NotificationConfig `json:"notifications,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// NewTimeline creates a new draft timeline.
func NewTimeline(name string) *Timeline {
	now := time.Now().UTC()
	return &Timeline{
		ID:        "tl_" + uuid.New().String()[:8],
		Name:      name,
		Status:    TimelineDraft,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Activate moves the timeline out of draft.
func (t *Timeline) Activate() {
	t.Status = TimelineActive
	t.touch()
}

// MarkCompleted marks the whole timeline as completed.
func (t *Timeline) MarkCompleted() {
	t.Status = TimelineCompleted
	t.touch()
}

// Archive archives the timeline.
func (t *Timeline) Archive() {
	t.Status = TimelineArchived
	t.touch()
}

func (t *Timeline) touch() {
	t.Version++
	t.UpdatedAt = time.Now().UTC()
}

// =============================================================================
// Item Management
// =============================================================================

// AddStage adds a stage to the timeline. The stage ID must be unique
// across all items.
func (t *Timeline) AddStage(s *Stage) error {
	if _, ok := t.FindItem(s.ID); ok {
		return ErrDuplicateItemID
	}
	t.Stages = append(t.Stages, s)
	t.touch()
	return nil
}

// AddMilestone adds a milestone to the timeline.
func (t *Timeline) AddMilestone(m *Milestone) error {
	if _, ok := t.FindItem(m.ID); ok {
		return ErrDuplicateItemID
	}
	t.Milestones = append(t.Milestones, m)
	t.touch()
	return nil
}

// AddDependency records that item itemID depends on dependsOnID. Both items
// must already exist in the timeline; cycle detection is the resolver's job.
func (t *Timeline) AddDependency(itemID string, dep Dependency) error {
	item, ok := t.FindItem(itemID)
	if !ok {
		return ErrItemNotFound
	}
	if _, ok := t.FindItem(dep.DependsOnID); !ok {
		return ErrItemNotFound
	}
	return item.Base().AddDependency(dep)
}

// Items returns all stages and milestones in insertion order, stages first.
func (t *Timeline) Items() []Item {
	items := make([]Item, 0, len(t.Stages)+len(t.Milestones))
	for _, s := range t.Stages {
		items = append(items, s)
	}
	for _, m := range t.Milestones {
		items = append(items, m)
	}
	return items
}

// FindItem looks up a stage or milestone by ID.
func (t *Timeline) FindItem(id string) (Item, bool) {
	for _, s := range t.Stages {
		if s.ID == id {
			return s, true
		}
	}
	for _, m := range t.Milestones {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// FindStage looks up a stage by ID.
func (t *Timeline) FindStage(id string) (*Stage, bool) {
	for _, s := range t.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// FindMilestone looks up a milestone by ID.
func (t *Timeline) FindMilestone(id string) (*Milestone, bool) {
	for _, m := range t.Milestones {
		if m.ID == id {
			return m, true
		}
	}
	return nil, false
}

// =============================================================================
// Readiness
// =============================================================================

// CanItemStart reports whether every blocking dependency of the item is
// satisfied per its type's semantics. Items whose dependencies reference
// missing predecessors are never ready; that situation is reported as a
// validation failure by the resolver.
func (t *Timeline) CanItemStart(id string) bool {
	item, ok := t.FindItem(id)
	if !ok {
		return false
	}

	for _, dep := range item.Base().Dependencies {
		if !dep.IsBlocker {
			continue
		}
		pred, ok := t.FindItem(dep.DependsOnID)
		if !ok {
			return false
		}
		if !dependencySatisfied(dep.Type, pred.Base()) {
			return false
		}
	}
	return true
}

// dependencySatisfied checks a single dependency against its predecessor's
// state. Start-bounding types need the predecessor started; finish-bounding
// types need it completed before the dependent may start.
func dependencySatisfied(depType DependencyType, pred *TimelineItem) bool {
	switch depType {
	case StartToStart:
		return pred.Status == StatusInProgress || pred.Status == StatusCompleted
	default:
		// FinishToStart, FinishToFinish, StartToFinish
		return pred.Status == StatusCompleted
	}
}
