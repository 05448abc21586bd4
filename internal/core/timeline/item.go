// Package timeline contains the rollout timeline item model.
// This is part of the Functional Core - all functions are pure with no I/O.
package timeline

import (
	"errors"
	"time"
)

// =============================================================================
// Item Errors
// =============================================================================

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrItemNotFound      = errors.New("item not found in timeline")
	ErrDuplicateItemID   = errors.New("item with this ID already exists")
	ErrSelfDependency    = errors.New("item cannot depend on itself")
)

// =============================================================================
// Item Status
// =============================================================================

// ItemStatus represents the lifecycle state of a timeline item.
type ItemStatus string

const (
	StatusPending    ItemStatus = "pending"
	StatusWaiting    ItemStatus = "waiting"
	StatusInProgress ItemStatus = "in_progress"
	StatusCompleted  ItemStatus = "completed"
	StatusFailed     ItemStatus = "failed"
	StatusCancelled  ItemStatus = "cancelled"
)

// IsTerminal reports whether the status is a final state.
func (s ItemStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// validItemTransitions defines the allowed item status transitions.
var validItemTransitions = map[ItemStatus][]ItemStatus{
	StatusPending:    {StatusInProgress, StatusWaiting, StatusCancelled},
	StatusWaiting:    {StatusPending, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted:  {}, // Terminal state
	StatusFailed:     {},
	StatusCancelled:  {},
}

// ValidateItemTransition checks if a status transition is valid.
func ValidateItemTransition(from, to ItemStatus) error {
	allowed, exists := validItemTransitions[from]
	if !exists {
		return ErrInvalidTransition
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return ErrInvalidTransition
}

// =============================================================================
// Priority
// =============================================================================

// Priority represents the scheduling priority of an item.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// priorityRanks orders priorities for scheduling (lower rank schedules first).
var priorityRanks = map[Priority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// Rank returns the scheduling rank of the priority. Unknown priorities
// rank after low.
func (p Priority) Rank() int {
	if r, ok := priorityRanks[p]; ok {
		return r
	}
	return len(priorityRanks)
}

// priorityWeights maps priorities to progress weights.
var priorityWeights = map[Priority]float64{
	PriorityCritical: 4,
	PriorityHigh:     3,
	PriorityMedium:   2,
	PriorityLow:      1,
}

// Weight returns the progress weight of the priority. Unknown priorities
// weigh the same as medium.
func (p Priority) Weight() float64 {
	if w, ok := priorityWeights[p]; ok {
		return w
	}
	return priorityWeights[PriorityMedium]
}

// =============================================================================
// Dependency
// =============================================================================

// DependencyType describes how an item is constrained by its predecessor.
type DependencyType string

const (
	// FinishToStart: the item may start once the predecessor finishes.
	FinishToStart DependencyType = "finish_to_start"
	// StartToStart: the item may start once the predecessor starts.
	StartToStart DependencyType = "start_to_start"
	// FinishToFinish: the item may finish once the predecessor finishes.
	FinishToFinish DependencyType = "finish_to_finish"
	// StartToFinish: the item may finish once the predecessor starts.
	StartToFinish DependencyType = "start_to_finish"
)

// BoundsFinish reports whether the dependency type bounds the dependent
// item's finish. Only these types participate in critical path computation.
func (t DependencyType) BoundsFinish() bool {
	return t == FinishToStart || t == FinishToFinish
}

// Dependency links an item to a predecessor it depends on.
type Dependency struct {
	DependsOnID string         `json:"depends_on_id"`
	Type        DependencyType `json:"type"`
	DelayDays   int            `json:"delay_days,omitempty"`
	IsBlocker   bool           `json:"is_blocker"`
}

// =============================================================================
// Timeline Item
// =============================================================================

// TimelineItem holds the fields shared by stages and milestones.
//
// Invariant: ActualEndDate is only set when Status is terminal.
type TimelineItem struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Description      string         `json:"description,omitempty"`
	Status           ItemStatus     `json:"status"`
	Priority         Priority       `json:"priority"`
	PlannedStartDate *time.Time     `json:"planned_start_date,omitempty"`
	PlannedEndDate   *time.Time     `json:"planned_end_date,omitempty"`
	ActualStartDate  *time.Time     `json:"actual_start_date,omitempty"`
	ActualEndDate    *time.Time     `json:"actual_end_date,omitempty"`
	Owner            string         `json:"owner,omitempty"`
	Dependencies     []Dependency   `json:"dependencies,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Item is the polymorphic view of a stage or milestone held by a timeline.
type Item interface {
	// Base returns the shared item fields.
	Base() *TimelineItem

	// DurationDays returns the scheduling duration of the item in days.
	DurationDays() int
}

// Base returns the item itself so embedding types satisfy Item.
func (i *TimelineItem) Base() *TimelineItem { return i }

// Start transitions the item to in_progress and stamps the actual start date.
func (i *TimelineItem) Start(now time.Time) error {
	if err := ValidateItemTransition(i.Status, StatusInProgress); err != nil {
		return err
	}
	i.Status = StatusInProgress
	start := now.UTC()
	i.ActualStartDate = &start
	i.UpdatedAt = start
	return nil
}

// Complete transitions the item to completed and stamps the actual end date.
func (i *TimelineItem) Complete(now time.Time) error {
	return i.finish(StatusCompleted, now)
}

// Fail transitions the item to failed and stamps the actual end date.
func (i *TimelineItem) Fail(now time.Time) error {
	return i.finish(StatusFailed, now)
}

// Cancel transitions the item to cancelled and stamps the actual end date.
func (i *TimelineItem) Cancel(now time.Time) error {
	if err := ValidateItemTransition(i.Status, StatusCancelled); err != nil {
		return err
	}
	i.Status = StatusCancelled
	end := now.UTC()
	i.ActualEndDate = &end
	i.UpdatedAt = end
	return nil
}

// Block transitions a pending item to waiting.
func (i *TimelineItem) Block(now time.Time) error {
	if err := ValidateItemTransition(i.Status, StatusWaiting); err != nil {
		return err
	}
	i.Status = StatusWaiting
	i.UpdatedAt = now.UTC()
	return nil
}

// Unblock transitions a waiting item back to pending.
func (i *TimelineItem) Unblock(now time.Time) error {
	if err := ValidateItemTransition(i.Status, StatusPending); err != nil {
		return err
	}
	i.Status = StatusPending
	i.UpdatedAt = now.UTC()
	return nil
}

func (i *TimelineItem) finish(to ItemStatus, now time.Time) error {
	if err := ValidateItemTransition(i.Status, to); err != nil {
		return err
	}
	i.Status = to
	end := now.UTC()
	i.ActualEndDate = &end
	i.UpdatedAt = end
	return nil
}

// AddDependency appends a dependency to the item. Structural validation
// (existence of the target, acyclicity) is the resolver's job; only the
// trivial self reference is rejected here.
func (i *TimelineItem) AddDependency(dep Dependency) error {
	if dep.DependsOnID == i.ID {
		// Still representable by mutating Dependencies directly; the
		// resolver reports it as a one-element cycle.
		return ErrSelfDependency
	}
	i.Dependencies = append(i.Dependencies, dep)
	return nil
}
