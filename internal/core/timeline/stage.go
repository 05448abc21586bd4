package timeline

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Task
// =============================================================================

// Task is a unit of work inside a stage.
type Task struct {
	ID             string  `json:"id"`
	Description    string  `json:"description"`
	Completed      bool    `json:"completed"`
	EstimatedHours float64 `json:"estimated_hours,omitempty"`
}

// =============================================================================
// Resource / Metric
// =============================================================================

// Resource is a link or asset attached to a stage (runbook, dashboard, doc).
type Resource struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Metric is a success metric tracked for a stage.
type Metric struct {
	Name    string  `json:"name"`
	Target  float64 `json:"target,omitempty"`
	Current float64 `json:"current,omitempty"`
	Unit    string  `json:"unit,omitempty"`
}

// =============================================================================
// Stage
// =============================================================================

// workHoursPerDay converts task estimates into scheduling days.
const workHoursPerDay = 8

// Stage is a phase of the rollout that owns concrete tasks.
type Stage struct {
	TimelineItem

	Tasks        []Task          `json:"tasks,omitempty"`
	Resources    []Resource      `json:"resources,omitempty"`
	Metrics      []Metric        `json:"metrics,omitempty"`
	FeatureFlags map[string]bool `json:"feature_flags,omitempty"`
	ABTestIDs    []string        `json:"ab_test_ids,omitempty"`
}

// NewStage creates a new pending stage.
func NewStage(name string, priority Priority) *Stage {
	now := time.Now().UTC()
	return &Stage{
		TimelineItem: TimelineItem{
			ID:        "stg_" + uuid.New().String()[:8],
			Name:      name,
			Status:    StatusPending,
			Priority:  priority,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// DurationDays returns the stage's scheduling duration in days.
//
// Planned dates win when both are set; otherwise the duration is derived
// from task estimates at 8 hours per day, minimum 1 day when any tasks
// exist, 0 when the stage is empty.
func (s *Stage) DurationDays() int {
	if s.PlannedStartDate != nil && s.PlannedEndDate != nil {
		days := int(s.PlannedEndDate.Sub(*s.PlannedStartDate).Hours() / 24)
		if days < 0 {
			return 0
		}
		return days
	}

	if len(s.Tasks) == 0 {
		return 0
	}

	var hours float64
	for _, t := range s.Tasks {
		hours += t.EstimatedHours
	}
	days := int(math.Ceil(hours / workHoursPerDay))
	if days < 1 {
		days = 1
	}
	return days
}

// AddTask appends a task to the stage and returns it.
func (s *Stage) AddTask(description string, estimatedHours float64) *Task {
	task := Task{
		ID:             "task_" + uuid.New().String()[:8],
		Description:    description,
		EstimatedHours: estimatedHours,
	}
	s.Tasks = append(s.Tasks, task)
	s.UpdatedAt = time.Now().UTC()
	return &s.Tasks[len(s.Tasks)-1]
}

// CompleteTask marks the task with the given ID as completed.
func (s *Stage) CompleteTask(taskID string) error {
	for i := range s.Tasks {
		if s.Tasks[i].ID == taskID {
			s.Tasks[i].Completed = true
			s.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrItemNotFound
}

// CompletedTaskCount returns the number of completed tasks.
func (s *Stage) CompletedTaskCount() int {
	n := 0
	for _, t := range s.Tasks {
		if t.Completed {
			n++
		}
	}
	return n
}
