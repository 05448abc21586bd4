package api

// =============================================================================
// Request Types
// =============================================================================

// CreateTimelineRequest is the request body for creating a timeline.
type CreateTimelineRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// AddStageRequest is the request body for adding a stage.
type AddStageRequest struct {
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	Priority     string        `json:"priority,omitempty"`
	Owner        string        `json:"owner,omitempty"`
	PlannedStart string        `json:"planned_start,omitempty"` // YYYY-MM-DD
	PlannedEnd   string        `json:"planned_end,omitempty"`
	Tasks        []TaskRequest `json:"tasks,omitempty"`
}

// TaskRequest represents a task in a stage creation request.
type TaskRequest struct {
	Description    string  `json:"description"`
	EstimatedHours float64 `json:"estimated_hours,omitempty"`
}

// AddMilestoneRequest is the request body for adding a milestone.
type AddMilestoneRequest struct {
	Name     string `json:"name"`
	Priority string `json:"priority,omitempty"`
	Owner    string `json:"owner,omitempty"`
	Target   string `json:"target,omitempty"` // YYYY-MM-DD
}

// AddDependencyRequest is the request body for adding a dependency edge.
type AddDependencyRequest struct {
	ItemID      string `json:"item_id"`
	DependsOnID string `json:"depends_on_id"`
	Type        string `json:"type,omitempty"`
	DelayDays   int    `json:"delay_days,omitempty"`
	IsBlocker   *bool  `json:"is_blocker,omitempty"` // defaults to true
}

// DelayMilestoneRequest is the request body for replanning a milestone.
type DelayMilestoneRequest struct {
	Target string `json:"target"` // YYYY-MM-DD
}

// =============================================================================
// Response Types
// =============================================================================

// HealthResponse is the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// EstimateResponse carries the estimated completion date, null when the
// engine cannot estimate.
type EstimateResponse struct {
	EstimatedCompletion *string `json:"estimated_completion"`
}

// ItemSummary is the compact item representation used by readiness queries.
type ItemSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}
