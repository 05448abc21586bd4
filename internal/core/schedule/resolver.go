// Package schedule contains the dependency resolver for rollout timelines:
// cycle detection, critical path analysis, readiness queries and completion
// estimation. This is part of the Functional Core - every query recomputes
// from the current item graph, no derived state is cached.
package schedule

import (
	"errors"

	"github.com/artpar/rollout/internal/core/timeline"
)

// =============================================================================
// Resolver Errors
// =============================================================================

var (
	// ErrRestrictedCycle is returned when the finish-bounding subgraph used
	// for critical path computation contains a cycle. Callers must treat
	// this as a fatal input error and validate the plan first.
	ErrRestrictedCycle = errors.New("cycle in finish-bounding dependency graph")
)

// =============================================================================
// Resolver
// =============================================================================

// Resolver answers scheduling queries over a timeline's dependency graph.
// It never mutates the timeline; callers apply all structural edits before
// invoking it for a given read.
type Resolver struct {
	tl *timeline.Timeline
}

// NewResolver creates a resolver over the given timeline.
func NewResolver(tl *timeline.Timeline) *Resolver {
	return &Resolver{tl: tl}
}

// =============================================================================
// Result Types
// =============================================================================

// ItemSchedule holds the network-scheduling numbers for a single item.
type ItemSchedule struct {
	ItemID         string `json:"item_id"`
	Duration       int    `json:"duration_days"`
	EarliestStart  int    `json:"earliest_start"`
	EarliestFinish int    `json:"earliest_finish"`
	LatestStart    int    `json:"latest_start"`
	LatestFinish   int    `json:"latest_finish"`
	Slack          int    `json:"slack"`
	OnCriticalPath bool   `json:"on_critical_path"`
}

// CriticalPathResult holds the complete critical path analysis.
type CriticalPathResult struct {
	Items         map[string]*ItemSchedule `json:"items"`
	Path          []string                 `json:"path"` // critical item IDs in topological order
	TotalDuration int                      `json:"total_duration_days"`
	TopoOrder     []string                 `json:"-"`
}

// MissingDependency records a dependency pointing at an ID not present in
// the timeline.
type MissingDependency struct {
	ItemID      string `json:"item_id"`
	DependsOnID string `json:"depends_on_id"`
}

// ValidationReport is the structured result of ValidateDependencies.
// A plan with a cycle is never silently fixed; the exact cycle paths are
// reported so a human can break them.
type ValidationReport struct {
	Valid   bool                `json:"valid"`
	Cycles  [][]string          `json:"cycles,omitempty"`
	Missing []MissingDependency `json:"missing,omitempty"`
}
