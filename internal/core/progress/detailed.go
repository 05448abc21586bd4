package progress

import "github.com/artpar/rollout/internal/core/timeline"

// =============================================================================
// Detailed Progress View
// =============================================================================

// DetailedProgress is the externally consumed progress summary: overall
// percent, per-stage percents and per-milestone reached flags.
type DetailedProgress struct {
	Overall    int             `json:"overall"`
	Strategy   string          `json:"strategy"`
	Stages     map[string]int  `json:"stages"`
	Milestones map[string]bool `json:"milestones"`
}

// GetDetailedProgress computes the full progress summary for a timeline
// under the given strategy.
func GetDetailedProgress(t *timeline.Timeline, strat Strategy) DetailedProgress {
	detail := DetailedProgress{
		Overall:    strat.TimelineProgress(t),
		Strategy:   strat.Name(),
		Stages:     make(map[string]int, len(t.Stages)),
		Milestones: make(map[string]bool, len(t.Milestones)),
	}
	for _, s := range t.Stages {
		detail.Stages[s.ID] = strat.StageProgress(s)
	}
	for _, m := range t.Milestones {
		detail.Milestones[m.ID] = m.Reached()
	}
	return detail
}
