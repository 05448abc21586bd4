package progress

import "github.com/artpar/rollout/internal/core/timeline"

// =============================================================================
// Priority Based Strategy
// =============================================================================

// PriorityBased scores stages like EqualWeight but weights the timeline
// mean by a fixed priority→weight map (critical:4, high:3, medium:2, low:1).
type PriorityBased struct{}

func (PriorityBased) Name() string { return StrategyPriorityBased }

func (PriorityBased) StageProgress(s *timeline.Stage) int {
	if pct, done := stageBaseline(s); done {
		return pct
	}
	return roundPercent(taskRatio(s))
}

func (p PriorityBased) TimelineProgress(t *timeline.Timeline) int {
	if t.Status == timeline.TimelineCompleted {
		return 100
	}
	if len(t.Stages) == 0 {
		return 0
	}

	var weighted, totalWeight float64
	for _, s := range t.Stages {
		w := s.Priority.Weight()
		weighted += stageRatio(p, s) * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return roundPercent(weighted / totalWeight)
}
