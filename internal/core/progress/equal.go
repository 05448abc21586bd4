package progress

import "github.com/artpar/rollout/internal/core/timeline"

// =============================================================================
// Equal Weight Strategy
// =============================================================================

// EqualWeight scores every stage the same: stage progress is the fraction
// of completed tasks, timeline progress is the plain mean across stages.
type EqualWeight struct{}

func (EqualWeight) Name() string { return StrategyEqualWeight }

func (EqualWeight) StageProgress(s *timeline.Stage) int {
	if pct, done := stageBaseline(s); done {
		return pct
	}
	return roundPercent(taskRatio(s))
}

func (e EqualWeight) TimelineProgress(t *timeline.Timeline) int {
	if t.Status == timeline.TimelineCompleted {
		return 100
	}
	if len(t.Stages) == 0 {
		return 0
	}

	var sum float64
	for _, s := range t.Stages {
		sum += stageRatio(e, s)
	}
	return roundPercent(sum / float64(len(t.Stages)))
}

// stageRatio is the unrounded stage completion fraction under a strategy's
// stage rule. Timeline-level math accumulates these so rounding only
// happens once at the end.
func stageRatio(strat Strategy, s *timeline.Stage) float64 {
	if pct, done := stageBaseline(s); done {
		return float64(pct) / 100
	}
	switch strat.(type) {
	case TimeBased:
		total, done := hourTotals(s)
		if total == 0 {
			return 0
		}
		return done / total
	default:
		return taskRatio(s)
	}
}
