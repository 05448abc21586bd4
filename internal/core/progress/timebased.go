package progress

import "github.com/artpar/rollout/internal/core/timeline"

// =============================================================================
// Time Based Strategy
// =============================================================================

// TimeBased scores by estimated hours: stage progress is the fraction of
// estimated hours completed (unestimated tasks count one hour each), and
// timeline progress is hours-completed over hours-total across all stages.
// When no stage carries any estimate, it falls back to EqualWeight.
type TimeBased struct{}

func (TimeBased) Name() string { return StrategyTimeBased }

func (TimeBased) StageProgress(s *timeline.Stage) int {
	if pct, done := stageBaseline(s); done {
		return pct
	}
	total, done := hourTotals(s)
	if total == 0 {
		return 0
	}
	return roundPercent(done / total)
}

func (tb TimeBased) TimelineProgress(t *timeline.Timeline) int {
	if t.Status == timeline.TimelineCompleted {
		return 100
	}

	var total, done float64
	for _, s := range t.Stages {
		st, sd := hourTotals(s)
		if s.Status == timeline.StatusCompleted {
			sd = st // a completed stage's hours all count, task flags or not
		}
		total += st
		done += sd
	}
	if total == 0 {
		return EqualWeight{}.TimelineProgress(t)
	}
	return roundPercent(done / total)
}
