package schedule

import (
	"time"

	"github.com/artpar/rollout/internal/core/timeline"
)

// =============================================================================
// Completion Estimation
// =============================================================================

// inProgressDurationCredit is the fraction of its duration an in-progress
// item counts as done when estimating completion. An arbitrary constant
// pending product confirmation, not a velocity model.
const inProgressDurationCredit = 0.5

// EstimateCompletionDate walks the critical path only: it sums total
// duration, credits completed items fully and in-progress items at half
// their duration, and adds the remaining days to now.
//
// Returns nil when there is nothing to estimate (empty critical path) or
// when the plan fails critical path analysis. Callers must treat nil as
// "cannot estimate", not as "zero days remaining".
func (r *Resolver) EstimateCompletionDate(now time.Time) *time.Time {
	result, err := r.CriticalPath()
	if err != nil || len(result.Path) == 0 {
		return nil
	}

	var total, done float64
	for _, id := range result.Path {
		item, ok := r.tl.FindItem(id)
		if !ok {
			return nil
		}
		duration := float64(result.Items[id].Duration)
		total += duration

		switch item.Base().Status {
		case timeline.StatusCompleted:
			done += duration
		case timeline.StatusInProgress:
			done += duration * inProgressDurationCredit
		}
	}

	remaining := total - done
	if remaining < 0 {
		remaining = 0
	}

	estimate := now.UTC().Add(time.Duration(remaining * 24 * float64(time.Hour)))
	return &estimate
}
