// Package progress computes percent-complete for stages and timelines under
// pluggable scoring strategies. This is part of the Functional Core - all
// functions are pure with no I/O.
package progress

import (
	"errors"
	"fmt"
	"math"

	"github.com/artpar/rollout/internal/core/timeline"
)

// =============================================================================
// Strategy Interface
// =============================================================================

// ErrUnknownStrategy is returned when a strategy name is not recognized.
var ErrUnknownStrategy = errors.New("unknown progress strategy")

// Strategy scores completion for a single stage and for a whole timeline.
// All percentages are integers in [0, 100], rounded at the point of return
// so rounding error never compounds.
type Strategy interface {
	Name() string
	StageProgress(s *timeline.Stage) int
	TimelineProgress(t *timeline.Timeline) int
}

// Strategy names accepted by ForName.
const (
	StrategyEqualWeight   = "equal_weight"
	StrategyPriorityBased = "priority_based"
	StrategyTimeBased     = "time_based"
)

// ForName returns the strategy registered under name. An empty name selects
// the equal-weight default.
func ForName(name string) (Strategy, error) {
	switch name {
	case "", StrategyEqualWeight:
		return EqualWeight{}, nil
	case StrategyPriorityBased:
		return PriorityBased{}, nil
	case StrategyTimeBased:
		return TimeBased{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// =============================================================================
// Shared Stage Rule
// =============================================================================

// noTaskProgressGuess is the placeholder progress for an in-progress stage
// with no tasks; there is no finer signal to score against. An arbitrary
// constant pending product confirmation.
const noTaskProgressGuess = 50

// stageBaseline applies the status rules shared by every strategy. The
// second return value is false when the stage has tasks to score and the
// strategy must compute a ratio itself.
func stageBaseline(s *timeline.Stage) (int, bool) {
	switch s.Status {
	case timeline.StatusCompleted:
		return 100, true
	case timeline.StatusPending, timeline.StatusWaiting:
		return 0, true
	}
	if len(s.Tasks) == 0 {
		if s.Status == timeline.StatusInProgress {
			return noTaskProgressGuess, true
		}
		return 0, true
	}
	return 0, false
}

// roundPercent rounds a ratio in [0,1] to an integer percentage.
func roundPercent(ratio float64) int {
	if ratio < 0 {
		return 0
	}
	if ratio > 1 {
		return 100
	}
	return int(math.Round(ratio * 100))
}

// taskRatio is the fraction of a stage's tasks marked completed.
func taskRatio(s *timeline.Stage) float64 {
	if len(s.Tasks) == 0 {
		return 0
	}
	return float64(s.CompletedTaskCount()) / float64(len(s.Tasks))
}

// hourTotals sums estimated and completed hours for a stage, counting
// unestimated tasks at one hour each.
func hourTotals(s *timeline.Stage) (total, done float64) {
	for _, t := range s.Tasks {
		hours := t.EstimatedHours
		if hours <= 0 {
			hours = 1
		}
		total += hours
		if t.Completed {
			done += hours
		}
	}
	return total, done
}
