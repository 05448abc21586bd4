package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/rollout/internal/core/timeline"
)

// =============================================================================
// Test Fixtures
// =============================================================================

// startedStage builds an in-progress stage with completed of total tasks
// done, each estimated at hoursEach.
func startedStage(t *testing.T, name string, total, completed int, hoursEach float64) *timeline.Stage {
	t.Helper()
	stage := timeline.NewStage(name, timeline.PriorityMedium)
	require.NoError(t, stage.Start(time.Now()))
	for i := 0; i < total; i++ {
		task := stage.AddTask("task", hoursEach)
		if i < completed {
			require.NoError(t, stage.CompleteTask(task.ID))
		}
	}
	return stage
}

func completedStage(t *testing.T, name string) *timeline.Stage {
	t.Helper()
	stage := timeline.NewStage(name, timeline.PriorityMedium)
	now := time.Now()
	require.NoError(t, stage.Start(now))
	require.NoError(t, stage.Complete(now))
	return stage
}

// =============================================================================
// Strategy Lookup Tests
// =============================================================================

func TestForName(t *testing.T) {
	for name, want := range map[string]string{
		"":                    StrategyEqualWeight,
		StrategyEqualWeight:   StrategyEqualWeight,
		StrategyPriorityBased: StrategyPriorityBased,
		StrategyTimeBased:     StrategyTimeBased,
	} {
		strat, err := ForName(name)
		require.NoError(t, err, "name %q", name)
		assert.Equal(t, want, strat.Name())
	}

	_, err := ForName("velocity")
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

// =============================================================================
// Stage Progress Tests
// =============================================================================

func TestStageProgress_StatusRules(t *testing.T) {
	pending := timeline.NewStage("pending", timeline.PriorityMedium)
	assert.Equal(t, 0, EqualWeight{}.StageProgress(pending))

	inProgressNoTasks := timeline.NewStage("busy", timeline.PriorityMedium)
	require.NoError(t, inProgressNoTasks.Start(time.Now()))
	assert.Equal(t, 50, EqualWeight{}.StageProgress(inProgressNoTasks))

	done := completedStage(t, "done")
	assert.Equal(t, 100, EqualWeight{}.StageProgress(done))

	// Completed wins even when tasks remain unchecked.
	done.AddTask("forgotten", 2)
	assert.Equal(t, 100, EqualWeight{}.StageProgress(done))
}

func TestStageProgress_TaskFraction(t *testing.T) {
	stage := startedStage(t, "ramp", 3, 1, 4)
	assert.Equal(t, 33, EqualWeight{}.StageProgress(stage))
	assert.Equal(t, 33, PriorityBased{}.StageProgress(stage))
}

func TestStageProgress_TimeBasedUsesHours(t *testing.T) {
	stage := timeline.NewStage("ramp", timeline.PriorityMedium)
	require.NoError(t, stage.Start(time.Now()))
	big := stage.AddTask("migration", 9)
	stage.AddTask("announcement", 1)
	require.NoError(t, stage.CompleteTask(big.ID))

	assert.Equal(t, 90, TimeBased{}.StageProgress(stage))
	assert.Equal(t, 50, EqualWeight{}.StageProgress(stage))
}

func TestStageProgress_UnestimatedTasksCountOneHour(t *testing.T) {
	stage := timeline.NewStage("ramp", timeline.PriorityMedium)
	require.NoError(t, stage.Start(time.Now()))
	est := stage.AddTask("estimated", 3)
	stage.AddTask("unestimated", 0)
	require.NoError(t, stage.CompleteTask(est.ID))

	assert.Equal(t, 75, TimeBased{}.StageProgress(stage))
}

// =============================================================================
// Timeline Progress Tests
// =============================================================================

func TestTimelineProgress_EqualWeightMean(t *testing.T) {
	tl := timeline.NewTimeline("plan")
	require.NoError(t, tl.AddStage(completedStage(t, "done")))
	require.NoError(t, tl.AddStage(startedStage(t, "half", 2, 1, 1)))
	require.NoError(t, tl.AddStage(timeline.NewStage("pending", timeline.PriorityMedium)))

	// (1.0 + 0.5 + 0.0) / 3 = 50%
	assert.Equal(t, 50, EqualWeight{}.TimelineProgress(tl))
}

func TestTimelineProgress_PriorityWeighting(t *testing.T) {
	tl := timeline.NewTimeline("plan")
	crit := completedStage(t, "crit")
	crit.Priority = timeline.PriorityCritical
	low := timeline.NewStage("low", timeline.PriorityLow)
	require.NoError(t, tl.AddStage(crit))
	require.NoError(t, tl.AddStage(low))

	// (1.0*4 + 0.0*1) / 5 = 80%, versus a plain mean of 50%.
	assert.Equal(t, 80, PriorityBased{}.TimelineProgress(tl))
	assert.Equal(t, 50, EqualWeight{}.TimelineProgress(tl))
}

func TestTimelineProgress_TimeBasedHours(t *testing.T) {
	tl := timeline.NewTimeline("plan")
	done := completedStage(t, "done")
	done.AddTask("shipped", 6)
	require.NoError(t, tl.AddStage(done))
	require.NoError(t, tl.AddStage(startedStage(t, "half", 2, 1, 1)))

	// done counts all 6 hours despite the unchecked task flag;
	// (6 + 1) / (6 + 2) = 87.5 → 88.
	assert.Equal(t, 88, TimeBased{}.TimelineProgress(tl))
}

func TestTimelineProgress_TimeBasedFallsBackWithoutEstimates(t *testing.T) {
	tl := timeline.NewTimeline("plan")
	stage := timeline.NewStage("no tasks", timeline.PriorityMedium)
	require.NoError(t, stage.Start(time.Now()))
	require.NoError(t, tl.AddStage(stage))

	assert.Equal(t, EqualWeight{}.TimelineProgress(tl), TimeBased{}.TimelineProgress(tl))
	assert.Equal(t, 50, TimeBased{}.TimelineProgress(tl))
}

func TestTimelineProgress_CompletedTimelineIsFull(t *testing.T) {
	tl := timeline.NewTimeline("plan")
	require.NoError(t, tl.AddStage(timeline.NewStage("pending", timeline.PriorityMedium)))
	tl.Activate()
	tl.MarkCompleted()

	assert.Equal(t, 100, EqualWeight{}.TimelineProgress(tl))
	assert.Equal(t, 100, PriorityBased{}.TimelineProgress(tl))
	assert.Equal(t, 100, TimeBased{}.TimelineProgress(tl))
}

func TestTimelineProgress_EmptyTimeline(t *testing.T) {
	tl := timeline.NewTimeline("plan")
	assert.Equal(t, 0, EqualWeight{}.TimelineProgress(tl))
	assert.Equal(t, 0, PriorityBased{}.TimelineProgress(tl))
	assert.Equal(t, 0, TimeBased{}.TimelineProgress(tl))
}

func TestTimelineProgress_MonotonicAsTasksComplete(t *testing.T) {
	for _, strat := range []Strategy{EqualWeight{}, PriorityBased{}, TimeBased{}} {
		tl := timeline.NewTimeline("plan")
		stage := timeline.NewStage("ramp", timeline.PriorityHigh)
		require.NoError(t, stage.Start(time.Now()))
		var tasks []*timeline.Task
		for i := 0; i < 4; i++ {
			tasks = append(tasks, stage.AddTask("task", float64(i+1)))
		}
		require.NoError(t, tl.AddStage(stage))

		prev := strat.TimelineProgress(tl)
		for _, task := range tasks {
			require.NoError(t, stage.CompleteTask(task.ID))
			cur := strat.TimelineProgress(tl)
			assert.GreaterOrEqual(t, cur, prev, "strategy %s", strat.Name())
			prev = cur
		}
	}
}

// =============================================================================
// Detailed View Tests
// =============================================================================

func TestGetDetailedProgress(t *testing.T) {
	tl := timeline.NewTimeline("plan")
	done := completedStage(t, "done")
	half := startedStage(t, "half", 2, 1, 1)
	require.NoError(t, tl.AddStage(done))
	require.NoError(t, tl.AddStage(half))

	reached := timeline.NewMilestone("beta", timeline.PriorityHigh, nil)
	require.NoError(t, reached.Reach(time.Now()))
	pending := timeline.NewMilestone("GA", timeline.PriorityCritical, nil)
	require.NoError(t, tl.AddMilestone(reached))
	require.NoError(t, tl.AddMilestone(pending))

	detail := GetDetailedProgress(tl, EqualWeight{})
	assert.Equal(t, 75, detail.Overall)
	assert.Equal(t, StrategyEqualWeight, detail.Strategy)
	assert.Equal(t, map[string]int{done.ID: 100, half.ID: 50}, detail.Stages)
	assert.Equal(t, map[string]bool{reached.ID: true, pending.ID: false}, detail.Milestones)
}
