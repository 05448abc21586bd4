package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Status Transition Tests
// =============================================================================

func TestItemLifecycle_PendingToCompleted(t *testing.T) {
	stage := NewStage("canary", PriorityHigh)
	now := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, stage.Start(now))
	assert.Equal(t, StatusInProgress, stage.Status)
	require.NotNil(t, stage.ActualStartDate)
	assert.Equal(t, now, *stage.ActualStartDate)
	assert.Nil(t, stage.ActualEndDate)

	later := now.Add(48 * time.Hour)
	require.NoError(t, stage.Complete(later))
	assert.Equal(t, StatusCompleted, stage.Status)
	require.NotNil(t, stage.ActualEndDate)
	assert.Equal(t, later, *stage.ActualEndDate)
}

func TestItemLifecycle_CannotCompleteWithoutStarting(t *testing.T) {
	stage := NewStage("canary", PriorityHigh)
	err := stage.Complete(time.Now())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Nil(t, stage.ActualEndDate)
}

func TestItemLifecycle_TerminalStatesAreFinal(t *testing.T) {
	now := time.Now()

	stage := NewStage("canary", PriorityHigh)
	require.NoError(t, stage.Start(now))
	require.NoError(t, stage.Fail(now))

	assert.ErrorIs(t, stage.Start(now), ErrInvalidTransition)
	assert.ErrorIs(t, stage.Complete(now), ErrInvalidTransition)
	assert.ErrorIs(t, stage.Cancel(now), ErrInvalidTransition)
}

func TestItemLifecycle_BlockAndUnblock(t *testing.T) {
	now := time.Now()

	stage := NewStage("canary", PriorityMedium)
	require.NoError(t, stage.Block(now))
	assert.Equal(t, StatusWaiting, stage.Status)

	// Waiting items cannot start directly
	assert.ErrorIs(t, stage.Start(now), ErrInvalidTransition)

	require.NoError(t, stage.Unblock(now))
	assert.Equal(t, StatusPending, stage.Status)
	require.NoError(t, stage.Start(now))
}

func TestItemLifecycle_ActualEndDateOnlyWhenTerminal(t *testing.T) {
	now := time.Now()

	for _, finish := range []func(*TimelineItem) error{
		func(i *TimelineItem) error { return i.Complete(now) },
		func(i *TimelineItem) error { return i.Fail(now) },
	} {
		stage := NewStage("canary", PriorityLow)
		assert.Nil(t, stage.ActualEndDate)
		require.NoError(t, stage.Start(now))
		assert.Nil(t, stage.ActualEndDate)
		require.NoError(t, finish(&stage.TimelineItem))
		assert.True(t, stage.Status.IsTerminal())
		assert.NotNil(t, stage.ActualEndDate)
	}
}

func TestItemStatus_IsTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusWaiting.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
}

// =============================================================================
// Priority Tests
// =============================================================================

func TestPriority_RankOrdering(t *testing.T) {
	assert.Less(t, PriorityCritical.Rank(), PriorityHigh.Rank())
	assert.Less(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityLow.Rank())
	assert.Greater(t, Priority("bogus").Rank(), PriorityLow.Rank())
}

func TestPriority_Weights(t *testing.T) {
	assert.Equal(t, 4.0, PriorityCritical.Weight())
	assert.Equal(t, 3.0, PriorityHigh.Weight())
	assert.Equal(t, 2.0, PriorityMedium.Weight())
	assert.Equal(t, 1.0, PriorityLow.Weight())
	assert.Equal(t, 2.0, Priority("bogus").Weight())
}

// =============================================================================
// Dependency Tests
// =============================================================================

func TestDependencyType_BoundsFinish(t *testing.T) {
	assert.True(t, FinishToStart.BoundsFinish())
	assert.True(t, FinishToFinish.BoundsFinish())
	assert.False(t, StartToStart.BoundsFinish())
	assert.False(t, StartToFinish.BoundsFinish())
}

func TestAddDependency_RejectsSelfReference(t *testing.T) {
	stage := NewStage("canary", PriorityHigh)
	err := stage.AddDependency(Dependency{DependsOnID: stage.ID, Type: FinishToStart, IsBlocker: true})
	assert.ErrorIs(t, err, ErrSelfDependency)
	assert.Empty(t, stage.Dependencies)
}
