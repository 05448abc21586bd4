package planfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/rollout/internal/core/timeline"
)

// =============================================================================
// Parse Tests
// =============================================================================

const validPlan = `
name: checkout rollout
description: new checkout flow
stages:
  - id: canary
    name: Canary
    priority: high
    owner: payments team
    planned_start: 2026-09-01
    planned_end: 2026-09-05
    tasks:
      - description: enable flag
        hours: 4
      - description: monitor dashboards
        hours: 8
  - id: ramp
    name: Full Ramp
    priority: critical
    depends_on:
      - id: canary
        delay_days: 1
milestones:
  - id: ga
    name: GA
    priority: critical
    target: 2026-09-20
    depends_on:
      - id: ramp
notifications:
  - trigger: milestone_reached
    channel: console
    template: "${item.name} reached in ${timeline.name}"
`

func TestParse_ValidPlan(t *testing.T) {
	tl, err := Parse([]byte(validPlan))
	require.NoError(t, err)

	assert.Equal(t, "checkout rollout", tl.Name)
	assert.Equal(t, "new checkout flow", tl.Description)
	require.Len(t, tl.Stages, 2)
	require.Len(t, tl.Milestones, 1)
	require.Len(t, tl.Notifications, 1)

	canary := tl.Stages[0]
	assert.Equal(t, "Canary", canary.Name)
	assert.Equal(t, timeline.PriorityHigh, canary.Priority)
	assert.Equal(t, "payments team", canary.Owner)
	require.NotNil(t, canary.PlannedStartDate)
	assert.Len(t, canary.Tasks, 2)

	ramp := tl.Stages[1]
	require.Len(t, ramp.Dependencies, 1)
	assert.Equal(t, canary.ID, ramp.Dependencies[0].DependsOnID)
	assert.Equal(t, timeline.FinishToStart, ramp.Dependencies[0].Type)
	assert.Equal(t, 1, ramp.Dependencies[0].DelayDays)
	assert.True(t, ramp.Dependencies[0].IsBlocker)

	ga := tl.Milestones[0]
	require.Len(t, ga.Dependencies, 1)
	assert.Equal(t, ramp.ID, ga.Dependencies[0].DependsOnID)
	require.NotNil(t, ga.PlannedEndDate)
}

func TestParse_BlockerDefaultsTrueAndCanBeDisabled(t *testing.T) {
	tl, err := Parse([]byte(`
name: plan
stages:
  - id: a
    name: A
  - id: b
    name: B
    depends_on:
      - id: a
        blocker: false
`))
	require.NoError(t, err)
	require.Len(t, tl.Stages[1].Dependencies, 1)
	assert.False(t, tl.Stages[1].Dependencies[0].IsBlocker)
}

func TestParse_DependencyTypes(t *testing.T) {
	tl, err := Parse([]byte(`
name: plan
stages:
  - id: a
    name: A
  - id: b
    name: B
    depends_on:
      - id: a
        type: start_to_start
`))
	require.NoError(t, err)
	assert.Equal(t, timeline.StartToStart, tl.Stages[1].Dependencies[0].Type)

	_, err = Parse([]byte(`
name: plan
stages:
  - id: a
    name: A
  - id: b
    name: B
    depends_on:
      - id: a
        type: sideways
`))
	assert.ErrorIs(t, err, ErrBadDependency)
}

// =============================================================================
// Rejection Tests
// =============================================================================

func TestParse_RejectsInvalidYAML(t *testing.T) {
	_, err := Parse([]byte("name: [unclosed"))
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestParse_RejectsMissingName(t *testing.T) {
	_, err := Parse([]byte("stages:\n  - name: A\n"))
	assert.ErrorIs(t, err, ErrMissingName)
}

func TestParse_RejectsEmptyPlan(t *testing.T) {
	_, err := Parse([]byte("name: empty\n"))
	assert.ErrorIs(t, err, ErrEmptyPlan)
}

func TestParse_RejectsDuplicatePlanIDs(t *testing.T) {
	_, err := Parse([]byte(`
name: plan
stages:
  - id: a
    name: A
  - id: a
    name: Also A
`))
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestParse_RejectsUnknownReference(t *testing.T) {
	_, err := Parse([]byte(`
name: plan
stages:
  - id: a
    name: A
    depends_on:
      - id: ghost
`))
	assert.ErrorIs(t, err, ErrUnknownRef)
}

func TestParse_RejectsBadDate(t *testing.T) {
	_, err := Parse([]byte(`
name: plan
stages:
  - id: a
    name: A
    planned_start: 09/01/2026
`))
	assert.ErrorIs(t, err, ErrBadDate)
}

func TestParse_RejectsDependencyCycle(t *testing.T) {
	_, err := Parse([]byte(`
name: plan
stages:
  - id: a
    name: A
    depends_on:
      - id: b
  - id: b
    name: B
    depends_on:
      - id: a
`))
	assert.ErrorIs(t, err, ErrInvalidPlan)
}

// =============================================================================
// Load Tests
// =============================================================================

func TestLoad_FromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validPlan), 0o644))

	tl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "checkout rollout", tl.Name)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
