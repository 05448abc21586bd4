// Package planfile loads declarative rollout plans from YAML files and
// turns them into timeline aggregates.
package planfile

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/artpar/rollout/internal/core/schedule"
	"github.com/artpar/rollout/internal/core/timeline"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrEmptyPlan     = errors.New("plan has no stages or milestones")
	ErrMissingName   = errors.New("plan name is required")
	ErrDuplicateID   = errors.New("duplicate item id in plan")
	ErrUnknownRef    = errors.New("dependency references unknown item id")
	ErrInvalidPlan   = errors.New("plan failed dependency validation")
	ErrBadDate       = errors.New("invalid date, expected YYYY-MM-DD")
	ErrBadDependency = errors.New("invalid dependency type")
	ErrInvalidYAML   = errors.New("plan is not valid YAML")
)

// =============================================================================
// Plan File Types
// =============================================================================

// Plan is the YAML shape of a rollout plan file.
type Plan struct {
	Name          string            `yaml:"name"`
	Description   string            `yaml:"description"`
	Stages        []StageDef        `yaml:"stages"`
	Milestones    []MilestoneDef    `yaml:"milestones"`
	Notifications []NotificationDef `yaml:"notifications"`
}

// StageDef declares one stage.
type StageDef struct {
	ID           string          `yaml:"id"`
	Name         string          `yaml:"name"`
	Description  string          `yaml:"description"`
	Priority     string          `yaml:"priority"`
	Owner        string          `yaml:"owner"`
	PlannedStart string          `yaml:"planned_start"`
	PlannedEnd   string          `yaml:"planned_end"`
	Tasks        []TaskDef       `yaml:"tasks"`
	DependsOn    []DependencyDef `yaml:"depends_on"`
}

// MilestoneDef declares one milestone.
type MilestoneDef struct {
	ID        string          `yaml:"id"`
	Name      string          `yaml:"name"`
	Priority  string          `yaml:"priority"`
	Owner     string          `yaml:"owner"`
	Target    string          `yaml:"target"`
	DependsOn []DependencyDef `yaml:"depends_on"`
}

// TaskDef declares one task inside a stage.
type TaskDef struct {
	Description string  `yaml:"description"`
	Hours       float64 `yaml:"hours"`
}

// DependencyDef declares one dependency edge.
type DependencyDef struct {
	ID        string `yaml:"id"`
	Type      string `yaml:"type"`
	DelayDays int    `yaml:"delay_days"`
	Blocker   *bool  `yaml:"blocker"` // defaults to true
}

// NotificationDef declares one notification subscription.
type NotificationDef struct {
	Trigger    string   `yaml:"trigger"`
	Channel    string   `yaml:"channel"`
	Template   string   `yaml:"template"`
	Recipients []string `yaml:"recipients"`
}

// =============================================================================
// Loading
// =============================================================================

// Load reads and parses a plan file from disk.
func Load(path string) (*timeline.Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}
	return Parse(data)
}

// Parse builds a validated timeline from plan YAML. Dependency cycles and
// dangling references fail the parse; the wrapped error carries the first
// offending cycle so the plan author can break it.
func Parse(data []byte) (*timeline.Timeline, error) {
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return plan.Build()
}

// Build converts the plan into a timeline aggregate and validates it.
func (p *Plan) Build() (*timeline.Timeline, error) {
	if p.Name == "" {
		return nil, ErrMissingName
	}
	if len(p.Stages) == 0 && len(p.Milestones) == 0 {
		return nil, ErrEmptyPlan
	}

	tl := timeline.NewTimeline(p.Name)
	tl.Description = p.Description

	// Plan-local ids (the yaml `id` field) map to generated item ids so
	// dependency declarations stay readable.
	idMap := make(map[string]string)

	for _, def := range p.Stages {
		stage := timeline.NewStage(def.Name, parsePriority(def.Priority))
		stage.Description = def.Description
		stage.Owner = def.Owner

		start, err := parseDate(def.PlannedStart)
		if err != nil {
			return nil, fmt.Errorf("stage %q planned_start: %w", def.Name, err)
		}
		end, err := parseDate(def.PlannedEnd)
		if err != nil {
			return nil, fmt.Errorf("stage %q planned_end: %w", def.Name, err)
		}
		stage.PlannedStartDate = start
		stage.PlannedEndDate = end

		for _, taskDef := range def.Tasks {
			stage.AddTask(taskDef.Description, taskDef.Hours)
		}

		if err := registerID(idMap, def.ID, stage.ID); err != nil {
			return nil, err
		}
		if err := tl.AddStage(stage); err != nil {
			return nil, err
		}
	}

	for _, def := range p.Milestones {
		target, err := parseDate(def.Target)
		if err != nil {
			return nil, fmt.Errorf("milestone %q target: %w", def.Name, err)
		}
		ms := timeline.NewMilestone(def.Name, parsePriority(def.Priority), target)
		ms.Owner = def.Owner

		if err := registerID(idMap, def.ID, ms.ID); err != nil {
			return nil, err
		}
		if err := tl.AddMilestone(ms); err != nil {
			return nil, err
		}
	}

	// Dependencies wire up after every item exists.
	for _, def := range p.Stages {
		if err := addDependencies(tl, idMap, def.ID, def.Name, def.DependsOn); err != nil {
			return nil, err
		}
	}
	for _, def := range p.Milestones {
		if err := addDependencies(tl, idMap, def.ID, def.Name, def.DependsOn); err != nil {
			return nil, err
		}
	}

	for _, def := range p.Notifications {
		tl.AddNotification(timeline.NotificationConfig{
			Trigger:    timeline.Trigger(def.Trigger),
			Channel:    def.Channel,
			Template:   def.Template,
			Recipients: def.Recipients,
		})
	}

	report := schedule.NewResolver(tl).ValidateDependencies()
	if !report.Valid {
		if len(report.Cycles) > 0 {
			return nil, fmt.Errorf("%w: cycle %v", ErrInvalidPlan, report.Cycles[0])
		}
		return nil, fmt.Errorf("%w: missing reference %s -> %s",
			ErrInvalidPlan, report.Missing[0].ItemID, report.Missing[0].DependsOnID)
	}

	return tl, nil
}

// =============================================================================
// Helpers
// =============================================================================

func registerID(idMap map[string]string, planID, itemID string) error {
	if planID == "" {
		return nil
	}
	if _, exists := idMap[planID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateID, planID)
	}
	idMap[planID] = itemID
	return nil
}

func addDependencies(tl *timeline.Timeline, idMap map[string]string, planID, name string, deps []DependencyDef) error {
	if len(deps) == 0 {
		return nil
	}
	itemID, ok := idMap[planID]
	if !ok {
		// Items without a plan id cannot be referenced, but can still
		// declare dependencies; resolve their generated id by name.
		for _, item := range tl.Items() {
			if item.Base().Name == name {
				itemID = item.Base().ID
				break
			}
		}
	}

	for _, def := range deps {
		targetID, ok := idMap[def.ID]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownRef, def.ID)
		}
		depType, err := parseDependencyType(def.Type)
		if err != nil {
			return err
		}
		blocker := true
		if def.Blocker != nil {
			blocker = *def.Blocker
		}
		if err := tl.AddDependency(itemID, timeline.Dependency{
			DependsOnID: targetID,
			Type:        depType,
			DelayDays:   def.DelayDays,
			IsBlocker:   blocker,
		}); err != nil {
			return err
		}
	}
	return nil
}

func parsePriority(s string) timeline.Priority {
	switch s {
	case "critical":
		return timeline.PriorityCritical
	case "high":
		return timeline.PriorityHigh
	case "low":
		return timeline.PriorityLow
	default:
		return timeline.PriorityMedium
	}
}

func parseDependencyType(s string) (timeline.DependencyType, error) {
	switch s {
	case "", "finish_to_start":
		return timeline.FinishToStart, nil
	case "start_to_start":
		return timeline.StartToStart, nil
	case "finish_to_finish":
		return timeline.FinishToFinish, nil
	case "start_to_finish":
		return timeline.StartToFinish, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBadDependency, s)
	}
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	utc := t.UTC()
	return &utc, nil
}
