// Package workers contains background workers for the rollout server.
package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/artpar/rollout/internal/core/notify"
	"github.com/artpar/rollout/internal/core/timeline"
	"github.com/artpar/rollout/internal/shell/store"
)

// DeadlineMonitorConfig configures the deadline monitor worker.
type DeadlineMonitorConfig struct {
	// Interval is the time between scan cycles.
	// Default: 60 seconds.
	Interval time.Duration
}

// DefaultDeadlineMonitorConfig returns the default configuration.
func DefaultDeadlineMonitorConfig() DeadlineMonitorConfig {
	return DeadlineMonitorConfig{
		Interval: 60 * time.Second,
	}
}

// DeadlineMonitor periodically scans active timelines for milestones whose
// target date has passed without being reached. Overdue milestones are
// marked missed and the milestone_missed trigger fires; a timeline whose
// items have all finished is marked completed and fires timeline_completed.
type DeadlineMonitor struct {
	store      store.Store
	dispatcher *notify.Dispatcher
	config     DeadlineMonitorConfig
	logger     *slog.Logger
	now        func() time.Time

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDeadlineMonitor creates a new deadline monitor worker.
func NewDeadlineMonitor(s store.Store, d *notify.Dispatcher, config DeadlineMonitorConfig, logger *slog.Logger) *DeadlineMonitor {
	if config.Interval == 0 {
		config.Interval = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DeadlineMonitor{
		store:      s,
		dispatcher: d,
		config:     config,
		logger:     logger.With("component", "deadline_monitor"),
		now:        time.Now,
	}
}

// Start begins the monitor background goroutine.
func (m *DeadlineMonitor) Start() {
	m.ctx, m.cancel = context.WithCancel(context.Background())

	m.wg.Add(1)
	go m.run()

	m.logger.Info("deadline monitor started", "interval", m.config.Interval)
}

// Stop gracefully stops the monitor. It waits for an in-progress scan to
// complete.
func (m *DeadlineMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
	m.logger.Info("deadline monitor stopped")
}

// run is the main loop that scans periodically.
func (m *DeadlineMonitor) run() {
	defer m.wg.Done()

	// Run immediately on start
	m.RunCycle(m.ctx)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.RunCycle(m.ctx)
		}
	}
}

// RunCycle executes a single scan over all active timelines. It is exported
// so hosts can force a scan outside the ticker.
func (m *DeadlineMonitor) RunCycle(ctx context.Context) {
	timelines, err := m.store.ListByStatus(ctx, timeline.TimelineActive, store.DefaultListOptions())
	if err != nil {
		m.logger.Error("failed to list active timelines", "error", err)
		return
	}
	if len(timelines) == 0 {
		m.logger.Debug("no active timelines to scan")
		return
	}

	for _, tl := range timelines {
		if ctx.Err() != nil {
			return
		}
		m.scanTimeline(ctx, tl)
	}
}

// scanTimeline processes a single timeline and saves it back if anything
// changed.
func (m *DeadlineMonitor) scanTimeline(ctx context.Context, tl *timeline.Timeline) {
	logger := m.logger.With("timeline_id", tl.ID)
	now := m.now()
	changed := false

	for _, ms := range tl.Milestones {
		if !overdue(ms, now) {
			continue
		}
		if err := ms.Miss(now); err != nil {
			logger.Warn("could not mark milestone missed",
				"milestone_id", ms.ID, "error", err)
			continue
		}
		changed = true
		logger.Info("milestone missed its target",
			"milestone_id", ms.ID,
			"target", ms.PlannedEndDate,
		)
		m.dispatcher.Dispatch(timeline.TriggerMilestoneMissed, ms, tl)
	}

	if allItemsFinished(tl) {
		tl.MarkCompleted()
		changed = true
		logger.Info("timeline completed")
		m.dispatcher.Dispatch(timeline.TriggerTimelineCompleted, nil, tl)
	}

	if !changed {
		return
	}
	if err := m.store.SaveTimeline(ctx, tl); err != nil {
		logger.Error("failed to save scanned timeline", "error", err)
	}
}

// overdue reports whether a milestone's target date has passed while the
// milestone is still open.
func overdue(ms *timeline.Milestone, now time.Time) bool {
	if ms.Status.IsTerminal() {
		return false
	}
	return ms.PlannedEndDate != nil && ms.PlannedEndDate.Before(now)
}

// allItemsFinished reports whether every item reached a terminal state. An
// empty timeline never counts as finished.
func allItemsFinished(tl *timeline.Timeline) bool {
	items := tl.Items()
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !item.Base().Status.IsTerminal() {
			return false
		}
	}
	return true
}
