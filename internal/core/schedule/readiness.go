package schedule

import (
	"sort"

	"github.com/artpar/rollout/internal/core/timeline"
)

// =============================================================================
// Readiness Queries
// =============================================================================

// DefaultNextItemLimit caps NextItems when the caller passes no limit.
const DefaultNextItemLimit = 5

// ItemsReadyToStart returns every strictly pending item whose blocking
// dependencies are all satisfied. Waiting and paused items are excluded;
// they must be unblocked back to pending first.
func (r *Resolver) ItemsReadyToStart() []timeline.Item {
	var ready []timeline.Item
	for _, item := range r.tl.Items() {
		base := item.Base()
		if base.Status != timeline.StatusPending {
			continue
		}
		if r.tl.CanItemStart(base.ID) {
			ready = append(ready, item)
		}
	}
	return ready
}

// NextItems ranks ready items and returns at most limit of them. The order
// is priority first (critical before low), then critical-path membership,
// then earlier planned start date. Full ties preserve timeline order
// (stable sort contract).
//
// Critical-path membership is ignored when the plan fails critical path
// analysis; ranking then falls back to priority and planned dates.
func (r *Resolver) NextItems(limit int) []timeline.Item {
	if limit <= 0 {
		limit = DefaultNextItemLimit
	}

	ready := r.ItemsReadyToStart()

	onPath := make(map[string]bool)
	if result, err := r.CriticalPath(); err == nil {
		for _, id := range result.Path {
			onPath[id] = true
		}
	}

	sort.SliceStable(ready, func(a, b int) bool {
		ba, bb := ready[a].Base(), ready[b].Base()

		if ra, rb := ba.Priority.Rank(), bb.Priority.Rank(); ra != rb {
			return ra < rb
		}
		if onPath[ba.ID] != onPath[bb.ID] {
			return onPath[ba.ID]
		}
		return plannedStartBefore(ba, bb)
	})

	if len(ready) > limit {
		ready = ready[:limit]
	}
	return ready
}

// plannedStartBefore orders items by planned start date, unplanned last.
func plannedStartBefore(a, b *timeline.TimelineItem) bool {
	switch {
	case a.PlannedStartDate == nil:
		return false
	case b.PlannedStartDate == nil:
		return true
	default:
		return a.PlannedStartDate.Before(*b.PlannedStartDate)
	}
}

// ItemsUnblockedBy returns every not-yet-started dependent of id whose other
// blocking dependencies are already satisfied, i.e. completing id would make
// them immediately ready.
func (r *Resolver) ItemsUnblockedBy(id string) []timeline.Item {
	var unblocked []timeline.Item
	for _, item := range r.tl.Items() {
		base := item.Base()
		if base.ID == id {
			continue
		}
		if base.Status != timeline.StatusPending && base.Status != timeline.StatusWaiting {
			continue
		}

		dependsOnID := false
		othersSatisfied := true
		for _, dep := range base.Dependencies {
			if !dep.IsBlocker {
				continue
			}
			if dep.DependsOnID == id {
				dependsOnID = true
				continue
			}
			pred, ok := r.tl.FindItem(dep.DependsOnID)
			if !ok || pred.Base().Status != timeline.StatusCompleted {
				if ok && dep.Type == timeline.StartToStart && pred.Base().Status == timeline.StatusInProgress {
					continue
				}
				othersSatisfied = false
				break
			}
		}

		if dependsOnID && othersSatisfied {
			unblocked = append(unblocked, item)
		}
	}
	return unblocked
}
