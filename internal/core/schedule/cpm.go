package schedule

import (
	"fmt"
	"sort"

	"github.com/artpar/rollout/internal/core/timeline"
)

// =============================================================================
// Critical Path
// =============================================================================

// CriticalPath performs the classic two-pass network analysis over the
// finish-bounding dependency subgraph: topological order, forward pass for
// earliest start/finish, backward pass for latest start/finish, then slack.
// The critical path is every item with zero slack, in topological order.
//
// A cycle in the restricted subgraph is a fatal input error (wrapped
// ErrRestrictedCycle); callers must run ValidateDependencies first as a
// precondition.
func (r *Resolver) CriticalPath() (*CriticalPathResult, error) {
	items := r.tl.Items()
	byID := make(map[string]timeline.Item, len(items))
	for _, item := range items {
		byID[item.Base().ID] = item
	}

	ids, preds := r.adjacency(true)

	// Reverse adjacency: predecessor -> dependents.
	dependents := make(map[string][]string, len(ids))
	for id, ps := range preds {
		for _, p := range ps {
			dependents[p] = append(dependents[p], id)
		}
	}
	for k := range dependents {
		sort.Strings(dependents[k])
	}

	// Typed reverse edges for the backward pass; a finish-to-finish edge
	// constrains the predecessor's finish against the dependent's finish,
	// not its start.
	type backEdge struct {
		dependent string
		ff        bool
		delay     int
	}
	backEdges := make(map[string][]backEdge, len(ids))
	for _, item := range items {
		base := item.Base()
		for _, dep := range base.Dependencies {
			if !dep.Type.BoundsFinish() {
				continue
			}
			if _, ok := byID[dep.DependsOnID]; !ok {
				continue
			}
			backEdges[dep.DependsOnID] = append(backEdges[dep.DependsOnID], backEdge{
				dependent: base.ID,
				ff:        dep.Type == timeline.FinishToFinish,
				delay:     dep.DelayDays,
			})
		}
	}

	order, err := topoSort(ids, preds, dependents)
	if err != nil {
		return nil, err
	}

	result := &CriticalPathResult{
		Items:     make(map[string]*ItemSchedule, len(order)),
		TopoOrder: order,
	}
	for _, id := range order {
		result.Items[id] = &ItemSchedule{
			ItemID:   id,
			Duration: byID[id].DurationDays(),
		}
	}

	// Forward pass: earliest start is bounded by each predecessor's
	// earliest finish, shifted by the dependency's delay. A finish-to-finish
	// edge bounds the finish, so the implied start bound is the predecessor
	// finish minus this item's own duration.
	for _, id := range order {
		sched := result.Items[id]
		es := 0
		for _, dep := range byID[id].Base().Dependencies {
			if !dep.Type.BoundsFinish() {
				continue
			}
			pred, ok := result.Items[dep.DependsOnID]
			if !ok {
				continue // dangling reference, reported by validation
			}
			bound := pred.EarliestFinish + dep.DelayDays
			if dep.Type == timeline.FinishToFinish {
				bound -= sched.Duration
			}
			if bound > es {
				es = bound
			}
		}
		sched.EarliestStart = es
		sched.EarliestFinish = es + sched.Duration
	}

	maxFinish := 0
	for _, sched := range result.Items {
		if sched.EarliestFinish > maxFinish {
			maxFinish = sched.EarliestFinish
		}
	}
	result.TotalDuration = maxFinish

	// Backward pass in reverse topological order. Terminal items (no
	// dependents) finish at the project end; everything else is bounded by
	// its dependents' latest start (finish-to-start) or latest finish
	// (finish-to-finish), shifted back by the edge delay.
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		sched := result.Items[id]

		lf := maxFinish
		for _, e := range backEdges[id] {
			dep := result.Items[e.dependent]
			bound := dep.LatestStart - e.delay
			if e.ff {
				bound = dep.LatestFinish - e.delay
			}
			if bound < lf {
				lf = bound
			}
		}
		sched.LatestFinish = lf
		sched.LatestStart = sched.LatestFinish - sched.Duration
		sched.Slack = sched.LatestStart - sched.EarliestStart
		sched.OnCriticalPath = sched.Slack == 0
	}

	for _, id := range order {
		if result.Items[id].OnCriticalPath {
			result.Path = append(result.Path, id)
		}
	}

	return result, nil
}

// topoSort performs Kahn's algorithm over the restricted subgraph.
// Roots are items with no predecessors; ties resolve in ID order for
// deterministic output.
func topoSort(ids []string, preds, dependents map[string][]string) ([]string, error) {
	remaining := make(map[string]int, len(ids))
	for _, id := range ids {
		remaining[id] = len(preds[id])
	}

	var queue []string
	for _, id := range ids {
		if remaining[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(ids))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		var ready []string
		for _, d := range dependents[node] {
			remaining[d]--
			if remaining[d] == 0 {
				ready = append(ready, d)
			}
		}
		sort.Strings(ready)
		queue = append(queue, ready...)
	}

	if len(order) != len(ids) {
		return nil, fmt.Errorf("%w: %d of %d items sorted", ErrRestrictedCycle, len(order), len(ids))
	}
	return order, nil
}
