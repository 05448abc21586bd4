package schedule

import (
	"sort"
)

// =============================================================================
// Graph Construction
// =============================================================================

// adjacency builds the dependency adjacency list over all item IDs using
// every listed dependency's target ID. Edges run from an item to the items
// it depends on. When restricted is true, only finish-bounding edges
// (finish-to-start, finish-to-finish) are included.
//
// Edges pointing at IDs not present in the timeline are skipped here and
// surfaced by ValidateDependencies instead.
func (r *Resolver) adjacency(restricted bool) (ids []string, adj map[string][]string) {
	items := r.tl.Items()
	present := make(map[string]bool, len(items))
	for _, item := range items {
		present[item.Base().ID] = true
	}

	adj = make(map[string][]string, len(items))
	ids = make([]string, 0, len(items))
	for _, item := range items {
		base := item.Base()
		ids = append(ids, base.ID)
		for _, dep := range base.Dependencies {
			if restricted && !dep.Type.BoundsFinish() {
				continue
			}
			if !present[dep.DependsOnID] {
				continue
			}
			adj[base.ID] = append(adj[base.ID], dep.DependsOnID)
		}
	}

	// Sort for deterministic traversal order
	sort.Strings(ids)
	for k := range adj {
		sort.Strings(adj[k])
	}
	return ids, adj
}

// =============================================================================
// Cycle Detection
// =============================================================================

// FindCircularDependencies runs depth-first search over the full dependency
// graph maintaining a recursion stack. Whenever a neighbor is already on the
// stack, the suffix of the current path from that neighbor back to itself is
// recorded as a cycle. The first and last elements of each returned cycle
// are equal; an empty result means the graph is acyclic.
func (r *Resolver) FindCircularDependencies() [][]string {
	ids, adj := r.adjacency(false)

	var cycles [][]string
	visited := make(map[string]bool, len(ids))
	onStack := make(map[string]bool, len(ids))
	var path []string

	var dfs func(node string)
	dfs = func(node string) {
		visited[node] = true
		onStack[node] = true
		path = append(path, node)

		for _, next := range adj[node] {
			if onStack[next] {
				// Suffix of the path from next back to itself.
				start := 0
				for i, id := range path {
					if id == next {
						start = i
						break
					}
				}
				cycle := make([]string, 0, len(path)-start+1)
				cycle = append(cycle, path[start:]...)
				cycle = append(cycle, next)
				cycles = append(cycles, cycle)
				continue
			}
			if !visited[next] {
				dfs(next)
			}
		}

		path = path[:len(path)-1]
		onStack[node] = false
	}

	for _, id := range ids {
		if !visited[id] {
			dfs(id)
		}
	}
	return cycles
}

// =============================================================================
// Validation
// =============================================================================

// ValidateDependencies checks the timeline's dependency graph for cycles
// and dangling references. It never fails: the result is a structured
// report callers can render directly. This is the single gate that must
// pass before critical path output is trusted.
func (r *Resolver) ValidateDependencies() ValidationReport {
	report := ValidationReport{
		Cycles: r.FindCircularDependencies(),
	}

	present := make(map[string]bool)
	for _, item := range r.tl.Items() {
		present[item.Base().ID] = true
	}
	for _, item := range r.tl.Items() {
		base := item.Base()
		for _, dep := range base.Dependencies {
			if !present[dep.DependsOnID] {
				report.Missing = append(report.Missing, MissingDependency{
					ItemID:      base.ID,
					DependsOnID: dep.DependsOnID,
				})
			}
		}
	}

	report.Valid = len(report.Cycles) == 0 && len(report.Missing) == 0
	return report
}
