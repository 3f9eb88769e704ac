package convert

import "sort"

// graph is the temp-table dependency graph: key -> keys it depends on.
// Built fresh per conversion from the detected definitions.
type graph struct {
	defs  map[string]*TempTable
	roots []string // keys in order of first appearance
}

func newGraph(det *detection) *graph {
	return &graph{defs: det.defs, roots: det.order}
}

// dfs colors for cycle detection.
const (
	unvisited = iota
	inProgress
	done
)

// order produces the CTE definition order: every dependency precedes its
// dependents, and independent tables keep their order of first appearance.
//
// A depth-first pass with three-color marking rejects cycles; visiting an
// in-progress node means the traversal found its way back. After that,
// each table gets a level (0 for no dependencies, otherwise one more than
// its deepest dependency), levels are concatenated in increasing order,
// and ties within a level break by first appearance. Roots are visited in
// appearance order so the result is deterministic.
func (g *graph) order() ([]string, error) {
	color := make(map[string]int, len(g.defs))
	var stack []string

	var visit func(k string) *CycleError
	visit = func(k string) *CycleError {
		color[k] = inProgress
		stack = append(stack, k)
		for _, dep := range g.defs[k].Deps {
			switch color[dep] {
			case inProgress:
				return g.cycleFrom(stack, dep)
			case unvisited:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[k] = done
		return nil
	}

	for _, k := range g.roots {
		if color[k] == unvisited {
			if err := visit(k); err != nil {
				return nil, err
			}
		}
	}

	levels := make(map[string]int, len(g.defs))
	var levelOf func(k string) int
	levelOf = func(k string) int {
		if lvl, ok := levels[k]; ok {
			return lvl
		}
		lvl := 0
		for _, dep := range g.defs[k].Deps {
			if d := levelOf(dep) + 1; d > lvl {
				lvl = d
			}
		}
		levels[k] = lvl
		return lvl
	}
	for _, k := range g.roots {
		levelOf(k)
	}

	ordered := make([]string, len(g.roots))
	copy(ordered, g.roots)
	sort.SliceStable(ordered, func(i, j int) bool {
		li, lj := levels[ordered[i]], levels[ordered[j]]
		if li != lj {
			return li < lj
		}
		return g.defs[ordered[i]].Order < g.defs[ordered[j]].Order
	})
	return ordered, nil
}

// cycleFrom reconstructs the cycle path from the DFS stack, starting and
// ending at the revisited node, reported with original table names.
func (g *graph) cycleFrom(stack []string, start string) *CycleError {
	idx := 0
	for i, k := range stack {
		if k == start {
			idx = i
			break
		}
	}
	cycle := make([]string, 0, len(stack)-idx+1)
	for _, k := range stack[idx:] {
		cycle = append(cycle, g.defs[k].Name)
	}
	cycle = append(cycle, g.defs[start].Name)
	return &CycleError{Cycle: cycle}
}
