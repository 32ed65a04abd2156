package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
)

// Analysis describes the dependency graph of a workflow without running it.
type Analysis struct {
	// Order is a topological order; ties break on insertion order.
	Order []string
	// Levels groups tasks that can run together.
	Levels [][]string
	// Missing maps a task to dependencies that name no task.
	Missing map[string][]string
	// Cycle holds the tasks of one dependency cycle, if any.
	Cycle []string
	// Unresolvable lists tasks that can never become ready, in insertion order.
	Unresolvable []string
}

// HasCycle reports whether the graph contains a cycle.
func (a *Analysis) HasCycle() bool {
	return len(a.Cycle) > 0
}

// OK reports whether every task can eventually run.
func (a *Analysis) OK() bool {
	return len(a.Unresolvable) == 0
}

// Err converts the analysis into a validation error, or nil.
func (a *Analysis) Err() error {
	if a.HasCycle() {
		return core.ErrValidation(core.CodeDAGCycle,
			fmt.Sprintf("dependency cycle: %s", strings.Join(append(append([]string(nil), a.Cycle...), a.Cycle[0]), " -> "))).
			WithDetail("cycle", a.Cycle)
	}
	if len(a.Missing) > 0 {
		tasks := make([]string, 0, len(a.Missing))
		for name := range a.Missing {
			tasks = append(tasks, name)
		}
		sort.Strings(tasks)
		parts := make([]string, 0, len(tasks))
		for _, name := range tasks {
			parts = append(parts, fmt.Sprintf("%s -> %s", name, strings.Join(a.Missing[name], ", ")))
		}
		return core.ErrValidation(core.CodeMissingDep,
			fmt.Sprintf("missing dependencies: %s", strings.Join(parts, "; "))).
			WithDetail("missing", a.Missing)
	}
	return nil
}

// Analyze computes the topological order, levels, missing dependencies and
// cycles of wf. Already terminal tasks are treated like any other task.
func Analyze(wf *core.Workflow) *Analysis {
	tasks := wf.Tasks()
	index := make(map[string]int, len(tasks))
	for i, t := range tasks {
		index[t.Name] = i
	}

	a := &Analysis{Missing: make(map[string][]string)}
	edges := make([][]int, len(tasks)) // task -> dependencies
	reverse := make([][]int, len(tasks))
	inDegree := make([]int, len(tasks))

	for i, t := range tasks {
		seen := make(map[string]bool)
		for _, dep := range t.Dependencies {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			j, ok := index[dep]
			if !ok {
				a.Missing[t.Name] = append(a.Missing[t.Name], dep)
				inDegree[i]++ // never satisfied
				continue
			}
			edges[i] = append(edges[i], j)
			reverse[j] = append(reverse[j], i)
			inDegree[i]++
		}
	}

	// Kahn's algorithm, level by level. Each level is kept in insertion order.
	level := make([]int, 0)
	for i := range tasks {
		if inDegree[i] == 0 {
			level = append(level, i)
		}
	}
	placed := make([]bool, len(tasks))
	for len(level) > 0 {
		names := make([]string, 0, len(level))
		nextLevel := make([]int, 0)
		for _, i := range level {
			placed[i] = true
			names = append(names, tasks[i].Name)
			for _, d := range reverse[i] {
				inDegree[d]--
				if inDegree[d] == 0 {
					nextLevel = append(nextLevel, d)
				}
			}
		}
		a.Order = append(a.Order, names...)
		a.Levels = append(a.Levels, names)
		sort.Ints(nextLevel)
		level = nextLevel
	}

	for i, t := range tasks {
		if !placed[i] {
			a.Unresolvable = append(a.Unresolvable, t.Name)
		}
	}
	if len(a.Missing) == 0 {
		a.Missing = nil
	}
	a.Cycle = findCycle(tasks, edges)
	return a
}

// findCycle returns the tasks of the first cycle found by a depth-first
// search in insertion order, or nil.
func findCycle(tasks []*core.Task, edges [][]int) []string {
	const (
		unvisited = iota
		inStack
		done
	)
	state := make([]int, len(tasks))
	stack := make([]int, 0)

	var dfs func(i int) []string
	dfs = func(i int) []string {
		state[i] = inStack
		stack = append(stack, i)
		for _, dep := range edges[i] {
			switch state[dep] {
			case unvisited:
				if c := dfs(dep); c != nil {
					return c
				}
			case inStack:
				start := 0
				for k, s := range stack {
					if s == dep {
						start = k
						break
					}
				}
				cycle := make([]string, 0, len(stack)-start)
				for _, s := range stack[start:] {
					cycle = append(cycle, tasks[s].Name)
				}
				return cycle
			}
		}
		stack = stack[:len(stack)-1]
		state[i] = done
		return nil
	}

	for i := range tasks {
		if state[i] == unvisited {
			if c := dfs(i); c != nil {
				return c
			}
		}
	}
	return nil
}
