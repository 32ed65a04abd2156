package engine

import (
	"container/heap"
	"sort"

	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
)

// scheduler hands out ready tasks using dependency counts instead of
// rescanning the whole task table.
//
// Ordering matches a repeated scan over the tasks in insertion order: a
// task that becomes ready at a position after the last task run in the
// current pass runs in that same pass, one that becomes ready behind it
// waits for the next pass.
type scheduler struct {
	tasks      []*core.Task
	index      map[string]int
	waiting    []int   // unresolved dependencies per task
	dependents [][]int // task -> tasks that depend on it
	resolved   []bool
	queued     []bool
	nResolved  int

	current indexHeap // ready at a position after cursor
	later   indexHeap // ready behind cursor, picked up next pass
	cursor  int
}

func newScheduler(tasks []*core.Task) *scheduler {
	n := len(tasks)
	s := &scheduler{
		tasks:      tasks,
		index:      make(map[string]int, n),
		waiting:    make([]int, n),
		dependents: make([][]int, n),
		resolved:   make([]bool, n),
		queued:     make([]bool, n),
		cursor:     -1,
	}
	for i, t := range tasks {
		s.index[t.Name] = i
	}

	for i, t := range tasks {
		seen := make(map[string]bool, len(t.Dependencies))
		for _, dep := range t.Dependencies {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			s.waiting[i]++
			// Unknown names are never decremented, so the task stays
			// unresolved and surfaces in the deadlock error.
			if j, ok := s.index[dep]; ok {
				s.dependents[j] = append(s.dependents[j], i)
			}
		}
	}

	// Tasks already terminal before the run count as resolved.
	for i, t := range tasks {
		if t.IsTerminal() {
			s.markResolved(i)
		}
	}
	for i := range tasks {
		s.enqueueIfReady(i)
	}
	return s
}

// done reports whether every task is resolved.
func (s *scheduler) done() bool {
	return s.nResolved == len(s.tasks)
}

// next returns the index of the next task to run. ok is false when no task
// is ready.
func (s *scheduler) next() (int, bool) {
	if s.current.Len() == 0 {
		if s.later.Len() == 0 {
			return -1, false
		}
		s.current, s.later = s.later, s.current
		s.cursor = -1
	}
	i := heap.Pop(&s.current).(int)
	s.cursor = i
	return i, true
}

// wave drains every ready task, in insertion order.
func (s *scheduler) wave() []int {
	ready := make([]int, 0, s.current.Len()+s.later.Len())
	for s.current.Len() > 0 {
		ready = append(ready, heap.Pop(&s.current).(int))
	}
	for s.later.Len() > 0 {
		ready = append(ready, heap.Pop(&s.later).(int))
	}
	sort.Ints(ready)
	s.cursor = -1
	return ready
}

// resolve records task i as resolved and queues dependents that became ready.
func (s *scheduler) resolve(i int) {
	if s.resolved[i] {
		return
	}
	s.markResolved(i)
	for _, d := range s.dependents[i] {
		s.enqueueIfReady(d)
	}
}

func (s *scheduler) markResolved(i int) {
	if s.resolved[i] {
		return
	}
	s.resolved[i] = true
	s.nResolved++
	for _, d := range s.dependents[i] {
		s.waiting[d]--
	}
}

func (s *scheduler) enqueueIfReady(i int) {
	if s.resolved[i] || s.queued[i] || s.waiting[i] > 0 {
		return
	}
	s.queued[i] = true
	if i > s.cursor {
		heap.Push(&s.current, i)
	} else {
		heap.Push(&s.later, i)
	}
}

// remaining returns the unresolved task names in insertion order.
func (s *scheduler) remaining() []string {
	names := make([]string, 0, len(s.tasks)-s.nResolved)
	for i, t := range s.tasks {
		if !s.resolved[i] {
			names = append(names, t.Name)
		}
	}
	return names
}

// indexHeap is a min-heap of task positions.
type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
