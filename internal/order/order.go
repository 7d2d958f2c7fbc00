// Package order computes the two linear orderings of a validated install
// plan: a dependents-first order (Forward) and a dependencies-first build
// order (Reverse).
//
// Both orderings contain every unit exactly once and are deterministic:
// ties between unconstrained units are always broken by ascending unit ID.
// They are pure queries over the graph structure and never consult runtime
// status.
package order

import (
	"container/heap"

	"github.com/vk/buildplan/internal/unit"
	"github.com/vk/buildplan/internal/validate"
)

// Forward returns a total order in which every unit appears strictly before
// each of its dependencies. It is a Kahn topological sort over the edges as
// declared (dependent pointing at dependency): units nobody depends on come
// out first, with an ID-ordered min-heap breaking ties.
func Forward(v validate.Validated) []unit.ID {
	g := v.Graph()

	indeg := make(map[unit.ID]int, g.Len())
	ready := &idHeap{}
	heap.Init(ready)
	for _, id := range g.IDs() {
		n := len(g.Dependents(id))
		indeg[id] = n
		if n == 0 {
			heap.Push(ready, id)
		}
	}

	out := make([]unit.ID, 0, g.Len())
	for ready.Len() > 0 {
		id := heap.Pop(ready).(unit.ID)
		out = append(out, id)
		for _, dep := range g.Dependencies(id) {
			indeg[dep]--
			if indeg[dep] == 0 {
				heap.Push(ready, dep)
			}
		}
	}
	return out
}

// Reverse returns a total order in which every unit appears strictly after
// each of its dependencies, i.e. a valid single-threaded build order. It is
// a depth-first postorder: each unit is emitted once all of its dependencies
// have been emitted, seeding and descending in ascending ID order.
func Reverse(v validate.Validated) []unit.ID {
	g := v.Graph()

	visited := make(map[unit.ID]bool, g.Len())
	out := make([]unit.ID, 0, g.Len())

	var visit func(id unit.ID)
	visit = func(id unit.ID) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, dep := range g.Dependencies(id) {
			visit(dep)
		}
		out = append(out, id)
	}

	for _, id := range g.IDs() {
		visit(id)
	}
	return out
}

// idHeap is a min-heap of unit IDs, the deterministic ready queue for the
// Kahn sort.
type idHeap []unit.ID

func (h idHeap) Len() int           { return len(h) }
func (h idHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h idHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *idHeap) Push(x any)        { *h = append(*h, x.(unit.ID)) }
func (h *idHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
