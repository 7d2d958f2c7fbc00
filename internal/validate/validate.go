// Package validate proves that a unit graph is a usable install plan: every
// dependency reference resolves, the dependency relation is acyclic, and no
// already-installed unit depends on a unit that is still to be built.
//
// All checks run to completion so the caller sees every problem at once,
// and the problem list is deterministic for a given graph: grouped by check,
// then ordered by ascending unit ID.
package validate

import (
	"fmt"
	"strings"

	"github.com/vk/buildplan/internal/graph"
	"github.com/vk/buildplan/internal/unit"
)

// Problem is one structural defect found in a unit graph. The concrete
// types are MissingDependency, Cycle and InvalidPreExisting.
type Problem interface {
	fmt.Stringer
	problem()
}

// MissingDependency reports a dependency edge whose target is absent from
// the unit index.
type MissingDependency struct {
	// Unit is the unit that declared the dangling edge.
	Unit unit.ID
	// Missing is the referenced ID that does not exist.
	Missing unit.ID
}

func (p MissingDependency) problem() {}

// String implements fmt.Stringer.
func (p MissingDependency) String() string {
	return fmt.Sprintf("unit %q depends on %q, which is not part of the plan", p.Unit, p.Missing)
}

// Cycle reports a dependency cycle. Walk is a genuine closed walk: each
// consecutive pair is connected by a real dependency edge and the last
// element has an edge back to the first. A self-dependency yields a walk of
// length one.
type Cycle struct {
	Walk []unit.ID
}

func (p Cycle) problem() {}

// String implements fmt.Stringer.
func (p Cycle) String() string {
	parts := make([]string, 0, len(p.Walk)+1)
	for _, id := range p.Walk {
		parts = append(parts, string(id))
	}
	parts = append(parts, string(p.Walk[0]))
	return "dependency cycle: " + strings.Join(parts, " -> ")
}

// InvalidPreExisting reports a pre-existing unit that transitively depends
// on a configured unit. An installed unit cannot require something that has
// not been built yet, so this is an inconsistency in the input, independent
// of acyclicity.
type InvalidPreExisting struct {
	Unit unit.ID
}

func (p InvalidPreExisting) problem() {}

// String implements fmt.Stringer.
func (p InvalidPreExisting) String() string {
	return fmt.Sprintf("pre-existing unit %q transitively depends on a configured unit", p.Unit)
}

// Validated wraps a graph that passed Validate. Components that require an
// acyclic, fully-resolved graph accept this type instead of a raw graph, so
// validation cannot be bypassed.
type Validated struct {
	g *graph.Graph
}

// Graph returns the underlying graph.
func (v Validated) Graph() *graph.Graph { return v.g }

// Validate runs every check over the graph. On success it returns the
// wrapped graph and an empty problem list; otherwise the zero Validated and
// every problem found.
//
// Dependency references declared by pre-existing units are checked for
// missing targets just like configured ones: the transitive pre-existing
// sweep would be unsound over dangling edges.
func Validate(g *graph.Graph) (Validated, []Problem) {
	var problems []Problem
	problems = append(problems, missingDependencies(g)...)
	problems = append(problems, cycles(g)...)
	problems = append(problems, invalidPreExisting(g)...)

	if len(problems) > 0 {
		return Validated{}, problems
	}
	return Validated{g: g}, nil
}

// missingDependencies scans every declared edge for targets absent from the
// index. IDs() and Dependencies() are already sorted, so the output order is
// (unit, missing) ascending without further work.
func missingDependencies(g *graph.Graph) []Problem {
	var out []Problem
	for _, id := range g.IDs() {
		for _, dep := range g.Dependencies(id) {
			if _, ok := g.Lookup(dep); !ok {
				out = append(out, MissingDependency{Unit: id, Missing: dep})
			}
		}
	}
	return out
}

// cycles decomposes the dependency graph into strongly connected components
// (Tarjan) and reports every component of size greater than one, plus every
// self-dependency, as a closed cycle walk starting at the component's
// smallest ID.
func cycles(g *graph.Graph) []Problem {
	var (
		index   = 0
		indices = make(map[unit.ID]int, g.Len())
		lowlink = make(map[unit.ID]int, g.Len())
		onStack = make(map[unit.ID]bool, g.Len())
		stack   []unit.ID
		comps   [][]unit.ID
	)

	var strongConnect func(v unit.ID)
	strongConnect = func(v unit.ID) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.Dependencies(v) {
			if _, ok := g.Lookup(w); !ok {
				continue // dangling edge, reported by missingDependencies
			}
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var comp []unit.ID
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			comps = append(comps, comp)
		}
	}

	for _, id := range g.IDs() {
		if _, visited := indices[id]; !visited {
			strongConnect(id)
		}
	}

	var out []Problem
	for _, comp := range comps {
		if len(comp) > 1 {
			out = append(out, Cycle{Walk: cycleWalk(g, comp)})
			continue
		}
		// A single-node component is cyclic only via a self-edge.
		id := comp[0]
		for _, dep := range g.Dependencies(id) {
			if dep == id {
				out = append(out, Cycle{Walk: []unit.ID{id}})
				break
			}
		}
	}

	// Tarjan emits components in reverse topological order of the
	// condensation, which depends on seed order; re-sort by walk start for a
	// stable report.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].(Cycle).Walk[0] < out[j-1].(Cycle).Walk[0]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// cycleWalk extracts one closed walk through the given strongly connected
// component, starting and implicitly ending at its smallest member. The
// component is strongly connected, so a path from the start back to itself
// always exists.
func cycleWalk(g *graph.Graph, comp []unit.ID) []unit.ID {
	members := make(map[unit.ID]bool, len(comp))
	for _, id := range comp {
		members[id] = true
	}
	start := comp[0]
	for _, id := range comp[1:] {
		if id < start {
			start = id
		}
	}

	// Depth-first search restricted to the component, looking for an edge
	// back to start. Neighbors are visited in ascending order for
	// determinism.
	visited := map[unit.ID]bool{start: true}
	var walk func(from unit.ID, path []unit.ID) []unit.ID
	walk = func(from unit.ID, path []unit.ID) []unit.ID {
		for _, next := range g.Dependencies(from) {
			if next == start && len(path) > 0 {
				return path
			}
			if !members[next] || visited[next] {
				continue
			}
			visited[next] = true
			if found := walk(next, append(path, next)); found != nil {
				return found
			}
		}
		return nil
	}

	body := walk(start, nil)
	return append([]unit.ID{start}, body...)
}

// invalidPreExisting reports every pre-existing unit that can transitively
// reach a configured unit. Dangling edges are skipped. Only positive results
// are memoized across units; a negative answer is valid only within a single
// traversal, since a unit on the DFS path may still reach a configured unit
// through a cycle. The check therefore holds on cyclic graphs too and does
// not depend on the cycle check passing.
func invalidPreExisting(g *graph.Graph) []Problem {
	reaches := make(map[unit.ID]bool, g.Len())

	var visit func(id unit.ID, seen map[unit.ID]bool) bool
	visit = func(id unit.ID, seen map[unit.ID]bool) bool {
		if reaches[id] {
			return true
		}
		if seen[id] {
			return false
		}
		seen[id] = true
		for _, dep := range g.Dependencies(id) {
			du, ok := g.Lookup(dep)
			if !ok {
				continue
			}
			if du.Kind == unit.KindConfigured || visit(dep, seen) {
				reaches[id] = true
				return true
			}
		}
		return false
	}

	var out []Problem
	for _, id := range g.IDs() {
		u, _ := g.Lookup(id)
		if u.Kind != unit.KindPreExisting {
			continue
		}
		if visit(id, make(map[unit.ID]bool, g.Len())) {
			out = append(out, InvalidPreExisting{Unit: id})
		}
	}
	return out
}

// ProblemsError adapts a problem list to the error interface for callers
// that surface validation failures through an error return.
type ProblemsError struct {
	Problems []Problem
}

// Error implements the error interface.
func (e *ProblemsError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid plan: " + e.Problems[0].String()
	}
	return fmt.Sprintf("invalid plan: %d problems, first: %s", len(e.Problems), e.Problems[0])
}
