// Package graph builds the immutable unit index of an install plan: every
// unit keyed by its ID, together with its direct dependency edges and the
// reverse (dependent) edges derived from them.
//
// A Graph never changes after Build returns, so it can be shared freely
// between concurrent readers without locking.
package graph

import (
	"fmt"
	"strings"

	"github.com/vk/buildplan/internal/unit"
)

// Graph is the unit index. It records plan structure only; it knows nothing
// about runtime status.
type Graph struct {
	// units maps each ID to its unit.
	units map[unit.ID]*unit.Unit
	// deps holds each unit's direct dependencies, ascending, as declared
	// (targets may be absent from the index; the validator reports those).
	deps map[unit.ID][]unit.ID
	// dependents holds the reverse edges among units present in the index.
	dependents map[unit.ID][]unit.ID
	// ids is the ascending list of all unit IDs.
	ids []unit.ID
}

// DuplicateIDError reports every unit ID that appeared more than once in the
// input. Later stages assume IDs are unique, so duplicates reject the whole
// plan before any other analysis runs.
type DuplicateIDError struct {
	IDs []unit.ID
}

// Error implements the error interface.
func (e *DuplicateIDError) Error() string {
	quoted := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		quoted[i] = fmt.Sprintf("%q", string(id))
	}
	return "duplicate unit ids: " + strings.Join(quoted, ", ")
}

// Build indexes the given units into a Graph. It fails with a
// *DuplicateIDError naming every repeated ID if the input contains
// duplicates. Units are copied; the caller's slice is not retained.
func Build(units []unit.Unit) (*Graph, error) {
	g := &Graph{
		units:      make(map[unit.ID]*unit.Unit, len(units)),
		deps:       make(map[unit.ID][]unit.ID, len(units)),
		dependents: make(map[unit.ID][]unit.ID, len(units)),
	}

	var dups []unit.ID
	seenDup := make(map[unit.ID]bool)
	for i := range units {
		u := units[i]
		if _, ok := g.units[u.ID]; ok {
			if !seenDup[u.ID] {
				seenDup[u.ID] = true
				dups = append(dups, u.ID)
			}
			continue
		}
		deps := make([]unit.ID, len(u.Deps))
		copy(deps, u.Deps)
		unit.SortIDs(deps)
		u.Deps = deps

		g.units[u.ID] = &u
		g.ids = append(g.ids, u.ID)
		g.deps[u.ID] = deps
	}
	if len(dups) > 0 {
		return nil, &DuplicateIDError{IDs: unit.SortIDs(dups)}
	}

	unit.SortIDs(g.ids)
	for _, id := range g.ids {
		for _, dep := range g.deps[id] {
			if _, ok := g.units[dep]; ok {
				g.dependents[dep] = append(g.dependents[dep], id)
			}
		}
	}
	for id := range g.dependents {
		unit.SortIDs(g.dependents[id])
	}

	return g, nil
}

// Len returns the number of units in the graph.
func (g *Graph) Len() int { return len(g.ids) }

// IDs returns all unit IDs in ascending order. The caller must not modify
// the returned slice.
func (g *Graph) IDs() []unit.ID { return g.ids }

// Lookup returns the unit with the given ID, if present.
func (g *Graph) Lookup(id unit.ID) (*unit.Unit, bool) {
	u, ok := g.units[id]
	return u, ok
}

// Dependencies returns the direct dependencies of the given unit in
// ascending order, exactly as declared. Targets missing from the index are
// included; detecting them is the validator's job. The caller must not
// modify the returned slice.
func (g *Graph) Dependencies(id unit.ID) []unit.ID { return g.deps[id] }

// Dependents returns, in ascending order, the units that directly depend on
// the given unit. The caller must not modify the returned slice.
func (g *Graph) Dependents(id unit.ID) []unit.ID { return g.dependents[id] }
