package plan

import (
	"fmt"
	"sync"

	"github.com/vk/buildplan/internal/unit"
	"github.com/vk/buildplan/internal/validate"
)

// Plan is the install-plan state machine. All methods are safe for
// concurrent use.
type Plan struct {
	graph validate.Validated

	mu      sync.Mutex
	entries map[unit.ID]*entry
}

// entry is the mutable record for one unit. result is set only in
// StatusInstalled, failure only in StatusFailed.
type entry struct {
	status  unit.Status
	result  any
	failure *unit.Failure
}

// UnitStatus is one row of a plan snapshot.
type UnitStatus struct {
	ID      unit.ID
	Status  unit.Status
	Result  any
	Failure *unit.Failure
}

// New creates a live plan over a validated graph. Every unit starts in
// StatusPreExisting or StatusConfigured according to its kind.
func New(v validate.Validated) *Plan {
	g := v.Graph()
	entries := make(map[unit.ID]*entry, g.Len())
	for _, id := range g.IDs() {
		u, _ := g.Lookup(id)
		entries[id] = &entry{status: u.InitialStatus()}
	}
	return &Plan{graph: v, entries: entries}
}

// Graph returns the validated graph the plan was built over.
func (p *Plan) Graph() validate.Validated { return p.graph }

// ReadySet returns, in ascending order, every configured unit whose direct
// dependencies are all satisfied (pre-existing or installed). Pre-existing
// units require no action and never appear in the ready set.
func (p *Plan) ReadySet() []unit.ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readyLocked(0)
}

// ClaimReady atomically computes the ready set and marks up to max of its
// units (all of them when max <= 0) as processing, returning the claimed
// IDs in ascending order. Two concurrent callers never claim the same unit.
func (p *Plan) ClaimReady(max int) []unit.ID {
	p.mu.Lock()
	defer p.mu.Unlock()

	ready := p.readyLocked(max)
	for _, id := range ready {
		p.entries[id].status = unit.StatusProcessing
	}
	return ready
}

// readyLocked collects up to max ready units (all when max <= 0). The
// caller must hold p.mu.
func (p *Plan) readyLocked(max int) []unit.ID {
	var ready []unit.ID
	for _, id := range p.graph.Graph().IDs() {
		if max > 0 && len(ready) == max {
			break
		}
		if p.entries[id].status != unit.StatusConfigured {
			continue
		}
		if p.depsSatisfiedLocked(id) {
			ready = append(ready, id)
		}
	}
	return ready
}

func (p *Plan) depsSatisfiedLocked(id unit.ID) bool {
	for _, dep := range p.graph.Graph().Dependencies(id) {
		if !p.entries[dep].status.Satisfied() {
			return false
		}
	}
	return true
}

// MarkProcessing transitions a configured, ready unit to processing. It
// fails with a *unit.InvalidTransitionError if the unit is not configured or
// one of its dependencies is not yet satisfied.
func (p *Plan) MarkProcessing(id unit.ID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[id]
	if !ok {
		return fmt.Errorf("plan: unknown unit %q", id)
	}
	if e.status != unit.StatusConfigured {
		return &unit.InvalidTransitionError{ID: id, From: e.status, Action: "mark processing"}
	}
	if !p.depsSatisfiedLocked(id) {
		return &unit.InvalidTransitionError{ID: id, From: e.status, Action: "mark processing (dependency unsatisfied)"}
	}
	e.status = unit.StatusProcessing
	return nil
}

// MarkInstalled transitions a processing unit to installed, attaching the
// opaque build result.
func (p *Plan) MarkInstalled(id unit.ID, result any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[id]
	if !ok {
		return fmt.Errorf("plan: unknown unit %q", id)
	}
	if e.status != unit.StatusProcessing {
		return &unit.InvalidTransitionError{ID: id, From: e.status, Action: "mark installed"}
	}
	e.status = unit.StatusInstalled
	e.result = result
	return nil
}

// MarkFailed transitions a processing unit to failed and cascades: every
// unit that transitively depends on it and is still configured or
// processing also moves to failed, carrying a dependency failure that names
// the root cause. The whole cascade is applied under one lock acquisition,
// so no reader ever observes it half done.
func (p *Plan) MarkFailed(id unit.ID, failure *unit.Failure) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[id]
	if !ok {
		return fmt.Errorf("plan: unknown unit %q", id)
	}
	if e.status != unit.StatusProcessing {
		return &unit.InvalidTransitionError{ID: id, From: e.status, Action: "mark failed"}
	}
	if failure == nil {
		failure = unit.BuildFailure(fmt.Errorf("unit %q failed", id))
	}
	if failure.CausedBy == "" {
		failure.CausedBy = id
	}
	e.status = unit.StatusFailed
	e.failure = failure

	p.cascadeLocked(id)
	return nil
}

// cascadeLocked fails every transitive dependent of root that is still
// configured or processing. The caller must hold p.mu.
func (p *Plan) cascadeLocked(root unit.ID) {
	g := p.graph.Graph()
	stack := append([]unit.ID(nil), g.Dependents(root)...)
	seen := make(map[unit.ID]bool)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true

		e := p.entries[id]
		switch e.status {
		case unit.StatusConfigured, unit.StatusProcessing:
			e.status = unit.StatusFailed
			e.failure = unit.DependencyFailure(root)
		}
		stack = append(stack, g.Dependents(id)...)
	}
}

// Status returns the current status of a unit.
func (p *Plan) Status(id unit.ID) (unit.Status, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[id]
	if !ok {
		return 0, false
	}
	return e.status, true
}

// Result returns the build result of an installed unit.
func (p *Plan) Result(id unit.ID) (any, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[id]
	if !ok || e.status != unit.StatusInstalled {
		return nil, false
	}
	return e.result, true
}

// Failure returns the failure payload of a failed unit.
func (p *Plan) Failure(id unit.ID) (*unit.Failure, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[id]
	if !ok || e.status != unit.StatusFailed {
		return nil, false
	}
	return e.failure, true
}

// IsComplete reports whether every unit is in a terminal status.
func (p *Plan) IsComplete() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.entries {
		if !e.status.Terminal() {
			return false
		}
	}
	return true
}

// Snapshot returns a consistent, ID-ordered view of every unit's status,
// taken under the plan lock.
func (p *Plan) Snapshot() []UnitStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := p.graph.Graph().IDs()
	out := make([]UnitStatus, 0, len(ids))
	for _, id := range ids {
		e := p.entries[id]
		out = append(out, UnitStatus{ID: id, Status: e.status, Result: e.result, Failure: e.failure})
	}
	return out
}
