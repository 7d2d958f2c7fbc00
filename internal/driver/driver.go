// Package driver runs a live install plan to completion: it repeatedly
// claims ready units from the state machine, hands them to a pool of
// workers, and reports each outcome back. The actual build of a unit is a
// caller-supplied function; the driver owns scheduling only.
package driver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vk/buildplan/internal/ctxlog"
	"github.com/vk/buildplan/internal/plan"
	"github.com/vk/buildplan/internal/unit"
)

// BuildFunc builds one unit and returns its opaque result. Returning an
// error marks the unit failed and cascades to its dependents. When the
// context is canceled the function should return the context error so the
// failure is recorded as a cancellation.
type BuildFunc func(ctx context.Context, u *unit.Unit) (any, error)

// Driver coordinates one execution of a plan.
type Driver struct {
	plan    *plan.Plan
	build   BuildFunc
	workers int
}

// New creates a driver over the given plan. workers caps how many units
// build concurrently; values below one mean a single worker.
func New(p *plan.Plan, build BuildFunc, workers int) *Driver {
	if workers < 1 {
		workers = 1
	}
	return &Driver{plan: p, build: build, workers: workers}
}

// outcome is one worker's report back to the coordinator.
type outcome struct {
	id     unit.ID
	result any
	err    error
}

// Run drives the plan until every unit is terminal. It returns nil when all
// configured units installed, and otherwise an error naming the directly
// failed units with the first root-cause error wrapped. Cascaded units are
// symptoms, not causes, and are left out of the summary.
func (d *Driver) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	g := d.plan.Graph().Graph()

	// Buffered to the graph size so dispatching never blocks the
	// coordinator while workers are busy.
	jobs := make(chan *unit.Unit, g.Len())
	results := make(chan outcome)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Debug("Starting worker pool.", "workers", d.workers)
	for i := 0; i < d.workers; i++ {
		go d.worker(runCtx, jobs, results, i)
	}

	inflight := d.dispatch(ctx, jobs)
	for inflight > 0 {
		o := <-results
		inflight--

		if o.err != nil {
			failure := unit.BuildFailure(o.err)
			if errors.Is(o.err, context.Canceled) || errors.Is(o.err, context.DeadlineExceeded) {
				failure = unit.CancelFailure(o.err)
			}
			logger.Error("Unit build failed.", "unit", o.id, "error", o.err)
			if err := d.plan.MarkFailed(o.id, failure); err != nil {
				return fmt.Errorf("driver bug: %w", err)
			}
		} else {
			logger.Info("Unit installed.", "unit", o.id)
			if err := d.plan.MarkInstalled(o.id, o.result); err != nil {
				return fmt.Errorf("driver bug: %w", err)
			}
		}

		inflight += d.dispatch(ctx, jobs)
	}
	close(jobs)

	if !d.plan.IsComplete() {
		// Unreachable on a validated plan: failures cascade, so a stalled
		// configured unit would imply a non-terminal dependency with no
		// in-flight work.
		return fmt.Errorf("driver stalled with incomplete plan")
	}
	return d.summarize(ctx)
}

// dispatch claims every currently ready unit, queues it for the workers and
// returns how many were queued.
func (d *Driver) dispatch(ctx context.Context, jobs chan<- *unit.Unit) int {
	logger := ctxlog.FromContext(ctx)
	g := d.plan.Graph().Graph()

	claimed := d.plan.ClaimReady(0)
	for _, id := range claimed {
		u, _ := g.Lookup(id)
		logger.Debug("Dispatching unit.", "unit", id)
		jobs <- u
	}
	return len(claimed)
}

// worker builds queued units until the jobs channel closes.
func (d *Driver) worker(ctx context.Context, jobs <-chan *unit.Unit, results chan<- outcome, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for u := range jobs {
		if err := ctx.Err(); err != nil {
			results <- outcome{id: u.ID, err: err}
			continue
		}
		logger.Debug("Worker picked up unit.", "workerID", workerID, "unit", u.ID)
		result, err := d.build(ctx, u)
		results <- outcome{id: u.ID, result: result, err: err}
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// summarize walks the finished plan and reports direct failures.
func (d *Driver) summarize(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	var failed []string
	var rootCause error
	for _, row := range d.plan.Snapshot() {
		if row.Status != unit.StatusFailed {
			continue
		}
		if row.Failure.Kind == unit.FailureDependency {
			logger.Warn("Unit skipped due to failed dependency.", "unit", row.ID, "cause", row.Failure.CausedBy)
			continue
		}
		failed = append(failed, string(row.ID))
		if rootCause == nil {
			rootCause = row.Failure.Err
		}
	}

	if rootCause != nil {
		return fmt.Errorf("build failed for %s: %w", strings.Join(failed, ", "), rootCause)
	}
	return nil
}
