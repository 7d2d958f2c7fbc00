// Package app wires the engine together for the CLI: logger construction,
// plan loading, validation and execution.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/buildplan/internal/ctxlog"
	"github.com/vk/buildplan/internal/driver"
	"github.com/vk/buildplan/internal/graph"
	"github.com/vk/buildplan/internal/plan"
	"github.com/vk/buildplan/internal/planfile"
	"github.com/vk/buildplan/internal/unit"
	"github.com/vk/buildplan/internal/validate"
)

// Config holds everything an App needs to run.
type Config struct {
	// PlanPath points at a plan file or a directory of plan files.
	PlanPath string
	// LogLevel is one of debug, info, warn, error.
	LogLevel string
	// LogFormat is "text" or "json".
	LogFormat string
	// Workers caps concurrent unit builds.
	Workers int
}

// App encapsulates the application's dependencies and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	loader planfile.Loader
	config *Config
}

// New constructs an App with its own isolated logger. A nil loader selects
// the default file loader.
func New(outW io.Writer, cfg *Config, loader planfile.Loader) *App {
	if loader == nil {
		loader = planfile.NewLoader()
	}
	return &App{
		outW:   outW,
		logger: newLogger(cfg.LogLevel, cfg.LogFormat, outW),
		loader: loader,
		config: cfg,
	}
}

// Context returns ctx carrying the app's logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Load reads the configured plan path into a unit list.
func (a *App) Load(ctx context.Context) ([]unit.Unit, error) {
	ctx = a.Context(ctx)
	units, err := a.loader.Load(ctx, a.config.PlanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	a.logger.Debug("Plan loaded.", "units", len(units))
	return units, nil
}

// Validate loads the plan, builds the unit graph and runs every validation
// check. Construction-level errors (unreadable files, duplicate IDs) come
// back as the error; structural defects come back as the problem list.
func (a *App) Validate(ctx context.Context) (validate.Validated, []validate.Problem, error) {
	units, err := a.Load(ctx)
	if err != nil {
		return validate.Validated{}, nil, err
	}
	g, err := graph.Build(units)
	if err != nil {
		return validate.Validated{}, nil, fmt.Errorf("failed to build unit graph: %w", err)
	}
	v, problems := validate.Validate(g)
	if len(problems) > 0 {
		a.logger.Warn("Plan validation failed.", "problems", len(problems))
		return validate.Validated{}, problems, nil
	}
	a.logger.Debug("Plan validation passed.", "units", g.Len())
	return v, nil, nil
}

// NewPlan validates the configured plan and wraps it in a live state
// machine. Validation problems are folded into the returned error.
func (a *App) NewPlan(ctx context.Context) (*plan.Plan, error) {
	v, problems, err := a.Validate(ctx)
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		return nil, &validate.ProblemsError{Problems: problems}
	}
	return plan.New(v), nil
}

// Run validates the plan and drives it to completion with the given build
// function.
func (a *App) Run(ctx context.Context, build driver.BuildFunc) (*plan.Plan, error) {
	p, err := a.NewPlan(ctx)
	if err != nil {
		return nil, err
	}
	ctx = a.Context(ctx)
	a.logger.Info("Starting plan execution.", "workers", a.config.Workers)
	if err := driver.New(p, build, a.config.Workers).Run(ctx); err != nil {
		return p, err
	}
	a.logger.Info("Plan execution finished.")
	return p, nil
}
