package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/buildplan/internal/unit"
	"github.com/vk/buildplan/internal/validate"
)

const goodPlan = `
unit "base" {
  version   = "1.0"
  installed = true
}

unit "lib" {
  version    = "2.0"
  depends_on = ["base-1.0"]
}

unit "app" {
  version    = "3.0"
  depends_on = ["lib-2.0"]
}
`

const cyclicPlan = `
unit "a" {
  version    = "1"
  depends_on = ["b-1"]
}

unit "b" {
  version    = "1"
  depends_on = ["a-1"]
}
`

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestApp(t *testing.T, planContent string) *App {
	t.Helper()
	cfg := &Config{
		PlanPath:  writePlan(t, planContent),
		LogLevel:  "error",
		LogFormat: "text",
		Workers:   2,
	}
	return New(io.Discard, cfg, nil)
}

func TestValidate(t *testing.T) {
	t.Run("valid plan", func(t *testing.T) {
		a := newTestApp(t, goodPlan)
		v, problems, err := a.Validate(context.Background())
		require.NoError(t, err)
		assert.Empty(t, problems)
		assert.Equal(t, 3, v.Graph().Len())
	})

	t.Run("cyclic plan reports problems, not an error", func(t *testing.T) {
		a := newTestApp(t, cyclicPlan)
		_, problems, err := a.Validate(context.Background())
		require.NoError(t, err)
		require.Len(t, problems, 1)
		assert.IsType(t, validate.Cycle{}, problems[0])
	})

	t.Run("unreadable path is an error", func(t *testing.T) {
		cfg := &Config{PlanPath: filepath.Join(t.TempDir(), "nope"), LogLevel: "error"}
		a := New(io.Discard, cfg, nil)
		_, _, err := a.Validate(context.Background())
		assert.Error(t, err)
	})
}

func TestNewPlan(t *testing.T) {
	t.Run("problems fold into the error", func(t *testing.T) {
		a := newTestApp(t, cyclicPlan)
		_, err := a.NewPlan(context.Background())
		var problems *validate.ProblemsError
		require.ErrorAs(t, err, &problems)
		assert.Len(t, problems.Problems, 1)
	})

	t.Run("valid plan starts live", func(t *testing.T) {
		a := newTestApp(t, goodPlan)
		p, err := a.NewPlan(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []unit.ID{"lib-2.0"}, p.ReadySet())
	})
}

func TestRun(t *testing.T) {
	t.Run("drives the plan to completion", func(t *testing.T) {
		a := newTestApp(t, goodPlan)
		p, err := a.Run(context.Background(), func(_ context.Context, u *unit.Unit) (any, error) {
			return fmt.Sprintf("built %s", u.ID), nil
		})
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.True(t, p.IsComplete())

		s, ok := p.Status("app-3.0")
		require.True(t, ok)
		assert.Equal(t, unit.StatusInstalled, s)
	})

	t.Run("surfaces build failures with the plan attached", func(t *testing.T) {
		boom := errors.New("boom")
		a := newTestApp(t, goodPlan)
		p, err := a.Run(context.Background(), func(_ context.Context, u *unit.Unit) (any, error) {
			if u.ID == "lib-2.0" {
				return nil, boom
			}
			return nil, nil
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		require.NotNil(t, p)

		f, ok := p.Failure("app-3.0")
		require.True(t, ok)
		assert.Equal(t, unit.FailureDependency, f.Kind)
		assert.Equal(t, unit.ID("lib-2.0"), f.CausedBy)
	})
}
