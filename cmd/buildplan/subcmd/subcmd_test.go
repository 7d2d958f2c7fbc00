package subcmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPlan = `
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

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with the given args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&bytes.Buffer{})
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	t.Run("valid plan", func(t *testing.T) {
		plan := writePlan(t, testPlan)
		out, err := execute(t, "validate", "--plan", plan)
		require.NoError(t, err)
		assert.Contains(t, out, "plan is valid: 3 unit(s)")
	})

	t.Run("cyclic plan fails with a problem report", func(t *testing.T) {
		plan := writePlan(t, `
unit "a" {
  version    = "1"
  depends_on = ["b-1"]
}

unit "b" {
  version    = "1"
  depends_on = ["a-1"]
}
`)
		out, err := execute(t, "validate", "--plan", plan)
		require.Error(t, err)
		assert.Contains(t, out, "cycle")
	})

	t.Run("missing plan flag", func(t *testing.T) {
		rootFlags.planPath = ""
		_, err := execute(t, "validate")
		assert.ErrorContains(t, err, "plan path is required")
	})
}

func TestOrderCommand(t *testing.T) {
	plan := writePlan(t, testPlan)

	t.Run("build order puts dependencies first", func(t *testing.T) {
		out, err := execute(t, "order", "--plan", plan)
		require.NoError(t, err)
		assert.Contains(t, out, "1. base-1.0")
		assert.Contains(t, out, "2. lib-2.0")
		assert.Contains(t, out, "3. app-3.0")
	})

	t.Run("forward order puts dependents first", func(t *testing.T) {
		out, err := execute(t, "order", "--plan", plan, "--forward")
		require.NoError(t, err)
		assert.Contains(t, out, "1. app-3.0")
		assert.Contains(t, out, "3. base-1.0")
	})
}

func TestShowCommand(t *testing.T) {
	plan := writePlan(t, testPlan)
	out, err := execute(t, "show", "--plan", plan)
	require.NoError(t, err)
	assert.Contains(t, out, "lib-2.0")
	assert.Contains(t, out, "configured")
	assert.Contains(t, out, "pre-existing")
}

func TestRunCommand(t *testing.T) {
	t.Run("successful run", func(t *testing.T) {
		plan := writePlan(t, testPlan)
		out, err := execute(t, "run", "--plan", plan, "--workers", "2")
		require.NoError(t, err)
		assert.Contains(t, out, "installed")
	})

	t.Run("injected failure cascades", func(t *testing.T) {
		plan := writePlan(t, testPlan)
		out, err := execute(t, "run", "--plan", plan, "--fail", "lib-2.0")
		require.Error(t, err)
		assert.Contains(t, out, "failed")
		assert.Contains(t, out, `dependency "lib-2.0" failed`)
	})
}
