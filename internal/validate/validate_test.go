package validate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/buildplan/internal/graph"
	"github.com/vk/buildplan/internal/unit"
)

func configured(id string, deps ...string) unit.Unit {
	u := unit.Unit{ID: unit.ID(id), Package: unit.PackageID{Name: id}, Kind: unit.KindConfigured}
	for _, d := range deps {
		u.Deps = append(u.Deps, unit.ID(d))
	}
	return u
}

func preExisting(id string, deps ...string) unit.Unit {
	u := configured(id, deps...)
	u.Kind = unit.KindPreExisting
	return u
}

func mustGraph(t *testing.T, units ...unit.Unit) *graph.Graph {
	t.Helper()
	g, err := graph.Build(units)
	require.NoError(t, err)
	return g
}

// assertClosedWalk checks that the walk is a genuine cycle: every
// consecutive pair connected by a real edge, and the last unit pointing
// back at the first.
func assertClosedWalk(t *testing.T, g *graph.Graph, walk []unit.ID) {
	t.Helper()
	require.NotEmpty(t, walk)
	for i, id := range walk {
		next := walk[(i+1)%len(walk)]
		assert.Contains(t, g.Dependencies(id), next,
			"walk step %s -> %s is not a real dependency edge", id, next)
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid dag passes", func(t *testing.T) {
		g := mustGraph(t,
			preExisting("a"),
			configured("b", "a"),
			configured("c", "b", "a"),
		)
		v, problems := Validate(g)
		assert.Empty(t, problems)
		assert.Same(t, g, v.Graph())
	})

	t.Run("missing dependency", func(t *testing.T) {
		g := mustGraph(t, configured("a", "ghost"))
		_, problems := Validate(g)
		require.Len(t, problems, 1)

		missing, ok := problems[0].(MissingDependency)
		require.True(t, ok)
		assert.Equal(t, unit.ID("a"), missing.Unit)
		assert.Equal(t, unit.ID("ghost"), missing.Missing)
	})

	t.Run("missing dependencies of pre-existing units are reported too", func(t *testing.T) {
		g := mustGraph(t, preExisting("a", "ghost"))
		_, problems := Validate(g)
		require.Len(t, problems, 1)
		assert.IsType(t, MissingDependency{}, problems[0])
	})

	t.Run("three unit cycle yields exactly one closed walk", func(t *testing.T) {
		g := mustGraph(t,
			configured("a", "b"),
			configured("b", "c"),
			configured("c", "a"),
		)
		_, problems := Validate(g)
		require.Len(t, problems, 1)

		cycle, ok := problems[0].(Cycle)
		require.True(t, ok)
		assert.ElementsMatch(t, []unit.ID{"a", "b", "c"}, cycle.Walk)
		assert.Equal(t, unit.ID("a"), cycle.Walk[0])
		assertClosedWalk(t, g, cycle.Walk)
	})

	t.Run("self dependency is a cycle of one", func(t *testing.T) {
		g := mustGraph(t, configured("a", "a"))
		_, problems := Validate(g)
		require.Len(t, problems, 1)

		cycle, ok := problems[0].(Cycle)
		require.True(t, ok)
		assert.Equal(t, []unit.ID{"a"}, cycle.Walk)
		assertClosedWalk(t, g, cycle.Walk)
	})

	t.Run("disjoint cycles are each reported", func(t *testing.T) {
		g := mustGraph(t,
			configured("a", "b"),
			configured("b", "a"),
			configured("x", "y"),
			configured("y", "x"),
			configured("ok"),
		)
		_, problems := Validate(g)
		require.Len(t, problems, 2)

		first := problems[0].(Cycle)
		second := problems[1].(Cycle)
		assert.Equal(t, unit.ID("a"), first.Walk[0])
		assert.Equal(t, unit.ID("x"), second.Walk[0])
		assertClosedWalk(t, g, first.Walk)
		assertClosedWalk(t, g, second.Walk)
	})

	t.Run("cycle walk follows real edges in larger component", func(t *testing.T) {
		// Strongly connected component with a chord: b -> d shortcut.
		g := mustGraph(t,
			configured("a", "b"),
			configured("b", "c", "d"),
			configured("c", "d"),
			configured("d", "a"),
		)
		_, problems := Validate(g)
		require.Len(t, problems, 1)

		cycle := problems[0].(Cycle)
		assertClosedWalk(t, g, cycle.Walk)
	})

	t.Run("pre-existing depending on configured", func(t *testing.T) {
		g := mustGraph(t,
			preExisting("installed", "mid"),
			preExisting("mid", "fresh"),
			configured("fresh"),
		)
		_, problems := Validate(g)
		require.Len(t, problems, 2)

		// Both pre-existing units transitively reach the configured one.
		assert.Equal(t, InvalidPreExisting{Unit: "installed"}, problems[0])
		assert.Equal(t, InvalidPreExisting{Unit: "mid"}, problems[1])
	})

	t.Run("pre-existing chain over installed units is fine", func(t *testing.T) {
		g := mustGraph(t,
			preExisting("a"),
			preExisting("b", "a"),
			configured("c", "b"),
		)
		_, problems := Validate(g)
		assert.Empty(t, problems)
	})

	t.Run("all checks run and report in stable groups", func(t *testing.T) {
		g := mustGraph(t,
			configured("loop", "loop"),
			configured("dangling", "ghost"),
			preExisting("stale", "fresh"),
			configured("fresh"),
		)
		_, problems := Validate(g)
		require.Len(t, problems, 3)
		assert.IsType(t, MissingDependency{}, problems[0])
		assert.IsType(t, Cycle{}, problems[1])
		assert.IsType(t, InvalidPreExisting{}, problems[2])
	})

	t.Run("validation is deterministic", func(t *testing.T) {
		build := func() []Problem {
			g := mustGraph(t,
				configured("a", "b"),
				configured("b", "a"),
				configured("c", "ghost", "phantom"),
				preExisting("p", "a"),
			)
			_, problems := Validate(g)
			return problems
		}

		first := build()
		for i := 0; i < 10; i++ {
			if diff := cmp.Diff(first, build()); diff != "" {
				t.Fatalf("validation output changed between runs (-first +repeat):\n%s", diff)
			}
		}
	})
}

func TestProblemStrings(t *testing.T) {
	assert.Equal(t,
		`unit "a" depends on "b", which is not part of the plan`,
		MissingDependency{Unit: "a", Missing: "b"}.String())
	assert.Equal(t,
		"dependency cycle: a -> b -> a",
		Cycle{Walk: []unit.ID{"a", "b"}}.String())
	assert.Equal(t,
		`pre-existing unit "p" transitively depends on a configured unit`,
		InvalidPreExisting{Unit: "p"}.String())
}

func TestProblemsError(t *testing.T) {
	err := &ProblemsError{Problems: []Problem{MissingDependency{Unit: "a", Missing: "b"}}}
	assert.Contains(t, err.Error(), "invalid plan")
	assert.Contains(t, err.Error(), `"b"`)

	multi := &ProblemsError{Problems: []Problem{
		MissingDependency{Unit: "a", Missing: "b"},
		InvalidPreExisting{Unit: "p"},
	}}
	assert.Contains(t, multi.Error(), "2 problems")
}
