// Package render produces deterministic, human-readable views of plans and
// validation reports for diagnostics and test assertions. The output is not
// a stability-guaranteed wire format.
package render

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vk/buildplan/internal/plan"
	"github.com/vk/buildplan/internal/unit"
	"github.com/vk/buildplan/internal/validate"
)

// Plan renders a snapshot of the given plan as a table: one row per unit,
// in ascending ID order, with its status and direct dependencies.
func Plan(p *plan.Plan) string {
	g := p.Graph().Graph()

	t := table.NewWriter()
	t.AppendHeader(table.Row{"UNIT", "STATUS", "DEPENDS ON", "DETAIL"})
	for _, row := range p.Snapshot() {
		t.AppendRow(table.Row{
			string(row.ID),
			row.Status.String(),
			joinIDs(g.Dependencies(row.ID)),
			detail(row),
		})
	}
	return t.Render()
}

// Problems renders a validation report as a table, preserving the
// validator's deterministic problem order.
func Problems(problems []validate.Problem) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"PROBLEM", "DETAIL"})
	for _, p := range problems {
		t.AppendRow(table.Row{problemClass(p), p.String()})
	}
	return t.Render()
}

// Order renders a linear unit order, one numbered line per unit.
func Order(ids []unit.ID) string {
	var sb strings.Builder
	for i, id := range ids {
		fmt.Fprintf(&sb, "%3d. %s\n", i+1, id)
	}
	return sb.String()
}

func detail(row plan.UnitStatus) string {
	switch row.Status {
	case unit.StatusInstalled:
		if row.Result == nil {
			return ""
		}
		return fmt.Sprintf("%v", row.Result)
	case unit.StatusFailed:
		return row.Failure.Error()
	default:
		return ""
	}
}

func problemClass(p validate.Problem) string {
	switch p.(type) {
	case validate.MissingDependency:
		return "missing dependency"
	case validate.Cycle:
		return "cycle"
	case validate.InvalidPreExisting:
		return "invalid pre-existing"
	default:
		return "unknown"
	}
}

func joinIDs(ids []unit.ID) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
