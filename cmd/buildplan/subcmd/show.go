package subcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vk/buildplan/internal/render"
)

func init() {
	RootCmd.AddCommand(NewShowCommand())
}

// NewShowCommand builds the `show` verb: render the freshly-loaded plan as
// a table of units, statuses and dependencies.
func NewShowCommand() *cobra.Command {
	sc := &ShowCommand{}
	return &cobra.Command{
		Use:   "show",
		Short: "Render the plan and its initial unit statuses",
		Args:  cobra.NoArgs,
		RunE:  sc.run,
	}
}

type ShowCommand struct{}

func (c *ShowCommand) run(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, 1)
	if err != nil {
		return err
	}

	p, err := a.NewPlan(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), render.Plan(p))
	return nil
}
