package subcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vk/buildplan/internal/render"
)

func init() {
	RootCmd.AddCommand(NewValidateCommand())
}

// NewValidateCommand builds the `validate` verb: load the plan, run every
// check and report the problems found.
func NewValidateCommand() *cobra.Command {
	vc := &ValidateCommand{}
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a plan for missing dependencies, cycles and inconsistencies",
		Args:  cobra.NoArgs,
		RunE:  vc.run,
	}
}

type ValidateCommand struct{}

func (c *ValidateCommand) run(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, 1)
	if err != nil {
		return err
	}

	v, problems, err := a.Validate(cmd.Context())
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), render.Problems(problems))
		return fmt.Errorf("plan is invalid: %d problem(s)", len(problems))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "plan is valid: %d unit(s)\n", v.Graph().Len())
	return nil
}
