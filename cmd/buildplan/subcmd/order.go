package subcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vk/buildplan/internal/order"
	"github.com/vk/buildplan/internal/render"
	"github.com/vk/buildplan/internal/validate"
)

func init() {
	RootCmd.AddCommand(NewOrderCommand())
}

// NewOrderCommand builds the `order` verb: print a linear plan. The default
// is the dependencies-first build order; --forward prints the
// dependents-first order instead.
func NewOrderCommand() *cobra.Command {
	oc := &OrderCommand{}
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Print a linear ordering of the plan's units",
		Args:  cobra.NoArgs,
		RunE:  oc.run,
	}
	cmd.Flags().BoolVar(&oc.Forward, "forward", false, "print the dependents-first order instead of the build order")
	return cmd
}

type OrderCommand struct {
	Forward bool
}

func (c *OrderCommand) run(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, 1)
	if err != nil {
		return err
	}

	v, problems, err := a.Validate(cmd.Context())
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		return &validate.ProblemsError{Problems: problems}
	}

	ids := order.Reverse(v)
	if c.Forward {
		ids = order.Forward(v)
	}
	fmt.Fprint(cmd.OutOrStdout(), render.Order(ids))
	return nil
}
