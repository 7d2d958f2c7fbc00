package subcmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vk/buildplan/internal/render"
	"github.com/vk/buildplan/internal/unit"
)

func init() {
	RootCmd.AddCommand(NewRunCommand())
}

// NewRunCommand builds the `run` verb: drive the plan to completion with a
// simulated builder. --fail injects failures for specific units, which is
// also the easiest way to see the failure cascade in action.
func NewRunCommand() *cobra.Command {
	rc := &RunCommand{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the plan with a simulated builder",
		Args:  cobra.NoArgs,
		RunE:  rc.run,
	}
	cmd.Flags().IntVar(&rc.Workers, "workers", 4, "number of concurrent unit builds")
	cmd.Flags().StringSliceVar(&rc.FailIDs, "fail", nil, "unit IDs whose simulated build should fail")
	cmd.Flags().DurationVar(&rc.Delay, "delay", 0, "simulated per-unit build duration")
	return cmd
}

type RunCommand struct {
	Workers int
	FailIDs []string
	Delay   time.Duration
}

func (c *RunCommand) run(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd, c.Workers)
	if err != nil {
		return err
	}

	failSet := make(map[unit.ID]bool, len(c.FailIDs))
	for _, id := range c.FailIDs {
		failSet[unit.ID(id)] = true
	}

	build := func(ctx context.Context, u *unit.Unit) (any, error) {
		if c.Delay > 0 {
			select {
			case <-time.After(c.Delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if failSet[u.ID] {
			return nil, fmt.Errorf("simulated build failure")
		}
		return fmt.Sprintf("built %s", u.Package), nil
	}

	p, runErr := a.Run(cmd.Context(), build)
	if p != nil {
		fmt.Fprintln(cmd.OutOrStdout(), render.Plan(p))
	}
	return runErr
}
