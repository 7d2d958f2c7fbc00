package subcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vk/buildplan/internal/app"
)

var rootFlags struct {
	planPath  string
	logLevel  string
	logFormat string
}

// RootCmd is the top-level buildplan command.
var RootCmd = &cobra.Command{
	Use:          "buildplan",
	Short:        "Validate, order and execute package install plans",
	SilenceUsage: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&rootFlags.planPath, "plan", "p", "", "path to a plan file or a directory of plan files")
	RootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "info", "logging level: debug, info, warn or error")
	RootCmd.PersistentFlags().StringVar(&rootFlags.logFormat, "log-format", "text", "log output format: text or json")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp builds an App from the persistent flags. Logs go to stderr so
// command output on stdout stays parseable.
func newApp(cmd *cobra.Command, workers int) (*app.App, error) {
	if rootFlags.planPath == "" {
		return nil, fmt.Errorf("a plan path is required (--plan)")
	}
	cfg := &app.Config{
		PlanPath:  rootFlags.planPath,
		LogLevel:  rootFlags.logLevel,
		LogFormat: rootFlags.logFormat,
		Workers:   workers,
	}
	return app.New(cmd.ErrOrStderr(), cfg, nil), nil
}
