// Command shepherd serves and runs the branch analytics.
package main

import (
	"os"

	"github.com/okian/shepherd/internal/config"
	"github.com/okian/shepherd/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Subcommands read the loaded configuration
// through cfg once PersistentPreRunE has run.
func newRootCmd() *cobra.Command {
	cfg := config.New()

	root := &cobra.Command{
		Use:   "shepherd",
		Short: "Attendance, growth and volunteer forecasting for a church branch",
		Long: `Forecasts service attendance, small-group growth, volunteer availability and
yearly leader and member counts from a snapshot of branch records.

Configuration comes from defaults, an optional YAML file named by SHEPHERD_CONFIG
and SHEPHERD_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			*cfg = *loaded

			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr()), logger.WithFormat(cfg.LogFormat)); err != nil {
				return err
			}
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
				_ = logger.SetLevelString("info")
			}
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = logger.Sync()
		},
	}

	root.AddCommand(newServeCmd(cfg), newForecastCmd(cfg), newSampleCmd())
	return root
}
