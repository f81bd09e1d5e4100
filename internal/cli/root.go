package cli

import (
	"github.com/spf13/cobra"

	"github.com/five82/spotter/internal/app"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	PrefsPath  string
	WorkoutID  int64
	PollEvery  int
}

// NewRootCommand creates the spotter command. Without a subcommand it runs
// the TUI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "spotter",
		Short: "spotter - workout tracker with a durable rest timer",
		Long: `Track sets of the current workout session and count down rest
between them. The rest timer survives restarts.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), app.Options{
				ConfigPath: opts.ConfigPath,
				PrefsPath:  opts.PrefsPath,
				WorkoutID:  opts.WorkoutID,
				PollEvery:  opts.PollEvery,
			})
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ~/.config/spotter/config.toml)")
	cmd.Flags().StringVar(&opts.PrefsPath, "prefs", "", "preferences file (default ~/.config/spotter/prefs.toml)")
	cmd.Flags().Int64VarP(&opts.WorkoutID, "workout", "w", 0, "workout id, overrides workout_id from the config")
	cmd.Flags().IntVar(&opts.PollEvery, "poll", 0, "overview refresh interval in seconds")

	cmd.AddCommand(NewTimerCommand(opts))

	return cmd
}
