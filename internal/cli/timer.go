package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/spotter/internal/app"
	"github.com/five82/spotter/internal/config"
	"github.com/five82/spotter/internal/kv"
	"github.com/five82/spotter/internal/timer"
)

// TimerStatus is the JSON form of timer status.
type TimerStatus struct {
	Phase            string    `json:"phase"`
	RemainingSeconds int       `json:"remaining_seconds"`
	TotalSeconds     int       `json:"total_seconds"`
	EndsAt           time.Time `json:"ends_at,omitzero"`
	Durable          bool      `json:"durable"`
}

// NewTimerCommand creates the timer command, which drives the persisted rest
// countdown without the TUI. A running TUI picks the change up on its next
// sample.
func NewTimerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Control the rest timer",
	}

	var asJSON bool
	status := &cobra.Command{
		Use:           "status",
		Short:         "Show the rest countdown",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTimer(rootOpts, func(svc *timer.Service) error {
				if asJSON {
					return writeStatusJSON(cmd.OutOrStdout(), svc)
				}
				writeStatus(cmd.OutOrStdout(), svc.State())
				return nil
			})
		},
	}
	status.Flags().BoolVar(&asJSON, "json", false, "print status as JSON")

	start := &cobra.Command{
		Use:           "start <seconds>",
		Short:         "Start a rest countdown, replacing any running one",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.Atoi(args[0])
			if err != nil || seconds <= 0 {
				return fmt.Errorf("invalid duration %q: want a positive number of seconds", args[0])
			}
			return withTimer(rootOpts, func(svc *timer.Service) error {
				svc.Start(seconds)
				if !svc.Durable() {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning: countdown not persisted")
				}
				writeStatus(cmd.OutOrStdout(), svc.State())
				return nil
			})
		},
	}

	pause := &cobra.Command{
		Use:   "pause",
		Short: "Stop the running countdown and print what was left",
		Long: `Stop the running countdown and print what was left. A paused
countdown is not persisted; resume it with timer start.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTimer(rootOpts, func(svc *timer.Service) error {
				svc.Pause()
				writeStatus(cmd.OutOrStdout(), svc.State())
				return nil
			})
		},
	}

	reset := &cobra.Command{
		Use:           "reset",
		Short:         "Clear the rest countdown",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTimer(rootOpts, func(svc *timer.Service) error {
				svc.Reset()
				writeStatus(cmd.OutOrStdout(), svc.State())
				return nil
			})
		},
	}

	cmd.AddCommand(status, start, pause, reset)
	return cmd
}

// withTimer restores the rest timer from the configured state store, runs
// fn and closes the store.
func withTimer(opts *RootOptions, fn func(*timer.Service) error) (err error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, logFile, err := app.OpenLogger(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logFile.Close()

	svc, store, err := app.OpenRestTimer(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := kv.Close(store); cerr != nil && err == nil {
			err = fmt.Errorf("close state store: %w", cerr)
		}
	}()
	return fn(svc)
}

func writeStatus(w io.Writer, st timer.State) {
	switch st.Phase {
	case timer.PhaseRunning:
		fmt.Fprintf(w, "running %s of %s\n", formatClock(st.RemainingSeconds), formatClock(st.TotalSeconds))
	case timer.PhasePaused:
		fmt.Fprintf(w, "paused %s of %s\n", formatClock(st.RemainingSeconds), formatClock(st.TotalSeconds))
	case timer.PhaseFinished:
		fmt.Fprintln(w, "finished")
	default:
		fmt.Fprintln(w, "idle")
	}
}

func writeStatusJSON(w io.Writer, svc *timer.Service) error {
	st := svc.State()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(TimerStatus{
		Phase:            string(st.Phase),
		RemainingSeconds: st.RemainingSeconds,
		TotalSeconds:     st.TotalSeconds,
		EndsAt:           st.EndsAt,
		Durable:          svc.Durable(),
	})
}

func formatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
