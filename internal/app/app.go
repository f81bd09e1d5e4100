package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/five82/spotter/internal/config"
	"github.com/five82/spotter/internal/kv"
	"github.com/five82/spotter/internal/optimistic"
	"github.com/five82/spotter/internal/prefs"
	"github.com/five82/spotter/internal/restclock"
	"github.com/five82/spotter/internal/state"
	"github.com/five82/spotter/internal/timer"
	"github.com/five82/spotter/internal/ui"
	"github.com/five82/spotter/internal/workout"
)

// Options configure the spotter application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/spotter/prefs.toml
	WorkoutID  int64  // overrides workout_id from the config when positive
	PollEvery  int    // seconds; zero uses the config value
}

// Run boots the spotter TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.WorkoutID > 0 {
		cfg.WorkoutID = opts.WorkoutID
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}
	if cfg.WorkoutID <= 0 {
		return errors.New("no workout selected: set workout_id in the config or pass --workout")
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return fmt.Errorf("load prefs: %w", err)
	}

	logger, logFile, err := OpenLogger(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rest, kvStore, err := OpenRestTimer(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.Close(kvStore); err != nil {
			logger.Warn("close state store", "error", err)
		}
	}()
	go rest.Run(ctx)

	client, err := workout.NewClient(cfg.APIURL, cfg.Token)
	if err != nil {
		return fmt.Errorf("init workout client: %w", err)
	}

	store := &state.Store{}
	ctrl, err := optimistic.New(store, remote{sessionAPI: client, workoutID: cfg.WorkoutID}, optimistic.Options{
		Timer: rest,
		OnAllCompleted: func() {
			store.Notify("Exercise complete")
		},
		Notify: store.Notify,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer ctrl.Wait()

	sess := newSession(client, cfg.WorkoutID, store, ctrl, logger)

	// A failed first load is shown in the UI; the poller keeps retrying the
	// overview and navigation reloads the session.
	if err := sess.load(ctx); err != nil {
		logger.Warn("initial session load failed", "workout_id", cfg.WorkoutID, "error", err)
		store.UpdateDay(nil, err)
	}

	StartPoller(ctx, store, client, cfg.WorkoutID, cfg.PollInterval, logger)

	logger.Info("spotter started",
		"workout_id", cfg.WorkoutID,
		"api_url", cfg.APIURL,
		"state_backend", cfg.StateBackend,
		"durable_timer", rest.Durable(),
	)

	err = ui.Run(ui.Options{
		Context:    ctx,
		Store:      store,
		Controller: ctrl,
		Timer:      rest,
		KV:         kvStore,
		Navigate:   sess.navigate,
		Logger:     logger,
		LogPath:    cfg.LogPath,
		ThemeName:  userPrefs.Theme,
		Bell:       userPrefs.Bell,
		PrefsPath:  opts.PrefsPath,
	})
	cancel()
	return err
}

// OpenRestTimer opens the configured state store and restores the rest
// timer from its durable slot. The caller closes the returned store.
func OpenRestTimer(cfg config.Config, logger *slog.Logger) (*timer.Service, kv.Store, error) {
	kvStore, err := kv.Open(cfg.StateBackend, cfg.StatePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open state store: %w", err)
	}
	svc, err := timer.New(restclock.New(kvStore),
		timer.WithLogger(logger),
		timer.WithSampleInterval(cfg.SampleInterval),
	)
	if err != nil {
		_ = kv.Close(kvStore)
		return nil, nil, fmt.Errorf("init rest timer: %w", err)
	}
	svc.Init()
	return svc, kvStore, nil
}
