package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/spotter/internal/kv"
)

// Config captures everything spotter reads from config.toml.
type Config struct {
	APIURL         string
	Token          string
	WorkoutID      int64
	StateBackend   string
	StatePath      string
	LogPath        string
	LogLevel       slog.Level
	SampleInterval time.Duration
	PollInterval   time.Duration
}

const (
	defaultConfigPath     = "~/.config/spotter/config.toml"
	defaultDataDir        = "~/.local/share/spotter"
	defaultAPIURL         = "127.0.0.1:8080"
	defaultSampleInterval = 500 * time.Millisecond
	defaultPollInterval   = 5 * time.Second
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Load locates and parses the config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.StatePath = defaultStatePath(cfg.StateBackend)
			cfg.LogPath = mustExpand(defaultDataDir + "/spotter.log")
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL           string `toml:"api_url"`
		Token            string `toml:"token"`
		WorkoutID        int64  `toml:"workout_id"`
		StateBackend     string `toml:"state_backend"`
		StatePath        string `toml:"state_path"`
		LogPath          string `toml:"log_path"`
		LogLevel         string `toml:"log_level"`
		SampleIntervalMS int    `toml:"sample_interval_ms"`
		PollSeconds      int    `toml:"poll_seconds"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = v
	}
	cfg.Token = strings.TrimSpace(raw.Token)
	if raw.WorkoutID < 0 {
		return Config{}, fmt.Errorf("parse config: workout_id must not be negative")
	}
	cfg.WorkoutID = raw.WorkoutID

	if v := strings.ToLower(strings.TrimSpace(raw.StateBackend)); v != "" {
		switch v {
		case kv.BackendFile, kv.BackendSQLite, kv.BackendMemory:
			cfg.StateBackend = v
		default:
			return Config{}, fmt.Errorf("parse config: unknown state_backend %q", raw.StateBackend)
		}
	}

	cfg.StatePath = strings.TrimSpace(raw.StatePath)
	if cfg.StatePath == "" {
		cfg.StatePath = defaultStatePath(cfg.StateBackend)
	} else {
		cfg.StatePath = mustExpand(cfg.StatePath)
	}

	cfg.LogPath = strings.TrimSpace(raw.LogPath)
	if cfg.LogPath == "" {
		cfg.LogPath = defaultDataDir + "/spotter.log"
	}
	cfg.LogPath = mustExpand(cfg.LogPath)

	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("parse config: log_level: %w", err)
		}
	}
	if raw.SampleIntervalMS > 0 {
		cfg.SampleInterval = time.Duration(raw.SampleIntervalMS) * time.Millisecond
	}
	if raw.PollSeconds > 0 {
		cfg.PollInterval = time.Duration(raw.PollSeconds) * time.Second
	}

	return cfg, nil
}

func defaults() Config {
	return Config{
		APIURL:         defaultAPIURL,
		StateBackend:   kv.BackendFile,
		LogLevel:       slog.LevelInfo,
		SampleInterval: defaultSampleInterval,
		PollInterval:   defaultPollInterval,
	}
}

func defaultStatePath(backend string) string {
	if backend == kv.BackendSQLite {
		return mustExpand(defaultDataDir + "/state.db")
	}
	return mustExpand(defaultDataDir + "/state.toml")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return ExpandPath(defaultConfigPath)
	}
	return ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
