package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.StateBackend != "file" {
		t.Fatalf("StateBackend = %q, want file", cfg.StateBackend)
	}
	wantState := filepath.Join(home, ".local/share/spotter/state.toml")
	if cfg.StatePath != wantState {
		t.Fatalf("StatePath = %q, want %q", cfg.StatePath, wantState)
	}
	wantLog := filepath.Join(home, ".local/share/spotter/spotter.log")
	if cfg.LogPath != wantLog {
		t.Fatalf("LogPath = %q, want %q", cfg.LogPath, wantLog)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.SampleInterval != 500*time.Millisecond || cfg.PollInterval != 5*time.Second {
		t.Fatalf("intervals = %v/%v, want 500ms/5s", cfg.SampleInterval, cfg.PollInterval)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
api_url = "  https://gym.example.com  "
token = " secret "
workout_id = 12
state_backend = "SQLite"
state_path = "~/spotter/state.db"
log_path = "  ~/logs/spotter.log  "
log_level = "debug"
sample_interval_ms = 250
poll_seconds = 30
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "https://gym.example.com" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Token != "secret" {
		t.Fatalf("Token = %q, want secret", cfg.Token)
	}
	if cfg.WorkoutID != 12 {
		t.Fatalf("WorkoutID = %d, want 12", cfg.WorkoutID)
	}
	if cfg.StateBackend != "sqlite" {
		t.Fatalf("StateBackend = %q, want sqlite", cfg.StateBackend)
	}
	if cfg.StatePath != filepath.Join(home, "spotter/state.db") {
		t.Fatalf("StatePath = %q", cfg.StatePath)
	}
	if !strings.HasPrefix(cfg.LogPath, home) {
		t.Fatalf("LogPath = %q, want it under HOME %q", cfg.LogPath, home)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v, want debug", cfg.LogLevel)
	}
	if cfg.SampleInterval != 250*time.Millisecond {
		t.Fatalf("SampleInterval = %v, want 250ms", cfg.SampleInterval)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("PollInterval = %v, want 30s", cfg.PollInterval)
	}
}

func TestLoad_SQLiteBackendDefaultsToDBPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(writeConfig(t, `state_backend = "sqlite"`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.StatePath != filepath.Join(home, ".local/share/spotter/state.db") {
		t.Fatalf("StatePath = %q, want state.db under data dir", cfg.StatePath)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(writeConfig(t, `
api_url = "   "
state_backend = ""
sample_interval_ms = 0
poll_seconds = -3
`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.StateBackend != "file" {
		t.Fatalf("StateBackend = %q, want file", cfg.StateBackend)
	}
	if cfg.SampleInterval != defaultSampleInterval || cfg.PollInterval != defaultPollInterval {
		t.Fatalf("intervals = %v/%v, want defaults", cfg.SampleInterval, cfg.PollInterval)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "invalid toml", body: `api_url = [`, want: "parse config"},
		{name: "unknown backend", body: `state_backend = "redis"`, want: "state_backend"},
		{name: "unknown level", body: `log_level = "chatty"`, want: "log_level"},
		{name: "negative workout", body: `workout_id = -1`, want: "workout_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatalf("Load returned nil error, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %q, want it to mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/a/b")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("ExpandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := ExpandPath("   "); err == nil {
		t.Fatalf("ExpandPath returned nil error, want error")
	}
}
