// Package prefs keeps the choices a user makes inside the TUI (theme and
// completion bell) in ~/.config/spotter/prefs.toml. Unlike config.toml the
// file is written by spotter itself, and a damaged file never stops the
// program: it reads as the defaults and is replaced on the next save.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/spotter/internal/config"
)

// Prefs are the persisted UI choices.
type Prefs struct {
	Theme string `toml:"theme"`
	// Bell rings the terminal bell when a rest countdown finishes.
	Bell bool `toml:"bell"`
}

const (
	defaultPrefsPath = "~/.config/spotter/prefs.toml"
	defaultTheme     = "Nightfox"
	defaultBell      = true
)

// DefaultPath is used when no path is given.
func DefaultPath() string {
	return defaultPrefsPath
}

func defaults() Prefs {
	return Prefs{Theme: defaultTheme, Bell: defaultBell}
}

// Load returns the preferences at path, or DefaultPath when path is blank.
// Keys absent from the file keep their defaults. A missing, unreadable or
// malformed file yields the defaults and no error.
func Load(path string) (Prefs, error) {
	p := defaults()

	resolved, err := resolve(path)
	if err != nil {
		return p, nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return p, nil
	}
	if err := toml.Unmarshal(data, &p); err != nil {
		return defaults(), nil
	}
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = defaultTheme
	}
	return p, nil
}

// Save replaces the file at path with p. The document is written to a
// sibling temp file first so a crash never leaves a truncated file.
func Save(path string, p Prefs) error {
	resolved, err := resolve(path)
	if err != nil {
		return fmt.Errorf("resolve prefs path: %w", err)
	}
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	tmp := resolved + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, resolved); err != nil {
		return errors.Join(fmt.Errorf("replace prefs: %w", err), os.Remove(tmp))
	}
	return nil
}

func resolve(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	return config.ExpandPath(path)
}
