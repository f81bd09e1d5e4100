// Package kv is the small synchronous key-value surface spotter persists
// client-side state in (the rest countdown slot and presentation details).
//
// Values are process-local and survive restarts. They are never shared
// across devices. Three backends exist: Memory for tests and for the
// "memory" state backend, File (a TOML document) and SQLite.
package kv

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrClosed is returned by operations on a store that has been closed.
var ErrClosed = errors.New("kv: store closed")

// Store reads and writes string values by key. Get reports whether the key
// was present.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open builds the store for the named backend. path is ignored by the
// memory backend.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendMemory:
		return NewMemory(), nil
	case "", BackendFile:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("file backend requires a path")
		}
		return NewFile(path), nil
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unknown state backend %q", backend)
	}
}

// Close releases the store if it holds resources.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
