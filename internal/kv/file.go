package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	toml "github.com/pelletier/go-toml/v2"
)

// File stores values in a TOML document on disk. Every call reads or
// rewrites the whole document, so a second process sharing the path sees
// writes immediately (last writer wins).
type File struct {
	mu          sync.Mutex
	path        string
	retryConfig retry.Config
}

type fileDocument struct {
	Values map[string]string `toml:"values"`
}

// NewFile returns a store backed by the TOML file at path. The file and its
// directory are created on first write.
func NewFile(path string) *File {
	return &File{
		path: path,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Path returns the document location.
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return "", false, err
	}
	v, ok := doc.Values[key]
	return v, ok, nil
}

func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	doc.Values[key] = value
	return f.write(doc)
}

func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Values[key]; !ok {
		return nil
	}
	delete(doc.Values, key)
	return f.write(doc)
}

// read retries only the file IO. A document that does not parse is
// returned as an error right away.
func (f *File) read() (fileDocument, error) {
	retryer := retry.New[[]byte](f.retryConfig)
	data, err := retryer.Do(context.Background(), func(ctx context.Context) ([]byte, error) {
		data, err := os.ReadFile(f.path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return data, err
	})
	if err != nil {
		return fileDocument{}, fmt.Errorf("read state file: %w", err)
	}

	doc := fileDocument{Values: make(map[string]string)}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fileDocument{}, fmt.Errorf("parse state file: %w", err)
	}
	if doc.Values == nil {
		doc.Values = make(map[string]string)
	}
	return doc, nil
}

func (f *File) write(doc fileDocument) error {
	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal state file: %w", err)
	}

	retryer := retry.New[struct{}](f.retryConfig)
	_, err = retryer.Do(context.Background(), func(ctx context.Context) (struct{}, error) {
		if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
			return struct{}{}, fmt.Errorf("create state dir: %w", err)
		}
		tmp := f.path + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err != nil {
			return struct{}{}, fmt.Errorf("write state file: %w", err)
		}
		if err := os.Rename(tmp, f.path); err != nil {
			return struct{}{}, fmt.Errorf("replace state file: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}
