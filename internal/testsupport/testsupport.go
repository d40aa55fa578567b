// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"descant/internal/assets"
	"descant/internal/config"
	"descant/internal/store"
)

// NewConfig returns a validated configuration rooted in a per-test temp
// directory.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.UploadDir = filepath.Join(root, "uploads")
	cfg.Paths.DataDir = filepath.Join(root, "data")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate config: %v", err)
	}
	return &cfg
}

// OpenStore opens a fresh SQLite store in a temp directory and closes it
// when the test finishes.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.OpenPath(context.Background(), filepath.Join(t.TempDir(), "descant.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return st
}

// NewStorage creates asset storage in a temp directory.
func NewStorage(t *testing.T) *assets.Storage {
	t.Helper()
	storage, err := assets.NewStorage(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("create asset storage: %v", err)
	}
	return storage
}
