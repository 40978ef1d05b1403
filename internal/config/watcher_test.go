package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ringline/ringline/internal/config"
)

const watcherValidYAML = `
server:
  listen_addr: ":8080"
  log_level: info
calendar:
  postgres_dsn: "postgres://localhost/ringline"
`

const watcherUpdatedYAML = `
server:
  listen_addr: ":8080"
  log_level: debug
calendar:
  postgres_dsn: "postgres://localhost/ringline"
`

const watcherInvalidYAML = `
server:
  log_level: bananas
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %q: %v", path, err)
	}
}

func TestWatcher_InitialLoad(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	w, err := config.NewWatcher(cfgPath, nil, config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if got := w.Current().Server.LogLevel; got != config.LogInfo {
		t.Errorf("LogLevel = %q, want info", got)
	}
}

func TestWatcher_InitialLoadFailsOnInvalidConfig(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherInvalidYAML)

	if _, err := config.NewWatcher(cfgPath, nil); err == nil {
		t.Fatal("expected error for invalid initial config, got nil")
	}
}

func TestWatcher_DetectsChange(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	var mu sync.Mutex
	var gotNew *config.Config
	changed := make(chan struct{}, 1)

	w, err := config.NewWatcher(cfgPath, func(_, new *config.Config) {
		mu.Lock()
		gotNew = new
		mu.Unlock()
		select {
		case changed <- struct{}{}:
		default:
		}
	}, config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	// Backdate the mtime so the rewrite is guaranteed to look newer even on
	// filesystems with coarse timestamps.
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(cfgPath, past, past); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	writeFile(t, cfgPath, watcherUpdatedYAML)

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}

	mu.Lock()
	defer mu.Unlock()
	if gotNew.Server.LogLevel != config.LogDebug {
		t.Errorf("new LogLevel = %q, want debug", gotNew.Server.LogLevel)
	}
	if w.Current().Server.LogLevel != config.LogDebug {
		t.Errorf("Current LogLevel = %q, want debug", w.Current().Server.LogLevel)
	}
}

func TestWatcher_KeepsOldConfigOnInvalidReload(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	w, err := config.NewWatcher(cfgPath, func(_, _ *config.Config) {
		t.Error("onChange fired for an invalid config")
	}, config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(cfgPath, past, past); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	writeFile(t, cfgPath, watcherInvalidYAML)

	// Give the watcher a few poll cycles to (not) react.
	time.Sleep(100 * time.Millisecond)

	if got := w.Current().Server.LogLevel; got != config.LogInfo {
		t.Errorf("Current LogLevel = %q, want the previous valid value", got)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, watcherValidYAML)

	w, err := config.NewWatcher(cfgPath, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	w.Stop()
	w.Stop()
}
