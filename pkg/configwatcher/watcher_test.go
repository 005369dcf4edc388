package configwatcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"edforge_backend/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	logger.Log = zap.NewNop()
}

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

func TestWatchFileReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "threshold: 50\n")

	reloaded := make(chan interface{}, 4)
	load := func(d string) (interface{}, error) {
		raw, err := os.ReadFile(filepath.Join(d, "config.yaml"))
		if err != nil {
			return nil, err
		}
		return string(raw), nil
	}

	go watchFile(path, 20*time.Millisecond, load, func(cfg interface{}) {
		reloaded <- cfg
	})

	// let the watcher register before the first write
	time.Sleep(100 * time.Millisecond)
	writeConfig(t, path, "threshold: 70\n")

	select {
	case cfg := <-reloaded:
		require.Equal(t, "threshold: 70\n", cfg)
	case <-time.After(3 * time.Second):
		t.Fatal("reload never fired after a config write")
	}

	// a second write must reload again; the debounce timer has to
	// re-arm cleanly after firing
	writeConfig(t, path, "threshold: 80\n")
	select {
	case cfg := <-reloaded:
		require.Equal(t, "threshold: 80\n", cfg)
	case <-time.After(3 * time.Second):
		t.Fatal("reload stopped firing after the first cycle")
	}
}

func TestWatchFileCoalescesBurstWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeConfig(t, path, "v: 0\n")

	reloaded := make(chan interface{}, 16)
	load := func(d string) (interface{}, error) {
		raw, err := os.ReadFile(filepath.Join(d, "config.yaml"))
		return string(raw), err
	}

	go watchFile(path, 150*time.Millisecond, load, func(cfg interface{}) {
		reloaded <- cfg
	})
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		writeConfig(t, path, "v: 1\n")
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case cfg := <-reloaded:
		require.Equal(t, "v: 1\n", cfg)
	case <-time.After(3 * time.Second):
		t.Fatal("reload never fired for the write burst")
	}

	// the burst collapses into one reload
	select {
	case <-reloaded:
		t.Fatal("burst writes produced more than one reload")
	case <-time.After(400 * time.Millisecond):
	}
}
