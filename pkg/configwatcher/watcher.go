package configwatcher

import (
	"log"
	"path/filepath"
	"time"

	"edforge_backend/internal/config"
	"edforge_backend/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type ConfigReloader func(cfg interface{})

// WatchConfig reloads the config file on change and hands the result
// to the reloader. Blocks; run in a goroutine.
func WatchConfig(configPath string, cfg interface{}, reloader ConfigReloader) {
	loader := func(dir string) (interface{}, error) {
		return config.LoadConfig(dir)
	}
	watchFile(configPath, time.Second, loader, reloader)
}

func watchFile(configPath string, debounce time.Duration, load func(dir string) (interface{}, error), reloader ConfigReloader) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatal("Failed to create config watcher:", err)
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		log.Fatal("Failed to get absolute path:", err)
	}

	if err := watcher.Add(absPath); err != nil {
		log.Fatal("Failed to watch config file:", err)
	}

	// timer starts disarmed; each write re-arms the debounce window
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				// 防抖处理
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}
		case <-timer.C:
			dirPath := filepath.Dir(configPath)
			newCfg, err := load(dirPath)
			if err != nil {
				logger.Log.Error("Failed to reload config", zap.Error(err))
				continue
			}
			reloader(newCfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Log.Error("Config watcher error", zap.Error(err))
		}
	}
}
