package application

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mudler/xlog"
	"github.com/vidgen/vidgen/core/config"
)

// presetWatcher reloads the preset directory whenever a YAML file in it
// changes.
type presetWatcher struct {
	watcher *fsnotify.Watcher
	loader  *config.PresetLoader

	appConfig *config.ApplicationConfig

	done     chan struct{}
	stopOnce sync.Once
}

func newPresetWatcher(appConfig *config.ApplicationConfig, loader *config.PresetLoader) *presetWatcher {
	return &presetWatcher{
		loader:    loader,
		appConfig: appConfig,
		done:      make(chan struct{}),
	}
}

func isPresetFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.HasSuffix(base, ".yaml") || strings.HasSuffix(base, ".yml")
}

func (c *presetWatcher) reload() {
	xlog.Debug("reloading presets", "path", c.appConfig.PresetsDir)
	if err := c.loader.LoadPresetsFromPath(c.appConfig.PresetsDir); err != nil {
		xlog.Error("preset watcher failed to reload presets", "error", err)
	}
}

func (c *presetWatcher) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	c.watcher = w

	if c.appConfig.PresetsPollInterval > 0 {
		xlog.Debug("Poll interval set, falling back to polling for preset changes")
		ticker := time.NewTicker(c.appConfig.PresetsPollInterval)
		go func() {
			defer ticker.Stop()
			for {
				select {
				case <-c.done:
					return
				case <-ticker.C:
					c.reload()
				}
			}
		}()
	}

	// Start listening for events.
	go func() {
		for {
			select {
			case event, ok := <-c.watcher.Events:
				if !ok {
					return
				}
				if !isPresetFile(event.Name) {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					c.reload()
				}
			case err, ok := <-c.watcher.Errors:
				if !ok {
					return
				}
				xlog.Error("preset watcher error received", "error", err)
			}
		}
	}()

	if err := c.watcher.Add(c.appConfig.PresetsDir); err != nil {
		_ = c.Stop()
		return fmt.Errorf("unable to create a watcher on the presets directory: %+v", err)
	}

	return nil
}

func (c *presetWatcher) Stop() error {
	var err error
	c.stopOnce.Do(func() {
		close(c.done)
		err = c.watcher.Close()
	})
	return err
}
