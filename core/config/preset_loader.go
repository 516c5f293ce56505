package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mudler/xlog"
)

// PresetLoader keeps the presets found in a directory, keyed by name.
type PresetLoader struct {
	presets map[string]Preset
	sync.Mutex
}

func NewPresetLoader() *PresetLoader {
	return &PresetLoader{
		presets: make(map[string]Preset),
	}
}

func (pl *PresetLoader) GetPreset(name string) (Preset, bool) {
	pl.Lock()
	defer pl.Unlock()
	p, ok := pl.presets[name]
	return p, ok
}

func (pl *PresetLoader) ListPresets() []Preset {
	pl.Lock()
	defer pl.Unlock()
	res := make([]Preset, 0, len(pl.presets))
	for _, p := range pl.presets {
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

func (pl *PresetLoader) RemovePreset(name string) {
	pl.Lock()
	defer pl.Unlock()
	delete(pl.presets, name)
}

func (pl *PresetLoader) LoadPresetFile(file string) error {
	p, err := ReadPresetFile(file)
	if err != nil {
		return err
	}
	pl.Lock()
	defer pl.Unlock()
	pl.presets[p.Name] = *p
	return nil
}

// LoadPresetsFromPath replaces the known presets with the *.yaml/*.yml files
// in path. Broken files are logged and skipped.
func (pl *PresetLoader) LoadPresetsFromPath(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return err
	}

	loaded := make(map[string]Preset)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		p, err := ReadPresetFile(filepath.Join(path, name))
		if err != nil {
			xlog.Error("cannot read preset file", "error", err, "file", name)
			continue
		}
		loaded[p.Name] = *p
	}

	pl.Lock()
	pl.presets = loaded
	pl.Unlock()

	xlog.Debug("presets loaded", "path", path, "count", len(loaded))
	return nil
}
