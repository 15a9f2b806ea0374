package worldmap

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"grindbot/internal/game"
	"grindbot/internal/logging"
)

// mapFile is the on-disk shape: tiles keyed "x,y" plus learned
// boundaries, human-readable YAML.
type mapFile struct {
	Tiles      map[string]game.MapTile `yaml:"tiles"`
	LimitEast  *int                    `yaml:"limit_east,omitempty"`
	LimitWest  *int                    `yaml:"limit_west,omitempty"`
	LimitNorth *int                    `yaml:"limit_north,omitempty"`
	LimitSouth *int                    `yaml:"limit_south,omitempty"`
	Rejected   []string                `yaml:"rejected,omitempty"`
}

// Save writes the cache atomically (temp file + rename). A reader never
// observes a partially written store.
func (c *Cache) Save(path string) error {
	c.mu.RLock()
	file := mapFile{
		Tiles:      make(map[string]game.MapTile, len(c.tiles)),
		LimitEast:  c.limitEast,
		LimitWest:  c.limitWest,
		LimitNorth: c.limitNorth,
		LimitSouth: c.limitSouth,
	}
	for k, t := range c.tiles {
		file.Tiles[k] = t
	}
	for k := range c.rejected {
		file.Rejected = append(file.Rejected, k)
	}
	c.mu.RUnlock()

	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal map cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write map cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit map cache: %w", err)
	}

	c.mu.Lock()
	c.dirty = false
	c.mu.Unlock()
	logging.Worldmap("saved %d tiles to %s", len(file.Tiles), path)
	return nil
}

// Load reads a previously saved cache. A missing file yields an empty
// cache, not an error.
func (c *Cache) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read map cache: %w", err)
	}
	var file mapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse map cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for k, t := range file.Tiles {
		c.tiles[k] = t
	}
	c.limitEast = file.LimitEast
	c.limitWest = file.LimitWest
	c.limitNorth = file.LimitNorth
	c.limitSouth = file.LimitSouth
	for _, k := range file.Rejected {
		c.rejected[k] = struct{}{}
	}
	c.dirty = false
	logging.Worldmap("loaded %d tiles from %s", len(c.tiles), path)
	return nil
}

// Dirty reports whether the cache has unsaved changes.
func (c *Cache) Dirty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dirty
}
