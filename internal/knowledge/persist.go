package knowledge

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"grindbot/internal/game"
	"grindbot/internal/logging"
)

// knowledgeFile is the on-disk shape, human-readable YAML keyed by
// entity code.
type knowledgeFile struct {
	Monsters  map[string]*game.MonsterRecord  `yaml:"monsters"`
	Resources map[string]*game.ResourceRecord `yaml:"resources"`
	Items     map[string]*game.ItemRecord     `yaml:"items"`
	Workshops map[string]*game.WorkshopRecord `yaml:"workshops"`
}

// Save writes the knowledge base atomically (temp file + rename).
func (b *Base) Save(path string) error {
	b.mu.RLock()
	file := knowledgeFile{
		Monsters:  make(map[string]*game.MonsterRecord, len(b.monsters)),
		Resources: make(map[string]*game.ResourceRecord, len(b.resources)),
		Items:     make(map[string]*game.ItemRecord, len(b.items)),
		Workshops: make(map[string]*game.WorkshopRecord, len(b.workshops)),
	}
	for k, v := range b.monsters {
		file.Monsters[k] = v
	}
	for k, v := range b.resources {
		file.Resources[k] = v
	}
	for k, v := range b.items {
		file.Items[k] = v
	}
	for k, v := range b.workshops {
		file.Workshops[k] = v
	}
	b.mu.RUnlock()

	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal knowledge base: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write knowledge base: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit knowledge base: %w", err)
	}

	b.mu.Lock()
	b.dirty = false
	b.mu.Unlock()
	logging.Knowledge("saved knowledge (%d monsters, %d resources, %d items, %d workshops) to %s",
		len(file.Monsters), len(file.Resources), len(file.Items), len(file.Workshops), path)
	return nil
}

// Load reads a previously saved knowledge base, merging into the
// current (normally empty) store. A missing file yields empty stores.
func (b *Base) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read knowledge base: %w", err)
	}
	var file knowledgeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse knowledge base: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for k, v := range file.Monsters {
		b.monsters[k] = v
	}
	for k, v := range file.Resources {
		b.resources[k] = v
	}
	for k, v := range file.Items {
		b.items[k] = v
	}
	for k, v := range file.Workshops {
		b.workshops[k] = v
	}
	b.dirty = false
	logging.Knowledge("loaded knowledge from %s", path)
	return nil
}

// Dirty reports whether the base has unsaved changes.
func (b *Base) Dirty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dirty
}
