package knowledge

import (
	"grindbot/internal/game"
)

// Heuristic capabilities: booleans derived live from the character
// snapshot and current knowledge, never persisted flags. GOAP
// preconditions that claim "has item" or "at workshop" are backed by
// these, so the planner can never act on stale state.

// HasTargetItem reports whether the character holds or wears the item.
func (b *Base) HasTargetItem(c *game.Character, itemCode string) bool {
	if c == nil || itemCode == "" {
		return false
	}
	if c.InventoryCount(itemCode) > 0 {
		return true
	}
	_, equipped := c.HasEquipped(itemCode)
	return equipped
}

// HasMaterials reports whether the inventory covers every required
// material quantity.
func (b *Base) HasMaterials(c *game.Character, required map[string]int) bool {
	if c == nil {
		return false
	}
	for code, qty := range required {
		if c.InventoryCount(code) < qty {
			return false
		}
	}
	return true
}

// IsAtWorkshop reports whether the character stands on a known workshop
// for the given crafting skill.
func (b *Base) IsAtWorkshop(c *game.Character, skill game.Skill) bool {
	if c == nil || skill == "" {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, w := range b.workshops {
		if w.Skill != skill {
			continue
		}
		for _, p := range w.Locations {
			if c.At(p.X, p.Y) {
				return true
			}
		}
	}
	return false
}

// IsAtResourceLocation reports whether the character stands on a known
// location of any resource that drops the target material.
func (b *Base) IsAtResourceLocation(c *game.Character, material string) bool {
	if c == nil || material == "" {
		return false
	}
	for _, code := range b.FindResourcesForMaterial(material) {
		b.mu.RLock()
		rec, ok := b.resources[code]
		if ok {
			for _, p := range rec.Locations {
				if c.At(p.X, p.Y) {
					b.mu.RUnlock()
					return true
				}
			}
		}
		b.mu.RUnlock()
	}
	return false
}

// IsAtMonsterLocation reports whether the character stands on a known
// location of the monster.
func (b *Base) IsAtMonsterLocation(c *game.Character, code string) bool {
	if c == nil || code == "" {
		return false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.monsters[code]
	if !ok {
		return false
	}
	for _, p := range rec.Locations {
		if c.At(p.X, p.Y) {
			return true
		}
	}
	return false
}

// CanCraft reports whether the character's skill level meets an item's
// recipe requirement. False for unknown or uncraftable items.
func (b *Base) CanCraft(c *game.Character, itemCode string) bool {
	b.mu.RLock()
	item, ok := b.items[itemCode]
	b.mu.RUnlock()
	if !ok || item.Craft == nil || c == nil {
		return false
	}
	return c.SkillLevel(item.Craft.Skill) >= item.Craft.Level
}
