// Package game defines the entity model shared by every subsystem:
// character snapshots read from the server, map tiles, and the learned
// records (monsters, resources, items, workshops) the knowledge base
// accumulates. Entities reference each other by string code, never by
// pointer; the knowledge base resolves codes to records on demand.
package game

import "time"

// Skill names the character's trainable skills.
type Skill string

const (
	SkillMining         Skill = "mining"
	SkillWoodcutting    Skill = "woodcutting"
	SkillFishing        Skill = "fishing"
	SkillWeaponcrafting Skill = "weaponcrafting"
	SkillGearcrafting   Skill = "gearcrafting"
	SkillJewelrycrafting Skill = "jewelrycrafting"
	SkillCooking        Skill = "cooking"
	SkillAlchemy        Skill = "alchemy"
)

// AllSkills lists every trainable skill in a stable order.
var AllSkills = []Skill{
	SkillMining, SkillWoodcutting, SkillFishing,
	SkillWeaponcrafting, SkillGearcrafting, SkillJewelrycrafting,
	SkillCooking, SkillAlchemy,
}

// GatheringSkills are the skills exercised by the gather endpoint.
var GatheringSkills = []Skill{SkillMining, SkillWoodcutting, SkillFishing, SkillAlchemy}

// CraftingSkills are the skills exercised at workshops.
var CraftingSkills = []Skill{
	SkillWeaponcrafting, SkillGearcrafting, SkillJewelrycrafting,
	SkillCooking, SkillAlchemy,
}

// Slot identifies an equipment slot on the character.
type Slot string

const (
	SlotWeapon    Slot = "weapon"
	SlotShield    Slot = "shield"
	SlotHelmet    Slot = "helmet"
	SlotBodyArmor Slot = "body_armor"
	SlotLegArmor  Slot = "leg_armor"
	SlotBoots     Slot = "boots"
	SlotRing1     Slot = "ring1"
	SlotRing2     Slot = "ring2"
	SlotAmulet    Slot = "amulet"
	SlotArtifact1 Slot = "artifact1"
	SlotArtifact2 Slot = "artifact2"
	SlotArtifact3 Slot = "artifact3"
	SlotUtility1  Slot = "utility1"
	SlotUtility2  Slot = "utility2"
	SlotBag       Slot = "bag"
	SlotRune      Slot = "rune"
)

// SlotCategory groups slots by the item type they accept.
type SlotCategory string

const (
	SlotCategoryWeapon   SlotCategory = "weapon"
	SlotCategoryArmor    SlotCategory = "armor"
	SlotCategoryJewelry  SlotCategory = "jewelry"
	SlotCategoryArtifact SlotCategory = "artifact"
	SlotCategoryUtility  SlotCategory = "utility"
	SlotCategoryStorage  SlotCategory = "storage"
)

// SlotTable enumerates every equipment slot with its semantic category.
// The source of truth for slot iteration; nothing discovers slots by
// reflection or name suffix.
var SlotTable = []struct {
	Slot     Slot
	Category SlotCategory
}{
	{SlotWeapon, SlotCategoryWeapon},
	{SlotShield, SlotCategoryArmor},
	{SlotHelmet, SlotCategoryArmor},
	{SlotBodyArmor, SlotCategoryArmor},
	{SlotLegArmor, SlotCategoryArmor},
	{SlotBoots, SlotCategoryArmor},
	{SlotRing1, SlotCategoryJewelry},
	{SlotRing2, SlotCategoryJewelry},
	{SlotAmulet, SlotCategoryJewelry},
	{SlotArtifact1, SlotCategoryArtifact},
	{SlotArtifact2, SlotCategoryArtifact},
	{SlotArtifact3, SlotCategoryArtifact},
	{SlotUtility1, SlotCategoryUtility},
	{SlotUtility2, SlotCategoryUtility},
	{SlotBag, SlotCategoryStorage},
	{SlotRune, SlotCategoryStorage},
}

// InventorySlot is one stack in the character's inventory.
type InventorySlot struct {
	Code     string `json:"code" yaml:"code"`
	Quantity int    `json:"quantity" yaml:"quantity"`
}

// Character is a point-in-time snapshot read from the server. It is
// treated as read-only between a plan's construction and its first
// action; any action that mutates the character refreshes the snapshot.
type Character struct {
	Name  string `json:"name" yaml:"name"`
	X     int    `json:"x" yaml:"x"`
	Y     int    `json:"y" yaml:"y"`
	HP    int    `json:"hp" yaml:"hp"`
	MaxHP int    `json:"max_hp" yaml:"max_hp"`
	Level int    `json:"level" yaml:"level"`
	XP    int    `json:"xp" yaml:"xp"`
	MaxXP int    `json:"max_xp" yaml:"max_xp"`
	Gold  int    `json:"gold" yaml:"gold"`

	// Per-skill levels, keyed by Skill.
	SkillLevels map[Skill]int `json:"skill_levels" yaml:"skill_levels"`

	Inventory        []InventorySlot `json:"inventory" yaml:"inventory"`
	InventoryMaxItems int            `json:"inventory_max_items" yaml:"inventory_max_items"`

	// Equipment holds the item code equipped in each slot; empty string
	// means the slot is free.
	Equipment map[Slot]string `json:"equipment" yaml:"equipment"`

	CooldownExpiresAt time.Time `json:"cooldown_expires_at" yaml:"cooldown_expires_at"`
}

// SkillLevel returns the character's level in a skill, zero if unknown.
func (c *Character) SkillLevel(s Skill) int {
	if c.SkillLevels == nil {
		return 0
	}
	return c.SkillLevels[s]
}

// InventoryCount returns the total quantity of an item code held in
// inventory.
func (c *Character) InventoryCount(code string) int {
	total := 0
	for _, slot := range c.Inventory {
		if slot.Code == code {
			total += slot.Quantity
		}
	}
	return total
}

// InventoryTotal returns the total number of items across all stacks.
func (c *Character) InventoryTotal() int {
	total := 0
	for _, slot := range c.Inventory {
		total += slot.Quantity
	}
	return total
}

// HasEquipped reports whether the item code is equipped in any slot.
func (c *Character) HasEquipped(code string) (Slot, bool) {
	for _, entry := range SlotTable {
		if c.Equipment[entry.Slot] == code {
			return entry.Slot, true
		}
	}
	return "", false
}

// FreeSlotFor returns the first free slot accepting the given category,
// or false when all are occupied.
func (c *Character) FreeSlotFor(cat SlotCategory) (Slot, bool) {
	for _, entry := range SlotTable {
		if entry.Category != cat {
			continue
		}
		if c.Equipment[entry.Slot] == "" {
			return entry.Slot, true
		}
	}
	return "", false
}

// HPRatio returns current HP as a fraction of max, zero-safe.
func (c *Character) HPRatio() float64 {
	if c.MaxHP <= 0 {
		return 0
	}
	return float64(c.HP) / float64(c.MaxHP)
}

// At reports whether the character stands on the given coordinates.
func (c *Character) At(x, y int) bool {
	return c.X == x && c.Y == y
}
