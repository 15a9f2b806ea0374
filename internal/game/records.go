package game

// Drop is one possible yield from a monster kill or resource gather.
// Rate is the server's 1-in-N drop chance.
type Drop struct {
	Code        string `json:"code" yaml:"code"`
	Rate        int    `json:"rate,omitempty" yaml:"rate,omitempty"`
	MinQuantity int    `json:"min_quantity" yaml:"min_quantity"`
	MaxQuantity int    `json:"max_quantity" yaml:"max_quantity"`
}

// CombatOutcome is the result of one recorded fight.
type CombatOutcome string

const (
	CombatWin  CombatOutcome = "win"
	CombatLoss CombatOutcome = "loss"
)

// CombatResult is one entry in a monster's combat history.
type CombatResult struct {
	Result CombatOutcome `json:"result" yaml:"result"`
	HPLost int           `json:"hp_lost" yaml:"hp_lost"`
}

// MonsterRecord is the accumulated knowledge about one monster type.
// Locations and combat history grow as the agent observes; they are
// merged, never replaced.
type MonsterRecord struct {
	Code  string `json:"code" yaml:"code"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Level int    `json:"level" yaml:"level"`
	HP    int    `json:"hp" yaml:"hp"`

	// Per-element attack and resistance values keyed by element name
	// (fire, earth, water, air).
	Attack     map[string]int `json:"attack,omitempty" yaml:"attack,omitempty"`
	Resistance map[string]int `json:"resistance,omitempty" yaml:"resistance,omitempty"`

	Drops     []Drop         `json:"drops,omitempty" yaml:"drops,omitempty"`
	Locations []Point        `json:"locations,omitempty" yaml:"locations,omitempty"`
	Combat    []CombatResult `json:"combat_results,omitempty" yaml:"combat_results,omitempty"`
}

// WinRate returns the observed win fraction and whether enough samples
// exist to trust it. Below minSamples the monster is "unknown".
func (m *MonsterRecord) WinRate(minSamples int) (float64, bool) {
	if len(m.Combat) < minSamples {
		return 0, false
	}
	wins := 0
	for _, r := range m.Combat {
		if r.Result == CombatWin {
			wins++
		}
	}
	return float64(wins) / float64(len(m.Combat)), true
}

// AverageHPLost returns the mean HP lost per recorded fight.
func (m *MonsterRecord) AverageHPLost() float64 {
	if len(m.Combat) == 0 {
		return 0
	}
	total := 0
	for _, r := range m.Combat {
		total += r.HPLost
	}
	return float64(total) / float64(len(m.Combat))
}

// ResourceRecord is the accumulated knowledge about one gatherable
// resource node type.
type ResourceRecord struct {
	Code       string `json:"code" yaml:"code"`
	Name       string `json:"name,omitempty" yaml:"name,omitempty"`
	Skill      Skill  `json:"skill" yaml:"skill"`
	SkillLevel int    `json:"skill_level" yaml:"skill_level"`

	Drops     []Drop  `json:"drops,omitempty" yaml:"drops,omitempty"`
	Locations []Point `json:"locations,omitempty" yaml:"locations,omitempty"`

	// BestLocations is a pruned shortlist ordered by observed yield;
	// the only knowledge field that may shrink.
	BestLocations []Point `json:"best_locations,omitempty" yaml:"best_locations,omitempty"`
}

// DropsMaterial reports whether gathering this resource can yield the
// material code.
func (r *ResourceRecord) DropsMaterial(code string) bool {
	for _, d := range r.Drops {
		if d.Code == code {
			return true
		}
	}
	return false
}

// ItemType classifies items for equipment and crafting decisions.
type ItemType string

const (
	ItemTypeWeapon     ItemType = "weapon"
	ItemTypeShield     ItemType = "shield"
	ItemTypeHelmet     ItemType = "helmet"
	ItemTypeBodyArmor  ItemType = "body_armor"
	ItemTypeLegArmor   ItemType = "leg_armor"
	ItemTypeBoots      ItemType = "boots"
	ItemTypeRing       ItemType = "ring"
	ItemTypeAmulet     ItemType = "amulet"
	ItemTypeArtifact   ItemType = "artifact"
	ItemTypeUtility    ItemType = "utility"
	ItemTypeResource   ItemType = "resource"
	ItemTypeConsumable ItemType = "consumable"
	ItemTypeCurrency   ItemType = "currency"
	ItemTypeOther      ItemType = "other"
)

// ItemEffect is one stat effect carried by an item.
type ItemEffect struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

// CraftIngredient is one material line in a recipe.
type CraftIngredient struct {
	Code     string `json:"code" yaml:"code"`
	Quantity int    `json:"quantity" yaml:"quantity"`
}

// CraftData is an item's recipe: which workshop skill produces it, at
// what level, from which materials.
type CraftData struct {
	Skill    Skill             `json:"skill" yaml:"skill"`
	Level    int               `json:"level" yaml:"level"`
	Items    []CraftIngredient `json:"items" yaml:"items"`
	Quantity int               `json:"quantity" yaml:"quantity"`
}

// ItemRecord is the accumulated knowledge about one item.
type ItemRecord struct {
	Code    string       `json:"code" yaml:"code"`
	Name    string       `json:"name,omitempty" yaml:"name,omitempty"`
	Type    ItemType     `json:"type" yaml:"type"`
	Subtype string       `json:"subtype,omitempty" yaml:"subtype,omitempty"`
	Level   int          `json:"level" yaml:"level"`
	Effects []ItemEffect `json:"effects,omitempty" yaml:"effects,omitempty"`

	// Craft is nil for items that cannot be crafted.
	Craft *CraftData `json:"craft,omitempty" yaml:"craft,omitempty"`

	// Sources lists resource codes known to drop this item.
	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`

	// DoesNotExist marks codes the server answered 404 for, so they are
	// never re-queried.
	DoesNotExist bool `json:"does_not_exist,omitempty" yaml:"does_not_exist,omitempty"`
}

// SlotCategoryFor maps an item type to the slot category it equips into.
// Returns false for non-equippable types.
func SlotCategoryFor(t ItemType) (SlotCategory, bool) {
	switch t {
	case ItemTypeWeapon:
		return SlotCategoryWeapon, true
	case ItemTypeShield, ItemTypeHelmet, ItemTypeBodyArmor, ItemTypeLegArmor, ItemTypeBoots:
		return SlotCategoryArmor, true
	case ItemTypeRing, ItemTypeAmulet:
		return SlotCategoryJewelry, true
	case ItemTypeArtifact:
		return SlotCategoryArtifact, true
	case ItemTypeUtility:
		return SlotCategoryUtility, true
	default:
		return "", false
	}
}

// SlotForItemType returns the concrete slot an item type occupies when
// the category has a single slot, or the first free slot otherwise.
func SlotForItemType(t ItemType, c *Character) (Slot, bool) {
	switch t {
	case ItemTypeWeapon:
		return SlotWeapon, true
	case ItemTypeShield:
		return SlotShield, true
	case ItemTypeHelmet:
		return SlotHelmet, true
	case ItemTypeBodyArmor:
		return SlotBodyArmor, true
	case ItemTypeLegArmor:
		return SlotLegArmor, true
	case ItemTypeBoots:
		return SlotBoots, true
	case ItemTypeAmulet:
		return SlotAmulet, true
	case ItemTypeRing:
		if c != nil {
			if slot, ok := c.FreeSlotFor(SlotCategoryJewelry); ok && (slot == SlotRing1 || slot == SlotRing2) {
				return slot, true
			}
		}
		return SlotRing1, true
	case ItemTypeArtifact:
		if c != nil {
			if slot, ok := c.FreeSlotFor(SlotCategoryArtifact); ok {
				return slot, true
			}
		}
		return SlotArtifact1, true
	case ItemTypeUtility:
		if c != nil {
			if slot, ok := c.FreeSlotFor(SlotCategoryUtility); ok {
				return slot, true
			}
		}
		return SlotUtility1, true
	default:
		return "", false
	}
}

// WorkshopRecord is the accumulated knowledge about one workshop type.
// The code doubles as the crafting skill practiced there.
type WorkshopRecord struct {
	Code      string  `json:"code" yaml:"code"`
	Skill     Skill   `json:"skill" yaml:"skill"`
	Locations []Point `json:"locations,omitempty" yaml:"locations,omitempty"`
}

// FightReport summarizes one attack response from the server.
type FightReport struct {
	Result CombatOutcome   `json:"result" yaml:"result"`
	XP     int             `json:"xp" yaml:"xp"`
	Gold   int             `json:"gold" yaml:"gold"`
	Drops  []InventorySlot `json:"drops,omitempty" yaml:"drops,omitempty"`
	Turns  int             `json:"turns" yaml:"turns"`
}
