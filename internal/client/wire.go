package client

import (
	"time"

	"grindbot/internal/game"
)

// Wire DTOs mirror the server's flat JSON shapes and convert into the
// internal entity model. Equipment slots arrive as individual fields;
// the conversion folds them into the slot table form.

type wireCharacter struct {
	Name  string `json:"name"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	HP    int    `json:"hp"`
	MaxHP int    `json:"max_hp"`
	Level int    `json:"level"`
	XP    int    `json:"xp"`
	MaxXP int    `json:"max_xp"`
	Gold  int    `json:"gold"`

	MiningLevel          int `json:"mining_level"`
	WoodcuttingLevel     int `json:"woodcutting_level"`
	FishingLevel         int `json:"fishing_level"`
	WeaponcraftingLevel  int `json:"weaponcrafting_level"`
	GearcraftingLevel    int `json:"gearcrafting_level"`
	JewelrycraftingLevel int `json:"jewelrycrafting_level"`
	CookingLevel         int `json:"cooking_level"`
	AlchemyLevel         int `json:"alchemy_level"`

	WeaponSlot    string `json:"weapon_slot"`
	ShieldSlot    string `json:"shield_slot"`
	HelmetSlot    string `json:"helmet_slot"`
	BodyArmorSlot string `json:"body_armor_slot"`
	LegArmorSlot  string `json:"leg_armor_slot"`
	BootsSlot     string `json:"boots_slot"`
	Ring1Slot     string `json:"ring1_slot"`
	Ring2Slot     string `json:"ring2_slot"`
	AmuletSlot    string `json:"amulet_slot"`
	Artifact1Slot string `json:"artifact1_slot"`
	Artifact2Slot string `json:"artifact2_slot"`
	Artifact3Slot string `json:"artifact3_slot"`
	Utility1Slot  string `json:"utility1_slot"`
	Utility2Slot  string `json:"utility2_slot"`
	BagSlot       string `json:"bag_slot"`
	RuneSlot      string `json:"rune_slot"`

	Inventory         []game.InventorySlot `json:"inventory"`
	InventoryMaxItems int                  `json:"inventory_max_items"`

	CooldownExpiration time.Time `json:"cooldown_expiration"`
}

func (w wireCharacter) toCharacter() game.Character {
	equipment := map[game.Slot]string{
		game.SlotWeapon:    w.WeaponSlot,
		game.SlotShield:    w.ShieldSlot,
		game.SlotHelmet:    w.HelmetSlot,
		game.SlotBodyArmor: w.BodyArmorSlot,
		game.SlotLegArmor:  w.LegArmorSlot,
		game.SlotBoots:     w.BootsSlot,
		game.SlotRing1:     w.Ring1Slot,
		game.SlotRing2:     w.Ring2Slot,
		game.SlotAmulet:    w.AmuletSlot,
		game.SlotArtifact1: w.Artifact1Slot,
		game.SlotArtifact2: w.Artifact2Slot,
		game.SlotArtifact3: w.Artifact3Slot,
		game.SlotUtility1:  w.Utility1Slot,
		game.SlotUtility2:  w.Utility2Slot,
		game.SlotBag:       w.BagSlot,
		game.SlotRune:      w.RuneSlot,
	}
	inventory := make([]game.InventorySlot, 0, len(w.Inventory))
	for _, slot := range w.Inventory {
		if slot.Code == "" || slot.Quantity == 0 {
			continue
		}
		inventory = append(inventory, slot)
	}
	return game.Character{
		Name:  w.Name,
		X:     w.X,
		Y:     w.Y,
		HP:    w.HP,
		MaxHP: w.MaxHP,
		Level: w.Level,
		XP:    w.XP,
		MaxXP: w.MaxXP,
		Gold:  w.Gold,
		SkillLevels: map[game.Skill]int{
			game.SkillMining:          w.MiningLevel,
			game.SkillWoodcutting:     w.WoodcuttingLevel,
			game.SkillFishing:         w.FishingLevel,
			game.SkillWeaponcrafting:  w.WeaponcraftingLevel,
			game.SkillGearcrafting:    w.GearcraftingLevel,
			game.SkillJewelrycrafting: w.JewelrycraftingLevel,
			game.SkillCooking:         w.CookingLevel,
			game.SkillAlchemy:         w.AlchemyLevel,
		},
		Inventory:         inventory,
		InventoryMaxItems: w.InventoryMaxItems,
		Equipment:         equipment,
		CooldownExpiresAt: w.CooldownExpiration,
	}
}

type wireTile struct {
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Name    string `json:"name"`
	Content *struct {
		Type string `json:"type"`
		Code string `json:"code"`
	} `json:"content"`
}

func (w wireTile) toTile() game.MapTile {
	tile := game.MapTile{X: w.X, Y: w.Y, LastScanned: time.Now()}
	if w.Content != nil && w.Content.Code != "" {
		tile.Content = &game.TileContent{
			Type: game.ContentType(w.Content.Type),
			Code: w.Content.Code,
		}
	}
	return tile
}

type wireDrop struct {
	Code        string `json:"code"`
	Rate        int    `json:"rate"`
	MinQuantity int    `json:"min_quantity"`
	MaxQuantity int    `json:"max_quantity"`
}

func toDrops(in []wireDrop) []game.Drop {
	out := make([]game.Drop, len(in))
	for i, d := range in {
		out[i] = game.Drop{
			Code:        d.Code,
			Rate:        d.Rate,
			MinQuantity: d.MinQuantity,
			MaxQuantity: d.MaxQuantity,
		}
	}
	return out
}

type wireMonster struct {
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Level       int        `json:"level"`
	HP          int        `json:"hp"`
	AttackFire  int        `json:"attack_fire"`
	AttackEarth int        `json:"attack_earth"`
	AttackWater int        `json:"attack_water"`
	AttackAir   int        `json:"attack_air"`
	ResFire     int        `json:"res_fire"`
	ResEarth    int        `json:"res_earth"`
	ResWater    int        `json:"res_water"`
	ResAir      int        `json:"res_air"`
	Drops       []wireDrop `json:"drops"`
}

func (w wireMonster) toMonster() game.MonsterRecord {
	return game.MonsterRecord{
		Code:  w.Code,
		Name:  w.Name,
		Level: w.Level,
		HP:    w.HP,
		Attack: map[string]int{
			"fire": w.AttackFire, "earth": w.AttackEarth,
			"water": w.AttackWater, "air": w.AttackAir,
		},
		Resistance: map[string]int{
			"fire": w.ResFire, "earth": w.ResEarth,
			"water": w.ResWater, "air": w.ResAir,
		},
		Drops: toDrops(w.Drops),
	}
}

type wireResource struct {
	Code  string     `json:"code"`
	Name  string     `json:"name"`
	Skill string     `json:"skill"`
	Level int        `json:"level"`
	Drops []wireDrop `json:"drops"`
}

func (w wireResource) toResource() game.ResourceRecord {
	return game.ResourceRecord{
		Code:       w.Code,
		Name:       w.Name,
		Skill:      game.Skill(w.Skill),
		SkillLevel: w.Level,
		Drops:      toDrops(w.Drops),
	}
}

type wireItem struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Subtype string `json:"subtype"`
	Level   int    `json:"level"`
	Effects []struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	} `json:"effects"`
	Craft *struct {
		Skill    string                 `json:"skill"`
		Level    int                    `json:"level"`
		Items    []game.CraftIngredient `json:"items"`
		Quantity int                    `json:"quantity"`
	} `json:"craft"`
}

func (w wireItem) toItem() game.ItemRecord {
	item := game.ItemRecord{
		Code:    w.Code,
		Name:    w.Name,
		Type:    game.ItemType(w.Type),
		Subtype: w.Subtype,
		Level:   w.Level,
	}
	for _, e := range w.Effects {
		item.Effects = append(item.Effects, game.ItemEffect{Name: e.Name, Value: e.Value})
	}
	if w.Craft != nil {
		qty := w.Craft.Quantity
		if qty == 0 {
			qty = 1
		}
		item.Craft = &game.CraftData{
			Skill:    game.Skill(w.Craft.Skill),
			Level:    w.Craft.Level,
			Items:    w.Craft.Items,
			Quantity: qty,
		}
	}
	return item
}

type wireFight struct {
	Result string               `json:"result"`
	XP     int                  `json:"xp"`
	Gold   int                  `json:"gold"`
	Drops  []game.InventorySlot `json:"drops"`
	Turns  int                  `json:"turns"`
}

func (w wireFight) toReport() game.FightReport {
	result := game.CombatLoss
	if w.Result == "win" {
		result = game.CombatWin
	}
	return game.FightReport{
		Result: result,
		XP:     w.XP,
		Gold:   w.Gold,
		Drops:  w.Drops,
		Turns:  w.Turns,
	}
}
