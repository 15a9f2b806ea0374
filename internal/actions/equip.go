package actions

import (
	"context"
	"fmt"

	"grindbot/internal/client"
	"grindbot/internal/clienterr"
	"grindbot/internal/game"
	"grindbot/internal/logging"
	"grindbot/internal/state"
)

// NewAnalyzeEquipmentAction scans the inventory for equippable items
// that beat what is currently worn, by item level per slot. The best
// upgrade becomes the context target.
func NewAnalyzeEquipmentAction() *Descriptor {
	return &Descriptor{
		Name: "analyze_equipment",
		Preconditions: state.From(map[string]any{
			KeyAlive:           true,
			KeyEquipmentStatus: EquipmentUnknown,
		}),
		Effects: state.From(map[string]any{
			KeyEquipmentStatus: EquipmentAnalyzed,
		}),
		Weight: WeightAnalyze,
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			char := actx.Character
			if char == nil {
				return Failf(clienterr.KindValidation, "no character snapshot on context")
			}

			type candidate struct {
				code string
				slot game.Slot
				gain int
			}
			var best *candidate
			for _, stack := range char.Inventory {
				item, err := actx.Knowledge.GetItem(ctx, stack.Code)
				if err != nil {
					continue
				}
				slot, ok := game.SlotForItemType(item.Type, char)
				if !ok {
					continue
				}
				currentLevel := 0
				if worn := char.Equipment[slot]; worn != "" {
					if wornItem, err := actx.Knowledge.GetItem(ctx, worn); err == nil {
						currentLevel = wornItem.Level
					}
				}
				gain := item.Level - currentLevel
				if gain <= 0 {
					continue
				}
				if best == nil || gain > best.gain ||
					(gain == best.gain && item.Code < best.code) {
					best = &candidate{code: item.Code, slot: slot, gain: gain}
				}
			}

			if best == nil {
				r := Ok(state.From(map[string]any{
					KeyEquipmentStatus: EquipmentEquipped,
				}))
				return r.WithData("upgrade_found", false)
			}

			actx.Target.Kind = TargetItem
			actx.Target.ItemCode = best.code
			logging.Actions("equipment analysis: %s upgrades %s slot (+%d levels)",
				best.code, best.slot, best.gain)
			r := Ok(state.From(map[string]any{
				KeyEquipmentStatus: EquipmentAnalyzed,
			}))
			return r.WithData("upgrade_found", true).
				WithData("item", best.code).
				WithData("slot", string(best.slot)).
				WithData("gain", best.gain)
		},
	}
}

// NewEquipItemAction equips the target item, unequipping whatever
// occupies the slot first.
func NewEquipItemAction() *Descriptor {
	return &Descriptor{
		Name: "equip_item",
		Preconditions: state.From(map[string]any{
			KeyEquipmentStatus: EquipmentAnalyzed,
		}),
		Effects: state.From(map[string]any{
			KeyEquipmentStatus: EquipmentEquipped,
		}),
		Weight: WeightEquip,
		Bind: func(actx *Context) error {
			return requireTarget("target.item_code", actx.Target.ItemCode)
		},
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			item, err := actx.Knowledge.GetItem(ctx, actx.Target.ItemCode)
			if err != nil {
				return Fail(err)
			}
			slot, ok := game.SlotForItemType(item.Type, actx.Character)
			if !ok {
				return Failf(clienterr.KindRejected,
					fmt.Sprintf("item %s (%s) is not equippable", item.Code, item.Type))
			}

			char := actx.Character
			if char != nil && char.Equipment[slot] != "" {
				unequipped, err := gc.Unequip(ctx, actx.CharacterName, slot, 1)
				if err != nil {
					return Fail(err)
				}
				char = &unequipped.Character
				actx.Character = char
				armContextGate(actx, unequipped.Cooldown.Seconds, unequipped.Cooldown.ExpiresAt)
				if err := waitForCooldown(ctx, actx); err != nil {
					return Fail(err)
				}
			}

			resp, err := gc.Equip(ctx, actx.CharacterName, item.Code, slot)
			if err != nil {
				return Fail(err)
			}
			logging.Actions("%s equipped %s in %s", actx.CharacterName, item.Code, slot)

			r := Ok(state.From(map[string]any{
				KeyEquipmentStatus: EquipmentEquipped,
			}))
			return r.WithCharacter(&resp.Character).
				WithCooldown(resp.Cooldown.Seconds, resp.Cooldown.ExpiresAt).
				WithData("item", item.Code).
				WithData("slot", string(slot))
		},
	}
}

// NewUnequipItemAction frees the slot holding the target item. Mostly
// invoked directly by diagnostics; plans rarely need a bare unequip.
func NewUnequipItemAction() *Descriptor {
	return &Descriptor{
		Name: "unequip_item",
		Preconditions: state.From(map[string]any{
			KeyAlive: true,
		}),
		Effects: state.From(map[string]any{
			KeyEquipmentStatus: EquipmentUnknown,
		}),
		Weight: WeightEquip,
		Bind: func(actx *Context) error {
			return requireTarget("target.item_code", actx.Target.ItemCode)
		},
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			char := actx.Character
			if char == nil {
				return Failf(clienterr.KindValidation, "no character snapshot on context")
			}
			slot, equipped := char.HasEquipped(actx.Target.ItemCode)
			if !equipped {
				return Failf(clienterr.KindValidation,
					fmt.Sprintf("%s is not equipped", actx.Target.ItemCode))
			}

			resp, err := gc.Unequip(ctx, actx.CharacterName, slot, 1)
			if err != nil {
				return Fail(err)
			}
			logging.Actions("%s unequipped %s from %s", actx.CharacterName, actx.Target.ItemCode, slot)
			r := Ok(state.From(map[string]any{
				KeyEquipmentStatus: EquipmentUnknown,
			}))
			return r.WithCharacter(&resp.Character).
				WithCooldown(resp.Cooldown.Seconds, resp.Cooldown.ExpiresAt).
				WithData("item", actx.Target.ItemCode).
				WithData("slot", string(slot))
		},
	}
}

// NewFindXPSourcesAction assembles the level-appropriate XP sources
// from current knowledge: engageable monsters and workable nodes. Local
// only; its value is binding a combat target when one exists.
func NewFindXPSourcesAction() *Descriptor {
	return &Descriptor{
		Name: "find_xp_sources",
		Preconditions: state.From(map[string]any{
			KeyAlive:           true,
			KeyXPSourcesKnown: false,
		}),
		Effects: state.From(map[string]any{
			KeyXPSourcesKnown: true,
		}),
		Weight: WeightAnalyze,
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			level := 1
			if actx.Character != nil {
				level = actx.Character.Level
			}

			monsters := actx.Knowledge.EngageableMonsters(level)
			monsterCodes := make([]string, 0, len(monsters))
			for _, m := range monsters {
				monsterCodes = append(monsterCodes, m.Code)
			}

			var nodes []string
			for _, skill := range game.GatheringSkills {
				skillLevel := 0
				if actx.Character != nil {
					skillLevel = actx.Character.SkillLevel(skill)
				}
				if rec := bestResourceFor(actx, skill, skillLevel); rec != nil {
					nodes = append(nodes, rec.Code)
				}
			}

			if len(monsterCodes) > 0 && actx.Target.MonsterCode == "" {
				actx.Target.MonsterCode = monsterCodes[0]
			}
			logging.Actions("xp sources at level %d: %d monsters, %d nodes",
				level, len(monsterCodes), len(nodes))

			r := Ok(state.From(map[string]any{
				KeyXPSourcesKnown: true,
			}))
			return r.WithData("monsters", monsterCodes).WithData("resources", nodes)
		},
	}
}
