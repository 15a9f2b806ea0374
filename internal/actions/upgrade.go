package actions

import (
	"context"
	"fmt"
	"sort"

	"grindbot/internal/client"
	"grindbot/internal/clienterr"
	"grindbot/internal/game"
	"grindbot/internal/logging"
	"grindbot/internal/state"
)

// upgradeBatchSize bounds the work one upgrade_<skill> run performs
// before handing control back to the loop for reassessment.
const upgradeBatchSize = 5

// NewUpgradeSkillActions builds one training macro action per skill.
// Gathering skills train by harvesting the best reachable node at the
// character's level; crafting skills train by crafting the best recipe
// whose materials are already in inventory.
func NewUpgradeSkillActions() []*Descriptor {
	out := make([]*Descriptor, 0, len(game.AllSkills))
	for _, skill := range game.AllSkills {
		out = append(out, newUpgradeSkillAction(skill))
	}
	return out
}

func newUpgradeSkillAction(skill game.Skill) *Descriptor {
	gathering := isGatheringSkill(skill)
	return &Descriptor{
		Name: "upgrade_" + string(skill),
		Preconditions: state.From(map[string]any{
			KeySafe:           true,
			KeySkillTrainable: true,
		}),
		Effects: state.From(map[string]any{
			KeySkillProgress: true,
		}),
		Weight: WeightUpgrade,
		Bind: func(actx *Context) error {
			if actx.TrainSkill != "" && actx.TrainSkill != skill {
				return clienterr.New(clienterr.KindValidation, "actions.upgrade",
					fmt.Sprintf("context trains %s, not %s", actx.TrainSkill, skill))
			}
			actx.TrainSkill = skill
			return nil
		},
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			if gathering {
				return trainGatheringSkill(ctx, gc, actx, skill)
			}
			return trainCraftingSkill(ctx, gc, actx, skill)
		},
	}
}

func isGatheringSkill(skill game.Skill) bool {
	for _, s := range game.GatheringSkills {
		if s == skill {
			return true
		}
	}
	return false
}

// trainGatheringSkill harvests a batch from the highest-level node the
// character can work, moving there first when needed.
func trainGatheringSkill(ctx context.Context, gc client.GameClient, actx *Context, skill game.Skill) *Result {
	level := 0
	if actx.Character != nil {
		level = actx.Character.SkillLevel(skill)
	}

	rec := bestResourceFor(actx, skill, level)
	if rec == nil {
		// Unknown territory; an explicit explore gets registered as the
		// recovery through replanning.
		return Failf(clienterr.KindNotFound,
			fmt.Sprintf("no known %s node at skill level %d", skill, level))
	}
	actx.Target.Kind = TargetResource
	actx.Target.ResourceCode = rec.Code

	locs := actx.Knowledge.FindResourcesInMap([]string{rec.Code}, actx.Map, actx.Position(), 0)
	if len(locs) == 0 {
		return Failf(clienterr.KindNotFound,
			fmt.Sprintf("%s node %s has no known location", skill, rec.Code))
	}
	dest := locs[0].Point
	out, err := moveTo(ctx, gc, actx, dest.X, dest.Y)
	if err != nil {
		return Fail(err)
	}
	if out.Character != nil {
		actx.Character = out.Character
	}
	if out.Moved {
		armContextGate(actx, out.Cooldown.Seconds, out.Cooldown.ExpiresAt)
	}

	gathered := 0
	var char = actx.Character
	for i := 0; i < upgradeBatchSize; i++ {
		if err := waitForCooldown(ctx, actx); err != nil {
			return Fail(err)
		}
		resp, err := gatherOnce(ctx, gc, actx)
		if err != nil {
			if gathered > 0 {
				break
			}
			return Fail(err)
		}
		gathered++
		char = &resp.Character
		actx.Character = char
		armContextGate(actx, resp.Cooldown.Seconds, resp.Cooldown.ExpiresAt)
	}

	newLevel := level
	if char != nil {
		newLevel = char.SkillLevel(skill)
	}
	logging.Actions("%s trained %s: %d gathers at %s, level %d -> %d",
		actx.CharacterName, skill, gathered, rec.Code, level, newLevel)

	r := Ok(state.From(map[string]any{
		KeySkillProgress: true,
	}))
	return r.WithCharacter(char).
		WithData("skill", string(skill)).
		WithData("resource", rec.Code).
		WithData("gathers", gathered).
		WithData("level", newLevel)
}

// trainCraftingSkill crafts one batch of the best recipe the character
// can make from inventory, moving to the workshop first.
func trainCraftingSkill(ctx context.Context, gc client.GameClient, actx *Context, skill game.Skill) *Result {
	level := 0
	if actx.Character != nil {
		level = actx.Character.SkillLevel(skill)
	}

	item := bestRecipeFor(actx, skill, level)
	if item == nil {
		return Failf(clienterr.KindRejected,
			fmt.Sprintf("no craftable %s recipe with materials in inventory at level %d", skill, level))
	}

	p, ok := actx.Knowledge.FindWorkshopFor(skill, actx.Position())
	if !ok {
		return Failf(clienterr.KindNotFound,
			fmt.Sprintf("no known workshop for %s", skill))
	}
	out, err := moveTo(ctx, gc, actx, p.X, p.Y)
	if err != nil {
		return Fail(err)
	}
	if out.Character != nil {
		actx.Character = out.Character
	}
	if out.Moved {
		armContextGate(actx, out.Cooldown.Seconds, out.Cooldown.ExpiresAt)
	}
	if err := waitForCooldown(ctx, actx); err != nil {
		return Fail(err)
	}

	resp, err := gc.Craft(ctx, actx.CharacterName, item.Code, 1)
	if err != nil {
		return Fail(err)
	}
	newLevel := resp.Character.SkillLevel(skill)
	logging.Actions("%s trained %s: crafted %s (+%d xp), level %d -> %d",
		actx.CharacterName, skill, item.Code, resp.XP, level, newLevel)

	r := Ok(state.From(map[string]any{
		KeySkillProgress: true,
	}))
	return r.WithCharacter(&resp.Character).
		WithCooldown(resp.Cooldown.Seconds, resp.Cooldown.ExpiresAt).
		WithData("skill", string(skill)).
		WithData("item", item.Code).
		WithData("xp", resp.XP).
		WithData("level", newLevel)
}

// bestResourceFor picks the highest-level known node the character can
// work for the skill. Ties break by code for determinism.
func bestResourceFor(actx *Context, skill game.Skill, level int) *game.ResourceRecord {
	candidates := actx.Knowledge.KnownResources()
	var best *game.ResourceRecord
	for _, rec := range candidates {
		if rec.Skill != skill || rec.SkillLevel > level {
			continue
		}
		if len(rec.Locations) == 0 && len(rec.BestLocations) == 0 {
			continue
		}
		if best == nil || rec.SkillLevel > best.SkillLevel ||
			(rec.SkillLevel == best.SkillLevel && rec.Code < best.Code) {
			best = rec
		}
	}
	return best
}

// bestRecipeFor picks the highest-level recipe of the skill whose
// materials are already in inventory.
func bestRecipeFor(actx *Context, skill game.Skill, level int) *game.ItemRecord {
	items := actx.Knowledge.KnownItems()
	sort.Slice(items, func(i, j int) bool {
		if items[i].Level != items[j].Level {
			return items[i].Level > items[j].Level
		}
		return items[i].Code < items[j].Code
	})
	for _, item := range items {
		if item.Craft == nil || item.Craft.Skill != skill || item.Craft.Level > level {
			continue
		}
		reqs := map[string]int{}
		for _, ing := range item.Craft.Items {
			reqs[ing.Code] += ing.Quantity
		}
		if actx.Knowledge.HasMaterials(actx.Character, reqs) {
			return item
		}
	}
	return nil
}
