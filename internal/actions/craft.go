package actions

import (
	"context"
	"fmt"
	"sort"

	"grindbot/internal/client"
	"grindbot/internal/clienterr"
	"grindbot/internal/logging"
	"grindbot/internal/state"
)

// NewAnalyzeCraftingRequirementsAction resolves the target item's
// direct recipe into a craft plan on the context. Local except for the
// one-shot item fetch the knowledge base may perform.
func NewAnalyzeCraftingRequirementsAction() *Descriptor {
	return &Descriptor{
		Name: "analyze_crafting_requirements",
		Preconditions: state.From(map[string]any{
			KeyMaterialsStatus: MaterialsUnknown,
		}),
		Effects: state.From(map[string]any{
			KeyMaterialsRequirements: true,
		}),
		Weight: WeightAnalyze,
		Bind: func(actx *Context) error {
			return requireTarget("target.item_code", actx.Target.ItemCode)
		},
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			item, err := actx.Knowledge.GetItem(ctx, actx.Target.ItemCode)
			if err != nil {
				return Fail(err)
			}
			if item.Craft == nil {
				return Failf(clienterr.KindRejected,
					fmt.Sprintf("item %s is not craftable", item.Code))
			}

			reqs, err := actx.Knowledge.GetMaterialRequirements(ctx, item.Code)
			if err != nil {
				return Fail(err)
			}
			quantity := actx.Target.Quantity
			if quantity <= 0 {
				quantity = 1
			}
			missing := map[string]int{}
			for code, per := range reqs {
				need := per * quantity
				have := 0
				if actx.Character != nil {
					have = actx.Character.InventoryCount(code)
				}
				if have < need {
					missing[code] = need - have
				}
			}
			actx.Craft = &CraftPlan{
				TargetItem: item.Code,
				Missing:    missing,
				Workshop:   item.Craft.Skill,
			}
			logging.Actions("craft analysis for %s: %d materials, %d missing",
				item.Code, len(reqs), len(missing))

			r := Ok(state.From(map[string]any{
				KeyMaterialsRequirements: true,
			}))
			return r.WithData("item", item.Code).
				WithData("skill", string(item.Craft.Skill)).
				WithData("requirements", reqs).
				WithData("missing", missing)
		},
	}
}

// NewAnalyzeCraftingChainAction resolves the full recipe tree below the
// target item, producing the intermediate craft steps in dependency
// order. Used over the flat analysis when recipes nest (ore to bar to
// blade).
func NewAnalyzeCraftingChainAction() *Descriptor {
	return &Descriptor{
		Name: "analyze_crafting_chain",
		Preconditions: state.From(map[string]any{
			KeyMaterialsStatus: MaterialsUnknown,
		}),
		Effects: state.From(map[string]any{
			KeyMaterialsRequirements: true,
		}),
		Weight: WeightAnalyze + 5,
		Bind: func(actx *Context) error {
			return requireTarget("target.item_code", actx.Target.ItemCode)
		},
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			quantity := actx.Target.Quantity
			if quantity <= 0 {
				quantity = 1
			}
			chain, raw, err := actx.Knowledge.ResolveCraftChain(ctx, actx.Target.ItemCode, quantity)
			if err != nil {
				return Fail(err)
			}
			if len(chain) == 0 {
				return Failf(clienterr.KindRejected,
					fmt.Sprintf("item %s is not craftable", actx.Target.ItemCode))
			}

			missing := map[string]int{}
			for code, need := range raw {
				have := 0
				if actx.Character != nil {
					have = actx.Character.InventoryCount(code)
				}
				if have < need {
					missing[code] = need - have
				}
			}
			steps := make([]CraftStep, 0, len(chain))
			for _, s := range chain {
				steps = append(steps, CraftStep{
					ItemCode: s.ItemCode,
					Quantity: s.Quantity,
					Skill:    s.Craft.Skill,
				})
			}
			final := chain[len(chain)-1]
			actx.Craft = &CraftPlan{
				TargetItem: actx.Target.ItemCode,
				Missing:    missing,
				Steps:      steps,
				Workshop:   final.Craft.Skill,
			}
			logging.Actions("craft chain for %s: %d steps, %d raw materials missing",
				actx.Target.ItemCode, len(steps), len(missing))

			r := Ok(state.From(map[string]any{
				KeyMaterialsRequirements: true,
			}))
			return r.WithData("item", actx.Target.ItemCode).
				WithData("steps", len(steps)).
				WithData("raw", raw).
				WithData("missing", missing)
		},
	}
}

// NewPlanCraftingMaterialsAction turns the craft plan's missing list
// into a concrete gathering target: the first missing material in
// sorted order. When nothing is missing the materials are already
// sufficient and the plan skips straight to crafting.
func NewPlanCraftingMaterialsAction() *Descriptor {
	return &Descriptor{
		Name: "plan_crafting_materials",
		Preconditions: state.From(map[string]any{
			KeyMaterialsRequirements: true,
			KeyMaterialsStatus:       MaterialsUnknown,
		}),
		Effects: state.From(map[string]any{
			KeyMaterialsStatus: MaterialsPlanned,
		}),
		Weight: WeightAnalyze,
		Bind: func(actx *Context) error {
			if actx.Craft == nil {
				return clienterr.New(clienterr.KindValidation, "actions.plan_materials",
					"no craft plan bound on context")
			}
			return nil
		},
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			plan := actx.Craft
			if len(plan.Missing) == 0 {
				r := Ok(state.From(map[string]any{
					KeyMaterialsStatus: MaterialsSufficient,
				}))
				return r.WithData("item", plan.TargetItem).WithData("missing", 0)
			}

			codes := make([]string, 0, len(plan.Missing))
			for code := range plan.Missing {
				codes = append(codes, code)
			}
			sort.Strings(codes)
			first := codes[0]
			actx.Target.MaterialCode = first
			actx.Target.Quantity = plan.Missing[first]

			logging.Actions("material plan for %s: next %s x%d (%d materials missing)",
				plan.TargetItem, first, plan.Missing[first], len(codes))
			r := Ok(state.From(map[string]any{
				KeyMaterialsStatus: MaterialsPlanned,
			}))
			return r.WithData("item", plan.TargetItem).
				WithData("material", first).
				WithData("quantity", plan.Missing[first]).
				WithData("remaining", len(codes))
		},
	}
}

// NewTransformRawMaterialsAction crafts the intermediate steps of the
// chain (everything but the final item) at the current workshop.
func NewTransformRawMaterialsAction() *Descriptor {
	return &Descriptor{
		Name: "transform_raw_materials",
		Preconditions: state.From(map[string]any{
			KeyMaterialsStatus: MaterialsSufficient,
			KeyAtWorkshop:      true,
		}),
		Effects: state.From(map[string]any{
			KeyMaterialsRefined: true,
		}),
		Weight: WeightCraft,
		Bind: func(actx *Context) error {
			if actx.Craft == nil {
				return clienterr.New(clienterr.KindValidation, "actions.transform",
					"no craft plan bound on context")
			}
			return nil
		},
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			plan := actx.Craft
			crafted := 0
			var char = actx.Character

			for _, step := range plan.Steps {
				if step.ItemCode == plan.TargetItem {
					continue
				}
				if err := waitForCooldown(ctx, actx); err != nil {
					return Fail(err)
				}
				resp, err := gc.Craft(ctx, actx.CharacterName, step.ItemCode, step.Quantity)
				if err != nil {
					return Fail(err).WithData("step", step.ItemCode).WithData("crafted", crafted)
				}
				crafted++
				char = &resp.Character
				actx.Character = char
				armContextGate(actx, resp.Cooldown.Seconds, resp.Cooldown.ExpiresAt)
				logging.Actions("%s transformed %s x%d (+%d xp)",
					actx.CharacterName, step.ItemCode, step.Quantity, resp.XP)
			}

			r := Ok(state.From(map[string]any{
				KeyMaterialsRefined: true,
			}))
			return r.WithCharacter(char).WithData("steps_crafted", crafted)
		},
	}
}

// NewCraftItemAction crafts the target item at the current workshop.
// Materials must already be in inventory; the server rejects otherwise
// and the failure replans.
func NewCraftItemAction() *Descriptor {
	return &Descriptor{
		Name: "craft_item",
		Preconditions: state.From(map[string]any{
			KeyMaterialsStatus: MaterialsSufficient,
			KeyAtWorkshop:      true,
		}),
		Effects: state.From(map[string]any{
			KeyHasTargetItem:   true,
			KeyMaterialsStatus: MaterialsConsumed,
		}),
		Weight: WeightCraft,
		Bind: func(actx *Context) error {
			return requireTarget("target.item_code", actx.Target.ItemCode)
		},
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			quantity := actx.Target.Quantity
			if quantity <= 0 {
				quantity = 1
			}
			resp, err := gc.Craft(ctx, actx.CharacterName, actx.Target.ItemCode, quantity)
			if err != nil {
				return Fail(err)
			}
			logging.Actions("%s crafted %s x%d (+%d xp)",
				actx.CharacterName, actx.Target.ItemCode, quantity, resp.XP)

			r := Ok(state.From(map[string]any{
				KeyHasTargetItem:   true,
				KeyMaterialsStatus: MaterialsConsumed,
			}))
			return r.WithCharacter(&resp.Character).
				WithCooldown(resp.Cooldown.Seconds, resp.Cooldown.ExpiresAt).
				WithData("item", actx.Target.ItemCode).
				WithData("quantity", quantity).
				WithData("xp", resp.XP).
				WithData("produced", resp.Produced)
		},
	}
}
