package actions

import (
	"context"
	"fmt"
	"time"

	"grindbot/internal/client"
	"grindbot/internal/clienterr"
	"grindbot/internal/game"
	"grindbot/internal/logging"
	"grindbot/internal/state"
)

// maxGatherAttempts bounds the gather-until-quantity loop so a dry node
// or terrible drop rates cannot stall the agent for an entire session.
const maxGatherAttempts = 20

// NewFindResourcesAction locates a node for the bound material, in
// preference order: knowledge reverse index, map cache, live item
// lookup followed by a scanning ring search. Binds the nearest hit as
// the resource destination.
func NewFindResourcesAction() *Descriptor {
	return &Descriptor{
		Name: "find_resources",
		Preconditions: state.From(map[string]any{
			KeyMaterialsStatus: MaterialsPlanned,
			KeyResourceKnown:   false,
		}),
		Effects: state.From(map[string]any{
			KeyResourceKnown: true,
			KeyLocationKnown: true,
		}),
		Weight: WeightSearch,
		Bind: func(actx *Context) error {
			if actx.Target.MaterialCode == "" && actx.Target.ResourceCode == "" {
				return clienterr.New(clienterr.KindValidation, "actions.find_resources",
					"no material or resource bound on context")
			}
			return nil
		},
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			from := actx.Position()

			codes := resourceCandidates(ctx, actx)
			if len(codes) > 0 {
				locs := actx.Knowledge.FindResourcesInMap(codes, actx.Map, from, 0)
				if len(locs) > 0 {
					best := locs[0]
					actx.Target.ResourceCode = best.Code
					actx.SetDestination(best.Point.X, best.Point.Y)
					r := Ok(state.From(map[string]any{
						KeyResourceKnown: true,
						KeyLocationKnown: true,
					}))
					return r.WithData("resource", best.Code).
						WithData("x", best.Point.X).WithData("y", best.Point.Y).
						WithData("source", "knowledge")
				}
			}

			// Nothing known; scan outward for matching nodes.
			filter := func(t game.MapTile) bool {
				if t.Content == nil || t.Content.Type != game.ContentResource {
					return false
				}
				if len(codes) == 0 {
					return true
				}
				for _, c := range codes {
					if t.Content.Code == c {
						return true
					}
				}
				return false
			}
			tiles, err := actx.Map.Search(ctx, from, actx.Radius(), filter, gc,
				defaultSearchOptions())
			if err != nil && len(tiles) == 0 {
				return Fail(err)
			}
			actx.LastSearch = tiles
			if len(tiles) == 0 {
				return Failf(clienterr.KindNotFound,
					fmt.Sprintf("no resource node for %s within radius %d",
						materialLabel(actx), actx.Radius()))
			}

			best := tiles[0]
			actx.Target.ResourceCode = best.Content.Code
			actx.SetDestination(best.X, best.Y)
			logging.Actions("found resource %s at (%d,%d)", best.Content.Code, best.X, best.Y)

			r := Ok(state.From(map[string]any{
				KeyResourceKnown: true,
				KeyLocationKnown: true,
			}))
			for _, t := range tiles {
				r.ObserveTile(t)
			}
			return r.WithData("resource", best.Content.Code).
				WithData("x", best.X).WithData("y", best.Y).
				WithData("source", "map_search")
		},
	}
}

// NewFindWorkshopsAction locates a workshop for the craft plan's skill:
// known sites first, then a scanning ring search.
func NewFindWorkshopsAction() *Descriptor {
	return &Descriptor{
		Name: "find_workshops",
		Preconditions: state.From(map[string]any{
			KeyMaterialsRequirements: true,
			KeyWorkshopKnown:         false,
		}),
		Effects: state.From(map[string]any{
			KeyWorkshopKnown: true,
		}),
		Weight: WeightSearch,
		Bind: func(actx *Context) error {
			if actx.Craft == nil || actx.Craft.Workshop == "" {
				return clienterr.New(clienterr.KindValidation, "actions.find_workshops",
					"no craft plan with a workshop skill bound on context")
			}
			return nil
		},
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			from := actx.Position()
			skill := actx.Craft.Workshop

			if p, ok := actx.Knowledge.FindWorkshopFor(skill, from); ok {
				r := Ok(state.From(map[string]any{
					KeyWorkshopKnown: true,
				}))
				return r.WithData("workshop", string(skill)).
					WithData("x", p.X).WithData("y", p.Y).
					WithData("source", "knowledge")
			}

			filter := func(t game.MapTile) bool {
				return t.Content != nil &&
					t.Content.Type == game.ContentWorkshop &&
					t.Content.Code == string(skill)
			}
			tiles, err := actx.Map.Search(ctx, from, actx.Radius(), filter, gc,
				defaultSearchOptions())
			if err != nil && len(tiles) == 0 {
				return Fail(err)
			}
			if len(tiles) == 0 {
				return Failf(clienterr.KindNotFound,
					fmt.Sprintf("no %s workshop within radius %d", skill, actx.Radius()))
			}

			best := tiles[0]
			logging.Actions("found %s workshop at (%d,%d)", skill, best.X, best.Y)
			r := Ok(state.From(map[string]any{
				KeyWorkshopKnown: true,
			}))
			for _, t := range tiles {
				r.ObserveTile(t)
			}
			return r.WithData("workshop", string(skill)).
				WithData("x", best.X).WithData("y", best.Y).
				WithData("source", "map_search")
		},
	}
}

// NewGatherResourcesAction performs a single gather on the current
// tile.
func NewGatherResourcesAction() *Descriptor {
	return &Descriptor{
		Name: "gather_resources",
		Preconditions: state.From(map[string]any{
			KeyAtResource: true,
		}),
		Effects: state.From(map[string]any{
			KeyMaterialsRawAvailable: true,
		}),
		Weight: WeightGather,
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			resp, err := gatherOnce(ctx, gc, actx)
			if err != nil {
				return Fail(err)
			}
			logging.Actions("%s gathered %d items (+%d xp)",
				actx.CharacterName, len(resp.Items), resp.XP)
			r := Ok(state.From(map[string]any{
				KeyMaterialsRawAvailable: true,
			}))
			return r.WithCharacter(&resp.Character).
				WithCooldown(resp.Cooldown.Seconds, resp.Cooldown.ExpiresAt).
				WithData("items", resp.Items).
				WithData("xp", resp.XP)
		},
	}
}

// NewGatherResourceQuantityAction gathers repeatedly until the bound
// material quantity is held, waiting out each cooldown internally. A
// productive node is promoted to the best_locations shortlist; hitting
// the attempt cap reports partial progress.
func NewGatherResourceQuantityAction() *Descriptor {
	return &Descriptor{
		Name: "gather_resource_quantity",
		Preconditions: state.From(map[string]any{
			KeyAtResource:      true,
			KeyMaterialsStatus: MaterialsPlanned,
		}),
		Effects: state.From(map[string]any{
			KeyMaterialsStatus:       MaterialsSufficient,
			KeyMaterialsRawAvailable: true,
		}),
		Weight: WeightGather,
		Bind: func(actx *Context) error {
			return requireTarget("target.material_code", actx.Target.MaterialCode)
		},
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			material := actx.Target.MaterialCode
			wanted := actx.Target.Quantity
			if wanted <= 0 {
				wanted = 1
			}

			char := actx.Character
			have := 0
			if char != nil {
				have = char.InventoryCount(material)
			}

			attempts := 0
			for have < wanted && attempts < maxGatherAttempts {
				if err := waitForCooldown(ctx, actx); err != nil {
					return Fail(err)
				}
				resp, err := gatherOnce(ctx, gc, actx)
				if err != nil {
					if clienterr.IsKind(err, clienterr.KindCooldown) {
						// The gate drifted from the server clock; re-arm
						// conservatively and spend an attempt on the miss
						// so the loop stays bounded.
						attempts++
						armContextGate(actx, 1, time.Time{})
						continue
					}
					return Fail(err).WithData("gathered", have).WithData("wanted", wanted)
				}
				attempts++
				char = &resp.Character
				actx.Character = char
				have = char.InventoryCount(material)
				armContextGate(actx, resp.Cooldown.Seconds, resp.Cooldown.ExpiresAt)
				logging.ActionsDebug("gather %d/%d: %s %d/%d",
					attempts, maxGatherAttempts, material, have, wanted)
			}

			sufficient := have >= wanted
			if sufficient && attempts > 0 && actx.Target.ResourceCode != "" {
				p := actx.Position()
				actx.Knowledge.RecordBestLocation(actx.Target.ResourceCode, p.X, p.Y)
			}

			status := MaterialsSufficient
			if !sufficient {
				status = MaterialsPartial
			}
			r := Ok(state.From(map[string]any{
				KeyMaterialsStatus:       status,
				KeyMaterialsRawAvailable: have > 0,
			}))
			r.Success = sufficient
			if !sufficient {
				r.Error = fmt.Sprintf("gathered %d/%d %s in %d attempts",
					have, wanted, material, attempts)
				r.ErrorKind = clienterr.KindRejected
			}
			logging.Actions("%s gather complete: %s %d/%d (%d attempts)",
				actx.CharacterName, material, have, wanted, attempts)
			return r.WithCharacter(char).
				WithData("material", material).
				WithData("gathered", have).
				WithData("wanted", wanted).
				WithData("attempts", attempts)
		},
	}
}

// resourceCandidates resolves which resource codes can yield the bound
// material. A live item fetch fills the reverse index when local
// knowledge comes up empty.
func resourceCandidates(ctx context.Context, actx *Context) []string {
	if actx.Target.ResourceCode != "" {
		return []string{actx.Target.ResourceCode}
	}
	material := actx.Target.MaterialCode
	if material == "" {
		return nil
	}
	codes := actx.Knowledge.FindResourcesForMaterial(material)
	if len(codes) == 0 {
		// GetItem learns drop sources for materials that share a code
		// with their node (ore, wood); cheap and memorized either way.
		if _, err := actx.Knowledge.GetItem(ctx, material); err == nil {
			codes = actx.Knowledge.FindResourcesForMaterial(material)
		}
		if len(codes) == 0 {
			if _, err := actx.Knowledge.GetResource(ctx, material); err == nil {
				codes = []string{material}
			}
		}
	}
	return codes
}

func materialLabel(actx *Context) string {
	if actx.Target.MaterialCode != "" {
		return actx.Target.MaterialCode
	}
	return actx.Target.ResourceCode
}
