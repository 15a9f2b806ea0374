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

// NewRestAction builds the recovery action. Rest is the cheapest action
// in the catalogue so the planner always prefers healing over risk.
func NewRestAction() *Descriptor {
	return &Descriptor{
		Name: "rest",
		Preconditions: state.From(map[string]any{
			KeyAlive:  true,
			KeyHPFull: false,
		}),
		Effects: state.From(map[string]any{
			KeyHPFull: true,
			KeySafe:   true,
		}),
		Weight: WeightRest,
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			resp, err := gc.Rest(ctx, actx.CharacterName)
			if err != nil {
				return Fail(err)
			}
			logging.Actions("%s rested: +%d hp (%d/%d)", actx.CharacterName,
				resp.HPRestored, resp.Character.HP, resp.Character.MaxHP)
			r := Ok(state.From(map[string]any{
				KeyHPFull: resp.Character.HP >= resp.Character.MaxHP,
				KeySafe:   true,
				KeyHP:     resp.Character.HP,
			}))
			return r.WithCharacter(&resp.Character).
				WithCooldown(resp.Cooldown.Seconds, resp.Cooldown.ExpiresAt).
				WithData("hp_restored", resp.HPRestored)
		},
	}
}

// NewInitiateCombatSearchAction starts the hunt state machine: it picks
// the best engageable monster from knowledge and binds it as the target.
// Purely local; no API call.
func NewInitiateCombatSearchAction() *Descriptor {
	return &Descriptor{
		Name: "initiate_combat_search",
		Preconditions: state.From(map[string]any{
			KeyAlive:        true,
			KeySafe:         true,
			KeyCombatStatus: CombatIdle,
		}),
		Effects: state.From(map[string]any{
			KeyCombatStatus: CombatSearching,
		}),
		Weight: WeightSearch,
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			actx.Target.Kind = TargetMonster

			level := 1
			if actx.Character != nil {
				level = actx.Character.Level
			}
			if actx.Target.MonsterCode == "" {
				candidates := actx.Knowledge.EngageableMonsters(level)
				if len(candidates) > 0 {
					actx.Target.MonsterCode = candidates[0].Code
					logging.Actions("combat search: targeting %s (level %d)",
						candidates[0].Code, candidates[0].Level)
				} else {
					logging.Actions("combat search: no known engageable monster, will search map")
				}
			}

			r := Ok(state.From(map[string]any{
				KeyCombatStatus: CombatSearching,
			}))
			return r.WithData("target_monster", actx.Target.MonsterCode)
		},
	}
}

// NewFindMonstersAction locates the target monster: known locations
// first, then an expanding map search that also learns every tile it
// scans. Binds the nearest hit as the movement destination.
func NewFindMonstersAction() *Descriptor {
	return &Descriptor{
		Name: "find_monsters",
		Preconditions: state.From(map[string]any{
			KeyCombatStatus: CombatSearching,
		}),
		Effects: state.From(map[string]any{
			KeyCombatTargetAvailable: true,
			KeyLocationKnown:         true,
		}),
		Weight: WeightSearch,
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			from := actx.Position()

			if actx.Target.MonsterCode != "" {
				if p, ok := actx.Knowledge.NearestMonsterLocation(actx.Target.MonsterCode, from); ok {
					actx.SetDestination(p.X, p.Y)
					r := Ok(state.From(map[string]any{
						KeyCombatTargetAvailable: true,
						KeyLocationKnown:         true,
					}))
					return r.WithData("monster", actx.Target.MonsterCode).
						WithData("x", p.X).WithData("y", p.Y).
						WithData("source", "knowledge")
				}
			}

			filter := worldmapMonsterFilter(actx.Target.MonsterCode)
			tiles, err := actx.Map.Search(ctx, from, actx.Radius(), filter, gc,
				defaultSearchOptions())
			if err != nil && len(tiles) == 0 {
				return Fail(err)
			}
			actx.LastSearch = tiles
			if len(tiles) == 0 {
				return Failf(clienterr.KindNotFound,
					fmt.Sprintf("no monster found within radius %d of (%d,%d)",
						actx.Radius(), from.X, from.Y))
			}

			best := tiles[0]
			actx.Target.MonsterCode = best.Content.Code
			actx.SetDestination(best.X, best.Y)
			logging.Actions("found monster %s at (%d,%d)", best.Content.Code, best.X, best.Y)

			r := Ok(state.From(map[string]any{
				KeyCombatTargetAvailable: true,
				KeyLocationKnown:         true,
			}))
			for _, t := range tiles {
				r.ObserveTile(t)
			}
			return r.WithData("monster", best.Content.Code).
				WithData("x", best.X).WithData("y", best.Y).
				WithData("source", "map_search")
		},
	}
}

// NewAnalyzeCombatViabilityAction applies the engagement policy to the
// bound monster. Non-viable targets fail with a rejection so the loop
// replans instead of walking into a losing fight.
func NewAnalyzeCombatViabilityAction() *Descriptor {
	return &Descriptor{
		Name: "analyze_combat_viability",
		Preconditions: state.From(map[string]any{
			KeyCombatTargetAvailable: true,
		}),
		Effects: state.From(map[string]any{
			KeyCombatViabilityOK: true,
			KeyCombatStatus:      CombatReady,
		}),
		Weight: WeightAnalyze,
		Bind: func(actx *Context) error {
			return requireTarget("target.monster_code", actx.Target.MonsterCode)
		},
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			mon, err := actx.Knowledge.GetMonster(ctx, actx.Target.MonsterCode)
			if err != nil {
				return Fail(err)
			}
			level := 1
			if actx.Character != nil {
				level = actx.Character.Level
			}
			if !actx.Knowledge.CanEngage(mon, level) {
				rate, trusted := mon.WinRate(actx.Knowledge.Policy().MinCombatResults)
				logging.Actions("rejecting %s: level %d vs character %d, win rate %.2f (trusted=%t)",
					mon.Code, mon.Level, level, rate, trusted)
				return Failf(clienterr.KindRejected,
					fmt.Sprintf("monster %s not viable at level %d", mon.Code, level)).
					WithData("monster_level", mon.Level).
					WithData("win_rate", rate)
			}

			r := Ok(state.From(map[string]any{
				KeyCombatViabilityOK: true,
				KeyCombatStatus:      CombatReady,
			}))
			return r.WithData("monster", mon.Code).WithData("monster_level", mon.Level)
		},
	}
}

// NewAttackAction fights the monster on the current tile and records
// the outcome for the knowledge base, win or lose.
func NewAttackAction() *Descriptor {
	return &Descriptor{
		Name: "attack",
		Preconditions: state.From(map[string]any{
			KeyCombatStatus:      CombatReady,
			KeyCombatViabilityOK: true,
			KeyAtTarget:          true,
		}),
		Effects: state.From(map[string]any{
			KeyCombatStatus: CombatCompleted,
		}),
		Weight: WeightMove,
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			hpBefore := 0
			if actx.Character != nil {
				hpBefore = actx.Character.HP
			}

			resp, err := gc.Attack(ctx, actx.CharacterName)
			if err != nil {
				return Fail(err)
			}

			hpLost := hpBefore - resp.Character.HP
			if hpLost < 0 {
				hpLost = 0
			}
			logging.Actions("%s vs %s: %s (xp %d, gold %d, hp lost %d)",
				actx.CharacterName, actx.Target.MonsterCode, resp.Fight.Result,
				resp.Fight.XP, resp.Fight.Gold, hpLost)

			won := resp.Fight.Result == game.CombatWin
			r := Ok(state.From(map[string]any{
				KeyCombatStatus: CombatCompleted,
				KeyHPFull:       resp.Character.HP >= resp.Character.MaxHP,
				KeyHP:           resp.Character.HP,
				KeyLevel:        resp.Character.Level,
			}))
			r.Success = won
			if !won {
				r.Error = fmt.Sprintf("lost fight against %s", actx.Target.MonsterCode)
				r.ErrorKind = clienterr.KindRejected
			}
			if actx.Target.MonsterCode != "" {
				r.Combat = &CombatObservation{
					MonsterCode: actx.Target.MonsterCode,
					Outcome:     resp.Fight.Result,
					HPLost:      hpLost,
				}
			}
			return r.WithCharacter(&resp.Character).
				WithCooldown(resp.Cooldown.Seconds, resp.Cooldown.ExpiresAt).
				WithData("result", string(resp.Fight.Result)).
				WithData("xp", resp.Fight.XP).
				WithData("gold", resp.Fight.Gold).
				WithData("turns", resp.Fight.Turns)
		},
	}
}

func worldmapMonsterFilter(code string) func(game.MapTile) bool {
	return func(t game.MapTile) bool {
		if t.Content == nil || t.Content.Type != game.ContentMonster {
			return false
		}
		return code == "" || t.Content.Code == code
	}
}
