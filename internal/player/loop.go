package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"grindbot/internal/actions"
	"grindbot/internal/clienterr"
	"grindbot/internal/logging"
	"grindbot/internal/planner"
	"grindbot/internal/state"
)

// idleDelay is how long the loop sleeps when no goal is eligible.
const idleDelay = 5 * time.Second

// Run plays the character until the context is cancelled, a stop is
// requested, or the configured max runtime elapses. Each cycle:
// refresh perception, select a goal, plan, execute until the plan
// completes, fails, or reality diverges from the plan's assumptions.
func (s *Session) Run(ctx context.Context) error {
	var deadline time.Time
	if limit := s.cfg.GetMaxRuntime(); limit > 0 {
		deadline = time.Now().Add(limit)
	}

	logging.Loop("session %s starting", s.name)
	defer func() {
		if err := s.Close(); err != nil {
			logging.Loop("session %s close: %v", s.name, err)
		}
		logging.Loop("session %s stopped", s.name)
	}()

	if err := s.refreshSnapshot(ctx, true); err != nil {
		return err
	}
	logging.Loop("%s level %d at (%d,%d), hp %d/%d",
		s.name, s.actx.Character.Level, s.actx.Character.X, s.actx.Character.Y,
		s.actx.Character.HP, s.actx.Character.MaxHP)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if s.stopRequested() {
			logging.Loop("session %s stop requested", s.name)
			return nil
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			logging.Loop("session %s max runtime reached", s.name)
			return nil
		}
		if err := s.cycle(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		s.saveIfDue()
	}
}

// cycle runs one goal from selection through plan execution.
func (s *Session) cycle(ctx context.Context) error {
	if err := s.refreshSnapshot(ctx, s.snapshotStale()); err != nil {
		return err
	}

	goal := s.goals.Select(s.actx.Character, s.knowledge)
	if goal == nil {
		logging.Loop("no eligible goal, idling %s", idleDelay)
		return sleepCtx(ctx, idleDelay)
	}

	s.goals.Activate(goal, s.actx, s.actx.Character)
	world := s.BuildState()

	plan, err := s.planner.Plan(world, goal.Desired)
	if err != nil {
		if errors.Is(err, planner.ErrNoPlan) {
			logging.Loop("goal %s unplannable, idling %s: %v", goal.Name, idleDelay, err)
			return sleepCtx(ctx, idleDelay)
		}
		return err
	}
	if plan.Empty() {
		logging.Loop("goal %s already satisfied", goal.Name)
		return sleepCtx(ctx, idleDelay)
	}
	logging.Loop("goal %s: plan %v (cost %.0f, %d nodes)",
		goal.Name, plan.Actions, plan.Cost, plan.NodesExpanded)

	for i, name := range plan.Actions {
		result, err := s.executor.Execute(ctx, name, world, s.actx)
		if err != nil {
			return err
		}
		if !result.Success {
			if err := fatalFailure(name, result); err != nil {
				logging.Loop("goal %s: %v, stopping", goal.Name, err)
				return err
			}
			logging.Loop("goal %s: step %d/%d %s failed [%s], replanning",
				goal.Name, i+1, len(plan.Actions), name, result.ErrorKind)
			return nil
		}
		if s.safetyDiverged(world) {
			logging.Loop("goal %s: safety state diverged after %s, replanning", goal.Name, name)
			return nil
		}
	}

	if world.Satisfies(goal.Desired) {
		logging.Loop("goal %s achieved", goal.Name)
	} else {
		logging.Loop("goal %s: plan completed without satisfying goal, replanning", goal.Name)
	}
	return nil
}

// fatalFailure converts an authentication-class action failure into the
// terminal error that ends the session; replanning against a dead token
// cannot succeed.
func fatalFailure(name string, r *actions.Result) error {
	if r.ErrorKind != clienterr.KindFatal {
		return nil
	}
	return fmt.Errorf("action %s failed fatally: %s", name, r.Error)
}

// snapshotStale reports whether the character snapshot is past its TTL.
func (s *Session) snapshotStale() bool {
	c := s.actx.Character
	if c == nil {
		return true
	}
	// Actions refresh the snapshot as a side effect, so staleness only
	// accumulates while idle; the cooldown expiry doubles as the clock.
	return !c.CooldownExpiresAt.IsZero() &&
		time.Since(c.CooldownExpiresAt) > s.cfg.GetSnapshotTTL()
}

// BuildState derives the planning state from live perception. Facts the
// world can prove (health, position, inventory) come from the snapshot
// and heuristics; plan-tracked machines (combat, materials, equipment)
// start at their initial values for the fresh goal.
func (s *Session) BuildState() state.Map {
	c := s.actx.Character
	t := s.goals.Thresholds()

	alive := c != nil && c.HP > 0
	hpFull := c != nil && c.HP >= c.MaxHP
	safe := c != nil && c.HPRatio() >= t.SafeHPRatio

	dest, hasDest := s.actx.Destination()
	atTarget := hasDest && c != nil && c.At(dest.X, dest.Y)

	material := s.actx.Target.MaterialCode
	atResource := s.knowledge.IsAtResourceLocation(c, material)
	resourceKnown := s.actx.Target.ResourceCode != "" && hasDest

	workshopKnown := false
	atWorkshop := false
	if s.actx.Craft != nil && s.actx.Craft.Workshop != "" {
		_, workshopKnown = s.knowledge.FindWorkshopFor(s.actx.Craft.Workshop, s.actx.Position())
		atWorkshop = s.knowledge.IsAtWorkshop(c, s.actx.Craft.Workshop)
	}

	hasItem := s.knowledge.HasTargetItem(c, s.actx.Target.ItemCode)
	itemCount := 0
	spaceAvailable := true
	level := 0
	hp := 0
	if c != nil {
		itemCount = c.InventoryCount(s.actx.Target.ItemCode)
		spaceAvailable = c.InventoryMaxItems == 0 || c.InventoryTotal() < c.InventoryMaxItems
		level = c.Level
		hp = c.HP
	}

	return state.From(map[string]any{
		actions.KeyAlive:          alive,
		actions.KeySafe:           safe,
		actions.KeyHPFull:         hpFull,
		actions.KeyLevel:          level,
		actions.KeyHP:             hp,
		actions.KeyCooldownActive: !s.gate.IsReady(),

		actions.KeyCombatStatus:          actions.CombatIdle,
		actions.KeyCombatTargetAvailable: false,
		actions.KeyCombatViabilityOK:     false,

		actions.KeyMaterialsStatus:       actions.MaterialsUnknown,
		actions.KeyMaterialsRequirements: s.actx.Craft != nil,
		actions.KeyMaterialsRawAvailable: false,
		actions.KeyMaterialsRefined:      false,

		actions.KeyAtTarget:      atTarget,
		actions.KeyAtResource:    atResource,
		actions.KeyAtWorkshop:    atWorkshop,
		actions.KeyResourceKnown: resourceKnown,
		actions.KeyWorkshopKnown: workshopKnown,

		actions.KeyHasTargetItem:   hasItem,
		actions.KeyTargetItemCount: itemCount,
		actions.KeySpaceAvailable:  spaceAvailable,

		actions.KeyEquipmentStatus: actions.EquipmentUnknown,

		actions.KeyMapExplored:       false,
		actions.KeyLocationKnown:     hasDest,
		actions.KeyItemInfoKnown:     false,
		actions.KeyXPSourcesKnown:    false,
		actions.KeyKnowledgeAssessed: false,

		actions.KeySkillTrainable: s.actx.TrainSkill != "",
		actions.KeySkillProgress:  false,
	})
}

// safetyDiverged reports whether reality contradicts what the plan
// assumes about the safety-critical keys. Optimistic state drift on
// other keys is tolerated; health is not.
func (s *Session) safetyDiverged(world state.Map) bool {
	c := s.actx.Character
	if c == nil {
		return true
	}
	t := s.goals.Thresholds()

	if world.GetBool(actions.KeyAlive) && c.HP <= 0 {
		return true
	}
	if world.GetBool(actions.KeySafe) && c.HPRatio() < t.SafeHPRatio {
		return true
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
