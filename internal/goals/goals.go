// Package goals implements goal selection: an ordered catalogue of
// goal templates, each with an eligibility gate over the live character
// and knowledge, a desired-state predicate for the planner, and a
// prepare hook that binds concrete targets onto the action context.
package goals

import (
	"sort"

	"grindbot/internal/actions"
	"grindbot/internal/game"
	"grindbot/internal/knowledge"
	"grindbot/internal/logging"
	"grindbot/internal/state"
)

// Thresholds tune the standard goal gates.
type Thresholds struct {
	// SafeHPRatio is the fraction of max HP below which resting
	// preempts everything else.
	SafeHPRatio float64 `yaml:"safe_hp_ratio"`

	// SkillFloor is the level every gathering skill is kept at or
	// above before combat grinding takes over.
	SkillFloor int `yaml:"skill_floor"`

	// TargetItem, when set, drives a craft-and-hold goal.
	TargetItem string `yaml:"target_item"`

	// TargetLevel stops the level-up goal once reached; zero means
	// grind forever.
	TargetLevel int `yaml:"target_level"`

	// GoldTarget enables the gold goal while the purse is below it.
	GoldTarget int `yaml:"gold_target"`
}

// DefaultThresholds returns the standard gate tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SafeHPRatio: 0.6,
		SkillFloor:  5,
	}
}

// Goal is one selectable objective.
type Goal struct {
	// Name labels the goal in logs and the journal.
	Name string

	// Priority orders selection; higher wins. Ties break by
	// registration order.
	Priority int

	// Desired is the predicate the planner must satisfy.
	Desired state.Map

	// Eligible reports whether the goal applies right now. Nil means
	// always eligible.
	Eligible func(c *game.Character, kb *knowledge.Base, t Thresholds) bool

	// Prepare binds concrete targets onto the context before planning.
	Prepare func(actx *actions.Context, c *game.Character, t Thresholds)
}

// Manager holds the goal catalogue and selects the active goal.
type Manager struct {
	goals      []*Goal
	thresholds Thresholds
}

// Option configures a Manager.
type Option func(*Manager)

// WithThresholds overrides the gate tuning.
func WithThresholds(t Thresholds) Option {
	return func(m *Manager) { m.thresholds = t }
}

// WithGoal appends a custom goal to the catalogue.
func WithGoal(g *Goal) Option {
	return func(m *Manager) { m.goals = append(m.goals, g) }
}

// NewManager builds a manager over the standard catalogue.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		goals:      standardGoals(),
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Thresholds returns the active gate tuning.
func (m *Manager) Thresholds() Thresholds { return m.thresholds }

// SetThresholds replaces the gate tuning (config hot-reload).
func (m *Manager) SetThresholds(t Thresholds) { m.thresholds = t }

// Goals returns the catalogue sorted by priority descending.
func (m *Manager) Goals() []*Goal {
	out := make([]*Goal, len(m.goals))
	copy(out, m.goals)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// Select returns the highest-priority eligible goal, or nil when
// nothing applies (an idle character with everything satisfied).
func (m *Manager) Select(c *game.Character, kb *knowledge.Base) *Goal {
	for _, g := range m.Goals() {
		if g.Eligible == nil || g.Eligible(c, kb, m.thresholds) {
			logging.Goals("selected goal %s (priority %d)", g.Name, g.Priority)
			return g
		}
	}
	return nil
}

// Activate resets the context for the goal and runs its prepare hook.
func (m *Manager) Activate(g *Goal, actx *actions.Context, c *game.Character) {
	actx.ResetForGoal(g.Name)
	if g.Prepare != nil {
		g.Prepare(actx, c, m.thresholds)
	}
}

// standardGoals builds the built-in catalogue.
func standardGoals() []*Goal {
	return []*Goal{
		{
			Name:     "rest_to_full",
			Priority: 100,
			Desired: state.From(map[string]any{
				actions.KeyHPFull: true,
			}),
			Eligible: func(c *game.Character, kb *knowledge.Base, t Thresholds) bool {
				return c != nil && c.HPRatio() < t.SafeHPRatio
			},
		},
		{
			Name:     "obtain_target_item",
			Priority: 60,
			Desired: state.From(map[string]any{
				actions.KeyHasTargetItem: true,
			}),
			Eligible: func(c *game.Character, kb *knowledge.Base, t Thresholds) bool {
				return t.TargetItem != "" && !kb.HasTargetItem(c, t.TargetItem)
			},
			Prepare: func(actx *actions.Context, c *game.Character, t Thresholds) {
				actx.Target.Kind = actions.TargetItem
				actx.Target.ItemCode = t.TargetItem
				actx.Target.Quantity = 1
			},
		},
		{
			Name:     "upgrade_equipment",
			Priority: 50,
			Desired: state.From(map[string]any{
				actions.KeyEquipmentStatus: actions.EquipmentEquipped,
			}),
			Eligible: func(c *game.Character, kb *knowledge.Base, t Thresholds) bool {
				return c != nil && hasEquippableInventory(c, kb)
			},
		},
		{
			Name:     "train_lagging_skill",
			Priority: 30,
			Desired: state.From(map[string]any{
				actions.KeySkillProgress: true,
			}),
			Eligible: func(c *game.Character, kb *knowledge.Base, t Thresholds) bool {
				if c == nil {
					return false
				}
				_, ok := laggingSkill(c, t.SkillFloor)
				return ok
			},
			Prepare: func(actx *actions.Context, c *game.Character, t Thresholds) {
				if skill, ok := laggingSkill(c, t.SkillFloor); ok {
					actx.TrainSkill = skill
				}
			},
		},
		{
			Name:     "level_up",
			Priority: 20,
			Desired: state.From(map[string]any{
				actions.KeyCombatStatus: actions.CombatCompleted,
			}),
			Eligible: func(c *game.Character, kb *knowledge.Base, t Thresholds) bool {
				if c == nil {
					return false
				}
				return t.TargetLevel == 0 || c.Level < t.TargetLevel
			},
		},
		{
			Name:     "earn_gold",
			Priority: 10,
			Desired: state.From(map[string]any{
				actions.KeyCombatStatus: actions.CombatCompleted,
			}),
			Eligible: func(c *game.Character, kb *knowledge.Base, t Thresholds) bool {
				return c != nil && t.GoldTarget > 0 && c.Gold < t.GoldTarget
			},
		},
	}
}

// laggingSkill returns the lowest gathering skill below the floor.
func laggingSkill(c *game.Character, floor int) (game.Skill, bool) {
	best := game.Skill("")
	bestLevel := floor
	for _, skill := range game.GatheringSkills {
		level := c.SkillLevel(skill)
		if level < bestLevel {
			best, bestLevel = skill, level
		}
	}
	return best, best != ""
}

// hasEquippableInventory reports whether any already-known inventory
// item equips into a slot it would improve. Only local knowledge is
// consulted; the analyze action does the thorough pass.
func hasEquippableInventory(c *game.Character, kb *knowledge.Base) bool {
	for _, stack := range c.Inventory {
		item := knownItem(kb, stack.Code)
		if item == nil || item.DoesNotExist {
			continue
		}
		slot, ok := game.SlotForItemType(item.Type, c)
		if !ok {
			continue
		}
		worn := c.Equipment[slot]
		if worn == "" {
			return true
		}
		if wornItem := knownItem(kb, worn); wornItem != nil && item.Level > wornItem.Level {
			return true
		}
	}
	return false
}

func knownItem(kb *knowledge.Base, code string) *game.ItemRecord {
	for _, item := range kb.KnownItems() {
		if item.Code == code {
			return item
		}
	}
	return nil
}
