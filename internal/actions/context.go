// Package actions implements the action catalogue: the mutable
// blackboard shared through one planning+execution cycle, the
// descriptor contract (preconditions, effects, weight, run function)
// and the concrete combat, movement, gathering, crafting, equipment and
// knowledge actions the planner sequences.
package actions

import (
	"grindbot/internal/cooldown"
	"grindbot/internal/game"
	"grindbot/internal/knowledge"
	"grindbot/internal/worldmap"
)

// TargetKind discriminates the context's current target.
type TargetKind string

const (
	TargetNone     TargetKind = ""
	TargetItem     TargetKind = "item"
	TargetMonster  TargetKind = "monster"
	TargetResource TargetKind = "resource"
	TargetCoords   TargetKind = "coords"
)

// Target is the current objective of the active goal: an item to
// obtain, a monster to hunt, a resource to harvest, or a bare
// destination.
type Target struct {
	Kind TargetKind

	// Entity codes, populated per kind.
	ItemCode     string
	MonsterCode  string
	ResourceCode string

	// MaterialCode is the raw material being pursued when gathering
	// toward a recipe.
	MaterialCode string

	// Quantity wanted of the item or material; zero means one.
	Quantity int

	// Coords is the concrete destination when known.
	Coords *game.Point
}

// CraftStep is one planned crafting operation.
type CraftStep struct {
	ItemCode string
	Quantity int
	Skill    game.Skill
}

// CraftPlan is the resolved crafting plan for the target item: raw
// materials still missing and the craft steps in dependency order.
type CraftPlan struct {
	TargetItem string
	Missing    map[string]int
	Steps      []CraftStep
	Workshop   game.Skill
}

// Context is the typed blackboard passed through planning and
// execution. Created once per session; target and intermediate fields
// reset at goal boundaries. Unknown-keyed access is a compile error,
// not a runtime fallback.
type Context struct {
	// CharacterName is fixed for the session.
	CharacterName string

	// Character is the latest snapshot; read-only between plan
	// construction and first action.
	Character *game.Character

	// GoalName labels the active goal for logs and the journal.
	GoalName string

	// Target of the active goal.
	Target Target

	// Plan state for crafting goals.
	Craft *CraftPlan

	// TrainSkill is set when the active goal trains a specific skill.
	TrainSkill game.Skill

	// SearchRadius bounds map searches; zero uses the default.
	SearchRadius int

	// LastSearch holds the most recent search results for diagnostics.
	LastSearch []game.MapTile

	// Shared subsystem handles, owned by the loop.
	Knowledge *knowledge.Base
	Map       *worldmap.Cache
	Gate      *cooldown.Gate
}

// DefaultSearchRadius bounds expanding-ring searches when the context
// does not override it.
const DefaultSearchRadius = 10

// Radius returns the effective search radius.
func (c *Context) Radius() int {
	if c.SearchRadius > 0 {
		return c.SearchRadius
	}
	return DefaultSearchRadius
}

// ResetForGoal clears the per-goal fields while keeping the session
// handles and character snapshot.
func (c *Context) ResetForGoal(goalName string) {
	c.GoalName = goalName
	c.Target = Target{}
	c.Craft = nil
	c.TrainSkill = ""
	c.LastSearch = nil
}

// SetDestination records concrete coordinates as the movement target.
func (c *Context) SetDestination(x, y int) {
	c.Target.Coords = &game.Point{X: x, Y: y}
}

// Destination returns the movement target, false when unset.
func (c *Context) Destination() (game.Point, bool) {
	if c.Target.Coords == nil {
		return game.Point{}, false
	}
	return *c.Target.Coords, true
}

// Position returns the character's current coordinates.
func (c *Context) Position() game.Point {
	if c.Character == nil {
		return game.Point{}
	}
	return game.Point{X: c.Character.X, Y: c.Character.Y}
}
