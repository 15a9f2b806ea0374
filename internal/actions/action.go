package actions

import (
	"context"

	"grindbot/internal/client"
	"grindbot/internal/state"
)

// Action weights. Small integers with semantic meaning: the planner
// prefers cheap recoveries (rest) over expensive commitments
// (upgrade_skill).
const (
	WeightRest    = 1
	WeightEquip   = 5
	WeightSearch  = 5
	WeightMove    = 10
	WeightGather  = 10
	WeightCraft   = 10
	WeightAnalyze = 15
	WeightExplore = 20
	WeightUpgrade = 30
)

// RunFunc executes an action against the live client, reading and
// writing the blackboard. It returns a Result; infrastructure errors
// are converted to failure results, never panics.
type RunFunc func(ctx context.Context, gc client.GameClient, actx *Context) *Result

// BindFunc extracts concrete parameters from the blackboard before the
// run; returning an error fails the action locally without an API call.
type BindFunc func(actx *Context) error

// Descriptor is a declarative action: preconditions and effects over
// the nested state map, a cost weight for A*, and the run function.
// Descriptors are immutable after registry construction.
type Descriptor struct {
	Name          string
	Preconditions state.Map
	Effects       state.Map
	Weight        float64

	Bind BindFunc
	Run  RunFunc
}

// Applicable reports whether the preconditions hold in the state.
func (d *Descriptor) Applicable(s state.Map) bool {
	return s.Satisfies(d.Preconditions)
}

// Apply overlays the effects onto a copy of the state.
func (d *Descriptor) Apply(s state.Map) state.Map {
	next := s.Clone()
	next.Merge(d.Effects)
	return next
}
