package actions

import (
	"context"

	"grindbot/internal/client"
	"grindbot/internal/clienterr"
	"grindbot/internal/state"
)

// NewMoveAction moves to the destination bound on the context. Status
// 490 from the server collapses into a no-op success: being already at
// the destination satisfies the same goal as walking there.
func NewMoveAction() *Descriptor {
	return &Descriptor{
		Name: "move",
		Preconditions: state.From(map[string]any{
			KeyLocationKnown: true,
			KeyAtTarget:      false,
		}),
		Effects: state.From(map[string]any{
			KeyAtTarget: true,
		}),
		Weight: WeightMove,
		Bind: func(actx *Context) error {
			if _, ok := actx.Destination(); !ok {
				return clienterr.New(clienterr.KindValidation, "actions.move",
					"no destination bound on context")
			}
			return nil
		},
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			dest, _ := actx.Destination()
			out, err := moveTo(ctx, gc, actx, dest.X, dest.Y)
			if err != nil {
				return Fail(err)
			}
			if f := arrivalFailure(out, dest.X, dest.Y); f != nil {
				return f
			}
			r := Ok(state.From(map[string]any{
				KeyAtTarget: true,
			}))
			return r.applyMove(out)
		},
	}
}

// NewMoveToResourceAction moves to the bound resource destination.
// Separate from the generic move so gathering plans carry their own
// location predicate.
func NewMoveToResourceAction() *Descriptor {
	return &Descriptor{
		Name: "move_to_resource",
		Preconditions: state.From(map[string]any{
			KeyResourceKnown: true,
			KeyAtResource:    false,
		}),
		Effects: state.From(map[string]any{
			KeyAtResource: true,
			KeyAtTarget:   true,
		}),
		Weight: WeightMove,
		Bind: func(actx *Context) error {
			if _, ok := actx.Destination(); !ok {
				return clienterr.New(clienterr.KindValidation, "actions.move_to_resource",
					"no resource destination bound on context")
			}
			return nil
		},
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			dest, _ := actx.Destination()
			out, err := moveTo(ctx, gc, actx, dest.X, dest.Y)
			if err != nil {
				return Fail(err)
			}
			if f := arrivalFailure(out, dest.X, dest.Y); f != nil {
				return f
			}
			r := Ok(state.From(map[string]any{
				KeyAtResource: true,
				KeyAtTarget:   true,
			}))
			return r.applyMove(out).WithData("resource", actx.Target.ResourceCode)
		},
	}
}

// NewMoveToWorkshopAction moves to the workshop practicing the craft
// plan's skill, resolving the nearest known site at run time.
func NewMoveToWorkshopAction() *Descriptor {
	return &Descriptor{
		Name: "move_to_workshop",
		Preconditions: state.From(map[string]any{
			KeyWorkshopKnown: true,
			KeyAtWorkshop:    false,
		}),
		Effects: state.From(map[string]any{
			KeyAtWorkshop: true,
		}),
		Weight: WeightMove,
		Bind: func(actx *Context) error {
			if actx.Craft == nil || actx.Craft.Workshop == "" {
				return clienterr.New(clienterr.KindValidation, "actions.move_to_workshop",
					"no craft plan with a workshop skill bound on context")
			}
			return nil
		},
		Run: func(ctx context.Context, gc client.GameClient, actx *Context) *Result {
			p, ok := actx.Knowledge.FindWorkshopFor(actx.Craft.Workshop, actx.Position())
			if !ok {
				return Failf(clienterr.KindNotFound,
					"no known workshop for skill "+string(actx.Craft.Workshop))
			}
			out, err := moveTo(ctx, gc, actx, p.X, p.Y)
			if err != nil {
				return Fail(err)
			}
			if f := arrivalFailure(out, p.X, p.Y); f != nil {
				return f
			}
			r := Ok(state.From(map[string]any{
				KeyAtWorkshop: true,
			}))
			return r.applyMove(out).WithData("workshop", string(actx.Craft.Workshop))
		},
	}
}
