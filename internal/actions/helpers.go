package actions

import (
	"context"
	"fmt"
	"time"

	"grindbot/internal/client"
	"grindbot/internal/clienterr"
	"grindbot/internal/game"
	"grindbot/internal/logging"
	"grindbot/internal/worldmap"
)

// moveOutcome is the shared result of a movement attempt.
type moveOutcome struct {
	Character *game.Character
	Cooldown  client.Cooldown
	Moved     bool
	Tile      *game.MapTile
}

// moveTo issues a move, folding status 490 ("already at destination")
// into a no-op success per the error taxonomy.
func moveTo(ctx context.Context, gc client.GameClient, actx *Context, x, y int) (*moveOutcome, error) {
	if actx.Character != nil && actx.Character.At(x, y) {
		return &moveOutcome{Character: actx.Character, Moved: false}, nil
	}

	resp, err := gc.Move(ctx, actx.CharacterName, x, y)
	if err != nil {
		if clienterr.IsKind(err, clienterr.KindAlreadyAtDestination) {
			logging.ActionsDebug("move to (%d,%d): already at destination", x, y)
			return &moveOutcome{Character: actx.Character, Moved: false}, nil
		}
		if clienterr.IsKind(err, clienterr.KindNotFound) {
			actx.Map.RecordBoundary(x, y)
		}
		return nil, err
	}
	out := &moveOutcome{
		Character: &resp.Character,
		Cooldown:  resp.Cooldown,
		Moved:     true,
		Tile:      &resp.Tile,
	}
	return out, nil
}

// applyMove folds a movement outcome into a result: refreshed
// character, armed cooldown, observed destination tile.
func (r *Result) applyMove(out *moveOutcome) *Result {
	r.WithCharacter(out.Character)
	if out.Moved {
		r.WithCooldown(out.Cooldown.Seconds, out.Cooldown.ExpiresAt)
	}
	if out.Tile != nil {
		r.ObserveTile(*out.Tile)
	}
	r.WithData("moved", out.Moved)
	r.WithData("already_at_destination", !out.Moved)
	return r
}

// arrivalFailure reports a confirmed move whose response left the
// character somewhere other than the requested destination, so the loop
// replans from the real position instead of acting on the wrong tile.
// The 490 fold keeps the stale snapshot and is exempt.
func arrivalFailure(out *moveOutcome, x, y int) *Result {
	if !out.Moved || out.Character == nil || out.Character.At(x, y) {
		return nil
	}
	r := Failf(clienterr.KindRejected, fmt.Sprintf("move ended at (%d,%d), not (%d,%d)",
		out.Character.X, out.Character.Y, x, y))
	return r.applyMove(out)
}

// scanTile fetches a tile through the cache, scanning the server when
// the cached copy is stale.
func scanTile(ctx context.Context, gc client.GameClient, actx *Context, x, y int) (game.MapTile, error) {
	if tile, ok := actx.Map.Get(x, y, true); ok {
		return tile, nil
	}
	scanned, err := gc.GetMap(ctx, x, y)
	if err != nil {
		if clienterr.IsKind(err, clienterr.KindNotFound) {
			actx.Map.RecordBoundary(x, y)
		}
		return game.MapTile{}, err
	}
	actx.Map.Put(*scanned)
	actx.Knowledge.LearnTile(*scanned)
	return *scanned, nil
}

// gatherOnce issues a single gather and records drops as item sources.
func gatherOnce(ctx context.Context, gc client.GameClient, actx *Context) (*client.GatherResponse, error) {
	resp, err := gc.Gather(ctx, actx.CharacterName)
	if err != nil {
		return nil, err
	}
	if actx.Target.ResourceCode != "" {
		for _, item := range resp.Items {
			actx.Knowledge.LearnItemSource(item.Code, actx.Target.ResourceCode)
		}
	}
	return resp, nil
}

// waitForCooldown blocks on the gate between the sub-steps of compound
// actions (gather-until-quantity issues many server calls in one run).
func waitForCooldown(ctx context.Context, actx *Context) error {
	if actx.Gate == nil {
		return nil
	}
	return actx.Gate.WaitUntilReady(ctx)
}

// armContextGate arms the context's gate directly; compound actions use
// it between their internal server calls.
func armContextGate(actx *Context, seconds int, expiresAt time.Time) {
	if actx.Gate != nil {
		actx.Gate.Arm(seconds, expiresAt)
	}
}

// maxSearchScans bounds live tile scans per search action; each scan is
// an API round trip, so discovery stays cheap per planning cycle.
const maxSearchScans = 25

// defaultSearchOptions returns the standard options for a nearest-match
// ring search from an action.
func defaultSearchOptions() worldmap.SearchOptions {
	return worldmap.SearchOptions{NearestOnly: true, MaxScans: maxSearchScans}
}

// worldmapExploreOptions covers full-area exploration: every ring is
// walked and the scan budget is the exploration allowance.
func worldmapExploreOptions() worldmap.SearchOptions {
	return worldmap.SearchOptions{MaxScans: exploreScanBudget}
}

// requireTarget fails fast when a context field the action depends on
// was never bound.
func requireTarget(field, value string) error {
	if value == "" {
		return clienterr.New(clienterr.KindValidation, "actions.bind",
			fmt.Sprintf("context missing %s", field))
	}
	return nil
}
