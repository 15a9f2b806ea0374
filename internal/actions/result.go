package actions

import (
	"time"

	"grindbot/internal/clienterr"
	"grindbot/internal/game"
	"grindbot/internal/state"
)

// CombatObservation is a fight outcome for the knowledge base to learn.
type CombatObservation struct {
	MonsterCode string
	Outcome     game.CombatOutcome
	HPLost      int
}

// Result is the uniform outcome of one action execution. Failures
// carry the error taxonomy kind; successes carry the state delta to
// merge, the cooldown to arm, and the facts learned.
type Result struct {
	Success bool

	// Data is the action's structured payload (diagnostics, journal).
	Data map[string]any

	// Error describes the failure; ErrorKind classifies it.
	Error     string
	ErrorKind clienterr.Kind

	// StateChanges is merged into the shared world state on success.
	StateChanges state.Map

	// Cooldown reported by the server, zero for local-only actions.
	CooldownSeconds   int
	CooldownExpiresAt time.Time

	// Character is the refreshed snapshot when the action mutated the
	// character.
	Character *game.Character

	// Tiles observed during execution; fed to the map cache and the
	// location learners.
	Tiles []game.MapTile

	// Combat is set after a fight for the knowledge base.
	Combat *CombatObservation
}

// Ok builds a success result with the given state delta.
func Ok(changes state.Map) *Result {
	return &Result{Success: true, StateChanges: changes, Data: map[string]any{}}
}

// Fail builds a failure result from a classified error.
func Fail(err error) *Result {
	return &Result{
		Success:   false,
		Error:     err.Error(),
		ErrorKind: clienterr.KindOf(err),
		Data:      map[string]any{},
	}
}

// Failf builds a failure result with an explicit kind.
func Failf(kind clienterr.Kind, msg string) *Result {
	return &Result{Success: false, Error: msg, ErrorKind: kind, Data: map[string]any{}}
}

// WithData attaches a payload entry, chainable.
func (r *Result) WithData(key string, value any) *Result {
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	r.Data[key] = value
	return r
}

// WithCooldown records the server cooldown, chainable.
func (r *Result) WithCooldown(seconds int, expiresAt time.Time) *Result {
	r.CooldownSeconds = seconds
	r.CooldownExpiresAt = expiresAt
	return r
}

// WithCharacter records the refreshed snapshot, chainable.
func (r *Result) WithCharacter(c *game.Character) *Result {
	r.Character = c
	return r
}

// ObserveTile queues a tile for the learning callbacks, chainable.
func (r *Result) ObserveTile(t game.MapTile) *Result {
	r.Tiles = append(r.Tiles, t)
	return r
}
