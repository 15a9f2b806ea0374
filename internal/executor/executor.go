// Package executor runs planned actions against the live server: it
// waits out the cooldown gate, binds and runs the descriptor, folds the
// result into the shared world state, feeds observations to the
// learning subsystems, and journals the outcome. Retry policy lives
// here so actions stay single-attempt.
package executor

import (
	"context"
	"fmt"
	"time"

	"grindbot/internal/actions"
	"grindbot/internal/client"
	"grindbot/internal/clienterr"
	"grindbot/internal/cooldown"
	"grindbot/internal/game"
	"grindbot/internal/journal"
	"grindbot/internal/logging"
	"grindbot/internal/state"
)

// Retry policy for transient failures.
const (
	DefaultMaxAttempts = 3
	DefaultBackoffBase = time.Second
	backoffFactor      = 2
)

// Executor executes one action at a time for one character.
type Executor struct {
	gc       client.GameClient
	registry *actions.Registry
	gate     *cooldown.Gate

	journal *journal.Journal

	maxAttempts int
	backoffBase time.Duration
	sleep       func(context.Context, time.Duration) error
}

// Option configures an Executor.
type Option func(*Executor)

// WithJournal attaches an action journal.
func WithJournal(j *journal.Journal) Option {
	return func(e *Executor) { e.journal = j }
}

// WithRetry overrides the transient retry policy.
func WithRetry(attempts int, base time.Duration) Option {
	return func(e *Executor) {
		e.maxAttempts = attempts
		e.backoffBase = base
	}
}

// WithSleep overrides the backoff sleeper (tests).
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(e *Executor) { e.sleep = fn }
}

// New builds an executor.
func New(gc client.GameClient, registry *actions.Registry, gate *cooldown.Gate, opts ...Option) *Executor {
	e := &Executor{
		gc:          gc,
		registry:    registry,
		gate:        gate,
		maxAttempts: DefaultMaxAttempts,
		backoffBase: DefaultBackoffBase,
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one named action: gate wait, bind, run with retries,
// apply. The returned result is always non-nil; the error is non-nil
// only for unknown actions and context cancellation.
func (e *Executor) Execute(ctx context.Context, name string, world state.Map, actx *actions.Context) (*actions.Result, error) {
	d, ok := e.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown action %q", name)
	}

	if d.Bind != nil {
		if err := d.Bind(actx); err != nil {
			logging.Executor("bind %s failed: %v", name, err)
			result := actions.Fail(err)
			e.record(name, actx, result)
			return result, nil
		}
	}

	var result *actions.Result
	for attempt := 1; ; attempt++ {
		if err := e.gate.WaitUntilReady(ctx); err != nil {
			return nil, err
		}

		started := time.Now()
		result = d.Run(ctx, e.gc, actx)
		if result == nil {
			result = actions.Failf(clienterr.KindFatal, "action returned no result")
		}
		logging.ExecutorDebug("%s attempt %d: success=%t in %s",
			name, attempt, result.Success, time.Since(started).Round(time.Millisecond))

		if result.Success || !e.shouldRetry(result, attempt) {
			break
		}

		// A cooldown rejection means our gate drifted from the server's
		// clock; re-sync from the authoritative expiry before the retry.
		if result.ErrorKind == clienterr.KindCooldown {
			e.rearmFromServer(ctx, actx)
		}
		delay := e.backoff(attempt)
		logging.Executor("%s failed (%s), retry %d/%d in %s: %s",
			name, result.ErrorKind, attempt, e.maxAttempts, delay, result.Error)
		if err := e.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	e.apply(name, world, actx, result)
	e.record(name, actx, result)
	return result, nil
}

// rearmFromServer re-reads the character and arms the gate from the
// server-reported cooldown expiry. A failed read falls back to a
// conservative 1s arm.
func (e *Executor) rearmFromServer(ctx context.Context, actx *actions.Context) {
	c, err := e.gc.GetCharacter(ctx, actx.CharacterName)
	if err != nil {
		e.gate.Arm(1, time.Time{})
		return
	}
	actx.Character = c
	e.gate.ArmUntil(c.CooldownExpiresAt)
}

// shouldRetry applies the taxonomy: transient errors retry with
// backoff, a cooldown rejection retries once, everything else
// propagates to the planner.
func (e *Executor) shouldRetry(r *actions.Result, attempt int) bool {
	switch r.ErrorKind {
	case clienterr.KindTransient:
		return attempt < e.maxAttempts
	case clienterr.KindCooldown:
		return attempt < 2
	default:
		return false
	}
}

func (e *Executor) backoff(attempt int) time.Duration {
	d := e.backoffBase
	for i := 1; i < attempt; i++ {
		d *= backoffFactor
	}
	return d
}

// apply folds a result into the world: state delta, cooldown, snapshot
// refresh, and the learning callbacks.
func (e *Executor) apply(name string, world state.Map, actx *actions.Context, r *actions.Result) {
	if r.StateChanges != nil {
		world.Merge(r.StateChanges)
	}
	if r.CooldownSeconds > 0 || !r.CooldownExpiresAt.IsZero() {
		e.gate.Arm(r.CooldownSeconds, r.CooldownExpiresAt)
	}
	if r.Character != nil {
		actx.Character = r.Character
	}

	for _, tile := range r.Tiles {
		actx.Map.Put(tile)
		actx.Knowledge.LearnTile(tile)
	}
	if r.Combat != nil {
		actx.Knowledge.LearnCombat(r.Combat.MonsterCode, r.Combat.Outcome, r.Combat.HPLost)
		if actx.Character != nil && r.Combat.Outcome == game.CombatWin {
			actx.Knowledge.LearnMonsterLocation(r.Combat.MonsterCode, actx.Character.X, actx.Character.Y)
		}
	}

	if r.Success {
		logging.Executor("%s ok (cooldown %ds)", name, r.CooldownSeconds)
	} else {
		logging.Executor("%s failed: [%s] %s", name, r.ErrorKind, r.Error)
	}
}

// record journals the outcome; journal failures only log.
func (e *Executor) record(name string, actx *actions.Context, r *actions.Result) {
	if e.journal == nil {
		return
	}
	err := e.journal.Record(journal.Entry{
		Character:       actx.CharacterName,
		Goal:            actx.GoalName,
		Action:          name,
		Success:         r.Success,
		ErrorKind:       string(r.ErrorKind),
		Error:           r.Error,
		CooldownSeconds: r.CooldownSeconds,
		Data:            r.Data,
	})
	if err != nil {
		logging.Executor("journal record failed: %v", err)
	}
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
