// Package cooldown implements the gate that serializes actions against
// the server's per-character cooldown. The gate never surfaces errors;
// a mis-armed cooldown produces a server-side 499 on the next action,
// which the executor re-synchronizes from.
package cooldown

import (
	"context"
	"sync"
	"time"

	"grindbot/internal/logging"
)

// Default tuning.
const (
	// DefaultBuffer pads every server cooldown to absorb clock skew
	// between agent and server.
	DefaultBuffer = 1 * time.Second

	// waitChunk bounds each sleep so the wait stays cancellable.
	waitChunk = 250 * time.Millisecond
)

// Gate tracks the character's cooldown expiry. Reset-on-start: the
// first action after boot must re-arm from the server-reported expiry.
type Gate struct {
	mu      sync.Mutex
	readyAt time.Time
	buffer  time.Duration
	now     func() time.Time
	sleep   func(context.Context, time.Duration)
}

// Option configures a Gate.
type Option func(*Gate)

// WithBuffer overrides the cooldown padding.
func WithBuffer(d time.Duration) Option {
	return func(g *Gate) { g.buffer = d }
}

// WithClock substitutes the time source (tests).
func WithClock(now func() time.Time, sleep func(context.Context, time.Duration)) Option {
	return func(g *Gate) {
		g.now = now
		g.sleep = sleep
	}
}

// NewGate builds a gate with the default 1s buffer.
func NewGate(opts ...Option) *Gate {
	g := &Gate{
		buffer: DefaultBuffer,
		now:    time.Now,
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Arm records a cooldown of the given seconds, optionally anchored to a
// server-provided expiry. Monotonic: an arm that would shorten an
// active cooldown is ignored.
func (g *Gate) Arm(seconds int, expiresAt time.Time) {
	if seconds <= 0 && expiresAt.IsZero() {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	ready := g.now().Add(time.Duration(seconds)*time.Second + g.buffer)
	if !expiresAt.IsZero() {
		anchored := expiresAt.Add(g.buffer)
		if anchored.After(ready) {
			ready = anchored
		}
	}
	if ready.After(g.readyAt) {
		logging.CooldownDebug("armed: ready in %v", ready.Sub(g.now()).Round(time.Millisecond))
		g.readyAt = ready
	}
}

// ArmUntil records an absolute expiry (used when re-syncing from a
// character snapshot).
func (g *Gate) ArmUntil(expiresAt time.Time) {
	g.Arm(0, expiresAt)
}

// IsReady reports whether an action may be submitted now.
func (g *Gate) IsReady() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.now().Before(g.readyAt)
}

// Remaining returns the time until the gate opens, zero when ready.
func (g *Gate) Remaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	d := g.readyAt.Sub(g.now())
	if d < 0 {
		return 0
	}
	return d
}

// WaitUntilReady blocks until the cooldown has elapsed or the context
// is cancelled. Sleeps in coarse chunks so stop requests take effect
// within ~250ms.
func (g *Gate) WaitUntilReady(ctx context.Context) error {
	total := g.Remaining()
	if total > 0 {
		logging.Cooldown("waiting %v for cooldown", total.Round(time.Millisecond))
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		remaining := g.Remaining()
		if remaining <= 0 {
			return nil
		}
		if remaining > waitChunk {
			remaining = waitChunk
		}
		g.sleep(ctx, remaining)
	}
}
