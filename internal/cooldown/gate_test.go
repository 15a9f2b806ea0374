package cooldown

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeClock drives the gate without real sleeping.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestGate(c *fakeClock, opts ...Option) *Gate {
	all := append([]Option{WithClock(c.Now, c.Sleep)}, opts...)
	return NewGate(all...)
}

func TestGateStartsReady(t *testing.T) {
	g := newTestGate(&fakeClock{now: time.Unix(1000, 0)})
	assert.True(t, g.IsReady())
	assert.Equal(t, time.Duration(0), g.Remaining())
}

func TestArmAppliesBuffer(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	g := newTestGate(clock)

	g.Arm(5, time.Time{})
	assert.False(t, g.IsReady())
	assert.Equal(t, 6*time.Second, g.Remaining())

	clock.now = clock.now.Add(6 * time.Second)
	assert.True(t, g.IsReady())
}

func TestArmMonotonic(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	g := newTestGate(clock)

	g.Arm(10, time.Time{})
	remaining := g.Remaining()

	// A shorter arm must not shorten the active cooldown.
	g.Arm(2, time.Time{})
	assert.Equal(t, remaining, g.Remaining())

	// A longer arm extends it.
	g.Arm(20, time.Time{})
	assert.Equal(t, 21*time.Second, g.Remaining())
}

func TestArmAnchorsToServerExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	g := newTestGate(clock)

	// Server expiry later than seconds-from-now wins.
	expires := clock.now.Add(30 * time.Second)
	g.Arm(5, expires)
	assert.Equal(t, 31*time.Second, g.Remaining())
}

func TestArmUntil(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	g := newTestGate(clock)

	g.ArmUntil(clock.now.Add(4 * time.Second))
	assert.Equal(t, 5*time.Second, g.Remaining())
}

func TestArmZeroIsNoop(t *testing.T) {
	g := newTestGate(&fakeClock{now: time.Unix(1000, 0)})
	g.Arm(0, time.Time{})
	assert.True(t, g.IsReady())
}

func TestWithBuffer(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	g := newTestGate(clock, WithBuffer(0))
	g.Arm(5, time.Time{})
	assert.Equal(t, 5*time.Second, g.Remaining())
}

func TestWaitUntilReadySleepsInChunks(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	sleeps := 0
	g := NewGate(WithClock(clock.Now, func(ctx context.Context, d time.Duration) {
		assert.LessOrEqual(t, d, 250*time.Millisecond)
		sleeps++
		clock.Sleep(ctx, d)
	}))

	g.Arm(1, time.Time{})
	require.NoError(t, g.WaitUntilReady(context.Background()))
	assert.True(t, g.IsReady())
	// 2s total wait (1s cooldown + 1s buffer) in 250ms chunks.
	assert.Equal(t, 8, sleeps)
}

func TestWaitUntilReadyCancellable(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	ctx, cancel := context.WithCancel(context.Background())
	g := NewGate(WithClock(clock.Now, func(sctx context.Context, d time.Duration) {
		// Cancel mid-wait; the clock never advances.
		cancel()
	}))

	g.Arm(60, time.Time{})
	err := g.WaitUntilReady(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, g.IsReady())
}
