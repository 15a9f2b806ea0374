package executor

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grindbot/internal/actions"
	"grindbot/internal/client"
	"grindbot/internal/clienterr"
	"grindbot/internal/cooldown"
	"grindbot/internal/game"
	"grindbot/internal/journal"
	"grindbot/internal/knowledge"
	"grindbot/internal/state"
	"grindbot/internal/worldmap"
)

// fakeClock drives the gate without real sleeping.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) {
	c.now = c.now.Add(d)
}

// stubClient serves character reads; everything else panics through the
// embedded nil interface if a test reaches it unexpectedly.
type stubClient struct {
	client.GameClient
	character game.Character
	fetches   int
}

func (s *stubClient) GetCharacter(ctx context.Context, name string) (*game.Character, error) {
	s.fetches++
	c := s.character
	return &c, nil
}

// harness bundles an executor over a scripted single-action registry.
type harness struct {
	exec   *Executor
	world  state.Map
	actx   *actions.Context
	gate   *cooldown.Gate
	gc     *stubClient
	clock  *fakeClock
	sleeps []time.Duration
}

func newHarness(t *testing.T, d *actions.Descriptor, opts ...Option) *harness {
	t.Helper()
	r := actions.NewRegistry()
	require.NoError(t, r.Register(d))
	r.Freeze()

	clock := &fakeClock{now: time.Unix(5000, 0)}
	gate := cooldown.NewGate(cooldown.WithClock(clock.Now, clock.Sleep))
	kb := knowledge.NewBase()
	cache := worldmap.NewCache()

	h := &harness{
		world: state.New(),
		gate:  gate,
		gc:    &stubClient{character: game.Character{Name: "tester"}},
		clock: clock,
		actx: &actions.Context{
			CharacterName: "tester",
			Knowledge:     kb,
			Map:           cache,
			Gate:          gate,
		},
	}
	all := append([]Option{WithSleep(func(ctx context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		clock.Sleep(ctx, d)
		return nil
	})}, opts...)
	h.exec = New(h.gc, r, gate, all...)
	return h
}

func TestExecuteAppliesResult(t *testing.T) {
	snapshot := &game.Character{Name: "tester", X: 3, Y: 4, HP: 70, MaxHP: 100}
	d := &actions.Descriptor{
		Name:   "scripted",
		Weight: 1,
		Run: func(ctx context.Context, gc client.GameClient, actx *actions.Context) *actions.Result {
			r := actions.Ok(state.From(map[string]any{
				actions.KeyCombatStatus: actions.CombatCompleted,
			}))
			r.Combat = &actions.CombatObservation{
				MonsterCode: "chicken",
				Outcome:     game.CombatWin,
				HPLost:      12,
			}
			r.ObserveTile(game.MapTile{X: 3, Y: 4, Content: &game.TileContent{
				Type: game.ContentMonster, Code: "chicken",
			}})
			return r.WithCharacter(snapshot).WithCooldown(6, time.Time{})
		},
	}
	h := newHarness(t, d)

	result, err := h.exec.Execute(context.Background(), "scripted", h.world, h.actx)
	require.NoError(t, err)
	require.True(t, result.Success)

	// State delta merged into the shared world.
	assert.Equal(t, actions.CombatCompleted, h.world.GetString(actions.KeyCombatStatus))

	// Cooldown armed with the buffer applied.
	assert.False(t, h.gate.IsReady())
	assert.Equal(t, 7*time.Second, h.gate.Remaining())

	// Snapshot refreshed.
	assert.Same(t, snapshot, h.actx.Character)

	// Observed tile cached and routed into the learners; the win also
	// records the monster's location.
	_, ok := h.actx.Map.Get(3, 4, true)
	assert.True(t, ok)
	monsters, _, _, _ := h.actx.Knowledge.Counts()
	assert.Equal(t, 1, monsters)
	p, ok := h.actx.Knowledge.NearestMonsterLocation("chicken", game.Point{})
	require.True(t, ok)
	assert.Equal(t, game.Point{X: 3, Y: 4}, p)
}

func TestExecuteRetriesTransient(t *testing.T) {
	runs := 0
	d := &actions.Descriptor{
		Name: "flaky",
		Run: func(ctx context.Context, gc client.GameClient, actx *actions.Context) *actions.Result {
			runs++
			if runs < 3 {
				return actions.Failf(clienterr.KindTransient, "gateway flapped")
			}
			return actions.Ok(nil)
		},
	}
	h := newHarness(t, d, WithRetry(3, time.Second))

	result, err := h.exec.Execute(context.Background(), "flaky", h.world, h.actx)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, runs)
	// Exponential backoff between attempts.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, h.sleeps)
}

func TestExecuteTransientExhaustion(t *testing.T) {
	runs := 0
	d := &actions.Descriptor{
		Name: "down",
		Run: func(ctx context.Context, gc client.GameClient, actx *actions.Context) *actions.Result {
			runs++
			return actions.Failf(clienterr.KindTransient, "server unreachable")
		},
	}
	h := newHarness(t, d, WithRetry(3, time.Second))

	result, err := h.exec.Execute(context.Background(), "down", h.world, h.actx)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, clienterr.KindTransient, result.ErrorKind)
	assert.Equal(t, 3, runs)
}

func TestExecuteNoRetryOnRejection(t *testing.T) {
	runs := 0
	d := &actions.Descriptor{
		Name: "rejected",
		Run: func(ctx context.Context, gc client.GameClient, actx *actions.Context) *actions.Result {
			runs++
			return actions.Failf(clienterr.KindRejected, "insufficient materials")
		},
	}
	h := newHarness(t, d)

	result, err := h.exec.Execute(context.Background(), "rejected", h.world, h.actx)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, runs)
	assert.Empty(t, h.sleeps)
}

func TestExecuteCooldownRetriesOnce(t *testing.T) {
	runs := 0
	d := &actions.Descriptor{
		Name: "eager",
		Run: func(ctx context.Context, gc client.GameClient, actx *actions.Context) *actions.Result {
			runs++
			if runs == 1 {
				return actions.Failf(clienterr.KindCooldown, "character in cooldown")
			}
			return actions.Ok(nil)
		},
	}
	h := newHarness(t, d)

	result, err := h.exec.Execute(context.Background(), "eager", h.world, h.actx)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, runs)
}

func TestExecuteCooldownResyncsFromServer(t *testing.T) {
	runs := 0
	d := &actions.Descriptor{
		Name: "eager",
		Run: func(ctx context.Context, gc client.GameClient, actx *actions.Context) *actions.Result {
			runs++
			if runs == 1 {
				return actions.Failf(clienterr.KindCooldown, "character in cooldown")
			}
			return actions.Ok(nil)
		},
	}
	h := newHarness(t, d)
	expiry := h.clock.now.Add(10 * time.Second)
	h.gc.character.CooldownExpiresAt = expiry

	result, err := h.exec.Execute(context.Background(), "eager", h.world, h.actx)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, runs)

	// The gate re-armed from the authoritative expiry, not a fixed pad:
	// the retry could not run until the server-reported cooldown passed.
	assert.Equal(t, 1, h.gc.fetches)
	assert.True(t, h.clock.now.After(expiry))

	// The re-read also refreshed the snapshot.
	require.NotNil(t, h.actx.Character)
	assert.Equal(t, expiry, h.actx.Character.CooldownExpiresAt)
}

func TestExecuteBindFailureSkipsRun(t *testing.T) {
	runs := 0
	d := &actions.Descriptor{
		Name: "unbound",
		Bind: func(actx *actions.Context) error {
			return clienterr.New(clienterr.KindValidation, "test.bind", "missing target")
		},
		Run: func(ctx context.Context, gc client.GameClient, actx *actions.Context) *actions.Result {
			runs++
			return actions.Ok(nil)
		},
	}
	h := newHarness(t, d)

	result, err := h.exec.Execute(context.Background(), "unbound", h.world, h.actx)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, clienterr.KindValidation, result.ErrorKind)
	assert.Zero(t, runs)
}

func TestExecuteUnknownAction(t *testing.T) {
	h := newHarness(t, &actions.Descriptor{
		Name: "known",
		Run: func(ctx context.Context, gc client.GameClient, actx *actions.Context) *actions.Result {
			return actions.Ok(nil)
		},
	})
	_, err := h.exec.Execute(context.Background(), "missing", h.world, h.actx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action")
}

func TestExecuteJournalsOutcome(t *testing.T) {
	jnl, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	defer jnl.Close()

	d := &actions.Descriptor{
		Name: "journaled",
		Run: func(ctx context.Context, gc client.GameClient, actx *actions.Context) *actions.Result {
			return actions.Ok(nil).WithData("xp", 25).WithCooldown(3, time.Time{})
		},
	}
	h := newHarness(t, d, WithJournal(jnl))
	h.actx.GoalName = "level_up"

	_, err = h.exec.Execute(context.Background(), "journaled", h.world, h.actx)
	require.NoError(t, err)

	entries, err := jnl.Recent("tester", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "journaled", entries[0].Action)
	assert.Equal(t, "level_up", entries[0].Goal)
	assert.True(t, entries[0].Success)
	assert.Equal(t, 3, entries[0].CooldownSeconds)
}
