package player

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grindbot/internal/actions"
	"grindbot/internal/client"
	"grindbot/internal/clienterr"
	"grindbot/internal/config"
	"grindbot/internal/game"
)

// fakeClient scripts the character read; everything else panics through
// the embedded nil interface if a test reaches it unexpectedly.
type fakeClient struct {
	client.GameClient
	character *game.Character
	fetches   int
}

func (f *fakeClient) GetCharacter(ctx context.Context, name string) (*game.Character, error) {
	f.fetches++
	c := *f.character
	return &c, nil
}

func testSession(t *testing.T, fake *fakeClient) *Session {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Data.Prefix = t.TempDir()
	s, err := NewSession(cfg, fake, "tester")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func healthySnapshot() *game.Character {
	return &game.Character{
		Name: "tester", X: 1, Y: 1, HP: 100, MaxHP: 100, Level: 4,
		SkillLevels: map[game.Skill]int{game.SkillMining: 2},
	}
}

func TestNewSessionWiresSubsystems(t *testing.T) {
	fake := &fakeClient{character: healthySnapshot()}
	s := testSession(t, fake)

	assert.Greater(t, s.Registry().Len(), 20)
	assert.NotNil(t, s.Knowledge())
	assert.NotNil(t, s.Worldmap())
	assert.NotNil(t, s.Planner())
	assert.NotNil(t, s.Goals())
	assert.NotEmpty(t, s.Journal().SessionID())
	assert.Equal(t, "tester", s.Context().CharacterName)

	// The per-character data directory exists.
	_, err := os.Stat(s.dir)
	assert.NoError(t, err)
}

func TestStopSentinelIsConsumed(t *testing.T) {
	fake := &fakeClient{character: healthySnapshot()}
	s := testSession(t, fake)

	assert.False(t, s.stopRequested())
	require.NoError(t, RequestStop(s.cfg, "tester"))
	assert.True(t, s.stopRequested())
	// Consumed on read; the next cycle proceeds.
	assert.False(t, s.stopRequested())
	_, err := os.Stat(filepath.Join(s.dir, stopFile))
	assert.True(t, os.IsNotExist(err))
}

func TestRefreshArmsGateFromServerCooldown(t *testing.T) {
	snapshot := healthySnapshot()
	snapshot.CooldownExpiresAt = time.Now().Add(5 * time.Second)
	fake := &fakeClient{character: snapshot}
	s := testSession(t, fake)

	require.NoError(t, s.Refresh(context.Background()))
	require.NotNil(t, s.Context().Character)
	assert.Equal(t, "tester", s.Context().Character.Name)
	// The server-side cooldown still running carries into the gate.
	assert.False(t, s.gate.IsReady())
}

func TestRefreshSkipsFreshSnapshot(t *testing.T) {
	fake := &fakeClient{character: healthySnapshot()}
	s := testSession(t, fake)

	require.NoError(t, s.refreshSnapshot(context.Background(), true))
	require.NoError(t, s.refreshSnapshot(context.Background(), false))
	assert.Equal(t, 1, fake.fetches)
}

func TestSnapshotStale(t *testing.T) {
	fake := &fakeClient{character: healthySnapshot()}
	s := testSession(t, fake)

	// No snapshot at all.
	assert.True(t, s.snapshotStale())

	// Fresh snapshot without a cooldown never goes stale on its own.
	s.actx.Character = healthySnapshot()
	assert.False(t, s.snapshotStale())

	// A cooldown that expired long past the TTL marks it stale.
	old := healthySnapshot()
	old.CooldownExpiresAt = time.Now().Add(-s.cfg.GetSnapshotTTL() - time.Minute)
	s.actx.Character = old
	assert.True(t, s.snapshotStale())
}

func TestBuildStateDerivesFacts(t *testing.T) {
	fake := &fakeClient{character: healthySnapshot()}
	s := testSession(t, fake)
	s.actx.Character = healthySnapshot()

	world := s.BuildState()
	assert.True(t, world.GetBool(actions.KeyAlive))
	assert.True(t, world.GetBool(actions.KeySafe))
	assert.True(t, world.GetBool(actions.KeyHPFull))
	assert.False(t, world.GetBool(actions.KeyAtTarget))
	assert.False(t, world.GetBool(actions.KeyLocationKnown))
	assert.Equal(t, actions.CombatIdle, world.GetString(actions.KeyCombatStatus))
	assert.Equal(t, actions.MaterialsUnknown, world.GetString(actions.KeyMaterialsStatus))
	assert.Equal(t, actions.EquipmentUnknown, world.GetString(actions.KeyEquipmentStatus))
	assert.False(t, world.GetBool(actions.KeySkillTrainable))

	level, ok := world.GetNumber(actions.KeyLevel)
	require.True(t, ok)
	assert.Equal(t, 4.0, level)
}

func TestBuildStateTracksContextBindings(t *testing.T) {
	fake := &fakeClient{character: healthySnapshot()}
	s := testSession(t, fake)
	s.actx.Character = healthySnapshot()

	// Standing on the bound destination.
	s.actx.SetDestination(1, 1)
	world := s.BuildState()
	assert.True(t, world.GetBool(actions.KeyAtTarget))
	assert.True(t, world.GetBool(actions.KeyLocationKnown))

	// A low snapshot flips the safety facts.
	hurt := healthySnapshot()
	hurt.HP = 30
	s.actx.Character = hurt
	world = s.BuildState()
	assert.True(t, world.GetBool(actions.KeyAlive))
	assert.False(t, world.GetBool(actions.KeySafe))
	assert.False(t, world.GetBool(actions.KeyHPFull))

	// An active craft plan and training goal surface as planner gates.
	s.actx.Craft = &actions.CraftPlan{TargetItem: "copper_sword", Workshop: game.SkillWeaponcrafting}
	s.actx.TrainSkill = game.SkillMining
	world = s.BuildState()
	assert.True(t, world.GetBool(actions.KeyMaterialsRequirements))
	assert.True(t, world.GetBool(actions.KeySkillTrainable))
}

func TestSafetyDiverged(t *testing.T) {
	fake := &fakeClient{character: healthySnapshot()}
	s := testSession(t, fake)
	s.actx.Character = healthySnapshot()

	world := s.BuildState()
	assert.False(t, s.safetyDiverged(world))

	// The plan assumed safe; a fight dropped HP below the floor.
	hurt := healthySnapshot()
	hurt.HP = 20
	s.actx.Character = hurt
	assert.True(t, s.safetyDiverged(world))

	// Death always diverges.
	dead := healthySnapshot()
	dead.HP = 0
	s.actx.Character = dead
	assert.True(t, s.safetyDiverged(world))
}

func TestSaveWritesDirtyState(t *testing.T) {
	fake := &fakeClient{character: healthySnapshot()}
	s := testSession(t, fake)

	s.Knowledge().LearnMonsterLocation("chicken", 1, 1)
	s.Worldmap().Put(game.MapTile{X: 1, Y: 1, Content: &game.TileContent{
		Type: game.ContentMonster, Code: "chicken",
	}})
	require.NoError(t, s.Save())

	_, err := os.Stat(filepath.Join(s.dir, knowledgeFile))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(s.dir, mapFile))
	assert.NoError(t, err)
}

func TestRunStopsAtMaxRuntime(t *testing.T) {
	fake := &fakeClient{character: healthySnapshot()}
	s := testSession(t, fake)
	s.cfg.Loop.MaxRuntime = "1ns"

	require.NoError(t, s.Run(context.Background()))
	// The deadline fired before the first cycle: only the initial
	// snapshot refresh reached the server.
	assert.Equal(t, 1, fake.fetches)
}

func TestFatalResultEndsSession(t *testing.T) {
	fatal := actions.Failf(clienterr.KindFatal, "token rejected")
	err := fatalFailure("rest", fatal)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rest")

	// Rejections keep the loop alive; they only force a replan.
	rejected := actions.Failf(clienterr.KindRejected, "insufficient materials")
	assert.NoError(t, fatalFailure("craft_item", rejected))
}

func TestApplyConfigUpdatesTunables(t *testing.T) {
	fake := &fakeClient{character: healthySnapshot()}
	s := testSession(t, fake)

	cfg := config.DefaultConfig()
	cfg.Data.Prefix = s.cfg.Data.Prefix
	cfg.Loop.SearchRadius = 3
	cfg.Knowledge.MinWinRate = 0.8
	s.ApplyConfig(cfg)

	assert.Equal(t, 3, s.Context().SearchRadius)
	assert.Equal(t, 0.8, s.Knowledge().Policy().MinWinRate)
}
