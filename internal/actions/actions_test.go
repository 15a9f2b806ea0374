package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grindbot/internal/client"
	"grindbot/internal/clienterr"
	"grindbot/internal/game"
	"grindbot/internal/knowledge"
	"grindbot/internal/worldmap"
)

// fakeGame scripts the client surface actions touch. Entity lookups
// serve from the maps (404 otherwise, so it doubles as the knowledge
// fetcher); action endpoints delegate to the fn fields and panic when
// an action calls an endpoint the test did not script.
type fakeGame struct {
	client.GameClient

	monsters  map[string]*game.MonsterRecord
	items     map[string]*game.ItemRecord
	resources map[string]*game.ResourceRecord

	moveFn    func(x, y int) (*client.MoveResponse, error)
	restFn    func() (*client.RestResponse, error)
	attackFn  func() (*client.FightResponse, error)
	gatherFn  func() (*client.GatherResponse, error)
	craftFn   func(code string, quantity int) (*client.CraftResponse, error)
	equipFn   func(code string, slot game.Slot) (*client.EquipResponse, error)
	unequipFn func(slot game.Slot) (*client.EquipResponse, error)
	getMapFn  func(x, y int) (*game.MapTile, error)

	calls []string
}

func (f *fakeGame) GetMonster(ctx context.Context, code string) (*game.MonsterRecord, error) {
	if m, ok := f.monsters[code]; ok {
		return m, nil
	}
	return nil, clienterr.FromStatus(404, "fake.monster", code)
}

func (f *fakeGame) GetItem(ctx context.Context, code string) (*game.ItemRecord, error) {
	if i, ok := f.items[code]; ok {
		return i, nil
	}
	return nil, clienterr.FromStatus(404, "fake.item", code)
}

func (f *fakeGame) GetResource(ctx context.Context, code string) (*game.ResourceRecord, error) {
	if r, ok := f.resources[code]; ok {
		return r, nil
	}
	return nil, clienterr.FromStatus(404, "fake.resource", code)
}

func (f *fakeGame) GetMap(ctx context.Context, x, y int) (*game.MapTile, error) {
	f.calls = append(f.calls, "GetMap")
	if f.getMapFn == nil {
		panic("unexpected GetMap call")
	}
	return f.getMapFn(x, y)
}

func (f *fakeGame) Move(ctx context.Context, name string, x, y int) (*client.MoveResponse, error) {
	f.calls = append(f.calls, "Move")
	if f.moveFn == nil {
		panic("unexpected Move call")
	}
	return f.moveFn(x, y)
}

func (f *fakeGame) Rest(ctx context.Context, name string) (*client.RestResponse, error) {
	f.calls = append(f.calls, "Rest")
	if f.restFn == nil {
		panic("unexpected Rest call")
	}
	return f.restFn()
}

func (f *fakeGame) Attack(ctx context.Context, name string) (*client.FightResponse, error) {
	f.calls = append(f.calls, "Attack")
	if f.attackFn == nil {
		panic("unexpected Attack call")
	}
	return f.attackFn()
}

func (f *fakeGame) Gather(ctx context.Context, name string) (*client.GatherResponse, error) {
	f.calls = append(f.calls, "Gather")
	if f.gatherFn == nil {
		panic("unexpected Gather call")
	}
	return f.gatherFn()
}

func (f *fakeGame) Craft(ctx context.Context, name, code string, quantity int) (*client.CraftResponse, error) {
	f.calls = append(f.calls, "Craft")
	if f.craftFn == nil {
		panic("unexpected Craft call")
	}
	return f.craftFn(code, quantity)
}

func (f *fakeGame) Equip(ctx context.Context, name, code string, slot game.Slot) (*client.EquipResponse, error) {
	f.calls = append(f.calls, "Equip")
	if f.equipFn == nil {
		panic("unexpected Equip call")
	}
	return f.equipFn(code, slot)
}

func (f *fakeGame) Unequip(ctx context.Context, name string, slot game.Slot, quantity int) (*client.EquipResponse, error) {
	f.calls = append(f.calls, "Unequip")
	if f.unequipFn == nil {
		panic("unexpected Unequip call")
	}
	return f.unequipFn(slot)
}

// testContext wires a fresh context with the fake doubling as the
// knowledge fetcher. No gate: compound actions treat a nil gate as
// always ready.
func testContext(gc client.GameClient, char *game.Character) *Context {
	return &Context{
		CharacterName: "tester",
		Character:     char,
		Knowledge:     knowledge.NewBase(knowledge.WithFetcher(gc)),
		Map:           worldmap.NewCache(),
	}
}

// runAction binds and runs a descriptor the way the executor does.
func runAction(t *testing.T, d *Descriptor, gc client.GameClient, actx *Context) *Result {
	t.Helper()
	if d.Bind != nil {
		require.NoError(t, d.Bind(actx))
	}
	return d.Run(context.Background(), gc, actx)
}

func testCooldown(seconds int) client.Cooldown {
	return client.Cooldown{Seconds: seconds}
}

func monsterTile(x, y int, code string) game.MapTile {
	return game.MapTile{X: x, Y: y, Content: &game.TileContent{Type: game.ContentMonster, Code: code}}
}

func resourceTile(x, y int, code string) game.MapTile {
	return game.MapTile{X: x, Y: y, Content: &game.TileContent{Type: game.ContentResource, Code: code}}
}

func workshopTile(x, y int, code string) game.MapTile {
	return game.MapTile{X: x, Y: y, Content: &game.TileContent{Type: game.ContentWorkshop, Code: code}}
}

func TestContextRadiusDefaults(t *testing.T) {
	actx := &Context{}
	assert.Equal(t, DefaultSearchRadius, actx.Radius())

	actx.SearchRadius = 4
	assert.Equal(t, 4, actx.Radius())
}

func TestContextResetForGoal(t *testing.T) {
	kb := knowledge.NewBase()
	actx := &Context{
		CharacterName: "tester",
		Character:     &game.Character{Name: "tester"},
		Knowledge:     kb,
		Target:        Target{Kind: TargetItem, ItemCode: "copper_sword"},
		Craft:         &CraftPlan{TargetItem: "copper_sword"},
		TrainSkill:    game.SkillMining,
	}

	actx.ResetForGoal("level_up")

	assert.Equal(t, "level_up", actx.GoalName)
	assert.Equal(t, Target{}, actx.Target)
	assert.Nil(t, actx.Craft)
	assert.Empty(t, actx.TrainSkill)
	// Session handles survive goal boundaries.
	assert.Same(t, kb, actx.Knowledge)
	assert.NotNil(t, actx.Character)
}

func TestContextDestination(t *testing.T) {
	actx := &Context{}
	_, ok := actx.Destination()
	assert.False(t, ok)

	actx.SetDestination(3, -2)
	p, ok := actx.Destination()
	require.True(t, ok)
	assert.Equal(t, game.Point{X: 3, Y: -2}, p)
}
