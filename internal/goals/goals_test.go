package goals

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grindbot/internal/actions"
	"grindbot/internal/client"
	"grindbot/internal/clienterr"
	"grindbot/internal/game"
	"grindbot/internal/knowledge"
	"grindbot/internal/state"
)

// itemFetcher serves item records so tests can seed the knowledge base
// the same way the live loop learns.
type itemFetcher struct {
	client.GameClient
	items map[string]*game.ItemRecord
}

func (f *itemFetcher) GetItem(ctx context.Context, code string) (*game.ItemRecord, error) {
	if i, ok := f.items[code]; ok {
		return i, nil
	}
	return nil, clienterr.FromStatus(404, "fake.item", code)
}

func baseWithItems(t *testing.T, items ...*game.ItemRecord) *knowledge.Base {
	t.Helper()
	fetcher := &itemFetcher{items: map[string]*game.ItemRecord{}}
	for _, i := range items {
		fetcher.items[i.Code] = i
	}
	kb := knowledge.NewBase(knowledge.WithFetcher(fetcher))
	for _, i := range items {
		_, err := kb.GetItem(context.Background(), i.Code)
		require.NoError(t, err)
	}
	return kb
}

func healthyCharacter() *game.Character {
	return &game.Character{
		Name: "tester", HP: 100, MaxHP: 100, Level: 8,
		SkillLevels: map[game.Skill]int{
			game.SkillMining:      5,
			game.SkillWoodcutting: 5,
			game.SkillFishing:     5,
			game.SkillAlchemy:     5,
		},
	}
}

func TestRestPreemptsEverything(t *testing.T) {
	m := NewManager(WithThresholds(Thresholds{
		SafeHPRatio: 0.6,
		SkillFloor:  5,
		TargetItem:  "copper_sword",
	}))
	c := healthyCharacter()
	c.HP = 30

	g := m.Select(c, knowledge.NewBase())
	require.NotNil(t, g)
	assert.Equal(t, "rest_to_full", g.Name)
	assert.True(t, state.From(map[string]any{actions.KeyHPFull: true}).Satisfies(g.Desired))
}

func TestObtainTargetItem(t *testing.T) {
	m := NewManager(WithThresholds(Thresholds{
		SafeHPRatio: 0.6,
		SkillFloor:  5,
		TargetItem:  "copper_sword",
	}))
	c := healthyCharacter()
	kb := knowledge.NewBase()

	g := m.Select(c, kb)
	require.NotNil(t, g)
	assert.Equal(t, "obtain_target_item", g.Name)

	actx := &actions.Context{CharacterName: c.Name}
	m.Activate(g, actx, c)
	assert.Equal(t, "obtain_target_item", actx.GoalName)
	assert.Equal(t, actions.TargetItem, actx.Target.Kind)
	assert.Equal(t, "copper_sword", actx.Target.ItemCode)
	assert.Equal(t, 1, actx.Target.Quantity)

	// Once the item is held the goal stops applying.
	c.Inventory = []game.InventorySlot{{Code: "copper_sword", Quantity: 1}}
	g = m.Select(c, kb)
	require.NotNil(t, g)
	assert.NotEqual(t, "obtain_target_item", g.Name)
}

func TestTrainLaggingSkill(t *testing.T) {
	m := NewManager()
	c := healthyCharacter()
	c.SkillLevels[game.SkillFishing] = 1
	c.SkillLevels[game.SkillMining] = 3

	g := m.Select(c, knowledge.NewBase())
	require.NotNil(t, g)
	assert.Equal(t, "train_lagging_skill", g.Name)

	// Prepare binds the lowest skill.
	actx := &actions.Context{}
	m.Activate(g, actx, c)
	assert.Equal(t, game.SkillFishing, actx.TrainSkill)
}

func TestUpgradeEquipment(t *testing.T) {
	kb := baseWithItems(t,
		&game.ItemRecord{Code: "stick", Type: game.ItemTypeWeapon, Level: 1},
		&game.ItemRecord{Code: "copper_sword", Type: game.ItemTypeWeapon, Level: 5},
	)
	c := healthyCharacter()
	c.Inventory = []game.InventorySlot{{Code: "copper_sword", Quantity: 1}}
	c.Equipment = map[game.Slot]string{game.SlotWeapon: "stick"}

	g := NewManager().Select(c, kb)
	require.NotNil(t, g)
	assert.Equal(t, "upgrade_equipment", g.Name)

	// Wearing the better weapon removes the upgrade; a worse inventory
	// item does not reintroduce it.
	c.Equipment[game.SlotWeapon] = "copper_sword"
	c.Inventory = []game.InventorySlot{{Code: "stick", Quantity: 1}}
	g = NewManager().Select(c, kb)
	require.NotNil(t, g)
	assert.NotEqual(t, "upgrade_equipment", g.Name)
}

func TestLevelUpDefaultGoal(t *testing.T) {
	g := NewManager().Select(healthyCharacter(), knowledge.NewBase())
	require.NotNil(t, g)
	assert.Equal(t, "level_up", g.Name)
	assert.True(t, state.From(map[string]any{
		actions.KeyCombatStatus: actions.CombatCompleted,
	}).Satisfies(g.Desired))
}

func TestNoEligibleGoal(t *testing.T) {
	m := NewManager(WithThresholds(Thresholds{
		SafeHPRatio: 0.6,
		SkillFloor:  5,
		TargetLevel: 8,
	}))
	// At target level, skills at floor, nothing to craft or earn.
	assert.Nil(t, m.Select(healthyCharacter(), knowledge.NewBase()))
}

func TestEarnGold(t *testing.T) {
	m := NewManager(WithThresholds(Thresholds{
		SafeHPRatio: 0.6,
		SkillFloor:  5,
		TargetLevel: 8,
		GoldTarget:  500,
	}))
	c := healthyCharacter()
	c.Gold = 100

	g := m.Select(c, knowledge.NewBase())
	require.NotNil(t, g)
	assert.Equal(t, "earn_gold", g.Name)

	c.Gold = 500
	assert.Nil(t, m.Select(c, knowledge.NewBase()))
}

func TestGoalsOrderedByPriority(t *testing.T) {
	goals := NewManager().Goals()
	require.NotEmpty(t, goals)
	for i := 1; i < len(goals); i++ {
		assert.GreaterOrEqual(t, goals[i-1].Priority, goals[i].Priority)
	}
	assert.Equal(t, "rest_to_full", goals[0].Name)
}

func TestCustomGoalAndHotReload(t *testing.T) {
	custom := &Goal{
		Name:     "hold_position",
		Priority: 200,
		Desired:  state.From(map[string]any{actions.KeyAtTarget: true}),
	}
	m := NewManager(WithGoal(custom))

	g := m.Select(healthyCharacter(), knowledge.NewBase())
	require.NotNil(t, g)
	assert.Equal(t, "hold_position", g.Name)

	// Threshold replacement applies to the next selection.
	m.SetThresholds(Thresholds{SafeHPRatio: 0.9, SkillFloor: 5})
	c := healthyCharacter()
	c.HP = 80
	// Custom goal still outranks rest; drop it from consideration by
	// checking the standard manager.
	std := NewManager(WithThresholds(Thresholds{SafeHPRatio: 0.9, SkillFloor: 5}))
	g = std.Select(c, knowledge.NewBase())
	require.NotNil(t, g)
	assert.Equal(t, "rest_to_full", g.Name)
}
