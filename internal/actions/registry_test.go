package actions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grindbot/internal/client"
	"grindbot/internal/game"
	"grindbot/internal/state"
)

func TestDefaultRegistryCatalogue(t *testing.T) {
	r := DefaultRegistry(&fakeGame{})

	// Every skill gets a training macro on top of the fixed catalogue.
	assert.Equal(t, 24+len(game.AllSkills), r.Len())

	names := r.Names()
	for _, want := range []string{
		"rest", "attack", "find_monsters", "move", "move_to_workshop",
		"gather_resource_quantity", "analyze_crafting_chain", "craft_item",
		"equip_item", "explore_map", "upgrade_mining", "upgrade_weaponcrafting",
	} {
		assert.Contains(t, names, want)
	}
	assert.NotContains(t, names, "lookup_item_info")

	// Frozen after construction.
	assert.Error(t, r.Register(&Descriptor{Name: "late"}))
}

type searchingGame struct {
	*fakeGame
	results []game.ItemRecord
}

func (s *searchingGame) SearchItems(ctx context.Context, q client.ItemQuery) ([]game.ItemRecord, error) {
	return s.results, nil
}

func TestDefaultRegistryProbesItemSearch(t *testing.T) {
	r := DefaultRegistry(&searchingGame{fakeGame: &fakeGame{}})
	assert.Equal(t, 25+len(game.AllSkills), r.Len())
	assert.Contains(t, r.Names(), "lookup_item_info")
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&Descriptor{Name: "probe"}))
	assert.Error(t, r.Register(&Descriptor{Name: "probe"}))
	assert.Error(t, r.Register(&Descriptor{}))
	assert.Error(t, r.Register(nil))

	d, ok := r.Get("probe")
	require.True(t, ok)
	assert.Equal(t, "probe", d.Name)
	_, ok = r.Get("absent")
	assert.False(t, ok)
}

func TestApplicableKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	pre := state.From(map[string]any{KeyAlive: true})
	require.NoError(t, r.Register(&Descriptor{Name: "zulu", Preconditions: pre}))
	require.NoError(t, r.Register(&Descriptor{Name: "alpha", Preconditions: pre}))
	require.NoError(t, r.Register(&Descriptor{Name: "gated", Preconditions: state.From(map[string]any{
		KeyAlive: true,
		KeySafe:  true,
	})}))
	r.Freeze()

	s := state.From(map[string]any{KeyAlive: true, KeySafe: false})
	var names []string
	for _, d := range r.Applicable(s) {
		names = append(names, d.Name)
	}
	// Registration order, not alphabetical; unmet preconditions filter.
	assert.Equal(t, []string{"zulu", "alpha"}, names)
}

func TestDescriptorApplyOverlaysEffects(t *testing.T) {
	d := &Descriptor{
		Name:          "probe",
		Preconditions: state.From(map[string]any{KeyCombatStatus: CombatIdle}),
		Effects:       state.From(map[string]any{KeyCombatStatus: CombatSearching}),
	}
	s := state.From(map[string]any{KeyCombatStatus: CombatIdle, KeyAlive: true})

	require.True(t, d.Applicable(s))
	next := d.Apply(s)
	assert.Equal(t, CombatSearching, next.GetString(KeyCombatStatus))
	// The input state is untouched.
	assert.Equal(t, CombatIdle, s.GetString(KeyCombatStatus))
}
