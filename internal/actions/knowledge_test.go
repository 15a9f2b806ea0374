package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grindbot/internal/clienterr"
	"grindbot/internal/game"
)

func TestMapLookupScansCurrentTile(t *testing.T) {
	fake := &fakeGame{
		getMapFn: func(x, y int) (*game.MapTile, error) {
			tile := monsterTile(x, y, "chicken")
			return &tile, nil
		},
	}
	actx := testContext(fake, &game.Character{Name: "tester"})

	r := runAction(t, NewMapLookupAction(), fake, actx)
	require.True(t, r.Success)
	assert.Equal(t, "monster:chicken", r.Data["content"])
	assert.True(t, r.StateChanges.GetBool(KeyLocationKnown))

	// The scan fed both the cache and the location learner.
	_, ok := actx.Map.Get(0, 0, true)
	assert.True(t, ok)
	p, ok := actx.Knowledge.NearestMonsterLocation("chicken", game.Point{})
	require.True(t, ok)
	assert.Equal(t, game.Point{}, p)
}

func TestMapLookupPrefersFreshCache(t *testing.T) {
	fake := &fakeGame{}
	actx := testContext(fake, &game.Character{Name: "tester"})
	actx.Map.Put(workshopTile(1, 1, "cooking"))
	actx.SetDestination(1, 1)

	r := runAction(t, NewMapLookupAction(), fake, actx)
	require.True(t, r.Success)
	assert.Equal(t, "workshop:cooking", r.Data["content"])
	assert.Empty(t, fake.calls)
}

func TestMapLookupBoundary(t *testing.T) {
	fake := &fakeGame{
		getMapFn: func(x, y int) (*game.MapTile, error) {
			return nil, clienterr.FromStatus(404, "client.map", "map not found")
		},
	}
	actx := testContext(fake, &game.Character{Name: "tester"})
	actx.SetDestination(50, 0)

	r := runAction(t, NewMapLookupAction(), fake, actx)
	require.False(t, r.Success)
	assert.Equal(t, clienterr.KindNotFound, r.ErrorKind)
	assert.False(t, actx.Map.InBounds(50, 0))
}

func TestExploreMapScansArea(t *testing.T) {
	fake := &fakeGame{
		getMapFn: func(x, y int) (*game.MapTile, error) {
			if x == 1 && y == 0 {
				tile := resourceTile(x, y, "copper_rocks")
				return &tile, nil
			}
			return &game.MapTile{X: x, Y: y}, nil
		},
	}
	actx := testContext(fake, &game.Character{Name: "tester"})
	actx.SearchRadius = 1

	r := runAction(t, NewExploreMapAction(), fake, actx)
	require.True(t, r.Success)
	// Rings 0 and 1: the center plus its eight neighbours.
	assert.Equal(t, 9, r.Data["new_tiles"])
	assert.Equal(t, 1, r.Data["content_tiles"])
	require.Len(t, r.Tiles, 1)
	assert.Equal(t, "copper_rocks", r.Tiles[0].ContentCode())
	assert.Equal(t, 9, actx.Map.Len())
}

func TestAnalyzeKnowledgeStateCounts(t *testing.T) {
	fake := &fakeGame{}
	actx := testContext(fake, &game.Character{Name: "tester", Level: 3})
	actx.Knowledge.LearnMonsterLocation("chicken", 1, 1)
	actx.Knowledge.LearnWorkshopLocation("cooking", 2, 2)
	actx.Map.Put(monsterTile(1, 1, "chicken"))

	r := runAction(t, NewAnalyzeKnowledgeStateAction(), fake, actx)
	require.True(t, r.Success)
	assert.True(t, r.StateChanges.GetBool(KeyKnowledgeAssessed))
	assert.Equal(t, 1, r.Data["monsters"])
	assert.Equal(t, 1, r.Data["engageable"])
	assert.Equal(t, 1, r.Data["workshops"])
	assert.Equal(t, 0, r.Data["resources"])
	assert.Equal(t, 1, r.Data["tiles"])
}

func TestLookupItemInfoLearnsResults(t *testing.T) {
	inner := &fakeGame{items: equipmentItems()}
	fake := &searchingGame{
		fakeGame: inner,
		results: []game.ItemRecord{
			{Code: "copper_sword", Type: game.ItemTypeWeapon, Level: 5},
		},
	}
	actx := testContext(fake, &game.Character{Name: "tester", Level: 5})

	r := runAction(t, NewLookupItemInfoAction(), fake, actx)
	require.True(t, r.Success)
	assert.True(t, r.StateChanges.GetBool(KeyItemInfoKnown))
	assert.Equal(t, []string{"copper_sword"}, r.Data["items"])
}

func TestLookupItemInfoWithoutCapability(t *testing.T) {
	fake := &fakeGame{}
	actx := testContext(fake, &game.Character{Name: "tester"})

	r := runAction(t, NewLookupItemInfoAction(), fake, actx)
	require.False(t, r.Success)
	assert.Equal(t, clienterr.KindValidation, r.ErrorKind)
}
