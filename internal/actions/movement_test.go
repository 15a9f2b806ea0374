package actions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grindbot/internal/client"
	"grindbot/internal/clienterr"
	"grindbot/internal/game"
)

func TestMoveRequiresDestination(t *testing.T) {
	actx := testContext(&fakeGame{}, &game.Character{Name: "tester"})
	err := NewMoveAction().Bind(actx)
	require.Error(t, err)
	assert.True(t, clienterr.IsKind(err, clienterr.KindValidation))
}

func TestMoveShortCircuitsAtDestination(t *testing.T) {
	fake := &fakeGame{}
	actx := testContext(fake, &game.Character{Name: "tester", X: 2, Y: 3})
	actx.SetDestination(2, 3)

	r := runAction(t, NewMoveAction(), fake, actx)
	require.True(t, r.Success)
	assert.Equal(t, false, r.Data["moved"])
	assert.Equal(t, true, r.Data["already_at_destination"])
	assert.Zero(t, r.CooldownSeconds)
	// No server round trip.
	assert.Empty(t, fake.calls)
}

func TestMoveFoldsAlreadyAtDestination(t *testing.T) {
	fake := &fakeGame{
		moveFn: func(x, y int) (*client.MoveResponse, error) {
			return nil, clienterr.FromStatus(490, "client.move", "character already at destination")
		},
	}
	// Stale snapshot says (0,0); the server knows better.
	actx := testContext(fake, &game.Character{Name: "tester"})
	actx.SetDestination(5, 5)

	r := runAction(t, NewMoveAction(), fake, actx)
	require.True(t, r.Success)
	assert.Equal(t, false, r.Data["moved"])
	assert.Equal(t, true, r.Data["already_at_destination"])
	assert.Zero(t, r.CooldownSeconds)
	assert.True(t, r.StateChanges.GetBool(KeyAtTarget))
}

func TestMoveRecordsBoundaryOnNotFound(t *testing.T) {
	fake := &fakeGame{
		moveFn: func(x, y int) (*client.MoveResponse, error) {
			return nil, clienterr.FromStatus(404, "client.move", "map not found")
		},
	}
	actx := testContext(fake, &game.Character{Name: "tester"})
	actx.SetDestination(40, 0)

	r := runAction(t, NewMoveAction(), fake, actx)
	require.False(t, r.Success)
	assert.Equal(t, clienterr.KindNotFound, r.ErrorKind)
	// The rejected coordinate is off the map now.
	assert.False(t, actx.Map.InBounds(40, 0))
	assert.True(t, actx.Map.InBounds(39, 0))
}

func TestMoveObservesDestinationTile(t *testing.T) {
	fake := &fakeGame{
		moveFn: func(x, y int) (*client.MoveResponse, error) {
			assert.Equal(t, 2, x)
			assert.Equal(t, 1, y)
			return &client.MoveResponse{
				Character: game.Character{Name: "tester", X: 2, Y: 1},
				Cooldown:  testCooldown(5),
				Tile:      resourceTile(2, 1, "copper_rocks"),
			}, nil
		},
	}
	actx := testContext(fake, &game.Character{Name: "tester"})
	actx.SetDestination(2, 1)

	r := runAction(t, NewMoveAction(), fake, actx)
	require.True(t, r.Success)
	assert.Equal(t, true, r.Data["moved"])
	assert.Equal(t, 5, r.CooldownSeconds)
	require.Len(t, r.Tiles, 1)
	assert.Equal(t, "copper_rocks", r.Tiles[0].ContentCode())
	assert.Equal(t, 2, r.Character.X)
}

func TestMoveDetectsPositionDivergence(t *testing.T) {
	fake := &fakeGame{
		moveFn: func(x, y int) (*client.MoveResponse, error) {
			// The server confirms a move but lands the character
			// somewhere else.
			return &client.MoveResponse{
				Character: game.Character{Name: "tester", X: 0, Y: 0},
				Cooldown:  testCooldown(5),
			}, nil
		},
	}
	actx := testContext(fake, &game.Character{Name: "tester", X: 1, Y: 1})
	actx.SetDestination(2, 2)

	r := runAction(t, NewMoveAction(), fake, actx)
	require.False(t, r.Success)
	assert.Equal(t, clienterr.KindRejected, r.ErrorKind)
	assert.Contains(t, r.Error, "not (2,2)")
	// The call happened; its cooldown and position still apply.
	assert.Equal(t, 5, r.CooldownSeconds)
	assert.Equal(t, 0, r.Character.X)
}

func TestMoveToResourceCarriesCode(t *testing.T) {
	fake := &fakeGame{
		moveFn: func(x, y int) (*client.MoveResponse, error) {
			return &client.MoveResponse{
				Character: game.Character{Name: "tester", X: x, Y: y},
				Cooldown:  testCooldown(4),
				Tile:      resourceTile(x, y, "ash_tree"),
			}, nil
		},
	}
	actx := testContext(fake, &game.Character{Name: "tester"})
	actx.Target.ResourceCode = "ash_tree"
	actx.SetDestination(0, 6)

	r := runAction(t, NewMoveToResourceAction(), fake, actx)
	require.True(t, r.Success)
	assert.Equal(t, "ash_tree", r.Data["resource"])
	assert.True(t, r.StateChanges.GetBool(KeyAtResource))
	assert.True(t, r.StateChanges.GetBool(KeyAtTarget))
}

func TestMoveToWorkshopResolvesNearestSite(t *testing.T) {
	fake := &fakeGame{
		moveFn: func(x, y int) (*client.MoveResponse, error) {
			assert.Equal(t, 3, x)
			assert.Equal(t, 3, y)
			return &client.MoveResponse{
				Character: game.Character{Name: "tester", X: x, Y: y},
				Cooldown:  testCooldown(6),
				Tile:      workshopTile(x, y, "weaponcrafting"),
			}, nil
		},
	}
	actx := testContext(fake, &game.Character{Name: "tester"})
	actx.Craft = &CraftPlan{TargetItem: "copper_sword", Workshop: game.SkillWeaponcrafting}
	actx.Knowledge.LearnWorkshopLocation("weaponcrafting", 9, 9)
	actx.Knowledge.LearnWorkshopLocation("weaponcrafting", 3, 3)

	r := runAction(t, NewMoveToWorkshopAction(), fake, actx)
	require.True(t, r.Success)
	assert.Equal(t, "weaponcrafting", r.Data["workshop"])
	assert.True(t, r.StateChanges.GetBool(KeyAtWorkshop))
}

func TestMoveToWorkshopWithoutKnownSite(t *testing.T) {
	actx := testContext(&fakeGame{}, &game.Character{Name: "tester"})
	actx.Craft = &CraftPlan{TargetItem: "copper_sword", Workshop: game.SkillCooking}

	r := runAction(t, NewMoveToWorkshopAction(), &fakeGame{}, actx)
	require.False(t, r.Success)
	assert.Equal(t, clienterr.KindNotFound, r.ErrorKind)
}
