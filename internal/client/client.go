// Package client defines the GameClient capability the agent core
// consumes, plus the REST implementation against the live game server.
// The core never talks HTTP directly; it sees typed entities, typed
// errors (clienterr) and cooldown values.
package client

import (
	"context"
	"time"

	"grindbot/internal/game"
)

// Cooldown is the server-imposed delay returned by action endpoints.
type Cooldown struct {
	Seconds   int       `json:"total_seconds"`
	ExpiresAt time.Time `json:"expiration"`
}

// MoveResponse is the result of a move action.
type MoveResponse struct {
	Character game.Character
	Cooldown  Cooldown
	Tile      game.MapTile
}

// FightResponse is the result of an attack action.
type FightResponse struct {
	Character game.Character
	Cooldown  Cooldown
	Fight     game.FightReport
}

// GatherResponse is the result of a gather action.
type GatherResponse struct {
	Character game.Character
	Cooldown  Cooldown
	Items     []game.InventorySlot
	XP        int
}

// CraftResponse is the result of a craft action.
type CraftResponse struct {
	Character game.Character
	Cooldown  Cooldown
	Produced  []game.InventorySlot
	Consumed  []game.InventorySlot
	XP        int
}

// EquipResponse is the result of an equip or unequip action.
type EquipResponse struct {
	Character game.Character
	Cooldown  Cooldown
	Slot      game.Slot
	Item      string
}

// RestResponse is the result of a rest action.
type RestResponse struct {
	Character  game.Character
	Cooldown   Cooldown
	HPRestored int
}

// GameClient is the capability the core depends on. Each call returns a
// typed result or a *clienterr.Error; action endpoints serialize per
// character on the server side, so callers must not pipeline them.
type GameClient interface {
	// Reads.
	GetCharacter(ctx context.Context, name string) (*game.Character, error)
	GetCharacters(ctx context.Context) ([]game.Character, error)
	GetMap(ctx context.Context, x, y int) (*game.MapTile, error)
	GetItem(ctx context.Context, code string) (*game.ItemRecord, error)
	GetMonster(ctx context.Context, code string) (*game.MonsterRecord, error)
	GetResource(ctx context.Context, code string) (*game.ResourceRecord, error)

	// Actions. All return a cooldown the caller must arm.
	Move(ctx context.Context, name string, x, y int) (*MoveResponse, error)
	Attack(ctx context.Context, name string) (*FightResponse, error)
	Gather(ctx context.Context, name string) (*GatherResponse, error)
	Craft(ctx context.Context, name, code string, quantity int) (*CraftResponse, error)
	Equip(ctx context.Context, name, code string, slot game.Slot) (*EquipResponse, error)
	Unequip(ctx context.Context, name string, slot game.Slot, quantity int) (*EquipResponse, error)
	Rest(ctx context.Context, name string) (*RestResponse, error)
}

// LifecycleClient is the administrative surface used by the CLI only.
type LifecycleClient interface {
	CreateCharacter(ctx context.Context, name string) (*game.Character, error)
	DeleteCharacter(ctx context.Context, name string) error
}

// ItemSearcher is an optional capability: servers that expose an item
// search endpoint implement it. Callers probe with a type assertion;
// the lookup_item_info action is only registered when the probe
// succeeds.
type ItemSearcher interface {
	SearchItems(ctx context.Context, query ItemQuery) ([]game.ItemRecord, error)
}

// ItemQuery filters an item search.
type ItemQuery struct {
	Type      game.ItemType
	CraftSkill game.Skill
	MinLevel  int
	MaxLevel  int
}
