// Package knowledge implements the persistent, incrementally learned
// knowledge base: monsters, resources, items and workshops, combat
// history, discovered locations, and the derived heuristics the planner
// consumes. Entities reference each other by string code; the base is
// the arena that resolves codes to records, fetching unknown entities
// from the server once when a client is attached.
//
// Knowledge is append-mostly: records are merged, never deleted, with
// the single exception of best_locations pruning.
package knowledge

import (
	"context"
	"sync"

	"grindbot/internal/client"
	"grindbot/internal/clienterr"
	"grindbot/internal/game"
	"grindbot/internal/logging"
)

// Policy defaults.
const (
	// DefaultMinCombatResults is how many recorded fights a monster
	// needs before its win rate is trusted.
	DefaultMinCombatResults = 2

	// DefaultUnknownMonsterLevelMargin caps engagement of monsters with
	// no trusted history at character level + margin.
	DefaultUnknownMonsterLevelMargin = 2

	// DefaultMinWinRate is the win-rate floor for engaging a monster
	// with trusted history.
	DefaultMinWinRate = 0.5

	// maxBestLocations bounds the pruned best_locations shortlist.
	maxBestLocations = 5
)

// Policy tunes the combat-viability heuristics.
type Policy struct {
	MinCombatResults          int
	UnknownMonsterLevelMargin int
	MinWinRate                float64
}

// DefaultPolicy returns the standard engagement policy.
func DefaultPolicy() Policy {
	return Policy{
		MinCombatResults:          DefaultMinCombatResults,
		UnknownMonsterLevelMargin: DefaultUnknownMonsterLevelMargin,
		MinWinRate:                DefaultMinWinRate,
	}
}

// Base is the knowledge base. Mutated only from the loop's thread of
// control; the mutex exists for CLI diagnostic readers.
type Base struct {
	mu sync.RWMutex

	monsters  map[string]*game.MonsterRecord
	resources map[string]*game.ResourceRecord
	items     map[string]*game.ItemRecord
	workshops map[string]*game.WorkshopRecord

	policy Policy

	// fetcher resolves unknown codes against the live server; nil in
	// offline tests.
	fetcher client.GameClient

	dirty bool
}

// Option configures a Base.
type Option func(*Base)

// WithPolicy overrides the engagement policy.
func WithPolicy(p Policy) Option {
	return func(b *Base) { b.policy = p }
}

// WithFetcher attaches a client for one-shot fetches of unknown codes.
func WithFetcher(c client.GameClient) Option {
	return func(b *Base) { b.fetcher = c }
}

// NewBase builds an empty knowledge base.
func NewBase(opts ...Option) *Base {
	b := &Base{
		monsters:  make(map[string]*game.MonsterRecord),
		resources: make(map[string]*game.ResourceRecord),
		items:     make(map[string]*game.ItemRecord),
		workshops: make(map[string]*game.WorkshopRecord),
		policy:    DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Policy returns the active engagement policy.
func (b *Base) Policy() Policy {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.policy
}

// SetPolicy replaces the engagement policy (config hot-reload).
func (b *Base) SetPolicy(p Policy) {
	b.mu.Lock()
	b.policy = p
	b.mu.Unlock()
}

// GetMonster returns the record for a monster code, fetching its stats
// from the server when they are missing and a fetcher is attached. A
// map sighting or a recorded fight creates a stat-less stub; the first
// Get after that fills it in, merging over the stub so learned history
// and locations survive. A failed fetch falls back to the stub.
func (b *Base) GetMonster(ctx context.Context, code string) (*game.MonsterRecord, error) {
	b.mu.RLock()
	rec, ok := b.monsters[code]
	b.mu.RUnlock()
	if ok && rec.Level > 0 {
		return rec, nil
	}
	if b.fetcher == nil {
		if ok {
			return rec, nil
		}
		return nil, clienterr.New(clienterr.KindNotFound, "knowledge.monster", code)
	}

	fetched, err := b.fetcher.GetMonster(ctx, code)
	if err != nil {
		if ok {
			return rec, nil
		}
		return nil, err
	}
	b.MergeMonster(fetched)
	logging.Knowledge("learned monster %s (level %d)", code, fetched.Level)
	b.mu.RLock()
	rec = b.monsters[code]
	b.mu.RUnlock()
	return rec, nil
}

// GetResource returns the record for a resource code, fetching its
// stats when missing. Location-only stubs from map sightings merge the
// same way monster stubs do.
func (b *Base) GetResource(ctx context.Context, code string) (*game.ResourceRecord, error) {
	b.mu.RLock()
	rec, ok := b.resources[code]
	b.mu.RUnlock()
	if ok && rec.Skill != "" {
		return rec, nil
	}
	if b.fetcher == nil {
		if ok {
			return rec, nil
		}
		return nil, clienterr.New(clienterr.KindNotFound, "knowledge.resource", code)
	}

	fetched, err := b.fetcher.GetResource(ctx, code)
	if err != nil {
		if ok {
			return rec, nil
		}
		return nil, err
	}
	b.MergeResource(fetched)
	logging.Knowledge("learned resource %s (%s level %d)", code, fetched.Skill, fetched.SkillLevel)
	b.mu.RLock()
	rec = b.resources[code]
	b.mu.RUnlock()
	return rec, nil
}

// GetItem returns the record for an item code, fetching once when
// unknown. Codes the server 404'd are remembered as does-not-exist and
// returned as NotFound without another API call.
func (b *Base) GetItem(ctx context.Context, code string) (*game.ItemRecord, error) {
	b.mu.RLock()
	rec, ok := b.items[code]
	b.mu.RUnlock()
	if ok {
		if rec.DoesNotExist {
			return nil, clienterr.New(clienterr.KindNotFound, "knowledge.item", code)
		}
		return rec, nil
	}
	if b.fetcher == nil {
		return nil, clienterr.New(clienterr.KindNotFound, "knowledge.item", code)
	}

	fetched, err := b.fetcher.GetItem(ctx, code)
	if err != nil {
		if clienterr.IsKind(err, clienterr.KindNotFound) {
			b.mu.Lock()
			b.items[code] = &game.ItemRecord{Code: code, DoesNotExist: true}
			b.dirty = true
			b.mu.Unlock()
			logging.Knowledge("item %s does not exist; recorded", code)
		}
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.items[code]; ok && !existing.DoesNotExist {
		return existing, nil
	}
	b.items[code] = fetched
	b.dirty = true
	logging.Knowledge("learned item %s (%s level %d)", code, fetched.Type, fetched.Level)
	return fetched, nil
}

// GetWorkshop returns the record for a workshop code. Workshops have no
// dedicated server endpoint; they are learned from map scans, so an
// unknown code is simply NotFound.
func (b *Base) GetWorkshop(code string) (*game.WorkshopRecord, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	rec, ok := b.workshops[code]
	if !ok {
		return nil, clienterr.New(clienterr.KindNotFound, "knowledge.workshop", code)
	}
	return rec, nil
}

// KnownMonsters returns a snapshot of all monster records.
func (b *Base) KnownMonsters() []*game.MonsterRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*game.MonsterRecord, 0, len(b.monsters))
	for _, m := range b.monsters {
		out = append(out, m)
	}
	return out
}

// KnownResources returns a snapshot of all resource records.
func (b *Base) KnownResources() []*game.ResourceRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*game.ResourceRecord, 0, len(b.resources))
	for _, r := range b.resources {
		out = append(out, r)
	}
	return out
}

// KnownItems returns a snapshot of all item records, excluding
// does-not-exist tombstones.
func (b *Base) KnownItems() []*game.ItemRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*game.ItemRecord, 0, len(b.items))
	for _, i := range b.items {
		if !i.DoesNotExist {
			out = append(out, i)
		}
	}
	return out
}

// KnownWorkshops returns a snapshot of all workshop records.
func (b *Base) KnownWorkshops() []*game.WorkshopRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*game.WorkshopRecord, 0, len(b.workshops))
	for _, w := range b.workshops {
		out = append(out, w)
	}
	return out
}

// Counts reports record counts per entity class (diagnostics).
func (b *Base) Counts() (monsters, resources, items, workshops int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.monsters), len(b.resources), len(b.items), len(b.workshops)
}
