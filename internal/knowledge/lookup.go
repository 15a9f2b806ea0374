package knowledge

import (
	"context"
	"sort"

	"grindbot/internal/game"
	"grindbot/internal/worldmap"
)

// FindResourcesForMaterial is the reverse index: which resource codes
// are known to drop the given material. Sorted for determinism.
func (b *Base) FindResourcesForMaterial(material string) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	seen := map[string]struct{}{}
	for code, rec := range b.resources {
		if rec.DropsMaterial(material) {
			seen[code] = struct{}{}
		}
	}
	// Item sources learned from gathers fill gaps when a resource's
	// drop table has not been fetched yet.
	if item, ok := b.items[material]; ok {
		for _, src := range item.Sources {
			seen[src] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for code := range seen {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// ResourceLocation is one known resource site.
type ResourceLocation struct {
	Point game.Point
	Code  string
}

// FindResourcesInMap joins resource knowledge with the map cache:
// locations of any of the given resource codes within max radius of the
// center, ascending by Chebyshev distance.
func (b *Base) FindResourcesInMap(codes []string, cache *worldmap.Cache, center game.Point, maxRadius int) []ResourceLocation {
	var out []ResourceLocation
	seen := map[string]struct{}{}

	add := func(p game.Point, code string) {
		if maxRadius > 0 && game.ChebyshevPoints(center, p) > maxRadius {
			return
		}
		key := game.TileKey(p.X, p.Y)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, ResourceLocation{Point: p, Code: code})
	}

	b.mu.RLock()
	for _, code := range codes {
		if rec, ok := b.resources[code]; ok {
			for _, p := range rec.BestLocations {
				add(p, code)
			}
			for _, p := range rec.Locations {
				add(p, code)
			}
		}
	}
	b.mu.RUnlock()

	if cache != nil {
		for _, code := range codes {
			for _, p := range cache.FindContent(game.ContentResource, code) {
				add(p, code)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		di := game.ChebyshevPoints(center, out[i].Point)
		dj := game.ChebyshevPoints(center, out[j].Point)
		if di != dj {
			return di < dj
		}
		if out[i].Point.X != out[j].Point.X {
			return out[i].Point.X < out[j].Point.X
		}
		return out[i].Point.Y < out[j].Point.Y
	})
	return out
}

// GetMaterialRequirements returns the direct (non-recursive) material
// quantities needed to craft one batch of the item. Nil when the item
// is unknown or not craftable.
func (b *Base) GetMaterialRequirements(ctx context.Context, itemCode string) (map[string]int, error) {
	item, err := b.GetItem(ctx, itemCode)
	if err != nil {
		return nil, err
	}
	if item.Craft == nil {
		return nil, nil
	}
	reqs := make(map[string]int, len(item.Craft.Items))
	for _, ing := range item.Craft.Items {
		reqs[ing.Code] += ing.Quantity
	}
	return reqs, nil
}

// CraftChainStep is one craftable intermediate discovered while walking
// a recipe tree.
type CraftChainStep struct {
	ItemCode string
	Quantity int
	Craft    *game.CraftData
}

// ResolveCraftChain walks the recipe tree below an item iteratively
// with a visited set (recipes can cite each other), returning the
// craftable intermediates in dependency order (leaves first) and the
// raw material totals. Missing item records stop descent down that
// branch; the material is treated as raw.
func (b *Base) ResolveCraftChain(ctx context.Context, itemCode string, quantity int) ([]CraftChainStep, map[string]int, error) {
	raw := map[string]int{}
	var steps []CraftChainStep

	type frame struct {
		code string
		qty  int
	}
	visited := map[string]struct{}{}
	queue := []frame{{itemCode, quantity}}

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if _, dup := visited[f.code]; dup {
			continue
		}
		visited[f.code] = struct{}{}

		item, err := b.GetItem(ctx, f.code)
		if err != nil || item.Craft == nil {
			if f.code != itemCode {
				raw[f.code] += f.qty
			} else if err != nil {
				return nil, nil, err
			}
			continue
		}

		batches := (f.qty + item.Craft.Quantity - 1) / item.Craft.Quantity
		steps = append([]CraftChainStep{{ItemCode: f.code, Quantity: batches, Craft: item.Craft}}, steps...)
		for _, ing := range item.Craft.Items {
			need := ing.Quantity * batches
			sub, err := b.GetItem(ctx, ing.Code)
			if err == nil && sub.Craft != nil {
				queue = append(queue, frame{ing.Code, need})
			} else {
				raw[ing.Code] += need
			}
		}
	}
	return steps, raw, nil
}

// FindWorkshopFor returns the nearest known workshop practicing the
// given skill, false when none has been discovered.
func (b *Base) FindWorkshopFor(skill game.Skill, from game.Point) (game.Point, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	best := game.Point{}
	bestDist := -1
	for _, w := range b.workshops {
		if w.Skill != skill {
			continue
		}
		for _, p := range w.Locations {
			d := game.ChebyshevPoints(from, p)
			if bestDist < 0 || d < bestDist {
				best, bestDist = p, d
			}
		}
	}
	return best, bestDist >= 0
}

// NearestMonsterLocation returns the closest known location of a
// monster code, false when the monster has never been sighted.
func (b *Base) NearestMonsterLocation(code string, from game.Point) (game.Point, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.monsters[code]
	if !ok {
		return game.Point{}, false
	}
	best := game.Point{}
	bestDist := -1
	for _, p := range rec.Locations {
		d := game.ChebyshevPoints(from, p)
		if bestDist < 0 || d < bestDist {
			best, bestDist = p, d
		}
	}
	return best, bestDist >= 0
}

// CanEngage applies the engagement policy: a monster with a trusted win
// rate must clear the win-rate floor; an unknown monster (fewer than
// MinCombatResults recorded fights) is engageable only while its level
// is within the margin above the character's.
func (b *Base) CanEngage(mon *game.MonsterRecord, characterLevel int) bool {
	b.mu.RLock()
	policy := b.policy
	b.mu.RUnlock()

	if rate, trusted := mon.WinRate(policy.MinCombatResults); trusted {
		return rate >= policy.MinWinRate
	}
	return mon.Level <= characterLevel+policy.UnknownMonsterLevelMargin
}

// EngageableMonsters returns known monsters the character may engage,
// sorted by level descending (best XP first).
func (b *Base) EngageableMonsters(characterLevel int) []*game.MonsterRecord {
	b.mu.RLock()
	candidates := make([]*game.MonsterRecord, 0, len(b.monsters))
	for _, m := range b.monsters {
		candidates = append(candidates, m)
	}
	b.mu.RUnlock()

	out := candidates[:0]
	for _, m := range candidates {
		if len(m.Locations) == 0 {
			continue
		}
		if b.CanEngage(m, characterLevel) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level > out[j].Level
		}
		return out[i].Code < out[j].Code
	})
	return out
}
