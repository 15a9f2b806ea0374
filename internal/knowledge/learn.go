package knowledge

import (
	"grindbot/internal/game"
	"grindbot/internal/logging"
)

// LearnCombat appends one fight outcome to a monster's combat history.
// The monster record is created as a stub when unseen; a later fetch
// merges in its stats.
func (b *Base) LearnCombat(code string, outcome game.CombatOutcome, hpLost int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.monsters[code]
	if !ok {
		rec = &game.MonsterRecord{Code: code}
		b.monsters[code] = rec
	}
	rec.Combat = append(rec.Combat, game.CombatResult{Result: outcome, HPLost: hpLost})
	b.dirty = true
	logging.Knowledge("combat vs %s: %s (hp lost %d, history %d)", code, outcome, hpLost, len(rec.Combat))
}

// LearnMonsterLocation records where a monster was observed. Duplicate
// observations are idempotent.
func (b *Base) LearnMonsterLocation(code string, x, y int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.monsters[code]
	if !ok {
		rec = &game.MonsterRecord{Code: code}
		b.monsters[code] = rec
	}
	if appendLocation(&rec.Locations, x, y) {
		b.dirty = true
		logging.KnowledgeDebug("monster %s seen at (%d,%d)", code, x, y)
	}
}

// LearnResourceLocation records where a resource node was observed.
func (b *Base) LearnResourceLocation(code string, x, y int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.resources[code]
	if !ok {
		rec = &game.ResourceRecord{Code: code}
		b.resources[code] = rec
	}
	if appendLocation(&rec.Locations, x, y) {
		b.dirty = true
		logging.KnowledgeDebug("resource %s seen at (%d,%d)", code, x, y)
	}
}

// LearnWorkshopLocation records a workshop sighting. The workshop code
// names the crafting skill practiced there.
func (b *Base) LearnWorkshopLocation(code string, x, y int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.workshops[code]
	if !ok {
		rec = &game.WorkshopRecord{Code: code, Skill: game.Skill(code)}
		b.workshops[code] = rec
	}
	if appendLocation(&rec.Locations, x, y) {
		b.dirty = true
		logging.Knowledge("workshop %s found at (%d,%d)", code, x, y)
	}
}

// LearnTile routes a scanned tile's content into the right location
// learner. Called by the map cache observers after every scan.
func (b *Base) LearnTile(tile game.MapTile) {
	if tile.Content == nil {
		return
	}
	switch tile.Content.Type {
	case game.ContentMonster:
		b.LearnMonsterLocation(tile.Content.Code, tile.X, tile.Y)
	case game.ContentResource:
		b.LearnResourceLocation(tile.Content.Code, tile.X, tile.Y)
	case game.ContentWorkshop:
		b.LearnWorkshopLocation(tile.Content.Code, tile.X, tile.Y)
	}
}

// LearnItemSource records that a resource drops the given item code.
func (b *Base) LearnItemSource(itemCode, resourceCode string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.items[itemCode]
	if !ok {
		rec = &game.ItemRecord{Code: itemCode, Type: game.ItemTypeResource}
		b.items[itemCode] = rec
	}
	for _, s := range rec.Sources {
		if s == resourceCode {
			return
		}
	}
	rec.Sources = append(rec.Sources, resourceCode)
	b.dirty = true
}

// RecordBestLocation promotes a resource location to the pruned
// best_locations shortlist. Most recent first; the shortlist is the
// only knowledge field allowed to shrink.
func (b *Base) RecordBestLocation(resourceCode string, x, y int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.resources[resourceCode]
	if !ok {
		rec = &game.ResourceRecord{Code: resourceCode}
		b.resources[resourceCode] = rec
	}
	p := game.Point{X: x, Y: y}
	pruned := make([]game.Point, 0, maxBestLocations)
	pruned = append(pruned, p)
	for _, existing := range rec.BestLocations {
		if existing == p {
			continue
		}
		pruned = append(pruned, existing)
		if len(pruned) == maxBestLocations {
			break
		}
	}
	rec.BestLocations = pruned
	b.dirty = true
}

// MergeMonster folds fetched server stats into an existing record,
// preserving learned history and locations.
func (b *Base) MergeMonster(fetched *game.MonsterRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.monsters[fetched.Code]
	if !ok {
		b.monsters[fetched.Code] = fetched
		b.dirty = true
		return
	}
	rec.Name = fetched.Name
	rec.Level = fetched.Level
	rec.HP = fetched.HP
	rec.Attack = fetched.Attack
	rec.Resistance = fetched.Resistance
	if len(fetched.Drops) > 0 {
		rec.Drops = fetched.Drops
	}
	b.dirty = true
}

// MergeResource folds fetched server stats into an existing record.
func (b *Base) MergeResource(fetched *game.ResourceRecord) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.resources[fetched.Code]
	if !ok {
		b.resources[fetched.Code] = fetched
		b.dirty = true
		return
	}
	rec.Name = fetched.Name
	rec.Skill = fetched.Skill
	rec.SkillLevel = fetched.SkillLevel
	if len(fetched.Drops) > 0 {
		rec.Drops = fetched.Drops
	}
	b.dirty = true
}

func appendLocation(locations *[]game.Point, x, y int) bool {
	for _, p := range *locations {
		if p.X == x && p.Y == y {
			return false
		}
	}
	*locations = append(*locations, game.Point{X: x, Y: y})
	return true
}
