// Package worldmap implements the per-tile map cache: TTL-bounded tile
// freshness, expanding-ring search around a center point, learned map
// boundaries, and atomic YAML persistence.
package worldmap

import (
	"sync"
	"time"

	"grindbot/internal/game"
	"grindbot/internal/logging"
)

// DefaultTTL is how long a scanned tile's content stays authoritative.
const DefaultTTL = 180 * time.Second

// rejectionsPerBoundary is how many off-map rejections along one
// cardinal direction promote a coordinate to a hard boundary.
const rejectionsPerBoundary = 2

// Cache holds every tile the agent has scanned, keyed "x,y". Mutated
// only from the loop's thread of control; the mutex exists for the CLI
// diagnostic readers.
type Cache struct {
	mu    sync.RWMutex
	tiles map[string]game.MapTile
	ttl   time.Duration
	now   func() time.Time

	// Learned playable-map limits, nil until discovered.
	limitEast  *int // reject x >= *limitEast
	limitWest  *int // reject x <= *limitWest
	limitNorth *int // reject y <= *limitNorth
	limitSouth *int // reject y >= *limitSouth

	// Rejection tallies per cardinal direction, keyed by the rejected
	// coordinate value.
	rejectsEast  map[int]int
	rejectsWest  map[int]int
	rejectsNorth map[int]int
	rejectsSouth map[int]int

	// Individual rejected coordinates, always skipped.
	rejected map[string]struct{}

	dirty bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the tile freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock substitutes the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache builds an empty map cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		tiles:        make(map[string]game.MapTile),
		ttl:          DefaultTTL,
		now:          time.Now,
		rejectsEast:  make(map[int]int),
		rejectsWest:  make(map[int]int),
		rejectsNorth: make(map[int]int),
		rejectsSouth: make(map[int]int),
		rejected:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached tile at (x,y). With requireFresh, tiles older
// than the TTL are withheld so the caller re-scans.
func (c *Cache) Get(x, y int, requireFresh bool) (game.MapTile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tile, ok := c.tiles[game.TileKey(x, y)]
	if !ok {
		return game.MapTile{}, false
	}
	if requireFresh && c.now().Sub(tile.LastScanned) > c.ttl {
		return game.MapTile{}, false
	}
	return tile, true
}

// Put stores a scanned tile, overwriting any prior scan.
func (c *Cache) Put(tile game.MapTile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tile.LastScanned.IsZero() {
		tile.LastScanned = c.now()
	}
	c.tiles[tile.Key()] = tile
	c.dirty = true
}

// Len returns the number of cached tiles.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tiles)
}

// Tiles returns a snapshot copy of all cached tiles.
func (c *Cache) Tiles() []game.MapTile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]game.MapTile, 0, len(c.tiles))
	for _, t := range c.tiles {
		out = append(out, t)
	}
	return out
}

// FindContent returns the locations of all cached tiles holding the
// given content code, freshness ignored (locations do not move; only
// content presence goes stale).
func (c *Cache) FindContent(ct game.ContentType, code string) []game.Point {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []game.Point
	for _, t := range c.tiles {
		if t.Content != nil && t.Content.Type == ct && t.Content.Code == code {
			out = append(out, game.Point{X: t.X, Y: t.Y})
		}
	}
	return out
}

// RecordBoundary marks a coordinate the server rejected as off-map.
// After two rejections along one cardinal direction that direction is
// capped and skipped by future searches.
func (c *Cache) RecordBoundary(x, y int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rejected[game.TileKey(x, y)] = struct{}{}
	c.dirty = true

	if x > 0 {
		c.rejectsEast[x]++
		if c.rejectsEast[x] >= rejectionsPerBoundary && (c.limitEast == nil || x < *c.limitEast) {
			v := x
			c.limitEast = &v
			logging.Worldmap("boundary learned: east edge at x=%d", v)
		}
	} else if x < 0 {
		c.rejectsWest[x]++
		if c.rejectsWest[x] >= rejectionsPerBoundary && (c.limitWest == nil || x > *c.limitWest) {
			v := x
			c.limitWest = &v
			logging.Worldmap("boundary learned: west edge at x=%d", v)
		}
	}
	if y > 0 {
		c.rejectsSouth[y]++
		if c.rejectsSouth[y] >= rejectionsPerBoundary && (c.limitSouth == nil || y < *c.limitSouth) {
			v := y
			c.limitSouth = &v
			logging.Worldmap("boundary learned: south edge at y=%d", v)
		}
	} else if y < 0 {
		c.rejectsNorth[y]++
		if c.rejectsNorth[y] >= rejectionsPerBoundary && (c.limitNorth == nil || y > *c.limitNorth) {
			v := y
			c.limitNorth = &v
			logging.Worldmap("boundary learned: north edge at y=%d", v)
		}
	}
}

// InBounds reports whether the coordinate may be on the playable map
// given what the cache has learned about its edges.
func (c *Cache) InBounds(x, y int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inBoundsLocked(x, y)
}

func (c *Cache) inBoundsLocked(x, y int) bool {
	if _, bad := c.rejected[game.TileKey(x, y)]; bad {
		return false
	}
	if c.limitEast != nil && x >= *c.limitEast {
		return false
	}
	if c.limitWest != nil && x <= *c.limitWest {
		return false
	}
	if c.limitSouth != nil && y >= *c.limitSouth {
		return false
	}
	if c.limitNorth != nil && y <= *c.limitNorth {
		return false
	}
	return true
}
