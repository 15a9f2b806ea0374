package worldmap

import (
	"context"

	"grindbot/internal/clienterr"
	"grindbot/internal/game"
	"grindbot/internal/logging"
)

// Scanner fetches a tile from the live server. Implemented by the game
// client; nil scanners restrict searches to cached tiles.
type Scanner interface {
	GetMap(ctx context.Context, x, y int) (*game.MapTile, error)
}

// TileFilter selects tiles during a search.
type TileFilter func(game.MapTile) bool

// ContentFilter matches tiles holding content of the given type, and
// when code is non-empty, that exact code.
func ContentFilter(ct game.ContentType, code string) TileFilter {
	return func(t game.MapTile) bool {
		if t.Content == nil || t.Content.Type != ct {
			return false
		}
		return code == "" || t.Content.Code == code
	}
}

// SearchOptions tunes a ring search.
type SearchOptions struct {
	// NearestOnly stops after the first ring that produced a match.
	NearestOnly bool

	// MaxScans bounds live server scans per search; zero means no live
	// scanning (cache only).
	MaxScans int
}

// Search walks expanding Chebyshev rings (distance 0, 1, ... radius)
// around the center, consulting the cache first and falling back to the
// scanner within the scan budget. Matches return in ascending ring
// order; order within a ring is the deterministic perimeter walk.
func (c *Cache) Search(ctx context.Context, center game.Point, radius int, filter TileFilter, scanner Scanner, opts SearchOptions) ([]game.MapTile, error) {
	var matches []game.MapTile
	scans := 0

	for ring := 0; ring <= radius; ring++ {
		ringMatched := false
		for _, p := range RingPoints(center, ring) {
			if err := ctx.Err(); err != nil {
				return matches, err
			}
			if !c.InBounds(p.X, p.Y) {
				continue
			}

			tile, ok := c.Get(p.X, p.Y, true)
			if !ok {
				if scanner == nil || scans >= opts.MaxScans {
					continue
				}
				scans++
				scanned, err := scanner.GetMap(ctx, p.X, p.Y)
				if err != nil {
					if clienterr.IsKind(err, clienterr.KindNotFound) {
						c.RecordBoundary(p.X, p.Y)
						continue
					}
					return matches, err
				}
				tile = *scanned
				c.Put(tile)
			}

			if filter == nil || filter(tile) {
				matches = append(matches, tile)
				ringMatched = true
			}
		}
		if ringMatched && opts.NearestOnly {
			break
		}
	}

	logging.WorldmapDebug("search around (%d,%d) r=%d: %d matches, %d scans",
		center.X, center.Y, radius, len(matches), scans)
	return matches, nil
}

// RingPoints enumerates the perimeter of the Chebyshev ring at the
// given distance, in a deterministic clockwise walk starting north.
// Distance zero yields only the center.
func RingPoints(center game.Point, distance int) []game.Point {
	if distance == 0 {
		return []game.Point{center}
	}
	points := make([]game.Point, 0, 8*distance)
	// Top edge, left to right.
	for x := center.X - distance; x <= center.X+distance; x++ {
		points = append(points, game.Point{X: x, Y: center.Y - distance})
	}
	// Right edge, top to bottom (corners already emitted).
	for y := center.Y - distance + 1; y <= center.Y+distance-1; y++ {
		points = append(points, game.Point{X: center.X + distance, Y: y})
	}
	// Bottom edge, right to left.
	for x := center.X + distance; x >= center.X-distance; x-- {
		points = append(points, game.Point{X: x, Y: center.Y + distance})
	}
	// Left edge, bottom to top.
	for y := center.Y + distance - 1; y >= center.Y-distance+1; y-- {
		points = append(points, game.Point{X: center.X - distance, Y: y})
	}
	return points
}
