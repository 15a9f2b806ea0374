package worldmap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grindbot/internal/clienterr"
	"grindbot/internal/game"
)

func tileAt(x, y int, ct game.ContentType, code string) game.MapTile {
	t := game.MapTile{X: x, Y: y}
	if ct != "" {
		t.Content = &game.TileContent{Type: ct, Code: code}
	}
	return t
}

func TestGetFreshness(t *testing.T) {
	now := time.Unix(10000, 0)
	c := NewCache(WithClock(func() time.Time { return now }))

	c.Put(tileAt(1, 2, game.ContentMonster, "chicken"))

	_, ok := c.Get(1, 2, true)
	assert.True(t, ok)

	// Inside the TTL the tile stays fresh.
	now = now.Add(DefaultTTL)
	_, ok = c.Get(1, 2, true)
	assert.True(t, ok)

	// Past the TTL it is withheld under requireFresh, but still
	// available when staleness is acceptable.
	now = now.Add(time.Second)
	_, ok = c.Get(1, 2, true)
	assert.False(t, ok)
	tile, ok := c.Get(1, 2, false)
	require.True(t, ok)
	assert.Equal(t, "chicken", tile.Content.Code)
}

func TestFindContentIgnoresFreshness(t *testing.T) {
	now := time.Unix(10000, 0)
	c := NewCache(WithClock(func() time.Time { return now }))
	c.Put(tileAt(3, 3, game.ContentResource, "copper_rocks"))
	c.Put(tileAt(5, 5, game.ContentResource, "iron_rocks"))

	now = now.Add(time.Hour)
	points := c.FindContent(game.ContentResource, "copper_rocks")
	assert.Equal(t, []game.Point{{X: 3, Y: 3}}, points)
}

func TestBoundaryLearning(t *testing.T) {
	c := NewCache()

	// One rejection marks only the exact coordinate.
	c.RecordBoundary(11, 0)
	assert.False(t, c.InBounds(11, 0))
	assert.True(t, c.InBounds(11, 1))

	// A second rejection at the same x caps the east edge.
	c.RecordBoundary(11, 3)
	assert.False(t, c.InBounds(11, 7))
	assert.False(t, c.InBounds(12, 0))
	assert.True(t, c.InBounds(10, 0))
}

func TestBoundaryLearningAllDirections(t *testing.T) {
	c := NewCache()
	for _, p := range []game.Point{
		{X: 20, Y: 1}, {X: 20, Y: 2}, // east
		{X: -20, Y: 1}, {X: -20, Y: 2}, // west
		{X: 1, Y: 20}, {X: 2, Y: 20}, // south
		{X: 1, Y: -20}, {X: 2, Y: -20}, // north
	} {
		c.RecordBoundary(p.X, p.Y)
	}
	assert.False(t, c.InBounds(25, 0))
	assert.False(t, c.InBounds(-25, 0))
	assert.False(t, c.InBounds(0, 25))
	assert.False(t, c.InBounds(0, -25))
	assert.True(t, c.InBounds(0, 0))
}

func TestRingPoints(t *testing.T) {
	center := game.Point{X: 0, Y: 0}

	t.Run("distance zero is the center", func(t *testing.T) {
		assert.Equal(t, []game.Point{center}, RingPoints(center, 0))
	})

	t.Run("ring one has eight points", func(t *testing.T) {
		points := RingPoints(center, 1)
		assert.Len(t, points, 8)
		seen := map[string]struct{}{}
		for _, p := range points {
			assert.Equal(t, 1, game.ChebyshevPoints(center, p))
			seen[game.TileKey(p.X, p.Y)] = struct{}{}
		}
		assert.Len(t, seen, 8)
	})

	t.Run("deterministic order", func(t *testing.T) {
		if diff := cmp.Diff(RingPoints(center, 2), RingPoints(center, 2)); diff != "" {
			t.Errorf("ring order not deterministic:\n%s", diff)
		}
	})

	t.Run("ring size grows by eight per distance", func(t *testing.T) {
		assert.Len(t, RingPoints(center, 3), 24)
	})
}

// scriptedScanner serves tiles from a fixed map and records scans.
type scriptedScanner struct {
	tiles map[string]game.MapTile
	calls int
}

func (s *scriptedScanner) GetMap(ctx context.Context, x, y int) (*game.MapTile, error) {
	s.calls++
	tile, ok := s.tiles[game.TileKey(x, y)]
	if !ok {
		return nil, clienterr.New(clienterr.KindNotFound, "test.map", game.TileKey(x, y))
	}
	return &tile, nil
}

func TestSearchCacheFirst(t *testing.T) {
	c := NewCache()
	c.Put(tileAt(0, 0, "", ""))
	c.Put(tileAt(1, 0, game.ContentMonster, "chicken"))

	scanner := &scriptedScanner{tiles: map[string]game.MapTile{}}
	matches, err := c.Search(context.Background(), game.Point{}, 1,
		ContentFilter(game.ContentMonster, ""), scanner, SearchOptions{NearestOnly: true})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "chicken", matches[0].Content.Code)
	// Zero scan budget means the scanner is never consulted.
	assert.Equal(t, 0, scanner.calls)
}

func TestSearchScansWithinBudget(t *testing.T) {
	c := NewCache()
	tiles := map[string]game.MapTile{}
	for x := -1; x <= 1; x++ {
		for y := -1; y <= 1; y++ {
			tiles[game.TileKey(x, y)] = tileAt(x, y, "", "")
		}
	}
	tiles[game.TileKey(2, 0)] = tileAt(2, 0, game.ContentResource, "copper_rocks")
	scanner := &scriptedScanner{tiles: tiles}

	matches, err := c.Search(context.Background(), game.Point{}, 2,
		ContentFilter(game.ContentResource, "copper_rocks"), scanner,
		SearchOptions{NearestOnly: true, MaxScans: 100})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 2, matches[0].X)
	// Scanned tiles are cached for next time.
	_, ok := c.Get(2, 0, true)
	assert.True(t, ok)
}

func TestSearchLearnsBoundaries(t *testing.T) {
	c := NewCache()
	scanner := &scriptedScanner{tiles: map[string]game.MapTile{
		game.TileKey(0, 0): tileAt(0, 0, "", ""),
	}}

	_, err := c.Search(context.Background(), game.Point{}, 1, nil, scanner,
		SearchOptions{MaxScans: 100})
	require.NoError(t, err)
	// Every off-map ring tile got rejected; repeated x=1 rejections cap
	// the east edge.
	assert.False(t, c.InBounds(1, 5))
}

func TestSearchNearestOnlyStopsAtFirstRing(t *testing.T) {
	c := NewCache()
	c.Put(tileAt(1, 0, game.ContentMonster, "chicken"))
	c.Put(tileAt(4, 0, game.ContentMonster, "wolf"))

	matches, err := c.Search(context.Background(), game.Point{}, 5,
		ContentFilter(game.ContentMonster, ""), nil, SearchOptions{NearestOnly: true})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "chicken", matches[0].Content.Code)
}

func TestSaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "map.yaml")

	c := NewCache()
	c.Put(tileAt(1, 2, game.ContentWorkshop, "weaponcrafting"))
	c.Put(tileAt(-3, 4, "", ""))
	c.RecordBoundary(30, 0)
	c.RecordBoundary(30, 1)
	require.True(t, c.Dirty())
	require.NoError(t, c.Save(path))
	assert.False(t, c.Dirty())

	loaded := NewCache()
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, 2, loaded.Len())
	tile, ok := loaded.Get(1, 2, false)
	require.True(t, ok)
	require.NotNil(t, tile.Content)
	assert.Equal(t, "weaponcrafting", tile.Content.Code)
	assert.False(t, loaded.InBounds(31, 0))
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	c := NewCache()
	require.NoError(t, c.Load(filepath.Join(t.TempDir(), "absent.yaml")))
	assert.Equal(t, 0, c.Len())
}
