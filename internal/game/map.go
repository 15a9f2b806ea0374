package game

import (
	"fmt"
	"time"
)

// ContentType classifies what occupies a map tile.
type ContentType string

const (
	ContentMonster       ContentType = "monster"
	ContentResource      ContentType = "resource"
	ContentWorkshop      ContentType = "workshop"
	ContentBank          ContentType = "bank"
	ContentGrandExchange ContentType = "grand_exchange"
	ContentTasksMaster   ContentType = "tasks_master"
	ContentNPC           ContentType = "npc"
	ContentTown          ContentType = "town"
	ContentOther         ContentType = "other"
)

// TileContent describes what sits on a tile. Nil content means the tile
// is empty ground.
type TileContent struct {
	Type ContentType `json:"type" yaml:"type"`
	Code string      `json:"code" yaml:"code"`
}

// MapTile is one scanned map coordinate. Content is authoritative only
// while the scan is fresh (see worldmap.Cache TTL handling).
type MapTile struct {
	X           int          `json:"x" yaml:"x"`
	Y           int          `json:"y" yaml:"y"`
	Content     *TileContent `json:"content,omitempty" yaml:"content,omitempty"`
	LastScanned time.Time    `json:"last_scanned" yaml:"last_scanned"`
}

// Key returns the canonical "x,y" cache key for the tile.
func (t MapTile) Key() string {
	return TileKey(t.X, t.Y)
}

// TileKey builds the canonical "x,y" key for a coordinate pair.
func TileKey(x, y int) string {
	return fmt.Sprintf("%d,%d", x, y)
}

// HasContent reports whether the tile holds content of the given type.
func (t MapTile) HasContent(ct ContentType) bool {
	return t.Content != nil && t.Content.Type == ct
}

// ContentCode returns the content code, empty for bare ground.
func (t MapTile) ContentCode() string {
	if t.Content == nil {
		return ""
	}
	return t.Content.Code
}

// Point is a map coordinate.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Chebyshev returns max(|dx|, |dy|), the ring distance for expanding
// tile search.
func Chebyshev(x1, y1, x2, y2 int) int {
	dx := x1 - x2
	if dx < 0 {
		dx = -dx
	}
	dy := y1 - y2
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// ChebyshevPoints is Chebyshev over two Points.
func ChebyshevPoints(a, b Point) int {
	return Chebyshev(a.X, a.Y, b.X, b.Y)
}
