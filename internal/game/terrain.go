package game

import "math"

// TerrainKind classifies a point of the battlefield for movement and sight.
type TerrainKind uint8

const (
	TerrainOpen  TerrainKind = iota // passable, transparent
	TerrainWall                     // blocks movement and line of sight
	TerrainWater                    // blocks movement; destroys cannons pushed into it
)

func (k TerrainKind) String() string {
	switch k {
	case TerrainOpen:
		return "open"
	case TerrainWall:
		return "wall"
	case TerrainWater:
		return "water"
	default:
		return "unknown"
	}
}

// TerrainQuery is the map collaborator the simulation consumes. It must
// answer for arbitrary float coordinates.
type TerrainQuery interface {
	TerrainAt(x, y float64) TerrainKind
	HeightAt(x, y float64) float64
}

// impassable reports whether (x,y) is wall or water.
func impassable(t TerrainQuery, x, y float64) bool {
	k := t.TerrainAt(x, y)
	return k == TerrainWall || k == TerrainWater
}

// TileTerrain is a uniform grid implementation of TerrainQuery. Anything
// outside the grid reads as wall.
type TileTerrain struct {
	cols, rows int
	tile       float64
	width      float64
	height     float64
	kinds      []TerrainKind
	heights    []float64
}

// NewTileTerrain creates an all-open, flat terrain covering w×h pixels.
func NewTileTerrain(w, h, tile float64) *TileTerrain {
	cols := int(math.Ceil(w / tile))
	rows := int(math.Ceil(h / tile))
	return &TileTerrain{
		cols:    cols,
		rows:    rows,
		tile:    tile,
		width:   w,
		height:  h,
		kinds:   make([]TerrainKind, cols*rows),
		heights: make([]float64, cols*rows),
	}
}

// Bounds returns the playfield size in pixels.
func (tt *TileTerrain) Bounds() (float64, float64) { return tt.width, tt.height }

// TileSize returns the edge length of one terrain tile.
func (tt *TileTerrain) TileSize() float64 { return tt.tile }

func (tt *TileTerrain) index(x, y float64) (int, bool) {
	if x < 0 || y < 0 || x >= tt.width || y >= tt.height {
		return 0, false
	}
	cx := int(x / tt.tile)
	cy := int(y / tt.tile)
	if cx >= tt.cols || cy >= tt.rows {
		return 0, false
	}
	return cy*tt.cols + cx, true
}

// TerrainAt implements TerrainQuery.
func (tt *TileTerrain) TerrainAt(x, y float64) TerrainKind {
	i, ok := tt.index(x, y)
	if !ok {
		return TerrainWall
	}
	return tt.kinds[i]
}

// HeightAt implements TerrainQuery.
func (tt *TileTerrain) HeightAt(x, y float64) float64 {
	i, ok := tt.index(x, y)
	if !ok {
		return 0
	}
	return tt.heights[i]
}

// tileRange converts a pixel rectangle to the inclusive tile span it touches.
func (tt *TileTerrain) tileRange(x, y, w, h float64) (int, int, int, int) {
	c0 := max(0, int(x/tt.tile))
	r0 := max(0, int(y/tt.tile))
	c1 := min(tt.cols-1, int(math.Ceil((x+w)/tt.tile))-1)
	r1 := min(tt.rows-1, int(math.Ceil((y+h)/tt.tile))-1)
	return c0, r0, c1, r1
}

// Fill sets every tile overlapping the pixel rectangle to kind.
func (tt *TileTerrain) Fill(kind TerrainKind, x, y, w, h float64) {
	c0, r0, c1, r1 := tt.tileRange(x, y, w, h)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			tt.kinds[r*tt.cols+c] = kind
		}
	}
}

// SetHeight sets the elevation of every tile overlapping the rectangle.
func (tt *TileTerrain) SetHeight(height, x, y, w, h float64) {
	c0, r0, c1, r1 := tt.tileRange(x, y, w, h)
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			tt.heights[r*tt.cols+c] = height
		}
	}
}

// Tiles calls fn for every tile with its pixel origin and kind. Used by the
// viewer to bake the terrain layer.
func (tt *TileTerrain) Tiles(fn func(x, y, size float64, kind TerrainKind, height float64)) {
	for r := 0; r < tt.rows; r++ {
		for c := 0; c < tt.cols; c++ {
			i := r*tt.cols + c
			fn(float64(c)*tt.tile, float64(r)*tt.tile, tt.tile, tt.kinds[i], tt.heights[i])
		}
	}
}
