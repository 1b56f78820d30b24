package game

import (
	"fmt"
	"math"
)

const (
	HeatmapSize = 20

	heatFlagScore       = 20.0
	heatCannonScore     = 10.0
	heatFootDivisor     = 2.0
	heatMountedDivisor  = 1.0
	heatSameNeighbor    = -1.0
	heatOpposedNeighbor = 2.0
	heatMaxScore        = 50.0
	heatBlueOverride    = 10

	arrowMinDist      = 2
	arrowMaxDist      = 3
	arrowObstacleDist = 750.0
	flankConeDeg      = 145.0
	flankConeRange    = 1250.0
)

// HeatTile is one cell of the territorial heatmap.
type HeatTile struct {
	Faction  Faction
	Score    float64
	Flank    bool
	Danger   bool
	HasArrow bool
	ArrowCol int
	ArrowRow int

	blueFoot, blueMounted int
	redFoot, redMounted   int
	cannons, flags        int
}

func (t *HeatTile) blueUnits() int { return t.blueFoot + t.blueMounted }
func (t *HeatTile) redUnits() int  { return t.redFoot + t.redMounted }

// Heatmap is a fixed 20×20 aggregate of faction control and strategic value,
// recomputed on its own slower tick.
type Heatmap struct {
	cols, rows   int
	tileW, tileH float64
	tiles        []HeatTile
	interval     float64
	acc          float64
}

// NewHeatmap creates a heatmap over a mapW×mapH world recomputed every
// interval seconds.
func NewHeatmap(mapW, mapH, interval float64) *Heatmap {
	return &Heatmap{
		cols:     HeatmapSize,
		rows:     HeatmapSize,
		tileW:    mapW / HeatmapSize,
		tileH:    mapH / HeatmapSize,
		tiles:    make([]HeatTile, HeatmapSize*HeatmapSize),
		interval: interval,
	}
}

// Dims returns the grid size.
func (h *Heatmap) Dims() (int, int) { return h.cols, h.rows }

// TileSize returns the pixel size of one tile.
func (h *Heatmap) TileSize() (float64, float64) { return h.tileW, h.tileH }

// Tile returns the tile at (col,row). Out of range returns the zero tile.
func (h *Heatmap) Tile(col, row int) HeatTile {
	if !h.inBounds(col, row) {
		return HeatTile{}
	}
	return h.tiles[row*h.cols+col]
}

// TileAt maps a world point to its tile coordinates.
func (h *Heatmap) TileAt(p Vec) (int, int) {
	c := int(math.Floor(p.X / h.tileW))
	r := int(math.Floor(p.Y / h.tileH))
	return min(max(c, 0), h.cols-1), min(max(r, 0), h.rows-1)
}

// TileCenter returns the world centre of a tile.
func (h *Heatmap) TileCenter(col, row int) Vec {
	return Vec{(float64(col) + 0.5) * h.tileW, (float64(row) + 0.5) * h.tileH}
}

func (h *Heatmap) inBounds(c, r int) bool {
	return c >= 0 && r >= 0 && c < h.cols && r < h.rows
}

func (h *Heatmap) at(c, r int) *HeatTile { return &h.tiles[r*h.cols+c] }

func chebyshev(c1, r1, c2, r2 int) int {
	return max(absInt(c1-c2), absInt(r1-r2))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Update accumulates time and recomputes once per interval. It reports
// whether a recompute ran.
func (h *Heatmap) Update(w *World, dt float64) bool {
	h.acc += dt
	if h.acc < h.interval {
		return false
	}
	h.acc -= h.interval
	h.Recompute(w)
	return true
}

// majorityFaction applies the vote: ten or more blue always wins, ties are
// neutral.
func majorityFaction(blue, red int) Faction {
	switch {
	case blue >= heatBlueOverride:
		return FactionBlue
	case blue > red:
		return FactionBlue
	case red > blue:
		return FactionRed
	default:
		return FactionNone
	}
}

// Recompute refreshes occupied tiles and their neighbours, then rebuilds
// the arrow, flank and danger annotations across the whole grid.
func (h *Heatmap) Recompute(w *World) {
	for i := range h.tiles {
		t := &h.tiles[i]
		t.blueFoot, t.blueMounted, t.redFoot, t.redMounted = 0, 0, 0, 0
		t.cannons, t.flags = 0, 0
	}

	var live []*Unit
	for _, u := range w.Reg.Units() {
		if !u.Alive() {
			continue
		}
		live = append(live, u)
		t := h.at(h.TileAt(u.Pos()))
		mounted := u.Loadout.Mounted()
		switch {
		case u.Faction == FactionBlue && mounted:
			t.blueMounted++
		case u.Faction == FactionBlue:
			t.blueFoot++
		case u.Faction == FactionRed && mounted:
			t.redMounted++
		case u.Faction == FactionRed:
			t.redFoot++
		}
	}
	for _, c := range w.Reg.Cannons() {
		if c.Alive() {
			h.at(h.TileAt(c.Pos())).cannons++
		}
	}
	for _, o := range w.Reg.Objectives() {
		if o.Kind == ObjectiveFlag {
			h.at(h.TileAt(o.Pos)).flags++
		}
	}

	dirty := make([]bool, len(h.tiles))
	for r := 0; r < h.rows; r++ {
		for c := 0; c < h.cols; c++ {
			t := h.at(c, r)
			if t.blueUnits()+t.redUnits()+t.cannons+t.flags == 0 {
				continue
			}
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					if h.inBounds(c+dc, r+dr) {
						dirty[(r+dr)*h.cols+c+dc] = true
					}
				}
			}
		}
	}

	for i, d := range dirty {
		if !d {
			continue
		}
		c, r := i%h.cols, i/h.cols
		t := &h.tiles[i]
		if t.blueUnits()+t.redUnits() > 0 {
			t.Faction = majorityFaction(t.blueUnits(), t.redUnits())
		} else {
			t.Faction = nearestUnitFaction(h.TileCenter(c, r), live)
		}
	}
	for i, d := range dirty {
		if d {
			h.scoreTile(i%h.cols, i/h.cols)
		}
	}

	h.annotate(w, live)

	dirtyCount := 0
	for _, d := range dirty {
		if d {
			dirtyCount++
		}
	}
	w.logGlobal("ai", "heatmap", fmt.Sprintf("%d tiles refreshed", dirtyCount), float64(dirtyCount))
}

// nearestUnitFaction is the faction of the closest unit, with no distance
// limit. An empty field is neutral.
func nearestUnitFaction(p Vec, units []*Unit) Faction {
	best := FactionNone
	bestD := math.Inf(1)
	for _, u := range units {
		if d := p.DistTo(u.Pos()); d < bestD {
			best, bestD = u.Faction, d
		}
	}
	return best
}

func (h *Heatmap) scoreTile(c, r int) {
	t := h.at(c, r)
	s := heatFlagScore*float64(t.flags) + heatCannonScore*float64(t.cannons)
	if t.Faction != FactionNone {
		switch t.Faction {
		case FactionBlue:
			s += float64(t.blueFoot)/heatFootDivisor + float64(t.blueMounted)/heatMountedDivisor
		case FactionRed:
			s += float64(t.redFoot)/heatFootDivisor + float64(t.redMounted)/heatMountedDivisor
		}
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if (dc == 0 && dr == 0) || !h.inBounds(c+dc, r+dr) {
					continue
				}
				nf := h.at(c+dc, r+dr).Faction
				switch {
				case nf == t.Faction:
					s += heatSameNeighbor
				case t.Faction.Opposes(nf):
					s += heatOpposedNeighbor
				}
			}
		}
	}
	t.Score = clamp(s, 0, heatMaxScore)
}

// annotate clears and rebuilds arrows, flank options and danger zones.
func (h *Heatmap) annotate(w *World, live []*Unit) {
	type occ struct{ c, r, n int }
	var blueOcc []occ
	occupied := make([]bool, len(h.tiles))
	for i := range h.tiles {
		t := &h.tiles[i]
		t.HasArrow, t.Flank, t.Danger = false, false, false
		if n := t.blueUnits(); n > 0 {
			blueOcc = append(blueOcc, occ{i % h.cols, i / h.cols, n})
			occupied[i] = true
		}
	}
	if len(blueOcc) == 0 {
		return
	}

	var blues []*Unit
	for _, u := range live {
		if u.Faction == FactionBlue {
			blues = append(blues, u)
		}
	}

	for _, b := range blueOcc {
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				c, r := b.c+dc, b.r+dr
				if h.inBounds(c, r) && !occupied[r*h.cols+c] {
					h.at(c, r).Danger = true
				}
			}
		}
	}

	for r := 0; r < h.rows; r++ {
		for c := 0; c < h.cols; c++ {
			minD := math.MaxInt
			for _, b := range blueOcc {
				minD = min(minD, chebyshev(c, r, b.c, b.r))
			}
			if minD < arrowMinDist || minD > arrowMaxDist {
				continue
			}
			from := h.TileCenter(c, r)
			best := -1
			bestD := math.Inf(1)
			tied := false
			for i, b := range blueOcc {
				if chebyshev(c, r, b.c, b.r) > arrowMaxDist {
					continue
				}
				d := from.DistTo(h.TileCenter(b.c, b.r))
				switch {
				case best < 0 || d < bestD-1e-9:
					best, bestD, tied = i, d, false
				case math.Abs(d-bestD) <= 1e-9:
					switch {
					case b.n > blueOcc[best].n:
						best, tied = i, false
					case b.n == blueOcc[best].n:
						tied = true
					}
				}
			}
			if best < 0 || tied {
				continue
			}
			to := h.TileCenter(blueOcc[best].c, blueOcc[best].r)
			if obstacleWithin(w.Terrain, from.X, from.Y, to.X, to.Y, math.Min(arrowObstacleDist, bestD)) {
				continue
			}
			t := h.at(c, r)
			t.HasArrow = true
			t.ArrowCol, t.ArrowRow = blueOcc[best].c, blueOcc[best].r
			t.Flank = !insideAnyCone(from, blues)
		}
	}
}

// insideAnyCone reports whether p lies in some unit's forward vision cone.
func insideAnyCone(p Vec, units []*Unit) bool {
	half := flankConeDeg * math.Pi / 180 / 2
	for _, u := range units {
		if u.Pos().DistTo(p) > flankConeRange {
			continue
		}
		bearing := HeadingTo(u.Pos().X, u.Pos().Y, p.X, p.Y)
		if math.Abs(normalizeAngle(bearing-u.Heading())) <= half {
			return true
		}
	}
	return false
}
