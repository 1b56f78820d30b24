package game

import "testing"

// tileSim spawns blue and red units packed into heatmap tile (col,row) of the
// default 1280×720 map and recomputes once.
func tileSim(col, row, blue, red int, extra ...SimOption) *TestSim {
	const tw, th = 1280.0 / HeatmapSize, 720.0 / HeatmapSize
	x0, y0 := float64(col)*tw+4, float64(row)*th+4
	var opts []SimOption
	for i := 0; i < blue+red; i++ {
		f := FactionBlue
		if i >= blue {
			f = FactionRed
		}
		x := x0 + float64(i%8)*7
		y := y0 + float64(i/8)*9
		opts = append(opts, WithUnit(unarmed(f, x, y)))
	}
	ts := NewTestSim(append(opts, extra...)...)
	ts.World.Heatmap.Recompute(ts.World)
	return ts
}

func TestHeatmap_MajorityVote(t *testing.T) {
	cases := []struct {
		name      string
		blue, red int
		want      Faction
	}{
		{"blue majority", 10, 9, FactionBlue},
		{"tie is neutral", 4, 4, FactionNone},
		{"red majority", 9, 10, FactionRed},
		{"ten blue always wins", 10, 14, FactionBlue},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := tileSim(5, 5, tc.blue, tc.red)
			if got := ts.World.Heatmap.Tile(5, 5).Faction; got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestHeatmap_EmptyNeighbourTakesNearestFaction(t *testing.T) {
	ts := tileSim(5, 5, 0, 2)
	h := ts.World.Heatmap
	if got := h.Tile(6, 5).Faction; got != FactionRed {
		t.Fatalf("neighbour of a red tile should read red, got %s", got)
	}
	if got := h.Tile(15, 15).Faction; got != FactionNone {
		t.Fatalf("untouched tile should stay neutral, got %s", got)
	}
}

func TestHeatmap_ScoresObjectivesAndClamps(t *testing.T) {
	ts := NewTestSim(
		WithFlag(FlagSpec{X: 100, Y: 50}),
		WithFlag(FlagSpec{X: 1000, Y: 600}),
		WithFlag(FlagSpec{X: 1010, Y: 605}),
		WithFlag(FlagSpec{X: 1020, Y: 610}),
		WithCannon(CannonSpec{X: 100, Y: 55}),
	)
	h := ts.World.Heatmap
	h.Recompute(ts.World)

	c, r := h.TileAt(Vec{100, 50})
	if got := h.Tile(c, r).Score; got != heatFlagScore+heatCannonScore {
		t.Fatalf("expected flag plus cannon score %.0f, got %.1f", heatFlagScore+heatCannonScore, got)
	}
	c, r = h.TileAt(Vec{1000, 600})
	if got := h.Tile(c, r).Score; got != heatMaxScore {
		t.Fatalf("expected score clamped at %.0f, got %.1f", heatMaxScore, got)
	}
}

func TestHeatmap_OpposedNeighboursRaiseScore(t *testing.T) {
	ts := NewTestSim(
		WithUnit(UnitSpec{Faction: FactionBlue, X: 352, Y: 198, Mount: "horse"}),
		WithUnit(unarmed(FactionRed, 416, 198)),
	)
	h := ts.World.Heatmap
	h.Recompute(ts.World)
	blue, red := h.Tile(5, 5), h.Tile(6, 5)
	if blue.Faction != FactionBlue || red.Faction != FactionRed {
		t.Fatalf("expected blue and red tiles, got %s and %s", blue.Faction, red.Faction)
	}
	if blue.Score <= 0 {
		t.Fatalf("blue tile next to red should score, got %.2f", blue.Score)
	}
	for _, s := range []float64{blue.Score, red.Score} {
		if s < 0 || s > heatMaxScore {
			t.Fatalf("score %.2f out of range", s)
		}
	}
}

func TestHeatmap_DangerRingAroundBlue(t *testing.T) {
	ts := tileSim(10, 10, 1, 0)
	h := ts.World.Heatmap
	if h.Tile(10, 10).Danger {
		t.Fatal("occupied tile is not a danger zone")
	}
	for _, d := range [][2]int{{-1, -1}, {0, -1}, {1, 0}, {1, 1}, {-1, 1}} {
		if !h.Tile(10+d[0], 10+d[1]).Danger {
			t.Fatalf("tile offset %v should be a danger zone", d)
		}
	}
	if h.Tile(12, 10).Danger {
		t.Fatal("danger ring is one tile wide")
	}
}

func TestHeatmap_ArrowsPointAtBlue(t *testing.T) {
	ts := tileSim(10, 10, 1, 0)
	h := ts.World.Heatmap
	for _, d := range []int{1, 4} {
		if h.Tile(10+d, 10).HasArrow {
			t.Fatalf("no arrow expected at distance %d", d)
		}
	}
	for _, d := range []int{2, 3} {
		tl := h.Tile(10-d, 10)
		if !tl.HasArrow || tl.ArrowCol != 10 || tl.ArrowRow != 10 {
			t.Fatalf("distance %d: expected arrow to (10,10), got %+v", d, tl)
		}
	}
}

func TestHeatmap_FlankOutsideVisionCone(t *testing.T) {
	ts := tileSim(10, 10, 1, 0)
	h := ts.World.Heatmap
	// Heading 0 faces east.
	if h.Tile(12, 10).Flank {
		t.Fatal("tile in front of the unit is not a flank")
	}
	if !h.Tile(8, 10).Flank {
		t.Fatal("tile behind the unit should be a flank")
	}
}

func TestHeatmap_WallSuppressesArrow(t *testing.T) {
	// Tile (9,10) spans x 576..640; the wall sits between (8,10) and (10,10).
	ts := tileSim(10, 10, 1, 0, WithWall(600, 340, 20, 80))
	h := ts.World.Heatmap
	if h.Tile(8, 10).HasArrow {
		t.Fatal("arrow should be suppressed by the wall")
	}
	if !h.Tile(12, 10).HasArrow {
		t.Fatal("arrow on the open side should remain")
	}
}

func TestHeatmap_UpdateRunsOnInterval(t *testing.T) {
	ts := NewTestSim()
	h := NewHeatmap(1280, 720, 1)
	if h.Update(ts.World, 0.5) {
		t.Fatal("recompute before the interval")
	}
	if !h.Update(ts.World, 0.5) {
		t.Fatal("expected recompute once the interval elapsed")
	}
	if !ts.SimLog().HasEntry("ai", "heatmap", "") {
		t.Fatal("expected heatmap recompute logged")
	}
}

// TestHeatmap_SelectiveRecompute moves a unit between recomputes: tiles
// around its new tile refresh, tiles two hops from any occupant keep their
// previous state.
func TestHeatmap_SelectiveRecompute(t *testing.T) {
	// Tile (5,5) centre (352,198); tile (15,15) centre (992,558).
	ts := NewTestSim(
		WithUnit(unarmed(FactionRed, 352, 198)),
		WithUnit(unarmed(FactionBlue, 992, 558)),
	)
	w, h := ts.World, ts.World.Heatmap
	h.Recompute(w)

	if got := h.Tile(16, 15).Faction; got != FactionBlue {
		t.Fatalf("neighbour of the blue tile should read blue, got %s", got)
	}
	staleScore := h.Tile(16, 15).Score
	if got := h.Tile(7, 5).Faction; got != FactionNone {
		t.Fatalf("tile two hops from red should not be touched, got %s", got)
	}

	// Into tile (9,5), centre (608,198).
	ts.Unit(1).mover.Pos = Vec{608, 198}
	h.Recompute(w)

	for _, c := range []int{8, 9, 10} {
		if got := h.Tile(c, 5).Faction; got != FactionBlue {
			t.Fatalf("tile (%d,5) around the moved unit should refresh to blue, got %s", c, got)
		}
	}
	if got := h.Tile(7, 5).Faction; got != FactionNone {
		t.Fatalf("tile (7,5) is two hops from both units and must not cascade, got %s", got)
	}
	if got := h.Tile(6, 5).Faction; got != FactionRed {
		t.Fatalf("red neighbour should stay red, got %s", got)
	}
	old := h.Tile(16, 15)
	if old.Faction != FactionBlue || old.Score != staleScore {
		t.Fatalf("vacated area should keep its previous state, got %s %.1f", old.Faction, old.Score)
	}
	if e, ok := ts.SimLog().LastOf("ai", "heatmap"); !ok || e.NumVal != 18 {
		t.Fatalf("expected 18 tiles refreshed (two 3x3 blocks), got %+v", e)
	}
}
