package game

import (
	"math"
	"testing"
)

// dumpSummary prints a reporter summary of the current state.
func dumpSummary(t *testing.T, ts *TestSim) {
	t.Helper()
	r := NewSimReporter(0)
	r.Collect(ts.World)
	t.Log(r.Summary())
	t.Log(ts.World.String())
}

// --- Scenario: Skirmish Terrain ---

func TestScenario_SkirmishTerrain(t *testing.T) {
	tt := SkirmishTerrain(1280, 720, 20)
	checks := []struct {
		name string
		x, y float64
		want TerrainKind
	}{
		{"river", 100, 360, TerrainWater},
		{"west ford", 340, 360, TerrainOpen},
		{"east ford", 910, 360, TerrainOpen},
		{"farm wall", 720, 525, TerrainWall},
		{"farmyard", 760, 560, TerrainOpen},
		{"south bank", 300, 500, TerrainOpen},
	}
	for _, c := range checks {
		if got := tt.TerrainAt(c.x, c.y); got != c.want {
			t.Errorf("%s at (%.0f,%.0f): got %s, want %s", c.name, c.x, c.y, got, c.want)
		}
	}
	if h := tt.HeightAt(640, 140); h != 30 {
		t.Errorf("expected the ridge at height 30, got %.0f", h)
	}
	if math.IsInf(ComputeFlowField(tt, 1280, 720, 20, 640, 600).Cost(640, 100), 1) {
		t.Error("the north bank should reach the south bank through a ford")
	}
}

// --- Scenario: Skirmish Population ---

func TestScenario_PopulateSkirmish(t *testing.T) {
	w, err := NewWorld(SkirmishTerrain(1280, 720, 20), 1280, 720)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	sk, err := PopulateSkirmish(w)
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if len(sk.Blue) != 12 || len(sk.Red) != 16 {
		t.Fatalf("expected 12 blue and 16 red, got %d and %d", len(sk.Blue), len(sk.Red))
	}
	wantCrew := []int{2, 1, 2}
	for i, id := range sk.Cannons {
		if got := len(w.Reg.Cannon(id).Crew); got != wantCrew[i] {
			t.Errorf("cannon %d: crew %d, want %d", i, got, wantCrew[i])
		}
	}
	if len(sk.Flags) != 3 {
		t.Fatalf("expected 3 flags, got %d", len(sk.Flags))
	}
	if f := w.Reg.Objective(sk.Flags[2]); f.Faction != FactionBlue || f.Progress != 1 {
		t.Errorf("farm flag should start blue, got %s %.1f", f.Faction, f.Progress)
	}
	if len(sk.Groups) != 3 {
		t.Fatalf("expected 14 free red units in 3 groups, got %d groups", len(sk.Groups))
	}
	for _, gid := range sk.Groups {
		g := w.Groups.Group(gid)
		if g.Faction != FactionRed || len(g.Members) > 5 {
			t.Errorf("group %d: faction %s size %d", gid, g.Faction, len(g.Members))
		}
		for _, id := range g.Members {
			if w.Reg.Unit(id).CrewOf != 0 {
				t.Errorf("crew member %d placed in group %d", id, gid)
			}
		}
	}
}

// --- Scenario: Musket Lines ---

func TestScenario_MusketLines(t *testing.T) {
	t.Log("=== TestScenario_MusketLines ===")
	t.Log("--- Setup: 5 blue defensive vs 5 red offensive muskets, 400px apart ---")

	var opts []SimOption
	opts = append(opts, WithSimSeed(42))
	for i := 0; i < 5; i++ {
		y := 260 + float64(i)*50
		opts = append(opts,
			WithUnit(musketeer(FactionBlue, 400, y, 0, StanceDefensive)),
			WithUnit(musketeer(FactionRed, 800, y, math.Pi, StanceOffensive)),
		)
	}
	ts := NewTestSim(opts...)
	ts.RunSeconds(30)
	dumpSummary(t, ts)

	st := ts.World.Stats()
	if st.ShotsFired == 0 || st.Hits == 0 {
		dumpLog(t, ts)
		t.Fatalf("expected an exchange of fire, shots %d hits %d", st.ShotsFired, st.Hits)
	}
	if st.BlueLost+st.RedLost == 0 {
		t.Error("expected casualties after 30s of volleys")
	}
	for _, e := range ts.SimLog().Filter("combat", "lock") {
		if e.Actor == "--" {
			t.Errorf("lock logged without an actor: %s", e.String())
		}
	}
}

// --- Scenario: Coordinated Assault ---

func TestScenario_CoordinatedAssault(t *testing.T) {
	t.Log("=== TestScenario_CoordinatedAssault ===")
	t.Log("--- Setup: standard skirmish, red coordinator on ---")

	w, err := NewWorld(SkirmishTerrain(1280, 720, 20), 1280, 720, WithSeed(3), WithCoordinator(FactionRed))
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	sk, err := PopulateSkirmish(w)
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	w.Run(60 * 8)

	if !w.SimLog.HasEntry("ai", "group_assign", "") {
		t.Fatal("expected the coordinator to assign a job")
	}
	assigned := 0
	for _, gid := range sk.Groups {
		if g := w.Groups.Group(gid); g != nil && g.Job != nil {
			assigned++
		}
	}
	if assigned == 0 {
		t.Fatal("no red group holds a job")
	}
	t.Logf("%d/%d red groups holding jobs, %s", assigned, len(sk.Groups), w)
}
