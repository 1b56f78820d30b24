package game

import (
	"math"
	"testing"
)

func TestCombatModel_ElevationFactor(t *testing.T) {
	if f := elevationFactor(10, 10); f != 1 {
		t.Fatalf("level ground should not change the cone, got %.3f", f)
	}
	if f := elevationFactor(30, 0); math.Abs(f-0.7) > 1e-9 {
		t.Fatalf("expected 0.7 shooting 30px downhill, got %.3f", f)
	}
	if f := elevationFactor(200, 0); f != downhillFloor {
		t.Fatalf("downhill ease should floor at %.1f, got %.3f", downhillFloor, f)
	}
	if f := elevationFactor(0, 200); f != uphillCeiling {
		t.Fatalf("uphill penalty should cap at %.1f, got %.3f", uphillCeiling, f)
	}
}

func TestCombatModel_ShotConeModifiers(t *testing.T) {
	smoke := NewSmokeField(30)
	ts := NewTestSim(
		WithWorldOptions(WithEffects(Effects{Smoke: smoke})),
		WithHeight(30, 0, 0, 200, 720),
	)
	w := ts.World
	cm := &CombatModel{}
	a, b := Vec{300, 360}, Vec{600, 360}

	if got := cm.shotCone(w, 0.04, a, b); math.Abs(got-0.04) > 1e-12 {
		t.Fatalf("expected the base cone on open level ground, got %.4f", got)
	}

	smoke.Add(450, 360, 30)
	if got := cm.shotCone(w, 0.04, a, b); math.Abs(got-0.06) > 1e-12 {
		t.Fatalf("expected one cloud to widen the cone by half, got %.4f", got)
	}
	smoke.areas = nil

	cm.Shockwave = 1
	if got := cm.shotCone(w, 0.04, a, b); math.Abs(got-0.08) > 1e-12 {
		t.Fatalf("expected shockwave to double the cone, got %.4f", got)
	}
	cm.Shockwave = 0

	cm.Engage = 1
	if got := cm.shotCone(w, 0.04, a, b); math.Abs(got-0.02) > 1e-12 {
		t.Fatalf("expected engage to halve the cone, got %.4f", got)
	}
	cm.Engage = 0

	high := Vec{100, 360}
	if got := cm.shotCone(w, 0.04, high, b); got >= 0.04 {
		t.Fatalf("shooting off the ridge should tighten the cone, got %.4f", got)
	}
	if got := cm.shotCone(w, 0.001, a, b); got != minShotCone {
		t.Fatalf("cone should not shrink below %.3f, got %.4f", minShotCone, got)
	}
}

func TestCombatModel_RollShot(t *testing.T) {
	// Deflection is (v*2-1)*cone; 0.5 is dead centre.
	if d, hit := rollShot(&SequenceRNG{Values: []float64{0.5}}, 0.1, 300, 8); d != 0 || !hit {
		t.Fatalf("centre roll should hit, deflection %.4f", d)
	}
	if _, hit := rollShot(&SequenceRNG{Values: []float64{0.99}}, 0.1, 300, 8); hit {
		t.Fatal("a roll at the cone edge should miss a small distant target")
	}
	if _, hit := rollShot(&SequenceRNG{Values: []float64{0.99}}, 0.1, 20, 8); !hit {
		t.Fatal("the same roll should hit at point blank")
	}
}

func TestCombatModel_DecayAndClear(t *testing.T) {
	cm := &CombatModel{Engage: 1, Shockwave: 3, Locked: UnitRef(3), Manual: UnitRef(4)}
	cm.decay(1)
	if math.Abs(cm.Engage-(1-engageDecay)) > 1e-12 || math.Abs(cm.Shockwave-(3-shockwaveDecay)) > 1e-12 {
		t.Fatalf("unexpected decay: engage %.2f shockwave %.2f", cm.Engage, cm.Shockwave)
	}
	cm.decay(100)
	if cm.Engage != 0 || cm.Shockwave != 0 {
		t.Fatal("decay should stop at zero")
	}
	cm.clearTargets()
	if cm.Locked.Valid() || cm.Manual.Valid() {
		t.Fatal("expected both targets cleared")
	}
}

func TestParseStance(t *testing.T) {
	for name, want := range map[string]Stance{
		"defensive": StanceDefensive,
		"Offensive": StanceOffensive,
		"none":      StanceNone,
		"bogus":     StanceNone,
	} {
		if got := ParseStance(name); got != want {
			t.Errorf("ParseStance(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestRNG_SequenceAndShuffle(t *testing.T) {
	r := &SequenceRNG{Values: []float64{0.25, 0.75}}
	if r.Intn(4) != 1 || r.Intn(4) != 3 || r.Intn(4) != 1 {
		t.Fatal("sequence should map onto [0,n) and cycle")
	}
	if v := rngRange(&SequenceRNG{Values: []float64{0.5}}, 3, 5); v != 4 {
		t.Fatalf("expected midpoint 4, got %.2f", v)
	}

	a := []int{1, 2, 3, 4, 5, 6}
	b := append([]int(nil), a...)
	shuffleInts(NewRNG(9), a)
	shuffleInts(NewRNG(9), b)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed should shuffle identically: %v vs %v", a, b)
		}
	}
}
