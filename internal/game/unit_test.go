package game

import (
	"math"
	"testing"
)

// dumpLog prints the full SimLog to t.Log so it appears in `go test -v` output.
func dumpLog(t *testing.T, ts *TestSim) {
	t.Helper()
	entries := ts.SimLog().Entries()
	if len(entries) == 0 {
		t.Log("(no log entries)")
		return
	}
	for _, e := range entries {
		t.Log(e.String())
	}
}

func unarmed(f Faction, x, y float64) UnitSpec {
	return UnitSpec{Faction: f, X: x, Y: y}
}

func musketeer(f Faction, x, y, heading float64, st Stance) UnitSpec {
	return UnitSpec{Faction: f, X: x, Y: y, Heading: heading, Ranged: "musket", Stance: st}
}

func TestUnit_RadiusDerivedFromFlags(t *testing.T) {
	ts := NewTestSim(
		WithUnit(unarmed(FactionBlue, 100, 100)),
		WithUnit(UnitSpec{Faction: FactionBlue, X: 200, Y: 100, Mount: "horse"}),
		WithUnit(UnitSpec{Faction: FactionBlue, X: 300, Y: 100, Leader: true}),
		WithUnit(UnitSpec{Faction: FactionBlue, X: 400, Y: 100, Mount: "horse", Leader: true}),
	)
	want := []float64{8, 12, 10, 14}
	for i, r := range want {
		if got := ts.Unit(i).Radius(); got != r {
			t.Fatalf("unit %d: expected radius %.0f, got %.1f", i, r, got)
		}
	}
}

func TestUnit_ChargeStacksSlowAndExpire(t *testing.T) {
	ts := NewTestSim(WithUnit(UnitSpec{Faction: FactionBlue, X: 100, Y: 100, Mount: "horse"}))
	u := ts.Unit(0)
	base := u.Speed()
	u.addChargeStack()
	u.addChargeStack()
	if got, want := u.Speed(), base*0.64; math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected speed %.3f with two stacks, got %.3f", want, got)
	}
	ts.RunSeconds(chargeStackTime + 0.1)
	if u.ChargeStacks() != 0 {
		t.Fatalf("expected stacks to expire, got %d", u.ChargeStacks())
	}
	if u.Speed() != base {
		t.Fatalf("expected speed to recover to %.2f, got %.2f", base, u.Speed())
	}
}

func TestUnit_TakeDamage_ArmorAndFire(t *testing.T) {
	ts := NewTestSim(WithUnit(UnitSpec{Faction: FactionBlue, X: 100, Y: 100, Armor: "leather"}))
	u := ts.Unit(0)

	dealt, killed := u.TakeDamage(20, DamageGunfire)
	if killed || math.Abs(dealt-18) > 1e-9 {
		t.Fatalf("expected 18 damage through leather, got %.2f killed=%v", dealt, killed)
	}
	if u.Distress != distressHit {
		t.Fatalf("expected hit distress %.0f, got %.1f", distressHit, u.Distress)
	}
	dealt, _ = u.TakeDamage(10, DamageFire)
	if dealt != 10 {
		t.Fatalf("fire should ignore armor, dealt %.2f", dealt)
	}
	if u.Distress != distressHit {
		t.Fatalf("fire damage should not add hit distress, got %.1f", u.Distress)
	}
}

func TestUnit_TakeDamage_KillsOnceAndStartsCountdown(t *testing.T) {
	ts := NewTestSim(WithUnit(unarmed(FactionBlue, 100, 100)))
	u := ts.Unit(0)

	dealt, killed := u.TakeDamage(500, DamageExplosion)
	if !killed || dealt != defaultHealth {
		t.Fatalf("expected lethal blow dealing %.0f, got %.1f killed=%v", defaultHealth, dealt, killed)
	}
	if u.Alive() || !u.Dying() || u.Health != 0 {
		t.Fatalf("expected dying unit at 0 health, alive=%v dying=%v hp=%.1f", u.Alive(), u.Dying(), u.Health)
	}
	if _, again := u.TakeDamage(10, DamageGunfire); again {
		t.Fatal("a dying unit must not be killed twice")
	}

	ts.RunSeconds(deathDelay - 0.2)
	if ts.Unit(0) == nil {
		t.Fatal("unit removed before the death countdown ran out")
	}
	ts.RunSeconds(0.4)
	if ts.Unit(0) != nil {
		t.Fatal("expected unit removed after the death countdown")
	}
}

func TestUnit_DistressStaysInBounds(t *testing.T) {
	ts := NewTestSim(WithUnit(unarmed(FactionBlue, 100, 100)))
	u := ts.Unit(0)
	u.addDistress(500)
	if u.Distress != maxDistress {
		t.Fatalf("expected distress clamped to %.0f, got %.1f", maxDistress, u.Distress)
	}
	u.addDistress(-1000)
	if u.Distress != 0 {
		t.Fatalf("expected distress clamped to 0, got %.1f", u.Distress)
	}
}

func TestUnit_CrewStanceForcedNone(t *testing.T) {
	ts := NewTestSim(
		WithCannon(CannonSpec{Faction: FactionBlue, X: 300, Y: 300}),
		WithUnit(UnitSpec{Faction: FactionBlue, X: 600, Y: 300, Ranged: "musket", Stance: StanceOffensive}),
	)
	if !ts.World.AssignCrew(ts.Cannons[0], ts.Units[0]) {
		t.Fatal("expected crew assignment to succeed")
	}
	u := ts.Unit(0)
	if u.Stance() != StanceNone {
		t.Fatalf("expected crew stance none, got %s", u.Stance())
	}
	ts.World.SetStance(u.ID, StanceOffensive)
	if u.Stance() != StanceNone {
		t.Fatalf("crew stance must stay none, got %s", u.Stance())
	}
	if ts.World.MoveTo(u.ID, 700, 300) {
		t.Fatal("crew members cannot take move orders")
	}
}

// TestUnit_TwoMusketsDuel checks a close-range duel: both sides lock on the
// first tick, every musket ball at 100px hits, and the duel ends in a death.
func TestUnit_TwoMusketsDuel(t *testing.T) {
	ts := NewTestSim(
		WithSimSeed(42),
		WithUnit(musketeer(FactionBlue, 500, 360, 0, StanceOffensive)),
		WithUnit(musketeer(FactionRed, 600, 360, math.Pi, StanceOffensive)),
	)
	ts.RunTicks(1)
	if ts.Unit(0).LockedTarget() != UnitRef(ts.Units[1]) || ts.Unit(1).LockedTarget() != UnitRef(ts.Units[0]) {
		dumpLog(t, ts)
		t.Fatal("expected both units locked on each other after one tick")
	}

	tick := ts.RunUntil(func(ts *TestSim) bool {
		for _, u := range ts.World.Reg.Units() {
			if u.Health > u.MaxHealth || u.Distress < 0 || u.Distress > maxDistress {
				t.Fatalf("invariant broken: hp %.1f/%.1f distress %.1f", u.Health, u.MaxHealth, u.Distress)
			}
		}
		return ts.World.SimLog.CountCategory("combat", "death") > 0
	}, 60*30)
	if tick < 0 {
		dumpLog(t, ts)
		t.Fatal("expected a death within 30s")
	}
	st := ts.World.Stats()
	if st.ShotsFired == 0 || st.Hits != st.ShotsFired {
		t.Fatalf("expected every shot at 100px to hit, shots=%d hits=%d", st.ShotsFired, st.Hits)
	}
	if !ts.World.SimLog.HasEntry("combat", "reload_start", "") {
		t.Fatal("expected a reload after the single-round magazine emptied")
	}
}

func TestUnit_DefensiveHoldsHeadingOffensiveTurns(t *testing.T) {
	// Enemy sits 40° off both units' headings, inside the 60° half-FOV.
	ang := 40 * math.Pi / 180
	ts := NewTestSim(
		WithUnit(UnitSpec{Faction: FactionBlue, X: 300, Y: 200, Melee: "bayonet", Stance: StanceDefensive}),
		WithUnit(UnitSpec{Faction: FactionBlue, X: 300, Y: 500, Melee: "bayonet", Stance: StanceOffensive}),
		WithUnit(unarmed(FactionRed, 300+30*math.Cos(ang), 200+30*math.Sin(ang))),
		WithUnit(unarmed(FactionRed, 300+30*math.Cos(ang), 500+30*math.Sin(ang))),
	)
	ts.RunTicks(30)
	def, off := ts.Unit(0), ts.Unit(1)
	if def.LockedTarget() != UnitRef(ts.Units[2]) {
		t.Fatalf("defensive unit should lock nearest enemy, got %v", def.LockedTarget())
	}
	if def.Heading() != 0 {
		t.Fatalf("defensive unit must not rotate, heading %.3f", def.Heading())
	}
	if math.Abs(normalizeAngle(off.Heading()-ang)) > 0.05 {
		t.Fatalf("offensive unit should face its target (%.3f), heading %.3f", ang, off.Heading())
	}
}

func TestUnit_TargetOutsideFOVIgnored(t *testing.T) {
	ts := NewTestSim(
		WithUnit(musketeer(FactionBlue, 500, 360, 0, StanceDefensive)),
		WithUnit(unarmed(FactionRed, 400, 360)), // directly behind
	)
	ts.RunTicks(10)
	if ts.Unit(0).LockedTarget().Valid() {
		t.Fatalf("enemy behind the unit should not be acquired, got %v", ts.Unit(0).LockedTarget())
	}
}

func TestUnit_WallBlocksAcquisition(t *testing.T) {
	ts := NewTestSim(
		WithWall(540, 300, 20, 120),
		WithUnit(musketeer(FactionBlue, 500, 360, 0, StanceDefensive)),
		WithUnit(unarmed(FactionRed, 620, 360)),
	)
	ts.RunTicks(10)
	if ts.Unit(0).LockedTarget().Valid() {
		t.Fatal("wall should block sight to the enemy")
	}
}

func TestUnit_ManualTargetOverridesStance(t *testing.T) {
	ts := NewTestSim(
		WithUnit(UnitSpec{Faction: FactionBlue, X: 500, Y: 360, Melee: "bayonet", Stance: StanceDefensive}),
		WithUnit(unarmed(FactionRed, 540, 360)),
		WithUnit(unarmed(FactionRed, 530, 390)),
	)
	ts.RunTicks(1)
	u := ts.Unit(0)
	if u.LockedTarget() != UnitRef(ts.Units[1]) {
		t.Fatalf("expected nearest enemy locked, got %v", u.LockedTarget())
	}
	far := UnitRef(ts.Units[2])
	if !ts.World.SetManualTarget(u.ID, far) {
		t.Fatal("expected manual target accepted")
	}
	ts.RunTicks(1)
	if u.LockedTarget() != far {
		t.Fatalf("expected manual target locked, got %v", u.LockedTarget())
	}
	if u.Engage() <= 0.9 {
		t.Fatalf("expected engage buff near 1, got %.3f", u.Engage())
	}

	ts.World.applyDamage(far, 1000, DamageGunfire, NoRef)
	ts.RunTicks(1)
	if u.ManualTarget().Valid() {
		t.Fatal("manual target should clear once the target is dying")
	}
	if u.LockedTarget() != UnitRef(ts.Units[1]) {
		t.Fatalf("expected fallback to nearest enemy, got %v", u.LockedTarget())
	}
}

func TestUnit_ManualTargetRejectsAllies(t *testing.T) {
	ts := NewTestSim(
		WithUnit(unarmed(FactionBlue, 500, 360)),
		WithUnit(unarmed(FactionBlue, 540, 360)),
	)
	if ts.World.SetManualTarget(ts.Units[0], UnitRef(ts.Units[1])) {
		t.Fatal("manual target on an ally must be rejected")
	}
}

func TestUnit_StanceNonePicksVisibleEnemy(t *testing.T) {
	ts := NewTestSim(
		WithScriptedRNG(0.99, 0.5),
		WithUnit(UnitSpec{Faction: FactionBlue, X: 500, Y: 360, Melee: "bayonet"}),
		WithUnit(unarmed(FactionRed, 530, 345)),
		WithUnit(unarmed(FactionRed, 530, 375)),
	)
	ts.RunTicks(1)
	// Intn(2) with 0.99 picks the second candidate.
	if got := ts.Unit(0).LockedTarget(); got != UnitRef(ts.Units[2]) {
		t.Fatalf("expected random pick of the second enemy, got %v", got)
	}
}

func TestUnit_PanicFleesAndRecovers(t *testing.T) {
	ts := NewTestSim(
		WithUnit(musketeer(FactionBlue, 500, 360, 0, StanceDefensive)),
		WithUnit(unarmed(FactionRed, 600, 360)),
	)
	u := ts.Unit(0)
	u.addDistress(maxDistress)
	ts.RunTicks(1)
	if !u.Panicking() {
		t.Fatal("expected panic at full distress")
	}
	if u.LockedTarget().Valid() {
		t.Fatal("a panicking unit drops its target")
	}
	if !ts.SimLog().HasEntry("status", "panic_start", "") {
		t.Fatal("expected panic_start logged")
	}
	ts.RunSeconds(2)
	if u.Pos().X >= 500 {
		t.Fatalf("expected unit to flee away from the enemy, x=%.1f", u.Pos().X)
	}

	// Decay of 3/s takes 20s to bring 100 down to 40.
	ts.RunSeconds(19)
	if u.Panicking() {
		t.Fatalf("expected panic to end, distress %.1f", u.Distress)
	}
	if !ts.SimLog().HasEntry("status", "panic_end", "") {
		t.Fatal("expected panic_end logged")
	}
}

func TestUnit_AllyDeathRaisesDistress(t *testing.T) {
	ts := NewTestSim(
		WithUnit(unarmed(FactionBlue, 500, 360)),
		WithUnit(unarmed(FactionBlue, 550, 360)),
		WithUnit(unarmed(FactionBlue, 900, 360)),
	)
	ts.World.applyDamage(UnitRef(ts.Units[0]), 1000, DamageGunfire, NoRef)
	if got := ts.Unit(1).Distress; got != distressAllyDeath {
		t.Fatalf("nearby ally should gain %.0f distress, got %.1f", distressAllyDeath, got)
	}
	if got := ts.Unit(2).Distress; got != 0 {
		t.Fatalf("distant ally should be unaffected, got %.1f", got)
	}
}

func TestUnit_RetreatToFriendlyObjective(t *testing.T) {
	ts := NewTestSim(
		WithFlag(FlagSpec{X: 200, Y: 360, Faction: FactionBlue}),
		WithUnit(unarmed(FactionBlue, 600, 360)),
	)
	if !ts.World.Retreat(ts.Units[0]) {
		t.Fatal("expected retreat accepted")
	}
	u := ts.Unit(0)
	if goal, ok := u.MoveTarget(); !ok || goal.X != 200 {
		t.Fatalf("expected retreat toward the blue flag, got %v ok=%v", goal, ok)
	}
	ts.RunSeconds(15)
	if u.Retreating() {
		t.Fatal("expected retreat to finish on arrival")
	}
	if d := u.Pos().DistTo(Vec{200, 360}); d > retreatArrive {
		t.Fatalf("expected unit near the flag, %.1fpx away", d)
	}
}

func TestUnit_FireBurnsAndRepels(t *testing.T) {
	fires := NewFireField(30)
	ts := NewTestSim(
		WithWorldOptions(WithEffects(Effects{Fires: fires})),
		WithUnit(unarmed(FactionBlue, 500, 360)),
	)
	fires.Ignite(505, 360, 20)
	ts.RunSeconds(1)
	u := ts.Unit(0)
	if u.Health >= defaultHealth {
		t.Fatal("expected fire damage")
	}
	if u.Pos().X >= 500 {
		t.Fatal("expected fire repulsion to push the unit")
	}
}

// TestUnit_MeleeHitChanceAndCharge drives a mounted lancer against an
// adjacent target with scripted rolls. Strikes land at t≈0, 1.06 and 2.12s.
func TestUnit_MeleeHitChanceAndCharge(t *testing.T) {
	cases := []struct {
		name       string
		rolls      []float64
		mounted    bool
		wantHits   int
		wantStacks int
	}{
		{"every roll hits", []float64{0.1}, true, 3, 1},
		{"60% boundary", []float64{0.59, 0.6}, true, 2, 1},
		{"every roll misses", []float64{0.6}, true, 0, 0},
		{"foot victim takes no charge", []float64{0.1}, false, 3, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			victim := UnitSpec{Faction: FactionRed, X: 540, Y: 360, Stance: StanceDefensive, Health: 1000}
			if tc.mounted {
				victim.Mount = "horse"
			}
			ts := NewTestSim(
				WithScriptedRNG(tc.rolls...),
				WithUnit(UnitSpec{Faction: FactionBlue, X: 500, Y: 360, Melee: "lance", Mount: "horse", Stance: StanceOffensive}),
				WithUnit(victim),
			)
			maxStacks := 0
			ts.RunUntil(func(ts *TestSim) bool {
				maxStacks = max(maxStacks, ts.Unit(1).ChargeStacks())
				return false
			}, 60*3)

			if n := ts.SimLog().CountCategory("combat", "melee_hit"); n != tc.wantHits {
				dumpLog(t, ts)
				t.Fatalf("expected %d melee hits, got %d", tc.wantHits, n)
			}
			if maxStacks != tc.wantStacks {
				t.Fatalf("expected at most %d charge stacks on the victim, saw %d", tc.wantStacks, maxStacks)
			}
			dmg := 1000 - ts.Unit(1).Health
			if want := float64(tc.wantHits) * ts.Unit(0).Melee().Damage; math.Abs(dmg-want) > 1e-9 {
				t.Fatalf("expected %.0f damage, got %.1f", want, dmg)
			}
		})
	}
}

// TestUnit_ChargeCooldownPerVictim checks a new stack lands only once the
// per-victim cooldown has run out.
func TestUnit_ChargeCooldownPerVictim(t *testing.T) {
	ts := NewTestSim(
		WithScriptedRNG(0.1),
		WithUnit(UnitSpec{Faction: FactionBlue, X: 500, Y: 360, Melee: "lance", Mount: "horse", Stance: StanceOffensive}),
		WithUnit(UnitSpec{Faction: FactionRed, X: 540, Y: 360, Mount: "horse", Stance: StanceDefensive, Health: 1000}),
	)
	lancer, victim := ts.Unit(0), ts.Unit(1)
	ts.RunTicks(1)
	if victim.ChargeStacks() != 1 {
		t.Fatalf("expected the first strike to stack, got %d", victim.ChargeStacks())
	}
	if _, cooling := lancer.chargeCooldowns[victim.ID]; !cooling {
		t.Fatal("expected a charge cooldown recorded against the victim")
	}

	stacked := 0
	prev := victim.ChargeStacks()
	ts.RunUntil(func(ts *TestSim) bool {
		if n := victim.ChargeStacks(); n > prev {
			stacked++
		}
		prev = victim.ChargeStacks()
		return false
	}, 60*6)
	if stacked != 1 {
		t.Fatalf("expected exactly one more stack after the %.0fs cooldown, got %d", chargeCooldown, stacked)
	}
	if hits := ts.SimLog().CountCategory("combat", "melee_hit"); hits < 6 {
		t.Fatalf("expected a strike every cooldown, got %d hits", hits)
	}
}

func TestUnit_FireModes(t *testing.T) {
	cases := []struct {
		name        string
		weapon      string
		rolls       []float64
		ticks       int
		wantPulls   int
		wantRounds  int
		wantHits    int
		wantReload  bool
		wantMagLeft int
	}{
		// Burst rounds follow 0.12s apart within one pull.
		{"burst first pull", "carbine", []float64{0.5}, 1, 1, 1, 1, false, 5},
		{"burst completes", "carbine", []float64{0.5}, 30, 1, 3, 3, false, 5},
		{"burst second pull", "carbine", []float64{0.5}, 120, 2, 6, 6, false, 4},
		// Scatter fires every pellet at once; the edge rolls miss at 100px.
		{"scatter pellets", "blunderbuss", []float64{0.5, 0.99}, 1, 1, 6, 3, true, 0},
		{"single round", "musket", []float64{0.5}, 1, 1, 1, 1, true, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := NewTestSim(
				WithScriptedRNG(tc.rolls...),
				WithUnit(UnitSpec{Faction: FactionBlue, X: 500, Y: 360, Ranged: tc.weapon, Stance: StanceOffensive}),
				WithUnit(UnitSpec{Faction: FactionRed, X: 600, Y: 360, Stance: StanceDefensive, Health: 1000}),
			)
			ts.RunTicks(tc.ticks)
			u, st := ts.Unit(0), ts.World.Stats()

			if n := ts.SimLog().CountCategory("combat", "fire"); n != tc.wantPulls {
				dumpLog(t, ts)
				t.Fatalf("expected %d trigger pulls, got %d", tc.wantPulls, n)
			}
			if st.ShotsFired != tc.wantRounds || st.Hits != tc.wantHits {
				t.Fatalf("expected %d rounds %d hits, got %d and %d", tc.wantRounds, tc.wantHits, st.ShotsFired, st.Hits)
			}
			if u.Reloading() != tc.wantReload || u.Magazine() != tc.wantMagLeft {
				t.Fatalf("reloading %v magazine %d", u.Reloading(), u.Magazine())
			}
			want := float64(tc.wantHits) * u.Ranged().Damage
			if dmg := 1000 - ts.Unit(1).Health; math.Abs(dmg-want) > 1e-9 {
				t.Fatalf("expected %.2f damage, got %.2f", want, dmg)
			}
		})
	}
}

func TestUnit_ReloadInflatedByDistress(t *testing.T) {
	reloadFor := func(distress float64) float64 {
		ts := NewTestSim(
			WithScriptedRNG(0.5),
			WithUnit(UnitSpec{Faction: FactionBlue, X: 500, Y: 360, Ranged: "blunderbuss", Stance: StanceOffensive}),
			WithUnit(UnitSpec{Faction: FactionRed, X: 600, Y: 360, Stance: StanceDefensive, Health: 1000}),
		)
		u := ts.Unit(0)
		u.Distress = distress
		ts.RunTicks(1)
		if !u.Reloading() {
			dumpLog(t, ts)
			t.Fatal("expected the single-shot magazine to start a reload")
		}
		e, ok := ts.SimLog().LastOf("combat", "reload_start")
		if !ok || math.Abs(e.NumVal-u.reloadDuration) > 1e-9 {
			t.Fatalf("reload_start not logged with the duration, got %+v", e)
		}
		return u.reloadDuration
	}

	calm := reloadFor(0)
	rs := NewTestSim(WithUnit(UnitSpec{Faction: FactionBlue, X: 100, Y: 100, Ranged: "blunderbuss"})).Unit(0).Ranged()
	if math.Abs(calm-rs.ReloadBase) > 1e-9 {
		t.Fatalf("calm reload should be the base %.2fs, got %.2fs", rs.ReloadBase, calm)
	}
	// Distress decays for one tick before the shot.
	shaken := reloadFor(50)
	if want := rs.ReloadBase * 1.5; math.Abs(shaken-want) > 0.01 {
		t.Fatalf("expected ~%.2fs at distress 50, got %.2fs", want, shaken)
	}
}
