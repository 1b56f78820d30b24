package game

import (
	"fmt"

	"github.com/rs/zerolog"
)

// TestSim is a headless simulation harness used by tests and the headless
// report. It builds a World from options in ordered passes and records
// change events into the World's SimLog.
type TestSim struct {
	Width   float64
	Height  float64
	Terrain *TileTerrain
	World   *World

	// Units, Cannons and Flags hold registry ids in the order the options
	// spawned them.
	Units   []int
	Cannons []int
	Flags   []int
	Groups  []int

	terrainOps []func(*TileTerrain)
	worldOpts  []WorldOption
	err        error
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra  simOptionKind = iota // map size, terrain, seed, verbose: applied first
	simOptEntity                      // units, cannons, flags: applied after the world exists
	simOptGroup                       // groups: applied after units exist
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithMapSize sets the playfield dimensions.
func WithMapSize(w, h float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.Width = w
		ts.Height = h
	}}
}

// WithWall fills a rectangle with wall.
func WithWall(x, y, w, h float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.terrainOps = append(ts.terrainOps, func(t *TileTerrain) { t.Fill(TerrainWall, x, y, w, h) })
	}}
}

// WithWater fills a rectangle with water.
func WithWater(x, y, w, h float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.terrainOps = append(ts.terrainOps, func(t *TileTerrain) { t.Fill(TerrainWater, x, y, w, h) })
	}}
}

// WithHeight raises a rectangle to the given elevation.
func WithHeight(height, x, y, w, h float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.terrainOps = append(ts.terrainOps, func(t *TileTerrain) { t.SetHeight(height, x, y, w, h) })
	}}
}

// WithSimSeed sets the RNG seed for deterministic runs.
func WithSimSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.worldOpts = append(ts.worldOpts, WithSeed(seed))
	}}
}

// WithScriptedRNG replays the given values instead of a seeded source.
func WithScriptedRNG(values ...float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.worldOpts = append(ts.worldOpts, WithRNG(&SequenceRNG{Values: values}))
	}}
}

// WithVerbose enables per-tick verbose logging.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.worldOpts = append(ts.worldOpts, WithVerboseLog(v))
	}}
}

// WithWorldOptions passes options straight through to NewWorld.
func WithWorldOptions(opts ...WorldOption) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.worldOpts = append(ts.worldOpts, opts...)
	}}
}

// WithUnit spawns a unit.
func WithUnit(spec UnitSpec) SimOption {
	return SimOption{simOptEntity, func(ts *TestSim) {
		id, err := ts.World.SpawnUnit(spec)
		if err != nil {
			ts.err = err
			return
		}
		ts.Units = append(ts.Units, id)
	}}
}

// WithCannon spawns a cannon.
func WithCannon(spec CannonSpec) SimOption {
	return SimOption{simOptEntity, func(ts *TestSim) {
		ts.Cannons = append(ts.Cannons, ts.World.SpawnCannon(spec))
	}}
}

// WithFlag spawns a flag objective.
func WithFlag(spec FlagSpec) SimOption {
	return SimOption{simOptEntity, func(ts *TestSim) {
		ts.Flags = append(ts.Flags, ts.World.SpawnFlag(spec))
	}}
}

// WithGroup forms an AI group from units by spawn index (not registry id).
func WithGroup(indices ...int) SimOption {
	return SimOption{simOptGroup, func(ts *TestSim) {
		var ids []int
		for _, i := range indices {
			if i >= 0 && i < len(ts.Units) {
				ids = append(ids, ts.Units[i])
			}
		}
		if g := ts.World.Groups.CreateGroup(ts.World, ids); g != 0 {
			ts.Groups = append(ts.Groups, g)
		}
	}}
}

// NewTestSim constructs a TestSim from the given options in ordered passes:
//  1. Infrastructure (map size, terrain, seed, verbose)
//  2. Build terrain and World
//  3. Units, cannons, flags
//  4. Groups
//
// It panics on an invalid option, which in a test is a bug in the test.
func NewTestSim(opts ...SimOption) *TestSim {
	ts := &TestSim{Width: 1280, Height: 720}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}
	ts.Terrain = NewTileTerrain(ts.Width, ts.Height, 20)
	for _, op := range ts.terrainOps {
		op(ts.Terrain)
	}
	wopts := append([]WorldOption{WithLogger(zerolog.Nop())}, ts.worldOpts...)
	w, err := NewWorld(ts.Terrain, ts.Width, ts.Height, wopts...)
	if err != nil {
		panic(fmt.Sprintf("test sim: %v", err))
	}
	ts.World = w
	for _, kind := range []simOptionKind{simOptEntity, simOptGroup} {
		for _, o := range opts {
			if o.kind == kind {
				o.fn(ts)
			}
		}
	}
	if ts.err != nil {
		panic(fmt.Sprintf("test sim: %v", ts.err))
	}
	return ts
}

// Unit returns the i-th spawned unit, or nil once it has been removed.
func (ts *TestSim) Unit(i int) *Unit { return ts.World.Reg.Unit(ts.Units[i]) }

// Cannon returns the i-th spawned cannon.
func (ts *TestSim) Cannon(i int) *Cannon { return ts.World.Reg.Cannon(ts.Cannons[i]) }

// Flag returns the i-th spawned flag.
func (ts *TestSim) Flag(i int) *CaptureObjective { return ts.World.Reg.Objective(ts.Flags[i]) }

// SimLog returns the world's event log.
func (ts *TestSim) SimLog() *SimLog { return ts.World.SimLog }

// RunTicks advances the simulation n ticks.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		ts.runOneTick()
	}
}

// RunSeconds advances the simulation by at least s seconds.
func (ts *TestSim) RunSeconds(s float64) {
	ts.RunTicks(int(s/ts.World.DT() + 0.5))
}

// RunUntil advances the simulation up to maxTicks, stopping early if predicate
// returns true. Returns the tick at which the predicate was satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.runOneTick()
		if predicate(ts) {
			return ts.World.Tick
		}
	}
	return -1
}

// runOneTick steps the world and logs lock and stance changes.
func (ts *TestSim) runOneTick() {
	w := ts.World
	prevLocks := make(map[int]Ref)
	prevStances := make(map[int]Stance)
	for _, u := range w.Reg.Units() {
		prevLocks[u.ID] = u.LockedTarget()
		prevStances[u.ID] = u.Stance()
	}

	w.Step()

	for _, u := range w.Reg.Units() {
		if !u.Alive() {
			continue
		}
		f := u.Faction.String()
		if u.LockedTarget() != prevLocks[u.ID] {
			w.SimLog.Add(w.Tick, u.label(), f, "combat", "lock",
				fmt.Sprintf("%s → %s", refLabel(prevLocks[u.ID]), refLabel(u.LockedTarget())), 0)
		}
		if u.Stance() != prevStances[u.ID] {
			w.SimLog.Add(w.Tick, u.label(), f, "status", "stance",
				fmt.Sprintf("%s → %s", prevStances[u.ID], u.Stance()), 0)
		}
		w.SimLog.AddVerbose(w.Tick, u.label(), f, "move", "position",
			fmt.Sprintf("(%.1f,%.1f)", u.Pos().X, u.Pos().Y), 0)
		w.SimLog.AddVerbose(w.Tick, u.label(), f, "status", "distress",
			fmt.Sprintf("%.1f", u.Distress), u.Distress)
	}
}

// SimSnapshot is a lightweight state summary.
type SimSnapshot struct {
	Tick  int
	Units []UnitSnapshot
}

// UnitSnapshot is a lightweight copy of a unit's state at a tick.
type UnitSnapshot struct {
	ID       int
	Faction  Faction
	X, Y     float64
	Health   float64
	Distress float64
	Locked   Ref
	Dying    bool
}

// Snapshot returns the current state of every unit.
func (ts *TestSim) Snapshot() SimSnapshot {
	snap := SimSnapshot{Tick: ts.World.Tick}
	for _, u := range ts.World.Reg.Units() {
		snap.Units = append(snap.Units, UnitSnapshot{
			ID:       u.ID,
			Faction:  u.Faction,
			X:        u.Pos().X,
			Y:        u.Pos().Y,
			Health:   u.Health,
			Distress: u.Distress,
			Locked:   u.LockedTarget(),
			Dying:    u.Dying(),
		})
	}
	return snap
}
