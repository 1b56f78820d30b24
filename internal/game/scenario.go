package game

import "math"

// SkirmishTerrain builds the standard battlefield: a river across the
// middle with two fords, a walled farm on the blue side and a ridge on the
// red side.
func SkirmishTerrain(w, h, tile float64) *TileTerrain {
	t := NewTileTerrain(w, h, tile)
	riverY := h * 0.5
	t.Fill(TerrainWater, 0, riverY-tile, w, 2*tile)
	for _, fx := range []float64{w * 0.25, w * 0.7} {
		t.Fill(TerrainOpen, fx, riverY-tile, 4*tile, 2*tile)
	}
	farmX, farmY := w*0.55, h*0.72
	t.Fill(TerrainWall, farmX, farmY, 8*tile, tile)
	t.Fill(TerrainWall, farmX, farmY, tile, 6*tile)
	t.Fill(TerrainWall, farmX+7*tile, farmY, tile, 6*tile)
	t.SetHeight(30, 0, h*0.15, w, h*0.1)
	return t
}

// Skirmish is the population of a standard battle.
type Skirmish struct {
	Blue, Red []int
	Cannons   []int
	Flags     []int
	Groups    []int
}

// PopulateSkirmish spawns both armies, their artillery and three flags.
// Blue holds the south bank; red attacks from the north in AI groups.
func PopulateSkirmish(w *World) (Skirmish, error) {
	var s Skirmish
	W, H := w.Width, w.Height

	blueLoadouts := []UnitSpec{
		{Ranged: "musket", Melee: "bayonet"},
		{Ranged: "rifle", Melee: "bayonet", Armor: "leather"},
		{Ranged: "carbine", Melee: "sabre", Mount: "horse"},
	}
	redLoadouts := []UnitSpec{
		{Ranged: "musket", Melee: "bayonet"},
		{Ranged: "blunderbuss", Melee: "sabre"},
		{Melee: "lance", Armor: "cuirass", Mount: "horse"},
		{Ranged: "fire-lance", Melee: "bayonet"},
	}

	for i := 0; i < 12; i++ {
		spec := blueLoadouts[i%len(blueLoadouts)]
		spec.Faction = FactionBlue
		spec.X = W*0.2 + float64(i)*W*0.05
		spec.Y = H * 0.68
		spec.Heading = -math.Pi / 2
		spec.Stance = StanceDefensive
		spec.Leader = i == 0
		id, err := w.SpawnUnit(spec)
		if err != nil {
			return s, err
		}
		s.Blue = append(s.Blue, id)
	}
	for i := 0; i < 16; i++ {
		spec := redLoadouts[i%len(redLoadouts)]
		spec.Faction = FactionRed
		spec.X = W*0.15 + float64(i)*W*0.045
		spec.Y = H * 0.2
		spec.Heading = math.Pi / 2
		spec.Stance = StanceOffensive
		spec.Leader = i%4 == 0
		id, err := w.SpawnUnit(spec)
		if err != nil {
			return s, err
		}
		s.Red = append(s.Red, id)
	}

	s.Cannons = append(s.Cannons,
		w.SpawnCannon(CannonSpec{Faction: FactionBlue, X: W * 0.35, Y: H * 0.8, Heading: -math.Pi / 2, Type: CannonLight}),
		w.SpawnCannon(CannonSpec{Faction: FactionBlue, X: W * 0.65, Y: H * 0.85, Heading: -math.Pi / 2, Type: CannonMortar}),
		w.SpawnCannon(CannonSpec{Faction: FactionRed, X: W * 0.5, Y: H * 0.12, Heading: math.Pi / 2, Type: CannonHeavy}),
	)
	for _, u := range []int{s.Blue[1], s.Blue[4]} {
		w.AssignCrew(s.Cannons[0], u)
	}
	w.AssignCrew(s.Cannons[1], s.Blue[7])
	for _, u := range []int{s.Red[0], s.Red[5]} {
		w.AssignCrew(s.Cannons[2], u)
	}

	s.Flags = append(s.Flags,
		w.SpawnFlag(FlagSpec{X: W * 0.27, Y: H * 0.55, Radius: 70, Amount: 2, CaptureTime: 8}),
		w.SpawnFlag(FlagSpec{X: W * 0.72, Y: H * 0.55, Radius: 70, Amount: 2, CaptureTime: 8}),
		w.SpawnFlag(FlagSpec{X: W * 0.58, Y: H * 0.75, Radius: 80, Amount: 3, CaptureTime: 10, Faction: FactionBlue}),
	)

	var free []int
	for _, id := range s.Red {
		if u := w.Reg.Unit(id); u != nil && u.CrewOf == 0 {
			free = append(free, id)
		}
	}
	for i := 0; i < len(free); i += 5 {
		end := min(i+5, len(free))
		if g := w.Groups.CreateGroup(w, free[i:end]); g != 0 {
			s.Groups = append(s.Groups, g)
		}
	}
	return s, nil
}

// RunSkirmish plays one seeded skirmish headlessly for seconds of sim time
// and judges it. Extra options are applied after the seed.
func RunSkirmish(seed int64, seconds, w, h float64, opts ...WorldOption) (RunResult, error) {
	all := append([]WorldOption{WithSeed(seed), WithCoordinator(FactionRed)}, opts...)
	world, err := NewWorld(SkirmishTerrain(w, h, 20), w, h, all...)
	if err != nil {
		return RunResult{}, err
	}
	sk, err := PopulateSkirmish(world)
	if err != nil {
		return RunResult{}, err
	}
	ticks := int(seconds / world.DT())
	for i := 0; i < ticks; i++ {
		world.Step()
		if blue, red := world.Counts(); blue == 0 || red == 0 {
			break
		}
	}
	return RunResult{
		Seed:    seed,
		Ticks:   world.Tick,
		Outcome: DetermineBattleOutcome(world, len(sk.Blue), len(sk.Red)),
		Stats:   world.Stats(),
	}, nil
}
