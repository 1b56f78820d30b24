package game

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/Garsondee/frontline/internal/config"
	"github.com/Garsondee/frontline/internal/equipment"
)

const (
	defaultDT           = 1.0 / 60.0
	defaultFlowCell     = 20.0
	defaultHeatInterval = 1.0
	defaultJobsInterval = 5.0

	shellSpeed          = 600.0
	blastKnockback      = 220.0 // px/s impulse at the centre of a blast
	blastDistressRange  = 2.0   // × radius
	blastShockwaveRange = 3.0   // × radius
	incendiaryRadius    = 20.0
	unitDeathLoudness   = 0.5
)

// SimStats are running counters for reports.
type SimStats struct {
	ShotsFired  int
	Hits        int
	CannonShots int
	FFAborts    int
	Captures    int
	BlueLost    int
	RedLost     int
	CannonsLost int
}

// Shell is an artillery round in flight.
type Shell struct {
	From, Pos, To Vec
	Radius        float64
	Damage        float64
	Faction       Faction
	CannonID      int
}

// World is the simulation: registry, terrain, effect collaborators and the
// slower AI layers, advanced one fixed step at a time.
type World struct {
	Width, Height float64
	Terrain       TerrainQuery
	Reg           *Registry
	Effects       Effects
	Catalog       *equipment.Catalog
	Heatmap       *Heatmap
	Jobs          *AIJobsManager
	Groups        *AIGroupManager
	Coordinator   *Coordinator
	SimLog        *SimLog

	Tick int
	Time float64

	log      zerolog.Logger
	rng      RNG
	dt       float64
	flowCell float64
	shells   []*Shell
	selected int
	stats    SimStats
}

type worldSettings struct {
	log          zerolog.Logger
	rng          RNG
	effects      Effects
	catalog      *equipment.Catalog
	dt           float64
	flowCell     float64
	heatInterval float64
	jobsInterval float64
	jobRule      string
	coordinator  *Coordinator
	verbose      bool
}

// WorldOption configures a World at construction.
type WorldOption func(*worldSettings)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l zerolog.Logger) WorldOption {
	return func(s *worldSettings) { s.log = l }
}

// WithRNG injects the random source.
func WithRNG(r RNG) WorldOption {
	return func(s *worldSettings) { s.rng = r }
}

// WithSeed seeds the default random source.
func WithSeed(seed int64) WorldOption {
	return func(s *worldSettings) { s.rng = NewRNG(seed) }
}

// WithEffects wires the fire, smoke, explosion, shell and sound collaborators.
func WithEffects(e Effects) WorldOption {
	return func(s *worldSettings) { s.effects = e }
}

// WithCatalog sets the equipment catalog units are spawned from.
func WithCatalog(c *equipment.Catalog) WorldOption {
	return func(s *worldSettings) { s.catalog = c }
}

// WithDT sets the fixed step in seconds.
func WithDT(dt float64) WorldOption {
	return func(s *worldSettings) { s.dt = dt }
}

// WithFlowCellSize sets the flow field grid cell size in px.
func WithFlowCellSize(px float64) WorldOption {
	return func(s *worldSettings) { s.flowCell = px }
}

// WithAIIntervals sets the heatmap and job scoring periods in seconds.
func WithAIIntervals(heatmap, jobs float64) WorldOption {
	return func(s *worldSettings) {
		s.heatInterval = heatmap
		s.jobsInterval = jobs
	}
}

// WithJobAdmission sets the expr rule jobs must satisfy.
func WithJobAdmission(rule string) WorldOption {
	return func(s *worldSettings) { s.jobRule = rule }
}

// WithCoordinator lets f's AI groups pick up jobs automatically.
func WithCoordinator(f Faction) WorldOption {
	return func(s *worldSettings) { s.coordinator = &Coordinator{Faction: f} }
}

// WithVerboseLog records per-tick detail entries in the SimLog.
func WithVerboseLog(v bool) WorldOption {
	return func(s *worldSettings) { s.verbose = v }
}

// ConfigOptions translates loaded configuration into world options. The
// seed is left to the caller so batch runs can vary it.
func ConfigOptions(cfg *config.Config, log zerolog.Logger) ([]WorldOption, error) {
	cat := equipment.Default()
	if cfg.Equipment.File != "" {
		var err error
		if cat, err = equipment.Load(cfg.Equipment.File); err != nil {
			return nil, err
		}
	}
	return []WorldOption{
		WithLogger(log),
		WithCatalog(cat),
		WithDT(cfg.Sim.DT),
		WithFlowCellSize(cfg.Sim.FlowCellSize),
		WithAIIntervals(cfg.AI.HeatmapInterval.Seconds(), cfg.AI.JobsInterval.Seconds()),
		WithJobAdmission(cfg.AI.JobAdmission),
	}, nil
}

// NewWorld builds an empty world over terrain. It fails only when the job
// admission rule does not compile.
func NewWorld(terrain TerrainQuery, width, height float64, opts ...WorldOption) (*World, error) {
	s := worldSettings{
		log:          zerolog.Nop(),
		dt:           defaultDT,
		flowCell:     defaultFlowCell,
		heatInterval: defaultHeatInterval,
		jobsInterval: defaultJobsInterval,
	}
	for _, o := range opts {
		o(&s)
	}
	if s.rng == nil {
		s.rng = NewRNG(1)
	}
	if s.catalog == nil {
		s.catalog = equipment.Default()
	}
	jobs, err := NewAIJobsManager(s.jobRule, s.jobsInterval)
	if err != nil {
		return nil, err
	}
	return &World{
		Width:       width,
		Height:      height,
		Terrain:     terrain,
		Reg:         NewRegistry(),
		Effects:     s.effects,
		Catalog:     s.catalog,
		Heatmap:     NewHeatmap(width, height, s.heatInterval),
		Jobs:        jobs,
		Groups:      NewAIGroupManager(),
		Coordinator: s.coordinator,
		SimLog:      NewSimLog(s.verbose, s.log),
		log:         s.log,
		rng:         s.rng,
		dt:          s.dt,
		flowCell:    s.flowCell,
	}, nil
}

// DT returns the fixed step in seconds.
func (w *World) DT() float64 { return w.dt }

// Stats returns the running counters.
func (w *World) Stats() SimStats { return w.stats }

// Shells returns the shells in flight.
func (w *World) Shells() []*Shell { return w.shells }

// Step advances the world by one fixed tick. Units update in id order and
// read each other's live positions, so later units see earlier moves.
func (w *World) Step() {
	dt := w.dt
	w.Tick++
	w.Time += dt
	w.Effects.update(dt)

	env := &steerEnv{
		terrain: w.Terrain,
		others:  w.movers(),
		fires:   w.Effects.fires(),
		dt:      dt,
	}
	for _, u := range w.Reg.Units() {
		u.update(w, env, dt)
	}
	for _, c := range w.Reg.Cannons() {
		c.update(w, env, dt)
	}
	w.updateShells(dt)
	w.updateObjectives(dt)
	w.removeDead()

	w.Heatmap.Update(w, dt)
	if w.Jobs.Update(w, dt) && w.Coordinator != nil {
		w.Coordinator.Dispatch(w)
	}
	w.Groups.Refresh(w)
}

// Run advances n ticks.
func (w *World) Run(n int) {
	for i := 0; i < n; i++ {
		w.Step()
	}
}

// movers lists the live steering bodies in id order: units, then cannons.
func (w *World) movers() []*Mover {
	var out []*Mover
	for _, u := range w.Reg.Units() {
		if !u.dying {
			out = append(out, &u.mover)
		}
	}
	for _, c := range w.Reg.Cannons() {
		if !c.destroyed {
			out = append(out, &c.mover)
		}
	}
	return out
}

// flowTo computes a fresh flow field toward p. nil means callers fall back
// to straight-line movement.
func (w *World) flowTo(p Vec) *FlowField {
	return ComputeFlowField(w.Terrain, w.Width, w.Height, w.flowCell, p.X, p.Y)
}

// applyDamage routes every kind of damage through the target's TakeDamage
// and handles the death that may follow.
func (w *World) applyDamage(target Ref, amount float64, kind DamageKind, attacker Ref) {
	switch target.Kind {
	case RefUnit:
		u := w.Reg.Unit(target.ID)
		if u == nil {
			return
		}
		if _, killed := u.TakeDamage(amount, kind); killed {
			w.onUnitDeath(u, kind, attacker)
		}
	case RefCannon:
		c := w.Reg.Cannon(target.ID)
		if c == nil {
			return
		}
		if _, killed := c.TakeDamage(amount); killed {
			w.creditKill(attacker)
			w.destroyCannon(c, kind.String())
		}
	}
}

func (w *World) creditKill(attacker Ref) {
	if attacker.Kind != RefUnit {
		return
	}
	if k := w.Reg.Unit(attacker.ID); k != nil {
		k.Kills++
		w.Groups.creditKill(k)
	}
}

// onUnitDeath unlinks crew and group on both sides and shakes nearby allies.
func (w *World) onUnitDeath(u *Unit, kind DamageKind, attacker Ref) {
	w.logUnit(u, "combat", "death", kind.String(), 0)
	w.creditKill(attacker)
	switch u.Faction {
	case FactionBlue:
		w.stats.BlueLost++
	case FactionRed:
		w.stats.RedLost++
	}
	if u.CrewOf != 0 {
		w.releaseCrew(u, "death")
	}
	if u.GroupID != 0 {
		w.Groups.removeMember(u, true)
	}
	w.Effects.sound(u.Pos().X, u.Pos().Y, unitDeathLoudness)
	for _, o := range w.Reg.Units() {
		if o != u && o.Alive() && o.Faction == u.Faction && o.Pos().DistTo(u.Pos()) <= allyDeathRadius {
			o.addDistress(distressAllyDeath)
		}
	}
}

// destroyCannon marks the cannon destroyed and frees its crew.
func (w *World) destroyCannon(c *Cannon, reason string) {
	if c.Health > 0 {
		c.Health = 0
	}
	c.destroyed = true
	w.stats.CannonsLost++
	w.dissolveCrew(c, "destroyed")
	w.logCannon(c, "cannon", "destroyed", reason, 0)
}

// removeDead drops units whose death countdown ran out and destroyed
// cannons along with their objectives.
func (w *World) removeDead() {
	for _, u := range w.Reg.Units() {
		if u.dying && u.deathTimer <= 0 {
			w.Reg.removeUnit(u.ID)
		}
	}
	for _, c := range w.Reg.Cannons() {
		if !c.destroyed {
			continue
		}
		w.Reg.removeObjective(c.Objective)
		w.Reg.removeCannon(c.ID)
		if w.selected == c.ID {
			w.selected = 0
		}
	}
}

// assignCrew binds u to c. Both sides are updated together.
func (w *World) assignCrew(c *Cannon, u *Unit) bool {
	if len(c.Crew) >= maxCrew || u.CrewOf != 0 || !u.Alive() || u.Faction != c.Faction {
		return false
	}
	if u.GroupID != 0 {
		w.Groups.removeMember(u, false)
	}
	u.CrewOf = c.ID
	u.retreating = false
	u.combat.clearTargets()
	u.setStance(StanceNone)
	u.mover.ClearTarget()
	c.Crew = append(c.Crew, u.ID)
	w.logCannon(c, "cannon", "crew_join", u.label(), float64(len(c.Crew)))
	return true
}

// releaseCrew unbinds u from its cannon.
func (w *World) releaseCrew(u *Unit, reason string) {
	c := w.Reg.Cannon(u.CrewOf)
	u.CrewOf = 0
	u.mover.ClearTarget()
	if c == nil {
		return
	}
	c.removeCrewID(u.ID)
	w.logCannon(c, "cannon", "crew_leave", u.label()+" "+reason, float64(len(c.Crew)))
}

// dissolveCrew releases every crew member of c.
func (w *World) dissolveCrew(c *Cannon, reason string) {
	for _, id := range append([]int(nil), c.Crew...) {
		if u := w.Reg.Unit(id); u != nil {
			w.releaseCrew(u, reason)
		} else {
			c.removeCrewID(id)
		}
	}
}

// recruitCrew fills empty crew slots with a random pick of eligible units
// inside the cannon's objective radius.
func (w *World) recruitCrew(c *Cannon) {
	open := maxCrew - len(c.Crew)
	if open <= 0 {
		return
	}
	radius := cannonObjectiveRadius
	if o := w.Reg.Objective(c.Objective); o != nil {
		radius = o.Radius
	}
	var eligible []int
	for _, u := range w.Reg.Units() {
		if u.Alive() && u.Faction == c.Faction && u.CrewOf == 0 && !u.panicking && u.Pos().DistTo(c.Pos()) <= radius {
			eligible = append(eligible, u.ID)
		}
	}
	shuffleInts(w.rng, eligible)
	for _, id := range eligible {
		if open == 0 {
			break
		}
		if w.assignCrew(c, w.Reg.Unit(id)) {
			open--
		}
	}
}

// alliesInCorridor counts same-faction bodies near the line of fire, from
// the muzzle to the aim point.
func (w *World) alliesInCorridor(c *Cannon, aim Vec) int {
	dir := aim.Sub(c.Pos()).Norm()
	start := c.Pos().Add(dir.Scale(c.Radius()))
	n := 0
	for _, u := range w.Reg.Units() {
		if u.Alive() && u.Faction == c.Faction && !c.hasCrew(u.ID) &&
			pointToSegmentDist(u.Pos(), start, aim) <= ffCorridorHalf+u.Radius() {
			n++
		}
	}
	for _, o := range w.Reg.Cannons() {
		if o != c && o.Alive() && o.Faction == c.Faction &&
			pointToSegmentDist(o.Pos(), start, aim) <= ffCorridorHalf+o.Radius() {
			n++
		}
	}
	return n
}

// launchShell puts a shell in flight toward aim.
func (w *World) launchShell(c *Cannon, aim Vec) {
	w.shells = append(w.shells, &Shell{
		From:     c.Pos(),
		Pos:      c.Pos(),
		To:       aim,
		Radius:   c.Params.ExplosionRadius,
		Damage:   c.Params.Damage,
		Faction:  c.Faction,
		CannonID: c.ID,
	})
	w.Effects.shell(c.Pos(), aim)
}

func (w *World) updateShells(dt float64) {
	kept := w.shells[:0]
	for _, s := range w.shells {
		step := shellSpeed * dt
		if s.Pos.DistTo(s.To) <= step {
			w.detonate(s.To, s.Radius, s.Damage, CannonRef(s.CannonID))
			continue
		}
		s.Pos = s.Pos.Add(s.To.Sub(s.Pos).Norm().Scale(step))
		kept = append(kept, s)
	}
	w.shells = kept
}

// detonate applies a blast: linear damage falloff and knockback inside the
// radius, distress out to twice the radius and the shockwave debuff out to
// three times.
func (w *World) detonate(at Vec, radius, damage float64, source Ref) {
	w.Effects.explosion(at.X, at.Y, radius)
	w.Effects.sound(at.X, at.Y, 4)
	for _, u := range w.Reg.Units() {
		if !u.Alive() {
			continue
		}
		d := u.Pos().DistTo(at)
		if d <= radius*blastShockwaveRange {
			u.addShockwave()
		}
		if d <= radius*blastDistressRange {
			u.addDistress(distressExplosion)
		}
		if d > radius {
			continue
		}
		falloff := 1 - d/radius
		away := u.Pos().Sub(at).Norm()
		u.applyKnockback(away.Scale(blastKnockback * falloff))
		w.applyDamage(UnitRef(u.ID), damage*falloff, DamageExplosion, w.killerOf(source))
	}
	for _, c := range w.Reg.Cannons() {
		if !c.Alive() {
			continue
		}
		if d := c.Pos().DistTo(at); d <= radius {
			w.applyDamage(CannonRef(c.ID), damage*(1-d/radius), DamageExplosion, NoRef)
		}
	}
}

// killerOf maps a blast source to the unit credited with kills: the first
// crew member of the firing cannon.
func (w *World) killerOf(source Ref) Ref {
	if source.Kind != RefCannon {
		return source
	}
	if c := w.Reg.Cannon(source.ID); c != nil && len(c.Crew) > 0 {
		return UnitRef(c.Crew[0])
	}
	return NoRef
}

// Detonate triggers an external blast, e.g. a scripted mine.
func (w *World) Detonate(x, y, radius, damage float64) {
	w.detonate(Vec{x, y}, radius, damage, NoRef)
}

func (w *World) logUnit(u *Unit, category, key, value string, num float64) {
	w.SimLog.Add(w.Tick, u.label(), u.Faction.String(), category, key, value, num)
}

func (w *World) logCannon(c *Cannon, category, key, value string, num float64) {
	w.SimLog.Add(w.Tick, c.label(), c.Faction.String(), category, key, value, num)
}

func (w *World) logObjective(o *CaptureObjective, key, value string, num float64) {
	w.SimLog.Add(w.Tick, o.label(), o.Faction.String(), "capture", key, value, num)
}

func (w *World) logGlobal(category, key, value string, num float64) {
	w.SimLog.Add(w.Tick, "--", "--", category, key, value, num)
}

// Counts returns live unit totals per faction.
func (w *World) Counts() (blue, red int) {
	for _, u := range w.Reg.Units() {
		if !u.Alive() {
			continue
		}
		switch u.Faction {
		case FactionBlue:
			blue++
		case FactionRed:
			red++
		}
	}
	return blue, red
}

// String summarises the world for debugging.
func (w *World) String() string {
	blue, red := w.Counts()
	return fmt.Sprintf("T=%d t=%.1fs blue=%d red=%d cannons=%d shells=%d",
		w.Tick, w.Time, blue, red, len(w.Reg.Cannons()), len(w.shells))
}

// nearestFriendlyObjective returns the closest objective owned by f.
func (w *World) nearestFriendlyObjective(f Faction, p Vec) (Vec, bool) {
	best := math.Inf(1)
	var at Vec
	for _, o := range w.Reg.Objectives() {
		if o.Faction != f {
			continue
		}
		if d := p.DistTo(o.Pos); d < best {
			best, at = d, o.Pos
		}
	}
	return at, !math.IsInf(best, 1)
}
