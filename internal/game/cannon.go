package game

import (
	"fmt"
	"math"
	"strings"
)

// CannonType selects one row of the artillery parameter table.
type CannonType uint8

const (
	CannonLight CannonType = iota
	CannonHeavy
	CannonMortar
)

func (t CannonType) String() string {
	switch t {
	case CannonHeavy:
		return "heavy"
	case CannonMortar:
		return "mortar"
	default:
		return "light"
	}
}

// ParseCannonType maps a type name to a CannonType. Unknown names read as light.
func ParseCannonType(name string) CannonType {
	switch strings.ToLower(name) {
	case "heavy":
		return CannonHeavy
	case "mortar":
		return CannonMortar
	default:
		return CannonLight
	}
}

// CannonParams is the fixed parameter bundle of a cannon type.
type CannonParams struct {
	Range            float64
	MinRange         float64
	ReloadBase       float64 // s with a full crew
	ExplosionRadius  float64
	SpeedDivisor     float64
	Knockback        float64 // px pushed back per shot
	Accuracy         float64 // multiplier on the base cone
	Damage           float64
	SkipFriendlyFire bool // arcing fire passes over allies
}

var cannonTable = map[CannonType]CannonParams{
	CannonLight:  {Range: 650, MinRange: 60, ReloadBase: 4, ExplosionRadius: 40, SpeedDivisor: 2, Knockback: 8, Accuracy: 1.0, Damage: 55},
	CannonHeavy:  {Range: 900, MinRange: 120, ReloadBase: 7, ExplosionRadius: 70, SpeedDivisor: 4, Knockback: 16, Accuracy: 1.3, Damage: 95},
	CannonMortar: {Range: 1100, MinRange: 250, ReloadBase: 6, ExplosionRadius: 55, SpeedDivisor: 3, Knockback: 3, Accuracy: 1.8, Damage: 75, SkipFriendlyFire: true},
}

// ParamsFor returns the parameter bundle of a cannon type.
func ParamsFor(t CannonType) CannonParams { return cannonTable[t] }

const (
	cannonRadius      = 14.0
	cannonHealth      = 300.0
	maxCrew           = 5
	crewSpeedPerHand  = 40.0
	crewMissingFactor = 0.5
	cannonBaseCone    = 0.03
	cannonTurnRate    = 0.6 // rad/s, crewed and stationary only

	shotDelayMin   = 1.0
	shotDelayMax   = 2.0
	ffCooldown     = 1.5
	ffCorridorHalf = 15.0
	recruitEvery   = 1.0

	cannonObjectiveRadius = 90.0
	cannonObjectiveAmount = 1
	cannonObjectiveTime   = 6.0
	crewSlotGap           = 4.0
)

// CannonState is the firing protocol state.
type CannonState uint8

const (
	CannonIdle CannonState = iota
	CannonTargetLocked
	CannonShotDelay
	CannonReloading
)

func (s CannonState) String() string {
	switch s {
	case CannonTargetLocked:
		return "target-locked"
	case CannonShotDelay:
		return "shot-delay"
	case CannonReloading:
		return "reloading"
	default:
		return "idle"
	}
}

// Cannon is crew-served artillery. It has no legs of its own: crew move it
// and speed up its reload, and its bound CaptureObjective decides who owns it.
type Cannon struct {
	ID        int
	Type      CannonType
	Params    CannonParams
	Faction   Faction
	Health    float64
	MaxHealth float64

	// Crew holds unit ids in join order. Each crew unit's CrewOf points back.
	Crew      []int
	Objective int

	State          CannonState
	Loaded         bool
	Reloading      bool
	ReloadTimer    float64
	ReloadDuration float64

	mover  Mover
	combat CombatModel

	shotDelay    float64
	FFCooldown   float64
	recruitTimer float64
	destroyed    bool
}

func newCannon(id int, t CannonType, f Faction, pos Vec, heading float64) *Cannon {
	p := cannonTable[t]
	c := &Cannon{
		ID:        id,
		Type:      t,
		Params:    p,
		Faction:   f,
		Health:    cannonHealth,
		MaxHealth: cannonHealth,
		Reloading: true,
	}
	c.mover = Mover{
		Owner:     CannonRef(id),
		Pos:       pos,
		Heading:   heading,
		Radius:    cannonRadius,
		Smoothing: cannonSmoothing,
		Immovable: true,
	}
	c.combat = CombatModel{
		Range:    p.Range,
		MinRange: p.MinRange,
		HalfFOV:  cannonHalfFOV,
		Stance:   StanceDefensive,
	}
	c.ReloadDuration = c.reloadDuration()
	return c
}

// Alive is false once the cannon is destroyed.
func (c *Cannon) Alive() bool { return !c.destroyed && c.Health > 0 }

// Pos returns the cannon's position.
func (c *Cannon) Pos() Vec { return c.mover.Pos }

// Heading returns the barrel direction.
func (c *Cannon) Heading() float64 { return c.mover.Heading }

// Radius returns the body radius.
func (c *Cannon) Radius() float64 { return c.mover.Radius }

// LockedTarget returns the cannon's target.
func (c *Cannon) LockedTarget() Ref { return c.combat.Locked }

// Moving reports whether crew are hauling the cannon.
func (c *Cannon) Moving() bool { return c.mover.Moving() && len(c.Crew) > 0 }

// MoveTarget returns the movement goal.
func (c *Cannon) MoveTarget() (Vec, bool) { return c.mover.Target() }

func (c *Cannon) label() string { return fmt.Sprintf("C%d", c.ID) }

// TakeDamage applies damage to the cannon. killed is true on the blow that
// destroys it.
func (c *Cannon) TakeDamage(amount float64) (dealt float64, killed bool) {
	if c.destroyed || amount <= 0 {
		return 0, false
	}
	dealt = math.Min(amount, c.Health)
	c.Health -= dealt
	if c.Health <= 0 {
		c.Health = 0
		c.destroyed = true
		return dealt, true
	}
	return dealt, false
}

// reloadDuration scales the base time by missing crew. No crew freezes the
// reload at +Inf.
func (c *Cannon) reloadDuration() float64 {
	n := len(c.Crew)
	if n == 0 {
		return math.Inf(1)
	}
	missing := maxCrew - n
	return c.Params.ReloadBase * (1 + float64(missing)*crewMissingFactor)
}

// crewSlot is the world position of a crew member's station: a row of
// slots behind the barrel.
func (c *Cannon) crewSlot(unitID int) Vec {
	idx := 0
	for i, id := range c.Crew {
		if id == unitID {
			idx = i
			break
		}
	}
	back := fromAngle(c.mover.Heading+math.Pi, 1)
	side := back.Perp()
	gap := 2*unitBaseRadius + crewSlotGap
	behind := c.mover.Radius + unitBaseRadius + crewSlotGap
	offset := (float64(idx) - float64(maxCrew-1)/2) * gap
	return c.mover.Pos.Add(back.Scale(behind)).Add(side.Scale(offset))
}

// hasCrew reports whether unitID is in the crew list.
func (c *Cannon) hasCrew(unitID int) bool {
	for _, id := range c.Crew {
		if id == unitID {
			return true
		}
	}
	return false
}

func (c *Cannon) removeCrewID(unitID int) {
	for i, id := range c.Crew {
		if id == unitID {
			c.Crew = append(c.Crew[:i], c.Crew[i+1:]...)
			return
		}
	}
}

// update runs one tick: recruitment, reload, movement, targeting, then the
// firing protocol.
func (c *Cannon) update(w *World, env *steerEnv, dt float64) {
	if c.destroyed {
		return
	}
	c.recruitTimer -= dt
	if c.recruitTimer <= 0 {
		c.recruitTimer = recruitEvery
		w.recruitCrew(c)
	}

	c.updateReload(w, dt)

	crew := len(c.Crew)
	c.mover.Speed = crewSpeedPerHand * float64(crew) / c.Params.SpeedDivisor
	if crew == 0 {
		c.mover.ClearTarget()
		c.mover.Vel = Vec{}
	} else {
		res := c.mover.step(env)
		if res.abandoned {
			w.logCannon(c, "move", "abandoned", "move order abandoned", stuckAbandonTicks)
		}
		c.mover.updateHeading(false, 0)
	}

	c.combat.decay(dt)
	c.FFCooldown = math.Max(0, c.FFCooldown-dt)
	c.combat.acquire(w, c.Faction, c.Pos(), c.Heading(), c.Moving(), dt)
	ti, ok := w.Reg.Resolve(c.combat.Locked)
	if ok && crew > 0 && !c.Moving() {
		bearing := HeadingTo(c.Pos().X, c.Pos().Y, ti.Pos.X, ti.Pos.Y)
		c.mover.Heading = turnToward(c.mover.Heading, bearing, cannonTurnRate*dt)
	}

	c.stepProtocol(w, ti, ok, dt)
	if o := w.Reg.Objective(c.Objective); o != nil {
		o.Pos = c.Pos()
	}
}

// updateReload progresses the reload. Without crew the duration is +Inf and
// the timer is held at 0, so the reload starts over from 0 on the tick crew
// return.
func (c *Cannon) updateReload(w *World, dt float64) {
	if c.Loaded || !c.Reloading {
		return
	}
	c.ReloadDuration = c.reloadDuration()
	if len(c.Crew) == 0 {
		c.ReloadTimer = 0
		return
	}
	c.ReloadTimer += dt
	if c.ReloadTimer >= c.ReloadDuration {
		c.Loaded = true
		c.Reloading = false
		c.ReloadTimer = 0
		w.logCannon(c, "cannon", "reload_done", fmt.Sprintf("crew %d", len(c.Crew)), c.ReloadDuration)
	}
}

// canEngage checks every firing precondition except the friendly-fire check.
func (c *Cannon) canEngage(w *World, ti targetInfo) bool {
	if !c.Loaded || c.Reloading || c.Moving() {
		return false
	}
	return c.combat.inFOV(w.Terrain, c.Pos(), c.Heading(), ti)
}

// stepProtocol drives idle -> locked -> shot delay -> fire -> reloading.
// Losing the target cancels a pending shot on whatever tick it happens.
func (c *Cannon) stepProtocol(w *World, ti targetInfo, ok bool, dt float64) {
	switch c.State {
	case CannonIdle:
		if c.Loaded && ok {
			c.State = CannonTargetLocked
		} else if !c.Loaded {
			c.State = CannonReloading
		}
	case CannonTargetLocked:
		if !ok {
			c.State = CannonIdle
			return
		}
		if c.FFCooldown <= 0 && c.canEngage(w, ti) {
			c.State = CannonShotDelay
			c.shotDelay = rngRange(w.rng, shotDelayMin, shotDelayMax)
			w.logCannon(c, "cannon", "shot_delay", fmt.Sprintf("%.2fs on %s", c.shotDelay, refLabel(ti.Ref)), c.shotDelay)
		}
	case CannonShotDelay:
		if !ok || !c.canEngage(w, ti) {
			c.shotDelay = 0
			c.State = CannonIdle
			return
		}
		c.shotDelay -= dt
		if c.shotDelay > 0 {
			return
		}
		c.shotDelay = 0
		if !c.Params.SkipFriendlyFire {
			if n := w.alliesInCorridor(c, ti.Pos); n > 0 {
				c.FFCooldown = ffCooldown
				c.State = CannonTargetLocked
				w.stats.FFAborts++
				w.logCannon(c, "cannon", "ff_abort", fmt.Sprintf("%d ally in corridor", n), float64(n))
				return
			}
		}
		c.fire(w, ti)
	case CannonReloading:
		if c.Loaded {
			c.State = CannonIdle
		}
	}
}

// fire launches a shell, kicks the cannon back and starts the reload.
func (c *Cannon) fire(w *World, ti targetInfo) {
	dist := c.Pos().DistTo(ti.Pos)
	cone := c.combat.shotCone(w, cannonBaseCone*c.Params.Accuracy, c.Pos(), ti.Pos)
	deflection := rngSigned(w.rng, cone)
	angle := HeadingTo(c.Pos().X, c.Pos().Y, ti.Pos.X, ti.Pos.Y) + deflection
	aim := c.Pos().Add(fromAngle(angle, dist))

	w.launchShell(c, aim)
	w.Effects.sound(c.Pos().X, c.Pos().Y, 3)
	w.stats.CannonShots++
	w.logCannon(c, "cannon", "fired", fmt.Sprintf("at %s d=%.0f", refLabel(ti.Ref), dist), dist)

	c.Loaded = false
	c.Reloading = true
	c.ReloadTimer = 0
	c.ReloadDuration = c.reloadDuration()
	c.State = CannonReloading

	c.recoil(w)
}

// recoil pushes the cannon back along its heading and drags the crew. A
// cannon knocked into water is lost.
func (c *Cannon) recoil(w *World) {
	kick := fromAngle(c.mover.Heading+math.Pi, c.Params.Knockback)
	next := c.mover.Pos.Add(kick)
	switch w.Terrain.TerrainAt(next.X, next.Y) {
	case TerrainWater:
		c.mover.Pos = next
		w.destroyCannon(c, "knocked into water")
		return
	case TerrainWall:
		return
	}
	c.mover.Pos = next
	for _, id := range c.Crew {
		u := w.Reg.Unit(id)
		if u == nil {
			continue
		}
		p := u.Pos().Add(kick)
		if !impassable(w.Terrain, p.X, p.Y) {
			u.mover.Pos = p
		}
	}
}
