package game

import (
	"fmt"
	"math"

	"github.com/Garsondee/frontline/internal/equipment"
)

const (
	unitBaseRadius   = 8.0
	mountedRadiusMul = 1.5
	leaderRadiusPad  = 2.0
	defaultHealth    = 100.0

	meleeHitChance = 0.6
	retreatArrive  = 20.0
	rotateRate     = 4.0 // rad/s when facing a target in place
)

// Unit is an autonomous combatant: steering body, combat model, equipment
// derived weapons and status effects.
type Unit struct {
	ID        int
	Faction   Faction
	Health    float64
	MaxHealth float64
	Leader    bool
	Loadout   equipment.Loadout
	Distress  float64

	// CrewOf is the cannon this unit serves, or 0. GroupID is the AI group,
	// or 0. The two are exclusive.
	CrewOf  int
	GroupID int
	Kills   int

	mover  Mover
	combat CombatModel

	ranged *equipment.RangedStats
	melee  *equipment.MeleeStats

	magazine       int
	shotCooldown   float64
	reloading      bool
	reloadTimer    float64
	reloadDuration float64
	burstLeft      int
	burstTimer     float64
	meleeCooldown  float64

	chargeStacks    []float64
	chargeCooldowns map[int]float64 // victim id -> seconds
	knockback       Vec

	panicking  bool
	retreating bool
	dying      bool
	deathTimer float64
	spawn      Vec
}

// newUnit builds a unit from a resolved loadout.
func newUnit(id int, f Faction, pos Vec, heading float64, lo equipment.Loadout, leader bool) *Unit {
	u := &Unit{
		ID:              id,
		Faction:         f,
		Health:          defaultHealth,
		MaxHealth:       defaultHealth,
		Leader:          leader,
		Loadout:         lo,
		chargeCooldowns: make(map[int]float64),
		spawn:           pos,
	}
	u.mover = Mover{
		Owner:     UnitRef(id),
		Pos:       pos,
		Heading:   heading,
		Smoothing: unitSmoothing,
	}
	u.combat = CombatModel{HalfFOV: unitHalfFOV}
	if lo.Ranged != nil {
		if rs, ok := equipment.Ranged(*lo.Ranged); ok {
			u.ranged = &rs
			u.magazine = rs.Magazine
			u.combat.Range = rs.Range
			u.combat.MinRange = rs.MinRange
		}
	}
	if lo.Melee != nil {
		if ms, ok := equipment.Melee(*lo.Melee); ok {
			u.melee = &ms
			if u.ranged == nil {
				u.combat.Range = ms.Range + 4*unitBaseRadius
			}
		}
	}
	u.mover.Radius = u.Radius()
	u.mover.Speed = u.Speed()
	return u
}

// Alive is false once the unit is dying or out of health.
func (u *Unit) Alive() bool { return !u.dying && u.Health > 0 }

// Dying reports whether the death countdown is running.
func (u *Unit) Dying() bool { return u.dying }

// Pos returns the unit's position.
func (u *Unit) Pos() Vec { return u.mover.Pos }

// Vel returns the unit's velocity.
func (u *Unit) Vel() Vec { return u.mover.Vel }

// Heading returns the facing angle in radians.
func (u *Unit) Heading() float64 { return u.mover.Heading }

// Radius is derived from mount and leader flags only.
func (u *Unit) Radius() float64 {
	r := unitBaseRadius
	if u.Loadout.Mounted() {
		r *= mountedRadiusMul
	}
	if u.Leader {
		r += leaderRadiusPad
	}
	return r
}

// Speed is the loadout speed slowed by each active charge stack.
func (u *Unit) Speed() float64 {
	return u.Loadout.BaseSpeed() * math.Pow(chargeSlowdown, float64(len(u.chargeStacks)))
}

// Stance returns the combat stance.
func (u *Unit) Stance() Stance { return u.combat.Stance }

// LockedTarget returns the current target reference.
func (u *Unit) LockedTarget() Ref { return u.combat.Locked }

// ManualTarget returns the player-assigned target, if any.
func (u *Unit) ManualTarget() Ref { return u.combat.Manual }

// Panicking reports whether the unit is fleeing.
func (u *Unit) Panicking() bool { return u.panicking }

// Retreating reports whether the unit is falling back under orders.
func (u *Unit) Retreating() bool { return u.retreating }

// Magazine returns rounds left before a reload.
func (u *Unit) Magazine() int { return u.magazine }

// Reloading reports whether a reload cycle is running.
func (u *Unit) Reloading() bool { return u.reloading }

// Engage and Shockwave expose the cone modifiers.
func (u *Unit) Engage() float64    { return u.combat.Engage }
func (u *Unit) Shockwave() float64 { return u.combat.Shockwave }

// MoveTarget returns the current movement goal.
func (u *Unit) MoveTarget() (Vec, bool) { return u.mover.Target() }

// Ranged and Melee return the derived weapon stats, or nil.
func (u *Unit) Ranged() *equipment.RangedStats { return u.ranged }
func (u *Unit) Melee() *equipment.MeleeStats   { return u.melee }

// DPS estimates sustained damage per second for AI scoring.
func (u *Unit) DPS() float64 {
	best := 0.0
	if u.ranged != nil && u.ranged.ShotInterval > 0 {
		best = u.ranged.Damage * float64(u.ranged.Rounds) / u.ranged.ShotInterval
	}
	if u.melee != nil && u.melee.Cooldown > 0 {
		best = math.Max(best, u.melee.Damage*meleeHitChance/u.melee.Cooldown)
	}
	return best
}

// label is the actor label used in the sim log.
func (u *Unit) label() string { return fmt.Sprintf("U%d", u.ID) }

// setStance changes stance; crew are always forced to none.
func (u *Unit) setStance(s Stance) {
	if u.CrewOf != 0 {
		s = StanceNone
	}
	u.combat.Stance = s
}

// update runs one tick for a live or dying unit. Order: panic, status and
// knockback, movement, targeting and heading, then combat.
func (u *Unit) update(w *World, env *steerEnv, dt float64) {
	if u.dying {
		u.deathTimer -= dt
		return
	}

	// Panic reads distress before this tick's decay so a unit pinned at
	// the cap still breaks.
	u.updatePanic(w)
	u.tickStatus(dt)
	u.mover.Radius = u.Radius()
	u.mover.Speed = u.Speed()
	u.applyKnockbackStep(w.Terrain, dt)

	if u.CrewOf != 0 {
		u.followCrewSlot(w)
	}

	res := u.mover.step(env)
	if res.sidestep && u.mover.stuckTicks == stuckSidestepTicks+1 {
		w.logUnit(u, "move", "sidestep", "stuck, sidestepping", float64(u.mover.stuckTicks))
	}
	if res.abandoned {
		u.retreating = false
		w.logUnit(u, "move", "abandoned", "move order abandoned", stuckAbandonTicks)
	}
	if u.retreating {
		if goal, ok := u.mover.Target(); !ok || u.Pos().DistTo(goal) <= retreatArrive {
			u.retreating = false
		}
	}

	u.standInFires(w, env.fires, dt)
	if u.dying {
		return
	}

	if u.panicking {
		u.mover.updateHeading(false, 0)
		return
	}

	rotate := u.combat.acquire(w, u.Faction, u.Pos(), u.Heading(), u.mover.Moving(), dt)
	bearing := u.Heading()
	if ti, ok := w.Reg.Resolve(u.combat.Locked); ok {
		bearing = HeadingTo(u.Pos().X, u.Pos().Y, ti.Pos.X, ti.Pos.Y)
	} else {
		rotate = false
	}
	u.mover.updateHeading(rotate, bearing)

	u.updateCombat(w, dt)
}

// updateCombat advances reload and cooldowns, then fires or strikes at the
// locked target when able.
func (u *Unit) updateCombat(w *World, dt float64) {
	u.shotCooldown = math.Max(0, u.shotCooldown-dt)
	u.meleeCooldown = math.Max(0, u.meleeCooldown-dt)

	if u.reloading {
		u.reloadTimer += dt
		if u.reloadTimer >= u.reloadDuration {
			u.reloading = false
			u.reloadTimer = 0
			u.magazine = u.ranged.Magazine
		}
	}

	ti, ok := w.Reg.Resolve(u.combat.Locked)
	if !ok {
		u.burstLeft = 0
		return
	}
	dist := u.Pos().DistTo(ti.Pos)

	if u.burstLeft > 0 {
		u.burstTimer -= dt
		if u.burstTimer <= 0 {
			u.fireRound(w, ti, dist)
			u.burstLeft--
			u.burstTimer = u.ranged.RoundGap
		}
		return
	}

	if u.melee != nil && dist <= u.melee.Range+u.Radius()+ti.Radius {
		u.strike(w, ti)
		return
	}

	if u.ranged == nil || u.reloading || u.magazine <= 0 || u.shotCooldown > 0 {
		return
	}
	if dist < u.combat.MinRange || dist > u.combat.Range {
		return
	}
	if !u.combat.inFOV(w.Terrain, u.Pos(), u.Heading(), ti) {
		return
	}
	u.pullTrigger(w, ti, dist)
}

// pullTrigger fires one trigger pull: a single round, the first round of a
// burst, or a full scatter of pellets.
func (u *Unit) pullTrigger(w *World, ti targetInfo, dist float64) {
	rs := u.ranged
	u.magazine--
	u.shotCooldown = rs.ShotInterval
	w.Effects.sound(u.Pos().X, u.Pos().Y, 1)
	w.logUnit(u, "combat", "fire", fmt.Sprintf("%s at %s d=%.0f", rs.Name, refLabel(ti.Ref), dist), dist)

	switch rs.Mode {
	case equipment.FireBurst:
		u.fireRound(w, ti, dist)
		u.burstLeft = rs.Rounds - 1
		u.burstTimer = rs.RoundGap
	case equipment.FireScatter:
		for i := 0; i < rs.Rounds; i++ {
			u.fireRound(w, ti, dist)
		}
	default:
		u.fireRound(w, ti, dist)
	}

	if u.magazine <= 0 {
		u.reloading = true
		u.reloadTimer = 0
		u.reloadDuration = rs.ReloadDuration(u.Distress)
		w.logUnit(u, "combat", "reload_start", fmt.Sprintf("%.2fs", u.reloadDuration), u.reloadDuration)
	}
}

// fireRound resolves one projectile against the target.
func (u *Unit) fireRound(w *World, ti targetInfo, dist float64) {
	w.stats.ShotsFired++
	cone := u.combat.shotCone(w, u.ranged.Spread, u.Pos(), ti.Pos)
	_, hit := rollShot(w.rng, cone, dist, ti.Radius)
	if !hit {
		if t := w.Reg.Unit(ti.Ref.ID); ti.Ref.Kind == RefUnit && t != nil {
			t.addDistress(distressNearMiss)
		}
		return
	}
	w.stats.Hits++
	w.logUnit(u, "combat", "hit", refLabel(ti.Ref), u.ranged.Damage)
	w.applyDamage(ti.Ref, u.ranged.Damage, DamageGunfire, UnitRef(u.ID))
	if u.ranged.Incendiary {
		w.Effects.ignite(ti.Pos.X, ti.Pos.Y, incendiaryRadius)
	}
}

// strike resolves a melee attack on cooldown. Mounted attackers charging a
// mounted victim stack a speed debuff, once per victim per cooldown.
func (u *Unit) strike(w *World, ti targetInfo) {
	if u.meleeCooldown > 0 {
		return
	}
	u.meleeCooldown = u.melee.Cooldown
	if w.rng.Float64() >= meleeHitChance {
		return
	}
	w.logUnit(u, "combat", "melee_hit", refLabel(ti.Ref), u.melee.Damage)
	if ti.Ref.Kind == RefUnit {
		if v := w.Reg.Unit(ti.Ref.ID); v != nil && u.Loadout.Mounted() && v.Loadout.Mounted() {
			if _, cooling := u.chargeCooldowns[v.ID]; !cooling {
				v.addChargeStack()
				u.chargeCooldowns[v.ID] = chargeCooldown
			}
		}
	}
	w.applyDamage(ti.Ref, u.melee.Damage, DamageMelee, UnitRef(u.ID))
}

// followCrewSlot keeps a crew member on its slot behind the cannon.
func (u *Unit) followCrewSlot(w *World) {
	c := w.Reg.Cannon(u.CrewOf)
	if c == nil {
		return
	}
	slot := c.crewSlot(u.ID)
	if u.Pos().DistTo(slot) > arriveRadius {
		u.mover.SetTarget(slot, nil)
		// Crew keep pace with the gun they push.
		u.mover.Speed = math.Max(u.mover.Speed, c.mover.Speed*1.5)
	}
}

func refLabel(r Ref) string {
	switch r.Kind {
	case RefUnit:
		return fmt.Sprintf("U%d", r.ID)
	case RefCannon:
		return fmt.Sprintf("C%d", r.ID)
	default:
		return "--"
	}
}
