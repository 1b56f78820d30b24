package game

import (
	"fmt"
	"math"
)

const (
	maxDistress = 100.0

	distressNearMiss   = 2.0
	distressHit        = 8.0
	distressAllyDeath  = 10.0
	distressExplosion  = 15.0
	distressFirePerSec = 10.0
	distressDecay      = 3.0  // per second
	distressCaptured   = 30.0 // relief on a friendly capture
	allyDeathRadius    = 150.0

	panicEndDistress = 40.0
	panicRetreatDist = 250.0

	engageDecay     = 0.2
	shockwavePerHit = 0.6
	shockwaveDecay  = 0.3
	shockwaveMax    = 3.0

	chargeSlowdown  = 0.8
	chargeStackTime = 4.0
	chargeCooldown  = 5.0

	knockbackDamping = 0.85
	knockbackRest    = 0.5

	fireDamagePerSec = 6.0
	deathDelay       = 1.5
)

// DamageKind identifies where damage came from. Armor ignores fire.
type DamageKind uint8

const (
	DamageGunfire DamageKind = iota
	DamageMelee
	DamageExplosion
	DamageFire
)

func (k DamageKind) String() string {
	switch k {
	case DamageGunfire:
		return "gunfire"
	case DamageMelee:
		return "melee"
	case DamageExplosion:
		return "explosion"
	case DamageFire:
		return "fire"
	default:
		return "unknown"
	}
}

// TakeDamage is the single damage entry point for units. It applies armor,
// raises distress for physical hits and starts the death countdown when
// health runs out. killed is true only on the blow that kills.
func (u *Unit) TakeDamage(amount float64, kind DamageKind) (dealt float64, killed bool) {
	if u.dying || amount <= 0 {
		return 0, false
	}
	if kind != DamageFire {
		amount *= 1 - u.Loadout.Protection()
		u.addDistress(distressHit)
	}
	dealt = math.Min(amount, u.Health)
	u.Health -= dealt
	if u.Health <= 0 {
		u.Health = 0
		u.dying = true
		u.deathTimer = deathDelay
		u.mover.ClearTarget()
		u.mover.Vel = Vec{}
		u.combat.clearTargets()
		return dealt, true
	}
	return dealt, false
}

// addDistress changes distress within [0, 100].
func (u *Unit) addDistress(d float64) {
	u.Distress = clamp(u.Distress+d, 0, maxDistress)
}

// addShockwave stacks the blast debuff.
func (u *Unit) addShockwave() {
	u.combat.Shockwave = math.Min(shockwaveMax, u.combat.Shockwave+shockwavePerHit)
}

// applyKnockback adds an impulse that decays over following ticks.
func (u *Unit) applyKnockback(v Vec) {
	u.knockback = u.knockback.Add(v)
}

// addChargeStack slows the unit for chargeStackTime.
func (u *Unit) addChargeStack() {
	u.chargeStacks = append(u.chargeStacks, chargeStackTime)
}

// ChargeStacks returns the number of active charge debuffs.
func (u *Unit) ChargeStacks() int { return len(u.chargeStacks) }

// tickStatus ages timers, buffs and distress for one tick.
func (u *Unit) tickStatus(dt float64) {
	u.combat.decay(dt)
	u.addDistress(-distressDecay * dt)

	kept := u.chargeStacks[:0]
	for _, s := range u.chargeStacks {
		if s -= dt; s > 0 {
			kept = append(kept, s)
		}
	}
	u.chargeStacks = kept

	for id, left := range u.chargeCooldowns {
		if left -= dt; left <= 0 {
			delete(u.chargeCooldowns, id)
		} else {
			u.chargeCooldowns[id] = left
		}
	}
}

// applyKnockbackStep moves the unit by its impulse and damps it. Knockback
// resolves before steering each tick.
func (u *Unit) applyKnockbackStep(t TerrainQuery, dt float64) {
	if u.knockback.Len() < knockbackRest {
		u.knockback = Vec{}
		return
	}
	next := u.mover.Pos.Add(u.knockback.Scale(dt))
	if !bodyBlocked(t, next, u.knockback, u.Radius()) {
		u.mover.Pos = next
	}
	u.knockback = u.knockback.Scale(knockbackDamping)
}

// updatePanic starts and ends panic. A panicking unit drops its targets and
// runs directly away from the nearest enemy.
func (u *Unit) updatePanic(w *World) {
	if !u.panicking {
		if u.Distress < maxDistress {
			return
		}
		u.panicking = true
		u.combat.clearTargets()
		w.logUnit(u, "status", "panic_start", fmt.Sprintf("distress %.0f", u.Distress), u.Distress)
		if u.CrewOf != 0 {
			w.releaseCrew(u, "panic")
		}
		u.fleeFromNearestEnemy(w)
		return
	}
	if u.Distress <= panicEndDistress {
		u.panicking = false
		u.mover.ClearTarget()
		w.logUnit(u, "status", "panic_end", fmt.Sprintf("distress %.0f", u.Distress), u.Distress)
		return
	}
	if _, moving := u.mover.Target(); !moving {
		u.fleeFromNearestEnemy(w)
	}
}

func (u *Unit) fleeFromNearestEnemy(w *World) {
	enemy, ok := nearest(u.Pos(), w.Reg.enemiesOf(u.Faction))
	if !ok {
		return
	}
	away := u.Pos().Sub(enemy.Pos).Norm()
	if away.IsZero() {
		away = fromAngle(u.mover.Heading+math.Pi, 1)
	}
	goal := u.Pos().Add(away.Scale(panicRetreatDist))
	goal.X = clamp(goal.X, u.Radius(), w.Width-u.Radius())
	goal.Y = clamp(goal.Y, u.Radius(), w.Height-u.Radius())
	u.mover.SetTarget(goal, w.flowTo(goal))
}

// standInFires burns the unit for every fire it stands in.
func (u *Unit) standInFires(w *World, fires []Fire, dt float64) {
	for _, f := range fires {
		if u.Pos().DistTo(Vec{f.X, f.Y}) > f.Radius+u.Radius() {
			continue
		}
		u.addDistress(distressFirePerSec * dt)
		w.applyDamage(UnitRef(u.ID), fireDamagePerSec*dt, DamageFire, NoRef)
		if u.dying {
			return
		}
	}
}
