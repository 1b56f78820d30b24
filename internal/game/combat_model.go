package game

import (
	"math"
	"strings"
)

// Stance governs how a unit picks and faces combat targets.
type Stance uint8

const (
	StanceNone      Stance = iota // random visible enemy, re-rolled every few seconds
	StanceDefensive               // nearest visible enemy, heading never rotated
	StanceOffensive               // nearest visible enemy, always rotated toward
)

func (s Stance) String() string {
	switch s {
	case StanceDefensive:
		return "defensive"
	case StanceOffensive:
		return "offensive"
	default:
		return "none"
	}
}

// ParseStance maps a stance name to a Stance. Unknown names read as none.
func ParseStance(name string) Stance {
	switch strings.ToLower(name) {
	case "defensive":
		return StanceDefensive
	case "offensive":
		return StanceOffensive
	default:
		return StanceNone
	}
}

const (
	unitHalfFOV   = 60 * math.Pi / 180
	cannonHalfFOV = 30 * math.Pi / 180

	repickMin = 3.0
	repickMax = 5.0

	minShotCone = 0.005

	// Elevation shaping of the shot cone, per px of height difference.
	downhillEase    = 0.01
	downhillFloor   = 0.6
	uphillPenalty   = 0.015
	uphillCeiling   = 2.0
	smokePenalty    = 0.5
	engageNarrowing = 0.5
)

// CombatModel holds the targeting state shared by units and cannons: FOV
// gating, stance-driven acquisition, manual override and the shot cone
// modifiers.
type CombatModel struct {
	Range    float64
	MinRange float64
	HalfFOV  float64
	Stance   Stance

	Locked Ref
	Manual Ref

	repickTimer float64

	// Engage narrows the cone after a manual order; Shockwave widens it
	// after nearby blasts. Both decay over time.
	Engage    float64
	Shockwave float64
}

// inFOV checks range band, heading cone and clear sight.
func (cm *CombatModel) inFOV(t TerrainQuery, pos Vec, heading float64, ti targetInfo) bool {
	d := pos.DistTo(ti.Pos)
	if d > cm.Range || d < cm.MinRange {
		return false
	}
	bearing := HeadingTo(pos.X, pos.Y, ti.Pos.X, ti.Pos.Y)
	if math.Abs(normalizeAngle(bearing-heading)) > cm.HalfFOV {
		return false
	}
	return HasClearSight(t, pos.X, pos.Y, ti.Pos.X, ti.Pos.Y)
}

// candidates lists every visible enemy in id order.
func (cm *CombatModel) candidates(w *World, faction Faction, pos Vec, heading float64) []targetInfo {
	var out []targetInfo
	for _, ti := range w.Reg.enemiesOf(faction) {
		if cm.inFOV(w.Terrain, pos, heading, ti) {
			out = append(out, ti)
		}
	}
	return out
}

// nearest returns the closest candidate; ties go to the earlier id.
func nearest(pos Vec, cands []targetInfo) (targetInfo, bool) {
	best := -1
	bestD := math.Inf(1)
	for i, c := range cands {
		if d := pos.DistTo(c.Pos); d < bestD {
			best, bestD = i, d
		}
	}
	if best < 0 {
		return targetInfo{}, false
	}
	return cands[best], true
}

func containsRef(cands []targetInfo, r Ref) bool {
	for _, c := range cands {
		if c.Ref == r {
			return true
		}
	}
	return false
}

// acquire updates Locked following the manual override and then the stance.
// It returns whether the owner should rotate toward the locked target.
func (cm *CombatModel) acquire(w *World, faction Faction, pos Vec, heading float64, moving bool, dt float64) bool {
	if cm.Manual.Valid() {
		if ti, ok := w.Reg.Resolve(cm.Manual); ok && cm.inFOV(w.Terrain, pos, heading, ti) {
			cm.Locked = cm.Manual
			return true
		}
		cm.Manual = NoRef
	}

	cands := cm.candidates(w, faction, pos, heading)
	switch cm.Stance {
	case StanceDefensive:
		cm.lockNearest(pos, cands)
		return false
	case StanceOffensive:
		cm.lockNearest(pos, cands)
		return cm.Locked.Valid()
	default:
		cm.repickTimer -= dt
		if len(cands) == 0 {
			cm.Locked = NoRef
			return false
		}
		if cm.repickTimer <= 0 || !containsRef(cands, cm.Locked) {
			cm.Locked = cands[w.rng.Intn(len(cands))].Ref
			cm.repickTimer = rngRange(w.rng, repickMin, repickMax)
		}
		return !moving
	}
}

func (cm *CombatModel) lockNearest(pos Vec, cands []targetInfo) {
	if ti, ok := nearest(pos, cands); ok {
		cm.Locked = ti.Ref
		return
	}
	cm.Locked = NoRef
}

// clearTargets drops both the lock and any manual order.
func (cm *CombatModel) clearTargets() {
	cm.Locked = NoRef
	cm.Manual = NoRef
	cm.repickTimer = 0
}

// decay ages the engage buff and shockwave debuff.
func (cm *CombatModel) decay(dt float64) {
	cm.Engage = math.Max(0, cm.Engage-engageDecay*dt)
	cm.Shockwave = math.Max(0, cm.Shockwave-shockwaveDecay*dt)
}

// elevationFactor scales the cone by height difference: shooting downhill
// tightens it, uphill widens it.
func elevationFactor(shooterH, targetH float64) float64 {
	diff := shooterH - targetH
	if diff >= 0 {
		return math.Max(downhillFloor, 1-diff*downhillEase)
	}
	return math.Min(uphillCeiling, 1-diff*uphillPenalty)
}

// shotCone is the cone half-angle for a shot from a to b.
func (cm *CombatModel) shotCone(w *World, base float64, a, b Vec) float64 {
	cone := base
	cone *= elevationFactor(w.Terrain.HeightAt(a.X, a.Y), w.Terrain.HeightAt(b.X, b.Y))
	cone *= 1 + smokePenalty*float64(smokeBetween(w.Effects.smoke(), a, b))
	cone *= 1 + cm.Shockwave
	cone *= 1 - engageNarrowing*clamp01(cm.Engage)
	return math.Max(minShotCone, cone)
}

// rollShot draws a deflection inside the cone and reports a hit when the
// round passes within the target's angular half-size.
func rollShot(r RNG, cone, dist, targetRadius float64) (float64, bool) {
	deflection := rngSigned(r, cone)
	half := math.Atan2(targetRadius, math.Max(dist, 1))
	return deflection, math.Abs(deflection) <= half
}
