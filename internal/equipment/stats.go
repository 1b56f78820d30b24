package equipment

import "math"

const (
	baseMoveSpeed    = 70.0 // px/s unencumbered
	weightSpeedLoss  = 1.5  // px/s lost per unit of carried weight
	minMoveSpeed     = 25.0
	mountedSpeedMul  = 1.8
	fireModePenalty  = 1.0 // extra reload seconds for burst and scatter
	burstRounds      = 3
	burstGap         = 0.12
	scatterPellets   = 6
	scatterRange     = 0.6 // fraction of the length-derived range
	maxArmorFraction = 0.9
)

// RangedStats are the combat numbers derived from a ranged weapon.
type RangedStats struct {
	Name         string
	Range        float64 // px
	MinRange     float64 // px, dead zone
	Damage       float64 // per round (per pellet for scatter)
	Magazine     int
	ShotInterval float64 // s between trigger pulls
	Rounds       int     // rounds per trigger pull (burst) or pellets (scatter)
	RoundGap     float64 // s between rounds of a burst
	Spread       float64 // rad, base cone half-angle
	ReloadBase   float64 // s, before distress inflation
	Weight       float64
	Mode         FireMode
	Incendiary   bool
}

// MeleeStats are the combat numbers derived from a melee weapon.
type MeleeStats struct {
	Name     string
	Range    float64 // px beyond both body radii
	Damage   float64
	Cooldown float64 // s
}

// Ranged derives stats from a ranged asset. ok is false for other types.
func Ranged(a Asset) (RangedStats, bool) {
	if a.Type != TypeRanged {
		return RangedStats{}, false
	}
	rs := RangedStats{
		Name:       a.Name,
		Range:      250 + a.Length*200,
		Damage:     a.Calibre * 40,
		Magazine:   a.Magazine,
		Rounds:     1,
		Weight:     a.Weight,
		Mode:       a.FireMode,
		Incendiary: a.Incendiary,
		ReloadBase: 1.0 + a.Weight*0.35 + float64(a.Magazine)*0.12,
	}
	switch a.FireMode {
	case FireSingle:
		rs.ShotInterval = 1.2
		rs.Spread = 0.04
	case FireBurst:
		rs.ShotInterval = 1.6
		rs.Rounds = burstRounds
		rs.RoundGap = burstGap
		rs.Spread = 0.06
		rs.ReloadBase += fireModePenalty
	case FireScatter:
		rs.ShotInterval = 1.8
		rs.Rounds = scatterPellets
		rs.Damage /= scatterPellets
		rs.Spread = 0.14
		rs.ReloadBase += fireModePenalty
		rs.Range *= scatterRange
	}
	return rs, true
}

// Melee derives stats from a melee asset. ok is false for other types.
func Melee(a Asset) (MeleeStats, bool) {
	if a.Type != TypeMelee {
		return MeleeStats{}, false
	}
	return MeleeStats{
		Name:     a.Name,
		Range:    10 + a.Length*12,
		Damage:   12 + a.Weight*3,
		Cooldown: 0.7 + a.Weight*0.12,
	}, true
}

// ReloadDuration inflates the base reload time by the firer's distress
// (0..100): a fully distressed unit takes twice as long.
func (rs RangedStats) ReloadDuration(distress float64) float64 {
	d := math.Max(0, math.Min(100, distress))
	return rs.ReloadBase * (1 + d/100)
}

// Loadout is the set of assets a unit carries.
type Loadout struct {
	Ranged *Asset
	Melee  *Asset
	Armor  *Asset
	Mount  *Asset
}

// Resolve looks up a loadout by asset names. Empty names are skipped.
func (c *Catalog) Resolve(ranged, melee, armor, mount string) (Loadout, error) {
	var lo Loadout
	pick := func(name string, want AssetType) (*Asset, error) {
		if name == "" {
			return nil, nil
		}
		a, ok := c.Get(name)
		if !ok {
			return nil, errUnknown(name)
		}
		if a.Type != want {
			return nil, errWrongType(name, want)
		}
		return &a, nil
	}
	var err error
	if lo.Ranged, err = pick(ranged, TypeRanged); err != nil {
		return lo, err
	}
	if lo.Melee, err = pick(melee, TypeMelee); err != nil {
		return lo, err
	}
	if lo.Armor, err = pick(armor, TypeArmor); err != nil {
		return lo, err
	}
	if lo.Mount, err = pick(mount, TypeMount); err != nil {
		return lo, err
	}
	return lo, nil
}

// CarriedWeight sums every carried asset except the mount.
func (lo Loadout) CarriedWeight() float64 {
	w := 0.0
	for _, a := range []*Asset{lo.Ranged, lo.Melee, lo.Armor} {
		if a != nil {
			w += a.Weight
		}
	}
	return w
}

// Mounted reports whether the loadout includes a mount.
func (lo Loadout) Mounted() bool { return lo.Mount != nil }

// Protection returns the armor damage reduction fraction.
func (lo Loadout) Protection() float64 {
	if lo.Armor == nil {
		return 0
	}
	return math.Min(maxArmorFraction, lo.Armor.Protection)
}

// BaseSpeed is the movement speed before buffs and debuffs.
func (lo Loadout) BaseSpeed() float64 {
	s := math.Max(minMoveSpeed, baseMoveSpeed-lo.CarriedWeight()*weightSpeedLoss)
	if lo.Mounted() {
		s *= mountedSpeedMul
	}
	return s
}
