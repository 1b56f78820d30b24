package equipment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRanged_BurstCarriesReloadPenalty(t *testing.T) {
	single := Asset{Name: "s", Type: TypeRanged, Weight: 3, Length: 1, Calibre: 0.5, Magazine: 4, FireMode: FireSingle}
	burst := single
	burst.FireMode = FireBurst

	rs, ok := Ranged(single)
	require.True(t, ok)
	rb, ok := Ranged(burst)
	require.True(t, ok)

	assert.InDelta(t, rs.ReloadBase+fireModePenalty, rb.ReloadBase, 1e-9)
	assert.Equal(t, burstRounds, rb.Rounds)
	assert.Equal(t, 1, rs.Rounds)
}

func TestRanged_ScatterSplitsDamage(t *testing.T) {
	a := Asset{Name: "b", Type: TypeRanged, Weight: 5, Length: 0.8, Calibre: 0.9, Magazine: 1, FireMode: FireScatter}
	rs, ok := Ranged(a)
	require.True(t, ok)
	assert.InDelta(t, 0.9*40/scatterPellets, rs.Damage, 1e-9)
	assert.Equal(t, scatterPellets, rs.Rounds)
	assert.InDelta(t, (250+0.8*200)*scatterRange, rs.Range, 1e-9, "scatter envelope is trimmed")
}

func TestRanged_WrongType(t *testing.T) {
	_, ok := Ranged(Asset{Type: TypeMelee})
	assert.False(t, ok)
	_, ok = Melee(Asset{Type: TypeRanged})
	assert.False(t, ok)
}

func TestReloadDuration_InflatedByDistress(t *testing.T) {
	rs := RangedStats{ReloadBase: 4}
	assert.InDelta(t, 4.0, rs.ReloadDuration(0), 1e-9)
	assert.InDelta(t, 6.0, rs.ReloadDuration(50), 1e-9)
	assert.InDelta(t, 8.0, rs.ReloadDuration(100), 1e-9)
	assert.InDelta(t, 8.0, rs.ReloadDuration(250), 1e-9, "distress is clamped")
}

func TestLoadout_BaseSpeed(t *testing.T) {
	c := Default()
	light, err := c.Resolve("carbine", "", "", "")
	require.NoError(t, err)
	heavy, err := c.Resolve("musket", "sabre", "cuirass", "")
	require.NoError(t, err)
	mounted, err := c.Resolve("musket", "sabre", "cuirass", "horse")
	require.NoError(t, err)

	assert.Greater(t, light.BaseSpeed(), heavy.BaseSpeed())
	assert.InDelta(t, heavy.BaseSpeed()*mountedSpeedMul, mounted.BaseSpeed(), 1e-9)
	assert.GreaterOrEqual(t, heavy.BaseSpeed(), minMoveSpeed)
}
