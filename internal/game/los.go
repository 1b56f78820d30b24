package game

import "math"

// losSampleStep is the spacing of terrain samples along a sight or movement line.
const losSampleStep = 10.0

// HasLineOfSight returns true if no wall or water sample lies on the segment
// from (ax,ay) to (bx,by). Used for movement: a clear line means a unit can
// walk straight at its goal. Endpoints are excluded.
func HasLineOfSight(t TerrainQuery, ax, ay, bx, by float64) bool {
	_, blocked := firstObstacle(t, ax, ay, bx, by, math.Inf(1))
	return !blocked
}

// HasClearSight is HasLineOfSight for vision: only walls block, water does not.
func HasClearSight(t TerrainQuery, ax, ay, bx, by float64) bool {
	dx := bx - ax
	dy := by - ay
	dist := math.Hypot(dx, dy)
	if dist < 1e-9 {
		return true
	}
	steps := int(dist / losSampleStep)
	for i := 1; i <= steps; i++ {
		f := float64(i) * losSampleStep / dist
		if f >= 1 {
			break
		}
		if t.TerrainAt(ax+dx*f, ay+dy*f) == TerrainWall {
			return false
		}
	}
	return true
}

// firstObstacle walks from a toward b in losSampleStep increments up to
// maxDist and returns the distance of the first impassable sample.
func firstObstacle(t TerrainQuery, ax, ay, bx, by, maxDist float64) (float64, bool) {
	dx := bx - ax
	dy := by - ay
	dist := math.Hypot(dx, dy)
	if dist < 1e-9 {
		return 0, false
	}
	limit := math.Min(dist, maxDist)
	ux, uy := dx/dist, dy/dist
	for d := losSampleStep; d < limit; d += losSampleStep {
		if impassable(t, ax+ux*d, ay+uy*d) {
			return d, true
		}
	}
	return 0, false
}

// obstacleWithin reports an impassable sample within maxDist along the
// direction from a to b, even past b.
func obstacleWithin(t TerrainQuery, ax, ay, bx, by, maxDist float64) bool {
	dx := bx - ax
	dy := by - ay
	dist := math.Hypot(dx, dy)
	if dist < 1e-9 {
		return false
	}
	ux, uy := dx/dist, dy/dist
	for d := losSampleStep; d <= maxDist; d += losSampleStep {
		if impassable(t, ax+ux*d, ay+uy*d) {
			return true
		}
	}
	return false
}
