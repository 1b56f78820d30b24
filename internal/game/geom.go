package game

import "math"

// Vec is a 2D vector in world pixels.
type Vec struct{ X, Y float64 }

func (v Vec) Add(o Vec) Vec         { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec         { return Vec{v.X - o.X, v.Y - o.Y} }
func (v Vec) Scale(k float64) Vec   { return Vec{v.X * k, v.Y * k} }
func (v Vec) Len() float64          { return math.Hypot(v.X, v.Y) }
func (v Vec) Dot(o Vec) float64     { return v.X*o.X + v.Y*o.Y }
func (v Vec) Perp() Vec             { return Vec{-v.Y, v.X} }
func (v Vec) DistTo(o Vec) float64  { return math.Hypot(o.X-v.X, o.Y-v.Y) }
func (v Vec) Angle() float64        { return math.Atan2(v.Y, v.X) }
func (v Vec) IsZero() bool          { return v.X == 0 && v.Y == 0 }
func fromAngle(a, length float64) Vec { return Vec{math.Cos(a) * length, math.Sin(a) * length} }

// Norm returns the unit vector, or zero for a zero vector.
func (v Vec) Norm() Vec {
	l := v.Len()
	if l < 1e-9 {
		return Vec{}
	}
	return Vec{v.X / l, v.Y / l}
}

// ClampLen shortens v to at most max.
func (v Vec) ClampLen(max float64) Vec {
	l := v.Len()
	if l <= max || l < 1e-9 {
		return v
	}
	return v.Scale(max / l)
}

// HeadingTo returns the angle in radians from (ox,oy) toward (tx,ty).
func HeadingTo(ox, oy, tx, ty float64) float64 {
	return math.Atan2(ty-oy, tx-ox)
}

// normalizeAngle wraps an angle to [-pi, pi].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a < -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// blendAngle moves from toward to by fraction t along the shortest arc.
func blendAngle(from, to, t float64) float64 {
	return normalizeAngle(from + normalizeAngle(to-from)*t)
}

// turnToward rotates from toward to by at most maxStep radians.
func turnToward(from, to, maxStep float64) float64 {
	diff := normalizeAngle(to - from)
	if math.Abs(diff) <= maxStep {
		return normalizeAngle(to)
	}
	if diff > 0 {
		return normalizeAngle(from + maxStep)
	}
	return normalizeAngle(from - maxStep)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }

// pointToSegmentDist returns the distance from p to segment ab.
func pointToSegmentDist(p, a, b Vec) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 < 1e-12 {
		return p.DistTo(a)
	}
	t := clamp01(p.Sub(a).Dot(ab) / l2)
	return p.DistTo(a.Add(ab.Scale(t)))
}

// segmentCircleIntersects reports whether segment ab passes within r of c.
func segmentCircleIntersects(a, b, c Vec, r float64) bool {
	return pointToSegmentDist(c, a, b) <= r
}
