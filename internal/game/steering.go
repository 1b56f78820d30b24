package game

import "math"

// Steering weights.
const (
	seekWeight       = 1.5
	separationWeight = 1.2
	avoidanceWeight  = 0.6
	wallWeight       = 1.1 // stronger than seek so walls win over pursuit
	fireWeight       = 1.0

	unitSmoothing   = 0.5
	cannonSmoothing = 0.3
	headingBlend    = 0.15
	aimBlend        = 0.25

	personalSpacePad = 6.0  // px beyond both radii
	avoidHorizon     = 0.5  // s of velocity prediction
	wallProbePad     = 12.0 // px beyond own radius
	wallProbes       = 8
	firePad          = 20.0
	arriveRadius     = 4.0
	slowRadius       = 30.0

	stuckSidestepTicks = 30
	stuckAbandonTicks  = 90
	stationarySpeed    = 1.0
)

// Mover is the shared steering body used by units and cannons. It blends
// seek, separation, avoidance, wall and fire forces into one velocity.
type Mover struct {
	Owner     Ref
	Pos       Vec
	Vel       Vec
	Heading   float64
	Radius    float64
	Speed     float64 // current max speed, set by the owner each tick
	Smoothing float64
	Immovable bool // other bodies cannot push it

	hasTarget bool
	target    Vec
	Flow      *FlowField

	stuckTicks   int
	sidestepSign float64
}

// moveResult reports notable outcomes of one movement step.
type moveResult struct {
	arrived    bool
	sidestep   bool
	abandoned  bool
	terrainHit bool
}

// steerEnv is the per-tick context steering reads from. others holds live
// pointers, so bodies updated earlier in the pass are seen at their new
// positions.
type steerEnv struct {
	terrain TerrainQuery
	others  []*Mover
	fires   []Fire
	dt      float64
}

// SetTarget orders the body to move to p, guided by flow when line of
// sight is blocked. flow may be nil.
func (m *Mover) SetTarget(p Vec, flow *FlowField) {
	m.hasTarget = true
	m.target = p
	m.Flow = flow
	m.stuckTicks = 0
}

// ClearTarget halts the move order.
func (m *Mover) ClearTarget() {
	m.hasTarget = false
	m.Flow = nil
	m.stuckTicks = 0
}

// Target returns the current movement goal.
func (m *Mover) Target() (Vec, bool) { return m.target, m.hasTarget }

// Moving reports whether the body has a move order or noticeable velocity.
func (m *Mover) Moving() bool {
	return m.hasTarget || m.Vel.Len() > stationarySpeed
}

// seekDir picks straight-line travel when the way is clear, else the flow
// field, else straight line regardless.
func (m *Mover) seekDir(t TerrainQuery) Vec {
	to := m.target.Sub(m.Pos)
	if HasLineOfSight(t, m.Pos.X, m.Pos.Y, m.target.X, m.target.Y) {
		return to.Norm()
	}
	if m.Flow != nil {
		if d, ok := m.Flow.Direction(m.Pos.X, m.Pos.Y); ok && !d.IsZero() {
			return d
		}
	}
	return to.Norm()
}

func (m *Mover) seek(t TerrainQuery) Vec {
	if !m.hasTarget {
		return Vec{}
	}
	dist := m.Pos.DistTo(m.target)
	v := m.seekDir(t).Scale(m.Speed)
	if dist < slowRadius {
		v = v.Scale(dist / slowRadius)
	}
	return v
}

func (m *Mover) separation(others []*Mover) Vec {
	var f Vec
	for _, o := range others {
		if o == m {
			continue
		}
		ps := m.Radius + o.Radius + personalSpacePad
		d := m.Pos.DistTo(o.Pos)
		if d >= ps {
			continue
		}
		away := m.Pos.Sub(o.Pos).Norm()
		if away.IsZero() {
			away = fromAngle(m.Heading+math.Pi/2, 1)
		}
		f = f.Add(away.Scale(1 - d/ps))
	}
	return f.ClampLen(1).Scale(m.Speed)
}

func (m *Mover) avoidance(others []*Mover) Vec {
	var f Vec
	p1 := m.Pos.Add(m.Vel.Scale(avoidHorizon))
	for _, o := range others {
		if o == m {
			continue
		}
		p2 := o.Pos.Add(o.Vel.Scale(avoidHorizon))
		reach := m.Radius + o.Radius + arriveRadius
		d := p1.DistTo(p2)
		if d >= reach {
			continue
		}
		f = f.Add(p1.Sub(p2).Norm().Scale(1 - d/reach))
	}
	return f.ClampLen(1).Scale(m.Speed)
}

func (m *Mover) wallRepulsion(t TerrainQuery) Vec {
	var f Vec
	probe := m.Radius + wallProbePad
	for i := 0; i < wallProbes; i++ {
		dir := fromAngle(float64(i)*2*math.Pi/wallProbes, 1)
		p := m.Pos.Add(dir.Scale(probe))
		if impassable(t, p.X, p.Y) {
			f = f.Sub(dir)
		}
	}
	return f.Norm().Scale(m.Speed)
}

func (m *Mover) fireRepulsion(fires []Fire) Vec {
	var f Vec
	for _, fr := range fires {
		c := Vec{fr.X, fr.Y}
		reach := fr.Radius + m.Radius + firePad
		d := m.Pos.DistTo(c)
		if d >= reach {
			continue
		}
		f = f.Add(m.Pos.Sub(c).Norm().Scale(1 - d/reach))
	}
	return f.ClampLen(1).Scale(m.Speed)
}

// desiredVelocity is the weighted force sum clamped to Speed.
func (m *Mover) desiredVelocity(env *steerEnv) Vec {
	v := m.seek(env.terrain).Scale(seekWeight)
	v = v.Add(m.separation(env.others).Scale(separationWeight))
	v = v.Add(m.avoidance(env.others).Scale(avoidanceWeight))
	v = v.Add(m.wallRepulsion(env.terrain).Scale(wallWeight))
	v = v.Add(m.fireRepulsion(env.fires).Scale(fireWeight))
	return v.ClampLen(m.Speed)
}

// bodyBlocked reports whether a body of radius r centred at p touches
// wall or water along its leading edge.
func bodyBlocked(t TerrainQuery, p, dir Vec, r float64) bool {
	if impassable(t, p.X, p.Y) {
		return true
	}
	if dir.IsZero() {
		return false
	}
	lead := p.Add(dir.Norm().Scale(r))
	return impassable(t, lead.X, lead.Y)
}

// step integrates one tick of movement: steer, terrain gate with axis
// slide, push-resolve overlaps, then run the stuck ladder.
func (m *Mover) step(env *steerEnv) moveResult {
	var res moveResult
	if m.hasTarget && m.Pos.DistTo(m.target) <= arriveRadius {
		m.ClearTarget()
		res.arrived = true
	}

	desired := m.desiredVelocity(env)
	m.Vel = m.Vel.Add(desired.Sub(m.Vel).Scale(m.Smoothing))
	if m.Speed <= 0 {
		m.Vel = Vec{}
	}

	delta := m.Vel.Scale(env.dt)
	next, blocked := m.gate(env.terrain, delta)
	res.terrainHit = blocked

	overlap := m.resolveCollisions(env, &next)
	m.Pos = next

	if !m.hasTarget {
		m.stuckTicks = 0
		return res
	}
	if overlap || blocked {
		m.stuckTicks++
	} else {
		m.stuckTicks = 0
	}
	switch {
	case m.stuckTicks > stuckAbandonTicks:
		m.ClearTarget()
		m.Vel = Vec{}
		res.abandoned = true
	case m.stuckTicks > stuckSidestepTicks:
		res.sidestep = m.sidestep(env)
	}
	return res
}

// gate applies delta unless terrain blocks it, sliding along whichever
// axis stays clear.
func (m *Mover) gate(t TerrainQuery, delta Vec) (Vec, bool) {
	if delta.IsZero() {
		return m.Pos, false
	}
	next := m.Pos.Add(delta)
	if !bodyBlocked(t, next, delta, m.Radius) {
		return next, false
	}
	xOnly := Vec{m.Pos.X + delta.X, m.Pos.Y}
	if delta.X != 0 && !bodyBlocked(t, xOnly, Vec{delta.X, 0}, m.Radius) {
		return xOnly, true
	}
	yOnly := Vec{m.Pos.X, m.Pos.Y + delta.Y}
	if delta.Y != 0 && !bodyBlocked(t, yOnly, Vec{0, delta.Y}, m.Radius) {
		return yOnly, true
	}
	return m.Pos, true
}

// resolveCollisions pushes next and overlapping bodies apart. A stationary
// body absorbs a smaller share of the push; immovable bodies absorb none.
// It reports whether any overlap is left afterwards.
func (m *Mover) resolveCollisions(env *steerEnv, next *Vec) bool {
	for _, o := range env.others {
		if o == m {
			continue
		}
		rs := m.Radius + o.Radius
		d := next.DistTo(o.Pos)
		if d >= rs {
			continue
		}
		n := next.Sub(o.Pos).Norm()
		if n.IsZero() {
			n = fromAngle(m.Heading+math.Pi/2, 1)
		}
		depth := rs - d
		otherShare := 0.5
		if o.Vel.Len() < stationarySpeed {
			otherShare = 0.25
		}
		switch {
		case o.Immovable:
			otherShare = 0
		case m.Immovable:
			otherShare = 1
		}
		mine := next.Add(n.Scale(depth * (1 - otherShare)))
		if !bodyBlocked(env.terrain, mine, n, m.Radius) {
			*next = mine
		}
		if otherShare > 0 {
			theirs := o.Pos.Sub(n.Scale(depth * otherShare))
			if !bodyBlocked(env.terrain, theirs, n.Scale(-1), o.Radius) {
				o.Pos = theirs
			}
		}
	}
	for _, o := range env.others {
		if o == m {
			continue
		}
		if next.DistTo(o.Pos) < m.Radius+o.Radius-0.5 {
			return true
		}
	}
	return false
}

// sidestep shuffles perpendicular to the goal, flipping side every
// sidestep window.
func (m *Mover) sidestep(env *steerEnv) bool {
	if m.sidestepSign == 0 {
		m.sidestepSign = 1
	}
	if (m.stuckTicks-stuckSidestepTicks)%stuckSidestepTicks == 0 {
		m.sidestepSign = -m.sidestepSign
	}
	dir := m.target.Sub(m.Pos).Norm().Perp().Scale(m.sidestepSign)
	step := dir.Scale(math.Max(m.Speed, 20) * env.dt)
	p := m.Pos.Add(step)
	if bodyBlocked(env.terrain, p, dir, m.Radius) {
		return false
	}
	m.Pos = p
	return true
}

// updateHeading blends toward the aim bearing when aiming, otherwise toward
// the direction of travel.
func (m *Mover) updateHeading(aiming bool, bearing float64) {
	if aiming {
		m.Heading = blendAngle(m.Heading, bearing, aimBlend)
		return
	}
	if m.Vel.Len() > stationarySpeed {
		m.Heading = blendAngle(m.Heading, m.Vel.Angle(), headingBlend)
	}
}
