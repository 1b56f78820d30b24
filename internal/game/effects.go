package game

// Fire is a burning area that damages and repels units.
type Fire struct {
	X, Y, Radius float64
}

// Smoke is an obscuring cloud that widens shot cones drawn through it.
type Smoke struct {
	X, Y, Radius float64
}

// FireSource lists every active fire.
type FireSource interface {
	AllFires() []Fire
}

// Igniter is implemented by fire sources that accept new fires, e.g. from
// incendiary hits.
type Igniter interface {
	Ignite(x, y, radius float64)
}

// SmokeSource lists every active smoke cloud.
type SmokeSource interface {
	AllSmoke() []Smoke
}

// ExplosionSink receives detonations for presentation.
type ExplosionSink interface {
	AddExplosion(x, y, radius float64)
}

// ShellSink receives launched shells for presentation.
type ShellSink interface {
	AddShell(fromX, fromY, toX, toY float64)
}

// SoundwaveSink receives gunshot and cannon reports.
type SoundwaveSink interface {
	CreateSoundwave(x, y, loudness float64)
}

// Effects bundles the optional effect collaborators. Any field may be nil.
type Effects struct {
	Fires      FireSource
	Smoke      SmokeSource
	Explosions ExplosionSink
	Shells     ShellSink
	Sound      SoundwaveSink
}

// effectUpdater is implemented by collaborators that age their own state.
type effectUpdater interface {
	Update(dt float64)
}

func (e Effects) fires() []Fire {
	if e.Fires == nil {
		return nil
	}
	return e.Fires.AllFires()
}

func (e Effects) smoke() []Smoke {
	if e.Smoke == nil {
		return nil
	}
	return e.Smoke.AllSmoke()
}

func (e Effects) update(dt float64) {
	if u, ok := e.Fires.(effectUpdater); ok {
		u.Update(dt)
	}
	if u, ok := e.Smoke.(effectUpdater); ok {
		u.Update(dt)
	}
}

func (e Effects) explosion(x, y, r float64) {
	if e.Explosions != nil {
		e.Explosions.AddExplosion(x, y, r)
	}
}

func (e Effects) shell(from, to Vec) {
	if e.Shells != nil {
		e.Shells.AddShell(from.X, from.Y, to.X, to.Y)
	}
}

func (e Effects) sound(x, y, loudness float64) {
	if e.Sound != nil {
		e.Sound.CreateSoundwave(x, y, loudness)
	}
}

// ignite starts a fire when the fire source accepts new fires.
func (e Effects) ignite(x, y, r float64) bool {
	ig, ok := e.Fires.(Igniter)
	if !ok {
		return false
	}
	ig.Ignite(x, y, r)
	return true
}

// smokeBetween counts clouds the segment a-b passes through.
func smokeBetween(clouds []Smoke, a, b Vec) int {
	n := 0
	for _, s := range clouds {
		if segmentCircleIntersects(a, b, Vec{s.X, s.Y}, s.Radius) {
			n++
		}
	}
	return n
}

// timedArea is a fire or smoke cloud with a remaining lifetime.
type timedArea struct {
	x, y, radius float64
	left         float64
}

// FireField is a simple in-process FireSource. Fires burn for a fixed time.
type FireField struct {
	Lifetime float64
	areas    []timedArea
}

// NewFireField creates a fire field whose fires last lifetime seconds.
func NewFireField(lifetime float64) *FireField {
	return &FireField{Lifetime: lifetime}
}

// Ignite implements Igniter.
func (f *FireField) Ignite(x, y, radius float64) {
	f.areas = append(f.areas, timedArea{x: x, y: y, radius: radius, left: f.Lifetime})
}

// AllFires implements FireSource.
func (f *FireField) AllFires() []Fire {
	out := make([]Fire, 0, len(f.areas))
	for _, a := range f.areas {
		out = append(out, Fire{X: a.x, Y: a.y, Radius: a.radius})
	}
	return out
}

// Update burns fires down and drops the spent ones.
func (f *FireField) Update(dt float64) {
	f.areas = ageAreas(f.areas, dt)
}

// SmokeField is a simple in-process SmokeSource.
type SmokeField struct {
	Lifetime float64
	areas    []timedArea
}

// NewSmokeField creates a smoke field whose clouds last lifetime seconds.
func NewSmokeField(lifetime float64) *SmokeField {
	return &SmokeField{Lifetime: lifetime}
}

// Add puffs a new cloud.
func (s *SmokeField) Add(x, y, radius float64) {
	s.areas = append(s.areas, timedArea{x: x, y: y, radius: radius, left: s.Lifetime})
}

// AllSmoke implements SmokeSource. Clouds shrink over the last third of
// their life.
func (s *SmokeField) AllSmoke() []Smoke {
	out := make([]Smoke, 0, len(s.areas))
	for _, a := range s.areas {
		r := a.radius
		if s.Lifetime > 0 {
			r *= clamp01(a.left / (s.Lifetime / 3))
		}
		out = append(out, Smoke{X: a.x, Y: a.y, Radius: r})
	}
	return out
}

// Update ages clouds.
func (s *SmokeField) Update(dt float64) {
	s.areas = ageAreas(s.areas, dt)
}

func ageAreas(areas []timedArea, dt float64) []timedArea {
	kept := areas[:0]
	for _, a := range areas {
		a.left -= dt
		if a.left > 0 {
			kept = append(kept, a)
		}
	}
	return kept
}
