package game

import "sort"

// Faction is the side a unit, cannon or objective belongs to.
type Faction int

const (
	FactionNone Faction = iota
	FactionBlue
	FactionRed
)

func (f Faction) String() string {
	switch f {
	case FactionBlue:
		return "blue"
	case FactionRed:
		return "red"
	default:
		return "none"
	}
}

// Opposes reports whether f and o are hostile to each other.
func (f Faction) Opposes(o Faction) bool {
	return f != FactionNone && o != FactionNone && f != o
}

// sign maps blue to +1 and red to -1, matching capture progress direction.
func (f Faction) sign() float64 {
	switch f {
	case FactionBlue:
		return 1
	case FactionRed:
		return -1
	default:
		return 0
	}
}

// RefKind says which arena a Ref points into.
type RefKind uint8

const (
	RefNone RefKind = iota
	RefUnit
	RefCannon
)

// Ref is a weak reference to a unit or cannon. It is resolved through the
// Registry on every use; a removed entity simply fails lookup.
type Ref struct {
	Kind RefKind
	ID   int
}

// NoRef is the empty reference.
var NoRef = Ref{}

// Valid reports whether r names something.
func (r Ref) Valid() bool { return r.Kind != RefNone }

// UnitRef and CannonRef build references.
func UnitRef(id int) Ref   { return Ref{Kind: RefUnit, ID: id} }
func CannonRef(id int) Ref { return Ref{Kind: RefCannon, ID: id} }

// Registry owns every unit, cannon and objective, keyed by stable ids.
// Iteration is always in ascending id order so ticks are deterministic.
type Registry struct {
	nextID     int
	units      map[int]*Unit
	cannons    map[int]*Cannon
	objectives map[int]*CaptureObjective

	unitOrder   []int
	cannonOrder []int
	objOrder    []int
}

// NewRegistry creates an empty registry. Ids start at 1 so the zero value of
// an id field means "none".
func NewRegistry() *Registry {
	return &Registry{
		nextID:     1,
		units:      make(map[int]*Unit),
		cannons:    make(map[int]*Cannon),
		objectives: make(map[int]*CaptureObjective),
	}
}

func (r *Registry) allocID() int {
	id := r.nextID
	r.nextID++
	return id
}

func insertSorted(ids []int, id int) []int {
	i := sort.SearchInts(ids, id)
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

func removeSorted(ids []int, id int) []int {
	i := sort.SearchInts(ids, id)
	if i < len(ids) && ids[i] == id {
		return append(ids[:i], ids[i+1:]...)
	}
	return ids
}

func (r *Registry) addUnit(u *Unit) {
	r.units[u.ID] = u
	r.unitOrder = insertSorted(r.unitOrder, u.ID)
}

func (r *Registry) addCannon(c *Cannon) {
	r.cannons[c.ID] = c
	r.cannonOrder = insertSorted(r.cannonOrder, c.ID)
}

func (r *Registry) addObjective(o *CaptureObjective) {
	r.objectives[o.ID] = o
	r.objOrder = insertSorted(r.objOrder, o.ID)
}

func (r *Registry) removeUnit(id int) {
	delete(r.units, id)
	r.unitOrder = removeSorted(r.unitOrder, id)
}

func (r *Registry) removeCannon(id int) {
	delete(r.cannons, id)
	r.cannonOrder = removeSorted(r.cannonOrder, id)
}

func (r *Registry) removeObjective(id int) {
	delete(r.objectives, id)
	r.objOrder = removeSorted(r.objOrder, id)
}

// Unit returns the unit with id, or nil.
func (r *Registry) Unit(id int) *Unit { return r.units[id] }

// Cannon returns the cannon with id, or nil.
func (r *Registry) Cannon(id int) *Cannon { return r.cannons[id] }

// Objective returns the objective with id, or nil.
func (r *Registry) Objective(id int) *CaptureObjective { return r.objectives[id] }

// Units returns every unit in id order. The slice is freshly allocated.
func (r *Registry) Units() []*Unit {
	out := make([]*Unit, 0, len(r.unitOrder))
	for _, id := range r.unitOrder {
		out = append(out, r.units[id])
	}
	return out
}

// Cannons returns every cannon in id order.
func (r *Registry) Cannons() []*Cannon {
	out := make([]*Cannon, 0, len(r.cannonOrder))
	for _, id := range r.cannonOrder {
		out = append(out, r.cannons[id])
	}
	return out
}

// Objectives returns every objective in id order.
func (r *Registry) Objectives() []*CaptureObjective {
	out := make([]*CaptureObjective, 0, len(r.objOrder))
	for _, id := range r.objOrder {
		out = append(out, r.objectives[id])
	}
	return out
}

// targetInfo is the resolved view of a Ref used by targeting code.
type targetInfo struct {
	Ref     Ref
	Pos     Vec
	Radius  float64
	Faction Faction
}

// Resolve looks up a Ref. ok is false when the entity is gone or dying.
func (r *Registry) Resolve(ref Ref) (targetInfo, bool) {
	switch ref.Kind {
	case RefUnit:
		u := r.units[ref.ID]
		if u == nil || !u.Alive() {
			return targetInfo{}, false
		}
		return targetInfo{Ref: ref, Pos: u.Pos(), Radius: u.Radius(), Faction: u.Faction}, true
	case RefCannon:
		c := r.cannons[ref.ID]
		if c == nil || !c.Alive() {
			return targetInfo{}, false
		}
		return targetInfo{Ref: ref, Pos: c.Pos(), Radius: c.mover.Radius, Faction: c.Faction}, true
	}
	return targetInfo{}, false
}

// enemiesOf lists every live unit and cannon hostile to f, in id order.
func (r *Registry) enemiesOf(f Faction) []targetInfo {
	var out []targetInfo
	for _, id := range r.unitOrder {
		u := r.units[id]
		if u.Alive() && f.Opposes(u.Faction) {
			out = append(out, targetInfo{Ref: UnitRef(id), Pos: u.Pos(), Radius: u.Radius(), Faction: u.Faction})
		}
	}
	for _, id := range r.cannonOrder {
		c := r.cannons[id]
		if c.Alive() && f.Opposes(c.Faction) {
			out = append(out, targetInfo{Ref: CannonRef(id), Pos: c.Pos(), Radius: c.mover.Radius, Faction: c.Faction})
		}
	}
	return out
}
