package game

import "fmt"

// UnitSpec describes a unit to spawn. Equipment names refer to the world's
// catalog; empty names mean none.
type UnitSpec struct {
	Faction Faction
	X, Y    float64
	Heading float64
	Ranged  string
	Melee   string
	Armor   string
	Mount   string
	Leader  bool
	Stance  Stance
	Health  float64 // 0 means the default
}

// CannonSpec describes a cannon to spawn.
type CannonSpec struct {
	Faction Faction
	X, Y    float64
	Heading float64
	Type    CannonType
	Loaded  bool // spawn ready to fire instead of waiting on a first reload
}

// FlagSpec describes a free-standing capture objective.
type FlagSpec struct {
	X, Y        float64
	Radius      float64
	Amount      int
	CaptureTime float64
	Faction     Faction
}

// SpawnUnit adds a unit. The only failure is a loadout the catalog rejects.
func (w *World) SpawnUnit(s UnitSpec) (int, error) {
	lo, err := w.Catalog.Resolve(s.Ranged, s.Melee, s.Armor, s.Mount)
	if err != nil {
		return 0, fmt.Errorf("spawn unit: %w", err)
	}
	id := w.Reg.allocID()
	u := newUnit(id, s.Faction, Vec{s.X, s.Y}, s.Heading, lo, s.Leader)
	if s.Health > 0 {
		u.Health = s.Health
		u.MaxHealth = s.Health
	}
	u.setStance(s.Stance)
	w.Reg.addUnit(u)
	return id, nil
}

// SpawnCannon adds a cannon and its bound capture objective, owned by the
// cannon's faction.
func (w *World) SpawnCannon(s CannonSpec) int {
	id := w.Reg.allocID()
	c := newCannon(id, s.Type, s.Faction, Vec{s.X, s.Y}, s.Heading)
	if s.Loaded {
		c.Loaded = true
		c.Reloading = false
	}
	oid := w.Reg.allocID()
	o := &CaptureObjective{
		ID:          oid,
		Kind:        ObjectiveCannon,
		Pos:         c.Pos(),
		Radius:      cannonObjectiveRadius,
		Amount:      cannonObjectiveAmount,
		CaptureTime: cannonObjectiveTime,
		Faction:     s.Faction,
		Progress:    s.Faction.sign(),
		CannonID:    id,
	}
	c.Objective = oid
	w.Reg.addCannon(c)
	w.Reg.addObjective(o)
	return id
}

// SpawnFlag adds a capture objective.
func (w *World) SpawnFlag(s FlagSpec) int {
	if s.Radius <= 0 {
		s.Radius = 60
	}
	if s.Amount <= 0 {
		s.Amount = 1
	}
	if s.CaptureTime <= 0 {
		s.CaptureTime = 10
	}
	id := w.Reg.allocID()
	w.Reg.addObjective(&CaptureObjective{
		ID:          id,
		Kind:        ObjectiveFlag,
		Pos:         Vec{s.X, s.Y},
		Radius:      s.Radius,
		Amount:      s.Amount,
		CaptureTime: s.CaptureTime,
		Faction:     s.Faction,
		Progress:    s.Faction.sign(),
	})
	return id
}

// MoveTo orders a unit or cannon to (x,y). Crew members cannot be moved
// on their own; moving a cannon moves its crew with it.
func (w *World) MoveTo(id int, x, y float64) bool {
	goal := Vec{x, y}
	if u := w.Reg.Unit(id); u != nil {
		if !u.Alive() || u.CrewOf != 0 || u.panicking {
			return false
		}
		u.retreating = false
		u.mover.SetTarget(goal, w.flowTo(goal))
		return true
	}
	if c := w.Reg.Cannon(id); c != nil {
		if !c.Alive() || len(c.Crew) == 0 {
			return false
		}
		c.mover.SetTarget(goal, w.flowTo(goal))
		return true
	}
	return false
}

// MoveGroupTo orders several units to one goal sharing a single flow field.
// It returns how many accepted the order.
func (w *World) MoveGroupTo(ids []int, x, y float64) int {
	goal := Vec{x, y}
	flow := w.flowTo(goal)
	n := 0
	for _, id := range ids {
		u := w.Reg.Unit(id)
		if u == nil || !u.Alive() || u.CrewOf != 0 || u.panicking {
			continue
		}
		u.retreating = false
		u.mover.SetTarget(goal, flow)
		n++
	}
	return n
}

// SetManualTarget overrides stance targeting until the target dies or
// leaves view. It also grants the engage buff.
func (w *World) SetManualTarget(id int, target Ref) bool {
	ti, ok := w.Reg.Resolve(target)
	if !ok {
		return false
	}
	if u := w.Reg.Unit(id); u != nil && u.Alive() && u.Faction.Opposes(ti.Faction) {
		u.combat.Manual = target
		u.combat.Engage = 1
		return true
	}
	if c := w.Reg.Cannon(id); c != nil && c.Alive() && c.Faction.Opposes(ti.Faction) {
		c.combat.Manual = target
		c.combat.Engage = 1
		return true
	}
	return false
}

// SetStance changes a unit's stance. Crew stay at none.
func (w *World) SetStance(id int, s Stance) bool {
	u := w.Reg.Unit(id)
	if u == nil || !u.Alive() {
		return false
	}
	u.setStance(s)
	return true
}

// Retreat sends a unit back to the nearest objective its side owns, or to
// where it spawned.
func (w *World) Retreat(id int) bool {
	u := w.Reg.Unit(id)
	if u == nil || !u.Alive() || u.CrewOf != 0 {
		return false
	}
	goal, ok := w.nearestFriendlyObjective(u.Faction, u.Pos())
	if !ok {
		goal = u.spawn
	}
	u.combat.clearTargets()
	u.retreating = true
	u.mover.SetTarget(goal, w.flowTo(goal))
	return true
}

// AssignCrew binds a unit to a cannon of its own faction.
func (w *World) AssignCrew(cannonID, unitID int) bool {
	c := w.Reg.Cannon(cannonID)
	u := w.Reg.Unit(unitID)
	if c == nil || u == nil || !c.Alive() {
		return false
	}
	return w.assignCrew(c, u)
}

// SelectCannon marks a cannon as selected for the command surface.
func (w *World) SelectCannon(id int) bool {
	if c := w.Reg.Cannon(id); c != nil && c.Alive() {
		w.selected = id
		return true
	}
	return false
}

// Deselect clears the selection.
func (w *World) Deselect() { w.selected = 0 }

// Selected returns the selected cannon id, or 0.
func (w *World) Selected() int { return w.selected }

// UnitAt returns the live unit under (x,y), or nil.
func (w *World) UnitAt(x, y float64) *Unit {
	p := Vec{x, y}
	for _, u := range w.Reg.Units() {
		if u.Alive() && u.Pos().DistTo(p) <= u.Radius() {
			return u
		}
	}
	return nil
}

// CannonAt returns the live cannon under (x,y), or nil.
func (w *World) CannonAt(x, y float64) *Cannon {
	p := Vec{x, y}
	for _, c := range w.Reg.Cannons() {
		if c.Alive() && c.Pos().DistTo(p) <= c.Radius() {
			return c
		}
	}
	return nil
}
