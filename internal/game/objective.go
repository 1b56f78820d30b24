package game

import (
	"fmt"
	"math"
)

// ObjectiveKind separates free-standing flags from the objective bound to a
// cannon.
type ObjectiveKind uint8

const (
	ObjectiveFlag ObjectiveKind = iota
	ObjectiveCannon
)

func (k ObjectiveKind) String() string {
	if k == ObjectiveCannon {
		return "cannon"
	}
	return "flag"
}

const (
	contestedCap      = 0.999
	captureSnap       = 1e-9
	successWindow     = 2.0
	captureReliefMult = 1.5
)

// CaptureObjective is a contested territory node. Progress is signed: blue
// drives it toward +1, red toward -1.
type CaptureObjective struct {
	ID          int
	Kind        ObjectiveKind
	Pos         Vec
	Radius      float64
	Amount      int // units needed to make progress
	CaptureTime float64
	Faction     Faction
	Progress    float64
	Capturing   Faction
	Contested   bool
	CannonID    int

	successTimer float64
}

// captureEvent is raised on ownership changes.
type captureEvent struct {
	obj      *CaptureObjective
	captured bool // false means neutralized
	faction  Faction
	previous Faction
}

// SuccessActive reports whether the post-capture window is running.
func (o *CaptureObjective) SuccessActive() bool { return o.successTimer > 0 }

func (o *CaptureObjective) label() string { return fmt.Sprintf("O%d", o.ID) }

// presence counts non-dying units per faction inside the capture radius.
func (o *CaptureObjective) presence(reg *Registry) (blue, red int) {
	for _, u := range reg.Units() {
		if !u.Alive() || u.Pos().DistTo(o.Pos) > o.Radius {
			continue
		}
		switch u.Faction {
		case FactionBlue:
			blue++
		case FactionRed:
			red++
		}
	}
	return blue, red
}

// advance moves progress for one tick given the head counts and returns any
// ownership events. Contested progress never reaches ±1.
func (o *CaptureObjective) advance(blue, red int, dt float64) []captureEvent {
	o.successTimer = math.Max(0, o.successTimer-dt)

	blueMeets := blue >= o.Amount
	redMeets := red >= o.Amount
	o.Contested = blueMeets && redMeets

	var dir float64
	switch {
	case o.Contested:
		switch {
		case blue > red:
			dir = 1
		case red > blue:
			dir = -1
		}
	case blueMeets:
		dir = 1
	case redMeets:
		dir = -1
	}
	if dir == 0 {
		o.Capturing = FactionNone
		return nil
	}
	o.Capturing = FactionBlue
	if dir < 0 {
		o.Capturing = FactionRed
	}

	prev := o.Progress
	next := prev + dir*dt/o.CaptureTime
	if o.Contested && math.Abs(prev) < 1 {
		next = clamp(next, -contestedCap, contestedCap)
	}
	next = clamp(next, -1, 1)
	if math.Abs(next) >= 1-captureSnap {
		next = math.Copysign(1, next)
	}
	o.Progress = next

	var events []captureEvent
	if prev != 0 && (next == 0 || math.Signbit(next) != math.Signbit(prev)) && o.Faction != FactionNone {
		events = append(events, captureEvent{obj: o, faction: FactionNone, previous: o.Faction})
		o.Faction = FactionNone
	}
	if !o.Contested && math.Abs(next) == 1 && o.Faction != o.Capturing {
		events = append(events, captureEvent{obj: o, captured: true, faction: o.Capturing, previous: o.Faction})
		o.Faction = o.Capturing
		o.successTimer = successWindow
	}
	return events
}

// updateObjectives advances every objective and applies the consequences
// of ownership changes.
func (w *World) updateObjectives(dt float64) {
	for _, o := range w.Reg.Objectives() {
		blue, red := o.presence(w.Reg)
		wasContested := o.Contested
		wasCapturing := o.Capturing
		events := o.advance(blue, red, dt)
		if o.Contested && !wasContested {
			w.logObjective(o, "contested", fmt.Sprintf("blue %d red %d", blue, red), o.Progress)
		}
		if o.Capturing != FactionNone && o.Capturing != wasCapturing && o.Capturing != o.Faction {
			w.logObjective(o, "progress_start", o.Capturing.String(), o.Progress)
		}
		for _, ev := range events {
			w.onCaptureEvent(ev)
		}
	}
}

func (w *World) onCaptureEvent(ev captureEvent) {
	o := ev.obj
	if !ev.captured {
		w.logObjective(o, "neutralized", "was "+ev.previous.String(), o.Progress)
		return
	}
	w.stats.Captures++
	w.logObjective(o, "captured", ev.faction.String(), o.Progress)
	relief := o.Radius * captureReliefMult
	for _, u := range w.Reg.Units() {
		if u.Alive() && u.Faction == ev.faction && u.Pos().DistTo(o.Pos) <= relief {
			u.addDistress(-distressCaptured)
		}
	}
	if o.Kind != ObjectiveCannon {
		return
	}
	c := w.Reg.Cannon(o.CannonID)
	if c == nil || c.Faction == ev.faction {
		return
	}
	w.dissolveCrew(c, "captured")
	c.Faction = ev.faction
	c.combat.clearTargets()
	c.shotDelay = 0
	if c.State == CannonShotDelay || c.State == CannonTargetLocked {
		c.State = CannonIdle
	}
}
