package game

import (
	"fmt"
	"strings"
)

// reportWindowTicks is the default sliding window for recent-behaviour reports (~10s at 60TPS).
const reportWindowTicks = 600

type BattleOutcome int

const (
	OutcomeInconclusive BattleOutcome = iota
	OutcomeRedVictory
	OutcomeBlueVictory
	OutcomeDraw
)

func (o BattleOutcome) String() string {
	switch o {
	case OutcomeRedVictory:
		return "red_victory"
	case OutcomeBlueVictory:
		return "blue_victory"
	case OutcomeDraw:
		return "draw"
	case OutcomeInconclusive:
		return "inconclusive"
	default:
		return "unknown"
	}
}

type BattleOutcomeReason struct {
	Outcome       BattleOutcome
	RedSurvivors  int
	RedTotal      int
	BlueSurvivors int
	BlueTotal     int
	BlueFlags     int
	RedFlags      int
	Description   string
}

// DetermineBattleOutcome judges a battle from survivors and objective
// ownership. Totals are the unit counts each side started with.
func DetermineBattleOutcome(w *World, blueTotal, redTotal int) BattleOutcomeReason {
	blue, red := w.Counts()
	r := BattleOutcomeReason{
		RedSurvivors:  red,
		RedTotal:      redTotal,
		BlueSurvivors: blue,
		BlueTotal:     blueTotal,
	}
	for _, o := range w.Reg.Objectives() {
		switch o.Faction {
		case FactionBlue:
			r.BlueFlags++
		case FactionRed:
			r.RedFlags++
		}
	}

	casualtyRate := func(alive, total int) float64 {
		if total == 0 {
			return 0
		}
		return float64(total-alive) / float64(total)
	}
	redRate := casualtyRate(red, redTotal)
	blueRate := casualtyRate(blue, blueTotal)

	switch {
	case red == 0 && blue > 0:
		r.Outcome, r.Description = OutcomeBlueVictory, "decisive_blue_victory_red_eliminated"
	case blue == 0 && red > 0:
		r.Outcome, r.Description = OutcomeRedVictory, "decisive_red_victory_blue_eliminated"
	case red == 0 && blue == 0:
		r.Outcome, r.Description = OutcomeDraw, "mutual_annihilation"
	case blueRate-redRate > 0.30 && redRate < 0.50:
		r.Outcome, r.Description = OutcomeRedVictory, "marginal_red_victory_casualty_advantage"
	case redRate-blueRate > 0.30 && blueRate < 0.50:
		r.Outcome, r.Description = OutcomeBlueVictory, "marginal_blue_victory_casualty_advantage"
	case r.RedFlags > r.BlueFlags+1:
		r.Outcome, r.Description = OutcomeRedVictory, "red_victory_ground_held"
	case r.BlueFlags > r.RedFlags+1:
		r.Outcome, r.Description = OutcomeBlueVictory, "blue_victory_ground_held"
	case (redRate > 0.30 || blueRate > 0.30) && absFloat(redRate-blueRate) <= 0.20:
		r.Outcome, r.Description = OutcomeDraw, "draw_similar_casualties"
	default:
		r.Outcome, r.Description = OutcomeInconclusive, "inconclusive_insufficient_resolution"
	}
	return r
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// SimReport is a snapshot of the simulation at one tick.
type SimReport struct {
	Tick            int
	BlueAlive       int
	RedAlive        int
	BluePanicking   int
	RedPanicking    int
	BlueAvgDistress float64
	RedAvgDistress  float64
	Cannons         int
	CannonsLoaded   int
	Jobs            int
	Stats           SimStats
}

// SimReporter collects periodic reports from the simulation and can produce
// summaries over sliding time windows.
type SimReporter struct {
	history     []SimReport
	windowTicks int
}

// NewSimReporter creates a reporter with the given window size.
func NewSimReporter(windowTicks int) *SimReporter {
	if windowTicks <= 0 {
		windowTicks = reportWindowTicks
	}
	return &SimReporter{windowTicks: windowTicks}
}

// Collect gathers a snapshot from the current simulation state.
// Call this periodically (e.g. every 60 ticks / 1s).
func (r *SimReporter) Collect(w *World) SimReport {
	rep := SimReport{Tick: w.Tick, Jobs: len(w.Jobs.Jobs()), Stats: w.Stats()}
	for _, u := range w.Reg.Units() {
		if !u.Alive() {
			continue
		}
		switch u.Faction {
		case FactionBlue:
			rep.BlueAlive++
			rep.BlueAvgDistress += u.Distress
			if u.Panicking() {
				rep.BluePanicking++
			}
		case FactionRed:
			rep.RedAlive++
			rep.RedAvgDistress += u.Distress
			if u.Panicking() {
				rep.RedPanicking++
			}
		}
	}
	if rep.BlueAlive > 0 {
		rep.BlueAvgDistress /= float64(rep.BlueAlive)
	}
	if rep.RedAlive > 0 {
		rep.RedAvgDistress /= float64(rep.RedAlive)
	}
	for _, c := range w.Reg.Cannons() {
		rep.Cannons++
		if c.Loaded {
			rep.CannonsLoaded++
		}
	}
	r.history = append(r.history, rep)
	return rep
}

// History returns every collected report.
func (r *SimReporter) History() []SimReport { return r.history }

// window returns reports within the last windowTicks of the newest one.
func (r *SimReporter) window() []SimReport {
	if len(r.history) == 0 {
		return nil
	}
	last := r.history[len(r.history)-1].Tick
	i := len(r.history)
	for i > 0 && last-r.history[i-1].Tick < r.windowTicks {
		i--
	}
	return r.history[i:]
}

// Summary formats the recent window as a short multi-line report.
func (r *SimReporter) Summary() string {
	win := r.window()
	if len(win) == 0 {
		return "no reports collected\n"
	}
	first, last := win[0], win[len(win)-1]
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== T=%d..%d ===\n", first.Tick, last.Tick)
	fmt.Fprintf(&sb, "blue alive %d (panicking %d, distress %.1f)\n", last.BlueAlive, last.BluePanicking, last.BlueAvgDistress)
	fmt.Fprintf(&sb, "red  alive %d (panicking %d, distress %.1f)\n", last.RedAlive, last.RedPanicking, last.RedAvgDistress)
	fmt.Fprintf(&sb, "shots %d hits %d cannon shots %d ff aborts %d captures %d\n",
		last.Stats.ShotsFired-first.Stats.ShotsFired,
		last.Stats.Hits-first.Stats.Hits,
		last.Stats.CannonShots-first.Stats.CannonShots,
		last.Stats.FFAborts-first.Stats.FFAborts,
		last.Stats.Captures-first.Stats.Captures)
	fmt.Fprintf(&sb, "cannons %d (loaded %d) jobs %d\n", last.Cannons, last.CannonsLoaded, last.Jobs)
	return sb.String()
}

// RunResult is the outcome of one headless battle.
type RunResult struct {
	Seed    int64
	Ticks   int
	Outcome BattleOutcomeReason
	Stats   SimStats
}

// FormatRunTable renders headless results as an aligned table.
func FormatRunTable(results []RunResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-6s %-6s %-13s %-9s %-9s %-6s %-6s %-7s %-4s %s\n",
		"seed", "ticks", "outcome", "blue", "red", "shots", "hits", "cannon", "ff", "description")
	counts := make(map[BattleOutcome]int)
	for _, r := range results {
		o := r.Outcome
		counts[o.Outcome]++
		fmt.Fprintf(&sb, "%-6d %-6d %-13s %-9s %-9s %-6d %-6d %-7d %-4d %s\n",
			r.Seed, r.Ticks, o.Outcome,
			fmt.Sprintf("%d/%d", o.BlueSurvivors, o.BlueTotal),
			fmt.Sprintf("%d/%d", o.RedSurvivors, o.RedTotal),
			r.Stats.ShotsFired, r.Stats.Hits, r.Stats.CannonShots, r.Stats.FFAborts,
			o.Description)
	}
	fmt.Fprintf(&sb, "blue %d  red %d  draw %d  inconclusive %d\n",
		counts[OutcomeBlueVictory], counts[OutcomeRedVictory], counts[OutcomeDraw], counts[OutcomeInconclusive])
	return sb.String()
}
