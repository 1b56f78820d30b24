package game

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/Garsondee/frontline/internal/config"
)

const (
	jobCount       = 3
	jobSpacing     = 3 // min Chebyshev distance between picked tiles
	jobBlockRadius = 1 // 3×3 block
)

// JobEnv is the environment the admission rule is evaluated against.
type JobEnv struct {
	Value      float64
	Objectives int
	BlueUnits  int
	TotalHP    float64
	TotalDPS   float64
	Flankable  bool
}

// AIJob is a tactical target aggregated over a 3×3 heatmap block. Jobs are
// rebuilt wholesale each scoring cycle.
type AIJob struct {
	Col, Row   int
	Center     Vec
	Value      float64
	Objectives int
	BlueUnits  int
	TotalHP    float64
	TotalDPS   float64
	Flankable  bool
}

func (j AIJob) env() JobEnv {
	return JobEnv{
		Value:      j.Value,
		Objectives: j.Objectives,
		BlueUnits:  j.BlueUnits,
		TotalHP:    j.TotalHP,
		TotalDPS:   j.TotalDPS,
		Flankable:  j.Flankable,
	}
}

// AIJobsManager picks the top heatmap tiles every interval and turns the
// admitted ones into jobs.
type AIJobsManager struct {
	Rule     string
	program  *vm.Program
	interval float64
	acc      float64
	jobs     []AIJob
}

// NewAIJobsManager compiles the admission rule. An empty rule uses
// DefaultJobAdmission.
func NewAIJobsManager(rule string, interval float64) (*AIJobsManager, error) {
	if rule == "" {
		rule = config.DefaultJobAdmission
	}
	prog, err := expr.Compile(rule, expr.Env(JobEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile job admission %q: %w", rule, err)
	}
	return &AIJobsManager{Rule: rule, program: prog, interval: interval}, nil
}

// Jobs returns the jobs from the last scoring cycle.
func (m *AIJobsManager) Jobs() []AIJob { return m.jobs }

// Update accumulates time and rescores once per interval. It reports
// whether a rescore ran.
func (m *AIJobsManager) Update(w *World, dt float64) bool {
	m.acc += dt
	if m.acc < m.interval {
		return false
	}
	m.acc -= m.interval
	m.Recompute(w)
	return true
}

// topTiles returns up to n tile indices by descending score, each at least
// spacing cells from every earlier pick. Ties go to the lower index.
func topTiles(h *Heatmap, n, spacing int) []int {
	idx := make([]int, len(h.tiles))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return h.tiles[idx[a]].Score > h.tiles[idx[b]].Score
	})
	var picked []int
	for _, i := range idx {
		if len(picked) == n {
			break
		}
		c, r := i%h.cols, i/h.cols
		ok := true
		for _, p := range picked {
			if chebyshev(c, r, p%h.cols, p/h.cols) < spacing {
				ok = false
				break
			}
		}
		if ok {
			picked = append(picked, i)
		}
	}
	return picked
}

// aggregate sums the 3×3 block around (col,row).
func aggregate(w *World, h *Heatmap, col, row int) AIJob {
	j := AIJob{Col: col, Row: row, Center: h.TileCenter(col, row)}
	inBlock := func(p Vec) bool {
		c, r := h.TileAt(p)
		return chebyshev(c, r, col, row) <= jobBlockRadius
	}
	for dr := -jobBlockRadius; dr <= jobBlockRadius; dr++ {
		for dc := -jobBlockRadius; dc <= jobBlockRadius; dc++ {
			if !h.inBounds(col+dc, row+dr) {
				continue
			}
			t := h.at(col+dc, row+dr)
			j.Value += t.Score
			if t.Flank {
				j.Flankable = true
			}
		}
	}
	for _, u := range w.Reg.Units() {
		if u.Alive() && u.Faction == FactionBlue && inBlock(u.Pos()) {
			j.BlueUnits++
			j.TotalHP += u.Health
			j.TotalDPS += u.DPS()
		}
	}
	for _, o := range w.Reg.Objectives() {
		if o.Faction != FactionRed && inBlock(o.Pos) {
			j.Objectives++
		}
	}
	return j
}

// Recompute rebuilds the job list from the current heatmap.
func (m *AIJobsManager) Recompute(w *World) {
	m.jobs = m.jobs[:0]
	h := w.Heatmap
	for _, i := range topTiles(h, jobCount, jobSpacing) {
		j := aggregate(w, h, i%h.cols, i/h.cols)
		out, err := vm.Run(m.program, j.env())
		if err != nil {
			w.log.Warn().Err(err).Str("rule", m.Rule).Msg("job admission failed")
			continue
		}
		if ok, _ := out.(bool); ok {
			m.jobs = append(m.jobs, j)
		}
	}
	w.logGlobal("ai", "jobs", fmt.Sprintf("%d jobs", len(m.jobs)), float64(len(m.jobs)))
}
