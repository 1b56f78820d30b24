package game

import (
	"container/heap"
	"math"
)

// FlowField is a per-goal direction grid. Every reachable cell stores its
// cumulative cost to the goal and a unit vector toward the neighbour that
// produced that cost, so the same field steers every unit converging on one
// goal. A field is immutable once computed; callers own its lifetime.
type FlowField struct {
	cols, rows       int
	cellSize         float64
	goalCol, goalRow int
	GoalX, GoalY     float64
	cost             []float64
	dir              []Vec
}

type flowNode struct {
	idx   int
	cost  float64
	index int // heap index
}

type flowQueue []*flowNode

func (q flowQueue) Len() int           { return len(q) }
func (q flowQueue) Less(i, j int) bool { return q[i].cost < q[j].cost }
func (q flowQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *flowQueue) Push(x interface{}) {
	n := x.(*flowNode)
	n.index = len(*q)
	*q = append(*q, n)
}
func (q *flowQueue) Pop() interface{} {
	old := *q
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*q = old[:len(old)-1]
	return n
}

var flowDirs = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// cellBlocked samples the cell centre plus one point in each quadrant.
func cellBlocked(t TerrainQuery, col, row int, cellSize float64) bool {
	cx := (float64(col) + 0.5) * cellSize
	cy := (float64(row) + 0.5) * cellSize
	q := cellSize / 4
	samples := [5][2]float64{
		{cx, cy},
		{cx - q, cy - q}, {cx + q, cy - q},
		{cx - q, cy + q}, {cx + q, cy + q},
	}
	for _, s := range samples {
		if impassable(t, s[0], s[1]) {
			return true
		}
	}
	return false
}

// ComputeFlowField runs Dijkstra backwards from the goal cell over an
// 8-connected grid (cardinal cost 1, diagonal sqrt2). It returns nil when the
// goal lies outside the map.
func ComputeFlowField(t TerrainQuery, mapW, mapH, cellSize, goalX, goalY float64) *FlowField {
	if goalX < 0 || goalY < 0 || goalX >= mapW || goalY >= mapH || cellSize <= 0 {
		return nil
	}
	cols := int(math.Ceil(mapW / cellSize))
	rows := int(math.Ceil(mapH / cellSize))
	ff := &FlowField{
		cols:     cols,
		rows:     rows,
		cellSize: cellSize,
		goalCol:  int(goalX / cellSize),
		goalRow:  int(goalY / cellSize),
		GoalX:    goalX,
		GoalY:    goalY,
		cost:     make([]float64, cols*rows),
		dir:      make([]Vec, cols*rows),
	}
	for i := range ff.cost {
		ff.cost[i] = math.Inf(1)
	}

	blocked := make([]bool, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			blocked[r*cols+c] = cellBlocked(t, c, r, cellSize)
		}
	}
	isBlocked := func(c, r int) bool {
		if c < 0 || r < 0 || c >= cols || r >= rows {
			return true
		}
		return blocked[r*cols+c]
	}

	goal := ff.goalRow*cols + ff.goalCol
	ff.cost[goal] = 0
	q := &flowQueue{{idx: goal}}
	heap.Init(q)
	done := make([]bool, cols*rows)

	for q.Len() > 0 {
		cur := heap.Pop(q).(*flowNode)
		if done[cur.idx] {
			continue
		}
		done[cur.idx] = true
		cc, cr := cur.idx%cols, cur.idx/cols

		for _, d := range flowDirs {
			nc, nr := cc+d[0], cr+d[1]
			if isBlocked(nc, nr) {
				continue
			}
			// No diagonal corner-cutting through blocked cells.
			if d[0] != 0 && d[1] != 0 {
				if isBlocked(cc+d[0], cr) || isBlocked(cc, cr+d[1]) {
					continue
				}
			}
			ni := nr*cols + nc
			if done[ni] {
				continue
			}
			step := 1.0
			if d[0] != 0 && d[1] != 0 {
				step = math.Sqrt2
			}
			nc2 := cur.cost + step
			if nc2 < ff.cost[ni] {
				ff.cost[ni] = nc2
				// The neighbour reaches the goal by stepping back onto cur.
				ff.dir[ni] = Vec{float64(-d[0]), float64(-d[1])}.Norm()
				heap.Push(q, &flowNode{idx: ni, cost: nc2})
			}
		}
	}
	return ff
}

func (ff *FlowField) cellOf(x, y float64) (int, bool) {
	if ff == nil || x < 0 || y < 0 {
		return 0, false
	}
	c := int(x / ff.cellSize)
	r := int(y / ff.cellSize)
	if c >= ff.cols || r >= ff.rows {
		return 0, false
	}
	return r*ff.cols + c, true
}

// Direction returns the unit step direction toward the goal at (x,y). ok is
// false when the point is out of bounds or its cell was never reached. The
// goal cell itself returns a zero vector.
func (ff *FlowField) Direction(x, y float64) (Vec, bool) {
	i, ok := ff.cellOf(x, y)
	if !ok || math.IsInf(ff.cost[i], 1) {
		return Vec{}, false
	}
	return ff.dir[i], true
}

// Cost returns the cumulative cost to the goal at (x,y), or +Inf.
func (ff *FlowField) Cost(x, y float64) float64 {
	i, ok := ff.cellOf(x, y)
	if !ok {
		return math.Inf(1)
	}
	return ff.cost[i]
}

// CellCenter returns the world centre of a grid cell.
func (ff *FlowField) CellCenter(col, row int) (float64, float64) {
	return (float64(col) + 0.5) * ff.cellSize, (float64(row) + 0.5) * ff.cellSize
}

// Dims returns the grid size in cells.
func (ff *FlowField) Dims() (int, int) { return ff.cols, ff.rows }

// GoalCell returns the grid coordinates of the goal.
func (ff *FlowField) GoalCell() (int, int) { return ff.goalCol, ff.goalRow }

// CellCost returns the cost stored for a grid cell, or +Inf.
func (ff *FlowField) CellCost(col, row int) float64 {
	if col < 0 || row < 0 || col >= ff.cols || row >= ff.rows {
		return math.Inf(1)
	}
	return ff.cost[row*ff.cols+col]
}

// CellDirection returns the direction stored for a grid cell.
func (ff *FlowField) CellDirection(col, row int) Vec {
	if col < 0 || row < 0 || col >= ff.cols || row >= ff.rows {
		return Vec{}
	}
	return ff.dir[row*ff.cols+col]
}
