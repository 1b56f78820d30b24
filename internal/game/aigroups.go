package game

import (
	"fmt"
	"sort"
)

// GroupStats is the per-tick combat summary of an AI group.
type GroupStats struct {
	Alive       int
	HP          float64
	DPS         float64
	Centroid    Vec
	AvgDistress float64
	Engaged     int
	Kills       int
	Losses      int
}

// AIGroup is a set of same-faction units acting under one job.
type AIGroup struct {
	ID      int
	Faction Faction
	Members []int
	Job     *AIJob
	Stats   GroupStats
}

// AIGroupManager owns every AI group and keeps unit GroupID fields paired
// with group membership.
type AIGroupManager struct {
	nextID int
	groups map[int]*AIGroup
}

// NewAIGroupManager creates an empty manager.
func NewAIGroupManager() *AIGroupManager {
	return &AIGroupManager{nextID: 1, groups: make(map[int]*AIGroup)}
}

// Group returns the group with id, or nil.
func (m *AIGroupManager) Group(id int) *AIGroup { return m.groups[id] }

// Groups returns every group in id order.
func (m *AIGroupManager) Groups() []*AIGroup {
	ids := make([]int, 0, len(m.groups))
	for id := range m.groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*AIGroup, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.groups[id])
	}
	return out
}

// CreateGroup forms a group from live, non-crew units of one faction. Units
// leave any previous group. It returns 0 when no unit qualifies.
func (m *AIGroupManager) CreateGroup(w *World, ids []int) int {
	var members []*Unit
	faction := FactionNone
	for _, id := range ids {
		u := w.Reg.Unit(id)
		if u == nil || !u.Alive() || u.CrewOf != 0 {
			continue
		}
		if faction == FactionNone {
			faction = u.Faction
		}
		if u.Faction != faction {
			continue
		}
		members = append(members, u)
	}
	if len(members) == 0 {
		return 0
	}
	g := &AIGroup{ID: m.nextID, Faction: faction}
	m.nextID++
	m.groups[g.ID] = g
	for _, u := range members {
		m.removeMember(u, false)
		u.GroupID = g.ID
		g.Members = append(g.Members, u.ID)
	}
	m.refreshGroup(w, g)
	w.logGlobal("ai", "group_create", fmt.Sprintf("G%d %s %d units", g.ID, faction, len(members)), float64(len(members)))
	return g.ID
}

// Disband removes a group and clears its members' GroupID.
func (m *AIGroupManager) Disband(w *World, id int) bool {
	g := m.groups[id]
	if g == nil {
		return false
	}
	for _, uid := range g.Members {
		if u := w.Reg.Unit(uid); u != nil && u.GroupID == id {
			u.GroupID = 0
		}
	}
	delete(m.groups, id)
	return true
}

// AssignJob sends a group at a job, all members sharing one flow field.
func (m *AIGroupManager) AssignJob(w *World, id int, job AIJob) bool {
	g := m.groups[id]
	if g == nil {
		return false
	}
	j := job
	g.Job = &j
	flow := w.flowTo(job.Center)
	for _, uid := range g.Members {
		u := w.Reg.Unit(uid)
		if u == nil || !u.Alive() || u.panicking {
			continue
		}
		u.retreating = false
		u.mover.SetTarget(job.Center, flow)
	}
	w.logGlobal("ai", "group_assign", fmt.Sprintf("G%d -> tile %d,%d value %.0f", g.ID, job.Col, job.Row, job.Value), job.Value)
	return true
}

// removeMember drops u from its group. lost counts it as a casualty.
func (m *AIGroupManager) removeMember(u *Unit, lost bool) {
	g := m.groups[u.GroupID]
	u.GroupID = 0
	if g == nil {
		return
	}
	for i, id := range g.Members {
		if id == u.ID {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			break
		}
	}
	if lost {
		g.Stats.Losses++
	}
}

// creditKill bumps the kill count of the killer's group.
func (m *AIGroupManager) creditKill(u *Unit) {
	if g := m.groups[u.GroupID]; g != nil {
		g.Stats.Kills++
	}
}

// Refresh recomputes every group's stats.
func (m *AIGroupManager) Refresh(w *World) {
	for _, g := range m.groups {
		m.refreshGroup(w, g)
	}
}

func (m *AIGroupManager) refreshGroup(w *World, g *AIGroup) {
	kills, losses := g.Stats.Kills, g.Stats.Losses
	s := GroupStats{Kills: kills, Losses: losses}
	var sum Vec
	for _, id := range g.Members {
		u := w.Reg.Unit(id)
		if u == nil || !u.Alive() {
			continue
		}
		s.Alive++
		s.HP += u.Health
		s.DPS += u.DPS()
		s.AvgDistress += u.Distress
		sum = sum.Add(u.Pos())
		if u.combat.Locked.Valid() {
			s.Engaged++
		}
	}
	if s.Alive > 0 {
		s.Centroid = sum.Scale(1 / float64(s.Alive))
		s.AvgDistress /= float64(s.Alive)
	}
	g.Stats = s
}

// Coordinator dispatches idle groups of one faction to the best job no
// other group holds.
type Coordinator struct {
	Faction Faction
}

// Dispatch runs after every job rescore.
func (c *Coordinator) Dispatch(w *World) {
	jobs := w.Jobs.Jobs()
	if len(jobs) == 0 {
		return
	}
	taken := make(map[[2]int]bool)
	var idle []*AIGroup
	for _, g := range w.Groups.Groups() {
		if g.Faction != c.Faction || g.Stats.Alive == 0 {
			continue
		}
		if g.Job != nil && jobListed(jobs, *g.Job) {
			taken[[2]int{g.Job.Col, g.Job.Row}] = true
			continue
		}
		idle = append(idle, g)
	}
	order := make([]int, len(jobs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return jobs[order[a]].Value > jobs[order[b]].Value })
	for _, g := range idle {
		for _, i := range order {
			key := [2]int{jobs[i].Col, jobs[i].Row}
			if taken[key] {
				continue
			}
			taken[key] = true
			w.Groups.AssignJob(w, g.ID, jobs[i])
			break
		}
	}
}

func jobListed(jobs []AIJob, j AIJob) bool {
	for _, o := range jobs {
		if o.Col == j.Col && o.Row == j.Row {
			return true
		}
	}
	return false
}
