package core

import (
	"sort"
	"time"

	"legion/pkg/ai"
	"legion/pkg/mathx"
	"legion/pkg/targeting"
)

// UnitSave 单位实体的持久化记录
type UnitSave struct {
	ID        int64      `json:"id"`
	FactionID int64      `json:"faction_id"`
	Type      string     `json:"type"`
	Position  mathx.Vec3 `json:"position"`
	Health    float64    `json:"health"`
}

// FactionSave 阵营的持久化记录
type FactionSave struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	XP   float64 `json:"xp"`
}

// SaveState 整个世界的存档：实体状态 + 决策引擎快照
type SaveState struct {
	Tick      int64               `json:"tick"`
	SavedAt   time.Time           `json:"saved_at"`
	Units     []UnitSave          `json:"units"`
	Factions  []FactionSave       `json:"factions"`
	Manager   ai.ManagerSnapshot  `json:"manager"`
	Targeting targeting.Snapshot  `json:"targeting"`
}

// Save 导出存档
func (w *World) Save() *SaveState {
	st := &SaveState{
		Tick:      w.tick,
		SavedAt:   time.Now(),
		Manager:   w.mgr.Snapshot(),
		Targeting: w.targeting.Snapshot(),
	}
	for _, id := range w.sortedUnitIDs() {
		u := w.units[id]
		st.Units = append(st.Units, UnitSave{
			ID:        u.ID,
			FactionID: u.FactionID,
			Type:      u.Type,
			Position:  u.Position,
			Health:    u.Health,
		})
	}
	for _, f := range w.factions {
		st.Factions = append(st.Factions, FactionSave{ID: f.ID, Name: f.Name, XP: f.XP})
	}
	return st
}

// Load 从存档恢复。字段损坏时按文档默认回退：
// 类型未知回退 soldier，血量越界夹到 [0, MaxHealth]。
func (w *World) Load(st *SaveState) {
	if st == nil {
		return
	}

	w.tick = st.Tick
	w.units = make(map[int64]*Unit, len(st.Units))
	w.factions = make(map[int64]*Faction, len(st.Factions))

	for _, fs := range st.Factions {
		w.factions[fs.ID] = &Faction{ID: fs.ID, Name: fs.Name, XP: fs.XP}
	}

	maxID := int64(0)
	for _, us := range st.Units {
		u := NewUnit(us.ID, us.FactionID, us.Type, us.Position)
		if us.Health > 0 {
			u.Health = mathx.Clamp(us.Health, 0, u.MaxHealth)
		}
		w.units[us.ID] = u
		if us.ID > maxID {
			maxID = us.ID
		}
	}
	w.nextUnitID = maxID

	w.mgr.Restore(st.Manager)
	w.targeting.Restore(st.Targeting)
}

// UnitState 对外广播的单位状态视图
type UnitState struct {
	ID            int64      `json:"id"`
	FactionID     int64      `json:"faction_id"`
	Type          string     `json:"type"`
	Position      mathx.Vec3 `json:"position"`
	HealthPercent float64    `json:"health_percent"`
	Target        int64      `json:"target"`
	Tree          string     `json:"tree"`
	Status        string     `json:"status"`
}

// FactionView 对外广播的阵营状态视图
type FactionView struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	XP   float64 `json:"xp"`
	Mode string  `json:"mode"`
}

// FactionViews 当前所有阵营的状态视图（按 id 升序）
func (w *World) FactionViews() []FactionView {
	ids := make([]int64, 0, len(w.factions))
	for id := range w.factions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]FactionView, 0, len(ids))
	for _, id := range ids {
		f := w.factions[id]
		out = append(out, FactionView{
			ID:   f.ID,
			Name: f.Name,
			XP:   f.XP,
			Mode: w.targeting.FactionMode(id).Mode.String(),
		})
	}
	return out
}

// UnitStates 当前所有单位的状态视图（按 id 升序）
func (w *World) UnitStates() []UnitState {
	out := make([]UnitState, 0, len(w.units))
	for _, id := range w.sortedUnitIDs() {
		u := w.units[id]
		tree, _ := w.mgr.TreeOf(id)
		status, _ := w.mgr.LastStatus(id)
		out = append(out, UnitState{
			ID:            u.ID,
			FactionID:     u.FactionID,
			Type:          u.Type,
			Position:      u.Position,
			HealthPercent: u.HealthPercent(),
			Target:        w.targeting.GetTarget(id),
			Tree:          tree,
			Status:        status.String(),
		})
	}
	return out
}
