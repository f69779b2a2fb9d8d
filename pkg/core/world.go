package core

import (
	"sort"

	"legion/pkg/ai"
	"legion/pkg/events"
	"legion/pkg/mathx"
	"legion/pkg/targeting"
)

// World 单线程模拟世界。
// 驱动行为树管理器与索敌系统：每 tick 先跑索敌，再把实时数据喂进
// 各单位黑板，执行决策，最后消费 move_target 与攻击意图。
// 整条流水线运行在一个模拟 goroutine 上，没有并发写者。
type World struct {
	units    map[int64]*Unit
	factions map[int64]*Faction

	mgr       *ai.Manager
	targeting *targeting.System
	bus       *events.Bus

	tick       int64
	nextUnitID int64
}

func NewWorld(bus *events.Bus) *World {
	w := &World{
		units:    make(map[int64]*Unit),
		factions: make(map[int64]*Faction),
		bus:      bus,
	}
	w.mgr = ai.NewManager(bus)
	ai.RegisterBuiltinTemplates(w.mgr)

	w.targeting = targeting.NewSystem(w, bus)
	for _, t := range UnitTypes() {
		w.targeting.Priority().SetTypeWeight(t, StatsForType(t).PriorityWeight)
	}
	return w
}

// Manager 行为树管理器
func (w *World) Manager() *ai.Manager {
	return w.mgr
}

// Targeting 索敌系统
func (w *World) Targeting() *targeting.System {
	return w.targeting
}

// Tick 当前模拟 tick
func (w *World) Tick() int64 {
	return w.tick
}

func (w *World) UnitCount() int {
	return len(w.units)
}

// AddFaction 建立阵营；重复 id 为 no-op
func (w *World) AddFaction(id int64, name string) {
	if _, ok := w.factions[id]; ok {
		return
	}
	w.factions[id] = &Faction{ID: id, Name: name}
}

// SpawnUnit 生成单位并接入决策引擎。
// 树模板未知时返回 (0, false)，不产生任何副作用。
func (w *World) SpawnUnit(factionID int64, unitType string, pos mathx.Vec3, template string) (int64, bool) {
	id := w.nextUnitID + 1
	if !w.mgr.Register(id, factionID, template) {
		return 0, false
	}
	w.nextUnitID = id

	u := NewUnit(id, factionID, unitType, pos)
	w.units[id] = u
	w.targeting.RegisterUnit(id)

	w.mgr.UpdateBlackboard(id, func(bb *ai.Blackboard) {
		bb.SetVector(ai.KeyPosition, pos)
		bb.SetFloat(ai.KeyAttackRange, u.AttackRange)
	})
	return id, true
}

// RemoveUnit 移除单位并注销决策状态
func (w *World) RemoveUnit(id int64) {
	if _, ok := w.units[id]; !ok {
		return
	}
	delete(w.units, id)
	w.mgr.Unregister(id)
	w.targeting.UnregisterUnit(id)
}

// SetPatrolRoute 写入单位的巡逻路线
func (w *World) SetPatrolRoute(id int64, waypoints []mathx.Vec3) bool {
	return w.mgr.UpdateBlackboard(id, func(bb *ai.Blackboard) {
		route := make([]ai.Candidate, 0, len(waypoints))
		for _, p := range waypoints {
			route = append(route, ai.Candidate{Position: p})
		}
		bb.SetCandidates(ai.KeyPatrolWaypoints, route)
		bb.SetInt(ai.KeyWaypointIndex, 0)
	})
}

// ApplyDamage 伤害结算：扣血、记威胁、发经验、刷新交战状态。
// 未知攻击者或受害者为 no-op。
func (w *World) ApplyDamage(attacker, victim int64, damage float64) {
	a, ok := w.units[attacker]
	if !ok {
		return
	}
	v, ok := w.units[victim]
	if !ok {
		return
	}

	v.Health -= damage
	v.combatTimer = combatDuration
	a.combatTimer = combatDuration

	w.targeting.Threat().RecordDamage(attacker, damage, a.DPS())

	w.mgr.UpdateBlackboard(victim, func(bb *ai.Blackboard) {
		bb.SetVector(ai.KeyDodgeThreatPos, a.Position)
	})

	if f, ok := w.factions[a.FactionID]; ok {
		f.AddXP(damage * xpPerDamage)
		if v.Health <= 0 {
			f.AddXP(xpPerKill)
		}
	}
	if v.Health <= 0 {
		w.RemoveUnit(victim)
	}
}

// Update 推进一个模拟 tick
func (w *World) Update(delta float64) {
	w.tick++
	w.bus.SetTick(w.tick)

	w.targeting.Update(delta)
	w.feedBlackboards()
	w.mgr.Update(delta)
	w.applyDecisions(delta)
	w.targeting.Threat().Update(delta)
}

// feedBlackboards 把战场实时数据喂进每个单位的黑板
func (w *World) feedBlackboards() {
	visRange := w.targeting.VisibilityRange()

	w.mgr.ForEachBlackboard(func(id int64, bb *ai.Blackboard) {
		u, ok := w.units[id]
		if !ok {
			return
		}

		bb.SetVector(ai.KeyPosition, u.Position)
		bb.SetFloat(ai.KeyHealthPercent, u.HealthPercent())

		targetID := w.targeting.GetTarget(id)
		bb.SetInt(ai.KeyTargetID, targetID)
		if t, ok := w.units[targetID]; ok {
			bb.SetVector(ai.KeyTargetPosition, t.Position)
			bb.SetFloat(ai.KeyTargetDistance, u.Position.DistanceTo(t.Position))
			bb.SetFloat(ai.KeyTargetHealthRatio, t.HealthPercent())
		} else {
			bb.SetFloat(ai.KeyTargetHealthRatio, 0)
		}

		enemies := w.GetEnemiesInRange(u.Position, visRange, u.FactionID)
		cands := make([]ai.Candidate, 0, len(enemies))
		for _, e := range enemies {
			t, ok := w.units[e]
			if !ok {
				continue
			}
			cands = append(cands, ai.Candidate{
				TargetID: e,
				Position: t.Position,
				Distance: u.Position.DistanceTo(t.Position),
				Priority: w.targeting.Priority().CalculatePriority(e, u.Position),
			})
		}
		bb.SetCandidates(ai.KeyPotentialTargets, cands)

		allies := make([]ai.Candidate, 0)
		for _, aid := range w.sortedUnitIDs() {
			o := w.units[aid]
			if aid == id || o.FactionID != u.FactionID {
				continue
			}
			if u.Position.DistanceTo(o.Position) > visRange {
				continue
			}
			allies = append(allies, ai.Candidate{
				TargetID: aid,
				Position: o.Position,
				Distance: u.Position.DistanceTo(o.Position),
			})
		}
		bb.SetCandidates(ai.KeyNearbyAllies, allies)

		bb.SetBool(ai.KeyInCombat, u.InCombat() || targetID != ai.NoTarget)
	})
}

// applyDecisions 消费决策产物：移动与攻击意图
func (w *World) applyDecisions(delta float64) {
	for _, id := range w.mgr.Units() {
		u, ok := w.units[id]
		if !ok {
			continue
		}
		bb := w.mgr.Blackboard(id)
		if bb == nil {
			continue
		}

		if bb.Has(ai.KeyMoveTarget) {
			mv := bb.VectorOr(ai.KeyMoveTarget, u.Position)
			dir := mv.Sub(u.Position)
			if dist := dir.Length(); dist > 1e-6 {
				step := u.Speed * delta
				if step > dist {
					step = dist
				}
				u.Position = u.Position.Add(dir.Normalize().Scale(step))
			}
			bb.Delete(ai.KeyMoveTarget)
		}

		if bb.Has(ai.KeyAttackTargetID) {
			tid := bb.IntOr(ai.KeyAttackTargetID, ai.NoTarget)
			bb.Delete(ai.KeyAttackTargetID)
			if t, ok := w.units[tid]; ok && u.cooldown <= 0 &&
				u.Position.DistanceTo(t.Position) <= u.AttackRange {
				u.cooldown = u.AttackCooldown
				w.ApplyDamage(id, tid, u.AttackDamage)
			}
		}

		u.cooldown -= delta
		if u.cooldown < 0 {
			u.cooldown = 0
		}
		u.combatTimer -= delta
		if u.combatTimer < 0 {
			u.combatTimer = 0
		}
	}
}

func (w *World) sortedUnitIDs() []int64 {
	ids := make([]int64, 0, len(w.units))
	for id := range w.units {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// === WorldQuery 能力接口实现 ===

func (w *World) GetUnitPosition(id int64) mathx.Vec3 {
	if u, ok := w.units[id]; ok {
		return u.Position
	}
	return mathx.Unknown()
}

func (w *World) GetUnitFaction(id int64) int64 {
	if u, ok := w.units[id]; ok {
		return u.FactionID
	}
	return 0
}

func (w *World) GetFactionXP(faction int64) float64 {
	if f, ok := w.factions[faction]; ok {
		return f.XP
	}
	return 0
}

// GetEnemiesInRange 可见半径内的敌对单位（按 id 升序，保证评估顺序确定）
func (w *World) GetEnemiesInRange(pos mathx.Vec3, radius float64, faction int64) []int64 {
	var out []int64
	for _, id := range w.sortedUnitIDs() {
		u := w.units[id]
		if u.FactionID == faction {
			continue
		}
		if pos.DistanceTo(u.Position) <= radius {
			out = append(out, id)
		}
	}
	return out
}

func (w *World) GetUnitType(id int64) string {
	if u, ok := w.units[id]; ok {
		return u.Type
	}
	return ""
}

func (w *World) GetUnitHealthPercent(id int64) float64 {
	if u, ok := w.units[id]; ok {
		return u.HealthPercent()
	}
	return 0
}
