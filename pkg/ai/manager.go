package ai

import (
	"math/rand"
	"sort"

	"legion/pkg/events"
	"legion/pkg/mathx"
)

// decisionQuantum 上次决策时间戳的量化粒度（秒）。
// tick 级随机数生成器由单位种子与量化时间戳共同派生。
const decisionQuantum = 0.05

// Manager 分布式行为树管理器。
// 持有所有单位的树实例、黑板与确定性种子，每个模拟 tick 逐单位
// 执行一次决策。树模板在单位间共享，注册时按单位深克隆叶子，
// 保证可变叶子状态不会跨单位泄漏。
type Manager struct {
	templates map[string]Node
	units     map[int64]*unitRecord
	bus       *events.Bus
	clock     float64
}

type unitRecord struct {
	id           int64
	factionID    int64
	treeName     string
	root         Node
	bb           *Blackboard
	lastStatus   Status
	lastDecision float64
	seed         uint64
}

func NewManager(bus *events.Bus) *Manager {
	return &Manager{
		templates: make(map[string]Node),
		units:     make(map[int64]*unitRecord),
		bus:       bus,
	}
}

// RegisterTemplate 注册可复用的树模板（原型）
func (m *Manager) RegisterTemplate(name string, root Node) {
	if name == "" || root == nil {
		return
	}
	m.templates[name] = root
}

func (m *Manager) HasTemplate(name string) bool {
	_, ok := m.templates[name]
	return ok
}

// TemplateNames 已注册模板名（升序）
func (m *Manager) TemplateNames() []string {
	names := make([]string, 0, len(m.templates))
	for name := range m.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register 注册单位：模板未知或单位已存在时返回 false。
// 成功时克隆一棵专属树并建好默认黑板。
func (m *Manager) Register(unitID, factionID int64, template string) bool {
	tpl, ok := m.templates[template]
	if !ok {
		return false
	}
	if _, exists := m.units[unitID]; exists {
		return false
	}

	bb := NewBlackboard()
	bb.SetVector(KeyPosition, mathx.Vec3{})
	bb.SetInt(KeyTargetID, NoTarget)
	bb.SetVector(KeyTargetPosition, mathx.Vec3{})
	bb.SetFloat(KeyTargetDistance, 0)
	bb.SetFloat(KeyTargetHealthRatio, 0)
	bb.SetCandidates(KeyPotentialTargets, nil)
	bb.SetCandidates(KeyNearbyAllies, nil)
	bb.SetFloat(KeyHealthPercent, 1)
	bb.SetBool(KeyInCombat, false)
	bb.SetFloat(KeyAttackRange, DefaultAttackRange)
	bb.SetFloat(KeyAllySafeDistance, DefaultAllySafeDistance)
	bb.SetInt(KeyWaypointIndex, 0)

	m.units[unitID] = &unitRecord{
		id:        unitID,
		factionID: factionID,
		treeName:  template,
		root:      tpl.Clone(),
		bb:        bb,
		seed:      defaultSeed(unitID),
	}
	return true
}

// Unregister 注销单位；在途的 Running 状态直接丢弃
func (m *Manager) Unregister(unitID int64) {
	delete(m.units, unitID)
}

func (m *Manager) HasUnit(unitID int64) bool {
	_, ok := m.units[unitID]
	return ok
}

// Units 当前所有单位 id（升序，保证逐 tick 遍历顺序确定）
func (m *Manager) Units() []int64 {
	ids := make([]int64, 0, len(m.units))
	for id := range m.units {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *Manager) UnitCount() int {
	return len(m.units)
}

// Blackboard 取单位黑板；未知单位返回 nil
func (m *Manager) Blackboard(unitID int64) *Blackboard {
	if rec, ok := m.units[unitID]; ok {
		return rec.bb
	}
	return nil
}

// UpdateBlackboard 对单个单位黑板做读改写；未知单位返回 false
func (m *Manager) UpdateBlackboard(unitID int64, fn func(bb *Blackboard)) bool {
	rec, ok := m.units[unitID]
	if !ok {
		return false
	}
	fn(rec.bb)
	return true
}

// ForEachBlackboard 按 id 升序批量读改写所有单位黑板，
// 供模拟层每 tick 喂入实时数据。
func (m *Manager) ForEachBlackboard(fn func(unitID int64, bb *Blackboard)) {
	for _, id := range m.Units() {
		fn(id, m.units[id].bb)
	}
}

// FactionOf 单位所属阵营
func (m *Manager) FactionOf(unitID int64) (int64, bool) {
	if rec, ok := m.units[unitID]; ok {
		return rec.factionID, true
	}
	return 0, false
}

// TreeOf 单位当前挂载的树模板名
func (m *Manager) TreeOf(unitID int64) (string, bool) {
	if rec, ok := m.units[unitID]; ok {
		return rec.treeName, true
	}
	return "", false
}

// LastStatus 单位最近一次决策结果
func (m *Manager) LastStatus(unitID int64) (Status, bool) {
	if rec, ok := m.units[unitID]; ok {
		return rec.lastStatus, true
	}
	return StatusFailure, false
}

// Clock 管理器累计的模拟时间（秒）
func (m *Manager) Clock() float64 {
	return m.clock
}

// Execute 执行一次单位决策。
// 由单位种子异或量化时间戳派生 tick 级随机数生成器，临时挂到黑板上，
// 从根执行整棵树，记录状态与时间戳，再用生成器的下一次抽取推进种子，
// 使同一起始种子重放出完全相同的序列。未知单位返回 Failure。
func (m *Manager) Execute(unitID int64) Status {
	rec, ok := m.units[unitID]
	if !ok {
		return StatusFailure
	}

	q := uint64(rec.lastDecision / decisionQuantum)
	rng := rand.New(rand.NewSource(int64(rec.seed ^ q*0x9E3779B97F4A7C15)))
	rec.bb.SetRand(KeyRand, rng)

	status := rec.root.Tick(rec.bb)

	rec.lastStatus = status
	rec.lastDecision = m.clock
	rec.seed = rng.Uint64()

	m.bus.Publish(events.Event{
		Kind: events.KindDecisionMade,
		Decision: &events.DecisionMade{
			Unit:   unitID,
			Tree:   rec.treeName,
			Status: status.String(),
		},
	})
	return status
}

// Update 推进管理器时钟并按 id 升序执行所有单位
func (m *Manager) Update(delta float64) {
	m.clock += delta
	for _, id := range m.Units() {
		m.units[id].bb.SetFloat(KeyDelta, delta)
		m.Execute(id)
	}
}

// SwitchTree 切换单位的树模板。未知单位或模板返回 false；
// 黑板保留不重置，只替换树实例（在途 Running 状态作废）。
func (m *Manager) SwitchTree(unitID int64, template string) bool {
	rec, ok := m.units[unitID]
	if !ok {
		return false
	}
	tpl, ok := m.templates[template]
	if !ok {
		return false
	}

	old := rec.treeName
	rec.root = tpl.Clone()
	rec.treeName = template

	m.bus.Publish(events.Event{
		Kind: events.KindTreeSwitched,
		TreeSwitched: &events.TreeSwitched{
			Unit:    unitID,
			OldTree: old,
			NewTree: template,
		},
	})
	return true
}

// UnitSnapshot 单位的持久化记录
type UnitSnapshot struct {
	ID         int64            `json:"id"`
	FactionID  int64            `json:"faction_id"`
	TreeName   string           `json:"tree_name"`
	LastStatus string           `json:"last_status"`
	Seed       uint64           `json:"deterministic_seed"`
	Blackboard map[string]Value `json:"blackboard"`
}

// ManagerSnapshot 管理器整体快照
type ManagerSnapshot struct {
	Units []UnitSnapshot `json:"units"`
}

// Snapshot 导出所有单位记录（按 id 升序）。
// 黑板里的函数/生成器条目在导出时剥除。
func (m *Manager) Snapshot() ManagerSnapshot {
	snap := ManagerSnapshot{Units: make([]UnitSnapshot, 0, len(m.units))}
	for _, id := range m.Units() {
		rec := m.units[id]
		snap.Units = append(snap.Units, UnitSnapshot{
			ID:         rec.id,
			FactionID:  rec.factionID,
			TreeName:   rec.treeName,
			LastStatus: rec.lastStatus.String(),
			Seed:       rec.seed,
			Blackboard: rec.bb.Snapshot(),
		})
	}
	return snap
}

// Restore 用快照整体替换单位表。模板未知的记录跳过；
// 种子缺失时按单位 id 重新派生；状态无法识别时回退 Success。
// 上次决策时间戳不持久化，恢复后从当前时钟重新计。
func (m *Manager) Restore(snap ManagerSnapshot) {
	m.units = make(map[int64]*unitRecord, len(snap.Units))
	for _, u := range snap.Units {
		tpl, ok := m.templates[u.TreeName]
		if !ok {
			continue
		}
		bb := NewBlackboard()
		bb.Restore(u.Blackboard)
		seed := u.Seed
		if seed == 0 {
			seed = defaultSeed(u.ID)
		}
		m.units[u.ID] = &unitRecord{
			id:         u.ID,
			factionID:  u.FactionID,
			treeName:   u.TreeName,
			root:       tpl.Clone(),
			bb:         bb,
			lastStatus: ParseStatus(u.LastStatus),
			seed:       seed,
		}
	}
}

// defaultSeed 由单位 id 派生初始确定性种子（splitmix64 风格混淆）
func defaultSeed(unitID int64) uint64 {
	x := uint64(unitID) + 0x9E3779B97F4A7C15
	x = (x ^ (x >> 30)) * 0xBF58476D1CE4E5B9
	x = (x ^ (x >> 27)) * 0x94D049BB133111EB
	return x ^ (x >> 31)
}
