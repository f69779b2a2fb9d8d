package targeting

import (
	"sort"
	"time"

	"legion/pkg/events"
	"legion/pkg/mathx"
)

// NoTarget 目标槽位的空哨兵
const NoTarget int64 = -1

const (
	// 索敌刷新频率的允许区间（Hz），设置时夹紧
	MinUpdateHz     = 15.0
	MaxUpdateHz     = 60.0
	DefaultUpdateHz = 30.0

	// 可见半径的允许区间
	MinVisibilityRange     = 1.0
	MaxVisibilityRange     = 500.0
	DefaultVisibilityRange = 30.0

	// UpdateBudget 单轮索敌的硬性墙钟预算。
	// 单个单位的更新一旦开始总会做完，预算只决定是否再启动下一个。
	UpdateBudget = 3 * time.Millisecond

	// nearCaptureDistance 距离小于该值时最近分直接取 1
	nearCaptureDistance = 1.0
)

// System 索敌编排器。
// 自带固定频率累加器，与外部可变步长解耦；每轮先刷新各阵营模式，
// 再在时间预算内对持槽单位轮转重算目标。轮转游标跨轮保留：
// 上一轮因预算被顺延的单位在下一轮最先处理，没有单位会被饿死。
type System struct {
	world    WorldQuery
	threat   *ThreatCalculator
	priority *PriorityTargeter
	bus      *events.Bus

	targets map[int64]int64
	order   []int64
	cursor  int

	factions map[int64]*FactionMode

	interval        float64
	accumulator     float64
	visibilityRange float64
	budget          time.Duration

	// now 可注入的时钟，测试里用来模拟预算耗尽
	now func() time.Time
}

func NewSystem(world WorldQuery, bus *events.Bus) *System {
	return &System{
		world:           world,
		threat:          NewThreatCalculator(),
		priority:        NewPriorityTargeter(world),
		bus:             bus,
		targets:         make(map[int64]int64),
		factions:        make(map[int64]*FactionMode),
		interval:        1 / DefaultUpdateHz,
		visibilityRange: DefaultVisibilityRange,
		budget:          UpdateBudget,
		now:             time.Now,
	}
}

// Threat 暴露威胁计算器，供模拟层在伤害结算时记录
func (s *System) Threat() *ThreatCalculator {
	return s.threat
}

// Priority 暴露优先级打分器，供配置类型权重
func (s *System) Priority() *PriorityTargeter {
	return s.priority
}

// SetUpdateFrequency 设置刷新频率，夹紧到 [15,60] Hz
func (s *System) SetUpdateFrequency(hz float64) {
	hz = mathx.Clamp(hz, MinUpdateHz, MaxUpdateHz)
	s.interval = 1 / hz
}

// SetVisibilityRange 设置可见半径，越界值在入口处夹紧
func (s *System) SetVisibilityRange(r float64) {
	s.visibilityRange = mathx.Clamp(r, MinVisibilityRange, MaxVisibilityRange)
}

// VisibilityRange 当前可见半径
func (s *System) VisibilityRange() float64 {
	return s.visibilityRange
}

// RegisterUnit 为单位开一个目标槽位
func (s *System) RegisterUnit(id int64) {
	if _, ok := s.targets[id]; ok {
		return
	}
	s.targets[id] = NoTarget
	s.order = append(s.order, id)
}

// UnregisterUnit 注销单位：清槽位、清优先级缓存
func (s *System) UnregisterUnit(id int64) {
	if _, ok := s.targets[id]; !ok {
		return
	}
	delete(s.targets, id)
	s.priority.ClearUnit(id)
	for i, uid := range s.order {
		if uid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			if s.cursor > i {
				s.cursor--
			}
			break
		}
	}
	if len(s.order) == 0 {
		s.cursor = 0
	} else {
		s.cursor %= len(s.order)
	}
}

// GetTarget 单位当前目标；没有目标或未知单位返回 -1
func (s *System) GetTarget(unit int64) int64 {
	if t, ok := s.targets[unit]; ok {
		return t
	}
	return NoTarget
}

// ForceTarget 绕过打分强制指定目标，原因记为 "forced"。
// 单位还没有槽位时顺手开一个。
func (s *System) ForceTarget(unit, target int64) {
	if _, ok := s.targets[unit]; !ok {
		s.RegisterUnit(unit)
	}
	s.targets[unit] = target
	s.bus.Publish(events.Event{
		Kind: events.KindTargetSelected,
		TargetSelected: &events.TargetSelected{
			Unit:   unit,
			Target: target,
			Reason: "forced",
		},
	})
}

// FactionMode 当前阵营模式（只读视图）；未知阵营返回初始模式
func (s *System) FactionMode(faction int64) FactionMode {
	if fm, ok := s.factions[faction]; ok {
		return *fm
	}
	return *NewFactionMode()
}

// Update 累积外部步长，按固定间隔触发索敌轮
func (s *System) Update(delta float64) {
	s.accumulator += delta
	// 长停顿后不补课：积压超过一轮就丢，避免更新风暴
	if s.accumulator > s.interval*4 {
		s.accumulator = s.interval
	}
	for s.accumulator+1e-12 >= s.interval {
		s.accumulator -= s.interval
		s.runPass()
	}
}

// runPass 执行一轮索敌
func (s *System) runPass() {
	s.refreshModes()
	if len(s.order) == 0 {
		return
	}

	start := s.now()
	for processed := 0; processed < len(s.order); processed++ {
		if s.now().Sub(start) > s.budget {
			// 预算耗尽：剩余单位顺延到下一轮，游标停在断点
			break
		}
		id := s.order[s.cursor%len(s.order)]
		s.cursor = (s.cursor + 1) % len(s.order)
		s.updateUnit(id)
	}
}

// refreshModes 按当前阵营经验刷新所有已知阵营的模式
func (s *System) refreshModes() {
	for _, id := range s.order {
		f := s.world.GetUnitFaction(id)
		if _, ok := s.factions[f]; !ok {
			s.factions[f] = NewFactionMode()
		}
	}
	for f, fm := range s.factions {
		if fm.UpdateFromXP(s.world.GetFactionXP(f)) {
			s.bus.Publish(events.Event{
				Kind: events.KindTargetingModeEvolved,
				ModeEvolved: &events.ModeEvolved{
					Faction: f,
					Mode:    fm.Mode.String(),
				},
			})
		}
	}
}

// updateUnit 重算单个单位的目标
func (s *System) updateUnit(id int64) {
	pos := s.world.GetUnitPosition(id)
	if pos.IsUnknown() {
		// 位置未知：本轮跳过，不动现有目标
		return
	}

	faction := s.world.GetUnitFaction(id)
	fm, ok := s.factions[faction]
	if !ok {
		fm = NewFactionMode()
		s.factions[faction] = fm
	}

	current := s.targets[id]
	candidates := s.world.GetEnemiesInRange(pos, s.visibilityRange, faction)

	best := NoTarget
	bestScore := -1.0
	for _, c := range candidates {
		cpos := s.world.GetUnitPosition(c)
		if cpos.IsUnknown() {
			continue
		}
		d := pos.DistanceTo(cpos)

		nearest := mathx.Clamp(1-d/s.visibilityRange, 0, 1)
		if d < nearCaptureDistance {
			nearest = 1
		}
		threatScore := s.threat.Threat(c) / 100
		prioScore := s.priority.CalculatePriority(c, pos)

		total := nearest*fm.NearestWeight + threatScore*fm.ThreatWeight + prioScore*fm.PriorityWeight
		// 平分保留先遇到的候选（稳定而非按分数的平手规则）
		if total > bestScore {
			best, bestScore = c, total
		}
	}

	if best == NoTarget {
		if current != NoTarget {
			s.targets[id] = NoTarget
			s.bus.Publish(events.Event{
				Kind: events.KindTargetLost,
				TargetLost: &events.TargetLost{
					Unit:      id,
					OldTarget: current,
				},
			})
		}
		return
	}

	if best != current {
		s.targets[id] = best
		s.bus.Publish(events.Event{
			Kind: events.KindTargetSelected,
			TargetSelected: &events.TargetSelected{
				Unit:   id,
				Target: best,
				Reason: fm.Mode.Reason(),
			},
		})
	}
}

// Snapshot 目标表与阵营模式的快照
type Snapshot struct {
	Targets  map[int64]int64       `json:"targets"`
	Factions map[int64]FactionMode `json:"factions"`
}

func (s *System) Snapshot() Snapshot {
	snap := Snapshot{
		Targets:  make(map[int64]int64, len(s.targets)),
		Factions: make(map[int64]FactionMode, len(s.factions)),
	}
	for id, t := range s.targets {
		snap.Targets[id] = t
	}
	for f, fm := range s.factions {
		snap.Factions[f] = *fm
	}
	return snap
}

// Restore 从快照恢复目标表与阵营模式。
// 轮转游标重置到环首；缺失字段按空表处理。
func (s *System) Restore(snap Snapshot) {
	s.targets = make(map[int64]int64, len(snap.Targets))
	s.order = s.order[:0]
	for id, t := range snap.Targets {
		s.targets[id] = t
		s.order = append(s.order, id)
	}
	sort.Slice(s.order, func(i, j int) bool { return s.order[i] < s.order[j] })
	s.cursor = 0

	s.factions = make(map[int64]*FactionMode, len(snap.Factions))
	for f, fm := range snap.Factions {
		copied := fm
		s.factions[f] = &copied
	}
}
