package targeting

// Mode 阵营索敌模式，随阵营经验逐级升级
type Mode int

const (
	ModeNearest Mode = iota
	ModeThreatBased
	ModePriority
)

func (m Mode) String() string {
	switch m {
	case ModeNearest:
		return "nearest"
	case ModeThreatBased:
		return "threat_based"
	case ModePriority:
		return "priority"
	default:
		return "unknown"
	}
}

// Reason 事件里携带的选中原因字符串
func (m Mode) Reason() string {
	switch m {
	case ModeThreatBased:
		return "threat"
	case ModePriority:
		return "priority"
	default:
		return "nearest"
	}
}

// 模式升级的经验阈值
const (
	ThreatModeXP   = 100.0
	PriorityModeXP = 300.0
)

// FactionMode 单个阵营的索敌模式与打分权重三元组。
// 模式与权重总是一起切换。
type FactionMode struct {
	Mode           Mode    `json:"mode"`
	NearestWeight  float64 `json:"nearest_weight"`
	ThreatWeight   float64 `json:"threat_weight"`
	PriorityWeight float64 `json:"priority_weight"`
}

// NewFactionMode 初始模式：最近优先
func NewFactionMode() *FactionMode {
	f := &FactionMode{}
	f.apply(ModeNearest)
	return f
}

// UpdateFromXP 按阵营经验推进模式。只前进不回退：
// 即使上报的经验下降也不降级。返回是否发生了升级。
func (f *FactionMode) UpdateFromXP(xp float64) bool {
	next := ModeNearest
	switch {
	case xp >= PriorityModeXP:
		next = ModePriority
	case xp >= ThreatModeXP:
		next = ModeThreatBased
	}
	if next <= f.Mode {
		return false
	}
	f.apply(next)
	return true
}

// apply 原子切换模式与权重
func (f *FactionMode) apply(m Mode) {
	f.Mode = m
	switch m {
	case ModeThreatBased:
		f.NearestWeight, f.ThreatWeight, f.PriorityWeight = 0.3, 0.5, 0.2
	case ModePriority:
		f.NearestWeight, f.ThreatWeight, f.PriorityWeight = 0.2, 0.3, 0.5
	default:
		f.NearestWeight, f.ThreatWeight, f.PriorityWeight = 1, 0, 0
	}
}
