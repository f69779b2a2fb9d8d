package targeting

const (
	// defaultThreatDecay 威胁值每秒线性衰减量
	defaultThreatDecay = 5.0
	// dpsThreatWeight 攻击者持续输出能力对威胁的加成系数
	dpsThreatWeight = 0.5
)

type threatEntry struct {
	value float64
	dps   float64
}

// ThreatCalculator 威胁值计算器：按攻击者累积、随时间衰减。
// 进程级共享，但只在模拟 tick 内被写，无并发写者。
type ThreatCalculator struct {
	entries map[int64]*threatEntry
	decay   float64
}

func NewThreatCalculator() *ThreatCalculator {
	return &ThreatCalculator{
		entries: make(map[int64]*threatEntry),
		decay:   defaultThreatDecay,
	}
}

// RecordDamage 记录一次来自 attacker 的伤害；
// dps 是攻击者的持续输出能力，作为加成计入威胁。
func (t *ThreatCalculator) RecordDamage(attacker int64, damage, dps float64) {
	e, ok := t.entries[attacker]
	if !ok {
		e = &threatEntry{}
		t.entries[attacker] = e
	}
	e.value += damage + dps*dpsThreatWeight
	e.dps = dps
}

// Update 每 tick 衰减，耗尽的条目移除
func (t *ThreatCalculator) Update(delta float64) {
	for id, e := range t.entries {
		e.value -= t.decay * delta
		if e.value <= 0 {
			delete(t.entries, id)
		}
	}
}

// Threat 当前威胁值；未知单位为 0。
// 编排器在混合打分前会再除以 100 做归一。
func (t *ThreatCalculator) Threat(id int64) float64 {
	if e, ok := t.entries[id]; ok {
		return e.value
	}
	return 0
}

// Clear 清除指定攻击者的威胁条目
func (t *ThreatCalculator) Clear(id int64) {
	delete(t.entries, id)
}

func (t *ThreatCalculator) Len() int {
	return len(t.entries)
}
