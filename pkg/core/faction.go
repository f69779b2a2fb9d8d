package core

// Faction 阵营。经验由战斗结算累积；升级加成与所有权/入侵状态机
// 不在决策核心范围内，核心只读经验值。
type Faction struct {
	ID   int64
	Name string
	XP   float64
}

// AddXP 累加阵营经验（负数忽略）
func (f *Faction) AddXP(amount float64) {
	if amount <= 0 {
		return
	}
	f.XP += amount
}
