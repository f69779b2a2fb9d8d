package core

// 模拟配置
const (
	// TPS 默认模拟帧率
	TPS            = 30
	FixedDeltaTime = 1.0 / TPS
)

// UnitStats 单位类型基础属性
type UnitStats struct {
	MaxHealth      float64
	Speed          float64 // 单位/秒
	AttackRange    float64
	AttackDamage   float64
	AttackCooldown float64 // 秒
	PriorityWeight float64 // 索敌优先级里的类型权重
}

// DefaultUnitType 未知类型的回退
const DefaultUnitType = "soldier"

// unitCatalog 内置单位类型表
var unitCatalog = map[string]UnitStats{
	"drone":     {MaxHealth: 40, Speed: 6, AttackRange: 5, AttackDamage: 4, AttackCooldown: 0.8, PriorityWeight: 0.3},
	"soldier":   {MaxHealth: 80, Speed: 4, AttackRange: 6, AttackDamage: 8, AttackCooldown: 1.0, PriorityWeight: 0.5},
	"tank":      {MaxHealth: 200, Speed: 2.5, AttackRange: 8, AttackDamage: 15, AttackCooldown: 2.0, PriorityWeight: 0.6},
	"artillery": {MaxHealth: 60, Speed: 2, AttackRange: 18, AttackDamage: 20, AttackCooldown: 3.0, PriorityWeight: 0.9},
	"engineer":  {MaxHealth: 50, Speed: 3.5, AttackRange: 4, AttackDamage: 3, AttackCooldown: 1.0, PriorityWeight: 0.8},
}

// StatsForType 查单位类型属性；未知类型回退到 soldier
func StatsForType(unitType string) UnitStats {
	if s, ok := unitCatalog[unitType]; ok {
		return s
	}
	return unitCatalog[DefaultUnitType]
}

// UnitTypes 所有内置类型名
func UnitTypes() []string {
	return []string{"drone", "soldier", "tank", "artillery", "engineer"}
}

// 阵营经验奖励
const (
	xpPerDamage = 0.5
	xpPerKill   = 25.0
)

// combatDuration 受击后维持交战状态的时长（秒）
const combatDuration = 3.0
