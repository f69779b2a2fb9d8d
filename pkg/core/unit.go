package core

import "legion/pkg/mathx"

// Unit 战场单位（纯逻辑，不包含渲染）
type Unit struct {
	ID        int64
	FactionID int64
	Type      string
	Position  mathx.Vec3
	Health    float64
	MaxHealth float64

	Speed          float64
	AttackRange    float64
	AttackDamage   float64
	AttackCooldown float64

	cooldown    float64 // 剩余攻击冷却
	combatTimer float64 // 剩余交战状态时长
}

// NewUnit 按类型表创建单位
func NewUnit(id, factionID int64, unitType string, pos mathx.Vec3) *Unit {
	stats := StatsForType(unitType)
	return &Unit{
		ID:             id,
		FactionID:      factionID,
		Type:           unitType,
		Position:       pos,
		Health:         stats.MaxHealth,
		MaxHealth:      stats.MaxHealth,
		Speed:          stats.Speed,
		AttackRange:    stats.AttackRange,
		AttackDamage:   stats.AttackDamage,
		AttackCooldown: stats.AttackCooldown,
	}
}

// HealthPercent 血量比例 [0,1]
func (u *Unit) HealthPercent() float64 {
	if u.MaxHealth <= 0 {
		return 0
	}
	return mathx.Clamp(u.Health/u.MaxHealth, 0, 1)
}

// InCombat 最近是否受击/交战
func (u *Unit) InCombat() bool {
	return u.combatTimer > 0
}

// DPS 持续输出能力，作为威胁加成上报
func (u *Unit) DPS() float64 {
	if u.AttackCooldown <= 0 {
		return u.AttackDamage
	}
	return u.AttackDamage / u.AttackCooldown
}
