package targeting

import "legion/pkg/mathx"

// WorldQuery 外围模拟注入给决策核心的查询能力。
// 所有调用都必须同步返回，不做任何阻塞 I/O；
// 测试里用确定性假实现替代真实战场。
type WorldQuery interface {
	// GetUnitPosition 单位坐标；未知单位返回 mathx.Unknown() 哨兵
	GetUnitPosition(id int64) mathx.Vec3
	// GetUnitFaction 单位所属阵营
	GetUnitFaction(id int64) int64
	// GetFactionXP 阵营累计经验
	GetFactionXP(faction int64) float64
	// GetEnemiesInRange 指定位置可见半径内的敌对单位 id
	GetEnemiesInRange(pos mathx.Vec3, radius float64, faction int64) []int64
	// GetUnitType 单位类型标签
	GetUnitType(id int64) string
	// GetUnitHealthPercent 单位血量比例，取值 [0,1]
	GetUnitHealthPercent(id int64) float64
}
