package targeting

import "legion/pkg/mathx"

const (
	// defaultTypeWeight 未配置类型的默认权重
	defaultTypeWeight = 0.5
	// 类型权重与残血程度在优先级里的占比
	typeWeightShare = 0.6
	healthShare     = 0.4
)

// PriorityTargeter 基于单位类型与残血程度的优先级打分。
// 血越少分越高，鼓励补刀。类型权重按单位缓存，注销时清除。
type PriorityTargeter struct {
	world       WorldQuery
	typeWeights map[string]float64
	cache       map[int64]float64
}

func NewPriorityTargeter(world WorldQuery) *PriorityTargeter {
	return &PriorityTargeter{
		world:       world,
		typeWeights: make(map[string]float64),
		cache:       make(map[int64]float64),
	}
}

// SetTypeWeight 配置某个单位类型的权重，越界值在入口处夹紧
func (p *PriorityTargeter) SetTypeWeight(unitType string, w float64) {
	p.typeWeights[unitType] = mathx.Clamp(w, 0, 1)
}

// CalculatePriority 计算候选目标的优先级，返回 [0,1]
func (p *PriorityTargeter) CalculatePriority(id int64, observer mathx.Vec3) float64 {
	_ = observer

	tw, ok := p.cache[id]
	if !ok {
		tw = defaultTypeWeight
		if w, exists := p.typeWeights[p.world.GetUnitType(id)]; exists {
			tw = w
		}
		p.cache[id] = tw
	}

	health := mathx.Clamp(p.world.GetUnitHealthPercent(id), 0, 1)
	return mathx.Clamp(tw*typeWeightShare+(1-health)*healthShare, 0, 1)
}

// ClearUnit 注销单位时清除其缓存
func (p *PriorityTargeter) ClearUnit(id int64) {
	delete(p.cache, id)
}
