package targeting

import (
	"math"
	"testing"

	"legion/pkg/mathx"
)

func TestPriorityFormula(t *testing.T) {
	w := newFakeWorld()
	w.types[1] = "tank"
	w.healths[1] = 0.25
	w.types[2] = "scout" // 未配置权重，走默认值
	w.healths[2] = 1.0

	p := NewPriorityTargeter(w)
	p.SetTypeWeight("tank", 1.0)

	if got := p.CalculatePriority(1, mathx.Vec3{}); math.Abs(got-0.9) > 1e-9 {
		t.Fatalf("tank priority = %v, want 0.9", got)
	}
	if got := p.CalculatePriority(2, mathx.Vec3{}); math.Abs(got-0.3) > 1e-9 {
		t.Fatalf("default-weight priority = %v, want 0.3", got)
	}
}

func TestPriorityTypeWeightCached(t *testing.T) {
	w := newFakeWorld()
	w.types[1] = "tank"
	w.healths[1] = 1.0

	p := NewPriorityTargeter(w)
	p.SetTypeWeight("tank", 1.0)
	if got := p.CalculatePriority(1, mathx.Vec3{}); math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("priority = %v, want 0.6", got)
	}

	// 权重改动对已缓存单位不生效，注销后重算
	p.SetTypeWeight("tank", 0.0)
	if got := p.CalculatePriority(1, mathx.Vec3{}); math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("cached priority = %v, want 0.6", got)
	}
	p.ClearUnit(1)
	if got := p.CalculatePriority(1, mathx.Vec3{}); got != 0 {
		t.Fatalf("recomputed priority = %v, want 0", got)
	}
}

func TestPriorityClampsHealth(t *testing.T) {
	w := newFakeWorld()
	w.types[1] = "soldier"
	w.healths[1] = -0.5 // 异常输入夹紧到 0

	p := NewPriorityTargeter(w)
	if got := p.CalculatePriority(1, mathx.Vec3{}); math.Abs(got-0.7) > 1e-9 {
		t.Fatalf("priority with clamped health = %v, want 0.7", got)
	}
}
