package ai

import (
	"math"

	"legion/pkg/mathx"
)

// 动作库默认参数。对应黑板键缺失时的回退值。
const (
	DefaultAttackRange      = 5.0
	DefaultAllySafeDistance = 4.0
	DefaultDodgeDuration    = 0.5
	DefaultDodgeDistance    = 3.0
	DefaultDelta            = 1.0 / 30
	// WaypointReachDistance 视为到达巡逻点的距离
	WaypointReachDistance = 2.0
)

// === 动作叶子 ===

// FindTarget 索敌：当前目标仍然存活时保持不换；否则从候选列表里
// 选优先级最高者，同分取先出现的。没有候选时 Failure。
type FindTarget struct{}

func (a *FindTarget) Name() string { return "find_target" }

func (a *FindTarget) Clone() Node { return &FindTarget{} }

func (a *FindTarget) Tick(bb *Blackboard) Status {
	bb.SetString(KeyAction, a.Name())

	if bb.IntOr(KeyTargetID, NoTarget) != NoTarget {
		if bb.FloatOr(KeyTargetHealthRatio, 0) > 0 {
			return StatusSuccess
		}
		// 目标已死亡，清掉再找
		bb.SetInt(KeyTargetID, NoTarget)
	}

	cands := bb.CandidatesOr(KeyPotentialTargets)
	if len(cands) == 0 {
		return StatusFailure
	}

	best := cands[0]
	for _, c := range cands[1:] {
		if c.Priority > best.Priority {
			best = c
		}
	}

	bb.SetInt(KeyTargetID, best.TargetID)
	bb.SetVector(KeyTargetPosition, best.Position)
	bb.SetFloat(KeyTargetDistance, best.Distance)
	return StatusSuccess
}

// FindAlly 在队友列表里找欧氏距离最近者；列表为空时 Failure
type FindAlly struct{}

func (a *FindAlly) Name() string { return "find_ally" }

func (a *FindAlly) Clone() Node { return &FindAlly{} }

func (a *FindAlly) Tick(bb *Blackboard) Status {
	bb.SetString(KeyAction, a.Name())

	allies := bb.CandidatesOr(KeyNearbyAllies)
	if len(allies) == 0 {
		return StatusFailure
	}

	pos := bb.VectorOr(KeyPosition, mathx.Vec3{})
	best := allies[0]
	bestDist := pos.DistanceTo(best.Position)
	for _, c := range allies[1:] {
		if d := pos.DistanceTo(c.Position); d < bestDist {
			best, bestDist = c, d
		}
	}

	bb.SetInt(KeyNearestAllyID, best.TargetID)
	bb.SetVector(KeyNearestAllyPos, best.Position)
	bb.SetFloat(KeyNearestAllyDist, bestDist)
	return StatusSuccess
}

// MoveToTarget 朝目标移动：没有目标 Failure，进入攻击距离 Success，
// 否则写入 move_target 并 Running。
type MoveToTarget struct{}

func (a *MoveToTarget) Name() string { return "move_to_target" }

func (a *MoveToTarget) Clone() Node { return &MoveToTarget{} }

func (a *MoveToTarget) Tick(bb *Blackboard) Status {
	bb.SetString(KeyAction, a.Name())

	if bb.IntOr(KeyTargetID, NoTarget) == NoTarget {
		return StatusFailure
	}

	dist := bb.FloatOr(KeyTargetDistance, math.MaxFloat64)
	if dist <= bb.FloatOr(KeyAttackRange, DefaultAttackRange) {
		return StatusSuccess
	}

	bb.SetVector(KeyMoveTarget, bb.VectorOr(KeyTargetPosition, bb.VectorOr(KeyPosition, mathx.Vec3{})))
	return StatusRunning
}

// MoveToAlly 朝最近队友靠拢：没有记录队友位置 Failure，
// 进入安全距离 Success，否则 Running。
type MoveToAlly struct{}

func (a *MoveToAlly) Name() string { return "move_to_ally" }

func (a *MoveToAlly) Clone() Node { return &MoveToAlly{} }

func (a *MoveToAlly) Tick(bb *Blackboard) Status {
	bb.SetString(KeyAction, a.Name())

	if !bb.Has(KeyNearestAllyPos) {
		return StatusFailure
	}

	pos := bb.VectorOr(KeyPosition, mathx.Vec3{})
	allyPos := bb.VectorOr(KeyNearestAllyPos, pos)
	if pos.DistanceTo(allyPos) <= bb.FloatOr(KeyAllySafeDistance, DefaultAllySafeDistance) {
		return StatusSuccess
	}

	bb.SetVector(KeyMoveTarget, allyPos)
	return StatusRunning
}

// Attack 攻击当前目标：没有目标或超出攻击距离 Failure；
// 否则标记被攻击的目标 id 并 Success。
type Attack struct{}

func (a *Attack) Name() string { return "attack" }

func (a *Attack) Clone() Node { return &Attack{} }

func (a *Attack) Tick(bb *Blackboard) Status {
	bb.SetString(KeyAction, a.Name())

	target := bb.IntOr(KeyTargetID, NoTarget)
	if target == NoTarget {
		return StatusFailure
	}
	if bb.FloatOr(KeyTargetDistance, math.MaxFloat64) > bb.FloatOr(KeyAttackRange, DefaultAttackRange) {
		return StatusFailure
	}

	bb.SetInt(KeyAttackTargetID, target)
	return StatusSuccess
}

// Patrol 巡逻：路点为空时原地待机（Running）；否则在进入 2.0 单位内时
// 前进到 (i+1) mod N 号路点。永远返回 Running。
// 路点索引记录在黑板上，叶子本身无状态。
type Patrol struct{}

func (a *Patrol) Name() string { return "patrol" }

func (a *Patrol) Clone() Node { return &Patrol{} }

func (a *Patrol) Tick(bb *Blackboard) Status {
	bb.SetString(KeyAction, a.Name())

	pos := bb.VectorOr(KeyPosition, mathx.Vec3{})
	wps := bb.CandidatesOr(KeyPatrolWaypoints)
	if len(wps) == 0 {
		// 没有路线：原地待机
		bb.SetVector(KeyMoveTarget, pos)
		return StatusRunning
	}

	idx := int(bb.IntOr(KeyWaypointIndex, 0))
	if idx < 0 || idx >= len(wps) {
		idx = 0
	}
	if pos.DistanceTo(wps[idx].Position) <= WaypointReachDistance {
		idx = (idx + 1) % len(wps)
		bb.SetInt(KeyWaypointIndex, int64(idx))
	}

	bb.SetVector(KeyMoveTarget, wps[idx].Position)
	return StatusRunning
}

// Dodge 闪避：开始时取威胁方向的水平垂线并随机左右镜像，
// 按 delta 倒计时固定时长，期间 Running，计时结束 Success。
// 倒计时与方向是实例状态，树共享给多个单位前必须 Clone。
type Dodge struct {
	Duration float64 // 0 时使用 DefaultDodgeDuration
	Distance float64 // 0 时使用 DefaultDodgeDistance

	remaining float64
	dir       mathx.Vec3
	active    bool
}

func (a *Dodge) Name() string { return "dodge" }

func (a *Dodge) Clone() Node {
	return &Dodge{Duration: a.Duration, Distance: a.Distance}
}

func (a *Dodge) Tick(bb *Blackboard) Status {
	bb.SetString(KeyAction, a.Name())

	pos := bb.VectorOr(KeyPosition, mathx.Vec3{})
	if !a.active {
		threat := bb.VectorOr(KeyDodgeThreatPos, pos)
		perp := pos.Sub(threat).PerpendicularXZ()
		if rng := bb.RandOr(KeyRand); rng != nil && rng.Intn(2) == 0 {
			perp = perp.Scale(-1)
		}
		a.dir = perp
		a.remaining = a.Duration
		if a.remaining <= 0 {
			a.remaining = DefaultDodgeDuration
		}
		a.active = true
	}

	dist := a.Distance
	if dist <= 0 {
		dist = DefaultDodgeDistance
	}
	bb.SetVector(KeyMoveTarget, pos.Add(a.dir.Scale(dist)))

	a.remaining -= bb.FloatOr(KeyDelta, DefaultDelta)
	if a.remaining <= 1e-9 {
		a.active = false
		return StatusSuccess
	}
	return StatusRunning
}
