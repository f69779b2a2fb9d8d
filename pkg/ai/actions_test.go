package ai

import (
	"math"
	"math/rand"
	"testing"

	"legion/pkg/mathx"
)

func TestFindTargetKeepsLivingTarget(t *testing.T) {
	bb := NewBlackboard()
	bb.SetInt(KeyTargetID, 42)
	bb.SetFloat(KeyTargetHealthRatio, 0.3)
	bb.SetCandidates(KeyPotentialTargets, []Candidate{{TargetID: 99, Priority: 1}})

	if got := (&FindTarget{}).Tick(bb); got != StatusSuccess {
		t.Fatalf("status = %v, want success", got)
	}
	if got := bb.IntOr(KeyTargetID, NoTarget); got != 42 {
		t.Fatalf("target switched to %d, want to keep 42", got)
	}
}

func TestFindTargetReplacesDeadTarget(t *testing.T) {
	bb := NewBlackboard()
	bb.SetInt(KeyTargetID, 42)
	bb.SetFloat(KeyTargetHealthRatio, 0)
	bb.SetCandidates(KeyPotentialTargets, []Candidate{
		{TargetID: 5, Priority: 0.4},
		{TargetID: 6, Priority: 0.9},
		{TargetID: 7, Priority: 0.9}, // 同分，取先出现的 6
	})

	if got := (&FindTarget{}).Tick(bb); got != StatusSuccess {
		t.Fatalf("status = %v, want success", got)
	}
	if got := bb.IntOr(KeyTargetID, NoTarget); got != 6 {
		t.Fatalf("target = %d, want 6 (highest priority, first on tie)", got)
	}
}

func TestFindTargetNoCandidates(t *testing.T) {
	bb := NewBlackboard()
	bb.SetInt(KeyTargetID, NoTarget)

	if got := (&FindTarget{}).Tick(bb); got != StatusFailure {
		t.Fatalf("status = %v, want failure", got)
	}
	if got := bb.IntOr(KeyTargetID, 0); got != NoTarget {
		t.Fatalf("target = %d, want sentinel %d", got, NoTarget)
	}
}

func TestFindAllyPicksNearest(t *testing.T) {
	bb := NewBlackboard()
	bb.SetVector(KeyPosition, mathx.Vec3{})
	bb.SetCandidates(KeyNearbyAllies, []Candidate{
		{TargetID: 1, Position: mathx.Vec3{X: 10}},
		{TargetID: 2, Position: mathx.Vec3{X: 3}},
		{TargetID: 3, Position: mathx.Vec3{X: 7}},
	})

	if got := (&FindAlly{}).Tick(bb); got != StatusSuccess {
		t.Fatalf("status = %v, want success", got)
	}
	if got := bb.IntOr(KeyNearestAllyID, 0); got != 2 {
		t.Fatalf("nearest ally = %d, want 2", got)
	}
	if got := bb.FloatOr(KeyNearestAllyDist, 0); got != 3 {
		t.Fatalf("nearest distance = %v, want 3", got)
	}
}

func TestFindAllyEmptyList(t *testing.T) {
	bb := NewBlackboard()
	if got := (&FindAlly{}).Tick(bb); got != StatusFailure {
		t.Fatalf("status = %v, want failure", got)
	}
}

func TestMoveToTarget(t *testing.T) {
	// 没有目标
	bb := NewBlackboard()
	bb.SetInt(KeyTargetID, NoTarget)
	if got := (&MoveToTarget{}).Tick(bb); got != StatusFailure {
		t.Fatalf("no target: status = %v, want failure", got)
	}

	// 已在攻击距离内
	bb = NewBlackboard()
	bb.SetInt(KeyTargetID, 1)
	bb.SetFloat(KeyTargetDistance, 4)
	bb.SetFloat(KeyAttackRange, 5)
	if got := (&MoveToTarget{}).Tick(bb); got != StatusSuccess {
		t.Fatalf("in range: status = %v, want success", got)
	}

	// 距离外：写 move_target 并 Running
	bb = NewBlackboard()
	bb.SetInt(KeyTargetID, 1)
	bb.SetFloat(KeyTargetDistance, 20)
	bb.SetFloat(KeyAttackRange, 5)
	bb.SetVector(KeyTargetPosition, mathx.Vec3{X: 20})
	if got := (&MoveToTarget{}).Tick(bb); got != StatusRunning {
		t.Fatalf("out of range: status = %v, want running", got)
	}
	if got := bb.VectorOr(KeyMoveTarget, mathx.Vec3{}); got.X != 20 {
		t.Fatalf("move_target = %v, want target position", got)
	}
}

func TestMoveToAlly(t *testing.T) {
	bb := NewBlackboard()
	if got := (&MoveToAlly{}).Tick(bb); got != StatusFailure {
		t.Fatalf("no ally recorded: status = %v, want failure", got)
	}

	bb = NewBlackboard()
	bb.SetVector(KeyPosition, mathx.Vec3{})
	bb.SetVector(KeyNearestAllyPos, mathx.Vec3{X: 2})
	bb.SetFloat(KeyAllySafeDistance, 4)
	if got := (&MoveToAlly{}).Tick(bb); got != StatusSuccess {
		t.Fatalf("within safe distance: status = %v, want success", got)
	}

	bb.SetVector(KeyNearestAllyPos, mathx.Vec3{X: 9})
	if got := (&MoveToAlly{}).Tick(bb); got != StatusRunning {
		t.Fatalf("outside safe distance: status = %v, want running", got)
	}
}

func TestAttack(t *testing.T) {
	bb := NewBlackboard()
	bb.SetInt(KeyTargetID, NoTarget)
	if got := (&Attack{}).Tick(bb); got != StatusFailure {
		t.Fatalf("no target: status = %v, want failure", got)
	}

	bb = NewBlackboard()
	bb.SetInt(KeyTargetID, 3)
	bb.SetFloat(KeyTargetDistance, 10)
	bb.SetFloat(KeyAttackRange, 5)
	if got := (&Attack{}).Tick(bb); got != StatusFailure {
		t.Fatalf("out of range: status = %v, want failure", got)
	}
	if bb.Has(KeyAttackTargetID) {
		t.Fatal("attack intent written while out of range")
	}

	bb.SetFloat(KeyTargetDistance, 5)
	if got := (&Attack{}).Tick(bb); got != StatusSuccess {
		t.Fatalf("in range: status = %v, want success", got)
	}
	if got := bb.IntOr(KeyAttackTargetID, NoTarget); got != 3 {
		t.Fatalf("attack_target_id = %d, want 3", got)
	}
}

func TestPatrolIdlesWithoutRoute(t *testing.T) {
	bb := NewBlackboard()
	bb.SetVector(KeyPosition, mathx.Vec3{X: 5, Z: 2})

	if got := (&Patrol{}).Tick(bb); got != StatusRunning {
		t.Fatalf("status = %v, want running", got)
	}
	if got := bb.VectorOr(KeyMoveTarget, mathx.Vec3{}); got != (mathx.Vec3{X: 5, Z: 2}) {
		t.Fatalf("move_target = %v, want current position (idle in place)", got)
	}
}

func TestPatrolAdvancesWaypointOnArrival(t *testing.T) {
	bb := NewBlackboard()
	bb.SetCandidates(KeyPatrolWaypoints, []Candidate{
		{Position: mathx.Vec3{X: 0}},
		{Position: mathx.Vec3{X: 10}},
		{Position: mathx.Vec3{X: 20}},
	})
	bb.SetInt(KeyWaypointIndex, 2)
	bb.SetVector(KeyPosition, mathx.Vec3{X: 19}) // 距路点 2 在 2.0 内

	if got := (&Patrol{}).Tick(bb); got != StatusRunning {
		t.Fatalf("status = %v, want running", got)
	}
	// 末尾路点回绕到 0
	if got := bb.IntOr(KeyWaypointIndex, -1); got != 0 {
		t.Fatalf("waypoint index = %d, want wraparound to 0", got)
	}
	if got := bb.VectorOr(KeyMoveTarget, mathx.Vec3{}); got.X != 0 {
		t.Fatalf("move_target = %v, want waypoint 0", got)
	}
}

func TestDodgeRunsForCountedTicks(t *testing.T) {
	const delta = 1.0 / 30
	duration := 0.5
	wantTicks := int(math.Ceil(duration / delta)) // 15

	bb := NewBlackboard()
	bb.SetVector(KeyPosition, mathx.Vec3{})
	bb.SetVector(KeyDodgeThreatPos, mathx.Vec3{X: -1})
	bb.SetFloat(KeyDelta, delta)
	bb.SetRand(KeyRand, rand.New(rand.NewSource(7)))

	dodge := &Dodge{Duration: duration}
	ticks := 0
	for {
		ticks++
		status := dodge.Tick(bb)
		if status == StatusSuccess {
			break
		}
		if status != StatusRunning {
			t.Fatalf("tick %d: status = %v", ticks, status)
		}
		if ticks > wantTicks+1 {
			t.Fatalf("dodge still running after %d ticks", ticks)
		}
	}
	if ticks != wantTicks {
		t.Fatalf("dodge lasted %d ticks, want %d", ticks, wantTicks)
	}

	// 方向与威胁方向垂直
	move := bb.VectorOr(KeyMoveTarget, mathx.Vec3{})
	threatDir := mathx.Vec3{X: 1} // pos - threat
	dot := move.X*threatDir.X + move.Y*threatDir.Y + move.Z*threatDir.Z
	if math.Abs(dot) > 1e-9 {
		t.Fatalf("dodge direction not perpendicular to threat: move=%v dot=%v", move, dot)
	}
}

func TestDodgeCloneResetsState(t *testing.T) {
	bb := NewBlackboard()
	bb.SetVector(KeyPosition, mathx.Vec3{})
	bb.SetVector(KeyDodgeThreatPos, mathx.Vec3{Z: 1})
	bb.SetFloat(KeyDelta, 0.1)

	orig := &Dodge{Duration: 1.0}
	if got := orig.Tick(bb); got != StatusRunning {
		t.Fatalf("status = %v, want running", got)
	}

	clone := orig.Clone().(*Dodge)
	if clone.active || clone.remaining != 0 {
		t.Fatalf("clone inherited mutable state: active=%v remaining=%v", clone.active, clone.remaining)
	}
	if clone.Duration != 1.0 {
		t.Fatalf("clone lost config: duration=%v", clone.Duration)
	}
}

func TestActionsRecordLastAction(t *testing.T) {
	bb := NewBlackboard()
	(&Patrol{}).Tick(bb)
	if got := bb.StringOr(KeyAction, ""); got != "patrol" {
		t.Fatalf("action = %q, want patrol", got)
	}
}
