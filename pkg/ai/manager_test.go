package ai

import (
	"testing"

	"legion/pkg/events"
	"legion/pkg/mathx"
)

func newTestManager() (*Manager, *events.Bus) {
	bus := events.NewBus()
	m := NewManager(bus)
	RegisterBuiltinTemplates(m)
	return m, bus
}

func TestRegisterRejectsUnknownTemplateAndDuplicate(t *testing.T) {
	m, _ := newTestManager()

	if m.Register(1, 1, "no-such-tree") {
		t.Fatal("registered with unknown template")
	}
	if !m.Register(1, 1, "assault") {
		t.Fatal("register failed")
	}
	if m.Register(1, 1, "assault") {
		t.Fatal("duplicate register succeeded")
	}
}

func TestRegisterSeedsDefaultBlackboard(t *testing.T) {
	m, _ := newTestManager()
	m.Register(1, 1, "assault")

	bb := m.Blackboard(1)
	if bb == nil {
		t.Fatal("no blackboard for registered unit")
	}
	if got := bb.IntOr(KeyTargetID, 0); got != NoTarget {
		t.Fatalf("target_id = %d, want sentinel %d", got, NoTarget)
	}
	if got := bb.FloatOr(KeyHealthPercent, 0); got != 1 {
		t.Fatalf("health_percent = %v, want 1", got)
	}
	if bb.BoolOr(KeyInCombat, true) {
		t.Fatal("in_combat defaulted true, want false")
	}
}

func TestCloneIsolatesLeafState(t *testing.T) {
	m, _ := newTestManager()
	m.Register(1, 1, "skirmish")
	m.Register(2, 1, "skirmish")

	// 单位 1 进入战斗并开始闪避
	m.UpdateBlackboard(1, func(bb *Blackboard) {
		bb.SetBool(KeyInCombat, true)
		bb.SetVector(KeyPosition, mathx.Vec3{})
		bb.SetVector(KeyDodgeThreatPos, mathx.Vec3{X: 1})
		bb.SetFloat(KeyDelta, 0.01)
	})
	if got := m.Execute(1); got != StatusRunning {
		t.Fatalf("unit 1 status = %v, want running (dodging)", got)
	}

	// 单位 2 此后才进入战斗：它的 Dodge 叶子必须从头计时
	m.UpdateBlackboard(2, func(bb *Blackboard) {
		bb.SetBool(KeyInCombat, true)
		bb.SetVector(KeyPosition, mathx.Vec3{})
		bb.SetVector(KeyDodgeThreatPos, mathx.Vec3{X: 1})
		bb.SetFloat(KeyDelta, 0.49) // 一次不够用完默认 0.5 秒
	})
	if got := m.Execute(2); got != StatusRunning {
		t.Fatalf("unit 2 status = %v, want running — shared leaf state leaked", got)
	}
}

func TestExecuteDeterministicReplay(t *testing.T) {
	run := func() []int64 {
		m, _ := newTestManager()
		m.Register(7, 1, "skirmish")
		m.UpdateBlackboard(7, func(bb *Blackboard) {
			bb.SetBool(KeyInCombat, true)
			bb.SetVector(KeyPosition, mathx.Vec3{})
			bb.SetVector(KeyDodgeThreatPos, mathx.Vec3{X: 1})
		})

		var moves []int64
		for i := 0; i < 40; i++ {
			m.Update(1.0 / 30)
			bb := m.Blackboard(7)
			mv := bb.VectorOr(KeyMoveTarget, mathx.Vec3{})
			// 闪避方向的镜像由确定性随机数决定，按符号记录
			switch {
			case mv.Z > 0:
				moves = append(moves, 1)
			case mv.Z < 0:
				moves = append(moves, -1)
			default:
				moves = append(moves, 0)
			}
		}
		return moves
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("replay diverged at tick %d: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestSwitchTreeKeepsBlackboard(t *testing.T) {
	m, bus := newTestManager()
	m.Register(1, 1, "assault")
	m.UpdateBlackboard(1, func(bb *Blackboard) {
		bb.SetFloat(KeyHealthPercent, 0.42)
	})

	if m.SwitchTree(1, "no-such-tree") {
		t.Fatal("switched to unknown template")
	}
	if !m.SwitchTree(1, "guard") {
		t.Fatal("switch failed")
	}

	if name, _ := m.TreeOf(1); name != "guard" {
		t.Fatalf("tree = %q, want guard", name)
	}
	if got := m.Blackboard(1).FloatOr(KeyHealthPercent, 0); got != 0.42 {
		t.Fatalf("blackboard reset on switch: health = %v", got)
	}

	var found bool
	for _, ev := range bus.Drain() {
		if ev.Kind == events.KindTreeSwitched && ev.TreeSwitched.NewTree == "guard" {
			found = true
		}
	}
	if !found {
		t.Fatal("no tree_switched event published")
	}
}

func TestManagerSnapshotRestore(t *testing.T) {
	m, _ := newTestManager()
	m.Register(1, 10, "assault")
	m.Register(2, 20, "guard")
	m.UpdateBlackboard(1, func(bb *Blackboard) {
		bb.SetFloat(KeyHealthPercent, 0.7)
		bb.SetInt(KeyTargetID, 2)
	})
	m.Update(1.0 / 30)

	snap := m.Snapshot()
	if len(snap.Units) != 2 {
		t.Fatalf("snapshot has %d units, want 2", len(snap.Units))
	}

	m2, _ := newTestManager()
	m2.Restore(snap)

	if m2.UnitCount() != 2 {
		t.Fatalf("restored %d units, want 2", m2.UnitCount())
	}
	if f, _ := m2.FactionOf(1); f != 10 {
		t.Fatalf("faction = %d, want 10", f)
	}
	if name, _ := m2.TreeOf(2); name != "guard" {
		t.Fatalf("tree = %q, want guard", name)
	}
	if got := m2.Blackboard(1).FloatOr(KeyHealthPercent, 0); got != 0.7 {
		t.Fatalf("health = %v, want 0.7", got)
	}
	if got := m2.Blackboard(1).IntOr(KeyTargetID, NoTarget); got != 2 {
		t.Fatalf("target = %d, want 2", got)
	}
}

func TestRestoreSkipsUnknownTemplate(t *testing.T) {
	m, _ := newTestManager()
	snap := ManagerSnapshot{Units: []UnitSnapshot{
		{ID: 1, TreeName: "assault"},
		{ID: 2, TreeName: "deleted-template"},
	}}
	m.Restore(snap)

	if !m.HasUnit(1) {
		t.Fatal("unit with known template dropped")
	}
	if m.HasUnit(2) {
		t.Fatal("unit with unknown template restored")
	}
}

func TestUpdatePublishesDecisionEvents(t *testing.T) {
	m, bus := newTestManager()
	m.Register(1, 1, "patrol")
	m.Update(1.0 / 30)

	var decisions int
	for _, ev := range bus.Drain() {
		if ev.Kind == events.KindDecisionMade {
			decisions++
			if ev.Decision.Tree != "patrol" {
				t.Fatalf("decision tree = %q, want patrol", ev.Decision.Tree)
			}
		}
	}
	if decisions != 1 {
		t.Fatalf("decision events = %d, want 1", decisions)
	}
}
