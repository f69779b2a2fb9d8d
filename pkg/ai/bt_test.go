package ai

import "testing"

// stubNode 固定返回某个状态，并统计被 tick 的次数
type stubNode struct {
	status Status
	ticks  int
}

func (n *stubNode) Name() string { return "stub" }

func (n *stubNode) Tick(bb *Blackboard) Status {
	n.ticks++
	return n.status
}

func (n *stubNode) Clone() Node { return &stubNode{status: n.status} }

func TestSelectorStopsAtFirstNonFailure(t *testing.T) {
	cases := []struct {
		name   string
		first  Status
		want   Status
		second int // 第二个子节点期望被 tick 的次数
	}{
		{"first success", StatusSuccess, StatusSuccess, 0},
		{"first running", StatusRunning, StatusRunning, 0},
		{"first failure", StatusFailure, StatusSuccess, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := &stubNode{status: tc.first}
			b := &stubNode{status: StatusSuccess}
			sel := &Selector{Children: []Node{a, b}}

			got := sel.Tick(NewBlackboard())
			if got != tc.want {
				t.Fatalf("status = %v, want %v", got, tc.want)
			}
			if b.ticks != tc.second {
				t.Fatalf("second child ticked %d times, want %d", b.ticks, tc.second)
			}
		})
	}
}

func TestSelectorAllFailure(t *testing.T) {
	sel := &Selector{Children: []Node{
		&stubNode{status: StatusFailure},
		&stubNode{status: StatusFailure},
	}}
	if got := sel.Tick(NewBlackboard()); got != StatusFailure {
		t.Fatalf("status = %v, want failure", got)
	}
}

func TestSequenceStopsAtFirstNonSuccess(t *testing.T) {
	cases := []struct {
		name   string
		first  Status
		want   Status
		second int
	}{
		{"first failure", StatusFailure, StatusFailure, 0},
		{"first running", StatusRunning, StatusRunning, 0},
		{"first success", StatusSuccess, StatusSuccess, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := &stubNode{status: tc.first}
			b := &stubNode{status: StatusSuccess}
			seq := &Sequence{Children: []Node{a, b}}

			got := seq.Tick(NewBlackboard())
			if got != tc.want {
				t.Fatalf("status = %v, want %v", got, tc.want)
			}
			if b.ticks != tc.second {
				t.Fatalf("second child ticked %d times, want %d", b.ticks, tc.second)
			}
		})
	}
}

func TestInverter(t *testing.T) {
	bb := NewBlackboard()

	if got := (&Inverter{Child: &stubNode{status: StatusSuccess}}).Tick(bb); got != StatusFailure {
		t.Fatalf("invert(success) = %v, want failure", got)
	}
	if got := (&Inverter{Child: &stubNode{status: StatusFailure}}).Tick(bb); got != StatusSuccess {
		t.Fatalf("invert(failure) = %v, want success", got)
	}
	if got := (&Inverter{Child: &stubNode{status: StatusRunning}}).Tick(bb); got != StatusRunning {
		t.Fatalf("invert(running) = %v, want running", got)
	}
	if got := (&Inverter{}).Tick(bb); got != StatusFailure {
		t.Fatalf("invert(nil) = %v, want failure", got)
	}
}

func TestKeyCondition(t *testing.T) {
	bb := NewBlackboard()
	cond := &KeyCondition{Key: KeyInCombat}

	if got := cond.Tick(bb); got != StatusFailure {
		t.Fatalf("missing key: status = %v, want failure", got)
	}
	bb.SetBool(KeyInCombat, true)
	if got := cond.Tick(bb); got != StatusSuccess {
		t.Fatalf("true key: status = %v, want success", got)
	}
	bb.SetBool(KeyInCombat, false)
	if got := cond.Tick(bb); got != StatusFailure {
		t.Fatalf("false key: status = %v, want failure", got)
	}
}

func TestParseStatusRoundTrip(t *testing.T) {
	for _, s := range []Status{StatusSuccess, StatusFailure, StatusRunning} {
		if got := ParseStatus(s.String()); got != s {
			t.Fatalf("ParseStatus(%q) = %v, want %v", s.String(), got, s)
		}
	}
	if got := ParseStatus("garbage"); got != StatusSuccess {
		t.Fatalf("ParseStatus(garbage) = %v, want success fallback", got)
	}
}
