package targeting

import "testing"

func TestFactionModeThresholds(t *testing.T) {
	cases := []struct {
		xp   float64
		want Mode
	}{
		{0, ModeNearest},
		{99.9, ModeNearest},
		{100, ModeThreatBased},
		{299.9, ModeThreatBased},
		{300, ModePriority},
		{10000, ModePriority},
	}
	for _, tc := range cases {
		fm := NewFactionMode()
		fm.UpdateFromXP(tc.xp)
		if fm.Mode != tc.want {
			t.Fatalf("xp %.1f: mode = %v, want %v", tc.xp, fm.Mode, tc.want)
		}
	}
}

func TestFactionModeNeverRegresses(t *testing.T) {
	fm := NewFactionMode()
	if !fm.UpdateFromXP(500) {
		t.Fatal("no evolution reported")
	}
	if fm.Mode != ModePriority {
		t.Fatalf("mode = %v, want priority", fm.Mode)
	}

	// 经验回落不得降级
	if fm.UpdateFromXP(0) {
		t.Fatal("mode regressed on xp drop")
	}
	if fm.Mode != ModePriority {
		t.Fatalf("mode = %v after xp drop, want priority", fm.Mode)
	}
}

func TestFactionModeWeightsSwitchWithMode(t *testing.T) {
	fm := NewFactionMode()
	if fm.NearestWeight != 1 || fm.ThreatWeight != 0 || fm.PriorityWeight != 0 {
		t.Fatalf("nearest weights = %v/%v/%v", fm.NearestWeight, fm.ThreatWeight, fm.PriorityWeight)
	}

	fm.UpdateFromXP(150)
	if fm.NearestWeight != 0.3 || fm.ThreatWeight != 0.5 || fm.PriorityWeight != 0.2 {
		t.Fatalf("threat weights = %v/%v/%v", fm.NearestWeight, fm.ThreatWeight, fm.PriorityWeight)
	}

	fm.UpdateFromXP(400)
	if fm.NearestWeight != 0.2 || fm.ThreatWeight != 0.3 || fm.PriorityWeight != 0.5 {
		t.Fatalf("priority weights = %v/%v/%v", fm.NearestWeight, fm.ThreatWeight, fm.PriorityWeight)
	}
}

func TestModeEventStrings(t *testing.T) {
	if ModeNearest.Reason() != "nearest" || ModeThreatBased.Reason() != "threat" || ModePriority.Reason() != "priority" {
		t.Fatal("reason strings drifted")
	}
	if ModeThreatBased.String() != "threat_based" {
		t.Fatalf("String = %q", ModeThreatBased.String())
	}
}
