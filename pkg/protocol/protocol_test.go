package protocol

import (
	"strings"
	"testing"

	"legion/pkg/events"
)

func TestPacketRoundTrip(t *testing.T) {
	pkt, err := NewForceTargetPacket(7, 42)
	if err != nil {
		t.Fatalf("NewForceTargetPacket: %v", err)
	}
	data, err := MarshalPacket(pkt)
	if err != nil {
		t.Fatalf("MarshalPacket: %v", err)
	}

	decoded, err := UnmarshalPacket(data)
	if err != nil {
		t.Fatalf("UnmarshalPacket: %v", err)
	}
	if decoded.Type != TypeForceTarget {
		t.Fatalf("type = %q", decoded.Type)
	}
	msg, err := ParseForceTarget(decoded)
	if err != nil {
		t.Fatalf("ParseForceTarget: %v", err)
	}
	if msg.UnitID != 7 || msg.TargetID != 42 {
		t.Fatalf("msg = %+v", msg)
	}
}

func TestUnmarshalPacketRejectsBadInput(t *testing.T) {
	if _, err := UnmarshalPacket([]byte("not json")); err == nil {
		t.Fatal("garbage accepted")
	}
	// 缺 type 字段的合法 JSON 也要拒绝
	if _, err := UnmarshalPacket([]byte(`{"payload":{}}`)); err == nil {
		t.Fatal("packet without type accepted")
	}
}

func TestParseRejectsTypeMismatch(t *testing.T) {
	pkt, _ := NewPingPacket(123)
	if _, err := ParseHello(pkt); err == nil {
		t.Fatal("type mismatch accepted")
	}
	if _, err := ParsePing(pkt); err != nil {
		t.Fatalf("matching parse failed: %v", err)
	}
}

func TestWelcomePacketCarriesSession(t *testing.T) {
	pkt, err := NewWelcomePacket(true, "", 3, "token-abc", 30)
	if err != nil {
		t.Fatalf("NewWelcomePacket: %v", err)
	}
	w, err := ParseWelcome(pkt)
	if err != nil {
		t.Fatalf("ParseWelcome: %v", err)
	}
	if !w.Success || w.ClientID != 3 || w.SessionToken != "token-abc" || w.TPS != 30 {
		t.Fatalf("welcome = %+v", w)
	}

	// 拒绝响应省略可选字段
	pkt, _ = NewWelcomePacket(false, "房间已满", 0, "", 0)
	if strings.Contains(string(pkt.Payload), "client_id") {
		t.Fatalf("refusal payload carries empty fields: %s", pkt.Payload)
	}
}

func TestCoreEventToProtoMapping(t *testing.T) {
	cases := []struct {
		name string
		ev   events.Event
		want EventMsg
	}{
		{
			name: "target_selected",
			ev: events.Event{
				Kind: events.KindTargetSelected, Tick: 5,
				TargetSelected: &events.TargetSelected{Unit: 1, Target: 2, Reason: "threat"},
			},
			want: EventMsg{Kind: "target_selected", Tick: 5, Unit: 1, Target: 2, Reason: "threat"},
		},
		{
			name: "target_lost",
			ev: events.Event{
				Kind: events.KindTargetLost, Tick: 6,
				TargetLost: &events.TargetLost{Unit: 1, OldTarget: 2},
			},
			want: EventMsg{Kind: "target_lost", Tick: 6, Unit: 1, Target: 2},
		},
		{
			name: "mode_evolved",
			ev: events.Event{
				Kind: events.KindTargetingModeEvolved, Tick: 7,
				ModeEvolved: &events.ModeEvolved{Faction: 2, Mode: "priority"},
			},
			want: EventMsg{Kind: "targeting_mode_evolved", Tick: 7, Faction: 2, Mode: "priority"},
		},
		{
			name: "tree_switched",
			ev: events.Event{
				Kind: events.KindTreeSwitched, Tick: 8,
				TreeSwitched: &events.TreeSwitched{Unit: 3, OldTree: "patrol", NewTree: "assault"},
			},
			want: EventMsg{Kind: "tree_switched", Tick: 8, Unit: 3, Tree: "assault"},
		},
	}
	for _, tc := range cases {
		got, ok := CoreEventToProto(tc.ev)
		if !ok {
			t.Fatalf("%s: not converted", tc.name)
		}
		if got != tc.want {
			t.Fatalf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestCoreEventToProtoSkipsMalformed(t *testing.T) {
	// 负载缺失或类型未知的事件直接丢弃
	if _, ok := CoreEventToProto(events.Event{Kind: events.KindTargetSelected}); ok {
		t.Fatal("nil payload converted")
	}
	if _, ok := CoreEventToProto(events.Event{Kind: events.KindUnknown}); ok {
		t.Fatal("unknown kind converted")
	}

	batch := CoreEventsToBatch(9, []events.Event{
		{Kind: events.KindTargetLost, Tick: 9, TargetLost: &events.TargetLost{Unit: 1, OldTarget: 2}},
		{Kind: events.KindDecisionMade}, // 无负载，应被跳过
	})
	if batch.Tick != 9 || len(batch.Events) != 1 {
		t.Fatalf("batch = %+v", batch)
	}
}
