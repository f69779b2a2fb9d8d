package server

import (
	"testing"

	"legion/pkg/protocol"
)

func mustMarshal(t *testing.T, pkt *protocol.Packet, err error) []byte {
	t.Helper()
	if err != nil {
		t.Fatalf("build packet: %v", err)
	}
	data, err := protocol.MarshalPacket(pkt)
	if err != nil {
		t.Fatalf("marshal packet: %v", err)
	}
	return data
}

func TestDecodePacketDispatch(t *testing.T) {
	pkt, err := protocol.NewHelloPacket("观战者")
	ev, derr := DecodePacket(mustMarshal(t, pkt, err))
	if derr != nil {
		t.Fatalf("DecodePacket hello: %v", derr)
	}
	if ev.Kind != EventHello || ev.Hello.Name != "观战者" {
		t.Fatalf("hello event = %+v", ev)
	}

	pkt, err = protocol.NewForceTargetPacket(3, 9)
	ev, derr = DecodePacket(mustMarshal(t, pkt, err))
	if derr != nil {
		t.Fatalf("DecodePacket force_target: %v", derr)
	}
	if ev.Kind != EventForceTarget || ev.ForceTarget.UnitID != 3 || ev.ForceTarget.TargetID != 9 {
		t.Fatalf("force_target event = %+v", ev)
	}

	pkt, err = protocol.NewSwitchTreePacket(3, "guard")
	ev, derr = DecodePacket(mustMarshal(t, pkt, err))
	if derr != nil {
		t.Fatalf("DecodePacket switch_tree: %v", derr)
	}
	if ev.Kind != EventSwitchTree || ev.SwitchTree.Tree != "guard" {
		t.Fatalf("switch_tree event = %+v", ev)
	}

	pkt, err = protocol.NewReconnectPacket("token-xyz")
	ev, derr = DecodePacket(mustMarshal(t, pkt, err))
	if derr != nil {
		t.Fatalf("DecodePacket reconnect: %v", derr)
	}
	if ev.Kind != EventReconnect || ev.Reconnect.SessionToken != "token-xyz" {
		t.Fatalf("reconnect event = %+v", ev)
	}
}

func TestDecodePacketRejectsUnknown(t *testing.T) {
	if _, err := DecodePacket([]byte(`{"type":"teleport","payload":{}}`)); err == nil {
		t.Fatal("unknown type accepted")
	}
	if _, err := DecodePacket([]byte("garbage")); err == nil {
		t.Fatal("garbage accepted")
	}
	// 服务器不应接收 state 广播类消息
	if _, err := DecodePacket([]byte(`{"type":"state","payload":{}}`)); err == nil {
		t.Fatal("server-bound state accepted")
	}
}
