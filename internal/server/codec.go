package server

import (
	"fmt"

	"legion/pkg/protocol"
)

// DecodePacket 解析观战端发来的数据包
func DecodePacket(data []byte) (*ServerEvent, error) {
	pkt, err := protocol.UnmarshalPacket(data)
	if err != nil {
		return nil, fmt.Errorf("解析包失败: %w", err)
	}

	switch pkt.Type {
	case protocol.TypeHello:
		hello, err := protocol.ParseHello(pkt)
		if err != nil {
			return nil, err
		}
		return &ServerEvent{
			Kind:  EventHello,
			Hello: &HelloEvent{Name: hello.Name},
		}, nil

	case protocol.TypePing:
		ping, err := protocol.ParsePing(pkt)
		if err != nil {
			return nil, err
		}
		return &ServerEvent{
			Kind: EventPing,
			Ping: &PingEvent{ClientTime: ping.ClientTime},
		}, nil

	case protocol.TypePong:
		pong, err := protocol.ParsePong(pkt)
		if err != nil {
			return nil, err
		}
		return &ServerEvent{
			Kind: EventPong,
			Pong: &PongEvent{ClientTime: pong.ClientTime, ServerTime: pong.ServerTime, ServerTick: pong.ServerTick},
		}, nil

	case protocol.TypeForceTarget:
		cmd, err := protocol.ParseForceTarget(pkt)
		if err != nil {
			return nil, err
		}
		return &ServerEvent{
			Kind:        EventForceTarget,
			ForceTarget: &ForceTargetEvent{UnitID: cmd.UnitID, TargetID: cmd.TargetID},
		}, nil

	case protocol.TypeSwitchTree:
		cmd, err := protocol.ParseSwitchTree(pkt)
		if err != nil {
			return nil, err
		}
		return &ServerEvent{
			Kind:       EventSwitchTree,
			SwitchTree: &SwitchTreeEvent{UnitID: cmd.UnitID, Tree: cmd.Tree},
		}, nil

	case protocol.TypeReconnect:
		req, err := protocol.ParseReconnect(pkt)
		if err != nil {
			return nil, err
		}
		return &ServerEvent{
			Kind:      EventReconnect,
			Reconnect: &ReconnectEvent{SessionToken: req.SessionToken},
		}, nil

	default:
		return nil, fmt.Errorf("未知消息类型: %s", pkt.Type)
	}
}
