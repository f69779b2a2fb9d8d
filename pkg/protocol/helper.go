package protocol

import (
	"encoding/json"
	"errors"
)

// ========== 辅助构造方法 ==========

func newPacket(typ string, msg any) (*Packet, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return &Packet{Type: typ, Payload: payload}, nil
}

// NewHelloPacket 构造观战接入请求包
func NewHelloPacket(name string) (*Packet, error) {
	return newPacket(TypeHello, &Hello{Name: name})
}

// NewPingPacket 构造心跳消息包
func NewPingPacket(clientTime int64) (*Packet, error) {
	return newPacket(TypePing, &Ping{ClientTime: clientTime})
}

// NewForceTargetPacket 构造强制目标指令包
func NewForceTargetPacket(unitID, targetID int64) (*Packet, error) {
	return newPacket(TypeForceTarget, &ForceTarget{UnitID: unitID, TargetID: targetID})
}

// NewSwitchTreePacket 构造切换行为树指令包
func NewSwitchTreePacket(unitID int64, tree string) (*Packet, error) {
	return newPacket(TypeSwitchTree, &SwitchTree{UnitID: unitID, Tree: tree})
}

// NewReconnectPacket 构造重连请求包
func NewReconnectPacket(sessionToken string) (*Packet, error) {
	return newPacket(TypeReconnect, &Reconnect{SessionToken: sessionToken})
}

// ========== 服务器消息构造 ==========

// NewWelcomePacket 构造接入响应包
func NewWelcomePacket(success bool, errorMessage string, clientID int64, sessionToken string, tps int) (*Packet, error) {
	return newPacket(TypeWelcome, &Welcome{
		Success:      success,
		ErrorMessage: errorMessage,
		ClientID:     clientID,
		SessionToken: sessionToken,
		TPS:          tps,
	})
}

// NewStatePacket 构造全量状态广播包
func NewStatePacket(state *WorldState) (*Packet, error) {
	return newPacket(TypeState, state)
}

// NewEventsPacket 构造事件批消息包
func NewEventsPacket(batch *EventBatch) (*Packet, error) {
	return newPacket(TypeEvents, batch)
}

// NewPongPacket 构造心跳响应包
func NewPongPacket(clientTime, serverTime, serverTick int64) (*Packet, error) {
	return newPacket(TypePong, &Pong{
		ClientTime: clientTime,
		ServerTime: serverTime,
		ServerTick: serverTick,
	})
}

// NewErrorPacket 构造错误通知包
func NewErrorPacket(code, message string) (*Packet, error) {
	return newPacket(TypeError, &ErrorMsg{Code: code, Message: message})
}

// ========== 序列化与反序列化 ==========

// MarshalPacket 将 Packet 对象转换为字节切片
func MarshalPacket(pkt *Packet) ([]byte, error) {
	return json.Marshal(pkt)
}

// UnmarshalPacket 将字节切片转换为 Packet 对象
func UnmarshalPacket(data []byte) (*Packet, error) {
	pkt := &Packet{}
	if err := json.Unmarshal(data, pkt); err != nil {
		return nil, err
	}
	if pkt.Type == "" {
		return nil, errors.New("消息缺少 type 字段")
	}
	return pkt, nil
}

// ========== 消息解析辅助 ==========

func parse[T any](pkt *Packet, typ string) (*T, error) {
	if pkt.Type != typ {
		return nil, errors.New("消息类型不匹配: " + pkt.Type)
	}
	msg := new(T)
	if err := json.Unmarshal(pkt.Payload, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ParseHello 从 Packet 中解析 Hello
func ParseHello(pkt *Packet) (*Hello, error) {
	return parse[Hello](pkt, TypeHello)
}

// ParsePing 从 Packet 中解析 Ping
func ParsePing(pkt *Packet) (*Ping, error) {
	return parse[Ping](pkt, TypePing)
}

// ParseForceTarget 从 Packet 中解析 ForceTarget
func ParseForceTarget(pkt *Packet) (*ForceTarget, error) {
	return parse[ForceTarget](pkt, TypeForceTarget)
}

// ParseSwitchTree 从 Packet 中解析 SwitchTree
func ParseSwitchTree(pkt *Packet) (*SwitchTree, error) {
	return parse[SwitchTree](pkt, TypeSwitchTree)
}

// ParseReconnect 从 Packet 中解析 Reconnect
func ParseReconnect(pkt *Packet) (*Reconnect, error) {
	return parse[Reconnect](pkt, TypeReconnect)
}

// ParseWelcome 从 Packet 中解析 Welcome
func ParseWelcome(pkt *Packet) (*Welcome, error) {
	return parse[Welcome](pkt, TypeWelcome)
}

// ParseState 从 Packet 中解析 WorldState
func ParseState(pkt *Packet) (*WorldState, error) {
	return parse[WorldState](pkt, TypeState)
}

// ParseEvents 从 Packet 中解析 EventBatch
func ParseEvents(pkt *Packet) (*EventBatch, error) {
	return parse[EventBatch](pkt, TypeEvents)
}

// ParsePong 从 Packet 中解析 Pong
func ParsePong(pkt *Packet) (*Pong, error) {
	return parse[Pong](pkt, TypePong)
}

// ParseError 从 Packet 中解析 ErrorMsg
func ParseError(pkt *Packet) (*ErrorMsg, error) {
	return parse[ErrorMsg](pkt, TypeError)
}
