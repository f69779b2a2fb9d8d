package server

type EventKind int

const (
	EventUnknown EventKind = iota
	EventHello
	EventPing
	EventPong
	EventForceTarget
	EventSwitchTree
	EventReconnect
)

type HelloEvent struct {
	Name string
}

type PingEvent struct {
	ClientTime int64
}

type PongEvent struct {
	ClientTime int64
	ServerTime int64
	ServerTick int64
}

type ForceTargetEvent struct {
	UnitID   int64
	TargetID int64
}

type SwitchTreeEvent struct {
	UnitID int64
	Tree   string
}

type ReconnectEvent struct {
	SessionToken string
}

// ServerEvent 收包解码后的统一事件；Kind 决定哪个负载非空
type ServerEvent struct {
	Kind        EventKind
	Hello       *HelloEvent
	Ping        *PingEvent
	Pong        *PongEvent
	ForceTarget *ForceTargetEvent
	SwitchTree  *SwitchTreeEvent
	Reconnect   *ReconnectEvent
}
