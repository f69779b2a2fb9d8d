package protocol

import "encoding/json"

// ========== 消息类型 ==========

// 消息类型标识。写进 Packet.Type 字段，收端据此分发。
const (
	TypeHello       = "hello"        // 客户端 -> 服务器：观战接入请求
	TypeWelcome     = "welcome"      // 服务器 -> 客户端：接入响应
	TypeState       = "state"        // 服务器 -> 客户端：全量状态广播
	TypeEvents      = "events"       // 服务器 -> 客户端：决策/索敌事件批
	TypePing        = "ping"         // 客户端 -> 服务器：心跳
	TypePong        = "pong"         // 服务器 -> 客户端：心跳响应
	TypeForceTarget = "force_target" // 客户端 -> 服务器：管理指令，强制指定目标
	TypeSwitchTree  = "switch_tree"  // 客户端 -> 服务器：管理指令，切换行为树
	TypeReconnect   = "reconnect"    // 客户端 -> 服务器：携带令牌重连
	TypeError       = "error"        // 服务器 -> 客户端：错误通知
)

// Packet 是所有消息的统一信封，Payload 按 Type 解码。
type Packet struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ========== 客户端消息 ==========

// Hello 观战接入请求。
type Hello struct {
	Name string `json:"name"`
}

// Ping 心跳。
type Ping struct {
	ClientTime int64 `json:"client_time"`
}

// ForceTarget 强制指定某单位的攻击目标。
type ForceTarget struct {
	UnitID   int64 `json:"unit_id"`
	TargetID int64 `json:"target_id"`
}

// SwitchTree 切换某单位的行为树模板。
type SwitchTree struct {
	UnitID int64  `json:"unit_id"`
	Tree   string `json:"tree"`
}

// Reconnect 携带会话令牌重连。
type Reconnect struct {
	SessionToken string `json:"session_token"`
}

// ========== 服务器消息 ==========

// Welcome 接入响应。失败时 Success 为 false 并带错误说明。
type Welcome struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`
	ClientID     int64  `json:"client_id,omitempty"`
	SessionToken string `json:"session_token,omitempty"`
	TPS          int    `json:"tps,omitempty"`
}

// UnitState 单位的可观测状态，只含展示所需字段。
type UnitState struct {
	ID            int64   `json:"id"`
	FactionID     int64   `json:"faction_id"`
	Type          string  `json:"type"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Z             float64 `json:"z"`
	HealthPercent float64 `json:"health_percent"`
	TargetID      int64   `json:"target_id"`
	Tree          string  `json:"tree"`
	Status        string  `json:"status"`
}

// FactionState 阵营的可观测状态。
type FactionState struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	XP   float64 `json:"xp"`
	Mode string  `json:"mode"`
}

// WorldState 全量状态广播。
type WorldState struct {
	Tick     int64          `json:"tick"`
	Units    []UnitState    `json:"units"`
	Factions []FactionState `json:"factions"`
}

// EventMsg 单条事件。字段按事件类型选填。
type EventMsg struct {
	Kind    string `json:"kind"`
	Tick    int64  `json:"tick"`
	Unit    int64  `json:"unit,omitempty"`
	Target  int64  `json:"target,omitempty"`
	Faction int64  `json:"faction,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Mode    string `json:"mode,omitempty"`
	Tree    string `json:"tree,omitempty"`
	Status  string `json:"status,omitempty"`
}

// EventBatch 事件批。每帧最多发一批。
type EventBatch struct {
	Tick   int64      `json:"tick"`
	Events []EventMsg `json:"events"`
}

// Pong 心跳响应。
type Pong struct {
	ClientTime int64  `json:"client_time"`
	ServerTime int64  `json:"server_time"`
	ServerTick int64  `json:"server_tick"`
}

// ErrorMsg 错误通知。
type ErrorMsg struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
