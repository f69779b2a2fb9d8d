package ai

import (
	"encoding/json"
	"math/rand"

	"legion/pkg/mathx"
)

// 黑板键约定：动作库与外围模拟层共同遵守的契约
const (
	KeyPosition          = "position"
	KeyDelta             = "delta"
	KeyTargetID          = "target_id"
	KeyTargetDistance    = "target_distance"
	KeyTargetPosition    = "target_position"
	KeyTargetHealthRatio = "target_health_ratio"
	KeyAttackRange       = "attack_range"
	KeyAttackTargetID    = "attack_target_id"
	KeyNearbyAllies      = "nearby_allies"
	KeyPatrolWaypoints   = "patrol_waypoints"
	KeyWaypointIndex     = "current_waypoint_index"
	KeyDodgeThreatPos    = "dodge_threat_position"
	KeyAllySafeDistance  = "ally_safe_distance"
	KeyPotentialTargets  = "potential_targets"
	KeyNearestAllyID     = "nearest_ally_id"
	KeyNearestAllyPos    = "nearest_ally_position"
	KeyNearestAllyDist   = "nearest_ally_distance"
	KeyHealthPercent     = "health_percent"
	KeyInCombat          = "in_combat"
	KeyAction            = "action"
	KeyMoveTarget        = "move_target"
	// KeyRand 临时条目：tick 内有效的随机数生成器，不参与序列化
	KeyRand = "rng"
)

// NoTarget 目标 ID 的空哨兵
const NoTarget int64 = -1

// Kind 黑板值的封闭类型集合
type Kind int

const (
	KindFloat Kind = iota
	KindInt
	KindBool
	KindString
	KindVector
	KindIDList
	KindCandidateList
	// KindRand 临时句柄，序列化时剥除
	KindRand
)

// Candidate 备选目标记录。每轮索敌重新计算，不做持久化。
type Candidate struct {
	TargetID int64      `json:"target_id"`
	Position mathx.Vec3 `json:"position"`
	Distance float64    `json:"distance"`
	Priority float64    `json:"priority"`
}

// Value 黑板条目：带类型标签的变体
type Value struct {
	Kind       Kind
	F          float64
	I          int64
	B          bool
	S          string
	V          mathx.Vec3
	IDs        []int64
	Candidates []Candidate
	Rand       *rand.Rand
}

// Blackboard 单个单位专属的键值便签板。
// 行为树节点与外围模拟层通过它交换数据；一块黑板只属于一个单位，
// 决策流程单线程执行，因此不加锁。
type Blackboard struct {
	data map[string]Value
}

func NewBlackboard() *Blackboard {
	return &Blackboard{data: make(map[string]Value)}
}

func (bb *Blackboard) SetFloat(key string, v float64) {
	bb.data[key] = Value{Kind: KindFloat, F: v}
}

func (bb *Blackboard) SetInt(key string, v int64) {
	bb.data[key] = Value{Kind: KindInt, I: v}
}

func (bb *Blackboard) SetBool(key string, v bool) {
	bb.data[key] = Value{Kind: KindBool, B: v}
}

func (bb *Blackboard) SetString(key, v string) {
	bb.data[key] = Value{Kind: KindString, S: v}
}

func (bb *Blackboard) SetVector(key string, v mathx.Vec3) {
	bb.data[key] = Value{Kind: KindVector, V: v}
}

func (bb *Blackboard) SetIDs(key string, ids []int64) {
	bb.data[key] = Value{Kind: KindIDList, IDs: ids}
}

func (bb *Blackboard) SetCandidates(key string, cs []Candidate) {
	bb.data[key] = Value{Kind: KindCandidateList, Candidates: cs}
}

func (bb *Blackboard) SetRand(key string, rng *rand.Rand) {
	bb.data[key] = Value{Kind: KindRand, Rand: rng}
}

// FloatOr 读取 float 条目；缺失或类型不符时返回默认值
func (bb *Blackboard) FloatOr(key string, def float64) float64 {
	if v, ok := bb.data[key]; ok && v.Kind == KindFloat {
		return v.F
	}
	return def
}

func (bb *Blackboard) IntOr(key string, def int64) int64 {
	if v, ok := bb.data[key]; ok && v.Kind == KindInt {
		return v.I
	}
	return def
}

func (bb *Blackboard) BoolOr(key string, def bool) bool {
	if v, ok := bb.data[key]; ok && v.Kind == KindBool {
		return v.B
	}
	return def
}

func (bb *Blackboard) StringOr(key, def string) string {
	if v, ok := bb.data[key]; ok && v.Kind == KindString {
		return v.S
	}
	return def
}

func (bb *Blackboard) VectorOr(key string, def mathx.Vec3) mathx.Vec3 {
	if v, ok := bb.data[key]; ok && v.Kind == KindVector {
		return v.V
	}
	return def
}

// IDsOr 读取 id 列表；缺失时返回 nil
func (bb *Blackboard) IDsOr(key string) []int64 {
	if v, ok := bb.data[key]; ok && v.Kind == KindIDList {
		return v.IDs
	}
	return nil
}

func (bb *Blackboard) CandidatesOr(key string) []Candidate {
	if v, ok := bb.data[key]; ok && v.Kind == KindCandidateList {
		return v.Candidates
	}
	return nil
}

// RandOr 读取临时随机数生成器；缺失时返回 nil
func (bb *Blackboard) RandOr(key string) *rand.Rand {
	if v, ok := bb.data[key]; ok && v.Kind == KindRand {
		return v.Rand
	}
	return nil
}

func (bb *Blackboard) Has(key string) bool {
	_, ok := bb.data[key]
	return ok
}

func (bb *Blackboard) Delete(key string) {
	delete(bb.data, key)
}

func (bb *Blackboard) Len() int {
	return len(bb.data)
}

// Snapshot 导出可序列化条目。随机数生成器等临时句柄会被剥除。
func (bb *Blackboard) Snapshot() map[string]Value {
	out := make(map[string]Value, len(bb.data))
	for k, v := range bb.data {
		if v.Kind == KindRand {
			continue
		}
		out[k] = v
	}
	return out
}

// Restore 从快照恢复条目（覆盖同名键）
func (bb *Blackboard) Restore(snap map[string]Value) {
	for k, v := range snap {
		if v.Kind == KindRand {
			continue
		}
		bb.data[k] = v
	}
}

// savedValue 黑板条目的持久化形式。向量条目按
// {type:"vector3",x,y,z} 带标签记录，其余类型用 value 字段。
type savedValue struct {
	Type       string          `json:"type"`
	Value      json.RawMessage `json:"value,omitempty"`
	X          float64         `json:"x,omitempty"`
	Y          float64         `json:"y,omitempty"`
	Z          float64         `json:"z,omitempty"`
	IDs        []int64         `json:"ids,omitempty"`
	Candidates []Candidate     `json:"candidates,omitempty"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	sv := savedValue{}
	switch v.Kind {
	case KindFloat:
		sv.Type = "float"
		sv.Value, _ = json.Marshal(v.F)
	case KindInt:
		sv.Type = "int"
		sv.Value, _ = json.Marshal(v.I)
	case KindBool:
		sv.Type = "bool"
		sv.Value, _ = json.Marshal(v.B)
	case KindString:
		sv.Type = "string"
		sv.Value, _ = json.Marshal(v.S)
	case KindVector:
		sv.Type = "vector3"
		sv.X, sv.Y, sv.Z = v.V.X, v.V.Y, v.V.Z
	case KindIDList:
		sv.Type = "id_list"
		sv.IDs = v.IDs
	case KindCandidateList:
		sv.Type = "candidate_list"
		sv.Candidates = v.Candidates
	default:
		// 临时句柄不应该走到序列化，兜底写成空字符串条目
		sv.Type = "string"
		sv.Value, _ = json.Marshal("")
	}
	return json.Marshal(sv)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var sv savedValue
	if err := json.Unmarshal(data, &sv); err != nil {
		return err
	}
	switch sv.Type {
	case "float":
		v.Kind = KindFloat
		if sv.Value != nil {
			// 字段损坏时保留零值默认
			_ = json.Unmarshal(sv.Value, &v.F)
		}
	case "int":
		v.Kind = KindInt
		if sv.Value != nil {
			_ = json.Unmarshal(sv.Value, &v.I)
		}
	case "bool":
		v.Kind = KindBool
		if sv.Value != nil {
			_ = json.Unmarshal(sv.Value, &v.B)
		}
	case "string":
		v.Kind = KindString
		if sv.Value != nil {
			_ = json.Unmarshal(sv.Value, &v.S)
		}
	case "vector3":
		v.Kind = KindVector
		v.V = mathx.Vec3{X: sv.X, Y: sv.Y, Z: sv.Z}
	case "id_list":
		v.Kind = KindIDList
		v.IDs = sv.IDs
	case "candidate_list":
		v.Kind = KindCandidateList
		v.Candidates = sv.Candidates
	default:
		// 未知类型标签：按空字符串条目处理，不中断整体加载
		v.Kind = KindString
		v.S = ""
	}
	return nil
}
