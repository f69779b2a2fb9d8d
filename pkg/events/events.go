package events

// Kind 决策引擎对外产出的事件类型
type Kind int

const (
	KindUnknown Kind = iota
	KindTargetSelected
	KindTargetLost
	KindTargetingModeEvolved
	KindDecisionMade
	KindTreeSwitched
)

func (k Kind) String() string {
	switch k {
	case KindTargetSelected:
		return "target_selected"
	case KindTargetLost:
		return "target_lost"
	case KindTargetingModeEvolved:
		return "targeting_mode_evolved"
	case KindDecisionMade:
		return "decision_made"
	case KindTreeSwitched:
		return "tree_switched"
	default:
		return "unknown"
	}
}

type TargetSelected struct {
	Unit   int64
	Target int64
	Reason string
}

type TargetLost struct {
	Unit      int64
	OldTarget int64
}

type ModeEvolved struct {
	Faction int64
	Mode    string
}

type DecisionMade struct {
	Unit   int64
	Tree   string
	Status string
}

type TreeSwitched struct {
	Unit    int64
	OldTree string
	NewTree string
}

// Event 事件统一封装：Kind 决定哪个负载字段非空
type Event struct {
	Kind           Kind
	Tick           int64
	TargetSelected *TargetSelected
	TargetLost     *TargetLost
	ModeEvolved    *ModeEvolved
	Decision       *DecisionMade
	TreeSwitched   *TreeSwitched
}

// Bus 单线程事件总线。决策与索敌流程都运行在同一个模拟 goroutine 里，
// 事件由服务器循环统一取走，因此不需要加锁。
type Bus struct {
	tick  int64
	queue []Event
}

func NewBus() *Bus {
	return &Bus{}
}

// SetTick 设置后续事件携带的模拟 tick
func (b *Bus) SetTick(tick int64) {
	if b == nil {
		return
	}
	b.tick = tick
}

// Publish 入队一个事件；nil 总线直接丢弃
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	ev.Tick = b.tick
	b.queue = append(b.queue, ev)
}

// Drain 取走并清空当前积压的事件
func (b *Bus) Drain() []Event {
	if b == nil {
		return nil
	}
	out := b.queue
	b.queue = nil
	return out
}

// Len 当前积压事件数
func (b *Bus) Len() int {
	if b == nil {
		return 0
	}
	return len(b.queue)
}
