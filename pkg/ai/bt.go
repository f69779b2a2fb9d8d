package ai

// Status 行为树节点的执行结果
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusRunning:
		return "running"
	default:
		return "unknown"
	}
}

// ParseStatus 从字符串还原 Status；无法识别时回退为 Success（零值）
func ParseStatus(s string) Status {
	switch s {
	case "failure":
		return StatusFailure
	case "running":
		return StatusRunning
	default:
		return StatusSuccess
	}
}

// Node 行为树节点接口。
// 树形结构在单位之间共享前必须 Clone：带有可变状态的叶子
//（如 Dodge 的倒计时）若被多个单位共用会互相串状态。
// 整棵树每个 tick 都从根重新求值，Running 分支的续跑完全依靠
// 叶子自身状态与黑板内容，不保留调用栈。
type Node interface {
	Name() string
	Tick(bb *Blackboard) Status
	Clone() Node
}

// Selector 选择节点：遇到非 Failure 停止，全 Failure 才 Failure
type Selector struct {
	Children []Node
}

func (s *Selector) Name() string { return "selector" }

func (s *Selector) Tick(bb *Blackboard) Status {
	for _, child := range s.Children {
		status := child.Tick(bb)
		if status != StatusFailure {
			return status
		}
	}
	return StatusFailure
}

func (s *Selector) Clone() Node {
	children := make([]Node, len(s.Children))
	for i, c := range s.Children {
		children[i] = c.Clone()
	}
	return &Selector{Children: children}
}

// Sequence 顺序节点：遇到非 Success 停止，全 Success 才 Success
type Sequence struct {
	Children []Node
}

func (s *Sequence) Name() string { return "sequence" }

func (s *Sequence) Tick(bb *Blackboard) Status {
	for _, child := range s.Children {
		status := child.Tick(bb)
		if status != StatusSuccess {
			return status
		}
	}
	return StatusSuccess
}

func (s *Sequence) Clone() Node {
	children := make([]Node, len(s.Children))
	for i, c := range s.Children {
		children[i] = c.Clone()
	}
	return &Sequence{Children: children}
}

// Inverter 反转装饰器：Success 与 Failure 互换，Running 原样透传。
// 没有子节点时返回 Failure。
type Inverter struct {
	Child Node
}

func (d *Inverter) Name() string { return "inverter" }

func (d *Inverter) Tick(bb *Blackboard) Status {
	if d.Child == nil {
		return StatusFailure
	}
	switch d.Child.Tick(bb) {
	case StatusSuccess:
		return StatusFailure
	case StatusFailure:
		return StatusSuccess
	default:
		return StatusRunning
	}
}

func (d *Inverter) Clone() Node {
	if d.Child == nil {
		return &Inverter{}
	}
	return &Inverter{Child: d.Child.Clone()}
}

// KeyCondition 条件叶子：黑板上指定 bool 键为 true 时 Success。
// 只依赖黑板键，因此可以出现在 JSON 树定义里。
type KeyCondition struct {
	Key string
}

func (c *KeyCondition) Name() string { return "condition" }

func (c *KeyCondition) Tick(bb *Blackboard) Status {
	if bb.BoolOr(c.Key, false) {
		return StatusSuccess
	}
	return StatusFailure
}

func (c *KeyCondition) Clone() Node {
	return &KeyCondition{Key: c.Key}
}
