package protocol

import (
	"legion/pkg/core"
	"legion/pkg/events"
)

// ========== core -> protocol 转换 ==========

// CoreUnitStateToProto 将 core.UnitState 转换为广播用的 UnitState
func CoreUnitStateToProto(u core.UnitState) UnitState {
	return UnitState{
		ID:            u.ID,
		FactionID:     u.FactionID,
		Type:          u.Type,
		X:             u.Position.X,
		Y:             u.Position.Y,
		Z:             u.Position.Z,
		HealthPercent: u.HealthPercent,
		TargetID:      u.Target,
		Tree:          u.Tree,
		Status:        u.Status,
	}
}

// CoreWorldToProto 从 World 组装一帧全量状态
func CoreWorldToProto(w *core.World) *WorldState {
	units := w.UnitStates()
	out := &WorldState{
		Tick:  w.Tick(),
		Units: make([]UnitState, 0, len(units)),
	}
	for _, u := range units {
		out.Units = append(out.Units, CoreUnitStateToProto(u))
	}
	for _, f := range w.FactionViews() {
		out.Factions = append(out.Factions, FactionState{
			ID:   f.ID,
			Name: f.Name,
			XP:   f.XP,
			Mode: f.Mode,
		})
	}
	return out
}

// CoreEventToProto 将引擎事件转换为广播消息。
// 未识别的事件类型返回 false，调用方直接跳过。
func CoreEventToProto(ev events.Event) (EventMsg, bool) {
	msg := EventMsg{Kind: ev.Kind.String(), Tick: ev.Tick}
	switch ev.Kind {
	case events.KindTargetSelected:
		if ev.TargetSelected == nil {
			return msg, false
		}
		msg.Unit = ev.TargetSelected.Unit
		msg.Target = ev.TargetSelected.Target
		msg.Reason = ev.TargetSelected.Reason
	case events.KindTargetLost:
		if ev.TargetLost == nil {
			return msg, false
		}
		msg.Unit = ev.TargetLost.Unit
		msg.Target = ev.TargetLost.OldTarget
	case events.KindTargetingModeEvolved:
		if ev.ModeEvolved == nil {
			return msg, false
		}
		msg.Faction = ev.ModeEvolved.Faction
		msg.Mode = ev.ModeEvolved.Mode
	case events.KindDecisionMade:
		if ev.Decision == nil {
			return msg, false
		}
		msg.Unit = ev.Decision.Unit
		msg.Tree = ev.Decision.Tree
		msg.Status = ev.Decision.Status
	case events.KindTreeSwitched:
		if ev.TreeSwitched == nil {
			return msg, false
		}
		msg.Unit = ev.TreeSwitched.Unit
		msg.Tree = ev.TreeSwitched.NewTree
	default:
		return msg, false
	}
	return msg, true
}

// CoreEventsToBatch 把一帧内取走的事件打包成事件批
func CoreEventsToBatch(tick int64, evs []events.Event) *EventBatch {
	batch := &EventBatch{Tick: tick, Events: make([]EventMsg, 0, len(evs))}
	for _, ev := range evs {
		if msg, ok := CoreEventToProto(ev); ok {
			batch.Events = append(batch.Events, msg)
		}
	}
	return batch
}
