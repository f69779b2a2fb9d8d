package server

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"legion/internal/config"
	"legion/internal/persist"
	"legion/pkg/core"
	"legion/pkg/events"
	"legion/pkg/protocol"
)

// Arena 承载一场模拟。世界推进、事件广播、观战端接入
// 全部收敛到一个 goroutine 里，通过通道串行化，核心逻辑不加锁。
type Arena struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg   *config.Config
	world *core.World
	bus   *events.Bus

	connections  map[int64]Session
	nextClientID int64

	store    *persist.Store
	eventLog *persist.EventLog

	helloCh chan helloRequest
	cmdCh   chan arenaCommand
	leaveCh chan int64
}

type helloRequest struct {
	conn      Session
	hello     *HelloEvent
	reclaimID int64 // > 0 表示凭令牌重连，复用原 clientID
	respCh    chan error
}

type arenaCommand struct {
	clientID    int64
	forceTarget *ForceTargetEvent
	switchTree  *SwitchTreeEvent
}

func NewArena(parent context.Context, cfg *config.Config, world *core.World, bus *events.Bus, store *persist.Store, eventLog *persist.EventLog) *Arena {
	ctx, cancel := context.WithCancel(parent)

	return &Arena{
		ctx:          ctx,
		cancel:       cancel,
		cfg:          cfg,
		world:        world,
		bus:          bus,
		connections:  make(map[int64]Session),
		nextClientID: 1,
		store:        store,
		eventLog:     eventLog,
		helloCh:      make(chan helloRequest),
		cmdCh:        make(chan arenaCommand, 256),
		leaveCh:      make(chan int64, 256),
	}
}

func (a *Arena) Run(wg *sync.WaitGroup) {
	defer wg.Done()

	tickDuration := time.Second / time.Duration(a.cfg.TickRateHz)
	ticker := time.NewTicker(tickDuration)
	defer ticker.Stop()

	log.Printf("模拟循环启动: %d TPS, %d 单位", a.cfg.TickRateHz, a.world.UnitCount())

	for {
		select {
		case <-a.ctx.Done():
			a.closeAllConnections()
			log.Println("模拟循环停止")
			return

		case req := <-a.helloCh:
			a.handleHello(req)

		case cmd := <-a.cmdCh:
			a.handleCommand(cmd)

		case clientID := <-a.leaveCh:
			a.handleLeave(clientID)

		case <-ticker.C:
			a.tick(1.0 / float64(a.cfg.TickRateHz))
		}
	}
}

func (a *Arena) Shutdown() {
	a.cancel()
}

// Join 观战端接入（从连接 goroutine 调用，等待模拟循环应答）
func (a *Arena) Join(conn Session, hello *HelloEvent) error {
	respCh := make(chan error, 1)

	select {
	case <-a.ctx.Done():
		return fmt.Errorf("模拟已关闭")
	case a.helloCh <- helloRequest{conn: conn, hello: hello, respCh: respCh}:
	}

	select {
	case <-a.ctx.Done():
		return fmt.Errorf("模拟已关闭")
	case err := <-respCh:
		return err
	}
}

// EnqueueCommand 投递管理指令
func (a *Arena) EnqueueCommand(cmd arenaCommand) {
	select {
	case <-a.ctx.Done():
		return
	case a.cmdCh <- cmd:
	}
}

// Leave 观战端离开
func (a *Arena) Leave(clientID int64) {
	select {
	case <-a.ctx.Done():
		return
	case a.leaveCh <- clientID:
	}
}

func (a *Arena) tick(delta float64) {
	a.world.Update(delta)

	// 取走这一帧的事件：广播给观战端，同时落回放日志
	evs := a.bus.Drain()
	if len(evs) > 0 {
		batch := protocol.CoreEventsToBatch(a.world.Tick(), evs)
		if len(batch.Events) > 0 {
			if a.eventLog != nil {
				if err := a.eventLog.AppendBatch(batch); err != nil {
					log.Printf("写回放日志失败: %v", err)
				}
			}
			if packet, err := protocol.NewEventsPacket(batch); err == nil {
				a.broadcast(packet)
			}
		}
	}

	if len(a.connections) > 0 {
		a.broadcastState()
	}

	a.maybeAutosave()
}

func (a *Arena) maybeAutosave() {
	every := a.cfg.Save.EveryTicks
	if every <= 0 || a.world.Tick()%every != 0 {
		return
	}
	if err := a.saveNow(); err != nil {
		log.Printf("自动存档失败: %v", err)
	}
}

// saveNow 写一份快照并登记到索引库
func (a *Arena) saveNow() error {
	st := a.world.Save()
	path := fmt.Sprintf("%s/%s-%d.json.zst", a.cfg.Save.Dir, a.cfg.Save.Slot, st.Tick)
	if err := persist.WriteSnapshot(path, st); err != nil {
		return err
	}
	if a.store != nil {
		if err := a.store.RecordSave(a.cfg.Save.Slot, st.Tick, path); err != nil {
			return err
		}
	}
	log.Printf("存档完成: tick=%d path=%s", st.Tick, path)
	return nil
}

// SaveOnShutdown 关闭前写最终存档（在模拟循环已停止后由服务器调用）
func (a *Arena) SaveOnShutdown() {
	if err := a.saveNow(); err != nil {
		log.Printf("关闭存档失败: %v", err)
	}
}

func (a *Arena) handleHello(req helloRequest) {
	var clientID int64
	if req.reclaimID > 0 {
		clientID = req.reclaimID
		// 旧连接还挂着就顶掉
		if old, ok := a.connections[clientID]; ok {
			old.CloseWithoutNotify()
			delete(a.connections, clientID)
		}
		if clientID >= a.nextClientID {
			a.nextClientID = clientID + 1
		}
	} else {
		clientID = a.nextClientID
		a.nextClientID++
	}

	token, err := GenerateSessionToken(clientID)
	if err != nil {
		req.respCh <- fmt.Errorf("生成会话令牌失败: %w", err)
		return
	}

	packet, err := protocol.NewWelcomePacket(true, "", clientID, token, a.cfg.TickRateHz)
	if err != nil {
		req.respCh <- fmt.Errorf("序列化接入响应失败: %w", err)
		return
	}
	data, err := protocol.MarshalPacket(packet)
	if err != nil {
		req.respCh <- err
		return
	}

	req.conn.SetClientID(clientID)
	a.connections[clientID] = req.conn

	if err := req.conn.Send(data); err != nil {
		delete(a.connections, clientID)
		req.conn.SetClientID(-1)
		req.respCh <- fmt.Errorf("发送接入响应失败: %w", err)
		return
	}

	name := ""
	if req.hello != nil {
		name = req.hello.Name
	}
	log.Printf("观战端 %d (%s) 接入，当前观战数: %d", clientID, name, len(a.connections))

	req.respCh <- nil
}

// Reclaim 重连：复用令牌里的 clientID，顶掉旧连接
func (a *Arena) Reclaim(conn Session, clientID int64) error {
	respCh := make(chan error, 1)

	select {
	case <-a.ctx.Done():
		return fmt.Errorf("模拟已关闭")
	case a.helloCh <- helloRequest{conn: conn, reclaimID: clientID, respCh: respCh}:
	}

	select {
	case <-a.ctx.Done():
		return fmt.Errorf("模拟已关闭")
	case err := <-respCh:
		return err
	}
}

func (a *Arena) handleCommand(cmd arenaCommand) {
	switch {
	case cmd.forceTarget != nil:
		ev := cmd.forceTarget
		a.world.Targeting().ForceTarget(ev.UnitID, ev.TargetID)
		log.Printf("观战端 %d: 强制单位 %d 目标为 %d", cmd.clientID, ev.UnitID, ev.TargetID)

	case cmd.switchTree != nil:
		ev := cmd.switchTree
		if !a.world.Manager().SwitchTree(ev.UnitID, ev.Tree) {
			log.Printf("观战端 %d: 切换行为树失败, 单位 %d 树 %s", cmd.clientID, ev.UnitID, ev.Tree)
			a.sendError(cmd.clientID, "switch_tree_failed", fmt.Sprintf("单位 %d 或模板 %s 不存在", ev.UnitID, ev.Tree))
			return
		}
		log.Printf("观战端 %d: 单位 %d 切换行为树为 %s", cmd.clientID, ev.UnitID, ev.Tree)
	}
}

func (a *Arena) sendError(clientID int64, code, message string) {
	conn, ok := a.connections[clientID]
	if !ok {
		return
	}
	packet, err := protocol.NewErrorPacket(code, message)
	if err != nil {
		return
	}
	if data, err := protocol.MarshalPacket(packet); err == nil {
		_ = conn.Send(data)
	}
}

func (a *Arena) handleLeave(clientID int64) {
	if _, exists := a.connections[clientID]; !exists {
		return
	}
	delete(a.connections, clientID)
	log.Printf("观战端 %d 离开，当前观战数: %d", clientID, len(a.connections))
}

func (a *Arena) closeAllConnections() {
	for _, conn := range a.connections {
		conn.CloseWithoutNotify()
	}
}

func (a *Arena) broadcastState() {
	state := protocol.CoreWorldToProto(a.world)

	packet, err := protocol.NewStatePacket(state)
	if err != nil {
		log.Printf("序列化状态失败: %v", err)
		return
	}
	data, err := protocol.MarshalPacket(packet)
	if err != nil {
		log.Printf("序列化状态失败: %v", err)
		return
	}

	a.broadcastBytes(data)
}

func (a *Arena) broadcast(packet *protocol.Packet) {
	data, err := protocol.MarshalPacket(packet)
	if err != nil {
		log.Printf("序列化广播消息失败: %v", err)
		return
	}
	a.broadcastBytes(data)
}

func (a *Arena) broadcastBytes(data []byte) {
	for id, conn := range a.connections {
		if err := conn.Send(data); err != nil {
			log.Printf("发送到观战端 %d 失败: %v", id, err)
		}
	}
}
