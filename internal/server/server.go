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

// Server 观战服务器。持有监听器和承载模拟的 Arena，
// 每个连接一组收发 goroutine，所有状态变更都转发进模拟循环。
type Server struct {
	cfg   *config.Config
	world *core.World
	bus   *events.Bus

	store    *persist.Store
	eventLog *persist.EventLog

	arena *Arena

	// 网络
	listener ServerListener

	// 控制
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	shutdown chan struct{}
}

// NewServer 创建观战服务器。store 与 eventLog 允许为 nil（关闭持久化）。
func NewServer(cfg *config.Config, world *core.World, bus *events.Bus, store *persist.Store, eventLog *persist.EventLog) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:      cfg,
		world:    world,
		bus:      bus,
		store:    store,
		eventLog: eventLog,
		ctx:      ctx,
		cancel:   cancel,
		shutdown: make(chan struct{}),
	}
}

// Start 启动服务器，阻塞到 Shutdown 被调用
func (s *Server) Start() error {
	log.Printf("启动观战服务器: %s (%s)", s.cfg.ListenAddr, s.cfg.Proto)

	listener, err := newListener(s.cfg.Proto, s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("监听失败: %w", err)
	}
	s.listener = listener

	log.Printf("服务器监听中: %s", listener.Addr())

	s.arena = NewArena(s.ctx, s.cfg, s.world, s.bus, s.store, s.eventLog)

	// 启动模拟循环
	s.wg.Add(1)
	go s.arena.Run(&s.wg)

	// 启动连接接受循环
	s.wg.Add(1)
	go s.acceptLoop()

	// 等待关闭信号
	<-s.shutdown
	return nil
}

// Shutdown 优雅关闭服务器，停表后写最终存档
func (s *Server) Shutdown() {
	log.Println("正在关闭服务器...")

	s.cancel()

	if s.arena != nil {
		s.arena.Shutdown()
	}

	if s.listener != nil {
		s.listener.Close()
	}

	close(s.shutdown)

	s.wg.Wait()

	// 模拟循环已停，这里独占世界状态
	if s.arena != nil {
		s.arena.SaveOnShutdown()
	}

	log.Println("服务器已关闭")
}

// acceptLoop 接受观战端连接
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			log.Println("停止接受新连接")
			return
		default:
		}

		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				log.Printf("接受连接失败: %v", err)
				continue
			}
		}

		log.Printf("新连接来自: %s", conn.RemoteAddr())

		connection := NewConnection(conn, s)

		s.wg.Add(1)
		go connection.Handle(s.ctx, &s.wg)
	}
}

// handleHello 处理接入请求
func (s *Server) handleHello(conn *Connection, hello *HelloEvent) error {
	if s.arena == nil {
		return fmt.Errorf("模拟未初始化")
	}
	return s.arena.Join(conn, hello)
}

// handleReconnect 验证令牌并恢复会话
func (s *Server) handleReconnect(conn *Connection, req *ReconnectEvent) error {
	if s.arena == nil {
		return fmt.Errorf("模拟未初始化")
	}
	clientID, err := VerifySessionToken(req.SessionToken)
	if err != nil {
		packet, perr := protocol.NewWelcomePacket(false, "会话令牌无效", 0, "", 0)
		if perr == nil {
			if data, merr := protocol.MarshalPacket(packet); merr == nil {
				_ = conn.Send(data)
			}
		}
		return fmt.Errorf("令牌校验失败: %w", err)
	}
	return s.arena.Reclaim(conn, clientID)
}

// handlePing 回应心跳
func (s *Server) handlePing(conn *Connection, ping *PingEvent) {
	packet, err := protocol.NewPongPacket(ping.ClientTime, time.Now().UnixMilli(), s.world.Tick())
	if err != nil {
		return
	}
	if data, err := protocol.MarshalPacket(packet); err == nil {
		_ = conn.Send(data)
	}
}

// handleForceTarget 转发强制目标指令
func (s *Server) handleForceTarget(conn *Connection, ev *ForceTargetEvent) {
	if s.arena == nil {
		return
	}
	s.arena.EnqueueCommand(arenaCommand{clientID: conn.ID(), forceTarget: ev})
}

// handleSwitchTree 转发切换行为树指令
func (s *Server) handleSwitchTree(conn *Connection, ev *SwitchTreeEvent) {
	if s.arena == nil {
		return
	}
	s.arena.EnqueueCommand(arenaCommand{clientID: conn.ID(), switchTree: ev})
}

// removeClient 移除观战端
func (s *Server) removeClient(clientID int64) {
	if s.arena == nil {
		return
	}
	s.arena.Leave(clientID)
}
