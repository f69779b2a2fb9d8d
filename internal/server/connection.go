package server

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"legion/pkg/protocol"
)

const (
	MaxPacketSize = 65536            // 最大消息大小
	readTimeout   = 30 * time.Second // 读取超时
	writeTimeout  = 1 * time.Second  // 写入超时

	// 入站限速：观战端只该发心跳和偶尔的管理指令
	inboundRate  = 30 // 每秒
	inboundBurst = 60
)

var ErrSendQueueFull = errors.New("发送队列满")

// Connection 表示一个观战端连接
type Connection struct {
	conn   net.Conn
	server *Server

	clientID atomic.Int64

	// 发送队列
	sendChan chan []byte
	closeCh  chan struct{}
	closed   bool
	closeMu  sync.Mutex

	limiter *rate.Limiter

	lastRecvTime atomic.Value
	lastPingTime atomic.Value
	rtt          atomic.Int64
}

// NewConnection 创建新连接，挂到服务器上
func NewConnection(conn net.Conn, server *Server) *Connection {
	c := &Connection{
		conn:     conn,
		server:   server,
		sendChan: make(chan []byte, 256), // 发送队列缓冲区
		closeCh:  make(chan struct{}),
		limiter:  rate.NewLimiter(inboundRate, inboundBurst),
	}
	c.clientID.Store(-1) // -1 表示未分配
	c.lastRecvTime.Store(time.Now())
	c.lastPingTime.Store(time.Time{})
	return c
}

// Handle 处理连接
func (c *Connection) Handle(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	log.Printf("观战端 %d: 连接处理开始", c.ID())

	wg.Add(1)
	go c.startHeartbeat(ctx, wg)

	// 启动发送循环
	wg.Add(1)
	go c.sendLoop(ctx, wg)

	// 启动接收循环
	wg.Add(1)
	go c.receiveLoop(ctx, wg)

	// 等待上下文取消或连接关闭
	select {
	case <-ctx.Done():
	case <-c.closeCh:
	}

	c.Close()
}

// Close 关闭连接
func (c *Connection) Close() {
	c.closeWithNotify(true)
}

// CloseWithoutNotify 关闭连接但不触发移除逻辑
func (c *Connection) CloseWithoutNotify() {
	c.closeWithNotify(false)
}

func (c *Connection) closeWithNotify(notify bool) {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.closeCh)

	// 关闭网络连接
	if c.conn != nil {
		c.conn.Close()
	}

	// 关闭发送通道
	close(c.sendChan)

	// 从服务器移除观战端
	if notify {
		if clientID := c.ID(); clientID >= 0 {
			c.server.removeClient(clientID)
		}
	}

	log.Printf("观战端 %d: 连接已关闭", c.ID())
}

// Send 发送数据（异步）
func (c *Connection) Send(data []byte) error {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return fmt.Errorf("连接已关闭")
	}
	defer c.closeMu.Unlock()

	select {
	case c.sendChan <- data:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// sendLoop 发送循环
func (c *Connection) sendLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case data, ok := <-c.sendChan:
			if !ok {
				// 通道已关闭
				return
			}

			// 发送数据长度前缀（4 字节）
			length := uint32(len(data))
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := binary.Write(c.conn, binary.BigEndian, length); err != nil {
				log.Printf("观战端 %d: 发送长度失败: %v", c.ID(), err)
				c.Close()
				return
			}

			// 发送数据体
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if _, err := c.conn.Write(data); err != nil {
				log.Printf("观战端 %d: 发送数据失败: %v", c.ID(), err)
				c.Close()
				return
			}
		}
	}
}

// receiveLoop 接收循环
func (c *Connection) receiveLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		default:
			// 读取消息长度（4 字节）
			var length uint32
			_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
			if err := binary.Read(c.conn, binary.BigEndian, &length); err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					log.Printf("观战端 %d: 读取超时", c.ID())
				} else if err != io.EOF {
					log.Printf("观战端 %d: 读取长度失败: %v", c.ID(), err)
				}
				c.Close()
				return
			}

			// 检查消息大小
			if length > MaxPacketSize {
				log.Printf("观战端 %d: 消息过大 (%d bytes)", c.ID(), length)
				c.Close()
				return
			}

			if length == 0 {
				log.Printf("观战端 %d: 收到空消息", c.ID())
				continue
			}

			// 读取消息体
			data := make([]byte, length)
			_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
			if _, err := io.ReadFull(c.conn, data); err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					log.Printf("观战端 %d: 读取超时", c.ID())
				} else {
					log.Printf("观战端 %d: 读取数据失败: %v", c.ID(), err)
				}
				c.Close()
				return
			}

			// 入站限速，超速直接丢弃
			if !c.limiter.Allow() {
				log.Printf("观战端 %d: 入站消息超速，丢弃", c.ID())
				continue
			}

			// 处理消息
			c.onMessageReceived()
			if err := c.handleMessage(data); err != nil {
				log.Printf("观战端 %d: 处理消息失败: %v", c.ID(), err)
			}
		}
	}
}

// handleMessage 处理接收到的消息
func (c *Connection) handleMessage(data []byte) error {
	event, err := DecodePacket(data)
	if err != nil {
		return fmt.Errorf("反序列化失败: %w", err)
	}

	switch event.Kind {
	case EventHello:
		if c.ID() >= 0 {
			return fmt.Errorf("观战端已接入")
		}
		if err := c.server.handleHello(c, event.Hello); err != nil {
			return fmt.Errorf("处理接入请求失败: %w", err)
		}

	case EventPing:
		c.server.handlePing(c, event.Ping)

	case EventPong:
		c.handlePong(event.Pong)

	case EventForceTarget:
		if c.ID() < 0 {
			return fmt.Errorf("未接入的连接不能下发指令")
		}
		c.server.handleForceTarget(c, event.ForceTarget)

	case EventSwitchTree:
		if c.ID() < 0 {
			return fmt.Errorf("未接入的连接不能下发指令")
		}
		c.server.handleSwitchTree(c, event.SwitchTree)

	case EventReconnect:
		if c.ID() >= 0 {
			return fmt.Errorf("观战端已接入")
		}
		if err := c.server.handleReconnect(c, event.Reconnect); err != nil {
			return fmt.Errorf("处理重连失败: %w", err)
		}

	default:
		return fmt.Errorf("未知消息类型")
	}

	return nil
}

// String 返回连接的字符串表示
func (c *Connection) String() string {
	if c.ID() >= 0 {
		return fmt.Sprintf("Connection{%d, %s}", c.ID(), c.conn.RemoteAddr())
	}
	return fmt.Sprintf("Connection{%s}", c.conn.RemoteAddr())
}

func (c *Connection) ID() int64 {
	return c.clientID.Load()
}

func (c *Connection) SetClientID(id int64) {
	c.clientID.Store(id)
}

const (
	heartbeatInterval = 5 * time.Second
	heartbeatTimeout  = 15 * time.Second
)

func (c *Connection) startHeartbeat(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closeCh:
			return
		case <-ticker.C:
			lastRecv, _ := c.lastRecvTime.Load().(time.Time)
			if !lastRecv.IsZero() && time.Since(lastRecv) > heartbeatTimeout {
				log.Printf("观战端 %d: 心跳超时", c.ID())
				c.Close()
				return
			}
			c.sendPing()
		}
	}
}

func (c *Connection) sendPing() {
	packet, err := protocol.NewPingPacket(time.Now().UnixMilli())
	if err != nil {
		return
	}
	data, err := protocol.MarshalPacket(packet)
	if err != nil {
		return
	}
	c.lastPingTime.Store(time.Now())
	_ = c.Send(data)
}

func (c *Connection) handlePong(pong *PongEvent) {
	c.lastRecvTime.Store(time.Now())
	if pong == nil || pong.ClientTime <= 0 {
		return
	}
	rtt := time.Now().UnixMilli() - pong.ClientTime
	c.rtt.Store(rtt)
}

func (c *Connection) onMessageReceived() {
	c.lastRecvTime.Store(time.Now())
}
