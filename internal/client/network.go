package client

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	kcp "github.com/xtaci/kcp-go/v5"

	"legion/pkg/protocol"
)

const (
	MaxPacketSize = 1 << 20 // 状态广播随单位数增长，上限放宽到 1MB
)

// NetworkClient 观战端网络层
type NetworkClient struct {
	conn       net.Conn
	serverAddr string
	proto      string
	name       string

	clientID     int64
	sessionToken string
	serverTPS    int

	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	// 消息队列
	stateChan   chan *protocol.WorldState
	eventsChan  chan *protocol.EventBatch
	welcomeChan chan *protocol.Welcome
	errorChan   chan *protocol.ErrorMsg

	// 发送队列
	sendChan chan []byte

	// 错误
	errChan chan error
}

// NewNetworkClient 创建观战端网络层
func NewNetworkClient(serverAddr, proto, name string) *NetworkClient {
	ctx, cancel := context.WithCancel(context.Background())

	return &NetworkClient{
		serverAddr:  serverAddr,
		proto:       proto,
		name:        name,
		ctx:         ctx,
		cancel:      cancel,
		stateChan:   make(chan *protocol.WorldState, 256),
		eventsChan:  make(chan *protocol.EventBatch, 256),
		welcomeChan: make(chan *protocol.Welcome, 1),
		errorChan:   make(chan *protocol.ErrorMsg, 16),
		sendChan:    make(chan []byte, 256),
		errChan:     make(chan error, 1),
	}
}

// Connect 连接到服务器并完成接入握手
func (nc *NetworkClient) Connect() error {
	log.Printf("连接到服务器: %s (%s)", nc.serverAddr, nc.proto)

	conn, err := nc.dial()
	if err != nil {
		return fmt.Errorf("连接服务器失败: %w", err)
	}

	nc.conn = conn
	nc.connected = true

	log.Printf("已连接到服务器: %s", conn.RemoteAddr())

	// 启动接收循环
	nc.wg.Add(1)
	go nc.receiveLoop()

	// 启动发送循环
	nc.wg.Add(1)
	go nc.sendLoop()

	// 发送接入请求
	if err := nc.sendHello(); err != nil {
		nc.Close()
		return fmt.Errorf("发送接入请求失败: %w", err)
	}

	// 等待接入响应
	select {
	case welcome := <-nc.welcomeChan:
		if !welcome.Success {
			nc.Close()
			return fmt.Errorf("接入被拒绝: %s", welcome.ErrorMessage)
		}
		nc.clientID = welcome.ClientID
		nc.sessionToken = welcome.SessionToken
		nc.serverTPS = welcome.TPS
		log.Printf("接入成功，观战端 ID: %d, 服务器 TPS: %d", nc.clientID, nc.serverTPS)
		return nil

	case err := <-nc.errChan:
		nc.Close()
		return err

	case <-time.After(10 * time.Second):
		nc.Close()
		return errors.New("等待接入响应超时")
	}
}

func (nc *NetworkClient) dial() (net.Conn, error) {
	switch nc.proto {
	case "", "tcp":
		return net.DialTimeout("tcp", nc.serverAddr, 5*time.Second)
	case "kcp":
		conn, err := kcp.DialWithOptions(nc.serverAddr, nil, 0, 0)
		if err != nil {
			return nil, err
		}
		conn.SetStreamMode(true)
		return conn, nil
	default:
		return nil, fmt.Errorf("不支持的协议: %s", nc.proto)
	}
}

// Close 关闭连接
func (nc *NetworkClient) Close() {
	if !nc.connected {
		return
	}

	nc.connected = false
	nc.cancel()

	if nc.conn != nil {
		nc.conn.Close()
	}

	nc.wg.Wait()

	close(nc.stateChan)
	close(nc.eventsChan)
	close(nc.welcomeChan)
	close(nc.errorChan)
	close(nc.sendChan)
	close(nc.errChan)

	log.Printf("网络客户端已关闭")
}

// ClientID 观战端 ID
func (nc *NetworkClient) ClientID() int64 {
	return nc.clientID
}

// SessionToken 会话令牌，断线重连时使用
func (nc *NetworkClient) SessionToken() string {
	return nc.sessionToken
}

// ServerTPS 服务器 tick 频率
func (nc *NetworkClient) ServerTPS() int {
	return nc.serverTPS
}

// IsConnected 检查是否已连接
func (nc *NetworkClient) IsConnected() bool {
	return nc.connected
}

// ========== 消息接收 ==========

// receiveLoop 接收循环
func (nc *NetworkClient) receiveLoop() {
	defer nc.wg.Done()

	for {
		select {
		case <-nc.ctx.Done():
			return

		default:
			// 读取消息长度（4 字节）
			var length uint32
			if err := binary.Read(nc.conn, binary.BigEndian, &length); err != nil {
				if !errors.Is(err, io.EOF) {
					nc.errChan <- fmt.Errorf("读取长度失败: %w", err)
				}
				return
			}

			// 检查消息大小
			if length > MaxPacketSize {
				nc.errChan <- fmt.Errorf("消息过大 (%d bytes)", length)
				return
			}

			if length == 0 {
				continue
			}

			// 读取消息体
			data := make([]byte, length)
			if _, err := io.ReadFull(nc.conn, data); err != nil {
				nc.errChan <- fmt.Errorf("读取数据失败: %w", err)
				return
			}

			// 处理消息
			if err := nc.handleMessage(data); err != nil {
				log.Printf("处理消息失败: %v", err)
			}
		}
	}
}

// handleMessage 处理接收到的消息
func (nc *NetworkClient) handleMessage(data []byte) error {
	packet, err := protocol.UnmarshalPacket(data)
	if err != nil {
		return fmt.Errorf("反序列化失败: %w", err)
	}

	switch packet.Type {
	case protocol.TypeState:
		state, err := protocol.ParseState(packet)
		if err != nil {
			return err
		}
		select {
		case nc.stateChan <- state:
		default:
			// 队列满，丢弃旧状态
		}

	case protocol.TypeEvents:
		batch, err := protocol.ParseEvents(packet)
		if err != nil {
			return err
		}
		select {
		case nc.eventsChan <- batch:
		default:
		}

	case protocol.TypeWelcome:
		welcome, err := protocol.ParseWelcome(packet)
		if err != nil {
			return err
		}
		select {
		case nc.welcomeChan <- welcome:
		default:
		}

	case protocol.TypePing:
		// 服务器心跳，原样回 pong
		ping, err := protocol.ParsePing(packet)
		if err != nil {
			return err
		}
		nc.sendPong(ping.ClientTime)

	case protocol.TypePong:
		// 自己发出的心跳得到回应，忽略

	case protocol.TypeError:
		errMsg, err := protocol.ParseError(packet)
		if err != nil {
			return err
		}
		select {
		case nc.errorChan <- errMsg:
		default:
		}

	default:
		return fmt.Errorf("未知消息类型: %s", packet.Type)
	}

	return nil
}

// ========== 消息发送 ==========

// sendLoop 发送循环
func (nc *NetworkClient) sendLoop() {
	defer nc.wg.Done()

	for {
		select {
		case <-nc.ctx.Done():
			return

		case data, ok := <-nc.sendChan:
			if !ok {
				return
			}

			// 发送长度前缀（4 字节）
			length := uint32(len(data))
			if err := binary.Write(nc.conn, binary.BigEndian, length); err != nil {
				log.Printf("发送长度失败: %v", err)
				return
			}

			// 发送数据体
			if _, err := nc.conn.Write(data); err != nil {
				log.Printf("发送数据失败: %v", err)
				return
			}
		}
	}
}

func (nc *NetworkClient) sendHello() error {
	packet, err := protocol.NewHelloPacket(nc.name)
	if err != nil {
		return err
	}
	return nc.sendPacket(packet)
}

func (nc *NetworkClient) sendPong(clientTime int64) {
	packet, err := protocol.NewPongPacket(clientTime, time.Now().UnixMilli(), 0)
	if err != nil {
		return
	}
	if err := nc.sendPacket(packet); err != nil {
		log.Printf("发送心跳响应失败: %v", err)
	}
}

func (nc *NetworkClient) sendPacket(packet *protocol.Packet) error {
	data, err := protocol.MarshalPacket(packet)
	if err != nil {
		return err
	}
	return nc.sendMessage(data)
}

// sendMessage 发送消息
func (nc *NetworkClient) sendMessage(data []byte) error {
	select {
	case nc.sendChan <- data:
		return nil
	default:
		return errors.New("发送队列满")
	}
}

// ========== 管理指令 ==========

// SendForceTarget 下发强制目标指令
func (nc *NetworkClient) SendForceTarget(unitID, targetID int64) {
	if !nc.connected {
		return
	}
	packet, err := protocol.NewForceTargetPacket(unitID, targetID)
	if err != nil {
		log.Printf("序列化指令失败: %v", err)
		return
	}
	if err := nc.sendPacket(packet); err != nil {
		log.Printf("发送指令失败: %v", err)
	}
}

// SendSwitchTree 下发切换行为树指令
func (nc *NetworkClient) SendSwitchTree(unitID int64, tree string) {
	if !nc.connected {
		return
	}
	packet, err := protocol.NewSwitchTreePacket(unitID, tree)
	if err != nil {
		log.Printf("序列化指令失败: %v", err)
		return
	}
	if err := nc.sendPacket(packet); err != nil {
		log.Printf("发送指令失败: %v", err)
	}
}

// ========== 状态接收 ==========

// ReceiveState 接收世界状态（非阻塞）
func (nc *NetworkClient) ReceiveState() *protocol.WorldState {
	select {
	case state := <-nc.stateChan:
		return state
	default:
		return nil
	}
}

// ReceiveEvents 接收事件批（非阻塞）
func (nc *NetworkClient) ReceiveEvents() *protocol.EventBatch {
	select {
	case batch := <-nc.eventsChan:
		return batch
	default:
		return nil
	}
}

// ReceiveError 接收服务器错误通知（非阻塞）
func (nc *NetworkClient) ReceiveError() *protocol.ErrorMsg {
	select {
	case errMsg := <-nc.errorChan:
		return errMsg
	default:
		return nil
	}
}
