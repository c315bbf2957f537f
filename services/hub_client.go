package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	pingInterval = 10 * time.Second // 发送 ping 的间隔
	pongTimeout  = 30 * time.Second // 超过该时间未收到 pong 断开连接
	sendBuffer   = 256
)

// Client 一条 WebSocket 连接。UserID 在 user-connect 握手前为 0。
type Client struct {
	ID       string
	UserID   uint
	Conn     *websocket.Conn
	Send     chan []byte
	LastPing time.Time

	hub       *Hub
	mu        sync.Mutex
	closeOnce sync.Once
}

// NewClient 创建连接对象并注册到 Hub
func NewClient(hub *Hub, id string, conn *websocket.Conn) *Client {
	c := &Client{
		ID:       id,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		LastPing: time.Now(),
		hub:      hub,
	}
	hub.register <- c
	return c
}

// ReadLoop 串行处理该连接上的所有事件；连接断开时触发注销清理
func (c *Client) ReadLoop() {
	defer func() {
		c.hub.unregister <- c
		c.mu.Lock()
		if c.Conn != nil {
			c.Conn.Close()
		}
		c.mu.Unlock()
	}()

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			break
		}
		if string(msg) == "pong" {
			c.mu.Lock()
			c.LastPing = time.Now()
			c.mu.Unlock()
			continue
		}
		c.hub.Dispatch(c, msg)
	}
}

// WriteLoop 该连接唯一的写出者
func (c *Client) WriteLoop() {
	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

// StartHeartbeat 心跳检测，超时则关闭连接由 ReadLoop 收尾
func (c *Client) StartHeartbeat() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		expired := time.Since(c.LastPing) > pongTimeout
		userID := c.UserID
		c.mu.Unlock()

		if expired {
			log.Println("Client timeout, closing connection:", c.ID)
			c.Conn.Close()
			return
		}

		if !c.send([]byte("ping")) {
			return
		}
		if userID != 0 {
			c.hub.presence.Refresh(userID)
		}
	}
}

// Emit 向该连接推送一条服务端事件
func (c *Client) Emit(event map[string]interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Println("Failed to marshal event:", err)
		return
	}
	c.send(data)
}

// send 非阻塞写入发送队列，队列满说明对端已经跟不上，丢弃该帧。
// 广播快照与注销可能交错，写已关闭队列按发送失败处理。
func (c *Client) send(data []byte) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	select {
	case c.Send <- data:
		return true
	default:
		log.Println("Send buffer full, dropping frame for client:", c.ID)
		return false
	}
}

// CloseSend 关闭发送队列，终止 WriteLoop
func (c *Client) CloseSend() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}
