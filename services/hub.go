package services

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"service-market/models"
)

// conversationResolver / messageDelivery 是 Hub 对业务层的最小依赖，
// 由 ConversationService / MessageService 实现（单测里用桩替换）。
type conversationResolver interface {
	GetByID(id uint) (*models.Conversation, error)
}

type messageDelivery interface {
	SendMessage(conversationID, senderID uint, content string, messageType models.MessageType) (*models.Message, error)
	MarkConversationMessagesAsRead(conversationID, userID uint) error
}

// Hub 在线状态与事件分发中心。在线表、房间表和"正在查看"表都是
// Hub 自有的进程内状态，只由 Hub 的事件处理修改；持久化状态一律
// 走 MessageService / ConversationService。
type Hub struct {
	mu      sync.RWMutex
	clients map[uint][]*Client        // userID -> 该用户的所有连接
	rooms   map[uint]map[*Client]bool // conversationID -> 订阅的连接
	active  map[uint]map[uint]bool    // userID -> 正在查看的会话集合

	register   chan *Client
	unregister chan *Client

	conversations conversationResolver
	messages      messageDelivery
	presence      *PresenceMirror
}

func NewHub(conversations conversationResolver, messages messageDelivery, presence *PresenceMirror) *Hub {
	return &Hub{
		clients:       make(map[uint][]*Client),
		rooms:         make(map[uint]map[*Client]bool),
		active:        make(map[uint]map[uint]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		conversations: conversations,
		messages:      messages,
		presence:      presence,
	}
}

// Run 处理连接的注册/注销
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			log.Println("New client connected:", client.ID)
			go client.StartHeartbeat()

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// Dispatch 解析并处理一条客户端事件。单个事件的失败只会给
// 发起方回一条 error 事件，绝不影响其他连接。
func (h *Hub) Dispatch(c *Client, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Recovered from event handler panic:", r)
			c.Emit(errorEvent("Internal error"))
		}
	}()

	var ev ClientEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.Emit(errorEvent("Invalid event format"))
		return
	}

	switch ev.Type {
	case EventUserConnect:
		h.handleUserConnect(c, ev.UserID)
	case EventJoinConversation:
		h.handleJoinConversation(c, ev.ConversationID)
	case EventLeaveConversation:
		h.handleLeaveConversation(c, ev.ConversationID)
	case EventSendMessage:
		h.handleSendMessage(c, ev)
	case EventTypingStart:
		h.handleTyping(c, ev.ConversationID, true)
	case EventTypingStop:
		h.handleTyping(c, ev.ConversationID, false)
	case EventMarkAsRead:
		h.handleMarkAsRead(c, ev.ConversationID)
	default:
		c.Emit(errorEvent("Unknown event type: " + ev.Type))
	}
}

// handleUserConnect 连接握手：登记在线状态并向其他在线用户广播
func (h *Hub) handleUserConnect(c *Client, userID uint) {
	if userID == 0 {
		c.Emit(errorEvent("userId is required"))
		return
	}

	// 心跳协程会并发读 UserID，写入走连接自己的锁
	c.mu.Lock()
	c.UserID = userID
	c.mu.Unlock()

	h.mu.Lock()
	wasOnline := len(h.clients[userID]) > 0
	h.clients[userID] = append(h.clients[userID], c)
	h.mu.Unlock()

	h.presence.Online(userID)
	log.Printf("User %d connected with connection %s", userID, c.ID)

	// 同一用户的第二条连接不再重复广播上线
	if !wasOnline {
		h.broadcastAll(userID, payload(EventUserOnline, map[string]interface{}{"userId": userID}))
	}
}

// handleJoinConversation 校验成员身份后订阅会话频道，并标记"正在查看"
func (h *Hub) handleJoinConversation(c *Client, conversationID uint) {
	if c.UserID == 0 {
		c.Emit(errorEvent("Not connected"))
		return
	}

	conv, err := h.conversations.GetByID(conversationID)
	if err != nil {
		c.Emit(errorEvent(err.Error()))
		return
	}
	if !conv.IsParticipant(c.UserID) {
		c.Emit(errorEvent("Not authorized to join this conversation"))
		return
	}

	h.mu.Lock()
	if h.rooms[conversationID] == nil {
		h.rooms[conversationID] = make(map[*Client]bool)
	}
	h.rooms[conversationID][c] = true
	if h.active[c.UserID] == nil {
		h.active[c.UserID] = make(map[uint]bool)
	}
	h.active[c.UserID][conversationID] = true
	h.mu.Unlock()

	log.Printf("User %d joined conversation %d", c.UserID, conversationID)

	h.NotifyUser(conv.OtherParticipant(c.UserID), payload(EventUserJoinedConversation, map[string]interface{}{
		"conversationId": conversationID,
		"userId":         c.UserID,
	}))
}

// handleLeaveConversation 退订会话频道并清除"正在查看"标记
func (h *Hub) handleLeaveConversation(c *Client, conversationID uint) {
	h.mu.Lock()
	if room := h.rooms[conversationID]; room != nil {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, conversationID)
		}
	}
	if convs := h.active[c.UserID]; convs != nil {
		delete(convs, conversationID)
	}
	h.mu.Unlock()

	log.Printf("User %d left conversation %d", c.UserID, conversationID)

	h.broadcastRoom(conversationID, payload(EventUserLeftConversation, map[string]interface{}{
		"conversationId": conversationID,
		"userId":         c.UserID,
	}), c)
}

// handleSendMessage 持久化消息并推送。失败时只给发送方回 error，
// 不做任何部分广播。
func (h *Hub) handleSendMessage(c *Client, ev ClientEvent) {
	senderID := ev.SenderID
	if senderID == 0 {
		senderID = c.UserID
	}

	msg, err := h.messages.SendMessage(ev.ConversationID, senderID, ev.Content, ev.MessageType)
	if err != nil {
		c.Emit(errorEvent(err.Error()))
		return
	}

	h.PublishMessage(ev.ConversationID, senderID, msg)
}

// PublishMessage 消息落库后的统一推送：先广播会话频道，接收方
// 不在会话视图中（离线或在看别的会话）时再走私有频道通知。
// WebSocket 和 REST 两条发送路径都从这里出去。
func (h *Hub) PublishMessage(conversationID, senderID uint, msg *models.Message) {
	h.broadcastRoom(conversationID, payload(EventMessageReceived, map[string]interface{}{
		"message":        msg,
		"conversationId": conversationID,
	}), nil)

	conv, err := h.conversations.GetByID(conversationID)
	if err != nil {
		return
	}
	recipientID := conv.OtherParticipant(senderID)
	if !h.IsViewing(recipientID, conversationID) {
		h.NotifyUser(recipientID, payload(EventNewMessageNotification, map[string]interface{}{
			"message":        msg,
			"conversationId": conversationID,
			"senderId":       senderID,
		}))
	}
}

// handleTyping 输入状态只广播不落库，且不回发给发送方自己
func (h *Hub) handleTyping(c *Client, conversationID uint, isTyping bool) {
	h.broadcastRoom(conversationID, payload(EventUserTyping, map[string]interface{}{
		"conversationId": conversationID,
		"userId":         c.UserID,
		"isTyping":       isTyping,
	}), c)
}

// handleMarkAsRead 批量已读，然后向会话频道广播已读回执
func (h *Hub) handleMarkAsRead(c *Client, conversationID uint) {
	if err := h.messages.MarkConversationMessagesAsRead(conversationID, c.UserID); err != nil {
		c.Emit(errorEvent(err.Error()))
		return
	}

	h.broadcastRoom(conversationID, payload(EventMessagesRead, map[string]interface{}{
		"conversationId": conversationID,
		"readBy":         c.UserID,
		"readAt":         time.Now(),
	}), nil)
}

// removeClient 注销连接：清理在线表、房间表和活跃视图，
// 最后一条连接断开时广播下线。
func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	userID := c.UserID

	if userID != 0 {
		conns := h.clients[userID]
		for i, cc := range conns {
			if cc == c {
				h.clients[userID] = append(conns[:i], conns[i+1:]...)
				break
			}
		}
		if len(h.clients[userID]) == 0 {
			delete(h.clients, userID)
			delete(h.active, userID)
		}
	}
	for convID, room := range h.rooms {
		if room[c] {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, convID)
			}
		}
	}
	lastConn := userID != 0 && h.clients[userID] == nil
	h.mu.Unlock()

	c.CloseSend()
	log.Println("Client unregistered:", c.ID)

	if lastConn {
		h.presence.Offline(userID)
		h.broadcastAll(userID, payload(EventUserOffline, map[string]interface{}{"userId": userID}))
	}
}

// IsOnline 用户是否在线；本机没有连接时查 Redis 镜像
//（多进程部署下其他节点的连接）
func (h *Hub) IsOnline(userID uint) bool {
	h.mu.RLock()
	local := len(h.clients[userID]) > 0
	h.mu.RUnlock()
	if local {
		return true
	}
	return h.presence.IsOnline(userID)
}

// IsViewing 用户是否正在查看某个会话
func (h *Hub) IsViewing(userID, conversationID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.active[userID][conversationID]
}

// OnlineUsers 返回当前在线用户ID列表
func (h *Hub) OnlineUsers() []uint {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]uint, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

// NotifyUser 向某个用户的全部连接推送（私有频道）
func (h *Hub) NotifyUser(userID uint, event map[string]interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Println("Failed to marshal event:", err)
		return
	}

	h.mu.RLock()
	conns := append([]*Client(nil), h.clients[userID]...)
	h.mu.RUnlock()

	for _, c := range conns {
		c.send(data)
	}
}

// broadcastRoom 向会话频道广播，except 不为 nil 时跳过该连接
func (h *Hub) broadcastRoom(conversationID uint, event map[string]interface{}, except *Client) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Println("Failed to marshal event:", err)
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[conversationID]))
	for c := range h.rooms[conversationID] {
		if c != except {
			members = append(members, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range members {
		c.send(data)
	}
}

// broadcastAll 向除 exceptUserID 外的所有在线连接广播（上线/下线通知）
func (h *Hub) broadcastAll(exceptUserID uint, event map[string]interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Println("Failed to marshal event:", err)
		return
	}

	h.mu.RLock()
	var conns []*Client
	for userID, cc := range h.clients {
		if userID == exceptUserID {
			continue
		}
		conns = append(conns, cc...)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.send(data)
	}
}
