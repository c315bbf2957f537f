package services

import "service-market/models"

// 客户端 → 服务端事件
const (
	EventUserConnect       = "user-connect"
	EventJoinConversation  = "join-conversation"
	EventLeaveConversation = "leave-conversation"
	EventSendMessage       = "send-message"
	EventTypingStart       = "typing-start"
	EventTypingStop        = "typing-stop"
	EventMarkAsRead        = "mark-as-read"
)

// 服务端 → 客户端事件
const (
	EventMessageReceived        = "message-received"
	EventNewMessageNotification = "new-message-notification"
	EventUserOnline             = "user-online"
	EventUserOffline            = "user-offline"
	EventUserJoinedConversation = "user-joined-conversation"
	EventUserLeftConversation   = "user-left-conversation"
	EventUserTyping             = "user-typing"
	EventMessagesRead           = "messages-read"
	EventError                  = "error"
)

// ClientEvent 客户端事件统一信封，字段名是对外协议的一部分
type ClientEvent struct {
	Type           string             `json:"type"`
	ConversationID uint               `json:"conversationId,omitempty"`
	UserID         uint               `json:"userId,omitempty"`
	SenderID       uint               `json:"senderId,omitempty"`
	Content        string             `json:"content,omitempty"`
	MessageType    models.MessageType `json:"messageType,omitempty"`
}

// payload 构造服务端事件
func payload(eventType string, fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+1)
	out["type"] = eventType
	for k, v := range fields {
		out[k] = v
	}
	return out
}

func errorEvent(message string) map[string]interface{} {
	return payload(EventError, map[string]interface{}{"message": message})
}
