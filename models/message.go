package models

import "time"

// MessageType 消息类型
type MessageType string

const (
	MessageText  MessageType = "TEXT"
	MessageImage MessageType = "IMAGE"
	MessageFile  MessageType = "FILE"
)

// ValidMessageType 校验消息类型
func ValidMessageType(t MessageType) bool {
	switch t {
	case MessageText, MessageImage, MessageFile:
		return true
	}
	return false
}

// Message 会话内消息
type Message struct {
	ID             uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint        `gorm:"index;not null" json:"conversationId"`
	SenderID       uint        `gorm:"index;not null" json:"senderId"`
	Content        string      `gorm:"type:varchar(1000);not null" json:"content"`
	MessageType    MessageType `gorm:"type:varchar(10);default:'TEXT'" json:"messageType"`
	IsRead         bool        `gorm:"default:false" json:"isRead"` // 是否已读
	ReadAt         *time.Time  `json:"readAt"`
	CreatedAt      time.Time   `gorm:"index" json:"createdAt"`
}
