package models

import "time"

// ConversationStatus 会话状态
type ConversationStatus string

const (
	ConversationActive   ConversationStatus = "ACTIVE"
	ConversationArchived ConversationStatus = "ARCHIVED"
	ConversationClosed   ConversationStatus = "CLOSED"
)

// Conversation 买家（client）与报价发布者（owner）之间的会话。
// 每个 (offer, client) 组合同一时间只存在一条记录；CLOSED 的会话
// 在下次联系时被重新激活而不是新建。
type Conversation struct {
	ID                uint               `gorm:"primaryKey;autoIncrement" json:"id"`
	OfferID           uint               `gorm:"uniqueIndex:idx_offer_client;not null" json:"offerId"`
	ClientID          uint               `gorm:"uniqueIndex:idx_offer_client;not null" json:"clientId"`
	OwnerID           uint               `gorm:"index;not null" json:"ownerId"`
	Status            ConversationStatus `gorm:"type:varchar(10);default:'ACTIVE';index" json:"status"`
	LastMessageAt     *time.Time         `json:"lastMessageAt"`
	ClientUnreadCount int                `gorm:"default:0" json:"clientUnreadCount"`
	OwnerUnreadCount  int                `gorm:"default:0" json:"ownerUnreadCount"`
	CreatedAt         time.Time          `json:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt"`

	Messages []Message `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// IsParticipant 判断用户是否为会话成员
func (c *Conversation) IsParticipant(userID uint) bool {
	return c.ClientID == userID || c.OwnerID == userID
}

// OtherParticipant 返回对端用户ID
func (c *Conversation) OtherParticipant(userID uint) uint {
	if userID == c.ClientID {
		return c.OwnerID
	}
	return c.ClientID
}

// UnreadCountFor 返回指定成员的未读数
func (c *Conversation) UnreadCountFor(userID uint) int {
	if userID == c.ClientID {
		return c.ClientUnreadCount
	}
	return c.OwnerUnreadCount
}
