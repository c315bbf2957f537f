package models

import "time"

// Offer 服务报价模型（会话都挂在某个报价之下）
type Offer struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID     uint      `gorm:"index;not null" json:"ownerId"` // 发布者用户ID
	Title       string    `gorm:"type:varchar(120);not null" json:"title"`
	Description string    `gorm:"type:varchar(2000)" json:"description"`
	Price       float64   `json:"price"`
	Active      bool      `gorm:"default:true" json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
