package repositories

import (
	"time"

	"service-market/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// MessageRepository 消息存储
type MessageRepository interface {
	// Save 在同一事务内写入消息、刷新会话 last_message_at 并原子递增
	// 接收方未读数：消息落库与未读 +1 要么同时生效要么都不生效。
	Save(msg *models.Message, conv *models.Conversation) error
	FindByID(id uint) (*models.Message, error)
	FindByConversationID(conversationID uint, limit, offset int) ([]models.Message, error)
	MarkAsRead(id uint, at time.Time) error
	// MarkConversationMessagesAsRead 把会话内 otherUserID 发出的未读消息
	// 全部置为已读，并同时把 readerID 一侧的未读数清零。
	MarkConversationMessagesAsRead(conversationID, otherUserID, readerID uint, at time.Time) error
	Delete(id uint) (bool, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Save(msg *models.Message, conv *models.Conversation) error {
	recipientID := conv.OtherParticipant(msg.SenderID)
	unreadColumn := "owner_unread_count"
	if recipientID == conv.ClientID {
		unreadColumn = "client_unread_count"
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		// 未读数用 SQL 表达式递增，并发发送不会丢失计数
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conv.ID).
			Updates(map[string]interface{}{
				"last_message_at": msg.CreatedAt,
				"updated_at":      time.Now(),
				unreadColumn:      gorm.Expr(unreadColumn+" + ?", 1),
			}).Error
	})
	if err != nil {
		return errors.Wrap(err, "msgRepo.Save")
	}
	return nil
}

// FindByID 查询消息；不存在时返回 (nil, nil)
func (r *messageRepository) FindByID(id uint) (*models.Message, error) {
	var msg models.Message
	err := r.db.First(&msg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "msgRepo.FindByID")
	}
	return &msg, nil
}

func (r *messageRepository) FindByConversationID(conversationID uint, limit, offset int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC"). // 按时间排序（最早的在前）
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error
	if err != nil {
		return nil, errors.Wrap(err, "msgRepo.FindByConversationID")
	}
	return msgs, nil
}

func (r *messageRepository) MarkAsRead(id uint, at time.Time) error {
	err := r.db.Model(&models.Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_read": true, "read_at": at}).Error
	if err != nil {
		return errors.Wrap(err, "msgRepo.MarkAsRead")
	}
	return nil
}

func (r *messageRepository) MarkConversationMessagesAsRead(conversationID, otherUserID, readerID uint, at time.Time) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Message{}).
			Where("conversation_id = ? AND sender_id = ? AND is_read = ?", conversationID, otherUserID, false).
			Updates(map[string]interface{}{"is_read": true, "read_at": at}).Error
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Conversation{}).
			Where("id = ? AND client_id = ?", conversationID, readerID).
			Update("client_unread_count", 0).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ? AND owner_id = ?", conversationID, readerID).
			Update("owner_unread_count", 0).Error
	})
	if err != nil {
		return errors.Wrap(err, "msgRepo.MarkConversationMessagesAsRead")
	}
	return nil
}

func (r *messageRepository) Delete(id uint) (bool, error) {
	res := r.db.Delete(&models.Message{}, id)
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "msgRepo.Delete")
	}
	return res.RowsAffected > 0, nil
}
