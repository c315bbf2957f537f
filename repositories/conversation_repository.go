package repositories

import (
	"time"

	"service-market/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// ConversationRepository 会话存储。未读计数相关操作必须是数据库侧的
// 原子更新，不允许基于缓存对象的读-改-写。
type ConversationRepository interface {
	Create(conv *models.Conversation) error
	FindByID(id uint) (*models.Conversation, error)
	FindByOfferAndClient(offerID, clientID uint) (*models.Conversation, error)
	FindByUserID(userID uint) ([]models.Conversation, error)
	UpdateStatus(id uint, status models.ConversationStatus) error
	ResetUnread(id uint, userID uint) error
	Delete(id uint) (bool, error)
}

type conversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(conv *models.Conversation) error {
	if err := r.db.Create(conv).Error; err != nil {
		return errors.Wrap(err, "convRepo.Create")
	}
	return nil
}

// FindByID 查询会话；不存在时返回 (nil, nil)
func (r *conversationRepository) FindByID(id uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.First(&conv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "convRepo.FindByID")
	}
	return &conv, nil
}

func (r *conversationRepository) FindByOfferAndClient(offerID, clientID uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.Where("offer_id = ? AND client_id = ?", offerID, clientID).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "convRepo.FindByOfferAndClient")
	}
	return &conv, nil
}

func (r *conversationRepository) FindByUserID(userID uint) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.
		Where("client_id = ? OR owner_id = ?", userID, userID).
		Order("last_message_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, errors.Wrap(err, "convRepo.FindByUserID")
	}
	return convs, nil
}

func (r *conversationRepository) UpdateStatus(id uint, status models.ConversationStatus) error {
	err := r.db.Model(&models.Conversation{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return errors.Wrap(err, "convRepo.UpdateStatus")
	}
	return nil
}

// ResetUnread 将 userID 一侧的未读数清零。两条语句各自按成员列匹配，
// 最多命中一条记录的一列，读确认竞争时结果幂等（都是 0）。
func (r *conversationRepository) ResetUnread(id uint, userID uint) error {
	now := time.Now()
	err := r.db.Model(&models.Conversation{}).
		Where("id = ? AND client_id = ?", id, userID).
		Updates(map[string]interface{}{"client_unread_count": 0, "updated_at": now}).Error
	if err != nil {
		return errors.Wrap(err, "convRepo.ResetUnread.client")
	}
	err = r.db.Model(&models.Conversation{}).
		Where("id = ? AND owner_id = ?", id, userID).
		Updates(map[string]interface{}{"owner_unread_count": 0, "updated_at": now}).Error
	if err != nil {
		return errors.Wrap(err, "convRepo.ResetUnread.owner")
	}
	return nil
}

// Delete 删除会话并级联删除消息
func (r *conversationRepository) Delete(id uint) (bool, error) {
	var deleted bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("conversation_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Conversation{}, id)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, errors.Wrap(err, "convRepo.Delete")
	}
	return deleted, nil
}
