package services

import (
	"service-market/models"
	apperrors "service-market/pkg/errors"
	"service-market/repositories"
)

// ConversationService 会话生命周期管理：按 (offer, client) 创建或复用
// 会话，处理归档/关闭/删除等状态流转。
type ConversationService struct {
	conversations repositories.ConversationRepository
	offers        repositories.OfferRepository
	users         repositories.UserRepository
}

func NewConversationService(
	conversations repositories.ConversationRepository,
	offers repositories.OfferRepository,
	users repositories.UserRepository,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		offers:        offers,
		users:         users,
	}
}

// CreateOrGet 买家首次联系某个报价时创建会话；已存在时直接复用，
// 已关闭（CLOSED）的会话重新激活而不是另建一条。
func (s *ConversationService) CreateOrGet(offerID, clientID uint) (*models.Conversation, error) {
	offer, err := s.offers.FindByID(offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, apperrors.ErrOfferNotFound
	}

	client, err := s.users.FindByID(clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, apperrors.ErrClientNotFound
	}

	// 自己不能联系自己的报价
	if clientID == offer.OwnerID {
		return nil, apperrors.ErrSelfConversation
	}

	existing, err := s.conversations.FindByOfferAndClient(offerID, clientID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == models.ConversationClosed {
			if err := s.conversations.UpdateStatus(existing.ID, models.ConversationActive); err != nil {
				return nil, err
			}
			return s.conversations.FindByID(existing.ID)
		}
		return existing, nil
	}

	conv := &models.Conversation{
		OfferID:  offerID,
		ClientID: clientID,
		OwnerID:  offer.OwnerID,
		Status:   models.ConversationActive,
	}
	if err := s.conversations.Create(conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// GetByID 查询会话，不存在时返回 NotFound
func (s *ConversationService) GetByID(id uint) (*models.Conversation, error) {
	conv, err := s.conversations.FindByID(id)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, apperrors.ErrConversationNotFound
	}
	return conv, nil
}

// GetUserConversations 返回用户参与的全部会话
func (s *ConversationService) GetUserConversations(userID uint) ([]models.Conversation, error) {
	return s.conversations.FindByUserID(userID)
}

// MarkAsRead 将请求者一侧的未读数清零（只清这一侧）
func (s *ConversationService) MarkAsRead(conversationID, userID uint) error {
	conv, err := s.GetByID(conversationID)
	if err != nil {
		return err
	}
	if !conv.IsParticipant(userID) {
		return apperrors.ErrNotParticipant
	}
	return s.conversations.ResetUnread(conversationID, userID)
}

// Archive 归档会话，双方任一成员都可以操作
func (s *ConversationService) Archive(conversationID, userID uint) error {
	conv, err := s.GetByID(conversationID)
	if err != nil {
		return err
	}
	if !conv.IsParticipant(userID) {
		return apperrors.ErrNotParticipant
	}
	return s.conversations.UpdateStatus(conversationID, models.ConversationArchived)
}

// Close 关闭会话，仅报价发布者可以操作
func (s *ConversationService) Close(conversationID, userID uint) error {
	conv, err := s.GetByID(conversationID)
	if err != nil {
		return err
	}
	if conv.OwnerID != userID {
		return apperrors.ErrOwnerOnly
	}
	return s.conversations.UpdateStatus(conversationID, models.ConversationClosed)
}

// Delete 删除会话并级联删除消息，仅报价发布者可以操作
func (s *ConversationService) Delete(conversationID, userID uint) (bool, error) {
	conv, err := s.conversations.FindByID(conversationID)
	if err != nil {
		return false, err
	}
	if conv == nil {
		return false, nil
	}
	if conv.OwnerID != userID {
		return false, apperrors.ErrOwnerOnly
	}
	return s.conversations.Delete(conversationID)
}
