package services

import (
	"strings"
	"time"
	"unicode/utf8"

	"service-market/models"
	apperrors "service-market/pkg/errors"
	"service-market/repositories"
)

const (
	maxContentLength    = 1000
	defaultMessageLimit = 50 // 默认分页大小
)

// MessageService 消息投递：校验、落库、维护会话的未读数与最近活动时间。
type MessageService struct {
	messages      repositories.MessageRepository
	conversations repositories.ConversationRepository
	users         repositories.UserRepository
}

func NewMessageService(
	messages repositories.MessageRepository,
	conversations repositories.ConversationRepository,
	users repositories.UserRepository,
) *MessageService {
	return &MessageService{
		messages:      messages,
		conversations: conversations,
		users:         users,
	}
}

// SendMessage 发送消息。消息写入、last_message_at 刷新和接收方未读 +1
// 在存储层同一事务内完成；归档（ARCHIVED）的会话仍可发送，CLOSED 拒绝。
func (s *MessageService) SendMessage(conversationID, senderID uint, content string, messageType models.MessageType) (*models.Message, error) {
	conv, err := s.conversations.FindByID(conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, apperrors.ErrConversationNotFound
	}

	if !conv.IsParticipant(senderID) {
		return nil, apperrors.ErrNotParticipant
	}

	sender, err := s.users.FindByID(senderID)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, apperrors.ErrSenderNotFound
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.ErrEmptyContent
	}
	// 上限按字符数计，多字节文本不能按字节数拒绝
	if utf8.RuneCountInString(content) > maxContentLength {
		return nil, apperrors.ErrContentTooLong
	}

	if messageType == "" {
		messageType = models.MessageText
	}
	if !models.ValidMessageType(messageType) {
		return nil, apperrors.ErrInvalidMessageType
	}

	if conv.Status == models.ConversationClosed {
		return nil, apperrors.ErrConversationClosed
	}

	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		MessageType:    messageType,
		IsRead:         false,
		CreatedAt:      time.Now(),
	}
	if err := s.messages.Save(msg, conv); err != nil {
		return nil, err
	}
	return msg, nil
}

// GetConversationMessages 分页返回会话消息，按时间升序
func (s *MessageService) GetConversationMessages(conversationID, userID uint, limit, offset int) ([]models.Message, error) {
	conv, err := s.conversations.FindByID(conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, apperrors.ErrConversationNotFound
	}
	if !conv.IsParticipant(userID) {
		return nil, apperrors.ErrNotParticipant
	}

	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.messages.FindByConversationID(conversationID, limit, offset)
}

// MarkMessageAsRead 将单条消息标记为已读。只有接收方可以标记，
// 发送者不能把自己的消息标成已读。
func (s *MessageService) MarkMessageAsRead(messageID, userID uint) error {
	msg, err := s.messages.FindByID(messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return apperrors.ErrMessageNotFound
	}

	conv, err := s.conversations.FindByID(msg.ConversationID)
	if err != nil {
		return err
	}
	if conv == nil {
		return apperrors.ErrConversationNotFound
	}
	if !conv.IsParticipant(userID) {
		return apperrors.ErrNotParticipant
	}
	if msg.SenderID == userID {
		return apperrors.ErrOwnMessageRead
	}

	return s.messages.MarkAsRead(messageID, time.Now())
}

// MarkConversationMessagesAsRead 将对方发来的消息全部置为已读，
// 并把请求者一侧的未读数清零（两个效果一起落库）。
func (s *MessageService) MarkConversationMessagesAsRead(conversationID, userID uint) error {
	conv, err := s.conversations.FindByID(conversationID)
	if err != nil {
		return err
	}
	if conv == nil {
		return apperrors.ErrConversationNotFound
	}
	if !conv.IsParticipant(userID) {
		return apperrors.ErrNotParticipant
	}

	otherUserID := conv.OtherParticipant(userID)
	return s.messages.MarkConversationMessagesAsRead(conversationID, otherUserID, userID, time.Now())
}

// DeleteMessage 删除消息，仅发送者本人可以操作
func (s *MessageService) DeleteMessage(messageID, userID uint) (bool, error) {
	msg, err := s.messages.FindByID(messageID)
	if err != nil {
		return false, err
	}
	if msg == nil {
		return false, apperrors.ErrMessageNotFound
	}
	if msg.SenderID != userID {
		return false, apperrors.ErrSenderOnly
	}
	return s.messages.Delete(messageID)
}
