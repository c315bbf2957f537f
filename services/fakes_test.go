package services

import (
	"sync"
	"time"

	"service-market/models"
)

// 内存版存储桩，行为与 gorm 实现保持一致（原子计数、级联删除）。

type fakeConversationRepo struct {
	mu     sync.Mutex
	nextID uint
	convs  map[uint]*models.Conversation
	msgs   *fakeMessageRepo // 级联删除用，可为 nil
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{nextID: 1, convs: make(map[uint]*models.Conversation)}
}

func (f *fakeConversationRepo) Create(conv *models.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv.ID = f.nextID
	f.nextID++
	now := time.Now()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	cp := *conv
	f.convs[conv.ID] = &cp
	return nil
}

func (f *fakeConversationRepo) FindByID(id uint) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.convs[id]
	if !ok {
		return nil, nil
	}
	cp := *conv
	return &cp, nil
}

func (f *fakeConversationRepo) FindByOfferAndClient(offerID, clientID uint) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conv := range f.convs {
		if conv.OfferID == offerID && conv.ClientID == clientID {
			cp := *conv
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeConversationRepo) FindByUserID(userID uint) ([]models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Conversation
	for _, conv := range f.convs {
		if conv.ClientID == userID || conv.OwnerID == userID {
			out = append(out, *conv)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) UpdateStatus(id uint, status models.ConversationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conv, ok := f.convs[id]; ok {
		conv.Status = status
		conv.UpdatedAt = time.Now()
	}
	return nil
}

func (f *fakeConversationRepo) ResetUnread(id uint, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.convs[id]
	if !ok {
		return nil
	}
	if conv.ClientID == userID {
		conv.ClientUnreadCount = 0
	}
	if conv.OwnerID == userID {
		conv.OwnerUnreadCount = 0
	}
	conv.UpdatedAt = time.Now()
	return nil
}

func (f *fakeConversationRepo) Delete(id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.convs[id]; !ok {
		return false, nil
	}
	delete(f.convs, id)
	if f.msgs != nil {
		f.msgs.deleteByConversation(id)
	}
	return true, nil
}

type fakeMessageRepo struct {
	mu     sync.Mutex
	nextID uint
	msgs   map[uint]*models.Message
	convs  *fakeConversationRepo
}

func newFakeMessageRepo(convs *fakeConversationRepo) *fakeMessageRepo {
	f := &fakeMessageRepo{nextID: 1, msgs: make(map[uint]*models.Message), convs: convs}
	if convs != nil {
		convs.msgs = f
	}
	return f
}

// Save 对应 gorm 实现的事务：落库 + last_message_at + 未读原子 +1
func (f *fakeMessageRepo) Save(msg *models.Message, conv *models.Conversation) error {
	f.mu.Lock()
	msg.ID = f.nextID
	f.nextID++
	cp := *msg
	f.msgs[msg.ID] = &cp
	f.mu.Unlock()

	f.convs.mu.Lock()
	defer f.convs.mu.Unlock()
	stored, ok := f.convs.convs[conv.ID]
	if !ok {
		return nil
	}
	t := msg.CreatedAt
	stored.LastMessageAt = &t
	stored.UpdatedAt = time.Now()
	// 基于存储中的当前值递增，而不是调用方缓存的副本
	if conv.OtherParticipant(msg.SenderID) == stored.ClientID {
		stored.ClientUnreadCount++
	} else {
		stored.OwnerUnreadCount++
	}
	return nil
}

func (f *fakeMessageRepo) FindByID(id uint) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.msgs[id]
	if !ok {
		return nil, nil
	}
	cp := *msg
	return &cp, nil
}

func (f *fakeMessageRepo) FindByConversationID(conversationID uint, limit, offset int) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Message
	for id := uint(1); id < f.nextID; id++ {
		if msg, ok := f.msgs[id]; ok && msg.ConversationID == conversationID {
			out = append(out, *msg)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMessageRepo) MarkAsRead(id uint, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := f.msgs[id]; ok {
		msg.IsRead = true
		t := at
		msg.ReadAt = &t
	}
	return nil
}

func (f *fakeMessageRepo) MarkConversationMessagesAsRead(conversationID, otherUserID, readerID uint, at time.Time) error {
	f.mu.Lock()
	for _, msg := range f.msgs {
		if msg.ConversationID == conversationID && msg.SenderID == otherUserID && !msg.IsRead {
			msg.IsRead = true
			t := at
			msg.ReadAt = &t
		}
	}
	f.mu.Unlock()
	return f.convs.ResetUnread(conversationID, readerID)
}

func (f *fakeMessageRepo) Delete(id uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.msgs[id]; !ok {
		return false, nil
	}
	delete(f.msgs, id)
	return true, nil
}

func (f *fakeMessageRepo) deleteByConversation(conversationID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, msg := range f.msgs {
		if msg.ConversationID == conversationID {
			delete(f.msgs, id)
		}
	}
}

type fakeUserRepo struct {
	users map[uint]*models.User
}

func newFakeUserRepo(ids ...uint) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[uint]*models.User)}
	for _, id := range ids {
		f.users[id] = &models.User{ID: id}
	}
	return f
}

func (f *fakeUserRepo) FindByID(id uint) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	return user, nil
}

type fakeOfferRepo struct {
	offers map[uint]*models.Offer
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{offers: make(map[uint]*models.Offer)}
}

func (f *fakeOfferRepo) add(id, ownerID uint) {
	f.offers[id] = &models.Offer{ID: id, OwnerID: ownerID, Active: true}
}

func (f *fakeOfferRepo) FindByID(id uint) (*models.Offer, error) {
	offer, ok := f.offers[id]
	if !ok {
		return nil, nil
	}
	return offer, nil
}
