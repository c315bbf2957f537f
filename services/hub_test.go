package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"service-market/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hubFixture struct {
	hub   *Hub
	convs *fakeConversationRepo
	msgs  *fakeMessageRepo
	conv  *models.Conversation
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()
	convRepo := newFakeConversationRepo()
	msgRepo := newFakeMessageRepo(convRepo)
	offers := newFakeOfferRepo()
	offers.add(testOfferID, testOwnerID)
	users := newFakeUserRepo(testOwnerID, testClientID)

	convSvc := NewConversationService(convRepo, offers, users)
	msgSvc := NewMessageService(msgRepo, convRepo, users)

	conv, err := convSvc.CreateOrGet(testOfferID, testClientID)
	require.NoError(t, err)

	return &hubFixture{
		hub:   NewHub(convSvc, msgSvc, nil),
		convs: convRepo,
		msgs:  msgRepo,
		conv:  conv,
	}
}

// newTestClient 不带真实连接的客户端，事件直接从 Send 队列读出
func (f *hubFixture) newTestClient(id string) *Client {
	return &Client{
		ID:       id,
		Send:     make(chan []byte, 32),
		LastPing: time.Now(),
		hub:      f.hub,
	}
}

func (f *hubFixture) connect(c *Client, userID uint) {
	f.hub.Dispatch(c, []byte(fmt.Sprintf(`{"type":"user-connect","userId":%d}`, userID)))
}

func (f *hubFixture) join(c *Client, conversationID uint) {
	f.hub.Dispatch(c, []byte(fmt.Sprintf(`{"type":"join-conversation","conversationId":%d,"userId":%d}`, conversationID, c.UserID)))
}

// recvEvent 取出一条已入队的事件；队列为空返回 nil
func recvEvent(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case data := <-c.Send:
		var ev map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &ev))
		return ev
	default:
		return nil
	}
}

func drain(c *Client) {
	for {
		select {
		case <-c.Send:
		default:
			return
		}
	}
}

func TestConnectBroadcastsPresenceToOthers(t *testing.T) {
	f := newHubFixture(t)
	c1 := f.newTestClient("c1")
	c2 := f.newTestClient("c2")

	f.connect(c1, testClientID)
	f.connect(c2, testOwnerID)

	ev := recvEvent(t, c1)
	require.NotNil(t, ev)
	assert.Equal(t, EventUserOnline, ev["type"])
	assert.Equal(t, float64(testOwnerID), ev["userId"])

	// 自己的连接不会收到自己的上线广播
	assert.Nil(t, recvEvent(t, c2))
	assert.True(t, f.hub.IsOnline(testClientID))
	assert.True(t, f.hub.IsOnline(testOwnerID))
}

func TestSecondConnectionDoesNotRebroadcastOnline(t *testing.T) {
	f := newHubFixture(t)
	c1 := f.newTestClient("c1")
	c2 := f.newTestClient("c2")
	c3 := f.newTestClient("c3")

	f.connect(c1, testClientID)
	f.connect(c2, testOwnerID)
	drain(c1)

	// owner 的第二条连接
	f.connect(c3, testOwnerID)
	assert.Nil(t, recvEvent(t, c1), "already-online user must not be re-announced")
}

func TestJoinConversationAuthorization(t *testing.T) {
	f := newHubFixture(t)
	stranger := f.newTestClient("s1")
	f.connect(stranger, 777) // 777 不是会话成员

	f.join(stranger, f.conv.ID)
	ev := recvEvent(t, stranger)
	require.NotNil(t, ev)
	assert.Equal(t, EventError, ev["type"])
	assert.False(t, f.hub.IsViewing(777, f.conv.ID))
}

func TestJoinNotifiesOtherParticipant(t *testing.T) {
	f := newHubFixture(t)
	client := f.newTestClient("c1")
	owner := f.newTestClient("o1")

	f.connect(client, testClientID)
	f.connect(owner, testOwnerID)
	drain(client)
	drain(owner)

	f.join(client, f.conv.ID)

	assert.True(t, f.hub.IsViewing(testClientID, f.conv.ID))

	ev := recvEvent(t, owner)
	require.NotNil(t, ev)
	assert.Equal(t, EventUserJoinedConversation, ev["type"])
	assert.Equal(t, float64(testClientID), ev["userId"])
}

func TestTypingReachesOnlyOtherParticipant(t *testing.T) {
	f := newHubFixture(t)
	client := f.newTestClient("c1")
	owner := f.newTestClient("o1")

	f.connect(client, testClientID)
	f.connect(owner, testOwnerID)
	f.join(client, f.conv.ID)
	f.join(owner, f.conv.ID)
	drain(client)
	drain(owner)

	f.hub.Dispatch(client, []byte(fmt.Sprintf(`{"type":"typing-start","conversationId":%d,"userId":%d}`, f.conv.ID, testClientID)))

	ev := recvEvent(t, owner)
	require.NotNil(t, ev)
	assert.Equal(t, EventUserTyping, ev["type"])
	assert.Equal(t, true, ev["isTyping"])
	assert.Equal(t, float64(testClientID), ev["userId"])

	assert.Nil(t, recvEvent(t, client), "sender must not receive their own typing event")
}

func TestSendMessageBroadcastsToRoom(t *testing.T) {
	f := newHubFixture(t)
	client := f.newTestClient("c1")
	owner := f.newTestClient("o1")

	f.connect(client, testClientID)
	f.connect(owner, testOwnerID)
	f.join(client, f.conv.ID)
	f.join(owner, f.conv.ID)
	drain(client)
	drain(owner)

	f.hub.Dispatch(client, []byte(fmt.Sprintf(`{"type":"send-message","conversationId":%d,"senderId":%d,"content":"hola"}`, f.conv.ID, testClientID)))

	for _, c := range []*Client{client, owner} {
		ev := recvEvent(t, c)
		require.NotNil(t, ev)
		assert.Equal(t, EventMessageReceived, ev["type"])
		msg := ev["message"].(map[string]interface{})
		assert.Equal(t, "hola", msg["content"])
	}

	// 双方都在会话视图中，不应产生私有通知
	assert.Nil(t, recvEvent(t, owner))
}

func TestSendMessageNotifiesInactiveRecipient(t *testing.T) {
	f := newHubFixture(t)
	client := f.newTestClient("c1")
	owner := f.newTestClient("o1")

	f.connect(client, testClientID)
	f.connect(owner, testOwnerID)
	f.join(client, f.conv.ID) // owner 在线但没有打开会话
	drain(client)
	drain(owner)

	f.hub.Dispatch(client, []byte(fmt.Sprintf(`{"type":"send-message","conversationId":%d,"senderId":%d,"content":"ping"}`, f.conv.ID, testClientID)))

	ev := recvEvent(t, owner)
	require.NotNil(t, ev)
	assert.Equal(t, EventNewMessageNotification, ev["type"])
	assert.Equal(t, float64(testClientID), ev["senderId"])
}

// PublishMessage 是 REST 发送路径落库后复用的推送入口，
// 行为要和 WebSocket 路径一致：房间广播 + 不在视图中的接收方收私有通知
func TestPublishMessageNotifiesInactiveRecipient(t *testing.T) {
	f := newHubFixture(t)
	client := f.newTestClient("c1")
	owner := f.newTestClient("o1")

	f.connect(client, testClientID)
	f.connect(owner, testOwnerID)
	f.join(client, f.conv.ID)
	drain(client)
	drain(owner)

	msg, err := f.hub.messages.SendMessage(f.conv.ID, testClientID, "via rest", models.MessageText)
	require.NoError(t, err)
	f.hub.PublishMessage(f.conv.ID, testClientID, msg)

	ev := recvEvent(t, client)
	require.NotNil(t, ev)
	assert.Equal(t, EventMessageReceived, ev["type"])

	ev = recvEvent(t, owner)
	require.NotNil(t, ev)
	assert.Equal(t, EventNewMessageNotification, ev["type"])
	assert.Equal(t, float64(testClientID), ev["senderId"])
}

// 握手写 UserID 与心跳协程的读取并发执行，两边都要拿连接自己的锁
func TestConnectHandshakeRacesHeartbeatRead(t *testing.T) {
	f := newHubFixture(t)
	client := f.newTestClient("c1")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		f.connect(client, testClientID)
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			client.mu.Lock()
			_ = client.UserID
			client.mu.Unlock()
		}
	}()
	wg.Wait()

	assert.Equal(t, uint(testClientID), client.UserID)
	assert.True(t, f.hub.IsOnline(testClientID))
}

func TestSendMessageFailureOnlyReachesSender(t *testing.T) {
	f := newHubFixture(t)
	client := f.newTestClient("c1")
	owner := f.newTestClient("o1")

	f.connect(client, testClientID)
	f.connect(owner, testOwnerID)
	f.join(owner, f.conv.ID)
	drain(client)
	drain(owner)

	// 空内容被投递层拒绝
	f.hub.Dispatch(client, []byte(fmt.Sprintf(`{"type":"send-message","conversationId":%d,"senderId":%d,"content":"   "}`, f.conv.ID, testClientID)))

	ev := recvEvent(t, client)
	require.NotNil(t, ev)
	assert.Equal(t, EventError, ev["type"])
	assert.Equal(t, "Message content cannot be empty", ev["message"])

	assert.Nil(t, recvEvent(t, owner), "no partial broadcast on failure")

	msgs, _ := f.msgs.FindByConversationID(f.conv.ID, 50, 0)
	assert.Empty(t, msgs)
}

func TestMarkAsReadBroadcastsReceipt(t *testing.T) {
	f := newHubFixture(t)
	client := f.newTestClient("c1")
	owner := f.newTestClient("o1")

	f.connect(client, testClientID)
	f.connect(owner, testOwnerID)
	f.join(client, f.conv.ID)
	f.join(owner, f.conv.ID)
	drain(client)
	drain(owner)

	f.hub.Dispatch(owner, []byte(fmt.Sprintf(`{"type":"send-message","conversationId":%d,"senderId":%d,"content":"Hi"}`, f.conv.ID, testOwnerID)))
	drain(client)
	drain(owner)

	f.hub.Dispatch(client, []byte(fmt.Sprintf(`{"type":"mark-as-read","conversationId":%d,"userId":%d}`, f.conv.ID, testClientID)))

	ev := recvEvent(t, owner)
	require.NotNil(t, ev)
	assert.Equal(t, EventMessagesRead, ev["type"])
	assert.Equal(t, float64(testClientID), ev["readBy"])

	stored, _ := f.convs.FindByID(f.conv.ID)
	assert.Equal(t, 0, stored.ClientUnreadCount)
}

func TestMalformedEventEmitsScopedError(t *testing.T) {
	f := newHubFixture(t)
	c1 := f.newTestClient("c1")
	f.connect(c1, testClientID)

	f.hub.Dispatch(c1, []byte(`{not json`))
	ev := recvEvent(t, c1)
	require.NotNil(t, ev)
	assert.Equal(t, EventError, ev["type"])

	f.hub.Dispatch(c1, []byte(`{"type":"no-such-event"}`))
	ev = recvEvent(t, c1)
	require.NotNil(t, ev)
	assert.Equal(t, EventError, ev["type"])
}

func TestDisconnectCleansUpAndBroadcastsOffline(t *testing.T) {
	f := newHubFixture(t)
	client := f.newTestClient("c1")
	owner := f.newTestClient("o1")

	f.connect(client, testClientID)
	f.connect(owner, testOwnerID)
	f.join(owner, f.conv.ID)
	drain(client)
	drain(owner)

	f.hub.removeClient(owner)

	assert.False(t, f.hub.IsOnline(testOwnerID))
	assert.False(t, f.hub.IsViewing(testOwnerID, f.conv.ID))

	ev := recvEvent(t, client)
	require.NotNil(t, ev)
	assert.Equal(t, EventUserOffline, ev["type"])
	assert.Equal(t, float64(testOwnerID), ev["userId"])
}

func TestOnlineUsersSnapshot(t *testing.T) {
	f := newHubFixture(t)
	c1 := f.newTestClient("c1")
	c2 := f.newTestClient("c2")

	f.connect(c1, testClientID)
	f.connect(c2, testOwnerID)

	assert.ElementsMatch(t, []uint{testClientID, testOwnerID}, f.hub.OnlineUsers())
}
