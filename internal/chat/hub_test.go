package chat

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Adithyan-b-raj/Anonchat/internal/config"
	"github.com/Adithyan-b-raj/Anonchat/internal/domain"
	"github.com/Adithyan-b-raj/Anonchat/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChatConfig() config.Chat {
	return config.Chat{
		HistoryLimit:     50,
		TypingExpiryMS:   3000,
		TypingSweepMS:    1000,
		SendBufferFrames: 16,
	}
}

func newTestHub(t *testing.T, cfg config.Chat) (*Hub, *repository.MemoryStore) {
	t.Helper()

	store := repository.NewMemoryStore()
	hub := NewHub(store, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	return hub, store
}

func connect(t *testing.T, hub *Hub) *Client {
	t.Helper()

	client := NewClient(hub, nil, "test")
	select {
	case hub.register <- client:
	case <-time.After(time.Second):
		t.Fatal("timed out registering client")
	}
	return client
}

func sendFrame(t *testing.T, hub *Hub, client *Client, v any) {
	t.Helper()

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	sendRaw(t, hub, client, raw)
}

func sendRaw(t *testing.T, hub *Hub, client *Client, raw []byte) {
	t.Helper()

	select {
	case hub.inbound <- inboundFrame{client: client, raw: raw}:
	case <-time.After(time.Second):
		t.Fatal("timed out sending frame")
	}
}

func recvEvent(t *testing.T, client *Client) map[string]any {
	t.Helper()

	select {
	case payload, ok := <-client.send:
		require.True(t, ok, "send channel closed while waiting for event")
		var event map[string]any
		require.NoError(t, json.Unmarshal(payload, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func expectSilence(t *testing.T, client *Client, wait time.Duration) {
	t.Helper()

	select {
	case payload := <-client.send:
		t.Fatalf("expected no event, got %s", payload)
	case <-time.After(wait):
	}
}

func recvInit(t *testing.T, client *Client) (username string, history []any) {
	t.Helper()

	event := recvEvent(t, client)
	require.Equal(t, "init", event["type"])
	messages, _ := event["messages"].([]any)
	return event["username"].(string), messages
}

func recvSystemMessage(t *testing.T, client *Client) string {
	t.Helper()

	event := recvEvent(t, client)
	require.Equal(t, "message", event["type"])
	msg := event["message"].(map[string]any)
	require.Equal(t, "system", msg["type"])
	require.Equal(t, domain.SystemUsername, msg["username"])
	return msg["content"].(string)
}

func recvUserCount(t *testing.T, client *Client) int {
	t.Helper()

	event := recvEvent(t, client)
	require.Equal(t, "userCount", event["type"])
	return int(event["count"].(float64))
}

func TestHubConnectScenario(t *testing.T) {
	hub, _ := newTestHub(t, testChatConfig())

	a := connect(t, hub)
	usernameA, history := recvInit(t, a)
	assert.True(t, strings.HasPrefix(usernameA, "Anonymous_"))
	assert.Empty(t, history, "first client starts with empty history")
	assert.Equal(t, usernameA+" joined the chat", recvSystemMessage(t, a))
	assert.Equal(t, 1, recvUserCount(t, a))

	b := connect(t, hub)
	usernameB, historyB := recvInit(t, b)
	assert.Len(t, historyB, 1, "second client sees the first join notice")
	assert.Equal(t, usernameB+" joined the chat", recvSystemMessage(t, b))
	assert.Equal(t, 2, recvUserCount(t, b))

	assert.Equal(t, usernameB+" joined the chat", recvSystemMessage(t, a))
	assert.Equal(t, 2, recvUserCount(t, a))

	c := connect(t, hub)
	_, historyC := recvInit(t, c)
	assert.Len(t, historyC, 2)
	recvSystemMessage(t, c)
	assert.Equal(t, 3, recvUserCount(t, c))

	for _, client := range []*Client{a, b} {
		recvSystemMessage(t, client)
		assert.Equal(t, 3, recvUserCount(t, client))
	}
}

func TestHubMessageBroadcastEchoesToSender(t *testing.T) {
	hub, store := newTestHub(t, testChatConfig())

	a := connect(t, hub)
	usernameA, _ := recvInit(t, a)
	recvSystemMessage(t, a)
	recvUserCount(t, a)

	b := connect(t, hub)
	recvInit(t, b)
	recvSystemMessage(t, b)
	recvUserCount(t, b)
	recvSystemMessage(t, a)
	recvUserCount(t, a)

	sendFrame(t, hub, a, &ChatMessageRequest{Type: domain.MessageEventType, Content: "hi"})

	for _, client := range []*Client{a, b} {
		event := recvEvent(t, client)
		require.Equal(t, "message", event["type"])
		msg := event["message"].(map[string]any)
		assert.Equal(t, "hi", msg["content"])
		assert.Equal(t, usernameA, msg["username"])
	}

	history, err := store.RecentMessages(context.Background(), 50)
	require.NoError(t, err)
	last := history[len(history)-1]
	assert.Equal(t, "hi", last.Content)
	assert.Equal(t, domain.UserMessage, last.Type)
}

func TestHubBroadcastOrderMatchesStoreOrder(t *testing.T) {
	hub, store := newTestHub(t, testChatConfig())

	a := connect(t, hub)
	recvInit(t, a)
	recvSystemMessage(t, a)
	recvUserCount(t, a)

	bodies := []string{"first", "second", "third"}
	for _, body := range bodies {
		sendFrame(t, hub, a, &ChatMessageRequest{Type: domain.MessageEventType, Content: body})
	}

	var received []string
	for range bodies {
		event := recvEvent(t, a)
		msg := event["message"].(map[string]any)
		received = append(received, msg["content"].(string))
	}
	assert.Equal(t, bodies, received)

	history, err := store.RecentMessages(context.Background(), 50)
	require.NoError(t, err)

	var stored []string
	for _, msg := range history {
		if msg.Type == domain.UserMessage {
			stored = append(stored, msg.Content)
		}
	}
	assert.Equal(t, bodies, stored, "store insertion order must equal broadcast order")
}

func TestHubRejectsInvalidMessageBodies(t *testing.T) {
	hub, store := newTestHub(t, testChatConfig())

	a := connect(t, hub)
	recvInit(t, a)
	recvSystemMessage(t, a)
	recvUserCount(t, a)

	b := connect(t, hub)
	recvInit(t, b)
	recvSystemMessage(t, b)
	recvUserCount(t, b)
	recvSystemMessage(t, a)
	recvUserCount(t, a)

	sendFrame(t, hub, a, &ChatMessageRequest{Type: domain.MessageEventType, Content: ""})
	event := recvEvent(t, a)
	assert.Equal(t, "error", event["type"])
	assert.Equal(t, domain.ErrEmptyMessage.Code, event["code"])

	sendFrame(t, hub, a, &ChatMessageRequest{
		Type:    domain.MessageEventType,
		Content: strings.Repeat("x", 501),
	})
	event = recvEvent(t, a)
	assert.Equal(t, "error", event["type"])
	assert.Equal(t, domain.ErrMessageTooLong.Code, event["code"])

	expectSilence(t, b, 100*time.Millisecond)

	history, err := store.RecentMessages(context.Background(), 50)
	require.NoError(t, err)
	for _, msg := range history {
		assert.NotEqual(t, domain.UserMessage, msg.Type, "rejected bodies must never reach the log")
	}
}

func TestHubProtocolErrorsStayWithOrigin(t *testing.T) {
	hub, _ := newTestHub(t, testChatConfig())

	a := connect(t, hub)
	recvInit(t, a)
	recvSystemMessage(t, a)
	recvUserCount(t, a)

	b := connect(t, hub)
	recvInit(t, b)
	recvSystemMessage(t, b)
	recvUserCount(t, b)
	recvSystemMessage(t, a)
	recvUserCount(t, a)

	sendRaw(t, hub, a, []byte(`{"type":`))
	event := recvEvent(t, a)
	assert.Equal(t, "error", event["type"])
	assert.Equal(t, domain.ErrBadFrame.Code, event["code"])

	sendRaw(t, hub, a, []byte(`{"type":"presence"}`))
	event = recvEvent(t, a)
	assert.Equal(t, "error", event["type"])
	assert.Equal(t, domain.ErrUnknownEventType.Code, event["code"])

	expectSilence(t, b, 100*time.Millisecond)
}

func TestHubTypingExcludesSender(t *testing.T) {
	hub, _ := newTestHub(t, testChatConfig())

	a := connect(t, hub)
	usernameA, _ := recvInit(t, a)
	recvSystemMessage(t, a)
	recvUserCount(t, a)

	b := connect(t, hub)
	recvInit(t, b)
	recvSystemMessage(t, b)
	recvUserCount(t, b)
	recvSystemMessage(t, a)
	recvUserCount(t, a)

	sendFrame(t, hub, a, &TypingRequest{Type: domain.TypingEventType, IsTyping: true})

	event := recvEvent(t, b)
	assert.Equal(t, "typing", event["type"])
	assert.Equal(t, usernameA, event["username"])
	assert.Equal(t, true, event["isTyping"])

	expectSilence(t, a, 100*time.Millisecond)
}

func TestHubTypingExpiresWithoutRefresh(t *testing.T) {
	cfg := testChatConfig()
	cfg.TypingExpiryMS = 60
	cfg.TypingSweepMS = 20
	hub, _ := newTestHub(t, cfg)

	a := connect(t, hub)
	usernameA, _ := recvInit(t, a)
	recvSystemMessage(t, a)
	recvUserCount(t, a)

	b := connect(t, hub)
	recvInit(t, b)
	recvSystemMessage(t, b)
	recvUserCount(t, b)
	recvSystemMessage(t, a)
	recvUserCount(t, a)

	sendFrame(t, hub, a, &TypingRequest{Type: domain.TypingEventType, IsTyping: true})

	event := recvEvent(t, b)
	require.Equal(t, "typing", event["type"])
	require.Equal(t, true, event["isTyping"])

	event = recvEvent(t, b)
	assert.Equal(t, "typing", event["type"])
	assert.Equal(t, usernameA, event["username"])
	assert.Equal(t, false, event["isTyping"], "stale typing state must expire on its own")

	expectSilence(t, b, 200*time.Millisecond)
}

func TestHubDisconnectBroadcastsLeaveOnce(t *testing.T) {
	hub, _ := newTestHub(t, testChatConfig())

	a := connect(t, hub)
	usernameA, _ := recvInit(t, a)
	recvSystemMessage(t, a)
	recvUserCount(t, a)

	b := connect(t, hub)
	recvInit(t, b)
	recvSystemMessage(t, b)
	recvUserCount(t, b)
	recvSystemMessage(t, a)
	recvUserCount(t, a)

	hub.unregister <- a
	assert.Equal(t, usernameA+" left the chat", recvSystemMessage(t, b))
	assert.Equal(t, 1, recvUserCount(t, b))

	// repeated unregister for an already-removed handle is a no-op
	hub.unregister <- a
	expectSilence(t, b, 100*time.Millisecond)
}
