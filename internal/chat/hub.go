package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/Adithyan-b-raj/Anonchat/internal/config"
	"github.com/Adithyan-b-raj/Anonchat/internal/domain"
	"github.com/Adithyan-b-raj/Anonchat/internal/repository"
	"github.com/go-playground/validator/v10"
)

// Hub is the single fan-out point of the room. One goroutine drains its
// channels, so store appends and broadcasts happen in one serialized order:
// every client observes events in hub acceptance order.
type Hub struct {
	store    repository.Store
	presence *Presence
	typing   *TypingTracker
	validate *validator.Validate

	historyLimit int
	sendBuffer   int
	sweepEvery   time.Duration

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	inbound    chan inboundFrame
}

func NewHub(store repository.Store, cfg config.Chat) *Hub {
	return &Hub{
		store:        store,
		presence:     NewPresence(store),
		typing:       NewTypingTracker(cfg.TypingExpiry()),
		validate:     validator.New(),
		historyLimit: cfg.HistoryLimit,
		sendBuffer:   cfg.SendBufferFrames,
		sweepEvery:   cfg.TypingSweepInterval(),
		clients:      make(map[*Client]bool),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		inbound:      make(chan inboundFrame),
	}
}

// Run drives the hub until ctx is cancelled. It must run in its own
// goroutine before any client connects.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.handleConnect(ctx, client)

		case client := <-h.unregister:
			h.handleDisconnect(ctx, client)

		case frame := <-h.inbound:
			h.handleFrame(ctx, frame)

		case now := <-ticker.C:
			h.sweepTyping(now)
		}
	}
}

func (h *Hub) handleConnect(ctx context.Context, client *Client) {
	participant, err := h.presence.Register(ctx, client)
	if err != nil {
		slog.Error("Failed to register connection", "error", err)
		close(client.send)
		return
	}

	h.clients[client] = true
	slog.Info("User connected", "username", participant.User.Username)

	history, err := h.store.RecentMessages(ctx, h.historyLimit)
	if err != nil {
		slog.Error("Failed to load history", "error", err)
		history = []domain.Message{}
	}

	h.sendTo(client, &InitEvent{
		Type:     domain.InitEventType,
		Messages: history,
		Username: participant.User.Username,
		UserID:   participant.User.ID,
	})

	h.appendAndBroadcast(ctx, participant.User.Username+" joined the chat")
	h.broadcastUserCount(ctx)
}

func (h *Hub) handleDisconnect(ctx context.Context, client *Client) {
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	close(client.send)

	participant, ok := h.presence.Deregister(ctx, client)
	if !ok {
		return
	}
	slog.Info("User disconnected", "username", participant.User.Username)

	h.typing.Set(participant.User.Username, false)

	h.appendAndBroadcast(ctx, participant.User.Username+" left the chat")
	h.broadcastUserCount(ctx)
}

func (h *Hub) handleFrame(ctx context.Context, frame inboundFrame) {
	participant, ok := h.presence.Get(frame.client)
	if !ok {
		return
	}

	var probe typeProbe
	if err := json.Unmarshal(frame.raw, &probe); err != nil {
		slog.Warn("Unparsable frame", "username", participant.User.Username, "error", err)
		h.sendError(frame.client, domain.ErrBadFrame)
		return
	}

	switch probe.Type {
	case domain.MessageEventType:
		var req ChatMessageRequest
		if err := json.Unmarshal(frame.raw, &req); err != nil {
			h.sendError(frame.client, domain.ErrBadFrame)
			return
		}
		h.handleMessage(ctx, frame.client, participant, req.Content)

	case domain.TypingEventType:
		var req TypingRequest
		if err := json.Unmarshal(frame.raw, &req); err != nil {
			h.sendError(frame.client, domain.ErrBadFrame)
			return
		}
		h.handleTyping(frame.client, participant, req.IsTyping)

	default:
		slog.Warn("Unknown event type", "username", participant.User.Username, "type", probe.Type)
		h.sendError(frame.client, domain.ErrUnknownEventType)
	}
}

func (h *Hub) handleMessage(ctx context.Context, client *Client, participant *Participant, content string) {
	req := ChatMessageRequest{Type: domain.MessageEventType, Content: content}
	if err := h.validate.Struct(&req); err != nil {
		if utf8.RuneCountInString(content) > domain.MaxMessageLength {
			h.sendError(client, domain.ErrMessageTooLong)
		} else {
			h.sendError(client, domain.ErrEmptyMessage)
		}
		return
	}

	msg, err := h.store.AppendMessage(ctx, content, participant.User.Username, domain.UserMessage)
	if err != nil {
		slog.Error("Failed to save message", "username", participant.User.Username, "error", err)
		h.sendError(client, domain.ErrInternalServerError)
		return
	}

	// the sender receives its own message back; clients reconcile
	// optimistic UI against the echoed event
	h.broadcast(&MessageEvent{Type: domain.MessageEventType, Message: *msg}, nil)
}

func (h *Hub) handleTyping(client *Client, participant *Participant, isTyping bool) {
	h.typing.Set(participant.User.Username, isTyping)

	h.broadcast(&TypingEvent{
		Type:     domain.TypingEventType,
		Username: participant.User.Username,
		IsTyping: isTyping,
	}, client)
}

func (h *Hub) sweepTyping(now time.Time) {
	for _, username := range h.typing.Sweep(now) {
		slog.Info("Typing state expired", "username", username)
		h.broadcast(&TypingEvent{
			Type:     domain.TypingEventType,
			Username: username,
			IsTyping: false,
		}, nil)
	}
}

func (h *Hub) appendAndBroadcast(ctx context.Context, content string) {
	msg, err := h.store.AppendMessage(ctx, content, domain.SystemUsername, domain.SystemMessage)
	if err != nil {
		slog.Error("Failed to save system message", "error", err)
		return
	}
	h.broadcast(&MessageEvent{Type: domain.MessageEventType, Message: *msg}, nil)
}

func (h *Hub) broadcastUserCount(ctx context.Context) {
	count, err := h.presence.Count(ctx)
	if err != nil {
		slog.Error("Failed to count active users", "error", err)
		return
	}
	h.broadcast(&UserCountEvent{Type: domain.UserCountEventType, Count: count}, nil)
}

// broadcast delivers an event to every open connection except exclude.
// Delivery is a non-blocking enqueue per client: a client that cannot
// accept the frame loses that frame only, the rest still receive it.
func (h *Hub) broadcast(event any, exclude *Client) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", "error", err)
		return
	}

	for client := range h.clients {
		if client == exclude {
			continue
		}
		h.deliver(client, payload)
	}
}

func (h *Hub) sendTo(client *Client, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", "error", err)
		return
	}
	h.deliver(client, payload)
}

func (h *Hub) sendError(client *Client, appErr *domain.AppError) {
	h.sendTo(client, &ErrorEvent{
		Type:    domain.ErrorEventType,
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}

func (h *Hub) deliver(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		slog.Warn("Dropping frame for slow client", "addr", client.addr)
	}
}
