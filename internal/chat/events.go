package chat

import (
	"github.com/Adithyan-b-raj/Anonchat/internal/domain"
)

// Requests from clients
type typeProbe struct {
	Type domain.EventType `json:"type"`
}

type ChatMessageRequest struct {
	Type    domain.EventType `json:"type"`
	Content string           `json:"content" validate:"required,min=1,max=500"`
}

type TypingRequest struct {
	Type     domain.EventType `json:"type"`
	IsTyping bool             `json:"isTyping"`
}

// Events for clients
type InitEvent struct {
	Type     domain.EventType `json:"type"`
	Messages []domain.Message `json:"messages"`
	Username string           `json:"username"`
	UserID   string           `json:"userId"`
}

type MessageEvent struct {
	Type    domain.EventType `json:"type"`
	Message domain.Message   `json:"message"`
}

type UserCountEvent struct {
	Type  domain.EventType `json:"type"`
	Count int              `json:"count"`
}

type TypingEvent struct {
	Type     domain.EventType `json:"type"`
	Username string           `json:"username"`
	IsTyping bool             `json:"isTyping"`
}

type ErrorEvent struct {
	Type    domain.EventType `json:"type"`
	Code    string           `json:"code"`
	Message string           `json:"message"`
}

type inboundFrame struct {
	client *Client
	raw    []byte
}
