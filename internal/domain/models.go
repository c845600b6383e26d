package domain

import "time"

// SystemUsername is the sentinel author of join/leave notices.
const SystemUsername = "System"

const MaxMessageLength = 500

type Message struct {
	ID        string      `json:"id" db:"id"`
	Content   string      `json:"content" db:"content"`
	Username  string      `json:"username" db:"username"`
	Type      MessageType `json:"type" db:"type"`
	CreatedAt time.Time   `json:"timestamp" db:"created_at"`
}

type User struct {
	ID       string    `json:"id" db:"id"`
	Username string    `json:"username" db:"username"`
	IsActive bool      `json:"isActive" db:"is_active"`
	JoinedAt time.Time `json:"joinedAt" db:"joined_at"`
}

type (
	MessageType string

	EventType string
)

const (
	UserMessage   MessageType = "message"
	SystemMessage MessageType = "system"

	// inbound events
	MessageEventType EventType = "message"
	TypingEventType  EventType = "typing"

	// outbound events
	InitEventType      EventType = "init"
	UserCountEventType EventType = "userCount"
	ErrorEventType     EventType = "error"
)
