package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Adithyan-b-raj/Anonchat/internal/domain"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Store is the persistence boundary consumed by the hub and the REST
// handlers. Message order is insertion order; RecentMessages returns the
// most recent N of it, oldest first.
type Store interface {
	AppendMessage(ctx context.Context, content, username string, kind domain.MessageType) (*domain.Message, error)
	RecentMessages(ctx context.Context, limit int) ([]domain.Message, error)

	CreateActiveUser(ctx context.Context, username string) (*domain.User, error)
	DeactivateUser(ctx context.Context, id string) error
	ActiveUsers(ctx context.Context) ([]domain.User, error)
	CountActiveUsers(ctx context.Context) (int, error)

	Close() error
}

// MemoryStore keeps the whole room state in process memory. It is the
// default backend; history does not survive a restart.
type MemoryStore struct {
	mu       sync.Mutex
	messages []domain.Message
	users    map[string]domain.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]domain.User),
	}
}

func (ms *MemoryStore) AppendMessage(_ context.Context, content, username string, kind domain.MessageType) (*domain.Message, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	msg := domain.Message{
		ID:        uuid.NewString(),
		Content:   content,
		Username:  username,
		Type:      kind,
		CreatedAt: time.Now(),
	}
	ms.messages = append(ms.messages, msg)
	return &msg, nil
}

func (ms *MemoryStore) RecentMessages(_ context.Context, limit int) ([]domain.Message, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	start := 0
	if limit > 0 && len(ms.messages) > limit {
		start = len(ms.messages) - limit
	}

	out := make([]domain.Message, len(ms.messages)-start)
	copy(out, ms.messages[start:])
	return out, nil
}

func (ms *MemoryStore) CreateActiveUser(_ context.Context, username string) (*domain.User, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	user := domain.User{
		ID:       uuid.NewString(),
		Username: username,
		IsActive: true,
		JoinedAt: time.Now(),
	}
	ms.users[user.ID] = user
	return &user, nil
}

func (ms *MemoryStore) DeactivateUser(_ context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.users, id)
	return nil
}

func (ms *MemoryStore) ActiveUsers(_ context.Context) ([]domain.User, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	users := lo.Filter(lo.Values(ms.users), func(u domain.User, _ int) bool {
		return u.IsActive
	})
	return users, nil
}

func (ms *MemoryStore) CountActiveUsers(ctx context.Context) (int, error) {
	users, err := ms.ActiveUsers(ctx)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

func (ms *MemoryStore) Close() error {
	return nil
}
