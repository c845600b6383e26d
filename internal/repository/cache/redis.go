package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Adithyan-b-raj/Anonchat/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	messagesKey    = "chat:messages"
	activeUsersKey = "chat:users:active"
)

func userKey(id string) string {
	return fmt.Sprintf("chat:user:%s", id)
}

// RedisStore keeps messages in a list (RPUSH order is insertion order) and
// users as JSON values alongside an active-id set.
type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{redis: client}
}

func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

func (rs *RedisStore) AppendMessage(ctx context.Context, content, username string, kind domain.MessageType) (*domain.Message, error) {
	msg := domain.Message{
		ID:        uuid.NewString(),
		Content:   content,
		Username:  username,
		Type:      kind,
		CreatedAt: time.Now(),
	}

	data, err := json.Marshal(&msg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := rs.redis.RPush(ctx, messagesKey, data).Err(); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (rs *RedisStore) RecentMessages(ctx context.Context, limit int) ([]domain.Message, error) {
	start := int64(-limit)
	if limit <= 0 {
		start = 0
	}

	raw, err := rs.redis.LRange(ctx, messagesKey, start, -1).Result()
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, item := range raw {
		var msg domain.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (rs *RedisStore) CreateActiveUser(ctx context.Context, username string) (*domain.User, error) {
	user := domain.User{
		ID:       uuid.NewString(),
		Username: username,
		IsActive: true,
		JoinedAt: time.Now(),
	}

	data, err := json.Marshal(&user)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user: %w", err)
	}

	pipe := rs.redis.TxPipeline()
	pipe.Set(ctx, userKey(user.ID), data, 0)
	pipe.SAdd(ctx, activeUsersKey, user.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return &user, nil
}

func (rs *RedisStore) DeactivateUser(ctx context.Context, id string) error {
	pipe := rs.redis.TxPipeline()
	pipe.SRem(ctx, activeUsersKey, id)
	pipe.Del(ctx, userKey(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (rs *RedisStore) ActiveUsers(ctx context.Context) ([]domain.User, error) {
	ids, err := rs.redis.SMembers(ctx, activeUsersKey).Result()
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		raw, err := rs.redis.Get(ctx, userKey(id)).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, err
		}

		var user domain.User
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user: %w", err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (rs *RedisStore) CountActiveUsers(ctx context.Context) (int, error) {
	count, err := rs.redis.SCard(ctx, activeUsersKey).Result()
	return int(count), err
}

func (rs *RedisStore) Close() error {
	return rs.redis.Close()
}
