package chat

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/Adithyan-b-raj/Anonchat/internal/domain"
	"github.com/Adithyan-b-raj/Anonchat/internal/repository"
)

// Participant is the server-side record for one open connection: the
// ephemeral identity plus when it joined. Presence owns the mapping from
// connection to Participant; the transport layer carries no domain state.
type Participant struct {
	User     domain.User
	JoinedAt time.Time
}

type Presence struct {
	mu           sync.Mutex
	store        repository.Store
	participants map[*Client]*Participant
}

func NewPresence(store repository.Store) *Presence {
	return &Presence{
		store:        store,
		participants: make(map[*Client]*Participant),
	}
}

// Register allocates a fresh anonymous identity for the connection and
// creates the matching active user record in the store.
func (p *Presence) Register(ctx context.Context, client *Client) (*Participant, error) {
	username := fmt.Sprintf("Anonymous_%04d", rand.IntN(10000))

	user, err := p.store.CreateActiveUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("create active user: %w", err)
	}

	participant := &Participant{
		User:     *user,
		JoinedAt: time.Now(),
	}

	p.mu.Lock()
	p.participants[client] = participant
	p.mu.Unlock()

	return participant, nil
}

// Deregister removes the participant for the handle and deactivates its
// store record. Deregistering an unknown handle is a no-op: it returns
// ok=false and touches nothing.
func (p *Presence) Deregister(ctx context.Context, client *Client) (*Participant, bool) {
	p.mu.Lock()
	participant, ok := p.participants[client]
	if ok {
		delete(p.participants, client)
	}
	p.mu.Unlock()

	if !ok {
		return nil, false
	}

	if err := p.store.DeactivateUser(ctx, participant.User.ID); err != nil {
		slog.Error("Failed to deactivate user", "user_id", participant.User.ID, "error", err)
	}
	return participant, true
}

// Get looks up the participant for an open connection.
func (p *Presence) Get(client *Client) (*Participant, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	participant, ok := p.participants[client]
	return participant, ok
}

// Count reports the number of active users known to the store.
func (p *Presence) Count(ctx context.Context) (int, error) {
	return p.store.CountActiveUsers(ctx)
}
