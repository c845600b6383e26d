package chat

import (
	"sync"
	"time"

	"github.com/samber/lo"
)

// TypingTracker holds one last-seen timestamp per display name currently
// composing a message. Records are ephemeral: a stop signal or a missed
// refresh within the expiry window removes them.
type TypingTracker struct {
	mu       sync.Mutex
	expiry   time.Duration
	lastSeen map[string]time.Time
}

func NewTypingTracker(expiry time.Duration) *TypingTracker {
	return &TypingTracker{
		expiry:   expiry,
		lastSeen: make(map[string]time.Time),
	}
}

// Set records or clears typing state for a display name. It reports whether
// the observable state changed; a typing=true refresh of an already-typing
// name updates the timestamp but returns false.
func (t *TypingTracker) Set(name string, typing bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, exists := t.lastSeen[name]
	if !typing {
		delete(t.lastSeen, name)
		return exists
	}

	t.lastSeen[name] = time.Now()
	return !exists
}

// Sweep removes every record whose last refresh is older than the expiry
// window and returns the affected names. A client that crashed without
// sending a stop signal is cleared here.
func (t *TypingTracker) Sweep(now time.Time) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var expired []string
	for name, seen := range t.lastSeen {
		if now.Sub(seen) > t.expiry {
			expired = append(expired, name)
			delete(t.lastSeen, name)
		}
	}
	return expired
}

// Typing returns the display names currently marked as composing.
func (t *TypingTracker) Typing() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return lo.Keys(t.lastSeen)
}
