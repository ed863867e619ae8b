package registry

import (
	"fmt"
	"sync"
	"time"

	"signaling-service/src/models"
)

// Presence tracks which users are currently reachable for calls. It is the
// sole owner of the user map; all access goes through the methods below,
// which are safe for concurrent use. A single lock over the whole map is the
// scalability ceiling here, acceptable for the user counts this service is
// sized for.
type Presence struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

// New creates an empty presence registry.
func New() *Presence {
	return &Presence{
		users: make(map[string]*models.User),
	}
}

// Register inserts or overwrites the entry for userID and marks it online.
// Registering twice is not an error; the newest displayName wins.
func (p *Presence) Register(userID, displayName string) error {
	if userID == "" {
		return fmt.Errorf("userId must not be empty: %w", models.ErrInvalidArgument)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.users[userID] = &models.User{
		UserID:      userID,
		DisplayName: displayName,
		Online:      true,
		LastSeen:    time.Now(),
	}
	return nil
}

// Touch refreshes the last-seen stamp for userID and revives it if the
// sweeper had marked it offline. Unknown users are ignored; presence only
// exists for users that registered.
func (p *Presence) Touch(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if u, ok := p.users[userID]; ok {
		u.Online = true
		u.LastSeen = time.Now()
	}
}

// Get returns the entry for userID.
func (p *Presence) Get(userID string) (models.User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	u, ok := p.users[userID]
	if !ok {
		return models.User{}, fmt.Errorf("user %s: %w", userID, models.ErrUserNotFound)
	}
	return *u, nil
}

// ListOnline returns all users currently marked online, in no particular
// order.
func (p *Presence) ListOnline() []models.User {
	p.mu.RLock()
	defer p.mu.RUnlock()

	online := make([]models.User, 0, len(p.users))
	for _, u := range p.users {
		if u.Online {
			online = append(online, *u)
		}
	}
	return online
}

// MarkStale flips users whose last-seen stamp is older than the cutoff to
// offline and returns how many were flipped. There is no disconnect signal
// on a polled transport, so this is the liveness mechanism.
func (p *Presence) MarkStale(olderThan time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	marked := 0
	for _, u := range p.users {
		if u.Online && u.LastSeen.Before(olderThan) {
			u.Online = false
			marked++
		}
	}
	return marked
}

// Evict removes entries whose last-seen stamp is older than the cutoff,
// regardless of online state, and returns how many were removed. Sessions
// referencing an evicted user are untouched; they hold the id only.
func (p *Presence) Evict(olderThan time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	evicted := 0
	for id, u := range p.users {
		if u.LastSeen.Before(olderThan) {
			delete(p.users, id)
			evicted++
		}
	}
	return evicted
}
