package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"signaling-service/src/models"

	"github.com/google/uuid"
)

// SessionStore owns all in-flight call sessions. Every mutation takes the
// store lock, so concurrent requests against the same session serialize here:
// two racing answers can never both succeed. Operations on different sessions
// share the same lock; that is a documented ceiling, fine at the scale a
// single signaling node serves.
//
// A secondary index from target user to ringing session ids keeps the poll
// path from scanning the whole map.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.CallSession
	ringing  map[string]map[string]struct{}
}

// New creates an empty session store.
func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*models.CallSession),
		ringing:  make(map[string]map[string]struct{}),
	}
}

// Create allocates a fresh session in ringing state and returns a snapshot of
// it. The id embeds caller and target (the original wire format) plus a
// random token so concurrent calls between the same pair stay distinct.
func (s *SessionStore) Create(callerID, targetID string, offer json.RawMessage) (*models.CallSession, error) {
	if callerID == "" {
		return nil, fmt.Errorf("callerId must not be empty: %w", models.ErrInvalidArgument)
	}
	if targetID == "" {
		return nil, fmt.Errorf("targetUserId must not be empty: %w", models.ErrInvalidArgument)
	}
	if models.IsEmptyBlob(offer) {
		return nil, fmt.Errorf("offer must not be empty: %w", models.ErrInvalidArgument)
	}
	if callerID == targetID {
		return nil, fmt.Errorf("callerId and targetUserId must differ: %w", models.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var sessionID string
	for {
		sessionID = fmt.Sprintf("%s_%s_%s", callerID, targetID, uuid.NewString()[:8])
		if _, taken := s.sessions[sessionID]; !taken {
			break
		}
	}

	now := time.Now()
	session := &models.CallSession{
		SessionID:  sessionID,
		CallerID:   callerID,
		TargetID:   targetID,
		Offer:      offer,
		Status:     models.StatusRinging,
		Candidates: []json.RawMessage{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.sessions[sessionID] = session
	s.indexRinging(session)

	return session.Clone(), nil
}

// Answer sets the answer payload and moves the session from ringing to
// active. Answering a session that is not ringing fails, which is what keeps
// the first answer authoritative when two clients race.
func (s *SessionStore) Answer(sessionID string, answer json.RawMessage) (*models.CallSession, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionId must not be empty: %w", models.ErrInvalidArgument)
	}
	if models.IsEmptyBlob(answer) {
		return nil, fmt.Errorf("answer must not be empty: %w", models.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, models.ErrSessionNotFound)
	}
	if session.Status != models.StatusRinging {
		return nil, fmt.Errorf("session %s is %s, not %s: %w",
			sessionID, session.Status, models.StatusRinging, models.ErrInvalidState)
	}

	session.Answer = answer
	session.Status = models.StatusActive
	session.UpdatedAt = time.Now()
	s.unindexRinging(session)

	return session.Clone(), nil
}

// AddCandidate appends a reachability candidate to the session. Candidates
// are accepted while the call is ringing or active.
func (s *SessionStore) AddCandidate(sessionID string, candidate json.RawMessage) (*models.CallSession, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionId must not be empty: %w", models.ErrInvalidArgument)
	}
	if models.IsEmptyBlob(candidate) {
		return nil, fmt.Errorf("candidate must not be empty: %w", models.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, models.ErrSessionNotFound)
	}
	if session.Status == models.StatusEnded {
		return nil, fmt.Errorf("session %s already ended: %w", sessionID, models.ErrInvalidState)
	}

	session.Candidates = append(session.Candidates, candidate)
	session.UpdatedAt = time.Now()

	return session.Clone(), nil
}

// End removes the session and returns its final snapshot with status ended.
// The id is never reused, so a second End on the same id reports NotFound;
// callers racing at hang-up time treat that as benign.
func (s *SessionStore) End(sessionID string) (*models.CallSession, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionId must not be empty: %w", models.ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, models.ErrSessionNotFound)
	}

	s.unindexRinging(session)
	delete(s.sessions, sessionID)

	final := session.Clone()
	final.Status = models.StatusEnded
	final.UpdatedAt = time.Now()
	return final, nil
}

// Get returns a snapshot of the session.
func (s *SessionStore) Get(sessionID string) (*models.CallSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, models.ErrSessionNotFound)
	}
	return session.Clone(), nil
}

// FindRinging returns snapshots of all sessions currently ringing for the
// given target, in no particular order.
func (s *SessionStore) FindRinging(targetID string) []*models.CallSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.ringing[targetID]
	calls := make([]*models.CallSession, 0, len(ids))
	for id := range ids {
		if session, ok := s.sessions[id]; ok {
			calls = append(calls, session.Clone())
		}
	}
	return calls
}

// Len reports how many sessions are currently held.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// ExpireBefore removes sessions that outlived their useful life: ringing
// sessions created before ringingBefore (nobody picked up) and active
// sessions untouched since activeBefore (both sides went away without an
// explicit end). It returns final snapshots of everything removed so the
// caller can archive them.
func (s *SessionStore) ExpireBefore(ringingBefore, activeBefore time.Time) []*models.CallSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []*models.CallSession
	now := time.Now()
	for id, session := range s.sessions {
		stale := (session.Status == models.StatusRinging && session.CreatedAt.Before(ringingBefore)) ||
			(session.Status == models.StatusActive && session.UpdatedAt.Before(activeBefore))
		if !stale {
			continue
		}

		s.unindexRinging(session)
		delete(s.sessions, id)

		final := session.Clone()
		final.Status = models.StatusEnded
		final.UpdatedAt = now
		expired = append(expired, final)
	}
	return expired
}

// indexRinging and unindexRinging maintain the target -> ringing session ids
// index. Both must be called with the store lock held.

func (s *SessionStore) indexRinging(session *models.CallSession) {
	ids, ok := s.ringing[session.TargetID]
	if !ok {
		ids = make(map[string]struct{})
		s.ringing[session.TargetID] = ids
	}
	ids[session.SessionID] = struct{}{}
}

func (s *SessionStore) unindexRinging(session *models.CallSession) {
	ids, ok := s.ringing[session.TargetID]
	if !ok {
		return
	}
	delete(ids, session.SessionID)
	if len(ids) == 0 {
		delete(s.ringing, session.TargetID)
	}
}
