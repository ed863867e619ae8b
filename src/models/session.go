package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// CallStatus represents the status of a call session
type CallStatus string

const (
	StatusRinging CallStatus = "ringing"
	StatusActive  CallStatus = "active"
	StatusEnded   CallStatus = "ended"
)

// CallSession represents one negotiation attempt between exactly two users.
// Offer, Answer and Candidates are opaque payloads relayed between the peers;
// the service never looks inside them.
type CallSession struct {
	SessionID  string            `json:"sessionId"`
	CallerID   string            `json:"callerId"`
	TargetID   string            `json:"targetId"`
	Offer      json.RawMessage   `json:"offer"`
	Answer     json.RawMessage   `json:"answer,omitempty"`
	Status     CallStatus        `json:"status"`
	Candidates []json.RawMessage `json:"candidates"`
	CreatedAt  time.Time         `json:"createdAt"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// Clone returns a copy of the session that is safe to hand outside the store.
func (s *CallSession) Clone() *CallSession {
	c := *s
	c.Candidates = append([]json.RawMessage(nil), s.Candidates...)
	return &c
}

// IsEmptyBlob reports whether an opaque payload carries no usable content.
// JSON null counts as empty: clients that omit a field and clients that send
// an explicit null are treated the same.
func IsEmptyBlob(b json.RawMessage) bool {
	trimmed := bytes.TrimSpace(b)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
