package schemas

import "time"

// Call lifecycle event types published to the events exchange.
const (
	EventCallCreated  = "call.created"
	EventCallAnswered = "call.answered"
	EventCallEnded    = "call.ended"
)

// CallEvent represents a notification published when a call changes state.
type CallEvent struct {
	Type       string    `json:"type"`
	SessionID  string    `json:"session_id"`
	CallerID   string    `json:"caller_id"`
	TargetID   string    `json:"target_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
