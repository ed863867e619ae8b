package models

import "time"

// EndReason says why a call left the store.
type EndReason string

const (
	EndReasonHangup  EndReason = "ended"
	EndReasonExpired EndReason = "expired"
)

// CallRecord is the archived trace of a finished call. Only metadata is kept;
// the negotiated payloads are dropped when the session is removed.
type CallRecord struct {
	SessionID      string    `json:"session_id"`
	CallerID       string    `json:"caller_id"`
	TargetID       string    `json:"target_id"`
	LastStatus     string    `json:"last_status"`
	EndReason      EndReason `json:"end_reason"`
	CandidateCount int       `json:"candidate_count"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
}
