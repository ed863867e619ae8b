package schemas

import (
	"encoding/json"

	"signaling-service/src/models"
)

// Action names accepted by the POST dispatch and the GET read path.
const (
	ActionRegister     = "register"
	ActionCall         = "call"
	ActionAnswer       = "answer"
	ActionICECandidate = "ice_candidate"
	ActionEnd          = "end"
	ActionPoll         = "poll"
	ActionCallStatus   = "call_status"
	ActionOnlineUsers  = "online_users"
	ActionCallHistory  = "call_history"
)

// ActionRequest represents the body of a POST signaling request. Which fields
// are required depends on the action; the offer/answer/candidate payloads are
// relayed untouched.
type ActionRequest struct {
	Action       string          `json:"action" binding:"required"`
	DisplayName  string          `json:"displayName,omitempty"`
	TargetUserID string          `json:"targetUserId,omitempty"`
	SessionID    string          `json:"sessionId,omitempty"`
	Offer        json.RawMessage `json:"offer,omitempty"`
	Answer       json.RawMessage `json:"answer,omitempty"`
	Candidate    json.RawMessage `json:"candidate,omitempty"`
}

// RegisterResponse represents the response after registering a user.
type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// CallResponse represents the response after initiating or answering a call.
type CallResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// AckResponse represents the response for actions with no payload of their own.
type AckResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PollResponse lists the sessions currently ringing for the polling user.
type PollResponse struct {
	Calls []*models.CallSession `json:"calls"`
}

// OnlineUsersResponse lists the users currently registered as reachable.
type OnlineUsersResponse struct {
	Users []models.User `json:"users"`
}

// CallHistoryResponse lists archived call records for the requesting user.
type CallHistoryResponse struct {
	Records []models.CallRecord `json:"records"`
}
