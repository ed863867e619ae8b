package controller_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"signaling-service/src/models"
	"signaling-service/src/rabbitmq"
	"signaling-service/src/registry"
	"signaling-service/src/router"
	"signaling-service/src/schemas"
	"signaling-service/src/service"
	"signaling-service/src/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)
	engine := service.NewEngine(registry.New(), store.New(), rabbitmq.NoopPublisher{}, nil, log, "call.events", 50)
	return router.NewRouter(engine, log)
}

func doPost(t *testing.T, r *gin.Engine, userID string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doGet(t *testing.T, r *gin.Engine, userID, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if userID != "" {
		req.Header.Set("X-User-Id", userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestFullCallLifecycleOverHTTP(t *testing.T) {
	r := newTestRouter()

	// alice and bob come online.
	w := doPost(t, r, "alice", map[string]any{"action": "register", "displayName": "Alice"})
	require.Equal(t, http.StatusOK, w.Code)
	w = doPost(t, r, "bob", map[string]any{"action": "register", "displayName": "Bob"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doGet(t, r, "alice", "/?action=online_users")
	require.Equal(t, http.StatusOK, w.Code)
	users := decode[schemas.OnlineUsersResponse](t, w)
	assert.Len(t, users.Users, 2)

	// alice rings bob.
	w = doPost(t, r, "alice", map[string]any{
		"action":       "call",
		"targetUserId": "bob",
		"offer":        map[string]any{"sdp": "offer-A"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	call := decode[schemas.CallResponse](t, w)
	require.True(t, call.Success)
	require.NotEmpty(t, call.SessionID)

	// bob polls and discovers the ringing call with the offer attached.
	w = doGet(t, r, "bob", "/?action=poll")
	require.Equal(t, http.StatusOK, w.Code)
	poll := decode[schemas.PollResponse](t, w)
	require.Len(t, poll.Calls, 1)
	assert.Equal(t, call.SessionID, poll.Calls[0].SessionID)
	assert.Equal(t, "alice", poll.Calls[0].CallerID)
	assert.JSONEq(t, `{"sdp":"offer-A"}`, string(poll.Calls[0].Offer))

	// bob answers.
	w = doPost(t, r, "bob", map[string]any{
		"action":    "answer",
		"sessionId": call.SessionID,
		"answer":    map[string]any{"sdp": "answer-A"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	// the answered call no longer rings.
	w = doGet(t, r, "bob", "/?action=poll")
	poll = decode[schemas.PollResponse](t, w)
	assert.Empty(t, poll.Calls)

	// both sides trickle candidates.
	w = doPost(t, r, "alice", map[string]any{
		"action":    "ice_candidate",
		"sessionId": call.SessionID,
		"candidate": map[string]any{"candidate": "cand-1"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = doPost(t, r, "bob", map[string]any{
		"action":    "ice_candidate",
		"sessionId": call.SessionID,
		"candidate": map[string]any{"candidate": "cand-2"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	// alice reads the full session state.
	w = doGet(t, r, "alice", "/?action=call_status&sessionId="+call.SessionID)
	require.Equal(t, http.StatusOK, w.Code)
	session := decode[models.CallSession](t, w)
	assert.Equal(t, models.StatusActive, session.Status)
	assert.JSONEq(t, `{"sdp":"answer-A"}`, string(session.Answer))
	require.Len(t, session.Candidates, 2)
	assert.JSONEq(t, `{"candidate":"cand-1"}`, string(session.Candidates[0]))

	// alice hangs up; the session is gone.
	w = doPost(t, r, "alice", map[string]any{"action": "end", "sessionId": call.SessionID})
	require.Equal(t, http.StatusOK, w.Code)

	w = doGet(t, r, "alice", "/?action=call_status&sessionId="+call.SessionID)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// bob hanging up a moment later still succeeds.
	w = doPost(t, r, "bob", map[string]any{"action": "end", "sessionId": call.SessionID})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestActionErrors(t *testing.T) {
	r := newTestRouter()

	tests := []struct {
		name     string
		userID   string
		body     map[string]any
		wantCode int
	}{
		{"unknown action", "alice", map[string]any{"action": "reboot"}, http.StatusBadRequest},
		{"missing action", "alice", map[string]any{}, http.StatusBadRequest},
		{"call without identity", "", map[string]any{"action": "call", "targetUserId": "bob", "offer": map[string]any{"sdp": "x"}}, http.StatusBadRequest},
		{"call without offer", "alice", map[string]any{"action": "call", "targetUserId": "bob"}, http.StatusBadRequest},
		{"self call", "alice", map[string]any{"action": "call", "targetUserId": "alice", "offer": map[string]any{"sdp": "x"}}, http.StatusBadRequest},
		{"answer unknown session", "bob", map[string]any{"action": "answer", "sessionId": "missing", "answer": map[string]any{"sdp": "x"}}, http.StatusNotFound},
		{"candidate unknown session", "bob", map[string]any{"action": "ice_candidate", "sessionId": "missing", "candidate": map[string]any{"c": "x"}}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doPost(t, r, tt.userID, tt.body)
			assert.Equal(t, tt.wantCode, w.Code)

			resp := decode[schemas.ErrorResponse](t, w)
			assert.Equal(t, tt.wantCode, resp.Status)
			assert.NotEmpty(t, resp.Detail)
			assert.NotEmpty(t, resp.Type)
		})
	}
}

func TestAnswerTwiceConflicts(t *testing.T) {
	r := newTestRouter()

	w := doPost(t, r, "alice", map[string]any{
		"action":       "call",
		"targetUserId": "bob",
		"offer":        map[string]any{"sdp": "offer"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	call := decode[schemas.CallResponse](t, w)

	w = doPost(t, r, "bob", map[string]any{
		"action":    "answer",
		"sessionId": call.SessionID,
		"answer":    map[string]any{"sdp": "first"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doPost(t, r, "bob", map[string]any{
		"action":    "answer",
		"sessionId": call.SessionID,
		"answer":    map[string]any{"sdp": "second"},
	})
	require.Equal(t, http.StatusConflict, w.Code)
	resp := decode[schemas.ErrorResponse](t, w)
	assert.Equal(t, http.StatusConflict, resp.Status)
	assert.Contains(t, resp.Type, "invalid-call-state")
}

func TestMalformedJSONBody(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(`{"action": `)))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryErrors(t *testing.T) {
	r := newTestRouter()

	w := doGet(t, r, "alice", "/?action=teleport")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doGet(t, r, "", "/?action=poll")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doGet(t, r, "alice", "/?action=call_status")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doGet(t, r, "alice", "/?action=call_status&sessionId=missing")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCallStatusNeedsNoIdentity(t *testing.T) {
	r := newTestRouter()

	w := doPost(t, r, "alice", map[string]any{
		"action":       "call",
		"targetUserId": "bob",
		"offer":        map[string]any{"sdp": "offer"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	call := decode[schemas.CallResponse](t, w)

	w = doGet(t, r, "", "/?action=call_status&sessionId="+call.SessionID)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doGet(t, r, "", "/?action=online_users")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCallHistoryWithoutArchive(t *testing.T) {
	r := newTestRouter()

	w := doGet(t, r, "alice", "/?action=call_history")
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[schemas.CallHistoryResponse](t, w)
	assert.Empty(t, history.Records)
}

func TestCORSHeaders(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-User-Id")

	// Plain requests carry the origin header too.
	w = doGet(t, r, "", "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthz(t *testing.T) {
	r := newTestRouter()

	w := doGet(t, r, "", "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	ack := decode[schemas.AckResponse](t, w)
	assert.True(t, ack.Success)
	assert.Equal(t, "ok", ack.Message)
}
