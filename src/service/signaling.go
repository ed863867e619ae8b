package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"signaling-service/src/models"
	"signaling-service/src/rabbitmq"
	"signaling-service/src/registry"
	"signaling-service/src/schemas"
	"signaling-service/src/store"

	"github.com/sirupsen/logrus"
)

// CallRecorder archives finished calls. Satisfied by
// repository.CallRecordRepository; nil means archiving is disabled.
type CallRecorder interface {
	Insert(ctx context.Context, rec models.CallRecord) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.CallRecord, error)
}

// Engine is the signaling orchestrator. It validates the caller's claimed
// identity and the request payload, routes each action to the presence
// registry or the session store, and translates their results for the
// transport layer. It holds no business logic beyond routing, validation and
// error translation; all call-state decisions live in the store.
type Engine struct {
	Presence *registry.Presence
	Sessions *store.SessionStore
	Events   rabbitmq.Publisher
	Records  CallRecorder
	Logger   *logrus.Logger

	EventsExchange string
	HistoryLimit   int
}

// NewEngine wires an engine over the two stores. Events and records are
// optional collaborators; pass a NoopPublisher and a nil recorder to run
// fully in-memory.
func NewEngine(presence *registry.Presence, sessions *store.SessionStore, events rabbitmq.Publisher, records CallRecorder, log *logrus.Logger, eventsExchange string, historyLimit int) *Engine {
	return &Engine{
		Presence:       presence,
		Sessions:       sessions,
		Events:         events,
		Records:        records,
		Logger:         log,
		EventsExchange: eventsExchange,
		HistoryLimit:   historyLimit,
	}
}

// Register inserts or overwrites the presence entry for the caller.
func (e *Engine) Register(userID, displayName string) error {
	if err := e.Presence.Register(userID, displayName); err != nil {
		return err
	}
	e.Logger.WithFields(logrus.Fields{
		"user_id":      userID,
		"display_name": displayName,
	}).Info("User registered")
	return nil
}

// Call creates a ringing session from the caller to the target and returns
// its snapshot. The target does not have to be registered: the caller may
// ring ahead of the callee's first registration, and the call simply expires
// if nobody picks up.
func (e *Engine) Call(callerID, targetUserID string, offer json.RawMessage) (*models.CallSession, error) {
	if err := requireIdentity(callerID); err != nil {
		return nil, err
	}
	e.Presence.Touch(callerID)

	session, err := e.Sessions.Create(callerID, targetUserID, offer)
	if err != nil {
		return nil, err
	}

	e.Logger.WithFields(logrus.Fields{
		"session_id": session.SessionID,
		"caller_id":  session.CallerID,
		"target_id":  session.TargetID,
	}).Info("Call initiated")
	e.publishEvent(schemas.EventCallCreated, session)

	return session, nil
}

// Answer records the callee's answer and activates the session.
func (e *Engine) Answer(userID, sessionID string, answer json.RawMessage) (*models.CallSession, error) {
	if err := requireIdentity(userID); err != nil {
		return nil, err
	}
	e.Presence.Touch(userID)

	session, err := e.Sessions.Answer(sessionID, answer)
	if err != nil {
		return nil, err
	}

	e.Logger.WithFields(logrus.Fields{
		"session_id": session.SessionID,
		"user_id":    userID,
	}).Info("Call answered")
	e.publishEvent(schemas.EventCallAnswered, session)

	return session, nil
}

// AddCandidate appends a reachability candidate to the session.
func (e *Engine) AddCandidate(userID, sessionID string, candidate json.RawMessage) error {
	if err := requireIdentity(userID); err != nil {
		return err
	}
	e.Presence.Touch(userID)

	_, err := e.Sessions.AddCandidate(sessionID, candidate)
	return err
}

// End removes the session, archives it and publishes the ended event.
// Ending a session that is already gone is expected when both sides hang up
// at once; that case is logged and reported as success.
func (e *Engine) End(ctx context.Context, userID, sessionID string) error {
	if err := requireIdentity(userID); err != nil {
		return err
	}
	e.Presence.Touch(userID)

	session, err := e.Sessions.End(sessionID)
	if err != nil {
		if errors.Is(err, models.ErrSessionNotFound) {
			e.Logger.WithFields(logrus.Fields{
				"session_id": sessionID,
				"user_id":    userID,
			}).Info("End for already-removed session, treating as success")
			return nil
		}
		return err
	}

	e.Logger.WithFields(logrus.Fields{
		"session_id": session.SessionID,
		"user_id":    userID,
	}).Info("Call ended")
	e.publishEvent(schemas.EventCallEnded, session)
	e.archive(ctx, session, models.EndReasonHangup)

	return nil
}

// Poll returns the sessions currently ringing for the polling user. This is
// how a callee discovers inbound calls on a connectionless transport: the
// client does the waiting, the server only answers lookups.
func (e *Engine) Poll(userID string) ([]*models.CallSession, error) {
	if err := requireIdentity(userID); err != nil {
		return nil, err
	}
	e.Presence.Touch(userID)
	return e.Sessions.FindRinging(userID), nil
}

// CallStatus returns the full state of one session.
func (e *Engine) CallStatus(sessionID string) (*models.CallSession, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionId must not be empty: %w", models.ErrInvalidArgument)
	}
	return e.Sessions.Get(sessionID)
}

// OnlineUsers returns all users currently registered as reachable.
func (e *Engine) OnlineUsers() []models.User {
	return e.Presence.ListOnline()
}

// CallHistory returns the archived calls the user took part in. Without a
// configured archive the history is simply empty rather than an error; the
// feature is additive.
func (e *Engine) CallHistory(ctx context.Context, userID string) ([]models.CallRecord, error) {
	if err := requireIdentity(userID); err != nil {
		return nil, err
	}
	e.Presence.Touch(userID)

	if e.Records == nil {
		return []models.CallRecord{}, nil
	}
	return e.Records.ListByUser(ctx, userID, e.HistoryLimit)
}

// ExpireStale drops timed-out ringing and idle active sessions, archiving
// each one. Called by the sweeper; returns how many sessions were removed.
func (e *Engine) ExpireStale(ctx context.Context, ringTTL, sessionTTL time.Duration) int {
	now := time.Now()
	expired := e.Sessions.ExpireBefore(now.Add(-ringTTL), now.Add(-sessionTTL))
	for _, session := range expired {
		e.Logger.WithFields(logrus.Fields{
			"session_id": session.SessionID,
			"caller_id":  session.CallerID,
			"target_id":  session.TargetID,
		}).Info("Call expired")
		e.publishEvent(schemas.EventCallEnded, session)
		e.archive(ctx, session, models.EndReasonExpired)
	}
	return len(expired)
}

// publishEvent sends a lifecycle event to the events exchange. Publishing is
// best effort; a broker outage must not fail the signaling request.
func (e *Engine) publishEvent(eventType string, session *models.CallSession) {
	event := schemas.CallEvent{
		Type:       eventType,
		SessionID:  session.SessionID,
		CallerID:   session.CallerID,
		TargetID:   session.TargetID,
		OccurredAt: time.Now(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		e.Logger.WithError(err).Error("Failed to marshal call event")
		return
	}
	if err := e.Events.Publish(e.EventsExchange, body); err != nil {
		e.Logger.WithError(err).WithField("event_type", eventType).Warn("Failed to publish call event")
	}
}

// archive writes the final snapshot to the call-record archive, if one is
// configured. Archive failures are logged, not surfaced: losing a history row
// must not fail a hang-up.
func (e *Engine) archive(ctx context.Context, session *models.CallSession, reason models.EndReason) {
	if e.Records == nil {
		return
	}

	lastStatus := models.StatusActive
	if models.IsEmptyBlob(session.Answer) {
		lastStatus = models.StatusRinging
	}
	rec := models.CallRecord{
		SessionID:      session.SessionID,
		CallerID:       session.CallerID,
		TargetID:       session.TargetID,
		LastStatus:     string(lastStatus),
		EndReason:      reason,
		CandidateCount: len(session.Candidates),
		StartedAt:      session.CreatedAt,
		EndedAt:        session.UpdatedAt,
	}
	if err := e.Records.Insert(ctx, rec); err != nil {
		e.Logger.WithError(err).WithField("session_id", session.SessionID).Error("Failed to archive call record")
	}
}

func requireIdentity(userID string) error {
	if userID == "" {
		return fmt.Errorf("identity header X-User-Id is required: %w", models.ErrInvalidArgument)
	}
	return nil
}
