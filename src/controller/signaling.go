package controller

import (
	"errors"
	"fmt"
	"net/http"

	"signaling-service/src/middleware"
	"signaling-service/src/models"
	"signaling-service/src/schemas"
	"signaling-service/src/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SignalingController translates HTTP requests into engine calls and engine
// errors into RFC 7807 responses. It mirrors the single-endpoint shape of the
// wire protocol: mutations POST an action, reads GET one.
type SignalingController struct {
	Engine *service.Engine
	Logger *logrus.Logger
}

func NewSignalingController(engine *service.Engine, log *logrus.Logger) *SignalingController {
	return &SignalingController{
		Engine: engine,
		Logger: log,
	}
}

// sendError maps a domain error onto the RFC 7807 taxonomy and writes it.
func (sc *SignalingController) sendError(ctx *gin.Context, err error, instance string) {
	var errorResp *schemas.ErrorResponse
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		errorResp = schemas.NewBadRequestError(err.Error(), instance)
	case errors.Is(err, models.ErrSessionNotFound), errors.Is(err, models.ErrUserNotFound):
		errorResp = schemas.NewNotFoundError(err.Error(), instance)
	case errors.Is(err, models.ErrInvalidState):
		errorResp = schemas.InvalidCallStateError(err.Error(), instance)
	default:
		errorResp = schemas.NewInternalError(err.Error(), instance)
	}
	ctx.JSON(errorResp.Status, errorResp)
	sc.Logger.Error(errorResp.Title + ": " + errorResp.Detail)
}

// HandleAction dispatches a POST signaling request by its action field.
//
// @Summary Execute a signaling action
// @Description Dispatches register, call, answer, ice_candidate and end actions. Identity comes from the X-User-Id header.
// @Tags signaling
// @Accept json
// @Produce json
// @Param X-User-Id header string false "Caller identity"
// @Param ActionRequest body schemas.ActionRequest true "Signaling Action Request"
// @Success 200 {object} schemas.AckResponse
// @Failure 400 {object} schemas.ErrorResponse
// @Failure 404 {object} schemas.ErrorResponse
// @Failure 409 {object} schemas.ErrorResponse
// @Router / [post]
func (sc *SignalingController) HandleAction(ctx *gin.Context) {
	var req schemas.ActionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		sc.sendError(ctx,
			fmt.Errorf("invalid JSON body: %w", models.ErrInvalidArgument),
			"/")
		return
	}

	userID := middleware.UserID(ctx)

	switch req.Action {
	case schemas.ActionRegister:
		sc.register(ctx, userID, req)
	case schemas.ActionCall:
		sc.call(ctx, userID, req)
	case schemas.ActionAnswer:
		sc.answer(ctx, userID, req)
	case schemas.ActionICECandidate:
		sc.iceCandidate(ctx, userID, req)
	case schemas.ActionEnd:
		sc.end(ctx, userID, req)
	default:
		sc.sendError(ctx,
			fmt.Errorf("unknown action %q: %w", req.Action, models.ErrInvalidArgument),
			"/")
	}
}

func (sc *SignalingController) register(ctx *gin.Context, userID string, req schemas.ActionRequest) {
	if err := sc.Engine.Register(userID, req.DisplayName); err != nil {
		sc.sendError(ctx, err, "/register")
		return
	}
	ctx.JSON(http.StatusOK, schemas.RegisterResponse{
		Success: true,
		Message: "User registered",
		UserID:  userID,
	})
}

func (sc *SignalingController) call(ctx *gin.Context, userID string, req schemas.ActionRequest) {
	session, err := sc.Engine.Call(userID, req.TargetUserID, req.Offer)
	if err != nil {
		sc.sendError(ctx, err, "/call")
		return
	}
	ctx.JSON(http.StatusOK, schemas.CallResponse{
		Success:   true,
		Message:   "Call initiated",
		SessionID: session.SessionID,
	})
}

func (sc *SignalingController) answer(ctx *gin.Context, userID string, req schemas.ActionRequest) {
	session, err := sc.Engine.Answer(userID, req.SessionID, req.Answer)
	if err != nil {
		sc.sendError(ctx, err, "/answer")
		return
	}
	ctx.JSON(http.StatusOK, schemas.CallResponse{
		Success:   true,
		Message:   "Answer sent",
		SessionID: session.SessionID,
	})
}

func (sc *SignalingController) iceCandidate(ctx *gin.Context, userID string, req schemas.ActionRequest) {
	if err := sc.Engine.AddCandidate(userID, req.SessionID, req.Candidate); err != nil {
		sc.sendError(ctx, err, "/ice_candidate")
		return
	}
	ctx.JSON(http.StatusOK, schemas.AckResponse{
		Success: true,
		Message: "ICE candidate added",
	})
}

func (sc *SignalingController) end(ctx *gin.Context, userID string, req schemas.ActionRequest) {
	if err := sc.Engine.End(ctx.Request.Context(), userID, req.SessionID); err != nil {
		sc.sendError(ctx, err, "/end")
		return
	}
	ctx.JSON(http.StatusOK, schemas.AckResponse{
		Success: true,
		Message: "Call ended",
	})
}

// HandleQuery dispatches a GET signaling request by its action query param.
//
// @Summary Query signaling state
// @Description Read-only actions: poll, call_status, online_users, call_history. Identity comes from the X-User-Id header.
// @Tags signaling
// @Produce json
// @Param X-User-Id header string false "Caller identity"
// @Param action query string true "Read action" Enums(poll, call_status, online_users, call_history)
// @Param sessionId query string false "Session id for call_status"
// @Success 200 {object} schemas.PollResponse
// @Failure 400 {object} schemas.ErrorResponse
// @Failure 404 {object} schemas.ErrorResponse
// @Router / [get]
func (sc *SignalingController) HandleQuery(ctx *gin.Context) {
	userID := middleware.UserID(ctx)

	switch action := ctx.Query("action"); action {
	case schemas.ActionPoll:
		sc.poll(ctx, userID)
	case schemas.ActionCallStatus:
		sc.callStatus(ctx)
	case schemas.ActionOnlineUsers:
		sc.onlineUsers(ctx)
	case schemas.ActionCallHistory:
		sc.callHistory(ctx, userID)
	default:
		sc.sendError(ctx,
			fmt.Errorf("unknown action %q: %w", action, models.ErrInvalidArgument),
			"/")
	}
}

func (sc *SignalingController) poll(ctx *gin.Context, userID string) {
	calls, err := sc.Engine.Poll(userID)
	if err != nil {
		sc.sendError(ctx, err, "/poll")
		return
	}
	ctx.JSON(http.StatusOK, schemas.PollResponse{Calls: calls})
}

func (sc *SignalingController) callStatus(ctx *gin.Context) {
	session, err := sc.Engine.CallStatus(ctx.Query("sessionId"))
	if err != nil {
		sc.sendError(ctx, err, "/call_status")
		return
	}
	ctx.JSON(http.StatusOK, session)
}

func (sc *SignalingController) onlineUsers(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, schemas.OnlineUsersResponse{
		Users: sc.Engine.OnlineUsers(),
	})
}

func (sc *SignalingController) callHistory(ctx *gin.Context, userID string) {
	records, err := sc.Engine.CallHistory(ctx.Request.Context(), userID)
	if err != nil {
		sc.sendError(ctx, err, "/call_history")
		return
	}
	ctx.JSON(http.StatusOK, schemas.CallHistoryResponse{Records: records})
}

// Health reports liveness.
//
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} schemas.AckResponse
// @Router /healthz [get]
func (sc *SignalingController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, schemas.AckResponse{Success: true, Message: "ok"})
}
