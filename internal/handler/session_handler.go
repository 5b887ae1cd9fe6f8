package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aulalink/aula-backend/internal/middleware"
	"github.com/aulalink/aula-backend/internal/model"
	"github.com/aulalink/aula-backend/internal/response"
	"github.com/aulalink/aula-backend/internal/service"
	"github.com/aulalink/aula-backend/internal/validator"
)

// SessionHandler handles the staff side of room sessions.
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// failSession translates session domain errors into typed API codes so
// clients branch on codes instead of matching message strings.
func failSession(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotAllConnected):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotAllConnected)
	case errors.Is(err, service.ErrSessionAlreadyStarted):
		response.Fail(c, http.StatusConflict, response.ErrSessionAlreadyStarted)
	case errors.Is(err, service.ErrSessionNotStarted):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotStarted)
	case errors.Is(err, service.ErrSessionCompleted):
		response.Fail(c, http.StatusConflict, response.ErrSessionCompleted)
	case errors.Is(err, service.ErrSimulationNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrSimulationNotPublished)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// GetOrCreate godoc
// POST /api/v1/staff/simulations/:id/session
// Returns the open session for the simulation, creating one if none exists.
// Safe under concurrent staff clicks: both callers get the same session.
func (h *SessionHandler) GetOrCreate(c *gin.Context) {
	simulationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	claims := middleware.GetClaims(c)
	session, err := h.sessionService.GetOrCreate(c.Request.Context(), simulationID, claims.UserID)
	if err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// State godoc
// GET /api/v1/staff/sessions/:id/state
// Full monitoring snapshot, polled by the staff dashboard every few seconds.
func (h *SessionHandler) State(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.sessionService.State(c.Request.Context(), sessionID)
	if err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// Start godoc
// POST /api/v1/staff/sessions/:id/start
// Starts the session. Without force, every invited student must be
// connected; the typed SESSION_NOT_ALL_CONNECTED code tells the dashboard
// to offer the force option.
func (h *SessionHandler) Start(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.Start(c.Request.Context(), sessionID, req.Force)
	if err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// End godoc
// POST /api/v1/staff/sessions/:id/end
func (h *SessionHandler) End(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, err := h.sessionService.End(c.Request.Context(), sessionID)
	if err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// Invite godoc
// POST /api/v1/staff/sessions/:id/invites
// Adds students to the roster. Only allowed while the session is WAITING.
func (h *SessionHandler) Invite(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.InviteStudentsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.sessionService.Invite(c.Request.Context(), sessionID, req.StudentIDs); err != nil {
		failSession(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
