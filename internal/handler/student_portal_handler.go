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

// StudentPortalHandler handles the student side of a room: attaching,
// polling, answering and submitting. Every WebSocket action has a REST
// twin here so a client behind a hostile proxy can fall back to polling.
type StudentPortalHandler struct {
	sessionService     *service.SessionService
	participantService *service.ParticipantService
	simulationService  *service.SimulationService
	messageService     *service.MessageService
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(
	sessionService *service.SessionService,
	participantService *service.ParticipantService,
	simulationService *service.SimulationService,
	messageService *service.MessageService,
) *StudentPortalHandler {
	return &StudentPortalHandler{
		sessionService:     sessionService,
		participantService: participantService,
		simulationService:  simulationService,
		messageService:     messageService,
	}
}

func failParticipant(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotInvited):
		response.Fail(c, http.StatusForbidden, response.ErrNotInvited)
	case errors.Is(err, service.ErrParticipantCompleted):
		response.Fail(c, http.StatusConflict, response.ErrParticipantCompleted)
	case errors.Is(err, service.ErrSessionAlreadyStarted):
		response.Fail(c, http.StatusConflict, response.ErrSessionAlreadyStarted)
	case errors.Is(err, service.ErrSessionNotStarted):
		response.Fail(c, http.StatusConflict, response.ErrSessionNotStarted)
	case errors.Is(err, service.ErrSessionCompleted):
		response.Fail(c, http.StatusConflict, response.ErrSessionCompleted)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// sessionAndStudent parses the session ID and resolves the caller.
func sessionAndStudent(c *gin.Context) (uuid.UUID, int, bool) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, 0, false
	}
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return uuid.Nil, 0, false
	}
	return sessionID, claims.UserID, true
}

// ActiveSession godoc
// GET /api/v1/student/session
// Returns the newest non-completed session the student is invited to.
func (h *StudentPortalHandler) ActiveSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	session, err := h.sessionService.ActiveForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Success(c, http.StatusOK, gin.H{"session": nil})
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": session})
}

// Attach godoc
// POST /api/v1/student/sessions/:id/attach
func (h *StudentPortalHandler) Attach(c *gin.Context) {
	sessionID, studentID, ok := sessionAndStudent(c)
	if !ok {
		return
	}

	participant, err := h.participantService.Attach(c.Request.Context(), sessionID, studentID)
	if err != nil {
		failParticipant(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"participant": participant})
}

// State godoc
// GET /api/v1/student/sessions/:id/state
// The 3-second poll: session status, own progress, autosaved answers and
// the countdown. Polling doubles as the presence heartbeat.
func (h *StudentPortalHandler) State(c *gin.Context) {
	sessionID, studentID, ok := sessionAndStudent(c)
	if !ok {
		return
	}

	state, err := h.participantService.State(c.Request.Context(), sessionID, studentID)
	if err != nil {
		failParticipant(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// Paper godoc
// GET /api/v1/student/sessions/:id/paper
// The question set without correct answers. Only available once started.
func (h *StudentPortalHandler) Paper(c *gin.Context) {
	sessionID, studentID, ok := sessionAndStudent(c)
	if !ok {
		return
	}

	session, err := h.sessionService.Get(c.Request.Context(), sessionID)
	if err != nil {
		failParticipant(c, err)
		return
	}
	if session.Status == model.SessionStatusWaiting {
		response.Fail(c, http.StatusConflict, response.ErrSessionNotStarted)
		return
	}

	if _, err := h.participantService.Get(c.Request.Context(), sessionID, studentID); err != nil {
		failParticipant(c, err)
		return
	}

	payload, err := h.simulationService.GetPayload(c.Request.Context(), session.SimulationID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, payload)
}

// Ready godoc
// POST /api/v1/student/sessions/:id/ready
func (h *StudentPortalHandler) Ready(c *gin.Context) {
	sessionID, studentID, ok := sessionAndStudent(c)
	if !ok {
		return
	}

	if err := h.participantService.Ready(c.Request.Context(), sessionID, studentID); err != nil {
		failParticipant(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Progress godoc
// POST /api/v1/student/sessions/:id/progress
func (h *StudentPortalHandler) Progress(c *gin.Context) {
	sessionID, studentID, ok := sessionAndStudent(c)
	if !ok {
		return
	}

	var req model.ProgressRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.participantService.Progress(c.Request.Context(), sessionID, studentID, req.CurrentQuestion, req.AnsweredCount); err != nil {
		failParticipant(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// SaveAnswer godoc
// POST /api/v1/student/sessions/:id/answers
func (h *StudentPortalHandler) SaveAnswer(c *gin.Context) {
	sessionID, studentID, ok := sessionAndStudent(c)
	if !ok {
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.participantService.SaveAnswer(c.Request.Context(), sessionID, studentID, questionID, req.Answer); err != nil {
		failParticipant(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ReportCheat godoc
// POST /api/v1/student/sessions/:id/cheats
func (h *StudentPortalHandler) ReportCheat(c *gin.Context) {
	sessionID, studentID, ok := sessionAndStudent(c)
	if !ok {
		return
	}

	var req model.CheatEventRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	participant, err := h.participantService.Get(c.Request.Context(), sessionID, studentID)
	if err != nil {
		failParticipant(c, err)
		return
	}

	if err := h.participantService.ReportCheat(c.Request.Context(), sessionID, participant.ID, req.EventType, req.Payload); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusAccepted, gin.H{})
}

// Submit godoc
// POST /api/v1/student/sessions/:id/submit
// Grades the autosaved answers and finalizes the run. A repeated submit
// gets the stored result back with a conflict code.
func (h *StudentPortalHandler) Submit(c *gin.Context) {
	sessionID, studentID, ok := sessionAndStudent(c)
	if !ok {
		return
	}

	result, err := h.participantService.Submit(c.Request.Context(), sessionID, studentID)
	if err != nil {
		if errors.Is(err, service.ErrParticipantCompleted) && result != nil {
			response.Fail(c, http.StatusConflict, response.ErrParticipantCompleted)
			return
		}
		failParticipant(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// Messages godoc
// GET /api/v1/student/sessions/:id/messages
func (h *StudentPortalHandler) Messages(c *gin.Context) {
	sessionID, studentID, ok := sessionAndStudent(c)
	if !ok {
		return
	}

	participant, err := h.participantService.Get(c.Request.Context(), sessionID, studentID)
	if err != nil {
		failParticipant(c, err)
		return
	}

	messages, err := h.messageService.List(c.Request.Context(), participant.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"messages": messages})
}

// MarkMessagesRead godoc
// POST /api/v1/student/sessions/:id/messages/read
func (h *StudentPortalHandler) MarkMessagesRead(c *gin.Context) {
	sessionID, studentID, ok := sessionAndStudent(c)
	if !ok {
		return
	}

	participant, err := h.participantService.Get(c.Request.Context(), sessionID, studentID)
	if err != nil {
		failParticipant(c, err)
		return
	}

	if err := h.messageService.MarkRead(c.Request.Context(), participant.ID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
