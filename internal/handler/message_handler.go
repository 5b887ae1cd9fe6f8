package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aulalink/aula-backend/internal/middleware"
	"github.com/aulalink/aula-backend/internal/model"
	"github.com/aulalink/aula-backend/internal/response"
	"github.com/aulalink/aula-backend/internal/service"
	"github.com/aulalink/aula-backend/internal/validator"
)

// MessageHandler handles the staff side of participant messaging.
type MessageHandler struct {
	messageService *service.MessageService
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// Send godoc
// POST /api/v1/staff/participants/:id/messages
func (h *MessageHandler) Send(c *gin.Context) {
	participantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SendMessageRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	msg, err := h.messageService.Send(c.Request.Context(), participantID, claims.UserID, req.Body)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"message": msg})
}

// List godoc
// GET /api/v1/staff/participants/:id/messages
func (h *MessageHandler) List(c *gin.Context) {
	participantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	messages, err := h.messageService.List(c.Request.Context(), participantID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"messages": messages})
}
