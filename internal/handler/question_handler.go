package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aulalink/aula-backend/internal/model"
	"github.com/aulalink/aula-backend/internal/response"
	"github.com/aulalink/aula-backend/internal/service"
	"github.com/aulalink/aula-backend/internal/validator"
)

// QuestionHandler handles question management within a simulation.
type QuestionHandler struct {
	simulationService *service.SimulationService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(simulationService *service.SimulationService) *QuestionHandler {
	return &QuestionHandler{simulationService: simulationService}
}

// List godoc
// GET /api/v1/staff/simulations/:id/questions
// Staff view: includes the correct options.
func (h *QuestionHandler) List(c *gin.Context) {
	simulationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	questions, err := h.simulationService.ListQuestions(c.Request.Context(), simulationID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// Add godoc
// POST /api/v1/staff/simulations/:id/questions
// Appends one question to a DRAFT simulation.
func (h *QuestionHandler) Add(c *gin.Context) {
	simulationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question := model.Question{
		SimulationID:  simulationID,
		QuestionText:  req.QuestionText,
		Options:       req.Options,
		CorrectOption: req.CorrectOption,
		OrderNum:      req.OrderNum,
	}

	if err := h.simulationService.AddQuestion(c.Request.Context(), &question); err != nil {
		failSimulation(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// ReplaceAll godoc
// PUT /api/v1/staff/simulations/:id/questions
// Replaces the whole question set in one transaction.
func (h *QuestionHandler) ReplaceAll(c *gin.Context) {
	simulationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions := make([]model.Question, 0, len(req.Questions))
	for i, q := range req.Questions {
		order := q.OrderNum
		if order == 0 {
			order = i + 1
		}
		questions = append(questions, model.Question{
			SimulationID:  simulationID,
			QuestionText:  q.QuestionText,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
			OrderNum:      order,
		})
	}

	if err := h.simulationService.ReplaceQuestions(c.Request.Context(), simulationID, questions); err != nil {
		failSimulation(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"count": len(questions)})
}
