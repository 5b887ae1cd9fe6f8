package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aulalink/aula-backend/internal/middleware"
	"github.com/aulalink/aula-backend/internal/model"
	"github.com/aulalink/aula-backend/internal/response"
	"github.com/aulalink/aula-backend/internal/service"
	"github.com/aulalink/aula-backend/internal/validator"
)

// SimulationHandler handles simulation management endpoints.
type SimulationHandler struct {
	simulationService *service.SimulationService
}

// NewSimulationHandler creates a new SimulationHandler.
func NewSimulationHandler(simulationService *service.SimulationService) *SimulationHandler {
	return &SimulationHandler{simulationService: simulationService}
}

func failSimulation(c *gin.Context, err error) {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrSimulationNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrSimulationNotDraft)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// List godoc
// GET /api/v1/staff/simulations?page=1&per_page=10
func (h *SimulationHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	sims, pagination, err := h.simulationService.List(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"simulations": sims}, pagination)
}

// Get godoc
// GET /api/v1/staff/simulations/:id
func (h *SimulationHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	sim, err := h.simulationService.GetByID(c.Request.Context(), id)
	if err != nil {
		failSimulation(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"simulation": sim})
}

// Create godoc
// POST /api/v1/staff/simulations
func (h *SimulationHandler) Create(c *gin.Context) {
	var req model.CreateSimulationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	sim := &model.Simulation{
		Title:           req.Title,
		Subject:         req.Subject,
		AuthorID:        claims.UserID,
		DurationMinutes: req.DurationMinutes,
	}

	if err := h.simulationService.Create(c.Request.Context(), sim); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"simulation": sim})
}

// Update godoc
// PUT /api/v1/staff/simulations/:id
func (h *SimulationHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateSimulationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sim, err := h.simulationService.GetByID(c.Request.Context(), id)
	if err != nil {
		failSimulation(c, err)
		return
	}

	if req.Title != "" {
		sim.Title = req.Title
	}
	if req.Subject != "" {
		sim.Subject = req.Subject
	}
	if req.DurationMinutes > 0 {
		sim.DurationMinutes = req.DurationMinutes
	}

	if err := h.simulationService.Update(c.Request.Context(), sim); err != nil {
		failSimulation(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"simulation": sim})
}

// Delete godoc
// DELETE /api/v1/staff/simulations/:id
// Only DRAFT simulations can be removed.
func (h *SimulationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.simulationService.Delete(c.Request.Context(), id); err != nil {
		failSimulation(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Publish godoc
// POST /api/v1/staff/simulations/:id/publish
func (h *SimulationHandler) Publish(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.simulationService.Publish(c.Request.Context(), id); err != nil {
		failSimulation(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Archive godoc
// POST /api/v1/staff/simulations/:id/archive
func (h *SimulationHandler) Archive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.simulationService.Archive(c.Request.Context(), id); err != nil {
		failSimulation(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
