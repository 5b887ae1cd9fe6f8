package model

import (
	"time"

	"github.com/google/uuid"
)

// SimulationStatus enumerates the possible states of a simulation.
type SimulationStatus string

const (
	SimulationStatusDraft     SimulationStatus = "DRAFT"
	SimulationStatusPublished SimulationStatus = "PUBLISHED"
	SimulationStatusArchived  SimulationStatus = "ARCHIVED"
)

// Simulation is an exam template: a titled, timed set of questions that
// room sessions are run against.
type Simulation struct {
	ID              uuid.UUID        `json:"id"`
	Title           string           `json:"title"`
	Subject         string           `json:"subject"`
	AuthorID        int              `json:"author_id"`
	DurationMinutes int              `json:"duration_minutes"`
	QuestionCount   int              `json:"question_count"`
	Status          SimulationStatus `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// CreateSimulationRequest is the payload for creating a new simulation.
type CreateSimulationRequest struct {
	Title           string `json:"title" binding:"required,min=3,max=255"`
	Subject         string `json:"subject" binding:"required,min=2,max=100"`
	DurationMinutes int    `json:"duration_minutes" binding:"required,min=1,max=480"`
}

// UpdateSimulationRequest is the payload for updating an existing simulation.
type UpdateSimulationRequest struct {
	Title           string `json:"title" binding:"omitempty,min=3,max=255"`
	Subject         string `json:"subject" binding:"omitempty,min=2,max=100"`
	DurationMinutes int    `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
}

// SimulationPayload is the Redis-cached paper sent to students (no correct answers).
type SimulationPayload struct {
	SimulationID uuid.UUID            `json:"simulation_id"`
	Title        string               `json:"title"`
	Duration     int                  `json:"duration_minutes"`
	Questions    []QuestionForStudent `json:"questions"`
}
