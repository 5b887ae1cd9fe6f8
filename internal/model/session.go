package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates room session states. Transitions are monotonic:
// WAITING → STARTED → COMPLETED, never backwards.
type SessionStatus string

const (
	SessionStatusWaiting   SessionStatus = "WAITING"
	SessionStatusStarted   SessionStatus = "STARTED"
	SessionStatusCompleted SessionStatus = "COMPLETED"
)

// RoomSession represents one live run of a simulation for a group of
// invited students. At most one non-completed session exists per simulation.
type RoomSession struct {
	ID           uuid.UUID     `json:"id"`
	SimulationID uuid.UUID     `json:"simulation_id"`
	Status       SessionStatus `json:"status"`
	CreatedBy    int           `json:"created_by"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	EndedAt      *time.Time    `json:"ended_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// StartSessionRequest is the payload for starting a session. Force skips
// the all-invited-connected precondition.
type StartSessionRequest struct {
	Force bool `json:"force"`
}

// InviteStudentsRequest is the payload for adding students to the roster.
type InviteStudentsRequest struct {
	StudentIDs []int `json:"student_ids" binding:"required,min=1,dive,min=1"`
}

// InvitedStudent is one entry of the session roster: "should attend",
// as opposed to a Participant who "has attended".
type InvitedStudent struct {
	StudentID   int    `json:"student_id"`
	Name        string `json:"name"`
	IsConnected bool   `json:"is_connected"`
}
