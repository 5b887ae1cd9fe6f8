package model

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

// Participant is a student's live attendance record within a RoomSession.
// Created when the student attaches; progress fields are mutated by the
// student's own exam client; completion is terminal.
type Participant struct {
	ID              uuid.UUID  `json:"id"`
	SessionID       uuid.UUID  `json:"session_id"`
	StudentID       int        `json:"student_id"`
	StudentName     string     `json:"student_name"`
	IsReady         bool       `json:"is_ready"`
	ExamStartedAt   *time.Time `json:"exam_started_at,omitempty"`
	CurrentQuestion int        `json:"current_question"`
	AnsweredCount   int        `json:"answered_count"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Result          *Result    `json:"result,omitempty"`
	JoinedAt        time.Time  `json:"joined_at"`
}

// HasStarted reports whether the participant took part in the run.
func (p *Participant) HasStarted() bool {
	return p.ExamStartedAt != nil
}

// IsCompleted reports whether the participant has submitted. Terminal:
// it never regresses, regardless of later connectivity loss.
func (p *Participant) IsCompleted() bool {
	return p.CompletedAt != nil
}

// ProgressPercent returns round(answered/total*100), or 0 for an empty paper.
func (p *Participant) ProgressPercent(totalQuestions int) int {
	if totalQuestions <= 0 {
		return 0
	}
	return int(math.Round(float64(p.AnsweredCount) / float64(totalQuestions) * 100))
}

// ProgressRequest reports the participant's position in the paper.
type ProgressRequest struct {
	CurrentQuestion int `json:"current_question" binding:"min=0"`
	AnsweredCount   int `json:"answered_count" binding:"min=0"`
}

// SaveAnswerRequest autosaves a single answer over REST.
type SaveAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required,uuid"`
	Answer     string `json:"answer" binding:"required,max=10"`
}

// CheatEventRequest reports a proctoring event over REST.
type CheatEventRequest struct {
	EventType string          `json:"event_type" binding:"required,min=1,max=50"`
	Payload   json.RawMessage `json:"payload"`
}

// Result is the final summary of a completed participant.
type Result struct {
	Score        float64 `json:"score"`
	CorrectCount int     `json:"correct_count"`
	WrongCount   int     `json:"wrong_count"`
	BlankCount   int     `json:"blank_count"`
}
