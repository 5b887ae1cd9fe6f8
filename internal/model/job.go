package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AnswerJob is queued on every autosave and drained by the answer worker
// into participant_answers.
type AnswerJob struct {
	SessionID  uuid.UUID `json:"session_id"`
	StudentID  int       `json:"student_id"`
	QuestionID uuid.UUID `json:"question_id"`
	Answer     string    `json:"answer"`
	SavedAt    time.Time `json:"saved_at"`
}

// CheatJob is queued on every reported proctoring event and flushed in
// batches by the cheat worker into cheat_events.
type CheatJob struct {
	SessionID     uuid.UUID       `json:"session_id"`
	ParticipantID uuid.UUID       `json:"participant_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	RecordedAt    time.Time       `json:"recorded_at"`
}
