package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CheatEvent is a flagged suspicious occurrence (tab switch, focus loss)
// recorded by the exam client. The server only aggregates and displays;
// no enforcement policy is attached.
type CheatEvent struct {
	ID            int64           `json:"id"`
	SessionID     uuid.UUID       `json:"session_id"`
	ParticipantID uuid.UUID       `json:"participant_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	RecordedAt    time.Time       `json:"recorded_at"`
}
