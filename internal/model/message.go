package model

import (
	"time"

	"github.com/google/uuid"
)

// Message is an ad-hoc text sent by staff to a single participant.
// Delivery is fire-and-forget; the unread flag is recomputed on every poll,
// so a message sent while the student is disconnected survives the outage.
type Message struct {
	ID            uuid.UUID  `json:"id"`
	ParticipantID uuid.UUID  `json:"participant_id"`
	SenderID      int        `json:"sender_id"`
	Body          string     `json:"body"`
	SentAt        time.Time  `json:"sent_at"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
}

// SendMessageRequest is the payload for messaging a participant.
type SendMessageRequest struct {
	Body string `json:"body" binding:"required,min=1,max=1000"`
}
