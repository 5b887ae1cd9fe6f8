package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/aulalink/aula-backend/internal/config"
)

// SessionEventType enumerates broadcast events on a session's channel.
type SessionEventType string

const (
	EventSessionStarted SessionEventType = "started"
	EventSessionEnded   SessionEventType = "ended"
	EventMessage        SessionEventType = "message"
)

// SessionEvent is the payload published on a session's Redis channel and
// forwarded verbatim to connected student WebSockets. Events are a latency
// optimization only: the 3-second poll remains the delivery guarantee.
type SessionEvent struct {
	Type SessionEventType `json:"type"`
	// StudentID targets a single participant (messages); 0 broadcasts.
	StudentID       int        `json:"student_id,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	Body            string     `json:"body,omitempty"`
}

// SessionBroadcaster publishes session events over Redis Pub/Sub.
type SessionBroadcaster struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewSessionBroadcaster creates a new SessionBroadcaster.
func NewSessionBroadcaster(rdb *redis.Client, log zerolog.Logger) *SessionBroadcaster {
	return &SessionBroadcaster{
		rdb: rdb,
		log: log.With().Str("component", "session_broadcaster").Logger(),
	}
}

// Publish sends an event on the session's channel. Failures are logged and
// swallowed — the poll loop will still deliver the state change.
func (b *SessionBroadcaster) Publish(ctx context.Context, sessionID uuid.UUID, event SessionEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.log.Error().Err(err).Msg("Marshal session event")
		return
	}

	channel := config.CacheKey.SessionEventsChannel(sessionID.String())
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		b.log.Warn().Err(err).
			Str("session_id", sessionID.String()).
			Str("event", string(event.Type)).
			Msg("Publish session event failed, clients will pick it up on next poll")
	}
}

// Subscribe attaches to the session's event channel. The caller owns the
// returned PubSub and must Close it.
func (b *SessionBroadcaster) Subscribe(ctx context.Context, sessionID uuid.UUID) *redis.PubSub {
	return b.rdb.Subscribe(ctx, config.CacheKey.SessionEventsChannel(sessionID.String()))
}
