package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aulalink/aula-backend/internal/config"
)

// PresenceService tracks participant connectivity through Redis TTL keys.
// A participant counts as connected while their key is alive; heartbeats
// (WebSocket traffic, state polls) refresh it. A lapsed key is the only
// disconnection signal — there is no forfeiture policy attached to it.
type PresenceService struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPresenceService creates a new PresenceService.
func NewPresenceService(rdb *redis.Client, ttl time.Duration) *PresenceService {
	return &PresenceService{rdb: rdb, ttl: ttl}
}

// Heartbeat marks the student as connected to the session for one TTL window.
func (s *PresenceService) Heartbeat(ctx context.Context, sessionID uuid.UUID, studentID int) error {
	key := config.CacheKey.ParticipantPresenceKey(sessionID.String(), studentID)
	return s.rdb.Set(ctx, key, "1", s.ttl).Err()
}

// Disconnect drops the presence key immediately (clean WebSocket close).
func (s *PresenceService) Disconnect(ctx context.Context, sessionID uuid.UUID, studentID int) error {
	key := config.CacheKey.ParticipantPresenceKey(sessionID.String(), studentID)
	return s.rdb.Del(ctx, key).Err()
}

// ConnectedSet reports which of the given students are currently connected,
// using one pipelined round trip per snapshot.
func (s *PresenceService) ConnectedSet(ctx context.Context, sessionID uuid.UUID, studentIDs []int) (map[int]bool, error) {
	connected := make(map[int]bool, len(studentIDs))
	if len(studentIDs) == 0 {
		return connected, nil
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.IntCmd, len(studentIDs))
	for i, sid := range studentIDs {
		cmds[i] = pipe.Exists(ctx, config.CacheKey.ParticipantPresenceKey(sessionID.String(), sid))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("presence pipeline: %w", err)
	}

	for i, sid := range studentIDs {
		connected[sid] = cmds[i].Val() > 0
	}
	return connected, nil
}
