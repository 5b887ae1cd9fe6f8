package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// StudentLoginKey returns the cache key holding a student's active login JTI.
func (r *CacheKeyStruct) StudentLoginKey(studentID int) string {
	return fmt.Sprintf("login:%d", studentID)
}

// ParticipantPresenceKey returns the TTL key that marks a participant as
// connected to a room session. Refreshed on every heartbeat.
func (r *CacheKeyStruct) ParticipantPresenceKey(sessionID string, studentID int) string {
	return fmt.Sprintf("session:%s:student:%d:presence", sessionID, studentID)
}

// ParticipantAnswersKey returns the cache key for a participant's autosaved answers.
func (r *CacheKeyStruct) ParticipantAnswersKey(sessionID string, studentID int) string {
	return fmt.Sprintf("session:%s:student:%d:answers", sessionID, studentID)
}

// SimulationPayloadKey returns the cache key for a published simulation's
// student-facing paper (questions without correct options).
func (r *CacheKeyStruct) SimulationPayloadKey(simulationID string) string {
	return fmt.Sprintf("simulation:%s:payload", simulationID)
}

// SimulationAnswerKey returns the cache key for a simulation's answer key.
func (r *CacheKeyStruct) SimulationAnswerKey(simulationID string) string {
	return fmt.Sprintf("simulation:%s:key", simulationID)
}

// SessionEventsChannel returns the Redis PubSub channel name for a room
// session's broadcast events (started, ended, message).
func (r *CacheKeyStruct) SessionEventsChannel(sessionID string) string {
	return fmt.Sprintf("session:%s:events", sessionID)
}

var CacheKey = NewCacheKeyStruct()
