package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aulalink/aula-backend/internal/model"
)

// CheatRepository provides read access to persisted cheat events.
// Writes go through the CheatWorker's Redis queue, not this type.
type CheatRepository struct {
	pool *pgxpool.Pool
}

// NewCheatRepository creates a new CheatRepository.
func NewCheatRepository(pool *pgxpool.Pool) *CheatRepository {
	return &CheatRepository{pool: pool}
}

// CountsBySession returns the number of cheat events per participant.
func (r *CheatRepository) CountsBySession(ctx context.Context, sessionID uuid.UUID) (map[uuid.UUID]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT participant_id, COUNT(*)
		 FROM cheat_events
		 WHERE session_id = $1
		 GROUP BY participant_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int64)
	for rows.Next() {
		var pid uuid.UUID
		var count int64
		if err := rows.Scan(&pid, &count); err != nil {
			return nil, err
		}
		counts[pid] = count
	}
	return counts, rows.Err()
}

// RecentBySession returns the newest events per participant, at most limit
// each, for the admin snapshot's bounded recent-events list.
func (r *CheatRepository) RecentBySession(ctx context.Context, sessionID uuid.UUID, limit int) (map[uuid.UUID][]model.CheatEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, participant_id, event_type, payload, recorded_at
		 FROM (
			SELECT *, ROW_NUMBER() OVER (
				PARTITION BY participant_id ORDER BY recorded_at DESC
			) AS rn
			FROM cheat_events
			WHERE session_id = $1
		 ) ranked
		 WHERE rn <= $2
		 ORDER BY participant_id, recorded_at DESC`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recent := make(map[uuid.UUID][]model.CheatEvent)
	for rows.Next() {
		var e model.CheatEvent
		if err := rows.Scan(&e.ID, &e.SessionID, &e.ParticipantID, &e.EventType, &e.Payload, &e.RecordedAt); err != nil {
			return nil, err
		}
		recent[e.ParticipantID] = append(recent[e.ParticipantID], e)
	}
	return recent, rows.Err()
}
