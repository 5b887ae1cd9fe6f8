package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aulalink/aula-backend/internal/model"
)

// MessageRepository handles participant message data access.
type MessageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository creates a new MessageRepository.
func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

// Create inserts a new message for a participant.
func (r *MessageRepository) Create(ctx context.Context, m *model.Message) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO participant_messages (participant_id, sender_id, body)
		 VALUES ($1, $2, $3)
		 RETURNING id, sent_at`,
		m.ParticipantID, m.SenderID, m.Body,
	).Scan(&m.ID, &m.SentAt)
}

// ListByParticipant retrieves all messages for a participant, oldest first.
func (r *MessageRepository) ListByParticipant(ctx context.Context, participantID uuid.UUID) ([]model.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, participant_id, sender_id, body, sent_at, read_at
		 FROM participant_messages
		 WHERE participant_id = $1
		 ORDER BY sent_at ASC`, participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ParticipantID, &m.SenderID, &m.Body, &m.SentAt, &m.ReadAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// MarkAllRead stamps read_at on every unread message of a participant.
func (r *MessageRepository) MarkAllRead(ctx context.Context, participantID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE participant_messages SET read_at = NOW()
		 WHERE participant_id = $1 AND read_at IS NULL`, participantID)
	return err
}

// UnreadBySession returns the set of participant IDs of a session that have
// at least one unread message. Computed fresh on every snapshot poll.
func (r *MessageRepository) UnreadBySession(ctx context.Context, sessionID uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT m.participant_id
		 FROM participant_messages m
		 JOIN participants p ON p.id = m.participant_id
		 WHERE p.session_id = $1 AND m.read_at IS NULL`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	unread := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		unread[id] = true
	}
	return unread, rows.Err()
}
