package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aulalink/aula-backend/internal/model"
)

// ParticipantRepository handles participant data access.
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository creates a new ParticipantRepository.
func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

// Attach inserts a participant row for a student entering the room.
// Idempotent under reconnects: the unique (session_id, student_id) pair
// triggers ON CONFLICT DO NOTHING and the caller refetches on pgx.ErrNoRows.
func (r *ParticipantRepository) Attach(ctx context.Context, p *model.Participant) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO participants (session_id, student_id)
		 VALUES ($1, $2)
		 ON CONFLICT (session_id, student_id) DO NOTHING
		 RETURNING id, joined_at`,
		p.SessionID, p.StudentID,
	).Scan(&p.ID, &p.JoinedAt)
}

const participantColumns = `p.id, p.session_id, p.student_id, s.name, p.is_ready,
	p.exam_started_at, p.current_question, p.answered_count, p.completed_at,
	p.score, p.correct_count, p.wrong_count, p.blank_count, p.joined_at`

func scanParticipant(row interface{ Scan(...any) error }) (*model.Participant, error) {
	p := &model.Participant{}
	var score *float64
	var correct, wrong, blank *int
	err := row.Scan(&p.ID, &p.SessionID, &p.StudentID, &p.StudentName, &p.IsReady,
		&p.ExamStartedAt, &p.CurrentQuestion, &p.AnsweredCount, &p.CompletedAt,
		&score, &correct, &wrong, &blank, &p.JoinedAt)
	if err != nil {
		return nil, err
	}
	if p.CompletedAt != nil && score != nil {
		p.Result = &model.Result{
			Score:        *score,
			CorrectCount: *correct,
			WrongCount:   *wrong,
			BlankCount:   *blank,
		}
	}
	return p, nil
}

// GetByID retrieves a participant by UUID.
func (r *ParticipantRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Participant, error) {
	return scanParticipant(r.pool.QueryRow(ctx,
		`SELECT `+participantColumns+`
		 FROM participants p JOIN students s ON s.id = p.student_id
		 WHERE p.id = $1`, id))
}

// GetBySessionAndStudent retrieves a participant for a session-student pair.
func (r *ParticipantRepository) GetBySessionAndStudent(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.Participant, error) {
	return scanParticipant(r.pool.QueryRow(ctx,
		`SELECT `+participantColumns+`
		 FROM participants p JOIN students s ON s.id = p.student_id
		 WHERE p.session_id = $1 AND p.student_id = $2`, sessionID, studentID))
}

// ListBySession retrieves all participants of a session with student names.
func (r *ParticipantRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Participant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+participantColumns+`
		 FROM participants p JOIN students s ON s.id = p.student_id
		 WHERE p.session_id = $1
		 ORDER BY s.name ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, *p)
	}
	return participants, rows.Err()
}

// SetReady flags the participant as ready. Readiness is distinct from
// connectivity and never set back to false.
func (r *ParticipantRepository) SetReady(ctx context.Context, sessionID uuid.UUID, studentID int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE participants SET is_ready = TRUE
		 WHERE session_id = $1 AND student_id = $2`,
		sessionID, studentID)
	return err
}

// MarkStarted stamps exam_started_at on every participant of the session
// that hasn't started yet. Called once when the session starts so all runs
// share the synchronized countdown deadline.
func (r *ParticipantRepository) MarkStarted(ctx context.Context, sessionID uuid.UUID, startedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE participants SET exam_started_at = $1
		 WHERE session_id = $2 AND exam_started_at IS NULL`,
		startedAt, sessionID)
	return err
}

// UpdateProgress records the participant's current question and answered
// count. Guarded on completion so a stale client can't mutate a final row.
func (r *ParticipantRepository) UpdateProgress(ctx context.Context, sessionID uuid.UUID, studentID, currentQuestion, answeredCount int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE participants
		 SET current_question = $1, answered_count = $2
		 WHERE session_id = $3 AND student_id = $4 AND completed_at IS NULL`,
		currentQuestion, answeredCount, sessionID, studentID)
	return err
}

// Complete finalizes the participant with their result summary.
// The completed_at IS NULL predicate makes completion terminal: once set,
// no later call (or reconnect) can clear or overwrite it. A lost race
// (someone else completed first) surfaces as pgx.ErrNoRows so the caller
// can refetch the stored result.
func (r *ParticipantRepository) Complete(ctx context.Context, sessionID uuid.UUID, studentID int, res model.Result) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE participants
		 SET completed_at = NOW(), answered_count = $1,
		     score = $2, correct_count = $3, wrong_count = $4, blank_count = $5
		 WHERE session_id = $6 AND student_id = $7 AND completed_at IS NULL`,
		res.CorrectCount+res.WrongCount, res.Score, res.CorrectCount, res.WrongCount, res.BlankCount,
		sessionID, studentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
