package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aulalink/aula-backend/internal/model"
)

// SessionRepository handles room session and roster data access.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, simulation_id, status, created_by, started_at, ended_at, created_at`

func scanSession(row interface{ Scan(...any) error }) (*model.RoomSession, error) {
	s := &model.RoomSession{}
	err := row.Scan(&s.ID, &s.SimulationID, &s.Status, &s.CreatedBy, &s.StartedAt, &s.EndedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID retrieves a session by its UUID.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.RoomSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM room_sessions WHERE id = $1`, id))
}

// GetOpenBySimulation retrieves the single non-completed session of a
// simulation, if any.
func (r *SessionRepository) GetOpenBySimulation(ctx context.Context, simulationID uuid.UUID) (*model.RoomSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM room_sessions
		 WHERE simulation_id = $1 AND status <> 'COMPLETED'`, simulationID))
}

// Create inserts a new WAITING session. The partial unique index on
// (simulation_id) WHERE status <> 'COMPLETED' makes concurrent get-or-create
// race-safe: the loser gets pgx.ErrNoRows and refetches the winner's row.
func (r *SessionRepository) Create(ctx context.Context, s *model.RoomSession) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO room_sessions (simulation_id, status, created_by)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (simulation_id) WHERE status <> 'COMPLETED' DO NOTHING
		 RETURNING id, created_at`,
		s.SimulationID, model.SessionStatusWaiting, s.CreatedBy,
	).Scan(&s.ID, &s.CreatedAt)
}

// Start transitions WAITING → STARTED. The status predicate serializes
// racing admin tabs: only one UPDATE matches, the rest get pgx.ErrNoRows.
func (r *SessionRepository) Start(ctx context.Context, id uuid.UUID) (time.Time, error) {
	var startedAt time.Time
	err := r.pool.QueryRow(ctx,
		`UPDATE room_sessions
		 SET status = $1, started_at = NOW()
		 WHERE id = $2 AND status = $3
		 RETURNING started_at`,
		model.SessionStatusStarted, id, model.SessionStatusWaiting,
	).Scan(&startedAt)
	return startedAt, err
}

// End transitions STARTED → COMPLETED.
func (r *SessionRepository) End(ctx context.Context, id uuid.UUID) (time.Time, error) {
	var endedAt time.Time
	err := r.pool.QueryRow(ctx,
		`UPDATE room_sessions
		 SET status = $1, ended_at = NOW()
		 WHERE id = $2 AND status = $3
		 RETURNING ended_at`,
		model.SessionStatusCompleted, id, model.SessionStatusStarted,
	).Scan(&endedAt)
	return endedAt, err
}

// AddInvites adds students to the session roster, ignoring duplicates.
func (r *SessionRepository) AddInvites(ctx context.Context, sessionID uuid.UUID, studentIDs []int) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO session_invites (session_id, student_id)
		 SELECT $1, unnest($2::int[])
		 ON CONFLICT (session_id, student_id) DO NOTHING`,
		sessionID, studentIDs)
	return err
}

// ListInvited retrieves the session roster with student names.
// IsConnected is filled in by the service layer from presence data.
func (r *SessionRepository) ListInvited(ctx context.Context, sessionID uuid.UUID) ([]model.InvitedStudent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT i.student_id, s.name
		 FROM session_invites i
		 JOIN students s ON s.id = i.student_id
		 WHERE i.session_id = $1
		 ORDER BY s.name ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invited []model.InvitedStudent
	for rows.Next() {
		var inv model.InvitedStudent
		if err := rows.Scan(&inv.StudentID, &inv.Name); err != nil {
			return nil, err
		}
		invited = append(invited, inv)
	}
	return invited, rows.Err()
}

// IsInvited reports whether the student is on the session roster.
func (r *SessionRepository) IsInvited(ctx context.Context, sessionID uuid.UUID, studentID int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM session_invites
			WHERE session_id = $1 AND student_id = $2
		 )`, sessionID, studentID,
	).Scan(&exists)
	return exists, err
}

// GetActiveForStudent retrieves the most recent non-completed session the
// student is invited to, used by the student client to find its room.
func (r *SessionRepository) GetActiveForStudent(ctx context.Context, studentID int) (*model.RoomSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumnsPrefixed+`
		 FROM room_sessions rs
		 JOIN session_invites i ON i.session_id = rs.id
		 WHERE i.student_id = $1 AND rs.status <> 'COMPLETED'
		 ORDER BY rs.created_at DESC
		 LIMIT 1`, studentID))
}

const sessionColumnsPrefixed = `rs.id, rs.simulation_id, rs.status, rs.created_by, rs.started_at, rs.ended_at, rs.created_at`
