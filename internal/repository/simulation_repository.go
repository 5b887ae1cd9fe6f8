package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aulalink/aula-backend/internal/model"
)

// SimulationRepository handles simulation data access.
type SimulationRepository struct {
	pool *pgxpool.Pool
}

// NewSimulationRepository creates a new SimulationRepository.
func NewSimulationRepository(pool *pgxpool.Pool) *SimulationRepository {
	return &SimulationRepository{pool: pool}
}

const simulationColumns = `id, title, subject, author_id, duration_minutes, question_count, status, created_at, updated_at`

func scanSimulation(row interface{ Scan(...any) error }) (*model.Simulation, error) {
	s := &model.Simulation{}
	err := row.Scan(&s.ID, &s.Title, &s.Subject, &s.AuthorID, &s.DurationMinutes,
		&s.QuestionCount, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByID retrieves a simulation by its UUID.
func (r *SimulationRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Simulation, error) {
	return scanSimulation(r.pool.QueryRow(ctx,
		`SELECT `+simulationColumns+` FROM simulations WHERE id = $1`, id))
}

// ListPublished retrieves all published simulations, used for cache prewarm.
func (r *SimulationRepository) ListPublished(ctx context.Context) ([]model.Simulation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+simulationColumns+` FROM simulations WHERE status = $1`,
		model.SimulationStatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sims []model.Simulation
	for rows.Next() {
		s, err := scanSimulation(rows)
		if err != nil {
			return nil, err
		}
		sims = append(sims, *s)
	}
	return sims, rows.Err()
}

// ListPaginated retrieves simulations ordered by creation, newest first.
func (r *SimulationRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.Simulation, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM simulations`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+simulationColumns+` FROM simulations
		 ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sims []model.Simulation
	for rows.Next() {
		s, err := scanSimulation(rows)
		if err != nil {
			return nil, 0, err
		}
		sims = append(sims, *s)
	}
	return sims, total, rows.Err()
}

// Create inserts a new simulation as DRAFT.
func (r *SimulationRepository) Create(ctx context.Context, s *model.Simulation) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO simulations (title, subject, author_id, duration_minutes, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		s.Title, s.Subject, s.AuthorID, s.DurationMinutes, model.SimulationStatusDraft,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// Update modifies the editable fields of a simulation.
func (r *SimulationRepository) Update(ctx context.Context, s *model.Simulation) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE simulations
		 SET title = $1, subject = $2, duration_minutes = $3, updated_at = NOW()
		 WHERE id = $4`,
		s.Title, s.Subject, s.DurationMinutes, s.ID)
	return err
}

// UpdateStatus transitions the simulation's lifecycle status.
func (r *SimulationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.SimulationStatus) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE simulations SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, id)
	return err
}

// SetQuestionCount refreshes the denormalized question counter.
func (r *SimulationRepository) SetQuestionCount(ctx context.Context, id uuid.UUID, count int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE simulations SET question_count = $1, updated_at = NOW() WHERE id = $2`,
		count, id)
	return err
}

// Delete removes a simulation. Fails on FK violation if sessions exist.
func (r *SimulationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM simulations WHERE id = $1`, id)
	return err
}
