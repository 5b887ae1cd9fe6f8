package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aulalink/aula-backend/internal/model"
)

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListBySimulation retrieves all questions of a simulation in order.
func (r *QuestionRepository) ListBySimulation(ctx context.Context, simulationID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, simulation_id, question_text, options, correct_option, order_num
		 FROM questions
		 WHERE simulation_id = $1
		 ORDER BY order_num ASC`, simulationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.SimulationID, &q.QuestionText, &q.Options, &q.CorrectOption, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Add inserts a single question.
func (r *QuestionRepository) Add(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (simulation_id, question_text, options, correct_option, order_num)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		q.SimulationID, q.QuestionText, q.Options, q.CorrectOption, q.OrderNum,
	).Scan(&q.ID)
}

// ReplaceAll swaps the full question set of a simulation in one transaction.
func (r *QuestionRepository) ReplaceAll(ctx context.Context, simulationID uuid.UUID, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE simulation_id = $1`, simulationID); err != nil {
		return fmt.Errorf("delete existing: %w", err)
	}

	if len(questions) > 0 {
		rows := make([][]interface{}, 0, len(questions))
		for i := range questions {
			q := &questions[i]
			rows = append(rows, []interface{}{
				simulationID, q.QuestionText, q.Options, q.CorrectOption, q.OrderNum,
			})
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"questions"},
			[]string{"simulation_id", "question_text", "options", "correct_option", "order_num"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("bulk insert: %w", err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE simulations SET question_count = $1, updated_at = NOW() WHERE id = $2`,
		len(questions), simulationID,
	); err != nil {
		return fmt.Errorf("update count: %w", err)
	}

	return tx.Commit(ctx)
}

// CountBySimulation returns the number of questions of a simulation.
func (r *QuestionRepository) CountBySimulation(ctx context.Context, simulationID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM questions WHERE simulation_id = $1`, simulationID,
	).Scan(&count)
	return count, err
}
