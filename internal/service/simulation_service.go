package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/aulalink/aula-backend/internal/config"
	"github.com/aulalink/aula-backend/internal/model"
	"github.com/aulalink/aula-backend/internal/repository"
	"github.com/aulalink/aula-backend/internal/response"
)

// Simulation domain errors.
var (
	ErrSimulationNotDraft = errors.New("simulation status is not DRAFT")
	ErrNoQuestions        = errors.New("simulation has no questions")
)

// SimulationService handles simulation business logic and Redis caching.
// Publishing warms the student paper and the answer key so the exam hot
// path never touches PostgreSQL.
type SimulationService struct {
	simulationRepo *repository.SimulationRepository
	questionRepo   *repository.QuestionRepository
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewSimulationService creates a new SimulationService.
func NewSimulationService(
	simulationRepo *repository.SimulationRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *SimulationService {
	return &SimulationService{
		simulationRepo: simulationRepo,
		questionRepo:   questionRepo,
		rdb:            rdb,
		log:            log.With().Str("component", "simulation_service").Logger(),
	}
}

// GetByID retrieves a simulation by its UUID.
func (s *SimulationService) GetByID(ctx context.Context, id uuid.UUID) (*model.Simulation, error) {
	return s.simulationRepo.GetByID(ctx, id)
}

// List retrieves simulations with pagination.
func (s *SimulationService) List(ctx context.Context, page, perPage int) ([]model.Simulation, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	sims, total, err := s.simulationRepo.ListPaginated(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if sims == nil {
		sims = []model.Simulation{}
	}

	return sims, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}, nil
}

// Create inserts a new simulation as DRAFT.
func (s *SimulationService) Create(ctx context.Context, sim *model.Simulation) error {
	sim.Status = model.SimulationStatusDraft
	return s.simulationRepo.Create(ctx, sim)
}

// Update modifies a DRAFT simulation.
func (s *SimulationService) Update(ctx context.Context, sim *model.Simulation) error {
	existing, err := s.simulationRepo.GetByID(ctx, sim.ID)
	if err != nil {
		return fmt.Errorf("get simulation: %w", err)
	}
	if existing.Status != model.SimulationStatusDraft {
		return ErrSimulationNotDraft
	}
	return s.simulationRepo.Update(ctx, sim)
}

// ReplaceQuestions swaps the question set and, for published simulations,
// refreshes the Redis caches so sessions see the new paper.
func (s *SimulationService) ReplaceQuestions(ctx context.Context, simulationID uuid.UUID, questions []model.Question) error {
	sim, err := s.simulationRepo.GetByID(ctx, simulationID)
	if err != nil {
		return fmt.Errorf("get simulation: %w", err)
	}

	if err := s.questionRepo.ReplaceAll(ctx, simulationID, questions); err != nil {
		return fmt.Errorf("replace questions: %w", err)
	}
	if err := s.simulationRepo.SetQuestionCount(ctx, simulationID, len(questions)); err != nil {
		return fmt.Errorf("update question count: %w", err)
	}

	if sim.Status == model.SimulationStatusPublished {
		sim.QuestionCount = len(questions)
		if err := s.warmCache(ctx, sim); err != nil {
			return fmt.Errorf("refresh cache: %w", err)
		}
	}
	return nil
}

// AddQuestion appends a single question to a DRAFT simulation. A zero
// order slots it after the current last question.
func (s *SimulationService) AddQuestion(ctx context.Context, q *model.Question) error {
	sim, err := s.simulationRepo.GetByID(ctx, q.SimulationID)
	if err != nil {
		return fmt.Errorf("get simulation: %w", err)
	}
	if sim.Status != model.SimulationStatusDraft {
		return ErrSimulationNotDraft
	}

	count, err := s.questionRepo.CountBySimulation(ctx, q.SimulationID)
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	if q.OrderNum == 0 {
		q.OrderNum = count + 1
	}

	if err := s.questionRepo.Add(ctx, q); err != nil {
		return fmt.Errorf("add question: %w", err)
	}
	return s.simulationRepo.SetQuestionCount(ctx, q.SimulationID, count+1)
}

// Delete removes a DRAFT simulation and its questions.
func (s *SimulationService) Delete(ctx context.Context, simulationID uuid.UUID) error {
	sim, err := s.simulationRepo.GetByID(ctx, simulationID)
	if err != nil {
		return fmt.Errorf("get simulation: %w", err)
	}
	if sim.Status != model.SimulationStatusDraft {
		return ErrSimulationNotDraft
	}
	return s.simulationRepo.Delete(ctx, simulationID)
}

// Publish transitions DRAFT → PUBLISHED and warms the Redis fast lane.
func (s *SimulationService) Publish(ctx context.Context, simulationID uuid.UUID) error {
	sim, err := s.simulationRepo.GetByID(ctx, simulationID)
	if err != nil {
		return fmt.Errorf("get simulation: %w", err)
	}
	if sim.Status != model.SimulationStatusDraft {
		return ErrSimulationNotDraft
	}

	if err := s.warmCache(ctx, sim); err != nil {
		return err
	}

	if err := s.simulationRepo.UpdateStatus(ctx, simulationID, model.SimulationStatusPublished); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.log.Info().Str("simulation_id", simulationID.String()).Msg("Simulation published")
	return nil
}

// Archive transitions PUBLISHED → ARCHIVED and evicts the caches.
func (s *SimulationService) Archive(ctx context.Context, simulationID uuid.UUID) error {
	if err := s.simulationRepo.UpdateStatus(ctx, simulationID, model.SimulationStatusArchived); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	id := simulationID.String()
	return s.rdb.Del(ctx,
		config.CacheKey.SimulationPayloadKey(id),
		config.CacheKey.SimulationAnswerKey(id),
	).Err()
}

// ListQuestions returns the full (staff-facing) question set.
func (s *SimulationService) ListQuestions(ctx context.Context, simulationID uuid.UUID) ([]model.Question, error) {
	return s.questionRepo.ListBySimulation(ctx, simulationID)
}

// GetPayload returns the cached student paper, rebuilding it on cache miss.
func (s *SimulationService) GetPayload(ctx context.Context, simulationID uuid.UUID) (*model.SimulationPayload, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.SimulationPayloadKey(simulationID.String())).Result()
	if err == nil {
		payload := &model.SimulationPayload{}
		if err := json.Unmarshal([]byte(raw), payload); err == nil {
			return payload, nil
		}
		// Corrupt cache entry: fall through and rebuild.
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get payload: %w", err)
	}

	sim, err := s.simulationRepo.GetByID(ctx, simulationID)
	if err != nil {
		return nil, fmt.Errorf("get simulation: %w", err)
	}
	if err := s.warmCache(ctx, sim); err != nil {
		return nil, err
	}
	return s.buildPayload(ctx, sim)
}

// GetAnswerKey returns question_id → correct_option, self-healing the
// Redis hash from PostgreSQL on a miss (evicted or legacy entry).
func (s *SimulationService) GetAnswerKey(ctx context.Context, simulationID uuid.UUID) (map[string]string, error) {
	key := config.CacheKey.SimulationAnswerKey(simulationID.String())

	answerKey, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("get answer key: %w", err)
	}
	if len(answerKey) > 0 {
		return answerKey, nil
	}

	sim, err := s.simulationRepo.GetByID(ctx, simulationID)
	if err != nil {
		return nil, fmt.Errorf("get simulation: %w", err)
	}
	if err := s.warmCache(ctx, sim); err != nil {
		return nil, err
	}

	return s.rdb.HGetAll(ctx, key).Result()
}

// PrewarmAll loads every published simulation into Redis before the server
// accepts traffic, so the first wave of students never races a lazy load.
func (s *SimulationService) PrewarmAll(ctx context.Context) error {
	sims, err := s.simulationRepo.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published: %w", err)
	}

	for i := range sims {
		if err := s.warmCache(ctx, &sims[i]); err != nil {
			s.log.Warn().Err(err).
				Str("simulation_id", sims[i].ID.String()).
				Msg("Prewarm failed for simulation")
		}
	}

	s.log.Info().Int("count", len(sims)).Msg("Simulation caches prewarmed")
	return nil
}

// warmCache loads the question set and writes both the student payload and
// the answer key to Redis.
func (s *SimulationService) warmCache(ctx context.Context, sim *model.Simulation) error {
	questions, err := s.questionRepo.ListBySimulation(ctx, sim.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	payload := model.SimulationPayload{
		SimulationID: sim.ID,
		Title:        sim.Title,
		Duration:     sim.DurationMinutes,
		Questions:    make([]model.QuestionForStudent, 0, len(questions)),
	}
	answerKey := make(map[string]interface{}, len(questions))

	for _, q := range questions {
		payload.Questions = append(payload.Questions, model.QuestionForStudent{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			Options:      q.Options,
			OrderNum:     q.OrderNum,
		})
		answerKey[q.ID.String()] = q.CorrectOption
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	id := sim.ID.String()
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, config.CacheKey.SimulationPayloadKey(id), raw, 0)
	pipe.Del(ctx, config.CacheKey.SimulationAnswerKey(id))
	pipe.HSet(ctx, config.CacheKey.SimulationAnswerKey(id), answerKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("warm cache: %w", err)
	}

	s.log.Debug().Str("simulation_id", id).Int("questions", len(questions)).Msg("Simulation cache warmed")
	return nil
}

func (s *SimulationService) buildPayload(ctx context.Context, sim *model.Simulation) (*model.SimulationPayload, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.SimulationPayloadKey(sim.ID.String())).Result()
	if err != nil {
		return nil, fmt.Errorf("get payload after warm: %w", err)
	}
	payload := &model.SimulationPayload{}
	if err := json.Unmarshal([]byte(raw), payload); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return payload, nil
}
