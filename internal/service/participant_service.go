package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/aulalink/aula-backend/internal/config"
	"github.com/aulalink/aula-backend/internal/model"
	"github.com/aulalink/aula-backend/internal/repository"
)

// Participant domain errors.
var (
	ErrNotInvited           = errors.New("student is not invited to this session")
	ErrParticipantCompleted = errors.New("participant has already completed the exam")
)

// StudentState is the student-facing poll snapshot. It carries only the
// participant's own run, never other students' progress or results.
type StudentState struct {
	Session              *model.RoomSession `json:"session"`
	Participant          *model.Participant `json:"participant"`
	TotalQuestions       int                `json:"total_questions"`
	TimeRemainingSeconds int                `json:"time_remaining_seconds"`
	Answers              map[string]string  `json:"answers"`
}

// ParticipantService handles the student side of a room: attaching,
// readiness, progress, autosave and final submission.
type ParticipantService struct {
	participantRepo   *repository.ParticipantRepository
	sessionRepo       *repository.SessionRepository
	simulationService *SimulationService
	presence          *PresenceService
	rdb               *redis.Client
	log               zerolog.Logger
}

// NewParticipantService creates a new ParticipantService.
func NewParticipantService(
	participantRepo *repository.ParticipantRepository,
	sessionRepo *repository.SessionRepository,
	simulationService *SimulationService,
	presence *PresenceService,
	rdb *redis.Client,
	log zerolog.Logger,
) *ParticipantService {
	return &ParticipantService{
		participantRepo:   participantRepo,
		sessionRepo:       sessionRepo,
		simulationService: simulationService,
		presence:          presence,
		rdb:               rdb,
		log:               log.With().Str("component", "participant_service").Logger(),
	}
}

// Attach enters a student into the room. Only invited students may attach.
// While the session is WAITING any invitee may attach; once STARTED only a
// student with an existing participant row (a reconnect) gets through.
func (s *ParticipantService) Attach(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.Participant, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.Status == model.SessionStatusCompleted {
		return nil, ErrSessionCompleted
	}

	invited, err := s.sessionRepo.IsInvited(ctx, sessionID, studentID)
	if err != nil {
		return nil, fmt.Errorf("check invite: %w", err)
	}
	if !invited {
		return nil, ErrNotInvited
	}

	if session.Status == model.SessionStatusStarted {
		participant, err := s.participantRepo.GetBySessionAndStudent(ctx, sessionID, studentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrSessionAlreadyStarted
			}
			return nil, fmt.Errorf("get participant: %w", err)
		}
		if err := s.presence.Heartbeat(ctx, sessionID, studentID); err != nil {
			return nil, fmt.Errorf("heartbeat: %w", err)
		}
		return participant, nil
	}

	p := &model.Participant{SessionID: sessionID, StudentID: studentID}
	err = s.participantRepo.Attach(ctx, p)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("attach participant: %w", err)
	}

	// Existing row (reconnect): the insert was skipped, load the full record.
	participant, err := s.participantRepo.GetBySessionAndStudent(ctx, sessionID, studentID)
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}

	if err := s.presence.Heartbeat(ctx, sessionID, studentID); err != nil {
		return nil, fmt.Errorf("heartbeat: %w", err)
	}
	return participant, nil
}

// Get loads the participant row for a session-student pair.
func (s *ParticipantService) Get(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.Participant, error) {
	return s.participantRepo.GetBySessionAndStudent(ctx, sessionID, studentID)
}

// Ready marks the participant as ready before start.
func (s *ParticipantService) Ready(ctx context.Context, sessionID uuid.UUID, studentID int) error {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if session.Status == model.SessionStatusCompleted {
		return ErrSessionCompleted
	}
	return s.participantRepo.SetReady(ctx, sessionID, studentID)
}

// Progress records the participant's position in the paper during a
// STARTED session.
func (s *ParticipantService) Progress(ctx context.Context, sessionID uuid.UUID, studentID, currentQuestion, answeredCount int) error {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if session.Status != model.SessionStatusStarted {
		return ErrSessionNotStarted
	}
	return s.participantRepo.UpdateProgress(ctx, sessionID, studentID, currentQuestion, answeredCount)
}

// SaveAnswer autosaves a single answer to the Redis hash and queues the
// durable write for the answer worker. Redis is the source of truth for
// grading, the queue is the persistence path.
func (s *ParticipantService) SaveAnswer(ctx context.Context, sessionID uuid.UUID, studentID int, questionID uuid.UUID, answer string) error {
	participant, err := s.participantRepo.GetBySessionAndStudent(ctx, sessionID, studentID)
	if err != nil {
		return fmt.Errorf("get participant: %w", err)
	}
	if participant.IsCompleted() {
		return ErrParticipantCompleted
	}

	key := config.CacheKey.ParticipantAnswersKey(sessionID.String(), studentID)
	if err := s.rdb.HSet(ctx, key, questionID.String(), answer).Err(); err != nil {
		return fmt.Errorf("save answer: %w", err)
	}

	job, err := json.Marshal(model.AnswerJob{
		SessionID:  sessionID,
		StudentID:  studentID,
		QuestionID: questionID,
		Answer:     answer,
		SavedAt:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal answer job: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, job).Err(); err != nil {
		// The Redis hash already holds the answer, so grading is unaffected.
		s.log.Error().Err(err).
			Str("session_id", sessionID.String()).
			Int("student_id", studentID).
			Msg("Failed to queue answer persistence")
	}
	return nil
}

// ReportCheat queues a proctoring event for batched persistence.
func (s *ParticipantService) ReportCheat(ctx context.Context, sessionID, participantID uuid.UUID, eventType string, payload json.RawMessage) error {
	job, err := json.Marshal(model.CheatJob{
		SessionID:     sessionID,
		ParticipantID: participantID,
		EventType:     eventType,
		Payload:       payload,
		RecordedAt:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal cheat job: %w", err)
	}
	return s.rdb.RPush(ctx, config.WorkerKey.PersistCheatsQueue, job).Err()
}

// Submit grades the participant's autosaved answers against the cached
// answer key and finalizes the run. Completion is terminal: a second
// submit returns the already stored result.
func (s *ParticipantService) Submit(ctx context.Context, sessionID uuid.UUID, studentID int) (*model.Result, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.Status == model.SessionStatusWaiting {
		return nil, ErrSessionNotStarted
	}

	participant, err := s.participantRepo.GetBySessionAndStudent(ctx, sessionID, studentID)
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	if participant.IsCompleted() {
		return participant.Result, ErrParticipantCompleted
	}

	answerKey, err := s.simulationService.GetAnswerKey(ctx, session.SimulationID)
	if err != nil {
		return nil, fmt.Errorf("get answer key: %w", err)
	}

	answers, err := s.rdb.HGetAll(ctx, config.CacheKey.ParticipantAnswersKey(sessionID.String(), studentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get answers: %w", err)
	}

	result := Grade(answerKey, answers)
	if err := s.participantRepo.Complete(ctx, sessionID, studentID, result); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// A concurrent submit won; this grading never persisted.
			// Return what the winner stored.
			stored, err := s.participantRepo.GetBySessionAndStudent(ctx, sessionID, studentID)
			if err != nil {
				return nil, fmt.Errorf("refetch completed participant: %w", err)
			}
			return stored.Result, ErrParticipantCompleted
		}
		return nil, fmt.Errorf("complete participant: %w", err)
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Int("student_id", studentID).
		Float64("score", result.Score).
		Msg("Participant submitted")
	return &result, nil
}

// State assembles the student poll snapshot and refreshes the presence
// heartbeat, so a polling client stays connected without a socket.
func (s *ParticipantService) State(ctx context.Context, sessionID uuid.UUID, studentID int) (*StudentState, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	participant, err := s.participantRepo.GetBySessionAndStudent(ctx, sessionID, studentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotInvited
		}
		return nil, fmt.Errorf("get participant: %w", err)
	}

	sim, err := s.simulationService.GetByID(ctx, session.SimulationID)
	if err != nil {
		return nil, fmt.Errorf("get simulation: %w", err)
	}

	answers, err := s.rdb.HGetAll(ctx, config.CacheKey.ParticipantAnswersKey(sessionID.String(), studentID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get answers: %w", err)
	}
	if answers == nil {
		answers = map[string]string{}
	}

	if session.Status != model.SessionStatusCompleted && !participant.IsCompleted() {
		if err := s.presence.Heartbeat(ctx, sessionID, studentID); err != nil {
			s.log.Warn().Err(err).Int("student_id", studentID).Msg("Presence heartbeat failed")
		}
	}

	return buildStudentState(session, participant, sim, answers, time.Now()), nil
}

// buildStudentState is the pure assembly of the student snapshot.
func buildStudentState(
	session *model.RoomSession,
	participant *model.Participant,
	sim *model.Simulation,
	answers map[string]string,
	now time.Time,
) *StudentState {
	return &StudentState{
		Session:              session,
		Participant:          participant,
		TotalQuestions:       sim.QuestionCount,
		TimeRemainingSeconds: int(TimeRemaining(session, sim.DurationMinutes, now).Seconds()),
		Answers:              answers,
	}
}
