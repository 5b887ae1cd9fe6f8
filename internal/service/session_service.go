package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/aulalink/aula-backend/internal/model"
	"github.com/aulalink/aula-backend/internal/repository"
)

// Typed session errors. Handlers map these 1:1 to response codes so clients
// never have to match on error message text.
var (
	ErrNotAllConnected        = errors.New("not all invited students are connected")
	ErrSessionAlreadyStarted  = errors.New("session is already started")
	ErrSessionNotStarted      = errors.New("session has not started")
	ErrSessionCompleted       = errors.New("session is already completed")
	ErrSimulationNotPublished = errors.New("simulation is not published")
)

// SessionService coordinates the room session lifecycle: get-or-create,
// start (soft and forced), end, and the polled state snapshot.
type SessionService struct {
	sessionRepo     *repository.SessionRepository
	participantRepo *repository.ParticipantRepository
	simulationRepo  *repository.SimulationRepository
	messageRepo     *repository.MessageRepository
	cheatRepo       *repository.CheatRepository
	presence        *PresenceService
	broadcaster     *SessionBroadcaster
	log             zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	sessionRepo *repository.SessionRepository,
	participantRepo *repository.ParticipantRepository,
	simulationRepo *repository.SimulationRepository,
	messageRepo *repository.MessageRepository,
	cheatRepo *repository.CheatRepository,
	presence *PresenceService,
	broadcaster *SessionBroadcaster,
	log zerolog.Logger,
) *SessionService {
	return &SessionService{
		sessionRepo:     sessionRepo,
		participantRepo: participantRepo,
		simulationRepo:  simulationRepo,
		messageRepo:     messageRepo,
		cheatRepo:       cheatRepo,
		presence:        presence,
		broadcaster:     broadcaster,
		log:             log.With().Str("component", "session_service").Logger(),
	}
}

// Get retrieves a session by ID.
func (s *SessionService) Get(ctx context.Context, sessionID uuid.UUID) (*model.RoomSession, error) {
	return s.sessionRepo.GetByID(ctx, sessionID)
}

// GetOrCreate returns the open session for a simulation, creating one in
// WAITING if none exists. Idempotent under concurrent calls from multiple
// admin tabs: the insert loser refetches the winner's row.
func (s *SessionService) GetOrCreate(ctx context.Context, simulationID uuid.UUID, staffID int) (*model.RoomSession, error) {
	sim, err := s.simulationRepo.GetByID(ctx, simulationID)
	if err != nil {
		return nil, fmt.Errorf("get simulation: %w", err)
	}
	if sim.Status != model.SimulationStatusPublished {
		return nil, ErrSimulationNotPublished
	}

	existing, err := s.sessionRepo.GetOpenBySimulation(ctx, simulationID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find open session: %w", err)
	}

	session := &model.RoomSession{
		SimulationID: simulationID,
		Status:       model.SessionStatusWaiting,
		CreatedBy:    staffID,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Concurrent create: someone else won the partial unique index.
			return s.sessionRepo.GetOpenBySimulation(ctx, simulationID)
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("simulation_id", simulationID.String()).
		Msg("Room session created")

	return session, nil
}

// Start transitions WAITING → STARTED. Without force it fails with
// ErrNotAllConnected while any invited student is absent, leaving the
// status untouched; with force it proceeds regardless. On success the
// synchronized countdown is stamped on all attached participants and
// broadcast to connected clients. Students not attached at this instant
// are permanently excluded from the run.
func (s *SessionService) Start(ctx context.Context, sessionID uuid.UUID, force bool) (*model.RoomSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	switch session.Status {
	case model.SessionStatusStarted:
		return nil, ErrSessionAlreadyStarted
	case model.SessionStatusCompleted:
		return nil, ErrSessionCompleted
	}

	if !force {
		invited, err := s.sessionRepo.ListInvited(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("list invited: %w", err)
		}
		connectedCount, err := s.countConnected(ctx, sessionID, invited)
		if err != nil {
			return nil, fmt.Errorf("count connected: %w", err)
		}
		if connectedCount < len(invited) {
			return nil, ErrNotAllConnected
		}
	}

	startedAt, err := s.sessionRepo.Start(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// A concurrent admin tab won the conditional UPDATE.
			return nil, ErrSessionAlreadyStarted
		}
		return nil, fmt.Errorf("start session: %w", err)
	}

	if err := s.participantRepo.MarkStarted(ctx, sessionID, startedAt); err != nil {
		// The session is already STARTED; clients fall back to the
		// session-level started_at for the countdown, so log and carry on.
		s.log.Error().Err(err).Str("session_id", sessionID.String()).Msg("Mark participants started failed")
	}

	sim, err := s.simulationRepo.GetByID(ctx, session.SimulationID)
	if err != nil {
		return nil, fmt.Errorf("get simulation: %w", err)
	}

	s.broadcaster.Publish(ctx, sessionID, SessionEvent{
		Type:            EventSessionStarted,
		StartedAt:       &startedAt,
		DurationMinutes: sim.DurationMinutes,
	})

	session.Status = model.SessionStatusStarted
	session.StartedAt = &startedAt

	s.log.Info().
		Str("session_id", sessionID.String()).
		Bool("force", force).
		Msg("Room session started")

	return session, nil
}

// End transitions STARTED → COMPLETED at admin discretion. Unfinished
// participants' answers are frozen: every mutating participant operation
// checks session status first.
func (s *SessionService) End(ctx context.Context, sessionID uuid.UUID) (*model.RoomSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	endedAt, err := s.sessionRepo.End(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if session.Status == model.SessionStatusWaiting {
				return nil, ErrSessionNotStarted
			}
			return nil, ErrSessionCompleted
		}
		return nil, fmt.Errorf("end session: %w", err)
	}

	s.broadcaster.Publish(ctx, sessionID, SessionEvent{Type: EventSessionEnded})

	s.log.Info().Str("session_id", sessionID.String()).Msg("Room session ended")

	session.Status = model.SessionStatusCompleted
	session.EndedAt = &endedAt
	return session, nil
}

// State assembles the full room snapshot for one admin poll. Participant
// aggregates, the roster set difference, and the countdown are recomputed
// from scratch every call.
func (s *SessionService) State(ctx context.Context, sessionID uuid.UUID) (*RoomState, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	sim, err := s.simulationRepo.GetByID(ctx, session.SimulationID)
	if err != nil {
		return nil, fmt.Errorf("get simulation: %w", err)
	}

	participants, err := s.participantRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	invited, err := s.sessionRepo.ListInvited(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list invited: %w", err)
	}

	studentIDs := make([]int, len(participants))
	for i := range participants {
		studentIDs[i] = participants[i].StudentID
	}
	connected, err := s.presence.ConnectedSet(ctx, sessionID, studentIDs)
	if err != nil {
		return nil, fmt.Errorf("presence: %w", err)
	}

	// Unread flags are part of the contract; cheat aggregates are
	// best-effort decoration, so the three fetches fan out and only the
	// unread error is fatal.
	var (
		unread       map[uuid.UUID]bool
		cheatCounts  map[uuid.UUID]int64
		recentCheats map[uuid.UUID][]model.CheatEvent
		unreadErr    error
		countErr     error
		recentErr    error
		wg           sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		unread, unreadErr = s.messageRepo.UnreadBySession(ctx, sessionID)
	}()
	go func() {
		defer wg.Done()
		cheatCounts, countErr = s.cheatRepo.CountsBySession(ctx, sessionID)
	}()
	go func() {
		defer wg.Done()
		recentCheats, recentErr = s.cheatRepo.RecentBySession(ctx, sessionID, maxRecentCheatEvents)
	}()
	wg.Wait()

	if unreadErr != nil {
		return nil, fmt.Errorf("unread messages: %w", unreadErr)
	}
	if countErr != nil || recentErr != nil {
		s.log.Warn().
			AnErr("counts", countErr).
			AnErr("recent", recentErr).
			Msg("Cheat aggregates unavailable for this snapshot")
		cheatCounts = map[uuid.UUID]int64{}
		recentCheats = map[uuid.UUID][]model.CheatEvent{}
	}

	return BuildRoomState(session, sim, participants, invited, connected, unread, cheatCounts, recentCheats, time.Now()), nil
}

// Invite adds students to the session roster. Only invited students may
// attach, which is what keeps connectedCount bounded by totalInvited.
func (s *SessionService) Invite(ctx context.Context, sessionID uuid.UUID, studentIDs []int) error {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if session.Status != model.SessionStatusWaiting {
		return ErrSessionAlreadyStarted
	}
	return s.sessionRepo.AddInvites(ctx, sessionID, studentIDs)
}

// ActiveForStudent finds the non-completed session the student should join.
func (s *SessionService) ActiveForStudent(ctx context.Context, studentID int) (*model.RoomSession, error) {
	return s.sessionRepo.GetActiveForStudent(ctx, studentID)
}

// countConnected counts roster students with a participant row and a live
// presence key.
func (s *SessionService) countConnected(ctx context.Context, sessionID uuid.UUID, invited []model.InvitedStudent) (int, error) {
	participants, err := s.participantRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	studentIDs := make([]int, len(participants))
	for i := range participants {
		studentIDs[i] = participants[i].StudentID
	}
	connected, err := s.presence.ConnectedSet(ctx, sessionID, studentIDs)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, sid := range studentIDs {
		if connected[sid] {
			count++
		}
	}
	return count, nil
}
