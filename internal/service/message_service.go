package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aulalink/aula-backend/internal/model"
	"github.com/aulalink/aula-backend/internal/repository"
)

// MessageService handles the staff-to-student side channel of a room.
type MessageService struct {
	messageRepo     *repository.MessageRepository
	participantRepo *repository.ParticipantRepository
	broadcaster     *SessionBroadcaster
	log             zerolog.Logger
}

// NewMessageService creates a new MessageService.
func NewMessageService(
	messageRepo *repository.MessageRepository,
	participantRepo *repository.ParticipantRepository,
	broadcaster *SessionBroadcaster,
	log zerolog.Logger,
) *MessageService {
	return &MessageService{
		messageRepo:     messageRepo,
		participantRepo: participantRepo,
		broadcaster:     broadcaster,
		log:             log.With().Str("component", "message_service").Logger(),
	}
}

// Send persists a staff message to a participant and pushes it over the
// session event channel so a connected socket delivers it immediately.
// Polling clients pick it up through the unread flag either way.
func (s *MessageService) Send(ctx context.Context, participantID uuid.UUID, senderID int, body string) (*model.Message, error) {
	participant, err := s.participantRepo.GetByID(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}

	msg := &model.Message{
		ParticipantID: participantID,
		SenderID:      senderID,
		Body:          body,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	s.broadcaster.Publish(ctx, participant.SessionID, SessionEvent{
		Type:      EventMessage,
		StudentID: participant.StudentID,
		Body:      body,
	})
	return msg, nil
}

// List returns the participant's message history, oldest first.
func (s *MessageService) List(ctx context.Context, participantID uuid.UUID) ([]model.Message, error) {
	messages, err := s.messageRepo.ListByParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []model.Message{}
	}
	return messages, nil
}

// MarkRead flags every message of the participant as read.
func (s *MessageService) MarkRead(ctx context.Context, participantID uuid.UUID) error {
	return s.messageRepo.MarkAllRead(ctx, participantID)
}
