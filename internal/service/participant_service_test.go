package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/aulalink/aula-backend/internal/model"
)

func TestBuildStudentState(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	startedAt := now.Add(-10 * time.Minute)

	session := &model.RoomSession{
		ID:        uuid.New(),
		Status:    model.SessionStatusStarted,
		StartedAt: &startedAt,
	}
	sim := &model.Simulation{
		ID:              uuid.New(),
		DurationMinutes: 45,
		QuestionCount:   20,
	}
	participant := &model.Participant{
		ID: uuid.New(), StudentID: 7, AnsweredCount: 3,
	}
	answers := map[string]string{uuid.NewString(): "B"}

	state := buildStudentState(session, participant, sim, answers, now)

	// The countdown is expressed in whole seconds, 10 minutes in.
	require.Equal(t, 35*60, state.TimeRemainingSeconds)
	require.Equal(t, 20, state.TotalQuestions)
	require.Equal(t, answers, state.Answers)

	t.Run("waiting shows full duration", func(t *testing.T) {
		waiting := &model.RoomSession{Status: model.SessionStatusWaiting}
		state := buildStudentState(waiting, participant, sim, nil, now)
		require.Equal(t, 45*60, state.TimeRemainingSeconds)
	})

	t.Run("overrun clamps to zero", func(t *testing.T) {
		late := now.Add(2 * time.Hour)
		state := buildStudentState(session, participant, sim, nil, late)
		require.Equal(t, 0, state.TimeRemainingSeconds)
	})
}
