package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/aulalink/aula-backend/internal/model"
)

func TestTimeRemaining(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("waiting shows full duration", func(t *testing.T) {
		session := &model.RoomSession{Status: model.SessionStatusWaiting}
		require.Equal(t, 45*time.Minute, TimeRemaining(session, 45, now))
	})

	t.Run("started counts down from session start", func(t *testing.T) {
		startedAt := now.Add(-10 * time.Minute)
		session := &model.RoomSession{
			Status:    model.SessionStatusStarted,
			StartedAt: &startedAt,
		}
		require.Equal(t, 35*time.Minute, TimeRemaining(session, 45, now))
	})

	t.Run("started never goes negative", func(t *testing.T) {
		startedAt := now.Add(-2 * time.Hour)
		session := &model.RoomSession{
			Status:    model.SessionStatusStarted,
			StartedAt: &startedAt,
		}
		require.Equal(t, time.Duration(0), TimeRemaining(session, 45, now))
	})

	t.Run("completed is always zero", func(t *testing.T) {
		startedAt := now.Add(-5 * time.Minute)
		session := &model.RoomSession{
			Status:    model.SessionStatusCompleted,
			StartedAt: &startedAt,
		}
		require.Equal(t, time.Duration(0), TimeRemaining(session, 45, now))
	})
}

func TestBuildRoomState(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	startedAt := now.Add(-10 * time.Minute)
	completedAt := now.Add(-time.Minute)

	session := &model.RoomSession{
		ID:        uuid.New(),
		Status:    model.SessionStatusStarted,
		StartedAt: &startedAt,
	}
	simulation := &model.Simulation{
		ID:              uuid.New(),
		DurationMinutes: 30,
		QuestionCount:   20,
	}

	pAna := model.Participant{
		ID: uuid.New(), StudentID: 1, StudentName: "Ana",
		IsReady: true, ExamStartedAt: &startedAt, AnsweredCount: 15,
	}
	pBruno := model.Participant{
		ID: uuid.New(), StudentID: 2, StudentName: "Bruno",
		IsReady: true, ExamStartedAt: &startedAt, AnsweredCount: 20,
		CompletedAt: &completedAt,
		Result:      &model.Result{Score: 85, CorrectCount: 17, WrongCount: 3},
	}
	pChiara := model.Participant{
		ID: uuid.New(), StudentID: 3, StudentName: "Chiara",
	}

	invited := []model.InvitedStudent{
		{StudentID: 1, Name: "Ana"},
		{StudentID: 2, Name: "Bruno"},
		{StudentID: 3, Name: "Chiara"},
		{StudentID: 4, Name: "Dario"}, // never attached
	}

	// Bruno completed and then dropped off, Chiara attached but is offline.
	connected := map[int]bool{1: true}
	unread := map[uuid.UUID]bool{pAna.ID: true}
	cheatCounts := map[uuid.UUID]int64{pAna.ID: 5}
	recentCheats := map[uuid.UUID][]model.CheatEvent{
		pAna.ID: {
			{EventType: "tab_switch"}, {EventType: "tab_switch"},
			{EventType: "fullscreen_exit"}, {EventType: "tab_switch"},
		},
	}

	state := BuildRoomState(session, simulation,
		[]model.Participant{pAna, pBruno, pChiara},
		invited, connected, unread, cheatCounts, recentCheats, now)

	require.Equal(t, 4, state.TotalInvited)
	require.Equal(t, 1, state.ConnectedCount)
	require.Equal(t, 1, state.ReadyCount)
	require.Equal(t, 20*60, state.TimeRemainingSeconds)

	// Completion is terminal: Bruno counts even though he is offline.
	require.Equal(t, 1, state.CompletedCount)

	// notConnected is the set difference over attendance: only Dario never
	// attached. Bruno and Chiara attached, so dropping offline does not put
	// them back in this list — the flag on their invite row does that.
	names := make([]string, 0, len(state.NotConnectedStudents))
	for _, s := range state.NotConnectedStudents {
		names = append(names, s.Name)
	}
	require.Equal(t, []string{"Dario"}, names)

	for _, inv := range state.InvitedStudents {
		switch inv.Name {
		case "Ana":
			require.True(t, inv.IsConnected)
		default:
			require.False(t, inv.IsConnected)
		}
	}

	require.Len(t, state.Participants, 3)
	ana := state.Participants[0]
	require.True(t, ana.IsConnected)
	require.Equal(t, 75, ana.ProgressPercent)
	require.Equal(t, int64(5), ana.CheatCount)
	require.Len(t, ana.RecentCheatEvents, 3)
	require.True(t, ana.HasUnreadMessages)

	bruno := state.Participants[1]
	require.False(t, bruno.IsConnected)
	require.True(t, bruno.IsCompleted)
	require.Equal(t, 100, bruno.ProgressPercent)
	require.NotNil(t, bruno.Result)

	chiara := state.Participants[2]
	require.False(t, chiara.HasStarted)
	require.Equal(t, 0, chiara.ProgressPercent)
	require.Empty(t, chiara.RecentCheatEvents)
}

func TestBuildRoomStateConnectedNeverExceedsInvited(t *testing.T) {
	now := time.Now()
	session := &model.RoomSession{Status: model.SessionStatusWaiting}
	simulation := &model.Simulation{QuestionCount: 10, DurationMinutes: 30}

	participants := []model.Participant{
		{ID: uuid.New(), StudentID: 1},
		{ID: uuid.New(), StudentID: 2},
	}
	invited := []model.InvitedStudent{
		{StudentID: 1, Name: "Ana"},
		{StudentID: 2, Name: "Bruno"},
	}
	connected := map[int]bool{1: true, 2: true}

	state := BuildRoomState(session, simulation, participants, invited,
		connected, nil, nil, nil, now)

	require.LessOrEqual(t, state.ConnectedCount, state.TotalInvited)
	require.Empty(t, state.NotConnectedStudents)
}
