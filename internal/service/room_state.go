package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/aulalink/aula-backend/internal/model"
)

// maxRecentCheatEvents bounds the per-participant recent-events list in the
// admin snapshot.
const maxRecentCheatEvents = 3

// ParticipantView is a participant as rendered in the admin snapshot,
// decorated with live presence and poll-time aggregates.
type ParticipantView struct {
	model.Participant
	IsConnected       bool               `json:"is_connected"`
	HasStarted        bool               `json:"has_started"`
	IsCompleted       bool               `json:"is_completed"`
	TotalQuestions    int                `json:"total_questions"`
	ProgressPercent   int                `json:"progress_percent"`
	CheatCount        int64              `json:"cheat_count"`
	RecentCheatEvents []model.CheatEvent `json:"recent_cheat_events"`
	HasUnreadMessages bool               `json:"has_unread_messages"`
}

// RoomState is the full snapshot returned to the polling admin client.
// It is rebuilt from scratch on every poll; clients replace their whole
// local view with it, never patch.
type RoomState struct {
	Session              model.RoomSession      `json:"session"`
	Simulation           model.Simulation       `json:"simulation"`
	Participants         []ParticipantView      `json:"participants"`
	InvitedStudents      []model.InvitedStudent `json:"invited_students"`
	NotConnectedStudents []model.InvitedStudent `json:"not_connected_students"`
	ConnectedCount       int                    `json:"connected_count"`
	ReadyCount           int                    `json:"ready_count"`
	CompletedCount       int                    `json:"completed_count"`
	TotalInvited         int                    `json:"total_invited"`
	TimeRemainingSeconds int                    `json:"time_remaining_seconds"`
}

// TimeRemaining computes the server-authoritative countdown. WAITING shows
// the full duration, STARTED counts down from the synchronized start and
// never goes negative, COMPLETED is always zero.
func TimeRemaining(session *model.RoomSession, durationMinutes int, now time.Time) time.Duration {
	duration := time.Duration(durationMinutes) * time.Minute

	switch session.Status {
	case model.SessionStatusWaiting:
		return duration
	case model.SessionStatusStarted:
		if session.StartedAt == nil {
			return duration
		}
		remaining := session.StartedAt.Add(duration).Sub(now)
		if remaining < 0 {
			return 0
		}
		return remaining
	default:
		return 0
	}
}

// BuildRoomState assembles the admin snapshot from store rows and live
// presence. Pure: all aggregates (connected, ready, completed, the
// not-connected set difference) are recomputed here on every call, never
// maintained as counters.
func BuildRoomState(
	session *model.RoomSession,
	simulation *model.Simulation,
	participants []model.Participant,
	invited []model.InvitedStudent,
	connected map[int]bool,
	unread map[uuid.UUID]bool,
	cheatCounts map[uuid.UUID]int64,
	recentCheats map[uuid.UUID][]model.CheatEvent,
	now time.Time,
) *RoomState {
	state := &RoomState{
		Session:              *session,
		Simulation:           *simulation,
		Participants:         make([]ParticipantView, 0, len(participants)),
		InvitedStudents:      make([]model.InvitedStudent, 0, len(invited)),
		NotConnectedStudents: []model.InvitedStudent{},
		TotalInvited:         len(invited),
		TimeRemainingSeconds: int(TimeRemaining(session, simulation.DurationMinutes, now).Seconds()),
	}

	attended := make(map[int]bool, len(participants))

	for i := range participants {
		p := participants[i]
		attended[p.StudentID] = true

		isConnected := connected[p.StudentID]
		view := ParticipantView{
			Participant:       p,
			IsConnected:       isConnected,
			HasStarted:        p.HasStarted(),
			IsCompleted:       p.IsCompleted(),
			TotalQuestions:    simulation.QuestionCount,
			ProgressPercent:   p.ProgressPercent(simulation.QuestionCount),
			CheatCount:        cheatCounts[p.ID],
			RecentCheatEvents: boundEvents(recentCheats[p.ID]),
			HasUnreadMessages: unread[p.ID],
		}

		if isConnected {
			state.ConnectedCount++
			if p.IsReady {
				state.ReadyCount++
			}
		}
		// Completion is terminal and counted regardless of connectivity.
		if view.IsCompleted {
			state.CompletedCount++
		}

		state.Participants = append(state.Participants, view)
	}

	// notConnected = invited − attached participants, a pure set difference
	// over attendance. An attached participant who dropped offline is not in
	// this list; their per-row IsConnected flag carries the live presence.
	for _, inv := range invited {
		inv.IsConnected = attended[inv.StudentID] && connected[inv.StudentID]
		state.InvitedStudents = append(state.InvitedStudents, inv)
		if !attended[inv.StudentID] {
			state.NotConnectedStudents = append(state.NotConnectedStudents, inv)
		}
	}

	return state
}

func boundEvents(events []model.CheatEvent) []model.CheatEvent {
	if events == nil {
		return []model.CheatEvent{}
	}
	if len(events) > maxRecentCheatEvents {
		return events[:maxRecentCheatEvents]
	}
	return events
}
