package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/aulalink/aula-backend/internal/middleware"
	"github.com/aulalink/aula-backend/internal/service"
	ws "github.com/aulalink/aula-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// roomConn serializes writes: the read loop and the event forwarder both
// write to the same socket.
type roomConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (rc *roomConn) write(v interface{}) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return ws.WriteTyped(rc.conn, v)
}

func (rc *roomConn) writeError(msg string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	_ = ws.WriteError(rc.conn, msg)
}

// WSHandler handles the student's live room socket.
type WSHandler struct {
	participantService *service.ParticipantService
	presence           *service.PresenceService
	broadcaster        *service.SessionBroadcaster
	log                zerolog.Logger
	upgrader           websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(
	participantService *service.ParticipantService,
	presence *service.PresenceService,
	broadcaster *service.SessionBroadcaster,
	log zerolog.Logger,
	allowedOrigins []string,
) *WSHandler {
	return &WSHandler{
		participantService: participantService,
		presence:           presence,
		broadcaster:        broadcaster,
		log:                log.With().Str("component", "ws_handler").Logger(),
		upgrader:           buildUpgrader(allowedOrigins),
	}
}

// RoomStream godoc
// WS /ws/v1/student/sessions/:id/stream
// Bidirectional room channel: the client sends ready/progress/answer/cheat/
// submit actions, the server pushes session start/end and staff messages.
// Any inbound frame doubles as a presence heartbeat.
func (h *WSHandler) RoomStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	studentID := claims.UserID

	// Attach before the upgrade so an uninvited student never holds a socket.
	participant, err := h.participantService.Attach(c.Request.Context(), sessionID, studentID)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot join this session"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	rc := &roomConn{conn: conn}

	wsLog := h.log.With().
		Int("student_id", studentID).
		Str("session_id", sessionID.String()).
		Logger()

	wsLog.Info().Msg("Student connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.forwardEvents(ctx, rc, wsLog, sessionID, studentID)

	heartbeat := time.NewTicker(3 * time.Second)
	defer heartbeat.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-heartbeat.C:
				if err := h.presence.Heartbeat(ctx, sessionID, studentID); err != nil {
					wsLog.Warn().Err(err).Msg("Presence heartbeat failed")
				}
			}
		}
	}()

	_ = h.presence.Heartbeat(ctx, sessionID, studentID)
	defer func() {
		if err := h.presence.Disconnect(context.Background(), sessionID, studentID); err != nil {
			wsLog.Warn().Err(err).Msg("Presence disconnect failed")
		}
		wsLog.Info().Msg("Student disconnected")
	}()

	for {
		var envelope ws.RequestEnvelope
		raw, err := h.readRaw(conn, &envelope)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch envelope.Action {
		case ws.ActionReady:
			h.handleReady(ctx, rc, sessionID, studentID)
		case ws.ActionProgress:
			h.handleProgress(ctx, rc, sessionID, studentID, raw)
		case ws.ActionAnswer:
			h.handleAnswer(ctx, rc, sessionID, studentID, raw)
		case ws.ActionCheat:
			h.handleCheat(ctx, rc, wsLog, sessionID, participant.ID, raw)
		case ws.ActionSubmit:
			h.handleSubmit(ctx, rc, wsLog, sessionID, studentID)
		case ws.ActionPing:
			_ = rc.write(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(envelope.Action)).Msg("Unknown action")
			rc.writeError("unknown action: " + string(envelope.Action))
		}
	}
}

// readRaw reads one frame and peeks at the action, keeping the raw bytes
// for the action-specific parse.
func (h *WSHandler) readRaw(conn *websocket.Conn, envelope *ws.RequestEnvelope) ([]byte, error) {
	conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, envelope); err != nil {
		return nil, err
	}
	return raw, nil
}

// forwardEvents relays session events from Redis PubSub to the socket.
func (h *WSHandler) forwardEvents(ctx context.Context, rc *roomConn, wsLog zerolog.Logger, sessionID uuid.UUID, studentID int) {
	sub := h.broadcaster.Subscribe(ctx, sessionID)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}

			var event service.SessionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				wsLog.Error().Err(err).Msg("Malformed session event")
				continue
			}

			switch event.Type {
			case service.EventSessionStarted:
				startedAt := ""
				if event.StartedAt != nil {
					startedAt = event.StartedAt.Format(time.RFC3339)
				}
				_ = rc.write(ws.StartedResponse{
					Event:           ws.EventStarted,
					StartedAt:       startedAt,
					DurationMinutes: event.DurationMinutes,
				})
			case service.EventSessionEnded:
				_ = rc.write(ws.EndedResponse{Event: ws.EventEnded})
			case service.EventMessage:
				// Targeted events skip everyone but the addressee.
				if event.StudentID != 0 && event.StudentID != studentID {
					continue
				}
				_ = rc.write(ws.MessageResponse{Event: ws.EventMessage, Body: event.Body})
			}
		}
	}
}

func (h *WSHandler) handleReady(ctx context.Context, rc *roomConn, sessionID uuid.UUID, studentID int) {
	if err := h.participantService.Ready(ctx, sessionID, studentID); err != nil {
		rc.writeError("ready failed")
		return
	}
	_ = rc.write(ws.SavedResponse{Event: ws.EventSaved, Status: "ready"})
}

func (h *WSHandler) handleProgress(ctx context.Context, rc *roomConn, sessionID uuid.UUID, studentID int, raw []byte) {
	var req ws.ProgressRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		rc.writeError("invalid progress payload")
		return
	}

	if err := h.participantService.Progress(ctx, sessionID, studentID, req.CurrentQuestion, req.AnsweredCount); err != nil {
		rc.writeError("progress failed")
		return
	}
	_ = rc.write(ws.SavedResponse{Event: ws.EventSaved, Status: "progress"})
}

func (h *WSHandler) handleAnswer(ctx context.Context, rc *roomConn, sessionID uuid.UUID, studentID int, raw []byte) {
	var req ws.AnswerRequest
	if err := json.Unmarshal(raw, &req); err != nil || req.QuestionID == "" || req.Answer == "" {
		rc.writeError("question_id and answer are required")
		return
	}

	// Well-formed UUIDs only, Redis keys are built from this value.
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		rc.writeError("invalid question_id format")
		return
	}

	if err := h.participantService.SaveAnswer(ctx, sessionID, studentID, questionID, req.Answer); err != nil {
		rc.writeError("save failed")
		return
	}
	_ = rc.write(ws.SavedResponse{Event: ws.EventSaved, Status: "saved"})
}

func (h *WSHandler) handleCheat(ctx context.Context, rc *roomConn, wsLog zerolog.Logger, sessionID, participantID uuid.UUID, raw []byte) {
	var req ws.CheatRequest
	if err := json.Unmarshal(raw, &req); err != nil || req.EventType == "" {
		rc.writeError("event_type is required")
		return
	}

	payload := json.RawMessage(req.Payload)
	if req.Payload != "" && !json.Valid(payload) {
		rc.writeError("payload must be valid JSON")
		return
	}

	if err := h.participantService.ReportCheat(ctx, sessionID, participantID, req.EventType, payload); err != nil {
		wsLog.Error().Err(err).Msg("Cheat queue error")
		rc.writeError("report failed")
		return
	}
	_ = rc.write(ws.SavedResponse{Event: ws.EventSaved, Status: "reported"})
}

func (h *WSHandler) handleSubmit(ctx context.Context, rc *roomConn, wsLog zerolog.Logger, sessionID uuid.UUID, studentID int) {
	result, err := h.participantService.Submit(ctx, sessionID, studentID)
	if err != nil && result == nil {
		wsLog.Error().Err(err).Msg("Submit error")
		rc.writeError("submit failed")
		return
	}

	wsLog.Info().Float64("score", result.Score).Msg("Participant submitted over socket")

	_ = rc.write(ws.GradedResponse{
		Event:        ws.EventGraded,
		Score:        result.Score,
		CorrectCount: result.CorrectCount,
		WrongCount:   result.WrongCount,
		BlankCount:   result.BlankCount,
	})
}
