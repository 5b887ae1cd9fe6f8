package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionReady    Action = "ready"
	ActionProgress Action = "progress"
	ActionAnswer   Action = "answer"
	ActionCheat    Action = "cheat"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ReadyRequest flags the participant as ready in the waiting room.
type ReadyRequest struct {
	Action Action `json:"action"`
}

// ProgressRequest reports the participant's position in the paper.
type ProgressRequest struct {
	Action          Action `json:"action"`
	CurrentQuestion int    `json:"current_question"`
	AnsweredCount   int    `json:"answered_count"`
}

// AnswerRequest autosaves a single answer.
type AnswerRequest struct {
	Action     Action `json:"action"`
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// CheatRequest reports a proctoring event (tab switch, fullscreen exit).
type CheatRequest struct {
	Action    Action `json:"action"`
	EventType string `json:"event_type"`
	Payload   string `json:"payload"` // Receives the JSON string directly
}

// SubmitRequest finishes the run and asks for grading.
type SubmitRequest struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError   Event = "error"
	EventSaved   Event = "saved"
	EventGraded  Event = "graded"
	EventStarted Event = "started"
	EventEnded   Event = "ended"
	EventMessage Event = "message"
	EventPong    Event = "pong"
)

type SavedResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
}

type GradedResponse struct {
	Event        Event   `json:"event"`
	Score        float64 `json:"score"`
	CorrectCount int     `json:"correct_count"`
	WrongCount   int     `json:"wrong_count"`
	BlankCount   int     `json:"blank_count"`
}

// StartedResponse tells a waiting client the exam countdown has begun.
type StartedResponse struct {
	Event           Event  `json:"event"`
	StartedAt       string `json:"started_at"`
	DurationMinutes int    `json:"duration_minutes"`
}

type EndedResponse struct {
	Event Event `json:"event"`
}

// MessageResponse delivers a staff message to the student.
type MessageResponse struct {
	Event Event  `json:"event"`
	Body  string `json:"body"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
