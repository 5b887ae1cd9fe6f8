package response

// ErrCode is a typed error code enum for consistent API error identification.
// Session start failures in particular carry a structured code so clients
// can drive the force-start confirmation without matching message text.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "LOGIN_ALREADY_ACTIVE"
	ErrLoginInvalidated   ErrCode = "LOGIN_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrStudentAccessOnly ErrCode = "STUDENT_ACCESS_ONLY"
	ErrStaffAccessOnly   ErrCode = "STAFF_ACCESS_ONLY"
	ErrAdminRoleRequired ErrCode = "ADMIN_ROLE_REQUIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"

	// ─── Room session ──────────────────────────────────────────────────
	ErrSessionNotAllConnected ErrCode = "SESSION_NOT_ALL_CONNECTED"
	ErrSessionAlreadyStarted  ErrCode = "SESSION_ALREADY_STARTED"
	ErrSessionNotStarted      ErrCode = "SESSION_NOT_STARTED"
	ErrSessionCompleted       ErrCode = "SESSION_COMPLETED"
	ErrNotInvited             ErrCode = "NOT_INVITED"
	ErrParticipantCompleted   ErrCode = "PARTICIPANT_COMPLETED"

	// ─── Simulation ────────────────────────────────────────────────────
	ErrSimulationNotPublished ErrCode = "SIMULATION_NOT_PUBLISHED"
	ErrSimulationNotDraft     ErrCode = "SIMULATION_NOT_DRAFT"
	ErrNoQuestions            ErrCode = "NO_QUESTIONS"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email o password non validi."
	case ErrSessionActive:
		return "Hai già effettuato l'accesso da un altro dispositivo."
	case ErrLoginInvalidated:
		return "La tua sessione è scaduta. Effettua di nuovo l'accesso."
	case ErrTokenRequired:
		return "Token di autenticazione richiesto."
	case ErrTokenInvalid:
		return "Token di autenticazione non valido."
	case ErrTokenExpired:
		return "Token di autenticazione scaduto."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Non hai i permessi per accedere a questa risorsa."
	case ErrStudentAccessOnly:
		return "Risorsa riservata agli studenti."
	case ErrStaffAccessOnly:
		return "Risorsa riservata al personale."
	case ErrAdminRoleRequired:
		return "Operazione riservata agli amministratori."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validazione fallita. Controlla i dati inseriti."
	case ErrInvalidID:
		return "Formato ID non valido."
	case ErrInvalidPayload:
		return "Payload della richiesta non valido."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Risorsa non trovata."
	case ErrConflict:
		return "La risorsa esiste già."
	case ErrDependencyExists:
		return "Impossibile eliminare: la risorsa è ancora in uso."

	// ─── Room session ──────────────────────────────────────────────────
	case ErrSessionNotAllConnected:
		return "Non tutti gli studenti invitati sono connessi. Conferma per forzare l'avvio."
	case ErrSessionAlreadyStarted:
		return "La sessione è già stata avviata."
	case ErrSessionNotStarted:
		return "La sessione non è ancora stata avviata."
	case ErrSessionCompleted:
		return "La sessione è già conclusa."
	case ErrNotInvited:
		return "Non sei tra gli invitati di questa sessione."
	case ErrParticipantCompleted:
		return "Hai già consegnato la prova."

	// ─── Simulation ────────────────────────────────────────────────────
	case ErrSimulationNotPublished:
		return "La simulazione non è pubblicata."
	case ErrSimulationNotDraft:
		return "La simulazione non è in stato BOZZA."
	case ErrNoQuestions:
		return "La simulazione non contiene domande."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Troppe richieste. Riprova più tardi."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Errore interno del server."
	default:
		return "Si è verificato un errore imprevisto."
	}
}
