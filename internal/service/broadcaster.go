package service

// Realtime event types
const (
	EventSessionStarted         = "session_started"
	EventSessionProgress        = "session_progress"
	EventSessionCompleted       = "session_completed"
	EventSessionAbandoned       = "session_abandoned"
	EventSummaryReady           = "summary_ready"
	EventClarificationRequested = "clarification_requested"
	EventNextQuestion           = "next_question"
	EventAnswerFlagged          = "answer_flagged"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	// ToRespondent sends to the respondent connected to a session
	ToRespondent(sessionID string, msgType string, payload interface{})
	// ToManagers sends to every manager watching a survey
	ToManagers(surveyID string, msgType string, payload interface{})
}
