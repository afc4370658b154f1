package model

// TurnAction tells the client what happens after an input
type TurnAction string

const (
	ActionClarify      TurnAction = "clarify"
	ActionNextQuestion TurnAction = "next_question"
	ActionCompleted    TurnAction = "completed"
	ActionFlagged      TurnAction = "flagged"
)

// TurnResult is returned for every respondent input
type TurnResult struct {
	Action        TurnAction `json:"action"`
	Prompt        string     `json:"prompt,omitempty"`
	Question      *Question  `json:"question,omitempty"`
	QuestionIndex int        `json:"questionIndex"`
	QuestionCount int        `json:"questionCount"`
	Flagged       bool       `json:"flagged,omitempty"`
	FlagReason    string     `json:"flagReason,omitempty"`
	Message       string     `json:"message,omitempty"`
}

// StartResult is returned when a respondent begins a survey
type StartResult struct {
	SessionID      string    `json:"sessionId"`
	Token          string    `json:"token"`
	WelcomeMessage string    `json:"welcomeMessage"`
	Question       *Question `json:"question"`
	QuestionIndex  int       `json:"questionIndex"`
	QuestionCount  int       `json:"questionCount"`
}

// SessionState lets a respondent resume where they left off
type SessionState struct {
	SessionID     string        `json:"sessionId"`
	Status        SessionStatus `json:"status"`
	Question      *Question     `json:"question,omitempty"`
	Prompt        string        `json:"prompt,omitempty"`
	QuestionIndex int           `json:"questionIndex"`
	QuestionCount int           `json:"questionCount"`
}

// SessionDetail is the manager's view of one session
type SessionDetail struct {
	Session    *Session          `json:"session"`
	Transcript []TranscriptEntry `json:"transcript"`
	Summary    *SessionSummary   `json:"summary,omitempty"`
}
