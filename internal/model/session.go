package model

import "time"

type SessionStatus string

const (
	SessionStarted    SessionStatus = "started"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionAbandoned  SessionStatus = "abandoned"
)

// IsTerminal reports whether no further input may be processed
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionAbandoned
}

// Session is one respondent's run through one survey's question list.
// Version guards read-modify-write updates from concurrent requests.
type Session struct {
	ID                   string        `json:"id" bson:"_id"`
	SurveyID             string        `json:"surveyId" bson:"surveyId"`
	ManagerID            string        `json:"managerId" bson:"managerId"`
	RespondentLabel      string        `json:"respondentLabel,omitempty" bson:"respondentLabel,omitempty"`
	Status               SessionStatus `json:"status" bson:"status"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex" bson:"currentQuestionIndex"`
	QuestionCount        int           `json:"questionCount" bson:"questionCount"`

	// Set while a clarification prompt is waiting for the respondent's reply
	OpenClarificationID string `json:"openClarificationId,omitempty" bson:"openClarificationId,omitempty"`

	StartedAt      time.Time  `json:"startedAt" bson:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	AbandonedAt    *time.Time `json:"abandonedAt,omitempty" bson:"abandonedAt,omitempty"`
	LastActivityAt time.Time  `json:"lastActivityAt" bson:"lastActivityAt"`
	Version        int64      `json:"version" bson:"version"`
}

// AwaitingClarification reports whether the next input answers a clarification
func (s *Session) AwaitingClarification() bool {
	return s.OpenClarificationID != ""
}
