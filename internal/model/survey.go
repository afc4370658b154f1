package model

import "time"

// SurveyStatus is the lifecycle of a survey
type SurveyStatus string

const (
	SurveyActive SurveyStatus = "active"
	SurveyClosed SurveyStatus = "closed"
)

const (
	DefaultThankYouMessage = "Thank you for your feedback! Your responses have been recorded."
	defaultWelcomeSuffix   = "Please answer the following questions honestly."
)

// Survey is a question list owned by a manager account
type Survey struct {
	ID              string       `json:"id" bson:"_id"`
	ManagerID       string       `json:"managerId" bson:"managerId"`
	Title           string       `json:"title" bson:"title"`
	Description     string       `json:"description,omitempty" bson:"description,omitempty"`
	Goal            string       `json:"goal,omitempty" bson:"goal,omitempty"`
	GoalDescription string       `json:"goalDescription,omitempty" bson:"goalDescription,omitempty"`
	ShortCode       string       `json:"shortCode" bson:"shortCode"`
	Status          SurveyStatus `json:"status" bson:"status"`
	ClosesAt        *time.Time   `json:"closesAt,omitempty" bson:"closesAt,omitempty"`
	WelcomeMessage  string       `json:"welcomeMessage,omitempty" bson:"welcomeMessage,omitempty"`
	ThankYouMessage string       `json:"thankYouMessage,omitempty" bson:"thankYouMessage,omitempty"`
	Questions       []Question   `json:"questions" bson:"questions"`
	CreatedAt       time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// IsClosed reports whether the survey stopped accepting new sessions
func (s *Survey) IsClosed(now time.Time) bool {
	if s.Status == SurveyClosed {
		return true
	}
	return s.ClosesAt != nil && !now.Before(*s.ClosesAt)
}

// Welcome returns the greeting shown when a respondent starts
func (s *Survey) Welcome() string {
	if s.WelcomeMessage != "" {
		return s.WelcomeMessage
	}
	if s.Description != "" {
		return "Welcome! " + s.Description
	}
	return "Welcome! " + defaultWelcomeSuffix
}

// ThankYou returns the closing message shown on completion
func (s *Survey) ThankYou() string {
	if s.ThankYouMessage != "" {
		return s.ThankYouMessage
	}
	return DefaultThankYouMessage
}

// QuestionAt returns the i-th question in presentation order
func (s *Survey) QuestionAt(i int) (Question, bool) {
	if i < 0 || i >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[i], true
}
