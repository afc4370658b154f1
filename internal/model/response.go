package model

import "time"

// MaxClarifications caps follow-up rounds per question
const MaxClarifications = 2

// Response is the primary answer to one question in one session
type Response struct {
	ID                 string    `json:"id" bson:"_id"`
	SessionID          string    `json:"sessionId" bson:"sessionId"`
	QuestionID         string    `json:"questionId" bson:"questionId"`
	QuestionIndex      int       `json:"questionIndex" bson:"questionIndex"`
	AnswerText         string    `json:"answerText" bson:"answerText"`
	IsSkipped          bool      `json:"isSkipped" bson:"isSkipped"`
	ClarificationCount int       `json:"clarificationCount" bson:"clarificationCount"`
	CreatedAt          time.Time `json:"createdAt" bson:"createdAt"`
}

// Clarification is one follow-up exchange attached to a Response
type Clarification struct {
	ID            string     `json:"id" bson:"_id"`
	ResponseID    string     `json:"responseId" bson:"responseId"`
	SessionID     string     `json:"sessionId" bson:"sessionId"`
	Prompt        string     `json:"prompt" bson:"prompt"`
	AnswerText    *string    `json:"answerText" bson:"answerText"`
	AttemptNumber int        `json:"attemptNumber" bson:"attemptNumber"`
	CreatedAt     time.Time  `json:"createdAt" bson:"createdAt"`
	AnsweredAt    *time.Time `json:"answeredAt,omitempty" bson:"answeredAt,omitempty"`
}

// TranscriptEntry pairs a question with everything said about it
type TranscriptEntry struct {
	Question       string          `json:"question"`
	Response       Response        `json:"response"`
	Clarifications []Clarification `json:"clarifications,omitempty"`
}
