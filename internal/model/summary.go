package model

import "time"

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

type ActionPoint struct {
	Text     string   `json:"text" bson:"text"`
	Priority Priority `json:"priority" bson:"priority"`
}

// SummaryDraft is the aggregator output before it is persisted
type SummaryDraft struct {
	Summary      string        `json:"summary"`
	ActionPoints []ActionPoint `json:"actionPoints"`
	HonestyScore int           `json:"honestyScore"`
	KeyThemes    []string      `json:"keyThemes"`
}

// SessionSummary is written once per completed session and never mutated
type SessionSummary struct {
	ID               string        `json:"id" bson:"_id"`
	SessionID        string        `json:"sessionId" bson:"sessionId"`
	NarrativeSummary string        `json:"narrativeSummary" bson:"narrativeSummary"`
	ActionPoints     []ActionPoint `json:"actionPoints" bson:"actionPoints"`
	HonestyScore     int           `json:"honestyScore" bson:"honestyScore"`
	KeyThemes        []string      `json:"keyThemes" bson:"keyThemes"`
	Source           string        `json:"source" bson:"source"` // "ai" or "rules"
	GeneratedAt      time.Time     `json:"generatedAt" bson:"generatedAt"`
}
