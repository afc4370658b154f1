package model

// AnalyzeRequest is the body of POST /analyze-response
type AnalyzeRequest struct {
	Question        string `json:"question"`
	Answer          string `json:"answer"`
	AttemptNumber   int    `json:"attemptNumber"`
	SurveyGoal      string `json:"surveyGoal,omitempty"`
	GoalDescription string `json:"goalDescription,omitempty"`
}

// Evaluation decides whether an answer needs a follow-up
type Evaluation struct {
	NeedsClarification  bool    `json:"needsClarification"`
	ClarificationPrompt *string `json:"clarificationPrompt"`
	Reason              string  `json:"reason,omitempty"`
}

// Analysis is the body returned by POST /analyze-response
type Analysis struct {
	Evaluation
	Flagged    bool   `json:"flagged,omitempty"`
	FlagReason string `json:"flagReason,omitempty"`
}

// ModerationResult flags abusive or degenerate answers
type ModerationResult struct {
	Flagged bool   `json:"flagged"`
	Reason  string `json:"reason,omitempty"`
}
