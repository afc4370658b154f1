package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"fydbak/internal/config"
	"fydbak/internal/llm"
	"fydbak/internal/model"
)

// Sources recorded on generated summaries
const (
	SourceAI    = "ai"
	SourceRules = "rules"
)

// aiEvaluation is the structured output requested from the model
type aiEvaluation struct {
	NeedsClarification  bool   `json:"needsClarification" jsonschema:"required"`
	ClarificationPrompt string `json:"clarificationPrompt" jsonschema:"required,description=Follow-up question or empty when no clarification is needed"`
	Reason              string `json:"reason" jsonschema:"required"`
}

type aiActionPoint struct {
	Text     string `json:"text" jsonschema:"required"`
	Priority string `json:"priority" jsonschema:"required,enum=high,enum=medium,enum=low"`
}

type aiSummary struct {
	Summary      string          `json:"summary" jsonschema:"required,description=Two or three sentence summary of key takeaways"`
	ActionPoints []aiActionPoint `json:"actionPoints" jsonschema:"required"`
	HonestyScore int             `json:"honestyScore" jsonschema:"required,minimum=0,maximum=100"`
	KeyThemes    []string        `json:"keyThemes" jsonschema:"required"`
}

var (
	evaluationSchema = llm.GenerateSchema[aiEvaluation]()
	summarySchema    = llm.GenerateSchema[aiSummary]()
)

// EvaluatorService decides whether answers need clarification and turns
// transcripts into summaries. The AI path is advisory: any failure or
// timeout falls back to the rule-based path.
type EvaluatorService struct {
	config *config.AIConfig
	client llm.Client
}

// NewEvaluatorService creates a new evaluator service. A nil client means rule-based only.
func NewEvaluatorService(cfg *config.AIConfig, client llm.Client) *EvaluatorService {
	if cfg == nil {
		cfg = &config.AIConfig{}
	}
	return &EvaluatorService{
		config: cfg,
		client: client,
	}
}

// UsesAI reports whether an AI provider is wired in
func (s *EvaluatorService) UsesAI() bool {
	return s.client != nil
}

// Analyze runs the full /analyze-response pipeline: moderation, attempt ceiling, evaluation
func (s *EvaluatorService) Analyze(ctx context.Context, req model.AnalyzeRequest) (*model.Analysis, error) {
	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.Answer) == "" {
		return nil, ErrMissingFields
	}

	if mod := Moderate(req.Answer); mod.Flagged {
		return &model.Analysis{
			Evaluation: model.Evaluation{Reason: ReasonModeration},
			Flagged:    true,
			FlagReason: mod.Reason,
		}, nil
	}

	eval := s.Evaluate(ctx, req)
	return &model.Analysis{Evaluation: eval}, nil
}

// Evaluate checks one answer. It never fails: attemptNumber >= 2 always
// yields no clarification, and AI errors fall back to EvaluateRules.
func (s *EvaluatorService) Evaluate(ctx context.Context, req model.AnalyzeRequest) model.Evaluation {
	if req.AttemptNumber >= model.MaxClarifications {
		return noClarification(ReasonMaxAttempts)
	}
	if s.client == nil {
		return EvaluateRules(req.Answer, req.AttemptNumber)
	}

	eval, err := s.evaluateWithAI(ctx, req)
	if err != nil {
		slog.Warn("AI evaluation failed, using rule-based fallback", "error", err)
		return EvaluateRules(req.Answer, req.AttemptNumber)
	}
	return eval
}

func (s *EvaluatorService) evaluateWithAI(ctx context.Context, req model.AnalyzeRequest) (model.Evaluation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout())
	defer cancel()

	raw, err := s.client.Complete(ctx, llm.Request{
		Model:       s.config.Models.Evaluate,
		System:      buildEvaluationPrompt(req),
		Prompt:      fmt.Sprintf("Question: %q\n\nAnswer: %q", req.Question, req.Answer),
		MaxTokens:   200,
		Temperature: 0.7,
		SchemaName:  "clarification_check",
		Schema:      evaluationSchema,
	})
	if err != nil {
		return model.Evaluation{}, err
	}

	var out aiEvaluation
	if err := llm.DecodeJSON(raw, &out, "needsClarification", "reason"); err != nil {
		return model.Evaluation{}, err
	}

	prompt := strings.TrimSpace(out.ClarificationPrompt)
	if out.NeedsClarification && prompt == "" {
		return model.Evaluation{}, fmt.Errorf("%w: clarification requested without a prompt", llm.ErrSchemaMismatch)
	}
	if !out.NeedsClarification {
		return noClarification(out.Reason), nil
	}
	return clarify(prompt, out.Reason), nil
}

// Summarize aggregates a transcript, preferring the AI path. The returned
// source says which path produced the draft.
func (s *EvaluatorService) Summarize(ctx context.Context, entries []model.TranscriptEntry) (model.SummaryDraft, string) {
	if s.client == nil {
		return AggregateRules(entries), SourceRules
	}

	draft, err := s.summarizeWithAI(ctx, entries)
	if err != nil {
		slog.Warn("AI summary generation failed, using rule-based fallback", "error", err)
		return AggregateRules(entries), SourceRules
	}
	return draft, SourceAI
}

func (s *EvaluatorService) summarizeWithAI(ctx context.Context, entries []model.TranscriptEntry) (model.SummaryDraft, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout())
	defer cancel()

	raw, err := s.client.Complete(ctx, llm.Request{
		Model:       s.config.Models.Summary,
		System:      summaryPrompt,
		Prompt:      buildTranscript(entries),
		MaxTokens:   500,
		Temperature: 0.7,
		SchemaName:  "session_summary",
		Schema:      summarySchema,
	})
	if err != nil {
		return model.SummaryDraft{}, err
	}

	var out aiSummary
	if err := llm.DecodeJSON(raw, &out, "summary", "actionPoints", "honestyScore", "keyThemes"); err != nil {
		return model.SummaryDraft{}, err
	}
	return out.toDraft()
}

func (a aiSummary) toDraft() (model.SummaryDraft, error) {
	if strings.TrimSpace(a.Summary) == "" {
		return model.SummaryDraft{}, fmt.Errorf("%w: empty summary", llm.ErrSchemaMismatch)
	}
	if a.HonestyScore < 0 || a.HonestyScore > 100 {
		return model.SummaryDraft{}, fmt.Errorf("%w: honestyScore %d out of range", llm.ErrSchemaMismatch, a.HonestyScore)
	}

	points := make([]model.ActionPoint, 0, len(a.ActionPoints))
	for _, p := range a.ActionPoints {
		prio := model.Priority(strings.ToLower(strings.TrimSpace(p.Priority)))
		if !prio.Valid() {
			return model.SummaryDraft{}, fmt.Errorf("%w: unknown priority %q", llm.ErrSchemaMismatch, p.Priority)
		}
		if strings.TrimSpace(p.Text) == "" {
			continue
		}
		points = append(points, model.ActionPoint{Text: strings.TrimSpace(p.Text), Priority: prio})
	}
	if len(points) > maxActionPoints {
		points = points[:maxActionPoints]
	}

	themes := make([]string, 0, len(a.KeyThemes))
	seen := map[string]bool{}
	for _, t := range a.KeyThemes {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		themes = append(themes, t)
	}
	if len(themes) > maxKeyThemes {
		themes = themes[:maxKeyThemes]
	}

	return model.SummaryDraft{
		Summary:      strings.TrimSpace(a.Summary),
		ActionPoints: points,
		HonestyScore: a.HonestyScore,
		KeyThemes:    themes,
	}, nil
}

// buildTranscript renders Q/A pairs, follow-ups included, for the summary model
func buildTranscript(entries []model.TranscriptEntry) string {
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		var sb strings.Builder
		answer := e.Response.AnswerText
		if e.Response.IsSkipped || answer == "" {
			answer = "(skipped)"
		}
		fmt.Fprintf(&sb, "Q: %s\nA: %s", e.Question, answer)
		for _, c := range e.Clarifications {
			if c.AnswerText == nil {
				continue
			}
			fmt.Fprintf(&sb, "\nFollow-up: %s\nA: %s", c.Prompt, *c.AnswerText)
		}
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, "\n\n")
}

func buildEvaluationPrompt(req model.AnalyzeRequest) string {
	goal := ""
	if req.SurveyGoal != "" {
		goal = fmt.Sprintf("\nSurvey goal: %s", req.SurveyGoal)
		if req.GoalDescription != "" {
			goal += fmt.Sprintf("\nGoal details: %s", req.GoalDescription)
		}
		goal += "\nKeep any follow-up within the scope of this goal.\n"
	}

	return fmt.Sprintf(`You are analyzing survey responses to determine if they need clarification.

An answer needs clarification if it:
- Is very short (less than 10 words)
- Uses vague language like "fine", "okay", "good" without details
- Lacks specific examples or concrete details
- Doesn't actually answer the question asked
%s
Return JSON format: { "needsClarification": boolean, "clarificationPrompt": string, "reason": string }
Use an empty clarificationPrompt when no clarification is needed.

If clarification is needed, generate a friendly, conversational follow-up question that:
- Asks for specific examples
- Encourages storytelling
- Feels natural and supportive

Current attempt: %d of %d`, goal, req.AttemptNumber+1, model.MaxClarifications)
}

const summaryPrompt = `You are analyzing employee feedback from a conversational survey.

Generate a comprehensive analysis in JSON format:
{
  "summary": "2-3 sentence summary of key takeaways",
  "actionPoints": [
    { "text": "specific actionable recommendation", "priority": "high|medium|low" }
  ],
  "honestyScore": 0-100 (based on detail, specificity, and authenticity of responses),
  "keyThemes": ["theme1", "theme2", "theme3"]
}

Guidelines:
- Summary should be insightful and actionable
- Provide 2-3 specific action points prioritized by impact
- Honesty score considers response length, specificity, examples, and authenticity
- Key themes should capture main topics or concerns mentioned`
