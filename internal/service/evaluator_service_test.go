package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fydbak/internal/config"
	"fydbak/internal/llm"
	"fydbak/internal/model"
	"fydbak/internal/testutil"
)

func aiEvaluator(respond func(context.Context, llm.Request) (string, error)) (*EvaluatorService, *testutil.LLM) {
	client := &testutil.LLM{Respond: respond}
	cfg := &config.AIConfig{
		Provider:  config.ProviderOpenAI,
		APIKey:    "test",
		Models:    config.AIModels{Evaluate: "eval-model", Summary: "summary-model"},
		TimeoutMS: 50,
	}
	return NewEvaluatorService(cfg, client), client
}

func reply(s string) func(context.Context, llm.Request) (string, error) {
	return func(context.Context, llm.Request) (string, error) { return s, nil }
}

func TestEvaluateUsesAIVerdict(t *testing.T) {
	svc, client := aiEvaluator(reply(`{"needsClarification":true,"clarificationPrompt":"What made it fine?","reason":"vague"}`))

	got := svc.Evaluate(context.Background(), model.AnalyzeRequest{
		Question:   "What did you think of the service?",
		Answer:     "fine",
		SurveyGoal: "Improve dinner service",
	})

	if !got.NeedsClarification || got.ClarificationPrompt == nil || *got.ClarificationPrompt != "What made it fine?" {
		t.Fatalf("Evaluate = %+v, want the AI follow-up", got)
	}
	if client.Calls() != 1 {
		t.Fatalf("client called %d times, want 1", client.Calls())
	}
	req := client.Requests[0]
	if req.Model != "eval-model" || req.SchemaName != "clarification_check" || req.Schema == nil {
		t.Errorf("unexpected request %+v", req)
	}
	if !strings.Contains(req.System, "Survey goal: Improve dinner service") {
		t.Error("system prompt should carry the survey goal")
	}
	if !strings.Contains(req.System, "Current attempt: 1 of 2") {
		t.Error("system prompt should carry the attempt number")
	}
}

func TestEvaluateAIAcceptsDetailedAnswer(t *testing.T) {
	svc, _ := aiEvaluator(reply(`{"needsClarification":false,"clarificationPrompt":"","reason":"specific"}`))

	got := svc.Evaluate(context.Background(), model.AnalyzeRequest{Question: "Q", Answer: "fine"})
	if got.NeedsClarification || got.ClarificationPrompt != nil {
		t.Errorf("Evaluate = %+v, want no clarification", got)
	}
	if got.Reason != "specific" {
		t.Errorf("Reason = %q, want specific", got.Reason)
	}
}

func TestEvaluateFallsBackToRules(t *testing.T) {
	tests := []struct {
		name    string
		respond func(context.Context, llm.Request) (string, error)
	}{
		{name: "transport error", respond: func(context.Context, llm.Request) (string, error) {
			return "", errors.New("connection refused")
		}},
		{name: "malformed json", respond: reply(`{"needsClarification":`)},
		{name: "missing field", respond: reply(`{"needsClarification":true}`)},
		{name: "clarify without prompt", respond: reply(`{"needsClarification":true,"clarificationPrompt":" ","reason":"x"}`)},
		{name: "timeout", respond: func(ctx context.Context, _ llm.Request) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := aiEvaluator(tt.respond)
			got := svc.Evaluate(context.Background(), model.AnalyzeRequest{Question: "Q", Answer: "fine"})
			if !got.NeedsClarification || got.Reason != ReasonTooShort {
				t.Errorf("Evaluate = %+v, want rule-based too-short verdict", got)
			}
		})
	}
}

func TestEvaluateCeilingSkipsAI(t *testing.T) {
	svc, client := aiEvaluator(reply(`{"needsClarification":true,"clarificationPrompt":"more?","reason":"x"}`))

	got := svc.Evaluate(context.Background(), model.AnalyzeRequest{Question: "Q", Answer: "fine", AttemptNumber: 2})
	if got.NeedsClarification || got.Reason != ReasonMaxAttempts {
		t.Errorf("Evaluate = %+v, want max attempts", got)
	}
	if client.Calls() != 0 {
		t.Errorf("client called %d times, want 0", client.Calls())
	}
}

func TestAnalyze(t *testing.T) {
	svc, client := aiEvaluator(reply(`{"needsClarification":false,"clarificationPrompt":"","reason":"ok"}`))
	ctx := context.Background()

	if _, err := svc.Analyze(ctx, model.AnalyzeRequest{Question: "Q"}); !errors.Is(err, ErrMissingFields) {
		t.Errorf("missing answer: err = %v, want ErrMissingFields", err)
	}
	if _, err := svc.Analyze(ctx, model.AnalyzeRequest{Answer: "fine"}); !errors.Is(err, ErrMissingFields) {
		t.Errorf("missing question: err = %v, want ErrMissingFields", err)
	}

	flagged, err := svc.Analyze(ctx, model.AnalyzeRequest{Question: "Q", Answer: "f*ck this survey"})
	if err != nil {
		t.Fatal(err)
	}
	if !flagged.Flagged || flagged.NeedsClarification || flagged.Reason != ReasonModeration {
		t.Errorf("Analyze = %+v, want flagged by moderation", flagged)
	}
	if client.Calls() != 0 {
		t.Errorf("moderated answer reached the evaluator %d times", client.Calls())
	}

	ok, err := svc.Analyze(ctx, model.AnalyzeRequest{Question: "Q", Answer: detailedAnswer})
	if err != nil {
		t.Fatal(err)
	}
	if ok.Flagged || ok.NeedsClarification {
		t.Errorf("Analyze = %+v, want accepted", ok)
	}
}

func TestAnalyzeRulesOnly(t *testing.T) {
	svc := NewEvaluatorService(nil, nil)
	if svc.UsesAI() {
		t.Fatal("nil client should mean rules only")
	}

	got, err := svc.Analyze(context.Background(), model.AnalyzeRequest{
		Question: "What did you think of the service?",
		Answer:   "fine",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !got.NeedsClarification || *got.ClarificationPrompt != FollowUpPrompts[0] {
		t.Errorf("Analyze = %+v, want first follow-up prompt", got)
	}
}

func TestSummarize(t *testing.T) {
	entries := []model.TranscriptEntry{entry("How is the team?", detailedAnswer)}

	t.Run("ai", func(t *testing.T) {
		svc, client := aiEvaluator(reply(`{"summary":"Service is fast.","actionPoints":[{"text":"Keep staffing","priority":"HIGH"},{"text":"","priority":"low"}],"honestyScore":80,"keyThemes":["speed","speed","staff"]}`))
		draft, source := svc.Summarize(context.Background(), entries)
		if source != SourceAI {
			t.Fatalf("source = %s, want ai", source)
		}
		if draft.Summary != "Service is fast." || draft.HonestyScore != 80 {
			t.Errorf("draft = %+v", draft)
		}
		if len(draft.ActionPoints) != 1 || draft.ActionPoints[0].Priority != model.PriorityHigh {
			t.Errorf("ActionPoints = %+v", draft.ActionPoints)
		}
		if len(draft.KeyThemes) != 2 {
			t.Errorf("KeyThemes = %v, want deduplicated", draft.KeyThemes)
		}
		if !strings.Contains(client.Requests[0].Prompt, "Q: How is the team?\nA: The server") {
			t.Errorf("transcript prompt = %q", client.Requests[0].Prompt)
		}
	})

	invalid := map[string]string{
		"bad priority":    `{"summary":"s","actionPoints":[{"text":"t","priority":"urgent"}],"honestyScore":50,"keyThemes":[]}`,
		"score too high":  `{"summary":"s","actionPoints":[],"honestyScore":140,"keyThemes":[]}`,
		"empty summary":   `{"summary":"","actionPoints":[],"honestyScore":50,"keyThemes":[]}`,
		"not json at all": `I'm sorry, I can't do that.`,
	}
	for name, raw := range invalid {
		t.Run(name, func(t *testing.T) {
			svc, _ := aiEvaluator(reply(raw))
			draft, source := svc.Summarize(context.Background(), entries)
			if source != SourceRules {
				t.Fatalf("source = %s, want rules", source)
			}
			if draft.Summary != AggregateRules(entries).Summary {
				t.Errorf("fallback summary = %q", draft.Summary)
			}
		})
	}
}

func TestBuildTranscript(t *testing.T) {
	answer := "We ship on Fridays"
	got := buildTranscript([]model.TranscriptEntry{
		{
			Question: "How do releases go?",
			Response: model.Response{AnswerText: "fine"},
			Clarifications: []model.Clarification{
				{Prompt: "Can you give an example?", AnswerText: &answer},
				{Prompt: "Unanswered?"},
			},
		},
		skipped("Anything else?"),
	})

	want := "Q: How do releases go?\nA: fine\nFollow-up: Can you give an example?\nA: We ship on Fridays\n\nQ: Anything else?\nA: (skipped)"
	if got != want {
		t.Errorf("buildTranscript =\n%q\nwant\n%q", got, want)
	}
}
