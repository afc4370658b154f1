package service

import (
	"slices"
	"strings"
	"testing"

	"fydbak/internal/model"
)

func entry(q, answer string) model.TranscriptEntry {
	return model.TranscriptEntry{Question: q, Response: model.Response{AnswerText: answer}}
}

func skipped(q string) model.TranscriptEntry {
	return model.TranscriptEntry{Question: q, Response: model.Response{IsSkipped: true}}
}

func TestAggregateRulesDetailedPositive(t *testing.T) {
	draft := AggregateRules([]model.TranscriptEntry{
		entry("How is the team?", "The team has been great, for example we shipped the release two days early because everyone helped each other out"),
		skipped("Anything about tooling?"),
		entry("What would help?", "We need a better schedule"),
	})

	wantSummary := "This team member provided brief feedback across 3 questions, highlighting positive experiences and what's working well. They shared specific examples and concrete situations, and clearly expressed needs for additional support or resources."
	if draft.Summary != wantSummary {
		t.Errorf("Summary =\n%q\nwant\n%q", draft.Summary, wantSummary)
	}

	// 25 words over 2 answered questions, plus the specificity bonus
	if draft.HonestyScore != 45 {
		t.Errorf("HonestyScore = %d, want 45", draft.HonestyScore)
	}

	wantThemes := []string{"team dynamics", "support needs", "time management"}
	if !slices.Equal(draft.KeyThemes, wantThemes) {
		t.Errorf("KeyThemes = %v, want %v", draft.KeyThemes, wantThemes)
	}

	wantPriorities := []model.Priority{model.PriorityHigh, model.PriorityMedium, model.PriorityLow}
	if len(draft.ActionPoints) != len(wantPriorities) {
		t.Fatalf("got %d action points, want %d", len(draft.ActionPoints), len(wantPriorities))
	}
	for i, p := range draft.ActionPoints {
		if p.Priority != wantPriorities[i] {
			t.Errorf("ActionPoints[%d].Priority = %s, want %s", i, p.Priority, wantPriorities[i])
		}
	}
	if draft.ActionPoints[1].Text != "Focus on team dynamics based on the themes identified in the responses" {
		t.Errorf("theme action point = %q", draft.ActionPoints[1].Text)
	}
}

func TestAggregateRulesNegative(t *testing.T) {
	draft := AggregateRules([]model.TranscriptEntry{
		entry("How are deployments?", "The process is a problem"),
	})

	want := "This team member provided brief feedback across 1 questions, identifying challenges and areas needing attention."
	if draft.Summary != want {
		t.Errorf("Summary = %q, want %q", draft.Summary, want)
	}
	if draft.HonestyScore != 10 {
		t.Errorf("HonestyScore = %d, want 10", draft.HonestyScore)
	}
	if len(draft.ActionPoints) == 0 || draft.ActionPoints[0].Priority != model.PriorityHigh {
		t.Errorf("negative feedback should lead with a high priority follow-up, got %+v", draft.ActionPoints)
	}
}

func TestAggregateRulesMixedSentimentIsNeutral(t *testing.T) {
	draft := AggregateRules([]model.TranscriptEntry{
		entry("Q1", "Lunch is good but parking is a problem every single day of the week honestly and it never improves at all around here"),
	})

	want := "This team member provided detailed feedback across 1 questions, offering a balanced perspective on their experience."
	if draft.Summary != want {
		t.Errorf("Summary = %q, want %q", draft.Summary, want)
	}
	last := draft.ActionPoints[len(draft.ActionPoints)-1]
	if last.Priority != model.PriorityMedium {
		t.Errorf("detailed answers should end with a medium priority point, got %+v", last)
	}
}

func TestAggregateRulesAllSkipped(t *testing.T) {
	draft := AggregateRules([]model.TranscriptEntry{skipped("Q1"), skipped("Q2")})

	if draft.HonestyScore != 0 {
		t.Errorf("HonestyScore = %d, want 0", draft.HonestyScore)
	}
	if draft.KeyThemes == nil || len(draft.KeyThemes) != 0 {
		t.Errorf("KeyThemes = %#v, want empty non-nil slice", draft.KeyThemes)
	}
	if len(draft.ActionPoints) != 1 || draft.ActionPoints[0].Priority != model.PriorityLow {
		t.Errorf("ActionPoints = %+v, want a single low priority point", draft.ActionPoints)
	}
}

func TestAggregateRulesPositiveWithoutThemesHasOneActionPoint(t *testing.T) {
	draft := AggregateRules([]model.TranscriptEntry{
		entry("How are things at the office?", "The new office is great and the coffee machine finally works, so mornings feel calmer and everyone arrives in a cheerful mood"),
	})

	if len(draft.KeyThemes) != 0 {
		t.Fatalf("KeyThemes = %v, want none", draft.KeyThemes)
	}
	if len(draft.ActionPoints) != 1 {
		t.Fatalf("ActionPoints = %+v, want exactly one", draft.ActionPoints)
	}
	got := draft.ActionPoints[0]
	if got.Priority != model.PriorityMedium || !strings.Contains(got.Text, "positive feedback") {
		t.Errorf("ActionPoints[0] = %+v, want the medium positive-feedback point", got)
	}
}

func TestHonestyScoreCapsAt100(t *testing.T) {
	if got := honestyScore(60, true); got != 100 {
		t.Errorf("honestyScore(60, true) = %d, want 100", got)
	}
	if got := honestyScore(12.25, false); got != 25 {
		t.Errorf("honestyScore(12.25, false) = %d, want 25", got)
	}
}
