package service

import (
	"fmt"
	"math"
	"strings"

	"fydbak/internal/model"
)

type sentiment int

const (
	sentimentNeutral sentiment = iota
	sentimentPositive
	sentimentNegative
)

const (
	maxActionPoints = 3
	maxKeyThemes    = 5
)

var (
	positiveWords = []string{"good", "great", "excellent", "happy", "well", "better"}
	negativeWords = []string{"bad", "poor", "difficult", "challenge", "problem", "issue"}
	needWords     = []string{"need", "want", "require", "would like", "should", "could"}
)

// themeTriggers map trigger words to a theme; order fixes theme order within an answer
var themeTriggers = []struct {
	theme    string
	triggers []string
}{
	{"customer experience", []string{"customer"}},
	{"team dynamics", []string{"team"}},
	{"process improvement", []string{"process", "system"}},
	{"support needs", []string{"support", "help"}},
	{"time management", []string{"time", "schedule"}},
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// AggregateRules builds a summary from the primary answers with fixed
// templates. Skipped responses count toward the question total but not
// toward word statistics.
func AggregateRules(entries []model.TranscriptEntry) model.SummaryDraft {
	var (
		answered   int
		totalWords int
		specifics  bool
		needs      bool
		firstPos   = -1
		firstNeg   = -1
		themes     []string
		seenThemes = map[string]bool{}
	)

	for i, e := range entries {
		if e.Response.IsSkipped {
			continue
		}
		text := strings.ToLower(e.Response.AnswerText)
		answered++
		totalWords += wordCount(text)

		if hasSpecificityMarker(text) {
			specifics = true
		}
		if containsAny(text, needWords) {
			needs = true
		}

		pos, neg := containsAny(text, positiveWords), containsAny(text, negativeWords)
		if pos && !neg && firstPos < 0 {
			firstPos = i
		}
		if neg && !pos && firstNeg < 0 {
			firstNeg = i
		}

		for _, tt := range themeTriggers {
			if !seenThemes[tt.theme] && containsAny(text, tt.triggers) {
				seenThemes[tt.theme] = true
				themes = append(themes, tt.theme)
			}
		}
	}

	var avgWords float64
	if answered > 0 {
		avgWords = float64(totalWords) / float64(answered)
	}

	mood := sentimentNeutral
	switch {
	case firstPos >= 0 && firstNeg < 0:
		mood = sentimentPositive
	case firstNeg >= 0 && firstPos < 0:
		mood = sentimentNegative
	}

	if len(themes) > maxKeyThemes {
		themes = themes[:maxKeyThemes]
	}
	if themes == nil {
		themes = []string{}
	}

	return model.SummaryDraft{
		Summary:      narrative(len(entries), avgWords, mood, specifics, needs),
		ActionPoints: actionPoints(avgWords, mood, needs, themes),
		HonestyScore: honestyScore(avgWords, specifics),
		KeyThemes:    themes,
	}
}

func honestyScore(avgWords float64, specifics bool) int {
	score := avgWords * 2
	if specifics {
		score += 20
	}
	return int(math.Min(100, math.Round(score)))
}

func narrative(questions int, avgWords float64, mood sentiment, specifics, needs bool) string {
	depth := "brief"
	if avgWords > 20 {
		depth = "detailed"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "This team member provided %s feedback across %d questions", depth, questions)

	switch mood {
	case sentimentPositive:
		sb.WriteString(", highlighting positive experiences and what's working well")
	case sentimentNegative:
		sb.WriteString(", identifying challenges and areas needing attention")
	default:
		sb.WriteString(", offering a balanced perspective on their experience")
	}

	if specifics {
		sb.WriteString(". They shared specific examples and concrete situations")
	}
	if needs {
		sb.WriteString(", and clearly expressed needs for additional support or resources")
	}
	sb.WriteString(".")
	return sb.String()
}

func actionPoints(avgWords float64, mood sentiment, needs bool, themes []string) []model.ActionPoint {
	points := make([]model.ActionPoint, 0, maxActionPoints)

	if mood == sentimentNegative || needs {
		points = append(points, model.ActionPoint{
			Text:     "Schedule a follow-up conversation to address the concerns and support needs mentioned",
			Priority: model.PriorityHigh,
		})
	}

	if len(themes) > 0 {
		points = append(points, model.ActionPoint{
			Text:     fmt.Sprintf("Focus on %s based on the themes identified in the responses", themes[0]),
			Priority: model.PriorityMedium,
		})
	}

	if avgWords < 15 {
		points = append(points, model.ActionPoint{
			Text:     "Consider using different question formats or one-on-one conversations for deeper feedback",
			Priority: model.PriorityLow,
		})
	} else {
		points = append(points, model.ActionPoint{
			Text:     "Share positive feedback patterns with the team to reinforce what's working",
			Priority: model.PriorityMedium,
		})
	}

	if len(points) > maxActionPoints {
		points = points[:maxActionPoints]
	}
	return points
}
