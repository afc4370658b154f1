package service

import (
	"math/rand/v2"
	"regexp"
	"strings"

	"fydbak/internal/model"
)

// Reasons reported by the rule-based evaluator
const (
	ReasonTooShort       = "Answer is too short (less than 5 words)"
	ReasonVague          = "Answer contains vague language and is relatively short"
	ReasonLacksSpecifics = "Answer lacks specific examples"
	ReasonDetailed       = "Answer is detailed and specific"
	ReasonMaxAttempts    = "Maximum clarification attempts reached"
	ReasonModeration     = "Content moderation"
)

const (
	minWords       = 5
	vagueMaxWords  = 15
	detailMinWords = 20

	examplePrompt = "Can you give me a specific example to help me understand better?"
)

// FollowUpPrompts is the fixed pool used for rule-based clarifications
var FollowUpPrompts = []string{
	"Could you tell me more about that? A specific example would be really helpful.",
	"Can you share a concrete example or story that illustrates what you mean?",
	"I'd love to hear more details about that. What specifically happened?",
	"That's interesting! Can you elaborate on what you experienced?",
	"Could you walk me through a specific situation where this came up?",
}

var vaguePhrases = []string{
	"okay", "ok", "fine", "good", "bad", "yes", "no", "maybe", "idk",
	"i don't know", "not sure", "dunno", "whatever", "nothing", "none", "n/a", "na",
}

var vaguePattern = func() *regexp.Regexp {
	quoted := make([]string, len(vaguePhrases))
	for i, p := range vaguePhrases {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}()

// specificityMarkers are shared with the summary aggregator
var specificityMarkers = []string{"example", "for instance", "like when"}

func hasSpecificityMarker(lower string) bool {
	for _, m := range specificityMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// EvaluateRules is the deterministic evaluator. Checks run in order and the
// first match wins. Only the prompt for vague answers is picked at random.
func EvaluateRules(answer string, attemptNumber int) model.Evaluation {
	if attemptNumber >= model.MaxClarifications {
		return noClarification(ReasonMaxAttempts)
	}

	trimmed := strings.TrimSpace(answer)
	words := wordCount(trimmed)

	if words < minWords {
		return clarify(FollowUpPrompts[0], ReasonTooShort)
	}

	if words < vagueMaxWords && vaguePattern.MatchString(trimmed) {
		return clarify(FollowUpPrompts[rand.IntN(len(FollowUpPrompts))], ReasonVague)
	}

	if words < detailMinWords && !hasSpecificityMarker(strings.ToLower(trimmed)) {
		return clarify(examplePrompt, ReasonLacksSpecifics)
	}

	return noClarification(ReasonDetailed)
}

func clarify(prompt, reason string) model.Evaluation {
	return model.Evaluation{NeedsClarification: true, ClarificationPrompt: &prompt, Reason: reason}
}

func noClarification(reason string) model.Evaluation {
	return model.Evaluation{Reason: reason}
}
