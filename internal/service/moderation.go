package service

import (
	"regexp"
	"strings"

	"fydbak/internal/model"
)

const (
	flagReasonLanguage = "Inappropriate language detected. Please keep responses professional."
	flagReasonTooShort = "Response too short to be meaningful."

	minAnswerChars = 3
)

var bannedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(f[u*]ck|sh[i*]t|b[i*]tch|a[s*]s|d[a*]mn|cr[a*]p|hell)\b`),
	regexp.MustCompile(`(?i)\b(idiot|stupid|dumb|moron|hate)\b`),
}

// Moderate flags profanity, harassment and degenerate input.
// It is pure and runs before any quality evaluation.
func Moderate(answer string) model.ModerationResult {
	trimmed := strings.TrimSpace(answer)

	for _, p := range bannedPatterns {
		if p.MatchString(trimmed) {
			return model.ModerationResult{Flagged: true, Reason: flagReasonLanguage}
		}
	}

	if len([]rune(trimmed)) < minAnswerChars {
		return model.ModerationResult{Flagged: true, Reason: flagReasonTooShort}
	}

	return model.ModerationResult{}
}
