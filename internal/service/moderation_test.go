package service

import "testing"

func TestModerate(t *testing.T) {
	tests := []struct {
		name       string
		answer     string
		wantFlag   bool
		wantReason string
	}{
		{name: "masked profanity", answer: "f*ck this survey", wantFlag: true, wantReason: flagReasonLanguage},
		{name: "profanity any case", answer: "This is SHIT honestly", wantFlag: true, wantReason: flagReasonLanguage},
		{name: "harassment", answer: "my manager is an idiot", wantFlag: true, wantReason: flagReasonLanguage},
		{name: "too short", answer: "ok", wantFlag: true, wantReason: flagReasonTooShort},
		{name: "padded too short", answer: "   a  ", wantFlag: true, wantReason: flagReasonTooShort},
		{name: "word boundaries", answer: "The shell scripts for class assignments run fine"},
		{name: "minimum length", answer: "yes"},
		{name: "normal answer", answer: "The onboarding was smooth and my mentor answered every question."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Moderate(tt.answer)
			if got.Flagged != tt.wantFlag {
				t.Fatalf("Moderate(%q).Flagged = %v, want %v", tt.answer, got.Flagged, tt.wantFlag)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Moderate(%q).Reason = %q, want %q", tt.answer, got.Reason, tt.wantReason)
			}
		})
	}
}
