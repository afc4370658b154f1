package service

import (
	"context"
	"fmt"

	"fydbak/internal/model"
	"fydbak/internal/repository"
)

// loadTranscript joins a session's responses with their question text and
// clarification exchanges, in question order.
func loadTranscript(ctx context.Context, responses repository.ResponseRepo, survey *model.Survey, sessionID string) ([]model.TranscriptEntry, error) {
	resps, err := responses.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	clars, err := responses.ListClarificationsBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list clarifications: %w", err)
	}

	byResponse := make(map[string][]model.Clarification, len(clars))
	for _, c := range clars {
		byResponse[c.ResponseID] = append(byResponse[c.ResponseID], *c)
	}

	questionText := map[string]string{}
	if survey != nil {
		for _, q := range survey.Questions {
			questionText[q.ID] = q.Text
		}
	}

	entries := make([]model.TranscriptEntry, 0, len(resps))
	for _, r := range resps {
		text, ok := questionText[r.QuestionID]
		if !ok {
			text = r.QuestionID
		}
		entries = append(entries, model.TranscriptEntry{
			Question:       text,
			Response:       *r,
			Clarifications: byResponse[r.ID],
		})
	}
	return entries, nil
}
