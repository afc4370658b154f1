package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fydbak/internal/model"
	"fydbak/internal/repository"
)

// ReportService produces and serves post-session summaries and transcripts
type ReportService struct {
	sessions    repository.SessionRepo
	responses   repository.ResponseRepo
	summaries   repository.SummaryRepo
	surveys     *SurveyService
	evaluator   *EvaluatorService
	broadcaster Broadcaster
	now         func() time.Time
}

// NewReportService creates a new report service
func NewReportService(
	sessions repository.SessionRepo,
	responses repository.ResponseRepo,
	summaries repository.SummaryRepo,
	surveys *SurveyService,
	evaluator *EvaluatorService,
) *ReportService {
	return &ReportService{
		sessions:  sessions,
		responses: responses,
		summaries: summaries,
		surveys:   surveys,
		evaluator: evaluator,
		now:       time.Now,
	}
}

// SetBroadcaster sets the WebSocket broadcaster
func (s *ReportService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// GenerateSummary returns the session's summary, creating it on first call.
// created is false when a summary already existed, including when a
// concurrent caller won the insert.
func (s *ReportService) GenerateSummary(ctx context.Context, sessionID string) (summary *model.SessionSummary, created bool, err error) {
	existing, err := s.summaries.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("load summary: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("load session: %w", err)
	}

	var survey *model.Survey
	if session != nil {
		survey, err = s.surveys.GetByID(ctx, session.SurveyID)
		if err != nil {
			return nil, false, fmt.Errorf("load survey: %w", err)
		}
	}

	entries, err := loadTranscript(ctx, s.responses, survey, sessionID)
	if err != nil {
		return nil, false, err
	}
	if len(entries) == 0 {
		return nil, false, ErrNoResponses
	}

	draft, source := s.evaluator.Summarize(ctx, entries)
	summary = &model.SessionSummary{
		ID:               uuid.NewString(),
		SessionID:        sessionID,
		NarrativeSummary: draft.Summary,
		ActionPoints:     draft.ActionPoints,
		HonestyScore:     draft.HonestyScore,
		KeyThemes:        draft.KeyThemes,
		Source:           source,
		GeneratedAt:      s.now().UTC(),
	}

	if err := s.summaries.Insert(ctx, summary); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, false, fmt.Errorf("save summary: %w", err)
		}
		existing, err := s.summaries.GetBySession(ctx, sessionID)
		if err != nil {
			return nil, false, fmt.Errorf("load summary: %w", err)
		}
		if existing == nil {
			return nil, false, fmt.Errorf("save summary: %w", repository.ErrConflict)
		}
		return existing, false, nil
	}

	slog.Info("summary generated", "session_id", sessionID, "source", source)
	if s.broadcaster != nil && session != nil {
		s.broadcaster.ToManagers(session.SurveyID, EventSummaryReady, map[string]interface{}{
			"sessionId": sessionID,
			"summaryId": summary.ID,
		})
	}
	return summary, true, nil
}

// ListSessions returns every session of a manager's survey
func (s *ReportService) ListSessions(ctx context.Context, managerID, surveyID string) ([]*model.Session, error) {
	if _, err := s.surveys.GetOwned(ctx, managerID, surveyID); err != nil {
		return nil, err
	}
	return s.sessions.ListBySurvey(ctx, surveyID)
}

// SessionDetail returns the transcript and summary of one session
func (s *ReportService) SessionDetail(ctx context.Context, managerID, sessionID string) (*model.SessionDetail, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	survey, err := s.surveys.GetOwned(ctx, managerID, session.SurveyID)
	if err != nil {
		return nil, err
	}

	entries, err := loadTranscript(ctx, s.responses, survey, sessionID)
	if err != nil {
		return nil, err
	}
	summary, err := s.summaries.GetBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &model.SessionDetail{
		Session:    session,
		Transcript: entries,
		Summary:    summary,
	}, nil
}
