package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"fydbak/internal/cache"
	"fydbak/internal/model"
	"fydbak/internal/repository"
)

// ChatService drives a respondent through a survey: it records answers,
// injects at most two clarification rounds per question, advances in
// question order and completes the session.
type ChatService struct {
	surveys      *SurveyService
	sessions     repository.SessionRepo
	responses    repository.ResponseRepo
	accounts     repository.AccountRepo
	evaluator    *EvaluatorService
	authSvc      *AuthService
	sessionCache cache.SessionCache
	queue        SummaryQueue
	broadcaster  Broadcaster
	now          func() time.Time
}

// NewChatService creates a new chat service
func NewChatService(
	surveys *SurveyService,
	sessions repository.SessionRepo,
	responses repository.ResponseRepo,
	accounts repository.AccountRepo,
	evaluator *EvaluatorService,
	authSvc *AuthService,
	sessionCache cache.SessionCache,
	queue SummaryQueue,
) *ChatService {
	return &ChatService{
		surveys:      surveys,
		sessions:     sessions,
		responses:    responses,
		accounts:     accounts,
		evaluator:    evaluator,
		authSvc:      authSvc,
		sessionCache: sessionCache,
		queue:        queue,
		now:          time.Now,
	}
}

// SetBroadcaster sets the WebSocket broadcaster
func (s *ChatService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// StartSession opens a new session on the survey behind shortCode
func (s *ChatService) StartSession(ctx context.Context, shortCode, respondentLabel string) (*model.StartResult, error) {
	survey, err := s.surveys.GetByShortCode(ctx, shortCode)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}

	now := s.now().UTC()
	if survey.IsClosed(now) {
		return nil, ErrSurveyClosed
	}
	if len(survey.Questions) == 0 {
		return nil, ErrInvalidSurvey
	}

	session := &model.Session{
		ID:              uuid.NewString(),
		SurveyID:        survey.ID,
		ManagerID:       survey.ManagerID,
		RespondentLabel: strings.TrimSpace(respondentLabel),
		Status:          model.SessionStarted,
		QuestionCount:   len(survey.Questions),
		StartedAt:       now,
		LastActivityAt:  now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := s.authSvc.GenerateRespondentToken(session.ID, survey.ID)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	s.cacheSession(ctx, session)
	s.notifyManagers(survey.ID, EventSessionStarted, map[string]interface{}{
		"sessionId":       session.ID,
		"respondentLabel": session.RespondentLabel,
		"questionCount":   session.QuestionCount,
	})

	first := survey.Questions[0]
	return &model.StartResult{
		SessionID:      session.ID,
		Token:          token,
		WelcomeMessage: survey.Welcome(),
		Question:       &first,
		QuestionIndex:  0,
		QuestionCount:  len(survey.Questions),
	}, nil
}

// SubmitAnswer feeds one respondent input into the session. While a
// clarification is open the input answers it; otherwise it answers the
// current question.
func (s *ChatService) SubmitAnswer(ctx context.Context, sessionID, answer string) (*model.TurnResult, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, ErrEmptyAnswer
	}

	session, survey, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Flagged input is neither stored nor evaluated and the session stays put
	if mod := Moderate(answer); mod.Flagged {
		return s.flag(session, survey, mod.Reason), nil
	}

	if session.AwaitingClarification() {
		return s.answerClarification(ctx, session, survey, answer)
	}
	return s.answerQuestion(ctx, session, survey, answer)
}

// Skip tags the current question as skipped and moves on. An open
// clarification is left unanswered.
func (s *ChatService) Skip(ctx context.Context, sessionID string) (*model.TurnResult, error) {
	session, survey, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()

	if session.AwaitingClarification() {
		session.OpenClarificationID = ""
		return s.advance(ctx, session, survey, now)
	}

	q := survey.Questions[session.CurrentQuestionIndex]
	if _, err := s.recordResponse(ctx, session, q, "", true, now); err != nil {
		return nil, err
	}
	return s.advance(ctx, session, survey, now)
}

// Abandon marks a non-terminal session abandoned. Later input is rejected.
func (s *ChatService) Abandon(ctx context.Context, sessionID string) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if session.Status.IsTerminal() {
		return ErrSessionClosed
	}

	won, err := s.sessions.Abandon(ctx, sessionID, s.now().UTC())
	if err != nil {
		return fmt.Errorf("abandon session: %w", err)
	}
	if !won {
		return ErrSessionClosed
	}
	s.afterAbandon(ctx, session)
	return nil
}

// AbandonIdle marks sessions without activity for longer than idle as
// abandoned and returns how many it closed.
func (s *ChatService) AbandonIdle(ctx context.Context, idle time.Duration) (int, error) {
	now := s.now().UTC()
	stale, err := s.sessions.ListIdle(ctx, now.Add(-idle), 200)
	if err != nil {
		return 0, fmt.Errorf("list idle sessions: %w", err)
	}

	closed := 0
	for _, session := range stale {
		won, err := s.sessions.Abandon(ctx, session.ID, now)
		if err != nil {
			slog.Error("failed to abandon idle session", "session_id", session.ID, "error", err)
			continue
		}
		if won {
			closed++
			s.afterAbandon(ctx, session)
		}
	}
	return closed, nil
}

// RunAbandonSweeper calls AbandonIdle every interval until ctx is cancelled
func (s *ChatService) RunAbandonSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.AbandonIdle(ctx, idle)
			if err != nil {
				slog.Error("abandon sweep failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("abandoned idle sessions", "count", n)
			}
		}
	}
}

// GetState returns what the respondent should see next
func (s *ChatService) GetState(ctx context.Context, sessionID string) (*model.SessionState, error) {
	session, err := s.sessionSnapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	state := &model.SessionState{
		SessionID:     session.ID,
		Status:        session.Status,
		QuestionIndex: session.CurrentQuestionIndex,
		QuestionCount: session.QuestionCount,
	}
	if session.Status.IsTerminal() {
		return state, nil
	}

	survey, err := s.surveys.GetByID(ctx, session.SurveyID)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}
	if q, ok := survey.QuestionAt(session.CurrentQuestionIndex); ok {
		state.Question = &q
	}

	if session.AwaitingClarification() {
		c, err := s.responses.GetClarification(ctx, session.OpenClarificationID)
		if err != nil {
			return nil, err
		}
		if c != nil {
			state.Prompt = c.Prompt
		}
	}
	return state, nil
}

func (s *ChatService) sessionSnapshot(ctx context.Context, sessionID string) (*model.Session, error) {
	if cached, err := s.sessionCache.Get(ctx, sessionID); err != nil {
		slog.Warn("session cache read failed", "session_id", sessionID, "error", err)
	} else if cached != nil {
		return cached, nil
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// load reads the authoritative session and its survey for a state transition
func (s *ChatService) load(ctx context.Context, sessionID string) (*model.Session, *model.Survey, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if session == nil {
		return nil, nil, ErrSessionNotFound
	}
	if session.Status.IsTerminal() {
		return nil, nil, ErrSessionClosed
	}

	survey, err := s.surveys.GetByID(ctx, session.SurveyID)
	if err != nil {
		return nil, nil, err
	}
	if survey == nil {
		return nil, nil, ErrSurveyNotFound
	}
	if _, ok := survey.QuestionAt(session.CurrentQuestionIndex); !ok {
		return nil, nil, fmt.Errorf("session %s points past question %d", session.ID, session.CurrentQuestionIndex)
	}
	return session, survey, nil
}

// answerClarification attaches the reply to the open clarification and
// advances without re-evaluating it.
func (s *ChatService) answerClarification(ctx context.Context, session *model.Session, survey *model.Survey, answer string) (*model.TurnResult, error) {
	now := s.now().UTC()

	err := s.responses.AnswerClarification(ctx, session.OpenClarificationID, answer, now)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("record clarification answer: %w", err)
	}

	session.OpenClarificationID = ""
	return s.advance(ctx, session, survey, now)
}

func (s *ChatService) answerQuestion(ctx context.Context, session *model.Session, survey *model.Survey, answer string) (*model.TurnResult, error) {
	q := survey.Questions[session.CurrentQuestionIndex]
	now := s.now().UTC()
	resp, err := s.recordResponse(ctx, session, q, answer, false, now)
	if err != nil {
		return nil, err
	}

	eval := s.evaluator.Evaluate(ctx, model.AnalyzeRequest{
		Question:        q.Text,
		Answer:          answer,
		AttemptNumber:   resp.ClarificationCount,
		SurveyGoal:      survey.Goal,
		GoalDescription: survey.GoalDescription,
	})

	if eval.NeedsClarification && eval.ClarificationPrompt != nil && resp.ClarificationCount < model.MaxClarifications {
		result, err := s.openClarification(ctx, session, survey, resp, *eval.ClarificationPrompt, now)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, repository.ErrClarificationCap) {
			return nil, err
		}
	}

	return s.advance(ctx, session, survey, now)
}

func (s *ChatService) flag(session *model.Session, survey *model.Survey, reason string) *model.TurnResult {
	q := survey.Questions[session.CurrentQuestionIndex]
	s.notifyRespondent(session.ID, EventAnswerFlagged, map[string]interface{}{
		"flagReason":    reason,
		"questionIndex": session.CurrentQuestionIndex,
	})
	return &model.TurnResult{
		Action:        model.ActionFlagged,
		Flagged:       true,
		FlagReason:    reason,
		Question:      &q,
		QuestionIndex: session.CurrentQuestionIndex,
		QuestionCount: len(survey.Questions),
	}
}

// recordResponse stores the primary response for q. A second write for the
// same question reuses the existing row.
func (s *ChatService) recordResponse(ctx context.Context, session *model.Session, q model.Question, answer string, skipped bool, now time.Time) (*model.Response, error) {
	resp := &model.Response{
		ID:            uuid.NewString(),
		SessionID:     session.ID,
		QuestionID:    q.ID,
		QuestionIndex: session.CurrentQuestionIndex,
		AnswerText:    answer,
		IsSkipped:     skipped,
		CreatedAt:     now,
	}
	err := s.responses.Create(ctx, resp)
	if err == nil {
		return resp, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("record response: %w", err)
	}

	existing, err := s.responses.GetBySessionQuestion(ctx, session.ID, q.ID)
	if err != nil {
		return nil, fmt.Errorf("record response: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("record response: %w", repository.ErrConflict)
	}
	if err := s.responses.UpdateAnswer(ctx, existing.ID, answer, skipped); err != nil {
		return nil, fmt.Errorf("record response: %w", err)
	}
	existing.AnswerText = answer
	existing.IsSkipped = skipped
	return existing, nil
}

func (s *ChatService) openClarification(ctx context.Context, session *model.Session, survey *model.Survey, resp *model.Response, prompt string, now time.Time) (*model.TurnResult, error) {
	attempt, err := s.responses.IncrementClarificationCount(ctx, resp.ID)
	if err != nil {
		return nil, err
	}

	c := &model.Clarification{
		ID:            uuid.NewString(),
		ResponseID:    resp.ID,
		SessionID:     session.ID,
		Prompt:        prompt,
		AttemptNumber: attempt,
		CreatedAt:     now,
	}
	if err := s.responses.CreateClarification(ctx, c); err != nil {
		s.releaseClarification(ctx, resp.ID, "")
		return nil, fmt.Errorf("create clarification: %w", err)
	}

	session.OpenClarificationID = c.ID
	session.Status = model.SessionInProgress
	session.LastActivityAt = now
	if err := s.save(ctx, session); err != nil {
		session.OpenClarificationID = ""
		s.releaseClarification(ctx, resp.ID, c.ID)
		return nil, err
	}

	q := survey.Questions[session.CurrentQuestionIndex]
	s.notifyRespondent(session.ID, EventClarificationRequested, map[string]interface{}{
		"prompt":        prompt,
		"attemptNumber": attempt,
		"questionIndex": session.CurrentQuestionIndex,
	})
	return &model.TurnResult{
		Action:        model.ActionClarify,
		Prompt:        prompt,
		Question:      &q,
		QuestionIndex: session.CurrentQuestionIndex,
		QuestionCount: len(survey.Questions),
	}, nil
}

// releaseClarification gives back a round whose prompt never reached the respondent
func (s *ChatService) releaseClarification(ctx context.Context, responseID, clarificationID string) {
	if err := s.responses.ReleaseClarification(context.WithoutCancel(ctx), responseID, clarificationID); err != nil {
		slog.Error("release clarification failed", "response_id", responseID, "clarification_id", clarificationID, "error", err)
	}
}

func (s *ChatService) advance(ctx context.Context, session *model.Session, survey *model.Survey, now time.Time) (*model.TurnResult, error) {
	next := session.CurrentQuestionIndex + 1
	if next >= len(survey.Questions) {
		return s.complete(ctx, session, survey, now)
	}

	session.CurrentQuestionIndex = next
	session.Status = model.SessionInProgress
	session.LastActivityAt = now
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	q := survey.Questions[next]
	s.notifyRespondent(session.ID, EventNextQuestion, map[string]interface{}{
		"question":      q,
		"questionIndex": next,
	})
	s.notifyManagers(survey.ID, EventSessionProgress, map[string]interface{}{
		"sessionId":     session.ID,
		"questionIndex": next,
		"questionCount": len(survey.Questions),
	})
	return &model.TurnResult{
		Action:        model.ActionNextQuestion,
		Question:      &q,
		QuestionIndex: next,
		QuestionCount: len(survey.Questions),
	}, nil
}

// complete is the only path into SessionCompleted. Usage is counted and a
// summary queued only by the caller whose conditional update won.
func (s *ChatService) complete(ctx context.Context, session *model.Session, survey *model.Survey, now time.Time) (*model.TurnResult, error) {
	session.CurrentQuestionIndex = len(survey.Questions)

	won, err := s.sessions.Complete(ctx, session, now)
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	result := &model.TurnResult{
		Action:        model.ActionCompleted,
		QuestionIndex: len(survey.Questions),
		QuestionCount: len(survey.Questions),
		Message:       survey.ThankYou(),
	}

	if !won {
		current, err := s.sessions.GetByID(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		if current == nil || current.Status != model.SessionCompleted {
			return nil, ErrConcurrentUpdate
		}
		return result, nil
	}

	// The session is committed; side effects must outlive a cancelled request.
	bg := context.WithoutCancel(ctx)
	if err := s.accounts.IncrementUsage(bg, session.ManagerID); err != nil {
		slog.Error("failed to increment usage", "session_id", session.ID, "account_id", session.ManagerID, "error", err)
	}
	if err := s.queue.Enqueue(bg, session.ID); err != nil {
		slog.Error("failed to enqueue summary", "session_id", session.ID, "error", err)
	}

	s.dropSession(bg, session.ID)
	s.notifyRespondent(session.ID, EventSessionCompleted, map[string]interface{}{
		"message": result.Message,
	})
	s.notifyManagers(survey.ID, EventSessionCompleted, map[string]interface{}{
		"sessionId": session.ID,
	})
	return result, nil
}

func (s *ChatService) afterAbandon(ctx context.Context, session *model.Session) {
	s.dropSession(ctx, session.ID)
	s.notifyManagers(session.SurveyID, EventSessionAbandoned, map[string]interface{}{
		"sessionId": session.ID,
	})
}

func (s *ChatService) save(ctx context.Context, session *model.Session) error {
	err := s.sessions.Update(ctx, session)
	if errors.Is(err, repository.ErrConflict) {
		return ErrConcurrentUpdate
	}
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	s.cacheSession(ctx, session)
	return nil
}

func (s *ChatService) cacheSession(ctx context.Context, session *model.Session) {
	if err := s.sessionCache.Set(ctx, session); err != nil {
		slog.Warn("session cache write failed", "session_id", session.ID, "error", err)
	}
}

func (s *ChatService) dropSession(ctx context.Context, sessionID string) {
	if err := s.sessionCache.Delete(ctx, sessionID); err != nil {
		slog.Warn("session cache delete failed", "session_id", sessionID, "error", err)
	}
}

func (s *ChatService) notifyRespondent(sessionID, msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.ToRespondent(sessionID, msgType, payload)
	}
}

func (s *ChatService) notifyManagers(surveyID, msgType string, payload interface{}) {
	if s.broadcaster != nil {
		s.broadcaster.ToManagers(surveyID, msgType, payload)
	}
}
