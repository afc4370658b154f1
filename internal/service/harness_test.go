package service

import (
	"context"
	"testing"
	"time"

	"fydbak/internal/model"
	"fydbak/internal/testutil"
)

const testManagerID = "mgr-1"

// harness wires every service against the in-memory fakes
type harness struct {
	chat      *ChatService
	reports   *ReportService
	surveySvc *SurveyService
	auth      *AuthService
	evaluator *EvaluatorService

	surveys   *testutil.SurveyRepo
	sessions  *testutil.SessionRepo
	responses *testutil.ResponseRepo
	summaries *testutil.SummaryRepo
	accounts  *testutil.AccountRepo
	queue     *testutil.Queue
	events    *testutil.Broadcaster

	survey *model.Survey
}

func newHarness(t *testing.T, questions ...string) *harness {
	t.Helper()
	ctx := context.Background()

	h := &harness{
		surveys:   testutil.NewSurveyRepo(),
		sessions:  testutil.NewSessionRepo(),
		responses: testutil.NewResponseRepo(),
		summaries: testutil.NewSummaryRepo(),
		accounts:  testutil.NewAccountRepo(),
		queue:     testutil.NewQueue(),
		events:    &testutil.Broadcaster{},
	}
	if err := h.accounts.Create(ctx, &model.Account{ID: testManagerID, Email: "lead@example.com", Plan: "free"}); err != nil {
		t.Fatal(err)
	}

	h.surveySvc = NewSurveyService(h.surveys, testutil.NewSurveyCache())
	h.auth = NewAuthService(h.accounts, "test-secret")
	h.evaluator = NewEvaluatorService(nil, nil)
	h.chat = NewChatService(h.surveySvc, h.sessions, h.responses, h.accounts, h.evaluator, h.auth, testutil.NewSessionCache(), h.queue)
	h.reports = NewReportService(h.sessions, h.responses, h.summaries, h.surveySvc, h.evaluator)
	h.chat.SetBroadcaster(h.events)
	h.reports.SetBroadcaster(h.events)

	qs := make([]model.Question, len(questions))
	for i, text := range questions {
		qs[i] = model.Question{Text: text, OrderIndex: i}
	}
	survey, err := h.surveySvc.Create(ctx, &model.Survey{
		ManagerID: testManagerID,
		Title:     "Dinner service",
		Goal:      "Improve dinner service",
		Questions: qs,
	})
	if err != nil {
		t.Fatal(err)
	}
	h.survey = survey
	return h
}

func (h *harness) start(t *testing.T) *model.StartResult {
	t.Helper()
	res, err := h.chat.StartSession(context.Background(), h.survey.ShortCode, "table 4")
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	return res
}

func (h *harness) submit(t *testing.T, sessionID, answer string) *model.TurnResult {
	t.Helper()
	res, err := h.chat.SubmitAnswer(context.Background(), sessionID, answer)
	if err != nil {
		t.Fatalf("SubmitAnswer(%q): %v", answer, err)
	}
	return res
}

func (h *harness) session(t *testing.T, id string) *model.Session {
	t.Helper()
	s, err := h.sessions.GetByID(context.Background(), id)
	if err != nil || s == nil {
		t.Fatalf("session %s: %v", id, err)
	}
	return s
}

func (h *harness) usage(t *testing.T) int64 {
	t.Helper()
	a, _ := h.accounts.GetByID(context.Background(), testManagerID)
	return a.ResponsesUsedThisMonth
}

// waitAll waits for done or fails after d
func waitAll(t *testing.T, done <-chan struct{}, d time.Duration) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("timed out waiting")
	}
}
