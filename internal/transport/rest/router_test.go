package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fydbak/internal/service"
	"fydbak/internal/testutil"
	"fydbak/internal/transport/ws"
)

const longAnswer = "The server was attentive and brought our food out in under ten minutes, which really impressed us and made the evening relaxed"

type testServer struct {
	*httptest.Server
	accounts *testutil.AccountRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	accounts := testutil.NewAccountRepo()
	sessions := testutil.NewSessionRepo()
	responses := testutil.NewResponseRepo()

	authSvc := service.NewAuthService(accounts, "test-secret")
	surveySvc := service.NewSurveyService(testutil.NewSurveyRepo(), testutil.NewSurveyCache())
	evaluator := service.NewEvaluatorService(nil, nil)
	chatSvc := service.NewChatService(surveySvc, sessions, responses, accounts, evaluator, authSvc, testutil.NewSessionCache(), testutil.NewQueue())
	reportSvc := service.NewReportService(sessions, responses, testutil.NewSummaryRepo(), surveySvc, evaluator)

	hub := ws.NewHub()
	chatSvc.SetBroadcaster(hub)
	reportSvc.SetBroadcaster(hub)

	srv := httptest.NewServer(NewRouter(&Container{
		AuthService:      authSvc,
		SurveyService:    surveySvc,
		ChatService:      chatSvc,
		ReportService:    reportSvc,
		EvaluatorService: evaluator,
		WSHub:            hub,
	}))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, accounts: accounts}
}

// do sends body as JSON and decodes the reply into a generic map
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	out := map[string]interface{}{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	status, body := srv.do(t, http.MethodGet, "/health", "", nil)
	if status != http.StatusOK || body["status"] != "ok" {
		t.Errorf("GET /health = %d %v", status, body)
	}
}

func TestAnalyzeResponse(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name:       "missing answer",
			body:       map[string]interface{}{"question": "Q"},
			wantStatus: http.StatusBadRequest,
			check: func(t *testing.T, body map[string]interface{}) {
				if body["error"] != "Missing required fields" {
					t.Errorf("error = %v", body["error"])
				}
			},
		},
		{
			name:       "body is not an object",
			body:       "fine",
			wantStatus: http.StatusInternalServerError,
			check: func(t *testing.T, body map[string]interface{}) {
				if msg, _ := body["error"].(string); msg == "" || msg == "Missing required fields" {
					t.Errorf("error = %v, want decode failure", body["error"])
				}
			},
		},
		{
			name:       "short answer",
			body:       map[string]interface{}{"question": "What did you think of the service?", "answer": "fine", "attemptNumber": 0},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				if body["needsClarification"] != true || body["clarificationPrompt"] != service.FollowUpPrompts[0] {
					t.Errorf("body = %v", body)
				}
			},
		},
		{
			name:       "flagged",
			body:       map[string]interface{}{"question": "Q", "answer": "f*ck this survey"},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				if body["flagged"] != true || body["needsClarification"] != false {
					t.Errorf("body = %v", body)
				}
				if v, ok := body["clarificationPrompt"]; !ok || v != nil {
					t.Errorf("clarificationPrompt = %v, want explicit null", v)
				}
			},
		},
		{
			name:       "attempt ceiling",
			body:       map[string]interface{}{"question": "Q", "answer": "fine", "attemptNumber": 2},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				if body["needsClarification"] != false || body["reason"] != service.ReasonMaxAttempts {
					t.Errorf("body = %v", body)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := srv.do(t, http.MethodPost, "/analyze-response", "", tt.body)
			if status != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%v)", status, tt.wantStatus, body)
			}
			tt.check(t, body)
		})
	}
}

func TestConversationFlow(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{"email": "lead@example.com", "password": "correct horse"})
	if status != http.StatusCreated {
		t.Fatalf("register = %d %v", status, body)
	}
	managerToken := body["token"].(string)
	accountID := body["accountId"].(string)

	status, body = srv.do(t, http.MethodPost, "/v1/surveys", managerToken, map[string]interface{}{
		"title": "Dinner service",
		"goal":  "Improve dinner service",
		"questions": []map[string]interface{}{
			{"text": "What did you think of the service?", "orderIndex": 0},
			{"text": "How was the food?", "orderIndex": 1},
		},
	})
	if status != http.StatusCreated {
		t.Fatalf("create survey = %d %v", status, body)
	}
	surveyID := body["id"].(string)
	shortCode := body["shortCode"].(string)

	status, body = srv.do(t, http.MethodPost, "/v1/s/"+shortCode+"/sessions", "", map[string]string{"respondentLabel": "table 4"})
	if status != http.StatusCreated {
		t.Fatalf("start = %d %v", status, body)
	}
	sessionID := body["sessionId"].(string)
	token := body["token"].(string)
	answers := "/v1/sessions/" + sessionID + "/answers"

	if status, _ := srv.do(t, http.MethodPost, answers, "", map[string]string{"answer": "fine"}); status != http.StatusUnauthorized {
		t.Errorf("answer without token = %d, want 401", status)
	}
	if status, _ := srv.do(t, http.MethodPost, answers, managerToken, map[string]string{"answer": "fine"}); status != http.StatusUnauthorized {
		t.Errorf("answer with manager token = %d, want 401", status)
	}
	if status, _ := srv.do(t, http.MethodPost, answers, token, map[string]string{"answer": "  "}); status != http.StatusBadRequest {
		t.Errorf("empty answer = %d, want 400", status)
	}

	steps := []struct {
		answer string
		action string
	}{
		{"fine", "clarify"},
		{"it was quick", "next_question"},
		{longAnswer, "completed"},
	}
	for _, step := range steps {
		status, body = srv.do(t, http.MethodPost, answers, token, map[string]string{"answer": step.answer})
		if status != http.StatusOK || body["action"] != step.action {
			t.Fatalf("answer %q = %d %v, want %s", step.answer, status, body, step.action)
		}
	}

	if status, _ := srv.do(t, http.MethodPost, answers, token, map[string]string{"answer": longAnswer}); status != http.StatusConflict {
		t.Errorf("answer after completion = %d, want 409", status)
	}

	status, body = srv.do(t, http.MethodGet, "/v1/sessions/"+sessionID+"/state", token, nil)
	if status != http.StatusOK || body["status"] != "completed" {
		t.Errorf("state = %d %v", status, body)
	}

	status, body = srv.do(t, http.MethodGet, "/v1/surveys/"+surveyID+"/sessions", managerToken, nil)
	if status != http.StatusOK || len(body["sessions"].([]interface{})) != 1 {
		t.Errorf("list sessions = %d %v", status, body)
	}

	status, body = srv.do(t, http.MethodPost, "/generate-summary", "", map[string]string{"sessionId": sessionID})
	if status != http.StatusOK || body["success"] != true {
		t.Fatalf("generate-summary = %d %v", status, body)
	}
	summaryID := body["summary"].(map[string]interface{})["id"]

	status, body = srv.do(t, http.MethodPost, "/generate-summary", "", map[string]string{"sessionId": sessionID})
	if status != http.StatusOK || body["message"] != "Summary already exists" || body["id"] != summaryID {
		t.Errorf("second generate-summary = %d %v", status, body)
	}

	status, body = srv.do(t, http.MethodGet, "/v1/sessions/"+sessionID+"/detail", managerToken, nil)
	if status != http.StatusOK {
		t.Fatalf("detail = %d %v", status, body)
	}
	if len(body["transcript"].([]interface{})) != 2 || body["summary"] == nil {
		t.Errorf("detail = %v", body)
	}

	status, body = srv.do(t, http.MethodGet, "/v1/account", managerToken, nil)
	if status != http.StatusOK || body["id"] != accountID || body["responsesUsedThisMonth"] != float64(1) {
		t.Errorf("account = %d %v", status, body)
	}
	if _, ok := body["passwordHash"]; ok {
		t.Error("password hash leaked")
	}
}

func TestSessionTokenIsScoped(t *testing.T) {
	srv := newTestServer(t)

	_, body := srv.do(t, http.MethodPost, "/v1/auth/register", "", map[string]string{"email": "lead@example.com", "password": "correct horse"})
	managerToken := body["token"].(string)
	_, body = srv.do(t, http.MethodPost, "/v1/surveys", managerToken, map[string]interface{}{
		"title":     "Pulse",
		"questions": []map[string]interface{}{{"text": "Q1"}},
	})
	shortCode := body["shortCode"].(string)
	surveyID := body["id"].(string)

	_, first := srv.do(t, http.MethodPost, "/v1/s/"+shortCode+"/sessions", "", nil)
	_, second := srv.do(t, http.MethodPost, "/v1/s/"+shortCode+"/sessions", "", nil)

	path := "/v1/sessions/" + second["sessionId"].(string) + "/abandon"
	if status, _ := srv.do(t, http.MethodPost, path, first["token"].(string), nil); status != http.StatusForbidden {
		t.Errorf("abandon with another session's token = %d, want 403", status)
	}
	if status, _ := srv.do(t, http.MethodPost, path, second["token"].(string), nil); status != http.StatusOK {
		t.Errorf("abandon = %d, want 200", status)
	}
	if status, _ := srv.do(t, http.MethodPost, path, second["token"].(string), nil); status != http.StatusConflict {
		t.Errorf("second abandon = %d, want 409", status)
	}

	if status, _ := srv.do(t, http.MethodPost, "/v1/surveys/"+surveyID+"/close", managerToken, nil); status != http.StatusOK {
		t.Errorf("close = %d", status)
	}
	if status, _ := srv.do(t, http.MethodPost, "/v1/s/"+shortCode+"/sessions", "", nil); status != http.StatusGone {
		t.Errorf("start on closed survey = %d, want 410", status)
	}
	if status, _ := srv.do(t, http.MethodPost, "/v1/s/NOPE00/sessions", "", nil); status != http.StatusNotFound {
		t.Errorf("start on unknown survey = %d, want 404", status)
	}
}

func TestGenerateSummaryErrors(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.do(t, http.MethodPost, "/generate-summary", "", map[string]string{})
	if status != http.StatusBadRequest || body["error"] != "Missing sessionId" {
		t.Errorf("missing id = %d %v", status, body)
	}

	status, body = srv.do(t, http.MethodPost, "/generate-summary", "", []string{"not", "an", "object"})
	if status != http.StatusInternalServerError || body["error"] == "Missing sessionId" {
		t.Errorf("unparseable body = %d %v", status, body)
	}

	status, body = srv.do(t, http.MethodPost, "/generate-summary", "", map[string]string{"sessionId": "no-such-session"})
	if status != http.StatusInternalServerError || body["error"] != service.ErrNoResponses.Error() {
		t.Errorf("no responses = %d %v", status, body)
	}
}

func TestSwaggerDoc(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/swagger/doc.json")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var doc map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("doc is not JSON: %v", err)
	}
	paths := doc["paths"].(map[string]interface{})
	for _, p := range []string{"/analyze-response", "/generate-summary"} {
		if _, ok := paths[p]; !ok {
			t.Errorf("doc is missing %s", p)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	// browsers send the requested header names lowercased
	tests := []struct {
		name        string
		headers     string
		wantOrigin  string
		wantMethods bool
	}{
		{"allowed header", "content-type", "*", true},
		{"allowed headers", "authorization,content-type", "*", true},
		{"disallowed header", "x-api-secret", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/analyze-response", nil)
			req.Header.Set("Origin", "https://app.example.com")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			req.Header.Set("Access-Control-Request-Headers", tt.headers)

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()

			if got := resp.Header.Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			methods := resp.Header.Get("Access-Control-Allow-Methods")
			if got := strings.Contains(methods, http.MethodPost); got != tt.wantMethods {
				t.Errorf("Allow-Methods = %q, want POST listed: %v", methods, tt.wantMethods)
			}
		})
	}
}
