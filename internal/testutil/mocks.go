// Package testutil provides in-memory stand-ins for the Mongo repositories,
// Redis caches, queue, broadcaster and LLM client. They copy values in and
// out so callers cannot mutate stored state behind the store's back.
package testutil

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"fydbak/internal/llm"
	"fydbak/internal/model"
	"fydbak/internal/repository"
)

// SurveyRepo is an in-memory repository.SurveyRepo
type SurveyRepo struct {
	mu      sync.Mutex
	surveys map[string]model.Survey
}

func NewSurveyRepo() *SurveyRepo {
	return &SurveyRepo{surveys: map[string]model.Survey{}}
}

func (r *SurveyRepo) Create(_ context.Context, survey *model.Survey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.surveys {
		if existing.ShortCode == survey.ShortCode {
			return repository.ErrDuplicate
		}
	}
	r.surveys[survey.ID] = cloneSurvey(*survey)
	return nil
}

func (r *SurveyRepo) GetByID(_ context.Context, id string) (*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surveys[id]
	if !ok {
		return nil, nil
	}
	out := cloneSurvey(s)
	return &out, nil
}

func (r *SurveyRepo) GetByShortCode(_ context.Context, code string) (*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.surveys {
		if s.ShortCode == code {
			out := cloneSurvey(s)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *SurveyRepo) ListByManager(_ context.Context, managerID string) ([]*model.Survey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Survey{}
	for _, s := range r.surveys {
		if s.ManagerID == managerID {
			c := cloneSurvey(s)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *SurveyRepo) SetStatus(_ context.Context, id string, status model.SurveyStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.surveys[id]
	if !ok {
		return repository.ErrNotFound
	}
	s.Status = status
	r.surveys[id] = s
	return nil
}

func cloneSurvey(s model.Survey) model.Survey {
	s.Questions = append([]model.Question(nil), s.Questions...)
	return s
}

// SessionRepo is an in-memory repository.SessionRepo with the same
// optimistic version checks as the Mongo implementation.
type SessionRepo struct {
	mu       sync.Mutex
	sessions map[string]model.Session

	// BeforeComplete runs under no lock right before Complete applies
	BeforeComplete func()
	// BeforeUpdate runs under no lock right before Update applies
	BeforeUpdate func(session *model.Session)
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{sessions: map[string]model.Session{}}
}

func (r *SessionRepo) Create(_ context.Context, session *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; ok {
		return repository.ErrDuplicate
	}
	r.sessions[session.ID] = *session
	return nil
}

func (r *SessionRepo) GetByID(_ context.Context, id string) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *SessionRepo) Update(_ context.Context, session *model.Session) error {
	if r.BeforeUpdate != nil {
		r.BeforeUpdate(session)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.sessions[session.ID]
	if !ok || cur.Version != session.Version || cur.Status.IsTerminal() {
		return repository.ErrConflict
	}
	session.Version++
	r.sessions[session.ID] = *session
	return nil
}

func (r *SessionRepo) Complete(_ context.Context, session *model.Session, at time.Time) (bool, error) {
	if r.BeforeComplete != nil {
		r.BeforeComplete()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.sessions[session.ID]
	if !ok || cur.Version != session.Version || cur.Status.IsTerminal() {
		return false, nil
	}
	cur.Status = model.SessionCompleted
	cur.CompletedAt = &at
	cur.LastActivityAt = at
	cur.OpenClarificationID = ""
	cur.CurrentQuestionIndex = session.CurrentQuestionIndex
	cur.Version++
	r.sessions[session.ID] = cur
	*session = cur
	return true, nil
}

func (r *SessionRepo) Abandon(_ context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.sessions[id]
	if !ok || cur.Status.IsTerminal() {
		return false, nil
	}
	cur.Status = model.SessionAbandoned
	cur.AbandonedAt = &at
	cur.OpenClarificationID = ""
	cur.Version++
	r.sessions[id] = cur
	return true, nil
}

func (r *SessionRepo) ListBySurvey(_ context.Context, surveyID string) ([]*model.Session, error) {
	return r.filter(func(s model.Session) bool { return s.SurveyID == surveyID }, 0), nil
}

func (r *SessionRepo) ListIdle(_ context.Context, before time.Time, limit int64) ([]*model.Session, error) {
	return r.filter(func(s model.Session) bool {
		return !s.Status.IsTerminal() && s.LastActivityAt.Before(before)
	}, int(limit)), nil
}

func (r *SessionRepo) filter(keep func(model.Session) bool, limit int) []*model.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Session{}
	for _, s := range r.sessions {
		if keep(s) {
			c := s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ResponseRepo is an in-memory repository.ResponseRepo
type ResponseRepo struct {
	mu             sync.Mutex
	responses      map[string]model.Response
	clarifications map[string]model.Clarification
	order          []string
	clarOrder      []string
}

func NewResponseRepo() *ResponseRepo {
	return &ResponseRepo{
		responses:      map[string]model.Response{},
		clarifications: map[string]model.Clarification{},
	}
}

func (r *ResponseRepo) Create(_ context.Context, resp *model.Response) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.responses {
		if existing.SessionID == resp.SessionID && existing.QuestionID == resp.QuestionID {
			return repository.ErrDuplicate
		}
	}
	r.responses[resp.ID] = *resp
	r.order = append(r.order, resp.ID)
	return nil
}

func (r *ResponseRepo) GetBySessionQuestion(_ context.Context, sessionID, questionID string) (*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.responses {
		if existing.SessionID == sessionID && existing.QuestionID == questionID {
			c := existing
			return &c, nil
		}
	}
	return nil, nil
}

func (r *ResponseRepo) UpdateAnswer(_ context.Context, id, answer string, skipped bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	resp, ok := r.responses[id]
	if !ok {
		return repository.ErrNotFound
	}
	resp.AnswerText = answer
	resp.IsSkipped = skipped
	r.responses[id] = resp
	return nil
}

func (r *ResponseRepo) ListBySession(_ context.Context, sessionID string) ([]*model.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Response{}
	for _, id := range r.order {
		if resp := r.responses[id]; resp.SessionID == sessionID {
			out = append(out, &resp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].QuestionIndex < out[j].QuestionIndex })
	return out, nil
}

func (r *ResponseRepo) IncrementClarificationCount(_ context.Context, responseID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	resp, ok := r.responses[responseID]
	if !ok || resp.ClarificationCount >= model.MaxClarifications {
		return 0, repository.ErrClarificationCap
	}
	resp.ClarificationCount++
	r.responses[responseID] = resp
	return resp.ClarificationCount, nil
}

func (r *ResponseRepo) ReleaseClarification(_ context.Context, responseID, clarificationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clarifications[clarificationID]; ok {
		delete(r.clarifications, clarificationID)
		r.clarOrder = slices.DeleteFunc(r.clarOrder, func(id string) bool { return id == clarificationID })
	}
	if resp, ok := r.responses[responseID]; ok && resp.ClarificationCount > 0 {
		resp.ClarificationCount--
		r.responses[responseID] = resp
	}
	return nil
}

func (r *ResponseRepo) CreateClarification(_ context.Context, c *model.Clarification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.clarifications {
		if existing.ResponseID == c.ResponseID && existing.AttemptNumber == c.AttemptNumber {
			return repository.ErrDuplicate
		}
	}
	r.clarifications[c.ID] = *c
	r.clarOrder = append(r.clarOrder, c.ID)
	return nil
}

func (r *ResponseRepo) GetClarification(_ context.Context, id string) (*model.Clarification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clarifications[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *ResponseRepo) AnswerClarification(_ context.Context, id, answer string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clarifications[id]
	if !ok || c.AnswerText != nil {
		return repository.ErrNotFound
	}
	c.AnswerText = &answer
	c.AnsweredAt = &at
	r.clarifications[id] = c
	return nil
}

func (r *ResponseRepo) ListClarificationsBySession(_ context.Context, sessionID string) ([]*model.Clarification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*model.Clarification{}
	for _, id := range r.clarOrder {
		if c := r.clarifications[id]; c.SessionID == sessionID {
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AttemptNumber < out[j].AttemptNumber })
	return out, nil
}

// SummaryRepo is an in-memory repository.SummaryRepo
type SummaryRepo struct {
	mu        sync.Mutex
	summaries map[string]model.SessionSummary

	// BeforeInsert runs right before Insert takes the lock
	BeforeInsert func()
}

func NewSummaryRepo() *SummaryRepo {
	return &SummaryRepo{summaries: map[string]model.SessionSummary{}}
}

func (r *SummaryRepo) Insert(_ context.Context, summary *model.SessionSummary) error {
	if r.BeforeInsert != nil {
		r.BeforeInsert()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.summaries[summary.SessionID]; ok {
		return repository.ErrDuplicate
	}
	r.summaries[summary.SessionID] = *summary
	return nil
}

func (r *SummaryRepo) GetBySession(_ context.Context, sessionID string) (*model.SessionSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.summaries[sessionID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *SummaryRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.summaries)
}

// AccountRepo is an in-memory repository.AccountRepo
type AccountRepo struct {
	mu       sync.Mutex
	accounts map[string]model.Account
}

func NewAccountRepo() *AccountRepo {
	return &AccountRepo{accounts: map[string]model.Account{}}
}

func (r *AccountRepo) Create(_ context.Context, account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			return repository.ErrDuplicate
		}
	}
	r.accounts[account.ID] = *account
	return nil
}

func (r *AccountRepo) GetByID(_ context.Context, id string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (r *AccountRepo) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Email == email {
			c := a
			return &c, nil
		}
	}
	return nil, nil
}

func (r *AccountRepo) IncrementUsage(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.ResponsesUsedThisMonth++
	r.accounts[id] = a
	return nil
}

// SurveyCache is an in-memory cache.SurveyCache
type SurveyCache struct {
	mu     sync.Mutex
	byID   map[string]model.Survey
	byCode map[string]string
}

func NewSurveyCache() *SurveyCache {
	return &SurveyCache{byID: map[string]model.Survey{}, byCode: map[string]string{}}
}

func (c *SurveyCache) Set(_ context.Context, survey *model.Survey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID[survey.ID] = cloneSurvey(*survey)
	c.byCode[survey.ShortCode] = survey.ID
	return nil
}

func (c *SurveyCache) Get(_ context.Context, id string) (*model.Survey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.byID[id]
	if !ok {
		return nil, nil
	}
	out := cloneSurvey(s)
	return &out, nil
}

func (c *SurveyCache) GetByShortCode(ctx context.Context, code string) (*model.Survey, error) {
	c.mu.Lock()
	id, ok := c.byCode[code]
	c.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return c.Get(ctx, id)
}

func (c *SurveyCache) Delete(_ context.Context, survey *model.Survey) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byID, survey.ID)
	delete(c.byCode, survey.ShortCode)
	return nil
}

// SessionCache is an in-memory cache.SessionCache
type SessionCache struct {
	mu       sync.Mutex
	sessions map[string]model.Session
}

func NewSessionCache() *SessionCache {
	return &SessionCache{sessions: map[string]model.Session{}}
}

func (c *SessionCache) Set(_ context.Context, session *model.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[session.ID] = *session
	return nil
}

func (c *SessionCache) Get(_ context.Context, id string) (*model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (c *SessionCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
	return nil
}

// Queue is an in-memory summary queue backed by a buffered channel
type Queue struct {
	mu    sync.Mutex
	items chan string
	all   []string
}

func NewQueue() *Queue {
	return &Queue{items: make(chan string, 64)}
}

func (q *Queue) Enqueue(_ context.Context, sessionID string) error {
	q.mu.Lock()
	q.all = append(q.all, sessionID)
	q.mu.Unlock()
	q.items <- sessionID
	return nil
}

func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	select {
	case id := <-q.items:
		return id, nil
	case <-time.After(timeout):
		return "", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Enqueued returns every id ever enqueued, in order
func (q *Queue) Enqueued() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.all...)
}

// Event is one message captured by Broadcaster
type Event struct {
	Target  string
	Type    string
	Payload interface{}
}

// Broadcaster records every event it is asked to send
type Broadcaster struct {
	mu         sync.Mutex
	Respondent []Event
	Managers   []Event
}

func (b *Broadcaster) ToRespondent(sessionID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Respondent = append(b.Respondent, Event{Target: sessionID, Type: msgType, Payload: payload})
}

func (b *Broadcaster) ToManagers(surveyID, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Managers = append(b.Managers, Event{Target: surveyID, Type: msgType, Payload: payload})
}

// Count returns how many events of msgType were sent to either audience
func (b *Broadcaster) Count(msgType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range append(append([]Event(nil), b.Respondent...), b.Managers...) {
		if e.Type == msgType {
			n++
		}
	}
	return n
}

// LLM is a scripted llm.Client. Respond decides the reply for each request.
type LLM struct {
	mu       sync.Mutex
	Respond  func(ctx context.Context, req llm.Request) (string, error)
	Requests []llm.Request
}

var errNoScript = errors.New("testutil: no response scripted")

func (c *LLM) Complete(ctx context.Context, req llm.Request) (string, error) {
	c.mu.Lock()
	c.Requests = append(c.Requests, req)
	c.mu.Unlock()
	if c.Respond == nil {
		return "", errNoScript
	}
	return c.Respond(ctx, req)
}

// Calls reports how many requests reached the client
func (c *LLM) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Requests)
}
