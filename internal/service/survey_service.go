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

const (
	shortCodeLength   = 6
	shortCodeAttempts = 5
)

// SurveyService handles survey CRUD operations
type SurveyService struct {
	surveyRepo repository.SurveyRepo
	cache      cache.SurveyCache
	now        func() time.Time
}

// NewSurveyService creates a new survey service
func NewSurveyService(surveyRepo repository.SurveyRepo, surveyCache cache.SurveyCache) *SurveyService {
	return &SurveyService{
		surveyRepo: surveyRepo,
		cache:      surveyCache,
		now:        time.Now,
	}
}

// Create validates and stores a new survey, assigning IDs, order and a short code
func (s *SurveyService) Create(ctx context.Context, survey *model.Survey) (*model.Survey, error) {
	survey.Title = strings.TrimSpace(survey.Title)
	if survey.Title == "" || survey.ManagerID == "" {
		return nil, ErrInvalidSurvey
	}

	questions := make([]model.Question, 0, len(survey.Questions))
	for _, q := range survey.Questions {
		q.Text = strings.TrimSpace(q.Text)
		if q.Text == "" {
			continue
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, ErrInvalidSurvey
	}
	model.SortQuestions(questions)
	for i := range questions {
		questions[i].OrderIndex = i
	}

	survey.ID = uuid.NewString()
	survey.Questions = questions
	survey.Status = model.SurveyActive
	survey.CreatedAt = s.now().UTC()
	survey.UpdatedAt = survey.CreatedAt

	for attempt := 0; attempt < shortCodeAttempts; attempt++ {
		survey.ShortCode = newShortCode()
		err := s.surveyRepo.Create(ctx, survey)
		if err == nil {
			return survey, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("create survey: %w", err)
		}
	}
	return nil, fmt.Errorf("create survey: no free short code after %d attempts", shortCodeAttempts)
}

// GetByID retrieves a survey by ID, reading through the cache
func (s *SurveyService) GetByID(ctx context.Context, id string) (*model.Survey, error) {
	if cached, err := s.cache.Get(ctx, id); err != nil {
		slog.Warn("survey cache read failed", "survey_id", id, "error", err)
	} else if cached != nil {
		return cached, nil
	}

	survey, err := s.surveyRepo.GetByID(ctx, id)
	if err != nil || survey == nil {
		return survey, err
	}
	s.store(ctx, survey)
	return survey, nil
}

// GetByShortCode resolves the public code respondents use to open a survey
func (s *SurveyService) GetByShortCode(ctx context.Context, code string) (*model.Survey, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}

	if cached, err := s.cache.GetByShortCode(ctx, code); err != nil {
		slog.Warn("survey cache read failed", "short_code", code, "error", err)
	} else if cached != nil {
		return cached, nil
	}

	survey, err := s.surveyRepo.GetByShortCode(ctx, code)
	if err != nil || survey == nil {
		return survey, err
	}
	s.store(ctx, survey)
	return survey, nil
}

// GetOwned retrieves a survey and checks it belongs to the manager
func (s *SurveyService) GetOwned(ctx context.Context, managerID, id string) (*model.Survey, error) {
	survey, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return nil, ErrSurveyNotFound
	}
	if survey.ManagerID != managerID {
		return nil, ErrForbidden
	}
	return survey, nil
}

// ListByManager retrieves all surveys for a manager
func (s *SurveyService) ListByManager(ctx context.Context, managerID string) ([]*model.Survey, error) {
	return s.surveyRepo.ListByManager(ctx, managerID)
}

// Close stops a survey from accepting new sessions
func (s *SurveyService) Close(ctx context.Context, managerID, id string) error {
	survey, err := s.GetOwned(ctx, managerID, id)
	if err != nil {
		return err
	}
	if err := s.surveyRepo.SetStatus(ctx, id, model.SurveyClosed); err != nil {
		return fmt.Errorf("close survey: %w", err)
	}
	if err := s.cache.Delete(ctx, survey); err != nil {
		slog.Warn("survey cache delete failed", "survey_id", id, "error", err)
	}
	return nil
}

func (s *SurveyService) store(ctx context.Context, survey *model.Survey) {
	if err := s.cache.Set(ctx, survey); err != nil {
		slog.Warn("survey cache write failed", "survey_id", survey.ID, "error", err)
	}
}

func newShortCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:shortCodeLength])
}
