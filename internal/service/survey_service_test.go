package service

import (
	"context"
	"errors"
	"testing"

	"fydbak/internal/model"
	"fydbak/internal/testutil"
)

func TestSurveyCreate(t *testing.T) {
	svc := NewSurveyService(testutil.NewSurveyRepo(), testutil.NewSurveyCache())

	survey, err := svc.Create(context.Background(), &model.Survey{
		ManagerID: testManagerID,
		Title:     "  Team pulse ",
		Questions: []model.Question{
			{Text: "Second?", OrderIndex: 5},
			{Text: "   "},
			{Text: "First?", OrderIndex: 1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if survey.Title != "Team pulse" || survey.Status != model.SurveyActive {
		t.Errorf("survey = %+v", survey)
	}
	if len(survey.ShortCode) != shortCodeLength {
		t.Errorf("ShortCode = %q", survey.ShortCode)
	}
	if len(survey.Questions) != 2 {
		t.Fatalf("got %d questions, want blank ones dropped", len(survey.Questions))
	}
	for i, want := range []string{"First?", "Second?"} {
		q := survey.Questions[i]
		if q.Text != want || q.OrderIndex != i || q.ID == "" {
			t.Errorf("Questions[%d] = %+v", i, q)
		}
	}
	if survey.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestSurveyCreateValidation(t *testing.T) {
	svc := NewSurveyService(testutil.NewSurveyRepo(), testutil.NewSurveyCache())
	ctx := context.Background()

	cases := map[string]*model.Survey{
		"no title":     {ManagerID: testManagerID, Questions: []model.Question{{Text: "Q"}}},
		"no manager":   {Title: "T", Questions: []model.Question{{Text: "Q"}}},
		"no questions": {ManagerID: testManagerID, Title: "T"},
	}
	for name, s := range cases {
		if _, err := svc.Create(ctx, s); !errors.Is(err, ErrInvalidSurvey) {
			t.Errorf("%s: err = %v, want ErrInvalidSurvey", name, err)
		}
	}
}

func TestSurveyOwnershipAndClose(t *testing.T) {
	h := newHarness(t, "Q1")
	ctx := context.Background()

	if _, err := h.surveySvc.GetOwned(ctx, "intruder", h.survey.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
	if err := h.surveySvc.Close(ctx, "intruder", h.survey.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("close by intruder: err = %v, want ErrForbidden", err)
	}
	if err := h.surveySvc.Close(ctx, testManagerID, h.survey.ID); err != nil {
		t.Fatal(err)
	}

	got, err := h.surveySvc.GetByID(ctx, h.survey.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.SurveyClosed {
		t.Errorf("status = %s, want closed after cache invalidation", got.Status)
	}

	list, err := h.surveySvc.ListByManager(ctx, testManagerID)
	if err != nil || len(list) != 1 {
		t.Errorf("ListByManager = %v, %v", list, err)
	}
}
