package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"fydbak/internal/model"
	"fydbak/internal/service"
	"fydbak/internal/transport/rest/middleware"
)

// SurveyHandler handles survey endpoints
type SurveyHandler struct {
	surveySvc *service.SurveyService
}

// NewSurveyHandler creates a new survey handler
func NewSurveyHandler(surveySvc *service.SurveyService) *SurveyHandler {
	return &SurveyHandler{surveySvc: surveySvc}
}

// CreateSurveyRequest is the request body for creating a survey
type CreateSurveyRequest struct {
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Goal            string           `json:"goal"`
	GoalDescription string           `json:"goalDescription"`
	ClosesAt        *time.Time       `json:"closesAt"`
	WelcomeMessage  string           `json:"welcomeMessage"`
	ThankYouMessage string           `json:"thankYouMessage"`
	Questions       []model.Question `json:"questions"`
}

// Create handles POST /v1/surveys
//
//	@Summary	Create a survey
//	@Tags		surveys
//	@Accept		json
//	@Produce	json
//	@Param		body	body		CreateSurveyRequest	true	"Survey"
//	@Success	201		{object}	model.Survey
//	@Security	BearerAuth
//	@Router		/v1/surveys [post]
func (h *SurveyHandler) Create(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateSurveyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	survey, err := h.surveySvc.Create(r.Context(), &model.Survey{
		ManagerID:       accountID,
		Title:           req.Title,
		Description:     req.Description,
		Goal:            req.Goal,
		GoalDescription: req.GoalDescription,
		ClosesAt:        req.ClosesAt,
		WelcomeMessage:  req.WelcomeMessage,
		ThankYouMessage: req.ThankYouMessage,
		Questions:       req.Questions,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, survey)
}

// Get handles GET /v1/surveys/{surveyId}
func (h *SurveyHandler) Get(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]

	survey, err := h.surveySvc.GetOwned(r.Context(), middleware.GetAccountID(r.Context()), surveyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, survey)
}

// List handles GET /v1/surveys
func (h *SurveyHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	surveys, err := h.surveySvc.ListByManager(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"surveys": surveys})
}

// Close handles POST /v1/surveys/{surveyId}/close
func (h *SurveyHandler) Close(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]

	if err := h.surveySvc.Close(r.Context(), middleware.GetAccountID(r.Context()), surveyID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(model.SurveyClosed)})
}
