package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"fydbak/internal/service"
	"fydbak/internal/transport/rest/middleware"
)

// ReportHandler handles the manager's session views
type ReportHandler struct {
	reportSvc *service.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportSvc *service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// ListSessions handles GET /v1/surveys/{surveyId}/sessions
func (h *ReportHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]

	sessions, err := h.reportSvc.ListSessions(r.Context(), middleware.GetAccountID(r.Context()), surveyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": sessions})
}

// SessionDetail handles GET /v1/sessions/{sessionId}/detail
func (h *ReportHandler) SessionDetail(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	detail, err := h.reportSvc.SessionDetail(r.Context(), middleware.GetAccountID(r.Context()), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}
