package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"fydbak/internal/model"
	"fydbak/internal/service"
)

// AnalysisHandler serves the two analysis endpoints used by chat clients
type AnalysisHandler struct {
	evaluator *service.EvaluatorService
	reportSvc *service.ReportService
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(evaluator *service.EvaluatorService, reportSvc *service.ReportService) *AnalysisHandler {
	return &AnalysisHandler{
		evaluator: evaluator,
		reportSvc: reportSvc,
	}
}

// GenerateSummaryRequest is the body of POST /generate-summary
type GenerateSummaryRequest struct {
	SessionID string `json:"sessionId"`
}

// AnalyzeResponse handles POST /analyze-response
//
//	@Summary	Moderate and evaluate one answer
//	@Tags		analysis
//	@Accept		json
//	@Produce	json
//	@Param		body	body		model.AnalyzeRequest	true	"Question and answer"
//	@Success	200		{object}	model.Analysis
//	@Failure	400,500	{object}	map[string]string
//	@Router		/analyze-response [post]
func (h *AnalysisHandler) AnalyzeResponse(w http.ResponseWriter, r *http.Request) {
	var req model.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("analyze-response: invalid body", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	analysis, err := h.evaluator.Analyze(r.Context(), req)
	if errors.Is(err, service.ErrMissingFields) {
		writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if err != nil {
		slog.Error("analyze-response failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

// GenerateSummary handles POST /generate-summary
//
//	@Summary	Summarize a session (idempotent)
//	@Tags		analysis
//	@Accept		json
//	@Produce	json
//	@Param		body	body		GenerateSummaryRequest	true	"Session"
//	@Success	200		{object}	map[string]interface{}
//	@Failure	400,500	{object}	map[string]string
//	@Router		/generate-summary [post]
func (h *AnalysisHandler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req GenerateSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("generate-summary: invalid body", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		writeError(w, http.StatusBadRequest, "Missing sessionId")
		return
	}

	summary, created, err := h.reportSvc.GenerateSummary(r.Context(), req.SessionID)
	if err != nil {
		slog.Error("generate-summary failed", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if !created {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Summary already exists",
			"id":      summary.ID,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"summary": summary,
	})
}
