package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"fydbak/internal/model"
	"fydbak/internal/service"
	"fydbak/internal/transport/rest/middleware"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Register handles POST /v1/auth/register
//
//	@Summary	Create a manager account
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		model.CredentialsRequest	true	"Credentials"
//	@Success	201		{object}	model.LoginResponse
//	@Router		/v1/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /v1/auth/login
//
//	@Summary	Log in as a manager
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		model.CredentialsRequest	true	"Credentials"
//	@Success	200		{object}	model.LoginResponse
//	@Router		/v1/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.authSvc.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Account handles GET /v1/account
func (h *AuthHandler) Account(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.GetAccountID(r.Context())
	if accountID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	account, err := h.authSvc.GetAccount(r.Context(), accountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps service sentinels to status codes
func writeServiceError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, service.ErrEmptyAnswer),
		errors.Is(err, service.ErrInvalidSurvey),
		errors.Is(err, service.ErrWeakCredentials),
		errors.Is(err, service.ErrMissingFields):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSurveyNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrSessionClosed),
		errors.Is(err, service.ErrConcurrentUpdate),
		errors.Is(err, service.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, service.ErrSurveyClosed):
		status = http.StatusGone
	default:
		slog.Error("request failed", "error", err)
		status = http.StatusInternalServerError
	}
	writeError(w, status, err.Error())
}
