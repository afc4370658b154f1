package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"fydbak/internal/service"
	"fydbak/internal/transport/rest/middleware"
)

// ChatHandler handles the respondent conversation endpoints
type ChatHandler struct {
	chatSvc *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatSvc *service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

// StartSessionRequest is the optional body for starting a session
type StartSessionRequest struct {
	RespondentLabel string `json:"respondentLabel"`
}

// AnswerRequest is the body for submitting an answer
type AnswerRequest struct {
	Answer string `json:"answer"`
}

// Start handles POST /v1/s/{shortCode}/sessions
//
//	@Summary	Start a survey session
//	@Tags		chat
//	@Accept		json
//	@Produce	json
//	@Param		shortCode	path		string				true	"Survey short code"
//	@Param		body		body		StartSessionRequest	false	"Respondent label"
//	@Success	201			{object}	model.StartResult
//	@Failure	404,410		{object}	map[string]string
//	@Router		/v1/s/{shortCode}/sessions [post]
func (h *ChatHandler) Start(w http.ResponseWriter, r *http.Request) {
	shortCode := mux.Vars(r)["shortCode"]

	// the body is optional
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.chatSvc.StartSession(r.Context(), shortCode, req.RespondentLabel)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// Answer handles POST /v1/sessions/{sessionId}/answers
//
//	@Summary	Submit an answer or a clarification reply
//	@Tags		chat
//	@Accept		json
//	@Produce	json
//	@Param		sessionId	path		string			true	"Session ID"
//	@Param		body		body		AnswerRequest	true	"Answer"
//	@Success	200			{object}	model.TurnResult
//	@Failure	400,404,409	{object}	map[string]string
//	@Security	BearerAuth
//	@Router		/v1/sessions/{sessionId}/answers [post]
func (h *ChatHandler) Answer(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.ownSession(w, r)
	if !ok {
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.chatSvc.SubmitAnswer(r.Context(), sessionID, req.Answer)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Skip handles POST /v1/sessions/{sessionId}/skip
func (h *ChatHandler) Skip(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.ownSession(w, r)
	if !ok {
		return
	}

	res, err := h.chatSvc.Skip(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Abandon handles POST /v1/sessions/{sessionId}/abandon
func (h *ChatHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.ownSession(w, r)
	if !ok {
		return
	}

	if err := h.chatSvc.Abandon(r.Context(), sessionID); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "abandoned"})
}

// State handles GET /v1/sessions/{sessionId}/state
func (h *ChatHandler) State(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.ownSession(w, r)
	if !ok {
		return
	}

	state, err := h.chatSvc.GetState(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// ownSession checks the path session against the token's session
func (h *ChatHandler) ownSession(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := mux.Vars(r)["sessionId"]
	if sessionID != middleware.GetSessionID(r.Context()) {
		writeError(w, http.StatusForbidden, "token not valid for this session")
		return "", false
	}
	return sessionID, true
}
