package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/swaggo/swag"

	_ "fydbak/internal/docs"
	"fydbak/internal/service"
	"fydbak/internal/transport/rest/handler"
	"fydbak/internal/transport/rest/middleware"
	"fydbak/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService      *service.AuthService
	SurveyService    *service.SurveyService
	ChatService      *service.ChatService
	ReportService    *service.ReportService
	EvaluatorService *service.EvaluatorService
	WSHub            *ws.Hub
	AllowedOrigins   []string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	surveyHandler := handler.NewSurveyHandler(c.SurveyService)
	chatHandler := handler.NewChatHandler(c.ChatService)
	reportHandler := handler.NewReportHandler(c.ReportService)
	analysisHandler := handler.NewAnalysisHandler(c.EvaluatorService, c.ReportService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.SurveyService, c.AllowedOrigins)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// Analysis endpoints keep their original unversioned paths
	r.HandleFunc("/analyze-response", analysisHandler.AnalyzeResponse).Methods("POST")
	r.HandleFunc("/generate-summary", analysisHandler.GenerateSummary).Methods("POST")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(doc))
	}).Methods("GET")

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	v1.HandleFunc("/s/{shortCode}/sessions", chatHandler.Start).Methods("POST")

	// WebSocket routes (token in query param)
	v1.HandleFunc("/ws/sessions/{sessionId}", wsHandler.RespondentWS).Methods("GET")
	v1.HandleFunc("/ws/surveys/{surveyId}", wsHandler.ManagerWS).Methods("GET")

	// Respondent routes (session-scoped token)
	respondentRoutes := v1.NewRoute().Subrouter()
	respondentRoutes.Use(authMW.RequireRespondent)

	respondentRoutes.HandleFunc("/sessions/{sessionId}/answers", chatHandler.Answer).Methods("POST")
	respondentRoutes.HandleFunc("/sessions/{sessionId}/skip", chatHandler.Skip).Methods("POST")
	respondentRoutes.HandleFunc("/sessions/{sessionId}/abandon", chatHandler.Abandon).Methods("POST")
	respondentRoutes.HandleFunc("/sessions/{sessionId}/state", chatHandler.State).Methods("GET")

	// Manager routes
	managerRoutes := v1.NewRoute().Subrouter()
	managerRoutes.Use(authMW.RequireManager)

	managerRoutes.HandleFunc("/account", authHandler.Account).Methods("GET")
	managerRoutes.HandleFunc("/surveys", surveyHandler.Create).Methods("POST")
	managerRoutes.HandleFunc("/surveys", surveyHandler.List).Methods("GET")
	managerRoutes.HandleFunc("/surveys/{surveyId}", surveyHandler.Get).Methods("GET")
	managerRoutes.HandleFunc("/surveys/{surveyId}/close", surveyHandler.Close).Methods("POST")
	managerRoutes.HandleFunc("/surveys/{surveyId}/sessions", reportHandler.ListSessions).Methods("GET")
	managerRoutes.HandleFunc("/sessions/{sessionId}/detail", reportHandler.SessionDetail).Methods("GET")

	return corsHandler(c.AllowedOrigins).Handler(r)
}

func corsHandler(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
}
