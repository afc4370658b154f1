// Package app wires repositories, caches, services and transports into one
// runnable application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"fydbak/internal/cache"
	"fydbak/internal/config"
	"fydbak/internal/llm"
	"fydbak/internal/repository"
	"fydbak/internal/service"
	"fydbak/internal/transport/rest"
	"fydbak/internal/transport/ws"
)

type App struct {
	Config *config.Config

	SurveyRepo   repository.SurveyRepo
	SessionRepo  repository.SessionRepo
	ResponseRepo repository.ResponseRepo
	SummaryRepo  repository.SummaryRepo
	AccountRepo  repository.AccountRepo

	SurveyCache  cache.SurveyCache
	SessionCache cache.SessionCache
	SummaryQueue *cache.SummaryQueue

	Auth      *service.AuthService
	Surveys   *service.SurveyService
	Evaluator *service.EvaluatorService
	Chat      *service.ChatService
	Reports   *service.ReportService
	Worker    *service.SummaryWorker

	Hub *ws.Hub

	wg sync.WaitGroup
}

// New builds the application on top of connected Mongo and Redis clients
func New(ctx context.Context, cfg *config.Config, db *mongo.Database, rdb *redis.Client) (*App, error) {
	a := &App{
		Config:       cfg,
		SurveyRepo:   repository.NewSurveyRepo(ctx, db),
		SessionRepo:  repository.NewSessionRepo(ctx, db),
		ResponseRepo: repository.NewResponseRepo(ctx, db),
		SummaryRepo:  repository.NewSummaryRepo(ctx, db),
		AccountRepo:  repository.NewAccountRepo(ctx, db),
		SurveyCache:  cache.NewSurveyCache(rdb),
		SessionCache: cache.NewSessionCache(rdb),
		SummaryQueue: cache.NewSummaryQueue(rdb, cfg.SummaryQueueKey),
	}

	var client llm.Client
	if cfg.AI.IsEnabled() {
		c, err := llm.New(&cfg.AI)
		if err != nil {
			return nil, fmt.Errorf("ai client: %w", err)
		}
		client = c
		slog.Info("AI evaluation enabled", "provider", cfg.AI.Provider, "evaluate_model", cfg.AI.Models.Evaluate, "summary_model", cfg.AI.Models.Summary)
	} else {
		slog.Info("AI evaluation disabled, using rule-based evaluator")
	}

	a.Auth = service.NewAuthService(a.AccountRepo, cfg.JWTSecret)
	a.Surveys = service.NewSurveyService(a.SurveyRepo, a.SurveyCache)
	a.Evaluator = service.NewEvaluatorService(&cfg.AI, client)
	a.Chat = service.NewChatService(a.Surveys, a.SessionRepo, a.ResponseRepo, a.AccountRepo, a.Evaluator, a.Auth, a.SessionCache, a.SummaryQueue)
	a.Reports = service.NewReportService(a.SessionRepo, a.ResponseRepo, a.SummaryRepo, a.Surveys, a.Evaluator)
	a.Worker = service.NewSummaryWorker(a.SummaryQueue, a.Reports, cfg.SummaryWorkers)

	// Inject broadcaster (Hub implements service.Broadcaster)
	a.Hub = ws.NewHub()
	a.Chat.SetBroadcaster(a.Hub)
	a.Reports.SetBroadcaster(a.Hub)

	return a, nil
}

// Router returns the HTTP handler for the whole API
func (a *App) Router() http.Handler {
	return rest.NewRouter(&rest.Container{
		AuthService:      a.Auth,
		SurveyService:    a.Surveys,
		ChatService:      a.Chat,
		ReportService:    a.Reports,
		EvaluatorService: a.Evaluator,
		WSHub:            a.Hub,
		AllowedOrigins:   a.Config.CORSAllowedOrigins,
	})
}

// StartBackground runs the summary workers and the idle-session sweeper until ctx ends
func (a *App) StartBackground(ctx context.Context) {
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.Worker.Run(ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.Chat.RunAbandonSweeper(ctx, a.Config.AbandonSweepInterval, a.Config.SessionIdleTimeout)
	}()
	slog.Info("background jobs started", "summary_workers", a.Config.SummaryWorkers, "sweep_interval", a.Config.AbandonSweepInterval)
}

// Wait blocks until background jobs have stopped
func (a *App) Wait() {
	a.wg.Wait()
}
