package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"fydbak/internal/config"
	"fydbak/internal/model"
	"fydbak/internal/repository"
)

func main() {
	email := flag.String("email", "demo@fydbak.local", "manager account email")
	password := flag.String("password", "demo-password", "manager account password")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fatal("failed to load config", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		fatal("failed to connect to MongoDB", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB)
	accounts := repository.NewAccountRepo(ctx, db)
	surveys := repository.NewSurveyRepo(ctx, db)

	account, err := accounts.GetByEmail(ctx, *email)
	if err != nil {
		fatal("failed to look up account", err)
	}
	if account == nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			fatal("failed to hash password", err)
		}
		account = &model.Account{
			ID:           uuid.NewString(),
			Email:        *email,
			PasswordHash: string(hash),
			Plan:         "free",
			CreatedAt:    time.Now().UTC(),
		}
		if err := accounts.Create(ctx, account); err != nil {
			fatal("failed to create account", err)
		}
	}

	now := time.Now().UTC()
	survey := &model.Survey{
		ID:              uuid.NewString(),
		ManagerID:       account.ID,
		Title:           "Restaurant Service Feedback",
		Description:     "Tell us about your visit so we can improve.",
		Goal:            "Improve dinner service",
		GoalDescription: "Understand wait times, staff attentiveness and food quality during evening service.",
		ShortCode:       strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6]),
		Status:          model.SurveyActive,
		Questions: []model.Question{
			{ID: uuid.NewString(), Text: "What did you think of the service?", OrderIndex: 0},
			{ID: uuid.NewString(), Text: "How was the food compared to what you expected?", OrderIndex: 1},
			{ID: uuid.NewString(), Text: "What is one thing we should change before your next visit?", OrderIndex: 2},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := surveys.Create(ctx, survey); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			fatal("short code collision, run the seed again", err)
		}
		fatal("failed to insert survey", err)
	}

	fmt.Printf("Seeded account %s (%s)\n", account.Email, account.ID)
	fmt.Printf("Survey %q: short code %s\n", survey.Title, survey.ShortCode)
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
