package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fydbak/internal/model"
	"fydbak/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrWeakCredentials    = errors.New("a valid email and a password of at least 8 characters are required")
)

const (
	minPasswordLength = 8
	managerTokenTTL   = 7 * 24 * time.Hour
	respondentTTL     = 24 * time.Hour
	defaultPlan       = "free"
)

// AuthService handles manager accounts and respondent session tokens
type AuthService struct {
	accounts  repository.AccountRepo
	jwtSecret []byte
	now       func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(accounts repository.AccountRepo, secret string) *AuthService {
	return &AuthService{
		accounts:  accounts,
		jwtSecret: []byte(secret),
		now:       time.Now,
	}
}

// Register creates a manager account and logs it in
func (s *AuthService) Register(ctx context.Context, req model.CredentialsRequest) (*model.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil || len(req.Password) < minPasswordLength {
		return nil, ErrWeakCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &model.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Plan:         defaultPlan,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	return s.issueManagerToken(account.ID)
}

// Login validates credentials and returns a manager token
func (s *AuthService) Login(ctx context.Context, req model.CredentialsRequest) (*model.LoginResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueManagerToken(account.ID)
}

// GetAccount returns the account with its usage counter
func (s *AuthService) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

func (s *AuthService) issueManagerToken(accountID string) (*model.LoginResponse, error) {
	now := s.now()
	claims := &model.ManagerClaims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(managerTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:     tokenString,
		AccountID: accountID,
	}, nil
}

// ValidateManagerToken validates a manager JWT and returns claims
func (s *AuthService) ValidateManagerToken(tokenString string) (*model.ManagerClaims, error) {
	claims := &model.ManagerClaims{}
	if err := s.parse(tokenString, claims); err != nil || claims.AccountID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateRespondentToken creates a session-scoped token for a respondent
func (s *AuthService) GenerateRespondentToken(sessionID, surveyID string) (string, error) {
	now := s.now()
	claims := &model.RespondentClaims{
		SessionID: sessionID,
		SurveyID:  surveyID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(respondentTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateRespondentToken validates a respondent JWT and returns claims
func (s *AuthService) ValidateRespondentToken(tokenString string) (*model.RespondentClaims, error) {
	claims := &model.RespondentClaims{}
	if err := s.parse(tokenString, claims); err != nil || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return err
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
