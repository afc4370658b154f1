package model

import "github.com/golang-jwt/jwt/v5"

// ManagerClaims are JWT claims for manager authentication
type ManagerClaims struct {
	AccountID string `json:"accountId"`
	jwt.RegisteredClaims
}

// RespondentClaims are JWT claims scoped to a single survey session
type RespondentClaims struct {
	SessionID string `json:"sessionId"`
	SurveyID  string `json:"surveyId"`
	jwt.RegisteredClaims
}

// CredentialsRequest is the request body for register and login
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned after successful login or registration
type LoginResponse struct {
	Token     string `json:"token"`
	AccountID string `json:"accountId"`
}
