package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fydbak/internal/model"
	"fydbak/internal/testutil"
)

func TestRegisterAndLogin(t *testing.T) {
	svc := NewAuthService(testutil.NewAccountRepo(), "secret")
	ctx := context.Background()
	creds := model.CredentialsRequest{Email: " Lead@Example.com ", Password: "correct horse"}

	reg, err := svc.Register(ctx, creds)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := svc.ValidateManagerToken(reg.Token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.AccountID != reg.AccountID {
		t.Errorf("claims.AccountID = %s, want %s", claims.AccountID, reg.AccountID)
	}

	account, err := svc.GetAccount(ctx, reg.AccountID)
	if err != nil {
		t.Fatal(err)
	}
	if account.Email != "lead@example.com" || account.PasswordHash == creds.Password || account.Plan != defaultPlan {
		t.Errorf("account = %+v", account)
	}

	if _, err := svc.Register(ctx, creds); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate register: err = %v, want ErrEmailTaken", err)
	}

	login, err := svc.Login(ctx, model.CredentialsRequest{Email: "lead@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatal(err)
	}
	if login.AccountID != reg.AccountID {
		t.Errorf("login account = %s", login.AccountID)
	}

	if _, err := svc.Login(ctx, model.CredentialsRequest{Email: "lead@example.com", Password: "wrong password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, err := svc.Login(ctx, model.CredentialsRequest{Email: "nobody@example.com", Password: "whatever1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(testutil.NewAccountRepo(), "secret")
	for _, c := range []model.CredentialsRequest{
		{Email: "not-an-email", Password: "long enough"},
		{Email: "a@b.co", Password: "short"},
	} {
		if _, err := svc.Register(context.Background(), c); !errors.Is(err, ErrWeakCredentials) {
			t.Errorf("Register(%+v): err = %v, want ErrWeakCredentials", c, err)
		}
	}
}

func TestTokens(t *testing.T) {
	svc := NewAuthService(testutil.NewAccountRepo(), "secret")
	other := NewAuthService(testutil.NewAccountRepo(), "other-secret")

	token, err := svc.GenerateRespondentToken("sess-1", "survey-1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.ValidateRespondentToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("foreign secret: err = %v", err)
	}
	if _, err := svc.ValidateManagerToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("respondent token accepted as manager token")
	}

	svc.now = func() time.Time { return time.Now().Add(respondentTTL + time.Hour) }
	if _, err := svc.ValidateRespondentToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: err = %v", err)
	}
}
