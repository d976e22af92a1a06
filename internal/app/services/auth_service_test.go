package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/advoga/advoga/internal/app/models"
	"github.com/advoga/advoga/internal/app/models/dto"
	"github.com/advoga/advoga/internal/pkg/apperrors"
	"github.com/advoga/advoga/internal/pkg/auth"
)

func newTestJWT() *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 720 * time.Hour,
		TokenIssuer:     "advoga.app",
	})
}

func hashedUser(t *testing.T, email, password string, active bool) *models.User {
	t.Helper()
	hashed, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return &models.User{
		ID:        "user-" + email,
		TenantID:  "tenant-1",
		Email:     email,
		Password:  hashed,
		FirstName: "Ana",
		LastName:  "Souza",
		RoleType:  models.RoleLawyer,
		IsActive:  active,
	}
}

func TestLoginUserIssuesTokenPair(t *testing.T) {
	jwtSvc := newTestJWT()
	user := hashedUser(t, "ana@escritorio.adv.br", "Senha123!", true)
	svc := NewAuthService(newFakeUsers(user), newFakeClients(), jwtSvc, zerolog.Nop())

	resp, err := svc.LoginUser(context.Background(), &dto.LoginRequest{
		Email:    "ana@escritorio.adv.br",
		Password: "Senha123!",
	})
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if resp.Token.AccessToken == "" || resp.Token.RefreshToken == "" {
		t.Fatal("expected both access and refresh tokens")
	}

	claims, err := jwtSvc.ValidateAndExtractClaims(resp.Token.AccessToken)
	if err != nil {
		t.Fatalf("access token did not validate: %v", err)
	}
	if claims.ActorID != user.ID || claims.IsClient {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestLoginUserRejectsBadCredentials(t *testing.T) {
	user := hashedUser(t, "ana@escritorio.adv.br", "Senha123!", true)
	svc := NewAuthService(newFakeUsers(user), newFakeClients(), newTestJWT(), zerolog.Nop())

	_, err := svc.LoginUser(context.Background(), &dto.LoginRequest{
		Email:    "ana@escritorio.adv.br",
		Password: "wrong",
	})
	if !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", err)
	}

	// Unknown email maps to the same error so accounts cannot be enumerated
	_, err = svc.LoginUser(context.Background(), &dto.LoginRequest{
		Email:    "nobody@escritorio.adv.br",
		Password: "Senha123!",
	})
	if !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginInactiveAccountRejected(t *testing.T) {
	user := hashedUser(t, "ana@escritorio.adv.br", "Senha123!", false)
	svc := NewAuthService(newFakeUsers(user), newFakeClients(), newTestJWT(), zerolog.Nop())

	_, err := svc.LoginUser(context.Background(), &dto.LoginRequest{
		Email:    "ana@escritorio.adv.br",
		Password: "Senha123!",
	})
	if !errors.Is(err, apperrors.ErrAccountDisabled) {
		t.Fatalf("got %v, want ErrAccountDisabled", err)
	}
}

func TestRefreshTokenReissuesAndHonorsDeactivation(t *testing.T) {
	user := hashedUser(t, "ana@escritorio.adv.br", "Senha123!", true)
	svc := NewAuthService(newFakeUsers(user), newFakeClients(), newTestJWT(), zerolog.Nop())

	resp, err := svc.LoginUser(context.Background(), &dto.LoginRequest{
		Email:    "ana@escritorio.adv.br",
		Password: "Senha123!",
	})
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}

	token, err := svc.RefreshToken(context.Background(), resp.Token.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if token.AccessToken == "" {
		t.Fatal("expected a new access token")
	}

	user.IsActive = false
	if _, err := svc.RefreshToken(context.Background(), resp.Token.RefreshToken); !errors.Is(err, apperrors.ErrAccountDisabled) {
		t.Fatalf("deactivated user refresh: got %v, want ErrAccountDisabled", err)
	}
}

func TestRegisterUserCreatesLoginableAccount(t *testing.T) {
	users := newFakeUsers()
	svc := NewAuthService(users, newFakeClients(), newTestJWT(), zerolog.Nop())

	created, err := svc.RegisterUser(context.Background(), "tenant-1", &dto.RegisterUserRequest{
		Email:     "novo@escritorio.adv.br",
		Password:  "Senha123!",
		FirstName: "Novo",
		LastName:  "Advogado",
		RoleType:  "LAWYER",
	})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if created.Password == "Senha123!" {
		t.Fatal("password stored in plaintext")
	}
	if !created.IsActive {
		t.Fatal("new accounts should start active")
	}

	if _, err := svc.LoginUser(context.Background(), &dto.LoginRequest{
		Email:    "novo@escritorio.adv.br",
		Password: "Senha123!",
	}); err != nil {
		t.Fatalf("login with registered credentials: %v", err)
	}

	_, err = svc.RegisterUser(context.Background(), "tenant-1", &dto.RegisterUserRequest{
		Email:     "novo@escritorio.adv.br",
		Password:  "Outra123!",
		FirstName: "Outro",
		LastName:  "Advogado",
		RoleType:  "STAFF",
	})
	if !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
		t.Fatalf("duplicate email: got %v, want ErrEmailAlreadyExists", err)
	}
}
