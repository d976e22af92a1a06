package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/advoga/advoga/internal/app/models"
	"github.com/advoga/advoga/internal/app/models/dto"
	"github.com/advoga/advoga/internal/pkg/apperrors"
	"github.com/advoga/advoga/internal/pkg/auth"
)

// UserAuthStore is the staff-user surface the auth service needs
type UserAuthStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	AddPushToken(ctx context.Context, id, token string) error
}

// ClientAuthStore is the portal-client surface the auth service needs
type ClientAuthStore interface {
	GetByID(ctx context.Context, id string) (*models.Client, error)
	GetByEmail(ctx context.Context, email string) (*models.Client, error)
	AddPushToken(ctx context.Context, id, token string) error
}

// AuthService defines the interface for authentication operations
type AuthService interface {
	LoginUser(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	LoginClient(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	RegisterUser(ctx context.Context, tenantID string, req *dto.RegisterUserRequest) (*models.User, error)
	RegisterPushToken(ctx context.Context, actor Actor, token string) error
}

// authServiceImpl implements AuthService
type authServiceImpl struct {
	users   UserAuthStore
	clients ClientAuthStore
	jwt     *auth.JWTService
	logger  zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(users UserAuthStore, clients ClientAuthStore, jwtService *auth.JWTService, logger zerolog.Logger) AuthService {
	return &authServiceImpl{
		users:   users,
		clients: clients,
		jwt:     jwtService,
		logger:  logger,
	}
}

// LoginUser authenticates a staff member by email and password
func (s *authServiceImpl) LoginUser(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	token, err := s.issueTokens(user.ID, user.Email, string(user.RoleType), user.FullName(), false)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("userId", user.ID).Msg("Staff login")
	return &dto.AuthResponse{Token: *token, User: user}, nil
}

// LoginClient authenticates a portal client by email and password
func (s *authServiceImpl) LoginClient(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	client, err := s.clients.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrClientNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(client.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !client.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	token, err := s.issueTokens(client.ID, client.Email, "", client.Name, true)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("clientId", client.ID).Msg("Client login")
	return &dto.AuthResponse{Token: *token, User: client}, nil
}

// RefreshToken exchanges a valid refresh token for a fresh pair. The actor
// is re-read so deactivation takes effect at the next refresh.
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwt.ValidateAndExtractClaims(refreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrTokenInvalid
	}

	if claims.IsClient {
		client, err := s.clients.GetByID(ctx, claims.ActorID)
		if err != nil {
			return nil, apperrors.ErrTokenInvalid
		}
		if !client.IsActive {
			return nil, apperrors.ErrAccountDisabled
		}
		return s.issueTokens(client.ID, client.Email, "", client.Name, true)
	}

	user, err := s.users.GetByID(ctx, claims.ActorID)
	if err != nil {
		return nil, apperrors.ErrTokenInvalid
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}
	return s.issueTokens(user.ID, user.Email, string(user.RoleType), user.FullName(), false)
}

// RegisterUser creates a new staff account in the caller's tenant
func (s *authServiceImpl) RegisterUser(ctx context.Context, tenantID string, req *dto.RegisterUserRequest) (*models.User, error) {
	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		TenantID:  tenantID,
		Email:     req.Email,
		Password:  hashed,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		RoleType:  models.RoleType(req.RoleType),
		IsActive:  true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("userId", user.ID).Str("role", req.RoleType).Msg("Staff account registered")
	return user, nil
}

// RegisterPushToken stores a device token for the authenticated actor
func (s *authServiceImpl) RegisterPushToken(ctx context.Context, actor Actor, token string) error {
	if actor.IsClient {
		return s.clients.AddPushToken(ctx, actor.ID, token)
	}
	return s.users.AddPushToken(ctx, actor.ID, token)
}

func (s *authServiceImpl) issueTokens(actorID, email, roleType, name string, isClient bool) (*dto.TokenResponse, error) {
	access, refresh, expiresIn, refreshExpiresIn, err := s.jwt.GenerateTokenPair(actorID, email, roleType, name, isClient)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken:           access,
		TokenType:             "Bearer",
		ExpiresIn:             int64(expiresIn),
		RefreshToken:          refresh,
		RefreshTokenExpiresIn: int64(refreshExpiresIn),
	}, nil
}
