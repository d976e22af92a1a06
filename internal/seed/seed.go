package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appModels "github.com/advoga/advoga/internal/app/models"
	appRepos "github.com/advoga/advoga/internal/app/repositories"
	"github.com/advoga/advoga/internal/pkg/apperrors"
	"github.com/advoga/advoga/internal/pkg/auth"
)

// defaultTenantID anchors the seeded accounts. Multi-tenant installs replace
// it during provisioning.
const defaultTenantID = "00000000-0000-0000-0000-000000000001"

// CreateDefaultData creates the default admin and lawyer accounts if they
// don't exist. It is safe to run on every startup.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool, lgr zerolog.Logger) error {
	userRepo := appRepos.NewUserRepository(dbPool)

	lgr.Info().Msg("Checking/Creating default accounts...")
	var finalErr error

	defaults := []struct {
		email     string
		password  string
		firstName string
		lastName  string
		role      appModels.RoleType
	}{
		{"admin@escritorio.adv.br", "Admin123!", "Administrador", "Sistema", appModels.RoleAdmin},
		{"advogado@escritorio.adv.br", "Advogado123!", "Advogado", "Responsavel", appModels.RoleLawyer},
	}

	for _, d := range defaults {
		_, err := userRepo.GetByEmail(ctx, d.email)
		if err == nil {
			continue
		}
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			lgr.Error().Err(err).Str("email", d.email).Msg("Error checking default account")
			finalErr = errors.Join(finalErr, err)
			continue
		}

		hashed, err := auth.HashPassword(d.password)
		if err != nil {
			lgr.Error().Err(err).Str("email", d.email).Msg("Error hashing default account password")
			finalErr = errors.Join(finalErr, err)
			continue
		}

		user := &appModels.User{
			TenantID:  defaultTenantID,
			Email:     d.email,
			Password:  hashed,
			FirstName: d.firstName,
			LastName:  d.lastName,
			RoleType:  d.role,
			IsActive:  true,
		}
		if err := userRepo.Create(ctx, user); err != nil && !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			lgr.Error().Err(err).Str("email", d.email).Msg("Error creating default account")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		lgr.Info().Str("email", d.email).Str("role", string(d.role)).Msg("Default account created")
	}

	return finalErr
}
