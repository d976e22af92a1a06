package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/advoga/advoga/internal/app/models"
	"github.com/advoga/advoga/internal/pkg/apperrors"
	"github.com/advoga/advoga/internal/pkg/dberrors"
)

// UserRepository handles database operations for staff users
type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, tenant_id, email, password, first_name, last_name, role_type, phone, push_tokens, is_active, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.TenantID, &u.Email, &u.Password, &u.FirstName, &u.LastName,
		&u.RoleType, &u.Phone, &u.PushTokens, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (tenant_id, email, password, first_name, last_name, role_type, phone, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		user.TenantID, user.Email, user.Password, user.FirstName, user.LastName,
		user.RoleType, user.Phone, user.IsActive,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
			return apperrors.ErrEmailAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)

	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)

	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// FirstActiveLawyer returns the longest-standing active lawyer of a tenant.
// Used when an inbound conversation needs a staff participant assigned.
func (r *UserRepository) FirstActiveLawyer(ctx context.Context, tenantID string) (*models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users
		WHERE tenant_id = $1 AND role_type = $2 AND is_active = true
		ORDER BY created_at ASC
		LIMIT 1`, userColumns)

	user, err := scanUser(r.db.QueryRow(ctx, query, tenantID, models.RoleLawyer))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find active lawyer: %w", err)
	}
	return user, nil
}

func (r *UserRepository) AddPushToken(ctx context.Context, id, token string) error {
	query := `
		UPDATE users
		SET push_tokens = array_append(push_tokens, $2), updated_at = NOW()
		WHERE id = $1 AND NOT ($2 = ANY(push_tokens))`

	if _, err := r.db.Exec(ctx, query, id, token); err != nil {
		return fmt.Errorf("failed to add push token: %w", err)
	}
	return nil
}
