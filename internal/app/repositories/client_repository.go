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

// ClientRepository handles database operations for portal clients
type ClientRepository struct {
	db *pgxpool.Pool
}

func NewClientRepository(db *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{db: db}
}

const clientColumns = `id, tenant_id, name, email, password, phone, mobile, whatsapp, is_active, push_tokens, last_login_at, created_at, updated_at`

func scanClient(row pgx.Row) (*models.Client, error) {
	var c models.Client
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Password,
		&c.Phone, &c.Mobile, &c.WhatsApp, &c.IsActive, &c.PushTokens,
		&c.LastLogin, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (tenant_id, name, email, password, phone, mobile, whatsapp, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		client.TenantID, client.Name, client.Email, client.Password,
		client.Phone, client.Mobile, client.WhatsApp, client.IsActive,
	).Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "clients_email_key") {
			return apperrors.ErrEmailAlreadyExists
		}
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id string) (*models.Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE id = $1`, clientColumns)

	client, err := scanClient(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client by id: %w", err)
	}
	return client, nil
}

func (r *ClientRepository) GetByEmail(ctx context.Context, email string) (*models.Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE email = $1`, clientColumns)

	client, err := scanClient(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client by email: %w", err)
	}
	return client, nil
}

// FindByPhone matches a normalized WhatsApp number against any of the client's
// phone columns comparing digits only, so stored formatting ("(11) 99999-8888")
// still matches the provider's "5511999998888" form.
func (r *ClientRepository) FindByPhone(ctx context.Context, phone string) (*models.Client, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM clients
		WHERE is_active = true AND (
			regexp_replace(COALESCE(whatsapp, ''), '\D', '', 'g') IN ($1, $2) OR
			regexp_replace(COALESCE(mobile, ''), '\D', '', 'g') IN ($1, $2) OR
			regexp_replace(COALESCE(phone, ''), '\D', '', 'g') IN ($1, $2)
		)
		ORDER BY created_at ASC
		LIMIT 1`, clientColumns)

	// Match both the full international form and the local form without the
	// country code, since contacts are often stored without the 55 prefix.
	local := phone
	if len(phone) > 2 && phone[:2] == "55" {
		local = phone[2:]
	}

	client, err := scanClient(r.db.QueryRow(ctx, query, phone, local))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to find client by phone: %w", err)
	}
	return client, nil
}

func (r *ClientRepository) AddPushToken(ctx context.Context, id, token string) error {
	query := `
		UPDATE clients
		SET push_tokens = array_append(push_tokens, $2), updated_at = NOW()
		WHERE id = $1 AND NOT ($2 = ANY(push_tokens))`

	if _, err := r.db.Exec(ctx, query, id, token); err != nil {
		return fmt.Errorf("failed to add push token: %w", err)
	}
	return nil
}
