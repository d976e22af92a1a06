package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/advoga/advoga/internal/app/models"
)

// PreferenceRepository handles stored notification preferences
type PreferenceRepository struct {
	db *pgxpool.Pool
}

func NewPreferenceRepository(db *pgxpool.Pool) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// Get returns the stored preference for a recipient, or nil when no row
// exists. The caller decides whether to fall back to defaults.
func (r *PreferenceRepository) Get(ctx context.Context, recipientID string, isClient bool) (*models.NotificationPreference, error) {
	actorColumn := "user_id"
	if isClient {
		actorColumn = "client_id"
	}
	query := fmt.Sprintf(`
		SELECT id, user_id, client_id, email_enabled, push_enabled, whatsapp_enabled,
			urgent_only, business_hours_only, updated_at
		FROM notification_preferences
		WHERE %s = $1`, actorColumn)

	var p models.NotificationPreference
	err := r.db.QueryRow(ctx, query, recipientID).Scan(
		&p.ID, &p.UserID, &p.ClientID, &p.EmailEnabled, &p.PushEnabled,
		&p.WhatsAppEnabled, &p.UrgentOnly, &p.BusinessHoursOnly, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notification preference: %w", err)
	}
	return &p, nil
}

// Upsert stores the full preference row for a recipient, creating it on first save
func (r *PreferenceRepository) Upsert(ctx context.Context, pref *models.NotificationPreference) error {
	var query string
	var actorID *string
	if pref.ClientID != nil {
		actorID = pref.ClientID
		query = `
			INSERT INTO notification_preferences (client_id, email_enabled, push_enabled,
				whatsapp_enabled, urgent_only, business_hours_only)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (client_id) WHERE client_id IS NOT NULL
			DO UPDATE SET email_enabled = EXCLUDED.email_enabled,
				push_enabled = EXCLUDED.push_enabled,
				whatsapp_enabled = EXCLUDED.whatsapp_enabled,
				urgent_only = EXCLUDED.urgent_only,
				business_hours_only = EXCLUDED.business_hours_only,
				updated_at = NOW()
			RETURNING id, updated_at`
	} else {
		actorID = pref.UserID
		query = `
			INSERT INTO notification_preferences (user_id, email_enabled, push_enabled,
				whatsapp_enabled, urgent_only, business_hours_only)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (user_id) WHERE user_id IS NOT NULL
			DO UPDATE SET email_enabled = EXCLUDED.email_enabled,
				push_enabled = EXCLUDED.push_enabled,
				whatsapp_enabled = EXCLUDED.whatsapp_enabled,
				urgent_only = EXCLUDED.urgent_only,
				business_hours_only = EXCLUDED.business_hours_only,
				updated_at = NOW()
			RETURNING id, updated_at`
	}

	err := r.db.QueryRow(ctx, query, actorID,
		pref.EmailEnabled, pref.PushEnabled, pref.WhatsAppEnabled,
		pref.UrgentOnly, pref.BusinessHoursOnly,
	).Scan(&pref.ID, &pref.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert notification preference: %w", err)
	}
	return nil
}
