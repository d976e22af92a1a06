package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/advoga/advoga/internal/app/models"
)

// MessageStatusRepository handles per-recipient delivery state rows
type MessageStatusRepository struct {
	db *pgxpool.Pool
}

func NewMessageStatusRepository(db *pgxpool.Pool) *MessageStatusRepository {
	return &MessageStatusRepository{db: db}
}

// Upsert writes the delivery status of a message for one recipient. The latest
// write wins regardless of status value; a late "delivered" after a "read"
// overwrites it, matching what the provider actually reported last.
func (r *MessageStatusRepository) Upsert(ctx context.Context, messageID, recipientID string, isClient bool, status models.DeliveryStatus, statusAt time.Time) error {
	if statusAt.IsZero() {
		statusAt = time.Now()
	}

	var query string
	if isClient {
		query = `
			INSERT INTO message_statuses (message_id, client_id, status, status_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (message_id, client_id) WHERE client_id IS NOT NULL
			DO UPDATE SET status = EXCLUDED.status, status_at = EXCLUDED.status_at`
	} else {
		query = `
			INSERT INTO message_statuses (message_id, user_id, status, status_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (message_id, user_id) WHERE user_id IS NOT NULL
			DO UPDATE SET status = EXCLUDED.status, status_at = EXCLUDED.status_at`
	}

	if _, err := r.db.Exec(ctx, query, messageID, recipientID, status, statusAt); err != nil {
		return fmt.Errorf("failed to upsert message status: %w", err)
	}
	return nil
}

// ListByMessage returns all per-recipient statuses recorded for a message
func (r *MessageStatusRepository) ListByMessage(ctx context.Context, messageID string) ([]*models.MessageStatus, error) {
	query := `
		SELECT id, message_id, user_id, client_id, status, status_at, created_at
		FROM message_statuses
		WHERE message_id = $1
		ORDER BY status_at ASC`

	rows, err := r.db.Query(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list message statuses: %w", err)
	}
	defer rows.Close()

	var statuses []*models.MessageStatus
	for rows.Next() {
		var s models.MessageStatus
		if err := rows.Scan(&s.ID, &s.MessageID, &s.UserID, &s.ClientID,
			&s.Status, &s.StatusAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message status: %w", err)
		}
		statuses = append(statuses, &s)
	}
	return statuses, rows.Err()
}
