package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/advoga/advoga/internal/app/models"
	"github.com/advoga/advoga/internal/pkg/apperrors"
)

// NotificationRepository handles database operations for chat notifications
type NotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.ChatNotification) error {
	query := `
		INSERT INTO chat_notifications (user_id, client_id, conversation_id, message_id,
			notification_type, title, content)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		n.UserID, n.ClientID, n.ConversationID, n.MessageID,
		n.Type, n.Title, n.Content,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// MarkSent records the channels that delivery was actually attempted on
func (r *NotificationRepository) MarkSent(ctx context.Context, id string, channels []models.NotificationChannel) error {
	sent := make([]string, len(channels))
	for i, c := range channels {
		sent[i] = string(c)
	}

	query := `UPDATE chat_notifications SET is_sent = true, channels = $2 WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, sent)
	if err != nil {
		return fmt.Errorf("failed to mark notification sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}

// MarkRead marks a notification read if it belongs to the given recipient
func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string, isClient bool) error {
	actorColumn := "user_id"
	if isClient {
		actorColumn = "client_id"
	}
	query := fmt.Sprintf(`
		UPDATE chat_notifications
		SET is_read = true, read_at = NOW()
		WHERE id = $1 AND %s = $2 AND is_read = false`, actorColumn)

	tag, err := r.db.Exec(ctx, query, id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead marks every unread notification of a recipient as read,
// optionally scoped to one conversation. Returns the number updated.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID string, isClient bool, conversationID string) (int64, error) {
	actorColumn := "user_id"
	if isClient {
		actorColumn = "client_id"
	}

	builder := sq.Update("chat_notifications").
		Set("is_read", true).
		Set("read_at", sq.Expr("NOW()")).
		Where(sq.Eq{actorColumn: recipientID}).
		Where(sq.Eq{"is_read": false}).
		PlaceholderFormat(sq.Dollar)

	if conversationID != "" {
		builder = builder.Where(sq.Eq{"conversation_id": conversationID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build mark-all-read query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListUnread returns a recipient's unread notifications, newest first
func (r *NotificationRepository) ListUnread(ctx context.Context, recipientID string, isClient bool, limit int) ([]*models.ChatNotification, error) {
	actorColumn := "user_id"
	if isClient {
		actorColumn = "client_id"
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, client_id, conversation_id, message_id, notification_type,
			title, content, is_read, read_at, is_sent, channels, created_at
		FROM chat_notifications
		WHERE %s = $1 AND is_read = false
		ORDER BY created_at DESC
		LIMIT $2`, actorColumn)

	rows, err := r.db.Query(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unread notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.ChatNotification
	for rows.Next() {
		var n models.ChatNotification
		var channels []string
		if err := rows.Scan(&n.ID, &n.UserID, &n.ClientID, &n.ConversationID, &n.MessageID,
			&n.Type, &n.Title, &n.Content, &n.IsRead, &n.ReadAt, &n.IsSent, &channels, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Channels = make([]models.NotificationChannel, len(channels))
		for i, c := range channels {
			n.Channels[i] = models.NotificationChannel(c)
		}
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// CountUnread returns how many unread notifications a recipient has
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID string, isClient bool) (int, error) {
	actorColumn := "user_id"
	if isClient {
		actorColumn = "client_id"
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM chat_notifications WHERE %s = $1 AND is_read = false`, actorColumn)

	var count int
	if err := r.db.QueryRow(ctx, query, recipientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
