package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/advoga/advoga/internal/app/models"
	"github.com/advoga/advoga/internal/pkg/apperrors"
)

// MessageRepository handles database operations for chat messages
type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// MessageFilter narrows ListByConversation results. Zero values mean no filter.
type MessageFilter struct {
	Before time.Time
	After  time.Time
	Type   models.MessageType
	Limit  int
}

const messageColumns = `id, conversation_id, sender_user_id, sender_client_id, message_type, content,
	file_url, file_name, file_size, mime_type, whatsapp_message_id, whatsapp_status,
	is_edited, is_deleted, reply_to_id, created_at, updated_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderUserID, &m.SenderClientID,
		&m.Type, &m.Content, &m.FileURL, &m.FileName, &m.FileSize, &m.MimeType,
		&m.WhatsAppMessageID, &m.WhatsAppStatus, &m.IsEdited, &m.IsDeleted,
		&m.ReplyToID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create persists a message. For WhatsApp-originated messages the provider
// message id is unique; a replayed webhook hits the conflict clause, inserts
// nothing and returns ErrDuplicateMessage so callers can skip side effects.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (conversation_id, sender_user_id, sender_client_id, message_type, content,
			file_url, file_name, file_size, mime_type, whatsapp_message_id, whatsapp_status, reply_to_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, COALESCE($13, NOW()))
		ON CONFLICT (whatsapp_message_id) WHERE whatsapp_message_id IS NOT NULL DO NOTHING
		RETURNING id, created_at, updated_at`

	var createdAt *time.Time
	if !msg.CreatedAt.IsZero() {
		createdAt = &msg.CreatedAt
	}

	err := r.db.QueryRow(ctx, query,
		msg.ConversationID, msg.SenderUserID, msg.SenderClientID, msg.Type, msg.Content,
		msg.FileURL, msg.FileName, msg.FileSize, msg.MimeType,
		msg.WhatsAppMessageID, msg.WhatsAppStatus, msg.ReplyToID, createdAt,
	).Scan(&msg.ID, &msg.CreatedAt, &msg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrDuplicateMessage
		}
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM messages WHERE id = $1`, messageColumns)

	msg, err := scanMessage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

// GetByProviderID looks a message up by its WhatsApp message id
func (r *MessageRepository) GetByProviderID(ctx context.Context, whatsappMessageID string) (*models.Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM messages WHERE whatsapp_message_id = $1`, messageColumns)

	msg, err := scanMessage(r.db.QueryRow(ctx, query, whatsappMessageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message by provider id: %w", err)
	}
	return msg, nil
}

// ListByConversation returns messages newest-first, keyset-paged by timestamp
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID string, filter MessageFilter) ([]*models.Message, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	builder := sq.Select(messageColumns).
		From("messages").
		Where(sq.Eq{"conversation_id": conversationID}).
		Where(sq.Eq{"is_deleted": false}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(sq.Dollar)

	if !filter.Before.IsZero() {
		builder = builder.Where(sq.Lt{"created_at": filter.Before})
	}
	if !filter.After.IsZero() {
		builder = builder.Where(sq.Gt{"created_at": filter.After})
	}
	if filter.Type != "" {
		builder = builder.Where(sq.Eq{"message_type": filter.Type})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build message query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (r *MessageRepository) UpdateContent(ctx context.Context, id, content string) error {
	query := `
		UPDATE messages
		SET content = $2, is_edited = true, updated_at = NOW()
		WHERE id = $1 AND is_deleted = false`

	tag, err := r.db.Exec(ctx, query, id, content)
	if err != nil {
		return fmt.Errorf("failed to update message content: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMessageNotFound
	}
	return nil
}

// MarkDeleted soft-deletes a message; the row stays for audit purposes
func (r *MessageRepository) MarkDeleted(ctx context.Context, id string) error {
	query := `UPDATE messages SET is_deleted = true, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMessageNotFound
	}
	return nil
}

// UpdateProviderStatus records the latest delivery state reported by WhatsApp
// for an outbound message. Later webhooks simply overwrite earlier ones.
func (r *MessageRepository) UpdateProviderStatus(ctx context.Context, whatsappMessageID string, status models.DeliveryStatus) error {
	query := `
		UPDATE messages
		SET whatsapp_status = $2, updated_at = NOW()
		WHERE whatsapp_message_id = $1`

	tag, err := r.db.Exec(ctx, query, whatsappMessageID, status)
	if err != nil {
		return fmt.Errorf("failed to update provider status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrMessageNotFound
	}
	return nil
}

// SetProviderMessageID binds an outbound message to the id WhatsApp assigned it
func (r *MessageRepository) SetProviderMessageID(ctx context.Context, id, whatsappMessageID string) error {
	query := `
		UPDATE messages
		SET whatsapp_message_id = $2, updated_at = NOW()
		WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id, whatsappMessageID); err != nil {
		return fmt.Errorf("failed to set provider message id: %w", err)
	}
	return nil
}
