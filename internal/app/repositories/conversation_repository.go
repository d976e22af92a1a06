package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/advoga/advoga/internal/app/models"
	"github.com/advoga/advoga/internal/pkg/apperrors"
)

// ConversationRepository handles database operations for conversations
type ConversationRepository struct {
	db *pgxpool.Pool
}

func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// ConversationFilter narrows ListByTenant results. Zero values mean no filter.
type ConversationFilter struct {
	Status   models.ConversationStatus
	Type     models.ConversationType
	ClientID string
	MatterID string
}

const conversationColumns = `id, tenant_id, matter_id, client_id, title, conversation_type, status, priority,
	whatsapp_enabled, whatsapp_phone, last_message_at, created_at, updated_at`

func scanConversation(row pgx.Row) (*models.Conversation, error) {
	var c models.Conversation
	err := row.Scan(&c.ID, &c.TenantID, &c.MatterID, &c.ClientID, &c.Title, &c.Type,
		&c.Status, &c.Priority, &c.WhatsAppEnabled, &c.WhatsAppPhone,
		&c.LastMessageAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	query := `
		INSERT INTO conversations (tenant_id, matter_id, client_id, title, conversation_type,
			status, priority, whatsapp_enabled, whatsapp_phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		conv.TenantID, conv.MatterID, conv.ClientID, conv.Title, conv.Type,
		conv.Status, conv.Priority, conv.WhatsAppEnabled, conv.WhatsAppPhone,
	).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}
	return nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	query := fmt.Sprintf(`SELECT %s FROM conversations WHERE id = $1`, conversationColumns)

	conv, err := scanConversation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

// FindActiveByWhatsAppPhone resolves an inbound WhatsApp number to the active
// conversation bound to it. Numbers map to at most one active conversation;
// the most recently updated one wins if operators ever bound duplicates.
func (r *ConversationRepository) FindActiveByWhatsAppPhone(ctx context.Context, phone string) (*models.Conversation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM conversations
		WHERE whatsapp_phone = $1 AND whatsapp_enabled = true AND status = $2
		ORDER BY updated_at DESC
		LIMIT 1`, conversationColumns)

	conv, err := scanConversation(r.db.QueryRow(ctx, query, phone, models.ConversationActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to find conversation by whatsapp phone: %w", err)
	}
	return conv, nil
}

func (r *ConversationRepository) ListByTenant(ctx context.Context, tenantID string, filter ConversationFilter) ([]*models.Conversation, error) {
	builder := sq.Select(conversationColumns).
		From("conversations").
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("last_message_at DESC NULLS LAST", "created_at DESC").
		PlaceholderFormat(sq.Dollar)

	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}
	if filter.Type != "" {
		builder = builder.Where(sq.Eq{"conversation_type": filter.Type})
	}
	if filter.ClientID != "" {
		builder = builder.Where(sq.Eq{"client_id": filter.ClientID})
	}
	if filter.MatterID != "" {
		builder = builder.Where(sq.Eq{"matter_id": filter.MatterID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build conversation query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	return conversations, rows.Err()
}

// ListForParticipant returns the conversations an actor takes part in,
// newest activity first.
func (r *ConversationRepository) ListForParticipant(ctx context.Context, actorID string, isClient bool) ([]*models.Conversation, error) {
	actorColumn := "cp.user_id"
	if isClient {
		actorColumn = "cp.client_id"
	}
	query := fmt.Sprintf(`
		SELECT c.id, c.tenant_id, c.matter_id, c.client_id, c.title, c.conversation_type, c.status, c.priority,
			c.whatsapp_enabled, c.whatsapp_phone, c.last_message_at, c.created_at, c.updated_at
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id
		WHERE %s = $1
		ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC`, actorColumn)

	rows, err := r.db.Query(ctx, query, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations for participant: %w", err)
	}
	defer rows.Close()

	var conversations []*models.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}
	return conversations, rows.Err()
}

func (r *ConversationRepository) UpdateStatus(ctx context.Context, id string, status models.ConversationStatus) error {
	query := `UPDATE conversations SET status = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to update conversation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrConversationNotFound
	}
	return nil
}

func (r *ConversationRepository) UpdatePriority(ctx context.Context, id string, priority models.ConversationPriority) error {
	query := `UPDATE conversations SET priority = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, priority)
	if err != nil {
		return fmt.Errorf("failed to update conversation priority: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrConversationNotFound
	}
	return nil
}

// TouchLastMessage records message activity so conversation lists sort by recency
func (r *ConversationRepository) TouchLastMessage(ctx context.Context, id string) error {
	query := `UPDATE conversations SET last_message_at = NOW(), updated_at = NOW() WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}
