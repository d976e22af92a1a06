package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/advoga/advoga/internal/app/models"
	"github.com/advoga/advoga/internal/pkg/dberrors"
)

// ParticipantRepository handles database operations for conversation membership
type ParticipantRepository struct {
	db *pgxpool.Pool
}

func NewParticipantRepository(db *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Add(ctx context.Context, p *models.ConversationParticipant) error {
	query := `
		INSERT INTO conversation_participants (conversation_id, user_id, client_id, participant_type, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, joined_at`

	err := r.db.QueryRow(ctx, query,
		p.ConversationID, p.UserID, p.ClientID, p.Type, p.Role,
	).Scan(&p.ID, &p.JoinedAt)
	if err != nil {
		// Re-adding an existing participant is a no-op for callers
		if dberrors.IsDuplicateError(err) {
			return nil
		}
		return fmt.Errorf("failed to add participant: %w", err)
	}
	return nil
}

func (r *ParticipantRepository) ListByConversation(ctx context.Context, conversationID string) ([]*models.ConversationParticipant, error) {
	query := `
		SELECT id, conversation_id, user_id, client_id, participant_type, role, joined_at, last_read_at
		FROM conversation_participants
		WHERE conversation_id = $1
		ORDER BY joined_at ASC`

	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.ConversationParticipant
	for rows.Next() {
		var p models.ConversationParticipant
		if err := rows.Scan(&p.ID, &p.ConversationID, &p.UserID, &p.ClientID,
			&p.Type, &p.Role, &p.JoinedAt, &p.LastReadAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, &p)
	}
	return participants, rows.Err()
}

// IsParticipant reports whether an actor belongs to a conversation. It backs
// both API-level access checks and websocket subscription authorization.
func (r *ParticipantRepository) IsParticipant(ctx context.Context, conversationID, actorID string, isClient bool) (bool, error) {
	actorColumn := "user_id"
	if isClient {
		actorColumn = "client_id"
	}
	query := fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM conversation_participants
			WHERE conversation_id = $1 AND %s = $2
		)`, actorColumn)

	var exists bool
	if err := r.db.QueryRow(ctx, query, conversationID, actorID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	return exists, nil
}

// UpdateLastRead moves the actor's read marker to now
func (r *ParticipantRepository) UpdateLastRead(ctx context.Context, conversationID, actorID string, isClient bool) error {
	actorColumn := "user_id"
	if isClient {
		actorColumn = "client_id"
	}
	query := fmt.Sprintf(`
		UPDATE conversation_participants
		SET last_read_at = NOW()
		WHERE conversation_id = $1 AND %s = $2`, actorColumn)

	if _, err := r.db.Exec(ctx, query, conversationID, actorID); err != nil {
		return fmt.Errorf("failed to update last read: %w", err)
	}
	return nil
}
