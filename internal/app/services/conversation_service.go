package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/advoga/advoga/internal/app/models"
	"github.com/advoga/advoga/internal/app/models/dto"
	"github.com/advoga/advoga/internal/app/repositories"
	"github.com/advoga/advoga/internal/pkg/apperrors"
	"github.com/advoga/advoga/internal/pkg/whatsapp"
)

// ConversationRepo is the conversation persistence surface
type ConversationRepo interface {
	Create(ctx context.Context, conv *models.Conversation) error
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	ListByTenant(ctx context.Context, tenantID string, filter repositories.ConversationFilter) ([]*models.Conversation, error)
	ListForParticipant(ctx context.Context, actorID string, isClient bool) ([]*models.Conversation, error)
	UpdateStatus(ctx context.Context, id string, status models.ConversationStatus) error
	UpdatePriority(ctx context.Context, id string, priority models.ConversationPriority) error
}

// UserLookup resolves staff users when building participant lists
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ConversationService defines the interface for conversation lifecycle operations
type ConversationService interface {
	Create(ctx context.Context, tenantID string, creator Actor, req *dto.CreateConversationRequest) (*models.Conversation, error)
	GetByID(ctx context.Context, id string, actor Actor) (*models.Conversation, error)
	List(ctx context.Context, tenantID string, actor Actor, req *dto.ListConversationsRequest) ([]*models.Conversation, error)
	UpdateStatus(ctx context.Context, id string, actor Actor, status models.ConversationStatus) error
	UpdatePriority(ctx context.Context, id string, actor Actor, priority models.ConversationPriority) error
}

// conversationServiceImpl implements ConversationService
type conversationServiceImpl struct {
	conversations ConversationRepo
	participants  ParticipantStore
	clients       ClientDirectory
	users         UserLookup
	logger        zerolog.Logger
}

// NewConversationService creates a new ConversationService
func NewConversationService(
	conversations ConversationRepo,
	participants ParticipantStore,
	clients ClientDirectory,
	users UserLookup,
	logger zerolog.Logger,
) ConversationService {
	return &conversationServiceImpl{
		conversations: conversations,
		participants:  participants,
		clients:       clients,
		users:         users,
		logger:        logger,
	}
}

// Create opens a conversation. Every conversation is anchored to a client;
// the creating staff member joins as owner and any extra staff as
// participants. Clients cannot open conversations directly.
func (s *conversationServiceImpl) Create(ctx context.Context, tenantID string, creator Actor, req *dto.CreateConversationRequest) (*models.Conversation, error) {
	if creator.IsClient {
		return nil, apperrors.ErrPermissionDenied
	}

	client, err := s.clients.GetByID(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	priority := models.PriorityNormal
	if req.Priority != "" {
		priority = models.ConversationPriority(req.Priority)
	}
	if models.ConversationType(req.Type) == models.ConversationUrgent {
		priority = models.PriorityUrgent
	}

	conv := &models.Conversation{
		TenantID:        tenantID,
		MatterID:        req.MatterID,
		ClientID:        &client.ID,
		Title:           req.Title,
		Type:            models.ConversationType(req.Type),
		Status:          models.ConversationActive,
		Priority:        priority,
		WhatsAppEnabled: req.WhatsAppEnabled,
	}
	if req.WhatsAppPhone != nil {
		normalized := whatsapp.FormatPhoneNumber(*req.WhatsAppPhone)
		conv.WhatsAppPhone = &normalized
	} else if req.WhatsAppEnabled && client.WhatsApp != nil {
		normalized := whatsapp.FormatPhoneNumber(*client.WhatsApp)
		conv.WhatsAppPhone = &normalized
	}

	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}

	creatorUser, err := s.users.GetByID(ctx, creator.ID)
	if err != nil {
		return nil, err
	}

	members := []*models.ConversationParticipant{
		{
			ConversationID: conv.ID,
			UserID:         &creatorUser.ID,
			Type:           participantTypeFor(creatorUser.RoleType),
			Role:           models.RoleOwner,
		},
		{
			ConversationID: conv.ID,
			ClientID:       &client.ID,
			Type:           models.ParticipantClient,
			Role:           models.RoleParticipant,
		},
	}
	for _, userID := range req.ParticipantIDs {
		if userID == creator.ID {
			continue
		}
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			s.logger.Warn().Err(err).Str("userId", userID).Msg("Skipping unknown participant")
			continue
		}
		members = append(members, &models.ConversationParticipant{
			ConversationID: conv.ID,
			UserID:         &user.ID,
			Type:           participantTypeFor(user.RoleType),
			Role:           models.RoleParticipant,
		})
	}

	for _, member := range members {
		if err := s.participants.Add(ctx, member); err != nil {
			return nil, err
		}
	}
	conv.Participants = members
	conv.Client = client

	s.logger.Info().
		Str("conversationId", conv.ID).
		Str("clientId", client.ID).
		Str("type", string(conv.Type)).
		Msg("Conversation created")
	return conv, nil
}

func (s *conversationServiceImpl) GetByID(ctx context.Context, id string, actor Actor) (*models.Conversation, error) {
	ok, err := s.participants.IsParticipant(ctx, id, actor.ID, actor.IsClient)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrNotParticipant
	}

	conv, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	conv.Participants, err = s.participants.ListByConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// List returns the actor's conversations. Admins see the whole tenant;
// everyone else sees only conversations they take part in.
func (s *conversationServiceImpl) List(ctx context.Context, tenantID string, actor Actor, req *dto.ListConversationsRequest) ([]*models.Conversation, error) {
	if !actor.IsClient {
		user, err := s.users.GetByID(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		if user.RoleType == models.RoleAdmin {
			return s.conversations.ListByTenant(ctx, tenantID, repositories.ConversationFilter{
				Status:   models.ConversationStatus(req.Status),
				Type:     models.ConversationType(req.Type),
				ClientID: req.ClientID,
				MatterID: req.MatterID,
			})
		}
	}
	return s.conversations.ListForParticipant(ctx, actor.ID, actor.IsClient)
}

func (s *conversationServiceImpl) UpdateStatus(ctx context.Context, id string, actor Actor, status models.ConversationStatus) error {
	if actor.IsClient {
		return apperrors.ErrPermissionDenied
	}
	if err := s.conversations.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info().Str("conversationId", id).Str("status", string(status)).Msg("Conversation status changed")
	return nil
}

func (s *conversationServiceImpl) UpdatePriority(ctx context.Context, id string, actor Actor, priority models.ConversationPriority) error {
	if actor.IsClient {
		return apperrors.ErrPermissionDenied
	}
	return s.conversations.UpdatePriority(ctx, id, priority)
}

// participantTypeFor maps a staff role onto the participant type column
func participantTypeFor(role models.RoleType) models.ParticipantType {
	switch role {
	case models.RoleLawyer:
		return models.ParticipantLawyer
	case models.RoleAdmin:
		return models.ParticipantAdmin
	default:
		return models.ParticipantStaff
	}
}
