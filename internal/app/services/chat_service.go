package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/advoga/advoga/internal/app/models"
	"github.com/advoga/advoga/internal/app/models/dto"
	"github.com/advoga/advoga/internal/app/repositories"
	"github.com/advoga/advoga/internal/pkg/apperrors"
	"github.com/advoga/advoga/internal/pkg/websocket"
	"github.com/advoga/advoga/internal/pkg/whatsapp"
)

// MessageStore is the message persistence surface the chat service needs
type MessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	ListByConversation(ctx context.Context, conversationID string, filter repositories.MessageFilter) ([]*models.Message, error)
	UpdateContent(ctx context.Context, id, content string) error
	MarkDeleted(ctx context.Context, id string) error
	SetProviderMessageID(ctx context.Context, id, whatsappMessageID string) error
}

// ConversationStore is the conversation surface the chat service needs
type ConversationStore interface {
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	TouchLastMessage(ctx context.Context, id string) error
}

// ParticipantStore is the membership surface shared by chat and conversations
type ParticipantStore interface {
	Add(ctx context.Context, p *models.ConversationParticipant) error
	ListByConversation(ctx context.Context, conversationID string) ([]*models.ConversationParticipant, error)
	IsParticipant(ctx context.Context, conversationID, actorID string, isClient bool) (bool, error)
	UpdateLastRead(ctx context.Context, conversationID, actorID string, isClient bool) error
}

// StatusStore records per-recipient delivery state
type StatusStore interface {
	Upsert(ctx context.Context, messageID, recipientID string, isClient bool, status models.DeliveryStatus, statusAt time.Time) error
}

// WhatsAppSender is the outbound surface used to mirror staff messages to a
// conversation's bound WhatsApp number
type WhatsAppSender interface {
	Configured() bool
	SendTextMessage(ctx context.Context, to, body string) whatsapp.SendResult
	SendDocument(ctx context.Context, to, link, filename, caption string) whatsapp.SendResult
	SendImage(ctx context.Context, to, link, caption string) whatsapp.SendResult
}

// Actor identifies the authenticated sender of a chat operation
type Actor struct {
	ID       string
	Name     string
	IsClient bool
}

// ChatService defines the interface for message operations
type ChatService interface {
	SendMessage(ctx context.Context, conversationID string, actor Actor, req *dto.SendMessageRequest) (*models.Message, error)
	GetMessages(ctx context.Context, conversationID string, actor Actor, req *dto.GetMessagesRequest) ([]*models.Message, error)
	Typing(ctx context.Context, conversationID string, actor Actor, isTyping bool) error
	EditMessage(ctx context.Context, messageID string, actor Actor, content string) (*models.Message, error)
	DeleteMessage(ctx context.Context, messageID string, actor Actor) error
	MarkConversationRead(ctx context.Context, conversationID string, actor Actor) error
}

// chatServiceImpl implements ChatService
type chatServiceImpl struct {
	messages      MessageStore
	conversations ConversationStore
	participants  ParticipantStore
	statuses      StatusStore
	notifier      NotificationService
	whatsapp      WhatsAppSender
	wsHub         *websocket.Hub
	logger        zerolog.Logger
}

// NewChatService creates a new ChatService
func NewChatService(
	messages MessageStore,
	conversations ConversationStore,
	participants ParticipantStore,
	statuses StatusStore,
	notifier NotificationService,
	whatsappClient WhatsAppSender,
	wsHub *websocket.Hub,
	logger zerolog.Logger,
) ChatService {
	return &chatServiceImpl{
		messages:      messages,
		conversations: conversations,
		participants:  participants,
		statuses:      statuses,
		notifier:      notifier,
		whatsapp:      whatsappClient,
		wsHub:         wsHub,
		logger:        logger,
	}
}

// SendMessage persists a message and only then broadcasts it to connected
// participants and fans out notifications. A message that cannot be stored
// is never seen by anyone.
func (s *chatServiceImpl) SendMessage(ctx context.Context, conversationID string, actor Actor, req *dto.SendMessageRequest) (*models.Message, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.Status != models.ConversationActive {
		return nil, apperrors.ErrConversationClosed
	}

	if err := s.requireParticipant(ctx, conversationID, actor); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ConversationID: conversationID,
		Type:           models.MessageType(req.Type),
		Content:        req.Content,
		FileURL:        req.FileURL,
		FileName:       req.FileName,
		FileSize:       req.FileSize,
		MimeType:       req.MimeType,
		ReplyToID:      req.ReplyToID,
	}
	if actor.IsClient {
		msg.SenderClientID = &actor.ID
	} else {
		msg.SenderUserID = &actor.ID
	}

	if req.ReplyToID != nil {
		target, err := s.messages.GetByID(ctx, *req.ReplyToID)
		if err != nil {
			return nil, err
		}
		if target.ConversationID != conversationID {
			return nil, apperrors.ErrReplyOutsideScope
		}
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	if err := s.conversations.TouchLastMessage(ctx, conversationID); err != nil {
		s.logger.Warn().Err(err).Str("conversationId", conversationID).Msg("Failed to touch conversation")
	}

	s.wsHub.BroadcastMessage(&websocket.MessageEvent{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       actor.ID,
		SenderIsClient: actor.IsClient,
		SenderName:     actor.Name,
		Type:           string(msg.Type),
		Content:        msg.Content,
		FileURL:        msg.FileURL,
		FileName:       msg.FileName,
		ReplyToID:      msg.ReplyToID,
	})

	// Staff replies in a WhatsApp-bound conversation are mirrored to the
	// client's phone. Send failures degrade to in-app only.
	if !actor.IsClient && conv.WhatsAppEnabled && conv.WhatsAppPhone != nil &&
		s.whatsapp != nil && s.whatsapp.Configured() {
		s.mirrorToWhatsApp(ctx, conv, msg)
	}

	participants, err := s.participants.ListByConversation(ctx, conversationID)
	if err != nil {
		s.logger.Error().Err(err).Str("conversationId", conversationID).Msg("Failed to list participants for notification")
		return msg, nil
	}

	s.notifier.Notify(Dispatch{
		Conversation: conv,
		Message:      msg,
		SenderName:   actor.Name,
		Recipients:   excludeActor(participants, actor),
	})

	return msg, nil
}

func (s *chatServiceImpl) mirrorToWhatsApp(ctx context.Context, conv *models.Conversation, msg *models.Message) {
	to := *conv.WhatsAppPhone

	var result whatsapp.SendResult
	switch msg.Type {
	case models.MessageImage:
		if msg.FileURL == nil {
			return
		}
		result = s.whatsapp.SendImage(ctx, to, *msg.FileURL, msg.Content)
	case models.MessageFile, models.MessageDocument:
		if msg.FileURL == nil {
			return
		}
		filename := ""
		if msg.FileName != nil {
			filename = *msg.FileName
		}
		result = s.whatsapp.SendDocument(ctx, to, *msg.FileURL, filename, msg.Content)
	default:
		result = s.whatsapp.SendTextMessage(ctx, to, msg.Content)
	}

	if !result.Success {
		s.logger.Error().
			Str("messageId", msg.ID).
			Str("error", result.Error).
			Msg("Failed to mirror message to WhatsApp")
		return
	}
	if err := s.messages.SetProviderMessageID(ctx, msg.ID, result.MessageID); err != nil {
		s.logger.Warn().Err(err).Str("messageId", msg.ID).Msg("Failed to record provider message id")
	}
}

func (s *chatServiceImpl) GetMessages(ctx context.Context, conversationID string, actor Actor, req *dto.GetMessagesRequest) ([]*models.Message, error) {
	if err := s.requireParticipant(ctx, conversationID, actor); err != nil {
		return nil, err
	}

	filter := repositories.MessageFilter{
		Type:  models.MessageType(req.Type),
		Limit: req.Limit,
	}
	if req.Before != nil {
		filter.Before = *req.Before
	}
	if req.After != nil {
		filter.After = *req.After
	}
	return s.messages.ListByConversation(ctx, conversationID, filter)
}

// Typing broadcasts a typing indicator. Nothing is persisted.
func (s *chatServiceImpl) Typing(ctx context.Context, conversationID string, actor Actor, isTyping bool) error {
	if err := s.requireParticipant(ctx, conversationID, actor); err != nil {
		return err
	}
	s.wsHub.BroadcastTyping(&websocket.TypingEvent{
		ConversationID: conversationID,
		UserID:         actor.ID,
		UserName:       actor.Name,
		IsClient:       actor.IsClient,
		IsTyping:       isTyping,
	})
	return nil
}

// EditMessage updates the content of the actor's own message
func (s *chatServiceImpl) EditMessage(ctx context.Context, messageID string, actor Actor, content string) (*models.Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID() != actor.ID || msg.IsFromClient() != actor.IsClient {
		return nil, apperrors.ErrPermissionDenied
	}
	if err := s.messages.UpdateContent(ctx, messageID, content); err != nil {
		return nil, err
	}
	msg.Content = content
	msg.IsEdited = true
	return msg, nil
}

// DeleteMessage soft-deletes the actor's own message
func (s *chatServiceImpl) DeleteMessage(ctx context.Context, messageID string, actor Actor) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID() != actor.ID || msg.IsFromClient() != actor.IsClient {
		return apperrors.ErrPermissionDenied
	}
	return s.messages.MarkDeleted(ctx, messageID)
}

// readStatusWindow bounds how many recent messages get a materialized read
// status per mark-read call. The participant's read marker covers the rest.
const readStatusWindow = 50

// MarkConversationRead moves the actor's read marker and materializes a read
// status for the recent messages from the other side of the conversation.
func (s *chatServiceImpl) MarkConversationRead(ctx context.Context, conversationID string, actor Actor) error {
	if err := s.requireParticipant(ctx, conversationID, actor); err != nil {
		return err
	}
	if err := s.participants.UpdateLastRead(ctx, conversationID, actor.ID, actor.IsClient); err != nil {
		return err
	}

	msgs, err := s.messages.ListByConversation(ctx, conversationID, repositories.MessageFilter{Limit: readStatusWindow})
	if err != nil {
		s.logger.Warn().Err(err).
			Str("conversationId", conversationID).
			Msg("Failed to list messages for read statuses")
		return nil
	}

	now := time.Now()
	for _, msg := range msgs {
		if msg.Type == models.MessageSystem {
			continue
		}
		if msg.SenderID() == actor.ID && msg.IsFromClient() == actor.IsClient {
			continue
		}
		if err := s.statuses.Upsert(ctx, msg.ID, actor.ID, actor.IsClient, models.StatusRead, now); err != nil {
			s.logger.Warn().Err(err).
				Str("messageId", msg.ID).
				Msg("Failed to record read status")
		}
	}
	return nil
}

func (s *chatServiceImpl) requireParticipant(ctx context.Context, conversationID string, actor Actor) error {
	ok, err := s.participants.IsParticipant(ctx, conversationID, actor.ID, actor.IsClient)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrNotParticipant
	}
	return nil
}

func excludeActor(participants []*models.ConversationParticipant, actor Actor) []*models.ConversationParticipant {
	out := make([]*models.ConversationParticipant, 0, len(participants))
	for _, p := range participants {
		if p.RecipientID() == actor.ID && p.IsClient() == actor.IsClient {
			continue
		}
		out = append(out, p)
	}
	return out
}
