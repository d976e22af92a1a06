package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/advoga/advoga/internal/app/models"
	"github.com/advoga/advoga/internal/pkg/apperrors"
	"github.com/advoga/advoga/internal/pkg/businesshours"
	"github.com/advoga/advoga/internal/pkg/websocket"
	"github.com/advoga/advoga/internal/pkg/whatsapp"
)

const autoReplyText = "Olá! Recebemos sua mensagem fora do nosso horário de atendimento " +
	"(segunda a sexta das 9h às 18h, sábado das 9h às 12h). " +
	"Retornaremos assim que possível."

// topicRule maps an inbound keyword to a conversation title and priority
type topicRule struct {
	keyword  string
	title    string
	priority models.ConversationPriority
}

// Checked in order; the first keyword found in the message wins
var topicRules = []topicRule{
	{"urgente", "Urgente", models.PriorityUrgent},
	{"documento", "Documentos", models.PriorityNormal},
	{"audiencia", "Audiências e Prazos", models.PriorityHigh},
	{"audiência", "Audiências e Prazos", models.PriorityHigh},
	{"prazo", "Audiências e Prazos", models.PriorityHigh},
	{"consulta", "Consulta Jurídica", models.PriorityNormal},
	{"duvida", "Consulta Jurídica", models.PriorityNormal},
	{"dúvida", "Consulta Jurídica", models.PriorityNormal},
}

// InboundConversationStore is the conversation surface for webhook routing
type InboundConversationStore interface {
	Create(ctx context.Context, conv *models.Conversation) error
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	FindActiveByWhatsAppPhone(ctx context.Context, phone string) (*models.Conversation, error)
	TouchLastMessage(ctx context.Context, id string) error
}

// ClientFinder resolves inbound phone numbers to clients
type ClientFinder interface {
	GetByID(ctx context.Context, id string) (*models.Client, error)
	FindByPhone(ctx context.Context, phone string) (*models.Client, error)
}

// LawyerFinder picks the staff member assigned to new inbound conversations
type LawyerFinder interface {
	FirstActiveLawyer(ctx context.Context, tenantID string) (*models.User, error)
}

// InboundMessageStore is the message surface for webhook routing
type InboundMessageStore interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByProviderID(ctx context.Context, whatsappMessageID string) (*models.Message, error)
	UpdateProviderStatus(ctx context.Context, whatsappMessageID string, status models.DeliveryStatus) error
}

// MediaDownloader fetches inbound media from the provider
type MediaDownloader interface {
	Configured() bool
	SendTextMessage(ctx context.Context, to, body string) whatsapp.SendResult
	DownloadMedia(ctx context.Context, mediaID string) whatsapp.MediaResult
}

// WhatsAppService routes inbound webhook deliveries into conversations
type WhatsAppService interface {
	// ProcessWebhook handles one verified webhook body. Individual items
	// that fail are logged and skipped; the whole delivery only errors on
	// an unparseable payload.
	ProcessWebhook(ctx context.Context, body []byte) error
}

// whatsAppServiceImpl implements WhatsAppService
type whatsAppServiceImpl struct {
	conversations InboundConversationStore
	participants  ParticipantStore
	messages      InboundMessageStore
	statuses      StatusStore
	clients       ClientFinder
	lawyers       LawyerFinder
	notifier      NotificationService
	client        MediaDownloader
	wsHub         *websocket.Hub
	location      *time.Location
	logger        zerolog.Logger
}

// NewWhatsAppService creates a new WhatsAppService
func NewWhatsAppService(
	conversations InboundConversationStore,
	participants ParticipantStore,
	messages InboundMessageStore,
	statuses StatusStore,
	clients ClientFinder,
	lawyers LawyerFinder,
	notifier NotificationService,
	client MediaDownloader,
	wsHub *websocket.Hub,
	location *time.Location,
	logger zerolog.Logger,
) WhatsAppService {
	return &whatsAppServiceImpl{
		conversations: conversations,
		participants:  participants,
		messages:      messages,
		statuses:      statuses,
		clients:       clients,
		lawyers:       lawyers,
		notifier:      notifier,
		client:        client,
		wsHub:         wsHub,
		location:      location,
		logger:        logger,
	}
}

func (s *whatsAppServiceImpl) ProcessWebhook(ctx context.Context, body []byte) error {
	inbound, statuses, err := whatsapp.ParseWebhook(body)
	if err != nil {
		return err
	}

	for _, m := range inbound {
		if err := s.handleInbound(ctx, m); err != nil {
			s.logger.Error().Err(err).
				Str("providerId", m.ProviderID).
				Str("from", m.From).
				Msg("Failed to handle inbound WhatsApp message")
		}
	}
	for _, st := range statuses {
		if err := s.handleStatus(ctx, st); err != nil {
			s.logger.Error().Err(err).
				Str("providerId", st.ProviderID).
				Str("status", st.Status).
				Msg("Failed to handle WhatsApp status update")
		}
	}
	return nil
}

// handleInbound routes one user-sent message: resolve or create the
// conversation, persist the message, then broadcast and notify.
func (s *whatsAppServiceImpl) handleInbound(ctx context.Context, m whatsapp.InboundMessage) error {
	phone := whatsapp.FormatPhoneNumber(m.From)

	conv, client, err := s.resolveConversation(ctx, phone, m)
	if err != nil {
		return err
	}

	msg := &models.Message{
		ConversationID:    conv.ID,
		SenderClientID:    &client.ID,
		Type:              models.MessageWhatsApp,
		Content:           m.Text,
		WhatsAppMessageID: &m.ProviderID,
		CreatedAt:         m.Timestamp,
	}
	delivered := models.StatusDelivered
	msg.WhatsAppStatus = &delivered

	if m.MediaID != "" {
		s.attachMedia(ctx, msg, m)
	}

	if err := s.messages.Create(ctx, msg); err != nil {
		// Providers redeliver webhooks; the unique provider id makes
		// the second insert a no-op and we skip all side effects.
		if errors.Is(err, apperrors.ErrDuplicateMessage) {
			s.logger.Debug().Str("providerId", m.ProviderID).Msg("Webhook replay ignored")
			return nil
		}
		return err
	}

	if err := s.conversations.TouchLastMessage(ctx, conv.ID); err != nil {
		s.logger.Warn().Err(err).Str("conversationId", conv.ID).Msg("Failed to touch conversation")
	}

	s.wsHub.BroadcastMessage(&websocket.MessageEvent{
		ID:             msg.ID,
		ConversationID: conv.ID,
		SenderID:       client.ID,
		SenderIsClient: true,
		SenderName:     client.Name,
		Type:           string(msg.Type),
		Content:        msg.Content,
		FileName:       msg.FileName,
	})

	participants, err := s.participants.ListByConversation(ctx, conv.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("conversationId", conv.ID).Msg("Failed to list participants for notification")
	} else {
		s.notifier.Notify(Dispatch{
			Conversation: conv,
			Message:      msg,
			SenderName:   client.Name,
			Recipients:   excludeActor(participants, Actor{ID: client.ID, IsClient: true}),
		})
	}

	// Messages arriving outside business hours get an automatic reply,
	// judged at the message's own timestamp, and the reply is recorded as
	// a system message so staff can see the client was told.
	if !businesshours.During(m.Timestamp, s.location) {
		s.sendAutoReply(ctx, conv, phone)
	}
	return nil
}

// resolveConversation finds the active conversation bound to the phone, or
// creates one for a recognized client. Unknown numbers are rejected.
func (s *whatsAppServiceImpl) resolveConversation(ctx context.Context, phone string, m whatsapp.InboundMessage) (*models.Conversation, *models.Client, error) {
	conv, err := s.conversations.FindActiveByWhatsAppPhone(ctx, phone)
	if err == nil {
		client, err := s.resolveSender(ctx, conv, phone)
		if err != nil {
			return nil, nil, err
		}
		return conv, client, nil
	}
	if !errors.Is(err, apperrors.ErrConversationNotFound) {
		return nil, nil, err
	}

	client, err := s.clients.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, apperrors.ErrClientNotFound) {
			s.logger.Warn().Str("phone", phone).Msg("Inbound WhatsApp message from unknown number")
			return nil, nil, apperrors.ErrNoContactMatch
		}
		return nil, nil, err
	}

	title, priority := classifyTopic(m.Text)
	conv = &models.Conversation{
		TenantID:        client.TenantID,
		ClientID:        &client.ID,
		Title:           title,
		Type:            models.ConversationWhatsAppBound,
		Status:          models.ConversationActive,
		Priority:        priority,
		WhatsAppEnabled: true,
		WhatsAppPhone:   &phone,
	}
	if err := s.conversations.Create(ctx, conv); err != nil {
		return nil, nil, err
	}

	members := []*models.ConversationParticipant{{
		ConversationID: conv.ID,
		ClientID:       &client.ID,
		Type:           models.ParticipantClient,
		Role:           models.RoleParticipant,
	}}

	lawyer, err := s.lawyers.FirstActiveLawyer(ctx, client.TenantID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, nil, err
		}
		// No lawyer to assign; the conversation still opens so the
		// message is not lost, and staff can join later.
		s.logger.Warn().
			Str("tenantId", client.TenantID).
			Str("conversationId", conv.ID).
			Msg("No active lawyer to assign to inbound conversation")
	} else {
		members = append(members, &models.ConversationParticipant{
			ConversationID: conv.ID,
			UserID:         &lawyer.ID,
			Type:           models.ParticipantLawyer,
			Role:           models.RoleOwner,
		})
	}

	for _, member := range members {
		if err := s.participants.Add(ctx, member); err != nil {
			return nil, nil, err
		}
	}

	s.logger.Info().
		Str("conversationId", conv.ID).
		Str("clientId", client.ID).
		Str("title", title).
		Msg("Conversation created from inbound WhatsApp message")
	return conv, client, nil
}

// resolveSender returns the client a message in an existing bound
// conversation belongs to
func (s *whatsAppServiceImpl) resolveSender(ctx context.Context, conv *models.Conversation, phone string) (*models.Client, error) {
	if conv.ClientID != nil {
		return s.clients.GetByID(ctx, *conv.ClientID)
	}
	client, err := s.clients.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, apperrors.ErrClientNotFound) {
			return nil, apperrors.ErrNoContactMatch
		}
		return nil, err
	}
	return client, nil
}

// attachMedia downloads inbound media best-effort and records its metadata.
// A failed download still stores the message; only the attachment is lost.
func (s *whatsAppServiceImpl) attachMedia(ctx context.Context, msg *models.Message, m whatsapp.InboundMessage) {
	switch m.Kind {
	case whatsapp.InboundImage:
		msg.Type = models.MessageImage
	case whatsapp.InboundDocument:
		msg.Type = models.MessageDocument
	}
	if m.Filename != "" {
		filename := m.Filename
		msg.FileName = &filename
	}
	if m.MimeType != "" {
		mimeType := m.MimeType
		msg.MimeType = &mimeType
	}

	if s.client == nil || !s.client.Configured() {
		return
	}
	result := s.client.DownloadMedia(ctx, m.MediaID)
	if !result.Success {
		s.logger.Warn().
			Str("mediaId", m.MediaID).
			Str("error", result.Error).
			Msg("Failed to download inbound media")
		return
	}
	size := int64(len(result.Data))
	msg.FileSize = &size
	if msg.MimeType == nil && result.MimeType != "" {
		mimeType := result.MimeType
		msg.MimeType = &mimeType
	}
}

// sendAutoReply tells the client the office is closed and records the reply
// as a system message in the conversation
func (s *whatsAppServiceImpl) sendAutoReply(ctx context.Context, conv *models.Conversation, phone string) {
	if s.client == nil || !s.client.Configured() {
		return
	}

	result := s.client.SendTextMessage(ctx, phone, autoReplyText)
	if !result.Success {
		s.logger.Warn().
			Str("conversationId", conv.ID).
			Str("error", result.Error).
			Msg("Failed to send after-hours auto-reply")
		return
	}

	system := &models.Message{
		ConversationID: conv.ID,
		Type:           models.MessageSystem,
		Content:        autoReplyText,
	}
	if result.MessageID != "" {
		system.WhatsAppMessageID = &result.MessageID
	}
	if err := s.messages.Create(ctx, system); err != nil {
		s.logger.Warn().Err(err).Str("conversationId", conv.ID).Msg("Failed to record auto-reply")
	}
}

// handleStatus records a provider delivery-status change on the outbound
// message it refers to and upserts the client's per-message status row
func (s *whatsAppServiceImpl) handleStatus(ctx context.Context, st whatsapp.StatusUpdate) error {
	status, ok := mapProviderStatus(st.Status)
	if !ok {
		s.logger.Debug().Str("status", st.Status).Msg("Ignoring unknown provider status")
		return nil
	}

	if err := s.messages.UpdateProviderStatus(ctx, st.ProviderID, status); err != nil {
		// Statuses for messages this system never stored (e.g. sent from
		// the phone app directly) are expected noise
		if errors.Is(err, apperrors.ErrMessageNotFound) {
			s.logger.Debug().Str("providerId", st.ProviderID).Msg("Status for unknown message ignored")
			return nil
		}
		return err
	}

	msg, err := s.messages.GetByProviderID(ctx, st.ProviderID)
	if err != nil {
		return err
	}
	conv, err := s.conversations.GetByID(ctx, msg.ConversationID)
	if err != nil {
		return err
	}
	if conv.ClientID == nil {
		return nil
	}
	return s.statuses.Upsert(ctx, msg.ID, *conv.ClientID, true, status, st.Timestamp)
}

func mapProviderStatus(s string) (models.DeliveryStatus, bool) {
	switch s {
	case "sent":
		return models.StatusSent, true
	case "delivered":
		return models.StatusDelivered, true
	case "read":
		return models.StatusRead, true
	case "failed":
		return models.StatusFailed, true
	default:
		return "", false
	}
}

// classifyTopic titles a new inbound conversation from the first message
func classifyTopic(text string) (string, models.ConversationPriority) {
	lower := strings.ToLower(text)
	for _, rule := range topicRules {
		if strings.Contains(lower, rule.keyword) {
			return rule.title, rule.priority
		}
	}
	return "Atendimento Geral", models.PriorityNormal
}
