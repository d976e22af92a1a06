package services

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/advoga/advoga/internal/app/models"
	"github.com/advoga/advoga/internal/pkg/businesshours"
	"github.com/advoga/advoga/internal/pkg/email"
	"github.com/advoga/advoga/internal/pkg/push"
	"github.com/advoga/advoga/internal/pkg/whatsapp"
)

const (
	// Notification content is a preview, not a transcript
	previewMaxRunes = 100

	dispatchQueueSize = 256
	dispatchTimeout   = 30 * time.Second
	attachmentPreview = "[Anexo]"
)

// NotificationStore is the persistence surface the notification service needs
type NotificationStore interface {
	Create(ctx context.Context, n *models.ChatNotification) error
	MarkSent(ctx context.Context, id string, channels []models.NotificationChannel) error
	MarkRead(ctx context.Context, id, recipientID string, isClient bool) error
	MarkAllRead(ctx context.Context, recipientID string, isClient bool, conversationID string) (int64, error)
	ListUnread(ctx context.Context, recipientID string, isClient bool, limit int) ([]*models.ChatNotification, error)
	CountUnread(ctx context.Context, recipientID string, isClient bool) (int, error)
}

// UserDirectory resolves staff recipients for channel delivery
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// ClientDirectory resolves client recipients for channel delivery
type ClientDirectory interface {
	GetByID(ctx context.Context, id string) (*models.Client, error)
}

// WhatsAppNotifier is the outbound surface used for the whatsapp channel
type WhatsAppNotifier interface {
	Configured() bool
	SendTextMessage(ctx context.Context, to, body string) whatsapp.SendResult
}

// Dispatch is one persisted message fanned out to its recipients
type Dispatch struct {
	Conversation *models.Conversation
	Message      *models.Message
	SenderName   string
	// Recipients are the conversation participants excluding the sender
	Recipients []*models.ConversationParticipant
}

// NotificationService fans persisted messages out as notifications
type NotificationService interface {
	// Notify enqueues a dispatch without blocking the message path.
	// When the queue is saturated the dispatch is dropped and logged.
	Notify(d Dispatch)
	MarkRead(ctx context.Context, id, recipientID string, isClient bool) error
	MarkAllRead(ctx context.Context, recipientID string, isClient bool, conversationID string) (int64, error)
	ListUnread(ctx context.Context, recipientID string, isClient bool, limit int) ([]*models.ChatNotification, int, error)
	Close()
}

// notificationServiceImpl implements NotificationService
type notificationServiceImpl struct {
	store       NotificationStore
	preferences PreferenceService
	users       UserDirectory
	clients     ClientDirectory
	email       email.EmailService
	push        push.PushService
	whatsapp    WhatsAppNotifier
	location    *time.Location
	logger      zerolog.Logger

	queue chan Dispatch
	done  chan struct{}
	now   func() time.Time
}

// NewNotificationService creates a NotificationService and starts its
// dispatch worker. Call Close on shutdown to drain the queue.
func NewNotificationService(
	store NotificationStore,
	preferences PreferenceService,
	users UserDirectory,
	clients ClientDirectory,
	emailService email.EmailService,
	pushService push.PushService,
	whatsappClient WhatsAppNotifier,
	location *time.Location,
	logger zerolog.Logger,
) NotificationService {
	s := &notificationServiceImpl{
		store:       store,
		preferences: preferences,
		users:       users,
		clients:     clients,
		email:       emailService,
		push:        pushService,
		whatsapp:    whatsappClient,
		location:    location,
		logger:      logger,
		queue:       make(chan Dispatch, dispatchQueueSize),
		done:        make(chan struct{}),
		now:         time.Now,
	}
	go s.run()
	return s
}

func (s *notificationServiceImpl) run() {
	for d := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		s.deliver(ctx, d)
		cancel()
	}
	close(s.done)
}

// Close stops accepting dispatches and waits for the worker to drain
func (s *notificationServiceImpl) Close() {
	close(s.queue)
	<-s.done
}

func (s *notificationServiceImpl) Notify(d Dispatch) {
	if d.Message == nil || d.Conversation == nil {
		return
	}
	select {
	case s.queue <- d:
	default:
		s.logger.Warn().
			Str("messageId", d.Message.ID).
			Msg("Notification queue full, dispatch dropped")
	}
}

// deliver fans one message out to every recipient. Recipient failures are
// isolated; one broken preference row or SMTP hiccup never blocks the rest.
func (s *notificationServiceImpl) deliver(ctx context.Context, d Dispatch) {
	// System messages (auto-replies, lifecycle notices) never notify anyone
	if d.Message.Type == models.MessageSystem {
		return
	}

	for _, recipient := range d.Recipients {
		if err := s.deliverTo(ctx, d, recipient); err != nil {
			s.logger.Error().Err(err).
				Str("messageId", d.Message.ID).
				Str("recipientId", recipient.RecipientID()).
				Msg("Failed to deliver notification")
		}
	}
}

func (s *notificationServiceImpl) deliverTo(ctx context.Context, d Dispatch, recipient *models.ConversationParticipant) error {
	recipientID := recipient.RecipientID()
	isClient := recipient.IsClient()

	pref, err := s.preferences.GetEffective(ctx, recipientID, isClient)
	if err != nil {
		return err
	}

	if pref.UrgentOnly && d.Conversation.Priority != models.PriorityUrgent {
		return nil
	}
	if pref.BusinessHoursOnly && !businesshours.During(s.now(), s.location) {
		return nil
	}

	notification := &models.ChatNotification{
		ConversationID: d.Conversation.ID,
		MessageID:      d.Message.ID,
		Type:           classify(d.Conversation, d.Message),
		Title:          title(d.Conversation, d.SenderName),
		Content:        preview(d.Message),
	}
	if isClient {
		notification.ClientID = &recipientID
	} else {
		notification.UserID = &recipientID
	}

	if err := s.store.Create(ctx, notification); err != nil {
		return err
	}

	succeeded, attempted := s.sendChannels(ctx, notification, pref, recipient)
	if !attempted {
		return nil
	}
	return s.store.MarkSent(ctx, notification.ID, succeeded)
}

// sendChannels attempts delivery on each enabled channel. It returns the
// channels that succeeded and whether any channel was tried at all; channel
// failures are isolated and never stop the remaining channels.
func (s *notificationServiceImpl) sendChannels(ctx context.Context, n *models.ChatNotification, pref *models.NotificationPreference, recipient *models.ConversationParticipant) ([]models.NotificationChannel, bool) {
	var succeeded []models.NotificationChannel
	attempted := false

	var emailAddr, name, whatsappPhone string
	var pushTokens []string

	if recipient.IsClient() {
		client, err := s.clients.GetByID(ctx, *recipient.ClientID)
		if err != nil {
			s.logger.Warn().Err(err).Str("clientId", *recipient.ClientID).Msg("Recipient client lookup failed")
			return nil, false
		}
		emailAddr, name, pushTokens = client.Email, client.Name, client.PushTokens
	} else {
		user, err := s.users.GetByID(ctx, *recipient.UserID)
		if err != nil {
			s.logger.Warn().Err(err).Str("userId", *recipient.UserID).Msg("Recipient user lookup failed")
			return nil, false
		}
		emailAddr, name, pushTokens = user.Email, user.FullName(), user.PushTokens
		if user.Phone != nil {
			whatsappPhone = whatsapp.FormatPhoneNumber(*user.Phone)
		}
	}

	if pref.EmailEnabled && emailAddr != "" {
		attempted = true
		if err := s.email.SendChatNotification(emailAddr, name, n.Title, n.Content, n.ConversationID); err != nil {
			s.logger.Error().Err(err).Str("notificationId", n.ID).Msg("Email channel failed")
		} else {
			succeeded = append(succeeded, models.ChannelEmail)
		}
	}

	if pref.PushEnabled && len(pushTokens) > 0 {
		attempted = true
		data := map[string]string{
			"conversationId": n.ConversationID,
			"messageId":      n.MessageID,
			"type":           string(n.Type),
		}
		if err := s.push.SendToTokens(ctx, pushTokens, n.Title, n.Content, data); err != nil {
			s.logger.Error().Err(err).Str("notificationId", n.ID).Msg("Push channel failed")
		} else {
			succeeded = append(succeeded, models.ChannelPush)
		}
	}

	// The whatsapp channel pings staff on their own numbers; clients never
	// get it, their side of the conversation already lives on WhatsApp
	if pref.WhatsAppEnabled && whatsappPhone != "" &&
		s.whatsapp != nil && s.whatsapp.Configured() {
		attempted = true
		result := s.whatsapp.SendTextMessage(ctx, whatsappPhone, n.Title+"\n"+n.Content)
		if !result.Success {
			s.logger.Error().Str("notificationId", n.ID).Str("error", result.Error).Msg("WhatsApp channel failed")
		} else {
			succeeded = append(succeeded, models.ChannelWhatsApp)
		}
	}

	return succeeded, attempted
}

// classify picks the notification type. Rules are checked in precedence
// order: conversation urgency, WhatsApp origin, mention, plain message.
func classify(conv *models.Conversation, msg *models.Message) models.NotificationType {
	switch {
	case conv.Priority == models.PriorityUrgent:
		return models.NotificationUrgent
	case msg.Type == models.MessageWhatsApp:
		return models.NotificationWhatsApp
	case strings.Contains(msg.Content, "@"):
		return models.NotificationMention
	default:
		return models.NotificationNewMessage
	}
}

func title(conv *models.Conversation, senderName string) string {
	if senderName == "" {
		senderName = conv.Title
	}
	if conv.Priority == models.PriorityUrgent {
		return "[Urgente] Nova mensagem de " + senderName
	}
	return "Nova mensagem de " + senderName
}

// preview builds the notification body: a placeholder for attachments,
// otherwise the message text truncated to a readable length.
func preview(msg *models.Message) string {
	switch msg.Type {
	case models.MessageFile, models.MessageImage, models.MessageDocument:
		if msg.FileName != nil && *msg.FileName != "" {
			return attachmentPreview + " " + *msg.FileName
		}
		return attachmentPreview
	}

	runes := []rune(msg.Content)
	if len(runes) <= previewMaxRunes {
		return msg.Content
	}
	return string(runes[:previewMaxRunes]) + "..."
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, id, recipientID string, isClient bool) error {
	return s.store.MarkRead(ctx, id, recipientID, isClient)
}

func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, recipientID string, isClient bool, conversationID string) (int64, error) {
	return s.store.MarkAllRead(ctx, recipientID, isClient, conversationID)
}

func (s *notificationServiceImpl) ListUnread(ctx context.Context, recipientID string, isClient bool, limit int) ([]*models.ChatNotification, int, error) {
	notifications, err := s.store.ListUnread(ctx, recipientID, isClient, limit)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.store.CountUnread(ctx, recipientID, isClient)
	if err != nil {
		return nil, 0, err
	}
	return notifications, count, nil
}
