package services

import (
	"context"
	"fmt"
	"time"

	"github.com/advoga/advoga/internal/app/models"
	"github.com/advoga/advoga/internal/app/repositories"
	"github.com/advoga/advoga/internal/pkg/apperrors"
	"github.com/advoga/advoga/internal/pkg/whatsapp"
)

// In-memory fakes backing the service tests. They implement just enough of
// the store interfaces for the scenarios exercised here.

type fakeMessages struct {
	created  []*models.Message
	statuses map[string]models.DeliveryStatus // by provider id
	nextID   int
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{statuses: make(map[string]models.DeliveryStatus)}
}

func (f *fakeMessages) Create(ctx context.Context, msg *models.Message) error {
	if msg.WhatsAppMessageID != nil {
		for _, existing := range f.created {
			if existing.WhatsAppMessageID != nil && *existing.WhatsAppMessageID == *msg.WhatsAppMessageID {
				return apperrors.ErrDuplicateMessage
			}
		}
	}
	f.nextID++
	msg.ID = fmt.Sprintf("msg-%d", f.nextID)
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	f.created = append(f.created, msg)
	return nil
}

func (f *fakeMessages) GetByID(ctx context.Context, id string) (*models.Message, error) {
	for _, m := range f.created {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, apperrors.ErrMessageNotFound
}

func (f *fakeMessages) GetByProviderID(ctx context.Context, providerID string) (*models.Message, error) {
	for _, m := range f.created {
		if m.WhatsAppMessageID != nil && *m.WhatsAppMessageID == providerID {
			return m, nil
		}
	}
	return nil, apperrors.ErrMessageNotFound
}

func (f *fakeMessages) ListByConversation(ctx context.Context, conversationID string, filter repositories.MessageFilter) ([]*models.Message, error) {
	var out []*models.Message
	for _, m := range f.created {
		if m.ConversationID == conversationID && !m.IsDeleted {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessages) UpdateContent(ctx context.Context, id, content string) error {
	m, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	m.Content = content
	m.IsEdited = true
	return nil
}

func (f *fakeMessages) MarkDeleted(ctx context.Context, id string) error {
	m, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	m.IsDeleted = true
	return nil
}

func (f *fakeMessages) SetProviderMessageID(ctx context.Context, id, providerID string) error {
	m, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	m.WhatsAppMessageID = &providerID
	return nil
}

func (f *fakeMessages) UpdateProviderStatus(ctx context.Context, providerID string, status models.DeliveryStatus) error {
	m, err := f.GetByProviderID(ctx, providerID)
	if err != nil {
		return err
	}
	m.WhatsAppStatus = &status
	f.statuses[providerID] = status
	return nil
}

type fakeConversations struct {
	byID    map[string]*models.Conversation
	byPhone map[string]*models.Conversation
	nextID  int
}

func newFakeConversations() *fakeConversations {
	return &fakeConversations{
		byID:    make(map[string]*models.Conversation),
		byPhone: make(map[string]*models.Conversation),
	}
}

func (f *fakeConversations) add(conv *models.Conversation) *models.Conversation {
	if conv.ID == "" {
		f.nextID++
		conv.ID = fmt.Sprintf("conv-%d", f.nextID)
	}
	f.byID[conv.ID] = conv
	if conv.WhatsAppPhone != nil && conv.Status == models.ConversationActive && conv.WhatsAppEnabled {
		f.byPhone[*conv.WhatsAppPhone] = conv
	}
	return conv
}

func (f *fakeConversations) Create(ctx context.Context, conv *models.Conversation) error {
	conv.CreatedAt = time.Now()
	f.add(conv)
	return nil
}

func (f *fakeConversations) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	if conv, ok := f.byID[id]; ok {
		return conv, nil
	}
	return nil, apperrors.ErrConversationNotFound
}

func (f *fakeConversations) FindActiveByWhatsAppPhone(ctx context.Context, phone string) (*models.Conversation, error) {
	if conv, ok := f.byPhone[phone]; ok {
		return conv, nil
	}
	return nil, apperrors.ErrConversationNotFound
}

func (f *fakeConversations) ListByTenant(ctx context.Context, tenantID string, filter repositories.ConversationFilter) ([]*models.Conversation, error) {
	var out []*models.Conversation
	for _, c := range f.byID {
		if c.TenantID == tenantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeConversations) ListForParticipant(ctx context.Context, actorID string, isClient bool) ([]*models.Conversation, error) {
	return nil, nil
}

func (f *fakeConversations) UpdateStatus(ctx context.Context, id string, status models.ConversationStatus) error {
	conv, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	conv.Status = status
	return nil
}

func (f *fakeConversations) UpdatePriority(ctx context.Context, id string, priority models.ConversationPriority) error {
	conv, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	conv.Priority = priority
	return nil
}

func (f *fakeConversations) TouchLastMessage(ctx context.Context, id string) error {
	conv, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	now := time.Now()
	conv.LastMessageAt = &now
	return nil
}

type fakeParticipants struct {
	members []*models.ConversationParticipant
}

func (f *fakeParticipants) Add(ctx context.Context, p *models.ConversationParticipant) error {
	p.ID = fmt.Sprintf("part-%d", len(f.members)+1)
	p.JoinedAt = time.Now()
	f.members = append(f.members, p)
	return nil
}

func (f *fakeParticipants) ListByConversation(ctx context.Context, conversationID string) ([]*models.ConversationParticipant, error) {
	var out []*models.ConversationParticipant
	for _, p := range f.members {
		if p.ConversationID == conversationID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeParticipants) IsParticipant(ctx context.Context, conversationID, actorID string, isClient bool) (bool, error) {
	for _, p := range f.members {
		if p.ConversationID == conversationID && p.RecipientID() == actorID && p.IsClient() == isClient {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeParticipants) UpdateLastRead(ctx context.Context, conversationID, actorID string, isClient bool) error {
	now := time.Now()
	for _, p := range f.members {
		if p.ConversationID == conversationID && p.RecipientID() == actorID && p.IsClient() == isClient {
			p.LastReadAt = &now
		}
	}
	return nil
}

type statusKey struct {
	messageID   string
	recipientID string
}

type fakeStatuses struct {
	rows map[statusKey]models.DeliveryStatus
}

func newFakeStatuses() *fakeStatuses {
	return &fakeStatuses{rows: make(map[statusKey]models.DeliveryStatus)}
}

func (f *fakeStatuses) Upsert(ctx context.Context, messageID, recipientID string, isClient bool, status models.DeliveryStatus, statusAt time.Time) error {
	f.rows[statusKey{messageID, recipientID}] = status
	return nil
}

type fakeUsers struct {
	byID    map[string]*models.User
	byEmail map[string]*models.User
	lawyer  *models.User
}

func newFakeUsers(users ...*models.User) *fakeUsers {
	f := &fakeUsers{byID: make(map[string]*models.User), byEmail: make(map[string]*models.User)}
	for _, u := range users {
		f.byID[u.ID] = u
		f.byEmail[u.Email] = u
		if u.RoleType == models.RoleLawyer && f.lawyer == nil {
			f.lawyer = u
		}
	}
	return f
}

func (f *fakeUsers) Create(ctx context.Context, user *models.User) error {
	if _, ok := f.byEmail[user.Email]; ok {
		return apperrors.ErrEmailAlreadyExists
	}
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(f.byID)+1)
	}
	f.byID[user.ID] = user
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUsers) FirstActiveLawyer(ctx context.Context, tenantID string) (*models.User, error) {
	if f.lawyer != nil && f.lawyer.TenantID == tenantID {
		return f.lawyer, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUsers) AddPushToken(ctx context.Context, id, token string) error {
	u, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	u.PushTokens = append(u.PushTokens, token)
	return nil
}

type fakeClients struct {
	byID    map[string]*models.Client
	byEmail map[string]*models.Client
}

func newFakeClients(clients ...*models.Client) *fakeClients {
	f := &fakeClients{byID: make(map[string]*models.Client), byEmail: make(map[string]*models.Client)}
	for _, c := range clients {
		f.byID[c.ID] = c
		f.byEmail[c.Email] = c
	}
	return f
}

func (f *fakeClients) GetByID(ctx context.Context, id string) (*models.Client, error) {
	if c, ok := f.byID[id]; ok {
		return c, nil
	}
	return nil, apperrors.ErrClientNotFound
}

func (f *fakeClients) GetByEmail(ctx context.Context, email string) (*models.Client, error) {
	if c, ok := f.byEmail[email]; ok {
		return c, nil
	}
	return nil, apperrors.ErrClientNotFound
}

func (f *fakeClients) FindByPhone(ctx context.Context, phone string) (*models.Client, error) {
	digits := func(s string) string {
		out := make([]rune, 0, len(s))
		for _, r := range s {
			if r >= '0' && r <= '9' {
				out = append(out, r)
			}
		}
		return string(out)
	}
	for _, c := range f.byID {
		for _, number := range []*string{c.WhatsApp, c.Mobile, c.Phone} {
			if number == nil {
				continue
			}
			d := digits(*number)
			if d == phone || "55"+d == phone {
				return c, nil
			}
		}
	}
	return nil, apperrors.ErrClientNotFound
}

func (f *fakeClients) AddPushToken(ctx context.Context, id, token string) error {
	c, err := f.GetByID(ctx, id)
	if err != nil {
		return err
	}
	c.PushTokens = append(c.PushTokens, token)
	return nil
}

type fakePreferences struct {
	stored map[string]*models.NotificationPreference
}

func newFakePreferences() *fakePreferences {
	return &fakePreferences{stored: make(map[string]*models.NotificationPreference)}
}

func (f *fakePreferences) Get(ctx context.Context, recipientID string, isClient bool) (*models.NotificationPreference, error) {
	return f.stored[recipientID], nil
}

func (f *fakePreferences) Upsert(ctx context.Context, pref *models.NotificationPreference) error {
	if pref.ClientID != nil {
		f.stored[*pref.ClientID] = pref
	} else if pref.UserID != nil {
		f.stored[*pref.UserID] = pref
	}
	return nil
}

type fakeNotificationStore struct {
	created []*models.ChatNotification
	sent    map[string][]models.NotificationChannel
	read    map[string]bool
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{
		sent: make(map[string][]models.NotificationChannel),
		read: make(map[string]bool),
	}
}

func (f *fakeNotificationStore) Create(ctx context.Context, n *models.ChatNotification) error {
	n.ID = fmt.Sprintf("notif-%d", len(f.created)+1)
	n.CreatedAt = time.Now()
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationStore) MarkSent(ctx context.Context, id string, channels []models.NotificationChannel) error {
	f.sent[id] = channels
	for _, n := range f.created {
		if n.ID == id {
			n.IsSent = true
			n.Channels = channels
		}
	}
	return nil
}

func (f *fakeNotificationStore) MarkRead(ctx context.Context, id, recipientID string, isClient bool) error {
	f.read[id] = true
	return nil
}

func (f *fakeNotificationStore) MarkAllRead(ctx context.Context, recipientID string, isClient bool, conversationID string) (int64, error) {
	var count int64
	for _, n := range f.created {
		if f.read[n.ID] {
			continue
		}
		f.read[n.ID] = true
		count++
	}
	return count, nil
}

func (f *fakeNotificationStore) ListUnread(ctx context.Context, recipientID string, isClient bool, limit int) ([]*models.ChatNotification, error) {
	var out []*models.ChatNotification
	for _, n := range f.created {
		if !f.read[n.ID] {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationStore) CountUnread(ctx context.Context, recipientID string, isClient bool) (int, error) {
	list, _ := f.ListUnread(ctx, recipientID, isClient, 0)
	return len(list), nil
}

type fakeNotifier struct {
	dispatches []Dispatch
}

func (f *fakeNotifier) Notify(d Dispatch) { f.dispatches = append(f.dispatches, d) }

func (f *fakeNotifier) MarkRead(ctx context.Context, id, recipientID string, isClient bool) error {
	return nil
}

func (f *fakeNotifier) MarkAllRead(ctx context.Context, recipientID string, isClient bool, conversationID string) (int64, error) {
	return 0, nil
}

func (f *fakeNotifier) ListUnread(ctx context.Context, recipientID string, isClient bool, limit int) ([]*models.ChatNotification, int, error) {
	return nil, 0, nil
}

func (f *fakeNotifier) Close() {}

type sentEmail struct {
	to, title, content string
}

type fakeEmail struct {
	sent []sentEmail
	err  error
}

func (f *fakeEmail) SendChatNotification(toEmail, toName, title, content, conversationID string) error {
	f.sent = append(f.sent, sentEmail{toEmail, title, content})
	return f.err
}

func (f *fakeEmail) SendWelcomeEmail(toEmail, toName string) error { return nil }

type sentPush struct {
	tokens []string
	title  string
	body   string
}

type fakePush struct {
	sent []sentPush
	err  error
}

func (f *fakePush) SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) error {
	f.sent = append(f.sent, sentPush{tokens, title, body})
	return f.err
}

type sentWhatsApp struct {
	to   string
	body string
}

type fakeWhatsApp struct {
	configured bool
	sent       []sentWhatsApp
	downloads  map[string][]byte
	failSend   bool
	nextWamid  int
}

func newFakeWhatsApp() *fakeWhatsApp {
	return &fakeWhatsApp{configured: true, downloads: make(map[string][]byte)}
}

func (f *fakeWhatsApp) Configured() bool { return f.configured }

func (f *fakeWhatsApp) SendTextMessage(ctx context.Context, to, body string) whatsapp.SendResult {
	if f.failSend {
		return whatsapp.SendResult{Error: "provider unavailable"}
	}
	f.sent = append(f.sent, sentWhatsApp{to, body})
	f.nextWamid++
	return whatsapp.SendResult{Success: true, MessageID: fmt.Sprintf("wamid.fake-%d", f.nextWamid)}
}

func (f *fakeWhatsApp) SendDocument(ctx context.Context, to, link, filename, caption string) whatsapp.SendResult {
	return f.SendTextMessage(ctx, to, caption)
}

func (f *fakeWhatsApp) SendImage(ctx context.Context, to, link, caption string) whatsapp.SendResult {
	return f.SendTextMessage(ctx, to, caption)
}

func (f *fakeWhatsApp) DownloadMedia(ctx context.Context, mediaID string) whatsapp.MediaResult {
	if data, ok := f.downloads[mediaID]; ok {
		return whatsapp.MediaResult{Success: true, Data: data, MimeType: "application/pdf"}
	}
	return whatsapp.MediaResult{Error: "media not found"}
}
