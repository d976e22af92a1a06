package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/advoga/advoga/internal/app/models"
	"github.com/advoga/advoga/internal/pkg/apperrors"
	"github.com/advoga/advoga/internal/pkg/whatsapp"
)

type whatsappEnv struct {
	svc           *whatsAppServiceImpl
	conversations *fakeConversations
	participants  *fakeParticipants
	messages      *fakeMessages
	statuses      *fakeStatuses
	clients       *fakeClients
	users         *fakeUsers
	notifier      *fakeNotifier
	provider      *fakeWhatsApp
}

func newWhatsAppEnv() *whatsappEnv {
	env := &whatsappEnv{
		conversations: newFakeConversations(),
		participants:  &fakeParticipants{},
		messages:      newFakeMessages(),
		statuses:      newFakeStatuses(),
		clients:       newFakeClients(testClient()),
		users:         newFakeUsers(testLawyer(), testStaff()),
		notifier:      &fakeNotifier{},
		provider:      newFakeWhatsApp(),
	}
	env.svc = &whatsAppServiceImpl{
		conversations: env.conversations,
		participants:  env.participants,
		messages:      env.messages,
		statuses:      env.statuses,
		clients:       env.clients,
		lawyers:       env.users,
		notifier:      env.notifier,
		client:        env.provider,
		wsHub:         nil,
		location:      time.UTC,
		logger:        zerolog.Nop(),
	}
	return env
}

func inbound(providerID, text string, at time.Time) whatsapp.InboundMessage {
	return whatsapp.InboundMessage{
		Kind:       whatsapp.InboundText,
		ProviderID: providerID,
		From:       "5511999998888",
		SenderName: "Carlos Pereira",
		Timestamp:  at,
		Text:       text,
	}
}

func TestInboundAfterHoursUrgentMessage(t *testing.T) {
	env := newWhatsAppEnv()
	// Tuesday 02:00, well outside business hours
	at := time.Date(2025, time.June, 10, 2, 0, 0, 0, time.UTC)

	err := env.svc.handleInbound(context.Background(), inbound("wamid.1", "Preciso de ajuda urgente", at))
	if err != nil {
		t.Fatalf("handleInbound() error = %v", err)
	}

	// A conversation was created from the urgent keyword
	if len(env.conversations.byID) != 1 {
		t.Fatalf("conversations = %d, want 1", len(env.conversations.byID))
	}
	var conv *models.Conversation
	for _, c := range env.conversations.byID {
		conv = c
	}
	if conv.Title != "Urgente" {
		t.Errorf("title = %q, want Urgente", conv.Title)
	}
	if conv.Priority != models.PriorityUrgent {
		t.Errorf("priority = %s, want urgent", conv.Priority)
	}
	if conv.Type != models.ConversationWhatsAppBound {
		t.Errorf("type = %s, want whatsapp", conv.Type)
	}

	// Client and the tenant's lawyer both joined
	members, _ := env.participants.ListByConversation(context.Background(), conv.ID)
	if len(members) != 2 {
		t.Fatalf("participants = %d, want 2", len(members))
	}

	// The client message was stored with provider bookkeeping
	var clientMsg *models.Message
	for _, m := range env.messages.created {
		if m.Type == models.MessageWhatsApp {
			clientMsg = m
		}
	}
	if clientMsg == nil {
		t.Fatal("no whatsapp message stored")
	}
	if clientMsg.WhatsAppMessageID == nil || *clientMsg.WhatsAppMessageID != "wamid.1" {
		t.Errorf("provider id = %v, want wamid.1", clientMsg.WhatsAppMessageID)
	}
	if clientMsg.WhatsAppStatus == nil || *clientMsg.WhatsAppStatus != models.StatusDelivered {
		t.Errorf("status = %v, want delivered", clientMsg.WhatsAppStatus)
	}
	if !clientMsg.CreatedAt.Equal(at) {
		t.Errorf("createdAt = %v, want provider timestamp %v", clientMsg.CreatedAt, at)
	}

	// The after-hours auto-reply went out and was recorded as a system message
	if len(env.provider.sent) != 1 {
		t.Fatalf("provider sends = %d, want 1 auto-reply", len(env.provider.sent))
	}
	systemCount := 0
	for _, m := range env.messages.created {
		if m.Type == models.MessageSystem {
			systemCount++
		}
	}
	if systemCount != 1 {
		t.Errorf("system messages = %d, want 1", systemCount)
	}

	// The lawyer was notified, the sending client was not
	if len(env.notifier.dispatches) != 1 {
		t.Fatalf("dispatches = %d, want 1", len(env.notifier.dispatches))
	}
	recipients := env.notifier.dispatches[0].Recipients
	if len(recipients) != 1 || recipients[0].UserID == nil {
		t.Errorf("recipients = %+v, want only the lawyer", recipients)
	}
}

func TestInboundDuringHoursSkipsAutoReply(t *testing.T) {
	env := newWhatsAppEnv()
	at := time.Date(2025, time.June, 10, 10, 0, 0, 0, time.UTC)

	if err := env.svc.handleInbound(context.Background(), inbound("wamid.2", "Bom dia", at)); err != nil {
		t.Fatalf("handleInbound() error = %v", err)
	}

	if len(env.provider.sent) != 0 {
		t.Errorf("provider sends = %d, want 0 during business hours", len(env.provider.sent))
	}
}

func TestInboundReusesBoundConversation(t *testing.T) {
	env := newWhatsAppEnv()
	phone := "5511999998888"
	clientID := "client-1"
	env.conversations.add(&models.Conversation{
		TenantID: "tenant-1", ClientID: &clientID, Title: "Atendimento Geral",
		Type: models.ConversationWhatsAppBound, Status: models.ConversationActive,
		Priority: models.PriorityNormal, WhatsAppEnabled: true, WhatsAppPhone: &phone,
	})
	at := time.Date(2025, time.June, 10, 10, 0, 0, 0, time.UTC)

	if err := env.svc.handleInbound(context.Background(), inbound("wamid.3", "continuando o assunto", at)); err != nil {
		t.Fatalf("handleInbound() error = %v", err)
	}

	if len(env.conversations.byID) != 1 {
		t.Errorf("conversations = %d, want the existing one reused", len(env.conversations.byID))
	}
	if len(env.messages.created) != 1 {
		t.Errorf("messages = %d, want 1", len(env.messages.created))
	}
}

func TestInboundUnknownNumberRejected(t *testing.T) {
	env := newWhatsAppEnv()
	at := time.Date(2025, time.June, 10, 10, 0, 0, 0, time.UTC)

	m := inbound("wamid.4", "oi", at)
	m.From = "5521888887777"

	err := env.svc.handleInbound(context.Background(), m)
	if !errors.Is(err, apperrors.ErrNoContactMatch) {
		t.Fatalf("handleInbound() error = %v, want ErrNoContactMatch", err)
	}
	if len(env.messages.created) != 0 {
		t.Errorf("messages = %d, want 0", len(env.messages.created))
	}
}

func TestInboundReplayIsIgnored(t *testing.T) {
	env := newWhatsAppEnv()
	at := time.Date(2025, time.June, 10, 10, 0, 0, 0, time.UTC)
	m := inbound("wamid.5", "primeira entrega", at)

	if err := env.svc.handleInbound(context.Background(), m); err != nil {
		t.Fatalf("first delivery error = %v", err)
	}
	if err := env.svc.handleInbound(context.Background(), m); err != nil {
		t.Fatalf("replay error = %v", err)
	}

	if len(env.messages.created) != 1 {
		t.Errorf("messages = %d, want 1 after replay", len(env.messages.created))
	}
	if len(env.notifier.dispatches) != 1 {
		t.Errorf("dispatches = %d, want 1 after replay", len(env.notifier.dispatches))
	}
}

func TestInboundDocumentWithMedia(t *testing.T) {
	env := newWhatsAppEnv()
	env.provider.downloads["media-1"] = []byte("%PDF-1.4 fake")
	at := time.Date(2025, time.June, 10, 10, 0, 0, 0, time.UTC)

	m := inbound("wamid.6", "segue o documento", at)
	m.Kind = whatsapp.InboundDocument
	m.MediaID = "media-1"
	m.Filename = "procuracao.pdf"
	m.MimeType = "application/pdf"

	if err := env.svc.handleInbound(context.Background(), m); err != nil {
		t.Fatalf("handleInbound() error = %v", err)
	}

	msg := env.messages.created[0]
	if msg.Type != models.MessageDocument {
		t.Errorf("type = %s, want document", msg.Type)
	}
	if msg.FileName == nil || *msg.FileName != "procuracao.pdf" {
		t.Errorf("filename = %v, want procuracao.pdf", msg.FileName)
	}
	if msg.FileSize == nil || *msg.FileSize != int64(len("%PDF-1.4 fake")) {
		t.Errorf("file size = %v, want downloaded length", msg.FileSize)
	}
}

func TestStatusUpdatesAreLastWriteWins(t *testing.T) {
	env := newWhatsAppEnv()
	clientID := "client-1"
	conv := env.conversations.add(&models.Conversation{
		TenantID: "tenant-1", ClientID: &clientID, Title: "Atendimento Geral",
		Type: models.ConversationWhatsAppBound, Status: models.ConversationActive,
		Priority: models.PriorityNormal,
	})
	providerID := "wamid.out-1"
	userID := "user-lawyer"
	env.messages.Create(context.Background(), &models.Message{
		ConversationID: conv.ID, SenderUserID: &userID,
		Type: models.MessageText, Content: "enviado ao cliente",
		WhatsAppMessageID: &providerID,
	})
	msgID := env.messages.created[0].ID

	at := time.Date(2025, time.June, 10, 10, 0, 0, 0, time.UTC)
	updates := []string{"delivered", "read", "sent"}
	for i, status := range updates {
		err := env.svc.handleStatus(context.Background(), whatsapp.StatusUpdate{
			ProviderID: providerID, Status: status, Timestamp: at.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("handleStatus(%s) error = %v", status, err)
		}
	}

	// No monotonicity: the late "sent" overwrites the earlier "read"
	if got := env.statuses.rows[statusKey{msgID, clientID}]; got != models.StatusSent {
		t.Errorf("final status = %s, want sent (last write wins)", got)
	}
	if got := env.messages.statuses[providerID]; got != models.StatusSent {
		t.Errorf("provider status = %s, want sent", got)
	}
}

func TestStatusForUnknownMessageIgnored(t *testing.T) {
	env := newWhatsAppEnv()

	err := env.svc.handleStatus(context.Background(), whatsapp.StatusUpdate{
		ProviderID: "wamid.never-seen", Status: "delivered", Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("handleStatus() error = %v, want nil for unknown message", err)
	}
}

func TestClassifyTopic(t *testing.T) {
	tests := []struct {
		text     string
		title    string
		priority models.ConversationPriority
	}{
		{"Preciso de ajuda URGENTE", "Urgente", models.PriorityUrgent},
		{"quero enviar um documento", "Documentos", models.PriorityNormal},
		{"quando é a audiência?", "Audiências e Prazos", models.PriorityHigh},
		{"qual o prazo do recurso", "Audiências e Prazos", models.PriorityHigh},
		{"tenho uma dúvida sobre o contrato", "Consulta Jurídica", models.PriorityNormal},
		{"bom dia", "Atendimento Geral", models.PriorityNormal},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			title, priority := classifyTopic(tt.text)
			if title != tt.title || priority != tt.priority {
				t.Errorf("classifyTopic(%q) = (%s, %s), want (%s, %s)",
					tt.text, title, priority, tt.title, tt.priority)
			}
		})
	}
}

func TestProcessWebhookEndToEnd(t *testing.T) {
	env := newWhatsAppEnv()

	body := []byte(`{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "123",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"contacts": [{"wa_id": "5511999998888", "profile": {"name": "Carlos Pereira"}}],
					"messages": [{
						"id": "wamid.e2e",
						"from": "5511999998888",
						"timestamp": "1749549600",
						"type": "text",
						"text": {"body": "bom dia, tenho uma consulta"}
					}]
				}
			}]
		}]
	}`)

	if err := env.svc.ProcessWebhook(context.Background(), body); err != nil {
		t.Fatalf("ProcessWebhook() error = %v", err)
	}

	if len(env.messages.created) == 0 {
		t.Fatal("no message stored from webhook")
	}
	msg := env.messages.created[0]
	if msg.Content != "bom dia, tenho uma consulta" {
		t.Errorf("content = %q", msg.Content)
	}
	var conv *models.Conversation
	for _, c := range env.conversations.byID {
		conv = c
	}
	if conv == nil || conv.Title != "Consulta Jurídica" {
		t.Errorf("conversation title = %v, want Consulta Jurídica", conv)
	}
}
