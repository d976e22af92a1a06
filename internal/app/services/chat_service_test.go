package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/advoga/advoga/internal/app/models"
	"github.com/advoga/advoga/internal/app/models/dto"
	"github.com/advoga/advoga/internal/pkg/apperrors"
	"github.com/advoga/advoga/internal/pkg/websocket"
)

type chatEnv struct {
	svc           ChatService
	conversations *fakeConversations
	participants  *fakeParticipants
	messages      *fakeMessages
	statuses      *fakeStatuses
	notifier      *fakeNotifier
	provider      *fakeWhatsApp
	hub           *websocket.Hub
}

func newChatEnv(t *testing.T) *chatEnv {
	t.Helper()
	env := &chatEnv{
		conversations: newFakeConversations(),
		participants:  &fakeParticipants{},
		messages:      newFakeMessages(),
		statuses:      newFakeStatuses(),
		notifier:      &fakeNotifier{},
		provider:      newFakeWhatsApp(),
	}
	env.hub = websocket.NewHub(zerolog.Nop())
	go env.hub.Run()

	env.svc = NewChatService(
		env.messages, env.conversations, env.participants, env.statuses,
		env.notifier, env.provider, env.hub, zerolog.Nop(),
	)
	return env
}

// seedConversation creates an active conversation with a lawyer and a client
func (env *chatEnv) seedConversation(t *testing.T) *models.Conversation {
	t.Helper()
	clientID := "client-1"
	conv := env.conversations.add(&models.Conversation{
		TenantID: "tenant-1", ClientID: &clientID, Title: "Consulta Jurídica",
		Type: models.ConversationConsultation, Status: models.ConversationActive,
		Priority: models.PriorityNormal,
	})
	userID := "user-lawyer"
	env.participants.Add(context.Background(), &models.ConversationParticipant{
		ConversationID: conv.ID, UserID: &userID,
		Type: models.ParticipantLawyer, Role: models.RoleOwner,
	})
	env.participants.Add(context.Background(), &models.ConversationParticipant{
		ConversationID: conv.ID, ClientID: &clientID,
		Type: models.ParticipantClient, Role: models.RoleParticipant,
	})
	return conv
}

var lawyerActor = Actor{ID: "user-lawyer", Name: "Ana Souza", IsClient: false}
var clientActor = Actor{ID: "client-1", Name: "Carlos Pereira", IsClient: true}

func TestSendMessagePersistsThenBroadcasts(t *testing.T) {
	env := newChatEnv(t)
	conv := env.seedConversation(t)

	events := make(chan *websocket.Event, 1)
	unsubscribe := env.hub.Subscribe(conv.ID, func(e *websocket.Event) {
		select {
		case events <- e:
		default:
		}
	})
	defer unsubscribe()

	msg, err := env.svc.SendMessage(context.Background(), conv.ID, clientActor, &dto.SendMessageRequest{
		Type: "text", Content: "Bom dia, doutora",
	})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if msg.ID == "" {
		t.Fatal("message was not persisted")
	}

	select {
	case e := <-events:
		if e.Kind != websocket.EventMessage {
			t.Errorf("event kind = %s, want message", e.Kind)
		}
		if e.Message.ID != msg.ID {
			t.Errorf("broadcast id = %s, want persisted id %s", e.Message.ID, msg.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("no broadcast received")
	}

	// Notification fan-out excludes the sender
	if len(env.notifier.dispatches) != 1 {
		t.Fatalf("dispatches = %d, want 1", len(env.notifier.dispatches))
	}
	for _, r := range env.notifier.dispatches[0].Recipients {
		if r.IsClient() && r.RecipientID() == clientActor.ID {
			t.Error("sender was included in notification recipients")
		}
	}
}

func TestSendMessageRejectsClosedConversation(t *testing.T) {
	env := newChatEnv(t)
	conv := env.seedConversation(t)
	env.conversations.UpdateStatus(context.Background(), conv.ID, models.ConversationClosed)

	_, err := env.svc.SendMessage(context.Background(), conv.ID, lawyerActor, &dto.SendMessageRequest{
		Type: "text", Content: "tarde demais",
	})
	if !errors.Is(err, apperrors.ErrConversationClosed) {
		t.Fatalf("error = %v, want ErrConversationClosed", err)
	}
	if len(env.messages.created) != 0 {
		t.Errorf("messages = %d, want 0", len(env.messages.created))
	}
}

func TestSendMessageRejectsNonParticipant(t *testing.T) {
	env := newChatEnv(t)
	conv := env.seedConversation(t)

	outsider := Actor{ID: "user-staff", Name: "Bruno Lima"}
	_, err := env.svc.SendMessage(context.Background(), conv.ID, outsider, &dto.SendMessageRequest{
		Type: "text", Content: "posso entrar?",
	})
	if !errors.Is(err, apperrors.ErrNotParticipant) {
		t.Fatalf("error = %v, want ErrNotParticipant", err)
	}
}

func TestSendMessageRejectsCrossConversationReply(t *testing.T) {
	env := newChatEnv(t)
	conv := env.seedConversation(t)

	otherID := "other-conv"
	env.messages.Create(context.Background(), &models.Message{
		ConversationID: otherID, SenderUserID: &lawyerActor.ID,
		Type: models.MessageText, Content: "em outra conversa",
	})
	replyTo := env.messages.created[0].ID

	_, err := env.svc.SendMessage(context.Background(), conv.ID, lawyerActor, &dto.SendMessageRequest{
		Type: "text", Content: "respondendo errado", ReplyToID: &replyTo,
	})
	if !errors.Is(err, apperrors.ErrReplyOutsideScope) {
		t.Fatalf("error = %v, want ErrReplyOutsideScope", err)
	}
}

func TestStaffMessageMirroredToWhatsApp(t *testing.T) {
	env := newChatEnv(t)
	conv := env.seedConversation(t)
	phone := "5511999998888"
	conv.WhatsAppEnabled = true
	conv.WhatsAppPhone = &phone

	msg, err := env.svc.SendMessage(context.Background(), conv.ID, lawyerActor, &dto.SendMessageRequest{
		Type: "text", Content: "Seu processo foi atualizado",
	})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if len(env.provider.sent) != 1 {
		t.Fatalf("provider sends = %d, want 1", len(env.provider.sent))
	}
	if env.provider.sent[0].to != phone {
		t.Errorf("sent to = %s, want %s", env.provider.sent[0].to, phone)
	}
	if msg.WhatsAppMessageID == nil {
		t.Error("provider message id was not recorded")
	}
}

func TestClientMessageNotMirroredToWhatsApp(t *testing.T) {
	env := newChatEnv(t)
	conv := env.seedConversation(t)
	phone := "5511999998888"
	conv.WhatsAppEnabled = true
	conv.WhatsAppPhone = &phone

	if _, err := env.svc.SendMessage(context.Background(), conv.ID, clientActor, &dto.SendMessageRequest{
		Type: "text", Content: "mensagem do portal",
	}); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if len(env.provider.sent) != 0 {
		t.Errorf("provider sends = %d, want 0 for client message", len(env.provider.sent))
	}
}

func TestEditMessageOnlyBySender(t *testing.T) {
	env := newChatEnv(t)
	conv := env.seedConversation(t)

	msg, err := env.svc.SendMessage(context.Background(), conv.ID, lawyerActor, &dto.SendMessageRequest{
		Type: "text", Content: "rascunho",
	})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if _, err := env.svc.EditMessage(context.Background(), msg.ID, clientActor, "alterado"); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Fatalf("edit by non-sender error = %v, want ErrPermissionDenied", err)
	}

	edited, err := env.svc.EditMessage(context.Background(), msg.ID, lawyerActor, "versão final")
	if err != nil {
		t.Fatalf("EditMessage() error = %v", err)
	}
	if edited.Content != "versão final" || !edited.IsEdited {
		t.Errorf("edited = %+v, want updated content and edited flag", edited)
	}
}

func TestDeleteMessageSoftDeletes(t *testing.T) {
	env := newChatEnv(t)
	conv := env.seedConversation(t)

	msg, err := env.svc.SendMessage(context.Background(), conv.ID, clientActor, &dto.SendMessageRequest{
		Type: "text", Content: "enviado por engano",
	})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}

	if err := env.svc.DeleteMessage(context.Background(), msg.ID, clientActor); err != nil {
		t.Fatalf("DeleteMessage() error = %v", err)
	}

	listed, err := env.svc.GetMessages(context.Background(), conv.ID, clientActor, &dto.GetMessagesRequest{Limit: 50})
	if err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}
	for _, m := range listed {
		if m.ID == msg.ID {
			t.Error("deleted message still listed")
		}
	}
}

func TestTypingBroadcastNotPersisted(t *testing.T) {
	env := newChatEnv(t)
	conv := env.seedConversation(t)

	events := make(chan *websocket.Event, 1)
	unsubscribe := env.hub.Subscribe(conv.ID, func(e *websocket.Event) {
		select {
		case events <- e:
		default:
		}
	})
	defer unsubscribe()

	if err := env.svc.Typing(context.Background(), conv.ID, clientActor, true); err != nil {
		t.Fatalf("Typing() error = %v", err)
	}

	select {
	case e := <-events:
		if e.Kind != websocket.EventTyping {
			t.Errorf("event kind = %s, want typing", e.Kind)
		}
		if !e.Typing.IsTyping || e.Typing.UserID != clientActor.ID {
			t.Errorf("typing event = %+v", e.Typing)
		}
	case <-time.After(time.Second):
		t.Fatal("no typing broadcast received")
	}

	if len(env.messages.created) != 0 {
		t.Errorf("messages = %d, typing must not persist anything", len(env.messages.created))
	}
}

func TestMarkConversationReadMaterializesStatuses(t *testing.T) {
	env := newChatEnv(t)
	conv := env.seedConversation(t)
	ctx := context.Background()

	clientID := "client-1"
	userID := "user-lawyer"
	fromClient := &models.Message{
		ConversationID: conv.ID, SenderClientID: &clientID,
		Type: models.MessageText, Content: "bom dia, doutora",
	}
	fromLawyer := &models.Message{
		ConversationID: conv.ID, SenderUserID: &userID,
		Type: models.MessageText, Content: "bom dia, Carlos",
	}
	system := &models.Message{
		ConversationID: conv.ID, Type: models.MessageSystem, Content: "Conversa criada",
	}
	for _, m := range []*models.Message{fromClient, fromLawyer, system} {
		if err := env.messages.Create(ctx, m); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	if err := env.svc.MarkConversationRead(ctx, conv.ID, lawyerActor); err != nil {
		t.Fatalf("MarkConversationRead() error = %v", err)
	}

	got, ok := env.statuses.rows[statusKey{fromClient.ID, lawyerActor.ID}]
	if !ok || got != models.StatusRead {
		t.Errorf("client message status = %s (present %t), want read", got, ok)
	}
	if _, ok := env.statuses.rows[statusKey{fromLawyer.ID, lawyerActor.ID}]; ok {
		t.Error("actor's own message must not get a read status")
	}
	if _, ok := env.statuses.rows[statusKey{system.ID, lawyerActor.ID}]; ok {
		t.Error("system message must not get a read status")
	}
}

func TestMarkConversationReadRequiresParticipant(t *testing.T) {
	env := newChatEnv(t)
	conv := env.seedConversation(t)

	stranger := Actor{ID: "user-other", Name: "Outro", IsClient: false}
	err := env.svc.MarkConversationRead(context.Background(), conv.ID, stranger)
	if !errors.Is(err, apperrors.ErrNotParticipant) {
		t.Errorf("error = %v, want ErrNotParticipant", err)
	}
	if len(env.statuses.rows) != 0 {
		t.Errorf("statuses = %d, want none for a non-participant", len(env.statuses.rows))
	}
}
