package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories bundles all repository instances for dependency injection
type Repositories struct {
	Users         *UserRepository
	Clients       *ClientRepository
	Conversations *ConversationRepository
	Participants  *ParticipantRepository
	Messages      *MessageRepository
	Statuses      *MessageStatusRepository
	Notifications *NotificationRepository
	Preferences   *PreferenceRepository
}

// NewRepositories creates all repositories over a shared pool
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		Users:         NewUserRepository(db),
		Clients:       NewClientRepository(db),
		Conversations: NewConversationRepository(db),
		Participants:  NewParticipantRepository(db),
		Messages:      NewMessageRepository(db),
		Statuses:      NewMessageStatusRepository(db),
		Notifications: NewNotificationRepository(db),
		Preferences:   NewPreferenceRepository(db),
	}
}
