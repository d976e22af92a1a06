package models

import "time"

// Client defines a portal client (the firm's customer) based on the 'clients' table.
// Phone, Mobile and WhatsApp are kept as separate columns because contacts are
// imported from several sources and any of them may carry the number that a
// WhatsApp inbound message arrives from.
type Client struct {
	ID         string     `json:"id" db:"id"`
	TenantID   string     `json:"tenantId" db:"tenant_id"`
	Name       string     `json:"name" db:"name" example:"Carlos Pereira"`
	Email      string     `json:"email" db:"email"`
	Password   string     `json:"-" db:"password"` // Portal login, hashed
	Phone      *string    `json:"phone,omitempty" db:"phone"`
	Mobile     *string    `json:"mobile,omitempty" db:"mobile"`
	WhatsApp   *string    `json:"whatsapp,omitempty" db:"whatsapp"`
	IsActive   bool       `json:"isActive" db:"is_active"`
	PushTokens []string   `json:"-" db:"push_tokens"`
	LastLogin  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
}
