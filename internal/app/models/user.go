package models

import (
	"time"
)

// User defines a staff member (lawyer, paralegal, admin) based on the 'users' table
type User struct {
	ID          string     `json:"id" db:"id" example:"5f6c1d0e-0a8b-4f9e-b9a1-2c3d4e5f6a7b"`
	TenantID    string     `json:"tenantId" db:"tenant_id"`
	Email       string     `json:"email" db:"email" example:"ana.souza@escritorio.adv.br"`
	Password    string     `json:"-" db:"password"` // Hashed password, excluded from JSON
	FirstName   string     `json:"firstName" db:"first_name" example:"Ana"`
	LastName    string     `json:"lastName" db:"last_name" example:"Souza"`
	RoleType    RoleType   `json:"roleType" db:"role_type" example:"LAWYER"`
	Phone       *string    `json:"phone,omitempty" db:"phone"` // WhatsApp-capable number for the whatsapp channel
	IsActive    bool       `json:"isActive" db:"is_active" example:"true"`
	PushTokens  []string   `json:"-" db:"push_tokens"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// FullName returns the display name used in notification titles and presence events
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
