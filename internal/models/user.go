package models

import (
	"time"
)

// User roles. A user onboards as primary; accepting a partner invite
// switches the accepting side to partner. Provider accounts are created
// out of band.
const (
	RolePrimary  = "primary"
	RolePartner  = "partner"
	RoleProvider = "provider"
)

// User is the identity record shared by both wellness apps. The partner
// link is symmetric: PartnerID is set exactly once on each side when an
// invite is accepted, and never overwritten afterwards.
type User struct {
	UID          string    `gorm:"primaryKey;size:128" json:"uid"`
	Email        string    `gorm:"size:255;index" json:"email,omitempty"`
	DisplayName  string    `gorm:"size:255" json:"display_name,omitempty"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	AuthProvider string    `gorm:"size:50;default:'email'" json:"-"`
	Role         string    `gorm:"size:20;not null;default:'primary'" json:"role"`
	PartnerID    *string   `gorm:"size:128;index" json:"partner_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastActiveAt time.Time `json:"last_active_at"`
}
