package models

import "time"

// Invite statuses. Pending invites transition to completed on acceptance
// or to expired past ExpiresAt; terminal states are immutable.
const (
	InviteStatusPending   = "pending"
	InviteStatusCompleted = "completed"
	InviteStatusExpired   = "expired"
)

// Invite is a partner-link invitation. The 6-digit code doubles as the
// primary key and lookup handle.
type Invite struct {
	Code       string     `gorm:"primaryKey;size:6" json:"code"`
	FromUserID string     `gorm:"size:128;not null;index" json:"from_user_id"`
	Status     string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	AcceptedBy *string    `gorm:"size:128" json:"accepted_by,omitempty"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `gorm:"not null;index" json:"expires_at"`
}
