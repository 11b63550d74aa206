package models

import (
	"time"

	"github.com/google/uuid"
)

// Deletion request states: pending → processing → completed | failed.
// Failed requests are only re-attempted by the periodic sweep once they
// pass the grace window.
const (
	DeletionStatusPending    = "pending"
	DeletionStatusProcessing = "processing"
	DeletionStatusCompleted  = "completed"
	DeletionStatusFailed     = "failed"
)

// DeletionRequest is the durable record of a user's account-erasure
// request. Creation is cheap; the heavy multi-collection purge happens in
// a second phase via the sweep or an explicit process call.
type DeletionRequest struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      string     `gorm:"size:128;not null;index" json:"user_id"`
	RequestedAt time.Time  `gorm:"not null" json:"requested_at"`
	Status      string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Notes       string     `gorm:"type:text" json:"notes,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}
