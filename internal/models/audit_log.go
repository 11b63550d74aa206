package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditLog is one append-only entry in the privacy audit trail. Entries
// are written for every privacy-relevant attempt, failures included, and
// are never mutated. They are removed only by full account erasure or the
// retention sweep's own policy.
type AuditLog struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       string         `gorm:"size:128;not null;index" json:"user_id"`
	Action       string         `gorm:"size:100;not null;index" json:"action"`
	Timestamp    time.Time      `gorm:"not null;index" json:"timestamp"`
	IPAddress    string         `gorm:"size:64" json:"ip_address"`
	UserAgent    string         `gorm:"size:512" json:"user_agent"`
	ResourceID   *string        `gorm:"size:128" json:"resource_id,omitempty"`
	ResourceType *string        `gorm:"size:50" json:"resource_type,omitempty"`
	Details      datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"details"`
}
