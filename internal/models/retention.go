package models

import (
	"time"

	"github.com/google/uuid"
)

// Data types covered by retention policy.
const (
	DataTypePersonal   = "personal"
	DataTypeAnonymized = "anonymized"
	DataTypeAggregated = "aggregated"
)

// DataRetention records the retention window applied to one data type for
// one user. Created alongside the user's first personal-data record.
type DataRetention struct {
	ID                uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID            string     `gorm:"size:128;not null;index" json:"user_id"`
	DataType          string     `gorm:"size:20;not null" json:"data_type"`
	CreatedAt         time.Time  `json:"created_at"`
	RetentionPeriod   int        `gorm:"not null" json:"retention_period"`
	ScheduledDeletion *time.Time `json:"scheduled_deletion,omitempty"`
	Jurisdiction      string     `gorm:"size:8;not null" json:"jurisdiction"`
}
