package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EncryptedData is the wire shape persisted alongside any encrypted field.
// It is immutable once written and never carries plaintext.
type EncryptedData struct {
	EncryptedValue string    `gorm:"type:text" json:"encrypted_value"`
	KeyID          string    `gorm:"size:128" json:"key_id"`
	Algorithm      string    `gorm:"size:20" json:"algorithm"`
	CreatedAt      time.Time `json:"created_at"`
}

// JournalEntry is the parent record carrying an encrypted payload. Both
// apps write entries under their own app_id; the wrapped DEK stored next
// to the ciphertext can only be unwrapped under that app's key namespace.
type JournalEntry struct {
	ID                uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	AppID             string         `gorm:"size:50;not null;index" json:"app_id"`
	UserID            string         `gorm:"size:128;not null;index" json:"user_id"`
	Payload           EncryptedData  `gorm:"embedded" json:"payload"`
	WrappedDEK        string         `gorm:"type:text;not null" json:"-"`
	KeyVersion        string         `gorm:"size:20;not null" json:"-"`
	MoodScore         *int           `json:"mood_score,omitempty"`
	SharedWithPartner bool           `gorm:"not null;default:false" json:"shared_with_partner"`
	Sentiment         datatypes.JSON `gorm:"type:jsonb" json:"sentiment,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}
