package models

import "time"

// UserConsent is the single logical consent record per user. Re-consent
// overwrites the whole record with a fresh timestamp and bumped version;
// partial updates are never merged. Absence of a row means every flag is
// false.
type UserConsent struct {
	UserID                string    `gorm:"primaryKey;size:128" json:"user_id"`
	DataProcessing        bool      `gorm:"not null;default:false" json:"data_processing"`
	SentimentAnalysis     bool      `gorm:"not null;default:false" json:"sentiment_analysis"`
	AnonymizedLicensing   bool      `gorm:"not null;default:false" json:"anonymized_licensing"`
	ResearchParticipation bool      `gorm:"not null;default:false" json:"research_participation"`
	ConsentTimestamp      time.Time `gorm:"not null" json:"consent_timestamp"`
	IPAddress             string    `gorm:"size:64" json:"ip_address"`
	UserAgent             string    `gorm:"size:512" json:"user_agent"`
	Jurisdiction          string    `gorm:"size:8" json:"jurisdiction"`
	Version               int       `gorm:"not null;default:1" json:"version"`
}
