// Package consent is the single source of truth for what a user has
// allowed. Absence of a record means nothing is allowed, and checks are
// re-evaluated at action time because consent can be revoked between calls.
package consent

import (
	"context"
	"log/slog"
	"time"

	"github.com/menolabs/wellness-backend/internal/audit"
	"github.com/menolabs/wellness-backend/internal/models"
	"github.com/menolabs/wellness-backend/internal/privacy"
	"github.com/menolabs/wellness-backend/internal/store"
)

// Purpose is a gateable processing category. Each purpose maps to exactly
// one consent flag.
type Purpose string

const (
	PurposeDataProcessing        Purpose = "dataProcessing"
	PurposeSentimentAnalysis     Purpose = "sentimentAnalysis"
	PurposeAnonymizedLicensing   Purpose = "anonymizedLicensing"
	PurposeResearchParticipation Purpose = "researchParticipation"
)

// Flags is the complete consent flag set. Setters must always supply the
// whole set so a stale partial update can never resurrect a revoked flag.
type Flags struct {
	DataProcessing        bool `json:"data_processing"`
	SentimentAnalysis     bool `json:"sentiment_analysis"`
	AnonymizedLicensing   bool `json:"anonymized_licensing"`
	ResearchParticipation bool `json:"research_participation"`
}

type Service struct {
	store store.Store
	audit *audit.Recorder
}

func NewService(st store.Store, rec *audit.Recorder) *Service {
	return &Service{store: st, audit: rec}
}

// Get returns the user's consent record, or nil when none exists.
func (s *Service) Get(ctx context.Context, userID string) (*models.UserConsent, error) {
	c, err := s.store.Consents().Get(ctx, userID)
	if err != nil {
		if privacy.IsKind(err, privacy.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// Has reports whether the user has granted the given purpose. It never
// raises: a missing record, unset flag, unknown purpose or store failure
// all report false, the most restrictive default.
func (s *Service) Has(ctx context.Context, userID string, purpose Purpose) bool {
	c, err := s.Get(ctx, userID)
	if err != nil {
		slog.Error("consent lookup failed, denying", "user_id", userID, "purpose", purpose, "error", err)
		return false
	}
	if c == nil {
		return false
	}

	switch purpose {
	case PurposeDataProcessing:
		return c.DataProcessing
	case PurposeSentimentAnalysis:
		return c.SentimentAnalysis
	case PurposeAnonymizedLicensing:
		return c.AnonymizedLicensing
	case PurposeResearchParticipation:
		return c.ResearchParticipation
	default:
		return false
	}
}

// Set overwrites the user's consent record with the complete flag set,
// stamping a fresh timestamp and bumping the policy version.
func (s *Service) Set(ctx context.Context, userID string, flags Flags, jurisdiction string, meta privacy.RequestMeta) (*models.UserConsent, error) {
	if userID == "" {
		return nil, privacy.E(privacy.KindInvalidArgument, "user id is required")
	}

	version := 1
	if existing, err := s.Get(ctx, userID); err != nil {
		return nil, err
	} else if existing != nil {
		version = existing.Version + 1
		if jurisdiction == "" {
			jurisdiction = existing.Jurisdiction
		}
	}

	meta = meta.OrUnknown()
	record := &models.UserConsent{
		UserID:                userID,
		DataProcessing:        flags.DataProcessing,
		SentimentAnalysis:     flags.SentimentAnalysis,
		AnonymizedLicensing:   flags.AnonymizedLicensing,
		ResearchParticipation: flags.ResearchParticipation,
		ConsentTimestamp:      time.Now().UTC(),
		IPAddress:             meta.IPAddress,
		UserAgent:             meta.UserAgent,
		Jurisdiction:          jurisdiction,
		Version:               version,
	}

	if err := s.store.Consents().Upsert(ctx, record); err != nil {
		s.audit.Record(ctx, userID, audit.ActionConsentUpdated, audit.WithMeta(meta), audit.WithError(err))
		return nil, privacy.Wrap(err, privacy.KindInternal, "failed to store consent")
	}

	s.audit.Record(ctx, userID, audit.ActionConsentUpdated,
		audit.WithMeta(meta),
		audit.WithDetail("version", version),
		audit.WithDetail("data_processing", flags.DataProcessing),
		audit.WithDetail("sentiment_analysis", flags.SentimentAnalysis),
		audit.WithDetail("anonymized_licensing", flags.AnonymizedLicensing),
		audit.WithDetail("research_participation", flags.ResearchParticipation),
	)
	return record, nil
}
