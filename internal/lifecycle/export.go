package lifecycle

import (
	"context"
	"time"

	"github.com/menolabs/wellness-backend/internal/audit"
	"github.com/menolabs/wellness-backend/internal/models"
	"github.com/menolabs/wellness-backend/internal/privacy"
)

// Manifest summarizes an export bundle.
type Manifest struct {
	UserID       string         `json:"user_id"`
	ExportedAt   time.Time      `json:"exported_at"`
	Collections  map[string]int `json:"collections"`
	TotalRecords int            `json:"total_records"`
}

// ExportBundle carries everything the system holds about one user.
// Journal payloads stay in their encrypted form; an export is a data
// handover, not a decryption oracle.
type ExportBundle struct {
	Manifest  Manifest               `json:"manifest"`
	Profile   *models.User           `json:"profile"`
	Entries   []models.JournalEntry  `json:"journal_entries"`
	Consent   *models.UserConsent    `json:"consent,omitempty"`
	AuditLog  []models.AuditLog      `json:"audit_log"`
	Retention []models.DataRetention `json:"retention_records"`
}

// ExportUserData assembles the complete bundle for a user and records the
// export in the audit trail.
func (s *Service) ExportUserData(ctx context.Context, uid string, meta privacy.RequestMeta) (*ExportBundle, error) {
	fail := func(err error) (*ExportBundle, error) {
		s.audit.Record(ctx, uid, audit.ActionDataExported, audit.WithMeta(meta), audit.WithError(err))
		return nil, err
	}

	user, err := s.store.Users().Get(ctx, uid)
	if err != nil {
		return fail(err)
	}

	entries, err := s.store.Entries().ListAllByUser(ctx, uid)
	if err != nil {
		return fail(err)
	}
	cons, err := s.store.Consents().Get(ctx, uid)
	if err != nil && !privacy.IsKind(err, privacy.KindNotFound) {
		return fail(err)
	}
	audits, err := s.store.Audits().ListByUser(ctx, uid)
	if err != nil {
		return fail(err)
	}
	retentions, err := s.store.Retentions().ListByUser(ctx, uid)
	if err != nil {
		return fail(err)
	}

	collections := map[string]int{
		"profile":           1,
		"journal_entries":   len(entries),
		"consent":           0,
		"audit_log":         len(audits),
		"retention_records": len(retentions),
	}
	if cons != nil {
		collections["consent"] = 1
	}
	total := 0
	for _, n := range collections {
		total += n
	}

	bundle := &ExportBundle{
		Manifest: Manifest{
			UserID:       uid,
			ExportedAt:   time.Now().UTC(),
			Collections:  collections,
			TotalRecords: total,
		},
		Profile:   user,
		Entries:   entries,
		Consent:   cons,
		AuditLog:  audits,
		Retention: retentions,
	}

	s.audit.Record(ctx, uid, audit.ActionDataExported,
		audit.WithMeta(meta),
		audit.WithDetail("total_records", total))
	return bundle, nil
}
