package partnersupport

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/menolabs/wellness-backend/internal/audit"
	"github.com/menolabs/wellness-backend/internal/consent"
	"github.com/menolabs/wellness-backend/internal/envelope"
	"github.com/menolabs/wellness-backend/internal/models"
	"github.com/menolabs/wellness-backend/internal/privacy"
	"github.com/menolabs/wellness-backend/internal/store"
	"github.com/menolabs/wellness-backend/internal/tenant"
)

// SupportService stores the partner's own encrypted notes and reads the
// shared timeline of the linked MenoWellness user. Notes seal under the
// partner-support namespace; timeline entries open under meno-wellness,
// which is legitimate server-side because the record's own namespace is
// what the root key binds to.
type SupportService struct {
	store    store.Store
	envelope *envelope.Service
	consent  *consent.Service
	audit    *audit.Recorder
}

func NewSupportService(st store.Store, env *envelope.Service, cons *consent.Service, rec *audit.Recorder) *SupportService {
	return &SupportService{store: st, envelope: env, consent: cons, audit: rec}
}

// TimelineItem is one shared entry opened for the linked partner. The
// mood score and timestamps travel with it; sentiment stays private to
// the author.
type TimelineItem struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"text"`
	MoodScore *int      `json:"mood_score,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateNote seals a private support note for the partner user.
func (s *SupportService) CreateNote(ctx context.Context, uid, text string) (*models.JournalEntry, error) {
	if text == "" {
		return nil, privacy.E(privacy.KindInvalidArgument, "note text is required")
	}
	if !s.consent.Has(ctx, uid, consent.PurposeDataProcessing) {
		err := privacy.E(privacy.KindPermissionDenied, "data processing consent not granted")
		s.audit.Record(ctx, uid, audit.ActionEntryCreated, audit.WithError(err))
		return nil, err
	}

	data, wrapped, err := s.envelope.Seal(ctx, tenant.AppPartnerSupport, uid, []byte(text))
	if err != nil {
		s.audit.Record(ctx, uid, audit.ActionEntryCreated, audit.WithError(err))
		return nil, err
	}

	wrappedJSON, err := json.Marshal(wrapped)
	if err != nil {
		return nil, privacy.Wrap(err, privacy.KindInternal, "failed to encode wrapped key")
	}

	note := &models.JournalEntry{
		ID:         uuid.New(),
		AppID:      tenant.AppPartnerSupport,
		UserID:     uid,
		Payload:    *data,
		WrappedDEK: string(wrappedJSON),
		KeyVersion: wrapped.KeyVersion,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.Entries().Create(ctx, note); err != nil {
		s.audit.Record(ctx, uid, audit.ActionEntryCreated, audit.WithError(err))
		return nil, privacy.Wrap(err, privacy.KindInternal, "failed to store note")
	}

	s.audit.Record(ctx, uid, audit.ActionEntryCreated,
		audit.WithResource("journal_entry", note.ID.String()))
	return note, nil
}

// GetNote opens one of the partner's own notes.
func (s *SupportService) GetNote(ctx context.Context, uid string, noteID uuid.UUID) (*TimelineItem, error) {
	note, err := s.store.Entries().Get(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.AppID != tenant.AppPartnerSupport {
		return nil, privacy.E(privacy.KindNotFound, "note not found")
	}
	if note.UserID != uid {
		err := privacy.E(privacy.KindPermissionDenied, "note belongs to another user")
		s.audit.Record(ctx, uid, audit.ActionEntryDecrypted,
			audit.WithResource("journal_entry", noteID.String()), audit.WithError(err))
		return nil, err
	}

	text, err := s.open(ctx, tenant.AppPartnerSupport, note)
	if err != nil {
		s.audit.Record(ctx, uid, audit.ActionEntryDecrypted,
			audit.WithResource("journal_entry", noteID.String()), audit.WithError(err))
		return nil, err
	}

	s.audit.Record(ctx, uid, audit.ActionEntryDecrypted,
		audit.WithResource("journal_entry", noteID.String()))
	return &TimelineItem{ID: note.ID, Text: text, MoodScore: note.MoodScore, CreatedAt: note.CreatedAt}, nil
}

// ListNotes returns the partner's own notes without opening them.
func (s *SupportService) ListNotes(ctx context.Context, uid string, limit, offset int) ([]models.JournalEntry, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.Entries().ListByUser(ctx, tenant.AppPartnerSupport, uid, limit, offset)
}

// PartnerTimeline opens every entry the linked MenoWellness user has
// marked shared. An unlinked account cannot have a timeline.
func (s *SupportService) PartnerTimeline(ctx context.Context, uid string) ([]TimelineItem, error) {
	user, err := s.store.Users().Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if user.PartnerID == nil {
		return nil, privacy.E(privacy.KindFailedPrecondition, "no partner link exists")
	}

	shared, err := s.store.Entries().ListSharedByUser(ctx, *user.PartnerID)
	if err != nil {
		return nil, err
	}

	items := make([]TimelineItem, 0, len(shared))
	for i := range shared {
		entry := &shared[i]
		if entry.AppID != tenant.AppMenoWellness {
			continue
		}
		text, err := s.open(ctx, tenant.AppMenoWellness, entry)
		if err != nil {
			// One unreadable entry must not hide the rest of the timeline.
			slog.Error("timeline entry decryption failed", "entry_id", entry.ID, "error", err)
			continue
		}
		items = append(items, TimelineItem{
			ID:        entry.ID,
			Text:      text,
			MoodScore: entry.MoodScore,
			CreatedAt: entry.CreatedAt,
		})
	}

	s.audit.Record(ctx, uid, audit.ActionEntryDecrypted,
		audit.WithResource("partner_timeline", *user.PartnerID),
		audit.WithDetail("entries", len(items)))
	return items, nil
}

func (s *SupportService) open(ctx context.Context, namespace string, entry *models.JournalEntry) (string, error) {
	var wrapped envelope.WrappedDEK
	if err := json.Unmarshal([]byte(entry.WrappedDEK), &wrapped); err != nil {
		return "", privacy.Wrap(err, privacy.KindMalformedKey, "stored wrapped key is unreadable")
	}

	plaintext, err := s.envelope.Open(ctx, namespace, entry.UserID, &wrapped, &entry.Payload)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
