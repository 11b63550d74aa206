package menowellness

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
	"github.com/menolabs/wellness-backend/internal/services"
	"github.com/menolabs/wellness-backend/internal/store"
	"github.com/menolabs/wellness-backend/internal/tenant"
	"gorm.io/datatypes"
)

// JournalService writes and reads encrypted journal entries for the
// MenoWellness app. Entry text is sealed under the meno-wellness key
// namespace before it touches storage.
type JournalService struct {
	store     store.Store
	envelope  *envelope.Service
	consent   *consent.Service
	sentiment *services.SentimentService
	audit     *audit.Recorder
}

func NewJournalService(st store.Store, env *envelope.Service, cons *consent.Service, sentiment *services.SentimentService, rec *audit.Recorder) *JournalService {
	return &JournalService{store: st, envelope: env, consent: cons, sentiment: sentiment, audit: rec}
}

// DecryptedEntry is the client-facing shape of an opened entry.
type DecryptedEntry struct {
	ID                uuid.UUID      `json:"id"`
	Text              string         `json:"text"`
	MoodScore         *int           `json:"mood_score,omitempty"`
	SharedWithPartner bool           `json:"shared_with_partner"`
	Sentiment         datatypes.JSON `json:"sentiment,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// CreateEntry seals the entry text under a fresh DEK. When the user has
// also granted sentiment analysis, scoring runs asynchronously so the
// write path never waits on the external collaborator.
func (s *JournalService) CreateEntry(ctx context.Context, uid, text string, moodScore *int, shared bool) (*models.JournalEntry, error) {
	if text == "" {
		return nil, privacy.E(privacy.KindInvalidArgument, "entry text is required")
	}
	if !s.consent.Has(ctx, uid, consent.PurposeDataProcessing) {
		err := privacy.E(privacy.KindPermissionDenied, "data processing consent not granted")
		s.audit.Record(ctx, uid, audit.ActionEntryCreated, audit.WithError(err))
		return nil, err
	}

	data, wrapped, err := s.envelope.Seal(ctx, tenant.AppMenoWellness, uid, []byte(text))
	if err != nil {
		s.audit.Record(ctx, uid, audit.ActionEntryCreated, audit.WithError(err))
		return nil, err
	}

	wrappedJSON, err := json.Marshal(wrapped)
	if err != nil {
		return nil, privacy.Wrap(err, privacy.KindInternal, "failed to encode wrapped key")
	}

	entry := &models.JournalEntry{
		ID:                uuid.New(),
		AppID:             tenant.AppMenoWellness,
		UserID:            uid,
		Payload:           *data,
		WrappedDEK:        string(wrappedJSON),
		KeyVersion:        wrapped.KeyVersion,
		MoodScore:         moodScore,
		SharedWithPartner: shared,
		CreatedAt:         time.Now().UTC(),
	}
	if err := s.store.Entries().Create(ctx, entry); err != nil {
		s.audit.Record(ctx, uid, audit.ActionEntryCreated, audit.WithError(err))
		return nil, privacy.Wrap(err, privacy.KindInternal, "failed to store entry")
	}

	s.audit.Record(ctx, uid, audit.ActionEntryCreated,
		audit.WithResource("journal_entry", entry.ID.String()))

	if s.sentiment.IsConfigured() && s.consent.Has(ctx, uid, consent.PurposeSentimentAnalysis) {
		go s.analyzeSentiment(entry.ID, uid, text)
	}

	return entry, nil
}

// analyzeSentiment runs detached from the request. Consent is re-checked
// inside Analyze, so a revocation racing the goroutine still wins.
func (s *JournalService) analyzeSentiment(entryID uuid.UUID, uid, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := s.sentiment.Analyze(ctx, uid, text)
	if err != nil {
		slog.Error("sentiment analysis failed", "entry_id", entryID, "error", err)
		return
	}

	entry, err := s.store.Entries().Get(ctx, entryID)
	if err != nil {
		slog.Error("entry vanished before sentiment write", "entry_id", entryID, "error", err)
		return
	}
	raw, _ := json.Marshal(result)
	entry.Sentiment = datatypes.JSON(raw)
	if err := s.store.Entries().Save(ctx, entry); err != nil {
		slog.Error("failed to store sentiment", "entry_id", entryID, "error", err)
	}
}

// GetEntry opens one entry for its owner.
func (s *JournalService) GetEntry(ctx context.Context, uid string, entryID uuid.UUID) (*DecryptedEntry, error) {
	entry, err := s.store.Entries().Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.AppID != tenant.AppMenoWellness {
		return nil, privacy.E(privacy.KindNotFound, "entry not found")
	}
	if entry.UserID != uid {
		err := privacy.E(privacy.KindPermissionDenied, "entry belongs to another user")
		s.audit.Record(ctx, uid, audit.ActionEntryDecrypted,
			audit.WithResource("journal_entry", entryID.String()), audit.WithError(err))
		return nil, err
	}

	text, err := s.open(ctx, entry)
	if err != nil {
		s.audit.Record(ctx, uid, audit.ActionEntryDecrypted,
			audit.WithResource("journal_entry", entryID.String()), audit.WithError(err))
		return nil, err
	}

	s.audit.Record(ctx, uid, audit.ActionEntryDecrypted,
		audit.WithResource("journal_entry", entryID.String()))
	return &DecryptedEntry{
		ID:                entry.ID,
		Text:              text,
		MoodScore:         entry.MoodScore,
		SharedWithPartner: entry.SharedWithPartner,
		Sentiment:         entry.Sentiment,
		CreatedAt:         entry.CreatedAt,
	}, nil
}

func (s *JournalService) open(ctx context.Context, entry *models.JournalEntry) (string, error) {
	var wrapped envelope.WrappedDEK
	if err := json.Unmarshal([]byte(entry.WrappedDEK), &wrapped); err != nil {
		return "", privacy.Wrap(err, privacy.KindMalformedKey, "stored wrapped key is unreadable")
	}

	plaintext, err := s.envelope.Open(ctx, tenant.AppMenoWellness, entry.UserID, &wrapped, &entry.Payload)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// ListEntries returns the encrypted entry metadata without opening any
// payloads. Decryption is per-entry and always audited.
func (s *JournalService) ListEntries(ctx context.Context, uid string, limit, offset int) ([]models.JournalEntry, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.Entries().ListByUser(ctx, tenant.AppMenoWellness, uid, limit, offset)
}

// UpdateSharing toggles partner visibility of one entry.
func (s *JournalService) UpdateSharing(ctx context.Context, uid string, entryID uuid.UUID, shared bool) (*models.JournalEntry, error) {
	entry, err := s.store.Entries().Get(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.AppID != tenant.AppMenoWellness || entry.UserID != uid {
		return nil, privacy.E(privacy.KindNotFound, "entry not found")
	}

	entry.SharedWithPartner = shared
	if err := s.store.Entries().Save(ctx, entry); err != nil {
		return nil, privacy.Wrap(err, privacy.KindInternal, "failed to update entry")
	}
	return entry, nil
}
