// Package audit maintains the append-only trail of privacy-relevant
// actions. Recording is best-effort relative to the primary operation: a
// failed audit write is logged to telemetry and never propagated, but
// every code path that changes protected state must attempt one entry per
// attempt.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/menolabs/wellness-backend/internal/models"
	"github.com/menolabs/wellness-backend/internal/privacy"
	"github.com/menolabs/wellness-backend/internal/store"
	"gorm.io/datatypes"
)

// Actions recorded in the trail.
const (
	ActionUserOnboarded          = "user_onboarded"
	ActionConsentUpdated         = "consent_updated"
	ActionInviteCreated          = "partner_invite_created"
	ActionInviteAccepted         = "partner_invite_accepted"
	ActionInviteExpired          = "partner_invite_expired"
	ActionDataExported           = "data_exported"
	ActionDeletionRequested      = "deletion_requested"
	ActionDeletionExecuted       = "deletion_executed"
	ActionAnonymizationRequested = "anonymization_requested"
	ActionEntryCreated           = "journal_entry_created"
	ActionEntryDecrypted         = "journal_entry_decrypted"
	ActionSentimentAnalyzed      = "sentiment_analyzed"
)

// Option customizes a single audit entry.
type Option func(*entry)

type entry struct {
	meta         privacy.RequestMeta
	resourceID   string
	resourceType string
	details      map[string]any
}

// WithMeta attaches request metadata (IP, user agent).
func WithMeta(meta privacy.RequestMeta) Option {
	return func(e *entry) { e.meta = meta }
}

// WithResource names the record the action touched.
func WithResource(resourceType, resourceID string) Option {
	return func(e *entry) {
		e.resourceType = resourceType
		e.resourceID = resourceID
	}
}

// WithDetail adds one key to the opaque details blob.
func WithDetail(key string, value any) Option {
	return func(e *entry) {
		if e.details == nil {
			e.details = make(map[string]any)
		}
		e.details[key] = value
	}
}

// WithError marks the attempt as failed and records the display message.
func WithError(err error) Option {
	return func(e *entry) {
		if e.details == nil {
			e.details = make(map[string]any)
		}
		e.details["success"] = false
		e.details["error"] = privacy.MessageOf(err)
		e.details["error_kind"] = string(privacy.KindOf(err))
	}
}

// Recorder appends audit entries to the store.
type Recorder struct {
	store store.Store
}

func NewRecorder(st store.Store) *Recorder {
	return &Recorder{store: st}
}

// Record appends one entry. It never returns an error: a write failure is
// logged and swallowed so it cannot mask or replace the primary result.
func (r *Recorder) Record(ctx context.Context, userID, action string, opts ...Option) {
	e := entry{}
	for _, opt := range opts {
		opt(&e)
	}
	meta := e.meta.OrUnknown()

	log := &models.AuditLog{
		UserID:    userID,
		Action:    action,
		Timestamp: time.Now().UTC(),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}
	if e.resourceID != "" {
		log.ResourceID = &e.resourceID
	}
	if e.resourceType != "" {
		log.ResourceType = &e.resourceType
	}
	if len(e.details) > 0 {
		if b, err := json.Marshal(e.details); err == nil {
			log.Details = datatypes.JSON(b)
		}
	}

	if err := r.store.Audits().Append(ctx, log); err != nil {
		slog.Error("audit write failed", "action", action, "user_id", userID, "error", err)
	}
}
