package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/menolabs/wellness-backend/internal/audit"
	"github.com/menolabs/wellness-backend/internal/consent"
	"github.com/menolabs/wellness-backend/internal/models"
	"github.com/menolabs/wellness-backend/internal/privacy"
	"github.com/menolabs/wellness-backend/internal/store"
)

// RequestDeletion records the first phase of account erasure. The durable
// request is cheap to create; the purge itself runs later via
// ExecuteDeletion, either from the sweep or an explicit process call.
func (s *Service) RequestDeletion(ctx context.Context, uid, notes string, meta privacy.RequestMeta) (*models.DeletionRequest, error) {
	if uid == "" {
		return nil, privacy.E(privacy.KindInvalidArgument, "uid is required")
	}
	if _, err := s.store.Users().Get(ctx, uid); err != nil {
		return nil, err
	}

	req := &models.DeletionRequest{
		ID:          uuid.New(),
		UserID:      uid,
		RequestedAt: time.Now().UTC(),
		Status:      models.DeletionStatusPending,
		Notes:       notes,
	}
	if err := s.store.Deletions().Create(ctx, req); err != nil {
		s.audit.Record(ctx, uid, audit.ActionDeletionRequested, audit.WithMeta(meta), audit.WithError(err))
		return nil, privacy.Wrap(err, privacy.KindInternal, "failed to store deletion request")
	}

	s.audit.Record(ctx, uid, audit.ActionDeletionRequested,
		audit.WithMeta(meta),
		audit.WithResource("deletion_request", req.ID.String()))
	return req, nil
}

// ExecuteDeletion is the second phase: the actual purge. It verifies the
// request belongs to the user, marks it processing, then removes every
// collection the user owns in one transaction. The completion audit entry
// is written after the purge so it survives as the single remaining trace
// of the account.
func (s *Service) ExecuteDeletion(ctx context.Context, uid string, requestID uuid.UUID) error {
	req, err := s.store.Deletions().Get(ctx, requestID)
	if err != nil {
		return err
	}
	if req.UserID != uid {
		return privacy.E(privacy.KindPermissionDenied, "deletion request belongs to another user")
	}
	if req.Status == models.DeletionStatusCompleted {
		return privacy.E(privacy.KindFailedPrecondition, "deletion request already completed")
	}

	req.Status = models.DeletionStatusProcessing
	if err := s.store.Deletions().Save(ctx, req); err != nil {
		return privacy.Wrap(err, privacy.KindInternal, "failed to mark deletion request processing")
	}

	purgeErr := s.store.InTx(ctx, func(tx store.Store) error {
		if err := tx.Entries().DeleteByUser(ctx, uid); err != nil {
			return err
		}
		if err := tx.Invites().DeleteByUser(ctx, uid); err != nil {
			return err
		}
		if err := tx.Consents().DeleteByUser(ctx, uid); err != nil {
			return err
		}
		if err := tx.Retentions().DeleteByUser(ctx, uid); err != nil {
			return err
		}
		if err := tx.Audits().DeleteByUser(ctx, uid); err != nil {
			return err
		}
		return tx.Users().Delete(ctx, uid)
	})
	if purgeErr != nil {
		req.Status = models.DeletionStatusFailed
		req.Notes = purgeErr.Error()
		if serr := s.store.Deletions().Save(ctx, req); serr != nil {
			slog.Error("failed to mark deletion request failed",
				"request_id", requestID, "error", serr)
		}
		s.audit.Record(ctx, uid, audit.ActionDeletionExecuted,
			audit.WithResource("deletion_request", requestID.String()),
			audit.WithError(purgeErr))
		return privacy.Wrap(purgeErr, privacy.KindInternal, "account purge failed")
	}

	// Auth principal removal sits outside the transaction: the external
	// identity backend has no part in our commit.
	if s.principal != nil {
		if err := s.principal.DeletePrincipal(ctx, uid); err != nil {
			slog.Error("auth principal removal failed after purge", "uid", uid, "error", err)
		}
	}

	now := time.Now().UTC()
	req.Status = models.DeletionStatusCompleted
	req.ProcessedAt = &now
	if err := s.store.Deletions().Save(ctx, req); err != nil {
		return privacy.Wrap(err, privacy.KindInternal, "failed to mark deletion request completed")
	}

	s.audit.Record(ctx, uid, audit.ActionDeletionExecuted,
		audit.WithResource("deletion_request", requestID.String()),
		audit.WithDetail("deletion_request_id", requestID.String()))
	return nil
}

// ProcessDeletion resolves a request id to its owner and executes the
// purge. Used by the admin process endpoint, which has the request id but
// not the subject user.
func (s *Service) ProcessDeletion(ctx context.Context, requestID uuid.UUID) error {
	req, err := s.store.Deletions().Get(ctx, requestID)
	if err != nil {
		return err
	}
	return s.ExecuteDeletion(ctx, req.UserID, requestID)
}

// AnonymizeResult reports the outcome of an anonymization request.
type AnonymizeResult struct {
	UserID      string    `json:"user_id"`
	RequestedAt time.Time `json:"requested_at"`
	Status      string    `json:"status"`
}

// AnonymizeUserData gates the anonymized-licensing pipeline behind
// research-participation consent. The irreversible transform itself is
// still being specified with the research partner, so a granted request
// currently only records intent.
// TODO: wire the k-anonymity batch job once the licensing schema lands.
func (s *Service) AnonymizeUserData(ctx context.Context, uid string, meta privacy.RequestMeta) (*AnonymizeResult, error) {
	if uid == "" {
		return nil, privacy.E(privacy.KindInvalidArgument, "uid is required")
	}
	if _, err := s.store.Users().Get(ctx, uid); err != nil {
		return nil, err
	}

	if !s.consent.Has(ctx, uid, consent.PurposeResearchParticipation) {
		err := privacy.E(privacy.KindPermissionDenied, "research participation consent not granted")
		s.audit.Record(ctx, uid, audit.ActionAnonymizationRequested, audit.WithMeta(meta), audit.WithError(err))
		return nil, err
	}

	s.audit.Record(ctx, uid, audit.ActionAnonymizationRequested, audit.WithMeta(meta))
	return &AnonymizeResult{
		UserID:      uid,
		RequestedAt: time.Now().UTC(),
		Status:      "accepted",
	}, nil
}
