// Package lifecycle orchestrates a user's relationship to the system:
// onboarding, partner linking via invite codes, data export and account
// deletion. Every state-changing path records exactly one audit entry per
// attempt, success or failure.
package lifecycle

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/menolabs/wellness-backend/internal/audit"
	"github.com/menolabs/wellness-backend/internal/consent"
	"github.com/menolabs/wellness-backend/internal/models"
	"github.com/menolabs/wellness-backend/internal/privacy"
	"github.com/menolabs/wellness-backend/internal/retention"
	"github.com/menolabs/wellness-backend/internal/store"
)

// InviteTTL is how long a partner invite stays acceptable.
const InviteTTL = 7 * 24 * time.Hour

// inviteCodeAttempts bounds the pre-write collision check. The 6-digit
// keyspace makes collisions rare at our volume, but we check anyway
// rather than assume collision-freedom.
const inviteCodeAttempts = 5

// PrincipalDeleter removes the authentication principal behind a user.
type PrincipalDeleter interface {
	DeletePrincipal(ctx context.Context, uid string) error
}

type Service struct {
	store     store.Store
	audit     *audit.Recorder
	retention *retention.Service
	consent   *consent.Service
	principal PrincipalDeleter
}

func NewService(st store.Store, rec *audit.Recorder, ret *retention.Service, cons *consent.Service, principal PrincipalDeleter) *Service {
	return &Service{store: st, audit: rec, retention: ret, consent: cons, principal: principal}
}

// SetPrincipalDeleter exists because the auth service and this service
// depend on each other: auth registers through Onboard, deletion ends at
// the auth principal. The wiring sets the deleter after both exist.
func (s *Service) SetPrincipalDeleter(p PrincipalDeleter) { s.principal = p }

// OnboardResult reports what onboarding did.
type OnboardResult struct {
	User    *models.User `json:"user"`
	Created bool         `json:"created"`
}

// Onboard is idempotent: a missing user record is created with default
// role primary and a scheduled retention window; an existing record only
// gets its last-active timestamp refreshed. Role and partner linkage of
// an existing user are never touched.
func (s *Service) Onboard(ctx context.Context, uid, email, displayName string, meta privacy.RequestMeta) (*OnboardResult, error) {
	if uid == "" {
		return nil, privacy.E(privacy.KindInvalidArgument, "uid is required")
	}

	now := time.Now().UTC()
	existing, err := s.store.Users().Get(ctx, uid)
	if err == nil {
		if terr := s.store.Users().TouchLastActive(ctx, uid, now); terr != nil {
			return nil, privacy.Wrap(terr, privacy.KindInternal, "failed to refresh user")
		}
		existing.LastActiveAt = now
		s.audit.Record(ctx, uid, audit.ActionUserOnboarded,
			audit.WithMeta(meta), audit.WithDetail("created", false))
		return &OnboardResult{User: existing, Created: false}, nil
	}
	if !privacy.IsKind(err, privacy.KindNotFound) {
		return nil, err
	}

	user := &models.User{
		UID:          uid,
		Email:        email,
		DisplayName:  displayName,
		Role:         models.RolePrimary,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastActiveAt: now,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		s.audit.Record(ctx, uid, audit.ActionUserOnboarded, audit.WithMeta(meta), audit.WithError(err))
		return nil, privacy.Wrap(err, privacy.KindInternal, "failed to create user")
	}

	// Best-effort companion call: a retention-scheduling hiccup should
	// not fail onboarding.
	jurisdiction := retention.JurisdictionFrom(meta.CountryCode)
	if _, err := s.retention.Schedule(ctx, uid, models.DataTypePersonal, jurisdiction); err != nil {
		slog.Error("retention scheduling failed during onboarding", "uid", uid, "error", err)
	}

	s.audit.Record(ctx, uid, audit.ActionUserOnboarded,
		audit.WithMeta(meta),
		audit.WithDetail("created", true),
		audit.WithDetail("jurisdiction", string(jurisdiction)))
	return &OnboardResult{User: user, Created: true}, nil
}

// CreateInvite generates a pending 6-digit invite with a 7-day expiry.
// The code is the lookup key, so generation retries on collision with any
// existing invite.
func (s *Service) CreateInvite(ctx context.Context, fromUID string) (*models.Invite, error) {
	if fromUID == "" {
		return nil, privacy.E(privacy.KindInvalidArgument, "uid is required")
	}
	if _, err := s.store.Users().Get(ctx, fromUID); err != nil {
		return nil, err
	}

	var code string
	for attempt := 0; ; attempt++ {
		if attempt >= inviteCodeAttempts {
			err := privacy.E(privacy.KindInternal, "could not allocate an unused invite code")
			s.audit.Record(ctx, fromUID, audit.ActionInviteCreated, audit.WithError(err))
			return nil, err
		}
		candidate, err := randomInviteCode()
		if err != nil {
			return nil, err
		}
		if _, err := s.store.Invites().Get(ctx, candidate); privacy.IsKind(err, privacy.KindNotFound) {
			code = candidate
			break
		}
	}

	now := time.Now().UTC()
	invite := &models.Invite{
		Code:       code,
		FromUserID: fromUID,
		Status:     models.InviteStatusPending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(InviteTTL),
	}
	if err := s.store.Invites().Create(ctx, invite); err != nil {
		s.audit.Record(ctx, fromUID, audit.ActionInviteCreated, audit.WithError(err))
		return nil, privacy.Wrap(err, privacy.KindInternal, "failed to store invite")
	}

	s.audit.Record(ctx, fromUID, audit.ActionInviteCreated,
		audit.WithResource("invite", code))
	return invite, nil
}

// LinkResult identifies the two sides of a completed partner link.
type LinkResult struct {
	PrimaryUserID string `json:"primary_user_id"`
	PartnerUserID string `json:"partner_user_id"`
}

// AcceptInvite links the accepting user to the inviter. The dual user
// update and invite completion commit in one transaction; the pending
// status is re-checked inside it in place of any lock.
func (s *Service) AcceptInvite(ctx context.Context, partnerUID, code string, meta privacy.RequestMeta) (*LinkResult, error) {
	fail := func(err error) (*LinkResult, error) {
		s.audit.Record(ctx, partnerUID, audit.ActionInviteAccepted,
			audit.WithMeta(meta), audit.WithResource("invite", code), audit.WithError(err))
		return nil, err
	}

	if code == "" {
		return fail(privacy.E(privacy.KindInvalidArgument, "invite code is required"))
	}

	invite, err := s.store.Invites().Get(ctx, code)
	if err != nil {
		return fail(err)
	}
	if invite.Status != models.InviteStatusPending {
		return fail(privacy.E(privacy.KindFailedPrecondition, "invite is no longer pending"))
	}
	if time.Now().UTC().After(invite.ExpiresAt) {
		// Expiry is a committed transition even though acceptance fails.
		invite.Status = models.InviteStatusExpired
		if serr := s.store.Invites().Save(ctx, invite); serr != nil {
			slog.Error("failed to expire invite", "code", code, "error", serr)
		}
		return fail(privacy.E(privacy.KindFailedPrecondition, "invite has expired"))
	}
	if invite.FromUserID == partnerUID {
		return fail(privacy.E(privacy.KindFailedPrecondition, "cannot accept your own invite"))
	}

	primary, err := s.store.Users().Get(ctx, invite.FromUserID)
	if err != nil {
		return fail(privacy.E(privacy.KindNotFound, "inviting user no longer exists"))
	}
	partner, err := s.store.Users().Get(ctx, partnerUID)
	if err != nil {
		return fail(err)
	}
	if primary.PartnerID != nil || partner.PartnerID != nil {
		return fail(privacy.E(privacy.KindFailedPrecondition, "a partner link already exists"))
	}

	now := time.Now().UTC()
	err = s.store.InTx(ctx, func(tx store.Store) error {
		current, err := tx.Invites().Get(ctx, code)
		if err != nil {
			return err
		}
		if current.Status != models.InviteStatusPending {
			return privacy.E(privacy.KindFailedPrecondition, "invite is no longer pending")
		}

		// Re-read both sides: a link committed by a concurrent accept
		// after the checks above must not be overwritten.
		primary, err = tx.Users().Get(ctx, invite.FromUserID)
		if err != nil {
			return err
		}
		partner, err = tx.Users().Get(ctx, partnerUID)
		if err != nil {
			return err
		}
		if primary.PartnerID != nil || partner.PartnerID != nil {
			return privacy.E(privacy.KindFailedPrecondition, "a partner link already exists")
		}

		primary.PartnerID = &partner.UID
		partner.PartnerID = &primary.UID
		partner.Role = models.RolePartner
		if err := tx.Users().Save(ctx, primary); err != nil {
			return err
		}
		if err := tx.Users().Save(ctx, partner); err != nil {
			return err
		}

		current.Status = models.InviteStatusCompleted
		current.AcceptedBy = &partner.UID
		current.AcceptedAt = &now
		return tx.Invites().Save(ctx, current)
	})
	if err != nil {
		return fail(err)
	}

	s.audit.Record(ctx, partnerUID, audit.ActionInviteAccepted,
		audit.WithMeta(meta),
		audit.WithResource("invite", code),
		audit.WithDetail("primary_user_id", primary.UID))
	return &LinkResult{PrimaryUserID: primary.UID, PartnerUserID: partner.UID}, nil
}

func randomInviteCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", privacy.Wrap(err, privacy.KindInternal, "invite code generation failed")
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
