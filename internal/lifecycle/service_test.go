package lifecycle

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/menolabs/wellness-backend/internal/audit"
	"github.com/menolabs/wellness-backend/internal/consent"
	"github.com/menolabs/wellness-backend/internal/models"
	"github.com/menolabs/wellness-backend/internal/privacy"
	"github.com/menolabs/wellness-backend/internal/retention"
	"github.com/menolabs/wellness-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrincipals struct {
	deleted []string
}

func (f *fakePrincipals) DeletePrincipal(_ context.Context, uid string) error {
	f.deleted = append(f.deleted, uid)
	return nil
}

type testEnv struct {
	store      store.Store
	service    *Service
	consent    *consent.Service
	principals *fakePrincipals
}

func newTestEnv() *testEnv {
	st := store.NewMemory()
	rec := audit.NewRecorder(st)
	cons := consent.NewService(st, rec)
	ret := retention.NewService(st)
	principals := &fakePrincipals{}
	return &testEnv{
		store:      st,
		service:    NewService(st, rec, ret, cons, principals),
		consent:    cons,
		principals: principals,
	}
}

func (e *testEnv) onboard(t *testing.T, uid string) *models.User {
	t.Helper()
	res, err := e.service.Onboard(context.Background(), uid, uid+"@example.com", "", privacy.RequestMeta{CountryCode: "US"})
	require.NoError(t, err)
	return res.User
}

func TestOnboardCreatesUserWithRetention(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	res, err := env.service.Onboard(ctx, "u1", "u1@example.com", "Dana", privacy.RequestMeta{CountryCode: "DE"})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, models.RolePrimary, res.User.Role)

	rec, err := env.store.Retentions().GetByUserAndType(ctx, "u1", models.DataTypePersonal)
	require.NoError(t, err)
	assert.Equal(t, 1095, rec.RetentionPeriod)
	assert.Equal(t, string(retention.JurisdictionEU), rec.Jurisdiction)

	entries, err := env.store.Audits().ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionUserOnboarded, entries[0].Action)
}

func TestOnboardIsIdempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	first, err := env.service.Onboard(ctx, "u1", "u1@example.com", "", privacy.RequestMeta{})
	require.NoError(t, err)
	require.True(t, first.Created)

	// Simulate an established partner link before the repeat call.
	partnerID := "u2"
	first.User.PartnerID = &partnerID
	first.User.Role = models.RolePartner
	require.NoError(t, env.store.Users().Save(ctx, first.User))

	again, err := env.service.Onboard(ctx, "u1", "other@example.com", "Other", privacy.RequestMeta{})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, models.RolePartner, again.User.Role)
	require.NotNil(t, again.User.PartnerID)
	assert.Equal(t, "u2", *again.User.PartnerID)
}

func TestOnboardRequiresUID(t *testing.T) {
	env := newTestEnv()
	_, err := env.service.Onboard(context.Background(), "", "", "", privacy.RequestMeta{})
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindInvalidArgument))
}

func TestCreateInvite(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.onboard(t, "u1")

	invite, err := env.service.CreateInvite(ctx, "u1")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), invite.Code)
	assert.Equal(t, models.InviteStatusPending, invite.Status)
	assert.WithinDuration(t, time.Now().UTC().Add(InviteTTL), invite.ExpiresAt, time.Minute)
}

func TestCreateInviteUnknownUser(t *testing.T) {
	env := newTestEnv()
	_, err := env.service.CreateInvite(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindNotFound))
}

func TestAcceptInviteLinksBothSides(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.onboard(t, "primary")
	env.onboard(t, "partner")

	invite, err := env.service.CreateInvite(ctx, "primary")
	require.NoError(t, err)

	link, err := env.service.AcceptInvite(ctx, "partner", invite.Code, privacy.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, "primary", link.PrimaryUserID)
	assert.Equal(t, "partner", link.PartnerUserID)

	p, err := env.store.Users().Get(ctx, "primary")
	require.NoError(t, err)
	require.NotNil(t, p.PartnerID)
	assert.Equal(t, "partner", *p.PartnerID)
	assert.Equal(t, models.RolePrimary, p.Role)

	q, err := env.store.Users().Get(ctx, "partner")
	require.NoError(t, err)
	require.NotNil(t, q.PartnerID)
	assert.Equal(t, "primary", *q.PartnerID)
	assert.Equal(t, models.RolePartner, q.Role)

	done, err := env.store.Invites().Get(ctx, invite.Code)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusCompleted, done.Status)
	require.NotNil(t, done.AcceptedBy)
	assert.Equal(t, "partner", *done.AcceptedBy)
}

func TestAcceptInviteExpiredFlipsStatus(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.onboard(t, "primary")
	env.onboard(t, "partner")

	invite, err := env.service.CreateInvite(ctx, "primary")
	require.NoError(t, err)

	invite.ExpiresAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, env.store.Invites().Save(ctx, invite))

	_, err = env.service.AcceptInvite(ctx, "partner", invite.Code, privacy.RequestMeta{})
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindFailedPrecondition))

	// The expiry transition commits even though acceptance failed.
	stored, err := env.store.Invites().Get(ctx, invite.Code)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusExpired, stored.Status)
}

func TestAcceptInviteRejectsSelf(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.onboard(t, "u1")

	invite, err := env.service.CreateInvite(ctx, "u1")
	require.NoError(t, err)

	_, err = env.service.AcceptInvite(ctx, "u1", invite.Code, privacy.RequestMeta{})
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindFailedPrecondition))
}

func TestAcceptInviteRejectsAlreadyLinked(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.onboard(t, "primary")
	env.onboard(t, "partner")
	env.onboard(t, "third")

	invite, err := env.service.CreateInvite(ctx, "primary")
	require.NoError(t, err)
	_, err = env.service.AcceptInvite(ctx, "partner", invite.Code, privacy.RequestMeta{})
	require.NoError(t, err)

	second, err := env.service.CreateInvite(ctx, "primary")
	require.NoError(t, err)
	_, err = env.service.AcceptInvite(ctx, "third", second.Code, privacy.RequestMeta{})
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindFailedPrecondition))
}

func TestAcceptInviteSameCodeTwiceFails(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.onboard(t, "primary")
	env.onboard(t, "partner")
	env.onboard(t, "latecomer")

	invite, err := env.service.CreateInvite(ctx, "primary")
	require.NoError(t, err)
	_, err = env.service.AcceptInvite(ctx, "partner", invite.Code, privacy.RequestMeta{})
	require.NoError(t, err)

	// The code is completed now; any further accept fails, including a
	// repeat by the user who consumed it.
	_, err = env.service.AcceptInvite(ctx, "partner", invite.Code, privacy.RequestMeta{})
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindFailedPrecondition))

	_, err = env.service.AcceptInvite(ctx, "latecomer", invite.Code, privacy.RequestMeta{})
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindFailedPrecondition))
}

// linkRacingStore commits a partner link for one user right before the
// acceptance transaction runs, standing in for a concurrent accept that
// won the race.
type linkRacingStore struct {
	store.Store
	uid   string
	rival string
	once  sync.Once
}

func (s *linkRacingStore) InTx(ctx context.Context, fn func(store.Store) error) error {
	s.once.Do(func() {
		if u, err := s.Store.Users().Get(ctx, s.uid); err == nil {
			u.PartnerID = &s.rival
			_ = s.Store.Users().Save(ctx, u)
		}
	})
	return s.Store.InTx(ctx, fn)
}

func TestAcceptInviteLosesRaceToConcurrentLink(t *testing.T) {
	st := store.NewMemory()
	rec := audit.NewRecorder(st)
	cons := consent.NewService(st, rec)
	ret := retention.NewService(st)
	racing := &linkRacingStore{Store: st, uid: "partner", rival: "rival"}
	svc := NewService(racing, rec, ret, cons, &fakePrincipals{})

	ctx := context.Background()
	for _, uid := range []string{"primary", "partner", "rival"} {
		_, err := svc.Onboard(ctx, uid, uid+"@example.com", "", privacy.RequestMeta{})
		require.NoError(t, err)
	}

	invite, err := svc.CreateInvite(ctx, "primary")
	require.NoError(t, err)

	_, err = svc.AcceptInvite(ctx, "partner", invite.Code, privacy.RequestMeta{})
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindFailedPrecondition))

	// The earlier link survives and the inviter stays unlinked.
	p, err := st.Users().Get(ctx, "partner")
	require.NoError(t, err)
	require.NotNil(t, p.PartnerID)
	assert.Equal(t, "rival", *p.PartnerID)

	inviter, err := st.Users().Get(ctx, "primary")
	require.NoError(t, err)
	assert.Nil(t, inviter.PartnerID)
}

func TestAcceptInviteUnknownCode(t *testing.T) {
	env := newTestEnv()
	env.onboard(t, "partner")

	_, err := env.service.AcceptInvite(context.Background(), "partner", "000000", privacy.RequestMeta{})
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindNotFound))
}
