package menowellness

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/menolabs/wellness-backend/internal/audit"
	"github.com/menolabs/wellness-backend/internal/consent"
	"github.com/menolabs/wellness-backend/internal/envelope"
	"github.com/menolabs/wellness-backend/internal/kms"
	"github.com/menolabs/wellness-backend/internal/models"
	"github.com/menolabs/wellness-backend/internal/privacy"
	"github.com/menolabs/wellness-backend/internal/services"
	"github.com/menolabs/wellness-backend/internal/store"
	"github.com/menolabs/wellness-backend/internal/tenant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) (*JournalService, store.Store, *consent.Service) {
	t.Helper()
	st := store.NewMemory()
	rec := audit.NewRecorder(st)
	cons := consent.NewService(st, rec)
	env := envelope.New(kms.NewLocalProvider("test-seed"), map[string]kms.KeyPath{
		tenant.AppMenoWellness:   {Project: "wellness", Location: "local", KeyRing: "test", KeyID: "meno"},
		tenant.AppPartnerSupport: {Project: "wellness", Location: "local", KeyRing: "test", KeyID: "partner"},
	})
	// Unconfigured collaborator: the async analysis path stays off.
	sentiment := services.NewSentimentService("", "", nil, cons, rec)
	return NewJournalService(st, env, cons, sentiment, rec), st, cons
}

func grantProcessing(t *testing.T, cons *consent.Service, uid string) {
	t.Helper()
	_, err := cons.Set(context.Background(), uid, consent.Flags{DataProcessing: true}, "US", privacy.RequestMeta{})
	require.NoError(t, err)
}

func TestCreateEntryRequiresConsent(t *testing.T) {
	svc, _, _ := newTestJournal(t)

	_, err := svc.CreateEntry(context.Background(), "u1", "hot flashes again", nil, false)
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindPermissionDenied))
}

func TestCreateAndGetEntryRoundTrip(t *testing.T) {
	svc, _, cons := newTestJournal(t)
	ctx := context.Background()
	grantProcessing(t, cons, "u1")

	mood := 4
	entry, err := svc.CreateEntry(ctx, "u1", "slept well for once", &mood, true)
	require.NoError(t, err)
	assert.Equal(t, tenant.AppMenoWellness, entry.AppID)
	assert.NotContains(t, entry.Payload.EncryptedValue, "slept well")
	assert.NotEmpty(t, entry.WrappedDEK)

	got, err := svc.GetEntry(ctx, "u1", entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "slept well for once", got.Text)
	require.NotNil(t, got.MoodScore)
	assert.Equal(t, 4, *got.MoodScore)
	assert.True(t, got.SharedWithPartner)
}

func TestGetEntryOwnershipCheck(t *testing.T) {
	svc, _, cons := newTestJournal(t)
	ctx := context.Background()
	grantProcessing(t, cons, "u1")

	entry, err := svc.CreateEntry(ctx, "u1", "private thought", nil, false)
	require.NoError(t, err)

	_, err = svc.GetEntry(ctx, "intruder", entry.ID)
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindPermissionDenied))
}

func TestGetEntryDecryptionIsAudited(t *testing.T) {
	svc, st, cons := newTestJournal(t)
	ctx := context.Background()
	grantProcessing(t, cons, "u1")

	entry, err := svc.CreateEntry(ctx, "u1", "entry", nil, false)
	require.NoError(t, err)
	_, err = svc.GetEntry(ctx, "u1", entry.ID)
	require.NoError(t, err)

	trail, err := st.Audits().ListByUser(ctx, "u1")
	require.NoError(t, err)
	var created, decrypted int
	for _, e := range trail {
		switch e.Action {
		case audit.ActionEntryCreated:
			created++
		case audit.ActionEntryDecrypted:
			decrypted++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, decrypted)
}

func TestListEntriesLeavesPayloadsSealed(t *testing.T) {
	svc, _, cons := newTestJournal(t)
	ctx := context.Background()
	grantProcessing(t, cons, "u1")

	_, err := svc.CreateEntry(ctx, "u1", "one", nil, false)
	require.NoError(t, err)
	_, err = svc.CreateEntry(ctx, "u1", "two", nil, false)
	require.NoError(t, err)

	entries, total, err := svc.ListEntries(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	for _, e := range entries {
		assert.Equal(t, envelope.Algorithm, e.Payload.Algorithm)
		assert.NotContains(t, []string{"one", "two"}, e.Payload.EncryptedValue)
	}
}

func TestUpdateSharing(t *testing.T) {
	svc, st, cons := newTestJournal(t)
	ctx := context.Background()
	grantProcessing(t, cons, "u1")

	entry, err := svc.CreateEntry(ctx, "u1", "entry", nil, false)
	require.NoError(t, err)

	updated, err := svc.UpdateSharing(ctx, "u1", entry.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.SharedWithPartner)

	stored, err := st.Entries().Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, stored.SharedWithPartner)

	_, err = svc.UpdateSharing(ctx, "other", entry.ID, false)
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindNotFound))
}

func TestGetEntryRejectsForeignApp(t *testing.T) {
	svc, st, cons := newTestJournal(t)
	ctx := context.Background()
	grantProcessing(t, cons, "u1")

	foreign := &models.JournalEntry{
		ID:     uuid.New(),
		AppID:  tenant.AppPartnerSupport,
		UserID: "u1",
		Payload: models.EncryptedData{
			EncryptedValue: "aGVsbG8=", KeyID: "partner", Algorithm: envelope.Algorithm,
		},
		WrappedDEK: "{}",
		KeyVersion: "1",
	}
	require.NoError(t, st.Entries().Create(ctx, foreign))

	_, err := svc.GetEntry(ctx, "u1", foreign.ID)
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindNotFound))
}
