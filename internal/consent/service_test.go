package consent

import (
	"context"
	"testing"

	"github.com/menolabs/wellness-backend/internal/audit"
	"github.com/menolabs/wellness-backend/internal/privacy"
	"github.com/menolabs/wellness-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (*Service, store.Store) {
	st := store.NewMemory()
	return NewService(st, audit.NewRecorder(st)), st
}

func TestHasDefaultsToDenied(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	// No record at all: every purpose is denied.
	assert.False(t, s.Has(ctx, "u1", PurposeDataProcessing))
	assert.False(t, s.Has(ctx, "u1", PurposeSentimentAnalysis))
	assert.False(t, s.Has(ctx, "u1", PurposeAnonymizedLicensing))
	assert.False(t, s.Has(ctx, "u1", PurposeResearchParticipation))
}

func TestSetAndHas(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	_, err := s.Set(ctx, "u1", Flags{DataProcessing: true, SentimentAnalysis: true}, "US", privacy.RequestMeta{})
	require.NoError(t, err)

	assert.True(t, s.Has(ctx, "u1", PurposeDataProcessing))
	assert.True(t, s.Has(ctx, "u1", PurposeSentimentAnalysis))
	assert.False(t, s.Has(ctx, "u1", PurposeAnonymizedLicensing))
	assert.False(t, s.Has(ctx, "u1", PurposeResearchParticipation))

	// Unknown purpose is denied even with a record present.
	assert.False(t, s.Has(ctx, "u1", Purpose("marketing")))
}

func TestSetOverwritesWholeFlagSet(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	_, err := s.Set(ctx, "u1", Flags{DataProcessing: true, SentimentAnalysis: true}, "US", privacy.RequestMeta{})
	require.NoError(t, err)

	// A later set with sentiment off revokes it; nothing lingers.
	_, err = s.Set(ctx, "u1", Flags{DataProcessing: true}, "", privacy.RequestMeta{})
	require.NoError(t, err)

	assert.True(t, s.Has(ctx, "u1", PurposeDataProcessing))
	assert.False(t, s.Has(ctx, "u1", PurposeSentimentAnalysis))
}

func TestSetBumpsVersionAndKeepsJurisdiction(t *testing.T) {
	s, _ := newTestService()
	ctx := context.Background()

	first, err := s.Set(ctx, "u1", Flags{DataProcessing: true}, "DE", privacy.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, "DE", first.Jurisdiction)

	second, err := s.Set(ctx, "u1", Flags{}, "", privacy.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, "DE", second.Jurisdiction)
}

func TestSetStampsUnknownMeta(t *testing.T) {
	s, _ := newTestService()

	rec, err := s.Set(context.Background(), "u1", Flags{}, "US", privacy.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, privacy.UnknownValue, rec.IPAddress)
	assert.Equal(t, privacy.UnknownValue, rec.UserAgent)
}

func TestSetRequiresUserID(t *testing.T) {
	s, _ := newTestService()
	_, err := s.Set(context.Background(), "", Flags{}, "", privacy.RequestMeta{})
	require.Error(t, err)
	assert.True(t, privacy.IsKind(err, privacy.KindInvalidArgument))
}

func TestGetAbsentReturnsNil(t *testing.T) {
	s, _ := newTestService()
	rec, err := s.Get(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestSetWritesAuditEntry(t *testing.T) {
	s, st := newTestService()
	ctx := context.Background()

	_, err := s.Set(ctx, "u1", Flags{DataProcessing: true}, "US", privacy.RequestMeta{})
	require.NoError(t, err)

	entries, err := st.Audits().ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionConsentUpdated, entries[0].Action)
}
