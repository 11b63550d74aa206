package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/menolabs/wellness-backend/internal/models"
	"github.com/menolabs/wellness-backend/internal/privacy"
	"github.com/menolabs/wellness-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAppendsEntry(t *testing.T) {
	st := store.NewMemory()
	r := NewRecorder(st)
	ctx := context.Background()

	r.Record(ctx, "u1", ActionDataExported,
		WithMeta(privacy.RequestMeta{IPAddress: "10.0.0.1", UserAgent: "test"}),
		WithResource("export", "bundle-1"),
		WithDetail("total_records", 3),
	)

	entries, err := st.Audits().ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, ActionDataExported, e.Action)
	assert.Equal(t, "10.0.0.1", e.IPAddress)
	require.NotNil(t, e.ResourceID)
	assert.Equal(t, "bundle-1", *e.ResourceID)
	require.NotNil(t, e.ResourceType)
	assert.Equal(t, "export", *e.ResourceType)

	var details map[string]any
	require.NoError(t, json.Unmarshal(e.Details, &details))
	assert.EqualValues(t, 3, details["total_records"])
}

func TestRecordMissingMetaDefaultsToUnknown(t *testing.T) {
	st := store.NewMemory()
	r := NewRecorder(st)
	ctx := context.Background()

	r.Record(ctx, "u1", ActionUserOnboarded)

	entries, err := st.Audits().ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, privacy.UnknownValue, entries[0].IPAddress)
	assert.Equal(t, privacy.UnknownValue, entries[0].UserAgent)
}

func TestRecordWithErrorMarksFailure(t *testing.T) {
	st := store.NewMemory()
	r := NewRecorder(st)
	ctx := context.Background()

	r.Record(ctx, "u1", ActionInviteAccepted,
		WithError(privacy.E(privacy.KindFailedPrecondition, "invite has expired")))

	entries, err := st.Audits().ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	var details map[string]any
	require.NoError(t, json.Unmarshal(entries[0].Details, &details))
	assert.Equal(t, false, details["success"])
	assert.Equal(t, "invite has expired", details["error"])
	assert.Equal(t, string(privacy.KindFailedPrecondition), details["error_kind"])
}

type failingStore struct{ store.Store }

func (f failingStore) Audits() store.AuditRepo { return failingAudits{} }

type failingAudits struct{}

func (failingAudits) Append(context.Context, *models.AuditLog) error { return errors.New("down") }
func (failingAudits) ListByUser(context.Context, string) ([]models.AuditLog, error) {
	return nil, errors.New("down")
}
func (failingAudits) DeleteByUser(context.Context, string) error { return errors.New("down") }

func TestRecordSwallowsStoreFailure(t *testing.T) {
	r := NewRecorder(failingStore{store.NewMemory()})

	// Must not panic or propagate anything.
	r.Record(context.Background(), "u1", ActionUserOnboarded)
}
