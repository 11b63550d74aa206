package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/menolabs/wellness-backend/internal/models"
	"github.com/menolabs/wellness-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	executed []uuid.UUID
	failFor  map[uuid.UUID]bool
}

func (f *fakeExecutor) ExecuteDeletion(_ context.Context, _ string, requestID uuid.UUID) error {
	if f.failFor[requestID] {
		return errors.New("purge failed")
	}
	f.executed = append(f.executed, requestID)
	return nil
}

func pendingRequest(t *testing.T, st store.Store, uid string, age time.Duration) uuid.UUID {
	t.Helper()
	req := &models.DeletionRequest{
		ID:          uuid.New(),
		UserID:      uid,
		RequestedAt: time.Now().UTC().Add(-age),
		Status:      models.DeletionStatusPending,
	}
	require.NoError(t, st.Deletions().Create(context.Background(), req))
	return req.ID
}

func TestSweepExpiredDeletionsHonorsGraceWindow(t *testing.T) {
	st := store.NewMemory()
	s := NewService(st)
	exec := &fakeExecutor{}

	aged := pendingRequest(t, st, "old-user", 31*24*time.Hour)
	pendingRequest(t, st, "fresh-user", 2*24*time.Hour)

	n, err := s.SweepExpiredDeletions(context.Background(), time.Now().UTC(), exec)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []uuid.UUID{aged}, exec.executed)
}

func TestSweepExpiredDeletionsContinuesPastFailure(t *testing.T) {
	st := store.NewMemory()
	s := NewService(st)

	bad := pendingRequest(t, st, "u1", 40*24*time.Hour)
	good := pendingRequest(t, st, "u2", 35*24*time.Hour)

	exec := &fakeExecutor{failFor: map[uuid.UUID]bool{bad: true}}
	n, err := s.SweepExpiredDeletions(context.Background(), time.Now().UTC(), exec)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, exec.executed, good)
}

func TestSweepExpiredInvites(t *testing.T) {
	st := store.NewMemory()
	s := NewService(st)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.Invites().Create(ctx, &models.Invite{
		Code: "111111", FromUserID: "u1",
		Status:    models.InviteStatusPending,
		ExpiresAt: now.Add(-time.Hour),
	}))
	require.NoError(t, st.Invites().Create(ctx, &models.Invite{
		Code: "222222", FromUserID: "u2",
		Status:    models.InviteStatusPending,
		ExpiresAt: now.Add(time.Hour),
	}))

	n, err := s.SweepExpiredInvites(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	expired, err := st.Invites().Get(ctx, "111111")
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusExpired, expired.Status)

	alive, err := st.Invites().Get(ctx, "222222")
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusPending, alive.Status)
}

func TestScheduleIsIdempotent(t *testing.T) {
	st := store.NewMemory()
	s := NewService(st)
	ctx := context.Background()

	first, err := s.Schedule(ctx, "u1", models.DataTypePersonal, JurisdictionEU)
	require.NoError(t, err)
	assert.Equal(t, 1095, first.RetentionPeriod)
	require.NotNil(t, first.ScheduledDeletion)

	second, err := s.Schedule(ctx, "u1", models.DataTypePersonal, JurisdictionUS)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1095, second.RetentionPeriod)
}
