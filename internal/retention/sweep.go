package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/menolabs/wellness-backend/internal/models"
)

// DeletionExecutor performs the heavy multi-collection purge for one
// deletion request. Implemented by the account lifecycle manager.
type DeletionExecutor interface {
	ExecuteDeletion(ctx context.Context, userID string, requestID uuid.UUID) error
}

// SweepExpiredDeletions executes deletion requests still pending past the
// grace window. Each request is processed independently: one failure is
// logged and never blocks its siblings.
func (s *Service) SweepExpiredDeletions(ctx context.Context, now time.Time, exec DeletionExecutor) (int, error) {
	cutoff := now.AddDate(0, 0, -s.graceDays)
	pending, err := s.store.Deletions().ListPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, req := range pending {
		if err := exec.ExecuteDeletion(ctx, req.UserID, req.ID); err != nil {
			slog.Error("deletion sweep item failed",
				"request_id", req.ID, "user_id", req.UserID, "error", err)
			continue
		}
		processed++
	}
	return processed, nil
}

// SweepExpiredInvites flips pending invites past their expiry to the
// terminal expired state.
func (s *Service) SweepExpiredInvites(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.store.Invites().ListPendingExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range expired {
		inv := expired[i]
		inv.Status = models.InviteStatusExpired
		if err := s.store.Invites().Save(ctx, &inv); err != nil {
			slog.Error("invite expiry sweep item failed", "code", inv.Code, "error", err)
			continue
		}
		processed++
	}
	return processed, nil
}

// StartSweeps runs both sweeps on a ticker until done is closed.
func StartSweeps(s *Service, exec DeletionExecutor, interval time.Duration, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx := context.Background()
				now := time.Now().UTC()

				if n, err := s.SweepExpiredInvites(ctx, now); err != nil {
					slog.Error("invite expiry sweep failed", "error", err)
				} else if n > 0 {
					slog.Info("invite expiry sweep completed", "expired", n)
				}

				if n, err := s.SweepExpiredDeletions(ctx, now, exec); err != nil {
					slog.Error("deletion sweep failed", "error", err)
				} else if n > 0 {
					slog.Info("deletion sweep completed", "processed", n)
				}
			case <-done:
				return
			}
		}
	}()
}
