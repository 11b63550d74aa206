// Package retention computes retention windows per jurisdiction and data
// type, and runs the background sweeps that expire invites and execute
// aged deletion requests.
package retention

import (
	"context"
	"time"

	"github.com/menolabs/wellness-backend/internal/models"
	"github.com/menolabs/wellness-backend/internal/privacy"
	"github.com/menolabs/wellness-backend/internal/store"
)

// DeletionGraceDays is how long a deletion request stays pending before
// the sweep executes it.
const DeletionGraceDays = 30

type Service struct {
	store     store.Store
	graceDays int
}

func NewService(st store.Store) *Service {
	return &Service{store: st, graceDays: DeletionGraceDays}
}

// Schedule creates the retention record for one user and data type. It is
// called once at onboarding and is a no-op when the record already
// exists.
func (s *Service) Schedule(ctx context.Context, userID, dataType string, jurisdiction Jurisdiction) (*models.DataRetention, error) {
	if userID == "" {
		return nil, privacy.E(privacy.KindInvalidArgument, "user id is required")
	}

	existing, err := s.store.Retentions().GetByUserAndType(ctx, userID, dataType)
	if err == nil {
		return existing, nil
	}
	if !privacy.IsKind(err, privacy.KindNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	days := PeriodFor(jurisdiction, dataType)
	scheduled := now.AddDate(0, 0, days)
	record := &models.DataRetention{
		UserID:            userID,
		DataType:          dataType,
		CreatedAt:         now,
		RetentionPeriod:   days,
		ScheduledDeletion: &scheduled,
		Jurisdiction:      string(jurisdiction),
	}
	if err := s.store.Retentions().Create(ctx, record); err != nil {
		return nil, privacy.Wrap(err, privacy.KindInternal, "failed to store retention record")
	}
	return record, nil
}
