// Package store abstracts the document store behind narrow repositories so
// the privacy core never depends on query-planner behavior beyond equality
// filters and single-field ordering. A GORM/PostgreSQL implementation backs
// production; an in-memory implementation backs tests.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/menolabs/wellness-backend/internal/models"
)

type UserRepo interface {
	Get(ctx context.Context, uid string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Save(ctx context.Context, u *models.User) error
	TouchLastActive(ctx context.Context, uid string, at time.Time) error
	Delete(ctx context.Context, uid string) error
}

type InviteRepo interface {
	Get(ctx context.Context, code string) (*models.Invite, error)
	Create(ctx context.Context, inv *models.Invite) error
	Save(ctx context.Context, inv *models.Invite) error
	ListPendingExpired(ctx context.Context, now time.Time) ([]models.Invite, error)
	DeleteByUser(ctx context.Context, uid string) error
}

type ConsentRepo interface {
	Get(ctx context.Context, uid string) (*models.UserConsent, error)
	Upsert(ctx context.Context, c *models.UserConsent) error
	DeleteByUser(ctx context.Context, uid string) error
}

type AuditRepo interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	ListByUser(ctx context.Context, uid string) ([]models.AuditLog, error)
	DeleteByUser(ctx context.Context, uid string) error
}

type RetentionRepo interface {
	ListByUser(ctx context.Context, uid string) ([]models.DataRetention, error)
	GetByUserAndType(ctx context.Context, uid, dataType string) (*models.DataRetention, error)
	Create(ctx context.Context, r *models.DataRetention) error
	DeleteByUser(ctx context.Context, uid string) error
}

type DeletionRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*models.DeletionRequest, error)
	Create(ctx context.Context, req *models.DeletionRequest) error
	Save(ctx context.Context, req *models.DeletionRequest) error
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]models.DeletionRequest, error)
	DeleteByUser(ctx context.Context, uid string) error
}

type EntryRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*models.JournalEntry, error)
	Create(ctx context.Context, e *models.JournalEntry) error
	Save(ctx context.Context, e *models.JournalEntry) error
	ListByUser(ctx context.Context, appID, uid string, limit, offset int) ([]models.JournalEntry, int64, error)
	ListAllByUser(ctx context.Context, uid string) ([]models.JournalEntry, error)
	ListSharedByUser(ctx context.Context, uid string) ([]models.JournalEntry, error)
	DeleteByUser(ctx context.Context, uid string) error
}

// Store bundles the repositories plus the atomic multi-document commit
// primitive. InTx runs fn against a transactional view; any error rolls
// back every write made inside.
type Store interface {
	Users() UserRepo
	Invites() InviteRepo
	Consents() ConsentRepo
	Audits() AuditRepo
	Retentions() RetentionRepo
	Deletions() DeletionRepo
	Entries() EntryRepo
	InTx(ctx context.Context, fn func(Store) error) error
}
