package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/menolabs/wellness-backend/internal/models"
	"github.com/menolabs/wellness-backend/internal/privacy"
	"github.com/menolabs/wellness-backend/internal/tenant"
	"gorm.io/gorm"
)

// NewGorm wraps a GORM handle as a Store.
func NewGorm(db *gorm.DB) Store {
	return &gormStore{db: db}
}

type gormStore struct {
	db *gorm.DB
}

func (s *gormStore) Users() UserRepo           { return gormUsers{s.db} }
func (s *gormStore) Invites() InviteRepo       { return gormInvites{s.db} }
func (s *gormStore) Consents() ConsentRepo     { return gormConsents{s.db} }
func (s *gormStore) Audits() AuditRepo         { return gormAudits{s.db} }
func (s *gormStore) Retentions() RetentionRepo { return gormRetentions{s.db} }
func (s *gormStore) Deletions() DeletionRepo   { return gormDeletions{s.db} }
func (s *gormStore) Entries() EntryRepo        { return gormEntries{s.db} }

func (s *gormStore) InTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return privacy.E(privacy.KindNotFound, "%s not found", what)
	}
	return privacy.Wrap(err, privacy.KindInternal, "store failure")
}

// --- users ---

type gormUsers struct{ db *gorm.DB }

func (r gormUsers) Get(ctx context.Context, uid string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "uid = ?", uid).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

func (r gormUsers) Create(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r gormUsers) Save(ctx context.Context, u *models.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

func (r gormUsers) TouchLastActive(ctx context.Context, uid string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{}).
		Where("uid = ?", uid).Update("last_active_at", at).Error
}

func (r gormUsers) Delete(ctx context.Context, uid string) error {
	return r.db.WithContext(ctx).Delete(&models.User{}, "uid = ?", uid).Error
}

// --- invites ---

type gormInvites struct{ db *gorm.DB }

func (r gormInvites) Get(ctx context.Context, code string) (*models.Invite, error) {
	var inv models.Invite
	if err := r.db.WithContext(ctx).First(&inv, "code = ?", code).Error; err != nil {
		return nil, notFound(err, "invite")
	}
	return &inv, nil
}

func (r gormInvites) Create(ctx context.Context, inv *models.Invite) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r gormInvites) Save(ctx context.Context, inv *models.Invite) error {
	return r.db.WithContext(ctx).Save(inv).Error
}

func (r gormInvites) ListPendingExpired(ctx context.Context, now time.Time) ([]models.Invite, error) {
	var invites []models.Invite
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", models.InviteStatusPending, now).
		Order("expires_at").Find(&invites).Error
	return invites, err
}

func (r gormInvites) DeleteByUser(ctx context.Context, uid string) error {
	return r.db.WithContext(ctx).
		Where("from_user_id = ? OR accepted_by = ?", uid, uid).
		Delete(&models.Invite{}).Error
}

// --- consents ---

type gormConsents struct{ db *gorm.DB }

func (r gormConsents) Get(ctx context.Context, uid string) (*models.UserConsent, error) {
	var c models.UserConsent
	if err := r.db.WithContext(ctx).First(&c, "user_id = ?", uid).Error; err != nil {
		return nil, notFound(err, "consent record")
	}
	return &c, nil
}

func (r gormConsents) Upsert(ctx context.Context, c *models.UserConsent) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r gormConsents) DeleteByUser(ctx context.Context, uid string) error {
	return r.db.WithContext(ctx).Delete(&models.UserConsent{}, "user_id = ?", uid).Error
}

// --- audit log ---

type gormAudits struct{ db *gorm.DB }

func (r gormAudits) Append(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r gormAudits) ListByUser(ctx context.Context, uid string) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", uid).Order("timestamp").Find(&entries).Error
	return entries, err
}

func (r gormAudits) DeleteByUser(ctx context.Context, uid string) error {
	return r.db.WithContext(ctx).Delete(&models.AuditLog{}, "user_id = ?", uid).Error
}

// --- retention ---

type gormRetentions struct{ db *gorm.DB }

func (r gormRetentions) ListByUser(ctx context.Context, uid string) ([]models.DataRetention, error) {
	var records []models.DataRetention
	err := r.db.WithContext(ctx).Where("user_id = ?", uid).Find(&records).Error
	return records, err
}

func (r gormRetentions) GetByUserAndType(ctx context.Context, uid, dataType string) (*models.DataRetention, error) {
	var rec models.DataRetention
	if err := r.db.WithContext(ctx).
		First(&rec, "user_id = ? AND data_type = ?", uid, dataType).Error; err != nil {
		return nil, notFound(err, "retention record")
	}
	return &rec, nil
}

func (r gormRetentions) Create(ctx context.Context, rec *models.DataRetention) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r gormRetentions) DeleteByUser(ctx context.Context, uid string) error {
	return r.db.WithContext(ctx).Delete(&models.DataRetention{}, "user_id = ?", uid).Error
}

// --- deletion requests ---

type gormDeletions struct{ db *gorm.DB }

func (r gormDeletions) Get(ctx context.Context, id uuid.UUID) (*models.DeletionRequest, error) {
	var req models.DeletionRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "deletion request")
	}
	return &req, nil
}

func (r gormDeletions) Create(ctx context.Context, req *models.DeletionRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r gormDeletions) Save(ctx context.Context, req *models.DeletionRequest) error {
	return r.db.WithContext(ctx).Save(req).Error
}

func (r gormDeletions) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]models.DeletionRequest, error) {
	var reqs []models.DeletionRequest
	err := r.db.WithContext(ctx).
		Where("status = ? AND requested_at < ?", models.DeletionStatusPending, cutoff).
		Order("requested_at").Find(&reqs).Error
	return reqs, err
}

func (r gormDeletions) DeleteByUser(ctx context.Context, uid string) error {
	return r.db.WithContext(ctx).Delete(&models.DeletionRequest{}, "user_id = ?", uid).Error
}

// --- journal entries ---

type gormEntries struct{ db *gorm.DB }

func (r gormEntries) Get(ctx context.Context, id uuid.UUID) (*models.JournalEntry, error) {
	var e models.JournalEntry
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "entry")
	}
	return &e, nil
}

func (r gormEntries) Create(ctx context.Context, e *models.JournalEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r gormEntries) Save(ctx context.Context, e *models.JournalEntry) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r gormEntries) ListByUser(ctx context.Context, appID, uid string, limit, offset int) ([]models.JournalEntry, int64, error) {
	var entries []models.JournalEntry
	var total int64

	q := r.db.WithContext(ctx).Model(&models.JournalEntry{}).
		Scopes(tenant.ForTenant(appID)).Where("user_id = ?", uid)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&entries).Error
	return entries, total, err
}

func (r gormEntries) ListAllByUser(ctx context.Context, uid string) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	err := r.db.WithContext(ctx).
		Scopes(tenant.ForUser(uid)).
		Order("created_at DESC").Find(&entries).Error
	return entries, err
}

func (r gormEntries) ListSharedByUser(ctx context.Context, uid string) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	err := r.db.WithContext(ctx).
		Scopes(tenant.ForUser(uid)).Where("shared_with_partner = true").
		Order("created_at DESC").Find(&entries).Error
	return entries, err
}

func (r gormEntries) DeleteByUser(ctx context.Context, uid string) error {
	return r.db.WithContext(ctx).Delete(&models.JournalEntry{}, "user_id = ?", uid).Error
}
