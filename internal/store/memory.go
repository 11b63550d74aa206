package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/menolabs/wellness-backend/internal/models"
	"github.com/menolabs/wellness-backend/internal/privacy"
)

// NewMemory returns an in-memory Store for tests and local development.
// Access is serialized under one mutex; InTx runs the callback against the
// same maps without rollback, which is sufficient for single-process use.
func NewMemory() Store {
	return &memoryStore{
		users:      make(map[string]models.User),
		invites:    make(map[string]models.Invite),
		consents:   make(map[string]models.UserConsent),
		retentions: make(map[uuid.UUID]models.DataRetention),
		deletions:  make(map[uuid.UUID]models.DeletionRequest),
		entries:    make(map[uuid.UUID]models.JournalEntry),
	}
}

type memoryStore struct {
	mu         sync.Mutex
	users      map[string]models.User
	invites    map[string]models.Invite
	consents   map[string]models.UserConsent
	audits     []models.AuditLog
	retentions map[uuid.UUID]models.DataRetention
	deletions  map[uuid.UUID]models.DeletionRequest
	entries    map[uuid.UUID]models.JournalEntry
}

func (s *memoryStore) Users() UserRepo           { return memUsers{s} }
func (s *memoryStore) Invites() InviteRepo       { return memInvites{s} }
func (s *memoryStore) Consents() ConsentRepo     { return memConsents{s} }
func (s *memoryStore) Audits() AuditRepo         { return memAudits{s} }
func (s *memoryStore) Retentions() RetentionRepo { return memRetentions{s} }
func (s *memoryStore) Deletions() DeletionRepo   { return memDeletions{s} }
func (s *memoryStore) Entries() EntryRepo        { return memEntries{s} }

func (s *memoryStore) InTx(ctx context.Context, fn func(Store) error) error {
	return fn(s)
}

// --- users ---

type memUsers struct{ s *memoryStore }

func (r memUsers) Get(_ context.Context, uid string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[uid]
	if !ok {
		return nil, privacy.E(privacy.KindNotFound, "user not found")
	}
	return &u, nil
}

func (r memUsers) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[u.UID] = *u
	return nil
}

func (r memUsers) Save(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[u.UID] = *u
	return nil
}

func (r memUsers) TouchLastActive(_ context.Context, uid string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[uid]; ok {
		u.LastActiveAt = at
		r.s.users[uid] = u
	}
	return nil
}

func (r memUsers) Delete(_ context.Context, uid string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.users, uid)
	return nil
}

// --- invites ---

type memInvites struct{ s *memoryStore }

func (r memInvites) Get(_ context.Context, code string) (*models.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invites[code]
	if !ok {
		return nil, privacy.E(privacy.KindNotFound, "invite not found")
	}
	return &inv, nil
}

func (r memInvites) Create(_ context.Context, inv *models.Invite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.invites[inv.Code] = *inv
	return nil
}

func (r memInvites) Save(_ context.Context, inv *models.Invite) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.invites[inv.Code] = *inv
	return nil
}

func (r memInvites) ListPendingExpired(_ context.Context, now time.Time) ([]models.Invite, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Invite
	for _, inv := range r.s.invites {
		if inv.Status == models.InviteStatusPending && inv.ExpiresAt.Before(now) {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

func (r memInvites) DeleteByUser(_ context.Context, uid string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for code, inv := range r.s.invites {
		if inv.FromUserID == uid || (inv.AcceptedBy != nil && *inv.AcceptedBy == uid) {
			delete(r.s.invites, code)
		}
	}
	return nil
}

// --- consents ---

type memConsents struct{ s *memoryStore }

func (r memConsents) Get(_ context.Context, uid string) (*models.UserConsent, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.consents[uid]
	if !ok {
		return nil, privacy.E(privacy.KindNotFound, "consent record not found")
	}
	return &c, nil
}

func (r memConsents) Upsert(_ context.Context, c *models.UserConsent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.consents[c.UserID] = *c
	return nil
}

func (r memConsents) DeleteByUser(_ context.Context, uid string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.consents, uid)
	return nil
}

// --- audit log ---

type memAudits struct{ s *memoryStore }

func (r memAudits) Append(_ context.Context, entry *models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e := *entry
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.s.audits = append(r.s.audits, e)
	return nil
}

func (r memAudits) ListByUser(_ context.Context, uid string) ([]models.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.AuditLog
	for _, e := range r.s.audits {
		if e.UserID == uid {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r memAudits) DeleteByUser(_ context.Context, uid string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.audits[:0]
	for _, e := range r.s.audits {
		if e.UserID != uid {
			kept = append(kept, e)
		}
	}
	r.s.audits = kept
	return nil
}

// --- retention ---

type memRetentions struct{ s *memoryStore }

func (r memRetentions) ListByUser(_ context.Context, uid string) ([]models.DataRetention, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.DataRetention
	for _, rec := range r.s.retentions {
		if rec.UserID == uid {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r memRetentions) GetByUserAndType(_ context.Context, uid, dataType string) (*models.DataRetention, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.retentions {
		if rec.UserID == uid && rec.DataType == dataType {
			return &rec, nil
		}
	}
	return nil, privacy.E(privacy.KindNotFound, "retention record not found")
}

func (r memRetentions) Create(_ context.Context, rec *models.DataRetention) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *rec
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
		rec.ID = c.ID
	}
	r.s.retentions[c.ID] = c
	return nil
}

func (r memRetentions) DeleteByUser(_ context.Context, uid string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, rec := range r.s.retentions {
		if rec.UserID == uid {
			delete(r.s.retentions, id)
		}
	}
	return nil
}

// --- deletion requests ---

type memDeletions struct{ s *memoryStore }

func (r memDeletions) Get(_ context.Context, id uuid.UUID) (*models.DeletionRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.deletions[id]
	if !ok {
		return nil, privacy.E(privacy.KindNotFound, "deletion request not found")
	}
	return &req, nil
}

func (r memDeletions) Create(_ context.Context, req *models.DeletionRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *req
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
		req.ID = c.ID
	}
	r.s.deletions[c.ID] = c
	return nil
}

func (r memDeletions) Save(_ context.Context, req *models.DeletionRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.deletions[req.ID] = *req
	return nil
}

func (r memDeletions) ListPendingBefore(_ context.Context, cutoff time.Time) ([]models.DeletionRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.DeletionRequest
	for _, req := range r.s.deletions {
		if req.Status == models.DeletionStatusPending && req.RequestedAt.Before(cutoff) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

func (r memDeletions) DeleteByUser(_ context.Context, uid string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, req := range r.s.deletions {
		if req.UserID == uid {
			delete(r.s.deletions, id)
		}
	}
	return nil
}

// --- journal entries ---

type memEntries struct{ s *memoryStore }

func (r memEntries) Get(_ context.Context, id uuid.UUID) (*models.JournalEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.entries[id]
	if !ok {
		return nil, privacy.E(privacy.KindNotFound, "entry not found")
	}
	return &e, nil
}

func (r memEntries) Create(_ context.Context, e *models.JournalEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := *e
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
		e.ID = c.ID
	}
	r.s.entries[c.ID] = c
	return nil
}

func (r memEntries) Save(_ context.Context, e *models.JournalEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.entries[e.ID] = *e
	return nil
}

func (r memEntries) ListByUser(_ context.Context, appID, uid string, limit, offset int) ([]models.JournalEntry, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []models.JournalEntry
	for _, e := range r.s.entries {
		if e.AppID == appID && e.UserID == uid {
			all = append(all, e)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, total, nil
}

func (r memEntries) ListAllByUser(_ context.Context, uid string) ([]models.JournalEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.JournalEntry
	for _, e := range r.s.entries {
		if e.UserID == uid {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memEntries) ListSharedByUser(_ context.Context, uid string) ([]models.JournalEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.JournalEntry
	for _, e := range r.s.entries {
		if e.UserID == uid && e.SharedWithPartner {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memEntries) DeleteByUser(_ context.Context, uid string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, e := range r.s.entries {
		if e.UserID == uid {
			delete(r.s.entries, id)
		}
	}
	return nil
}
