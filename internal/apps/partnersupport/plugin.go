package partnersupport

import (
	"github.com/gofiber/fiber/v2"
	"github.com/menolabs/wellness-backend/internal/audit"
	"github.com/menolabs/wellness-backend/internal/config"
	"github.com/menolabs/wellness-backend/internal/consent"
	"github.com/menolabs/wellness-backend/internal/envelope"
	"github.com/menolabs/wellness-backend/internal/store"
	"github.com/menolabs/wellness-backend/internal/tenant"
	"gorm.io/gorm"
)

// Plugin implements the apps.Plugin interface for the PartnerSupport app.
type Plugin struct {
	store    store.Store
	envelope *envelope.Service
	consent  *consent.Service
	audit    *audit.Recorder
}

// New creates the partnersupport Plugin.
func New(st store.Store, env *envelope.Service, cons *consent.Service, rec *audit.Recorder) *Plugin {
	return &Plugin{store: st, envelope: env, consent: cons, audit: rec}
}

func (p *Plugin) ID() string { return tenant.AppPartnerSupport }

// Models returns nil: notes share the journal_entries table migrated by
// the core schema.
func (p *Plugin) Models() []interface{} { return nil }

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	svc := NewSupportService(p.store, p.envelope, p.consent, p.audit)
	handler := NewSupportHandler(svc)

	router.Post("/support/notes", handler.CreateNote)
	router.Get("/support/notes", handler.ListNotes)
	router.Get("/support/notes/:id", handler.GetNote)
	router.Get("/support/partner/timeline", handler.PartnerTimeline)
}
