package menowellness

import (
	"github.com/gofiber/fiber/v2"
	"github.com/menolabs/wellness-backend/internal/audit"
	"github.com/menolabs/wellness-backend/internal/config"
	"github.com/menolabs/wellness-backend/internal/consent"
	"github.com/menolabs/wellness-backend/internal/envelope"
	"github.com/menolabs/wellness-backend/internal/services"
	"github.com/menolabs/wellness-backend/internal/store"
	"github.com/menolabs/wellness-backend/internal/tenant"
	"gorm.io/gorm"
)

// Plugin implements the apps.Plugin interface for the MenoWellness app.
type Plugin struct {
	store     store.Store
	envelope  *envelope.Service
	consent   *consent.Service
	sentiment *services.SentimentService
	audit     *audit.Recorder
}

// New creates the menowellness Plugin.
func New(st store.Store, env *envelope.Service, cons *consent.Service, sentiment *services.SentimentService, rec *audit.Recorder) *Plugin {
	return &Plugin{store: st, envelope: env, consent: cons, sentiment: sentiment, audit: rec}
}

func (p *Plugin) ID() string { return tenant.AppMenoWellness }

// Models returns nil: journal entries live in the shared table migrated
// by the core schema.
func (p *Plugin) Models() []interface{} { return nil }

func (p *Plugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config) {
	svc := NewJournalService(p.store, p.envelope, p.consent, p.sentiment, p.audit)
	handler := NewJournalHandler(svc)

	router.Post("/meno/entries", handler.CreateEntry)
	router.Get("/meno/entries", handler.ListEntries)
	router.Get("/meno/entries/:id", handler.GetEntry)
	router.Put("/meno/entries/:id/sharing", handler.UpdateSharing)
}
