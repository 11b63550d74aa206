package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/menolabs/wellness-backend/internal/apps"
	"github.com/menolabs/wellness-backend/internal/config"
	"github.com/menolabs/wellness-backend/internal/handlers"
	"github.com/menolabs/wellness-backend/internal/middleware"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	privacyHandler *handlers.PrivacyHandler,
	consentHandler *handlers.ConsentHandler,
	keysHandler *handlers.KeysHandler,
	legalHandler *handlers.LegalHandler,
	plugins []apps.Plugin,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	// Health (no tenant required)
	api.Get("/health", healthHandler.Check)

	// Legal pages (tenant optional for display)
	api.Get("/legal/privacy", legalHandler.PrivacyPolicy)
	api.Get("/legal/terms", legalHandler.TermsOfService)

	// Auth is public; tenant middleware is already applied globally.
	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)

	// Privacy surface. Onboard is the one public entry point; everything
	// else acts on the authenticated subject.
	priv := api.Group("/privacy")
	priv.Post("/onboard", privacyHandler.Onboard)
	priv.Post("/invites", middleware.JWTProtected(cfg), privacyHandler.CreateInvite)
	priv.Post("/invites/accept", middleware.JWTProtected(cfg), privacyHandler.AcceptInvite)
	priv.Post("/export", middleware.JWTProtected(cfg), privacyHandler.Export)
	priv.Get("/export", middleware.JWTProtected(cfg), privacyHandler.Export)
	priv.Post("/deletion/request", middleware.JWTProtected(cfg), privacyHandler.RequestDeletion)
	priv.Post("/deletion/process", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg), privacyHandler.ProcessDeletion)
	priv.Post("/anonymize", middleware.JWTProtected(cfg), privacyHandler.Anonymize)
	priv.Post("/validate", middleware.JWTProtected(cfg), privacyHandler.Validate)
	priv.Get("/consent", middleware.JWTProtected(cfg), consentHandler.Get)
	priv.Put("/consent", middleware.JWTProtected(cfg), consentHandler.Set)
	priv.Post("/cleanup", privacyHandler.Cleanup)

	// Admin panel (protected + admin required)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg))
	admin.Get("/keys/validate", keysHandler.ValidateAccess)
	admin.Get("/keys/:namespace", keysHandler.DescribeKey)

	// Plugin routes - create a protected group for plugins only
	// This ensures JWT middleware doesn't affect public routes
	protected := api.Group("/p", middleware.JWTProtected(cfg))
	for _, p := range plugins {
		p.RegisterRoutes(protected, db, cfg)
		// If the plugin also implements AdminPlugin, register admin routes
		if ap, ok := p.(apps.AdminPlugin); ok {
			ap.RegisterAdminRoutes(admin, db, cfg)
		}
	}
}
