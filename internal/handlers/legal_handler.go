package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/menolabs/wellness-backend/internal/tenant"
)

type LegalHandler struct {
	registry *tenant.Registry
}

func NewLegalHandler(registry *tenant.Registry) *LegalHandler {
	return &LegalHandler{registry: registry}
}

func (h *LegalHandler) PrivacyPolicy(c *fiber.Ctx) error {
	appID := tenant.GetAppID(c)
	appCfg := h.registry.Get(appID)
	appName := "Our App"
	if appCfg != nil {
		appName = appCfg.AppName
	}

	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Privacy Policy - ` + appName + `</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>
</head><body>
<h1>Privacy Policy</h1>
<p>Last updated: August 2026</p>
<h2>Information We Collect</h2>
<p>We collect your email address and the wellness entries you choose to record in ` + appName + `. Journal content is encrypted on our servers with a key unique to each entry.</p>
<h2>How We Use Your Information</h2>
<p>Your entries are processed only for the features you have explicitly consented to. Optional analysis, such as sentiment scoring, runs only while the matching consent is granted and stops immediately when you revoke it.</p>
<h2>Partner Sharing</h2>
<p>Entries are private by default. An entry is visible to your linked partner only when you mark it shared.</p>
<h2>Data Retention</h2>
<p>Personal data is retained for a period determined by your jurisdiction and is deleted when that period ends.</p>
<h2>Your Rights</h2>
<p>You can export everything we hold about you, and you can request deletion of your account at any time from the app settings. Deletion requests are executed after a 30-day grace period during which you may cancel by contacting support.</p>
<h2>Contact</h2>
<p>For questions about this policy, contact us at privacy@menolabs.app</p>
</body></html>`)
}

func (h *LegalHandler) TermsOfService(c *fiber.Ctx) error {
	appID := tenant.GetAppID(c)
	appCfg := h.registry.Get(appID)
	appName := "Our App"
	if appCfg != nil {
		appName = appCfg.AppName
	}

	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Terms of Service - ` + appName + `</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>
</head><body>
<h1>Terms of Service</h1>
<p>Last updated: August 2026</p>
<h2>Acceptance</h2>
<p>By using ` + appName + `, you agree to these terms.</p>
<h2>Not Medical Advice</h2>
<p>` + appName + ` is a wellness companion. Content in the app is informational and is not a substitute for professional medical advice, diagnosis, or treatment.</p>
<h2>Partner Links</h2>
<p>Linking accounts requires an invite code generated by the primary account. Either partner may end the link at any time by deleting their account.</p>
<h2>Termination</h2>
<p>We may suspend or terminate accounts that violate these terms.</p>
<h2>Contact</h2>
<p>For questions, contact us at support@menolabs.app</p>
</body></html>`)
}
