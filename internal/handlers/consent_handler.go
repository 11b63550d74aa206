package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/menolabs/wellness-backend/internal/consent"
	"github.com/menolabs/wellness-backend/internal/dto"
	"github.com/menolabs/wellness-backend/internal/privacy"
	"github.com/menolabs/wellness-backend/internal/tenant"
)

type ConsentHandler struct {
	consent *consent.Service
}

func NewConsentHandler(cons *consent.Service) *ConsentHandler {
	return &ConsentHandler{consent: cons}
}

// Get returns the stored consent record. A user who never consented gets
// the all-false default shape rather than a 404, so clients render the
// same settings screen either way.
func (h *ConsentHandler) Get(c *fiber.Ctx) error {
	uid, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	record, err := h.consent.Get(c.Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	if record == nil {
		return c.JSON(fiber.Map{
			"user_id":                uid,
			"data_processing":        false,
			"sentiment_analysis":     false,
			"anonymized_licensing":   false,
			"research_participation": false,
			"version":                0,
		})
	}
	return c.JSON(record)
}

func (h *ConsentHandler) Set(c *fiber.Ctx) error {
	uid, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.ConsentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	flags := consent.Flags{
		DataProcessing:        req.DataProcessing,
		SentimentAnalysis:     req.SentimentAnalysis,
		AnonymizedLicensing:   req.AnonymizedLicensing,
		ResearchParticipation: req.ResearchParticipation,
	}
	meta := privacy.MetaFromRequest(c)

	jurisdiction := req.Jurisdiction
	if jurisdiction == "" {
		jurisdiction = meta.CountryCode
	}

	record, err := h.consent.Set(c.Context(), uid, flags, jurisdiction, meta)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(record)
}
