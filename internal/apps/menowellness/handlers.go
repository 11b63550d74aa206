package menowellness

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/menolabs/wellness-backend/internal/dto"
	"github.com/menolabs/wellness-backend/internal/privacy"
	"github.com/menolabs/wellness-backend/internal/tenant"
)

type JournalHandler struct {
	service *JournalService
}

func NewJournalHandler(service *JournalService) *JournalHandler {
	return &JournalHandler{service: service}
}

func errorResponse(c *fiber.Ctx, err error) error {
	return c.Status(privacy.StatusOf(err)).JSON(dto.ErrorResponse{
		Error:   true,
		Message: privacy.MessageOf(err),
		Code:    string(privacy.KindOf(err)),
	})
}

func (h *JournalHandler) CreateEntry(c *fiber.Ctx) error {
	uid, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.JournalEntryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	entry, err := h.service.CreateEntry(c.Context(), uid, req.Text, req.MoodScore, req.SharedWithPartner)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *JournalHandler) ListEntries(c *fiber.Ctx) error {
	uid, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	entries, total, err := h.service.ListEntries(c.Context(), uid, limit, offset)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"entries": entries, "total": total})
}

func (h *JournalHandler) GetEntry(c *fiber.Ctx) error {
	uid, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	entryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid entry id",
		})
	}

	entry, err := h.service.GetEntry(c.Context(), uid, entryID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(entry)
}

func (h *JournalHandler) UpdateSharing(c *fiber.Ctx) error {
	uid, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	entryID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid entry id",
		})
	}

	var req struct {
		SharedWithPartner bool `json:"shared_with_partner"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	entry, err := h.service.UpdateSharing(c.Context(), uid, entryID, req.SharedWithPartner)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(entry)
}
