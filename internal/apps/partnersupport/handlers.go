package partnersupport

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/menolabs/wellness-backend/internal/dto"
	"github.com/menolabs/wellness-backend/internal/privacy"
	"github.com/menolabs/wellness-backend/internal/tenant"
)

type SupportHandler struct {
	service *SupportService
}

func NewSupportHandler(service *SupportService) *SupportHandler {
	return &SupportHandler{service: service}
}

func errorResponse(c *fiber.Ctx, err error) error {
	return c.Status(privacy.StatusOf(err)).JSON(dto.ErrorResponse{
		Error:   true,
		Message: privacy.MessageOf(err),
		Code:    string(privacy.KindOf(err)),
	})
}

func (h *SupportHandler) CreateNote(c *fiber.Ctx) error {
	uid, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	note, err := h.service.CreateNote(c.Context(), uid, req.Text)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(note)
}

func (h *SupportHandler) ListNotes(c *fiber.Ctx) error {
	uid, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	notes, total, err := h.service.ListNotes(c.Context(), uid, limit, offset)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"notes": notes, "total": total})
}

func (h *SupportHandler) GetNote(c *fiber.Ctx) error {
	uid, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	noteID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid note id",
		})
	}

	note, err := h.service.GetNote(c.Context(), uid, noteID)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(note)
}

func (h *SupportHandler) PartnerTimeline(c *fiber.Ctx) error {
	uid, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	items, err := h.service.PartnerTimeline(c.Context(), uid)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"timeline": items, "count": len(items)})
}
