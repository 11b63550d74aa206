package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/menolabs/wellness-backend/internal/dto"
	"github.com/menolabs/wellness-backend/internal/envelope"
	"github.com/menolabs/wellness-backend/internal/lifecycle"
	"github.com/menolabs/wellness-backend/internal/models"
	"github.com/menolabs/wellness-backend/internal/privacy"
	"github.com/menolabs/wellness-backend/internal/retention"
	"github.com/menolabs/wellness-backend/internal/tenant"
)

// respondError translates a service error into the HTTP status of its
// kind. Unclassified errors surface as a generic 500 so internal detail
// never reaches the client.
func respondError(c *fiber.Ctx, err error) error {
	return c.Status(privacy.StatusOf(err)).JSON(dto.ErrorResponse{
		Error:   true,
		Message: privacy.MessageOf(err),
		Code:    string(privacy.KindOf(err)),
	})
}

type PrivacyHandler struct {
	lifecycle *lifecycle.Service
	retention *retention.Service
	envelope  *envelope.Service
}

func NewPrivacyHandler(lc *lifecycle.Service, ret *retention.Service, env *envelope.Service) *PrivacyHandler {
	return &PrivacyHandler{lifecycle: lc, retention: ret, envelope: env}
}

// Onboard is reachable without a JWT: the very first call a fresh app
// install makes happens before any token exists.
func (h *PrivacyHandler) Onboard(c *fiber.Ctx) error {
	var req dto.OnboardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.UID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "uid is required",
		})
	}

	res, err := h.lifecycle.Onboard(c.Context(), req.UID, req.Email, req.DisplayName, privacy.MetaFromRequest(c))
	if err != nil {
		return respondError(c, err)
	}

	status := fiber.StatusOK
	message := "user refreshed"
	if res.Created {
		status = fiber.StatusCreated
		message = "user created"
	}
	return c.Status(status).JSON(dto.OnboardResponse{
		Success: true,
		Message: message,
		UserData: &dto.UserResponse{
			UID:         res.User.UID,
			Email:       res.User.Email,
			DisplayName: res.User.DisplayName,
			Role:        res.User.Role,
			PartnerID:   res.User.PartnerID,
		},
	})
}

func (h *PrivacyHandler) CreateInvite(c *fiber.Ctx) error {
	uid, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	invite, err := h.lifecycle.CreateInvite(c.Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invite)
}

func (h *PrivacyHandler) AcceptInvite(c *fiber.Ctx) error {
	uid, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.AcceptInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	link, err := h.lifecycle.AcceptInvite(c.Context(), uid, req.Code, privacy.MetaFromRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(link)
}

func (h *PrivacyHandler) Export(c *fiber.Ctx) error {
	uid, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	bundle, err := h.lifecycle.ExportUserData(c.Context(), uid, privacy.MetaFromRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(bundle)
}

func (h *PrivacyHandler) RequestDeletion(c *fiber.Ctx) error {
	uid, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var req dto.DeletionRequestBody
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	dr, err := h.lifecycle.RequestDeletion(c.Context(), uid, req.Notes, privacy.MetaFromRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(dr)
}

// ProcessDeletion executes a specific deletion request immediately,
// without waiting out the grace window. Admin only.
func (h *PrivacyHandler) ProcessDeletion(c *fiber.Ctx) error {
	var req dto.DeletionProcessRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	requestID, err := uuid.Parse(req.RequestID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "request_id must be a UUID",
		})
	}

	if err := h.lifecycle.ProcessDeletion(c.Context(), requestID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "completed", "request_id": requestID})
}

func (h *PrivacyHandler) Anonymize(c *fiber.Ctx) error {
	uid, err := tenant.GetUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	res, err := h.lifecycle.AnonymizeUserData(c.Context(), uid, privacy.MetaFromRequest(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(res)
}

// Validate checks the structural integrity of an encrypted payload
// without decrypting it.
func (h *PrivacyHandler) Validate(c *fiber.Ctx) error {
	var req dto.ValidateEncryptedRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	data := &models.EncryptedData{
		EncryptedValue: req.EncryptedValue,
		KeyID:          req.KeyID,
		Algorithm:      req.Algorithm,
	}
	if err := envelope.ValidateEncryptedData(data); err != nil {
		return c.JSON(fiber.Map{"valid": false, "reason": privacy.MessageOf(err)})
	}
	return c.JSON(fiber.Map{"valid": true})
}

// Cleanup runs the retention sweeps on demand. The same work runs on the
// background ticker; this endpoint exists for scheduled external
// invocation and operational runbooks.
func (h *PrivacyHandler) Cleanup(c *fiber.Ctx) error {
	now := time.Now().UTC()
	ctx := c.Context()

	expired, err := h.retention.SweepExpiredInvites(ctx, now)
	if err != nil {
		return respondError(c, err)
	}
	deleted, err := h.retention.SweepExpiredDeletions(ctx, now, h.lifecycle)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"invites_expired":     expired,
		"deletions_processed": deleted,
	})
}
