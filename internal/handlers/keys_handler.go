package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/menolabs/wellness-backend/internal/envelope"
)

// KeysHandler exposes root-key health to operators. Admin only; it never
// returns key material, only reachability and metadata.
type KeysHandler struct {
	envelope *envelope.Service
}

func NewKeysHandler(env *envelope.Service) *KeysHandler {
	return &KeysHandler{envelope: env}
}

func (h *KeysHandler) ValidateAccess(c *fiber.Ctx) error {
	report := h.envelope.ValidateAccess(c.Context())
	status := fiber.StatusOK
	if !report.Healthy() {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(report)
}

func (h *KeysHandler) DescribeKey(c *fiber.Ctx) error {
	namespace := c.Params("namespace")
	meta, err := h.envelope.DescribeKey(c.Context(), namespace)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(meta)
}
