package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/cuotas-api/internal/application/dto"
	"github.com/jhoicas/cuotas-api/internal/application/fees"
)

// RollbackHandler reversión de cuotas generadas (PREVIEW | APLICAR).
type RollbackHandler struct {
	rollback *fees.RollbackService
}

// NewRollbackHandler construye el handler.
func NewRollbackHandler(rollback *fees.RollbackService) *RollbackHandler {
	return &RollbackHandler{rollback: rollback}
}

// RollbackBatch POST /api/cuotas/rollback
func (h *RollbackHandler) RollbackBatch(c *fiber.Ctx) error {
	var in dto.RollbackBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.rollback.RollbackBatch(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// RollbackFee POST /api/cuotas/:id/rollback
func (h *RollbackHandler) RollbackFee(c *fiber.Ctx) error {
	var in dto.RollbackFeeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.rollback.RollbackFee(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
