package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/cuotas-api/internal/application/fees"
)

// HistoryHandler consulta del historial de auditoría.
type HistoryHandler struct {
	ledger *fees.HistoryLedger
}

// NewHistoryHandler construye el handler.
func NewHistoryHandler(ledger *fees.HistoryLedger) *HistoryHandler {
	return &HistoryHandler{ledger: ledger}
}

// ByFee GET /api/historial/cuotas/:id
func (h *HistoryHandler) ByFee(c *fiber.Ctx) error {
	list, err := h.ledger.ListByFee(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// ByMember GET /api/historial/socios/:id
func (h *HistoryHandler) ByMember(c *fiber.Ctx) error {
	list, err := h.ledger.ListByMember(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// ByAdjustment GET /api/historial/ajustes/:id
func (h *HistoryHandler) ByAdjustment(c *fiber.Ctx) error {
	list, err := h.ledger.ListByAdjustment(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}
