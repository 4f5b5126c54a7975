package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/cuotas-api/internal/application/dto"
	"github.com/jhoicas/cuotas-api/internal/application/fees"
)

// FeeHandler maneja la generación, edición y consulta de cuotas (protegido).
type FeeHandler struct {
	batch     *fees.BatchGenerationService
	composer  *fees.LineItemComposer
	service   *fees.FeeService
	statement *fees.FeeStatement
}

// NewFeeHandler construye el handler.
func NewFeeHandler(
	batch *fees.BatchGenerationService,
	composer *fees.LineItemComposer,
	service *fees.FeeService,
	statement *fees.FeeStatement,
) *FeeHandler {
	return &FeeHandler{batch: batch, composer: composer, service: service, statement: statement}
}

// GenerateBatch genera las cuotas del período para la cohorte de socios activos.
// POST /api/cuotas/lote
func (h *FeeHandler) GenerateBatch(c *fiber.Ctx) error {
	var in dto.GenerateBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.batch.GenerateBatch(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateBatch sobrescribe montos de varias cuotas en una transacción.
// PATCH /api/cuotas/lote
func (h *FeeHandler) UpdateBatch(c *fiber.Ctx) error {
	var in dto.UpdateBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.batch.UpdateBatch(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID cuota con sus ítems.
// GET /api/cuotas/:id
func (h *FeeHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.service.GetFee(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListByMember cuotas del socio, opcionalmente acotadas con ?desde=MM-YYYY&hasta=MM-YYYY.
// GET /api/socios/:id/cuotas
func (h *FeeHandler) ListByMember(c *fiber.Ctx) error {
	list, err := h.service.ListByMember(c.UserContext(), c.Params("id"), c.Query("desde"), c.Query("hasta"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// LinkReceipt vincula un recibo emitido a la cuota.
// POST /api/cuotas/:id/recibo
func (h *FeeHandler) LinkReceipt(c *fiber.Ctx) error {
	var in dto.LinkReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	fee, err := h.service.LinkReceipt(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fee)
}

// Regenerate recalcula los ítems automáticos y reporta la diferencia con el total almacenado.
// POST /api/cuotas/:id/regenerar
func (h *FeeHandler) Regenerate(c *fiber.Ctx) error {
	out, err := h.composer.RegenerateItems(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GlobalDiscount aplica (o simula) un porcentaje sobre un conjunto de cuotas.
// POST /api/cuotas/descuento-global
func (h *FeeHandler) GlobalDiscount(c *fiber.Ctx) error {
	var in dto.GlobalDiscountRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.composer.ApplyGlobalDiscount(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// AddItem agrega un ítem manual (cargo o crédito).
// POST /api/cuotas/:id/items
func (h *FeeHandler) AddItem(c *fiber.Ctx) error {
	var in dto.ManualItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.composer.AddManualItem(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// DeleteItem elimina un ítem de la cuota.
// DELETE /api/cuotas/:id/items/:itemId
func (h *FeeHandler) DeleteItem(c *fiber.Ctx) error {
	itemID := c.Params("itemId")
	if itemID == "" {
		return missingParam(c, "itemId")
	}
	out, err := h.composer.DeleteItem(c.UserContext(), GetUserID(c), c.Params("id"), itemID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// PDF descarga la liquidación de la cuota.
// GET /api/cuotas/:id/pdf
func (h *FeeHandler) PDF(c *fiber.Ctx) error {
	doc, filename, err := h.statement.Render(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(doc)
}
