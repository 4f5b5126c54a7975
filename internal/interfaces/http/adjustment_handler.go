package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/cuotas-api/internal/application/dto"
	"github.com/jhoicas/cuotas-api/internal/application/fees"
)

// AdjustmentHandler CRUD y ciclo de vida de ajustes permanentes.
type AdjustmentHandler struct {
	store *fees.AdjustmentStore
}

// NewAdjustmentHandler construye el handler.
func NewAdjustmentHandler(store *fees.AdjustmentStore) *AdjustmentHandler {
	return &AdjustmentHandler{store: store}
}

// Create POST /api/ajustes
func (h *AdjustmentHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateAdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	adj, err := h.store.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(adj)
}

// List GET /api/ajustes
func (h *AdjustmentHandler) List(c *fiber.Ctx) error {
	list, err := h.store.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// GetByID GET /api/ajustes/:id
func (h *AdjustmentHandler) GetByID(c *fiber.Ctx) error {
	adj, err := h.store.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(adj)
}

// Update PUT /api/ajustes/:id
func (h *AdjustmentHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateAdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	adj, err := h.store.Update(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(adj)
}

// Delete DELETE /api/ajustes/:id (baja lógica).
func (h *AdjustmentHandler) Delete(c *fiber.Ctx) error {
	adj, err := h.store.Delete(c.UserContext(), GetUserID(c), c.Params("id"), optionalReason(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(adj)
}

// Activate POST /api/ajustes/:id/activar
func (h *AdjustmentHandler) Activate(c *fiber.Ctx) error {
	adj, err := h.store.Activate(c.UserContext(), GetUserID(c), c.Params("id"), optionalReason(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(adj)
}

// Deactivate POST /api/ajustes/:id/desactivar
func (h *AdjustmentHandler) Deactivate(c *fiber.Ctx) error {
	adj, err := h.store.Deactivate(c.UserContext(), GetUserID(c), c.Params("id"), optionalReason(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(adj)
}

// Stats GET /api/ajustes/estadisticas
func (h *AdjustmentHandler) Stats(c *fiber.Ctx) error {
	out, err := h.store.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListByMember GET /api/ajustes/socio/:id
func (h *AdjustmentHandler) ListByMember(c *fiber.Ctx) error {
	list, err := h.store.ListByMember(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// ActiveForMember GET /api/ajustes/socio/:id/activos?fecha=YYYY-MM-DD (hoy si se omite).
func (h *AdjustmentHandler) ActiveForMember(c *fiber.Ctx) error {
	date := time.Now().UTC()
	if raw := c.Query("fecha"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "fecha debe tener formato YYYY-MM-DD"})
		}
		date = parsed
	}
	list, err := h.store.FindActiveForPeriod(c.UserContext(), c.Params("id"), date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// optionalReason lee {"motivo": "..."} si hay cuerpo; un cuerpo ausente o ilegible equivale a sin motivo.
func optionalReason(c *fiber.Ctx) string {
	if len(c.Body()) == 0 {
		return ""
	}
	var in dto.ReasonRequest
	if err := c.BodyParser(&in); err != nil {
		return ""
	}
	return in.Reason
}
