package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/cuotas-api/internal/application/dto"
	"github.com/jhoicas/cuotas-api/internal/application/fees"
	"github.com/jhoicas/cuotas-api/internal/domain/entity"
)

// ExemptionHandler circuito de solicitud y aprobación de exenciones.
type ExemptionHandler struct {
	store *fees.ExemptionStore
}

// NewExemptionHandler construye el handler.
func NewExemptionHandler(store *fees.ExemptionStore) *ExemptionHandler {
	return &ExemptionHandler{store: store}
}

// Create POST /api/exenciones
func (h *ExemptionHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateExemptionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	ex, err := h.store.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ex)
}

// List GET /api/exenciones (?estado=PENDIENTE|APROBADA|VIGENTE|RECHAZADA|REVOCADA)
func (h *ExemptionHandler) List(c *fiber.Ctx) error {
	var (
		list []*entity.Exemption
		err  error
	)
	if state := c.Query("estado"); state != "" {
		list, err = h.store.ListByState(c.UserContext(), state)
	} else {
		list, err = h.store.List(c.UserContext())
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// GetByID GET /api/exenciones/:id
func (h *ExemptionHandler) GetByID(c *fiber.Ctx) error {
	ex, err := h.store.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ex)
}

// Approve POST /api/exenciones/:id/aprobar
func (h *ExemptionHandler) Approve(c *fiber.Ctx) error {
	ex, err := h.store.Approve(c.UserContext(), GetUserID(c), c.Params("id"), optionalReason(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ex)
}

// Reject POST /api/exenciones/:id/rechazar
func (h *ExemptionHandler) Reject(c *fiber.Ctx) error {
	ex, err := h.store.Reject(c.UserContext(), GetUserID(c), c.Params("id"), optionalReason(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ex)
}

// Revoke POST /api/exenciones/:id/revocar
func (h *ExemptionHandler) Revoke(c *fiber.Ctx) error {
	ex, err := h.store.Revoke(c.UserContext(), GetUserID(c), c.Params("id"), optionalReason(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ex)
}

// Stats GET /api/exenciones/estadisticas
func (h *ExemptionHandler) Stats(c *fiber.Ctx) error {
	out, err := h.store.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ListByMember GET /api/exenciones/socio/:id
func (h *ExemptionHandler) ListByMember(c *fiber.Ctx) error {
	list, err := h.store.ListByMember(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// ForPeriod GET /api/exenciones/socio/:id/periodo?periodo=MM-YYYY
// Responde 404 si ninguna exención efectiva cubre el período.
func (h *ExemptionHandler) ForPeriod(c *fiber.Ctx) error {
	raw := c.Query("periodo")
	if raw == "" {
		return missingParam(c, "periodo")
	}
	period, err := entity.ParsePeriod(raw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	ex, err := h.store.CheckForPeriod(c.UserContext(), c.Params("id"), period)
	if err != nil {
		return respondError(c, err)
	}
	if ex == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "sin exención efectiva para " + period.String()})
	}
	return c.JSON(ex)
}
