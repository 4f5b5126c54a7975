package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/cuotas-api/internal/application/dto"
	"github.com/jhoicas/cuotas-api/internal/application/fees"
)

// PreviewHandler simulaciones de cuota; nunca escribe.
type PreviewHandler struct {
	preview *fees.PreviewService
}

// NewPreviewHandler construye el handler.
func NewPreviewHandler(preview *fees.PreviewService) *PreviewHandler {
	return &PreviewHandler{preview: preview}
}

// PreviewFee POST /api/cuotas/preview
func (h *PreviewHandler) PreviewFee(c *fiber.Ctx) error {
	var in dto.PreviewFeeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.preview.PreviewFee(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// PreviewMemberFees GET /api/socios/:id/cuotas/preview?desde=MM-YYYY&hasta=MM-YYYY
func (h *PreviewHandler) PreviewMemberFees(c *fiber.Ctx) error {
	from, to := c.Query("desde"), c.Query("hasta")
	if from == "" || to == "" {
		return missingParam(c, "desde y hasta")
	}
	out, err := h.preview.PreviewMemberFees(c.UserContext(), c.Params("id"), from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// CompareFee POST /api/cuotas/:id/comparar
func (h *PreviewHandler) CompareFee(c *fiber.Ctx) error {
	var in dto.CompareFeeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	out, err := h.preview.CompareFee(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
