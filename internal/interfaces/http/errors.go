package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/cuotas-api/internal/application/dto"
	"github.com/jhoicas/cuotas-api/internal/domain"
)

// respondError traduce el Kind del error de dominio a código HTTP.
// Los errores internos no exponen el detalle: se devuelve un mensaje genérico y el error va al ErrorHandler.
func respondError(c *fiber.Ctx, err error) error {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: errorMessage(err)})
	case domain.KindNotFound:
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: errorMessage(err)})
	case domain.KindConflict:
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: errorMessage(err)})
	}
	c.Locals(LocalError, err)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func errorMessage(err error) string {
	var de *domain.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func missingParam(c *fiber.Ctx, name string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: name + " requerido"})
}

// ErrorHandler handler global de Fiber: errores no capturados por los handlers (404 de ruta, panics recuperados).
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	resp := dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
	if code >= fiber.StatusInternalServerError {
		c.Locals(LocalError, err)
	}
	switch code {
	case fiber.StatusNotFound:
		resp = dto.ErrorResponse{Code: "NOT_FOUND", Message: "ruta no encontrada"}
	case fiber.StatusMethodNotAllowed:
		resp = dto.ErrorResponse{Code: "METHOD_NOT_ALLOWED", Message: "método no permitido"}
	}
	return c.Status(code).JSON(resp)
}
