package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/lotes-api/internal/application/dto"
	"github.com/jhoicas/lotes-api/internal/domain"
)

// writeDomainError traduce el error de dominio a su respuesta HTTP. Los
// errores tipados llevan payload (disponible, alternativas, compensación)
// para que el cliente pueda reaccionar sin parsear mensajes.
func writeDomainError(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientQuantityError
	if errors.As(err, &insufficient) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"code":         "INSUFFICIENT_STOCK",
			"message":      insufficient.Error(),
			"requested":    insufficient.Requested,
			"available":    insufficient.Available,
			"alternatives": insufficient.Alternatives,
		})
	}
	var transition *domain.InvalidTransitionError
	if errors.As(err, &transition) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"code":    "INVALID_TRANSITION",
			"message": transition.Error(),
			"from":    transition.From,
			"to":      transition.To,
		})
	}
	var partial *domain.PartialFailureError
	if errors.As(err, &partial) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"code":        "PARTIAL_FAILURE",
			"message":     partial.Error(),
			"compensated": partial.Compensated,
		})
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acción no autorizada para el rol"})
	case errors.Is(err, domain.ErrExpired):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "LOT_EXPIRED", Message: "el lote está vencido"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "el recurso ya existe"})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
