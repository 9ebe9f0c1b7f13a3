package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/supplychain-core/internal/application/dto"
	"github.com/jhoicas/supplychain-core/internal/domain"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Orden relevante: se usa la primera coincidencia de errors.Is.
var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION", "datos inválidos"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado"},
	{domain.ErrIllegalTransition, fiber.StatusConflict, "ILLEGAL_TRANSITION", "transición de estado no permitida"},
	{domain.ErrDuplicateDocument, fiber.StatusConflict, "DUPLICATE_DOCUMENT", "el documento ya existe para esta orden"},
	{domain.ErrPaymentProofRequired, fiber.StatusUnprocessableEntity, "PAYMENT_PROOF_REQUIRED", "se requiere comprobante de pago"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK", "stock insuficiente"},
	{domain.ErrInvalidHierarchy, fiber.StatusUnprocessableEntity, "INVALID_HIERARCHY", "jerarquía de organizaciones inválida"},
	{domain.ErrOrphanedOrganization, fiber.StatusUnprocessableEntity, "ORPHANED_ORGANIZATION", "organización sin casa matriz"},
	{domain.ErrParentOrderNotApproved, fiber.StatusConflict, "PARENT_ORDER_NOT_APPROVED", "la orden padre no está aprobada"},
	{domain.ErrContention, fiber.StatusServiceUnavailable, "CONTENTION", "recurso ocupado, reintente"},
}

// retryAfterSeconds valor de Retry-After para errores de contención.
const retryAfterSeconds = "1"

// respondError traduce errores de dominio a respuestas HTTP estables.
func respondError(c *fiber.Ctx, err error) error {
	var denied *domain.DeniedError
	if errors.As(err, &denied) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: denied.Reason})
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.target == domain.ErrContention {
				c.Set(fiber.HeaderRetryAfter, retryAfterSeconds)
			}
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: m.message})
		}
	}
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}
