package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/domain"
)

// errorStatus traduce un error de dominio a status HTTP y código estable.
// El orden importa: un SagaError envuelve además la causa de la pierna que falló.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrSessionOpen):
		return fiber.StatusConflict, "SESSION_OPEN"
	case errors.Is(err, domain.ErrSessionClosed):
		return fiber.StatusConflict, "SESSION_CLOSED"
	case errors.Is(err, domain.ErrAlreadyReverted):
		return fiber.StatusConflict, "ALREADY_REVERTED"
	case errors.Is(err, domain.ErrNotPending):
		return fiber.StatusConflict, "NOT_PENDING"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrCreditExceeded):
		return fiber.StatusUnprocessableEntity, "CREDIT_EXCEEDED"
	case errors.Is(err, domain.ErrUnbalancedPayment):
		return fiber.StatusUnprocessableEntity, "UNBALANCED_PAYMENT"
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return fiber.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS"
	case errors.Is(err, domain.ErrInvalidUnit):
		return fiber.StatusUnprocessableEntity, "INVALID_UNIT"
	case errors.Is(err, domain.ErrNoRate):
		return fiber.StatusServiceUnavailable, "NO_RATE"
	case errors.Is(err, domain.ErrSagaFailed):
		return fiber.StatusInternalServerError, "SAGA_FAILED"
	case errors.Is(err, domain.ErrIntegrity):
		return fiber.StatusInternalServerError, "INTEGRITY"
	}
	var txErr *domain.TransactionError
	if errors.As(err, &txErr) {
		return fiber.StatusServiceUnavailable, "TRANSACTION_FAILED"
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// writeError responde con dto.ErrorResponse. Los SagaError exponen la referencia
// cruzada y si la compensación dejó los libros consistentes.
func writeError(c *fiber.Ctx, err error) error {
	status, code := errorStatus(err)
	resp := dto.ErrorResponse{Code: code, Message: err.Error()}

	var verr *domain.ValidationError
	if errors.As(err, &verr) && verr.Field != "" {
		resp.Details = map[string]string{verr.Field: verr.Reason}
	}
	var serr *domain.SagaError
	if errors.As(err, &serr) {
		resp.Details = map[string]string{"action": serr.Action, "step": serr.Step}
		if serr.Compensated() {
			resp.Details["compensated"] = "true"
		} else {
			resp.Details["compensated"] = "false"
			// Sin compensación los libros quedaron desalineados: requiere conciliación.
			status, code = fiber.StatusInternalServerError, "SAGA_FAILED"
			resp.Code = code
		}
		for k, v := range serr.CrossRef {
			resp.Details["ref_"+k] = v
		}
	}
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Str("code", code).Msg("error en petición")
		switch code {
		case "INTERNAL":
			resp.Message = "error interno"
		case "TRANSACTION_FAILED":
			// Nada quedó confirmado: el cliente puede reintentar.
			resp.Message = "el almacenamiento no respondió; reintente"
			c.Set(fiber.HeaderRetryAfter, "1")
		}
	}
	return c.Status(status).JSON(resp)
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
