package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-ledger/internal/application/dto"
	"github.com/jhoicas/pos-ledger/internal/domain/permission"
)

// featureChecker contrato mínimo para verificar funciones del plan. Lo implementa *permission.Gate.
type featureChecker interface {
	FeatureEnabled(f permission.Feature) bool
}

// RequireFeature corta el grupo de rutas completo si el plan activo no incluye la función.
// La autorización fina por capacidad sigue ocurriendo en cada caso de uso.
//
// Comportamiento:
//   - 403 Forbidden con MODULE_DISABLED si el plan no incluye la función.
func RequireFeature(f permission.Feature, checker featureChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !checker.FeatureEnabled(f) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "MODULE_DISABLED",
				Message: "la función '" + string(f) + "' no está incluida en el plan activo",
			})
		}
		return c.Next()
	}
}
