package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// httpObserver lo implementa *metrics.Prometheus.
type httpObserver interface {
	ObserveHTTP(method, path string, code int, d time.Duration)
}

// MetricsMiddleware mide cada petición por plantilla de ruta (no por URL concreta).
func MetricsMiddleware(obs httpObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		code := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			} else {
				code = fiber.StatusInternalServerError
			}
		}
		obs.ObserveHTTP(c.Method(), c.Route().Path, code, time.Since(start))
		return err
	}
}
