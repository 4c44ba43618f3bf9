package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HTTPObserver lo implementa *metrics.Metrics.
type HTTPObserver interface {
	ObserveHTTP(method, route, status string, d time.Duration)
}

// MetricsMiddleware registra método, ruta (patrón, no path concreto) y estado de cada petición.
func MetricsMiddleware(obs HTTPObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		obs.ObserveHTTP(c.Method(), c.Route().Path, strconv.Itoa(status), time.Since(start))
		return err
	}
}
