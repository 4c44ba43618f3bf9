package http

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jhoicas/facturacion-recurrente/internal/application/numbering"
	"github.com/jhoicas/facturacion-recurrente/internal/application/recurring"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AppName     string
	RecurringUC *recurring.UseCase
	NumberingUC *numbering.PreviewUseCase
	// Metrics opcional: instrumenta las peticiones y expone /metrics.
	Metrics        HTTPObserver
	MetricsHandler http.Handler
	JWTSecret      string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Use(MetricsMiddleware(deps.Metrics))
	}
	if deps.MetricsHandler != nil {
		app.Get("/metrics", adaptor.HTTPHandler(deps.MetricsHandler))
	}
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Recurring invoices
	recurringGroup := protected.Group("/recurring-invoices")
	recurringHandler := NewRecurringInvoiceHandler(deps.RecurringUC)
	recurringGroup.Get("/", recurringHandler.List)
	recurringGroup.Get("/frequency", recurringHandler.Frequency)
	recurringGroup.Post("/delete", RequireRole(RoleAdmin, RoleContador), recurringHandler.Delete)
	recurringGroup.Post("/sweep", RequireRole(RoleAdmin), recurringHandler.Sweep)
	recurringGroup.Get("/:id", recurringHandler.GetByID)

	// Numeración
	numberingHandler := NewNumberingHandler(deps.NumberingUC)
	protected.Get("/next-number", numberingHandler.NextNumber)
}
