package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-recurrente/internal/application/dto"
	"github.com/jhoicas/facturacion-recurrente/internal/application/recurring"
)

// RecurringInvoiceHandler administración de plantillas recurrentes (protegido).
type RecurringInvoiceHandler struct {
	uc *recurring.UseCase
}

// NewRecurringInvoiceHandler construye el handler.
func NewRecurringInvoiceHandler(uc *recurring.UseCase) *RecurringInvoiceHandler {
	return &RecurringInvoiceHandler{uc: uc}
}

// List listado filtrado y paginado.
// GET /api/recurring-invoices?status=&search=&from_date=&to_date=&customer_id=&orderByField=&orderBy=&limit=&offset=
func (h *RecurringInvoiceHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == 0 {
		return unauthorized(c)
	}
	var in dto.ListRecurringInvoicesRequest
	if err := c.QueryParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	out, err := h.uc.List(c.UserContext(), companyID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// GetByID detalle de una plantilla.
// GET /api/recurring-invoices/:id
func (h *RecurringInvoiceHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == 0 {
		return unauthorized(c)
	}
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id inválido"})
	}
	out, err := h.uc.Get(c.UserContext(), companyID, int64(id))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Delete borrado masivo; las facturas generadas se conservan sin referencia.
// POST /api/recurring-invoices/delete
func (h *RecurringInvoiceHandler) Delete(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == 0 {
		return unauthorized(c)
	}
	var in dto.DeleteRecurringInvoicesRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Delete(c.UserContext(), companyID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Frequency vista previa de la siguiente fecha de factura.
// GET /api/recurring-invoices/frequency?frequency=&starts_at=&count=
func (h *RecurringInvoiceHandler) Frequency(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == 0 {
		return unauthorized(c)
	}
	frequency := c.Query("frequency")
	if frequency == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "frequency requerido"})
	}
	out, err := h.uc.FrequencyPreview(c.UserContext(), companyID, frequency, c.Query("starts_at"), c.QueryInt("count", 5))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Sweep ejecuta un barrido inmediato (solo admin). ?at=RFC3339 fija el instante de referencia.
// POST /api/recurring-invoices/sweep
func (h *RecurringInvoiceHandler) Sweep(c *fiber.Ctx) error {
	now := time.Now()
	if at := c.Query("at"); at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "at debe ser RFC3339"})
		}
		now = t
	}
	out, err := h.uc.Sweep(c.UserContext(), now)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
