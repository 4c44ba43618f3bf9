package repository

import (
	"context"
	"time"

	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
)

// Campos por los que se puede ordenar el listado de plantillas.
var RecurringOrderFields = map[string]bool{
	"created_at":      true,
	"starts_at":       true,
	"next_invoice_at": true,
	"total":           true,
	"status":          true,
	"id":              true,
}

// RecurringInvoiceFilter filtros del listado de plantillas.
// Search se divide en términos: cada término debe aparecer (AND) en alguno (OR) de
// nombre, contacto o razón social del cliente, sin distinguir mayúsculas.
type RecurringInvoiceFilter struct {
	Status     string
	Search     string
	FromDate   *time.Time // starts_at >= FromDate
	ToDate     *time.Time // starts_at <= ToDate
	CustomerID int64
	OrderBy    string // default created_at
	OrderDir   string // asc | desc, default asc
	Limit      int
	Offset     int
}

// Normalize aplica valores por defecto y descarta campos de orden no permitidos.
func (f *RecurringInvoiceFilter) Normalize() {
	if !RecurringOrderFields[f.OrderBy] {
		f.OrderBy = "created_at"
	}
	if f.OrderDir != "desc" {
		f.OrderDir = "asc"
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// RecurringInvoiceRepository define el puerto de persistencia para plantillas recurrentes.
type RecurringInvoiceRepository interface {
	// GetByID devuelve la plantilla con líneas, impuestos y campos personalizados; nil si no existe.
	GetByID(ctx context.Context, id int64) (*entity.RecurringInvoice, error)

	// GetForUpdate igual que GetByID pero bloquea la fila hasta el fin de la transacción,
	// para que dos barridos no disparen la misma plantilla a la vez.
	GetForUpdate(ctx context.Context, id int64) (*entity.RecurringInvoice, error)

	// ListDueIDs devuelve IDs de plantillas ACTIVE con next_invoice_at <= now, en orden de ID
	// y a partir de afterID (paginación por clave).
	ListDueIDs(ctx context.Context, now time.Time, afterID int64, limit int) ([]int64, error)

	// List devuelve una página filtrada (con Customer cargado) y el total sin paginar.
	List(ctx context.Context, companyID int64, filter RecurringInvoiceFilter) ([]*entity.RecurringInvoice, int, error)

	// MarkCompleted aplica ACTIVE → COMPLETED. Devuelve false si ya estaba completada.
	MarkCompleted(ctx context.Context, id int64, now time.Time) (bool, error)

	// UpdateSchedule persiste next_invoice_at, last_fired_at y updated_at.
	UpdateSchedule(ctx context.Context, tpl *entity.RecurringInvoice) error

	// Delete borra las plantillas de la empresa con sus líneas, impuestos y campos.
	Delete(ctx context.Context, companyID int64, ids []int64) (int64, error)
}
