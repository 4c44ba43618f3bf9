package repository

import (
	"context"

	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para facturas y sus hijos.
type InvoiceRepository interface {
	// Create persiste la cabecera y asigna invoice.ID.
	Create(ctx context.Context, invoice *entity.Invoice) error
	// CreateItem persiste una línea con sus impuestos de línea.
	CreateItem(ctx context.Context, invoiceID int64, item *entity.InvoiceItem) error
	CreateTax(ctx context.Context, invoiceID int64, tax *entity.Tax) error
	CreateCustomFieldValue(ctx context.Context, invoiceID int64, value *entity.CustomFieldValue) error
	UpdateUniqueHash(ctx context.Context, invoiceID int64, hash string) error

	// GetByID devuelve la factura con hijos; nil si no existe.
	GetByID(ctx context.Context, id int64) (*entity.Invoice, error)

	// CountByRecurringInvoice cuenta las facturas generadas desde una plantilla.
	CountByRecurringInvoice(ctx context.Context, recurringInvoiceID int64) (int, error)

	// DetachRecurring anula recurring_invoice_id en las facturas que apuntan a esas plantillas.
	DetachRecurring(ctx context.Context, recurringInvoiceIDs []int64) (int64, error)
}
