package recurring

import (
	"context"
	"time"

	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
)

// RecurringTxRunner ejecuta una función dentro de una transacción con repos atados a ella.
// Si fn devuelve error se hace rollback de todo: factura, hijos, contadores y programación.
type RecurringTxRunner interface {
	RunRecurring(ctx context.Context, fn func(
		recurringRepo repository.RecurringInvoiceRepository,
		invoiceRepo repository.InvoiceRepository,
		counters repository.SequenceCounterRepository,
	) error) error
}

// HashEncoder codificación reversible del ID de factura (unique_hash).
type HashEncoder interface {
	Encode(id int64) (string, error)
}

// InvoiceMail mensaje de una factura generada, listo para el transporte.
type InvoiceMail struct {
	To       string
	Subject  string
	Body     string
	Invoice  *entity.Invoice
	Customer *entity.Customer
	Company  *entity.Company
}

// Notifier entrega la factura por correo.
type Notifier interface {
	SendInvoice(ctx context.Context, mail InvoiceMail) error
}

// InvoiceGenerated evento emitido tras confirmar la transacción de una factura nueva.
type InvoiceGenerated struct {
	Template *entity.RecurringInvoice
	Invoice  *entity.Invoice
	Customer *entity.Customer
}

// EventHandler recibe los eventos posteriores a la creación.
type EventHandler interface {
	HandleInvoiceGenerated(ctx context.Context, ev InvoiceGenerated) error
}

// Metrics métricas del barrido. Las implementa infrastructure/metrics.
type Metrics interface {
	ObserveSweep(d time.Duration)
	ObserveTemplate(outcome string, d time.Duration)
	NotificationFailed()
}

type nopMetrics struct{}

func (nopMetrics) ObserveSweep(time.Duration)            {}
func (nopMetrics) ObserveTemplate(string, time.Duration) {}
func (nopMetrics) NotificationFailed()                   {}
