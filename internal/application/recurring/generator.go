package recurring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/facturacion-recurrente/internal/application/settings"
	"github.com/jhoicas/facturacion-recurrente/internal/domain"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/recurring"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
	"github.com/jhoicas/facturacion-recurrente/pkg/logger"
)

// Outcome resultado de procesar una plantilla.
type Outcome struct {
	TemplateID int64
	Decision   recurring.Decision
	// Skipped la plantilla ya no estaba pendiente al tomar el bloqueo (completada o
	// avanzada por otro barrido); no se evaluó.
	Skipped bool
	Invoice *entity.Invoice
}

// Label nombre corto para logs y métricas.
func (o *Outcome) Label() string {
	if o.Skipped {
		return "skipped"
	}
	return o.Decision.String()
}

// Generator dispara una plantilla: evalúa el límite, materializa y avanza la programación
// en una sola transacción. El evento InvoiceGenerated se emite después del commit.
type Generator struct {
	tx           RecurringTxRunner
	materializer *Materializer
	settings     *settings.Reader
	events       EventHandler
	anchor       recurring.AnchorMode
	metrics      Metrics
	log          *logger.Logger
}

// GeneratorOption configura el generador.
type GeneratorOption func(*Generator)

// WithEventHandler registra el manejador de eventos posteriores a la creación.
func WithEventHandler(h EventHandler) GeneratorOption {
	return func(g *Generator) { g.events = h }
}

// WithAnchor define el modo de anclaje de next_invoice_at.
func WithAnchor(mode recurring.AnchorMode) GeneratorOption {
	return func(g *Generator) { g.anchor = mode }
}

// WithMetrics registra las métricas.
func WithMetrics(m Metrics) GeneratorOption {
	return func(g *Generator) { g.metrics = m }
}

// NewGenerator construye el generador.
func NewGenerator(
	tx RecurringTxRunner,
	materializer *Materializer,
	settings *settings.Reader,
	log *logger.Logger,
	opts ...GeneratorOption,
) *Generator {
	g := &Generator{
		tx:           tx,
		materializer: materializer,
		settings:     settings,
		anchor:       recurring.AnchorLastFired,
		metrics:      nopMetrics{},
		log:          log,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Process procesa una plantilla en el instante now. Devuelve domain.ErrNotFound si la
// plantilla no existe.
func (g *Generator) Process(ctx context.Context, id int64, now time.Time) (*Outcome, error) {
	start := time.Now()
	out, ev, err := g.process(ctx, id, now)
	if err != nil {
		g.metrics.ObserveTemplate("failed", time.Since(start))
		return nil, err
	}
	g.metrics.ObserveTemplate(out.Label(), time.Since(start))

	if ev != nil && g.events != nil {
		if hErr := g.events.HandleInvoiceGenerated(ctx, *ev); hErr != nil {
			// La factura ya está confirmada; el envío fallido se reenvía a mano.
			g.metrics.NotificationFailed()
			g.log.Warn().Err(hErr).
				Int64("recurring_invoice_id", id).
				Int64("invoice_id", out.Invoice.ID).
				Msg("evento de factura generada falló")
		}
	}
	return out, nil
}

func (g *Generator) process(ctx context.Context, id int64, now time.Time) (*Outcome, *InvoiceGenerated, error) {
	out := &Outcome{TemplateID: id}
	var ev *InvoiceGenerated

	err := g.tx.RunRecurring(ctx, func(
		recurringRepo repository.RecurringInvoiceRepository,
		invoiceRepo repository.InvoiceRepository,
		counters repository.SequenceCounterRepository,
	) error {
		tpl, err := recurringRepo.GetForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("get recurring invoice: %w", err)
		}
		if tpl == nil {
			return fmt.Errorf("plantilla %d: %w", id, domain.ErrNotFound)
		}
		if tpl.IsCompleted() || tpl.NextInvoiceAt.After(now) {
			out.Skipped = true
			return nil
		}

		loc, err := g.settings.Location(ctx, tpl.CompanyID)
		if err != nil {
			return err
		}
		local := now.In(loc)

		count, err := invoiceRepo.CountByRecurringInvoice(ctx, tpl.ID)
		if err != nil {
			return fmt.Errorf("count invoices: %w", err)
		}

		out.Decision = recurring.EvaluateLimit(tpl, local, count)
		switch out.Decision {
		case recurring.NotStarted:
			return nil
		case recurring.Terminate:
			if _, err := recurringRepo.MarkCompleted(ctx, tpl.ID, now); err != nil {
				return fmt.Errorf("complete recurring invoice: %w", err)
			}
			return nil
		}

		// La frecuencia se valida antes de crear nada.
		sched, err := recurring.ParseFrequency(tpl.Frequency)
		if err != nil {
			return fmt.Errorf("plantilla %d: %w", tpl.ID, err)
		}

		res, err := g.materializer.Materialize(ctx, invoiceRepo, counters, tpl, local)
		if err != nil {
			return err
		}

		fired := now
		tpl.NextInvoiceAt = sched.NextInvoiceAt(tpl, now, g.anchor, loc)
		tpl.LastFiredAt = &fired
		tpl.UpdatedAt = now
		if err := recurringRepo.UpdateSchedule(ctx, tpl); err != nil {
			return fmt.Errorf("advance schedule: %w", err)
		}

		out.Invoice = res.Invoice
		ev = &InvoiceGenerated{Template: tpl, Invoice: res.Invoice, Customer: res.Customer}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, ev, nil
}

// IsConfigurationError indica errores que requieren corregir datos de la plantilla o de
// la empresa (no se arreglan reintentando).
func IsConfigurationError(err error) bool {
	return errors.Is(err, domain.ErrInvalidFrequency) ||
		errors.Is(err, domain.ErrCustomerNotFound) ||
		errors.Is(err, domain.ErrInvalidNumberFormat)
}
