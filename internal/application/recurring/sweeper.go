package recurring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/facturacion-recurrente/internal/domain/recurring"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
	"github.com/jhoicas/facturacion-recurrente/pkg/logger"
)

// Failure error de una plantilla durante un barrido.
type Failure struct {
	TemplateID int64
	Err        error
}

// SweepReport resumen de un barrido.
type SweepReport struct {
	RunID      string
	Now        time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	Due        int
	Generated  int
	Completed  int
	NotStarted int
	Skipped    int
	Failures   []Failure
}

// Sweeper recorre las plantillas pendientes y las procesa en paralelo. El fallo de una
// plantilla no detiene a las demás.
type Sweeper struct {
	recurringRepo repository.RecurringInvoiceRepository
	generator     *Generator
	workers       int
	batchSize     int
	metrics       Metrics
	log           *logger.Logger
}

// NewSweeper construye el barrido. workers y batchSize <= 0 toman 1 y 100.
func NewSweeper(
	recurringRepo repository.RecurringInvoiceRepository,
	generator *Generator,
	workers, batchSize int,
	metrics Metrics,
	log *logger.Logger,
) *Sweeper {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Sweeper{
		recurringRepo: recurringRepo,
		generator:     generator,
		workers:       workers,
		batchSize:     batchSize,
		metrics:       metrics,
		log:           log.WithComponent("recurring-sweeper"),
	}
}

// Sweep procesa todas las plantillas ACTIVE con next_invoice_at <= now. Si ctx se cancela
// deja de despachar plantillas nuevas; las pendientes quedan para el siguiente barrido.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (*SweepReport, error) {
	report := &SweepReport{RunID: uuid.NewString(), Now: now, StartedAt: time.Now()}
	log := s.log.With().Str("run_id", report.RunID).Logger()
	log.Info().Time("now", now).Msg("barrido de facturas recurrentes iniciado")

	var mu sync.Mutex
	record := func(id int64, out *Outcome, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.Failures = append(report.Failures, Failure{TemplateID: id, Err: err})
			ev := log.Error().Err(err).Int64("recurring_invoice_id", id)
			if IsConfigurationError(err) {
				ev.Bool("configuration", true).Msg("plantilla recurrente con datos inválidos")
			} else {
				ev.Msg("plantilla recurrente falló")
			}
			return
		}
		if out.Skipped {
			report.Skipped++
			return
		}
		switch out.Decision {
		case recurring.Proceed:
			report.Generated++
			log.Info().Int64("recurring_invoice_id", id).
				Int64("invoice_id", out.Invoice.ID).
				Str("invoice_number", out.Invoice.InvoiceNumber).
				Msg("factura recurrente generada")
		case recurring.Terminate:
			report.Completed++
			log.Info().Int64("recurring_invoice_id", id).Msg("plantilla recurrente completada")
		case recurring.NotStarted:
			report.NotStarted++
		}
	}

	var afterID int64
	var sweepErr error
	for {
		if err := ctx.Err(); err != nil {
			sweepErr = fmt.Errorf("barrido interrumpido: %w", err)
			break
		}
		ids, err := s.recurringRepo.ListDueIDs(ctx, now, afterID, s.batchSize)
		if err != nil {
			sweepErr = fmt.Errorf("list due recurring invoices: %w", err)
			break
		}
		if len(ids) == 0 {
			break
		}
		report.Due += len(ids)
		afterID = ids[len(ids)-1]

		var eg errgroup.Group
		eg.SetLimit(s.workers)
		for _, id := range ids {
			if ctx.Err() != nil {
				break
			}
			id := id
			eg.Go(func() error {
				out, err := s.generator.Process(ctx, id, now)
				record(id, out, err)
				return nil
			})
		}
		_ = eg.Wait()

		if len(ids) < s.batchSize {
			if err := ctx.Err(); err != nil {
				sweepErr = fmt.Errorf("barrido interrumpido: %w", err)
			}
			break
		}
	}

	report.FinishedAt = time.Now()
	s.metrics.ObserveSweep(report.FinishedAt.Sub(report.StartedAt))
	log.Info().
		Int("due", report.Due).
		Int("generated", report.Generated).
		Int("completed", report.Completed).
		Int("not_started", report.NotStarted).
		Int("skipped", report.Skipped).
		Int("failed", len(report.Failures)).
		Dur("duration", report.FinishedAt.Sub(report.StartedAt)).
		Msg("barrido de facturas recurrentes terminado")

	return report, sweepErr
}
