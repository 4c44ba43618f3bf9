package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/facturacion-recurrente/internal/application/recurring"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
)

// Ensure TxRunner implements recurring.RecurringTxRunner.
var _ recurring.RecurringTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
	// counters reemplaza a los contadores de la tx (backend Redis). Sus incrementos no se
	// deshacen con el rollback: quedan huecos, nunca repeticiones.
	counters repository.SequenceCounterRepository
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// WithCounterStore usa un almacén de contadores externo en lugar de la tabla sequence_counters.
func (r *TxRunner) WithCounterStore(counters repository.SequenceCounterRepository) *TxRunner {
	cp := *r
	cp.counters = counters
	return &cp
}

// RunRecurring inicia una transacción con repos de plantillas, facturas y contadores, ejecuta
// fn y hace Commit o Rollback.
func (r *TxRunner) RunRecurring(ctx context.Context, fn func(
	recurringRepo repository.RecurringInvoiceRepository,
	invoiceRepo repository.InvoiceRepository,
	counters repository.SequenceCounterRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	recurringRepo := NewRecurringInvoiceRepository(tx)
	invoiceRepo := NewInvoiceRepository(tx)
	var counters repository.SequenceCounterRepository = NewSequenceCounterRepository(tx)
	if r.counters != nil {
		counters = r.counters
	}

	if err := fn(recurringRepo, invoiceRepo, counters); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
