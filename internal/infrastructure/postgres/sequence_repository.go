package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
)

var (
	_ repository.SequenceCounterRepository = (*SequenceCounterRepo)(nil)
	_ repository.NumberingRepository       = (*NumberingRepo)(nil)
)

// SequenceCounterRepo contadores en sequence_counters. El upsert toma el bloqueo de la fila,
// así dos transacciones sobre el mismo ámbito se serializan; un rollback devuelve el valor.
type SequenceCounterRepo struct {
	q Querier
}

// NewSequenceCounterRepository construye el adaptador. Pasar la tx para que el número y la
// factura se confirmen juntos.
func NewSequenceCounterRepository(q Querier) *SequenceCounterRepo {
	return &SequenceCounterRepo{q: q}
}

const (
	nextSequenceSQL = `
		INSERT INTO sequence_counters (company_id, customer_id, model_kind, last_value, updated_at)
		VALUES ($1, $2, $3, 1, now())
		ON CONFLICT (company_id, customer_id, model_kind)
		DO UPDATE SET last_value = sequence_counters.last_value + 1, updated_at = now()
		RETURNING last_value`

	currentSequenceSQL = `
		SELECT last_value FROM sequence_counters
		WHERE company_id = $1 AND customer_id = $2 AND model_kind = $3`
)

// Next incrementa y devuelve el contador del ámbito.
func (r *SequenceCounterRepo) Next(ctx context.Context, scope entity.SequenceScope) (int64, error) {
	var v int64
	err := r.q.QueryRow(ctx, nextSequenceSQL, scope.CompanyID, scope.CustomerID, scope.Kind).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", scope.Kind, err)
	}
	return v, nil
}

// Current último valor emitido (0 si no hay fila).
func (r *SequenceCounterRepo) Current(ctx context.Context, scope entity.SequenceScope) (int64, error) {
	var v int64
	err := r.q.QueryRow(ctx, currentSequenceSQL, scope.CompanyID, scope.CustomerID, scope.Kind).Scan(&v)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("current sequence %s: %w", scope.Kind, err)
	}
	return v, nil
}

// NumberingRepo lee el número de facturas, presupuestos y pagos existentes.
type NumberingRepo struct {
	q Querier
}

// NewNumberingRepository construye el adaptador.
func NewNumberingRepository(q Querier) *NumberingRepo {
	return &NumberingRepo{q: q}
}

var numberingQueries = map[string]string{
	entity.ModelInvoice:  `SELECT invoice_number, sequence_number, customer_sequence_number FROM invoices WHERE id = $1 AND company_id = $2`,
	entity.ModelEstimate: `SELECT estimate_number, sequence_number, customer_sequence_number FROM estimates WHERE id = $1 AND company_id = $2`,
	entity.ModelPayment:  `SELECT payment_number, sequence_number, customer_sequence_number FROM payments WHERE id = $1 AND company_id = $2`,
}

// GetNumbering devuelve nil, nil si el documento no existe o pertenece a otra empresa.
func (r *NumberingRepo) GetNumbering(ctx context.Context, companyID int64, kind string, id int64) (*entity.Numbering, error) {
	query, ok := numberingQueries[kind]
	if !ok {
		return nil, fmt.Errorf("numbering %q: tipo desconocido", kind)
	}
	var n entity.Numbering
	if err := r.q.QueryRow(ctx, query, id, companyID).Scan(&n.Number, &n.SequenceNumber, &n.CustomerSequenceNumber); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s numbering: %w", kind, err)
	}
	return &n, nil
}

// Snapshot devuelve todos los contadores (para volcarlos a otro backend).
func (r *SequenceCounterRepo) Snapshot(ctx context.Context) (map[entity.SequenceScope]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT company_id, customer_id, model_kind, last_value FROM sequence_counters`)
	if err != nil {
		return nil, fmt.Errorf("list sequences: %w", err)
	}
	defer rows.Close()

	out := make(map[entity.SequenceScope]int64)
	for rows.Next() {
		var (
			scope entity.SequenceScope
			v     int64
		)
		if err := rows.Scan(&scope.CompanyID, &scope.CustomerID, &scope.Kind, &v); err != nil {
			return nil, fmt.Errorf("scan sequence: %w", err)
		}
		out[scope] = v
	}
	return out, rows.Err()
}
