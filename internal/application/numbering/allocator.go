// Package numbering asigna números de factura, presupuesto y pago a partir de contadores
// monotónicos por empresa y por cliente.
package numbering

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/facturacion-recurrente/internal/application/settings"
	"github.com/jhoicas/facturacion-recurrente/internal/domain"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
	domainnumbering "github.com/jhoicas/facturacion-recurrente/internal/domain/numbering"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
)

var formatKeys = map[string]string{
	entity.ModelInvoice:  repository.SettingInvoiceNumberFmt,
	entity.ModelEstimate: repository.SettingEstimateNumberFmt,
	entity.ModelPayment:  repository.SettingPaymentNumberFmt,
}

// NumberRequest datos de una asignación.
type NumberRequest struct {
	CompanyID      int64
	CustomerID     int64 // 0 = sin contador de cliente
	Kind           string
	ExistingID     *int64 // documento ya numerado: se devuelve su número sin asignar otro
	Date           time.Time
	CustomerSeries string
}

// Allocator emite números únicos. La unicidad depende de que counters.Next sea atómico.
type Allocator struct {
	counters repository.SequenceCounterRepository
	numbers  repository.NumberingRepository
	settings *settings.Reader
}

// NewAllocator construye el asignador.
func NewAllocator(
	counters repository.SequenceCounterRepository,
	numbers repository.NumberingRepository,
	settings *settings.Reader,
) *Allocator {
	return &Allocator{counters: counters, numbers: numbers, settings: settings}
}

// WithCounters devuelve una copia que usa otros contadores (los atados a una transacción).
func (a *Allocator) WithCounters(counters repository.SequenceCounterRepository) *Allocator {
	cp := *a
	cp.counters = counters
	return &cp
}

// Next asigna el siguiente número. Con ExistingID no consume contadores.
func (a *Allocator) Next(ctx context.Context, req NumberRequest) (*entity.Numbering, error) {
	if n, ok, err := a.existing(ctx, req); ok || err != nil {
		return n, err
	}
	f, err := a.Format(ctx, req.CompanyID, req.Kind)
	if err != nil {
		return nil, err
	}

	scope := entity.SequenceScope{CompanyID: req.CompanyID, CustomerID: req.CustomerID, Kind: req.Kind}
	seq, err := a.counters.Next(ctx, scope.CompanyScope())
	if err != nil {
		return nil, fmt.Errorf("next %s sequence: %w", req.Kind, err)
	}
	var customerSeq int64
	if req.CustomerID > 0 {
		customerSeq, err = a.counters.Next(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("next %s customer sequence: %w", req.Kind, err)
		}
	}
	return a.render(f, req, seq, customerSeq), nil
}

// Peek muestra el número que daría Next sin consumirlo. Con asignaciones concurrentes el
// valor puede quedar obsoleto antes de usarse.
func (a *Allocator) Peek(ctx context.Context, req NumberRequest) (*entity.Numbering, error) {
	if n, ok, err := a.existing(ctx, req); ok || err != nil {
		return n, err
	}
	f, err := a.Format(ctx, req.CompanyID, req.Kind)
	if err != nil {
		return nil, err
	}
	scope := entity.SequenceScope{CompanyID: req.CompanyID, CustomerID: req.CustomerID, Kind: req.Kind}
	seq, err := a.counters.Current(ctx, scope.CompanyScope())
	if err != nil {
		return nil, fmt.Errorf("current %s sequence: %w", req.Kind, err)
	}
	var customerSeq int64
	if req.CustomerID > 0 {
		if customerSeq, err = a.counters.Current(ctx, scope); err != nil {
			return nil, fmt.Errorf("current %s customer sequence: %w", req.Kind, err)
		}
		customerSeq++
	}
	return a.render(f, req, seq+1, customerSeq), nil
}

// Format lee y valida el formato configurado para el tipo de documento.
func (a *Allocator) Format(ctx context.Context, companyID int64, kind string) (*domainnumbering.Format, error) {
	key, ok := formatKeys[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownModelKind, kind)
	}
	raw, ok, err := a.settings.Raw(ctx, companyID, key)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		raw = domainnumbering.DefaultFormats[kind]
	}
	return domainnumbering.Parse(raw)
}

func (a *Allocator) existing(ctx context.Context, req NumberRequest) (*entity.Numbering, bool, error) {
	if !entity.IsModelKind(req.Kind) {
		return nil, false, fmt.Errorf("%w: %q", domain.ErrUnknownModelKind, req.Kind)
	}
	if req.ExistingID == nil {
		return nil, false, nil
	}
	n, err := a.numbers.GetNumbering(ctx, req.CompanyID, req.Kind, *req.ExistingID)
	if err != nil {
		return nil, false, fmt.Errorf("get %s numbering: %w", req.Kind, err)
	}
	if n == nil {
		return nil, false, fmt.Errorf("%s %d: %w", req.Kind, *req.ExistingID, domain.ErrNotFound)
	}
	return n, true, nil
}

func (a *Allocator) render(f *domainnumbering.Format, req NumberRequest, seq, customerSeq int64) *entity.Numbering {
	date := req.Date
	if date.IsZero() {
		date = time.Now()
	}
	return &entity.Numbering{
		Number: f.Render(domainnumbering.Values{
			Sequence:         seq,
			CustomerSequence: customerSeq,
			CustomerSeries:   req.CustomerSeries,
			Date:             date,
		}),
		SequenceNumber:         seq,
		CustomerSequenceNumber: customerSeq,
	}
}
