package recurring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/facturacion-recurrente/internal/application/dto"
	"github.com/jhoicas/facturacion-recurrente/internal/application/settings"
	"github.com/jhoicas/facturacion-recurrente/internal/domain"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/recurring"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
)

const dateLayout = "2006-01-02"

// UseCase operaciones de administración de plantillas recurrentes.
type UseCase struct {
	recurringRepo repository.RecurringInvoiceRepository
	tx            RecurringTxRunner
	settings      *settings.Reader
	sweeper       *Sweeper
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	recurringRepo repository.RecurringInvoiceRepository,
	tx RecurringTxRunner,
	settings *settings.Reader,
	sweeper *Sweeper,
) *UseCase {
	return &UseCase{recurringRepo: recurringRepo, tx: tx, settings: settings, sweeper: sweeper}
}

// List devuelve una página de plantillas de la empresa.
func (uc *UseCase) List(ctx context.Context, companyID int64, in dto.ListRecurringInvoicesRequest) (*dto.RecurringInvoiceListResponse, error) {
	in.DefaultPage()
	filter := repository.RecurringInvoiceFilter{
		Status:     strings.ToUpper(in.Status),
		Search:     in.Search,
		CustomerID: in.CustomerID,
		OrderBy:    in.OrderBy,
		OrderDir:   strings.ToLower(in.OrderDir),
		Limit:      in.Limit,
		Offset:     in.Offset,
	}
	if filter.Status != "" && filter.Status != entity.RecurringStatusActive && filter.Status != entity.RecurringStatusCompleted {
		return nil, domain.ErrInvalidInput
	}
	var err error
	if filter.FromDate, err = parseDate(in.FromDate); err != nil {
		return nil, err
	}
	if filter.ToDate, err = parseDate(in.ToDate); err != nil {
		return nil, err
	}
	if filter.ToDate != nil {
		end := filter.ToDate.Add(24*time.Hour - time.Nanosecond)
		filter.ToDate = &end
	}
	filter.Normalize()

	list, total, err := uc.recurringRepo.List(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	out := &dto.RecurringInvoiceListResponse{
		Items: make([]dto.RecurringInvoiceResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset, Total: total},
	}
	for _, t := range list {
		out.Items = append(out.Items, toRecurringResponse(t))
	}
	return out, nil
}

// Get devuelve una plantilla con sus hijos.
func (uc *UseCase) Get(ctx context.Context, companyID, id int64) (*dto.RecurringInvoiceResponse, error) {
	t, err := uc.recurringRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	if t.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	resp := toRecurringResponse(t)
	return &resp, nil
}

// Delete borra plantillas de la empresa. Las facturas generadas se conservan con
// recurring_invoice_id anulado.
func (uc *UseCase) Delete(ctx context.Context, companyID int64, in dto.DeleteRecurringInvoicesRequest) (*dto.DeleteRecurringInvoicesResponse, error) {
	if len(in.IDs) == 0 {
		return nil, domain.ErrInvalidInput
	}
	out := &dto.DeleteRecurringInvoicesResponse{}
	err := uc.tx.RunRecurring(ctx, func(
		recurringRepo repository.RecurringInvoiceRepository,
		invoiceRepo repository.InvoiceRepository,
		_ repository.SequenceCounterRepository,
	) error {
		owned := make([]int64, 0, len(in.IDs))
		for _, id := range in.IDs {
			t, err := recurringRepo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if t != nil && t.CompanyID == companyID {
				owned = append(owned, id)
			}
		}
		if len(owned) == 0 {
			return domain.ErrNotFound
		}
		detached, err := invoiceRepo.DetachRecurring(ctx, owned)
		if err != nil {
			return fmt.Errorf("detach invoices: %w", err)
		}
		deleted, err := recurringRepo.Delete(ctx, companyID, owned)
		if err != nil {
			return fmt.Errorf("delete recurring invoices: %w", err)
		}
		out.Deleted, out.InvoicesDetached = deleted, detached
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FrequencyPreview calcula la primera fecha de factura y las siguientes n ocurrencias.
func (uc *UseCase) FrequencyPreview(ctx context.Context, companyID int64, frequency, startsAt string, n int) (*dto.FrequencyPreviewResponse, error) {
	sched, err := recurring.ParseFrequency(frequency)
	if err != nil {
		return nil, err
	}
	loc, err := uc.settings.Location(ctx, companyID)
	if err != nil {
		return nil, err
	}
	start := time.Now().In(loc)
	if startsAt != "" {
		start, err = parseTimestamp(startsAt, loc)
		if err != nil {
			return nil, err
		}
	}
	if n <= 0 || n > 12 {
		n = 5
	}
	next := sched.FirstInvoiceAt(start, loc)
	out := &dto.FrequencyPreviewResponse{
		Frequency:     frequency,
		StartsAt:      start.Format(time.RFC3339),
		NextInvoiceAt: next.Format(time.RFC3339),
		Upcoming:      make([]string, 0, n),
	}
	t := next
	for i := 0; i < n; i++ {
		out.Upcoming = append(out.Upcoming, t.Format(time.RFC3339))
		t = sched.Next(t, loc)
	}
	return out, nil
}

// Sweep ejecuta un barrido inmediato.
func (uc *UseCase) Sweep(ctx context.Context, now time.Time) (*dto.SweepResponse, error) {
	report, err := uc.sweeper.Sweep(ctx, now)
	if report == nil {
		return nil, err
	}
	return ToSweepResponse(report), err
}

// ToSweepResponse convierte el informe del barrido.
func ToSweepResponse(r *SweepReport) *dto.SweepResponse {
	out := &dto.SweepResponse{
		RunID:      r.RunID,
		Now:        r.Now.Format(time.RFC3339),
		Due:        r.Due,
		Generated:  r.Generated,
		Completed:  r.Completed,
		NotStarted: r.NotStarted,
		Skipped:    r.Skipped,
		Failed:     make([]dto.SweepFailure, 0, len(r.Failures)),
	}
	for _, f := range r.Failures {
		out.Failed = append(out.Failed, dto.SweepFailure{TemplateID: f.TemplateID, Error: f.Err.Error()})
	}
	return out
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, domain.ErrInvalidInput
	}
	return &t, nil
}

func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, domain.ErrInvalidInput
}

func formatOptional(t *time.Time, layout string) *string {
	if t == nil {
		return nil
	}
	s := t.Format(layout)
	return &s
}

func toTaxResponses(taxes []entity.Tax) []dto.TaxResponse {
	if len(taxes) == 0 {
		return nil
	}
	out := make([]dto.TaxResponse, 0, len(taxes))
	for _, t := range taxes {
		out = append(out, dto.TaxResponse{
			TaxTypeID:   t.TaxTypeID,
			Name:        t.Name,
			Percent:     t.Percent,
			CompoundTax: t.CompoundTax,
			Amount:      dto.NewTaxAmount(t.Amount),
		})
	}
	return out
}

func toRecurringResponse(t *entity.RecurringInvoice) dto.RecurringInvoiceResponse {
	resp := dto.RecurringInvoiceResponse{
		ID:                  t.ID,
		CustomerID:          t.CustomerID,
		CurrencyID:          t.CurrencyID,
		Frequency:           t.Frequency,
		StartsAt:            t.StartsAt.Format(time.RFC3339),
		NextInvoiceAt:       t.NextInvoiceAt.Format(time.RFC3339),
		LastFiredAt:         formatOptional(t.LastFiredAt, time.RFC3339),
		LimitBy:             t.LimitBy,
		LimitCount:          t.LimitCount,
		LimitDate:           formatOptional(t.LimitDate, dateLayout),
		Status:              t.Status,
		SendAutomatically:   t.SendAutomatically,
		SubTotal:            t.SubTotal,
		Tax:                 t.Tax,
		DiscountType:        t.DiscountType,
		Discount:            t.Discount,
		DiscountVal:         t.DiscountVal,
		Total:               t.Total,
		DueAmount:           t.DueAmount,
		ExchangeRate:        t.ExchangeRate,
		TaxPerItem:          t.TaxPerItem,
		DiscountPerItem:     t.DiscountPerItem,
		SalesTaxType:        t.SalesTaxType,
		SalesTaxAddressType: t.SalesTaxAddressType,
		TemplateName:        t.TemplateName,
		Notes:               t.Notes,
		Taxes:               toTaxResponses(t.Taxes),
	}
	if t.Customer != nil {
		resp.CustomerName = t.Customer.Name
	}
	for _, it := range t.Items {
		resp.Items = append(resp.Items, dto.RecurringItemResponse{
			ID:          it.ID,
			ItemID:      it.ItemID,
			Name:        it.Name,
			Description: it.Description,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Discount:    it.Discount,
			Tax:         it.Tax,
			Total:       it.Total,
			Taxes:       toTaxResponses(it.Taxes),
		})
	}
	for _, cf := range t.CustomFields {
		resp.CustomFields = append(resp.CustomFields, dto.CustomFieldResponse{CustomFieldID: cf.CustomFieldID, Value: cf.Value})
	}
	return resp
}
