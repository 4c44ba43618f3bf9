package recurring

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-recurrente/internal/application/numbering"
	"github.com/jhoicas/facturacion-recurrente/internal/application/settings"
	"github.com/jhoicas/facturacion-recurrente/internal/domain"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
)

// Materializer convierte una plantilla en una factura persistida con sus hijos.
type Materializer struct {
	customers repository.CustomerRepository
	settings  *settings.Reader
	allocator *numbering.Allocator
	hasher    HashEncoder
}

// NewMaterializer construye el materializador.
func NewMaterializer(
	customers repository.CustomerRepository,
	settings *settings.Reader,
	allocator *numbering.Allocator,
	hasher HashEncoder,
) *Materializer {
	return &Materializer{customers: customers, settings: settings, allocator: allocator, hasher: hasher}
}

// Materialized resultado de materializar: la factura creada y el cliente resuelto.
type Materialized struct {
	Invoice  *entity.Invoice
	Customer *entity.Customer
}

// Materialize crea la factura dentro de la transacción del caller (invoices y counters
// deben estar atados a ella). now debe venir en la zona horaria de la empresa.
func (m *Materializer) Materialize(
	ctx context.Context,
	invoices repository.InvoiceRepository,
	counters repository.SequenceCounterRepository,
	tpl *entity.RecurringInvoice,
	now time.Time,
) (*Materialized, error) {
	customer, err := m.customers.GetByID(ctx, tpl.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if customer == nil {
		return nil, fmt.Errorf("plantilla %d, cliente %d: %w", tpl.ID, tpl.CustomerID, domain.ErrCustomerNotFound)
	}

	dueDays, err := m.settings.DueDays(ctx, tpl.CompanyID)
	if err != nil {
		return nil, err
	}
	rate, err := m.exchangeRate(ctx, tpl, customer)
	if err != nil {
		return nil, err
	}

	invoiceDate := dateOnly(now)
	num, err := m.allocator.WithCounters(counters).Next(ctx, numbering.NumberRequest{
		CompanyID:      tpl.CompanyID,
		CustomerID:     customer.ID,
		Kind:           entity.ModelInvoice,
		Date:           invoiceDate,
		CustomerSeries: customer.Prefix,
	})
	if err != nil {
		return nil, err
	}

	recurringID := tpl.ID
	inv := &entity.Invoice{
		CompanyID:              tpl.CompanyID,
		CustomerID:             customer.ID,
		CurrencyID:             customer.CurrencyID,
		CreatorID:              tpl.CreatorID,
		RecurringInvoiceID:     &recurringID,
		InvoiceDate:            invoiceDate,
		DueDate:                invoiceDate.AddDate(0, 0, dueDays),
		InvoiceNumber:          num.Number,
		SequenceNumber:         num.SequenceNumber,
		CustomerSequenceNumber: num.CustomerSequenceNumber,
		Status:                 entity.InvoiceStatusDraft,
		PaidStatus:             entity.InvoicePaidStatusUnpaid,
		SubTotal:               tpl.SubTotal,
		Tax:                    tpl.Tax,
		DiscountType:           tpl.DiscountType,
		Discount:               tpl.Discount,
		DiscountVal:            tpl.DiscountVal,
		Total:                  tpl.Total,
		DueAmount:              tpl.DueAmount,
		ExchangeRate:           rate,
		BaseSubTotal:           tpl.SubTotal.Mul(rate),
		BaseTax:                tpl.Tax.Mul(rate),
		BaseDiscountVal:        tpl.DiscountVal.Mul(rate),
		BaseTotal:              tpl.Total.Mul(rate),
		BaseDueAmount:          tpl.DueAmount.Mul(rate),
		TaxPerItem:             tpl.TaxPerItem,
		DiscountPerItem:        tpl.DiscountPerItem,
		SalesTaxType:           tpl.SalesTaxType,
		SalesTaxAddressType:    tpl.SalesTaxAddressType,
		TemplateName:           tpl.TemplateName,
		Notes:                  tpl.Notes,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if err := invoices.Create(ctx, inv); err != nil {
		return nil, err
	}

	hash, err := m.hasher.Encode(inv.ID)
	if err != nil {
		return nil, err
	}
	if err := invoices.UpdateUniqueHash(ctx, inv.ID, hash); err != nil {
		return nil, err
	}
	inv.UniqueHash = hash

	for _, src := range tpl.Items {
		item := copyItem(src, rate, customer.CurrencyID)
		if err := invoices.CreateItem(ctx, inv.ID, &item); err != nil {
			return nil, err
		}
		inv.Items = append(inv.Items, item)
	}
	for _, tax := range copyTaxes(tpl.Taxes, rate, customer.CurrencyID) {
		tax := tax
		if err := invoices.CreateTax(ctx, inv.ID, &tax); err != nil {
			return nil, err
		}
		inv.Taxes = append(inv.Taxes, tax)
	}
	for _, cf := range tpl.CustomFields {
		v := entity.CustomFieldValue{CustomFieldID: cf.CustomFieldID, Value: cf.Value}
		if err := invoices.CreateCustomFieldValue(ctx, inv.ID, &v); err != nil {
			return nil, err
		}
		inv.CustomFields = append(inv.CustomFields, v)
	}

	return &Materialized{Invoice: inv, Customer: customer}, nil
}

// exchangeRate es 1 si el cliente factura en la moneda base de la empresa; si no, la tasa
// de la plantilla. La moneda siempre sale del cliente.
func (m *Materializer) exchangeRate(ctx context.Context, tpl *entity.RecurringInvoice, customer *entity.Customer) (decimal.Decimal, error) {
	base, ok, err := m.settings.BaseCurrency(ctx, tpl.CompanyID)
	if err != nil {
		return decimal.Zero, err
	}
	if ok && base == customer.CurrencyID {
		return decimal.NewFromInt(1), nil
	}
	return tpl.ExchangeRate, nil
}

func copyItem(src entity.InvoiceItem, rate decimal.Decimal, currencyID int64) entity.InvoiceItem {
	item := src
	item.ID = 0
	item.ExchangeRate = rate
	item.BasePrice = src.Price.Mul(rate)
	item.BaseDiscountVal = src.DiscountVal.Mul(rate)
	item.BaseTax = src.Tax.Mul(rate)
	item.BaseTotal = src.Total.Mul(rate)
	item.Taxes = copyTaxes(src.Taxes, rate, currencyID)
	return item
}

// copyTaxes descarta los impuestos sin importe.
func copyTaxes(src []entity.Tax, rate decimal.Decimal, currencyID int64) []entity.Tax {
	var out []entity.Tax
	for _, t := range src {
		if !t.HasAmount() {
			continue
		}
		t.ID = 0
		t.ExchangeRate = rate
		t.BaseAmount = t.Amount.Decimal.Mul(rate)
		t.CurrencyID = currencyID
		out = append(out, t)
	}
	return out
}

// dateOnly día calendario de t (en su zona) como medianoche UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
