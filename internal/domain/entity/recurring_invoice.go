package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una plantilla recurrente. COMPLETED es terminal.
const (
	RecurringStatusActive    = "ACTIVE"
	RecurringStatusCompleted = "COMPLETED"
)

// Políticas de límite de una plantilla recurrente.
const (
	LimitNone  = "NONE"
	LimitCount = "COUNT"
	LimitDate  = "DATE"
)

// Tipos de descuento, impuesto y dirección de impuesto de ventas.
const (
	DiscountPercent = "percent"
	DiscountFixed   = "fixed"

	SalesTaxInclusive = "inclusive"
	SalesTaxExclusive = "exclusive"

	SalesTaxAddressBilling  = "billing"
	SalesTaxAddressShipping = "shipping"
)

// RecurringInvoice es la plantilla a partir de la cual se generan facturas periódicamente.
// Los importes son una foto ya calculada (impuestos y descuentos vienen dados).
type RecurringInvoice struct {
	ID                  int64
	CompanyID           int64
	CustomerID          int64
	CurrencyID          int64
	CreatorID           *int64
	Frequency           string // expresión cron de 5 campos
	StartsAt            time.Time
	NextInvoiceAt       time.Time
	LastFiredAt         *time.Time // nil hasta la primera factura generada
	LimitBy             string
	LimitCount          int
	LimitDate           *time.Time
	Status              string
	SendAutomatically   bool
	SubTotal            decimal.Decimal
	Tax                 decimal.Decimal
	DiscountType        string
	Discount            decimal.Decimal
	DiscountVal         decimal.Decimal
	Total               decimal.Decimal
	DueAmount           decimal.Decimal
	ExchangeRate        decimal.Decimal
	TaxPerItem          bool
	DiscountPerItem     bool
	SalesTaxType        string
	SalesTaxAddressType string
	TemplateName        string
	Notes               string
	CreatedAt           time.Time
	UpdatedAt           time.Time

	Items        []InvoiceItem
	Taxes        []Tax
	CustomFields []CustomFieldValue

	// Customer se carga solo en los listados (búsqueda por nombre).
	Customer *Customer
}

// IsCompleted indica si la plantilla ya no genera facturas.
func (r *RecurringInvoice) IsCompleted() bool {
	return r.Status == RecurringStatusCompleted
}

// Complete aplica la transición ACTIVE → COMPLETED. Solo puede ocurrir una vez.
func (r *RecurringInvoice) Complete(now time.Time) bool {
	if r.IsCompleted() {
		return false
	}
	r.Status = RecurringStatusCompleted
	r.UpdatedAt = now
	return true
}
