package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de la factura generada.
const (
	InvoiceStatusDraft = "DRAFT"
	InvoiceStatusSent  = "SENT"

	InvoicePaidStatusUnpaid = "UNPAID"
)

// Invoice representa la factura materializada desde una plantilla recurrente.
type Invoice struct {
	ID                     int64
	CompanyID              int64
	CustomerID             int64
	CurrencyID             int64
	CreatorID              *int64
	RecurringInvoiceID     *int64 // back-reference; se anula al borrar la plantilla
	InvoiceDate            time.Time
	DueDate                time.Time
	InvoiceNumber          string
	SequenceNumber         int64
	CustomerSequenceNumber int64
	UniqueHash             string
	Status                 string
	PaidStatus             string
	SubTotal               decimal.Decimal
	Tax                    decimal.Decimal
	DiscountType           string
	Discount               decimal.Decimal
	DiscountVal            decimal.Decimal
	Total                  decimal.Decimal
	DueAmount              decimal.Decimal
	ExchangeRate           decimal.Decimal
	BaseSubTotal           decimal.Decimal
	BaseTax                decimal.Decimal
	BaseDiscountVal        decimal.Decimal
	BaseTotal              decimal.Decimal
	BaseDueAmount          decimal.Decimal
	TaxPerItem             bool
	DiscountPerItem        bool
	SalesTaxType           string
	SalesTaxAddressType    string
	TemplateName           string
	Notes                  string
	CreatedAt              time.Time
	UpdatedAt              time.Time

	Items        []InvoiceItem
	Taxes        []Tax
	CustomFields []CustomFieldValue
}
