package dto

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// TaxAmount importe de impuesto opcional. Acepta el centinela heredado "NULL" de los
// formularios como "sin importe"; hacia dentro solo circula decimal.NullDecimal.
type TaxAmount struct {
	decimal.NullDecimal
}

// NewTaxAmount envuelve un NullDecimal.
func NewTaxAmount(d decimal.NullDecimal) TaxAmount {
	return TaxAmount{NullDecimal: d}
}

// MarshalJSON escribe null cuando no hay importe.
func (a TaxAmount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return a.Decimal.MarshalJSON()
}

// UnmarshalJSON acepta número, string numérico, null, "" y "NULL". Este servicio solo
// escribe TaxAmount; la decodificación es la entrada para los payloads del editor de
// plantillas, que vive fuera de este módulo.
func (a *TaxAmount) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if bytes.Equal(trimmed, []byte("null")) {
		a.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		if s == "" || s == "NULL" {
			a.NullDecimal = decimal.NullDecimal{}
			return nil
		}
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(trimmed); err != nil {
		return err
	}
	a.NullDecimal = decimal.NullDecimal{Decimal: d, Valid: true}
	return nil
}

// ListRecurringInvoicesRequest query de GET /api/recurring-invoices.
type ListRecurringInvoicesRequest struct {
	Status     string `query:"status"`
	Search     string `query:"search"`
	FromDate   string `query:"from_date"` // YYYY-MM-DD
	ToDate     string `query:"to_date"`
	CustomerID int64  `query:"customer_id"`
	OrderBy    string `query:"orderByField"`
	OrderDir   string `query:"orderBy"`
	PageRequest
}

// RecurringInvoiceListResponse página de plantillas.
type RecurringInvoiceListResponse struct {
	Items []RecurringInvoiceResponse `json:"items"`
	Page  PageResponse               `json:"page"`
}

// RecurringInvoiceResponse plantilla recurrente en respuestas.
type RecurringInvoiceResponse struct {
	ID                  int64                   `json:"id"`
	CustomerID          int64                   `json:"customer_id"`
	CustomerName        string                  `json:"customer_name,omitempty"`
	CurrencyID          int64                   `json:"currency_id"`
	Frequency           string                  `json:"frequency"`
	StartsAt            string                  `json:"starts_at"`
	NextInvoiceAt       string                  `json:"next_invoice_at"`
	LastFiredAt         *string                 `json:"last_fired_at"`
	LimitBy             string                  `json:"limit_by"`
	LimitCount          int                     `json:"limit_count"`
	LimitDate           *string                 `json:"limit_date"`
	Status              string                  `json:"status"`
	SendAutomatically   bool                    `json:"send_automatically"`
	SubTotal            decimal.Decimal         `json:"sub_total"`
	Tax                 decimal.Decimal         `json:"tax"`
	DiscountType        string                  `json:"discount_type"`
	Discount            decimal.Decimal         `json:"discount"`
	DiscountVal         decimal.Decimal         `json:"discount_val"`
	Total               decimal.Decimal         `json:"total"`
	DueAmount           decimal.Decimal         `json:"due_amount"`
	ExchangeRate        decimal.Decimal         `json:"exchange_rate"`
	TaxPerItem          bool                    `json:"tax_per_item"`
	DiscountPerItem     bool                    `json:"discount_per_item"`
	SalesTaxType        string                  `json:"sales_tax_type,omitempty"`
	SalesTaxAddressType string                  `json:"sales_tax_address_type,omitempty"`
	TemplateName        string                  `json:"template_name,omitempty"`
	Notes               string                  `json:"notes,omitempty"`
	Items               []RecurringItemResponse `json:"items,omitempty"`
	Taxes               []TaxResponse           `json:"taxes,omitempty"`
	CustomFields        []CustomFieldResponse   `json:"fields,omitempty"`
}

// RecurringItemResponse línea de plantilla.
type RecurringItemResponse struct {
	ID          int64           `json:"id"`
	ItemID      *int64          `json:"item_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Discount    decimal.Decimal `json:"discount"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
	Taxes       []TaxResponse   `json:"taxes,omitempty"`
}

// TaxResponse impuesto (plantilla o línea).
type TaxResponse struct {
	TaxTypeID   int64           `json:"tax_type_id"`
	Name        string          `json:"name"`
	Percent     decimal.Decimal `json:"percent"`
	CompoundTax bool            `json:"compound_tax"`
	Amount      TaxAmount       `json:"amount"`
}

// CustomFieldResponse respuesta por defecto de un campo personalizado.
type CustomFieldResponse struct {
	CustomFieldID int64  `json:"custom_field_id"`
	Value         string `json:"value"`
}

// DeleteRecurringInvoicesRequest body de POST /api/recurring-invoices/delete.
type DeleteRecurringInvoicesRequest struct {
	IDs []int64 `json:"ids"`
}

// DeleteRecurringInvoicesResponse resultado del borrado masivo.
type DeleteRecurringInvoicesResponse struct {
	Deleted          int64 `json:"deleted"`
	InvoicesDetached int64 `json:"invoices_detached"`
}

// FrequencyPreviewResponse próxima(s) fecha(s) de una frecuencia cron.
type FrequencyPreviewResponse struct {
	Frequency     string   `json:"frequency"`
	StartsAt      string   `json:"starts_at"`
	NextInvoiceAt string   `json:"next_invoice_at"`
	Upcoming      []string `json:"upcoming"`
}

// NextNumberResponse vista previa del siguiente número de documento.
type NextNumberResponse struct {
	Key                    string `json:"key"`
	Number                 string `json:"nextNumber"`
	SequenceNumber         int64  `json:"sequence_number"`
	CustomerSequenceNumber int64  `json:"customer_sequence_number"`
}

// SweepResponse resultado de un barrido manual.
type SweepResponse struct {
	RunID      string         `json:"run_id"`
	Now        string         `json:"now"`
	Due        int            `json:"due"`
	Generated  int            `json:"generated"`
	Completed  int            `json:"completed"`
	NotStarted int            `json:"not_started"`
	Skipped    int            `json:"skipped"`
	Failed     []SweepFailure `json:"failed"`
}

// SweepFailure plantilla fallida en un barrido.
type SweepFailure struct {
	TemplateID int64  `json:"recurring_invoice_id"`
	Error      string `json:"error"`
}
