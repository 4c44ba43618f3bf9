package entity

import "github.com/shopspring/decimal"

// InvoiceItem línea de una plantilla o de una factura. Los importes vienen calculados.
type InvoiceItem struct {
	ID              int64
	ItemID          *int64 // producto del catálogo, si existe
	Name            string
	Description     string
	UnitName        string
	Quantity        decimal.Decimal
	Price           decimal.Decimal
	DiscountType    string
	Discount        decimal.Decimal
	DiscountVal     decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	ExchangeRate    decimal.Decimal
	BasePrice       decimal.Decimal
	BaseDiscountVal decimal.Decimal
	BaseTax         decimal.Decimal
	BaseTotal       decimal.Decimal
	Taxes           []Tax
}
