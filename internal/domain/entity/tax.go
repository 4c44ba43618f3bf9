package entity

import "github.com/shopspring/decimal"

// Tax impuesto a nivel de plantilla/factura o de línea.
// Amount inválido (Valid=false) significa "sin impuesto" y nunca se copia a la factura.
type Tax struct {
	ID           int64
	TaxTypeID    int64
	Name         string
	Percent      decimal.Decimal
	CompoundTax  bool
	Amount       decimal.NullDecimal
	BaseAmount   decimal.Decimal
	ExchangeRate decimal.Decimal
	CurrencyID   int64
}

// HasAmount indica si el impuesto tiene un importe real.
func (t Tax) HasAmount() bool {
	return t.Amount.Valid
}
