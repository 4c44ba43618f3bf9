package entity

import "time"

// Customer representa un cliente de la empresa (facturación).
type Customer struct {
	ID          int64
	CompanyID   int64
	CurrencyID  int64
	Name        string
	ContactName string
	CompanyName string
	Email       string
	Phone       string
	Prefix      string // serie propia del cliente ({{CUSTOMER_SERIES}})
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
