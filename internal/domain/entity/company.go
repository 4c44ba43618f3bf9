package entity

import "time"

// Company representa una organización/tenant del sistema.
type Company struct {
	ID        int64
	Name      string
	Slug      string
	TaxID     string
	Address   string
	Phone     string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
