package recurring

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/facturacion-recurrente/internal/domain"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
)

// AnchorMode define desde qué instante se calcula la siguiente fecha de factura.
type AnchorMode string

const (
	// AnchorLastFired calcula la siguiente ocurrencia posterior al disparo actual
	// (last_fired_at). Las ocurrencias perdidas no se recuperan en ráfaga.
	AnchorLastFired AnchorMode = "last_fired"
	// AnchorStartsAt reproduce el cálculo heredado: siguiente ocurrencia posterior a starts_at.
	AnchorStartsAt AnchorMode = "starts_at"
)

// Schedule frecuencia cron ya validada.
type Schedule struct {
	expr  string
	sched cron.Schedule
}

// ParseFrequency valida una expresión cron estándar de 5 campos (o descriptores @daily, @monthly…).
func ParseFrequency(expr string) (*Schedule, error) {
	if expr == "" {
		return nil, fmt.Errorf("%w: vacía", domain.ErrInvalidFrequency)
	}
	s, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", domain.ErrInvalidFrequency, expr, err)
	}
	return &Schedule{expr: expr, sched: s}, nil
}

// String devuelve la expresión original.
func (s *Schedule) String() string { return s.expr }

// Next devuelve la primera ocurrencia estrictamente posterior a t, en la zona de loc.
func (s *Schedule) Next(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return s.sched.Next(t.In(loc))
}

// NextInvoiceAt calcula la nueva next_invoice_at tras un disparo en firedAt.
func (s *Schedule) NextInvoiceAt(tpl *entity.RecurringInvoice, firedAt time.Time, mode AnchorMode, loc *time.Location) time.Time {
	anchor := firedAt
	if mode == AnchorStartsAt || anchor.Before(tpl.StartsAt) {
		anchor = tpl.StartsAt
	}
	return s.Next(anchor, loc)
}

// FirstInvoiceAt fecha de la primera factura de una plantilla nueva.
func (s *Schedule) FirstInvoiceAt(startsAt time.Time, loc *time.Location) time.Time {
	return s.Next(startsAt, loc)
}
