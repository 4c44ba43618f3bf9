// Package recurring contiene la lógica pura de la facturación recurrente: política de
// límite y cálculo de fechas a partir de la frecuencia cron.
package recurring

import (
	"time"

	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
)

// Decision resultado de evaluar la política de límite de una plantilla.
type Decision int

const (
	// NotStarted la plantilla aún no empieza; el barrido la ignora sin efectos.
	NotStarted Decision = iota
	// Terminate la plantilla alcanzó su límite y pasa a COMPLETED.
	Terminate
	// Proceed se genera una factura y se avanza la programación.
	Proceed
)

func (d Decision) String() string {
	switch d {
	case NotStarted:
		return "not_started"
	case Terminate:
		return "terminate"
	case Proceed:
		return "proceed"
	default:
		return "unknown"
	}
}

// EvaluateLimit decide qué hacer con la plantilla en el instante now.
// generatedCount es el número de facturas que ya referencian la plantilla, leído en el
// momento de la llamada. now debe venir en la zona horaria de la empresa.
//
// Con limit_by=DATE el límite se compara por día: now en el mismo día que limit_date sigue
// generando; solo un día posterior termina.
func EvaluateLimit(tpl *entity.RecurringInvoice, now time.Time, generatedCount int) Decision {
	if now.Before(tpl.StartsAt) {
		return NotStarted
	}
	switch tpl.LimitBy {
	case entity.LimitDate:
		if tpl.LimitDate != nil && dayAfter(now, *tpl.LimitDate) {
			return Terminate
		}
	case entity.LimitCount:
		if generatedCount >= tpl.LimitCount {
			return Terminate
		}
	}
	return Proceed
}

// dayAfter indica si el día calendario de t es posterior al día calendario de limit.
func dayAfter(t, limit time.Time) bool {
	ty, tm, td := t.Date()
	ly, lm, ld := limit.Date()
	a := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	b := time.Date(ly, lm, ld, 0, 0, 0, 0, time.UTC)
	return a.After(b)
}
