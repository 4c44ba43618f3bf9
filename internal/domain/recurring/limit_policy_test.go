package recurring_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/recurring"
)

var now = time.Date(2026, time.October, 19, 10, 30, 0, 0, time.UTC)

func template(limitBy string) *entity.RecurringInvoice {
	return &entity.RecurringInvoice{
		StartsAt: now.AddDate(0, -1, 0),
		LimitBy:  limitBy,
		Status:   entity.RecurringStatusActive,
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestEvaluateLimit_AntesDeIniciar(t *testing.T) {
	for _, limitBy := range []string{entity.LimitNone, entity.LimitCount, entity.LimitDate} {
		tpl := template(limitBy)
		tpl.StartsAt = now.Add(time.Minute)
		tpl.LimitDate = ptrTime(now.AddDate(0, 0, -10))
		assert.Equal(t, recurring.NotStarted, recurring.EvaluateLimit(tpl, now, 100), limitBy)
	}
}

func TestEvaluateLimit_Fecha(t *testing.T) {
	tpl := template(entity.LimitDate)

	tpl.LimitDate = ptrTime(now.AddDate(0, 0, -1))
	assert.Equal(t, recurring.Terminate, recurring.EvaluateLimit(tpl, now, 0), "límite ayer termina")

	tpl.LimitDate = ptrTime(now)
	assert.Equal(t, recurring.Proceed, recurring.EvaluateLimit(tpl, now, 0), "igualdad exacta sigue generando")

	tpl.LimitDate = ptrTime(time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, recurring.Proceed, recurring.EvaluateLimit(tpl, now, 0), "el día del límite es inclusivo")

	tpl.LimitDate = ptrTime(now.AddDate(0, 1, 0))
	assert.Equal(t, recurring.Proceed, recurring.EvaluateLimit(tpl, now, 0))
}

func TestEvaluateLimit_Conteo(t *testing.T) {
	tpl := template(entity.LimitCount)
	tpl.LimitCount = 5

	assert.Equal(t, recurring.Terminate, recurring.EvaluateLimit(tpl, now, 5))
	assert.Equal(t, recurring.Terminate, recurring.EvaluateLimit(tpl, now, 6))
	assert.Equal(t, recurring.Proceed, recurring.EvaluateLimit(tpl, now, 3))
	assert.Equal(t, recurring.Proceed, recurring.EvaluateLimit(tpl, now, 4))
}

func TestEvaluateLimit_SinLimite(t *testing.T) {
	tpl := template(entity.LimitNone)
	tpl.LimitCount = 1
	tpl.LimitDate = ptrTime(now.AddDate(-1, 0, 0))

	assert.Equal(t, recurring.Proceed, recurring.EvaluateLimit(tpl, now, 1000))
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "not_started", recurring.NotStarted.String())
	assert.Equal(t, "terminate", recurring.Terminate.String())
	assert.Equal(t, "proceed", recurring.Proceed.String())
}
