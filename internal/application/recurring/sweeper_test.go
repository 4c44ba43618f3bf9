package recurring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-recurrente/internal/application/recurring"
	"github.com/jhoicas/facturacion-recurrente/internal/domain"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
	"github.com/jhoicas/facturacion-recurrente/pkg/logger"
)

type countingMetrics struct {
	sweeps    int
	templates map[string]int
}

func (m *countingMetrics) ObserveSweep(time.Duration) { m.sweeps++ }
func (m *countingMetrics) ObserveTemplate(outcome string, _ time.Duration) {
	m.templates[outcome]++
}
func (m *countingMetrics) NotificationFailed() {}

func TestSweep_AislaFallosPorPlantilla(t *testing.T) {
	e := newEnv(t)

	okIDs := make([]int64, 0, 5)
	for i := 0; i < 5; i++ {
		okIDs = append(okIDs, e.put(template()))
	}
	badCron := template()
	badCron.Frequency = "61 * * * *"
	badCronID := e.put(badCron)

	orphan := template()
	orphan.CustomerID = 404
	orphanID := e.put(orphan)

	limited := template()
	limited.LimitBy = entity.LimitCount
	limited.LimitCount = 0
	limitedID := e.put(limited)

	notYet := template()
	notYet.NextInvoiceAt = now.Add(24 * time.Hour)
	notYetID := e.put(notYet)

	sweeper := recurring.NewSweeper(e.store.Recurring(), e.gen, 3, 2, nil, logger.Nop())
	report, err := sweeper.Sweep(context.Background(), now)
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 8, report.Due)
	assert.Equal(t, 5, report.Generated)
	assert.Equal(t, 1, report.Completed)
	require.Len(t, report.Failures, 2)

	failed := map[int64]error{}
	for _, f := range report.Failures {
		failed[f.TemplateID] = f.Err
	}
	assert.True(t, errors.Is(failed[badCronID], domain.ErrInvalidFrequency))
	assert.True(t, errors.Is(failed[orphanID], domain.ErrCustomerNotFound))

	for _, id := range okIDs {
		assert.Len(t, e.store.InvoicesByRecurring(id), 1)
	}
	assert.Equal(t, entity.RecurringStatusCompleted, e.reload(t, limitedID).Status)
	assert.Empty(t, e.store.InvoicesByRecurring(notYetID))
	assert.Equal(t, 5, e.store.InvoiceCount())
}

func TestSweep_NumerosUnicosEnParalelo(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 20; i++ {
		tpl := template()
		if i%2 == 1 {
			tpl.CustomerID = foreignCustomer
		}
		e.put(tpl)
	}

	sweeper := recurring.NewSweeper(e.store.Recurring(), e.gen, 8, 5, nil, logger.Nop())
	report, err := sweeper.Sweep(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 20, report.Generated)

	seen := map[string]bool{}
	perCustomer := map[int64]map[int64]bool{}
	for id := int64(1); id <= 20; id++ {
		for _, inv := range e.store.InvoicesByRecurring(id) {
			assert.False(t, seen[inv.InvoiceNumber], "número repetido %s", inv.InvoiceNumber)
			seen[inv.InvoiceNumber] = true
			if perCustomer[inv.CustomerID] == nil {
				perCustomer[inv.CustomerID] = map[int64]bool{}
			}
			assert.False(t, perCustomer[inv.CustomerID][inv.CustomerSequenceNumber])
			perCustomer[inv.CustomerID][inv.CustomerSequenceNumber] = true
		}
	}
	assert.Len(t, seen, 20)
	assert.Len(t, perCustomer[customerID], 10)
	assert.Len(t, perCustomer[foreignCustomer], 10)
}

func TestSweep_SegundoBarridoIdempotente(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 3; i++ {
		e.put(template())
	}
	sweeper := recurring.NewSweeper(e.store.Recurring(), e.gen, 2, 10, nil, logger.Nop())

	first, err := sweeper.Sweep(context.Background(), now)
	require.NoError(t, err)
	second, err := sweeper.Sweep(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 3, first.Generated)
	assert.Zero(t, second.Due)
	assert.Equal(t, 3, e.store.InvoiceCount())
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestSweep_ContextoCancelado(t *testing.T) {
	e := newEnv(t)
	e.put(template())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sweeper := recurring.NewSweeper(e.store.Recurring(), e.gen, 1, 10, nil, logger.Nop())
	report, err := sweeper.Sweep(ctx, now)

	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, report)
	assert.Zero(t, e.store.InvoiceCount())
}

func TestSweep_Metricas(t *testing.T) {
	m := &countingMetrics{templates: map[string]int{}}
	e := newEnv(t, recurring.WithMetrics(m))
	e.put(template())
	bad := template()
	bad.Frequency = "x"
	e.put(bad)

	sweeper := recurring.NewSweeper(e.store.Recurring(), e.gen, 1, 10, m, logger.Nop())
	_, err := sweeper.Sweep(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, 1, m.sweeps)
	assert.Equal(t, 1, m.templates["proceed"])
	assert.Equal(t, 1, m.templates["failed"])
}
