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
	domainrecurring "github.com/jhoicas/facturacion-recurrente/internal/domain/recurring"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
)

func TestProcess_NoIniciadaSinEfectos(t *testing.T) {
	e := newEnv(t)
	tpl := template()
	tpl.StartsAt = now.AddDate(0, 0, 1)
	id := e.put(tpl)

	out := e.process(t, id)

	assert.Equal(t, domainrecurring.NotStarted, out.Decision)
	assert.Zero(t, e.store.InvoiceCount())
	after := e.reload(t, id)
	assert.True(t, after.NextInvoiceAt.Equal(tpl.NextInvoiceAt))
	assert.Equal(t, entity.RecurringStatusActive, after.Status)
	assert.Nil(t, after.LastFiredAt)
}

func TestProcess_LimiteFechaAyerCompleta(t *testing.T) {
	e := newEnv(t)
	tpl := template()
	tpl.LimitBy = entity.LimitDate
	limit := time.Date(2026, time.March, 9, 0, 0, 0, 0, time.UTC)
	tpl.LimitDate = &limit
	id := e.put(tpl)

	out := e.process(t, id)

	assert.Equal(t, domainrecurring.Terminate, out.Decision)
	assert.Equal(t, entity.RecurringStatusCompleted, e.reload(t, id).Status)
	assert.Zero(t, e.store.InvoiceCount())
}

func TestProcess_LimiteFechaHoyGenera(t *testing.T) {
	e := newEnv(t)
	tpl := template()
	tpl.LimitBy = entity.LimitDate
	limit := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	tpl.LimitDate = &limit
	id := e.put(tpl)

	out := e.process(t, id)

	assert.Equal(t, domainrecurring.Proceed, out.Decision)
	assert.Len(t, e.store.InvoicesByRecurring(id), 1)
	assert.Equal(t, entity.RecurringStatusActive, e.reload(t, id).Status)
}

func TestProcess_LimiteConteo(t *testing.T) {
	cases := []struct {
		name     string
		existing int
		decision domainrecurring.Decision
		invoices int
		status   string
		advances bool
	}{
		{"alcanzado", 5, domainrecurring.Terminate, 5, entity.RecurringStatusCompleted, false},
		{"pendiente", 3, domainrecurring.Proceed, 4, entity.RecurringStatusActive, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t)
			tpl := template()
			tpl.LimitBy = entity.LimitCount
			tpl.LimitCount = 5
			id := e.put(tpl)
			for i := 0; i < tc.existing; i++ {
				rid := id
				e.store.PutInvoice(&entity.Invoice{CompanyID: companyID, RecurringInvoiceID: &rid})
			}

			out := e.process(t, id)

			assert.Equal(t, tc.decision, out.Decision)
			assert.Len(t, e.store.InvoicesByRecurring(id), tc.invoices)
			after := e.reload(t, id)
			assert.Equal(t, tc.status, after.Status)
			assert.Equal(t, tc.advances, after.NextInvoiceAt.After(now))
		})
	}
}

func TestProcess_SinLimiteGeneraYAvanza(t *testing.T) {
	e := newEnv(t)
	tpl := template()
	tpl.LimitCount = 1 // ignorado con NONE
	id := e.put(tpl)
	rid := id
	e.store.PutInvoice(&entity.Invoice{CompanyID: companyID, RecurringInvoiceID: &rid})

	out := e.process(t, id)

	require.Equal(t, domainrecurring.Proceed, out.Decision)
	require.NotNil(t, out.Invoice)
	after := e.reload(t, id)
	assert.Equal(t, time.Date(2026, time.March, 11, 0, 0, 0, 0, time.UTC), after.NextInvoiceAt.UTC())
	require.NotNil(t, after.LastFiredAt)
	assert.True(t, after.LastFiredAt.Equal(now))
}

func TestProcess_CabeceraDeFactura(t *testing.T) {
	e := newEnv(t)
	id := e.put(template())

	out := e.process(t, id)
	inv := e.store.InvoicesByRecurring(id)[0]

	assert.Equal(t, out.Invoice.ID, inv.ID)
	assert.Equal(t, entity.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, entity.InvoicePaidStatusUnpaid, inv.PaidStatus)
	assert.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), inv.InvoiceDate)
	assert.Equal(t, time.Date(2026, time.March, 17, 0, 0, 0, 0, time.UTC), inv.DueDate, "vencimiento por defecto: 7 días")
	assert.Equal(t, "INV-000001", inv.InvoiceNumber)
	assert.Equal(t, int64(1), inv.SequenceNumber)
	assert.Equal(t, int64(1), inv.CustomerSequenceNumber)
	assert.True(t, inv.Total.Equal(d("119")))
	assert.Equal(t, "invoice1", inv.TemplateName)

	require.NotEmpty(t, inv.UniqueHash)
	decoded, err := e.encoder.Decode(inv.UniqueHash)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, decoded)

	require.Len(t, inv.CustomFields, 1)
	assert.Equal(t, int64(7), inv.CustomFields[0].CustomFieldID)
	assert.Equal(t, "Contrato 2026", inv.CustomFields[0].Value)
}

func TestProcess_DiasDeVencimiento(t *testing.T) {
	cases := map[string]int{"null": 7, "": 7, "abc": 7, "-3": 7, "15": 15}
	for value, days := range cases {
		t.Run(value, func(t *testing.T) {
			e := newEnv(t)
			require.NoError(t, e.store.Settings().Set(context.Background(), companyID, repository.SettingInvoiceDueDays, value))
			id := e.put(template())

			e.process(t, id)
			inv := e.store.InvoicesByRecurring(id)[0]
			assert.Equal(t, inv.InvoiceDate.AddDate(0, 0, days), inv.DueDate)
		})
	}
}

func TestProcess_ImpuestosNULLSeDescartan(t *testing.T) {
	e := newEnv(t)
	id := e.put(template())

	e.process(t, id)
	inv := e.store.InvoicesByRecurring(id)[0]

	require.Len(t, inv.Taxes, 1)
	assert.Equal(t, "Retención", inv.Taxes[0].Name)
	require.True(t, inv.Taxes[0].Amount.Valid)
	assert.True(t, inv.Taxes[0].Amount.Decimal.Equal(d("50.0")))

	require.Len(t, inv.Items, 1)
	require.Len(t, inv.Items[0].Taxes, 1)
	assert.Equal(t, "IVA", inv.Items[0].Taxes[0].Name)
	assert.True(t, inv.Items[0].Taxes[0].Amount.Decimal.Equal(d("19")))
}

func TestProcess_TasaDeCambio(t *testing.T) {
	t.Run("moneda base", func(t *testing.T) {
		e := newEnv(t)
		id := e.put(template())

		e.process(t, id)
		inv := e.store.InvoicesByRecurring(id)[0]

		assert.True(t, inv.ExchangeRate.Equal(d("1")))
		assert.True(t, inv.BaseTotal.Equal(inv.Total))
		assert.Equal(t, baseCurrency, inv.CurrencyID)
	})
	t.Run("moneda extranjera", func(t *testing.T) {
		e := newEnv(t)
		tpl := template()
		tpl.CustomerID = foreignCustomer
		tpl.CurrencyID = baseCurrency // valor obsoleto: manda el cliente
		id := e.put(tpl)

		e.process(t, id)
		inv := e.store.InvoicesByRecurring(id)[0]

		assert.True(t, inv.ExchangeRate.Equal(d("4000")))
		assert.True(t, inv.BaseTotal.Equal(d("476000")))
		assert.True(t, inv.BaseSubTotal.Equal(d("400000")))
		assert.Equal(t, otherCurrency, inv.CurrencyID)
		assert.True(t, inv.Items[0].BaseTotal.Equal(d("476000")))
		assert.True(t, inv.Taxes[0].BaseAmount.Equal(d("200000")))
	})
}

func TestProcess_Notificacion(t *testing.T) {
	t.Run("send_automatically=false", func(t *testing.T) {
		e := newEnv(t)
		id := e.put(template())
		e.process(t, id)
		assert.Zero(t, e.notifier.count())
	})
	t.Run("send_automatically=true", func(t *testing.T) {
		e := newEnv(t)
		tpl := template()
		tpl.SendAutomatically = true
		id := e.put(tpl)

		out := e.process(t, id)

		require.Equal(t, 1, e.notifier.count())
		mail := e.notifier.sent[0]
		assert.Equal(t, "uno@example.com", mail.To)
		assert.Equal(t, recurring.MailSubject, mail.Subject)
		assert.Equal(t, out.Invoice.ID, mail.Invoice.ID)
		assert.Equal(t, customerID, mail.Customer.ID)
		assert.Equal(t, "Acme SAS", mail.Company.Name)
		assert.Contains(t, mail.Body, "INV-000001")
		assert.Contains(t, mail.Body, "Cliente Uno")
	})
}

func TestProcess_FalloDeNotificacionNoDeshaceFactura(t *testing.T) {
	e := newEnv(t)
	e.notifier.err = errors.New("smtp caído")
	tpl := template()
	tpl.SendAutomatically = true
	id := e.put(tpl)

	out, err := e.gen.Process(context.Background(), id, now)

	require.NoError(t, err)
	assert.Equal(t, domainrecurring.Proceed, out.Decision)
	assert.Len(t, e.store.InvoicesByRecurring(id), 1)
	assert.True(t, e.reload(t, id).NextInvoiceAt.After(now))
}

func TestProcess_ClienteInexistente(t *testing.T) {
	e := newEnv(t)
	tpl := template()
	tpl.CustomerID = 999
	id := e.put(tpl)

	_, err := e.gen.Process(context.Background(), id, now)

	assert.True(t, errors.Is(err, domain.ErrCustomerNotFound))
	assert.Zero(t, e.store.InvoiceCount())
	assert.True(t, e.reload(t, id).NextInvoiceAt.Equal(tpl.NextInvoiceAt))
}

func TestProcess_FrecuenciaInvalidaNoCreaNada(t *testing.T) {
	e := newEnv(t)
	tpl := template()
	tpl.Frequency = "cada lunes"
	id := e.put(tpl)

	_, err := e.gen.Process(context.Background(), id, now)

	assert.True(t, errors.Is(err, domain.ErrInvalidFrequency))
	assert.True(t, recurring.IsConfigurationError(err))
	assert.Zero(t, e.store.InvoiceCount())
	current, _ := e.store.Counters().Current(context.Background(), entity.SequenceScope{CompanyID: companyID, Kind: entity.ModelInvoice})
	assert.Zero(t, current)
}

func TestProcess_ErrorDeFormatoDeshaceTodo(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.store.Settings().Set(context.Background(), companyID, repository.SettingInvoiceNumberFmt, "{{SERIES:X}}"))
	tpl := template()
	id := e.put(tpl)

	_, err := e.gen.Process(context.Background(), id, now)

	assert.True(t, errors.Is(err, domain.ErrInvalidNumberFormat))
	assert.Zero(t, e.store.InvoiceCount())
	assert.True(t, e.reload(t, id).NextInvoiceAt.Equal(tpl.NextInvoiceAt))
}

func TestProcess_PlantillaNoPendiente(t *testing.T) {
	e := newEnv(t)

	done := template()
	done.Status = entity.RecurringStatusCompleted
	doneID := e.put(done)

	future := template()
	future.NextInvoiceAt = now.Add(time.Hour)
	futureID := e.put(future)

	assert.True(t, e.process(t, doneID).Skipped)
	assert.True(t, e.process(t, futureID).Skipped)
	assert.Zero(t, e.store.InvoiceCount())
}

func TestProcess_PlantillaInexistente(t *testing.T) {
	e := newEnv(t)
	_, err := e.gen.Process(context.Background(), 404, now)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestProcess_SegundoDisparoMismoInstanteNoDuplica(t *testing.T) {
	e := newEnv(t)
	id := e.put(template())

	first := e.process(t, id)
	second := e.process(t, id)

	assert.Equal(t, domainrecurring.Proceed, first.Decision)
	assert.True(t, second.Skipped)
	assert.Len(t, e.store.InvoicesByRecurring(id), 1)
}

func TestProcess_AnclajeStartsAt(t *testing.T) {
	e := newEnv(t, withAnchor(domainrecurring.AnchorStartsAt))
	tpl := template()
	tpl.Frequency = "0 0 1 * *"
	tpl.StartsAt = time.Date(2026, time.January, 15, 0, 0, 0, 0, time.UTC)
	id := e.put(tpl)

	e.process(t, id)

	// Heredado: siguiente ocurrencia posterior a starts_at, aunque ya haya pasado.
	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), e.reload(t, id).NextInvoiceAt.UTC())
}

func TestProcess_ZonaHorariaDeEmpresa(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.store.Settings().Set(context.Background(), companyID, repository.SettingTimeZone, "America/Bogota"))
	id := e.put(template())

	// 2026-03-11 02:00 UTC es 2026-03-10 21:00 en Bogotá.
	late := time.Date(2026, time.March, 11, 2, 0, 0, 0, time.UTC)
	_, err := e.gen.Process(context.Background(), id, late)
	require.NoError(t, err)

	inv := e.store.InvoicesByRecurring(id)[0]
	assert.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC), inv.InvoiceDate)
	// Medianoche local del 11 = 05:00 UTC.
	assert.Equal(t, time.Date(2026, time.March, 11, 5, 0, 0, 0, time.UTC), e.reload(t, id).NextInvoiceAt.UTC())
}
