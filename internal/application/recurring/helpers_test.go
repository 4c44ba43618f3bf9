package recurring_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-recurrente/internal/application/numbering"
	"github.com/jhoicas/facturacion-recurrente/internal/application/recurring"
	"github.com/jhoicas/facturacion-recurrente/internal/application/settings"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
	domainrecurring "github.com/jhoicas/facturacion-recurrente/internal/domain/recurring"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
	"github.com/jhoicas/facturacion-recurrente/internal/infrastructure/memory"
	"github.com/jhoicas/facturacion-recurrente/pkg/hashid"
	"github.com/jhoicas/facturacion-recurrente/pkg/logger"
)

const (
	companyID       = int64(1)
	customerID      = int64(10)
	foreignCustomer = int64(20)
	baseCurrency    = int64(1)
	otherCurrency   = int64(2)
)

var now = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []recurring.InvoiceMail
	err  error
}

func (f *fakeNotifier) SendInvoice(_ context.Context, m recurring.InvoiceMail) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type env struct {
	store    *memory.Store
	reader   *settings.Reader
	encoder  *hashid.Encoder
	notifier *fakeNotifier
	gen      *recurring.Generator
}

func newEnv(t *testing.T, opts ...recurring.GeneratorOption) *env {
	t.Helper()
	store := memory.New()
	store.PutCompany(&entity.Company{ID: companyID, Name: "Acme SAS"})
	store.PutCustomer(&entity.Customer{
		ID: customerID, CompanyID: companyID, CurrencyID: baseCurrency,
		Name: "Cliente Uno", Email: "uno@example.com",
	})
	store.PutCustomer(&entity.Customer{
		ID: foreignCustomer, CompanyID: companyID, CurrencyID: otherCurrency,
		Name: "Client Two", Email: "two@example.com",
	})
	require.NoError(t, store.Settings().Set(context.Background(), companyID, repository.SettingCurrency, "1"))

	reader := settings.NewReader(store.Settings())
	enc, err := hashid.New("test-salt", 20)
	require.NoError(t, err)
	alloc := numbering.NewAllocator(store.Counters(), store.Numbering(), reader)
	mat := recurring.NewMaterializer(store.Customers(), reader, alloc, enc)
	notifier := &fakeNotifier{}
	handler := recurring.NewNotificationHandler(notifier, store.Companies(), reader)

	opts = append([]recurring.GeneratorOption{recurring.WithEventHandler(handler)}, opts...)
	gen := recurring.NewGenerator(store, mat, reader, logger.Nop(), opts...)
	return &env{store: store, reader: reader, encoder: enc, notifier: notifier, gen: gen}
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func amount(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d(s), Valid: true}
}

// template plantilla vencida (next_invoice_at una hora antes de now), diaria, sin límite.
func template() *entity.RecurringInvoice {
	return &entity.RecurringInvoice{
		CompanyID:     companyID,
		CustomerID:    customerID,
		CurrencyID:    baseCurrency,
		Frequency:     "0 0 * * *",
		StartsAt:      now.AddDate(0, 0, -30),
		NextInvoiceAt: now.Add(-time.Hour),
		LimitBy:       entity.LimitNone,
		Status:        entity.RecurringStatusActive,
		SubTotal:      d("100"),
		Tax:           d("19"),
		DiscountType:  entity.DiscountFixed,
		Total:         d("119"),
		DueAmount:     d("119"),
		ExchangeRate:  d("4000"),
		TemplateName:  "invoice1",
		Items: []entity.InvoiceItem{{
			Name: "Hosting", Quantity: d("1"), Price: d("100"), Tax: d("19"), Total: d("119"),
			Taxes: []entity.Tax{
				{TaxTypeID: 1, Name: "IVA", Percent: d("19"), Amount: amount("19")},
				{TaxTypeID: 2, Name: "Legacy"},
			},
		}},
		Taxes: []entity.Tax{
			{TaxTypeID: 3, Name: "Retención", Percent: d("5"), Amount: amount("50.0")},
			{TaxTypeID: 4, Name: "Vacío"},
		},
		CustomFields: []entity.CustomFieldValue{{CustomFieldID: 7, Value: "Contrato 2026"}},
	}
}

func (e *env) put(t *entity.RecurringInvoice) int64 {
	return e.store.PutRecurring(t)
}

func (e *env) reload(t *testing.T, id int64) *entity.RecurringInvoice {
	t.Helper()
	tpl, err := e.store.Recurring().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, tpl)
	return tpl
}

func (e *env) process(t *testing.T, id int64) *recurring.Outcome {
	t.Helper()
	out, err := e.gen.Process(context.Background(), id, now)
	require.NoError(t, err)
	return out
}

func withAnchor(mode domainrecurring.AnchorMode) recurring.GeneratorOption {
	return recurring.WithAnchor(mode)
}
