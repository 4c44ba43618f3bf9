// Package memory implementa los repositorios en memoria para las pruebas de casos de uso y
// handlers. Replica las restricciones del esquema que importan a la numeración.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/facturacion-recurrente/internal/domain"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
)

// Store guarda todas las tablas. Los valores almacenados nunca se modifican en sitio:
// cada escritura reemplaza el puntero, así una copia superficial de los mapas sirve
// como instantánea para el rollback de RunRecurring.
type Store struct {
	mu sync.RWMutex
	// txMu serializa las transacciones de RunRecurring.
	txMu sync.Mutex

	recurring map[int64]*entity.RecurringInvoice
	invoices  map[int64]*entity.Invoice
	customers map[int64]*entity.Customer
	companies map[int64]*entity.Company
	settings  map[int64]map[string]string
	counters  map[entity.SequenceScope]int64

	nextRecurringID int64
	nextInvoiceID   int64
	nextChildID     int64
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		recurring: make(map[int64]*entity.RecurringInvoice),
		invoices:  make(map[int64]*entity.Invoice),
		customers: make(map[int64]*entity.Customer),
		companies: make(map[int64]*entity.Company),
		settings:  make(map[int64]map[string]string),
		counters:  make(map[entity.SequenceScope]int64),
	}
}

// Vistas tipadas del store; cada una implementa un puerto de repository.
func (s *Store) Recurring() *RecurringRepo { return &RecurringRepo{s: s} }
func (s *Store) Invoices() *InvoiceRepo     { return &InvoiceRepo{s: s} }
func (s *Store) Customers() *CustomerRepo   { return &CustomerRepo{s: s} }
func (s *Store) Companies() *CompanyRepo    { return &CompanyRepo{s: s} }
func (s *Store) Settings() *SettingsRepo    { return &SettingsRepo{s: s} }
func (s *Store) Counters() *CounterRepo     { return &CounterRepo{s: s} }
func (s *Store) Numbering() *NumberingRepo  { return &NumberingRepo{s: s} }

// ── Siembra ─────────────────────────────────────────────────────────

// PutCompany inserta o reemplaza una empresa.
func (s *Store) PutCompany(c *entity.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.companies[c.ID] = &cp
}

// PutCustomer inserta o reemplaza un cliente.
func (s *Store) PutCustomer(c *entity.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.customers[c.ID] = &cp
}

// DeleteCustomer elimina un cliente (para simular referencias rotas).
func (s *Store) DeleteCustomer(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.customers, id)
}

// PutRecurring inserta una plantilla; asigna ID si viene en cero.
func (s *Store) PutRecurring(t *entity.RecurringInvoice) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		s.nextRecurringID++
		t.ID = s.nextRecurringID
	} else if t.ID > s.nextRecurringID {
		s.nextRecurringID = t.ID
	}
	s.recurring[t.ID] = cloneTemplate(t)
	return t.ID
}

// PutInvoice inserta una factura existente (p. ej. generada en un barrido anterior).
func (s *Store) PutInvoice(inv *entity.Invoice) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inv.ID == 0 {
		s.nextInvoiceID++
		inv.ID = s.nextInvoiceID
	} else if inv.ID > s.nextInvoiceID {
		s.nextInvoiceID = inv.ID
	}
	s.invoices[inv.ID] = cloneInvoice(inv)
	return inv.ID
}

// InvoicesByRecurring facturas que referencian la plantilla, en orden de ID.
func (s *Store) InvoicesByRecurring(recurringID int64) []*entity.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*entity.Invoice
	for _, inv := range s.invoices {
		if inv.RecurringInvoiceID != nil && *inv.RecurringInvoiceID == recurringID {
			out = append(out, cloneInvoice(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InvoiceCount número total de facturas.
func (s *Store) InvoiceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.invoices)
}

// ── Transacción ──────────────────────────────────────────────────────────────

type snapshot struct {
	recurring     map[int64]*entity.RecurringInvoice
	invoices      map[int64]*entity.Invoice
	counters      map[entity.SequenceScope]int64
	nextInvoiceID int64
	nextChildID   int64
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		recurring:     make(map[int64]*entity.RecurringInvoice, len(s.recurring)),
		invoices:      make(map[int64]*entity.Invoice, len(s.invoices)),
		counters:      make(map[entity.SequenceScope]int64, len(s.counters)),
		nextInvoiceID: s.nextInvoiceID,
		nextChildID:   s.nextChildID,
	}
	for k, v := range s.recurring {
		snap.recurring[k] = v
	}
	for k, v := range s.invoices {
		snap.invoices[k] = v
	}
	for k, v := range s.counters {
		snap.counters[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recurring = snap.recurring
	s.invoices = snap.invoices
	s.counters = snap.counters
	s.nextInvoiceID = snap.nextInvoiceID
	s.nextChildID = snap.nextChildID
}

// RunRecurring ejecuta fn de forma exclusiva; si fn falla, deshace plantillas, facturas
// y contadores como lo haría un ROLLBACK.
func (s *Store) RunRecurring(ctx context.Context, fn func(
	recurringRepo repository.RecurringInvoiceRepository,
	invoiceRepo repository.InvoiceRepository,
	counters repository.SequenceCounterRepository,
) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.snapshot()
	if err := fn(s.Recurring(), s.Invoices(), s.Counters()); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// ── Plantillas ───────────────────────────────────────────────────────────────

var _ repository.RecurringInvoiceRepository = (*RecurringRepo)(nil)

// RecurringRepo vista de plantillas recurrentes.
type RecurringRepo struct{ s *Store }

func (r *RecurringRepo) GetByID(_ context.Context, id int64) (*entity.RecurringInvoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.recurring[id]
	if !ok {
		return nil, nil
	}
	return cloneTemplate(t), nil
}

func (r *RecurringRepo) GetForUpdate(ctx context.Context, id int64) (*entity.RecurringInvoice, error) {
	return r.GetByID(ctx, id)
}

func (r *RecurringRepo) ListDueIDs(_ context.Context, now time.Time, afterID int64, limit int) ([]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ids := make([]int64, 0)
	for id, t := range r.s.recurring {
		if id > afterID && t.Status == entity.RecurringStatusActive && !t.NextInvoiceAt.After(now) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (r *RecurringRepo) List(_ context.Context, companyID int64, f repository.RecurringInvoiceFilter) ([]*entity.RecurringInvoice, int, error) {
	f.Normalize()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	terms := strings.Fields(strings.ToLower(f.Search))
	result := make([]*entity.RecurringInvoice, 0)
	for _, t := range r.s.recurring {
		if t.CompanyID != companyID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.CustomerID != 0 && t.CustomerID != f.CustomerID {
			continue
		}
		if f.FromDate != nil && t.StartsAt.Before(*f.FromDate) {
			continue
		}
		if f.ToDate != nil && t.StartsAt.After(*f.ToDate) {
			continue
		}
		c := r.s.customers[t.CustomerID]
		if len(terms) > 0 && !matchesCustomer(c, terms) {
			continue
		}
		cp := cloneTemplate(t)
		if c != nil {
			cc := *c
			cp.Customer = &cc
		}
		result = append(result, cp)
	}

	sort.SliceStable(result, func(i, j int) bool {
		less := lessBy(f.OrderBy, result[i], result[j])
		if f.OrderDir == "desc" {
			return lessBy(f.OrderBy, result[j], result[i])
		}
		return less
	})

	total := len(result)
	start := f.Offset
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return result[start:end], total, nil
}

func matchesCustomer(c *entity.Customer, terms []string) bool {
	if c == nil {
		return false
	}
	fields := []string{strings.ToLower(c.Name), strings.ToLower(c.ContactName), strings.ToLower(c.CompanyName)}
	for _, term := range terms {
		found := false
		for _, f := range fields {
			if strings.Contains(f, term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func lessBy(field string, a, b *entity.RecurringInvoice) bool {
	switch field {
	case "starts_at":
		return a.StartsAt.Before(b.StartsAt)
	case "next_invoice_at":
		return a.NextInvoiceAt.Before(b.NextInvoiceAt)
	case "total":
		return a.Total.LessThan(b.Total)
	case "status":
		return a.Status < b.Status
	case "id":
		return a.ID < b.ID
	default:
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

func (r *RecurringRepo) MarkCompleted(_ context.Context, id int64, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.recurring[id]
	if !ok || t.IsCompleted() {
		return false, nil
	}
	cp := cloneTemplate(t)
	cp.Complete(now)
	r.s.recurring[id] = cp
	return true, nil
}

func (r *RecurringRepo) UpdateSchedule(_ context.Context, tpl *entity.RecurringInvoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.recurring[tpl.ID]
	if !ok {
		return nil
	}
	cp := cloneTemplate(t)
	cp.NextInvoiceAt = tpl.NextInvoiceAt
	cp.LastFiredAt = copyTime(tpl.LastFiredAt)
	cp.UpdatedAt = tpl.UpdatedAt
	r.s.recurring[tpl.ID] = cp
	return nil
}

func (r *RecurringRepo) Delete(_ context.Context, companyID int64, ids []int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if t, ok := r.s.recurring[id]; ok && t.CompanyID == companyID {
			delete(r.s.recurring, id)
			n++
		}
	}
	return n, nil
}

// ── Facturas ─────────────────────────────────────────────────────────────────

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo vista de facturas.
type InvoiceRepo struct{ s *Store }

// Create respeta UNIQUE (company_id, invoice_number) como la tabla invoices.
func (r *InvoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.invoices {
		if other.CompanyID == inv.CompanyID && other.InvoiceNumber == inv.InvoiceNumber {
			return fmt.Errorf("invoice number %s already exists: %w", inv.InvoiceNumber, domain.ErrDuplicate)
		}
	}
	r.s.nextInvoiceID++
	inv.ID = r.s.nextInvoiceID
	r.s.invoices[inv.ID] = cloneInvoice(inv)
	return nil
}

func (r *InvoiceRepo) update(invoiceID int64, fn func(inv *entity.Invoice)) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[invoiceID]
	if !ok {
		return
	}
	cp := cloneInvoice(inv)
	fn(cp)
	r.s.invoices[invoiceID] = cp
}

func (r *InvoiceRepo) nextChild() int64 {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextChildID++
	return r.s.nextChildID
}

func (r *InvoiceRepo) CreateItem(_ context.Context, invoiceID int64, item *entity.InvoiceItem) error {
	item.ID = r.nextChild()
	for i := range item.Taxes {
		item.Taxes[i].ID = r.nextChild()
	}
	r.update(invoiceID, func(inv *entity.Invoice) {
		inv.Items = append(inv.Items, cloneItem(*item))
	})
	return nil
}

func (r *InvoiceRepo) CreateTax(_ context.Context, invoiceID int64, tax *entity.Tax) error {
	tax.ID = r.nextChild()
	r.update(invoiceID, func(inv *entity.Invoice) {
		inv.Taxes = append(inv.Taxes, *tax)
	})
	return nil
}

func (r *InvoiceRepo) CreateCustomFieldValue(_ context.Context, invoiceID int64, v *entity.CustomFieldValue) error {
	v.ID = r.nextChild()
	r.update(invoiceID, func(inv *entity.Invoice) {
		inv.CustomFields = append(inv.CustomFields, *v)
	})
	return nil
}

func (r *InvoiceRepo) UpdateUniqueHash(_ context.Context, invoiceID int64, hash string) error {
	r.update(invoiceID, func(inv *entity.Invoice) { inv.UniqueHash = hash })
	return nil
}

func (r *InvoiceRepo) GetByID(_ context.Context, id int64) (*entity.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, nil
	}
	return cloneInvoice(inv), nil
}

func (r *InvoiceRepo) CountByRecurringInvoice(_ context.Context, recurringID int64) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, inv := range r.s.invoices {
		if inv.RecurringInvoiceID != nil && *inv.RecurringInvoiceID == recurringID {
			n++
		}
	}
	return n, nil
}

func (r *InvoiceRepo) DetachRecurring(_ context.Context, ids []int64) (int64, error) {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, inv := range r.s.invoices {
		if inv.RecurringInvoiceID != nil && set[*inv.RecurringInvoiceID] {
			cp := cloneInvoice(inv)
			cp.RecurringInvoiceID = nil
			r.s.invoices[id] = cp
			n++
		}
	}
	return n, nil
}

// ── Clientes, empresas y ajustes ─────────────────────────────────────────────

var (
	_ repository.CustomerRepository = (*CustomerRepo)(nil)
	_ repository.CompanyRepository  = (*CompanyRepo)(nil)
	_ repository.SettingsRepository = (*SettingsRepo)(nil)
)

// CustomerRepo vista de clientes.
type CustomerRepo struct{ s *Store }

func (r *CustomerRepo) GetByID(_ context.Context, id int64) (*entity.Customer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.customers[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// CompanyRepo vista de empresas.
type CompanyRepo struct{ s *Store }

func (r *CompanyRepo) GetByID(_ context.Context, id int64) (*entity.Company, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.companies[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// SettingsRepo vista de ajustes por empresa.
type SettingsRepo struct{ s *Store }

func (r *SettingsRepo) Get(_ context.Context, companyID int64, key string) (string, bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.settings[companyID][key]
	return v, ok, nil
}

func (r *SettingsRepo) Set(_ context.Context, companyID int64, key, value string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.settings[companyID] == nil {
		r.s.settings[companyID] = make(map[string]string)
	}
	r.s.settings[companyID][key] = value
	return nil
}

// ── Numeración ───────────────────────────────────────────────────────────────

var (
	_ repository.SequenceCounterRepository = (*CounterRepo)(nil)
	_ repository.NumberingRepository       = (*NumberingRepo)(nil)
)

// CounterRepo contadores protegidos por el mutex del store.
type CounterRepo struct{ s *Store }

func (r *CounterRepo) Next(_ context.Context, scope entity.SequenceScope) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.counters[scope]++
	return r.s.counters[scope], nil
}

func (r *CounterRepo) Current(_ context.Context, scope entity.SequenceScope) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.s.counters[scope], nil
}

// NumberingRepo números ya asignados. Solo hay facturas en el store.
type NumberingRepo struct{ s *Store }

func (r *NumberingRepo) GetNumbering(_ context.Context, companyID int64, kind string, id int64) (*entity.Numbering, error) {
	if kind != entity.ModelInvoice {
		return nil, nil
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	inv, ok := r.s.invoices[id]
	if !ok || inv.CompanyID != companyID {
		return nil, nil
	}
	return &entity.Numbering{
		Number:                 inv.InvoiceNumber,
		SequenceNumber:         inv.SequenceNumber,
		CustomerSequenceNumber: inv.CustomerSequenceNumber,
	}, nil
}
