package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
)

var _ repository.RecurringInvoiceRepository = (*RecurringInvoiceRepo)(nil)

// RecurringInvoiceRepo implementación de RecurringInvoiceRepository (usable con pool o tx).
type RecurringInvoiceRepo struct {
	q Querier
}

// NewRecurringInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRecurringInvoiceRepository(q Querier) *RecurringInvoiceRepo {
	return &RecurringInvoiceRepo{q: q}
}

const recurringColumns = `r.id, r.company_id, r.customer_id, r.currency_id, r.creator_id, r.frequency,
	r.starts_at, r.next_invoice_at, r.last_fired_at, r.limit_by, r.limit_count, r.limit_date,
	r.status, r.send_automatically, r.sub_total, r.tax, r.discount_type, r.discount, r.discount_val,
	r.total, r.due_amount, r.exchange_rate, r.tax_per_item, r.discount_per_item,
	r.sales_tax_type, r.sales_tax_address_type, r.template_name, r.notes, r.created_at, r.updated_at`

func scanRecurring(s scanner, extra ...any) (*entity.RecurringInvoice, error) {
	var t entity.RecurringInvoice
	var salesTaxType, salesTaxAddressType, templateName, notes *string
	dest := []any{
		&t.ID, &t.CompanyID, &t.CustomerID, &t.CurrencyID, &t.CreatorID, &t.Frequency,
		&t.StartsAt, &t.NextInvoiceAt, &t.LastFiredAt, &t.LimitBy, &t.LimitCount, &t.LimitDate,
		&t.Status, &t.SendAutomatically, &t.SubTotal, &t.Tax, &t.DiscountType, &t.Discount, &t.DiscountVal,
		&t.Total, &t.DueAmount, &t.ExchangeRate, &t.TaxPerItem, &t.DiscountPerItem,
		&salesTaxType, &salesTaxAddressType, &templateName, &notes, &t.CreatedAt, &t.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	t.SalesTaxType = derefStr(salesTaxType)
	t.SalesTaxAddressType = derefStr(salesTaxAddressType)
	t.TemplateName = derefStr(templateName)
	t.Notes = derefStr(notes)
	return &t, nil
}

func (r *RecurringInvoiceRepo) get(ctx context.Context, id int64, lock bool) (*entity.RecurringInvoice, error) {
	query := `SELECT ` + recurringColumns + ` FROM recurring_invoices r WHERE r.id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	t, err := scanRecurring(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get recurring invoice: %w", err)
	}
	t.Items, t.Taxes, t.CustomFields, err = loadChildren(ctx, r.q, ownerRecurring, t.ID)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetByID obtiene una plantilla con sus hijos.
func (r *RecurringInvoiceRepo) GetByID(ctx context.Context, id int64) (*entity.RecurringInvoice, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate bloquea la fila (SELECT … FOR UPDATE); solo tiene efecto dentro de una tx.
func (r *RecurringInvoiceRepo) GetForUpdate(ctx context.Context, id int64) (*entity.RecurringInvoice, error) {
	return r.get(ctx, id, true)
}

// ListDueIDs IDs pendientes, paginados por clave.
func (r *RecurringInvoiceRepo) ListDueIDs(ctx context.Context, now time.Time, afterID int64, limit int) ([]int64, error) {
	const query = `
		SELECT id FROM recurring_invoices
		WHERE status = 'ACTIVE' AND next_invoice_at <= $1 AND id > $2
		ORDER BY id
		LIMIT $3`
	rows, err := r.q.Query(ctx, query, now, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list due recurring invoices: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("scan due recurring invoices: %w", err)
	}
	return ids, nil
}

// List listado filtrado con cliente y total sin paginar.
func (r *RecurringInvoiceRepo) List(ctx context.Context, companyID int64, f repository.RecurringInvoiceFilter) ([]*entity.RecurringInvoice, int, error) {
	f.Normalize()
	where, args := recurringWhere(companyID, f)

	var total int
	countQuery := `SELECT COUNT(*) FROM recurring_invoices r LEFT JOIN customers c ON c.id = r.customer_id WHERE ` + where
	if err := r.q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count recurring invoices: %w", err)
	}

	// OrderBy ya viene validado contra RecurringOrderFields.
	query := fmt.Sprintf(`
		SELECT %s, c.id, c.name, COALESCE(c.contact_name, ''), COALESCE(c.company_name, '')
		FROM recurring_invoices r
		LEFT JOIN customers c ON c.id = r.customer_id
		WHERE %s
		ORDER BY r.%s %s, r.id %s
		LIMIT $%d OFFSET $%d`,
		recurringColumns, where, f.OrderBy, strings.ToUpper(f.OrderDir), strings.ToUpper(f.OrderDir), len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list recurring invoices: %w", err)
	}
	defer rows.Close()

	list := make([]*entity.RecurringInvoice, 0)
	for rows.Next() {
		var cID *int64
		var cName *string
		var contact, companyName string
		t, err := scanRecurring(rows, &cID, &cName, &contact, &companyName)
		if err != nil {
			return nil, 0, fmt.Errorf("scan recurring invoice: %w", err)
		}
		if cID != nil {
			t.Customer = &entity.Customer{ID: *cID, CompanyID: companyID, Name: derefStr(cName), ContactName: contact, CompanyName: companyName}
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list recurring invoices: %w", err)
	}
	return list, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func recurringWhere(companyID int64, f repository.RecurringInvoiceFilter) (string, []any) {
	conds := []string{"r.company_id = $1"}
	args := []any{companyID}
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("r.status = $%d", f.Status)
	}
	if f.CustomerID != 0 {
		add("r.customer_id = $%d", f.CustomerID)
	}
	if f.FromDate != nil {
		add("r.starts_at >= $%d", *f.FromDate)
	}
	if f.ToDate != nil {
		add("r.starts_at <= $%d", *f.ToDate)
	}
	for _, term := range strings.Fields(f.Search) {
		args = append(args, "%"+likeEscaper.Replace(term)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(c.name ILIKE $%d OR c.contact_name ILIKE $%d OR c.company_name ILIKE $%d)", n, n, n))
	}
	return strings.Join(conds, " AND "), args
}

// MarkCompleted ACTIVE → COMPLETED; false si ya estaba completada.
func (r *RecurringInvoiceRepo) MarkCompleted(ctx context.Context, id int64, now time.Time) (bool, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE recurring_invoices SET status = 'COMPLETED', updated_at = $2 WHERE id = $1 AND status = 'ACTIVE'`,
		id, now)
	if err != nil {
		return false, fmt.Errorf("complete recurring invoice: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateSchedule persiste next_invoice_at y last_fired_at.
func (r *RecurringInvoiceRepo) UpdateSchedule(ctx context.Context, tpl *entity.RecurringInvoice) error {
	_, err := r.q.Exec(ctx, `
		UPDATE recurring_invoices
		SET next_invoice_at = $2, last_fired_at = $3, updated_at = $4
		WHERE id = $1`,
		tpl.ID, tpl.NextInvoiceAt, tpl.LastFiredAt, tpl.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update recurring schedule: %w", err)
	}
	return nil
}

// Delete borra las plantillas; líneas, impuestos y campos caen por ON DELETE CASCADE.
func (r *RecurringInvoiceRepo) Delete(ctx context.Context, companyID int64, ids []int64) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM recurring_invoices WHERE company_id = $1 AND id = ANY($2)`, companyID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete recurring invoices: %w", err)
	}
	return tag.RowsAffected(), nil
}
