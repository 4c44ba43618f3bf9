package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturacion-recurrente/internal/domain"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera de la factura y asigna su ID.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	query := `
		INSERT INTO invoices (
			company_id, customer_id, currency_id, creator_id, recurring_invoice_id,
			invoice_date, due_date, invoice_number, sequence_number, customer_sequence_number,
			status, paid_status, sub_total, tax, discount_type, discount, discount_val,
			total, due_amount, exchange_rate, base_sub_total, base_tax, base_discount_val,
			base_total, base_due_amount, tax_per_item, discount_per_item,
			sales_tax_type, sales_tax_address_type, template_name, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		inv.CompanyID, inv.CustomerID, inv.CurrencyID, inv.CreatorID, inv.RecurringInvoiceID,
		dateOnly(inv.InvoiceDate), dateOnly(inv.DueDate), inv.InvoiceNumber, inv.SequenceNumber, inv.CustomerSequenceNumber,
		inv.Status, inv.PaidStatus, inv.SubTotal, inv.Tax, inv.DiscountType, inv.Discount, inv.DiscountVal,
		inv.Total, inv.DueAmount, inv.ExchangeRate, inv.BaseSubTotal, inv.BaseTax, inv.BaseDiscountVal,
		inv.BaseTotal, inv.BaseDueAmount, inv.TaxPerItem, inv.DiscountPerItem,
		nullIfEmpty(inv.SalesTaxType), nullIfEmpty(inv.SalesTaxAddressType), nullIfEmpty(inv.TemplateName), nullIfEmpty(inv.Notes),
		inv.CreatedAt, inv.UpdatedAt,
	).Scan(&inv.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice number %s already exists: %w", inv.InvoiceNumber, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// CreateItem persiste una línea y sus impuestos de línea.
func (r *InvoiceRepo) CreateItem(ctx context.Context, invoiceID int64, item *entity.InvoiceItem) error {
	query := `
		INSERT INTO invoice_items (
			invoice_id, item_id, name, description, unit_name, quantity, price,
			discount_type, discount, discount_val, tax, total, exchange_rate,
			base_price, base_discount_val, base_tax, base_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		invoiceID, item.ItemID, item.Name, nullIfEmpty(item.Description), nullIfEmpty(item.UnitName),
		item.Quantity, item.Price, item.DiscountType, item.Discount, item.DiscountVal, item.Tax, item.Total,
		item.ExchangeRate, item.BasePrice, item.BaseDiscountVal, item.BaseTax, item.BaseTotal,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert invoice item: %w", err)
	}
	for i := range item.Taxes {
		if err := r.insertTax(ctx, nil, &item.ID, &item.Taxes[i]); err != nil {
			return err
		}
	}
	return nil
}

// CreateTax persiste un impuesto de cabecera.
func (r *InvoiceRepo) CreateTax(ctx context.Context, invoiceID int64, tax *entity.Tax) error {
	return r.insertTax(ctx, &invoiceID, nil, tax)
}

func (r *InvoiceRepo) insertTax(ctx context.Context, invoiceID, itemID *int64, tax *entity.Tax) error {
	query := `
		INSERT INTO taxes (invoice_id, invoice_item_id, tax_type_id, name, percent, compound_tax,
			amount, base_amount, exchange_rate, currency_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		invoiceID, itemID, tax.TaxTypeID, tax.Name, tax.Percent, tax.CompoundTax,
		tax.Amount, tax.BaseAmount, tax.ExchangeRate, tax.CurrencyID,
	).Scan(&tax.ID)
	if err != nil {
		return fmt.Errorf("insert tax: %w", err)
	}
	return nil
}

// CreateCustomFieldValue copia la respuesta de un campo personalizado.
func (r *InvoiceRepo) CreateCustomFieldValue(ctx context.Context, invoiceID int64, v *entity.CustomFieldValue) error {
	err := r.q.QueryRow(ctx,
		`INSERT INTO custom_field_values (custom_field_id, invoice_id, value) VALUES ($1, $2, $3) RETURNING id`,
		v.CustomFieldID, invoiceID, v.Value,
	).Scan(&v.ID)
	if err != nil {
		return fmt.Errorf("insert custom field value: %w", err)
	}
	return nil
}

// UpdateUniqueHash guarda el identificador público.
func (r *InvoiceRepo) UpdateUniqueHash(ctx context.Context, invoiceID int64, hash string) error {
	if _, err := r.q.Exec(ctx, `UPDATE invoices SET unique_hash = $2 WHERE id = $1`, invoiceID, hash); err != nil {
		return fmt.Errorf("update unique hash: %w", err)
	}
	return nil
}

// GetByID obtiene una factura completa por ID.
func (r *InvoiceRepo) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	query := `
		SELECT id, company_id, customer_id, currency_id, creator_id, recurring_invoice_id,
		       invoice_date, due_date, invoice_number, sequence_number, customer_sequence_number,
		       unique_hash, status, paid_status, sub_total, tax, discount_type, discount, discount_val,
		       total, due_amount, exchange_rate, base_sub_total, base_tax, base_discount_val,
		       base_total, base_due_amount, tax_per_item, discount_per_item,
		       sales_tax_type, sales_tax_address_type, template_name, notes, created_at, updated_at
		FROM invoices WHERE id = $1`
	var inv entity.Invoice
	var uniqueHash, salesTaxType, salesTaxAddressType, templateName, notes *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&inv.ID, &inv.CompanyID, &inv.CustomerID, &inv.CurrencyID, &inv.CreatorID, &inv.RecurringInvoiceID,
		&inv.InvoiceDate, &inv.DueDate, &inv.InvoiceNumber, &inv.SequenceNumber, &inv.CustomerSequenceNumber,
		&uniqueHash, &inv.Status, &inv.PaidStatus, &inv.SubTotal, &inv.Tax, &inv.DiscountType, &inv.Discount, &inv.DiscountVal,
		&inv.Total, &inv.DueAmount, &inv.ExchangeRate, &inv.BaseSubTotal, &inv.BaseTax, &inv.BaseDiscountVal,
		&inv.BaseTotal, &inv.BaseDueAmount, &inv.TaxPerItem, &inv.DiscountPerItem,
		&salesTaxType, &salesTaxAddressType, &templateName, &notes, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	inv.UniqueHash = derefStr(uniqueHash)
	inv.SalesTaxType = derefStr(salesTaxType)
	inv.SalesTaxAddressType = derefStr(salesTaxAddressType)
	inv.TemplateName = derefStr(templateName)
	inv.Notes = derefStr(notes)

	inv.Items, inv.Taxes, inv.CustomFields, err = loadChildren(ctx, r.q, ownerInvoice, inv.ID)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// CountByRecurringInvoice facturas generadas desde la plantilla.
func (r *InvoiceRepo) CountByRecurringInvoice(ctx context.Context, recurringInvoiceID int64) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM invoices WHERE recurring_invoice_id = $1`, recurringInvoiceID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count invoices by recurring: %w", err)
	}
	return n, nil
}

// DetachRecurring anula la referencia a las plantillas que se van a borrar.
func (r *InvoiceRepo) DetachRecurring(ctx context.Context, recurringInvoiceIDs []int64) (int64, error) {
	tag, err := r.q.Exec(ctx,
		`UPDATE invoices SET recurring_invoice_id = NULL, updated_at = now() WHERE recurring_invoice_id = ANY($1)`,
		recurringInvoiceIDs)
	if err != nil {
		return 0, fmt.Errorf("detach recurring invoices: %w", err)
	}
	return tag.RowsAffected(), nil
}
