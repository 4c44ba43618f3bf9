package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
)

// Dueño de las filas hijas: la plantilla o la factura. Nunca proviene de entrada externa.
const (
	ownerRecurring = "recurring_invoice_id"
	ownerInvoice   = "invoice_id"
)

const itemColumns = `id, item_id, name, COALESCE(description, ''), COALESCE(unit_name, ''),
	quantity, price, discount_type, discount, discount_val, tax, total,
	exchange_rate, base_price, base_discount_val, base_tax, base_total`

const taxColumns = `id, tax_type_id, name, percent, compound_tax, amount, base_amount,
	exchange_rate, COALESCE(currency_id, 0)`

type scanner interface {
	Scan(dest ...any) error
}

func scanTax(s scanner, t *entity.Tax) error {
	return s.Scan(&t.ID, &t.TaxTypeID, &t.Name, &t.Percent, &t.CompoundTax, &t.Amount,
		&t.BaseAmount, &t.ExchangeRate, &t.CurrencyID)
}

// loadChildren carga líneas (con sus impuestos), impuestos de cabecera y campos personalizados.
func loadChildren(ctx context.Context, q Querier, owner string, id int64) ([]entity.InvoiceItem, []entity.Tax, []entity.CustomFieldValue, error) {
	rows, err := q.Query(ctx, `SELECT `+itemColumns+` FROM invoice_items WHERE `+owner+` = $1 ORDER BY position, id`, id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list items: %w", err)
	}
	var items []entity.InvoiceItem
	itemIDs := make([]int64, 0)
	for rows.Next() {
		var it entity.InvoiceItem
		if err := rows.Scan(&it.ID, &it.ItemID, &it.Name, &it.Description, &it.UnitName,
			&it.Quantity, &it.Price, &it.DiscountType, &it.Discount, &it.DiscountVal, &it.Tax, &it.Total,
			&it.ExchangeRate, &it.BasePrice, &it.BaseDiscountVal, &it.BaseTax, &it.BaseTotal); err != nil {
			rows.Close()
			return nil, nil, nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
		itemIDs = append(itemIDs, it.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("list items: %w", err)
	}

	if len(itemIDs) > 0 {
		byItem := make(map[int64][]entity.Tax)
		rows, err = q.Query(ctx, `SELECT invoice_item_id, `+taxColumns+` FROM taxes WHERE invoice_item_id = ANY($1) ORDER BY id`, itemIDs)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("list item taxes: %w", err)
		}
		for rows.Next() {
			var itemID int64
			var t entity.Tax
			if err := rows.Scan(&itemID, &t.ID, &t.TaxTypeID, &t.Name, &t.Percent, &t.CompoundTax, &t.Amount,
				&t.BaseAmount, &t.ExchangeRate, &t.CurrencyID); err != nil {
				rows.Close()
				return nil, nil, nil, fmt.Errorf("scan item tax: %w", err)
			}
			byItem[itemID] = append(byItem[itemID], t)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, nil, nil, fmt.Errorf("list item taxes: %w", err)
		}
		for i := range items {
			items[i].Taxes = byItem[items[i].ID]
		}
	}

	rows, err = q.Query(ctx, `SELECT `+taxColumns+` FROM taxes WHERE `+owner+` = $1 AND invoice_item_id IS NULL ORDER BY id`, id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list taxes: %w", err)
	}
	var taxes []entity.Tax
	for rows.Next() {
		var t entity.Tax
		if err := scanTax(rows, &t); err != nil {
			rows.Close()
			return nil, nil, nil, fmt.Errorf("scan tax: %w", err)
		}
		taxes = append(taxes, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("list taxes: %w", err)
	}

	rows, err = q.Query(ctx, `SELECT id, custom_field_id, COALESCE(value, '') FROM custom_field_values WHERE `+owner+` = $1 ORDER BY id`, id)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list custom fields: %w", err)
	}
	var fields []entity.CustomFieldValue
	for rows.Next() {
		var f entity.CustomFieldValue
		if err := rows.Scan(&f.ID, &f.CustomFieldID, &f.Value); err != nil {
			rows.Close()
			return nil, nil, nil, fmt.Errorf("scan custom field: %w", err)
		}
		fields = append(fields, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("list custom fields: %w", err)
	}
	return items, taxes, fields, nil
}
