package memory

import (
	"time"

	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
)

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneItem(it entity.InvoiceItem) entity.InvoiceItem {
	it.Taxes = append([]entity.Tax(nil), it.Taxes...)
	return it
}

func cloneItems(items []entity.InvoiceItem) []entity.InvoiceItem {
	if items == nil {
		return nil
	}
	out := make([]entity.InvoiceItem, len(items))
	for i, it := range items {
		out[i] = cloneItem(it)
	}
	return out
}

func cloneTemplate(t *entity.RecurringInvoice) *entity.RecurringInvoice {
	cp := *t
	cp.LastFiredAt = copyTime(t.LastFiredAt)
	cp.LimitDate = copyTime(t.LimitDate)
	cp.Items = cloneItems(t.Items)
	cp.Taxes = append([]entity.Tax(nil), t.Taxes...)
	cp.CustomFields = append([]entity.CustomFieldValue(nil), t.CustomFields...)
	cp.Customer = nil
	return &cp
}

func cloneInvoice(inv *entity.Invoice) *entity.Invoice {
	cp := *inv
	if inv.RecurringInvoiceID != nil {
		id := *inv.RecurringInvoiceID
		cp.RecurringInvoiceID = &id
	}
	cp.Items = cloneItems(inv.Items)
	cp.Taxes = append([]entity.Tax(nil), inv.Taxes...)
	cp.CustomFields = append([]entity.CustomFieldValue(nil), inv.CustomFields...)
	return &cp
}
