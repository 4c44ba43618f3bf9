package recurring

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/facturacion-recurrente/internal/application/settings"
	"github.com/jhoicas/facturacion-recurrente/internal/domain"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
	"github.com/jhoicas/facturacion-recurrente/pkg/datefmt"
)

// MailSubject asunto del correo de factura automática.
const MailSubject = "New Invoice"

var _ EventHandler = (*NotificationHandler)(nil)

// NotificationHandler envía la factura al cliente cuando la plantilla lo pide.
type NotificationHandler struct {
	notifier  Notifier
	companies repository.CompanyRepository
	settings  *settings.Reader
	printer   *message.Printer
}

// NewNotificationHandler construye el manejador.
func NewNotificationHandler(notifier Notifier, companies repository.CompanyRepository, settings *settings.Reader) *NotificationHandler {
	return &NotificationHandler{
		notifier:  notifier,
		companies: companies,
		settings:  settings,
		printer:   message.NewPrinter(language.Spanish),
	}
}

// HandleInvoiceGenerated no hace nada si send_automatically es false.
func (h *NotificationHandler) HandleInvoiceGenerated(ctx context.Context, ev InvoiceGenerated) error {
	if !ev.Template.SendAutomatically {
		return nil
	}
	company, err := h.companies.GetByID(ctx, ev.Template.CompanyID)
	if err != nil {
		return fmt.Errorf("get company: %w", err)
	}
	if company == nil {
		return fmt.Errorf("empresa %d: %w", ev.Template.CompanyID, domain.ErrCompanyNotFound)
	}
	body, err := h.RenderBody(ctx, ev.Invoice, ev.Customer, company)
	if err != nil {
		return err
	}
	return h.notifier.SendInvoice(ctx, InvoiceMail{
		To:       ev.Customer.Email,
		Subject:  MailSubject,
		Body:     body,
		Invoice:  ev.Invoice,
		Customer: ev.Customer,
		Company:  company,
	})
}

// RenderBody sustituye los marcadores {CUSTOMER_NAME}, {INVOICE_NUMBER}, {INVOICE_DATE},
// {INVOICE_DUE_DATE}, {INVOICE_TOTAL} y {COMPANY_NAME} del cuerpo configurado.
func (h *NotificationHandler) RenderBody(ctx context.Context, inv *entity.Invoice, customer *entity.Customer, company *entity.Company) (string, error) {
	tmpl, err := h.settings.MailBody(ctx, inv.CompanyID)
	if err != nil {
		return "", err
	}
	layout, err := h.settings.DateFormat(ctx, inv.CompanyID)
	if err != nil {
		return "", err
	}
	r := strings.NewReplacer(
		"{CUSTOMER_NAME}", customer.Name,
		"{INVOICE_NUMBER}", inv.InvoiceNumber,
		"{INVOICE_DATE}", datefmt.Format(inv.InvoiceDate, layout),
		"{INVOICE_DUE_DATE}", datefmt.Format(inv.DueDate, layout),
		"{INVOICE_TOTAL}", h.FormatAmount(inv.Total.InexactFloat64()),
		"{COMPANY_NAME}", company.Name,
	)
	return r.Replace(tmpl), nil
}

// FormatAmount importe con separadores locales y dos decimales.
func (h *NotificationHandler) FormatAmount(v float64) string {
	return h.printer.Sprintf("%.2f", v)
}
