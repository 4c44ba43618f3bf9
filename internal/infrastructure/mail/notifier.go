// Package mail envía por SMTP las facturas generadas automáticamente.
package mail

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/facturacion-recurrente/internal/application/recurring"
	"github.com/jhoicas/facturacion-recurrente/internal/domain"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
	"github.com/jhoicas/facturacion-recurrente/pkg/config"
)

var _ recurring.Notifier = (*SMTPNotifier)(nil)

// Sender transporte de mensajes; *gomail.Dialer lo implementa.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// InvoicePDF genera el adjunto de la factura.
type InvoicePDF interface {
	GenerateInvoicePDF(ctx context.Context, invoice *entity.Invoice, company *entity.Company, customer *entity.Customer) ([]byte, error)
}

// SMTPNotifier implementa recurring.Notifier con gomail.
type SMTPNotifier struct {
	sender Sender
	from   string
	pdf    InvoicePDF // nil: sin adjunto
}

// NewDialer construye el transporte SMTP desde la configuración.
func NewDialer(cfg config.MailConfig) *gomail.Dialer {
	return gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
}

// NewSMTPNotifier construye el notificador. pdf puede ser nil.
func NewSMTPNotifier(sender Sender, from string, pdf InvoicePDF) *SMTPNotifier {
	return &SMTPNotifier{sender: sender, from: from, pdf: pdf}
}

// SendInvoice arma el mensaje (texto plano + PDF opcional) y lo entrega.
func (n *SMTPNotifier) SendInvoice(ctx context.Context, mail recurring.InvoiceMail) error {
	if mail.To == "" {
		return fmt.Errorf("factura %s: cliente sin email: %w", mail.Invoice.InvoiceNumber, domain.ErrInvalidInput)
	}
	m, err := n.buildMessage(ctx, mail)
	if err != nil {
		return err
	}
	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send %s: %w", mail.Invoice.InvoiceNumber, err)
	}
	return nil
}

func (n *SMTPNotifier) buildMessage(ctx context.Context, mail recurring.InvoiceMail) (*gomail.Message, error) {
	m := gomail.NewMessage()
	from := n.from
	if mail.Company != nil && mail.Company.Name != "" {
		from = m.FormatAddress(n.from, mail.Company.Name)
	}
	m.SetHeader("From", from)
	if mail.Customer != nil && mail.Customer.Name != "" {
		m.SetHeader("To", m.FormatAddress(mail.To, mail.Customer.Name))
	} else {
		m.SetHeader("To", mail.To)
	}
	m.SetHeader("Subject", mail.Subject)
	m.SetBody("text/plain", mail.Body)

	if n.pdf != nil {
		doc, err := n.pdf.GenerateInvoicePDF(ctx, mail.Invoice, mail.Company, mail.Customer)
		if err != nil {
			return nil, fmt.Errorf("pdf factura %s: %w", mail.Invoice.InvoiceNumber, err)
		}
		m.Attach(mail.Invoice.InvoiceNumber+".pdf",
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(doc)
				return err
			}),
			gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}),
		)
	}
	return m, nil
}
