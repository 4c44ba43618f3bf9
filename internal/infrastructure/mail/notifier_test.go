package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jhoicas/facturacion-recurrente/internal/application/recurring"
	"github.com/jhoicas/facturacion-recurrente/internal/domain"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
	"github.com/jhoicas/facturacion-recurrente/internal/infrastructure/pdf"
	"github.com/jhoicas/facturacion-recurrente/pkg/config"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func invoiceMail() recurring.InvoiceMail {
	return recurring.InvoiceMail{
		To:       "cliente@example.com",
		Subject:  recurring.MailSubject,
		Body:     "Hola Cliente Uno",
		Invoice:  &entity.Invoice{InvoiceNumber: "INV-000007"},
		Customer: &entity.Customer{Name: "Cliente Uno"},
		Company:  &entity.Company{Name: "Acme SAS"},
	}
}

func render(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestSMTPNotifier_SinAdjunto(t *testing.T) {
	s := &fakeSender{}
	n := NewSMTPNotifier(s, "facturas@acme.test", nil)

	require.NoError(t, n.SendInvoice(context.Background(), invoiceMail()))
	require.Len(t, s.sent, 1)

	m := s.sent[0]
	assert.Equal(t, []string{"New Invoice"}, m.GetHeader("Subject"))
	assert.Contains(t, m.GetHeader("To")[0], "cliente@example.com")
	assert.Contains(t, m.GetHeader("From")[0], "facturas@acme.test")
	raw := render(t, m)
	assert.Contains(t, raw, "Hola Cliente Uno")
	assert.NotContains(t, raw, "INV-000007.pdf")
}

func TestSMTPNotifier_AdjuntaPDF(t *testing.T) {
	s := &fakeSender{}
	n := NewSMTPNotifier(s, "facturas@acme.test", pdf.NewMarotoPDFGenerator())

	require.NoError(t, n.SendInvoice(context.Background(), invoiceMail()))
	require.Len(t, s.sent, 1)
	assert.Contains(t, render(t, s.sent[0]), `filename="INV-000007.pdf"`)
}

func TestSMTPNotifier_SinEmail(t *testing.T) {
	s := &fakeSender{}
	n := NewSMTPNotifier(s, "facturas@acme.test", nil)
	mail := invoiceMail()
	mail.To = ""

	err := n.SendInvoice(context.Background(), mail)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, s.sent)
}

func TestSMTPNotifier_ErrorDeTransporte(t *testing.T) {
	n := NewSMTPNotifier(&fakeSender{err: errors.New("conexión rechazada")}, "facturas@acme.test", nil)
	err := n.SendInvoice(context.Background(), invoiceMail())
	assert.ErrorContains(t, err, "conexión rechazada")
}

func TestNewDialer(t *testing.T) {
	d := NewDialer(config.MailConfig{Host: "smtp.acme.test", Port: 2525, User: "u", Password: "p"})
	assert.Equal(t, "smtp.acme.test", d.Host)
	assert.Equal(t, 2525, d.Port)
}
