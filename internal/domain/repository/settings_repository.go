package repository

import "context"

// Claves de ajustes por empresa usadas por la facturación recurrente.
const (
	SettingDateFormat        = "carbon_date_format"
	SettingInvoiceDueDays    = "invoice_due_date_days"
	SettingInvoiceMailBody   = "invoice_mail_body"
	SettingCurrency          = "currency"
	SettingTimeZone          = "time_zone"
	SettingInvoiceNumberFmt  = "invoice_number_format"
	SettingEstimateNumberFmt = "estimate_number_format"
	SettingPaymentNumberFmt  = "payment_number_format"
)

// SettingsRepository almacén clave/valor de ajustes por empresa.
type SettingsRepository interface {
	// Get devuelve ok=false si la clave no existe para la empresa.
	Get(ctx context.Context, companyID int64, key string) (value string, ok bool, err error)
	Set(ctx context.Context, companyID int64, key, value string) error
}
