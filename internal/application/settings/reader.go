// Package settings interpreta los ajustes por empresa que usa la facturación recurrente
// (plazo de vencimiento, moneda base, zona horaria, formatos).
package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
	"github.com/jhoicas/facturacion-recurrente/pkg/datefmt"
)

// DefaultDueDays plazo de vencimiento cuando la empresa no lo configura.
const DefaultDueDays = 7

// DefaultMailBody cuerpo del correo de factura cuando la empresa no tiene uno propio.
const DefaultMailBody = "Hola {CUSTOMER_NAME},\n\n" +
	"Adjuntamos la factura {INVOICE_NUMBER} del {INVOICE_DATE} por {INVOICE_TOTAL}, " +
	"con vencimiento el {INVOICE_DUE_DATE}.\n\nGracias,\n{COMPANY_NAME}"

// Reader lectura tipada sobre el almacén clave/valor de ajustes.
type Reader struct {
	repo repository.SettingsRepository
}

// NewReader construye el lector. repo suele ser la versión con caché.
func NewReader(repo repository.SettingsRepository) *Reader {
	return &Reader{repo: repo}
}

// Raw devuelve el valor tal cual.
func (r *Reader) Raw(ctx context.Context, companyID int64, key string) (string, bool, error) {
	v, ok, err := r.repo.Get(ctx, companyID, key)
	if err != nil {
		return "", false, fmt.Errorf("setting %s: %w", key, err)
	}
	return v, ok, nil
}

// DueDays días hasta el vencimiento. Ausente, "null", no numérico o <= 0 → 7.
func (r *Reader) DueDays(ctx context.Context, companyID int64) (int, error) {
	v, ok, err := r.Raw(ctx, companyID, repository.SettingInvoiceDueDays)
	if err != nil {
		return 0, err
	}
	v = strings.TrimSpace(v)
	if !ok || v == "" || strings.EqualFold(v, "null") {
		return DefaultDueDays, nil
	}
	n, convErr := strconv.Atoi(v)
	if convErr != nil || n <= 0 {
		return DefaultDueDays, nil
	}
	return n, nil
}

// BaseCurrency moneda base de la empresa. ok=false si no está configurada.
func (r *Reader) BaseCurrency(ctx context.Context, companyID int64) (int64, bool, error) {
	v, ok, err := r.Raw(ctx, companyID, repository.SettingCurrency)
	if err != nil || !ok {
		return 0, false, err
	}
	id, convErr := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if convErr != nil {
		return 0, false, nil
	}
	return id, true, nil
}

// Location zona horaria de la empresa (UTC si falta o es inválida).
func (r *Reader) Location(ctx context.Context, companyID int64) (*time.Location, error) {
	v, ok, err := r.Raw(ctx, companyID, repository.SettingTimeZone)
	if err != nil {
		return nil, err
	}
	if !ok || v == "" {
		return time.UTC, nil
	}
	loc, locErr := time.LoadLocation(v)
	if locErr != nil {
		return time.UTC, nil
	}
	return loc, nil
}

// DateFormat formato de fecha de presentación (estilo PHP).
func (r *Reader) DateFormat(ctx context.Context, companyID int64) (string, error) {
	v, ok, err := r.Raw(ctx, companyID, repository.SettingDateFormat)
	if err != nil {
		return "", err
	}
	if !ok || v == "" {
		return datefmt.Default, nil
	}
	return v, nil
}

// MailBody plantilla del cuerpo del correo de factura.
func (r *Reader) MailBody(ctx context.Context, companyID int64) (string, error) {
	v, ok, err := r.Raw(ctx, companyID, repository.SettingInvoiceMailBody)
	if err != nil {
		return "", err
	}
	if !ok || strings.TrimSpace(v) == "" {
		return DefaultMailBody, nil
	}
	return v, nil
}
