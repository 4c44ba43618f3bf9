package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
)

var _ repository.SettingsRepository = (*SettingsRepo)(nil)

// SettingsRepo ajustes por empresa en company_settings.
type SettingsRepo struct {
	q Querier
}

// NewSettingsRepository construye el adaptador.
func NewSettingsRepository(q Querier) *SettingsRepo {
	return &SettingsRepo{q: q}
}

// Get devuelve ok=false si la clave no existe.
func (r *SettingsRepo) Get(ctx context.Context, companyID int64, key string) (string, bool, error) {
	var v *string
	err := r.q.QueryRow(ctx,
		`SELECT value FROM company_settings WHERE company_id = $1 AND option = $2`,
		companyID, key).Scan(&v)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get setting: %w", err)
	}
	return derefStr(v), true, nil
}

// Set inserta o reemplaza el valor.
func (r *SettingsRepo) Set(ctx context.Context, companyID int64, key, value string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO company_settings (company_id, option, value) VALUES ($1, $2, $3)
		ON CONFLICT (company_id, option) DO UPDATE SET value = EXCLUDED.value`,
		companyID, key, value)
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}
