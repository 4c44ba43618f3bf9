package repository

import (
	"context"

	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
)

// CompanyRepository define el puerto de lectura de empresas.
type CompanyRepository interface {
	// GetByID devuelve nil, nil si la empresa no existe.
	GetByID(ctx context.Context, id int64) (*entity.Company, error)
}
