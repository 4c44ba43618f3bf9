package repository

import (
	"context"

	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
)

// CustomerRepository define el puerto de lectura de clientes.
type CustomerRepository interface {
	// GetByID devuelve nil, nil si el cliente no existe.
	GetByID(ctx context.Context, id int64) (*entity.Customer, error)
}
