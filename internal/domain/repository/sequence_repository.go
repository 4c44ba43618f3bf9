package repository

import (
	"context"

	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
)

// SequenceCounterRepository contadores monotónicos por ámbito.
// Next debe ser un incremento-y-lectura atómico: dos llamadas concurrentes sobre el mismo
// ámbito nunca reciben el mismo valor, y un valor emitido nunca se vuelve a emitir.
type SequenceCounterRepository interface {
	Next(ctx context.Context, scope entity.SequenceScope) (int64, error)
	// Current devuelve el último valor emitido (0 si nunca se emitió).
	Current(ctx context.Context, scope entity.SequenceScope) (int64, error)
}

// NumberingRepository lee el número ya asignado a un documento existente.
type NumberingRepository interface {
	// GetNumbering devuelve nil, nil si el documento no existe o es de otra empresa.
	GetNumbering(ctx context.Context, companyID int64, kind string, id int64) (*entity.Numbering, error)
}
