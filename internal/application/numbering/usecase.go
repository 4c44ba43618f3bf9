package numbering

import (
	"context"
	"time"

	"github.com/jhoicas/facturacion-recurrente/internal/application/dto"
	"github.com/jhoicas/facturacion-recurrente/internal/domain"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
)

// PreviewUseCase vista previa del siguiente número (GET /api/next-number).
type PreviewUseCase struct {
	allocator *Allocator
	customers repository.CustomerRepository
}

// NewPreviewUseCase construye el caso de uso.
func NewPreviewUseCase(allocator *Allocator, customers repository.CustomerRepository) *PreviewUseCase {
	return &PreviewUseCase{allocator: allocator, customers: customers}
}

// NextNumber con modelID devuelve el número ya asignado a ese documento; sin él, el número
// que recibiría el próximo documento del tipo key.
func (uc *PreviewUseCase) NextNumber(ctx context.Context, companyID int64, key string, customerID int64, modelID *int64) (*dto.NextNumberResponse, error) {
	if !entity.IsModelKind(key) {
		return nil, domain.ErrUnknownModelKind
	}
	req := NumberRequest{CompanyID: companyID, CustomerID: customerID, Kind: key, ExistingID: modelID, Date: time.Now()}
	if customerID > 0 {
		c, err := uc.customers.GetByID(ctx, customerID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, domain.ErrCustomerNotFound
		}
		if c.CompanyID != companyID {
			return nil, domain.ErrForbidden
		}
		req.CustomerSeries = c.Prefix
	}
	n, err := uc.allocator.Peek(ctx, req)
	if err != nil {
		return nil, err
	}
	return &dto.NextNumberResponse{
		Key:                    key,
		Number:                 n.Number,
		SequenceNumber:         n.SequenceNumber,
		CustomerSequenceNumber: n.CustomerSequenceNumber,
	}, nil
}
