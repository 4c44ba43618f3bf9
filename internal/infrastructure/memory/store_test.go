package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-recurrente/internal/domain"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
	"github.com/jhoicas/facturacion-recurrente/internal/infrastructure/memory"
)

func TestInvoiceRepo_NumeroUnicoPorEmpresa(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	repo := store.Invoices()

	require.NoError(t, repo.Create(ctx, &entity.Invoice{CompanyID: 1, CustomerID: 10, InvoiceNumber: "INV-0001"}))

	err := repo.Create(ctx, &entity.Invoice{CompanyID: 1, CustomerID: 11, InvoiceNumber: "INV-0001"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicate))

	// Otra empresa puede repetir el número.
	require.NoError(t, repo.Create(ctx, &entity.Invoice{CompanyID: 2, CustomerID: 30, InvoiceNumber: "INV-0001"}))
	assert.Equal(t, 2, store.InvoiceCount())
}

func TestNumberingRepo_SoloDeLaEmpresa(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	id := store.PutInvoice(&entity.Invoice{CompanyID: 1, InvoiceNumber: "INV-000003", SequenceNumber: 3})

	n, err := store.Numbering().GetNumbering(ctx, 1, entity.ModelInvoice, id)
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "INV-000003", n.Number)

	n, err = store.Numbering().GetNumbering(ctx, 2, entity.ModelInvoice, id)
	require.NoError(t, err)
	assert.Nil(t, n)
}
