package redisstore

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-recurrente/internal/domain/entity"
	"github.com/jhoicas/facturacion-recurrente/pkg/config"
)

func setupCounterStore(t *testing.T) (*CounterStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), config.RedisConfig{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewCounterStore(client, "test"), mr
}

func TestCounterStore_NextYCurrent(t *testing.T) {
	s, mr := setupCounterStore(t)
	ctx := context.Background()
	scope := entity.SequenceScope{CompanyID: 1, CustomerID: 5, Kind: entity.ModelInvoice}

	cur, err := s.Current(ctx, scope)
	require.NoError(t, err)
	assert.Zero(t, cur)

	for want := int64(1); want <= 3; want++ {
		got, err := s.Next(ctx, scope)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	cur, err = s.Current(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(3), cur)

	v, err := mr.Get("test:1:5:invoice")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
}

func TestCounterStore_AmbitosIndependientes(t *testing.T) {
	s, _ := setupCounterStore(t)
	ctx := context.Background()
	company := entity.SequenceScope{CompanyID: 1, Kind: entity.ModelInvoice}
	customer := entity.SequenceScope{CompanyID: 1, CustomerID: 2, Kind: entity.ModelInvoice}
	estimate := entity.SequenceScope{CompanyID: 1, Kind: entity.ModelEstimate}

	_, _ = s.Next(ctx, company)
	_, _ = s.Next(ctx, company)
	c, err := s.Next(ctx, customer)
	require.NoError(t, err)
	e, err := s.Next(ctx, estimate)
	require.NoError(t, err)

	assert.Equal(t, int64(1), c)
	assert.Equal(t, int64(1), e)
}

func TestCounterStore_ConcurrenteSinRepetidos(t *testing.T) {
	s, _ := setupCounterStore(t)
	ctx := context.Background()
	scope := entity.SequenceScope{CompanyID: 9, Kind: entity.ModelInvoice}

	var (
		mu   sync.Mutex
		seen = map[int64]bool{}
		wg   sync.WaitGroup
	)
	for w := 0; w < 10; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				v, err := s.Next(ctx, scope)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				assert.False(t, seen[v])
				seen[v] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 200)
}

func TestCounterStore_Seed(t *testing.T) {
	s, _ := setupCounterStore(t)
	ctx := context.Background()
	scope := entity.SequenceScope{CompanyID: 1, Kind: entity.ModelPayment}

	ok, err := s.Seed(ctx, scope, 41)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Seed(ctx, scope, 1)
	require.NoError(t, err)
	assert.False(t, ok, "no pisa un contador existente")

	v, err := s.Next(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
}

func TestNewClient_URLInvalida(t *testing.T) {
	_, err := NewClient(context.Background(), config.RedisConfig{URL: "http://nope"})
	assert.Error(t, err)
}
