package hashid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-recurrente/pkg/hashid"
)

func TestEncoder_IdaYVuelta(t *testing.T) {
	enc, err := hashid.New("sal-de-prueba", 20)
	require.NoError(t, err)

	for _, id := range []int64{1, 2, 42, 1_000_000} {
		h, err := enc.Encode(id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(h), 20)

		back, err := enc.Decode(h)
		require.NoError(t, err)
		assert.Equal(t, id, back)
	}
}

func TestEncoder_Determinista(t *testing.T) {
	a, _ := hashid.New("sal", 10)
	b, _ := hashid.New("sal", 10)

	ha, _ := a.Encode(7)
	hb, _ := b.Encode(7)
	assert.Equal(t, ha, hb)
}

func TestEncoder_IdsDistintosHashesDistintos(t *testing.T) {
	enc, _ := hashid.New("sal", 10)
	seen := map[string]int64{}
	for id := int64(1); id <= 500; id++ {
		h, err := enc.Encode(id)
		require.NoError(t, err)
		prev, dup := seen[h]
		require.False(t, dup, "colisión entre %d y %d", prev, id)
		seen[h] = id
	}
}

func TestEncoder_IDNegativo(t *testing.T) {
	enc, _ := hashid.New("sal", 10)
	_, err := enc.Encode(-1)
	assert.Error(t, err)
}
