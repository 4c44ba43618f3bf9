package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaxAmount_CentinelaNULL(t *testing.T) {
	for _, raw := range []string{`"NULL"`, `null`, `""`} {
		var a TaxAmount
		require.NoError(t, json.Unmarshal([]byte(raw), &a), raw)
		assert.False(t, a.Valid, raw)
	}
}

func TestTaxAmount_ImporteReal(t *testing.T) {
	for _, raw := range []string{`50.0`, `"50.0"`} {
		var a TaxAmount
		require.NoError(t, json.Unmarshal([]byte(raw), &a), raw)
		require.True(t, a.Valid, raw)
		assert.Equal(t, "50", a.Decimal.String())
	}
}

func TestTaxAmount_Invalido(t *testing.T) {
	var a TaxAmount
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &a))
}

func TestTaxAmount_Marshal(t *testing.T) {
	var body struct {
		Amount TaxAmount `json:"amount"`
	}
	b, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":null}`, string(b))

	require.NoError(t, json.Unmarshal([]byte(`{"amount":"12.5"}`), &body))
	b, err = json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"12.5"}`, string(b))
}
