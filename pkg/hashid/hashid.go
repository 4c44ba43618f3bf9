// Package hashid codifica IDs numéricos en identificadores públicos opacos y reversibles
// (unique_hash de las facturas).
package hashid

import (
	"fmt"

	"github.com/speps/go-hashids/v2"
)

// Encoder envuelve go-hashids con una sal y longitud mínima fijas.
type Encoder struct {
	h *hashids.HashID
}

// New construye el codificador. La sal debe ser estable entre despliegues: cambiarla
// invalida todos los enlaces públicos ya enviados.
func New(salt string, minLength int) (*Encoder, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	if minLength > 0 {
		hd.MinLength = minLength
	}
	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, fmt.Errorf("hashid: %w", err)
	}
	return &Encoder{h: h}, nil
}

// Encode devuelve el hash público de id.
func (e *Encoder) Encode(id int64) (string, error) {
	if id < 0 {
		return "", fmt.Errorf("hashid: id negativo %d", id)
	}
	s, err := e.h.EncodeInt64([]int64{id})
	if err != nil {
		return "", fmt.Errorf("hashid: encode %d: %w", id, err)
	}
	return s, nil
}

// Decode recupera el id a partir del hash.
func (e *Encoder) Decode(hash string) (int64, error) {
	ids, err := e.h.DecodeInt64WithError(hash)
	if err != nil {
		return 0, fmt.Errorf("hashid: decode %q: %w", hash, err)
	}
	if len(ids) != 1 {
		return 0, fmt.Errorf("hashid: decode %q: se esperaba un id, hay %d", hash, len(ids))
	}
	return ids[0], nil
}
