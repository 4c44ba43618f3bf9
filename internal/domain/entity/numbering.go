package entity

// Tipos de documento que se numeran con contadores propios.
const (
	ModelInvoice  = "invoice"
	ModelEstimate = "estimate"
	ModelPayment  = "payment"
)

// ModelKinds lista los tipos numerables.
var ModelKinds = []string{ModelInvoice, ModelEstimate, ModelPayment}

// IsModelKind valida un tipo de documento.
func IsModelKind(kind string) bool {
	for _, k := range ModelKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// SequenceScope identifica un contador monotónico.
// CustomerID = 0 es el contador de empresa; > 0 el contador del cliente dentro de la empresa.
type SequenceScope struct {
	CompanyID  int64
	CustomerID int64
	Kind       string
}

// CompanyScope devuelve el ámbito de empresa del mismo tipo.
func (s SequenceScope) CompanyScope() SequenceScope {
	return SequenceScope{CompanyID: s.CompanyID, Kind: s.Kind}
}

// Numbering es el número ya asignado a un documento.
type Numbering struct {
	Number                 string
	SequenceNumber         int64
	CustomerSequenceNumber int64
}
