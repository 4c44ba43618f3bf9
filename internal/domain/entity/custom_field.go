package entity

// CustomFieldValue respuesta por defecto de un campo personalizado, copiada tal cual.
type CustomFieldValue struct {
	ID            int64
	CustomFieldID int64
	Value         string
}
