package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Facturación recurrente
	ErrCustomerNotFound  = errors.New("cliente de la plantilla recurrente no encontrado")
	ErrCompanyNotFound   = errors.New("empresa no encontrada")
	ErrInvalidFrequency  = errors.New("frecuencia (cron) inválida")
	ErrTemplateCompleted = errors.New("la plantilla recurrente ya está completada")

	// Numeración
	ErrInvalidNumberFormat = errors.New("formato de numeración inválido")
	ErrUnknownModelKind    = errors.New("tipo de documento desconocido para numeración")
)
