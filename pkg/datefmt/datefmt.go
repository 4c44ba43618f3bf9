// Package datefmt formatea fechas con los formatos estilo PHP que guardan los ajustes de
// empresa (carbon_date_format, {{DATE_FORMAT:Y}} en los formatos de numeración).
package datefmt

import (
	"time"

	"github.com/dromara/carbon/v2"
)

// Default es el formato usado cuando la empresa no tiene uno configurado.
const Default = "Y-m-d"

// Format aplica el formato PHP phpFormat a t en la zona de t. "\" escapa el siguiente
// carácter.
func Format(t time.Time, phpFormat string) string {
	if phpFormat == "" {
		phpFormat = Default
	}
	return carbon.CreateFromStdTime(t).Format(phpFormat)
}
