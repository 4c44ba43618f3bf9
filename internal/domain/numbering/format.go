// Package numbering interpreta los formatos de numeración configurables por empresa,
// por ejemplo "{{SERIES:INV}}{{DELIMITER:-}}{{SEQUENCE:6}}" → "INV-000042".
package numbering

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/facturacion-recurrente/internal/domain"
	"github.com/jhoicas/facturacion-recurrente/pkg/datefmt"
)

// Marcadores soportados.
const (
	PlaceholderSeries           = "SERIES"
	PlaceholderDelimiter        = "DELIMITER"
	PlaceholderSequence         = "SEQUENCE"
	PlaceholderCustomerSeries   = "CUSTOMER_SERIES"
	PlaceholderCustomerSequence = "CUSTOMER_SEQUENCE"
	PlaceholderDateFormat       = "DATE_FORMAT"
)

const (
	defaultPadding = 6
	maxPadding     = 20
)

// Formatos por defecto por tipo de documento.
var DefaultFormats = map[string]string{
	"invoice":  "{{SERIES:INV}}{{DELIMITER:-}}{{SEQUENCE:6}}",
	"estimate": "{{SERIES:EST}}{{DELIMITER:-}}{{SEQUENCE:6}}",
	"payment":  "{{SERIES:PAY}}{{DELIMITER:-}}{{SEQUENCE:6}}",
}

var placeholderRe = regexp.MustCompile(`\{\{([A-Z_]+)(?::([^}]*))?\}\}`)

type part struct {
	name    string // "" = texto literal
	arg     string
	padding int
}

// Format formato de numeración ya validado.
type Format struct {
	raw   string
	parts []part
}

// Values datos con los que se renderiza un número.
type Values struct {
	Sequence         int64
	CustomerSequence int64
	CustomerSeries   string
	Date             time.Time
}

// Parse valida el formato. Debe contener {{SEQUENCE}}: el contador de empresa es el único que
// no se repite entre clientes, y las facturas son únicas por (empresa, número).
func Parse(raw string) (*Format, error) {
	f := &Format{raw: raw}
	hasSequence := false
	last := 0
	for _, m := range placeholderRe.FindAllStringSubmatchIndex(raw, -1) {
		if m[0] > last {
			f.parts = append(f.parts, part{arg: raw[last:m[0]]})
		}
		last = m[1]

		p := part{name: raw[m[2]:m[3]]}
		if m[4] >= 0 {
			p.arg = raw[m[4]:m[5]]
		}
		switch p.name {
		case PlaceholderSeries, PlaceholderDelimiter, PlaceholderCustomerSeries, PlaceholderDateFormat:
		case PlaceholderSequence, PlaceholderCustomerSequence:
			if p.name == PlaceholderSequence {
				hasSequence = true
			}
			p.padding = defaultPadding
			if p.arg != "" {
				n, err := strconv.Atoi(p.arg)
				if err != nil || n < 1 || n > maxPadding {
					return nil, fmt.Errorf("%w: relleno %q en %s", domain.ErrInvalidNumberFormat, p.arg, p.name)
				}
				p.padding = n
			}
		default:
			return nil, fmt.Errorf("%w: marcador desconocido %s", domain.ErrInvalidNumberFormat, p.name)
		}
		f.parts = append(f.parts, p)
	}
	if last < len(raw) {
		f.parts = append(f.parts, part{arg: raw[last:]})
	}
	if !hasSequence {
		return nil, fmt.Errorf("%w: %q no contiene SEQUENCE", domain.ErrInvalidNumberFormat, raw)
	}
	return f, nil
}

// String devuelve el formato original.
func (f *Format) String() string { return f.raw }

// Render produce el número. Es determinista: mismos valores, mismo resultado.
func (f *Format) Render(v Values) string {
	var b strings.Builder
	for _, p := range f.parts {
		switch p.name {
		case "", PlaceholderSeries, PlaceholderDelimiter:
			b.WriteString(p.arg)
		case PlaceholderCustomerSeries:
			if v.CustomerSeries != "" {
				b.WriteString(v.CustomerSeries)
			} else {
				b.WriteString(p.arg)
			}
		case PlaceholderSequence:
			b.WriteString(pad(v.Sequence, p.padding))
		case PlaceholderCustomerSequence:
			b.WriteString(pad(v.CustomerSequence, p.padding))
		case PlaceholderDateFormat:
			b.WriteString(datefmt.Format(v.Date, p.arg))
		}
	}
	return b.String()
}

func pad(n int64, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}
