package datefmt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/facturacion-recurrente/pkg/datefmt"
)

func TestFormat(t *testing.T) {
	ts := time.Date(2026, time.March, 5, 14, 7, 9, 0, time.UTC)

	cases := map[string]string{
		"Y-m-d":     "2026-03-05",
		"d/m/Y":     "05/03/2026",
		"d M Y":     "05 Mar 2026",
		"M d, Y":    "Mar 05, 2026",
		"j.n.y":     "5.3.26",
		"Y":         "2026",
		"H:i:s":     "14:07:09",
		`\Y\-Y`:     "Y-2026",
		"":          "2026-03-05",
		"F j, Y":    "March 5, 2026",
		"D, d M Y":  "Thu, 05 Mar 2026",
	}
	for format, want := range cases {
		assert.Equal(t, want, datefmt.Format(ts, format), "formato %q", format)
	}
}

func TestFormat_ConservaZonaHoraria(t *testing.T) {
	bogota, err := time.LoadLocation("America/Bogota")
	if err != nil {
		t.Skip("sin base de zonas horarias")
	}
	ts := time.Date(2026, time.March, 31, 22, 30, 0, 0, bogota)

	assert.Equal(t, "2026-03-31 22:30", datefmt.Format(ts, "Y-m-d H:i"))
	assert.Equal(t, "2026-04-01 03:30", datefmt.Format(ts.UTC(), "Y-m-d H:i"))
}
