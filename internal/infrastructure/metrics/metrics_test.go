package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-recurrente/internal/application/recurring"
)

var _ recurring.Metrics = (*Metrics)(nil)

func TestMetrics_Barrido(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveSweep(2 * time.Second)
	m.ObserveTemplate("generated", 10*time.Millisecond)
	m.ObserveTemplate("generated", 12*time.Millisecond)
	m.ObserveTemplate("failed", time.Millisecond)
	m.NotificationFailed()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.SweepsTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.TemplatesTotal.WithLabelValues("generated")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TemplatesTotal.WithLabelValues("failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationFailures))
	assert.Equal(t, 2, testutil.CollectAndCount(m.TemplateDuration))
}

func TestMetrics_HTTP(t *testing.T) {
	m := NewMetrics(nil)
	m.ObserveHTTP("GET", "/api/recurring-invoices", "200", 5*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/recurring-invoices", "200")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ObserveSweep(time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "recurring_sweeps_total 1")
}
