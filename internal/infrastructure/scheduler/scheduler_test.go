package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-recurrente/internal/application/recurring"
	"github.com/jhoicas/facturacion-recurrente/pkg/config"
	"github.com/jhoicas/facturacion-recurrente/pkg/logger"
)

type fakeRunner struct {
	calls atomic.Int32
	err   error
	at    atomic.Value
}

func (f *fakeRunner) Sweep(_ context.Context, now time.Time) (*recurring.SweepReport, error) {
	f.calls.Add(1)
	f.at.Store(now)
	return &recurring.SweepReport{RunID: "r1", Now: now, Generated: 2}, f.err
}

func schedCfg(spec string) config.SchedulerConfig {
	return config.SchedulerConfig{Spec: spec, Timezone: "America/Bogota", Workers: 1, BatchSize: 10}
}

func TestNew_ExpresionInvalida(t *testing.T) {
	_, err := New(schedCfg("cada lunes"), &fakeRunner{}, logger.Nop())
	assert.Error(t, err)
}

func TestNew_ZonaInvalida(t *testing.T) {
	cfg := schedCfg("0 6 * * *")
	cfg.Timezone = "Marte/Olympus"
	_, err := New(cfg, &fakeRunner{}, logger.Nop())
	assert.Error(t, err)
}

func TestRunOnce_GuardaInforme(t *testing.T) {
	r := &fakeRunner{}
	s, err := New(schedCfg("0 6 * * *"), r, logger.Nop())
	require.NoError(t, err)
	fixed := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	assert.Nil(t, s.LastReport())
	rep, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Generated)
	assert.Equal(t, fixed, r.at.Load())
	assert.Same(t, rep, s.LastReport())
}

func TestRunOnce_ErrorSeRegistra(t *testing.T) {
	var buf bytes.Buffer
	log := logger.FromZerolog(zerolog.New(&buf))
	s, err := New(schedCfg("0 6 * * *"), &fakeRunner{err: errors.New("db caída")}, log)
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	assert.Error(t, err)
	assert.Contains(t, buf.String(), "db caída")
	assert.Contains(t, buf.String(), `"component":"scheduler"`)
}

func TestScheduler_DisparaYSeDetiene(t *testing.T) {
	r := &fakeRunner{}
	s, err := New(schedCfg("@every 1s"), r, logger.Nop())
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return r.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.NotNil(t, s.LastReport())
}
