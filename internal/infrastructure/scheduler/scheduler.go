// Package scheduler dispara el barrido de facturas recurrentes con una expresión cron.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jhoicas/facturacion-recurrente/internal/application/recurring"
	"github.com/jhoicas/facturacion-recurrente/pkg/config"
	"github.com/jhoicas/facturacion-recurrente/pkg/logger"
)

// SweepRunner lo implementa *recurring.Sweeper.
type SweepRunner interface {
	Sweep(ctx context.Context, now time.Time) (*recurring.SweepReport, error)
}

// Scheduler envuelve cron.Cron: un único job de barrido, sin solapes.
type Scheduler struct {
	cron   *cron.Cron
	runner SweepRunner
	log    *logger.Logger
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	last *recurring.SweepReport
}

// New valida la expresión y registra el job. El cron evalúa la expresión en cfg.Timezone.
func New(cfg config.SchedulerConfig, runner SweepRunner, log *logger.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler timezone: %w", err)
	}
	log = log.WithComponent("scheduler")
	cl := cronLogger{log: log}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner: runner,
		log:    log,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
	if _, err := s.cron.AddFunc(cfg.Spec, func() { _, _ = s.RunOnce(s.ctx) }); err != nil {
		cancel()
		return nil, fmt.Errorf("scheduler spec %q: %w", cfg.Spec, err)
	}
	return s, nil
}

// Start arranca el cron en segundo plano.
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		s.log.Info().Time("next", e.Next).Msg("barrido programado")
	}
}

// Stop cancela el barrido en curso y espera a que termine o a que venza ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce ejecuta un barrido inmediato con la hora actual.
func (s *Scheduler) RunOnce(ctx context.Context) (*recurring.SweepReport, error) {
	report, err := s.runner.Sweep(ctx, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("barrido fallido")
	}
	if report != nil {
		s.mu.Lock()
		s.last = report
		s.mu.Unlock()
	}
	return report, err
}

// LastReport último informe de barrido (nil si aún no hubo ninguno).
func (s *Scheduler) LastReport() *recurring.SweepReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// ── cron.Logger sobre zerolog ───────────────────────────────────────────────

type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
