// Package bootstrap arma el grafo de dependencias compartido por la API y el worker.
package bootstrap

import (
	"context"
	"fmt"

	goredis "github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jhoicas/facturacion-recurrente/internal/application/numbering"
	"github.com/jhoicas/facturacion-recurrente/internal/application/recurring"
	"github.com/jhoicas/facturacion-recurrente/internal/application/settings"
	domainrecurring "github.com/jhoicas/facturacion-recurrente/internal/domain/recurring"
	"github.com/jhoicas/facturacion-recurrente/internal/domain/repository"
	"github.com/jhoicas/facturacion-recurrente/internal/infrastructure/cache"
	"github.com/jhoicas/facturacion-recurrente/internal/infrastructure/mail"
	"github.com/jhoicas/facturacion-recurrente/internal/infrastructure/metrics"
	"github.com/jhoicas/facturacion-recurrente/internal/infrastructure/pdf"
	"github.com/jhoicas/facturacion-recurrente/internal/infrastructure/postgres"
	"github.com/jhoicas/facturacion-recurrente/internal/infrastructure/redisstore"
	"github.com/jhoicas/facturacion-recurrente/pkg/config"
	"github.com/jhoicas/facturacion-recurrente/pkg/hashid"
	"github.com/jhoicas/facturacion-recurrente/pkg/logger"
)

// App servicios listos para usar.
type App struct {
	Config      *config.Config
	Log         *logger.Logger
	Pool        *pgxpool.Pool
	Redis       *goredis.Client // nil salvo SEQUENCE_BACKEND=redis
	Settings    *settings.Reader
	Allocator   *numbering.Allocator
	Generator   *recurring.Generator
	Sweeper     *recurring.Sweeper
	RecurringUC *recurring.UseCase
	NumberingUC *numbering.PreviewUseCase
	Metrics     *metrics.Metrics
}

// New conecta PostgreSQL (y Redis si aplica) y construye los casos de uso.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	app := &App{Config: cfg, Log: log, Pool: pool}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	app.Metrics = metrics.NewMetrics(registry)

	settingsRepo := cache.NewSettingsCache(postgres.NewSettingsRepository(pool), cfg.Settings.CacheSize, cfg.Settings.CacheTTL)
	app.Settings = settings.NewReader(settingsRepo)

	encoder, err := hashid.New(cfg.Hashids.Salt, cfg.Hashids.MinLength)
	if err != nil {
		app.Close()
		return nil, err
	}

	txRunner := postgres.NewTxRunner(pool)
	var counters repository.SequenceCounterRepository = postgres.NewSequenceCounterRepository(pool)
	if cfg.Sequence.Backend == config.SequenceBackendRedis {
		app.Redis, err = redisstore.NewClient(ctx, cfg.Redis)
		if err != nil {
			app.Close()
			return nil, err
		}
		store := redisstore.NewCounterStore(app.Redis, redisstore.DefaultPrefix)
		counters = store
		txRunner = txRunner.WithCounterStore(store)
	}

	customers := postgres.NewCustomerRepository(pool)
	recurringRepo := postgres.NewRecurringInvoiceRepository(pool)
	app.Allocator = numbering.NewAllocator(counters, postgres.NewNumberingRepository(pool), app.Settings)
	materializer := recurring.NewMaterializer(customers, app.Settings, app.Allocator, encoder)

	handler := recurring.NewNotificationHandler(newNotifier(cfg.Mail, log), postgres.NewCompanyRepository(pool), app.Settings)
	app.Generator = recurring.NewGenerator(txRunner, materializer, app.Settings, log,
		recurring.WithEventHandler(handler),
		recurring.WithAnchor(domainrecurring.AnchorMode(cfg.Scheduler.Anchor)),
		recurring.WithMetrics(app.Metrics),
	)
	app.Sweeper = recurring.NewSweeper(recurringRepo, app.Generator,
		cfg.Scheduler.Workers, cfg.Scheduler.BatchSize, app.Metrics, log)
	app.RecurringUC = recurring.NewUseCase(recurringRepo, txRunner, app.Settings, app.Sweeper)
	app.NumberingUC = numbering.NewPreviewUseCase(app.Allocator, customers)
	return app, nil
}

// Close libera conexiones.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// newNotifier SMTP si hay servidor configurado; si no, solo registra el envío omitido.
func newNotifier(cfg config.MailConfig, log *logger.Logger) recurring.Notifier {
	if !cfg.Enabled() {
		return logNotifier{log: log.WithComponent("mail")}
	}
	var gen mail.InvoicePDF
	if cfg.AttachPDF {
		gen = pdf.NewMarotoPDFGenerator()
	}
	return mail.NewSMTPNotifier(mail.NewDialer(cfg), cfg.From, gen)
}

type logNotifier struct {
	log *logger.Logger
}

func (n logNotifier) SendInvoice(_ context.Context, m recurring.InvoiceMail) error {
	n.log.Warn().
		Str("to", m.To).
		Str("invoice_number", m.Invoice.InvoiceNumber).
		Msg("SMTP no configurado: envío automático omitido")
	return nil
}
