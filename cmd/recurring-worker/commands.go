package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/facturacion-recurrente/internal/application/recurring"
	"github.com/jhoicas/facturacion-recurrente/internal/bootstrap"
	"github.com/jhoicas/facturacion-recurrente/internal/infrastructure/postgres"
	"github.com/jhoicas/facturacion-recurrente/internal/infrastructure/redisstore"
	"github.com/jhoicas/facturacion-recurrente/internal/infrastructure/scheduler"
)

// ── run ───────────────────────────────────────────────────────────────────────

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Demonio: barre según SCHEDULER_SPEC hasta recibir SIGINT/SIGTERM",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, func(app *bootstrap.App) error {
			sched, err := scheduler.New(cfg.Scheduler, app.Sweeper, log)
			if err != nil {
				return err
			}
			sched.Start()
			log.Info().Str("spec", cfg.Scheduler.Spec).Str("timezone", cfg.Scheduler.Timezone).Msg("worker iniciado")

			<-ctx.Done()
			log.Info().Msg("señal de apagado recibida")
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return sched.Stop(stopCtx)
		})
	},
}

// ── sweep ─────────────────────────────────────────────────────────────────────

var (
	sweepAt        string
	sweepFailOnErr bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Un barrido inmediato; imprime el informe en JSON",
	Example: `  recurring-worker sweep
  recurring-worker sweep --at 2026-03-01T06:00:00-05:00 --fail-on-error`,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		if sweepAt != "" {
			t, err := time.Parse(time.RFC3339, sweepAt)
			if err != nil {
				return fmt.Errorf("--at debe ser RFC3339: %w", err)
			}
			now = t
		}
		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			report, err := app.Sweeper.Sweep(cmd.Context(), now)
			if report != nil {
				if perr := printJSON(cmd.OutOrStdout(), recurring.ToSweepResponse(report)); perr != nil {
					return perr
				}
			}
			if err != nil {
				return err
			}
			if sweepFailOnErr && len(report.Failures) > 0 {
				return fmt.Errorf("%d plantillas fallaron", len(report.Failures))
			}
			return nil
		})
	},
}

// ── next-date ─────────────────────────────────────────────────────────────────

var (
	nextDateCompany   int64
	nextDateFrequency string
	nextDateStartsAt  string
	nextDateCount     int
)

var nextDateCmd = &cobra.Command{
	Use:     "next-date",
	Short:   "Vista previa de las próximas fechas de factura de una frecuencia cron",
	Example: `  recurring-worker next-date --company 1 --frequency "0 9 1 * *" --starts-at 2026-03-10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			out, err := app.RecurringUC.FrequencyPreview(cmd.Context(), nextDateCompany, nextDateFrequency, nextDateStartsAt, nextDateCount)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		})
	},
}

// ── next-number ───────────────────────────────────────────────────────────────

var (
	nextNumberCompany  int64
	nextNumberKey      string
	nextNumberCustomer int64
	nextNumberModel    int64
)

var nextNumberCmd = &cobra.Command{
	Use:     "next-number",
	Short:   "Número que recibiría el próximo documento (no consume el contador)",
	Example: `  recurring-worker next-number --company 1 --key invoice --customer 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var model *int64
		if nextNumberModel > 0 {
			model = &nextNumberModel
		}
		return withApp(cmd.Context(), func(app *bootstrap.App) error {
			out, err := app.NumberingUC.NextNumber(cmd.Context(), nextNumberCompany, nextNumberKey, nextNumberCustomer, model)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		})
	},
}

// ── migrate ───────────────────────────────────────────────────────────────────

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Aplica las migraciones SQL embebidas",
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, err := postgres.NewPool(cmd.Context(), cfg.DB)
		if err != nil {
			return err
		}
		defer pool.Close()
		applied, err := postgres.Migrate(cmd.Context(), pool)
		if err != nil {
			return err
		}
		for _, name := range applied {
			log.Info().Str("migration", name).Msg("aplicada")
		}
		return nil
	},
}

// ── sync-counters ─────────────────────────────────────────────────────────────

var syncCountersCmd = &cobra.Command{
	Use:   "sync-counters",
	Short: "Copia sequence_counters a Redis antes de pasar a SEQUENCE_BACKEND=redis",
	Long: `Copia cada contador de la tabla sequence_counters a Redis con SETNX: las claves que ya
existen en Redis no se tocan, de modo que repetir el comando nunca hace retroceder un contador.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer pool.Close()
		client, err := redisstore.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()

		snapshot, err := postgres.NewSequenceCounterRepository(pool).Snapshot(ctx)
		if err != nil {
			return err
		}
		store := redisstore.NewCounterStore(client, redisstore.DefaultPrefix)
		copied := 0
		for scope, v := range snapshot {
			ok, err := store.Seed(ctx, scope, v)
			if err != nil {
				return err
			}
			if ok {
				copied++
			}
		}
		log.Info().Int("counters", len(snapshot)).Int("copied", copied).Msg("contadores sincronizados")
		return nil
	},
}

func init() {
	sweepCmd.Flags().StringVar(&sweepAt, "at", "", "instante de referencia RFC3339 (default: ahora)")
	sweepCmd.Flags().BoolVar(&sweepFailOnErr, "fail-on-error", false, "salir con código 1 si alguna plantilla falla")

	nextDateCmd.Flags().Int64Var(&nextDateCompany, "company", 0, "empresa (zona horaria)")
	nextDateCmd.Flags().StringVar(&nextDateFrequency, "frequency", "", "expresión cron de 5 campos")
	nextDateCmd.Flags().StringVar(&nextDateStartsAt, "starts-at", "", "RFC3339 o YYYY-MM-DD (default: ahora)")
	nextDateCmd.Flags().IntVar(&nextDateCount, "count", 5, "ocurrencias a mostrar (máx. 12)")
	_ = nextDateCmd.MarkFlagRequired("company")
	_ = nextDateCmd.MarkFlagRequired("frequency")

	nextNumberCmd.Flags().Int64Var(&nextNumberCompany, "company", 0, "empresa")
	nextNumberCmd.Flags().StringVar(&nextNumberKey, "key", "invoice", "invoice | estimate | payment")
	nextNumberCmd.Flags().Int64Var(&nextNumberCustomer, "customer", 0, "cliente (contador por cliente)")
	nextNumberCmd.Flags().Int64Var(&nextNumberModel, "model", 0, "documento existente: devuelve su número")
	_ = nextNumberCmd.MarkFlagRequired("company")
}
