package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jhoicas/facturacion-recurrente/internal/bootstrap"
	"github.com/jhoicas/facturacion-recurrente/pkg/config"
	"github.com/jhoicas/facturacion-recurrente/pkg/logger"
)

var (
	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "recurring-worker",
	Short: "Generación periódica de facturas desde plantillas recurrentes",
	Long: `recurring-worker barre las plantillas recurrentes vencidas y genera sus facturas.

La configuración se lee del entorno (y de .env si existe): DATABASE_URL o DB_*,
SCHEDULER_SPEC, SCHEDULER_TIMEZONE, SCHEDULER_WORKERS, RECURRING_ANCHOR,
SEQUENCE_BACKEND, REDIS_URL, SMTP_*, HASHIDS_SALT.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		log = logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).
			WithComponent("worker:" + cmd.Name())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd, sweepCmd, nextDateCmd, nextNumberCmd, migrateCmd, syncCountersCmd)
}

// withApp construye los servicios, ejecuta fn y libera las conexiones.
func withApp(ctx context.Context, fn func(app *bootstrap.App) error) error {
	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode salida: %w", err)
	}
	return nil
}
