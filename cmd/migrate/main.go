// Command migrate aplica o revierte las migraciones embebidas del esquema de cuotas.
//
//	migrate up
//	migrate down --steps 1
//	migrate version
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/jhoicas/cuotas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/cuotas-api/pkg/config"
	"github.com/jhoicas/cuotas-api/pkg/logger"
)

func main() {
	flags := pflag.NewFlagSet("migrate", pflag.ExitOnError)
	steps := flags.Int("steps", 0, "cantidad de migraciones a revertir con down (0 = todas)")
	timeout := flags.Duration("timeout", 30*time.Second, "tiempo máximo para conectar")
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "uso: migrate [up|down|version] [--steps N]")
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	cmd := "up"
	if flags.NArg() > 0 {
		cmd = flags.Arg(0)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Named("migrate")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	switch cmd {
	case "up":
		err = postgres.MigrateUp(pool)
	case "down":
		err = postgres.MigrateDown(pool, *steps)
	case "version":
	default:
		flags.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Str("cmd", cmd).Msg("migración fallida")
	}

	version, dirty, err := postgres.MigrationVersion(pool)
	if err != nil {
		log.Fatal().Err(err).Msg("leer versión del esquema")
	}
	log.Info().Str("cmd", cmd).Uint("version", version).Bool("dirty", dirty).Msg("esquema actualizado")
}
