package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cuotas-api/internal/application/fees"
	"github.com/jhoicas/cuotas-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/cuotas-api/internal/infrastructure/pdf"
	"github.com/jhoicas/cuotas-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/cuotas-api/internal/interfaces/http"
	"github.com/jhoicas/cuotas-api/pkg/config"
	"github.com/jhoicas/cuotas-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	stores, closeStores, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar persistencia")
	}
	defer closeStores()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := fees.NewServices(stores, fees.Options{
		MaxPercent:    decimal.NewFromInt(int64(cfg.Fees.MaxDiscountPercent)),
		GlobalCap:     decimal.NewFromInt(int64(cfg.Fees.GlobalCapPercent)),
		ChunkSize:     cfg.Fees.BatchChunkSize,
		Retention:     time.Duration(cfg.Fees.HistoryRetentionDays) * 24 * time.Hour,
		PruneInterval: time.Duration(cfg.Fees.PruneIntervalMinutes) * time.Minute,
		Registerer:    reg,
		Renderer:      infrapdf.NewStatementRenderer(cfg.App.Name),
		Log:           log,
	})

	svc.Maintenance.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Cuotas API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Batch:      svc.Batch,
		Composer:   svc.Composer,
		Fees:       svc.Fees,
		Statement:  svc.Statement,
		Preview:    svc.Preview,
		Rollback:   svc.Rollback,
		Adjustment: svc.Adjustments,
		Exemption:  svc.Exemptions,
		History:    svc.History,
		Metrics:    reg,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openStores arma los puertos según STORAGE_DRIVER. El cierre devuelto libera el pool.
func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (fees.Stores, func(), error) {
	switch cfg.Storage.Driver {
	case "memory":
		store := memory.NewStore()
		memory.SeedDemo(store)
		log.Warn().Msg("persistencia en memoria: los datos se pierden al reiniciar")
		return fees.Stores{
			Tx:          memory.NewTxRunner(store),
			Members:     store.Members(),
			Categories:  store.Categories(),
			Activities:  store.Activities(),
			Fees:        store.Fees(),
			Items:       store.Items(),
			Adjustments: store.Adjustments(),
			Exemptions:  store.Exemptions(),
			History:     store.History(),
			Receipts:    store.Receipts(),
		}, func() {}, nil

	case "postgres", "":
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return fees.Stores{}, nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		if cfg.Storage.AutoMigrate {
			if err := postgres.MigrateUp(pool); err != nil {
				pool.Close()
				return fees.Stores{}, nil, err
			}
			log.Info().Msg("migraciones aplicadas")
		}
		return fees.Stores{
			Tx:          postgres.NewTxRunner(pool),
			Members:     postgres.NewMemberRepository(pool),
			Categories:  postgres.NewCategoryRepository(pool),
			Activities:  postgres.NewActivityRepository(pool),
			Fees:        postgres.NewFeeRepository(pool),
			Items:       postgres.NewLineItemRepository(pool),
			Adjustments: postgres.NewAdjustmentRepository(pool),
			Exemptions:  postgres.NewExemptionRepository(pool),
			History:     postgres.NewHistoryRepository(pool),
			Receipts:    postgres.NewReceiptRepository(pool),
		}, pool.Close, nil

	default:
		return fees.Stores{}, nil, fmt.Errorf("STORAGE_DRIVER desconocido: %q", cfg.Storage.Driver)
	}
}
