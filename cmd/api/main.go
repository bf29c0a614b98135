package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"itemapi/internal/config"
	"itemapi/internal/database"
	"itemapi/internal/database/migration"
	handlers "itemapi/internal/http/handler"
	"itemapi/internal/http/middleware"
	"itemapi/internal/logging"
	"itemapi/internal/metrics"
	"itemapi/internal/model"
	"itemapi/internal/otel"
	"itemapi/internal/repository/sqlstore"
	"itemapi/internal/service"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	zerolog.MessageFieldName = "msg"
	loc, err := time.LoadLocation(cfg.Log.TZLocation)
	if err != nil {
		loc = time.UTC
	}
	log.Logger = logging.New(cfg.Log.Level, loc, os.Stdout)
	if err != nil {
		log.Warn().Str("component", "main").Str("tz", cfg.Log.TZLocation).Err(err).Msg("unknown time zone, using UTC")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracing")
	}

	db, dialect, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migration.EnsureMigrated(ctx, db, dialect, log.Logger); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	recorder, err := metrics.NewRecorder(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register model metrics")
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to register http metrics")
	}

	mm := model.NewManager(db, dialect,
		model.WithListLimits(cfg.List.LimitDefault, cfg.List.LimitMax),
		model.WithObserver(recorder),
		model.WithLogger(log.Logger),
	)
	itemSvc := service.NewItemService(sqlstore.NewItemStore(mm))

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log.Logger))
	app.Use(promMiddleware.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	handlers.RegisterRoutes(app, db, itemSvc, middleware.Auth(cfg.Auth))

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("component", "main").Str("addr", addr).Str("driver", dialect.Name()).Msg("itemapi started")
		if err := app.Listen(addr); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Str("component", "main").Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown error")
	}
}
