package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parcel-relay/internal/api"
	"parcel-relay/internal/config"
	"parcel-relay/internal/logger"
	"parcel-relay/internal/modules/matching"
	"parcel-relay/internal/modules/notify"
	"parcel-relay/internal/modules/parcels"
	"parcel-relay/internal/modules/trips"
	"parcel-relay/pkg/email"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	log := logger.New()
	defer log.Sync()

	// 1. --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	// 2. --- Database Connection ---
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("unable to parse database configuration", zap.Error(err))
	}

	dbPool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatal("unable to create connection pool", zap.Error(err))
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		log.Fatal("unable to ping database", zap.Error(err))
	}
	log.Info("connected to the database")

	// 3. --- Optional collaborators: Redis geo index, email notifier ---
	var tripIndex *matching.TripIndex
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatal("unable to ping redis", zap.Error(err))
		}
		tripIndex = matching.NewTripIndex(rdb)
		log.Info("trip origin geo index enabled")
	}

	var notifier matching.Notifier
	if cfg.NotificationsOn {
		sender, err := email.NewSESV2Sender(context.Background(), cfg.AWSRegion, cfg.EmailFromAddr)
		if err != nil {
			log.Fatal("unable to initialize SES sender", zap.Error(err))
		}
		templates, err := email.NewTemplateManager()
		if err != nil {
			log.Fatal("unable to parse email templates", zap.Error(err))
		}
		contacts := notify.NewPgContactDirectory(dbPool)
		notifier = notify.NewEmailNotifier(sender, templates, contacts, log)
		log.Info("email notifications enabled")
	}

	// 4. --- Dependency Injection (Wiring everything up) ---
	parcelRepo := parcels.NewRepository(dbPool)
	tripRepo := trips.NewRepository(dbPool)
	matchRepo := matching.NewMatchRepository(dbPool)

	scorer := matching.NewScorer(cfg.Matching)

	var index matching.CandidateIndex
	if tripIndex != nil {
		index = tripIndex
	}
	orchestrator := matching.NewOrchestrator(
		parcelRepo, tripRepo, matchRepo, scorer, index, notifier, cfg.Matching, log)

	dispatcher := matching.NewDispatcher(cfg.Matching.QueueSize, log)
	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	dispatcher.Start(dispatcherCtx, cfg.Matching.Workers)

	engine := matching.NewEngine(orchestrator, matchRepo, dispatcher, log)

	parcelService := parcels.NewService(parcelRepo, engine, log)
	parcelHandler := parcels.NewHandler(parcelService)

	var originIndex trips.OriginIndex
	if tripIndex != nil {
		originIndex = tripIndex
	}
	tripService := trips.NewService(tripRepo, engine, originIndex, log)
	tripHandler := trips.NewHandler(tripService)

	matchService := matching.NewMatchService(matchRepo, parcelRepo, tripRepo, notifier, log)
	matchHandler := matching.NewHandler(matchService)

	// 5. --- HTTP Server ---
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{cfg.ClientOrigin},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, "X-Actor-ID"},
	}))

	api.SetupRoutes(e, parcelHandler, tripHandler, matchHandler)

	go func() {
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			log.Fatal("server stopped unexpectedly", zap.Error(err))
		}
	}()

	// 6. --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	// Let in-flight background matching finish before exiting.
	dispatcher.Stop()
	stopDispatcher()

	log.Info("server exiting")
}
