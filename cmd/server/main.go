package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"rideshare/internal/app"
	"rideshare/internal/auth"
	"rideshare/internal/config"
	"rideshare/internal/handler"
	"rideshare/internal/logger"
	"rideshare/internal/metrics"
	"rideshare/internal/notify"
	internalRedis "rideshare/internal/redis"
	"rideshare/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		os.Stderr.WriteString("failed to create logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", logger.Err(err))
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		var err error
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Warn("failed to initialize New Relic", logger.Err(err))
			nrApp = nil
		} else {
			log.Info("New Relic enabled", logger.String("app", cfg.NewRelic.AppName))
			defer nrApp.Shutdown(5 * time.Second)
		}
	}

	stores, err := app.OpenStores(ctx, cfg, nrApp)
	if err != nil {
		return err
	}
	defer stores.Close()
	log.Info("store connected", logger.String("driver", cfg.Store.Driver))

	var redisClient *redis.Client
	var rideCache service.RideCache
	if cfg.Redis.Enabled {
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		rideCache = internalRedis.NewCacheStore(redisClient, cfg.Redis.CacheTTL)
		log.Info("redis connected", logger.String("addr", cfg.Redis.Addr))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := notify.NewHub(log.With(logger.String("component", "notify")))
	go hub.Run(hubCtx)

	// Wire dependencies.
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	authService := service.NewAuthService(stores.Users, hasher, tokens, m, log)
	notificationService := service.NewNotificationService(hub, log)
	rideService := service.NewRideService(stores.Rides, stores.Users, rideCache, notificationService, m, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(cfg.Server.GinMode)
	}

	router := app.NewRouter(app.RouterDeps{
		AuthHandler:   handler.NewAuthHandler(authService),
		RideHandler:   handler.NewRideHandler(rideService),
		NotifyHandler: handler.NewNotifyHandler(hub, log),
		TokenParser:   authService,
		RedisClient:   redisClient,
		NewRelicApp:   nrApp,
		Metrics:       m,
		Logger:        log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine.
	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server", logger.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		log.Info("shutting down server", logger.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	stopHub()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("server exited")
	return nil
}
