package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/climash/dashboard/internal/api/http"
	"github.com/climash/dashboard/internal/config"
	"github.com/climash/dashboard/internal/scheduler"
	"github.com/climash/dashboard/internal/store"
	"github.com/climash/dashboard/internal/weather"
	"github.com/climash/dashboard/internal/weather/providers"
)

// Madrid, the dashboard's initial location.
var defaultLocation = weather.Location{Name: "Madrid, España", Latitude: 40.4168, Longitude: -3.7038}

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)
	log.Info("configuration loaded",
		"port", cfg.Port,
		"locale", cfg.Locale.Tag.String(),
		"estimator", cfg.Estimator,
		"watch_locations", len(cfg.WatchLocations))

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	source := providers.NewOpenMeteoProvider(httpClient, cfg.OpenMeteoURL)
	pipeline := weather.NewPipeline(source, cfg.NewEstimator(), cfg.Locale, log)

	// Google geocoding needs an API key; Open-Meteo geocoding does not.
	var geo weather.Geocoder
	if cfg.GeocoderAPIKey != "" {
		geo = providers.NewGoogleGeocoder(cfg.GeocoderAPIKey, cfg.GeocodingRPS, cfg.GeocodingBurst)
	} else {
		geo = providers.NewOpenMeteoGeocoder(cfg.GeocodingURL, cfg.Locale.Tag.String(), cfg.HTTPTimeout, cfg.GeocodingRPS, cfg.GeocodingBurst)
	}
	log.Info("location search ready", "geocoder", geo.Name())

	sessions := store.NewMemoryStore(cfg.SessionMaxCount, cfg.SessionMaxAge)

	// Scheduler that periodically logs conditions for watched locations.
	sched := scheduler.New(cfg.WatchLocations, cfg.WatchInterval, pipeline, log)
	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "climash",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.HTTPTimeout + 5*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "climash",
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Deps{
		Runner:          pipeline,
		Geocoder:        geo,
		Sessions:        sessions,
		DefaultLocation: defaultLocation,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
}
