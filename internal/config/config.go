package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/climash/dashboard/internal/weather"
)

type AppConfig struct {
	Port string

	// HTTPTimeout bounds every outbound provider request.
	HTTPTimeout time.Duration

	OpenMeteoURL string
	GeocodingURL string

	// GeocoderAPIKey switches city search to Google geocoding when set.
	GeocoderAPIKey string
	GeocodingRPS   float64
	GeocodingBurst int

	Locale weather.Locale

	// Estimator is "provider" or "random"; EstimatorSeed 0 means time based.
	Estimator     string
	EstimatorSeed int64

	// Watched locations and how often the scheduler checks them.
	WatchLocations []weather.Location
	WatchInterval  time.Duration

	// Session store retention.
	SessionMaxCount int           // 0 = unlimited
	SessionMaxAge   time.Duration // 0 = unlimited

	LogLevel slog.Level
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found or error loading it", "error", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.OpenMeteoURL = getenvDefault("OPEN_METEO_BASE_URL", "https://api.open-meteo.com/v1/forecast")
	cfg.GeocodingURL = getenvDefault("GEOCODING_BASE_URL", "https://geocoding-api.open-meteo.com/v1")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.WatchInterval, err = getenvDuration("WATCH_INTERVAL", "15m"); err != nil {
		return nil, err
	}
	if cfg.SessionMaxAge, err = getenvDuration("SESSION_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	rps, err := strconv.ParseFloat(getenvDefault("GEOCODING_RPS", "2"), 64)
	if err != nil || rps <= 0 {
		return nil, fmt.Errorf("invalid GEOCODING_RPS: %q", os.Getenv("GEOCODING_RPS"))
	}
	cfg.GeocodingRPS = rps
	cfg.GeocodingBurst = getenvInt("GEOCODING_BURST", 4)
	cfg.SessionMaxCount = getenvInt("SESSION_MAX_COUNT", 1000)

	if cfg.Locale, err = weather.ParseLocale(getenvDefault("DASHBOARD_LOCALE", "es")); err != nil {
		return nil, fmt.Errorf("invalid DASHBOARD_LOCALE: %w", err)
	}

	cfg.Estimator = strings.ToLower(getenvDefault("ESTIMATOR", "provider"))
	if cfg.Estimator != "provider" && cfg.Estimator != "random" {
		return nil, fmt.Errorf("invalid ESTIMATOR: %q", cfg.Estimator)
	}
	seed, err := strconv.ParseInt(getenvDefault("ESTIMATOR_SEED", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ESTIMATOR_SEED: %w", err)
	}
	cfg.EstimatorSeed = seed

	if cfg.WatchLocations, err = ParseLocations(os.Getenv("WATCH_LOCATIONS")); err != nil {
		return nil, err
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getenvDefault("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// NewEstimator builds the configured estimator.
func (c *AppConfig) NewEstimator() weather.Estimator {
	if c.Estimator == "random" {
		seed := c.EstimatorSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return weather.NewRandomEstimator(seed)
	}
	return weather.NewProviderEstimator()
}

// ParseLocations parses "name:lat:lon" entries separated by ";".
func ParseLocations(s string) ([]weather.Location, error) {
	var locs []weather.Location
	for _, entry := range strings.Split(s, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid WATCH_LOCATIONS entry %q: want name:lat:lon", entry)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || lat < -90 || lat > 90 {
			return nil, fmt.Errorf("invalid latitude in WATCH_LOCATIONS entry %q", entry)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("invalid longitude in WATCH_LOCATIONS entry %q", entry)
		}
		locs = append(locs, weather.Location{
			Name:      strings.TrimSpace(parts[0]),
			Latitude:  lat,
			Longitude: lon,
		})
	}
	return locs, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
