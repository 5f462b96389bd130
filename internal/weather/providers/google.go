package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"
	"golang.org/x/time/rate"

	"github.com/climash/dashboard/internal/common"
	"github.com/climash/dashboard/internal/weather"
)

// geocoder keeps its API key in a package variable.
var googleKeyMu sync.Mutex

// GoogleGeocoder implements weather.Geocoder with the Google Geocoding API.
// It returns at most one place.
type GoogleGeocoder struct {
	apiKey  string
	limiter *rate.Limiter
	lookup  func(geocoder.Address) (geocoder.Location, error)
}

func NewGoogleGeocoder(apiKey string, rps float64, burst int) *GoogleGeocoder {
	return &GoogleGeocoder{
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		lookup:  geocoder.Geocoding,
	}
}

func (g *GoogleGeocoder) Name() string {
	return "google-geocoding"
}

func (g *GoogleGeocoder) Search(ctx context.Context, query string) ([]weather.Place, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("google geocoder api key is not configured")
	}

	city, country := splitQuery(query)
	if city == "" {
		return nil, weather.ErrNoPlaces
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	googleKeyMu.Lock()
	geocoder.ApiKey = g.apiKey
	loc, err := g.lookup(geocoder.Address{City: city, Country: country})
	googleKeyMu.Unlock()
	if err != nil {
		if common.HasAny(err.Error(), "ZERO_RESULTS", "no results") {
			return nil, weather.ErrNoPlaces
		}
		return nil, fmt.Errorf("google geocoding: %w", err)
	}

	return []weather.Place{{
		Name:      city,
		Country:   country,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	}}, nil
}
