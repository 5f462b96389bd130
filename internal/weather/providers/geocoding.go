package providers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/climash/dashboard/internal/common"
	"github.com/climash/dashboard/internal/weather"
)

const DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1"

// OpenMeteoGeocoder implements weather.Geocoder with the Open-Meteo
// geocoding API.
type OpenMeteoGeocoder struct {
	client   *resty.Client
	limiter  *rate.Limiter
	language string
}

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Admin1    string  `json:"admin1"`
		Country   string  `json:"country"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

// NewOpenMeteoGeocoder creates a geocoder limited to rps requests per second.
func NewOpenMeteoGeocoder(baseURL, language string, timeout time.Duration, rps float64, burst int) *OpenMeteoGeocoder {
	if baseURL == "" {
		baseURL = DefaultGeocodingURL
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &OpenMeteoGeocoder{
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		language: language,
	}
}

func (g *OpenMeteoGeocoder) Name() string {
	return "openmeteo-geocoding"
}

// Search looks up query. A "City, Region" query searches by city and keeps
// only results whose region or country contains the second part; the API
// does not accept the region itself.
func (g *OpenMeteoGeocoder) Search(ctx context.Context, query string) ([]weather.Place, error) {
	name, region := splitQuery(query)
	if name == "" {
		return nil, weather.ErrNoPlaces
	}

	count := 5
	if region != "" {
		count = 10
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}

	var out geocodingResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"name":     name,
			"count":    strconv.Itoa(count),
			"language": g.language,
			"format":   "json",
		}).
		ForceContentType("application/json").
		SetResult(&out).
		Get("/search")
	if err != nil {
		return nil, fmt.Errorf("geocoding request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("geocoding: %w: %d", errUnexpected, resp.StatusCode())
	}

	places := make([]weather.Place, 0, len(out.Results))
	for _, r := range out.Results {
		if region != "" && !common.HasAny(r.Admin1, region) && !common.HasAny(r.Country, region) {
			continue
		}
		places = append(places, weather.Place{
			Name:      r.Name,
			Region:    r.Admin1,
			Country:   r.Country,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		})
	}

	if len(places) == 0 {
		return nil, weather.ErrNoPlaces
	}
	return places, nil
}

// splitQuery separates "City, Region" into its trimmed parts.
func splitQuery(query string) (name, region string) {
	name, region, _ = strings.Cut(query, ",")
	return strings.TrimSpace(name), strings.TrimSpace(region)
}
