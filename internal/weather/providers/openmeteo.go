package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/climash/dashboard/internal/weather"
)

const (
	DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

	openMeteoCurrent = "temperature_2m,apparent_temperature,is_day"
	openMeteoHourly  = "temperature_2m,dew_point_2m,wind_speed_10m,precipitation_probability,rain,shortwave_radiation"
	openMeteoDaily   = "temperature_2m_max,temperature_2m_min,sunrise,sunset"
)

// OpenMeteoProvider implements weather.ForecastSource for Open-Meteo.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewOpenMeteoProvider creates the provider. An empty baseURL selects the
// public endpoint.
func NewOpenMeteoProvider(client *http.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	return &OpenMeteoProvider{
		name:    "openmeteo",
		baseURL: baseURL,
		client:  client,
		circuit: newBreaker("openmeteo", 30*time.Second),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

// FetchForecast issues one combined current/hourly/daily request. The
// provider resolves the timezone from the coordinate.
func (p *OpenMeteoProvider) FetchForecast(ctx context.Context, latitude, longitude float64) (*weather.RawForecast, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(latitude, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(longitude, 'f', -1, 64))
	values.Set("current", openMeteoCurrent)
	values.Set("hourly", openMeteoHourly)
	values.Set("daily", openMeteoDaily)
	values.Set("timezone", "auto")

	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, weather.NewFetchFailure(weather.StageTransport, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := doRequest(ctx, p.client, p.circuit, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload weather.RawForecast
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, weather.NewFetchFailure(weather.StageDecode, err)
	}
	return &payload, nil
}
