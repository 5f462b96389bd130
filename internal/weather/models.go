package weather

import (
	"bytes"
	"encoding/json"
	"math"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionRainy        Condition = "rainy"
	ConditionPartlyCloudy Condition = "partly cloudy"
	ConditionSunny        Condition = "sunny"
	ConditionCloudy       Condition = "cloudy"
	ConditionClear        Condition = "clear"
	ConditionClearNight   Condition = "clear-night"
)

// Location is a named geographic coordinate the dashboard can display.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Series is a provider value array. JSON nulls decode as NaN so that missing
// samples keep their positional index.
type Series []float64

// UnmarshalJSON implements json.Unmarshaler.
func (s *Series) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}

	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(Series, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	*s = out
	return nil
}

// RawForecast is the forecast payload as returned by the provider. Hourly and
// daily blocks are parallel arrays indexed by position.
type RawForecast struct {
	Timezone         string     `json:"timezone"`
	UTCOffsetSeconds int        `json:"utc_offset_seconds"`
	Current          RawCurrent `json:"current"`
	Hourly           RawHourly  `json:"hourly"`
	Daily            RawDaily   `json:"daily"`
}

// RawCurrent fields are nil when the provider omits them or sends null.
type RawCurrent struct {
	Temperature         *float64 `json:"temperature_2m"`
	ApparentTemperature *float64 `json:"apparent_temperature"`
	IsDay               *int     `json:"is_day"`
}

type RawHourly struct {
	Time                     []string `json:"time"`
	Temperature              Series   `json:"temperature_2m"`
	DewPoint                 Series   `json:"dew_point_2m"`
	WindSpeed                Series   `json:"wind_speed_10m"`
	PrecipitationProbability Series   `json:"precipitation_probability"`
	Rain                     Series   `json:"rain"`
	ShortwaveRadiation       Series   `json:"shortwave_radiation"`
}

type RawDaily struct {
	Time           []string `json:"time"`
	TemperatureMax Series   `json:"temperature_2m_max"`
	TemperatureMin Series   `json:"temperature_2m_min"`
	Sunrise        []string `json:"sunrise"`
	Sunset         []string `json:"sunset"`
}

// CurrentSnapshot is the current-conditions card. Fields listed in Synthetic
// are estimates, not provider measurements.
type CurrentSnapshot struct {
	Temperature int       `json:"temperature"`
	FeelsLike   int       `json:"feelsLike"`
	Condition   Condition `json:"condition"`
	Humidity    int       `json:"humidity"`
	WindSpeed   int       `json:"windSpeed"`
	Visibility  float64   `json:"visibility"`
	Pressure    float64   `json:"pressure"`
	UVIndex     float64   `json:"uvIndex"`
	Sunrise     string    `json:"sunrise"`
	Sunset      string    `json:"sunset"`
	Synthetic   []string  `json:"synthetic,omitempty"`
}

// SeriesPoint is one labelled sample of an hourly chart.
type SeriesPoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// HourlySeries holds four index-aligned charts covering up to 24 hours.
// Pressure is never measured; PressureSynthetic is always true.
type HourlySeries struct {
	Temperature       []SeriesPoint `json:"temperature"`
	Humidity          []SeriesPoint `json:"humidity"`
	Wind              []SeriesPoint `json:"wind"`
	Pressure          []SeriesPoint `json:"pressure"`
	PressureSynthetic bool          `json:"pressureSynthetic"`
}

// Len returns the number of hours in the series.
func (h HourlySeries) Len() int {
	return len(h.Temperature)
}

// ForecastDay summarizes one day of the multi-day forecast.
type ForecastDay struct {
	Date          string    `json:"date"`
	Day           string    `json:"day"`
	Condition     Condition `json:"condition"`
	High          int       `json:"high"`
	Low           int       `json:"low"`
	Humidity      int       `json:"humidity"`
	WindSpeed     int       `json:"windSpeed"`
	Precipitation int       `json:"precipitation"`
	Synthetic     []string  `json:"synthetic,omitempty"`
}

// Dashboard is the complete UI-ready model produced by one pipeline run.
type Dashboard struct {
	Current  CurrentSnapshot `json:"current"`
	Hourly   HourlySeries    `json:"hourly"`
	Forecast []ForecastDay   `json:"forecast"`
}
