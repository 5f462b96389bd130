package weather

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

const (
	hourlyWindow = 24
	forecastDays = 7

	hourLayout = "2006-01-02T15:04"
	dayLayout  = "2006-01-02"
)

// Pipeline turns one provider response into a Dashboard. It keeps no state
// between runs and is safe for concurrent use.
type Pipeline struct {
	source    ForecastSource
	estimator Estimator
	locale    Locale
	logger    *slog.Logger
	now       func() time.Time
}

// NewPipeline creates a Pipeline. A nil estimator selects the
// ProviderEstimator; a nil logger selects slog.Default().
func NewPipeline(source ForecastSource, estimator Estimator, locale Locale, logger *slog.Logger) *Pipeline {
	if estimator == nil {
		estimator = NewProviderEstimator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:    source,
		estimator: estimator,
		locale:    locale,
		logger:    logger,
		now:       time.Now,
	}
}

// Run fetches the forecast for a coordinate and normalizes it. Any error is a
// *FetchFailure and the returned Dashboard is nil.
func (p *Pipeline) Run(ctx context.Context, latitude, longitude float64) (*Dashboard, error) {
	start := p.now()

	raw, err := p.source.FetchForecast(ctx, latitude, longitude)
	if err != nil {
		if !IsFetchFailure(err) {
			err = NewFetchFailure(StageTransport, err)
		}
		p.logger.Warn("forecast fetch failed",
			"provider", p.source.Name(),
			"lat", latitude,
			"lon", longitude,
			"error", err)
		return nil, err
	}

	dash, err := p.Normalize(raw, start)
	if err != nil {
		p.logger.Warn("forecast rejected",
			"provider", p.source.Name(),
			"lat", latitude,
			"lon", longitude,
			"error", err)
		return nil, err
	}

	p.logger.Debug("dashboard built",
		"lat", latitude,
		"lon", longitude,
		"hours", dash.Hourly.Len(),
		"days", len(dash.Forecast))
	return dash, nil
}

// Normalize validates raw and maps it into a Dashboard. now selects the
// representative hourly sample for the current conditions.
func (p *Pipeline) Normalize(raw *RawForecast, now time.Time) (*Dashboard, error) {
	if raw == nil {
		return nil, NewFetchFailure(StageDecode, fmt.Errorf("empty response"))
	}

	zone := time.FixedZone(raw.Timezone, raw.UTCOffsetSeconds)

	cur, err := parseCurrent(raw.Current)
	if err != nil {
		return nil, err
	}
	hours, err := parseHours(raw.Hourly, zone)
	if err != nil {
		return nil, err
	}
	days, err := parseDays(raw.Daily, zone)
	if err != nil {
		return nil, err
	}
	attachHours(days, hours)

	idx := currentHourIndex(now, zone, len(hours))

	return &Dashboard{
		Current:  p.current(cur, hours[idx], days[0]),
		Hourly:   p.hourly(hours),
		Forecast: p.forecast(days),
	}, nil
}

func currentHourIndex(now time.Time, zone *time.Location, n int) int {
	h := now.In(zone).Hour()
	if h >= n {
		return 0
	}
	return h
}

func (p *Pipeline) current(cur currentReading, hour HourSample, today DaySample) CurrentSnapshot {
	amb := p.estimator.Ambient()
	return CurrentSnapshot{
		Temperature: roundInt(cur.Temperature),
		FeelsLike:   roundInt(cur.ApparentTemperature),
		Condition:   ClassifyCondition(hour.PrecipitationProbability, cur.IsDay, hour.Radiation),
		Humidity:    RelativeHumidity(cur.Temperature, hour.DewPoint),
		WindSpeed:   roundInt(hour.WindSpeed),
		Visibility:  amb.Visibility,
		Pressure:    amb.Pressure,
		UVIndex:     amb.UVIndex,
		Sunrise:     clockLabel(today.Sunrise),
		Sunset:      clockLabel(today.Sunset),
		Synthetic:   []string{FieldVisibility, FieldPressure, FieldUVIndex},
	}
}

func (p *Pipeline) hourly(hours []HourSample) HourlySeries {
	n := min(hourlyWindow, len(hours))
	series := HourlySeries{
		Temperature:       make([]SeriesPoint, n),
		Humidity:          make([]SeriesPoint, n),
		Wind:              make([]SeriesPoint, n),
		Pressure:          make([]SeriesPoint, n),
		PressureSynthetic: true,
	}

	for i, h := range hours[:n] {
		label := TimeLabel(h.Time)
		series.Temperature[i] = SeriesPoint{Time: label, Value: math.Round(h.Temperature)}
		series.Humidity[i] = SeriesPoint{Time: label, Value: float64(h.Humidity())}
		series.Wind[i] = SeriesPoint{Time: label, Value: math.Round(h.WindSpeed)}
		series.Pressure[i] = SeriesPoint{Time: label, Value: p.estimator.Pressure(i)}
	}
	return series
}

func (p *Pipeline) forecast(days []DaySample) []ForecastDay {
	n := min(forecastDays, len(days))
	out := make([]ForecastDay, 0, n)

	for _, d := range days[:n] {
		est := p.estimator.Day(d)
		out = append(out, ForecastDay{
			Date:          p.locale.DateLabel(d.Index, d.Date),
			Day:           p.locale.Weekday(d.Date),
			Condition:     ClassifyCondition(est.PrecipitationProbability, true, est.Radiation),
			High:          roundInt(d.High),
			Low:           roundInt(d.Low),
			Humidity:      roundInt(est.Humidity),
			WindSpeed:     roundInt(est.WindSpeed),
			Precipitation: roundInt(est.Precipitation),
			Synthetic:     est.Synthetic,
		})
	}
	return out
}

func clockLabel(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return TimeLabel(t)
}

type column struct {
	name string
	n    int
}

func checkColumns(block string, n int, cols ...column) error {
	if n == 0 {
		return NewFetchFailure(StageValidate, fmt.Errorf("%s: %w", block, errEmptySeries))
	}
	for _, c := range cols {
		if c.n != n {
			return NewFetchFailure(StageValidate,
				fmt.Errorf("%s.%s has %d entries, time has %d: %w", block, c.name, c.n, n, errLengthMismatch))
		}
	}
	return nil
}

func required(block, name string, s Series, i int) (float64, error) {
	if math.IsNaN(s[i]) {
		return 0, NewFetchFailure(StageValidate, fmt.Errorf("%s.%s[%d]: %w", block, name, i, errMissingValue))
	}
	return s[i], nil
}

func optional(s Series, i int) float64 {
	if math.IsNaN(s[i]) {
		return 0
	}
	return s[i]
}

type currentReading struct {
	Temperature         float64
	ApparentTemperature float64
	IsDay               bool
}

func parseCurrent(c RawCurrent) (currentReading, error) {
	missing := func(name string) error {
		return NewFetchFailure(StageValidate, fmt.Errorf("current.%s: %w", name, errMissingValue))
	}

	switch {
	case c.Temperature == nil || math.IsNaN(*c.Temperature):
		return currentReading{}, missing("temperature_2m")
	case c.ApparentTemperature == nil || math.IsNaN(*c.ApparentTemperature):
		return currentReading{}, missing("apparent_temperature")
	case c.IsDay == nil:
		return currentReading{}, missing("is_day")
	}

	return currentReading{
		Temperature:         *c.Temperature,
		ApparentTemperature: *c.ApparentTemperature,
		IsDay:               *c.IsDay == 1,
	}, nil
}

func parseHours(h RawHourly, zone *time.Location) ([]HourSample, error) {
	n := len(h.Time)
	err := checkColumns("hourly", n,
		column{"temperature_2m", len(h.Temperature)},
		column{"dew_point_2m", len(h.DewPoint)},
		column{"wind_speed_10m", len(h.WindSpeed)},
		column{"precipitation_probability", len(h.PrecipitationProbability)},
		column{"rain", len(h.Rain)},
		column{"shortwave_radiation", len(h.ShortwaveRadiation)},
	)
	if err != nil {
		return nil, err
	}

	hours := make([]HourSample, n)
	for i, ts := range h.Time {
		t, err := time.ParseInLocation(hourLayout, ts, zone)
		if err != nil {
			return nil, NewFetchFailure(StageDecode, fmt.Errorf("hourly.time[%d]: %w", i, err))
		}
		temp, err := required("hourly", "temperature_2m", h.Temperature, i)
		if err != nil {
			return nil, err
		}
		dew, err := required("hourly", "dew_point_2m", h.DewPoint, i)
		if err != nil {
			return nil, err
		}
		wind, err := required("hourly", "wind_speed_10m", h.WindSpeed, i)
		if err != nil {
			return nil, err
		}

		hours[i] = HourSample{
			Time:                     t,
			Temperature:              temp,
			DewPoint:                 dew,
			WindSpeed:                wind,
			PrecipitationProbability: optional(h.PrecipitationProbability, i),
			Rain:                     optional(h.Rain, i),
			Radiation:                optional(h.ShortwaveRadiation, i),
		}
	}
	return hours, nil
}

func parseDays(d RawDaily, zone *time.Location) ([]DaySample, error) {
	n := len(d.Time)
	err := checkColumns("daily", n,
		column{"temperature_2m_max", len(d.TemperatureMax)},
		column{"temperature_2m_min", len(d.TemperatureMin)},
		column{"sunrise", len(d.Sunrise)},
		column{"sunset", len(d.Sunset)},
	)
	if err != nil {
		return nil, err
	}

	days := make([]DaySample, n)
	for i, ds := range d.Time {
		date, err := time.ParseInLocation(dayLayout, ds, zone)
		if err != nil {
			return nil, NewFetchFailure(StageDecode, fmt.Errorf("daily.time[%d]: %w", i, err))
		}
		high, err := required("daily", "temperature_2m_max", d.TemperatureMax, i)
		if err != nil {
			return nil, err
		}
		low, err := required("daily", "temperature_2m_min", d.TemperatureMin, i)
		if err != nil {
			return nil, err
		}
		sunrise, err := parseOptionalTime(d.Sunrise[i], zone)
		if err != nil {
			return nil, NewFetchFailure(StageDecode, fmt.Errorf("daily.sunrise[%d]: %w", i, err))
		}
		sunset, err := parseOptionalTime(d.Sunset[i], zone)
		if err != nil {
			return nil, NewFetchFailure(StageDecode, fmt.Errorf("daily.sunset[%d]: %w", i, err))
		}

		days[i] = DaySample{
			Index:   i,
			Date:    date,
			High:    high,
			Low:     low,
			Sunrise: sunrise,
			Sunset:  sunset,
		}
	}
	return days, nil
}

// parseOptionalTime accepts an empty string, which the provider emits for
// days without a sunrise or sunset.
func parseOptionalTime(s string, zone *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(hourLayout, s, zone)
}
