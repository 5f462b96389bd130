package weather

import (
	"math"
	"math/rand"
	"sync"
)

// Values the provider request does not supply. These are placeholders,
// not measurements.
const (
	baselinePressureHpa = 1013.0
	pressureAmplitude   = 3.0
	defaultVisibilityKm = 10.0
	defaultUVIndex      = 6.0
)

// Field names reported in the Synthetic lists of the output model.
const (
	FieldCondition     = "condition"
	FieldHumidity      = "humidity"
	FieldWindSpeed     = "windSpeed"
	FieldVisibility    = "visibility"
	FieldPressure      = "pressure"
	FieldUVIndex       = "uvIndex"
	FieldPrecipitation = "precipitation"
)

// Ambient holds the current-conditions values the provider does not supply.
type Ambient struct {
	Visibility float64
	Pressure   float64
	UVIndex    float64
}

// DayEstimate holds the per-day inputs of a forecast entry. Synthetic lists
// the ForecastDay fields that end up not backed by provider data.
type DayEstimate struct {
	PrecipitationProbability float64
	Radiation                float64
	Humidity                 float64
	WindSpeed                float64
	Precipitation            float64
	Synthetic                []string
}

// Estimator produces every value of the dashboard model that is not a
// direct provider measurement.
type Estimator interface {
	// Pressure returns the placeholder pressure (hPa) for an hourly index.
	Pressure(hourIndex int) float64
	Ambient() Ambient
	Day(day DaySample) DayEstimate
}

type baseline struct{}

// Pressure is a smooth oscillation around standard sea-level pressure. It is
// a pure function of the hour index.
func (baseline) Pressure(hourIndex int) float64 {
	return baselinePressureHpa + math.Sin(float64(hourIndex)/4)*pressureAmplitude
}

func (baseline) Ambient() Ambient {
	return Ambient{
		Visibility: defaultVisibilityKm,
		Pressure:   baselinePressureHpa,
		UVIndex:    defaultUVIndex,
	}
}

// ProviderEstimator derives forecast-day inputs from the hourly samples of
// each day. It is deterministic.
type ProviderEstimator struct {
	baseline
}

func NewProviderEstimator() *ProviderEstimator {
	return &ProviderEstimator{}
}

func (ProviderEstimator) Day(day DaySample) DayEstimate {
	if len(day.Hours) == 0 {
		return temperatureEstimate(day.High)
	}

	agg := AggregateHours(day.Hours)
	return DayEstimate{
		PrecipitationProbability: agg.MaxPrecipitationProbability,
		Radiation:                agg.PeakRadiation,
		Humidity:                 agg.MeanHumidity,
		WindSpeed:                agg.MeanWindSpeed,
		Precipitation:            agg.MaxPrecipitationProbability,
	}
}

// temperatureEstimate picks classifier inputs from the daily maximum alone:
// warm days read as sunny, mild days as cloudy, cold days as rainy.
func temperatureEstimate(high float64) DayEstimate {
	est := DayEstimate{
		Synthetic: []string{FieldHumidity, FieldWindSpeed, FieldPrecipitation},
	}
	switch {
	case high >= 20:
		est.Radiation = 500
	case high >= 10:
		est.Radiation = 50
	default:
		est.PrecipitationProbability = 60
	}
	return est
}

// RandomEstimator reproduces the pseudo-random forecast-day placeholders of
// the first dashboard release. Output is reproducible for a fixed seed and
// call order.
type RandomEstimator struct {
	baseline

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomEstimator(seed int64) *RandomEstimator {
	return &RandomEstimator{rng: rand.New(rand.NewSource(seed))}
}

func (r *RandomEstimator) Day(DaySample) DayEstimate {
	r.mu.Lock()
	defer r.mu.Unlock()

	return DayEstimate{
		PrecipitationProbability: r.rng.Float64() * 100,
		Radiation:                400 + r.rng.Float64()*200,
		Humidity:                 50 + r.rng.Float64()*30,
		WindSpeed:                5 + r.rng.Float64()*15,
		Precipitation:            r.rng.Float64() * 100,
		Synthetic:                []string{FieldCondition, FieldHumidity, FieldWindSpeed, FieldPrecipitation},
	}
}
