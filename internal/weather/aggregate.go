package weather

import (
	"math"
	"time"
)

// HourSample is one validated hourly row of the provider response.
type HourSample struct {
	Time                     time.Time
	Temperature              float64
	DewPoint                 float64
	WindSpeed                float64
	PrecipitationProbability float64
	Rain                     float64
	Radiation                float64
}

// Humidity derives the relative humidity of the sample from its dew point.
func (h HourSample) Humidity() int {
	return RelativeHumidity(h.Temperature, h.DewPoint)
}

// DaySample is one validated daily row plus the hourly rows that fall on the
// same local calendar date.
type DaySample struct {
	Index   int
	Date    time.Time
	High    float64
	Low     float64
	Sunrise time.Time
	Sunset  time.Time
	Hours   []HourSample
}

// DayAggregate summarizes the hourly samples of one day.
type DayAggregate struct {
	Hours                       int
	MaxPrecipitationProbability float64
	PeakRadiation               float64
	MeanHumidity                float64
	MeanWindSpeed               float64
}

// AggregateHours combines the hourly samples of a day. Probabilities and
// radiation take the maximum; humidity and wind are averaged.
func AggregateHours(hours []HourSample) DayAggregate {
	if len(hours) == 0 {
		return DayAggregate{}
	}

	var (
		sumHumidity float64
		sumWind     float64
		agg         = DayAggregate{Hours: len(hours)}
	)

	for _, h := range hours {
		agg.MaxPrecipitationProbability = math.Max(agg.MaxPrecipitationProbability, h.PrecipitationProbability)
		agg.PeakRadiation = math.Max(agg.PeakRadiation, h.Radiation)
		sumHumidity += float64(h.Humidity())
		sumWind += h.WindSpeed
	}

	n := float64(len(hours))
	agg.MeanHumidity = sumHumidity / n
	agg.MeanWindSpeed = sumWind / n
	return agg
}

type dayKey string

func keyOf(t time.Time) dayKey {
	return dayKey(t.Format("2006-01-02"))
}

// attachHours assigns every hourly sample to the daily row with the same
// calendar date. Hours outside the daily range are ignored.
func attachHours(days []DaySample, hours []HourSample) {
	byDay := make(map[dayKey]int, len(days))
	for i, d := range days {
		byDay[keyOf(d.Date)] = i
	}

	for _, h := range hours {
		i, ok := byDay[keyOf(h.Time)]
		if !ok {
			continue
		}
		days[i].Hours = append(days[i].Hours, h)
	}
}
