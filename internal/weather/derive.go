package weather

import "math"

// Magnus formula coefficients (Alduchov & Eskridge).
const (
	magnusA = 17.625
	magnusB = 243.04
)

// RelativeHumidity approximates relative humidity (percent) from air
// temperature and dew point, both in °C. The result is rounded and clamped
// to [0, 100]; equal inputs yield exactly 100.
func RelativeHumidity(tempC, dewPointC float64) int {
	if tempC == dewPointC {
		return 100
	}
	rh := 100 * math.Exp(magnusA*dewPointC/(magnusB+dewPointC)) /
		math.Exp(magnusA*tempC/(magnusB+tempC))
	if math.IsNaN(rh) {
		return 0
	}
	return int(math.Min(100, math.Max(0, math.Round(rh))))
}

// ClassifyCondition maps precipitation probability (percent), day/night and
// shortwave radiation (W/m²) to a Condition. Checks run in order and the
// first match wins; all thresholds are exclusive.
func ClassifyCondition(precipitationProbability float64, isDaytime bool, solarRadiation float64) Condition {
	switch {
	case precipitationProbability > 50:
		return ConditionRainy
	case precipitationProbability > 20:
		return ConditionPartlyCloudy
	case solarRadiation > 400 && isDaytime:
		return ConditionSunny
	case solarRadiation < 100:
		return ConditionCloudy
	case isDaytime:
		return ConditionClear
	default:
		return ConditionClearNight
	}
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
