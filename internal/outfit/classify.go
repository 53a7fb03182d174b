package outfit

// Temperature thresholds in Fahrenheit
const (
	HotThresholdF  = 77.0
	ColdThresholdF = 59.0
)

// ClassifyWeather maps a temperature and sky condition to a weather tag.
// Rain wins over temperature. NaN falls through to mild.
func ClassifyWeather(tempF float64, cond Condition) WeatherTag {
	switch {
	case cond == ConditionRainy:
		return WeatherRainy
	case tempF >= HotThresholdF:
		return WeatherHot
	case tempF <= ColdThresholdF:
		return WeatherCold
	default:
		return WeatherMild
	}
}
