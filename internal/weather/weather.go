// Package weather resolves the user's location and current conditions and
// turns them into the tag the outfit engine works with.
package weather

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/mrwolf/fitpicker/internal/outfit"
)

var (
	ErrMissingTemperature = errors.New("weather response has no temperature")
	ErrNoLocation         = errors.New("no location available")
)

// Source values for Reading.Source
const (
	SourceAPI      = "api"
	SourceFallback = "fallback"
)

// Temperature above which a dry reading is reported as cloudy
const CloudyAboveF = 77.0

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Source    string  `json:"source"` // ip, device, manual
}

type Reading struct {
	TemperatureF float64           `json:"temperature"`
	Condition    outfit.Condition  `json:"condition"`
	Tag          outfit.WeatherTag `json:"tag"`
	Source       string            `json:"source"`
	Location     Location          `json:"location"`
	FetchedAt    time.Time         `json:"fetchedAt"`
}

// Provider fetches current conditions for a location
type Provider interface {
	Fetch(ctx context.Context, loc Location) (Reading, error)
}

// ConditionFrom derives the sky condition: any precipitation is rainy,
// otherwise a reading above 77°F counts as cloudy, else clear.
func ConditionFrom(tempF, precipitation float64) outfit.Condition {
	switch {
	case precipitation > 0:
		return outfit.ConditionRainy
	case tempF > CloudyAboveF:
		return outfit.ConditionCloudy
	default:
		return outfit.ConditionClear
	}
}

// NewReading rounds the temperature and classifies it
func NewReading(tempF float64, cond outfit.Condition, source string, loc Location, at time.Time) Reading {
	tempF = math.Round(tempF)
	return Reading{
		TemperatureF: tempF,
		Condition:    cond,
		Tag:          outfit.ClassifyWeather(tempF, cond),
		Source:       source,
		Location:     loc,
		FetchedAt:    at,
	}
}

// SeasonalFallback is used when no provider answers. Winter months are
// cold, June through September hot, the rest mild. The sky is assumed
// clear.
func SeasonalFallback(at time.Time, loc Location) Reading {
	var temp float64
	switch at.Month() {
	case time.December, time.January, time.February:
		temp = 45
	case time.June, time.July, time.August, time.September:
		temp = 80
	default:
		temp = 65
	}
	return NewReading(temp, outfit.ConditionClear, SourceFallback, loc, at)
}
