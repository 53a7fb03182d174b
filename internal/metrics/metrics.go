// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitpicker_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fitpicker_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// result is "fresh", "cached" or "empty"
	SuggestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitpicker_suggestions_total",
			Help: "Suggestions served by result",
		},
		[]string{"result"},
	)

	// kind is "like", "dislike", "too_hot" or "too_cold"
	FeedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitpicker_feedback_total",
			Help: "Feedback events recorded",
		},
		[]string{"kind"},
	)

	WardrobeItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitpicker_wardrobe_items",
			Help: "Items currently in the wardrobe",
		},
	)

	// source is "api" or "fallback"
	WeatherFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitpicker_weather_fetch_total",
			Help: "Weather refreshes by outcome",
		},
		[]string{"source"},
	)

	WeatherTemperature = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fitpicker_weather_temperature_fahrenheit",
			Help: "Most recently applied temperature",
		},
	)

	PersistFlushTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fitpicker_persist_flush_total",
			Help: "State flushes by status",
		},
		[]string{"status"},
	)

	PersistFlushDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fitpicker_persist_flush_duration_seconds",
			Help:    "Duration of state flushes",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordFlush(duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	PersistFlushTotal.WithLabelValues(status).Inc()
	PersistFlushDuration.Observe(duration.Seconds())
}

func RecordWeather(source string, tempF float64) {
	WeatherFetchTotal.WithLabelValues(source).Inc()
	WeatherTemperature.Set(tempF)
}
