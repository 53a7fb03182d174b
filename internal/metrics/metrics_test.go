package metrics

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/items", "200"))

	RecordAPIRequest(http.MethodGet, "/api/v1/items", http.StatusOK, 5*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/items", "200"))
	assert.Equal(t, before+1, after)
}

func TestRecordFlush(t *testing.T) {
	okBefore := testutil.ToFloat64(PersistFlushTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(PersistFlushTotal.WithLabelValues("error"))

	RecordFlush(time.Millisecond, nil)
	RecordFlush(time.Millisecond, errors.New("disk full"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(PersistFlushTotal.WithLabelValues("ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(PersistFlushTotal.WithLabelValues("error")))
}

func TestRecordWeather(t *testing.T) {
	RecordWeather("fallback", 45)
	assert.Equal(t, 45.0, testutil.ToFloat64(WeatherTemperature))
}
