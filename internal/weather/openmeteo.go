package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mrwolf/fitpicker/internal/logging"
)

const maxAttempts = 3

// Client talks to the Open-Meteo forecast API
type Client struct {
	baseURL    string
	httpClient *http.Client
	clock      clockwork.Clock
	backoff    time.Duration
	cb         *gobreaker.CircuitBreaker[Reading]
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func WithClock(clock clockwork.Clock) ClientOption {
	return func(c *Client) { c.clock = clock }
}

// WithBackoff sets the delay before the second attempt; it doubles after
func WithBackoff(d time.Duration) ClientOption {
	return func(c *Client) { c.backoff = d }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		clock:      clockwork.NewRealClock(),
		backoff:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cb = newBreaker[Reading]("open-meteo")
	return c
}

type forecastResponse struct {
	Current struct {
		Temperature   *float64 `json:"temperature_2m"`
		Precipitation float64  `json:"precipitation"`
	} `json:"current"`
}

// Fetch returns current conditions, retrying with exponential backoff
// (up to 3 attempts). An open breaker fails fast.
func (c *Client) Fetch(ctx context.Context, loc Location) (Reading, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.backoff * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return Reading{}, ctx.Err()
			case <-c.clock.After(backoff):
			}
		}

		reading, err := c.cb.Execute(func() (Reading, error) {
			return c.doFetch(ctx, loc)
		})
		if err == nil {
			return reading, nil
		}
		lastErr = err
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, ErrMissingTemperature) || ctx.Err() != nil {
			break
		}
	}
	return Reading{}, fmt.Errorf("fetching weather: %w", lastErr)
}

func (c *Client) doFetch(ctx context.Context, loc Location) (Reading, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
	q.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
	q.Set("current", "temperature_2m,precipitation")
	q.Set("temperature_unit", "fahrenheit")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Reading{}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Reading{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Reading{}, fmt.Errorf("open-meteo returned status %d: %s", resp.StatusCode, string(body))
	}

	var fr forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return Reading{}, fmt.Errorf("decoding response: %w", err)
	}
	if fr.Current.Temperature == nil {
		return Reading{}, ErrMissingTemperature
	}

	temp := *fr.Current.Temperature
	return NewReading(temp, ConditionFrom(temp, fr.Current.Precipitation), SourceAPI, loc, c.clock.Now()), nil
}

// newBreaker opens after 5 consecutive failures and probes again after a
// minute. Cancellations do not count against the upstream.
func newBreaker[T any](name string) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, ErrMissingTemperature)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	})
}
