package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mrwolf/fitpicker/internal/logging"
)

// Locator resolves where the user is
type Locator interface {
	Locate(ctx context.Context) (Location, error)
}

// Chain tries each locator in order and returns the first success
type Chain []Locator

func (c Chain) Locate(ctx context.Context) (Location, error) {
	var errs []error
	for _, l := range c {
		loc, err := l.Locate(ctx)
		if err == nil {
			return loc, nil
		}
		if ctx.Err() != nil {
			return Location{}, ctx.Err()
		}
		errs = append(errs, err)
	}
	return Location{}, fmt.Errorf("%w: %w", ErrNoLocation, errors.Join(errs...))
}

// IPLocator asks ip-api.com for an approximate position
type IPLocator struct {
	url        string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[Location]
}

func NewIPLocator(url string, timeout time.Duration) *IPLocator {
	return &IPLocator{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		cb:         newBreaker[Location]("ip-location"),
	}
}

type ipResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

func (l *IPLocator) Locate(ctx context.Context) (Location, error) {
	return l.cb.Execute(func() (Location, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
		if err != nil {
			return Location{}, fmt.Errorf("creating request: %w", err)
		}
		resp, err := l.httpClient.Do(req)
		if err != nil {
			return Location{}, fmt.Errorf("ip lookup: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return Location{}, fmt.Errorf("ip lookup returned status %d", resp.StatusCode)
		}
		var ir ipResponse
		if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
			return Location{}, fmt.Errorf("decoding ip lookup: %w", err)
		}
		if ir.Status != "success" {
			return Location{}, fmt.Errorf("ip lookup failed: %s", ir.Message)
		}
		return Location{Latitude: ir.Lat, Longitude: ir.Lon, Source: "ip"}, nil
	})
}

// DeviceLocator holds the coordinates last reported by a client
type DeviceLocator struct {
	mu  sync.RWMutex
	loc *Location
}

func (d *DeviceLocator) Set(lat, lon float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loc = &Location{Latitude: lat, Longitude: lon, Source: "device"}
}

func (d *DeviceLocator) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.loc = nil
}

func (d *DeviceLocator) Locate(ctx context.Context) (Location, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.loc == nil {
		return Location{}, errors.New("no device location reported")
	}
	return *d.loc, nil
}

// Manual is the configured fallback position
type Manual struct {
	Latitude  float64
	Longitude float64
}

func (m Manual) Locate(ctx context.Context) (Location, error) {
	return Location{Latitude: m.Latitude, Longitude: m.Longitude, Source: "manual"}, nil
}

// logged wraps a locator so its failures show up in the log before the
// chain moves on
type logged struct {
	name string
	Locator
}

func Logged(name string, l Locator) Locator {
	return logged{name: name, Locator: l}
}

func (l logged) Locate(ctx context.Context) (Location, error) {
	loc, err := l.Locator.Locate(ctx)
	if err != nil {
		logging.Debug().Err(err).Str("locator", l.name).Msg("location lookup failed")
	}
	return loc, err
}
