package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mrwolf/fitpicker/internal/logging"
	"github.com/mrwolf/fitpicker/internal/outfit"
)

// ErrSuperseded is returned when a newer refresh, Stop or the caller's own
// cancellation overtook the one in flight; its result was discarded
var ErrSuperseded = errors.New("weather refresh superseded")

// Refresher keeps the latest reading. Starting a refresh cancels the one
// in flight, and a result is applied only while its generation is still
// current.
type Refresher struct {
	provider Provider
	locator  Locator
	clock    clockwork.Clock
	timeout  time.Duration
	onUpdate func(Reading)

	mu      sync.Mutex
	current *Reading
	gen     uint64
	cancel  context.CancelFunc
	stopped bool
}

type RefresherConfig struct {
	Provider Provider
	Locator  Locator
	Clock    clockwork.Clock
	Timeout  time.Duration
	// OnUpdate runs after a reading is applied, outside the lock
	OnUpdate func(Reading)
}

func NewRefresher(cfg RefresherConfig) *Refresher {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Refresher{
		provider: cfg.Provider,
		locator:  cfg.Locator,
		clock:    cfg.Clock,
		timeout:  cfg.Timeout,
		onUpdate: cfg.OnUpdate,
	}
}

// Seed installs a reading without fetching, e.g. the last one persisted
func (r *Refresher) Seed(reading Reading) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		r.current = &reading
	}
}

// Refresh resolves the location and fetches conditions. Upstream failures
// and the refresher's own timeout degrade to the seasonal fallback rather
// than an error. A refresh whose caller cancelled is abandoned and leaves
// the current reading alone.
func (r *Refresher) Refresh(parent context.Context) (Reading, error) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return Reading{}, ErrSuperseded
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.gen++
	gen := r.gen
	ctx, cancel := context.WithTimeout(parent, r.timeout)
	r.cancel = cancel
	r.mu.Unlock()
	defer cancel()

	reading := r.fetch(ctx)

	r.mu.Lock()
	if r.stopped || gen != r.gen {
		r.mu.Unlock()
		return reading, ErrSuperseded
	}
	if err := parent.Err(); err != nil {
		r.cancel = nil
		r.mu.Unlock()
		return Reading{}, fmt.Errorf("%w: %w", ErrSuperseded, err)
	}
	r.current = &reading
	r.cancel = nil
	r.mu.Unlock()

	if r.onUpdate != nil {
		r.onUpdate(reading)
	}
	return reading, nil
}

func (r *Refresher) fetch(ctx context.Context) Reading {
	loc, err := r.locator.Locate(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("location unavailable")
		return SeasonalFallback(r.clock.Now(), Location{})
	}

	reading, err := r.provider.Fetch(ctx, loc)
	if err != nil {
		if ctx.Err() == nil {
			logging.Warn().Err(err).Float64("lat", loc.Latitude).Float64("lon", loc.Longitude).Msg("weather unavailable, using seasonal default")
		}
		return SeasonalFallback(r.clock.Now(), loc)
	}
	return reading
}

// Current returns the latest reading, if any
func (r *Refresher) Current() (Reading, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return Reading{}, false
	}
	return *r.current, true
}

// Tag is the weather tag to suggest for. Before the first reading the
// seasonal default applies.
func (r *Refresher) Tag() outfit.WeatherTag {
	if reading, ok := r.Current(); ok {
		return reading.Tag
	}
	return SeasonalFallback(r.clock.Now(), Location{}).Tag
}

// Stop cancels any refresh in flight; later results are discarded
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}
