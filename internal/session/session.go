// Package session owns the live engine state. Every transition is applied
// under one mutex and scheduled for a debounced write.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mrwolf/fitpicker/internal/logging"
	"github.com/mrwolf/fitpicker/internal/metrics"
	"github.com/mrwolf/fitpicker/internal/outfit"
	"github.com/mrwolf/fitpicker/internal/persist"
)

// ErrNoSuggestion is returned when feedback needs an outfit but none is
// being shown
var ErrNoSuggestion = errors.New("no current suggestion")

// Store persists the whole state
type Store interface {
	LoadState() (outfit.State, error)
	SaveState(outfit.State) error
}

type Session struct {
	mu    sync.Mutex
	state outfit.State

	clock clockwork.Clock
	store Store
	saver *persist.Debouncer
}

// Open loads the stored state and arms the debounced writer
func Open(store Store, clock clockwork.Clock, flushDelay time.Duration) (*Session, error) {
	state, err := store.LoadState()
	if err != nil {
		return nil, fmt.Errorf("loading state: %w", err)
	}
	s := &Session{state: state, clock: clock, store: store}
	s.saver = persist.NewDebouncer(clock, flushDelay, s.save)
	metrics.WardrobeItems.Set(float64(len(state.Wardrobe)))
	logging.Info().Int("items", len(state.Wardrobe)).Int("history", len(state.History)).Msg("state loaded")
	return s, nil
}

func (s *Session) save() error {
	return s.store.SaveState(s.Snapshot())
}

// commit must be called with mu held
func (s *Session) commit(next outfit.State) {
	s.state = next
	metrics.WardrobeItems.Set(float64(len(next.Wardrobe)))
	s.saver.Trigger()
}

// Snapshot returns a deep copy of the state
func (s *Session) Snapshot() outfit.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Session) Items() []outfit.ClothingItem {
	return s.Snapshot().Wardrobe
}

func (s *Session) Item(id string) (outfit.ClothingItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Item(id)
}

func (s *Session) AddItem(item outfit.ClothingItem) (outfit.ClothingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, added, err := s.state.AddItem(item)
	if err != nil {
		return outfit.ClothingItem{}, err
	}
	s.commit(next)
	return added, nil
}

func (s *Session) EditItem(item outfit.ClothingItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.state.EditItem(item)
	if err != nil {
		return err
	}
	s.commit(next)
	return nil
}

func (s *Session) DeleteItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.state.DeleteItem(id)
	if err != nil {
		return err
	}
	s.commit(next)
	return nil
}

// Suggest returns the outfit for the weather tag, computing a new one only
// when the cached suggestion is stale
func (s *Session) Suggest(tag outfit.WeatherTag) outfit.Outfit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suggest(tag)
}

// Regenerate discards the cached suggestion and computes a new one
func (s *Session) Regenerate(tag outfit.WeatherTag) outfit.Outfit {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.RequestRegeneration()
	return s.suggest(tag)
}

func (s *Session) suggest(tag outfit.WeatherTag) outfit.Outfit {
	cached := !s.state.Regenerate && !s.state.Current.Empty() && s.state.CurrentTag == tag
	next, o := s.state.Suggest(tag, s.clock.Now())
	switch {
	case o.Empty():
		metrics.SuggestionsTotal.WithLabelValues("empty").Inc()
	case cached:
		metrics.SuggestionsTotal.WithLabelValues("cached").Inc()
		return o
	default:
		metrics.SuggestionsTotal.WithLabelValues("fresh").Inc()
	}
	s.commit(next)
	return o
}

// Feedback records a like or dislike. With no IDs the current suggestion
// is rated.
func (s *Session) Feedback(ids []string, liked bool, temp outfit.TempMarker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.resolve(ids)
	if err != nil {
		return err
	}
	s.commit(s.state.RecordFeedback(items, liked, temp, s.clock.Now()))

	kind := "dislike"
	if liked {
		kind = "like"
	}
	metrics.FeedbackTotal.WithLabelValues(kind).Inc()
	return nil
}

// Temperature applies "too hot" / "too cold" to the current suggestion
// and returns the adjusted outfit along with the IDs that received the
// marker. An empty outfit means a new suggestion is needed.
func (s *Session) Temperature(marker outfit.TempMarker) (outfit.Outfit, []string, error) {
	if !marker.Valid() {
		return outfit.Outfit{}, nil, fmt.Errorf("%w: unknown temperature marker %q", outfit.ErrInvalidItem, marker)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Current.Empty() {
		return outfit.Outfit{}, nil, ErrNoSuggestion
	}
	rated := s.state.Current.IDs()
	next, adjusted := s.state.AdjustForTemperature(marker, s.clock.Now())
	s.commit(next)

	kind := "too_hot"
	if marker == outfit.TooCold {
		kind = "too_cold"
	}
	metrics.FeedbackTotal.WithLabelValues(kind).Inc()
	return adjusted, rated, nil
}

func (s *Session) ClearOverride(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.state.ClearTemperatureOverride(id)
	if err != nil {
		return err
	}
	s.commit(next)
	return nil
}

// WornRecently reports whether the item was presented within the window
func (s *Session) WornRecently(id string, window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.WornSince(id, s.clock.Now().Add(-window))
}

func (s *Session) resolve(ids []string) ([]outfit.ClothingItem, error) {
	if len(ids) == 0 {
		if s.state.Current.Empty() {
			return nil, ErrNoSuggestion
		}
		return s.state.Current.Items, nil
	}
	return s.state.Items(ids)
}

// Flush writes pending changes now
func (s *Session) Flush() error {
	return s.saver.Flush()
}

// Close stops the debounce timer and writes the final state
func (s *Session) Close() error {
	return s.saver.Close()
}
