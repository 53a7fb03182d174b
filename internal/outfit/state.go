package outfit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the whole mutable engine state. Every transition is a value
// method that returns a new State and leaves the receiver untouched, so
// callers decide when a transition is committed.
type State struct {
	Wardrobe  []ClothingItem
	Prefs     *Preferences
	Overrides Overrides
	History   []HistoryEntry
	Feedback  []FeedbackRecord

	// Current is the cached suggestion for CurrentTag
	Current    Outfit
	CurrentTag WeatherTag
	// Regenerate forces the next Suggest to recompute
	Regenerate bool
}

// NewState returns an empty wardrobe with freshly initialised preferences
func NewState() State {
	return State{
		Prefs:      NewPreferences(),
		Overrides:  Overrides{},
		Regenerate: true,
	}
}

// Clone returns a deep copy
func (s State) Clone() State {
	c := State{
		CurrentTag: s.CurrentTag,
		Regenerate: s.Regenerate,
		Current:    s.Current.clone(),
		Overrides:  make(Overrides, len(s.Overrides)),
	}
	if s.Prefs != nil {
		c.Prefs = s.Prefs.Clone()
	} else {
		c.Prefs = NewPreferences()
	}
	for id, m := range s.Overrides {
		c.Overrides[id] = m
	}
	if s.Wardrobe != nil {
		c.Wardrobe = make([]ClothingItem, len(s.Wardrobe))
		for i, it := range s.Wardrobe {
			c.Wardrobe[i] = it.clone()
		}
	}
	if s.History != nil {
		c.History = make([]HistoryEntry, len(s.History))
		for i, h := range s.History {
			c.History[i] = HistoryEntry{Date: h.Date, Items: append([]string(nil), h.Items...)}
		}
	}
	if s.Feedback != nil {
		c.Feedback = make([]FeedbackRecord, len(s.Feedback))
		for i, f := range s.Feedback {
			c.Feedback[i] = FeedbackRecord{Outfit: cloneItems(f.Outfit), Liked: f.Liked, Date: f.Date}
		}
	}
	return c
}

// Item looks up a wardrobe item by ID
func (s State) Item(id string) (ClothingItem, bool) {
	for _, it := range s.Wardrobe {
		if it.ID == id {
			return it.clone(), true
		}
	}
	return ClothingItem{}, false
}

// Items resolves IDs to wardrobe items, preserving order
func (s State) Items(ids []string) ([]ClothingItem, error) {
	items := make([]ClothingItem, 0, len(ids))
	for _, id := range ids {
		it, ok := s.Item(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		items = append(items, it)
	}
	return items, nil
}

// Suggest returns the outfit to present for the weather tag. The cached
// outfit is reused unless regeneration was requested, the cache is empty
// or the weather tag changed. A freshly computed non-empty outfit is
// cached and recorded in history at the given time.
func (s State) Suggest(tag WeatherTag, at time.Time) (State, Outfit) {
	if !s.Regenerate && !s.Current.Empty() && s.CurrentTag == tag {
		return s, s.Current.clone()
	}

	next := s.Clone()
	suggestion := GenerateSuggestion(next.Wardrobe, tag, next.Prefs, next.Overrides)
	next.Current = suggestion.clone()
	next.CurrentTag = tag
	if suggestion.Empty() {
		next.Regenerate = true
		return next, suggestion
	}
	next.Regenerate = false
	next = next.RecordPresented(suggestion, at)
	return next, suggestion
}

// RequestRegeneration sets the regenerate flag
func (s State) RequestRegeneration() State {
	next := s.Clone()
	next.Regenerate = true
	return next
}

// AddItem validates and appends an item. An empty ID is replaced with a
// fresh UUID. Colors pruned by an earlier delete are seeded again.
func (s State) AddItem(item ClothingItem) (State, ClothingItem, error) {
	if err := item.Validate(); err != nil {
		return s, ClothingItem{}, err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if _, exists := s.Item(item.ID); exists {
		return s, ClothingItem{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidItem, item.ID)
	}
	item = item.clone()

	next := s.Clone()
	next.Wardrobe = append(next.Wardrobe, item)
	next.Prefs.SeedColor(item.Color)
	return next, item.clone(), nil
}

// EditItem replaces the item with the same ID
func (s State) EditItem(item ClothingItem) (State, error) {
	if err := item.Validate(); err != nil {
		return s, err
	}
	idx := s.indexOf(item.ID)
	if idx < 0 {
		return s, fmt.Errorf("%w: %s", ErrItemNotFound, item.ID)
	}

	next := s.Clone()
	next.Wardrobe[idx] = item.clone()
	next.Prefs.SeedColor(item.Color)
	for i, it := range next.Current.Items {
		if it.ID == item.ID {
			next.Current.Items[i] = item.clone()
			next.Regenerate = true
		}
	}
	return next, nil
}

// DeleteItem removes an item and everything that references it: its
// temperature override, every history entry and feedback record naming
// it, and the color edges of its color when no other item shares it.
// Style edges are left alone.
func (s State) DeleteItem(id string) (State, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return s, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	removed := s.Wardrobe[idx]

	next := s.Clone()
	next.Wardrobe = append(next.Wardrobe[:idx], next.Wardrobe[idx+1:]...)
	delete(next.Overrides, id)

	history := next.History[:0]
	for _, h := range next.History {
		if !containsID(h.Items, id) {
			history = append(history, h)
		}
	}
	next.History = history

	feedback := next.Feedback[:0]
	for _, f := range next.Feedback {
		if !(Outfit{Items: f.Outfit}).Contains(id) {
			feedback = append(feedback, f)
		}
	}
	next.Feedback = feedback

	colorInUse := false
	for _, it := range next.Wardrobe {
		if it.Color == removed.Color {
			colorInUse = true
			break
		}
	}
	if !colorInUse {
		next.Prefs.PruneColor(removed.Color)
	}

	if next.Current.Contains(id) {
		next.Current = Outfit{}
		next.Regenerate = true
	}
	return next, nil
}

// Reconcile drops overrides, history entries and feedback records that
// name an item missing from the wardrobe, and the cached suggestion if it
// holds one. Preferences are left alone.
func (s State) Reconcile() State {
	known := make(map[string]bool, len(s.Wardrobe))
	for _, it := range s.Wardrobe {
		known[it.ID] = true
	}
	allKnown := func(ids []string) bool {
		for _, id := range ids {
			if !known[id] {
				return false
			}
		}
		return true
	}

	next := s.Clone()
	for id := range next.Overrides {
		if !known[id] {
			delete(next.Overrides, id)
		}
	}

	history := next.History[:0]
	for _, h := range next.History {
		if allKnown(h.Items) {
			history = append(history, h)
		}
	}
	next.History = history

	feedback := next.Feedback[:0]
	for _, f := range next.Feedback {
		if allKnown(Outfit{Items: f.Outfit}.IDs()) {
			feedback = append(feedback, f)
		}
	}
	next.Feedback = feedback

	if !allKnown(next.Current.IDs()) {
		next.Current = Outfit{}
		next.Regenerate = true
	}
	return next
}

func (s State) indexOf(id string) int {
	for i, it := range s.Wardrobe {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func containsID(ids []string, id string) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func cloneItems(items []ClothingItem) []ClothingItem {
	if items == nil {
		return nil
	}
	out := make([]ClothingItem, len(items))
	for i, it := range items {
		out[i] = it.clone()
	}
	return out
}
