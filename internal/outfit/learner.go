package outfit

import (
	"fmt"
	"time"
)

// RecordFeedback learns from a like or dislike on a presented outfit.
// Each distinct color pair among the items moves one step, as does every
// top/bottom style pair. A dislike requests regeneration. A non-empty
// temperature marker is applied as RecordTemperatureFeedback would.
func (s State) RecordFeedback(items []ClothingItem, liked bool, temp TempMarker, at time.Time) State {
	next := s.Clone()
	next.Feedback = append(next.Feedback, FeedbackRecord{
		Outfit: cloneItems(items),
		Liked:  liked,
		Date:   at,
	})

	for _, pair := range colorPairs(items) {
		next.Prefs.BumpColor(pair.a, pair.b, liked)
	}

	outfit := Outfit{Items: items}
	for _, top := range outfit.byCategory(CategoryTop) {
		for _, bottom := range outfit.byCategory(CategoryBottom) {
			next.Prefs.BumpStyle(top.Style, bottom.Style, liked)
		}
	}

	if !liked {
		next.Regenerate = true
	}
	if temp.Valid() {
		next = next.RecordTemperatureFeedback(items, temp)
	}
	return next
}

// RecordTemperatureFeedback marks every item with the temperature marker.
// The marker is sticky until replaced or explicitly cleared.
func (s State) RecordTemperatureFeedback(items []ClothingItem, marker TempMarker) State {
	if !marker.Valid() {
		return s
	}
	next := s.Clone()
	for _, it := range items {
		next.Overrides[it.ID] = marker
	}
	next.Regenerate = true
	return next
}

// ClearTemperatureOverride drops the marker for one item
func (s State) ClearTemperatureOverride(id string) (State, error) {
	if s.indexOf(id) < 0 {
		return s, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	next := s.Clone()
	delete(next.Overrides, id)
	next.Regenerate = true
	return next, nil
}

// AdjustForTemperature reacts to "too hot" or "too cold" on the current
// outfit. Overrides are recorded for every item first. Too hot strips
// outerwear and cold-tagged pieces and keeps the rest if it still forms a
// complete outfit. Too cold adds a cold-tagged outerwear layer when the
// outfit has none. When no adjustment applies the returned outfit is
// empty and the regenerate flag is set.
func (s State) AdjustForTemperature(marker TempMarker, at time.Time) (State, Outfit) {
	if !marker.Valid() || s.Current.Empty() {
		return s, Outfit{}
	}
	current := s.Current.clone()
	next := s.RecordTemperatureFeedback(current.Items, marker)

	var adjusted Outfit
	switch marker {
	case TooHot:
		adjusted = lighten(current)
	case TooCold:
		adjusted = warm(current, next.Wardrobe)
	}

	if adjusted.Empty() {
		next.Regenerate = true
		return next, Outfit{}
	}
	next.Current = adjusted.clone()
	next.Regenerate = false
	next = next.RecordPresented(adjusted, at)
	return next, adjusted
}

func lighten(o Outfit) Outfit {
	var kept []ClothingItem
	for _, it := range o.Items {
		if it.Category == CategoryOuterwear || it.HasTag(WeatherCold) {
			continue
		}
		kept = append(kept, it)
	}
	if len(kept) == len(o.Items) {
		return Outfit{}
	}
	lighter := Outfit{Items: kept, Score: o.Score}
	if len(lighter.byCategory(CategoryTop)) == 0 ||
		len(lighter.byCategory(CategoryBottom)) == 0 ||
		len(lighter.byCategory(CategoryShoes)) == 0 {
		return Outfit{}
	}
	return lighter
}

func warm(o Outfit, wardrobe []ClothingItem) Outfit {
	if len(o.byCategory(CategoryOuterwear)) > 0 {
		return Outfit{}
	}
	for _, it := range wardrobe {
		if it.Category == CategoryOuterwear && it.HasTag(WeatherCold) && !o.Contains(it.ID) {
			items := append(cloneItems(o.Items), it.clone())
			return Outfit{Items: items, Score: o.Score}
		}
	}
	return Outfit{}
}

// colorPairs returns each unordered pair of distinct colors found among
// the items once
func colorPairs(items []ClothingItem) []colorKey {
	seen := make(map[colorKey]bool)
	var pairs []colorKey
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if items[i].Color == items[j].Color {
				continue
			}
			k := newColorKey(items[i].Color, items[j].Color)
			if !seen[k] {
				seen[k] = true
				pairs = append(pairs, k)
			}
		}
	}
	return pairs
}
