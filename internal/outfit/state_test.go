package outfit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============== Wardrobe Transitions ==============

func TestAddItemAssignsID(t *testing.T) {
	s := NewState()
	next, added, err := s.AddItem(ClothingItem{
		Name:        "Grey hoodie",
		Category:    CategoryTop,
		Color:       ColorGray,
		Style:       StyleHoodie,
		WeatherTags: []WeatherTag{WeatherCold},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, added.ID)
	assert.Len(t, next.Wardrobe, 1)
	assert.Empty(t, s.Wardrobe, "receiver must not change")

	_, _, err = next.AddItem(added)
	assert.ErrorIs(t, err, ErrInvalidItem, "duplicate id")
}

func TestAddItemRejectsInvalid(t *testing.T) {
	s := NewState()
	_, _, err := s.AddItem(ClothingItem{Name: "mystery", Category: CategoryTop, Color: ColorBlack})
	assert.ErrorIs(t, err, ErrInvalidItem)
}

func TestEditItem(t *testing.T) {
	s := stateWith(t, basicWardrobe()...)
	s, _ = s.Suggest(WeatherMild, testTime)
	require.False(t, s.Regenerate)

	edited, _ := s.Item("bottom")
	edited.Color = ColorBeige
	next, err := s.EditItem(edited)
	require.NoError(t, err)

	got, _ := next.Item("bottom")
	assert.Equal(t, ColorBeige, got.Color)
	assert.True(t, next.Regenerate, "cached outfit held the edited item")
	cached := next.Current.Items
	require.Len(t, cached, 3)
	assert.Equal(t, ColorBeige, cached[1].Color, "cached outfit carries the edit")

	liked := next.RecordFeedback(next.Current.Items, true, "", testTime)
	assert.InDelta(t, 0.1, liked.Prefs.ColorScore(ColorBlack, ColorBeige), 1e-9)
	assert.Zero(t, liked.Prefs.ColorScore(ColorBlack, ColorWhite))

	_, err = s.EditItem(item("ghost", CategoryTop, ColorBlack, StylePolo, WeatherMild))
	assert.ErrorIs(t, err, ErrItemNotFound)
}

// ============== Suggestion / History ==============

func TestSuggestEmptyWithoutCoreCategories(t *testing.T) {
	s := stateWith(t, basicWardrobe()[:2]...)
	next, o := s.Suggest(WeatherMild, testTime)

	assert.True(t, o.Empty())
	assert.True(t, next.Regenerate)
	assert.Empty(t, next.History)
}

func TestSuggestCachesUntilRegenerate(t *testing.T) {
	s := stateWith(t, basicWardrobe()...)

	s, first := s.Suggest(WeatherMild, testTime)
	require.False(t, first.Empty())
	require.Len(t, s.History, 1)

	s, second := s.Suggest(WeatherMild, testTime.Add(time.Minute))
	assert.Equal(t, first.IDs(), second.IDs())
	assert.Len(t, s.History, 1, "cached result is not re-recorded")

	s = s.RequestRegeneration()
	s, _ = s.Suggest(WeatherMild, testTime.Add(2*time.Minute))
	assert.Len(t, s.History, 2)

	s, _ = s.Suggest(WeatherCold, testTime.Add(3*time.Minute))
	assert.Len(t, s.History, 3, "weather change recomputes")
}

func TestRecordPresentedDeduplicatesExactEntries(t *testing.T) {
	s := stateWith(t, basicWardrobe()...)
	o := GenerateSuggestion(s.Wardrobe, WeatherMild, s.Prefs, s.Overrides)

	s = s.RecordPresented(o, testTime)
	s = s.RecordPresented(o, testTime)
	assert.Len(t, s.History, 1)

	s = s.RecordPresented(o, testTime.Add(time.Nanosecond))
	assert.Len(t, s.History, 2)

	s = s.RecordPresented(Outfit{}, testTime)
	assert.Len(t, s.History, 2)
}

func TestWornSince(t *testing.T) {
	s := stateWith(t, basicWardrobe()...)
	o := GenerateSuggestion(s.Wardrobe, WeatherMild, s.Prefs, s.Overrides)
	s = s.RecordPresented(o, testTime)

	assert.True(t, s.WornSince("top", testTime.Add(-RecentWindow)))
	assert.False(t, s.WornSince("top", testTime.Add(time.Hour)))
	assert.False(t, s.WornSince("missing", testTime.Add(-RecentWindow)))
}

// ============== Feedback Learning ==============

func TestFiveLikesGiveHalf(t *testing.T) {
	s := stateWith(t, basicWardrobe()...)
	s, o := s.Suggest(WeatherMild, testTime)

	for i := 0; i < 5; i++ {
		s = s.RecordFeedback(o.Items, true, "", testTime)
	}

	assert.Equal(t, 0.5, s.Prefs.ColorScore(ColorBlack, ColorWhite))
	assert.Equal(t, 0.5, s.Prefs.StyleScore(StyleTShirt, StyleDenim))
	assert.Len(t, s.Feedback, 5)
	assert.False(t, s.Regenerate, "likes keep the current pick")
}

func TestFifteenLikesClampAtOne(t *testing.T) {
	s := stateWith(t, basicWardrobe()...)
	s, o := s.Suggest(WeatherMild, testTime)

	for i := 0; i < 15; i++ {
		s = s.RecordFeedback(o.Items, true, "", testTime)
	}

	assert.Equal(t, 1.0, s.Prefs.ColorScore(ColorBlack, ColorWhite))
	assert.Equal(t, 1.0, s.Prefs.StyleScore(StyleDenim, StyleTShirt))
}

func TestDislikeLowersAndRequestsRegeneration(t *testing.T) {
	s := stateWith(t,
		item("top", CategoryTop, ColorRed, StyleFlannel, WeatherMild),
		item("bottom", CategoryBottom, ColorBlue, StyleCargo, WeatherMild),
		item("shoes", CategoryShoes, ColorGreen, StyleSneakers, WeatherMild),
	)
	s, o := s.Suggest(WeatherMild, testTime)
	s = s.RecordFeedback(o.Items, false, "", testTime)

	assert.Equal(t, -0.1, s.Prefs.ColorScore(ColorRed, ColorBlue))
	assert.Equal(t, -0.1, s.Prefs.ColorScore(ColorRed, ColorGreen))
	assert.Equal(t, -0.1, s.Prefs.ColorScore(ColorBlue, ColorGreen))
	assert.Equal(t, -0.1, s.Prefs.StyleScore(StyleFlannel, StyleCargo))
	assert.True(t, s.Regenerate)
	require.Len(t, s.Feedback, 1)
	assert.False(t, s.Feedback[0].Liked)
}

func TestTooHotOverridesExcludeOnlyInHotWeather(t *testing.T) {
	s := stateWith(t,
		item("top", CategoryTop, ColorBlack, StyleTShirt, WeatherHot, WeatherCold),
		item("bottom", CategoryBottom, ColorWhite, StyleShorts, WeatherHot, WeatherCold),
		item("shoes", CategoryShoes, ColorBlack, StyleSandals, WeatherHot, WeatherCold),
	)
	s, o := s.Suggest(WeatherHot, testTime)
	require.False(t, o.Empty())

	s = s.RecordTemperatureFeedback(o.Items, TooHot)
	for _, id := range o.IDs() {
		assert.Equal(t, TooHot, s.Overrides[id])
	}
	assert.True(t, s.Regenerate)

	hot := BuildCandidatePool(s.Wardrobe, WeatherHot, s.Overrides)
	assert.Zero(t, hot.Size())

	cold := BuildCandidatePool(s.Wardrobe, WeatherCold, s.Overrides)
	assert.Equal(t, 3, cold.Size())
}

func TestFeedbackWithTemperatureMarker(t *testing.T) {
	s := stateWith(t, basicWardrobe()...)
	s, o := s.Suggest(WeatherMild, testTime)

	s = s.RecordFeedback(o.Items, true, TooCold, testTime)
	assert.Equal(t, TooCold, s.Overrides["top"])
	assert.Equal(t, 0.1, s.Prefs.ColorScore(ColorBlack, ColorWhite))

	s, err := s.ClearTemperatureOverride("top")
	require.NoError(t, err)
	assert.NotContains(t, s.Overrides, "top")

	_, err = s.ClearTemperatureOverride("ghost")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestAdjustTooCold(t *testing.T) {
	s := stateWith(t, append(basicWardrobe(),
		item("windbreaker", CategoryOuterwear, ColorNavy, StyleNone, WeatherHot),
		item("coat", CategoryOuterwear, ColorGray, StyleNone, WeatherCold),
	)...)
	s, o := s.Suggest(WeatherMild, testTime)
	require.Len(t, o.Items, 3)

	s, warmer := s.AdjustForTemperature(TooCold, testTime.Add(time.Second))
	assert.Equal(t, []string{"top", "bottom", "shoes", "coat"}, warmer.IDs())
	assert.Equal(t, warmer.IDs(), s.Current.IDs())
	assert.Len(t, s.History, 2)
	assert.Equal(t, TooCold, s.Overrides["shoes"])

	// already layered: fall back to regeneration
	s, again := s.AdjustForTemperature(TooCold, testTime.Add(2*time.Second))
	assert.True(t, again.Empty())
	assert.True(t, s.Regenerate)
}

func TestAdjustTooHot(t *testing.T) {
	s := stateWith(t,
		item("top", CategoryTop, ColorWhite, StylePolo, WeatherMild),
		item("bottom", CategoryBottom, ColorBeige, StyleChino, WeatherMild),
		item("shoes", CategoryShoes, ColorBrown, StyleNone, WeatherMild),
		item("coat", CategoryOuterwear, ColorNavy, StyleNone, WeatherCold, WeatherRainy),
	)
	s, o := s.Suggest(WeatherRainy, testTime)
	require.Len(t, o.Items, 4)

	s, lighter := s.AdjustForTemperature(TooHot, testTime.Add(time.Second))
	assert.Equal(t, []string{"top", "bottom", "shoes"}, lighter.IDs())
	assert.Equal(t, TooHot, s.Overrides["coat"])
	assert.False(t, s.Regenerate)

	// nothing left to strip
	s, none := s.AdjustForTemperature(TooHot, testTime.Add(2*time.Second))
	assert.True(t, none.Empty())
	assert.True(t, s.Regenerate)
}

// ============== Delete Cascade ==============

func TestDeleteCascade(t *testing.T) {
	s := stateWith(t,
		item("top", CategoryTop, ColorBlack, StyleTShirt, WeatherMild),
		item("bottom", CategoryBottom, ColorWhite, StyleDenim, WeatherMild),
		item("shoes", CategoryShoes, ColorBlack, StyleNone, WeatherMild),
		item("chinos", CategoryBottom, ColorBeige, StyleChino, WeatherMild),
	)
	s, o := s.Suggest(WeatherMild, testTime)
	require.Equal(t, []string{"top", "bottom", "shoes"}, o.IDs())
	s = s.RecordFeedback(o.Items, true, TooHot, testTime)
	s = s.RecordPresented(Outfit{Items: mustItems(t, s, "top", "chinos", "shoes")}, testTime.Add(time.Hour))
	s = s.RecordFeedback(mustItems(t, s, "top", "chinos", "shoes"), false, "", testTime.Add(time.Hour))
	s = s.RecordFeedback(o.Items, true, "", testTime.Add(2*time.Hour))
	require.Len(t, s.History, 2)
	require.Len(t, s.Feedback, 3)

	styleBefore := s.Prefs.StyleScore(StyleTShirt, StyleDenim)
	require.NotZero(t, styleBefore)

	next, err := s.DeleteItem("bottom")
	require.NoError(t, err)

	_, exists := next.Item("bottom")
	assert.False(t, exists)
	assert.NotContains(t, next.Overrides, "bottom")
	for _, h := range next.History {
		assert.NotContains(t, h.Items, "bottom")
	}
	for _, f := range next.Feedback {
		assert.False(t, Outfit{Items: f.Outfit}.Contains("bottom"))
	}
	assert.Len(t, next.History, 1)
	assert.Len(t, next.Feedback, 1)

	// white was the last of its color
	for _, c := range Palette {
		assert.False(t, next.Prefs.HasColorEdge(ColorWhite, c), "white/%s", c)
	}
	assert.True(t, next.Prefs.HasColorEdge(ColorBlack, ColorBeige))
	assert.Equal(t, styleBefore, next.Prefs.StyleScore(StyleTShirt, StyleDenim))

	assert.True(t, next.Current.Empty())
	assert.True(t, next.Regenerate)

	// the receiver is untouched
	_, exists = s.Item("bottom")
	assert.True(t, exists)
	assert.True(t, s.Prefs.HasColorEdge(ColorWhite, ColorBlack))
}

func TestDeleteKeepsSharedColorEdges(t *testing.T) {
	s := stateWith(t, basicWardrobe()...)
	next, err := s.DeleteItem("shoes")
	require.NoError(t, err)

	assert.True(t, next.Prefs.HasColorEdge(ColorBlack, ColorWhite), "top is still black")

	_, err = next.DeleteItem("shoes")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestAddReseedsPrunedColor(t *testing.T) {
	s := stateWith(t, basicWardrobe()...)
	s, err := s.DeleteItem("bottom")
	require.NoError(t, err)
	require.False(t, s.Prefs.HasColorEdge(ColorWhite, ColorBlack))

	s, _, err = s.AddItem(item("shorts", CategoryBottom, ColorWhite, StyleShorts, WeatherHot))
	require.NoError(t, err)
	assert.True(t, s.Prefs.HasColorEdge(ColorWhite, ColorBlack))
	assert.Zero(t, s.Prefs.ColorScore(ColorWhite, ColorBlack))
}

func mustItems(t *testing.T, s State, ids ...string) []ClothingItem {
	t.Helper()
	items, err := s.Items(ids)
	require.NoError(t, err)
	return items
}

func TestReconcileDropsDanglingReferences(t *testing.T) {
	s := stateWith(t, basicWardrobe()...)
	s, _ = s.Suggest(WeatherMild, testTime)
	s = s.RecordFeedback(s.Current.Items, true, TooHot, testTime)
	s.History = append(s.History, HistoryEntry{Date: testTime.Add(time.Hour), Items: []string{"top", "gone"}})
	s.Overrides["ghost"] = TooCold

	kept := s.Reconcile()
	assert.Len(t, kept.History, 1)
	assert.Len(t, kept.Feedback, 1)
	assert.Len(t, kept.Overrides, 3)
	assert.NotContains(t, kept.Overrides, "ghost")
	assert.False(t, kept.Current.Empty())

	s.Wardrobe = s.Wardrobe[:2]
	pruned := s.Reconcile()
	assert.Empty(t, pruned.History)
	assert.Empty(t, pruned.Feedback)
	assert.NotContains(t, pruned.Overrides, "shoes")
	assert.Len(t, pruned.Overrides, 2)
	assert.True(t, pruned.Current.Empty())
	assert.True(t, pruned.Regenerate)
	assert.Len(t, s.History, 2, "receiver must not change")
}
