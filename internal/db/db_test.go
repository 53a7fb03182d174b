package db

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrwolf/fitpicker/internal/outfit"
)

func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "fitpicker-db-test-*.db")
	require.NoError(t, err)
	tmpFile.Close()

	db, err := Open(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("opening database: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(tmpFile.Name())
	}

	return db, cleanup
}

var when = time.Date(2026, 10, 18, 7, 45, 12, 500, time.UTC)

func sampleState(t *testing.T) outfit.State {
	t.Helper()
	s := outfit.NewState()
	for _, it := range []outfit.ClothingItem{
		{ID: "tee", Name: "Tee", Category: outfit.CategoryTop, Color: outfit.ColorBlack, Style: outfit.StyleTShirt, WeatherTags: []outfit.WeatherTag{outfit.WeatherMild}},
		{ID: "jeans", Name: "Jeans", Category: outfit.CategoryBottom, Color: outfit.ColorBlue, Style: outfit.StyleDenim, WeatherTags: []outfit.WeatherTag{outfit.WeatherMild}},
		{ID: "boots", Name: "Boots", Category: outfit.CategoryShoes, Color: outfit.ColorBrown, Style: outfit.StyleBoots, WeatherTags: []outfit.WeatherTag{outfit.WeatherMild, outfit.WeatherCold}},
	} {
		var err error
		s, _, err = s.AddItem(it)
		require.NoError(t, err)
	}
	return s
}

func TestEmptyDatabaseLoadsDefaults(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	s, err := db.LoadState()
	require.NoError(t, err)

	assert.Empty(t, s.Wardrobe)
	assert.Empty(t, s.History)
	assert.Empty(t, s.Feedback)
	assert.Empty(t, s.Overrides)
	assert.Len(t, s.Prefs.ColorEdges(), 36)
	assert.Len(t, s.Prefs.StyleEdges(), 32)
	assert.True(t, s.Regenerate)
}

func TestSaveAndLoadState(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	s := sampleState(t)
	s, presented := s.Suggest(outfit.WeatherMild, when)
	require.False(t, presented.Empty())
	s = s.RecordFeedback(presented.Items, true, outfit.TooHot, when.Add(time.Minute))

	require.NoError(t, db.SaveState(s))

	loaded, err := db.LoadState()
	require.NoError(t, err)

	assert.Equal(t, s.Wardrobe, loaded.Wardrobe)
	assert.Equal(t, s.Prefs.ColorEdges(), loaded.Prefs.ColorEdges())
	assert.Equal(t, s.Prefs.StyleEdges(), loaded.Prefs.StyleEdges())
	assert.Equal(t, s.Overrides, loaded.Overrides)
	assert.Equal(t, outfit.TooHot, loaded.Overrides["tee"])
	require.Len(t, loaded.History, 1)
	assert.True(t, when.Equal(loaded.History[0].Date))
	assert.Equal(t, []string{"tee", "jeans", "boots"}, loaded.History[0].Items)
	require.Len(t, loaded.Feedback, 1)
	assert.True(t, loaded.Feedback[0].Liked)
	assert.Equal(t, outfit.WeatherMild, loaded.CurrentTag)
	assert.Equal(t, presented.IDs(), loaded.Current.IDs())
	assert.Equal(t, s.Regenerate, loaded.Regenerate)
}

func TestCorruptCollectionsFallBack(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, db.SaveState(sampleState(t)))
	require.NoError(t, db.PutRaw(ColorPrefs, []byte("{not json")))
	require.NoError(t, db.PutRaw(History, []byte(`[{"date":`)))
	require.NoError(t, db.PutRaw(Overrides, []byte(`"hot"`)))

	s, err := db.LoadState()
	require.NoError(t, err)

	assert.Len(t, s.Wardrobe, 3)
	assert.Len(t, s.Prefs.ColorEdges(), 36)
	assert.Empty(t, s.History)
	assert.Empty(t, s.Overrides)
}

func TestCorruptWardrobeResetsToEmpty(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, db.PutRaw(Wardrobe, []byte("garbage")))

	items, err := db.LoadWardrobe()
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestInvalidStoredItemsDropped(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	raw := `[
		{"id":"a","name":"Tee","type":"top","color":"black","weatherTags":["mild"],"styleTag":"tshirt"},
		{"id":"b","name":"Cape","type":"cape","color":"black","weatherTags":["mild"]},
		{"id":"c","name":"Tee","type":"top","color":"mauve","weatherTags":["mild"],"styleTag":"tshirt"},
		{"id":"a","name":"Dup","type":"top","color":"white","weatherTags":["mild"],"styleTag":"tshirt"},
		{"id":"d","name":"Loafers","type":"shoes","color":"brown","weatherTags":["mild"]}
	]`
	require.NoError(t, db.PutRaw(Wardrobe, []byte(raw)))

	items, err := db.LoadWardrobe()
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "d", items[1].ID)
}

func TestDroppedItemsTakeReferencesWithThem(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	wardrobe := `[
		{"id":"a","name":"Tee","type":"top","color":"black","weatherTags":["mild"],"styleTag":"tshirt"},
		{"id":"b","name":"Cape","type":"cape","color":"black","weatherTags":["mild"]}
	]`
	history := `[
		{"date":"2026-10-17T08:00:00Z","items":["a","b"]},
		{"date":"2026-10-18T08:00:00Z","items":["a"]}
	]`
	feedback := `[
		{"outfit":[{"id":"b","name":"Cape","type":"cape","color":"black","weatherTags":["mild"]}],"liked":true,"date":"2026-10-17T08:00:00Z"},
		{"outfit":[{"id":"a","name":"Tee","type":"top","color":"black","weatherTags":["mild"],"styleTag":"tshirt"}],"liked":false,"date":"2026-10-18T08:00:00Z"}
	]`
	require.NoError(t, db.PutRaw(Wardrobe, []byte(wardrobe)))
	require.NoError(t, db.PutRaw(History, []byte(history)))
	require.NoError(t, db.PutRaw(Feedback, []byte(feedback)))
	require.NoError(t, db.PutRaw(Overrides, []byte(`{"a":"cold","b":"hot","ghost":"cold"}`)))

	s, err := db.LoadState()
	require.NoError(t, err)

	require.Len(t, s.Wardrobe, 1)
	require.Len(t, s.History, 1)
	assert.Equal(t, []string{"a"}, s.History[0].Items)
	require.Len(t, s.Feedback, 1)
	assert.False(t, s.Feedback[0].Liked)
	assert.Equal(t, outfit.Overrides{"a": outfit.TooCold}, s.Overrides)

	// re-adding the dropped id starts without its old marker
	s, _, err = s.AddItem(outfit.ClothingItem{ID: "b", Name: "Coat", Category: outfit.CategoryOuterwear, Color: outfit.ColorBlack, WeatherTags: []outfit.WeatherTag{outfit.WeatherCold}})
	require.NoError(t, err)
	assert.NotContains(t, s.Overrides, "b")
}

func TestPrunedEdgesStayPruned(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	s := sampleState(t)
	s, err := s.DeleteItem("boots")
	require.NoError(t, err)
	require.False(t, s.Prefs.HasColorEdge(outfit.ColorBrown, outfit.ColorBlack))

	require.NoError(t, db.SaveState(s))
	loaded, err := db.LoadState()
	require.NoError(t, err)

	assert.False(t, loaded.Prefs.HasColorEdge(outfit.ColorBrown, outfit.ColorBlack))
	assert.True(t, loaded.Prefs.HasColorEdge(outfit.ColorBlue, outfit.ColorBlack))
}

func TestStaleCurrentSuggestionDiscarded(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	s := sampleState(t)
	s, _ = s.Suggest(outfit.WeatherMild, when)
	require.NoError(t, db.SaveState(s))

	wardrobe := s.Wardrobe[:2]
	require.NoError(t, db.SaveWardrobe(wardrobe))

	loaded, err := db.LoadState()
	require.NoError(t, err)
	assert.True(t, loaded.Current.Empty())
	assert.True(t, loaded.Regenerate)
}

func TestWeatherReadings(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	latest, err := db.LatestReading()
	require.NoError(t, err)
	assert.Nil(t, latest)

	old := Reading{TemperatureF: 40, Condition: "clear", Tag: "cold", Source: "api", FetchedAt: when.Add(-48 * time.Hour)}
	cur := Reading{TemperatureF: 81.5, Condition: "cloudy", Tag: "hot", Source: "api", Latitude: 40.71, Longitude: -74.01, FetchedAt: when}
	require.NoError(t, db.LogReading(old))
	require.NoError(t, db.LogReading(cur))

	latest, err = db.LatestReading()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.InDelta(t, 81.5, latest.TemperatureF, 1e-9)
	assert.Equal(t, "hot", latest.Tag)
	assert.True(t, when.Truncate(time.Second).Equal(latest.FetchedAt))

	n, err := db.PruneReadings(when.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSchedulerRuns(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	run, err := db.GetLastSchedulerRun("weather_refresh")
	require.NoError(t, err)
	assert.Nil(t, run)

	id, err := db.StartSchedulerRun("weather_refresh")
	require.NoError(t, err)

	run, err = db.GetLastSchedulerRun("weather_refresh")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "running", run.Status)
	assert.Nil(t, run.CompletedAt)

	require.NoError(t, db.CompleteSchedulerRun(id, "upstream timeout"))

	run, err = db.GetLastSchedulerRun("weather_refresh")
	require.NoError(t, err)
	assert.Equal(t, "failed", run.Status)
	assert.Equal(t, "upstream timeout", run.ErrorMessage)
	assert.NotNil(t, run.CompletedAt)
}
