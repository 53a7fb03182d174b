package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/mrwolf/fitpicker/internal/logging"
	"github.com/mrwolf/fitpicker/internal/outfit"
)

// Collection names
const (
	Wardrobe     = "wardrobe"
	ColorPrefs   = "color-preferences"
	StylePrefs   = "style-preferences"
	Feedback     = "outfit-feedback"
	History      = "wardrobe-history"
	Overrides    = "temperature-overrides"
	currentState = "current-suggestion"
)

// current is the cached suggestion, kept so a restart does not reshuffle
type current struct {
	Outfit     outfit.Outfit     `json:"outfit"`
	Tag        outfit.WeatherTag `json:"tag"`
	Regenerate bool              `json:"regenerate"`
}

// LoadState reads every collection. Missing or corrupt collections fall
// back to their defaults and are logged; only I/O errors are returned.
func (db *DB) LoadState() (outfit.State, error) {
	s := outfit.NewState()

	items, err := db.LoadWardrobe()
	if err != nil {
		return s, err
	}
	s.Wardrobe = items

	var colors []outfit.ColorEdge
	if _, err := db.load(ColorPrefs, &colors); err != nil {
		return s, err
	}
	var styles []outfit.StyleEdge
	if _, err := db.load(StylePrefs, &styles); err != nil {
		return s, err
	}
	s.Prefs = outfit.PreferencesFromEdges(colors, styles)

	if _, err := db.load(Feedback, &s.Feedback); err != nil {
		return s, err
	}
	if _, err := db.load(History, &s.History); err != nil {
		return s, err
	}

	overrides := outfit.Overrides{}
	if _, err := db.load(Overrides, &overrides); err != nil {
		return s, err
	}
	s.Overrides = outfit.Overrides{}
	for id, m := range overrides {
		if m.Valid() {
			s.Overrides[id] = m
		}
	}

	var cur current
	found, err := db.load(currentState, &cur)
	if err != nil {
		return s, err
	}
	if found && cur.Tag.Valid() {
		s.Current = cur.Outfit
		s.CurrentTag = cur.Tag
		s.Regenerate = cur.Regenerate
	}

	// items dropped on load take their references with them
	return s.Reconcile(), nil
}

// LoadWardrobe returns the stored items, dropping any that fail validation
func (db *DB) LoadWardrobe() ([]outfit.ClothingItem, error) {
	var raw []outfit.ClothingItem
	if _, err := db.load(Wardrobe, &raw); err != nil {
		return nil, err
	}
	items := make([]outfit.ClothingItem, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, it := range raw {
		if it.ID == "" || seen[it.ID] {
			logging.Warn().Str("id", it.ID).Msg("dropping stored item without unique id")
			continue
		}
		if err := it.Validate(); err != nil {
			logging.Warn().Err(err).Str("id", it.ID).Msg("dropping invalid stored item")
			continue
		}
		seen[it.ID] = true
		items = append(items, it)
	}
	return items, nil
}

// SaveWardrobe replaces the wardrobe collection on its own
func (db *DB) SaveWardrobe(items []outfit.ClothingItem) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := put(tx, Wardrobe, nonNil(items)); err != nil {
		return err
	}
	return tx.Commit()
}

// SaveState writes every collection in one transaction
func (db *DB) SaveState(s outfit.State) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	prefs := s.Prefs
	if prefs == nil {
		prefs = outfit.NewPreferences()
	}
	overrides := s.Overrides
	if overrides == nil {
		overrides = outfit.Overrides{}
	}

	docs := []struct {
		name string
		v    any
	}{
		{Wardrobe, nonNil(s.Wardrobe)},
		{ColorPrefs, nonNil(prefs.ColorEdges())},
		{StylePrefs, nonNil(prefs.StyleEdges())},
		{Feedback, nonNil(s.Feedback)},
		{History, nonNil(s.History)},
		{Overrides, overrides},
		{currentState, current{Outfit: s.Current, Tag: s.CurrentTag, Regenerate: s.Regenerate}},
	}
	for _, d := range docs {
		if err := put(tx, d.name, d.v); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing state: %w", err)
	}
	return nil
}

// RawCollection returns the stored JSON for one collection
func (db *DB) RawCollection(name string) ([]byte, bool, error) {
	var data string
	err := db.conn.QueryRow(`SELECT data FROM collections WHERE name = ?`, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", name, err)
	}
	return []byte(data), true, nil
}

// PutRaw stores a JSON document as-is. Used by tests and imports.
func (db *DB) PutRaw(name string, data []byte) error {
	_, err := db.conn.Exec(`
		INSERT INTO collections (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, name, string(data), time.Now().UTC().Format(time.RFC3339))
	return err
}

// load decodes a collection into v. A corrupt document leaves v at its
// zero value and is reported as not found.
func (db *DB) load(name string, v any) (bool, error) {
	data, ok, err := db.RawCollection(name)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		logging.Warn().Err(err).Str("collection", name).Msg("corrupt collection, using defaults")
		resetZero(v)
		return false, nil
	}
	return true, nil
}

func put(tx *sql.Tx, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	_, err = tx.Exec(`
		INSERT INTO collections (name, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, name, string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func resetZero(v any) {
	switch p := v.(type) {
	case *[]outfit.ClothingItem:
		*p = nil
	case *[]outfit.ColorEdge:
		*p = nil
	case *[]outfit.StyleEdge:
		*p = nil
	case *[]outfit.FeedbackRecord:
		*p = nil
	case *[]outfit.HistoryEntry:
		*p = nil
	case *outfit.Overrides:
		*p = outfit.Overrides{}
	case *current:
		*p = current{}
	}
}

// nonNil keeps empty collections encoded as [] rather than null
func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
