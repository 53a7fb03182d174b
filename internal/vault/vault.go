// Package vault keeps human-readable copies of the engine state on disk:
// dated JSON snapshots and an append-only event journal.
package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/mrwolf/fitpicker/internal/outfit"
)

const (
	snapshotDir = "snapshots"
	journalPath = "journal/events.jsonl"
)

type Vault struct {
	basePath    string
	journalLock sync.Mutex
}

func NewVault(basePath string) *Vault {
	return &Vault{basePath: basePath}
}

func (v *Vault) BasePath() string {
	return v.basePath
}

// Snapshot is the exported form of the state
type Snapshot struct {
	ExportedAt       time.Time               `json:"exportedAt"`
	Wardrobe         []outfit.ClothingItem   `json:"wardrobe"`
	ColorPreferences []outfit.ColorEdge      `json:"colorPreferences"`
	StylePreferences []outfit.StyleEdge      `json:"stylePreferences"`
	Feedback         []outfit.FeedbackRecord `json:"feedback"`
	History          []outfit.HistoryEntry   `json:"history"`
	Overrides        outfit.Overrides        `json:"temperatureOverrides"`
}

func NewSnapshot(s outfit.State, at time.Time) Snapshot {
	snap := Snapshot{
		ExportedAt: at,
		Wardrobe:   s.Wardrobe,
		Feedback:   s.Feedback,
		History:    s.History,
		Overrides:  s.Overrides,
	}
	if s.Prefs != nil {
		snap.ColorPreferences = s.Prefs.ColorEdges()
		snap.StylePreferences = s.Prefs.StyleEdges()
	}
	return snap
}

// WriteSnapshot writes snapshots/YYYY-MM-DD.json, replacing an earlier
// snapshot from the same day. Returns the path relative to the vault.
func (v *Vault) WriteSnapshot(s outfit.State, at time.Time) (string, error) {
	data, err := json.MarshalIndent(NewSnapshot(s, at), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}
	relPath := filepath.Join(snapshotDir, at.Format("2006-01-02")+".json")
	if err := WriteFileAtomic(filepath.Join(v.basePath, relPath), data); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	return relPath, nil
}

// ReadSnapshot loads a snapshot by its relative path
func (v *Vault) ReadSnapshot(relPath string) (Snapshot, error) {
	var snap Snapshot
	data, err := os.ReadFile(filepath.Join(v.basePath, relPath))
	if err != nil {
		return snap, fmt.Errorf("reading snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decoding snapshot %s: %w", relPath, err)
	}
	return snap, nil
}

// Snapshots lists snapshot paths, oldest first
func (v *Vault) Snapshots() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(v.basePath, snapshotDir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(snapshotDir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// PruneSnapshots keeps the newest keep snapshots and removes the rest
func (v *Vault) PruneSnapshots(keep int) (int, error) {
	paths, err := v.Snapshots()
	if err != nil || len(paths) <= keep {
		return 0, err
	}
	removed := 0
	for _, p := range paths[:len(paths)-keep] {
		if err := os.Remove(filepath.Join(v.basePath, p)); err != nil {
			return removed, fmt.Errorf("removing %s: %w", p, err)
		}
		removed++
	}
	return removed, nil
}
