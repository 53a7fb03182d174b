package vault

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
)

// Event kinds
const (
	EventItemAdded    = "item_added"
	EventItemEdited   = "item_edited"
	EventItemDeleted  = "item_deleted"
	EventFeedback     = "feedback"
	EventTemperature  = "temperature"
	EventOverrideDrop = "override_cleared"
)

// Event is one line of the journal
type Event struct {
	TS     string   `json:"ts"`
	Kind   string   `json:"kind"`
	Items  []string `json:"items,omitempty"`
	Liked  *bool    `json:"liked,omitempty"`
	Marker string   `json:"marker,omitempty"`
}

func NewEvent(kind string, at time.Time, items ...string) Event {
	return Event{TS: at.UTC().Format(time.RFC3339), Kind: kind, Items: items}
}

// LogEvent appends an event to journal/events.jsonl
func (v *Vault) LogEvent(e Event) error {
	v.journalLock.Lock()
	defer v.journalLock.Unlock()

	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if err := AppendLine(filepath.Join(v.basePath, journalPath), line); err != nil {
		return fmt.Errorf("appending event: %w", err)
	}
	return nil
}
