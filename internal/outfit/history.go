package outfit

import "time"

// RecentWindow is how far back WornSince callers usually look
const RecentWindow = 7 * 24 * time.Hour

// RecordPresented appends a history entry for a non-empty outfit unless an
// entry with the same timestamp and item sequence already exists
func (s State) RecordPresented(o Outfit, at time.Time) State {
	if o.Empty() {
		return s
	}
	entry := HistoryEntry{Date: at, Items: o.IDs()}
	for _, h := range s.History {
		if h.Date.Equal(entry.Date) && sameIDs(h.Items, entry.Items) {
			return s
		}
	}
	next := s.Clone()
	next.History = append(next.History, entry)
	return next
}

// WornSince reports whether the item appears in a history entry dated
// after since
func (s State) WornSince(id string, since time.Time) bool {
	for _, h := range s.History {
		if h.Date.After(since) && containsID(h.Items, id) {
			return true
		}
	}
	return false
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
