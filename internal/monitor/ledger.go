package monitor

import (
	"sync"
	"time"

	"github.com/vipul43/kiwis-monitor/internal/models"
)

// Ledger tracks which event IDs have already been admitted per job kind, and
// the timestamp of the newest admitted event. Both transports call Admit for
// every event they receive; only the first delivery of an ID wins. Admit is
// a single check-and-insert under one lock so the push and poll goroutines
// can never double-admit the same ID.
type Ledger struct {
	mu      sync.Mutex
	cursors map[models.JobKind]*ledgerCursor
}

type ledgerCursor struct {
	seen     map[string]struct{}
	lastSeen *time.Time
}

func NewLedger() *Ledger {
	cursors := make(map[models.JobKind]*ledgerCursor, len(models.AllJobKinds))
	for _, kind := range models.AllJobKinds {
		cursors[kind] = &ledgerCursor{seen: make(map[string]struct{})}
	}
	return &Ledger{cursors: cursors}
}

// Admit records the event ID and returns true iff it has not been seen for
// this kind's current cursor. Duplicates return false and are dropped.
func (l *Ledger) Admit(kind models.JobKind, event models.SyncEvent) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cursor, ok := l.cursors[kind]
	if !ok {
		return false
	}
	if _, dup := cursor.seen[event.ID]; dup {
		return false
	}
	cursor.seen[event.ID] = struct{}{}
	if cursor.lastSeen == nil || event.Timestamp.After(*cursor.lastSeen) {
		ts := event.Timestamp
		cursor.lastSeen = &ts
	}
	return true
}

// Reset clears the kind's seen set and cursor. Called exactly once per new
// run ID, after the old gateway has been torn down.
func (l *Ledger) Reset(kind models.JobKind) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cursors[kind] = &ledgerCursor{seen: make(map[string]struct{})}
}

// Cursor returns the timestamp of the most recently admitted event, or nil
// if nothing has been admitted for the current run.
func (l *Ledger) Cursor(kind models.JobKind) *time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	cursor, ok := l.cursors[kind]
	if !ok || cursor.lastSeen == nil {
		return nil
	}
	ts := *cursor.lastSeen
	return &ts
}
