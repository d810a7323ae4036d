package monitor

import (
	"sync"

	"github.com/vipul43/kiwis-monitor/internal/models"
)

type LogFilter string

const (
	FilterAll      LogFilter = "all"
	FilterMail     LogFilter = LogFilter(models.JobKindMail)
	FilterCalendar LogFilter = LogFilter(models.JobKindCalendar)
)

// LogBuffer is the append-only activity log across both job kinds. Entries
// arrive already deduplicated (the ledger's job); the buffer never mutates
// or removes them except through Clear.
type LogBuffer struct {
	mu      sync.RWMutex
	entries []models.LogEntry
}

func NewLogBuffer() *LogBuffer {
	return &LogBuffer{}
}

// Append adds an entry in arrival order
func (b *LogBuffer) Append(entry models.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entry)
}

// View returns a copy of the entries matching the filter
func (b *LogBuffer) View(filter LogFilter) []models.LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]models.LogEntry, 0, len(b.entries))
	for _, entry := range b.entries {
		if filter == FilterAll || LogFilter(entry.JobKind) == filter {
			out = append(out, entry)
		}
	}
	return out
}

// Clear empties the entire log, independent of job kind
func (b *LogBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
}
