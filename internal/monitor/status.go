package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/vipul43/kiwis-monitor/internal/models"
)

// JobStatusRecord is the monitor's in-memory view of one job kind's current
// run identity and lifecycle state.
type JobStatusRecord struct {
	RunID          string
	Lifecycle      models.JobLifecycle
	ErrorMessage   string
	TotalUnits     int
	ProcessedUnits int
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// StatusStore holds one JobStatusRecord per job kind, refreshed from the
// persisted status rows and updated directly by control actions. A run ID
// assigned by a just-issued start/restart is pinned: a background refresh
// returning a stale row (one that does not yet carry the new run ID) is
// ignored until a refresh reflects it.
type StatusStore struct {
	mu      sync.Mutex
	source  StatusSource
	userID  string
	records map[models.JobKind]*JobStatusRecord
	pinned  map[models.JobKind]string
}

func NewStatusStore(source StatusSource, userID string) *StatusStore {
	records := make(map[models.JobKind]*JobStatusRecord, len(models.AllJobKinds))
	for _, kind := range models.AllJobKinds {
		records[kind] = &JobStatusRecord{Lifecycle: models.LifecycleNotStarted}
	}
	return &StatusStore{
		source:  source,
		userID:  userID,
		records: records,
		pinned:  make(map[models.JobKind]string),
	}
}

// Refresh fetches the latest persisted status row and updates the record,
// unless the row is stale relative to a pinned start/restart run ID. Returns
// the record after the refresh.
func (s *StatusStore) Refresh(ctx context.Context, kind models.JobKind) (JobStatusRecord, error) {
	row, err := s.source.GetLatest(ctx, s.userID, kind)

	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.records[kind]
	if err != nil {
		return *record, err
	}
	if row == nil {
		return *record, nil
	}

	if pin, ok := s.pinned[kind]; ok {
		if row.RunID != pin {
			// Stale row from before the start/restart landed; the explicit
			// start result wins until a refresh carries the new run ID.
			return *record, nil
		}
		delete(s.pinned, kind)
	}

	record.RunID = row.RunID
	record.Lifecycle = row.Lifecycle
	record.ErrorMessage = ""
	if row.ErrorMessage != nil {
		record.ErrorMessage = *row.ErrorMessage
	}
	record.TotalUnits = 0
	if row.TotalUnits != nil {
		record.TotalUnits = *row.TotalUnits
	}
	record.ProcessedUnits = 0
	if row.ProcessedUnits != nil {
		record.ProcessedUnits = *row.ProcessedUnits
	}
	record.StartedAt = row.StartedAt
	record.CompletedAt = row.CompletedAt

	return *record, nil
}

// ApplyStart records the run ID returned by a start/restart control action
// and pins it against stale refreshes.
func (s *StatusStore) ApplyStart(kind models.JobKind, runID string, startedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.records[kind]
	record.RunID = runID
	record.Lifecycle = models.LifecycleRunning
	record.ErrorMessage = ""
	record.TotalUnits = 0
	record.ProcessedUnits = 0
	record.StartedAt = &startedAt
	record.CompletedAt = nil
	s.pinned[kind] = runID
}

// ApplyPause marks the job paused after a successful pause control action
func (s *StatusStore) ApplyPause(kind models.JobKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[kind].Lifecycle = models.LifecyclePaused
}

// ApplyCompletion marks the current run completed, inferred from an admitted
// completion event.
func (s *StatusStore) ApplyCompletion(kind models.JobKind, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.records[kind]
	record.Lifecycle = models.LifecycleCompleted
	record.CompletedAt = &at
}

// ApplyControlError surfaces a failed start/pause invocation. The prior
// lifecycle state is kept; only the error text is exposed.
func (s *StatusStore) ApplyControlError(kind models.JobKind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[kind].ErrorMessage = message
}

// Record returns a copy of the kind's current record
func (s *StatusStore) Record(kind models.JobKind) JobStatusRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.records[kind]
}
