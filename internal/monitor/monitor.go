package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vipul43/kiwis-monitor/internal/config"
	"github.com/vipul43/kiwis-monitor/internal/models"
)

// Summary is the per-job-kind view exposed to the presentation layer
type Summary struct {
	Kind          models.JobKind
	Lifecycle     models.JobLifecycle
	RunID         string
	Progress      float64
	HasProgress   bool
	LastError     string
	Paused        bool
	SyncedThrough *time.Time
}

// Monitor is the observing side of the mail/calendar mirror jobs. It keeps
// one gateway per job kind bound to the kind's current run ID, rebuilding it
// whenever the run ID changes (manual start, auto-restart, or a new run
// discovered by the periodic status refresh). Admitted events flow into the
// activity log and the recovery controller; the controller's restart
// decisions feed back into the status store, closing the loop.
type Monitor struct {
	cfg      *config.Config
	events   EventSource
	push     PushBus
	control  JobControl
	ledger   *Ledger
	logs     *LogBuffer
	status   *StatusStore
	recovery *Recovery
	conn     *ConnTracker

	runCtx context.Context

	gwMu     sync.Mutex
	gateways map[models.JobKind]*Gateway

	stMu          sync.Mutex
	syncedThrough map[models.JobKind]*time.Time
}

func New(
	cfg *config.Config,
	events EventSource,
	statuses StatusSource,
	control JobControl,
	push PushBus,
	connAPI ConnectionAPI,
) *Monitor {
	m := &Monitor{
		cfg:           cfg,
		events:        events,
		push:          push,
		control:       control,
		ledger:        NewLedger(),
		logs:          NewLogBuffer(),
		status:        NewStatusStore(statuses, cfg.UserID),
		conn:          NewConnTracker(connAPI),
		runCtx:        context.Background(),
		gateways:      make(map[models.JobKind]*Gateway),
		syncedThrough: make(map[models.JobKind]*time.Time),
	}
	m.recovery = NewRecovery(
		control,
		time.Duration(cfg.RestartDebounce)*time.Second,
		time.Duration(cfg.CooldownHours)*time.Hour,
		m.notice,
		m.applyRestart,
	)
	return m
}

// Start runs the status refresh loop until the context is cancelled
func (m *Monitor) Start(ctx context.Context) error {
	log.Println("Starting sync monitor for mail and calendar jobs...")
	m.runCtx = ctx

	m.conn.Check(ctx)
	m.reconcile(ctx)

	ticker := time.NewTicker(time.Duration(m.cfg.StatusRefreshInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sync monitor shutting down...")
			m.Close()
			return ctx.Err()
		case <-ticker.C:
			m.reconcile(ctx)
		}
	}
}

// reconcile refreshes both kinds' status rows and rebinds gateways to the
// current run identities. This is also how a run started outside this
// session (or by the worker itself) is discovered.
func (m *Monitor) reconcile(ctx context.Context) {
	for _, kind := range models.AllJobKinds {
		record, err := m.status.Refresh(ctx, kind)
		if err != nil {
			log.Printf("Warning: failed to refresh %s job status: %v", kind, err)
			continue
		}
		m.ensureGateway(kind, record.RunID)
	}
}

// ensureGateway tears down and rebuilds the kind's gateway when its run ID
// changes. Teardown completes before the ledger reset so a late in-flight
// response cannot be admitted against the new run's empty ledger.
func (m *Monitor) ensureGateway(kind models.JobKind, runID string) {
	m.gwMu.Lock()
	defer m.gwMu.Unlock()

	current := m.gateways[kind]
	if current != nil && current.runID == runID {
		return
	}
	if current == nil && runID == "" {
		return
	}

	if current != nil {
		current.Stop()
		delete(m.gateways, kind)
	}
	m.ledger.Reset(kind)

	if runID == "" {
		return
	}

	gateway := newGateway(
		m.cfg.UserID,
		kind,
		runID,
		m.ledger,
		m.events,
		m.push,
		m.pollInterval(kind),
		m.cfg.PollPageSize,
		m.handleEvent,
	)
	gateway.Start(m.runCtx)
	m.gateways[kind] = gateway
	log.Printf("Watching %s run %s", kind, runID)
}

// pollInterval is kind-specific: mail is the higher-urgency stream
func (m *Monitor) pollInterval(kind models.JobKind) time.Duration {
	if kind == models.JobKindMail {
		return time.Duration(m.cfg.MailPollInterval) * time.Second
	}
	return time.Duration(m.cfg.CalendarPollInterval) * time.Second
}

// handleEvent receives every admitted event from the gateways
func (m *Monitor) handleEvent(event models.SyncEvent) {
	m.logs.Append(models.LogEntry{
		ID:        event.ID,
		JobKind:   event.JobKind,
		Message:   event.Message,
		Timestamp: event.Timestamp,
	})

	if m.recovery.HandleEvent(event) == CategoryCompletion {
		m.status.ApplyCompletion(event.JobKind, event.Timestamp)

		m.stMu.Lock()
		completedAt := event.Timestamp
		m.syncedThrough[event.JobKind] = &completedAt
		m.stMu.Unlock()
	}
}

// notice appends a monitor-generated entry to the activity log
func (m *Monitor) notice(kind models.JobKind, message string) {
	m.logs.Append(models.LogEntry{
		ID:        uuid.New().String(),
		JobKind:   kind,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// applyRestart feeds a successful auto-restart back into the status store
// and rebinds the gateway to the new run.
func (m *Monitor) applyRestart(kind models.JobKind, runID string, startedAt time.Time) {
	m.status.ApplyStart(kind, runID, startedAt)
	m.ensureGateway(kind, runID)
}

// StartJob starts (or restarts) a job on the user's behalf
func (m *Monitor) StartJob(ctx context.Context, kind models.JobKind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown job kind: %s", kind)
	}

	result, err := m.control.StartJob(ctx, kind)
	if err != nil {
		m.status.ApplyControlError(kind, err.Error())
		return fmt.Errorf("failed to start %s job: %w", kind, err)
	}

	// An explicit start overrides any pause and completion cooldown
	m.recovery.MarkStarted(kind)
	m.status.ApplyStart(kind, result.RunID, result.StartedAt)
	m.ensureGateway(kind, result.RunID)
	log.Printf("Started %s job, run %s", kind, result.RunID)
	return nil
}

// PauseJob pauses a job on the user's behalf and suppresses auto-restarts
// until the next explicit start.
func (m *Monitor) PauseJob(ctx context.Context, kind models.JobKind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown job kind: %s", kind)
	}

	if err := m.control.PauseJob(ctx, kind); err != nil {
		m.status.ApplyControlError(kind, err.Error())
		return fmt.Errorf("failed to pause %s job: %w", kind, err)
	}

	m.recovery.MarkPaused(kind)
	m.status.ApplyPause(kind)
	log.Printf("Paused %s job", kind)
	return nil
}

// CheckConnection re-verifies the integration's authorization state
func (m *Monitor) CheckConnection(ctx context.Context) models.ConnectionState {
	return m.conn.Check(ctx)
}

// ConnectionState returns the last known connection state
func (m *Monitor) ConnectionState() models.ConnectionState {
	return m.conn.State()
}

// Connect begins the authorization flow and returns the redirect target
func (m *Monitor) Connect() string {
	return m.conn.Connect()
}

// Disconnect revokes the authorization and clears the synced-through
// markers for both job kinds.
func (m *Monitor) Disconnect(ctx context.Context) error {
	if err := m.conn.Disconnect(ctx); err != nil {
		return err
	}

	m.stMu.Lock()
	m.syncedThrough = make(map[models.JobKind]*time.Time)
	m.stMu.Unlock()
	return nil
}

// Summary returns the per-kind view for the presentation layer
func (m *Monitor) Summary(kind models.JobKind) Summary {
	record := m.status.Record(kind)

	summary := Summary{
		Kind:      kind,
		Lifecycle: record.Lifecycle,
		RunID:     record.RunID,
		LastError: record.ErrorMessage,
		Paused:    m.recovery.Paused(kind),
	}
	if record.TotalUnits > 0 {
		summary.Progress = float64(record.ProcessedUnits) / float64(record.TotalUnits)
		summary.HasProgress = true
	}

	m.stMu.Lock()
	if ts := m.syncedThrough[kind]; ts != nil {
		syncedThrough := *ts
		summary.SyncedThrough = &syncedThrough
	}
	m.stMu.Unlock()

	if summary.SyncedThrough == nil && record.Lifecycle == models.LifecycleCompleted && record.CompletedAt != nil {
		summary.SyncedThrough = record.CompletedAt
	}
	return summary
}

// Logs returns the filtered activity log
func (m *Monitor) Logs(filter LogFilter) []models.LogEntry {
	return m.logs.View(filter)
}

// ClearLogs empties the activity log for both job kinds
func (m *Monitor) ClearLogs() {
	m.logs.Clear()
}

// Close tears down all gateways and pending restart timers
func (m *Monitor) Close() {
	m.recovery.Close()

	m.gwMu.Lock()
	defer m.gwMu.Unlock()
	for kind, gateway := range m.gateways {
		gateway.Stop()
		delete(m.gateways, kind)
	}
}
