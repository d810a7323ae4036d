package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vipul43/kiwis-monitor/internal/models"
)

type mockJobControl struct {
	mu         sync.Mutex
	startCalls []models.JobKind
	pauseCalls []models.JobKind
	startFunc  func(ctx context.Context, kind models.JobKind) (*StartResult, error)
	pauseFunc  func(ctx context.Context, kind models.JobKind) error
}

func (m *mockJobControl) StartJob(ctx context.Context, kind models.JobKind) (*StartResult, error) {
	m.mu.Lock()
	m.startCalls = append(m.startCalls, kind)
	m.mu.Unlock()
	if m.startFunc != nil {
		return m.startFunc(ctx, kind)
	}
	return &StartResult{RunID: "run-auto", StartedAt: time.Now()}, nil
}

func (m *mockJobControl) PauseJob(ctx context.Context, kind models.JobKind) error {
	m.mu.Lock()
	m.pauseCalls = append(m.pauseCalls, kind)
	m.mu.Unlock()
	if m.pauseFunc != nil {
		return m.pauseFunc(ctx, kind)
	}
	return nil
}

func (m *mockJobControl) startCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.startCalls)
}

type noticeRecorder struct {
	mu    sync.Mutex
	notes []string
}

func (n *noticeRecorder) record(kind models.JobKind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, fmt.Sprintf("%s: %s", kind, message))
}

func (n *noticeRecorder) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.notes...)
}

func (n *noticeRecorder) containing(substr string) int {
	count := 0
	for _, note := range n.all() {
		if strings.Contains(note, substr) {
			count++
		}
	}
	return count
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type startRecorder struct {
	mu    sync.Mutex
	kinds []models.JobKind
	runs  []string
}

func (s *startRecorder) record(kind models.JobKind, runID string, startedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kinds = append(s.kinds, kind)
	s.runs = append(s.runs, runID)
}

func (s *startRecorder) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.kinds)
}

func newTestRecovery(control *mockJobControl, debounce time.Duration) (*Recovery, *noticeRecorder, *startRecorder) {
	notices := &noticeRecorder{}
	starts := &startRecorder{}
	recovery := NewRecovery(control, debounce, 24*time.Hour, notices.record, starts.record)
	return recovery, notices, starts
}

func stallEvent(kind models.JobKind, ts time.Time) models.SyncEvent {
	return models.SyncEvent{
		ID:        "stall-" + ts.Format(time.RFC3339Nano),
		JobKind:   kind,
		RunID:     "run-1",
		Message:   "[auto-restart] triggered",
		Timestamp: ts,
	}
}

func TestClassifyMessage(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected Category
	}{
		{"completion all synced", "✅ All weeks synced", CategoryCompletion},
		{"completion explicit", "Sync completed successfully", CategoryCompletion},
		{"completion nothing to do", "Nothing to do, mailbox up to date", CategoryCompletion},
		{"stall auto-restart marker", "[auto-restart] triggered", CategoryStall},
		{"stall function timeout", "Function call timed out", CategoryStall},
		{"stall aborted", "Run aborted by runtime", CategoryStall},
		{"informational progress", "Processing week 3", CategoryInfo},
		{"informational empty", "", CategoryInfo},
		{"case insensitive", "ALL SYNCED", CategoryCompletion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyMessage(tt.message); got != tt.expected {
				t.Errorf("Expected category %d for %q, got %d", tt.expected, tt.message, got)
			}
		})
	}
}

func TestRecovery_DebounceCollapsesStallBurst(t *testing.T) {
	control := &mockJobControl{}
	recovery, _, starts := newTestRecovery(control, 20*time.Millisecond)
	defer recovery.Close()

	for i := 0; i < 5; i++ {
		event := stallEvent(models.JobKindCalendar, time.Now().Add(time.Duration(i)*time.Millisecond))
		event.ID = fmt.Sprintf("stall-%d", i)
		recovery.HandleEvent(event)
	}

	time.Sleep(100 * time.Millisecond)

	if got := control.startCount(); got != 1 {
		t.Errorf("Expected exactly 1 start invocation for a stall burst, got %d", got)
	}
	if starts.count() != 1 {
		t.Errorf("Expected 1 restart callback, got %d", starts.count())
	}
}

func TestRecovery_PauseSuppressesRestart(t *testing.T) {
	control := &mockJobControl{}
	recovery, notices, _ := newTestRecovery(control, 10*time.Millisecond)
	defer recovery.Close()

	recovery.MarkPaused(models.JobKindMail)
	recovery.HandleEvent(stallEvent(models.JobKindMail, time.Now()))

	time.Sleep(60 * time.Millisecond)

	if got := control.startCount(); got != 0 {
		t.Errorf("Expected no start invocation while paused, got %d", got)
	}
	if notices.containing("paused") != 1 {
		t.Errorf("Expected a pause cancellation notice, got %v", notices.all())
	}
}

func TestRecovery_CooldownSuppressesThenAllows(t *testing.T) {
	control := &mockJobControl{}
	recovery, notices, _ := newTestRecovery(control, 10*time.Millisecond)
	defer recovery.Close()

	clock := &fakeClock{t: time.Now()}
	recovery.now = clock.Now

	// A completion starts the 24h cooldown
	recovery.HandleEvent(models.SyncEvent{
		ID:        "done",
		JobKind:   models.JobKindMail,
		RunID:     "run-1",
		Message:   "✅ All weeks synced",
		Timestamp: clock.Now(),
	})

	// 10 hours later a stray stall signal arrives
	clock.Advance(10 * time.Hour)
	recovery.HandleEvent(stallEvent(models.JobKindMail, clock.Now()))
	time.Sleep(60 * time.Millisecond)

	if got := control.startCount(); got != 0 {
		t.Fatalf("Expected no restart inside the cooldown window, got %d", got)
	}
	if notices.containing("cooldown active") != 1 {
		t.Fatalf("Expected a cooldown notice, got %v", notices.all())
	}
	if notices.containing("14h remaining") != 1 {
		t.Errorf("Expected 14h remaining in the notice, got %v", notices.all())
	}

	// Past the window the restart goes through
	clock.Advance(15 * time.Hour)
	recovery.HandleEvent(stallEvent(models.JobKindMail, clock.Now()))
	time.Sleep(60 * time.Millisecond)

	if got := control.startCount(); got != 1 {
		t.Errorf("Expected a restart after the cooldown elapsed, got %d", got)
	}
}

func TestRecovery_ManualStartClearsCooldown(t *testing.T) {
	control := &mockJobControl{}
	recovery, _, _ := newTestRecovery(control, 10*time.Millisecond)
	defer recovery.Close()

	recovery.HandleEvent(models.SyncEvent{
		ID:        "done",
		JobKind:   models.JobKindMail,
		RunID:     "run-1",
		Message:   "sync completed successfully",
		Timestamp: time.Now(),
	})
	recovery.MarkStarted(models.JobKindMail)

	recovery.HandleEvent(stallEvent(models.JobKindMail, time.Now()))
	time.Sleep(60 * time.Millisecond)

	if got := control.startCount(); got != 1 {
		t.Errorf("Expected restart after manual start cleared the cooldown, got %d", got)
	}
}

func TestRecovery_IgnoresHistoricalStallSignals(t *testing.T) {
	control := &mockJobControl{}
	recovery, notices, _ := newTestRecovery(control, 10*time.Millisecond)
	defer recovery.Close()

	// Replayed from before this observation session
	recovery.HandleEvent(stallEvent(models.JobKindCalendar, recovery.sessionStart.Add(-time.Hour)))
	time.Sleep(60 * time.Millisecond)

	if got := control.startCount(); got != 0 {
		t.Errorf("Expected no restart for a historical stall signal, got %d", got)
	}
	if len(notices.all()) != 0 {
		t.Errorf("Expected no notices, got %v", notices.all())
	}
}

func TestRecovery_RestartFailureIsLoggedNotRetried(t *testing.T) {
	control := &mockJobControl{
		startFunc: func(ctx context.Context, kind models.JobKind) (*StartResult, error) {
			return nil, fmt.Errorf("control API error (status 502)")
		},
	}
	recovery, notices, starts := newTestRecovery(control, 10*time.Millisecond)
	defer recovery.Close()

	recovery.HandleEvent(stallEvent(models.JobKindMail, time.Now()))
	time.Sleep(60 * time.Millisecond)

	if got := control.startCount(); got != 1 {
		t.Fatalf("Expected exactly one start attempt, got %d", got)
	}
	if starts.count() != 0 {
		t.Error("expected no restart callback on failure")
	}
	if notices.containing("auto-restart failed") != 1 {
		t.Errorf("Expected a failure notice, got %v", notices.all())
	}
}

func TestRecovery_PauseCancelsPendingTimer(t *testing.T) {
	control := &mockJobControl{}
	recovery, _, _ := newTestRecovery(control, 30*time.Millisecond)
	defer recovery.Close()

	recovery.HandleEvent(stallEvent(models.JobKindMail, time.Now()))
	recovery.MarkPaused(models.JobKindMail)

	time.Sleep(80 * time.Millisecond)

	if got := control.startCount(); got != 0 {
		t.Errorf("Expected pause to cancel the pending restart, got %d starts", got)
	}
}
