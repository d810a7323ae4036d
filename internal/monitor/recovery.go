package monitor

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/vipul43/kiwis-monitor/internal/models"
)

// Category is the inferred meaning of an event's message text.
type Category int

const (
	CategoryInfo Category = iota
	CategoryCompletion
	CategoryStall
)

// The workers report outcomes only as human-readable log strings, so the
// monitor infers them by substring. Isolated here so a structured outcome
// field can replace the matching without touching the rest of the engine.
var completionMarkers = []string{
	"all weeks synced",
	"all synced",
	"sync completed successfully",
	"nothing to do",
}

var stallMarkers = []string{
	"[auto-restart]",
	"auto-restart",
	"timed out",
	"timeout",
	"aborted",
}

// classifyMessage buckets a message into completion, stall, or informational.
// Completion is checked first; the categories are mutually exclusive.
func classifyMessage(message string) Category {
	lower := strings.ToLower(message)
	for _, marker := range completionMarkers {
		if strings.Contains(lower, marker) {
			return CategoryCompletion
		}
	}
	for _, marker := range stallMarkers {
		if strings.Contains(lower, marker) {
			return CategoryStall
		}
	}
	return CategoryInfo
}

type recoveryState struct {
	userPaused       bool
	lastCompletionAt *time.Time
	restartTimer     *time.Timer
}

// Recovery decides, per admitted event, whether to request a job restart.
// Stall signals are debounced into a single pending restart timer per kind;
// the timer is cancelled by a newer stall signal, a manual pause, or
// shutdown. Restarts are suppressed while the user has paused the job and
// for a cooldown window after a successful completion.
type Recovery struct {
	control  JobControl
	debounce time.Duration
	cooldown time.Duration

	// notice feeds monitor-generated entries (cooldown/pause skips,
	// restart failures) into the activity log.
	notice func(kind models.JobKind, message string)
	// onStart receives the run identity of a successful auto-restart.
	onStart func(kind models.JobKind, runID string, startedAt time.Time)

	sessionStart time.Time
	now          func() time.Time

	mu     sync.Mutex
	states map[models.JobKind]*recoveryState
	closed bool
}

func NewRecovery(
	control JobControl,
	debounce time.Duration,
	cooldown time.Duration,
	notice func(kind models.JobKind, message string),
	onStart func(kind models.JobKind, runID string, startedAt time.Time),
) *Recovery {
	states := make(map[models.JobKind]*recoveryState, len(models.AllJobKinds))
	for _, kind := range models.AllJobKinds {
		states[kind] = &recoveryState{}
	}
	return &Recovery{
		control:      control,
		debounce:     debounce,
		cooldown:     cooldown,
		notice:       notice,
		onStart:      onStart,
		sessionStart: time.Now(),
		now:          time.Now,
		states:       states,
	}
}

// HandleEvent classifies an admitted event and schedules a debounced restart
// for stall signals. Returns the category so the caller can derive status.
func (r *Recovery) HandleEvent(event models.SyncEvent) Category {
	category := classifyMessage(event.Message)

	switch category {
	case CategoryCompletion:
		r.mu.Lock()
		completedAt := r.now()
		r.states[event.JobKind].lastCompletionAt = &completedAt
		r.mu.Unlock()

	case CategoryStall:
		if event.Timestamp.Before(r.sessionStart) {
			// Historical log replay from before this observation session;
			// never a reason to restart.
			log.Printf("Ignoring stale %s stall signal from %s", event.JobKind, event.Timestamp.Format(time.RFC3339))
			return category
		}
		r.scheduleRestart(event.JobKind)
	}

	return category
}

// scheduleRestart collapses a burst of stall signals into one pending timer
func (r *Recovery) scheduleRestart(kind models.JobKind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	state := r.states[kind]
	if state.restartTimer != nil {
		state.restartTimer.Stop()
	}
	state.restartTimer = time.AfterFunc(r.debounce, func() {
		r.evaluateRestart(kind)
	})
}

// evaluateRestart runs when the debounce timer fires: check the pause and
// cooldown gates, then invoke the restart.
func (r *Recovery) evaluateRestart(kind models.JobKind) {
	r.mu.Lock()
	state := r.states[kind]
	state.restartTimer = nil

	if r.closed {
		r.mu.Unlock()
		return
	}
	if state.userPaused {
		r.mu.Unlock()
		log.Printf("Auto-restart for %s cancelled: job is paused by user", kind)
		r.notice(kind, "auto-restart cancelled: job is paused")
		return
	}
	if state.lastCompletionAt != nil {
		elapsed := r.now().Sub(*state.lastCompletionAt)
		if elapsed < r.cooldown {
			remaining := r.cooldown - elapsed
			r.mu.Unlock()
			r.notice(kind, fmt.Sprintf("auto-restart skipped: cooldown active, %.0fh remaining", remaining.Hours()))
			return
		}
	}
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := r.control.StartJob(ctx, kind)
	if err != nil {
		// No automatic retry; the next stall event re-enters this path.
		log.Printf("Failed to auto-restart %s job: %v", kind, err)
		r.notice(kind, fmt.Sprintf("auto-restart failed: %v", err))
		return
	}

	log.Printf("Auto-restarted %s job, new run %s", kind, result.RunID)
	r.onStart(kind, result.RunID, result.StartedAt)
}

// MarkStarted records an explicit (manual or auto) start: the user override
// clears the pause flag and any completion cooldown, and supersedes a
// pending restart.
func (r *Recovery) MarkStarted(kind models.JobKind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.states[kind]
	state.userPaused = false
	state.lastCompletionAt = nil
	if state.restartTimer != nil {
		state.restartTimer.Stop()
		state.restartTimer = nil
	}
}

// MarkPaused records a user-initiated pause and cancels any pending restart
func (r *Recovery) MarkPaused(kind models.JobKind) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.states[kind]
	state.userPaused = true
	if state.restartTimer != nil {
		state.restartTimer.Stop()
		state.restartTimer = nil
	}
}

// Paused reports whether the user has paused the kind's job
func (r *Recovery) Paused(kind models.JobKind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[kind].userPaused
}

// Close cancels all pending restart timers
func (r *Recovery) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	for _, state := range r.states {
		if state.restartTimer != nil {
			state.restartTimer.Stop()
			state.restartTimer = nil
		}
	}
}
