package monitor

import (
	"context"
	"time"

	"github.com/vipul43/kiwis-monitor/internal/models"
)

// EventSource is the polling side of the event stream (the sync_event table).
type EventSource interface {
	EventsSince(ctx context.Context, userID string, kind models.JobKind, runID string, since *time.Time, limit int) ([]models.SyncEvent, error)
}

// StatusSource provides the latest persisted status row per job kind.
type StatusSource interface {
	GetLatest(ctx context.Context, userID string, kind models.JobKind) (*models.SyncJobStatus, error)
}

// StartResult is what the worker's control API returns for a start/restart.
type StartResult struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
}

// JobControl invokes the worker's control API. The monitor never runs the
// jobs itself; it only requests starts and pauses.
type JobControl interface {
	StartJob(ctx context.Context, kind models.JobKind) (*StartResult, error)
	PauseJob(ctx context.Context, kind models.JobKind) error
}

// PushSubscription is a live push-channel subscription that can be torn down.
type PushSubscription interface {
	Unsubscribe() error
}

// PushBus is the push side of the event stream. Delivery is best-effort and
// may duplicate events the polling side also returns; the ledger dedups.
type PushBus interface {
	Subscribe(subject string, handler func(models.SyncEvent)) (PushSubscription, error)
}

// ConnectionAPI checks and manages the user's external account authorization.
type ConnectionAPI interface {
	Verify(ctx context.Context) (bool, error)
	AuthorizationURL() string
	Revoke(ctx context.Context) error
}
