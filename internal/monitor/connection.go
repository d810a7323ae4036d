package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vipul43/kiwis-monitor/internal/models"
)

// ConnTracker tracks whether the user's external account integration is
// authorized. Check failures read as "not authorized" rather than hard
// errors; the next explicit action or periodic refresh retries.
type ConnTracker struct {
	api ConnectionAPI

	mu    sync.Mutex
	state models.ConnectionState
	now   func() time.Time
}

func NewConnTracker(api ConnectionAPI) *ConnTracker {
	return &ConnTracker{api: api, now: time.Now}
}

// Check queries the integration's authorization state
func (t *ConnTracker) Check(ctx context.Context) models.ConnectionState {
	authorized, err := t.api.Verify(ctx)
	if err != nil {
		log.Printf("Warning: connection check failed, treating as not authorized: %v", err)
		authorized = false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Authorized = authorized
	if authorized {
		verifiedAt := t.now()
		t.state.LastVerifiedAt = &verifiedAt
	}
	return t.state
}

// State returns the last known connection state without a network round-trip
func (t *ConnTracker) State() models.ConnectionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Connect begins the authorization flow and returns the redirect target
func (t *ConnTracker) Connect() string {
	return t.api.AuthorizationURL()
}

// Disconnect revokes the authorization
func (t *ConnTracker) Disconnect(ctx context.Context) error {
	if err := t.api.Revoke(ctx); err != nil {
		return fmt.Errorf("failed to revoke authorization: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Authorized = false
	t.state.LastVerifiedAt = nil
	return nil
}
