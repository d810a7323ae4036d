package monitor

import (
	"context"
	"fmt"
	"testing"
)

type mockConnectionAPI struct {
	verifyFunc func(ctx context.Context) (bool, error)
	revokeFunc func(ctx context.Context) error
	authURL    string
}

func (m *mockConnectionAPI) Verify(ctx context.Context) (bool, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx)
	}
	return true, nil
}

func (m *mockConnectionAPI) AuthorizationURL() string {
	if m.authURL != "" {
		return m.authURL
	}
	return "https://accounts.example.com/consent"
}

func (m *mockConnectionAPI) Revoke(ctx context.Context) error {
	if m.revokeFunc != nil {
		return m.revokeFunc(ctx)
	}
	return nil
}

func TestConnTracker_CheckRecordsVerification(t *testing.T) {
	tracker := NewConnTracker(&mockConnectionAPI{})

	state := tracker.Check(context.Background())
	if !state.Authorized {
		t.Fatal("expected authorized state")
	}
	if state.LastVerifiedAt == nil {
		t.Error("expected LastVerifiedAt to be set on success")
	}
}

func TestConnTracker_CheckFailureReadsAsUnauthorized(t *testing.T) {
	tracker := NewConnTracker(&mockConnectionAPI{
		verifyFunc: func(ctx context.Context) (bool, error) {
			return false, fmt.Errorf("network unreachable")
		},
	})

	state := tracker.Check(context.Background())
	if state.Authorized {
		t.Error("expected check failure to read as not authorized")
	}
}

func TestConnTracker_Disconnect(t *testing.T) {
	api := &mockConnectionAPI{}
	tracker := NewConnTracker(api)
	tracker.Check(context.Background())

	if err := tracker.Disconnect(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	state := tracker.State()
	if state.Authorized {
		t.Error("expected not authorized after disconnect")
	}
	if state.LastVerifiedAt != nil {
		t.Error("expected LastVerifiedAt to be cleared after disconnect")
	}
}

func TestConnTracker_DisconnectPropagatesRevokeError(t *testing.T) {
	tracker := NewConnTracker(&mockConnectionAPI{
		revokeFunc: func(ctx context.Context) error {
			return fmt.Errorf("revoke failed (status 400)")
		},
	})

	if err := tracker.Disconnect(context.Background()); err == nil {
		t.Fatal("expected revoke error to propagate")
	}
}

func TestConnTracker_ConnectReturnsRedirectTarget(t *testing.T) {
	tracker := NewConnTracker(&mockConnectionAPI{authURL: "https://accounts.example.com/consent?state=x"})

	if got := tracker.Connect(); got != "https://accounts.example.com/consent?state=x" {
		t.Errorf("Expected the authorization URL, got %q", got)
	}
}
