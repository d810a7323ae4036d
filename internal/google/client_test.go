package google

import (
	"net/url"
	"strings"
	"testing"
)

func TestAuthorizationURL(t *testing.T) {
	client := NewClient("test-client-id", "test-secret", "http://localhost:8080/callback")

	raw := client.AuthorizationURL("state-123")

	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse authorization URL: %v", err)
	}

	query := parsed.Query()
	if query.Get("client_id") != "test-client-id" {
		t.Errorf("Expected client_id test-client-id, got %q", query.Get("client_id"))
	}
	if query.Get("state") != "state-123" {
		t.Errorf("Expected state state-123, got %q", query.Get("state"))
	}
	if query.Get("access_type") != "offline" {
		t.Errorf("Expected offline access type, got %q", query.Get("access_type"))
	}

	scopes := query.Get("scope")
	for _, want := range []string{"gmail.readonly", "calendar.readonly"} {
		if !strings.Contains(scopes, want) {
			t.Errorf("Expected %s scope in %q", want, scopes)
		}
	}
}
