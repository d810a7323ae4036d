package syncctl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vipul43/kiwis-monitor/internal/models"
	"github.com/vipul43/kiwis-monitor/internal/monitor"
)

// Client invokes the sync worker's job control API
type Client struct {
	baseURL    string
	token      string
	userID     string
	httpClient *http.Client
}

func NewClient(baseURL, token, userID string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		userID:  userID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// StartJob requests a new run of the job kind. Every successful call issues
// a fresh run ID; run IDs are never reused.
func (c *Client) StartJob(ctx context.Context, kind models.JobKind) (*monitor.StartResult, error) {
	var result monitor.StartResult
	if err := c.post(ctx, fmt.Sprintf("/v1/jobs/%s/start", kind), &result); err != nil {
		return nil, err
	}
	if result.RunID == "" {
		return nil, fmt.Errorf("control API returned no run ID")
	}
	return &result, nil
}

// PauseJob requests a pause of the job kind's current run
func (c *Client) PauseJob(ctx context.Context, kind models.JobKind) error {
	return c.post(ctx, fmt.Sprintf("/v1/jobs/%s/pause", kind), nil)
}

func (c *Client) post(ctx context.Context, path string, out interface{}) error {
	reqBody, err := json.Marshal(map[string]string{"user_id": c.userID})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("control API error (status %d): %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to parse control API response: %w", err)
		}
	}
	return nil
}
