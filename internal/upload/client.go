package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/swimtrack/internal/models"
)

// Result mirrors the server's upload response without importing the server
// package (which would pull in pgx and other server-side dependencies).
type Result struct {
	Received int      `json:"received"`
	Inserted int      `json:"inserted"`
	IDs      []string `json:"ids"`
}

// Client sends sessions to the SwimTrack server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	attempts   int
	backoff    time.Duration
}

// NewClient creates a new HTTP client for the SwimTrack server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		attempts: 3,
		backoff:  time.Second,
	}
}

// statusError is a non-200 response.
type statusError struct {
	code int
	body []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("upload failed (status %d): %s", e.code, e.body)
}

// retryable reports whether the request may succeed when repeated. Client
// errors (bad records, wrong key) never will.
func (e *statusError) retryable() bool {
	return e.code >= 500 || e.code == http.StatusTooManyRequests
}

// SendSessions POSTs a batch of sessions to /api/v1/sessions.
// Retries up to 3 times with exponential backoff on transport and server errors.
func (c *Client) SendSessions(ctx context.Context, source string, sessions []models.SessionRecord) (Result, error) {
	data, err := json.Marshal(map[string]any{
		"source":   source,
		"sessions": sessions,
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshaling sessions: %w", err)
	}

	var lastErr error
	for attempt := range c.attempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(c.backoff << uint(attempt-1)):
			}
		}

		res, err := c.post(ctx, data)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if se, ok := err.(*statusError); ok && !se.retryable() {
			return Result{}, err
		}
	}

	return Result{}, fmt.Errorf("after %d attempts: %w", c.attempts, lastErr)
}

func (c *Client) post(ctx context.Context, data []byte) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/v1/sessions", bytes.NewReader(data))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return Result{}, &statusError{code: resp.StatusCode, body: body}
	}

	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		return Result{}, fmt.Errorf("decoding upload response: %w", err)
	}
	return res, nil
}
