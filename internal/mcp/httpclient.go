package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/swimtrack/internal/models"
)

// HTTPClient implements DataSource by calling the SwimTrack REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, dst any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

// dayParams encodes the non-zero bounds as calendar days.
func dayParams(start, end time.Time) url.Values {
	v := url.Values{}
	if !start.IsZero() {
		v.Set("start", start.Format(models.DateLayout))
	}
	if !end.IsZero() {
		v.Set("end", end.Format(models.DateLayout))
	}
	return v
}

func (c *HTTPClient) QuerySessions(ctx context.Context, start, end time.Time, _ int) ([]models.Session, error) {
	var sessions []models.Session
	if err := c.get(ctx, "/api/v1/sessions", dayParams(start, end), &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *HTTPClient) LoadPhases(ctx context.Context, _ int) ([]models.TrainingPhase, error) {
	var phases []models.TrainingPhase
	if err := c.get(ctx, "/api/v1/phases", nil, &phases); err != nil {
		return nil, err
	}
	return phases, nil
}

func (c *HTTPClient) LoadCompetitions(ctx context.Context, _ int) ([]models.Competition, error) {
	var comps []models.Competition
	if err := c.get(ctx, "/api/v1/competitions", nil, &comps); err != nil {
		return nil, err
	}
	return comps, nil
}
