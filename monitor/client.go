package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jbousquie/whisperx-api/api"
	"github.com/jbousquie/whisperx-api/version"
)

// API reachability states.
const (
	APIOK          = "ok"
	APIError       = "error"
	APIUnreachable = "unreachable"
)

// APIResult is the outcome of one API call. Body holds the decoded JSON
// whenever the server answered with a JSON body, including 503 health
// reports.
type APIResult struct {
	State      string `json:"state"`
	StatusCode int    `json:"status_code,omitempty"`
	Error      string `json:"error,omitempty"`
	Body       any    `json:"body,omitempty"`
}

// Client queries the transcription API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) APIResult {
	var body api.HealthResponse
	res := c.get(ctx, "/health", &body)
	if res.StatusCode != 0 && res.Error == "" {
		res.Body = &body
	}
	return res
}

// ModelsInfo calls GET /models/info.
func (c *Client) ModelsInfo(ctx context.Context) APIResult {
	var body api.ModelsInfoResponse
	res := c.get(ctx, "/models/info", &body)
	if res.StatusCode != 0 && res.Error == "" {
		res.Body = &body
	}
	return res
}

func (c *Client) get(ctx context.Context, path string, out any) APIResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return APIResult{State: APIError, Error: err.Error()}
	}
	req.Header.Set("User-Agent", version.UserAgent("whisperx-monitor"))
	resp, err := c.http.Do(req)
	if err != nil {
		return APIResult{State: APIUnreachable, Error: err.Error()}
	}
	defer resp.Body.Close()

	res := APIResult{State: APIOK, StatusCode: resp.StatusCode}
	if resp.StatusCode != http.StatusOK {
		res.State = APIError
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		res.State = APIError
		res.Error = fmt.Sprintf("decode %s: %v", path, err)
	}
	return res
}
