// Package analysis calls the external AI analysis service. The service
// downloads the media itself, so the URL handed to Analyze must be reachable
// from the analyzer's network, not just from this process.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oceaneye/oceaneye/internal/model"
)

// maxResponseBytes caps how much of the analyzer response is read. The
// payload is a small JSON object; anything bigger is a misbehaving provider.
const maxResponseBytes = 1 << 20

// Client is a thin HTTP client for the analyzer's POST /analyze endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient constructs a Client with a bounded timeout. The analysis call is
// the only external dependency on the request path, so the timeout keeps
// submission latency bounded even when the analyzer hangs.
func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type analyzeRequest struct {
	MediaURL  string `json:"media_url"`
	MediaType string `json:"media_type"`
}

// Analyze submits the media URL for analysis and returns the provider's
// verdict as a loose map. Only transport-level problems and non-2xx statuses
// are errors; the payload shape is the provider's to evolve.
func (c *Client) Analyze(ctx context.Context, mediaURL, mediaType string) (model.AnalysisResult, error) {
	body, err := json.Marshal(analyzeRequest{MediaURL: mediaURL, MediaType: mediaType})
	if err != nil {
		return nil, fmt.Errorf("marshal analyze request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call analysis service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("analysis service returned %s", resp.Status)
	}
	var result model.AnalysisResult
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode analysis response: %w", err)
	}
	return result, nil
}
