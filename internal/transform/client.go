package transform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/musikito/imagigenie/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logging library
)

// ErrUpstream marks any failure of the transformation provider. The caller
// owns the compensation (credit refund); this client does not retry.
var ErrUpstream = errors.New("transform: upstream failure")

// Client calls the external transformation provider.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

// NewClient returns a Client for the given provider endpoint.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 120 * time.Second}, // Transformations can be slow
		endpoint:   endpoint,
		apiKey:     apiKey,
	}
}

// Request is the payload sent to the provider.
type Request struct {
	SourceURL string                      `json:"source_url"` // Source asset reference
	Config    domain.TransformationConfig `json:"config"`     // Transformation parameters
}

// Result is the provider's response.
type Result struct {
	ResultURL string `json:"result_url"` // Derived asset CDN URL
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Apply submits a transformation and returns the derived asset reference. All
// failure modes wrap ErrUpstream.
func (c *Client) Apply(ctx context.Context, r Request) (*Result, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"kind":  r.Config.Kind,
			"error": err.Error(),
		}).Warn("Transformation request failed")
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}
	if resp.StatusCode >= 400 {
		logrus.WithFields(logrus.Fields{
			"kind":   r.Config.Kind,
			"status": resp.StatusCode,
			"body":   string(body),
		}).Warn("Transformation rejected by provider")
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}
	var result Result
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if result.ResultURL == "" {
		return nil, fmt.Errorf("%w: response missing result url", ErrUpstream)
	}
	return &result, nil
}
