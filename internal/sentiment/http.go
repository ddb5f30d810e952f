package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClient is a client for an external sentiment ML service.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// ScoreRequest is the body posted to the ML service.
type ScoreRequest struct {
	Text string `json:"text"`
}

// ScoreResponse is the ML service reply. Services that return only a label
// are mapped to +confidence, -confidence or 0.
type ScoreResponse struct {
	Score      *float64 `json:"score,omitempty"`
	Label      string   `json:"label,omitempty"`
	Confidence float64  `json:"confidence,omitempty"`
}

// NewHTTPClient creates a new ML service client.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Score implements service.Classifier.
func (c *HTTPClient) Score(ctx context.Context, text string) (float64, error) {
	jsonData, err := json.Marshal(ScoreRequest{Text: text})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/sentiment", bytes.NewBuffer(jsonData))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("ML service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result ScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	return result.value()
}

func (r ScoreResponse) value() (float64, error) {
	if r.Score != nil {
		return *r.Score, nil
	}
	return labelScore(r.Label, r.Confidence)
}

// labelScore turns a label into a signed score. A missing confidence counts as 1.
func labelScore(label string, confidence float64) (float64, error) {
	if confidence == 0 {
		confidence = 1
	}
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive":
		return confidence, nil
	case "negative":
		return -confidence, nil
	case "neutral":
		return 0, nil
	default:
		return 0, fmt.Errorf("unknown sentiment label %q", label)
	}
}
