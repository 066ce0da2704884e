package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// LabelScore is one class score of a text-classification model.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// PredictRequest is the body sent to the model server.
type PredictRequest struct {
	Inputs   string `json:"inputs"`
	Truncate bool   `json:"truncate"`
}

// Predictor returns every class score for one input text.
type Predictor interface {
	Predict(ctx context.Context, text string) ([]LabelScore, error)
}

// Client talks to a text-classification model server exposing POST /predict
// and GET /health.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
}

// NewClient creates a model server client. An empty token sends no
// Authorization header.
func NewClient(baseURL, apiToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiToken: apiToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Predict sends a single text for classification.
func (c *Client) Predict(ctx context.Context, text string) ([]LabelScore, error) {
	body, err := json.Marshal(PredictRequest{Inputs: text, Truncate: true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	return decodeScores(raw)
}

// decodeScores accepts both a flat list of label scores and the nested
// one-list-per-input shape.
func decodeScores(raw []byte) ([]LabelScore, error) {
	var flat []LabelScore
	if err := json.Unmarshal(raw, &flat); err == nil {
		return flat, nil
	}

	var nested [][]LabelScore
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(nested) != 1 {
		return nil, fmt.Errorf("expected scores for 1 input, got %d", len(nested))
	}
	return nested[0], nil
}

// Health checks the model server health.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server not healthy: status %d", resp.StatusCode)
	}
	return nil
}

var errNoScores = errors.New("model returned no scores")
