package subscan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"subscanFeed/internal/model"
)

const (
	eventsPath = "/api/v2/scan/events"
	paramsPath = "/api/scan/event/params"
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to a Subscan-compatible block explorer API. A client instance
// is bound to one network.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient Doer
	logger     *zap.Logger
}

// NewClient builds a client for the given network identifier, e.g. "kilt" for
// https://kilt.api.subscan.io.
func NewClient(network string, apiKey string, httpClient Doer, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    fmt.Sprintf("https://%s.api.subscan.io", network),
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Events fetches one page of event summaries together with the range's total
// count.
func (c *Client) Events(ctx context.Context, req EventsRequest) (EventsData, error) {
	var resp eventsResponse
	if err := c.post(ctx, eventsPath, req, &resp); err != nil {
		return EventsData{}, err
	}

	c.logger.Debug("events page fetched",
		zap.Int("count", resp.Data.Count),
		zap.Int("events", len(resp.Data.Events)),
		zap.String("block_range", req.BlockRange),
		zap.Int("page", req.Page),
	)
	return resp.Data, nil
}

// EventParams fetches the decoded parameter sets for the given event indices.
func (c *Client) EventParams(ctx context.Context, indices []string) ([]model.EventParams, error) {
	var resp paramsResponse
	if err := c.post(ctx, paramsPath, paramsRequest{EventIndex: indices}, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug("event params fetched", zap.Int("sets", len(resp.Data)))
	return resp.Data, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	c.logger.Debug("explorer request", zap.String("path", path), zap.ByteString("payload", body))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request for %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("explorer returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response for %s: %w", path, err)
	}
	return nil
}
