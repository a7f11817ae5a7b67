// Package dashboard is the control surface for the trading platform: a
// typed client of the control API plus the view-state pieces around it
// (tab navigation, transient notifications, a 1-second IST clock).
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client wraps the platform's control endpoints.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: c}
}

type controlResp struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ToggleResult is the strategy-control endpoint's response.
type ToggleResult struct {
	Success  bool   `json:"success"`
	Strategy string `json:"strategy"`
	Enabled  bool   `json:"enabled"`
	Message  string `json:"message"`
}

// StartEngine posts to the start endpoint and returns the status field.
func (c *Client) StartEngine(ctx context.Context) (string, error) {
	return c.postControl(ctx, "/api/v1/control/start")
}

// StopEngine posts to the stop endpoint and returns the status field.
func (c *Client) StopEngine(ctx context.Context) (string, error) {
	return c.postControl(ctx, "/api/v1/control/stop")
}

func (c *Client) postControl(ctx context.Context, path string) (string, error) {
	var out controlResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Post(path)
	if err != nil {
		return "", fmt.Errorf("post %s: %w", path, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("post %s: unexpected status %s", path, resp.Status())
	}
	return out.Status, nil
}

// EngineStatus fetches the current engine status field ("running" or
// "stopped").
func (c *Client) EngineStatus(ctx context.Context) (string, error) {
	var out controlResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get("/api/v1/control/status")
	if err != nil {
		return "", fmt.Errorf("get status: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("get status: unexpected status %s", resp.Status())
	}
	return out.Status, nil
}

// GenerateReport requests today's report and returns the spreadsheet bytes.
func (c *Client) GenerateReport(ctx context.Context) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Post("/api/v1/reports/generate")
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("generate report: unexpected status %s", resp.Status())
	}
	return resp.Body(), nil
}

// ToggleStrategy enables or disables one strategy by name.
func (c *Client) ToggleStrategy(ctx context.Context, name string, enable bool) (ToggleResult, error) {
	var out ToggleResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"strategy_name": name, "enable": enable}).
		SetResult(&out).
		SetError(&out).
		Post("/api/v1/strategies/control")
	if err != nil {
		return out, fmt.Errorf("toggle strategy %s: %w", name, err)
	}
	if resp.IsError() && out.Message == "" {
		return out, fmt.Errorf("toggle strategy %s: unexpected status %s", name, resp.Status())
	}
	return out, nil
}

// StrategyCards fetches the rendered strategy-cards fragment.
func (c *Client) StrategyCards(ctx context.Context) (string, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/dashboard/strategy-cards")
	if err != nil {
		return "", fmt.Errorf("fetch strategy cards: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("fetch strategy cards: unexpected status %s", resp.Status())
	}
	return string(resp.Body()), nil
}
