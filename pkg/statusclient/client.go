// Package statusclient is a minimal HTTP client for internal/httpapi's
// read-only status surface, adapted from pkg/client/client.go: same
// *http.Client-plus-baseURL shape and JSON decode-into-struct calls,
// narrowed from that full start/stop/register surface to four of the GET
// queries this repository's embeddable API exposes (list, status, history
// and aggregate health).
package statusclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to a running supervisorctl daemon's read-only HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

// Config mirrors pkg/client.Config's shape, trimmed to what a read-only
// client needs.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{BaseURL: "http://localhost:8080/api", Timeout: 10 * time.Second}
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
}

// ServiceList is the decoded shape of GET {base}/services.
type ServiceList struct {
	Services []string `json:"services"`
}

// StatusResponse is the decoded shape of GET {base}/services/:name/status.
type StatusResponse struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

func (c *Client) ListServices(ctx context.Context) (ServiceList, error) {
	var out ServiceList
	err := c.getJSON(ctx, c.baseURL+"/services", &out)
	return out, err
}

func (c *Client) Status(ctx context.Context, name string) (StatusResponse, error) {
	var out StatusResponse
	err := c.getJSON(ctx, c.baseURL+"/services/"+url.PathEscape(name)+"/status", &out)
	return out, err
}

// HistoryResponse is the decoded shape of GET {base}/services/:name/history.
type HistoryResponse struct {
	Name    string            `json:"name"`
	History []json.RawMessage `json:"history"`
}

func (c *Client) History(ctx context.Context, name string) (HistoryResponse, error) {
	var out HistoryResponse
	err := c.getJSON(ctx, c.baseURL+"/services/"+url.PathEscape(name)+"/history", &out)
	return out, err
}

// HealthAll decodes GET {base}/health into a name-keyed map of raw JSON
// health reports; callers that need typed access import supervisor.HealthReport
// themselves rather than this client importing the core package.
func (c *Client) HealthAll(ctx context.Context) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage)
	err := c.getJSON(ctx, c.baseURL+"/health", &out)
	return out, err
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("statusclient: %s returned status %d", u, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
