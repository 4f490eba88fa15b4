package eventsink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/loykin/svcsuper/internal/supervisor"
)

// ClickHouseSink posts events to ClickHouse's HTTP interface using
// JSONEachRow, ported verbatim in approach from
// internal/history/clickhouse.go: no native driver, a plain *http.Client
// POST with the INSERT query in the URL, one JSON line per event.
type ClickHouseSink struct {
	client *http.Client
	base   string
	table  string
}

func NewClickHouseSink(baseURL, table string) *ClickHouseSink {
	return &ClickHouseSink{
		client: &http.Client{Timeout: 5 * time.Second},
		base:   strings.TrimRight(baseURL, "/"),
		table:  table,
	}
}

type clickhouseRow struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Kind       string    `json:"kind"`
	Name       string    `json:"name"`
	Attempt    int       `json:"attempt"`
	DelayMs    int64     `json:"delay_ms"`
	Err        string    `json:"err,omitempty"`
}

func (s *ClickHouseSink) Send(ctx context.Context, e supervisor.LifecycleEvent) error {
	u, err := url.Parse(s.base)
	if err != nil {
		return fmt.Errorf("eventsink: parse clickhouse base url: %w", err)
	}
	q := u.Query()
	q.Set("query", fmt.Sprintf("INSERT INTO %s FORMAT JSONEachRow", s.table))
	u.RawQuery = q.Encode()

	row := clickhouseRow{EventID: e.ID, OccurredAt: e.Timestamp, Kind: string(e.Kind), Name: e.Name, Attempt: e.Attempt, DelayMs: e.DelayMs}
	if e.Err != nil {
		row.Err = e.Err.Error()
	}
	line, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("eventsink: marshal clickhouse row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(append(line, '\n')))
	if err != nil {
		return fmt.Errorf("eventsink: build clickhouse request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("eventsink: clickhouse sink status %d", resp.StatusCode)
	}
	return nil
}
