// Package tsdb executes parsed alert statements against a KairosDB-style
// time-series backend and translates the results into trigger events.
package tsdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"alertengine/internal/mql"
	"alertengine/internal/trigger"
)

const queryPath = "/api/v1/datapoints/query"

// defaultWindow is the query window used when a statement has no "from" clause.
const defaultWindow = time.Hour

// Result is the outcome of executing one statement: the trigger events the
// alert conditions produced, plus any errors the engine reported per row.
// Row errors are non-fatal; triggers from healthy rows are still present.
type Result struct {
	Triggers []*trigger.Trigger
	Errors   []string
}

// Engine executes parsed statements. The engine is called off the
// evaluation unit's goroutine, so implementations may block.
type Engine interface {
	Execute(ctx context.Context, stmt *mql.Statement) (*Result, error)
}

// Client queries a KairosDB-compatible HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type relativeTime struct {
	Value int64  `json:"value"`
	Unit  string `json:"unit"`
}

type querySampling struct {
	Value int64  `json:"value"`
	Unit  string `json:"unit"`
}

type queryAggregator struct {
	Name     string        `json:"name"`
	Sampling querySampling `json:"sampling"`
}

type queryGroupBy struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

type queryMetric struct {
	Name        string            `json:"name"`
	Aggregators []queryAggregator `json:"aggregators,omitempty"`
	GroupBy     []queryGroupBy    `json:"group_by,omitempty"`
}

type queryRequest struct {
	StartRelative relativeTime  `json:"start_relative"`
	Metrics       []queryMetric `json:"metrics"`
}

type seriesResult struct {
	Name   string              `json:"name"`
	Tags   map[string][]string `json:"tags"`
	Values [][]float64         `json:"values"` // [timestamp, value]
}

type responseQuery struct {
	SampleSize int64          `json:"sample_size"`
	Results    []seriesResult `json:"results"`
}

type queryResponse struct {
	Queries []responseQuery `json:"queries"`
	Errors  []string        `json:"errors,omitempty"`
}

// buildRequest translates a statement into the backend's query payload.
func buildRequest(stmt *mql.Statement) *queryRequest {
	window := stmt.Window
	if window <= 0 {
		window = defaultWindow
	}

	metric := queryMetric{Name: stmt.Metric}
	for _, stage := range stmt.Stages {
		metric.Aggregators = append(metric.Aggregators, queryAggregator{
			Name: stage.Fn,
			Sampling: querySampling{
				Value: int64(stage.Window / time.Second),
				Unit:  "seconds",
			},
		})
	}
	if len(stmt.GroupBy) > 0 {
		metric.GroupBy = append(metric.GroupBy, queryGroupBy{
			Name: "tag",
			Tags: stmt.GroupBy,
		})
	}

	return &queryRequest{
		StartRelative: relativeTime{
			Value: int64(window / time.Second),
			Unit:  "seconds",
		},
		Metrics: []queryMetric{metric},
	}
}

// Execute runs the statement against the backend and evaluates its alert
// conditions over the returned series.
func (c *Client) Execute(ctx context.Context, stmt *mql.Statement) (*Result, error) {
	payload, err := json.Marshal(buildRequest(stmt))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+queryPath, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer resp.Body.Close()

	var decoded queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(decoded.Errors) > 0 {
			return nil, fmt.Errorf("query engine returned status %d: %v", resp.StatusCode, decoded.Errors)
		}
		return nil, fmt.Errorf("query engine returned status %d", resp.StatusCode)
	}

	result := Evaluate(stmt, &decoded)
	slog.Debug("Query executed",
		"metric", stmt.Metric,
		"triggers", len(result.Triggers),
		"errors", len(result.Errors),
	)
	return result, nil
}

// Evaluate applies the statement's alert conditions to a query response.
// Each series whose latest value violates a condition yields one trigger
// carrying the alert name and the series tags in stable order.
func Evaluate(stmt *mql.Statement, resp *queryResponse) *Result {
	result := &Result{Errors: resp.Errors}

	for _, q := range resp.Queries {
		for _, series := range q.Results {
			latest, ok := latestValue(series.Values)
			if !ok {
				continue
			}
			for _, cond := range stmt.Conditions {
				if !cond.Holds(latest) {
					continue
				}
				result.Triggers = append(result.Triggers, seriesTrigger(stmt, series))
				break
			}
		}
	}
	return result
}

// latestValue returns the most recent datapoint value in a series.
func latestValue(values [][]float64) (float64, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		if len(values[i]) >= 2 {
			return values[i][1], true
		}
	}
	return 0, false
}

// seriesTrigger builds the trigger event for a firing series. Args are
// ordered: the metric name first, then group-by tags in statement order,
// then any remaining tags sorted by key, so the derived routing identity
// is stable across executions.
func seriesTrigger(stmt *mql.Statement, series seriesResult) *trigger.Trigger {
	t := trigger.New("name", series.Name)

	seen := map[string]bool{}
	for _, field := range stmt.GroupBy {
		if vals, ok := series.Tags[field]; ok && len(vals) > 0 {
			t.Append(field, vals[0])
			seen[field] = true
		}
	}

	rest := make([]string, 0, len(series.Tags))
	for k := range series.Tags {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		if vals := series.Tags[k]; len(vals) > 0 {
			t.Append(k, vals[0])
		}
	}
	return t
}
