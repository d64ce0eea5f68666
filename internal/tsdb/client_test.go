package tsdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"alertengine/internal/mql"
	"alertengine/internal/trigger"
)

func mustParse(t *testing.T, query string) *mql.Statement {
	t.Helper()
	stmt, err := mql.Parse(query)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", query, err)
	}
	return stmt
}

func TestEvaluate(t *testing.T) {
	stmt := mustParse(t, "cpu.load from 15m | avg(5m) | group by host | alert(value > 0.8)")

	resp := &queryResponse{
		Queries: []responseQuery{
			{
				Results: []seriesResult{
					{
						Name:   "cpu.load",
						Tags:   map[string][]string{"host": {"web/1"}},
						Values: [][]float64{{1000, 0.2}, {2000, 0.95}},
					},
					{
						Name:   "cpu.load",
						Tags:   map[string][]string{"host": {"web2"}},
						Values: [][]float64{{1000, 0.4}, {2000, 0.5}},
					},
				},
			},
		},
	}

	result := Evaluate(stmt, resp)
	if len(result.Triggers) != 1 {
		t.Fatalf("Triggers = %d, want 1", len(result.Triggers))
	}
	got := trigger.Identity(result.Triggers[0])
	if got != "name:cpu.load;host:web.1" {
		t.Errorf("Identity = %q, want %q", got, "name:cpu.load;host:web.1")
	}
}

// TestEvaluate_RowErrors verifies engine-reported errors surface on the
// result without suppressing triggers from healthy rows.
func TestEvaluate_RowErrors(t *testing.T) {
	stmt := mustParse(t, "disk.used | alert(value >= 90)")

	resp := &queryResponse{
		Errors: []string{"partial shard failure"},
		Queries: []responseQuery{
			{
				Results: []seriesResult{
					{
						Name:   "disk.used",
						Tags:   map[string][]string{"host": {"db1"}},
						Values: [][]float64{{1000, 97}},
					},
				},
			},
		},
	}

	result := Evaluate(stmt, resp)
	if len(result.Errors) != 1 {
		t.Errorf("Errors = %v, want one", result.Errors)
	}
	if len(result.Triggers) != 1 {
		t.Errorf("Triggers = %d, want 1", len(result.Triggers))
	}
}

// TestEvaluate_OneTriggerPerSeries verifies multiple violated conditions on
// the same series yield a single trigger.
func TestEvaluate_OneTriggerPerSeries(t *testing.T) {
	stmt := mustParse(t, "disk.used | alert(value >= 90, value > 50)")

	resp := &queryResponse{
		Queries: []responseQuery{
			{
				Results: []seriesResult{
					{
						Name:   "disk.used",
						Values: [][]float64{{1000, 97}},
					},
				},
			},
		},
	}

	if result := Evaluate(stmt, resp); len(result.Triggers) != 1 {
		t.Errorf("Triggers = %d, want 1", len(result.Triggers))
	}
}

func TestClient_Execute(t *testing.T) {
	stmt := mustParse(t, "cpu.load from 15m | avg(5m) | group by host | alert(value > 0.8)")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != queryPath {
			t.Errorf("path = %q, want %q", r.URL.Path, queryPath)
		}
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if len(req.Metrics) != 1 || req.Metrics[0].Name != "cpu.load" {
			t.Errorf("metrics = %+v", req.Metrics)
		}
		if len(req.Metrics[0].Aggregators) != 1 || req.Metrics[0].Aggregators[0].Name != "avg" {
			t.Errorf("aggregators = %+v", req.Metrics[0].Aggregators)
		}
		if req.StartRelative.Value != 900 || req.StartRelative.Unit != "seconds" {
			t.Errorf("start_relative = %+v", req.StartRelative)
		}

		json.NewEncoder(w).Encode(queryResponse{
			Queries: []responseQuery{
				{
					Results: []seriesResult{
						{
							Name:   "cpu.load",
							Tags:   map[string][]string{"host": {"web1"}},
							Values: [][]float64{{1000, 0.9}},
						},
					},
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.Execute(context.Background(), stmt)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(result.Triggers) != 1 {
		t.Fatalf("Triggers = %d, want 1", len(result.Triggers))
	}
}

func TestClient_Execute_ErrorStatus(t *testing.T) {
	stmt := mustParse(t, "cpu.load | alert(value > 0.8)")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(queryResponse{Errors: []string{"metric not found"}})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.Execute(context.Background(), stmt); err == nil {
		t.Fatal("Execute() succeeded, want error")
	}
}
