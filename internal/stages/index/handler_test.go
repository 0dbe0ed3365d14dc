// internal/stages/index/handler_test.go
package index

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bi-training-pipeline/internal/common/errors"
	"bi-training-pipeline/internal/dataset"
)

// ==========================
// Test Logger Implementation
// ==========================

// TestLogger implements the Logger interface for testing
type TestLogger struct {
	t *testing.T
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return l
}

// ==========================
// Test Helper Functions
// ==========================

// newFakeElasticsearch serves a canned bulk response and records request
// bodies. The product header is required by the v8 client.
func newFakeElasticsearch(t *testing.T, bulkResponse string, bodies *[]string) *elasticsearch.Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/_bulk") {
			body, _ := io.ReadAll(r.Body)
			*bodies = append(*bodies, string(body))
			io.WriteString(w, bulkResponse)
			return
		}
		io.WriteString(w, `{}`)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return client
}

func writeTestDataset(t *testing.T, examples []dataset.Example) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "train_bi.json")
	require.NoError(t, dataset.Save(path, examples))
	return path
}

// ==========================
// Document Building Tests
// ==========================

func TestBuildDocument(t *testing.T) {
	example := dataset.Example{
		Input:  "How many users are there?",
		Output: dataset.FallbackOutput("How many users are there?"),
	}

	doc := buildDocument(example)

	assert.Equal(t, "How many users are there?", doc.Question)
	assert.Equal(t, dataset.IntentDiscovery, doc.Intent)
	assert.Equal(t, []string{dataset.StepOne}, doc.StepIDs)
	assert.Equal(t, 1, doc.StepCount)
	assert.True(t, doc.Valid)
	assert.Empty(t, doc.Violations)
}

func TestBuildDocument_InvalidOutput(t *testing.T) {
	example := dataset.Example{
		Input:  "Broken example",
		Output: map[string]interface{}{"intent": dataset.IntentDiscovery},
	}

	doc := buildDocument(example)

	assert.False(t, doc.Valid)
	assert.NotEmpty(t, doc.Violations)
	assert.Equal(t, 0, doc.StepCount)
}

// ==========================
// Stage Run Tests
// ==========================

func TestHandler_Run(t *testing.T) {
	var bodies []string
	client := newFakeElasticsearch(t, `{"errors": false, "items": []}`, &bodies)

	inputPath := writeTestDataset(t, []dataset.Example{
		{Input: "How many users are there?", Output: dataset.FallbackOutput("How many users are there?")},
		{Input: "List all campaigns.", Output: dataset.FallbackOutput("List all campaigns.")},
	})

	handler := NewHandler(&Config{
		InputPath: inputPath,
		IndexName: "bi-training-examples",
		BatchSize: 500,
	}, client, NewTestLogger(t))

	stats, err := handler.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Indexed)
	assert.Equal(t, 0, stats.Failed)

	require.Len(t, bodies, 1)
	lines := strings.Split(strings.TrimSpace(bodies[0]), "\n")
	require.Len(t, lines, 4) // two action lines, two documents

	var action map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &action))
	assert.Equal(t, "bi-training-examples", action["index"]["_index"])
	assert.NotEmpty(t, action["index"]["_id"])

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &doc))
	assert.Equal(t, "How many users are there?", doc.Question)
}

func TestHandler_Run_BatchesRequests(t *testing.T) {
	var bodies []string
	client := newFakeElasticsearch(t, `{"errors": false, "items": []}`, &bodies)

	examples := make([]dataset.Example, 5)
	for i := range examples {
		examples[i] = dataset.Example{
			Input:  "List all campaigns.",
			Output: dataset.FallbackOutput("List all campaigns."),
		}
	}

	handler := NewHandler(&Config{
		InputPath: writeTestDataset(t, examples),
		IndexName: "bi-training-examples",
		BatchSize: 2,
	}, client, NewTestLogger(t))

	stats, err := handler.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Indexed)
	assert.Len(t, bodies, 3) // 2 + 2 + 1
}

// newFlakyElasticsearch fails the first failures bulk requests with 502 and
// then serves successes, recording every attempt.
func newFlakyElasticsearch(t *testing.T, failures int, attempts *int) *elasticsearch.Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/_bulk") {
			*attempts++
			if *attempts <= failures {
				w.WriteHeader(http.StatusBadGateway)
				io.WriteString(w, `{"error": "temporarily unavailable"}`)
				return
			}
			io.WriteString(w, `{"errors": false, "items": []}`)
			return
		}
		io.WriteString(w, `{}`)
	}))
	t.Cleanup(server.Close)

	// Transport-level retry is off so every attempt observed here is one
	// made by the handler.
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{server.URL},
		DisableRetry: true,
	})
	require.NoError(t, err)
	return client
}

func TestHandler_Run_RetriesFailedBulkRequest(t *testing.T) {
	attempts := 0
	client := newFlakyElasticsearch(t, 1, &attempts)

	inputPath := writeTestDataset(t, []dataset.Example{
		{Input: "How many users are there?", Output: dataset.FallbackOutput("How many users are there?")},
	})

	handler := NewHandler(&Config{
		InputPath: inputPath,
		IndexName: "bi-training-examples",
		BatchSize: 500,
	}, client, NewTestLogger(t))

	stats, err := handler.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)
	assert.Equal(t, 2, attempts)
}

func TestHandler_Run_GivesUpAfterRetryBudget(t *testing.T) {
	attempts := 0
	client := newFlakyElasticsearch(t, 100, &attempts)

	inputPath := writeTestDataset(t, []dataset.Example{
		{Input: "How many users are there?", Output: dataset.FallbackOutput("How many users are there?")},
	})

	handler := NewHandler(&Config{
		InputPath: inputPath,
		IndexName: "bi-training-examples",
		BatchSize: 500,
	}, client, NewTestLogger(t))

	_, err := handler.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeIndexingFailed, errors.CodeOf(err))
	assert.Equal(t, 1+errors.GetRetryCount(errors.ErrCodeIndexingFailed), attempts)
}

func TestHandler_Run_CountsItemFailures(t *testing.T) {
	bulkResponse := `{
		"errors": true,
		"items": [
			{"index": {"status": 201}},
			{"index": {"status": 400}}
		]
	}`
	var bodies []string
	client := newFakeElasticsearch(t, bulkResponse, &bodies)

	inputPath := writeTestDataset(t, []dataset.Example{
		{Input: "How many users are there?", Output: dataset.FallbackOutput("How many users are there?")},
		{Input: "Broken", Output: map[string]interface{}{}},
	})

	handler := NewHandler(&Config{
		InputPath: inputPath,
		IndexName: "bi-training-examples",
		BatchSize: 500,
	}, client, NewTestLogger(t))

	stats, err := handler.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)
	assert.Equal(t, 1, stats.Failed)
}
