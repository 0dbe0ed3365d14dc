// internal/stages/index/handler.go
package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"

	"bi-training-pipeline/internal/common/errors"
	"bi-training-pipeline/internal/common/metrics"
	"bi-training-pipeline/internal/dataset"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Handler struct {
	config *Config
	client *elasticsearch.Client
	logger Logger
}

func NewHandler(config *Config, client *elasticsearch.Client, log Logger) *Handler {
	return &Handler{
		config: config,
		client: client,
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

// Run bulk-indexes the converted dataset into the review index.
func (h *Handler) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()

	examples, err := dataset.Load(h.config.InputPath)
	if err != nil {
		metrics.StageExamplesFailed.WithLabelValues(StageName, string(errors.CodeOf(err))).Inc()
		h.logger.Error("failed to load dataset", errors.FieldsFor(err))
		return nil, err
	}

	h.logger.Info("indexing examples for review", map[string]interface{}{
		"count": len(examples),
		"index": h.config.IndexName,
	})

	stats := &Stats{}
	batchSize := h.config.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}

	for offset := 0; offset < len(examples); offset += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := offset + batchSize
		if end > len(examples) {
			end = len(examples)
		}

		indexed, failed, err := h.indexBatchWithRetry(ctx, examples[offset:end])
		stats.Indexed += indexed
		stats.Failed += failed
		if err != nil {
			metrics.StageExamplesFailed.WithLabelValues(StageName, string(errors.CodeOf(err))).Inc()
			h.logger.Error("bulk indexing failed", errors.FieldsFor(err))
			return stats, err
		}
	}

	metrics.StageDuration.WithLabelValues(StageName).Observe(time.Since(start).Seconds())
	h.logger.Info("indexing complete", map[string]interface{}{
		"indexed": stats.Indexed,
		"failed":  stats.Failed,
	})
	return stats, nil
}

// indexBatchWithRetry retries transient bulk failures per the error retry
// policy before giving up on the batch.
func (h *Handler) indexBatchWithRetry(ctx context.Context, examples []dataset.Example) (int, int, error) {
	retries := errors.GetRetryCount(errors.ErrCodeIndexingFailed)

	for attempt := 0; ; attempt++ {
		indexed, failed, err := h.indexBatch(ctx, examples)
		if err == nil || attempt >= retries || !errors.IsRetryableErrorCode(errors.CodeOf(err)) {
			return indexed, failed, err
		}
		if ctx.Err() != nil {
			return indexed, failed, err
		}

		fields := errors.FieldsFor(err)
		fields["attempt"] = attempt + 1
		h.logger.Warn("retrying bulk request", fields)
	}
}

// indexBatch sends one bulk request and counts per-item outcomes.
func (h *Handler) indexBatch(ctx context.Context, examples []dataset.Example) (int, int, error) {
	var buf bytes.Buffer
	for _, example := range examples {
		doc := buildDocument(example)

		action := map[string]interface{}{
			"index": map[string]interface{}{
				"_index": h.config.IndexName,
				"_id":    uuid.NewString(),
			},
		}
		actionLine, _ := json.Marshal(action)
		docLine, err := json.Marshal(doc)
		if err != nil {
			return 0, 0, errors.NewIndexingFailedError(h.config.IndexName, fmt.Errorf("marshal document: %w", err))
		}
		buf.Write(actionLine)
		buf.WriteByte('\n')
		buf.Write(docLine)
		buf.WriteByte('\n')
	}

	res, err := h.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		h.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return 0, 0, errors.NewIndexingFailedError(h.config.IndexName, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, 0, errors.NewIndexingFailedError(h.config.IndexName, fmt.Errorf("bulk request returned %s", res.Status()))
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return 0, 0, errors.NewIndexingFailedError(h.config.IndexName, fmt.Errorf("decode bulk response: %w", err))
	}

	if !bulkResp.Errors {
		metrics.StageExamplesProcessed.WithLabelValues(StageName).Add(float64(len(examples)))
		return len(examples), 0, nil
	}

	indexed, failed := 0, 0
	for _, item := range bulkResp.Items {
		for _, result := range item {
			if result.Status >= 200 && result.Status < 300 {
				indexed++
			} else {
				failed++
			}
		}
	}
	metrics.StageExamplesProcessed.WithLabelValues(StageName).Add(float64(indexed))
	return indexed, failed, nil
}

func buildDocument(example dataset.Example) Document {
	doc := Document{
		Question:  example.Input,
		IndexedAt: time.Now().UTC(),
	}
	if intent, ok := example.Output["intent"].(string); ok {
		doc.Intent = intent
	}
	for _, result := range dataset.DiscoveryResults(example.Output) {
		if stepID, ok := result["step_id"].(string); ok {
			doc.StepIDs = append(doc.StepIDs, stepID)
		}
	}
	doc.StepCount = len(doc.StepIDs)

	violations, err := dataset.ValidateOutput(example.Output)
	doc.Valid = err == nil && len(violations) == 0
	doc.Violations = violations
	return doc
}
