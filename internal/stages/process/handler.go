// internal/stages/process/handler.go
package process

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"bi-training-pipeline/internal/common/errors"
	"bi-training-pipeline/internal/common/metrics"
	"bi-training-pipeline/internal/dataset"
	"bi-training-pipeline/internal/llm"
)

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// ResponseCache caches raw LLM responses keyed by prompt digest.
// *database.RedisClient satisfies it.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

type Handler struct {
	config *Config
	logger Logger
	client llm.Client
	prompt *PromptBuilder
	cache  ResponseCache // optional
}

func NewHandler(config *Config, client llm.Client, log Logger) *Handler {
	return &Handler{
		config: config,
		client: client,
		prompt: NewPromptBuilder(),
		logger: log.With(map[string]interface{}{
			"stage": StageName,
		}),
	}
}

// WithCache attaches a response cache.
func (h *Handler) WithCache(cache ResponseCache) *Handler {
	h.cache = cache
	return h
}

// Run repairs the selected slice of the dataset through the LLM and writes
// the processed dataset.
func (h *Handler) Run(ctx context.Context) (*Stats, error) {
	start := time.Now()

	if err := h.prompt.LoadTemplate(h.config.PromptTemplatePath); err != nil {
		return nil, err
	}
	if err := h.prompt.LoadContextFiles(h.config.ModelDir); err != nil {
		return nil, err
	}

	examples, err := dataset.Load(h.config.InputPath)
	if err != nil {
		metrics.StageExamplesFailed.WithLabelValues(StageName, string(errors.CodeOf(err))).Inc()
		h.logger.Error("failed to load dataset", errors.FieldsFor(err))
		return nil, err
	}

	startIndex, endIndex := h.sliceBounds(len(examples))
	toProcess := examples[startIndex:endIndex]

	h.logger.Info("processing examples through LLM", map[string]interface{}{
		"count":      len(toProcess),
		"startIndex": startIndex,
		"endIndex":   endIndex,
	})

	stats := &Stats{}
	processed := make([]dataset.Example, 0, len(toProcess))

	for i, example := range toProcess {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if h.config.BatchSize > 0 && i%h.config.BatchSize == 0 {
			h.logger.Info("processing batch", map[string]interface{}{
				"offset":    startIndex + i,
				"remaining": len(toProcess) - i,
			})
		}

		result, outcome := h.processExample(ctx, example)
		processed = append(processed, result)
		stats.Processed++
		switch outcome {
		case outcomeRepaired:
			stats.Repaired++
		case outcomeFallback:
			stats.FallbackUsed++
		case outcomeKeptOriginal:
			stats.KeptOriginal++
		case outcomeCacheHit:
			stats.Repaired++
			stats.CacheHits++
		}
		metrics.StageExamplesProcessed.WithLabelValues(StageName).Inc()

		if h.config.CheckpointEvery > 0 && (i+1)%h.config.CheckpointEvery == 0 {
			h.saveCheckpoint(processed, startIndex, endIndex)
		}

		if h.config.RequestDelay > 0 && i < len(toProcess)-1 && outcome != outcomeCacheHit {
			select {
			case <-time.After(h.config.RequestDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if err := dataset.Save(h.config.OutputPath, processed); err != nil {
		metrics.StageExamplesFailed.WithLabelValues(StageName, string(errors.CodeOf(err))).Inc()
		h.logger.Error("failed to save processed dataset", errors.FieldsFor(err))
		return nil, err
	}

	metrics.StageDuration.WithLabelValues(StageName).Observe(time.Since(start).Seconds())
	h.logger.Info("processing complete", map[string]interface{}{
		"processed":    stats.Processed,
		"repaired":     stats.Repaired,
		"fallbackUsed": stats.FallbackUsed,
		"keptOriginal": stats.KeptOriginal,
		"cacheHits":    stats.CacheHits,
		"output":       h.config.OutputPath,
	})
	return stats, nil
}

type outcome int

const (
	outcomeRepaired outcome = iota
	outcomeFallback
	outcomeKeptOriginal
	outcomeCacheHit
)

// processExample runs one question through the LLM. The original example is
// kept untouched when every attempt fails with an API error.
func (h *Handler) processExample(ctx context.Context, example dataset.Example) (dataset.Example, outcome) {
	output, out, err := h.processQuestion(ctx, example.Input)
	if err != nil {
		fields := errors.FieldsFor(err)
		fields["question"] = truncate(example.Input, 80)
		h.logger.Warn("keeping original example after failed processing", fields)
		metrics.StageExamplesFailed.WithLabelValues(StageName, string(errors.CodeOf(err))).Inc()
		return example, outcomeKeptOriginal
	}
	return dataset.Example{Input: example.Input, Output: output}, out
}

// processQuestion completes the prompt with retries. A response that is not
// valid JSON on the final attempt degrades to the step_1 fallback document.
func (h *Handler) processQuestion(ctx context.Context, question string) (map[string]interface{}, outcome, error) {
	prompt, err := h.prompt.Build(question)
	if err != nil {
		return nil, outcomeKeptOriginal, err
	}

	cacheKey := responseCacheKey(prompt)
	if output, ok := h.cachedOutput(ctx, cacheKey); ok {
		metrics.CacheHits.Inc()
		return output, outcomeCacheHit, nil
	}
	if h.cache != nil {
		metrics.CacheMisses.Inc()
	}

	var lastErr error
	for attempt := 0; attempt < h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			metrics.LLMRetries.Inc()
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, outcomeKeptOriginal, ctx.Err()
			}
		}

		content, err := h.client.Complete(ctx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return nil, outcomeKeptOriginal, ctx.Err()
			}
			metrics.LLMRequests.WithLabelValues("error").Inc()
			if stderrors.Is(err, context.DeadlineExceeded) {
				lastErr = errors.NewLLMTimeoutError()
			} else {
				lastErr = errors.NewLLMCallFailedError(err)
			}
			if !errors.IsRetryableErrorCode(errors.CodeOf(lastErr)) {
				break
			}
			continue
		}

		var output map[string]interface{}
		if err := json.Unmarshal([]byte(content), &output); err != nil {
			metrics.LLMRequests.WithLabelValues("invalid_json").Inc()
			h.logger.Warn("LLM response is not valid JSON", map[string]interface{}{
				"question": truncate(question, 50),
				"attempt":  attempt + 1,
			})
			if attempt == h.config.MaxRetries-1 {
				return dataset.FallbackOutput(question), outcomeFallback, nil
			}
			lastErr = errors.NewLLMResponseInvalidError(truncate(content, 200))
			continue
		}

		metrics.LLMRequests.WithLabelValues("success").Inc()
		h.storeOutput(ctx, cacheKey, content)
		return output, outcomeRepaired, nil
	}

	return nil, outcomeKeptOriginal, fmt.Errorf("all %d attempts failed: %w", h.config.MaxRetries, lastErr)
}

func (h *Handler) cachedOutput(ctx context.Context, key string) (map[string]interface{}, bool) {
	if h.cache == nil {
		return nil, false
	}
	content, err := h.cache.Get(ctx, key)
	if err != nil {
		h.logger.Warn("response cache read failed", errors.FieldsFor(errors.NewCacheReadFailedError(err)))
		return nil, false
	}
	if content == "" {
		return nil, false
	}
	var output map[string]interface{}
	if err := json.Unmarshal([]byte(content), &output); err != nil {
		return nil, false
	}
	return output, true
}

func (h *Handler) storeOutput(ctx context.Context, key, content string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Set(ctx, key, content, h.config.CacheTTL); err != nil {
		h.logger.Warn("failed to cache LLM response", errors.FieldsFor(errors.NewCacheWriteFailedError(err)))
	}
}

func (h *Handler) saveCheckpoint(processed []dataset.Example, startIndex, endIndex int) {
	path := fmt.Sprintf("%s.temp_%d_%d", h.config.OutputPath, startIndex, endIndex)
	if err := dataset.Save(path, processed); err != nil {
		h.logger.Warn("failed to save checkpoint", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		return
	}
	h.logger.Info("checkpoint saved", map[string]interface{}{
		"path":  path,
		"count": len(processed),
	})
}

func (h *Handler) sliceBounds(total int) (int, int) {
	start := h.config.StartIndex
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := h.config.EndIndex
	if end <= 0 || end > total {
		end = total
	}
	if end < start {
		end = start
	}
	return start, end
}

func responseCacheKey(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return "llm:response:" + hex.EncodeToString(sum[:])
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
