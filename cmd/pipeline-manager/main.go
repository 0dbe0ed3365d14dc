// cmd/pipeline-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	awsclients "bi-training-pipeline/internal/common/aws"
	"bi-training-pipeline/internal/common/config"
	"bi-training-pipeline/internal/common/database"
	"bi-training-pipeline/internal/common/logger"
	"bi-training-pipeline/internal/common/observability"
	"bi-training-pipeline/internal/llm"
	"bi-training-pipeline/internal/notify"
	"bi-training-pipeline/internal/store"

	// Pipeline Stages (4)
	an "bi-training-pipeline/internal/stages/analyze"
	cv "bi-training-pipeline/internal/stages/convert"
	ix "bi-training-pipeline/internal/stages/index"
	pr "bi-training-pipeline/internal/stages/process"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")

	zapLog.Info("Starting pipeline manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Re-create the logger with the configured level and format
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New("pipeline-manager")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	if cfg.Database.Postgres.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			// Test the connection with context
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully")
	}

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			// Test the connection
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	if cfg.Database.Redis.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			// Test the connection with context
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Init Notification Clients ---
	var emailSender notify.EmailSender
	if cfg.Notifications.Email.Enabled {
		sesClient, err := awsclients.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		emailSender = sesClient
	}

	var topicPublisher notify.TopicPublisher
	if cfg.Notifications.SNS.Enabled {
		snsClient, err := awsclients.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		topicPublisher = snsClient
	}

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("addr", cfg.Server.Addr))
		if err := http.ListenAndServe(cfg.Server.Addr, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// Create adapters for stage-local Logger interfaces
	cvLogAdapter := &convertLoggerAdapter{log}
	anLogAdapter := &analyzeLoggerAdapter{log}
	ixLogAdapter := &indexLoggerAdapter{log}
	prLogAdapter := &processLoggerAdapter{log}

	// --- START: Run Pipeline Stages ---

	// --- 1. Convert Stage ---
	if config.IsStageEnabled(cfg, cv.StageName) {
		handler := cv.NewHandler(cv.LoadConfig(cfg), cvLogAdapter)
		runStage(ctx, cfg, obs, cv.StageName, zapLog, func(stageCtx context.Context) error {
			_, err := handler.Run(stageCtx)
			return err
		})
	}

	// --- 2. Analyze Stage ---
	if config.IsStageEnabled(cfg, an.StageName) {
		handler := an.NewHandler(an.LoadConfig(cfg), anLogAdapter)

		if pg != nil {
			runStore := store.NewRunStore(pg, &storeLoggerAdapter{log})
			if err := runStore.EnsureSchema(ctx); err != nil {
				zapLog.Fatal("analysis run schema failed", zap.Error(err))
			}
			handler = handler.WithStore(runStore)
		}

		if emailSender != nil || topicPublisher != nil {
			notifier := notify.NewNotifier(cfg.Notifications, emailSender, topicPublisher, &notifyLoggerAdapter{log})
			handler = handler.WithNotifier(notifier)
		}

		runStage(ctx, cfg, obs, an.StageName, zapLog, func(stageCtx context.Context) error {
			_, err := handler.Run(stageCtx)
			return err
		})
	}

	// --- 3. Index Stage ---
	if config.IsStageEnabled(cfg, ix.StageName) {
		if esClient == nil {
			zapLog.Fatal("index stage enabled but elasticsearch is disabled")
		}
		handler := ix.NewHandler(ix.LoadConfig(cfg), esClient.Client, ixLogAdapter)
		runStage(ctx, cfg, obs, ix.StageName, zapLog, func(stageCtx context.Context) error {
			_, err := handler.Run(stageCtx)
			return err
		})
	}

	// --- 4. Process Stage ---
	if config.IsStageEnabled(cfg, pr.StageName) {
		llmClient, err := llm.NewOpenAIClient(cfg.LLM)
		if err != nil {
			zapLog.Fatal("llm client failed", zap.Error(err))
		}

		handler := pr.NewHandler(pr.LoadConfig(cfg), llmClient, prLogAdapter)
		if redis != nil {
			handler = handler.WithCache(redis)
		}

		runStage(ctx, cfg, obs, pr.StageName, zapLog, func(stageCtx context.Context) error {
			_, err := handler.Run(stageCtx)
			return err
		})
	}

	zapLog.Info("Pipeline finished")
}

// runStage executes one stage under its configured timeout and records the
// stage duration.
func runStage(ctx context.Context, cfg *config.Config, obs *observability.Observability, stageName string, log *zap.Logger, run func(context.Context) error) {
	stageCfg := config.GetStageConfig(cfg, stageName)
	stageCtx := ctx
	if stageCfg.Timeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, config.GetDuration(stageCfg.Timeout))
		defer cancel()
	}

	log.Info("stage starting", zap.String("stage", stageName))
	start := time.Now()

	err := run(stageCtx)
	status := "success"
	if err != nil {
		status = "error"
	}
	obs.RecordStageDuration(ctx, stageName, time.Since(start), status)

	if err != nil {
		log.Fatal("stage failed", zap.String("stage", stageName), zap.Error(err))
	}
	log.Info("stage completed",
		zap.String("stage", stageName),
		zap.Duration("duration", time.Since(start)),
	)
}

// Logger adapters for packages that have their own Logger interfaces
type convertLoggerAdapter struct {
	logger.Logger
}

func (a *convertLoggerAdapter) With(fields map[string]interface{}) cv.Logger {
	return &convertLoggerAdapter{a.Logger.With(fields)}
}

type analyzeLoggerAdapter struct {
	logger.Logger
}

func (a *analyzeLoggerAdapter) With(fields map[string]interface{}) an.Logger {
	return &analyzeLoggerAdapter{a.Logger.With(fields)}
}

type indexLoggerAdapter struct {
	logger.Logger
}

func (a *indexLoggerAdapter) With(fields map[string]interface{}) ix.Logger {
	return &indexLoggerAdapter{a.Logger.With(fields)}
}

type processLoggerAdapter struct {
	logger.Logger
}

func (a *processLoggerAdapter) With(fields map[string]interface{}) pr.Logger {
	return &processLoggerAdapter{a.Logger.With(fields)}
}

type notifyLoggerAdapter struct {
	logger.Logger
}

func (a *notifyLoggerAdapter) With(fields map[string]interface{}) notify.Logger {
	return &notifyLoggerAdapter{a.Logger.With(fields)}
}

type storeLoggerAdapter struct {
	logger.Logger
}

func (a *storeLoggerAdapter) With(fields map[string]interface{}) store.Logger {
	return &storeLoggerAdapter{a.Logger.With(fields)}
}
