// Package engine orchestrates the batch pipeline: classification,
// extraction, and resolution over whatever the record store has not
// processed yet.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/jobtrail/jobtrail/internal/classifier"
	"github.com/jobtrail/jobtrail/internal/extractor"
	"github.com/jobtrail/jobtrail/internal/model"
	"github.com/jobtrail/jobtrail/internal/resolver"
	"github.com/jobtrail/jobtrail/internal/service"
)

const defaultWorkers = 4

// Config controls engine behavior.
type Config struct {
	ProgressWriter io.Writer
	Workers        int
	ShowProgress   bool
}

// Engine drives the pipeline stages. Classification and extraction fan
// out across a bounded worker pool; resolution stays serialized per
// bucket inside the resolver.
type Engine struct {
	storage    service.Storage
	classifier *classifier.RelevanceClassifier
	extractor  *extractor.Extractor
	resolver   *resolver.Resolver
	logger     *slog.Logger
	cfg        Config
}

// New creates an engine over the given stage implementations.
func New(storage service.Storage, rc *classifier.RelevanceClassifier, ex *extractor.Extractor, res *resolver.Resolver, logger *slog.Logger, cfg Config) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	return &Engine{
		storage:    storage,
		classifier: rc,
		extractor:  ex,
		resolver:   res,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run executes the full pipeline: classify, extract, resolve. Each stage
// consumes only what earlier runs have not already processed.
func (e *Engine) Run(ctx context.Context) (service.PipelineStats, error) {
	started := time.Now()
	stats := service.PipelineStats{}

	classifyStats, err := e.ClassifyAll(ctx)
	stats.Stages = append(stats.Stages, classifyStats)
	if err != nil {
		return stats, fmt.Errorf("classification stage failed: %w", err)
	}

	extractStats, err := e.ExtractAll(ctx)
	stats.Stages = append(stats.Stages, extractStats)
	if err != nil {
		return stats, fmt.Errorf("extraction stage failed: %w", err)
	}

	resolveStats, err := e.ResolveAll(ctx)
	stats.Stages = append(stats.Stages, resolveStats)
	if err != nil {
		return stats, fmt.Errorf("resolution stage failed: %w", err)
	}

	stats.Duration = time.Since(started)
	e.logger.Info("pipeline run complete",
		"classified", classifyStats.Succeeded,
		"extracted", extractStats.Succeeded,
		"resolved", resolveStats.Succeeded,
		"duration", stats.Duration)
	return stats, nil
}

// ClassifyAll labels every unlabeled message.
func (e *Engine) ClassifyAll(ctx context.Context) (service.StageStats, error) {
	stats := service.StageStats{Stage: "classify"}

	messages, err := e.storage.GetMessagesToClassify(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to load messages to classify: %w", err)
	}
	if len(messages) == 0 {
		return stats, nil
	}

	bar := e.newProgressBar(len(messages), "Classifying messages")

	e.forEachMessage(ctx, messages, func(ctx context.Context, msg model.Message) error {
		label := e.classifier.Classify(msg)
		return e.storage.SaveRelevanceLabel(ctx, &label)
	}, &stats, bar)

	return stats, ctx.Err()
}

// ExtractAll extracts fields from every job-related message without an
// extraction yet.
func (e *Engine) ExtractAll(ctx context.Context) (service.StageStats, error) {
	stats := service.StageStats{Stage: "extract"}

	messages, err := e.storage.GetMessagesToExtract(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to load messages to extract: %w", err)
	}
	if len(messages) == 0 {
		return stats, nil
	}

	bar := e.newProgressBar(len(messages), "Extracting fields")

	e.forEachMessage(ctx, messages, func(ctx context.Context, msg model.Message) error {
		result := e.extractor.Extract(ctx, msg)
		return e.storage.SaveExtraction(ctx, &result)
	}, &stats, bar)

	return stats, ctx.Err()
}

// ResolveAll folds every unresolved extraction into its record.
func (e *Engine) ResolveAll(ctx context.Context) (service.StageStats, error) {
	extractions, err := e.storage.GetExtractionsToResolve(ctx)
	if err != nil {
		return service.StageStats{Stage: "resolve"}, fmt.Errorf("failed to load extractions to resolve: %w", err)
	}

	return e.resolver.ResolveAll(ctx, extractions)
}

// forEachMessage runs op over messages with a bounded worker pool,
// counting outcomes into stats.
func (e *Engine) forEachMessage(ctx context.Context, messages []model.Message, op func(context.Context, model.Message) error, stats *service.StageStats, bar *progressbar.ProgressBar) {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		semaphore = make(chan struct{}, e.cfg.Workers)
	)

	for _, msg := range messages {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		semaphore <- struct{}{}
		go func(msg model.Message) {
			defer wg.Done()
			defer func() { <-semaphore }()

			err := op(ctx, msg)

			mu.Lock()
			if err != nil {
				e.logger.Error("stage operation failed",
					"stage", stats.Stage, "message_id", msg.ID, "error", err)
				stats.Failed++
			} else {
				stats.Succeeded++
			}
			mu.Unlock()

			if bar != nil {
				_ = bar.Add(1)
			}
		}(msg)
	}

	wg.Wait()
}

func (e *Engine) newProgressBar(total int, description string) *progressbar.ProgressBar {
	if !e.cfg.ShowProgress || e.cfg.ProgressWriter == nil {
		return nil
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(e.cfg.ProgressWriter),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]"+description+"...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
