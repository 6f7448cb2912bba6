package dispatch

import (
	"context"
	"log/slog"
	"net/http"
	"path"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meetingpipe/meetingpipe/internal/budget"
	"github.com/meetingpipe/meetingpipe/internal/models"
	"github.com/meetingpipe/meetingpipe/internal/storage"
)

// FileProcessor is the orchestrator surface the dispatcher needs.
type FileProcessor interface {
	ProcessFile(ctx context.Context, key string, b budget.Budget) models.FileResult
}

// Config holds the dispatcher settings.
type Config struct {
	InputPrefix string
	Extensions  []string

	// Workers bounds the per-file fan-out. 1 means strictly sequential.
	Workers int
}

// Dispatcher selects files and aggregates their results into a response
// envelope.
type Dispatcher struct {
	processor FileProcessor
	store     storage.Store
	cfg       Config
	now       func() time.Time
}

// New creates a dispatcher.
func New(processor FileProcessor, store storage.Store, cfg Config) *Dispatcher {
	return &Dispatcher{processor: processor, store: store, cfg: cfg, now: time.Now}
}

// accepted reports whether a key matches the input prefix and the extension
// allow-list.
func (d *Dispatcher) accepted(key string) bool {
	if !strings.HasPrefix(key, d.cfg.InputPrefix) {
		return false
	}
	ext := strings.ToLower(path.Ext(key))
	return slices.Contains(d.cfg.Extensions, ext)
}

// Handle runs one invocation: event-driven mode when the payload carries
// records, manual mode otherwise. It always returns a well-formed envelope.
func (d *Dispatcher) Handle(ctx context.Context, payload Payload, b budget.Budget) models.Response {
	var keys []string
	for _, record := range payload.Records {
		key := record.Storage.Object.Key
		if !d.accepted(key) {
			slog.Info("skipping record outside accepted set", "key", key)
			continue
		}
		keys = append(keys, key)
	}

	if len(payload.Records) == 0 {
		return d.Manual(ctx, b)
	}

	if len(keys) == 0 {
		return models.NewResponse(http.StatusOK, models.BatchBody{
			Message:   "no records matched the accepted prefix and extensions",
			Results:   []models.FileResult{},
			Timestamp: models.Timestamp(d.now()),
		})
	}

	results := d.processAll(ctx, keys, b)

	summary := models.BatchSummary{TotalFiles: len(results)}
	for _, r := range results {
		if r.Succeeded() {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}

	return models.NewResponse(http.StatusOK, models.BatchBody{
		Message:   "batch processing complete",
		Summary:   summary,
		Results:   results,
		Timestamp: models.Timestamp(d.now()),
	})
}

// processAll fans the batch out across at most Workers goroutines. Each
// file's state is independent; the shared index is serialized inside the
// orchestrator, so this is safe per the concurrency model.
func (d *Dispatcher) processAll(ctx context.Context, keys []string, b budget.Budget) []models.FileResult {
	results := make([]models.FileResult, len(keys))

	workers := d.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, key := range keys {
		g.Go(func() error {
			results[i] = d.processor.ProcessFile(gctx, key, b)
			return nil
		})
	}
	// Workers never return errors; per-file failures live in the results.
	_ = g.Wait()

	return results
}

// Manual finds the most recently modified candidate under the input prefix
// and processes it.
func (d *Dispatcher) Manual(ctx context.Context, b budget.Budget) models.Response {
	infos, err := d.store.List(ctx, d.cfg.InputPrefix)
	if err != nil {
		return models.NewResponse(http.StatusInternalServerError, models.ErrorBody{
			Message:   "failed to list candidate files",
			Error:     err.Error(),
			Timestamp: models.Timestamp(d.now()),
		})
	}

	var latest *storage.ObjectInfo
	for i := range infos {
		if !d.accepted(infos[i].Key) {
			continue
		}
		if latest == nil || infos[i].LastModified.After(latest.LastModified) {
			latest = &infos[i]
		}
	}

	if latest == nil {
		return models.NewResponse(http.StatusNotFound, models.ErrorBody{
			Message:   "no audio files found under " + d.cfg.InputPrefix,
			Timestamp: models.Timestamp(d.now()),
		})
	}

	slog.Info("manual mode selected most recent file", "key", latest.Key, "modified", latest.LastModified)

	result := d.processor.ProcessFile(ctx, latest.Key, b)
	return models.NewResponse(http.StatusOK, models.ManualBody{Mode: "manual", Result: result})
}
