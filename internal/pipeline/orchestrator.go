// Package pipeline is the per-file orchestration state machine. It drives
// one audio file from validation through transcription, summarization,
// artifact assembly, and notification, absorbing external-call failures as
// data-quality degradations rather than pipeline failures.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/meetingpipe/meetingpipe/internal/budget"
	"github.com/meetingpipe/meetingpipe/internal/models"
	"github.com/meetingpipe/meetingpipe/internal/storage"
	"github.com/meetingpipe/meetingpipe/internal/summarize"
)

// Stage identifies a state of the per-file machine.
type Stage string

const (
	StageValidating   Stage = "VALIDATING"
	StageTranscribing Stage = "TRANSCRIBING"
	StageSummarizing  Stage = "SUMMARIZING"
	StageAssembling   Stage = "ASSEMBLING"
	StageNotifying    Stage = "NOTIFYING"
	StageDone         Stage = "DONE"
	StageError        Stage = "ERROR"
)

// Transcriber is the transcription driver surface the orchestrator needs.
type Transcriber interface {
	Transcribe(ctx context.Context, file models.AudioFile, outPrefix string, b budget.Budget) (*models.Transcript, error)
}

// Summarizer is the summarization driver surface the orchestrator needs.
type Summarizer interface {
	Summarize(ctx context.Context, info models.MeetingInfo, transcript string, sink summarize.AttemptSink) (*summarize.Result, error)
}

// Config holds the orchestrator settings.
type Config struct {
	InputPrefix  string
	OutputPrefix string
	Extensions   []string
	MaxFileSize  int64

	// PrimaryModel only feeds the demo summary and diagnostics.
	PrimaryModel string
}

// Orchestrator runs the full per-file flow.
type Orchestrator struct {
	store       storage.Store
	transcriber Transcriber
	summarizer  Summarizer
	index       *Index
	cfg         Config
	now         func() time.Time
}

// New creates an orchestrator. The cross-file index lives at
// <output prefix>index.json.
func New(store storage.Store, transcriber Transcriber, summarizer Summarizer, cfg Config) *Orchestrator {
	return &Orchestrator{
		store:       store,
		transcriber: transcriber,
		summarizer:  summarizer,
		index:       NewIndex(store, cfg.OutputPrefix+"index.json"),
		cfg:         cfg,
		now:         time.Now,
	}
}

// OutputPrefix returns the per-file artifact folder for an audio file.
func (o *Orchestrator) OutputPrefix(file models.AudioFile) string {
	return o.cfg.OutputPrefix + file.Base() + "/"
}

// ProcessFile runs one file through the whole state machine and always
// returns a well-formed result. Only a structurally invalid input or a
// genuinely unexpected fault yields an error result; provider failures
// degrade to demo data and still land on success.
func (o *Orchestrator) ProcessFile(ctx context.Context, key string, b budget.Budget) (result models.FileResult) {
	start := o.now()

	file, err := o.validate(ctx, key)
	if err != nil {
		slog.Warn("input rejected", "file", key, "error", err)
		return o.errorResult(key, err)
	}

	prefix := o.OutputPrefix(file)

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			o.dumpError(ctx, prefix, err)
			o.progress(ctx, prefix, StageError, err.Error())
			result = o.errorResult(key, err)
		}
	}()

	info := models.NewMeetingInfo(file)
	o.progress(ctx, prefix, StageValidating, fmt.Sprintf("accepted %s (%d bytes)", file.Key, file.Size))

	// TRANSCRIBING — a null transcript is a degradation, not a failure.
	o.progress(ctx, prefix, StageTranscribing, "starting transcription")
	transcript, err := o.transcriber.Transcribe(ctx, file, prefix, b)
	if err != nil {
		slog.Warn("transcription failed, using demo transcript", "file", file.Key, "error", err)
		o.progress(ctx, prefix, StageTranscribing, "degraded to demo transcript: "+err.Error())
		transcript = &models.Transcript{Text: models.DemoTranscript, SpeakerLabeled: true, Source: models.SourceDemo}
	} else {
		o.progress(ctx, prefix, StageTranscribing, fmt.Sprintf("transcript ready (%s, %d chars)", transcript.Source, len(transcript.Text)))
	}

	// SUMMARIZING — same policy: exhaustion of the model list degrades.
	o.progress(ctx, prefix, StageSummarizing, "starting summarization")
	var (
		summary   *models.MeetingSummary
		modelUsed string
	)
	sumResult, err := o.summarizer.Summarize(ctx, info, transcript.Text, o.attemptSink(ctx, prefix))
	if err != nil {
		slog.Warn("summarization exhausted all models, using demo summary", "file", file.Key, "error", err)
		o.progress(ctx, prefix, StageSummarizing, "degraded to demo summary: "+err.Error())
		summary = DemoSummary(o.cfg.PrimaryModel)
	} else {
		summary = sumResult.Summary
		modelUsed = sumResult.Model
		o.progress(ctx, prefix, StageSummarizing, "summary produced by "+modelUsed)
	}

	// ASSEMBLING — from here on a failure is unexpected, not absorbed.
	o.progress(ctx, prefix, StageAssembling, "writing artifacts")
	manifest, err := o.assemble(ctx, file, info, transcript, summary, modelUsed, start)
	if err != nil {
		o.dumpError(ctx, prefix, err)
		o.progress(ctx, prefix, StageError, err.Error())
		return o.errorResult(key, err)
	}

	if err := o.index.Update(ctx, file.Base(), models.IndexEntry{
		Manifest:    prefix + "manifest.json",
		ProcessedAt: manifest.Processing.ProcessedAt,
		Title:       info.Title,
		Status:      "success",
	}); err != nil {
		// The manifest is canonical; a stale index is recoverable.
		slog.Warn("index update failed", "file", file.Key, "error", err)
	}

	o.progress(ctx, prefix, StageNotifying, "writing completion notice")
	o.notify(ctx, prefix, info, manifest)

	o.progress(ctx, prefix, StageDone, "pipeline complete")

	elapsed := o.now().Sub(start)
	return models.FileResult{
		File:             key,
		Status:           "success",
		MeetingInfo:      &info,
		TranscriptLength: len(transcript.Text),
		OutputFolder:     prefix,
		Manifest:         prefix + "manifest.json",
		ProcessingTime:   elapsed.Round(time.Millisecond).String(),
	}
}

// validate checks location, extension, and size against the accepted set.
func (o *Orchestrator) validate(ctx context.Context, key string) (models.AudioFile, error) {
	if !strings.HasPrefix(key, o.cfg.InputPrefix) {
		return models.AudioFile{}, fmt.Errorf("file %s is outside the accepted prefix %s", key, o.cfg.InputPrefix)
	}

	file := models.AudioFile{Key: key}
	allowed := false
	for _, ext := range o.cfg.Extensions {
		if file.Ext() == ext {
			allowed = true
			break
		}
	}
	if !allowed {
		return models.AudioFile{}, fmt.Errorf("extension %q is not in the accepted set", file.Ext())
	}

	info, err := o.store.Head(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.AudioFile{}, fmt.Errorf("file %s does not exist", key)
		}
		return models.AudioFile{}, fmt.Errorf("checking %s: %w", key, err)
	}

	if info.Size > o.cfg.MaxFileSize {
		return models.AudioFile{}, fmt.Errorf("file %s is %d bytes, over the %d byte limit", key, info.Size, o.cfg.MaxFileSize)
	}

	file.Size = info.Size
	file.LastModified = info.LastModified
	file.Format = strings.TrimPrefix(file.Ext(), ".")
	return file, nil
}

// assemble writes the artifact set and returns the manifest, which is
// written last as the canonical completion marker.
func (o *Orchestrator) assemble(ctx context.Context, file models.AudioFile, info models.MeetingInfo,
	transcript *models.Transcript, summary *models.MeetingSummary, modelUsed string, start time.Time) (*models.Manifest, error) {

	prefix := o.OutputPrefix(file)

	if err := o.store.Put(ctx, prefix+"transcript.txt", []byte(transcript.Text), "text/plain; charset=utf-8"); err != nil {
		return nil, fmt.Errorf("writing transcript: %w", err)
	}

	summaryJSON, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding summary: %w", err)
	}
	if err := o.store.Put(ctx, prefix+"summary.json", summaryJSON, "application/json"); err != nil {
		return nil, fmt.Errorf("writing summary: %w", err)
	}

	emailMD := BuildEmailMarkdown(info, summary)
	if err := o.store.Put(ctx, prefix+"email_content.txt", []byte(emailMD), "text/plain; charset=utf-8"); err != nil {
		return nil, fmt.Errorf("writing email text: %w", err)
	}

	emailHTML, err := RenderEmailHTML(emailMD)
	if err != nil {
		return nil, err
	}
	if err := o.store.Put(ctx, prefix+"email_content.html", []byte(emailHTML), "text/html; charset=utf-8"); err != nil {
		return nil, fmt.Errorf("writing email html: %w", err)
	}

	manifest := &models.Manifest{
		Source:  file,
		Meeting: info,
		Processing: models.ProcessingInfo{
			ProcessedAt:     o.now(),
			DurationMs:      o.now().Sub(start).Milliseconds(),
			ModelUsed:       modelUsed,
			TranscriptChars: len(transcript.Text),
			IsDemoData:      transcript.Source == models.SourceDemo || summary.IsDemoData,
			Status:          "success",
		},
		Files: models.ArtifactFiles{
			Transcript:    prefix + "transcript.txt",
			Summary:       prefix + "summary.json",
			EmailText:     prefix + "email_content.txt",
			EmailHTML:     prefix + "email_content.html",
			Progress:      prefix + "progress.txt",
			Status:        prefix + "status.txt",
			ModelAttempts: prefix + "model_attempts.jsonl",
		},
		Summary: summary,
	}
	if transcript.Source == models.SourceProvider {
		manifest.Files.RawResult = prefix + "raw_result.json.gz"
	}

	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding manifest: %w", err)
	}
	if err := o.store.Put(ctx, prefix+"manifest.json", manifestJSON, "application/json"); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	return manifest, nil
}

// notify writes the human-readable completion notice. Best-effort.
func (o *Orchestrator) notify(ctx context.Context, prefix string, info models.MeetingInfo, manifest *models.Manifest) {
	var b strings.Builder
	fmt.Fprintf(&b, "Processing complete: %s\n", info.Title)
	fmt.Fprintf(&b, "Date: %s\n", info.Date)
	fmt.Fprintf(&b, "Manifest: %smanifest.json\n", prefix)
	if manifest.Processing.IsDemoData {
		b.WriteString("Warning: this run contains demo placeholder data. See progress.txt and model_attempts.jsonl for the cause.\n")
	}
	if err := o.store.Put(ctx, prefix+"status.txt", []byte(b.String()), "text/plain; charset=utf-8"); err != nil {
		slog.Warn("failed to write status notice", "error", err)
	}
}

// progress appends one timestamped line to the per-file progress log.
// Best-effort; the log is a diagnostic side channel.
func (o *Orchestrator) progress(ctx context.Context, prefix string, stage Stage, msg string) {
	line := fmt.Sprintf("%s [%s] %s", o.now().UTC().Format(time.RFC3339), stage, msg)
	if err := storage.Append(ctx, o.store, prefix+"progress.txt", line); err != nil {
		slog.Warn("failed to append progress", "stage", stage, "error", err)
	}
}

// attemptSink streams summarization attempt records into the per-file
// NDJSON diagnostic artifact.
func (o *Orchestrator) attemptSink(ctx context.Context, prefix string) summarize.AttemptSink {
	return func(record summarize.AttemptRecord) {
		line, err := json.Marshal(record)
		if err != nil {
			slog.Warn("failed to encode attempt record", "error", err)
			return
		}
		if err := storage.Append(ctx, o.store, prefix+"model_attempts.jsonl", string(line)); err != nil {
			slog.Warn("failed to append attempt record", "error", err)
		}
	}
}

// dumpError persists a diagnostic record for an unexpected failure.
// Best-effort.
func (o *Orchestrator) dumpError(ctx context.Context, prefix string, cause error) {
	dump := map[string]any{
		"error":         cause.Error(),
		"primary_model": o.cfg.PrimaryModel,
		"timestamp":     o.now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return
	}
	if err := o.store.Put(ctx, prefix+"error_dump.json", data, "application/json"); err != nil {
		slog.Warn("failed to write error dump", "error", err)
	}
}

func (o *Orchestrator) errorResult(key string, err error) models.FileResult {
	return models.FileResult{
		File:      key,
		Status:    "error",
		Error:     err.Error(),
		Timestamp: models.Timestamp(o.now()),
	}
}
