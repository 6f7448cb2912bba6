package transcribe

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/meetingpipe/meetingpipe/internal/budget"
	"github.com/meetingpipe/meetingpipe/internal/models"
	"github.com/meetingpipe/meetingpipe/internal/storage"
)

// formatByExtension maps audio file extensions to the provider's media
// format identifiers. Unmapped extensions fall back to defaultFormat rather
// than failing the submission.
var formatByExtension = map[string]string{
	".mp3":  "mp3",
	".wav":  "wav",
	".m4a":  "mp4",
	".mp4":  "mp4",
	".flac": "flac",
	".ogg":  "ogg",
	".mov":  "mp4",
}

const defaultFormat = "mp3"

// FormatForExtension returns the provider media format for an extension.
func FormatForExtension(ext string) string {
	if format, ok := formatByExtension[strings.ToLower(ext)]; ok {
		return format
	}
	return defaultFormat
}

// Config holds the transcription driver settings, passed in at construction.
type Config struct {
	// Language is the provider language code, e.g. "ja-JP".
	Language string

	// MediaBaseURI prefixes storage keys to build the media URI the
	// provider downloads from.
	MediaBaseURI string

	MaxSpeakers int

	PollInterval time.Duration

	// The wait window is min(MaxWait, max(MinWait, budget − SafetyMargin)).
	MinWait      time.Duration
	MaxWait      time.Duration
	SafetyMargin time.Duration

	// BudgetFloor aborts the poll loop early once the observed remaining
	// budget drops below it, regardless of job state.
	BudgetFloor time.Duration
}

// TranscriptKey returns the storage key of the cached transcript under the
// per-file output prefix.
func TranscriptKey(outPrefix string) string { return outPrefix + "transcript.txt" }

// RawResultKey returns the storage key of the archived raw result document.
func RawResultKey(outPrefix string) string { return outPrefix + "raw_result.json.gz" }

// Driver runs one audio file through the provider's asynchronous job API.
type Driver struct {
	jobs  JobClient
	store storage.Store
	cfg   Config

	sleep func(ctx context.Context, d time.Duration) error
	token func() string
	now   func() time.Time
}

// Option configures a Driver.
type Option func(*Driver)

// WithSleep replaces the poll-loop suspension, for tests with a fake clock.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(d *Driver) { d.sleep = sleep }
}

// WithToken replaces the random job-name suffix source.
func WithToken(token func() string) Option {
	return func(d *Driver) { d.token = token }
}

// WithNow replaces the clock used for job-name timestamps.
func WithNow(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// NewDriver creates a transcription driver.
func NewDriver(jobs JobClient, store storage.Store, cfg Config, opts ...Option) *Driver {
	d := &Driver{
		jobs:  jobs,
		store: store,
		cfg:   cfg,
		sleep: sleepContext,
		token: randomToken,
		now:   time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func randomToken() string {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms; timestamp-only
		// names still collide rarely enough for a single session.
		return "000000"
	}
	return hex.EncodeToString(buf[:])
}

// WaitWindow clamps the poll window to [minWait, maxWait] around the
// remaining budget minus the safety margin.
func WaitWindow(remaining, minWait, maxWait, safetyMargin time.Duration) time.Duration {
	window := remaining - safetyMargin
	if window < minWait {
		window = minWait
	}
	if window > maxWait {
		window = maxWait
	}
	return window
}

// Transcribe obtains a transcript for file, writing it under outPrefix.
//
// A previously persisted transcript short-circuits the provider entirely.
// Otherwise a job is submitted under a session-unique name, polled on a
// fixed interval inside the budgeted wait window, and its result is fetched,
// normalized (speaker-labeled when the metadata supports it), archived, and
// persisted. Every failure mode comes back as a *Error; the remote job is
// deleted best-effort on all terminal paths.
func (d *Driver) Transcribe(ctx context.Context, file models.AudioFile, outPrefix string, b budget.Budget) (*models.Transcript, error) {
	cached, err := d.store.Get(ctx, TranscriptKey(outPrefix))
	switch {
	case err == nil && string(cached) == models.DemoTranscript:
		// A degraded run left the placeholder behind; only a transcript the
		// provider actually produced may satisfy the short-circuit.
		slog.Info("ignoring placeholder transcript from a degraded run", "file", file.Key)
	case err == nil && len(cached) > 0:
		slog.Info("reusing cached transcript", "file", file.Key)
		return &models.Transcript{Text: string(cached), Source: models.SourceCache}, nil
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		slog.Warn("transcript cache lookup failed", "file", file.Key, "error", err)
	}

	jobName := fmt.Sprintf("mtg-%s-%s", d.now().UTC().Format("20060102T150405"), d.token())

	spec := JobSpec{
		Name:          jobName,
		MediaURI:      d.cfg.MediaBaseURI + file.Key,
		Language:      d.cfg.Language,
		MediaFormat:   FormatForExtension(file.Ext()),
		SpeakerLabels: true,
		MaxSpeakers:   d.cfg.MaxSpeakers,
	}

	slog.Info("submitting transcription job",
		"job", jobName, "file", file.Key, "format", spec.MediaFormat)

	if err := d.jobs.Submit(ctx, spec); err != nil {
		return nil, &Error{Kind: KindSubmit, JobName: jobName, Err: err}
	}

	status, terr := d.poll(ctx, jobName, b)
	if terr != nil {
		return nil, terr
	}

	transcript, terr := d.fetchTranscript(ctx, status, outPrefix)
	d.cleanup(ctx, jobName)
	if terr != nil {
		return nil, terr
	}

	if err := d.store.Put(ctx, TranscriptKey(outPrefix), []byte(transcript.Text), "text/plain; charset=utf-8"); err != nil {
		// The transcript is still usable this run; only the idempotent
		// short-circuit for retries is lost.
		slog.Warn("failed to persist transcript", "file", file.Key, "error", err)
	}

	return transcript, nil
}

// poll watches the job until it reaches a terminal state, the attempt window
// closes, or the budget floor is crossed.
func (d *Driver) poll(ctx context.Context, jobName string, b budget.Budget) (JobStatus, *Error) {
	window := WaitWindow(b.Remaining(), d.cfg.MinWait, d.cfg.MaxWait, d.cfg.SafetyMargin)
	attempts := int(window / d.cfg.PollInterval)
	if attempts < 1 {
		attempts = 1
	}

	slog.Debug("polling transcription job",
		"job", jobName, "window", window, "attempts", attempts)

	for attempt := 0; attempt < attempts; attempt++ {
		if remaining := b.Remaining(); remaining < d.cfg.BudgetFloor {
			d.cleanup(ctx, jobName)
			return JobStatus{}, &Error{
				Kind:    KindBudgetExhausted,
				JobName: jobName,
				Reason:  fmt.Sprintf("remaining budget %s below floor %s", remaining, d.cfg.BudgetFloor),
			}
		}

		status, err := d.jobs.GetJob(ctx, jobName)
		if err != nil {
			d.cleanup(ctx, jobName)
			return JobStatus{}, &Error{Kind: KindFetch, JobName: jobName, Err: err}
		}

		switch status.State {
		case StateCompleted:
			return status, nil
		case StateFailed:
			slog.Warn("transcription job failed",
				"job", jobName, "reason", status.FailureReason)
			d.cleanup(ctx, jobName)
			return JobStatus{}, &Error{
				Kind:    KindJobFailed,
				JobName: jobName,
				Reason:  status.FailureReason,
			}
		}

		if attempt < attempts-1 {
			if err := d.sleep(ctx, d.cfg.PollInterval); err != nil {
				d.cleanup(ctx, jobName)
				return JobStatus{}, &Error{Kind: KindBudgetExhausted, JobName: jobName, Err: err}
			}
		}
	}

	d.cleanup(ctx, jobName)
	return JobStatus{}, &Error{
		Kind:    KindTimeout,
		JobName: jobName,
		Reason:  fmt.Sprintf("job not finished after %d attempts", attempts),
	}
}

// fetchTranscript downloads and normalizes the completed job's result,
// archiving the raw document alongside the other artifacts.
func (d *Driver) fetchTranscript(ctx context.Context, status JobStatus, outPrefix string) (*models.Transcript, *Error) {
	if status.ResultURI == "" {
		return nil, &Error{Kind: KindEmptyResult, JobName: status.Name, Reason: "no result URI"}
	}

	raw, err := d.jobs.FetchResult(ctx, status.ResultURI)
	if err != nil {
		return nil, &Error{Kind: KindFetch, JobName: status.Name, Err: err}
	}

	d.archiveRaw(ctx, outPrefix, raw)

	var doc ResultDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &Error{Kind: KindFetch, JobName: status.Name, Err: err}
	}

	var plain strings.Builder
	for _, chunk := range doc.Results.Transcripts {
		if plain.Len() > 0 {
			plain.WriteString("\n")
		}
		plain.WriteString(chunk.Transcript)
	}
	if plain.Len() == 0 {
		return nil, &Error{Kind: KindEmptyResult, JobName: status.Name, Reason: "empty transcript"}
	}

	if labeled, err := RenderSpeakerTurns(&doc); err == nil {
		return &models.Transcript{Text: labeled, SpeakerLabeled: true, Source: models.SourceProvider}, nil
	} else {
		slog.Debug("speaker rendering unavailable, using plain transcript",
			"job", status.Name, "reason", err)
	}

	return &models.Transcript{Text: plain.String(), Source: models.SourceProvider}, nil
}

// archiveRaw stores the gzipped raw result document. Best-effort.
func (d *Driver) archiveRaw(ctx context.Context, outPrefix string, raw []byte) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		slog.Warn("failed to compress raw result", "error", err)
		return
	}
	if err := gz.Close(); err != nil {
		slog.Warn("failed to compress raw result", "error", err)
		return
	}
	if err := d.store.Put(ctx, RawResultKey(outPrefix), buf.Bytes(), "application/gzip"); err != nil {
		slog.Warn("failed to archive raw result", "error", err)
	}
}

// cleanup deletes the remote job. Best-effort; the provider expires jobs on
// its own eventually.
func (d *Driver) cleanup(ctx context.Context, jobName string) {
	if err := d.jobs.DeleteJob(ctx, jobName); err != nil {
		slog.Warn("failed to delete transcription job", "job", jobName, "error", err)
	}
}
