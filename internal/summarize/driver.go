package summarize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/meetingpipe/meetingpipe/internal/models"
)

// Config holds the summarization driver settings, passed in at construction.
type Config struct {
	// Models is the ordered fallback list; the first entry is the primary.
	Models []string

	MaxTranscriptChars int
	TruncationMarker   string
}

// AttemptRecord is one diagnostic entry of the model fallback chain.
type AttemptRecord struct {
	Model           string    `json:"model"`
	Attempt         int       `json:"attempt"`
	Status          string    `json:"status"`
	PromptChars     int       `json:"prompt_chars"`
	ResponseChars   int       `json:"response_chars"`
	ErrorClass      string    `json:"error_class,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	Hint            string    `json:"hint,omitempty"`
	ResponseExcerpt string    `json:"response_excerpt,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// AttemptSink receives each AttemptRecord as it happens, so a partial chain
// is diagnosable even if the process dies mid-run. Write failures are the
// sink's problem; the driver never sees them.
type AttemptSink func(record AttemptRecord)

// Result is a successful summarization: the summary, the model that produced
// it, and the full diagnostic trail.
type Result struct {
	Summary  *models.MeetingSummary
	Model    string
	Attempts []AttemptRecord
}

// Error is returned when every model in the list failed.
type Error struct {
	Attempts []AttemptRecord
}

func (e *Error) Error() string {
	return fmt.Sprintf("summarize: all %d model attempts failed", len(e.Attempts))
}

// Driver iterates the configured model list until one attempt parses.
type Driver struct {
	provider Provider
	cfg      Config
	now      func() time.Time
}

// Option configures a Driver.
type Option func(*Driver)

// WithNow replaces the diagnostic timestamp clock.
func WithNow(now func() time.Time) Option {
	return func(d *Driver) { d.now = now }
}

// NewDriver creates a summarization driver.
func NewDriver(provider Provider, cfg Config, opts ...Option) *Driver {
	d := &Driver{provider: provider, cfg: cfg, now: time.Now}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Summarize builds one prompt and walks the model list in order, one attempt
// per model, until a response yields a schema-valid summary. Provider faults
// and unparsable responses both count as failed attempts; each record is
// streamed to sink (which may be nil) as it happens. When the whole list is
// exhausted it returns a *Error carrying the trail; the caller owns any
// fallback content.
func (d *Driver) Summarize(ctx context.Context, info models.MeetingInfo, transcript string, sink AttemptSink) (*Result, error) {
	prompt := BuildPrompt(info, transcript, d.cfg.MaxTranscriptChars, d.cfg.TruncationMarker)

	var attempts []AttemptRecord

	for i, model := range d.cfg.Models {
		record := AttemptRecord{
			Model:       model,
			Attempt:     i + 1,
			PromptChars: len([]rune(prompt)),
			Timestamp:   d.now(),
		}

		slog.Info("attempting summarization", "model", model, "attempt", i+1, "of", len(d.cfg.Models))

		resp, err := d.provider.Complete(ctx, Request{Model: model, Prompt: prompt})
		if err != nil {
			class := ClassifyError(err)
			record.Status = "error"
			record.ErrorClass = class
			record.ErrorMessage = err.Error()
			record.Hint = HintFor(class)
			attempts = d.record(attempts, record, sink)
			continue
		}

		record.ResponseChars = len([]rune(resp.Text))
		record.ResponseExcerpt = Excerpt(resp.Text, 200)

		summary, err := ParseSummary(resp.Text)
		if err != nil {
			record.Status = "unparsable"
			record.ErrorClass = "InvalidOutput"
			record.ErrorMessage = err.Error()
			record.Hint = HintFor("InvalidOutput")
			attempts = d.record(attempts, record, sink)
			continue
		}

		record.Status = "success"
		attempts = d.record(attempts, record, sink)

		slog.Info("summarization succeeded", "model", model, "attempt", i+1)
		return &Result{Summary: summary, Model: model, Attempts: attempts}, nil
	}

	return nil, &Error{Attempts: attempts}
}

func (d *Driver) record(attempts []AttemptRecord, record AttemptRecord, sink AttemptSink) []AttemptRecord {
	if record.Status != "success" {
		slog.Warn("summarization attempt failed",
			"model", record.Model, "attempt", record.Attempt,
			"class", record.ErrorClass, "error", record.ErrorMessage)
	}
	if sink != nil {
		sink(record)
	}
	return append(attempts, record)
}

// ClassifyError buckets provider faults into the classes the remediation
// hints key on. Providers do not share an error taxonomy, so this matches on
// message text.
func ClassifyError(err error) string {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "access denied"),
		strings.Contains(msg, "accessdenied"),
		strings.Contains(msg, "permission"),
		strings.Contains(msg, "forbidden"),
		strings.Contains(msg, "403"):
		return "AccessDenied"
	case strings.Contains(msg, "throttl"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "too many requests"),
		strings.Contains(msg, "429"):
		return "Throttled"
	default:
		return "Unknown"
	}
}

// HintFor returns the human-readable remediation hint for an error class.
func HintFor(class string) string {
	switch class {
	case "AccessDenied":
		return "The account lacks access to this model. Enable it in the provider's model-access settings, or move it later in the fallback list."
	case "Throttled":
		return "The provider is rate limiting this model. Retry later or raise the account's quota."
	case "InvalidOutput":
		return "The model responded but not with the required JSON shape. Usually transient; the next model in the list is tried automatically."
	default:
		return "Unexpected provider error. Check the provider's service status and the endpoint configuration."
	}
}
