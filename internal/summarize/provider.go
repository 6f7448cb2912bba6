// Package summarize turns a transcript into a structured MeetingSummary by
// calling a completion provider through an ordered list of model
// identifiers, falling through the list until one returns a response that
// parses and validates.
package summarize

import "context"

// Request is one completion call.
type Request struct {
	Model  string
	Prompt string
}

// Response is the raw generated text of a completion call.
type Response struct {
	Text string
}

// Provider is the synchronous completion surface the driver needs.
type Provider interface {
	Complete(ctx context.Context, req Request) (Response, error)
}
