package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Response is the envelope handed back to the invocation wrapper.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// FileResult is the per-file outcome embedded in a response body.
type FileResult struct {
	File             string       `json:"file"`
	Status           string       `json:"status"`
	MeetingInfo      *MeetingInfo `json:"meeting_info,omitempty"`
	TranscriptLength int          `json:"transcript_length,omitempty"`
	OutputFolder     string       `json:"output_folder,omitempty"`
	Manifest         string       `json:"manifest,omitempty"`
	ProcessingTime   string       `json:"processing_time,omitempty"`
	Error            string       `json:"error,omitempty"`
	Timestamp        string       `json:"timestamp,omitempty"`
}

// Succeeded reports whether the result carries a success status.
func (r FileResult) Succeeded() bool { return r.Status == "success" }

// BatchSummary counts outcomes across one event-driven invocation.
type BatchSummary struct {
	TotalFiles int `json:"total_files"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// BatchBody is the response body for event-driven mode.
type BatchBody struct {
	Message   string       `json:"message"`
	Summary   BatchSummary `json:"summary"`
	Results   []FileResult `json:"results"`
	Timestamp string       `json:"timestamp"`
}

// ManualBody is the response body for manual mode.
type ManualBody struct {
	Mode   string     `json:"mode"`
	Result FileResult `json:"result"`
}

// ErrorBody is the response body for invocation-level failures.
type ErrorBody struct {
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// NewResponse marshals body into a Response. A marshal failure collapses to a
// plain-text 500 so the envelope contract holds even then.
func NewResponse(statusCode int, body any) Response {
	raw, err := json.Marshal(body)
	if err != nil {
		return Response{
			StatusCode: 500,
			Body:       fmt.Sprintf(`{"message":"failed to encode response body","error":%q}`, err.Error()),
		}
	}
	return Response{StatusCode: statusCode, Body: string(raw)}
}

// Timestamp formats t the way response bodies expect.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
