// Package transcribe drives an asynchronous speech-to-text job from
// submission through polling to result normalization, under the remaining
// time budget of the invocation.
package transcribe

import "context"

// JobState is the provider-side lifecycle state of a transcription job.
type JobState string

const (
	StateSubmitted  JobState = "SUBMITTED"
	StateInProgress JobState = "IN_PROGRESS"
	StateCompleted  JobState = "COMPLETED"
	StateFailed     JobState = "FAILED"
)

// Terminal reports whether the job will make no further progress.
func (s JobState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// JobSpec describes a job submission.
type JobSpec struct {
	Name          string `json:"name"`
	MediaURI      string `json:"media_uri"`
	Language      string `json:"language"`
	MediaFormat   string `json:"media_format"`
	SpeakerLabels bool   `json:"speaker_labels"`
	MaxSpeakers   int    `json:"max_speakers,omitempty"`
}

// JobStatus is a polled snapshot of a job.
type JobStatus struct {
	Name          string   `json:"name"`
	State         JobState `json:"status"`
	FailureReason string   `json:"failure_reason,omitempty"`
	ResultURI     string   `json:"result_uri,omitempty"`
}

// ResultDocument is the normalized shape of the provider's result file.
type ResultDocument struct {
	Results ResultBody `json:"results"`
}

// ResultBody carries the transcript text plus optional per-word timing and
// speaker-segment metadata.
type ResultBody struct {
	Transcripts   []TranscriptChunk `json:"transcripts"`
	Items         []ResultItem      `json:"items,omitempty"`
	SpeakerLabels *SpeakerLabels    `json:"speaker_labels,omitempty"`
}

// TranscriptChunk is one plain-text transcript block.
type TranscriptChunk struct {
	Transcript string `json:"transcript"`
}

// ResultItem is a single recognized token. Type is "pronunciation" for words
// (which carry timings) and "punctuation" for attached marks (which do not).
type ResultItem struct {
	Type         string        `json:"type"`
	StartTime    string        `json:"start_time,omitempty"`
	EndTime      string        `json:"end_time,omitempty"`
	Alternatives []Alternative `json:"alternatives"`
}

// Alternative is one recognition candidate for an item.
type Alternative struct {
	Content string `json:"content"`
}

// SpeakerLabels holds the diarization segments.
type SpeakerLabels struct {
	Segments []SpeakerSegment `json:"segments"`
}

// SpeakerSegment assigns a speaker to a time range.
type SpeakerSegment struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Speaker   string `json:"speaker_label"`
}

// JobClient is the provider API surface the driver needs: submit, poll,
// fetch-result-by-URI, delete.
type JobClient interface {
	Submit(ctx context.Context, spec JobSpec) error
	GetJob(ctx context.Context, name string) (JobStatus, error)
	FetchResult(ctx context.Context, uri string) ([]byte, error)
	DeleteJob(ctx context.Context, name string) error
}
