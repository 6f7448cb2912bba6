package models

// TranscriptSource records how a transcript was obtained.
type TranscriptSource string

const (
	// SourceProvider means the speech-to-text provider produced it this run.
	SourceProvider TranscriptSource = "provider"
	// SourceCache means a previously persisted transcript was reused.
	SourceCache TranscriptSource = "cache"
	// SourceDemo means the deterministic demo transcript was substituted.
	SourceDemo TranscriptSource = "demo"
)

// Transcript is the text output of the transcription phase.
type Transcript struct {
	Text           string           `json:"text"`
	SpeakerLabeled bool             `json:"speaker_labeled"`
	Source         TranscriptSource `json:"source"`
}

// DemoTranscript is substituted when transcription fails entirely. The
// content is a fixed constant: reruns and tests are deterministic, and the
// transcription driver recognizes it in a stored transcript artifact so a
// degraded run never satisfies the idempotent short-circuit.
const DemoTranscript = `Speaker spk_0: This is placeholder transcript content. The speech-to-text job for this recording did not complete, so the pipeline continued with demo data.

Speaker spk_1: Check the progress log next to this file for the failing stage, then verify the transcription service endpoint and credentials.

Speaker spk_0: Once transcription succeeds on a rerun, this file is replaced by the real transcript automatically.`
