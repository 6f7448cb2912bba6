package models

import "time"

// ArtifactFiles holds the storage keys of every artifact written for one
// file. Keys are relative to the container root.
type ArtifactFiles struct {
	Transcript    string `json:"transcript"`
	Summary       string `json:"summary"`
	EmailText     string `json:"email_text"`
	EmailHTML     string `json:"email_html"`
	Progress      string `json:"progress"`
	Status        string `json:"status"`
	ModelAttempts string `json:"model_attempts"`
	RawResult     string `json:"raw_result,omitempty"`
}

// ProcessingInfo describes how a run went.
type ProcessingInfo struct {
	ProcessedAt     time.Time `json:"processed_at"`
	DurationMs      int64     `json:"duration_ms"`
	ModelUsed       string    `json:"model_used,omitempty"`
	TranscriptChars int       `json:"transcript_chars"`
	IsDemoData      bool      `json:"is_demo_data"`
	Status          string    `json:"status"`
}

// Manifest is the canonical per-file record, written last so downstream
// consumers can treat its presence as completion.
type Manifest struct {
	Source     AudioFile       `json:"source"`
	Meeting    MeetingInfo     `json:"meeting"`
	Processing ProcessingInfo  `json:"processing"`
	Files      ArtifactFiles   `json:"files"`
	Summary    *MeetingSummary `json:"summary"`
}

// IndexEntry is one row of the cross-file processing index.
type IndexEntry struct {
	Manifest    string    `json:"manifest"`
	ProcessedAt time.Time `json:"processed_at"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
}

// ProcessingIndex maps audio base names to their latest successful run.
// Mutated read-modify-write; concurrent invocations race last-writer-wins.
type ProcessingIndex struct {
	Files     map[string]IndexEntry `json:"files"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// Set records an entry, allocating the map on first use.
func (ix *ProcessingIndex) Set(base string, entry IndexEntry) {
	if ix.Files == nil {
		ix.Files = make(map[string]IndexEntry)
	}
	ix.Files[base] = entry
}
