package models

import (
	"testing"
	"time"
)

func TestInferTitle(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{name: "plain name", key: "recordings/weekly_sync.mp3", want: "Weekly Sync"},
		{name: "compact date", key: "recordings/weekly_sync_20250926.mp3", want: "Weekly Sync (2025/09/26)"},
		{name: "dashed date", key: "recordings/standup-2025-09-26.wav", want: "Standup (2025/09/26)"},
		{name: "only date", key: "recordings/20250926.mp3", want: "Meeting (2025/09/26)"},
		{name: "mixed separators", key: "recordings/design.review-v2.m4a", want: "Design Review V2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InferTitle(tt.key); got != tt.want {
				t.Errorf("InferTitle(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestNewMeetingInfo(t *testing.T) {
	file := AudioFile{
		Key:          "recordings/retro_20250926.mp3",
		Size:         1024,
		LastModified: time.Date(2025, 9, 26, 18, 50, 0, 0, time.UTC),
	}

	info := NewMeetingInfo(file)

	if info.Title != "Retro (2025/09/26)" {
		t.Errorf("Title = %q", info.Title)
	}
	if info.Date != "2025年9月26日 18:50" {
		t.Errorf("Date = %q", info.Date)
	}
	if info.Participants == "" {
		t.Error("Participants should carry a placeholder, not be empty")
	}
}

func TestAudioFileBaseExt(t *testing.T) {
	f := AudioFile{Key: "recordings/team/Weekly_Sync.MP3"}
	if got := f.Base(); got != "Weekly_Sync" {
		t.Errorf("Base() = %q", got)
	}
	if got := f.Ext(); got != ".mp3" {
		t.Errorf("Ext() = %q", got)
	}
}

func TestProcessingIndexSet(t *testing.T) {
	var idx ProcessingIndex
	idx.Set("a", IndexEntry{Title: "A", Status: "success"})
	idx.Set("b", IndexEntry{Title: "B", Status: "success"})
	idx.Set("a", IndexEntry{Title: "A2", Status: "success"})

	if len(idx.Files) != 2 {
		t.Fatalf("len(Files) = %d, want 2", len(idx.Files))
	}
	if idx.Files["a"].Title != "A2" {
		t.Errorf("entry a = %+v, want overwrite", idx.Files["a"])
	}
}
