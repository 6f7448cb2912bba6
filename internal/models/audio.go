package models

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// AudioFile identifies one recording blob selected for processing. It is
// immutable for the duration of a pipeline run.
type AudioFile struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	Format       string    `json:"format"`
}

// Base returns the file name without directory or extension, used to key the
// per-file output folder.
func (a AudioFile) Base() string {
	name := path.Base(a.Key)
	return strings.TrimSuffix(name, path.Ext(name))
}

// Ext returns the lowercased extension, including the dot.
func (a AudioFile) Ext() string {
	return strings.ToLower(path.Ext(a.Key))
}

// MeetingInfo carries the display metadata derived from an AudioFile. Built
// once at the start of the pipeline, read-only afterward.
type MeetingInfo struct {
	Title        string `json:"title"`
	Date         string `json:"date"`
	Participants string `json:"participants"`
}

// formatMeetingDate renders the long localized form recorded in
// MeetingInfo.Date, e.g. "2025年9月26日 18:50". Rendered manually because
// time.Format pads the month and day when the layout digits do.
func formatMeetingDate(t time.Time) string {
	return fmt.Sprintf("%d年%d月%d日 %02d:%02d",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute())
}

// NewMeetingInfo derives meeting metadata from the audio file. The title
// heuristic works off the file name only; participants are a placeholder
// until a roster source exists.
func NewMeetingInfo(f AudioFile) MeetingInfo {
	return MeetingInfo{
		Title:        InferTitle(f.Key),
		Date:         formatMeetingDate(f.LastModified),
		Participants: "(participants unknown)",
	}
}

var (
	compactDateRe = regexp.MustCompile(`(20\d{2})[-_]?(\d{2})[-_]?(\d{2})`)
	titleCaser    = cases.Title(language.English)
)

// InferTitle guesses a human-readable meeting title from a storage key.
// A recognizable yyyymmdd fragment becomes a date suffix; the rest of the
// name is title-cased with separators turned into spaces.
func InferTitle(key string) string {
	name := path.Base(key)
	name = strings.TrimSuffix(name, path.Ext(name))

	var dateSuffix string
	if m := compactDateRe.FindStringSubmatch(name); m != nil {
		dateSuffix = fmt.Sprintf(" (%s/%s/%s)", m[1], m[2], m[3])
		name = strings.Replace(name, m[0], "", 1)
	}

	name = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		name = "Meeting"
	}

	return titleCaser.String(name) + dateSuffix
}
