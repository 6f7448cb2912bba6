package summarize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const validSummaryJSON = `{
  "summary": "The team reviewed the release plan.",
  "decisions": ["Ship on Friday"],
  "action_items": [
    {"task": "Update the changelog", "assignee": "Kim", "deadline": "2025-09-30", "priority": "high"},
    {"task": "Book the retro room"}
  ],
  "next_meeting": "2025-10-03 10:00",
  "concerns": ["QA capacity is tight"]
}`

func TestParseSummary(t *testing.T) {
	summary, err := ParseSummary(validSummaryJSON)
	require.NoError(t, err)
	require.Equal(t, "The team reviewed the release plan.", summary.Summary)
	require.Equal(t, []string{"Ship on Friday"}, summary.Decisions)
	require.Len(t, summary.ActionItems, 2)
	require.Equal(t, "Update the changelog", summary.ActionItems[0].Task)
	require.Equal(t, "Kim", summary.ActionItems[0].Assignee)
	require.Empty(t, summary.ActionItems[1].Assignee)
	require.Equal(t, "2025-10-03 10:00", summary.NextMeeting)
}

func TestParseSummaryWrappedInProse(t *testing.T) {
	raw := "Sure! Here is the summary you asked for:\n\n" + validSummaryJSON + "\n\nLet me know if you need anything else."

	summary, err := ParseSummary(raw)
	require.NoError(t, err)
	require.Equal(t, "The team reviewed the release plan.", summary.Summary)
}

func TestParseSummaryNoObject(t *testing.T) {
	_, err := ParseSummary("I could not process this transcript.")
	require.ErrorContains(t, err, "no JSON object")
}

func TestParseSummaryMalformedJSON(t *testing.T) {
	_, err := ParseSummary(`{"summary": "truncated`)
	require.Error(t, err)
}

func TestParseSummaryMissingRequiredField(t *testing.T) {
	_, err := ParseSummary(`{"summary": "x", "decisions": [], "action_items": [], "concerns": []}`)
	require.ErrorContains(t, err, "summary shape invalid")
	require.ErrorContains(t, err, "next_meeting")
}

func TestParseSummaryActionItemWithoutTask(t *testing.T) {
	raw := `{
	  "summary": "x",
	  "decisions": [],
	  "action_items": [{"assignee": "Kim"}],
	  "next_meeting": "",
	  "concerns": []
	}`
	_, err := ParseSummary(raw)
	require.ErrorContains(t, err, "summary shape invalid")
}

func TestParseSummaryWrongTypes(t *testing.T) {
	raw := `{
	  "summary": "x",
	  "decisions": "not an array",
	  "action_items": [],
	  "next_meeting": "",
	  "concerns": []
	}`
	_, err := ParseSummary(raw)
	require.ErrorContains(t, err, "summary shape invalid")
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "bare object", raw: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", raw: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose both sides", raw: `before {"a":{"b":2}} after`, want: `{"a":{"b":2}}`},
		{name: "no braces", raw: "nothing here", wantErr: true},
		{name: "reversed braces", raw: "} {", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestExcerpt(t *testing.T) {
	require.Equal(t, "short", Excerpt("short", 200))
	require.Equal(t, "abc…", Excerpt("abcdef", 3))

	// rune-based, not byte-based
	long := strings.Repeat("あ", 10)
	got := Excerpt(long, 4)
	require.Equal(t, "ああああ…", got)
}
