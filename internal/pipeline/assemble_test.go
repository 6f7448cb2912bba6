package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meetingpipe/meetingpipe/internal/models"
)

func TestShortDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2025年9月26日 18:50", "9/26"},
		{"2025年12月3日 09:00", "12/3"},
		{"2025年09月06日 09:00", "9/6"},
		{"September 26", "September 26"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ShortDate(tt.in); got != tt.want {
			t.Errorf("ShortDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildEmailMarkdown(t *testing.T) {
	info := models.MeetingInfo{Title: "Weekly Sync", Date: "2025年9月26日 18:50"}
	summary := &models.MeetingSummary{
		Summary:   "We planned the release.",
		Decisions: []string{"Ship on Friday"},
		ActionItems: []models.ActionItem{
			{Task: "Update the changelog", Assignee: "Kim", Deadline: "2025-09-30", Priority: models.PriorityHigh},
			{Task: "Book the retro room"},
		},
		NextMeeting: "2025-10-03 10:00",
		Concerns:    []string{"QA capacity"},
	}

	md := BuildEmailMarkdown(info, summary)

	require.True(t, strings.HasPrefix(md, "# Weekly Sync (9/26)\n"), "heading: %q", md)
	require.Contains(t, md, "We planned the release.")
	require.Contains(t, md, "- Ship on Friday")
	require.Contains(t, md, "- [high] Update the changelog (Kim, due 2025-09-30)")
	require.Contains(t, md, "- Book the retro room\n")
	require.Contains(t, md, "2025-10-03 10:00")
	require.Contains(t, md, "- QA capacity")
	require.NotContains(t, md, "demo data")
}

func TestBuildEmailMarkdownEmptyCategories(t *testing.T) {
	info := models.MeetingInfo{Title: "Quiet Meeting", Date: "2025年9月26日 18:50"}
	md := BuildEmailMarkdown(info, &models.MeetingSummary{Summary: "Nothing much happened."})

	require.Contains(t, md, "- none recorded")
	require.Contains(t, md, "not scheduled")
	require.Contains(t, md, "- none raised")
	require.NotContains(t, md, "## Decisions\n\n\n", "empty category must not leave a bare heading")
}

func TestBuildEmailMarkdownDemoNote(t *testing.T) {
	info := models.MeetingInfo{Title: "Retro", Date: "2025年9月26日 18:50"}
	md := BuildEmailMarkdown(info, DemoSummary("claude-sonnet-4.6"))

	require.Contains(t, md, "> Note: this summary contains placeholder demo data.")
	require.Contains(t, md, "claude-sonnet-4.6")
}

func TestRenderEmailHTML(t *testing.T) {
	info := models.MeetingInfo{Title: "Weekly Sync", Date: "2025年9月26日 18:50"}
	md := BuildEmailMarkdown(info, &models.MeetingSummary{
		Summary:   "We planned the release.",
		Decisions: []string{"Ship on Friday"},
	})

	html, err := RenderEmailHTML(md)
	require.NoError(t, err)
	require.Contains(t, html, "<h1>Weekly Sync (9/26)</h1>")
	require.Contains(t, html, "<h2>Summary</h2>")
	require.Contains(t, html, "<li>Ship on Friday</li>")
}
