package pipeline

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/meetingpipe/meetingpipe/internal/models"
)

// localizedDateRe matches the long localized date form used in
// MeetingInfo.Date, e.g. "2025年9月26日 18:50".
var localizedDateRe = regexp.MustCompile(`(\d{4})年(\d{1,2})月(\d{1,2})日`)

// ShortDate reformats the localized long date to "month/day". Inputs that do
// not match the expected pattern pass through unchanged.
func ShortDate(date string) string {
	m := localizedDateRe.FindStringSubmatch(date)
	if m == nil {
		return date
	}
	month := strings.TrimPrefix(m[2], "0")
	day := strings.TrimPrefix(m[3], "0")
	return month + "/" + day
}

// BuildEmailMarkdown renders the email-ready body from the summary fields.
// Every category gets a fallback line when empty, so the email never has a
// bare heading.
func BuildEmailMarkdown(info models.MeetingInfo, summary *models.MeetingSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s (%s)\n\n", info.Title, ShortDate(info.Date))

	if summary.IsDemoData {
		b.WriteString("> Note: this summary contains placeholder demo data. ")
		b.WriteString(summary.DemoNote)
		b.WriteString("\n\n")
	}

	b.WriteString("## Summary\n\n")
	if summary.Summary != "" {
		b.WriteString(summary.Summary + "\n")
	} else {
		b.WriteString("(no summary available)\n")
	}

	b.WriteString("\n## Decisions\n\n")
	if len(summary.Decisions) > 0 {
		for _, d := range summary.Decisions {
			fmt.Fprintf(&b, "- %s\n", d)
		}
	} else {
		b.WriteString("- none recorded\n")
	}

	b.WriteString("\n## Action Items\n\n")
	if len(summary.ActionItems) > 0 {
		for _, item := range summary.ActionItems {
			b.WriteString("- ")
			if item.Priority != models.PriorityUnset {
				fmt.Fprintf(&b, "[%s] ", item.Priority)
			}
			b.WriteString(item.Task)
			var meta []string
			if item.Assignee != "" {
				meta = append(meta, item.Assignee)
			}
			if item.Deadline != "" {
				meta = append(meta, "due "+item.Deadline)
			}
			if len(meta) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(meta, ", "))
			}
			b.WriteString("\n")
		}
	} else {
		b.WriteString("- none recorded\n")
	}

	b.WriteString("\n## Next Meeting\n\n")
	if summary.NextMeeting != "" {
		b.WriteString(summary.NextMeeting + "\n")
	} else {
		b.WriteString("not scheduled\n")
	}

	b.WriteString("\n## Concerns\n\n")
	if len(summary.Concerns) > 0 {
		for _, c := range summary.Concerns {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	} else {
		b.WriteString("- none raised\n")
	}

	return b.String()
}

// RenderEmailHTML converts the email markdown to HTML for clients that
// prefer a rich body.
func RenderEmailHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("rendering email html: %w", err)
	}
	return buf.String(), nil
}
