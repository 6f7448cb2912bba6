package pipeline

import (
	"fmt"

	"github.com/meetingpipe/meetingpipe/internal/models"
)

// DemoSummary is substituted when every summarization model fails. The
// content points at the usual cause — missing model access — and names the
// primary model so the fix is actionable.
func DemoSummary(primaryModel string) *models.MeetingSummary {
	return &models.MeetingSummary{
		Summary: fmt.Sprintf("Placeholder summary: no completion model produced valid output for this meeting. "+
			"The most common cause is that the account has no access to %q or its fallbacks. "+
			"The transcript artifact next to this file is unaffected.", primaryModel),
		Decisions: []string{
			"No decisions extracted (demo data)",
		},
		ActionItems: []models.ActionItem{
			{
				Task:     fmt.Sprintf("Verify model access for %s in the completion provider settings", primaryModel),
				Assignee: "pipeline operator",
				Priority: models.PriorityHigh,
			},
			{
				Task:     "Review model_attempts.jsonl for the per-model failure classes and hints",
				Assignee: "pipeline operator",
				Priority: models.PriorityMedium,
			},
		},
		NextMeeting: "",
		Concerns: []string{
			"Summary content is placeholder data until the model access problem is resolved",
		},
		IsDemoData: true,
		DemoNote:   fmt.Sprintf("Generated without model output; primary model was %s", primaryModel),
	}
}
