package summarize

import (
	"fmt"

	"github.com/meetingpipe/meetingpipe/internal/models"
)

const promptTemplate = `You are a meeting analyst. Read the transcript below and return ONLY a JSON object — no prose before or after it, no code fences.

Required shape:
{
  "summary": "3-6 sentence overview of the meeting",
  "decisions": ["each decision that was made"],
  "action_items": [{"task": "...", "assignee": "...", "deadline": "...", "priority": "high|medium|low"}],
  "next_meeting": "when the next meeting happens, or an empty string",
  "concerns": ["risks or open concerns raised"]
}

Rules:
- Extract only. Never invent content that is not supported by the transcript.
- Leave a field empty ("" or []) when the transcript gives nothing for it.
- Omit priority when the transcript does not indicate urgency.

Meeting: %s
Date: %s
Participants: %s

Transcript:
---
%s
---`

// BuildPrompt renders the structured-output prompt, truncating the
// transcript to maxChars runes (with marker) to bound cost and latency.
func BuildPrompt(info models.MeetingInfo, transcript string, maxChars int, marker string) string {
	runes := []rune(transcript)
	if maxChars > 0 && len(runes) > maxChars {
		transcript = string(runes[:maxChars]) + marker
	}
	return fmt.Sprintf(promptTemplate, info.Title, info.Date, info.Participants, transcript)
}
