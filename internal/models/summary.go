package models

// Priority classifies an action item. The empty value means the model did not
// assign one.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityUnset  Priority = ""
)

// ActionItem is one task extracted from the meeting.
type ActionItem struct {
	Task     string   `json:"task"`
	Assignee string   `json:"assignee,omitempty"`
	Deadline string   `json:"deadline,omitempty"`
	Priority Priority `json:"priority,omitempty"`
}

// MeetingSummary is the structured output of the summarization phase. It is
// either model-produced (validated against the summary schema) or the
// deterministic demo substitute, flagged by IsDemoData.
type MeetingSummary struct {
	Summary     string       `json:"summary"`
	Decisions   []string     `json:"decisions"`
	ActionItems []ActionItem `json:"action_items"`
	NextMeeting string       `json:"next_meeting"`
	Concerns    []string     `json:"concerns"`

	// Demo markers, set only when the summary was synthesized after the
	// whole model fallback list was exhausted.
	IsDemoData bool   `json:"is_demo_data,omitempty"`
	DemoNote   string `json:"demo_note,omitempty"`
}
