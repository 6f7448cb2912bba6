package transcribe

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RenderSpeakerTurns rebuilds the transcript as speaker-labeled turns from
// per-word timing items and diarization segments. Words are assigned to the
// nearest preceding segment boundary, so attribution at boundaries is
// approximate. Callers fall back to the plain transcript on any error.
func RenderSpeakerTurns(doc *ResultDocument) (string, error) {
	if doc.Results.SpeakerLabels == nil || len(doc.Results.SpeakerLabels.Segments) == 0 {
		return "", fmt.Errorf("no speaker segments present")
	}
	if len(doc.Results.Items) == 0 {
		return "", fmt.Errorf("no timed items present")
	}

	segments := make([]SpeakerSegment, len(doc.Results.SpeakerLabels.Segments))
	copy(segments, doc.Results.SpeakerLabels.Segments)

	starts := make([]float64, len(segments))
	for i, seg := range segments {
		start, err := strconv.ParseFloat(seg.StartTime, 64)
		if err != nil {
			return "", fmt.Errorf("parsing segment start %q: %w", seg.StartTime, err)
		}
		starts[i] = start
	}
	sort.Sort(&segmentsByStart{segments: segments, starts: starts})

	type turn struct {
		speaker string
		text    strings.Builder
	}

	var turns []*turn
	appendWord := func(speaker, word string) {
		if len(turns) == 0 || turns[len(turns)-1].speaker != speaker {
			turns = append(turns, &turn{speaker: speaker})
		}
		t := turns[len(turns)-1]
		if t.text.Len() > 0 {
			t.text.WriteString(" ")
		}
		t.text.WriteString(word)
	}

	wordCount := 0
	for _, item := range doc.Results.Items {
		if len(item.Alternatives) == 0 {
			continue
		}
		content := item.Alternatives[0].Content

		if item.Type == "punctuation" {
			// Punctuation carries no timing; attach to the current turn.
			if len(turns) > 0 {
				turns[len(turns)-1].text.WriteString(content)
			}
			continue
		}

		start, err := strconv.ParseFloat(item.StartTime, 64)
		if err != nil {
			return "", fmt.Errorf("parsing item start %q: %w", item.StartTime, err)
		}

		speaker := speakerAt(starts, segments, start)
		appendWord(speaker, content)
		wordCount++
	}

	if wordCount == 0 {
		return "", fmt.Errorf("no pronounceable items present")
	}

	var out strings.Builder
	for i, t := range turns {
		if i > 0 {
			out.WriteString("\n\n")
		}
		fmt.Fprintf(&out, "Speaker %s: %s", t.speaker, t.text.String())
	}
	return out.String(), nil
}

// speakerAt returns the speaker of the last segment starting at or before t.
// Words before the first segment fall into it anyway.
func speakerAt(starts []float64, segments []SpeakerSegment, t float64) string {
	idx := sort.Search(len(starts), func(i int) bool { return starts[i] > t }) - 1
	if idx < 0 {
		idx = 0
	}
	return segments[idx].Speaker
}

type segmentsByStart struct {
	segments []SpeakerSegment
	starts   []float64
}

func (s *segmentsByStart) Len() int           { return len(s.segments) }
func (s *segmentsByStart) Less(i, j int) bool { return s.starts[i] < s.starts[j] }
func (s *segmentsByStart) Swap(i, j int) {
	s.segments[i], s.segments[j] = s.segments[j], s.segments[i]
	s.starts[i], s.starts[j] = s.starts[j], s.starts[i]
}
