package summarize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/meetingpipe/meetingpipe/internal/models"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// summarySchemaJSON is the required shape of a model response. Validation
// happens on the extracted object before it is trusted anywhere else.
const summarySchemaJSON = `{
  "type": "object",
  "required": ["summary", "decisions", "action_items", "next_meeting", "concerns"],
  "properties": {
    "summary": {"type": "string"},
    "decisions": {"type": "array", "items": {"type": "string"}},
    "action_items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["task"],
        "properties": {
          "task": {"type": "string"},
          "assignee": {"type": "string"},
          "deadline": {"type": "string"},
          "priority": {"type": "string"}
        }
      }
    },
    "next_meeting": {"type": "string"},
    "concerns": {"type": "array", "items": {"type": "string"}}
  }
}`

var summarySchema *jsonschema.Schema

func init() {
	summarySchema = mustCompileSchema(summarySchemaJSON, "summary.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	schemaDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// ExtractJSON pulls the substring between the first '{' and the last '}' of
// a raw model response, tolerating any prose the model wrapped around it.
func ExtractJSON(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < 0 || end < start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return raw[start : end+1], nil
}

// ParseSummary extracts, validates, and decodes a MeetingSummary from a raw
// model response.
func ParseSummary(raw string) (*models.MeetingSummary, error) {
	extracted, err := ExtractJSON(raw)
	if err != nil {
		return nil, err
	}

	instance, err := jsonschema.UnmarshalJSON(strings.NewReader(extracted))
	if err != nil {
		return nil, fmt.Errorf("parsing extracted object: %w", err)
	}

	if err := summarySchema.Validate(instance); err != nil {
		return nil, fmt.Errorf("summary shape invalid: %s", formatSchemaError(err))
	}

	var summary models.MeetingSummary
	if err := json.Unmarshal([]byte(extracted), &summary); err != nil {
		return nil, fmt.Errorf("decoding summary: %w", err)
	}
	return &summary, nil
}

func formatSchemaError(err error) string {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return strings.Join(errs, "; ")
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// Excerpt returns the first n runes of raw for diagnostics.
func Excerpt(raw string, n int) string {
	runes := []rune(raw)
	if len(runes) <= n {
		return raw
	}
	return string(runes[:n]) + "…"
}
