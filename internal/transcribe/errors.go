package transcribe

import "fmt"

// ErrorKind enumerates the ways a transcription attempt can fail. The
// orchestrator absorbs all of them; the kind only feeds diagnostics.
type ErrorKind string

const (
	KindSubmit          ErrorKind = "submit"
	KindJobFailed       ErrorKind = "job_failed"
	KindTimeout         ErrorKind = "timeout"
	KindBudgetExhausted ErrorKind = "budget_exhausted"
	KindFetch           ErrorKind = "fetch"
	KindEmptyResult     ErrorKind = "empty_result"
)

// Error is the typed failure returned by Driver.Transcribe.
type Error struct {
	Kind    ErrorKind
	JobName string
	Reason  string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("transcribe: %s", e.Kind)
	if e.JobName != "" {
		msg += fmt.Sprintf(" (job %s)", e.JobName)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }
