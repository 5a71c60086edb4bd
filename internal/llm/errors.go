package llm

import (
	"errors"
	"fmt"
)

// Operation names carried by RemoteError.
const (
	OpCreatePersona = "persona creation failed"
	OpFetchDocument = "fetch failed"
	OpUpload        = "upload failed"
	OpCreateThread  = "thread creation failed"
	OpAppend        = "append failed"
	OpStartRun      = "run creation failed"
	OpPollRun       = "status check failed"
	OpLatestMessage = "message fetch failed"
)

var (
	// ErrRunTimedOut is returned when polling exhausts its attempts.
	ErrRunTimedOut = errors.New("timed out")
	// ErrNoAssistantResponse is returned when a completed run's newest message is not from the assistant.
	ErrNoAssistantResponse = errors.New("no assistant response found")
)

// RemoteError is a failed call to the assistant API. Body is the response body verbatim.
type RemoteError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Body != "":
		return fmt.Sprintf("%s: %d %s", e.Op, e.Status, e.Body)
	default:
		return fmt.Sprintf("%s: %d", e.Op, e.Status)
	}
}

func (e *RemoteError) Unwrap() error { return e.Err }

// RunError is a run that reached failed, cancelled or expired.
type RunError struct {
	Status string
	Detail string
}

func (e *RunError) Error() string {
	detail := e.Detail
	if detail == "" {
		detail = "unknown error"
	}
	return fmt.Sprintf("run %s: %s", e.Status, detail)
}
