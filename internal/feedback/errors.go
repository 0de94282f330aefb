package feedback

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no conversation is available to analyze.
var ErrNotFound = errors.New("no conversation found to analyze")

// UpstreamError reports a failure of the conversation platform.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *UpstreamError) Unwrap() error { return e.Err }

// CompletionError reports a failed or unusable completion request.
type CompletionError struct {
	Reason string
	Err    error
}

func (e *CompletionError) Error() string {
	if e.Err == nil {
		return "completion failed: " + e.Reason
	}
	return fmt.Sprintf("completion failed: %s: %v", e.Reason, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }
