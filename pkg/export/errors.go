package export

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBusy is returned when an export is requested while another one is in
// flight; exports are strictly serialized per session.
var ErrBusy = errors.New("an export is already in progress")

// EngineNotReadyError: the transcoding engine could not be initialized (or
// was invoked before initialization completed).
type EngineNotReadyError struct {
	Err error
}

func (e EngineNotReadyError) Error() string {
	return fmt.Sprintf("the transcoding engine is not ready: %v", e.Err)
}

func (e EngineNotReadyError) Unwrap() error {
	return e.Err
}

// InvalidTrimRangeError: the requested trim range is rejected before any
// engine invocation; no side effects are produced.
type InvalidTrimRangeError struct {
	Err error
}

func (e InvalidTrimRangeError) Error() string {
	return fmt.Sprintf("invalid trim range: %v", e.Err)
}

func (e InvalidTrimRangeError) Unwrap() error {
	return e.Err
}

// InputError: the source bytes could not be staged into the engine. Not
// retried.
type InputError struct {
	Name string
	Err  error
}

func (e InputError) Error() string {
	return fmt.Sprintf("unable to stage the input %q: %v", e.Name, e.Err)
}

func (e InputError) Unwrap() error {
	return e.Err
}

// ExecutionError: the processing run itself failed after the documented
// fallback chain was exhausted. Carries the most recent engine log lines.
type ExecutionError struct {
	Err     error
	LogTail []string
}

func (e ExecutionError) Error() string {
	if len(e.LogTail) == 0 {
		return fmt.Sprintf("the processing run failed: %v", e.Err)
	}
	return fmt.Sprintf(
		"the processing run failed: %v; engine log tail:\n%s",
		e.Err, strings.Join(e.LogTail, "\n"),
	)
}

func (e ExecutionError) Unwrap() error {
	return e.Err
}
