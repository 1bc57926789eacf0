package processor

import (
	"errors"
	"fmt"
)

// ErrEmptyResult reports that planning produced zero keep segments for a
// file that did contain silences: the whole file is below the threshold.
var ErrEmptyResult = errors.New("no audible segments to keep")

// ToolError reports that the external media tool could not be started or
// exited non-zero without producing a usable trace.
type ToolError struct {
	Op     string // "probe", "detect", "encode"
	Output string // tail of the captured diagnostic output
	Err    error
}

func (e *ToolError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("media tool failed during %s: %v: %s", e.Op, e.Err, e.Output)
	}
	return fmt.Sprintf("media tool failed during %s: %v", e.Op, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// TraceParseError reports that an expected marker was absent or malformed
// in the tool's diagnostic trace.
type TraceParseError struct {
	Want string
	Line string
}

func (e *TraceParseError) Error() string {
	if e.Line != "" {
		return fmt.Sprintf("trace parse: %s (line %q)", e.Want, e.Line)
	}
	return fmt.Sprintf("trace parse: %s", e.Want)
}
