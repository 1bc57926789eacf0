// Package processor holds the silence-to-segment pipeline: trace parsing,
// duration probing, keep-segment planning and filter graph construction.
// Everything here is pure apart from the functions that drive the media
// tool gateway, so each stage is testable with canned trace text.
package processor

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/quietcut/api/internal/client"
	"github.com/quietcut/api/internal/model"
)

// silencedetect writes lines like:
//
//	[silencedetect @ 0x...] silence_start: 42.123
//	[silencedetect @ 0x...] silence_end: 43.456 | silence_duration: 1.333
var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?[\d.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*(-?[\d.]+)`)
)

// ParseSilenceTrace extracts silence intervals from a silencedetect trace.
// The duration threshold is applied by the tool itself, so every closed
// interval is accepted. A start marker with no matching end means the
// silence runs to the end of the media and is emitted with End == nil.
// A malformed marker value or an end with no pending start is a
// TraceParseError.
func ParseSilenceTrace(trace string) ([]model.SilenceInterval, error) {
	var intervals []model.SilenceInterval
	var pendingStart float64
	pending := false

	for _, line := range strings.Split(trace, "\n") {
		if m := silenceStartRe.FindStringSubmatch(line); m != nil {
			start, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return nil, &TraceParseError{Want: "numeric silence_start", Line: strings.TrimSpace(line)}
			}
			if start < 0 {
				// silencedetect can report a tiny negative start on the
				// very first frame; clamp rather than reject.
				start = 0
			}
			pendingStart = start
			pending = true
			continue
		}
		if m := silenceEndRe.FindStringSubmatch(line); m != nil {
			end, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return nil, &TraceParseError{Want: "numeric silence_end", Line: strings.TrimSpace(line)}
			}
			if !pending {
				return nil, &TraceParseError{Want: "silence_start before silence_end", Line: strings.TrimSpace(line)}
			}
			intervals = append(intervals, model.SilenceInterval{Start: pendingStart, End: &end})
			pending = false
		}
	}

	// Trailing silence: the stream ended while a silence was still open.
	if pending {
		intervals = append(intervals, model.SilenceInterval{Start: pendingStart, End: nil})
	}

	return intervals, nil
}

// DetectSilences runs the media tool's silence analysis over path and
// parses the resulting trace. noiseDb is the noise floor in dBFS (e.g.
// -30) and minSilence the minimum gap duration in seconds; both are
// applied once, inside the tool.
func DetectSilences(ctx context.Context, tool client.MediaTool, path string, noiseDb, minSilence float64) ([]model.SilenceInterval, error) {
	args := []string{
		"-hide_banner", "-nostats",
		"-i", path,
		"-af", fmt.Sprintf("silencedetect=noise=%gdB:d=%g", noiseDb, minSilence),
		"-f", "null", "-",
	}

	out, err := tool.Run(ctx, args...)
	if err != nil && out == "" {
		return nil, &ToolError{Op: "detect", Err: err}
	}
	// The tool sometimes exits non-zero after writing a complete trace;
	// parse whatever it produced.
	return ParseSilenceTrace(out)
}
