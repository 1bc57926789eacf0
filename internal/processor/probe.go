package processor

import (
	"context"
	"regexp"
	"strconv"

	"github.com/quietcut/api/internal/client"
)

var (
	// "Duration: 00:05:23.45" from the input header dump.
	durationRe = regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+(?:\.\d+)?)`)
	// "time=00:05:23.45" progress stamps; the last one is the final
	// position, used as a fallback when the header line is missing.
	progressTimeRe = regexp.MustCompile(`time=(\d+):(\d+):(\d+(?:\.\d+)?)`)
)

// ParseDuration extracts the total media duration in seconds from a tool
// trace. Missing markers are a TraceParseError — the caller must never
// fall back to a zero duration.
func ParseDuration(trace string) (float64, error) {
	if m := durationRe.FindStringSubmatch(trace); m != nil {
		return timeComponentsToSeconds(m[1], m[2], m[3]), nil
	}

	all := progressTimeRe.FindAllStringSubmatch(trace, -1)
	if len(all) > 0 {
		m := all[len(all)-1]
		return timeComponentsToSeconds(m[1], m[2], m[3]), nil
	}

	return 0, &TraceParseError{Want: "Duration: marker in trace"}
}

func timeComponentsToSeconds(hours, minutes, seconds string) float64 {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.ParseFloat(seconds, 64)
	return float64(h)*3600 + float64(m)*60 + s
}

// ProbeDuration runs the media tool in null-output mode to obtain the
// total duration of path.
func ProbeDuration(ctx context.Context, tool client.MediaTool, path string) (float64, error) {
	args := []string{"-hide_banner", "-i", path, "-f", "null", "-"}

	out, err := tool.Run(ctx, args...)
	if err != nil && out == "" {
		return 0, &ToolError{Op: "probe", Err: err}
	}
	return ParseDuration(out)
}
