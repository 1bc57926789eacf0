package processor

import (
	"fmt"
	"strings"

	"github.com/quietcut/api/internal/model"
)

// Output pin labels the encode invocation maps with -map.
const (
	videoOutLabel = "[vout]"
	audioOutLabel = "[aout]"
)

// BuildFilterGraph compiles keep segments into a single filter_complex
// description: per segment a trim and a matching atrim at [start, end)
// with timestamps reset to zero, then one concat joining all pairs in the
// planner's emission order. Inner boundaries get a short fade in/out to
// avoid audible and visible pops; the first segment has no fade-in and the
// last no fade-out. fade <= 0 disables fades entirely.
//
// segments must be non-empty — zero-silence files bypass graph
// construction, and an empty plan is reported before this point.
func BuildFilterGraph(segments []model.KeepSegment, fade float64) model.FilterGraph {
	n := len(segments)
	var b strings.Builder

	for i, seg := range segments {
		vIn, vOut, aIn, aOut := segmentFades(i, n, seg, fade)
		fmt.Fprintf(&b, "[0:v]trim=start=%.6f:end=%.6f,setpts=PTS-STARTPTS%s%s[v%d];",
			seg.Start, seg.End, vIn, vOut, i)
		fmt.Fprintf(&b, "[0:a]atrim=start=%.6f:end=%.6f,asetpts=PTS-STARTPTS%s%s[a%d];",
			seg.Start, seg.End, aIn, aOut, i)
	}

	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "[v%d][a%d]", i, i)
	}
	fmt.Fprintf(&b, "concat=n=%d:v=1:a=1%s%s", n, videoOutLabel, audioOutLabel)

	return model.FilterGraph{
		Spec:         b.String(),
		VideoLabel:   videoOutLabel,
		AudioLabel:   audioOutLabel,
		SegmentCount: n,
	}
}

// segmentFades returns the fade filter suffixes for segment i of n.
func segmentFades(i, n int, seg model.KeepSegment, fade float64) (vIn, vOut, aIn, aOut string) {
	if fade <= 0 {
		return
	}
	if i > 0 {
		vIn = fmt.Sprintf(",fade=t=in:st=0:d=%.3f", fade)
		aIn = fmt.Sprintf(",afade=t=in:st=0:d=%.3f", fade)
	}
	if i < n-1 {
		// Timestamps are reset per segment, so the fade-out is anchored
		// at the segment's local end.
		st := seg.Duration() - fade
		if st < 0 {
			st = 0
		}
		vOut = fmt.Sprintf(",fade=t=out:st=%.6f:d=%.3f", st, fade)
		aOut = fmt.Sprintf(",afade=t=out:st=%.6f:d=%.3f", st, fade)
	}
	return
}
