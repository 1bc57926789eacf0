package model

// SilenceInterval is one below-threshold gap reported by silence analysis.
// End is nil when the silence was still open at the end of the trace,
// meaning it extends to the end of the media.
type SilenceInterval struct {
	Start float64  `json:"start"`
	End   *float64 `json:"end"`
}

// KeepSegment is a time range of the source media retained in the output.
// Invariant: 0 <= Start < End, and segments in a plan are ordered by Start
// and never overlap.
type KeepSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the length of the segment in seconds.
func (s KeepSegment) Duration() float64 {
	return s.End - s.Start
}

// FilterGraph is a declarative trim/fade/concat graph for one encode pass,
// plus the output pin labels the encode invocation must map.
type FilterGraph struct {
	Spec         string
	VideoLabel   string
	AudioLabel   string
	SegmentCount int
}
