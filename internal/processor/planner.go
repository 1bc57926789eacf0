package processor

import "github.com/quietcut/api/internal/model"

// PlanOptions controls how silence intervals are turned into keep segments.
// All values are seconds.
type PlanOptions struct {
	// PreBuffer pulls each cut back from the start of following speech so
	// its onset is not clipped.
	PreBuffer float64
	// PostBuffer pushes each cut forward past the end of preceding speech.
	PostBuffer float64
	// MinKeep drops segments too short to be worth keeping.
	MinKeep float64
	// KeepTrailing retains a trailing silence whose end marker never
	// arrived instead of cutting it to the end of the media.
	KeepTrailing bool
}

// PlanSegments converts silence intervals into an ordered, non-overlapping
// sequence of keep segments covering the audible parts of the media.
// Pure and deterministic: same inputs, same output.
//
// A cursor walks forward from zero. Each silence closes the segment that
// started at the cursor (if long enough) and advances the cursor past the
// gap. The advance is monotonic, so overlapping or adjacent silences can
// never produce an inverted segment. Buffers wider than a gap silently
// collapse that gap's segment; that is expected, not an error.
func PlanSegments(silences []model.SilenceInterval, totalDuration float64, opts PlanOptions) []model.KeepSegment {
	// No silences means nothing to cut; the caller takes the fast path
	// instead of building a graph over a single full-length segment.
	if len(silences) == 0 {
		return nil
	}

	var keeps []model.KeepSegment
	cursor := 0.0

	for _, s := range silences {
		var cutEnd float64
		switch {
		case s.End != nil:
			cutEnd = *s.End - opts.PreBuffer
		case opts.KeepTrailing:
			// Open interval with the keep policy: leave the trailing
			// silence alone; the final segment below will cover it.
			continue
		default:
			// Trailing silence runs to end-of-media; no following speech
			// onset to protect, so no pre-buffer.
			cutEnd = totalDuration
		}

		cutStart := s.Start + opts.PostBuffer
		if cutStart > totalDuration {
			cutStart = totalDuration
		}

		// Buffers wider than the silence swallow it whole: no cut, no
		// cursor advance (cutEnd <= cutStart <= any future cursor).
		if cutEnd <= cutStart {
			continue
		}

		if cutStart > cursor && cutStart-cursor >= opts.MinKeep {
			keeps = append(keeps, model.KeepSegment{Start: cursor, End: cutStart})
		}
		if cutEnd > cursor {
			cursor = cutEnd
		}
	}

	if totalDuration > cursor && totalDuration-cursor >= opts.MinKeep {
		keeps = append(keeps, model.KeepSegment{Start: cursor, End: totalDuration})
	}

	return keeps
}
