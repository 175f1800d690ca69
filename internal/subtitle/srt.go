package subtitle

import (
	"regexp"
	"strings"
)

// cueTiming is deliberately loose: it accepts both the SRT comma and a bare
// timestamp with no fractional part, tolerates the single-dash arrow some
// tools emit, and skips any leading cue number by matching anywhere in the
// block. Fractional digits are carried over exactly as written.
var cueTiming = regexp.MustCompile(`(?s)(\d+:\d+:\d+)(?:,(\d+))?\s*--?>\s*(\d+:\d+:\d+)(?:,(\d+))?\s*(.*)`)

// srtToVTT converts an SRT document to WebVTT. Cue blocks are separated by
// blank lines; a block whose timing line does not match converts to an empty
// string, which survives the join but yields no cue when parsed.
func srtToVTT(contents string) string {
	cues := strings.Split(contents, "\n\n")
	out := make([]string, 0, len(cues)+1)
	out = append(out, "WEBVTT")
	for _, cue := range cues {
		out = append(out, convertCue(cue))
	}
	return strings.Join(out, "\n\n")
}

func convertCue(cue string) string {
	m := cueTiming.FindStringSubmatch(cue)
	if m == nil {
		return ""
	}
	startMs := m[2]
	if startMs == "" {
		startMs = "000"
	}
	endMs := m[4]
	if endMs == "" {
		endMs = "000"
	}
	return m[1] + "." + startMs + " --> " + m[3] + "." + endMs + "\n" + strings.TrimSpace(m[5])
}
