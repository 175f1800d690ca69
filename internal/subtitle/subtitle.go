// Package subtitle produces the WebVTT byte blob a serving session holds in
// memory. Input can be an SRT file in an unknown encoding, a ready WebVTT
// file, or a subtitle track embedded in the media container.
package subtitle

import (
	"fmt"
	"os"
	"strings"
)

// ContentType is the MIME type the delivery server advertises for the blob.
const ContentType = "text/vtt; charset=utf-8"

// Blob is a complete WebVTT document. An empty blob is valid and means no
// subtitles were produced.
type Blob []byte

// Normalize reads a standalone subtitle file and converts it to WebVTT.
// Inputs already carrying the WebVTT signature (or named *.vtt) pass through
// re-encoded as UTF-8; anything else is treated as SRT. An empty path yields
// an empty blob and no error.
func Normalize(path string) (Blob, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subtitle file: %w", err)
	}

	text := decodeText(raw)
	if isWebVTT(path, text) {
		return Blob(text), nil
	}
	return Blob(srtToVTT(text)), nil
}

func isWebVTT(path, text string) bool {
	if strings.HasSuffix(strings.ToLower(path), ".vtt") {
		return true
	}
	return strings.HasPrefix(text, "WEBVTT")
}
