package media

import (
	"mime"
	"path/filepath"
	"strings"
)

// DefaultContentType is used when nothing better can be derived from the
// file name. Transcoded output is always this type.
const DefaultContentType = "video/mp4"

// ContentTypeForPath guesses a MIME type from the file extension, falling
// back to a small table for types the platform registry tends to miss.
func ContentTypeForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return fallbackContentType(ext)
}

func fallbackContentType(ext string) string {
	switch ext {
	case ".mp4":
		return "video/mp4"
	case ".mkv":
		return "video/x-matroska"
	case ".webm":
		return "video/webm"
	case ".avi":
		return "video/x-msvideo"
	case ".mov":
		return "video/quicktime"
	case ".m4v":
		return "video/x-m4v"
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	default:
		return DefaultContentType
	}
}
