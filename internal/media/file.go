package media

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"sync/atomic"
)

// StaticFile serves a fully written file. The size is captured once at
// construction and single byte ranges are honored against it.
type StaticFile struct {
	path        string
	contentType string
	size        int64
	logger      *slog.Logger
	bytesOut    atomic.Int64
}

var _ Source = (*StaticFile)(nil)

func NewStaticFile(path, contentType string, logger *slog.Logger) (*StaticFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat media file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("media path %q is a directory", path)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StaticFile{
		path:        path,
		contentType: contentType,
		size:        info.Size(),
		logger:      logger,
	}, nil
}

func (f *StaticFile) Kind() Kind          { return KindStatic }
func (f *StaticFile) ContentType() string { return f.contentType }
func (f *StaticFile) BytesServed() int64  { return f.bytesOut.Load() }

func (f *StaticFile) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serveFileRange(w, r, fileServe{
		path:        f.path,
		contentType: f.contentType,
		size:        f.size,
		totalKnown:  true,
		logger:      f.logger,
		bytesOut:    &f.bytesOut,
	})
}

// GrowableFile serves a file another process is still appending to. The size
// is probed from the filesystem on every request and never cached, so each
// response reflects whatever has been written by the time it arrives.
// Because the total is a moving target, partial responses advertise an
// unknown complete length ("*") in Content-Range.
type GrowableFile struct {
	path        string
	contentType string
	logger      *slog.Logger
	bytesOut    atomic.Int64
}

var _ Source = (*GrowableFile)(nil)

func NewGrowableFile(path, contentType string, logger *slog.Logger) (*GrowableFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat media file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("media path %q is a directory", path)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GrowableFile{path: path, contentType: contentType, logger: logger}, nil
}

func (f *GrowableFile) Kind() Kind          { return KindGrowable }
func (f *GrowableFile) ContentType() string { return f.contentType }
func (f *GrowableFile) BytesServed() int64  { return f.bytesOut.Load() }

func (f *GrowableFile) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	info, err := os.Stat(f.path)
	if err != nil {
		f.logger.Warn("growable size probe failed",
			slog.String("path", f.path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "media_unavailable", "media file unavailable")
		return
	}
	serveFileRange(w, r, fileServe{
		path:        f.path,
		contentType: f.contentType,
		size:        info.Size(),
		totalKnown:  false,
		logger:      f.logger,
		bytesOut:    &f.bytesOut,
	})
}

type fileServe struct {
	path        string
	contentType string
	size        int64
	totalKnown  bool
	logger      *slog.Logger
	bytesOut    *atomic.Int64
}

// serveFileRange is the shared GET/HEAD path for file-backed sources. The
// size is decided by the caller; everything here works off that snapshot.
func serveFileRange(w http.ResponseWriter, r *http.Request, p fileServe) {
	w.Header().Set("Content-Type", p.contentType)
	w.Header().Set("Accept-Ranges", "bytes")

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Length", strconv.FormatInt(p.size, 10))
		w.WriteHeader(http.StatusOK)
		return
	}

	start := int64(0)
	end := p.size - 1
	partial := false

	if rangeHeader := r.Header.Get("Range"); rangeHeader != "" {
		s, e, err := parseByteRange(rangeHeader, p.size)
		switch {
		case err == nil:
			start, end, partial = s, e, true
		case errors.Is(err, errRangeNotSatisfiable):
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", p.size))
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		default:
			// Multi-part or malformed ranges degrade to the full body. The
			// single playback client never sends them; anything else gets a
			// correct, if larger, response.
			p.logger.Debug("unusable range header, serving full body",
				slog.String("range", rangeHeader),
			)
		}
	}

	file, err := os.Open(p.path)
	if err != nil {
		p.logger.Warn("media open failed",
			slog.String("path", p.path),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "media_unavailable", "media file unavailable")
		return
	}
	defer file.Close()

	length := end - start + 1
	if length < 0 {
		length = 0
	}

	if partial {
		if _, err := file.Seek(start, io.SeekStart); err != nil {
			writeError(w, http.StatusInternalServerError, "media_unavailable", "failed to seek media file")
			return
		}
		total := "*"
		if p.totalKnown {
			total = strconv.FormatInt(p.size, 10)
		}
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%s", start, end, total))
		w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
		w.WriteHeader(http.StatusPartialContent)
	} else {
		w.Header().Set("Content-Length", strconv.FormatInt(p.size, 10))
		w.WriteHeader(http.StatusOK)
	}

	n, err := io.CopyN(w, file, length)
	p.bytesOut.Add(n)
	if err != nil {
		// Client disconnects and short reads on a still-growing file both
		// land here; neither is a server failure.
		p.logger.Debug("media copy interrupted",
			slog.String("path", p.path),
			slog.Int64("written", n),
			slog.String("error", err.Error()),
		)
	}
}
