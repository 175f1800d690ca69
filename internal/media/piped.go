package media

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// pipeCopyBufSize keeps individual writes small enough that the client sees
// bytes shortly after the encoder produces them.
const pipeCopyBufSize = 64 << 10

// PipedStream serves a forward-only byte stream, typically an encoder's
// stdout. There is no known length and no seeking: ranges are ignored, the
// response is chunked, and exactly one GET may ever consume the stream.
// HEAD requests answer from headers alone and read nothing from the source.
type PipedStream struct {
	src         io.ReadCloser
	contentType string
	logger      *slog.Logger
	claimed     atomic.Bool
	bytesOut    atomic.Int64
}

var _ Source = (*PipedStream)(nil)

func NewPipedStream(src io.ReadCloser, contentType string, logger *slog.Logger) *PipedStream {
	if logger == nil {
		logger = slog.Default()
	}
	return &PipedStream{src: src, contentType: contentType, logger: logger}
}

func (p *PipedStream) Kind() Kind          { return KindPiped }
func (p *PipedStream) ContentType() string { return p.contentType }
func (p *PipedStream) BytesServed() int64  { return p.bytesOut.Load() }

// Consumed reports whether a GET has already claimed the stream.
func (p *PipedStream) Consumed() bool { return p.claimed.Load() }

func (p *PipedStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", p.contentType)

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}

	// First GET wins, permanently. The source cannot be rewound, so even a
	// request that arrives after a disconnect gets refused rather than an
	// empty or mid-stream body.
	if !p.claimed.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, "stream_consumed", "stream already consumed")
		return
	}

	defer p.src.Close()

	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)

	buf := make([]byte, pipeCopyBufSize)
	for {
		n, readErr := p.src.Read(buf)
		if n > 0 {
			written, writeErr := w.Write(buf[:n])
			p.bytesOut.Add(int64(written))
			if writeErr != nil {
				p.logger.Debug("piped client went away",
					slog.Int64("written", p.bytesOut.Load()),
					slog.String("error", writeErr.Error()),
				)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				p.logger.Debug("piped source ended",
					slog.Int64("written", p.bytesOut.Load()),
					slog.String("error", readErr.Error()),
				)
			}
			return
		}
	}
}
