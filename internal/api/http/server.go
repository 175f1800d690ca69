package apihttp

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/thotypous/chromecastplay/internal/media"
	"github.com/thotypous/chromecastplay/internal/subtitle"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultStatusInterval = 2 * time.Second

// Server mounts one media source and one subtitle blob for a single remote
// playback client. The subtitle path is always mounted; with no subtitles
// configured it serves an empty document.
type Server struct {
	video          media.Source
	mediaName      string
	subtitle       subtitle.Blob
	statusInterval time.Duration
	startedAt      time.Time
	logger         *slog.Logger
	handler        http.Handler
	wsHub          *wsHub
	stopBroadcast  chan struct{}
	closeOnce      sync.Once
}

type ServerOption func(*Server)

// WithSubtitles mounts blob at the subtitle path. An empty blob is valid.
func WithSubtitles(blob subtitle.Blob) ServerOption {
	return func(s *Server) {
		s.subtitle = blob
	}
}

// WithMediaName sets the display name reported by the status endpoint.
func WithMediaName(name string) ServerOption {
	return func(s *Server) {
		s.mediaName = name
	}
}

// WithStatusInterval sets how often status snapshots are pushed to
// WebSocket clients.
func WithStatusInterval(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.statusInterval = d
		}
	}
}

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func NewServer(video media.Source, opts ...ServerOption) *Server {
	s := &Server{
		video:          video,
		statusInterval: defaultStatusInterval,
		startedAt:      time.Now(),
		stopBroadcast:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.wsHub = newWSHub(s.logger)
	go s.wsHub.run()
	go s.broadcastStatus()

	mux := http.NewServeMux()
	mux.HandleFunc("/video", s.handleVideo)
	mux.HandleFunc("/sub", s.handleSub)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/events", s.handleWS)

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "chromecastplay",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/healthz"
		}),
	)
	s.handler = recoveryMiddleware(s.logger, corsMiddleware(rateLimitMiddleware(50, 100, metricsMiddleware(traced))))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close stops the status broadcaster and the WebSocket hub, disconnecting
// all clients.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.stopBroadcast)
		if s.wsHub != nil {
			s.wsHub.Close()
		}
	})
}

func (s *Server) broadcastStatus() {
	ticker := time.NewTicker(s.statusInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopBroadcast:
			return
		case <-ticker.C:
			s.wsHub.Broadcast("status", s.buildStatus())
		}
	}
}
