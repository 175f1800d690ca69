package apihttp

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/thotypous/chromecastplay/internal/media"
	"github.com/thotypous/chromecastplay/internal/metrics"
	"github.com/thotypous/chromecastplay/internal/subtitle"
)

type statusResponse struct {
	Media     mediaStatus `json:"media"`
	Subtitles bool        `json:"subtitles"`
	Clients   int         `json:"wsClients"`
	UptimeSec int64       `json:"uptimeSec"`
}

type mediaStatus struct {
	Name        string `json:"name,omitempty"`
	Kind        string `json:"kind"`
	ContentType string `json:"contentType"`
	BytesServed int64  `json:"bytesServed"`
	Consumed    *bool  `json:"consumed,omitempty"` // piped sources only
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
	s.video.ServeHTTP(rw, r)

	metrics.MediaBytesServed.Add(float64(rw.size))
	switch rw.status {
	case http.StatusConflict:
		metrics.MediaRequestsRejected.WithLabelValues("stream_consumed").Inc()
	case http.StatusRequestedRangeNotSatisfiable:
		metrics.MediaRequestsRejected.WithLabelValues("range_not_satisfiable").Inc()
	case http.StatusInternalServerError:
		metrics.MediaRequestsRejected.WithLabelValues("media_unavailable").Inc()
	}
}

func (s *Server) handleSub(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	metrics.SubtitleRequestsTotal.Inc()

	w.Header().Set("Content-Type", subtitle.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(s.subtitle)))
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(s.subtitle); err != nil {
		s.logger.Debug("subtitle write interrupted", slog.String("error", err.Error()))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.buildStatus())
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("ws upgrade failed", slog.String("error", err.Error()))
		return
	}
	client := &wsClient{
		hub:  s.wsHub,
		conn: conn,
		send: make(chan []byte, 256),
	}
	s.wsHub.register <- client
	go client.writePump()
	go client.readPump()

	// New clients get a snapshot right away instead of waiting a tick.
	if payload, ok := encodeWSMessage(s.logger, "status", s.buildStatus()); ok {
		select {
		case client.send <- payload:
		default:
		}
	}
}

func (s *Server) buildStatus() statusResponse {
	st := statusResponse{
		Media: mediaStatus{
			Name:        s.mediaName,
			Kind:        string(s.video.Kind()),
			ContentType: s.video.ContentType(),
			BytesServed: s.video.BytesServed(),
		},
		Subtitles: len(s.subtitle) > 0,
		Clients:   s.wsHub.clientCount(),
		UptimeSec: int64(time.Since(s.startedAt).Seconds()),
	}
	if piped, ok := s.video.(*media.PipedStream); ok {
		consumed := piped.Consumed()
		st.Media.Consumed = &consumed
	}
	return st
}
