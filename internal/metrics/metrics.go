package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chromecastplay",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "chromecastplay",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method", "path"})

	MediaBytesServed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chromecastplay",
		Name:      "media_bytes_served_total",
		Help:      "Total media bytes written to clients.",
	})

	MediaRequestsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chromecastplay",
		Name:      "media_requests_rejected_total",
		Help:      "Media requests refused before any bytes were served, by reason.",
	}, []string{"reason"})

	ActiveStreams = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "chromecastplay",
		Name:      "active_streams",
		Help:      "Number of media responses currently in flight.",
	})

	SubtitleRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chromecastplay",
		Name:      "subtitle_requests_total",
		Help:      "Total subtitle blob requests.",
	})

	TranscodeRunning = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "chromecastplay",
		Name:      "transcode_running",
		Help:      "Whether an ffmpeg transcode job is currently running (0 or 1).",
	})

	TranscodeStartsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chromecastplay",
		Name:      "transcode_starts_total",
		Help:      "Total number of transcode jobs started.",
	})

	TranscodeFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "chromecastplay",
		Name:      "transcode_failures_total",
		Help:      "Total number of transcode jobs that exited with an error.",
	})

	TranscodeReadyDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "chromecastplay",
		Name:      "transcode_ready_duration_seconds",
		Help:      "Time until a file-mode transcode buffered enough output to serve.",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		MediaBytesServed,
		MediaRequestsRejected,
		ActiveStreams,
		SubtitleRequestsTotal,
		TranscodeRunning,
		TranscodeStartsTotal,
		TranscodeFailuresTotal,
		TranscodeReadyDuration,
	)
}
